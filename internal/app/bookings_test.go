package app_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
)

func TestCreateBooking_ReservesPricesAndAudits(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()

	// Thu, Fri, Sat nights: 100 + 120 + 120
	b, created, err := h.bookings.CreateBooking(ctx, h.input("2030-06-06", "2030-06-09"), "")
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	if !regexp.MustCompile(`^BK-[0-9A-F]{8}$`).MatchString(b.Reference) {
		t.Fatalf("reference = %q", b.Reference)
	}
	if b.Status != domain.BookingConfirmed {
		t.Fatalf("status = %s", b.Status)
	}
	if !b.Price.Subtotal.Equal(dec("340")) || !b.Price.Taxes.Equal(dec("34")) || !b.Price.Total.Equal(dec("374")) {
		t.Fatalf("price = %+v", b.Price)
	}
	if b.Price.Currency != "EUR" || len(b.Price.Nights) != 3 {
		t.Fatalf("price = %+v", b.Price)
	}
	for _, d := range []string{"2030-06-06", "2030-06-07", "2030-06-08"} {
		if got := h.calendarRow(t, d).Booked; got != 1 {
			t.Fatalf("%s booked = %d", d, got)
		}
	}
	if got := h.calendarRow(t, "2030-06-09").Booked; got != 0 {
		t.Fatalf("check-out night reserved: %d", got)
	}
	if len(h.alloc.enqueued) != 1 || h.alloc.enqueued[0] != b.ID {
		t.Fatalf("enqueued = %v", h.alloc.enqueued)
	}
	if len(h.audit.entries) != 1 || h.audit.entries[0].To != domain.BookingConfirmed || h.audit.entries[0].From != "" {
		t.Fatalf("audit = %+v", h.audit.entries)
	}
}

func TestCreateBooking_IdempotencyKeyReturnsExisting(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()

	first, created, err := h.bookings.CreateBooking(ctx, h.input("2030-06-10", "2030-06-12"), "key-1")
	if err != nil || !created {
		t.Fatalf("first: %v", err)
	}
	again, created, err := h.bookings.CreateBooking(ctx, h.input("2030-06-10", "2030-06-12"), "key-1")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("expected replay of booking %d, got %d created=%v", first.ID, again.ID, created)
	}
	if got := h.calendarRow(t, "2030-06-10").Booked; got != 1 {
		t.Fatalf("booked twice: %d", got)
	}
}

// lateKeyStore misses the first idempotency lookup, as when two requests with the same key
// both read before either commits, and enforces the unique key on insert like MySQL does.
type lateKeyStore struct {
	*memStore
	misses int
}

func (s *lateKeyStore) GetBookingByIdempotencyKey(ctx context.Context, k string) (domain.Booking, error) {
	if s.misses > 0 {
		s.misses--
		return domain.Booking{}, domain.ErrNotFound
	}
	return s.memStore.GetBookingByIdempotencyKey(ctx, k)
}

func (s *lateKeyStore) CreateBooking(ctx context.Context, b *domain.Booking) error {
	if b.IdempotencyKey != "" {
		if _, err := s.memStore.GetBookingByIdempotencyKey(ctx, b.IdempotencyKey); err == nil {
			return fmt.Errorf("%w: Duplicate entry for key 'uq_bookings_idempotency'", domain.ErrConflict)
		}
	}
	return s.memStore.CreateBooking(ctx, b)
}

func TestCreateBooking_ConcurrentSameKeyReturnsWinner(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()

	first, created, err := h.bookings.CreateBooking(ctx, h.input("2030-06-10", "2030-06-12"), "key-race")
	if err != nil || !created {
		t.Fatalf("first: %v", err)
	}

	store := &lateKeyStore{memStore: h.store, misses: 1}
	loser := app.NewBookingService(store, h.store, h.avail, h.promos, h.hk, h.alloc, h.audit)
	loser.Now = clock(today)

	again, created, err := loser.CreateBooking(ctx, h.input("2030-06-10", "2030-06-12"), "key-race")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("expected booking %d with created=false, got %d created=%v", first.ID, again.ID, created)
	}
	if got := h.calendarRow(t, "2030-06-10").Booked; got != 1 {
		t.Fatalf("booked = %d, want 1", got)
	}

	// a fresh key still books
	store.misses = 1
	if _, created, err := loser.CreateBooking(ctx, h.input("2030-06-10", "2030-06-12"), "key-other"); err != nil || !created {
		t.Fatalf("fresh key: created=%v err=%v", created, err)
	}
}

func TestCreateBooking_OTAStaysPending(t *testing.T) {
	h := newHotel(t)
	in := h.input("2030-06-10", "2030-06-11")
	in.Source = domain.SourceOTA
	b, _, err := h.bookings.CreateBooking(context.Background(), in, "")
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != domain.BookingPending || len(h.alloc.enqueued) != 0 {
		t.Fatalf("status=%s enqueued=%v", b.Status, h.alloc.enqueued)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	h := newHotel(t)
	cases := map[string]func(*domain.BookingInput){
		"guest.email": func(in *domain.BookingInput) { in.Guest.Email = "nope" },
		"checkOut":    func(in *domain.BookingInput) { in.CheckOut = in.CheckIn },
		"checkIn":     func(in *domain.BookingInput) { in.CheckIn, in.CheckOut = day("2030-06-01"), day("2030-06-04") },
		"adults":      func(in *domain.BookingInput) { in.Adults = 3 },
		"source":      func(in *domain.BookingInput) { in.Source = "fax" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := h.input("2030-06-10", "2030-06-12")
			mutate(&in)
			_, _, err := h.bookings.CreateBooking(context.Background(), in, "")
			ve, ok := domain.AsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := ve.Fields[field]; !ok {
				t.Fatalf("missing %s in %v", field, ve.Fields)
			}
		})
	}

	in := h.input("2030-06-10", "2030-07-15")
	if _, _, err := h.bookings.CreateBooking(context.Background(), in, ""); err == nil {
		t.Fatal("expected stays over 30 nights to be refused")
	}

	in = h.input("2030-06-10", "2030-06-12")
	in.Guest.Email = "Ada Lovelace <ada@example.com>"
	_, _, err := h.bookings.CreateBooking(context.Background(), in, "")
	if ve, ok := domain.AsValidation(err); !ok || len(ve.Fields["guest.email"]) == 0 {
		t.Fatalf("display-name address accepted: %v", err)
	}
}

func TestCreateBooking_NoAvailabilityChangesNothing(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h.book(t, "2030-06-11", "2030-06-12")
	}
	_, _, err := h.bookings.CreateBooking(ctx, h.input("2030-06-10", "2030-06-13"), "")
	if !errors.Is(err, domain.ErrNoAvailability) {
		t.Fatalf("err = %v", err)
	}
	if got := h.calendarRow(t, "2030-06-10").Booked; got != 0 {
		t.Fatalf("partial reservation left behind: %d", got)
	}
}

func TestCreateBooking_Promotion(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	p, err := h.promos.CreatePromotion(ctx, domain.Promotion{
		Code: " summer10 ", Name: "Summer", Type: domain.PromoPercentage, Value: dec("10"),
		ValidFrom: day("2030-01-01"), ValidTo: day("2030-12-31"), MinNights: 2, UsageLimit: 1,
	})
	if err != nil {
		t.Fatalf("create promotion: %v", err)
	}
	if p.Code != "SUMMER10" {
		t.Fatalf("code = %q", p.Code)
	}

	in := h.input("2030-06-10", "2030-06-11")
	in.PromoCode = "summer10"
	_, _, err = h.bookings.CreateBooking(ctx, in, "")
	var pe *domain.PromotionError
	if !errors.As(err, &pe) || !errors.Is(err, domain.ErrPromotionRejected) || len(pe.Reasons) != 1 {
		t.Fatalf("expected min-nights rejection, got %v", err)
	}

	in = h.input("2030-06-10", "2030-06-12")
	in.PromoCode = "summer10"
	b, _, err := h.bookings.CreateBooking(ctx, in, "")
	if err != nil {
		t.Fatalf("create with promo: %v", err)
	}
	// 200 - 20 discount, +10% tax on 180
	if !b.Price.Discount.Equal(dec("20")) || !b.Price.Total.Equal(dec("198")) || b.PromoCode != "SUMMER10" {
		t.Fatalf("price = %+v code=%q", b.Price, b.PromoCode)
	}
	got, _ := h.promos.GetPromotion(ctx, p.ID)
	if got.UsedCount != 1 {
		t.Fatalf("used = %d", got.UsedCount)
	}

	_, _, err = h.bookings.CreateBooking(ctx, in, "")
	if !errors.As(err, &pe) {
		t.Fatalf("expected exhausted promotion to be rejected, got %v", err)
	}
}

func TestTransition_RejectsDisallowed(t *testing.T) {
	h := newHotel(t)
	b := h.book(t, "2030-06-10", "2030-06-11")
	_, err := h.bookings.Transition(context.Background(), domain.Transition{BookingID: b.ID, To: domain.BookingCheckedOut})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
}

func TestTransition_CheckInBeforeArrivalDate(t *testing.T) {
	h := newHotel(t)
	b := h.book(t, "2030-06-10", "2030-06-11")
	_, err := h.bookings.Transition(context.Background(), domain.Transition{BookingID: b.ID, To: domain.BookingCheckedIn})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
}

func TestTransition_CheckInAndOut(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	b := h.book(t, "2030-06-03", "2030-06-05")

	in, err := h.bookings.Transition(ctx, domain.Transition{BookingID: b.ID, To: domain.BookingCheckedIn, Actor: "desk@example.com"})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if in.RoomID == nil || in.CheckedInAt == nil {
		t.Fatalf("check-in did not allocate: %+v", in)
	}
	// room 201 is the lowest ready room; 102 is dirty
	room, _ := h.store.GetRoom(ctx, *in.RoomID)
	if room.Number != "201" || room.Status != domain.RoomOccupied {
		t.Fatalf("room = %+v", room)
	}

	out, err := h.bookings.Transition(ctx, domain.Transition{BookingID: b.ID, To: domain.BookingCheckedOut})
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if out.Status != domain.BookingCheckedOut {
		t.Fatalf("status = %s", out.Status)
	}
	room, _ = h.store.GetRoom(ctx, *in.RoomID)
	if room.Status != domain.RoomDirty {
		t.Fatalf("room status after checkout = %s", room.Status)
	}
	tasks, _ := h.hk.ListTasks(ctx, domain.TaskFilter{RoomID: room.ID})
	if len(tasks) != 1 || tasks[0].Type != domain.TaskCheckoutClean || tasks[0].Priority != domain.PriorityHigh {
		t.Fatalf("tasks = %+v", tasks)
	}

	hist, _ := h.bookings.History(ctx, b.ID)
	if len(hist) != 3 || hist[1].Actor != "desk@example.com" || hist[2].From != domain.BookingCheckedIn {
		t.Fatalf("history = %+v", hist)
	}
}

func TestTransition_CancelReleasesInventory(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	b := h.book(t, "2030-06-10", "2030-06-12")
	if _, err := h.bookings.AssignRoom(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	got, err := h.bookings.Transition(ctx, domain.Transition{BookingID: b.ID, To: domain.BookingCancelled, Reason: "plans changed"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.RoomID != nil || got.CancelReason != "plans changed" || got.CancelledAt == nil {
		t.Fatalf("cancelled booking = %+v", got)
	}
	if n := h.calendarRow(t, "2030-06-10").Booked + h.calendarRow(t, "2030-06-11").Booked; n != 0 {
		t.Fatalf("inventory not released: %d", n)
	}
}

func TestSweepNoShows(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	h.bookings.Now = clock("2030-06-01T09:00:00Z")
	old := h.book(t, "2030-06-01", "2030-06-02")
	yesterday := h.book(t, "2030-06-02", "2030-06-04")
	h.bookings.Now = clock(today)

	n, err := h.bookings.SweepNoShows(ctx)
	if err != nil || n != 1 {
		t.Fatalf("swept %d err=%v", n, err)
	}
	if b, _ := h.bookings.GetBooking(ctx, old.ID); b.Status != domain.BookingNoShow {
		t.Fatalf("old booking status = %s", b.Status)
	}
	if b, _ := h.bookings.GetBooking(ctx, yesterday.ID); b.Status != domain.BookingConfirmed {
		t.Fatalf("arrival one day ago swept early: %s", b.Status)
	}
}

func TestFolio_SumsCharges(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	b := h.book(t, "2030-06-10", "2030-06-11")
	_, _ = h.store.AddCharge(ctx, domain.Charge{BookingID: b.ID, Source: domain.ChargePOS, Amount: dec("12.50")})

	f, err := h.bookings.Folio(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Extras.Equal(dec("12.50")) || !f.Balance.Equal(b.Price.Total.Add(dec("12.50"))) {
		t.Fatalf("folio = %+v", f)
	}
}
