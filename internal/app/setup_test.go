package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/pricing"
)

// recordingAllocator remembers enqueued bookings and allocates synchronously on demand.
type recordingAllocator struct {
	*app.Allocator
	mu       sync.Mutex
	enqueued []int64
}

func (r *recordingAllocator) Enqueue(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued = append(r.enqueued, id)
}

type hotel struct {
	store    *memStore
	cache    *fakeCache
	audit    *fakeAudit
	alloc    *recordingAllocator
	props    *app.PropertyService
	avail    *app.AvailabilityService
	promos   *app.PromotionService
	hk       *app.HousekeepingService
	bookings *app.BookingService
	pos      *app.POSService

	property domain.Property
	deluxe   domain.RoomType
	rooms    []domain.Room
}

const today = "2030-06-03T09:00:00Z" // a Monday

// newHotel builds one property with a deluxe room type of three rooms and a
// generated calendar for June 2030.
func newHotel(t *testing.T) *hotel {
	t.Helper()
	ctx := context.Background()
	h := &hotel{store: newMemStore(), cache: &fakeCache{}, audit: &fakeAudit{}}
	now := clock(today)

	h.props = app.NewPropertyService(h.store)
	h.avail = app.NewAvailabilityService(h.store, h.store, h.cache, pricing.DefaultRules(10), time.Minute)
	h.promos = app.NewPromotionService(h.store, h.store, h.store, h.avail)
	h.promos.Now = now
	h.hk = app.NewHousekeepingService(h.store, h.store, h.store)
	h.hk.Now = now
	h.alloc = &recordingAllocator{Allocator: app.NewAllocator(h.store, 2, 16)}
	h.bookings = app.NewBookingService(h.store, h.store, h.avail, h.promos, h.hk, h.alloc, h.audit)
	h.bookings.Now = now
	h.pos = app.NewPOSService(h.store, h.store, h.store)
	h.pos.Now = now

	var err error
	h.property, err = h.props.CreateProperty(ctx, domain.Property{Name: "Harbour View", Currency: "eur"})
	if err != nil {
		t.Fatalf("create property: %v", err)
	}
	h.deluxe, err = h.props.CreateRoomType(ctx, domain.RoomType{
		PropertyID: h.property.ID, Code: "dlx", Name: "Deluxe", BaseRate: dec("100"), MaxAdults: 2, MaxChildren: 1,
	})
	if err != nil {
		t.Fatalf("create room type: %v", err)
	}
	for _, r := range []domain.Room{
		{RoomTypeID: h.deluxe.ID, Number: "301", Floor: 3},
		{RoomTypeID: h.deluxe.ID, Number: "102", Floor: 1, Status: domain.RoomDirty},
		{RoomTypeID: h.deluxe.ID, Number: "201", Floor: 2},
	} {
		room, err := h.props.CreateRoom(ctx, r)
		if err != nil {
			t.Fatalf("create room: %v", err)
		}
		h.rooms = append(h.rooms, room)
	}
	if _, err := h.avail.GenerateCalendar(ctx, h.deluxe.ID, day("2030-06-01"), day("2030-07-01")); err != nil {
		t.Fatalf("generate calendar: %v", err)
	}
	return h
}

func (h *hotel) input(in, out string) domain.BookingInput {
	return domain.BookingInput{
		PropertyID: h.property.ID,
		RoomTypeID: h.deluxe.ID,
		Guest:      domain.Guest{Name: "Ada Lovelace", Email: "ada@example.com"},
		CheckIn:    day(in),
		CheckOut:   day(out),
		Adults:     2,
	}
}

func (h *hotel) book(t *testing.T, in, out string) domain.Booking {
	t.Helper()
	b, _, err := h.bookings.CreateBooking(context.Background(), h.input(in, out), "")
	if err != nil {
		t.Fatalf("create booking %s..%s: %v", in, out, err)
	}
	return b
}

func (h *hotel) calendarRow(t *testing.T, d string) domain.RoomAvailability {
	t.Helper()
	rows, err := h.store.GetCalendar(context.Background(), h.deluxe.ID, day(d), day(d).AddDate(0, 0, 1))
	if err != nil || len(rows) != 1 {
		t.Fatalf("calendar row %s: %v %v", d, rows, err)
	}
	return rows[0]
}
