package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
)

func TestHousekeeping_TaskMovesRoomThroughCleaning(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	room := h.rooms[1] // dirty

	task, err := h.hk.CreateTask(ctx, domain.HousekeepingTask{RoomID: room.ID, Type: domain.TaskCheckoutClean})
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != domain.TaskPending || task.Priority != domain.PriorityNormal {
		t.Fatalf("task = %+v", task)
	}

	steps := []struct {
		to   domain.TaskStatus
		room domain.RoomStatus
	}{
		{domain.TaskInProgress, domain.RoomCleaning},
		{domain.TaskCompleted, domain.RoomInspected},
		{domain.TaskVerified, domain.RoomAvailable},
	}
	for _, s := range steps {
		if _, err := h.hk.Transition(ctx, task.ID, s.to); err != nil {
			t.Fatalf("-> %s: %v", s.to, err)
		}
		got, _ := h.store.GetRoom(ctx, room.ID)
		if got.Status != s.room {
			t.Fatalf("after %s room is %s, want %s", s.to, got.Status, s.room)
		}
	}

	if _, err := h.hk.Transition(ctx, task.ID, domain.TaskInProgress); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("verified task reopened: %v", err)
	}
}

func TestHousekeeping_MaintenanceBlocksRoom(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	room := h.rooms[0]
	task, err := h.hk.CreateTask(ctx, domain.HousekeepingTask{RoomID: room.ID, Type: domain.TaskMaintenance, Priority: domain.PriorityUrgent})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := h.store.GetRoom(ctx, room.ID); got.Status != domain.RoomMaintenance {
		t.Fatalf("room = %s", got.Status)
	}
	_, _ = h.hk.Transition(ctx, task.ID, domain.TaskInProgress)
	_, _ = h.hk.Transition(ctx, task.ID, domain.TaskCompleted)
	if got, _ := h.store.GetRoom(ctx, room.ID); got.Status != domain.RoomMaintenance {
		t.Fatalf("room released before verification: %s", got.Status)
	}
	_, _ = h.hk.Transition(ctx, task.ID, domain.TaskVerified)
	if got, _ := h.store.GetRoom(ctx, room.ID); got.Status != domain.RoomAvailable {
		t.Fatalf("room = %s", got.Status)
	}
}

func TestHousekeeping_OccupiedRoomKeepsStatus(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	room := h.rooms[0]
	_ = h.store.UpdateRoomStatus(ctx, room.ID, domain.RoomOccupied)

	task, _ := h.hk.CreateTask(ctx, domain.HousekeepingTask{RoomID: room.ID, Type: domain.TaskStayoverClean})
	_, _ = h.hk.Transition(ctx, task.ID, domain.TaskInProgress)
	if got, _ := h.store.GetRoom(ctx, room.ID); got.Status != domain.RoomOccupied {
		t.Fatalf("occupied room changed to %s", got.Status)
	}
}

func TestGenerateStayoverTasks_OncePerRoomPerDay(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	_ = h.store.UpdateRoomStatus(ctx, h.rooms[0].ID, domain.RoomOccupied)
	_ = h.store.UpdateRoomStatus(ctx, h.rooms[2].ID, domain.RoomOccupied)

	n, err := h.hk.GenerateStayoverTasks(ctx, h.property.ID, day("2030-06-03"))
	if err != nil || n != 2 {
		t.Fatalf("created %d err=%v", n, err)
	}
	n, _ = h.hk.GenerateStayoverTasks(ctx, h.property.ID, day("2030-06-03"))
	if n != 0 {
		t.Fatalf("duplicates created: %d", n)
	}
	n, _ = h.hk.GenerateStayoverTasks(ctx, h.property.ID, day("2030-06-04"))
	if n != 2 {
		t.Fatalf("next day created %d", n)
	}
}

func TestHousekeeping_AssignNeedsActiveUser(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	task, _ := h.hk.CreateTask(ctx, domain.HousekeepingTask{RoomID: h.rooms[0].ID, Type: domain.TaskTurndown})
	uid, _ := h.store.CreateUser(ctx, domain.User{Email: "hk@example.com", Role: domain.RoleHousekeeping, Active: true})

	got, err := h.hk.Assign(ctx, task.ID, uid)
	if err != nil || got.AssigneeID == nil || *got.AssigneeID != uid {
		t.Fatalf("assign: %+v %v", got, err)
	}
	if _, err := h.hk.Assign(ctx, task.ID, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestPOS_RoomChargePostsToFolio(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()

	outlet, err := h.pos.CreateOutlet(ctx, domain.Outlet{PropertyID: h.property.ID, Name: "Lobby Bar", Kind: domain.OutletBar})
	if err != nil {
		t.Fatal(err)
	}
	item, err := h.pos.CreateMenuItem(ctx, domain.MenuItem{OutletID: outlet.ID, Name: "Negroni", Price: dec("12.50"), TaxPercent: dec("20"), Available: true})
	if err != nil {
		t.Fatal(err)
	}
	order, _ := h.pos.OpenOrder(ctx, outlet.ID, "B4")
	order, err = h.pos.AddLine(ctx, order.ID, item.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !order.Subtotal.Equal(dec("25")) || !order.Taxes.Equal(dec("5")) || !order.Total.Equal(dec("30")) {
		t.Fatalf("order totals = %s %s %s", order.Subtotal, order.Taxes, order.Total)
	}

	b := h.book(t, "2030-06-03", "2030-06-04")
	_, err = h.pos.CloseOrder(ctx, order.ID, domain.PayRoomCharge, &b.ID)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("room charge to a guest not in house: %v", err)
	}
	if _, err := h.bookings.Transition(ctx, domain.Transition{BookingID: b.ID, To: domain.BookingCheckedIn}); err != nil {
		t.Fatal(err)
	}
	closed, err := h.pos.CloseOrder(ctx, order.ID, domain.PayRoomCharge, &b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != domain.OrderClosed || closed.BookingID == nil {
		t.Fatalf("order = %+v", closed)
	}
	f, _ := h.bookings.Folio(ctx, b.ID)
	if len(f.Charges) != 1 || !f.Extras.Equal(dec("30")) {
		t.Fatalf("folio = %+v", f)
	}

	if _, err := h.pos.AddLine(ctx, order.ID, item.ID, 1); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("line added to closed order: %v", err)
	}
	if _, err := h.pos.VoidOrder(ctx, order.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("closed order voided: %v", err)
	}
}

func TestPOS_RejectsUnavailableItemsAndEmptyOrders(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	outlet, _ := h.pos.CreateOutlet(ctx, domain.Outlet{PropertyID: h.property.ID, Name: "Grill", Kind: domain.OutletRestaurant})
	off, _ := h.pos.CreateMenuItem(ctx, domain.MenuItem{OutletID: outlet.ID, Name: "Soup", Price: dec("7"), Available: false})
	order, _ := h.pos.OpenOrder(ctx, outlet.ID, "")

	if _, err := h.pos.AddLine(ctx, order.ID, off.ID, 1); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("unavailable item: %v", err)
	}
	if _, err := h.pos.CloseOrder(ctx, order.ID, domain.PayCash, nil); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("empty order closed: %v", err)
	}
	if _, err := h.pos.CloseOrder(ctx, order.ID, domain.PayRoomCharge, nil); err == nil {
		t.Fatal("room charge without booking accepted")
	}
	voided, err := h.pos.VoidOrder(ctx, order.ID)
	if err != nil || voided.Status != domain.OrderVoid {
		t.Fatalf("void: %+v %v", voided, err)
	}
}

func TestEvents_PricingCapacityAndClashes(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	svc := app.NewEventService(h.store, h.store)
	svc.Now = clock(today)

	v, err := svc.CreateVenue(ctx, domain.Venue{PropertyID: h.property.ID, Name: "Ballroom", Capacity: 120, HourlyRate: dec("250")})
	if err != nil {
		t.Fatal(err)
	}
	ev := domain.EventBooking{
		VenueID:        v.ID,
		Title:          "Product launch",
		Organizer:      domain.Organizer{Name: "Grace", Email: "grace@example.com"},
		Date:           day("2030-06-20"),
		Start:          9 * 60,
		End:            12*60 + 30,
		Attendees:      80,
		PackagePerHead: dec("35"),
	}
	got, err := svc.CreateEvent(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	// 3.5h x 250 + 80 x 35
	if !got.Total.Equal(dec("3675")) || got.Status != domain.EventTentative {
		t.Fatalf("event = %+v", got)
	}

	clash := ev
	clash.Start, clash.End = 12*60, 14*60
	if _, err := svc.CreateEvent(ctx, clash); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("overlap accepted: %v", err)
	}
	clash.Start = 12*60 + 30
	if _, err := svc.CreateEvent(ctx, clash); err != nil {
		t.Fatalf("back-to-back slot refused: %v", err)
	}

	named := ev
	named.Date = day("2030-06-22")
	named.Organizer.Email = "Grace Hopper <grace@example.com>"
	if _, err := svc.CreateEvent(ctx, named); err == nil {
		t.Fatal("display-name organizer address accepted")
	}

	big := ev
	big.Date, big.Attendees = day("2030-06-21"), 200
	if _, err := svc.CreateEvent(ctx, big); err == nil {
		t.Fatal("over-capacity event accepted")
	}

	if _, err := svc.UpdateStatus(ctx, got.ID, domain.EventConfirmed); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(ctx, got.ID, domain.EventTentative); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("confirmed -> tentative: %v", err)
	}
}

func TestInventory_AdjustStock(t *testing.T) {
	store := newMemStore()
	svc := app.NewInventoryService(store)
	ctx := domain.WithPrincipal(context.Background(), domain.Principal{UserID: 1, Email: "chef@example.com", Role: domain.RoleFnB})

	it, err := svc.CreateItem(ctx, domain.InventoryItem{SKU: "flour-1kg", Name: "Flour", Quantity: 10, ReorderLevel: 4, UnitCost: dec("1.20")})
	if err != nil {
		t.Fatal(err)
	}
	if it.SKU != "FLOUR-1KG" {
		t.Fatalf("sku = %q", it.SKU)
	}
	it, err = svc.AdjustStock(ctx, it.ID, -7, "weekly bake")
	if err != nil || it.Quantity != 3 || !it.LowStock() {
		t.Fatalf("adjust: %+v %v", it, err)
	}
	if _, err := svc.AdjustStock(ctx, it.ID, -4, "oops"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("negative stock allowed: %v", err)
	}
	if _, err := svc.AdjustStock(ctx, it.ID, 0, ""); err == nil {
		t.Fatal("zero delta accepted")
	}
	mv, _ := svc.ListMovements(ctx, it.ID, 0)
	if len(mv) != 1 || mv[0].Actor != "chef@example.com" || mv[0].Delta != -7 {
		t.Fatalf("movements = %+v", mv)
	}
}

type fakeAnalytics struct{ calls int }

func (f *fakeAnalytics) RoomNightStats(ctx context.Context, pid int64, from, to time.Time) (domain.RoomNightStats, error) {
	f.calls++
	return domain.RoomNightStats{Available: 300, Sold: 225, RoomRevenue: dec("27000")}, nil
}
func (f *fakeAnalytics) POSRevenue(ctx context.Context, pid int64, from, to time.Time) (decimal.Decimal, error) {
	return dec("1500.50"), nil
}
func (f *fakeAnalytics) EventRevenue(ctx context.Context, pid int64, from, to time.Time) (decimal.Decimal, error) {
	return dec("3675"), nil
}
func (f *fakeAnalytics) BookingCounts(ctx context.Context, pid int64, from, to time.Time, groupBy string) (map[string]int, error) {
	return map[string]int{groupBy: 1}, nil
}
func (f *fakeAnalytics) OpenTaskCounts(ctx context.Context, pid int64) (map[string]int, error) {
	return map[string]int{"pending": 2}, nil
}
func (f *fakeAnalytics) LowStockCount(ctx context.Context) (int, error) { return 3, nil }

func TestDashboard_KPIsAndCache(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	repo := &fakeAnalytics{}
	svc := app.NewAnalyticsService(repo, h.store, h.cache, time.Minute)
	svc.Now = clock(today)

	d, err := svc.Dashboard(ctx, h.property.ID, day("2030-06-01"), day("2030-07-01"))
	if err != nil {
		t.Fatal(err)
	}
	if !d.OccupancyPercent.Equal(dec("75")) || !d.ADR.Equal(dec("120")) || !d.RevPAR.Equal(dec("90")) {
		t.Fatalf("kpis = %s %s %s", d.OccupancyPercent, d.ADR, d.RevPAR)
	}
	if !d.TotalRevenue.Equal(dec("32175.50")) || d.LowStockItems != 3 || d.BookingsBySource["source"] != 1 {
		t.Fatalf("dashboard = %+v", d)
	}
	if _, err := svc.Dashboard(ctx, h.property.ID, day("2030-06-01"), day("2030-07-01")); err != nil {
		t.Fatal(err)
	}
	if repo.calls != 1 {
		t.Fatalf("dashboard not cached: %d repo calls", repo.calls)
	}
}

func TestAuth_LoginAndParse(t *testing.T) {
	store := newMemStore()
	svc := app.NewAuthService(store, "test-secret", time.Hour)
	svc.Now = clock(today)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "Desk@Example.com", "Front Desk", domain.RoleFrontDesk, "s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "desk@example.com" || u.PasswordHash == "s3cret-pass" {
		t.Fatalf("user = %+v", u)
	}
	if _, err := svc.CreateUser(ctx, "x@example.com", "X", domain.RoleAdmin, "short"); err == nil {
		t.Fatal("short password accepted")
	}
	if _, err := svc.CreateUser(ctx, "Night Desk <night@example.com>", "Night", domain.RoleFrontDesk, "s3cret-pass"); err == nil {
		t.Fatal("display-name address accepted")
	}

	if _, _, err := svc.Login(ctx, "desk@example.com", "wrong-pass"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("wrong password: %v", err)
	}
	tok, _, err := svc.Login(ctx, "DESK@example.com", "s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	p, err := svc.Parse(tok)
	if err != nil || p.UserID != u.ID || p.Role != domain.RoleFrontDesk {
		t.Fatalf("principal = %+v err=%v", p, err)
	}

	svc.Now = func() time.Time { return clock(today)().Add(2 * time.Hour) }
	if _, err := svc.Parse(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expired token accepted: %v", err)
	}
	other := app.NewAuthService(store, "other-secret", time.Hour)
	other.Now = clock(today)
	if _, err := other.Parse(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("foreign signature accepted: %v", err)
	}
}

type fakeChannel struct {
	mu      sync.Mutex
	pushed  map[string]int
	missing map[string]bool
}

func (f *fakeChannel) PushAvailability(ctx context.Context, code string, rows []domain.RoomAvailability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[code] {
		return domain.ErrNotFound
	}
	if f.pushed == nil {
		f.pushed = map[string]int{}
	}
	f.pushed[code] = len(rows)
	return nil
}

func TestChannelSync_PushesUpcomingDays(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	ch := &fakeChannel{missing: map[string]bool{"STE": true}}
	ste, _ := h.props.CreateRoomType(ctx, domain.RoomType{PropertyID: h.property.ID, Code: "STE", Name: "Suite", BaseRate: dec("300"), MaxAdults: 4})
	_, _ = h.avail.GenerateCalendar(ctx, ste.ID, day("2030-06-01"), day("2030-07-01"))

	cs := app.NewChannelSync(ch, h.store, h.store)
	cs.Now = clock(today)
	res, err := cs.SyncAll(ctx, 14, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pushed != 2 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if ch.pushed["DLX"] != 14 {
		t.Fatalf("pushed = %v", ch.pushed)
	}
}
