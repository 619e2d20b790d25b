package app_test

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

// ---- in-memory store implementing every repository port ----

type calKey struct {
	rt  int64
	day string
}

type memStore struct {
	mu     sync.Mutex
	nextID int64

	props     map[int64]domain.Property
	types     map[int64]domain.RoomType
	rooms     map[int64]domain.Room
	cal       map[calKey]domain.RoomAvailability
	bookings  map[int64]domain.Booking
	charges   []domain.Charge
	promos    map[int64]domain.Promotion
	tasks     map[int64]domain.HousekeepingTask
	outlets   map[int64]domain.Outlet
	menu      map[int64]domain.MenuItem
	orders    map[int64]domain.Order
	venues    map[int64]domain.Venue
	events    map[int64]domain.EventBooking
	items     map[int64]domain.InventoryItem
	movements []domain.StockMovement
	users     map[int64]domain.User
}

func newMemStore() *memStore {
	return &memStore{
		props:    map[int64]domain.Property{},
		types:    map[int64]domain.RoomType{},
		rooms:    map[int64]domain.Room{},
		cal:      map[calKey]domain.RoomAvailability{},
		bookings: map[int64]domain.Booking{},
		promos:   map[int64]domain.Promotion{},
		tasks:    map[int64]domain.HousekeepingTask{},
		outlets:  map[int64]domain.Outlet{},
		menu:     map[int64]domain.MenuItem{},
		orders:   map[int64]domain.Order{},
		venues:   map[int64]domain.Venue{},
		events:   map[int64]domain.EventBooking{},
		items:    map[int64]domain.InventoryItem{},
		users:    map[int64]domain.User{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func key(rt int64, d time.Time) calKey { return calKey{rt, d.Format(domain.DateLayout)} }

// properties

func (s *memStore) CreateProperty(ctx context.Context, p domain.Property) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.props[p.ID] = p
	return p.ID, nil
}

func (s *memStore) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.props[id]
	if !ok {
		return domain.Property{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *memStore) ListProperties(ctx context.Context) ([]domain.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Property
	for _, p := range s.props {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateRoomType(ctx context.Context, rt domain.RoomType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.types {
		if o.PropertyID == rt.PropertyID && o.Code == rt.Code {
			return 0, domain.ErrConflict
		}
	}
	rt.ID = s.id()
	s.types[rt.ID] = rt
	return rt.ID, nil
}

func (s *memStore) GetRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.types[id]
	if !ok {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, nil
}

func (s *memStore) ListRoomTypes(ctx context.Context, propertyID int64) ([]domain.RoomType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RoomType
	for _, rt := range s.types {
		if rt.PropertyID == propertyID {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateRoom(ctx context.Context, r domain.Room) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	s.rooms[r.ID] = r
	return r.ID, nil
}

func (s *memStore) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *memStore) ListRooms(ctx context.Context, f domain.RoomFilter) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Room
	for _, r := range s.rooms {
		if (f.RoomTypeID == 0 || r.RoomTypeID == f.RoomTypeID) && (f.Status == "" || r.Status == f.Status) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *memStore) UpdateRoomStatus(ctx context.Context, id int64, st domain.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = st
	s.rooms[id] = r
	return nil
}

func (s *memStore) CountSellableRooms(ctx context.Context, roomTypeID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rooms {
		if r.RoomTypeID == roomTypeID && r.Status.Sellable() {
			n++
		}
	}
	return n, nil
}

// availability

func (s *memStore) UpsertCalendar(ctx context.Context, rows []domain.RoomAvailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		k := key(r.RoomTypeID, r.Date)
		if old, ok := s.cal[k]; ok {
			r.Booked, r.Blocked = old.Booked, old.Blocked
			r.MinStay, r.MaxStay = old.MinStay, old.MaxStay
			r.ClosedToArrival, r.ClosedToDeparture, r.StopSell = old.ClosedToArrival, old.ClosedToDeparture, old.StopSell
		}
		s.cal[k] = r
	}
	return nil
}

func (s *memStore) GetCalendar(ctx context.Context, roomTypeID int64, from, to time.Time) ([]domain.RoomAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RoomAvailability
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if r, ok := s.cal[key(roomTypeID, d)]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) UpdateRestrictions(ctx context.Context, roomTypeID int64, dates []time.Time, p domain.RestrictionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range dates {
		r, ok := s.cal[key(roomTypeID, d)]
		if !ok {
			continue
		}
		if p.Blocked != nil && r.Booked+*p.Blocked > r.Total {
			return domain.ErrConflict
		}
	}
	for _, d := range dates {
		k := key(roomTypeID, d)
		r, ok := s.cal[k]
		if !ok {
			continue
		}
		if p.Price != nil {
			r.Price = *p.Price
		}
		if p.MinStay != nil {
			r.MinStay = *p.MinStay
		}
		if p.MaxStay != nil {
			r.MaxStay = *p.MaxStay
		}
		if p.ClosedToArrival != nil {
			r.ClosedToArrival = *p.ClosedToArrival
		}
		if p.ClosedToDeparture != nil {
			r.ClosedToDeparture = *p.ClosedToDeparture
		}
		if p.StopSell != nil {
			r.StopSell = *p.StopSell
		}
		if p.Blocked != nil {
			r.Blocked = *p.Blocked
		}
		s.cal[k] = r
	}
	return nil
}

// bookings

func (s *memStore) CreateBooking(ctx context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nights := domain.EachNight(b.CheckIn, b.CheckOut)
	for _, d := range nights {
		r, ok := s.cal[key(b.RoomTypeID, d)]
		if !ok || r.StopSell || r.Booked+r.Blocked >= r.Total {
			return domain.ErrNoAvailability
		}
	}
	if b.PromotionID != nil {
		p := s.promos[*b.PromotionID]
		if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
			return domain.ErrConflict
		}
		p.UsedCount++
		s.promos[p.ID] = p
	}
	for _, d := range nights {
		k := key(b.RoomTypeID, d)
		r := s.cal[k]
		r.Booked++
		s.cal[k] = r
	}
	b.ID = s.id()
	s.bookings[b.ID] = *b
	return nil
}

func (s *memStore) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *memStore) findBooking(match func(domain.Booking) bool) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if match(b) {
			return b, nil
		}
	}
	return domain.Booking{}, domain.ErrNotFound
}

func (s *memStore) GetBookingByReference(ctx context.Context, ref string) (domain.Booking, error) {
	return s.findBooking(func(b domain.Booking) bool { return b.Reference == ref })
}

func (s *memStore) GetBookingByIdempotencyKey(ctx context.Context, k string) (domain.Booking, error) {
	return s.findBooking(func(b domain.Booking) bool { return b.IdempotencyKey == k })
}

func (s *memStore) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if (f.Status == "" || b.Status == f.Status) && (f.GuestEmail == "" || b.Guest.Email == f.GuestEmail) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *memStore) TransitionBooking(ctx context.Context, id int64, from, to domain.BookingStatus, at time.Time, reason string, release bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Status != from {
		return domain.ErrConflict
	}
	b.Status = to
	switch to {
	case domain.BookingCheckedIn:
		b.CheckedInAt = &at
	case domain.BookingCheckedOut:
		b.CheckedOutAt = &at
	case domain.BookingCancelled:
		b.CancelledAt = &at
		b.CancelReason = reason
	}
	if release {
		for _, d := range domain.EachNight(b.CheckIn, b.CheckOut) {
			k := key(b.RoomTypeID, d)
			r := s.cal[k]
			r.Booked--
			s.cal[k] = r
		}
		b.RoomID = nil
	}
	s.bookings[id] = b
	return nil
}

func (s *memStore) roomTaken(roomID int64, in, out time.Time, except int64) bool {
	for _, o := range s.bookings {
		if o.ID != except && o.RoomID != nil && *o.RoomID == roomID && o.Status.HoldsInventory() && o.Overlaps(in, out) {
			return true
		}
	}
	return false
}

func (s *memStore) AssignRoom(ctx context.Context, bookingID, roomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.ErrNotFound
	}
	if b.RoomID != nil || s.roomTaken(roomID, b.CheckIn, b.CheckOut, b.ID) {
		return domain.ErrConflict
	}
	b.RoomID = &roomID
	s.bookings[bookingID] = b
	return nil
}

func (s *memStore) ListAllocationCandidates(ctx context.Context, roomTypeID int64, in, out time.Time) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []domain.Room
	for _, r := range s.rooms {
		if r.RoomTypeID != roomTypeID || r.Status == domain.RoomMaintenance || r.Status == domain.RoomOutOfOrder {
			continue
		}
		if s.roomTaken(r.ID, in, out, 0) {
			continue
		}
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *memStore) CountGuestBookings(ctx context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if strings.EqualFold(b.Guest.Email, email) && b.Status != domain.BookingCancelled {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListOverdueConfirmed(ctx context.Context, before time.Time) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.Status == domain.BookingConfirmed && b.CheckIn.Before(before) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) AddCharge(ctx context.Context, c domain.Charge) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.charges = append(s.charges, c)
	return c.ID, nil
}

func (s *memStore) ListCharges(ctx context.Context, bookingID int64) ([]domain.Charge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Charge
	for _, c := range s.charges {
		if c.BookingID == bookingID {
			out = append(out, c)
		}
	}
	return out, nil
}

// promotions

func (s *memStore) CreatePromotion(ctx context.Context, p domain.Promotion) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.promos {
		if o.Code == p.Code {
			return 0, domain.ErrConflict
		}
	}
	p.ID = s.id()
	s.promos[p.ID] = p
	return p.ID, nil
}

func (s *memStore) GetPromotion(ctx context.Context, id int64) (domain.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[id]
	if !ok {
		return domain.Promotion{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *memStore) GetPromotionByCode(ctx context.Context, code string) (domain.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.promos {
		if p.Code == code {
			return p, nil
		}
	}
	return domain.Promotion{}, domain.ErrNotFound
}

func (s *memStore) ListPromotions(ctx context.Context, activeOnly bool) ([]domain.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Promotion
	for _, p := range s.promos {
		if !activeOnly || p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) DeactivatePromotion(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = false
	s.promos[id] = p
	return nil
}

// housekeeping

func (s *memStore) CreateTask(ctx context.Context, t domain.HousekeepingTask) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.tasks[t.ID] = t
	return t.ID, nil
}

func (s *memStore) GetTask(ctx context.Context, id int64) (domain.HousekeepingTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.HousekeepingTask{}, domain.ErrNotFound
	}
	return t, nil
}

func (s *memStore) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.HousekeepingTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.HousekeepingTask
	for _, t := range s.tasks {
		if (f.Status == "" || t.Status == f.Status) && (f.Type == "" || t.Type == f.Type) && (f.RoomID == 0 || t.RoomID == f.RoomID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) TransitionTask(ctx context.Context, id int64, from, to domain.TaskStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != from {
		return domain.ErrConflict
	}
	t.Status = to
	s.tasks[id] = t
	return nil
}

func (s *memStore) AssignTask(ctx context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.AssigneeID = &userID
	s.tasks[id] = t
	return nil
}

func (s *memStore) ListRoomsNeedingStayover(ctx context.Context, propertyID int64, day time.Time) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Room
	for _, r := range s.rooms {
		if r.PropertyID != propertyID || r.Status != domain.RoomOccupied {
			continue
		}
		has := false
		for _, t := range s.tasks {
			if t.RoomID == r.ID && t.Type == domain.TaskStayoverClean && t.DueAt != nil && domain.Day(*t.DueAt).Equal(day) {
				has = true
			}
		}
		if !has {
			out = append(out, r)
		}
	}
	return out, nil
}

// point of sale

func (s *memStore) CreateOutlet(ctx context.Context, o domain.Outlet) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id()
	s.outlets[o.ID] = o
	return o.ID, nil
}

func (s *memStore) ListOutlets(ctx context.Context, propertyID int64) ([]domain.Outlet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Outlet
	for _, o := range s.outlets {
		if o.PropertyID == propertyID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memStore) CreateMenuItem(ctx context.Context, m domain.MenuItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.menu[m.ID] = m
	return m.ID, nil
}

func (s *memStore) GetMenuItem(ctx context.Context, id int64) (domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menu[id]
	if !ok {
		return domain.MenuItem{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *memStore) ListMenuItems(ctx context.Context, outletID int64) ([]domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MenuItem
	for _, m := range s.menu {
		if m.OutletID == outletID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) CreateOrder(ctx context.Context, o domain.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id()
	s.orders[o.ID] = o
	return o.ID, nil
}

func (s *memStore) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return o, nil
}

func (s *memStore) AddOrderLine(ctx context.Context, o domain.Order, l domain.OrderLine) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.id()
	o.Lines[len(o.Lines)-1].ID = l.ID
	s.orders[o.ID] = o
	return l.ID, nil
}

func (s *memStore) CloseOrder(ctx context.Context, o domain.Order, charge *domain.Charge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.orders[o.ID]; cur.Status != domain.OrderOpen {
		return domain.ErrConflict
	}
	s.orders[o.ID] = o
	if charge != nil {
		c := *charge
		c.ID = s.id()
		s.charges = append(s.charges, c)
	}
	return nil
}

func (s *memStore) VoidOrder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	if o.Status != domain.OrderOpen {
		return domain.ErrConflict
	}
	o.Status = domain.OrderVoid
	s.orders[id] = o
	return nil
}

// events

func (s *memStore) CreateVenue(ctx context.Context, v domain.Venue) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.id()
	s.venues[v.ID] = v
	return v.ID, nil
}

func (s *memStore) GetVenue(ctx context.Context, id int64) (domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return domain.Venue{}, domain.ErrNotFound
	}
	return v, nil
}

func (s *memStore) ListVenues(ctx context.Context, propertyID int64) ([]domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Venue
	for _, v := range s.venues {
		if v.PropertyID == propertyID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *memStore) CreateEventBooking(ctx context.Context, e domain.EventBooking) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.events {
		if o.Status != domain.EventCancelled && e.Clashes(o) {
			return 0, domain.ErrConflict
		}
	}
	e.ID = s.id()
	s.events[e.ID] = e
	return e.ID, nil
}

func (s *memStore) GetEventBooking(ctx context.Context, id int64) (domain.EventBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return domain.EventBooking{}, domain.ErrNotFound
	}
	return e, nil
}

func (s *memStore) ListEventBookings(ctx context.Context, f domain.EventFilter) ([]domain.EventBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.EventBooking
	for _, e := range s.events {
		if f.VenueID == 0 || e.VenueID == f.VenueID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) UpdateEventStatus(ctx context.Context, id int64, from, to domain.EventStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	if e.Status != from {
		return domain.ErrConflict
	}
	e.Status = to
	s.events[id] = e
	return nil
}

// inventory

func (s *memStore) CreateItem(ctx context.Context, it domain.InventoryItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.items {
		if o.SKU == it.SKU {
			return 0, domain.ErrConflict
		}
	}
	it.ID = s.id()
	s.items[it.ID] = it
	return it.ID, nil
}

func (s *memStore) GetItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return domain.InventoryItem{}, domain.ErrNotFound
	}
	return it, nil
}

func (s *memStore) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.InventoryItem
	for _, it := range s.items {
		if (f.Category == "" || it.Category == f.Category) && (!f.LowStock || it.LowStock()) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *memStore) UpdateItem(ctx context.Context, id int64, p domain.ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.ReorderLevel != nil {
		it.ReorderLevel = *p.ReorderLevel
	}
	s.items[id] = it
	return nil
}

func (s *memStore) DeleteItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memStore) AdjustStock(ctx context.Context, m domain.StockMovement) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[m.ItemID]
	if !ok {
		return domain.InventoryItem{}, domain.ErrNotFound
	}
	if it.Quantity+m.Delta < 0 {
		return domain.InventoryItem{}, domain.ErrInsufficientStock
	}
	it.Quantity += m.Delta
	s.items[it.ID] = it
	m.ID = s.id()
	s.movements = append(s.movements, m)
	return it, nil
}

func (s *memStore) ListMovements(ctx context.Context, itemID int64, limit int) ([]domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StockMovement
	for _, m := range s.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

// users

func (s *memStore) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.users {
		if o.Email == u.Email {
			return 0, domain.ErrConflict
		}
	}
	u.ID = s.id()
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *memStore) GetUser(ctx context.Context, id int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// ---- cache, audit ----

// fakeCache stores JSON like the redis adapter so cached values never alias.
type fakeCache struct {
	mu     sync.Mutex
	store  map[string][]byte
	gets   int
	hits   int
	setErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(v, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.StatusChange
}

func (a *fakeAudit) Record(ctx context.Context, c domain.StatusChange) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, c)
	return nil
}

func (a *fakeAudit) History(ctx context.Context, bookingID int64) ([]domain.StatusChange, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.StatusChange
	for _, e := range a.entries {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---- helpers ----

func day(s string) time.Time {
	d, err := domain.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func clock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func ptr[T any](v T) *T { return &v }
