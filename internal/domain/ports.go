package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PropertyRepository interface {
	CreateProperty(ctx context.Context, p Property) (int64, error)
	GetProperty(ctx context.Context, id int64) (Property, error)
	ListProperties(ctx context.Context) ([]Property, error)

	CreateRoomType(ctx context.Context, rt RoomType) (int64, error)
	GetRoomType(ctx context.Context, id int64) (RoomType, error)
	ListRoomTypes(ctx context.Context, propertyID int64) ([]RoomType, error)

	CreateRoom(ctx context.Context, r Room) (int64, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context, f RoomFilter) ([]Room, error)
	UpdateRoomStatus(ctx context.Context, id int64, s RoomStatus) error
	CountSellableRooms(ctx context.Context, roomTypeID int64) (int, error)
}

type AvailabilityRepository interface {
	// UpsertCalendar writes price/total rows and keeps booked/blocked counters of existing rows.
	UpsertCalendar(ctx context.Context, rows []RoomAvailability) error
	GetCalendar(ctx context.Context, roomTypeID int64, from, to time.Time) ([]RoomAvailability, error)
	UpdateRestrictions(ctx context.Context, roomTypeID int64, dates []time.Time, p RestrictionPatch) error
}

type BookingRepository interface {
	// CreateBooking reserves one unit on every night and inserts b in one transaction.
	// Returns ErrNoAvailability when any night cannot be reserved.
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id int64) (Booking, error)
	GetBookingByReference(ctx context.Context, ref string) (Booking, error)
	GetBookingByIdempotencyKey(ctx context.Context, key string) (Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, int, error)
	// TransitionBooking moves a booking from -> to; ErrConflict when the stored status is no longer from.
	TransitionBooking(ctx context.Context, id int64, from, to BookingStatus, at time.Time, reason string, release bool) error
	// AssignRoom sets the room only if none is assigned yet.
	AssignRoom(ctx context.Context, bookingID, roomID int64) error
	ListAllocationCandidates(ctx context.Context, roomTypeID int64, checkIn, checkOut time.Time) ([]Room, error)
	CountGuestBookings(ctx context.Context, email string) (int, error)
	ListOverdueConfirmed(ctx context.Context, before time.Time) ([]Booking, error)
	AddCharge(ctx context.Context, c Charge) (int64, error)
	ListCharges(ctx context.Context, bookingID int64) ([]Charge, error)
}

type PromotionRepository interface {
	CreatePromotion(ctx context.Context, p Promotion) (int64, error)
	GetPromotion(ctx context.Context, id int64) (Promotion, error)
	GetPromotionByCode(ctx context.Context, code string) (Promotion, error)
	ListPromotions(ctx context.Context, activeOnly bool) ([]Promotion, error)
	DeactivatePromotion(ctx context.Context, id int64) error
}

type HousekeepingRepository interface {
	CreateTask(ctx context.Context, t HousekeepingTask) (int64, error)
	GetTask(ctx context.Context, id int64) (HousekeepingTask, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]HousekeepingTask, error)
	TransitionTask(ctx context.Context, id int64, from, to TaskStatus, at time.Time) error
	AssignTask(ctx context.Context, id, userID int64) error
	ListRoomsNeedingStayover(ctx context.Context, propertyID int64, day time.Time) ([]Room, error)
}

type POSRepository interface {
	CreateOutlet(ctx context.Context, o Outlet) (int64, error)
	ListOutlets(ctx context.Context, propertyID int64) ([]Outlet, error)
	CreateMenuItem(ctx context.Context, m MenuItem) (int64, error)
	GetMenuItem(ctx context.Context, id int64) (MenuItem, error)
	ListMenuItems(ctx context.Context, outletID int64) ([]MenuItem, error)
	CreateOrder(ctx context.Context, o Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	// AddOrderLine appends a line to an open order and stores the new totals.
	AddOrderLine(ctx context.Context, o Order, l OrderLine) (int64, error)
	// CloseOrder settles an open order; charge is posted in the same transaction when set.
	CloseOrder(ctx context.Context, o Order, charge *Charge) error
	VoidOrder(ctx context.Context, id int64) error
}

type EventRepository interface {
	CreateVenue(ctx context.Context, v Venue) (int64, error)
	GetVenue(ctx context.Context, id int64) (Venue, error)
	ListVenues(ctx context.Context, propertyID int64) ([]Venue, error)
	// CreateEventBooking returns ErrConflict when the venue is taken for an overlapping slot.
	CreateEventBooking(ctx context.Context, e EventBooking) (int64, error)
	GetEventBooking(ctx context.Context, id int64) (EventBooking, error)
	ListEventBookings(ctx context.Context, f EventFilter) ([]EventBooking, error)
	UpdateEventStatus(ctx context.Context, id int64, from, to EventStatus) error
}

type InventoryRepository interface {
	CreateItem(ctx context.Context, it InventoryItem) (int64, error)
	GetItem(ctx context.Context, id int64) (InventoryItem, error)
	ListItems(ctx context.Context, f ItemFilter) ([]InventoryItem, error)
	UpdateItem(ctx context.Context, id int64, p ItemPatch) error
	DeleteItem(ctx context.Context, id int64) error
	// AdjustStock applies delta and records the movement; ErrInsufficientStock if the result would be negative.
	AdjustStock(ctx context.Context, m StockMovement) (InventoryItem, error)
	ListMovements(ctx context.Context, itemID int64, limit int) ([]StockMovement, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u User) (int64, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

type AnalyticsRepository interface {
	RoomNightStats(ctx context.Context, propertyID int64, from, to time.Time) (RoomNightStats, error)
	POSRevenue(ctx context.Context, propertyID int64, from, to time.Time) (decimal.Decimal, error)
	EventRevenue(ctx context.Context, propertyID int64, from, to time.Time) (decimal.Decimal, error)
	BookingCounts(ctx context.Context, propertyID int64, from, to time.Time, groupBy string) (map[string]int, error)
	OpenTaskCounts(ctx context.Context, propertyID int64) (map[string]int, error)
	LowStockCount(ctx context.Context) (int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

type AuditLog interface {
	Record(ctx context.Context, c StatusChange) error
	History(ctx context.Context, bookingID int64) ([]StatusChange, error)
}

// ChannelClient pushes rates and inventory to an external channel manager.
type ChannelClient interface {
	PushAvailability(ctx context.Context, roomTypeCode string, rows []RoomAvailability) error
}
