package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingCheckedIn  BookingStatus = "checked_in"
	BookingCheckedOut BookingStatus = "checked_out"
	BookingCancelled  BookingStatus = "cancelled"
	BookingNoShow     BookingStatus = "no_show"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingCheckedIn, BookingCancelled, BookingNoShow},
	BookingCheckedIn:  {BookingCheckedOut},
	BookingCheckedOut: {},
	BookingCancelled:  {},
	BookingNoShow:     {},
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// Next lists the statuses reachable from s.
func (s BookingStatus) Next() []BookingStatus { return bookingTransitions[s] }

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, n := range bookingTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool { return s.Valid() && len(bookingTransitions[s]) == 0 }

// HoldsInventory is true while the booking keeps its nights reserved.
func (s BookingStatus) HoldsInventory() bool {
	return s == BookingPending || s == BookingConfirmed || s == BookingCheckedIn
}

type BookingSource string

const (
	SourceDirect BookingSource = "direct"
	SourceWalkIn BookingSource = "walk_in"
	SourcePhone  BookingSource = "phone"
	SourceOTA    BookingSource = "ota"
)

func (s BookingSource) Valid() bool {
	switch s {
	case SourceDirect, SourceWalkIn, SourcePhone, SourceOTA:
		return true
	}
	return false
}

type Guest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type PriceBreakdown struct {
	Nights   []NightRate     `json:"nights"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Taxes    decimal.Decimal `json:"taxes"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

type Booking struct {
	ID              int64          `json:"id"`
	Reference       string         `json:"reference"`
	PropertyID      int64          `json:"propertyId"`
	RoomTypeID      int64          `json:"roomTypeId"`
	RoomID          *int64         `json:"roomId,omitempty"`
	Guest           Guest          `json:"guest"`
	CheckIn         time.Time      `json:"checkIn"`
	CheckOut        time.Time      `json:"checkOut"`
	Adults          int            `json:"adults"`
	Children        int            `json:"children"`
	Status          BookingStatus  `json:"status"`
	Source          BookingSource  `json:"source"`
	PromoCode       string         `json:"promoCode,omitempty"`
	PromotionID     *int64         `json:"-"`
	Price           PriceBreakdown `json:"price"`
	SpecialRequests string         `json:"specialRequests,omitempty"`
	IdempotencyKey  string         `json:"-"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	CheckedInAt     *time.Time     `json:"checkedInAt,omitempty"`
	CheckedOutAt    *time.Time     `json:"checkedOutAt,omitempty"`
	CancelledAt     *time.Time     `json:"cancelledAt,omitempty"`
	CancelReason    string         `json:"cancelReason,omitempty"`
}

func (b Booking) Nights() int { return Nights(b.CheckIn, b.CheckOut) }

// Overlaps reports whether the stay shares at least one night with [in, out).
func (b Booking) Overlaps(in, out time.Time) bool {
	return b.CheckIn.Before(out) && in.Before(b.CheckOut)
}

type BookingInput struct {
	PropertyID      int64
	RoomTypeID      int64
	Guest           Guest
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
	Source          BookingSource
	PromoCode       string
	SpecialRequests string
}

type BookingFilter struct {
	PropertyID int64
	Status     BookingStatus
	From, To   *time.Time // stays overlapping [From, To)
	GuestEmail string
	Page       int
	Limit      int
}

// Transition is one requested status change.
type Transition struct {
	BookingID int64
	To        BookingStatus
	Reason    string
	Actor     string
}

// StatusChange is an entry of the booking audit trail.
type StatusChange struct {
	BookingID int64         `json:"bookingId" bson:"booking_id"`
	Reference string        `json:"reference" bson:"reference"`
	From      BookingStatus `json:"from" bson:"from"`
	To        BookingStatus `json:"to" bson:"to"`
	Actor     string        `json:"actor" bson:"actor"`
	Reason    string        `json:"reason,omitempty" bson:"reason,omitempty"`
	RequestID string        `json:"requestId,omitempty" bson:"request_id,omitempty"`
	At        time.Time     `json:"at" bson:"at"`
}

type ChargeSource string

const (
	ChargePOS    ChargeSource = "pos"
	ChargeEvent  ChargeSource = "event"
	ChargeManual ChargeSource = "manual"
)

// Charge is a folio line posted to a booking.
type Charge struct {
	ID          int64           `json:"id"`
	BookingID   int64           `json:"bookingId"`
	Source      ChargeSource    `json:"source"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Folio struct {
	Booking Booking         `json:"booking"`
	Charges []Charge        `json:"charges"`
	Room    decimal.Decimal `json:"roomTotal"`
	Extras  decimal.Decimal `json:"extrasTotal"`
	Balance decimal.Decimal `json:"balance"`
}
