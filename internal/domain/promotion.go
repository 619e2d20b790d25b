package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PromotionType string

const (
	PromoPercentage PromotionType = "percentage"
	PromoFixed      PromotionType = "fixed"
	PromoFreeNight  PromotionType = "free_night"
)

func (t PromotionType) Valid() bool {
	return t == PromoPercentage || t == PromoFixed || t == PromoFreeNight
}

type Promotion struct {
	ID           int64            `json:"id"`
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Type         PromotionType    `json:"type"`
	Value        decimal.Decimal  `json:"value"`
	MaxDiscount  *decimal.Decimal `json:"maxDiscount,omitempty"`
	ValidFrom    time.Time        `json:"validFrom"`
	ValidTo      time.Time        `json:"validTo"`
	StayFrom     *time.Time       `json:"stayFrom,omitempty"`
	StayTo       *time.Time       `json:"stayTo,omitempty"`
	MinNights    int              `json:"minNights"`
	MaxNights    int              `json:"maxNights"`
	MinAmount    decimal.Decimal  `json:"minAmount"`
	RoomTypeIDs  []int64          `json:"roomTypeIds,omitempty"`
	ArrivalDays  []time.Weekday   `json:"arrivalDays,omitempty"`
	UsageLimit   int              `json:"usageLimit"`
	UsedCount    int              `json:"usedCount"`
	FirstBooking bool             `json:"firstBookingOnly"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// PromotionRequest is the draft booking a promotion is evaluated against.
type PromotionRequest struct {
	BookingDate   time.Time
	CheckIn       time.Time
	CheckOut      time.Time
	RoomTypeID    int64
	Nights        []NightRate
	Subtotal      decimal.Decimal
	PriorBookings int
}

type PromotionResult struct {
	Code     string          `json:"code"`
	Valid    bool            `json:"valid"`
	Errors   []string        `json:"errors,omitempty"`
	Discount decimal.Decimal `json:"discount"`
}
