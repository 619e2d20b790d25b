package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoomAvailability is the inventory and price of one room type on one date.
type RoomAvailability struct {
	RoomTypeID        int64           `json:"roomTypeId"`
	Date              time.Time       `json:"date"`
	Total             int             `json:"total"`
	Booked            int             `json:"booked"`
	Blocked           int             `json:"blocked"`
	Price             decimal.Decimal `json:"price"`
	MinStay           int             `json:"minStay"`
	MaxStay           int             `json:"maxStay"` // 0 = unlimited
	ClosedToArrival   bool            `json:"closedToArrival"`
	ClosedToDeparture bool            `json:"closedToDeparture"`
	StopSell          bool            `json:"stopSell"`
}

func (a RoomAvailability) Available() int {
	if n := a.Total - a.Booked - a.Blocked; n > 0 {
		return n
	}
	return 0
}

func (a RoomAvailability) Occupancy() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Booked) / float64(a.Total)
}

// Sellable reports whether one more unit can be sold on this date.
func (a RoomAvailability) Sellable() bool { return !a.StopSell && a.Available() > 0 }

// RestrictionPatch updates a subset of calendar fields; nil fields are left alone.
type RestrictionPatch struct {
	Price             *decimal.Decimal `json:"price,omitempty"`
	MinStay           *int             `json:"minStay,omitempty"`
	MaxStay           *int             `json:"maxStay,omitempty"`
	ClosedToArrival   *bool            `json:"closedToArrival,omitempty"`
	ClosedToDeparture *bool            `json:"closedToDeparture,omitempty"`
	StopSell          *bool            `json:"stopSell,omitempty"`
	Blocked           *int             `json:"blocked,omitempty"`
}

type NightRate struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// RoomTypeOffer is one search result: a room type priced for a stay.
type RoomTypeOffer struct {
	RoomType  RoomType        `json:"roomType"`
	Nights    []NightRate     `json:"nights"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Available bool            `json:"available"`
	Reasons   []string        `json:"reasons,omitempty"`
}

type SearchQuery struct {
	PropertyID int64
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
}
