package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Property struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Timezone     string `json:"timezone"`
	Currency     string `json:"currency"`
	CheckInTime  string `json:"checkInTime"`
	CheckOutTime string `json:"checkOutTime"`
}

type RoomType struct {
	ID          int64           `json:"id"`
	PropertyID  int64           `json:"propertyId"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	BaseRate    decimal.Decimal `json:"baseRate"`
	MaxAdults   int             `json:"maxAdults"`
	MaxChildren int             `json:"maxChildren"`
}

// Fits reports whether a party can share one room of this type.
func (rt RoomType) Fits(adults, children int) bool {
	return adults >= 1 && adults <= rt.MaxAdults && children <= rt.MaxChildren
}

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomDirty       RoomStatus = "dirty"
	RoomCleaning    RoomStatus = "cleaning"
	RoomInspected   RoomStatus = "inspected"
	RoomMaintenance RoomStatus = "maintenance"
	RoomOutOfOrder  RoomStatus = "out_of_order"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomDirty, RoomCleaning, RoomInspected, RoomMaintenance, RoomOutOfOrder:
		return true
	}
	return false
}

// Sellable rooms count towards the inventory of their type.
func (s RoomStatus) Sellable() bool { return s != RoomOutOfOrder }

type Room struct {
	ID         int64      `json:"id"`
	PropertyID int64      `json:"propertyId"`
	RoomTypeID int64      `json:"roomTypeId"`
	Number     string     `json:"number"`
	Floor      int        `json:"floor"`
	Status     RoomStatus `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type RoomFilter struct {
	PropertyID int64
	RoomTypeID int64
	Status     RoomStatus
	Floor      *int
}
