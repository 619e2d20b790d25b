package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OutletKind string

const (
	OutletRestaurant  OutletKind = "restaurant"
	OutletBar         OutletKind = "bar"
	OutletRoomService OutletKind = "room_service"
)

func (k OutletKind) Valid() bool {
	return k == OutletRestaurant || k == OutletBar || k == OutletRoomService
}

type Outlet struct {
	ID         int64      `json:"id"`
	PropertyID int64      `json:"propertyId"`
	Name       string     `json:"name"`
	Kind       OutletKind `json:"kind"`
}

type MenuItem struct {
	ID         int64           `json:"id"`
	OutletID   int64           `json:"outletId"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"taxPercent"`
	Available  bool            `json:"available"`
}

type OrderStatus string

const (
	OrderOpen   OrderStatus = "open"
	OrderClosed OrderStatus = "closed"
	OrderVoid   OrderStatus = "void"
)

type PaymentMethod string

const (
	PayCash       PaymentMethod = "cash"
	PayCard       PaymentMethod = "card"
	PayRoomCharge PaymentMethod = "room_charge"
)

func (m PaymentMethod) Valid() bool {
	return m == PayCash || m == PayCard || m == PayRoomCharge
}

type OrderLine struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"orderId"`
	MenuItemID int64           `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TaxPercent decimal.Decimal `json:"taxPercent"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
}

type Order struct {
	ID            int64           `json:"id"`
	OutletID      int64           `json:"outletId"`
	Table         string          `json:"table,omitempty"`
	Status        OrderStatus     `json:"status"`
	Lines         []OrderLine     `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Taxes         decimal.Decimal `json:"taxes"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	BookingID     *int64          `json:"bookingId,omitempty"`
	OpenedAt      time.Time       `json:"openedAt"`
	ClosedAt      *time.Time      `json:"closedAt,omitempty"`
}

// Recalculate derives subtotal, taxes and total from the lines.
func (o *Order) Recalculate() {
	sub, tax := decimal.Zero, decimal.Zero
	hundred := decimal.NewFromInt(100)
	for _, l := range o.Lines {
		sub = sub.Add(l.LineTotal)
		tax = tax.Add(l.LineTotal.Mul(l.TaxPercent).Div(hundred))
	}
	o.Subtotal = sub.Round(2)
	o.Taxes = tax.Round(2)
	o.Total = o.Subtotal.Add(o.Taxes)
}
