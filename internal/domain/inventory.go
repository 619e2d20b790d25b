package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryItem struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Quantity     int             `json:"quantity"`
	ReorderLevel int             `json:"reorderLevel"`
	UnitCost     decimal.Decimal `json:"unitCost"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (i InventoryItem) LowStock() bool { return i.Quantity <= i.ReorderLevel }

// StockValue is quantity on hand at unit cost.
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ItemPatch struct {
	Name         *string          `json:"name,omitempty"`
	Category     *string          `json:"category,omitempty"`
	Unit         *string          `json:"unit,omitempty"`
	ReorderLevel *int             `json:"reorderLevel,omitempty"`
	UnitCost     *decimal.Decimal `json:"unitCost,omitempty"`
}

type StockMovement struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"itemId"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
}

type ItemFilter struct {
	Category string
	LowStock bool
}
