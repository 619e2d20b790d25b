package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoomNightStats struct {
	Available   int             `json:"available"`
	Sold        int             `json:"sold"`
	RoomRevenue decimal.Decimal `json:"roomRevenue"`
}

type Dashboard struct {
	PropertyID       int64           `json:"propertyId"`
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	RoomNights       RoomNightStats  `json:"roomNights"`
	OccupancyPercent decimal.Decimal `json:"occupancyPercent"`
	ADR              decimal.Decimal `json:"adr"`
	RevPAR           decimal.Decimal `json:"revpar"`
	FnBRevenue       decimal.Decimal `json:"fnbRevenue"`
	EventRevenue     decimal.Decimal `json:"eventRevenue"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	BookingsByStatus map[string]int  `json:"bookingsByStatus"`
	BookingsBySource map[string]int  `json:"bookingsBySource"`
	OpenTasks        map[string]int  `json:"openTasks"`
	LowStockItems    int             `json:"lowStockItems"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}
