package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
)

// RoomNightStats counts room nights of [from, to): sellable supply, sold nights and their revenue.
func (r *Repo) RoomNightStats(ctx context.Context, propertyID int64, from, to time.Time) (domain.RoomNightStats, error) {
	var st domain.RoomNightStats
	from, to = domain.Day(from), domain.Day(to)
	if err := r.db.QueryRowContext(ctx, roomNightsAvailableSQL, propertyID, from, to).Scan(&st.Available); err != nil {
		return st, err
	}
	err := r.db.QueryRowContext(ctx, roomNightsSoldSQL, propertyID, from, to).Scan(&st.Sold, &st.RoomRevenue)
	return st, err
}

func (r *Repo) sum(ctx context.Context, q string, args ...any) (decimal.Decimal, error) {
	var d decimal.Decimal
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&d)
	return d, err
}

func (r *Repo) POSRevenue(ctx context.Context, propertyID int64, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, posRevenueSQL, propertyID, domain.Day(from), domain.Day(to))
}

func (r *Repo) EventRevenue(ctx context.Context, propertyID int64, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, eventRevenueSQL, propertyID, domain.Day(from), domain.Day(to))
}

var bookingGroupings = map[string]string{
	"status": "status",
	"source": "source",
}

// BookingCounts groups stays overlapping [from, to) by status or source.
func (r *Repo) BookingCounts(ctx context.Context, propertyID int64, from, to time.Time, groupBy string) (map[string]int, error) {
	col, ok := bookingGroupings[groupBy]
	if !ok {
		return nil, fmt.Errorf("unknown booking grouping %q", groupBy)
	}
	return r.counts(ctx, fmt.Sprintf(bookingCountsSQL, col, col), propertyID, domain.Day(to), domain.Day(from))
}

func (r *Repo) OpenTaskCounts(ctx context.Context, propertyID int64) (map[string]int, error) {
	return r.counts(ctx, openTaskCountsSQL, propertyID)
}

func (r *Repo) counts(ctx context.Context, q string, args ...any) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

func (r *Repo) LowStockCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, lowStockCountSQL).Scan(&n)
	return n, err
}
