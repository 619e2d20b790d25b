package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hotel_pms/internal/domain"
)

type AnalyticsService struct {
	repo     domain.AnalyticsRepository
	props    domain.PropertyRepository
	cache    domain.Cache
	cacheTTL time.Duration
	Now      func() time.Time
}

func NewAnalyticsService(r domain.AnalyticsRepository, p domain.PropertyRepository, c domain.Cache, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{repo: r, props: p, cache: c, cacheTTL: ttl, Now: time.Now}
}

// Dashboard aggregates room, F&B, event, housekeeping and stock figures for [from, to).
func (s *AnalyticsService) Dashboard(ctx context.Context, propertyID int64, from, to time.Time) (domain.Dashboard, error) {
	from, to = domain.Day(from), domain.Day(to)
	if err := checkRange(from, to); err != nil {
		return domain.Dashboard{}, err
	}
	key := fmt.Sprintf("dashboard:%d:%s:%s", propertyID, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	var d domain.Dashboard
	if ok, _ := s.cache.Get(ctx, key, &d); ok {
		return d, nil
	}
	if _, err := s.props.GetProperty(ctx, propertyID); err != nil {
		return domain.Dashboard{}, err
	}

	d = domain.Dashboard{PropertyID: propertyID, From: from, To: to}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.RoomNights, err = s.repo.RoomNightStats(gctx, propertyID, from, to)
		return err
	})
	g.Go(func() (err error) {
		d.FnBRevenue, err = s.repo.POSRevenue(gctx, propertyID, from, to)
		return err
	})
	g.Go(func() (err error) {
		d.EventRevenue, err = s.repo.EventRevenue(gctx, propertyID, from, to)
		return err
	})
	g.Go(func() (err error) {
		d.BookingsByStatus, err = s.repo.BookingCounts(gctx, propertyID, from, to, "status")
		return err
	})
	g.Go(func() (err error) {
		d.BookingsBySource, err = s.repo.BookingCounts(gctx, propertyID, from, to, "source")
		return err
	})
	g.Go(func() (err error) {
		d.OpenTasks, err = s.repo.OpenTaskCounts(gctx, propertyID)
		return err
	})
	g.Go(func() (err error) {
		d.LowStockItems, err = s.repo.LowStockCount(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}

	rn := d.RoomNights
	d.OccupancyPercent, d.ADR, d.RevPAR = decimal.Zero, decimal.Zero, decimal.Zero
	if rn.Available > 0 {
		avail := decimal.NewFromInt(int64(rn.Available))
		d.OccupancyPercent = decimal.NewFromInt(int64(rn.Sold)).Mul(decimal.NewFromInt(100)).Div(avail).Round(2)
		d.RevPAR = rn.RoomRevenue.Div(avail).Round(2)
	}
	if rn.Sold > 0 {
		d.ADR = rn.RoomRevenue.Div(decimal.NewFromInt(int64(rn.Sold))).Round(2)
	}
	d.TotalRevenue = rn.RoomRevenue.Add(d.FnBRevenue).Add(d.EventRevenue)
	d.GeneratedAt = s.Now().UTC()

	if err := s.cache.Set(ctx, key, d, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
	}
	return d, nil
}
