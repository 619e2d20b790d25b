package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hotel_pms/internal/domain"
	"hotel_pms/internal/pricing"
)

const (
	maxCalendarDays = 366
	maxStayNights   = 30
)

type AvailabilityService struct {
	props    domain.PropertyRepository
	repo     domain.AvailabilityRepository
	cache    domain.Cache
	rules    pricing.Rules
	cacheTTL time.Duration
}

func NewAvailabilityService(p domain.PropertyRepository, r domain.AvailabilityRepository, c domain.Cache, rules pricing.Rules, ttl time.Duration) *AvailabilityService {
	return &AvailabilityService{props: p, repo: r, cache: c, rules: rules, cacheTTL: ttl}
}

func (s *AvailabilityService) Rules() pricing.Rules { return s.rules }

func checkRange(from, to time.Time) error {
	ve := domain.NewValidationError()
	if !to.After(from) {
		ve.Add("to", "must be after from")
	} else if domain.Nights(from, to) > maxCalendarDays {
		ve.Add("to", fmt.Sprintf("range exceeds %d days", maxCalendarDays))
	}
	return ve.OrNil()
}

// GenerateCalendar prices every date of [from, to) from the room type's base rate and
// refreshes the sellable room count. Existing booked and blocked counters survive.
func (s *AvailabilityService) GenerateCalendar(ctx context.Context, roomTypeID int64, from, to time.Time) ([]domain.RoomAvailability, error) {
	from, to = domain.Day(from), domain.Day(to)
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	rt, err := s.props.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	total, err := s.props.CountSellableRooms(ctx, roomTypeID)
	if err != nil {
		return nil, fmt.Errorf("count rooms: %w", err)
	}

	rows := make([]domain.RoomAvailability, 0, domain.Nights(from, to))
	for _, d := range domain.EachNight(from, to) {
		rows = append(rows, domain.RoomAvailability{
			RoomTypeID: roomTypeID,
			Date:       d,
			Total:      total,
			Price:      s.rules.NightlyPrice(rt.BaseRate, d),
			MinStay:    1,
		})
	}
	if err := s.repo.UpsertCalendar(ctx, rows); err != nil {
		return nil, fmt.Errorf("upsert calendar: %w", err)
	}
	s.Invalidate(ctx, roomTypeID)
	log.Info().Int64("room_type_id", roomTypeID).Int("days", len(rows)).Msg("calendar generated")
	return rows, nil
}

func calendarKey(roomTypeID int64, from, to time.Time) string {
	return fmt.Sprintf("calendar:%d:%s:%s", roomTypeID, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
}

// GetCalendar reads [from, to) through the cache.
func (s *AvailabilityService) GetCalendar(ctx context.Context, roomTypeID int64, from, to time.Time) ([]domain.RoomAvailability, error) {
	from, to = domain.Day(from), domain.Day(to)
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	key := calendarKey(roomTypeID, from, to)
	var rows []domain.RoomAvailability
	if ok, _ := s.cache.Get(ctx, key, &rows); ok {
		return rows, nil
	}
	if _, err := s.props.GetRoomType(ctx, roomTypeID); err != nil {
		return nil, err
	}
	rows, err := s.repo.GetCalendar(ctx, roomTypeID, from, to)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, rows, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("calendar cache write failed")
	}
	return rows, nil
}

func (s *AvailabilityService) UpdateRestrictions(ctx context.Context, roomTypeID int64, from, to time.Time, p domain.RestrictionPatch) error {
	from, to = domain.Day(from), domain.Day(to)
	if err := checkRange(from, to); err != nil {
		return err
	}
	ve := domain.NewValidationError()
	if p.Price != nil && !p.Price.IsPositive() {
		ve.Add("price", "must be positive")
	}
	if p.MinStay != nil && *p.MinStay < 1 {
		ve.Add("minStay", "must be at least 1")
	}
	if p.MaxStay != nil && *p.MaxStay < 0 {
		ve.Add("maxStay", "must not be negative")
	}
	if p.MinStay != nil && p.MaxStay != nil && *p.MaxStay > 0 && *p.MaxStay < *p.MinStay {
		ve.Add("maxStay", "must not be below minStay")
	}
	if p.Blocked != nil && *p.Blocked < 0 {
		ve.Add("blocked", "must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return err
	}
	if _, err := s.props.GetRoomType(ctx, roomTypeID); err != nil {
		return err
	}
	if err := s.repo.UpdateRestrictions(ctx, roomTypeID, domain.EachNight(from, to), p); err != nil {
		return err
	}
	s.Invalidate(ctx, roomTypeID)
	return nil
}

// Invalidate drops every cached calendar window of a room type.
func (s *AvailabilityService) Invalidate(ctx context.Context, roomTypeID int64) {
	if err := s.cache.DelPrefix(ctx, fmt.Sprintf("calendar:%d:", roomTypeID)); err != nil {
		log.Warn().Err(err).Int64("room_type_id", roomTypeID).Msg("calendar cache invalidation failed")
	}
}

// Offer prices a stay for one room type straight from the store and lists every
// reason it cannot be sold.
func (s *AvailabilityService) Offer(ctx context.Context, rt domain.RoomType, checkIn, checkOut time.Time) (domain.RoomTypeOffer, error) {
	checkIn, checkOut = domain.Day(checkIn), domain.Day(checkOut)
	// the departure date row carries closed-to-departure
	rows, err := s.repo.GetCalendar(ctx, rt.ID, checkIn, checkOut.AddDate(0, 0, 1))
	if err != nil {
		return domain.RoomTypeOffer{}, err
	}
	return evaluateStay(rt, rows, checkIn, checkOut), nil
}

func evaluateStay(rt domain.RoomType, rows []domain.RoomAvailability, checkIn, checkOut time.Time) domain.RoomTypeOffer {
	byDate := make(map[time.Time]domain.RoomAvailability, len(rows))
	for _, r := range rows {
		byDate[domain.Day(r.Date)] = r
	}
	offer := domain.RoomTypeOffer{RoomType: rt, Subtotal: decimal.Zero}
	var reasons []string
	nights := domain.EachNight(checkIn, checkOut)
	for _, d := range nights {
		row, ok := byDate[d]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("%s: not on sale", d.Format(domain.DateLayout)))
			continue
		}
		offer.Nights = append(offer.Nights, domain.NightRate{Date: d, Price: row.Price})
		switch {
		case row.StopSell:
			reasons = append(reasons, fmt.Sprintf("%s: stop sell", d.Format(domain.DateLayout)))
		case row.Available() < 1:
			reasons = append(reasons, fmt.Sprintf("%s: sold out", d.Format(domain.DateLayout)))
		}
	}
	offer.Subtotal = pricing.Subtotal(offer.Nights)

	if arrival, ok := byDate[checkIn]; ok {
		if arrival.ClosedToArrival {
			reasons = append(reasons, "closed to arrival on "+checkIn.Format(domain.DateLayout))
		}
		if arrival.MinStay > 0 && len(nights) < arrival.MinStay {
			reasons = append(reasons, fmt.Sprintf("minimum stay is %d nights", arrival.MinStay))
		}
		if arrival.MaxStay > 0 && len(nights) > arrival.MaxStay {
			reasons = append(reasons, fmt.Sprintf("maximum stay is %d nights", arrival.MaxStay))
		}
	}
	if dep, ok := byDate[checkOut]; ok && dep.ClosedToDeparture {
		reasons = append(reasons, "closed to departure on "+checkOut.Format(domain.DateLayout))
	}
	offer.Reasons = reasons
	offer.Available = len(reasons) == 0 && len(nights) > 0
	return offer
}

func validateStay(ve *domain.ValidationError, checkIn, checkOut, today time.Time) {
	switch {
	case checkIn.IsZero():
		ve.Add("checkIn", "required")
	case checkOut.IsZero():
		ve.Add("checkOut", "required")
	case !checkOut.After(checkIn):
		ve.Add("checkOut", "must be after checkIn")
	case domain.Nights(checkIn, checkOut) > maxStayNights:
		ve.Add("checkOut", fmt.Sprintf("stay exceeds %d nights", maxStayNights))
	}
	if !checkIn.IsZero() && domain.Day(checkIn).Before(domain.Day(today)) {
		ve.Add("checkIn", "must not be in the past")
	}
}

// SearchAvailability offers every room type of the property that can host the party.
func (s *AvailabilityService) SearchAvailability(ctx context.Context, q domain.SearchQuery, today time.Time) ([]domain.RoomTypeOffer, error) {
	ve := domain.NewValidationError()
	validateStay(ve, q.CheckIn, q.CheckOut, today)
	if q.Adults < 1 {
		ve.Add("adults", "must be at least 1")
	}
	if q.Children < 0 {
		ve.Add("children", "must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	if _, err := s.props.GetProperty(ctx, q.PropertyID); err != nil {
		return nil, err
	}
	types, err := s.props.ListRoomTypes(ctx, q.PropertyID)
	if err != nil {
		return nil, err
	}

	var fitting []domain.RoomType
	for _, rt := range types {
		if rt.Fits(q.Adults, q.Children) {
			fitting = append(fitting, rt)
		}
	}
	offers := make([]domain.RoomTypeOffer, len(fitting))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, rt := range fitting {
		g.Go(func() error {
			o, err := s.Offer(gctx, rt, q.CheckIn, q.CheckOut)
			if err != nil {
				return fmt.Errorf("room type %d: %w", rt.ID, err)
			}
			offers[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return offers, nil
}
