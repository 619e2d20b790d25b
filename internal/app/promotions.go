package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
	"hotel_pms/internal/promotion"
)

type PromotionService struct {
	repo     domain.PromotionRepository
	bookings domain.BookingRepository
	avail    *AvailabilityService
	props    domain.PropertyRepository
	Now      func() time.Time
}

func NewPromotionService(r domain.PromotionRepository, b domain.BookingRepository, p domain.PropertyRepository, a *AvailabilityService) *PromotionService {
	return &PromotionService{repo: r, bookings: b, props: p, avail: a, Now: time.Now}
}

func (s *PromotionService) CreatePromotion(ctx context.Context, p domain.Promotion) (domain.Promotion, error) {
	ve := domain.NewValidationError()
	p.Code = promotion.NormalizeCode(p.Code)
	if p.Code == "" {
		ve.Add("code", "required")
	}
	if strings.TrimSpace(p.Name) == "" {
		ve.Add("name", "required")
	}
	switch {
	case !p.Type.Valid():
		ve.Add("type", "must be one of percentage, fixed, free_night")
	case p.Type == domain.PromoPercentage && (!p.Value.IsPositive() || p.Value.GreaterThan(decimal.NewFromInt(100))):
		ve.Add("value", "percentage must be in (0, 100]")
	case p.Type == domain.PromoFixed && !p.Value.IsPositive():
		ve.Add("value", "must be positive")
	}
	if p.MaxDiscount != nil && !p.MaxDiscount.IsPositive() {
		ve.Add("maxDiscount", "must be positive")
	}
	if p.ValidFrom.IsZero() || p.ValidTo.IsZero() {
		ve.Add("validFrom", "validity window required")
	} else if p.ValidTo.Before(p.ValidFrom) {
		ve.Add("validTo", "must not be before validFrom")
	}
	if p.StayFrom != nil && p.StayTo != nil && p.StayTo.Before(*p.StayFrom) {
		ve.Add("stayTo", "must not be before stayFrom")
	}
	if p.MinNights < 0 || p.MaxNights < 0 || p.UsageLimit < 0 {
		ve.Add("limits", "must not be negative")
	}
	if p.MaxNights > 0 && p.MaxNights < p.MinNights {
		ve.Add("maxNights", "must not be below minNights")
	}
	if err := ve.OrNil(); err != nil {
		return domain.Promotion{}, err
	}
	p.Active = true
	p.UsedCount = 0
	id, err := s.repo.CreatePromotion(ctx, p)
	if err != nil {
		return domain.Promotion{}, err
	}
	return s.repo.GetPromotion(ctx, id)
}

func (s *PromotionService) GetPromotion(ctx context.Context, id int64) (domain.Promotion, error) {
	return s.repo.GetPromotion(ctx, id)
}

func (s *PromotionService) ListPromotions(ctx context.Context, activeOnly bool) ([]domain.Promotion, error) {
	return s.repo.ListPromotions(ctx, activeOnly)
}

func (s *PromotionService) Deactivate(ctx context.Context, id int64) error {
	return s.repo.DeactivatePromotion(ctx, id)
}

// Evaluate checks a code against a draft booking. An unknown code is reported
// in the result, not as an error.
func (s *PromotionService) Evaluate(ctx context.Context, code, guestEmail string, req domain.PromotionRequest) (domain.Promotion, domain.PromotionResult, error) {
	code = promotion.NormalizeCode(code)
	p, err := s.repo.GetPromotionByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Promotion{}, domain.PromotionResult{Code: code, Errors: []string{"unknown promotion code"}, Discount: decimal.Zero}, nil
	}
	if err != nil {
		return domain.Promotion{}, domain.PromotionResult{}, err
	}
	if p.FirstBooking && guestEmail != "" {
		n, err := s.bookings.CountGuestBookings(ctx, guestEmail)
		if err != nil {
			return domain.Promotion{}, domain.PromotionResult{}, fmt.Errorf("count guest bookings: %w", err)
		}
		req.PriorBookings = n
	}
	if req.BookingDate.IsZero() {
		req.BookingDate = s.Now()
	}
	return p, promotion.Validate(p, req), nil
}

// PromotionDraft is a stay a code is checked against before booking.
type PromotionDraft struct {
	Code       string
	RoomTypeID int64
	CheckIn    time.Time
	CheckOut   time.Time
	GuestEmail string
}

// ValidateDraft prices the stay from the calendar and evaluates the code on it.
func (s *PromotionService) ValidateDraft(ctx context.Context, d PromotionDraft) (domain.PromotionResult, error) {
	ve := domain.NewValidationError()
	if strings.TrimSpace(d.Code) == "" {
		ve.Add("code", "required")
	}
	if d.RoomTypeID == 0 {
		ve.Add("roomTypeId", "required")
	}
	validateStay(ve, d.CheckIn, d.CheckOut, s.Now())
	if err := ve.OrNil(); err != nil {
		return domain.PromotionResult{}, err
	}
	rt, err := s.props.GetRoomType(ctx, d.RoomTypeID)
	if err != nil {
		return domain.PromotionResult{}, err
	}
	offer, err := s.avail.Offer(ctx, rt, d.CheckIn, d.CheckOut)
	if err != nil {
		return domain.PromotionResult{}, err
	}
	_, res, err := s.Evaluate(ctx, d.Code, d.GuestEmail, domain.PromotionRequest{
		CheckIn:    domain.Day(d.CheckIn),
		CheckOut:   domain.Day(d.CheckOut),
		RoomTypeID: rt.ID,
		Nights:     offer.Nights,
		Subtotal:   offer.Subtotal,
	})
	return res, err
}
