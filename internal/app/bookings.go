package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_pms/internal/adapters/observability"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/pricing"
	"hotel_pms/internal/validation"
)

// RoomAllocator assigns physical rooms to bookings.
type RoomAllocator interface {
	Enqueue(bookingID int64)
	Allocate(ctx context.Context, bookingID int64) (domain.Booking, error)
}

type taskCreator interface {
	CreateTask(ctx context.Context, t domain.HousekeepingTask) (domain.HousekeepingTask, error)
}

type BookingService struct {
	repo   domain.BookingRepository
	props  domain.PropertyRepository
	avail  *AvailabilityService
	promos *PromotionService
	tasks  taskCreator
	alloc  RoomAllocator
	audit  domain.AuditLog
	Now    func() time.Time
}

func NewBookingService(
	r domain.BookingRepository,
	p domain.PropertyRepository,
	a *AvailabilityService,
	promos *PromotionService,
	tasks taskCreator,
	alloc RoomAllocator,
	audit domain.AuditLog,
) *BookingService {
	return &BookingService{repo: r, props: p, avail: a, promos: promos, tasks: tasks, alloc: alloc, audit: audit, Now: time.Now}
}

// NewReference returns a booking reference such as BK-3F9A01C2.
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK-" + strings.ToUpper(id[:8])
}

func (s *BookingService) validateInput(in *domain.BookingInput) error {
	ve := domain.NewValidationError()
	in.Guest.Name = strings.TrimSpace(in.Guest.Name)
	in.Guest.Email = strings.ToLower(strings.TrimSpace(in.Guest.Email))
	if in.Guest.Name == "" {
		ve.Add("guest.name", "required")
	}
	if !validation.Email(in.Guest.Email) {
		ve.Add("guest.email", "must be a valid email address")
	}
	if in.PropertyID == 0 {
		ve.Add("propertyId", "required")
	}
	if in.RoomTypeID == 0 {
		ve.Add("roomTypeId", "required")
	}
	in.CheckIn, in.CheckOut = domain.Day(in.CheckIn), domain.Day(in.CheckOut)
	validateStay(ve, in.CheckIn, in.CheckOut, s.Now())
	if in.Adults < 1 {
		ve.Add("adults", "must be at least 1")
	}
	if in.Children < 0 {
		ve.Add("children", "must not be negative")
	}
	if in.Source == "" {
		in.Source = domain.SourceDirect
	}
	if !in.Source.Valid() {
		ve.Add("source", "must be one of direct, walk_in, phone, ota")
	}
	return ve.OrNil()
}

// CreateBooking prices, reserves and stores a new stay. A repeated idempotency key returns
// the booking created the first time and created=false.
func (s *BookingService) CreateBooking(ctx context.Context, in domain.BookingInput, idemKey string) (b domain.Booking, created bool, err error) {
	if err := s.validateInput(&in); err != nil {
		return domain.Booking{}, false, err
	}
	if idemKey != "" {
		prev, err := s.repo.GetBookingByIdempotencyKey(ctx, idemKey)
		if err == nil {
			return prev, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, false, err
		}
	}

	rt, err := s.props.GetRoomType(ctx, in.RoomTypeID)
	if err != nil {
		return domain.Booking{}, false, err
	}
	ve := domain.NewValidationError()
	if rt.PropertyID != in.PropertyID {
		ve.Add("roomTypeId", "does not belong to the property")
	}
	if !rt.Fits(in.Adults, in.Children) {
		ve.Add("adults", fmt.Sprintf("room type holds %d adults and %d children", rt.MaxAdults, rt.MaxChildren))
	}
	if err := ve.OrNil(); err != nil {
		return domain.Booking{}, false, err
	}
	prop, err := s.props.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return domain.Booking{}, false, err
	}

	offer, err := s.avail.Offer(ctx, rt, in.CheckIn, in.CheckOut)
	if err != nil {
		return domain.Booking{}, false, err
	}
	if !offer.Available {
		return domain.Booking{}, false, fmt.Errorf("%w: %s", domain.ErrNoAvailability, strings.Join(offer.Reasons, "; "))
	}

	b = domain.Booking{
		Reference:       NewReference(),
		PropertyID:      in.PropertyID,
		RoomTypeID:      rt.ID,
		Guest:           in.Guest,
		CheckIn:         in.CheckIn,
		CheckOut:        in.CheckOut,
		Adults:          in.Adults,
		Children:        in.Children,
		Status:          domain.BookingConfirmed,
		Source:          in.Source,
		SpecialRequests: strings.TrimSpace(in.SpecialRequests),
		IdempotencyKey:  idemKey,
	}
	if in.Source == domain.SourceOTA {
		b.Status = domain.BookingPending
	}

	discount := decimal.Zero
	if code := strings.TrimSpace(in.PromoCode); code != "" {
		promo, res, err := s.promos.Evaluate(ctx, code, in.Guest.Email, domain.PromotionRequest{
			BookingDate: s.Now(),
			CheckIn:     in.CheckIn,
			CheckOut:    in.CheckOut,
			RoomTypeID:  rt.ID,
			Nights:      offer.Nights,
			Subtotal:    offer.Subtotal,
		})
		if err != nil {
			return domain.Booking{}, false, err
		}
		if !res.Valid {
			return domain.Booking{}, false, &domain.PromotionError{Code: res.Code, Reasons: res.Errors}
		}
		discount = res.Discount
		b.PromoCode = promo.Code
		b.PromotionID = &promo.ID
	}
	b.Price = pricing.Quote(offer.Nights, s.avail.Rules().TaxPercent, discount, prop.Currency)

	now := s.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	if err := s.repo.CreateBooking(ctx, &b); err != nil {
		// a concurrent request with the same key committed first
		if idemKey != "" && errors.Is(err, domain.ErrConflict) {
			if prev, gerr := s.repo.GetBookingByIdempotencyKey(ctx, idemKey); gerr == nil {
				return prev, false, nil
			}
		}
		return domain.Booking{}, false, err
	}
	s.avail.Invalidate(ctx, rt.ID)
	s.record(ctx, b, "", b.Status, "created")
	if b.Status == domain.BookingConfirmed {
		s.alloc.Enqueue(b.ID)
	}
	log.Info().Int64("booking_id", b.ID).Str("reference", b.Reference).Str("status", string(b.Status)).Msg("booking created")
	return b, true, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetByReference(ctx context.Context, ref string) (domain.Booking, error) {
	return s.repo.GetBookingByReference(ctx, strings.ToUpper(strings.TrimSpace(ref)))
}

// BookingsPage is one page of a booking listing.
type BookingsPage struct {
	Items []domain.Booking `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (s *BookingService) ListBookings(ctx context.Context, f domain.BookingFilter) (BookingsPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Status != "" && !f.Status.Valid() {
		ve := domain.NewValidationError()
		ve.Add("status", "unknown booking status")
		return BookingsPage{}, ve
	}
	items, total, err := s.repo.ListBookings(ctx, f)
	if err != nil {
		return BookingsPage{}, err
	}
	return BookingsPage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// Transition applies one status change and its side effects on rooms, inventory and housekeeping.
func (s *BookingService) Transition(ctx context.Context, t domain.Transition) (domain.Booking, error) {
	b, err := s.repo.GetBooking(ctx, t.BookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	from := b.Status
	if !from.CanTransition(t.To) {
		return domain.Booking{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, t.To)
	}

	if t.To == domain.BookingCheckedIn {
		today := domain.Day(s.Now())
		if b.CheckIn.After(today) {
			return domain.Booking{}, fmt.Errorf("%w: check-in date is %s", domain.ErrInvalidTransition, b.CheckIn.Format(domain.DateLayout))
		}
		if b.RoomID == nil {
			b, err = s.alloc.Allocate(ctx, b.ID)
			if err != nil {
				return domain.Booking{}, err
			}
			if b.RoomID == nil {
				return domain.Booking{}, fmt.Errorf("%w: no room free for check-in", domain.ErrNoAvailability)
			}
		}
	}

	release := t.To == domain.BookingCancelled || t.To == domain.BookingNoShow
	if err := s.repo.TransitionBooking(ctx, b.ID, from, t.To, s.Now().UTC(), t.Reason, release); err != nil {
		return domain.Booking{}, err
	}
	observability.ObserveTransition(string(from), string(t.To))

	switch t.To {
	case domain.BookingConfirmed:
		s.alloc.Enqueue(b.ID)
	case domain.BookingCheckedIn:
		s.setRoomStatus(ctx, *b.RoomID, domain.RoomOccupied)
	case domain.BookingCheckedOut:
		if b.RoomID != nil {
			s.setRoomStatus(ctx, *b.RoomID, domain.RoomDirty)
			id := b.ID
			if _, err := s.tasks.CreateTask(ctx, domain.HousekeepingTask{
				RoomID:    *b.RoomID,
				BookingID: &id,
				Type:      domain.TaskCheckoutClean,
				Priority:  domain.PriorityHigh,
			}); err != nil {
				log.Warn().Err(err).Int64("booking_id", b.ID).Msg("checkout cleaning task not created")
			}
		}
	case domain.BookingCancelled, domain.BookingNoShow:
		s.avail.Invalidate(ctx, b.RoomTypeID)
	}

	actor := t.Actor
	if actor == "" {
		actor = domain.Actor(ctx)
	}
	b.Status = t.To
	s.recordAs(ctx, b, from, t.To, t.Reason, actor)
	log.Info().Int64("booking_id", b.ID).Str("from", string(from)).Str("to", string(t.To)).Msg("booking transition")
	return s.repo.GetBooking(ctx, b.ID)
}

func (s *BookingService) setRoomStatus(ctx context.Context, roomID int64, st domain.RoomStatus) {
	if err := s.props.UpdateRoomStatus(ctx, roomID, st); err != nil {
		log.Warn().Err(err).Int64("room_id", roomID).Str("status", string(st)).Msg("room status update failed")
	}
}

// SweepNoShows marks confirmed bookings whose arrival passed more than a day ago as no-shows.
func (s *BookingService) SweepNoShows(ctx context.Context) (int, error) {
	before := domain.Day(s.Now()).AddDate(0, 0, -1)
	overdue, err := s.repo.ListOverdueConfirmed(ctx, before)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range overdue {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		_, err := s.Transition(ctx, domain.Transition{BookingID: b.ID, To: domain.BookingNoShow, Reason: "arrival date passed", Actor: "system"})
		if err != nil {
			log.Warn().Err(err).Int64("booking_id", b.ID).Msg("no-show sweep skipped booking")
			continue
		}
		n++
	}
	return n, nil
}

func (s *BookingService) History(ctx context.Context, id int64) ([]domain.StatusChange, error) {
	if _, err := s.repo.GetBooking(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, id)
}

// Folio lists the room charge and every extra posted to the booking.
func (s *BookingService) Folio(ctx context.Context, id int64) (domain.Folio, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return domain.Folio{}, err
	}
	charges, err := s.repo.ListCharges(ctx, id)
	if err != nil {
		return domain.Folio{}, err
	}
	extras := decimal.Zero
	for _, c := range charges {
		extras = extras.Add(c.Amount)
	}
	if charges == nil {
		charges = []domain.Charge{}
	}
	return domain.Folio{
		Booking: b,
		Charges: charges,
		Room:    b.Price.Total,
		Extras:  extras,
		Balance: b.Price.Total.Add(extras),
	}, nil
}

// AssignRoom runs allocation now instead of waiting for the background worker.
func (s *BookingService) AssignRoom(ctx context.Context, id int64) (domain.Booking, error) {
	return s.alloc.Allocate(ctx, id)
}

func (s *BookingService) record(ctx context.Context, b domain.Booking, from, to domain.BookingStatus, reason string) {
	s.recordAs(ctx, b, from, to, reason, domain.Actor(ctx))
}

func (s *BookingService) recordAs(ctx context.Context, b domain.Booking, from, to domain.BookingStatus, reason, actor string) {
	err := s.audit.Record(ctx, domain.StatusChange{
		BookingID: b.ID,
		Reference: b.Reference,
		From:      from,
		To:        to,
		Actor:     actor,
		Reason:    reason,
		RequestID: domain.RequestIDFrom(ctx),
		At:        s.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Int64("booking_id", b.ID).Msg("audit record failed")
	}
}
