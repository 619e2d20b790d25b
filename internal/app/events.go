package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hotel_pms/internal/domain"
	"hotel_pms/internal/validation"
)

type EventService struct {
	repo  domain.EventRepository
	props domain.PropertyRepository
	Now   func() time.Time
}

func NewEventService(r domain.EventRepository, p domain.PropertyRepository) *EventService {
	return &EventService{repo: r, props: p, Now: time.Now}
}

func (s *EventService) CreateVenue(ctx context.Context, v domain.Venue) (domain.Venue, error) {
	ve := domain.NewValidationError()
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		ve.Add("name", "required")
	}
	if v.Capacity < 1 {
		ve.Add("capacity", "must be at least 1")
	}
	if v.HourlyRate.IsNegative() {
		ve.Add("hourlyRate", "must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return domain.Venue{}, err
	}
	if _, err := s.props.GetProperty(ctx, v.PropertyID); err != nil {
		return domain.Venue{}, fmt.Errorf("property %d: %w", v.PropertyID, err)
	}
	id, err := s.repo.CreateVenue(ctx, v)
	if err != nil {
		return domain.Venue{}, err
	}
	v.ID = id
	return v, nil
}

func (s *EventService) ListVenues(ctx context.Context, propertyID int64) ([]domain.Venue, error) {
	return s.repo.ListVenues(ctx, propertyID)
}

// CreateEvent books a venue slot and prices it as hours at the hourly rate plus the
// per-head package for every attendee.
func (s *EventService) CreateEvent(ctx context.Context, e domain.EventBooking) (domain.EventBooking, error) {
	ve := domain.NewValidationError()
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		ve.Add("title", "required")
	}
	if strings.TrimSpace(e.Organizer.Name) == "" {
		ve.Add("organizer.name", "required")
	}
	if !validation.Email(e.Organizer.Email) {
		ve.Add("organizer.email", "must be a valid email address")
	}
	e.Date = domain.Day(e.Date)
	if e.Date.IsZero() {
		ve.Add("date", "required")
	} else if e.Date.Before(domain.Day(s.Now())) {
		ve.Add("date", "must not be in the past")
	}
	if e.End <= e.Start {
		ve.Add("end", "must be after start")
	}
	if e.Attendees < 1 {
		ve.Add("attendees", "must be at least 1")
	}
	if e.PackagePerHead.IsNegative() {
		ve.Add("packagePerHead", "must not be negative")
	}
	if e.Status == "" {
		e.Status = domain.EventTentative
	}
	if e.Status != domain.EventTentative && e.Status != domain.EventConfirmed {
		ve.Add("status", "new events are tentative or confirmed")
	}
	if err := ve.OrNil(); err != nil {
		return domain.EventBooking{}, err
	}

	v, err := s.repo.GetVenue(ctx, e.VenueID)
	if err != nil {
		return domain.EventBooking{}, err
	}
	if e.Attendees > v.Capacity {
		ve.Add("attendees", fmt.Sprintf("venue holds %d guests", v.Capacity))
		return domain.EventBooking{}, ve
	}
	e.Total = e.Hours().Mul(v.HourlyRate).
		Add(decimal.NewFromInt(int64(e.Attendees)).Mul(e.PackagePerHead)).
		Round(2)
	e.CreatedAt = s.Now().UTC()

	id, err := s.repo.CreateEventBooking(ctx, e)
	if err != nil {
		return domain.EventBooking{}, err
	}
	e.ID = id
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (domain.EventBooking, error) {
	return s.repo.GetEventBooking(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, f domain.EventFilter) ([]domain.EventBooking, error) {
	return s.repo.ListEventBookings(ctx, f)
}

func (s *EventService) UpdateStatus(ctx context.Context, id int64, to domain.EventStatus) (domain.EventBooking, error) {
	e, err := s.repo.GetEventBooking(ctx, id)
	if err != nil {
		return domain.EventBooking{}, err
	}
	if !e.Status.CanTransition(to) {
		return domain.EventBooking{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, e.Status, to)
	}
	if err := s.repo.UpdateEventStatus(ctx, id, e.Status, to); err != nil {
		return domain.EventBooking{}, err
	}
	e.Status = to
	return e, nil
}
