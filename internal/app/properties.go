package app

import (
	"context"
	"fmt"
	"strings"

	"hotel_pms/internal/domain"
)

type PropertyService struct {
	repo domain.PropertyRepository
}

func NewPropertyService(r domain.PropertyRepository) *PropertyService {
	return &PropertyService{repo: r}
}

func (s *PropertyService) CreateProperty(ctx context.Context, p domain.Property) (domain.Property, error) {
	ve := domain.NewValidationError()
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		ve.Add("name", "required")
	}
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if len(p.Currency) != 3 {
		ve.Add("currency", "must be a 3-letter ISO code")
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	for field, v := range map[string]*string{"checkInTime": &p.CheckInTime, "checkOutTime": &p.CheckOutTime} {
		if *v == "" {
			continue
		}
		if _, err := domain.ParseClock(*v); err != nil {
			ve.Add(field, err.Error())
		}
	}
	if p.CheckInTime == "" {
		p.CheckInTime = "15:00"
	}
	if p.CheckOutTime == "" {
		p.CheckOutTime = "11:00"
	}
	if err := ve.OrNil(); err != nil {
		return domain.Property{}, err
	}
	id, err := s.repo.CreateProperty(ctx, p)
	if err != nil {
		return domain.Property{}, fmt.Errorf("create property: %w", err)
	}
	p.ID = id
	return p, nil
}

func (s *PropertyService) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	return s.repo.GetProperty(ctx, id)
}

func (s *PropertyService) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return s.repo.ListProperties(ctx)
}

func (s *PropertyService) CreateRoomType(ctx context.Context, rt domain.RoomType) (domain.RoomType, error) {
	ve := domain.NewValidationError()
	rt.Code = strings.ToUpper(strings.TrimSpace(rt.Code))
	if rt.Code == "" {
		ve.Add("code", "required")
	}
	if strings.TrimSpace(rt.Name) == "" {
		ve.Add("name", "required")
	}
	if !rt.BaseRate.IsPositive() {
		ve.Add("baseRate", "must be positive")
	}
	if rt.MaxAdults < 1 {
		ve.Add("maxAdults", "must be at least 1")
	}
	if rt.MaxChildren < 0 {
		ve.Add("maxChildren", "must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return domain.RoomType{}, err
	}
	if _, err := s.repo.GetProperty(ctx, rt.PropertyID); err != nil {
		return domain.RoomType{}, fmt.Errorf("property %d: %w", rt.PropertyID, err)
	}
	id, err := s.repo.CreateRoomType(ctx, rt)
	if err != nil {
		return domain.RoomType{}, fmt.Errorf("create room type: %w", err)
	}
	rt.ID = id
	return rt, nil
}

func (s *PropertyService) ListRoomTypes(ctx context.Context, propertyID int64) ([]domain.RoomType, error) {
	return s.repo.ListRoomTypes(ctx, propertyID)
}

func (s *PropertyService) CreateRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	ve := domain.NewValidationError()
	r.Number = strings.TrimSpace(r.Number)
	if r.Number == "" {
		ve.Add("number", "required")
	}
	if r.Status == "" {
		r.Status = domain.RoomAvailable
	}
	if !r.Status.Valid() {
		ve.Add("status", "unknown room status")
	}
	if err := ve.OrNil(); err != nil {
		return domain.Room{}, err
	}
	rt, err := s.repo.GetRoomType(ctx, r.RoomTypeID)
	if err != nil {
		return domain.Room{}, fmt.Errorf("room type %d: %w", r.RoomTypeID, err)
	}
	r.PropertyID = rt.PropertyID
	id, err := s.repo.CreateRoom(ctx, r)
	if err != nil {
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}
	r.ID = id
	return r, nil
}

func (s *PropertyService) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	return s.repo.GetRoom(ctx, id)
}

func (s *PropertyService) ListRooms(ctx context.Context, f domain.RoomFilter) ([]domain.Room, error) {
	return s.repo.ListRooms(ctx, f)
}

func (s *PropertyService) UpdateRoomStatus(ctx context.Context, id int64, st domain.RoomStatus) (domain.Room, error) {
	if !st.Valid() {
		ve := domain.NewValidationError()
		ve.Add("status", "unknown room status")
		return domain.Room{}, ve
	}
	if err := s.repo.UpdateRoomStatus(ctx, id, st); err != nil {
		return domain.Room{}, err
	}
	return s.repo.GetRoom(ctx, id)
}
