package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_pms/internal/domain"
)

type HousekeepingService struct {
	repo  domain.HousekeepingRepository
	props domain.PropertyRepository
	users domain.UserRepository
	Now   func() time.Time
}

func NewHousekeepingService(r domain.HousekeepingRepository, p domain.PropertyRepository, u domain.UserRepository) *HousekeepingService {
	return &HousekeepingService{repo: r, props: p, users: u, Now: time.Now}
}

func (s *HousekeepingService) CreateTask(ctx context.Context, t domain.HousekeepingTask) (domain.HousekeepingTask, error) {
	ve := domain.NewValidationError()
	if !t.Type.Valid() {
		ve.Add("type", "unknown task type")
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityNormal
	}
	if !t.Priority.Valid() {
		ve.Add("priority", "must be one of low, normal, high, urgent")
	}
	if t.RoomID == 0 {
		ve.Add("roomId", "required")
	}
	if err := ve.OrNil(); err != nil {
		return domain.HousekeepingTask{}, err
	}
	room, err := s.props.GetRoom(ctx, t.RoomID)
	if err != nil {
		return domain.HousekeepingTask{}, fmt.Errorf("room %d: %w", t.RoomID, err)
	}
	t.Status = domain.TaskPending
	t.CreatedAt = s.Now().UTC()
	id, err := s.repo.CreateTask(ctx, t)
	if err != nil {
		return domain.HousekeepingTask{}, err
	}
	t.ID = id
	if t.Type == domain.TaskMaintenance && room.Status != domain.RoomOccupied {
		s.setRoom(ctx, room.ID, domain.RoomMaintenance)
	}
	return t, nil
}

func (s *HousekeepingService) GetTask(ctx context.Context, id int64) (domain.HousekeepingTask, error) {
	return s.repo.GetTask(ctx, id)
}

func (s *HousekeepingService) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.HousekeepingTask, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.repo.ListTasks(ctx, f)
}

func (s *HousekeepingService) Assign(ctx context.Context, id, userID int64) (domain.HousekeepingTask, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.HousekeepingTask{}, err
	}
	if t.Status == domain.TaskVerified || t.Status == domain.TaskCancelled {
		return domain.HousekeepingTask{}, fmt.Errorf("%w: task is %s", domain.ErrConflict, t.Status)
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.HousekeepingTask{}, fmt.Errorf("user %d: %w", userID, err)
	}
	if !u.Active {
		return domain.HousekeepingTask{}, fmt.Errorf("%w: user %d is inactive", domain.ErrConflict, userID)
	}
	if err := s.repo.AssignTask(ctx, id, userID); err != nil {
		return domain.HousekeepingTask{}, err
	}
	return s.repo.GetTask(ctx, id)
}

// Transition moves a task along its workflow and updates the room it covers.
func (s *HousekeepingService) Transition(ctx context.Context, id int64, to domain.TaskStatus) (domain.HousekeepingTask, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.HousekeepingTask{}, err
	}
	if !t.Status.CanTransition(to) {
		return domain.HousekeepingTask{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, t.Status, to)
	}
	if err := s.repo.TransitionTask(ctx, id, t.Status, to, s.Now().UTC()); err != nil {
		return domain.HousekeepingTask{}, err
	}

	if next, ok := roomStatusAfter(t.Type, to); ok {
		room, err := s.props.GetRoom(ctx, t.RoomID)
		switch {
		case err != nil:
			log.Warn().Err(err).Int64("room_id", t.RoomID).Msg("room lookup failed")
		case room.Status == domain.RoomOccupied || room.Status == domain.RoomOutOfOrder:
			// guests in house and out-of-order rooms keep their status
		default:
			s.setRoom(ctx, room.ID, next)
		}
	}
	return s.repo.GetTask(ctx, id)
}

func roomStatusAfter(tt domain.TaskType, to domain.TaskStatus) (domain.RoomStatus, bool) {
	switch {
	case tt.Cleaning() && to == domain.TaskInProgress:
		return domain.RoomCleaning, true
	case tt.Cleaning() && to == domain.TaskCompleted:
		return domain.RoomInspected, true
	case to == domain.TaskVerified:
		return domain.RoomAvailable, true
	case tt == domain.TaskMaintenance && to == domain.TaskCancelled:
		return domain.RoomAvailable, true
	}
	return "", false
}

func (s *HousekeepingService) setRoom(ctx context.Context, roomID int64, st domain.RoomStatus) {
	if err := s.props.UpdateRoomStatus(ctx, roomID, st); err != nil {
		log.Warn().Err(err).Int64("room_id", roomID).Str("status", string(st)).Msg("room status update failed")
	}
}

// GenerateStayoverTasks creates a stayover cleaning task for every occupied room
// of the property that has none for the day.
func (s *HousekeepingService) GenerateStayoverTasks(ctx context.Context, propertyID int64, day time.Time) (int, error) {
	day = domain.Day(day)
	rooms, err := s.repo.ListRoomsNeedingStayover(ctx, propertyID, day)
	if err != nil {
		return 0, err
	}
	due := day.Add(14 * time.Hour)
	n := 0
	for _, r := range rooms {
		_, err := s.CreateTask(ctx, domain.HousekeepingTask{
			RoomID:   r.ID,
			Type:     domain.TaskStayoverClean,
			Priority: domain.PriorityNormal,
			DueAt:    &due,
		})
		if errors.Is(err, context.Canceled) {
			return n, err
		}
		if err != nil {
			log.Warn().Err(err).Int64("room_id", r.ID).Msg("stayover task not created")
			continue
		}
		n++
	}
	log.Info().Int64("property_id", propertyID).Int("created", n).Msg("stayover tasks generated")
	return n, nil
}
