package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_pms/internal/adapters/observability"
	"hotel_pms/internal/domain"
)

// Allocator assigns rooms to bookings in the background. Enqueue never blocks;
// Run consumes the queue with bounded concurrency until its context ends, then drains.
type Allocator struct {
	repo domain.BookingRepository
	queue   chan int64
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewAllocator(repo domain.BookingRepository, workers, queueSize int) *Allocator {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 256
	}
	return &Allocator{
		repo:    repo,
		queue:   make(chan int64, queueSize),
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: 10 * time.Second,
	}
}

func (a *Allocator) Enqueue(bookingID int64) {
	select {
	case a.queue <- bookingID:
	default:
		observability.ObserveAllocation("dropped")
		log.Warn().Int64("booking_id", bookingID).Msg("allocation queue full, dropping")
	}
}

func (a *Allocator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return
		case id := <-a.queue:
			// acquire before launching the goroutine; release inside it
			if err := a.sem.Acquire(ctx, 1); err != nil {
				a.process(id)
				a.drain()
				return
			}
			a.wg.Add(1)
			go func() {
				defer a.wg.Done()
				defer a.sem.Release(1)
				a.process(id)
			}()
		}
	}
}

// drain handles whatever is still queued, then waits for in-flight work.
func (a *Allocator) drain() {
	for {
		select {
		case id := <-a.queue:
			a.process(id)
		default:
			a.wg.Wait()
			return
		}
	}
}

func (a *Allocator) process(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if _, err := a.Allocate(ctx, id); err != nil {
		log.Warn().Err(err).Int64("booking_id", id).Msg("allocation failed")
	}
}

// Allocate gives the booking the best free room of its type. The booking is returned
// unchanged when it already has a room, is not pending/confirmed, or no room is free.
func (a *Allocator) Allocate(ctx context.Context, bookingID int64) (domain.Booking, error) {
	b, err := a.repo.GetBooking(ctx, bookingID)
	if err != nil {
		observability.ObserveAllocation("error")
		return domain.Booking{}, err
	}
	if b.RoomID != nil || (b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed) {
		observability.ObserveAllocation("skipped")
		return b, nil
	}
	rooms, err := a.repo.ListAllocationCandidates(ctx, b.RoomTypeID, b.CheckIn, b.CheckOut)
	if err != nil {
		observability.ObserveAllocation("error")
		return b, err
	}
	rankRooms(rooms)
	for _, r := range rooms {
		err := a.repo.AssignRoom(ctx, b.ID, r.ID)
		if errors.Is(err, domain.ErrConflict) {
			// either the room was just taken or the booking got a room elsewhere
			cur, gerr := a.repo.GetBooking(ctx, b.ID)
			if gerr != nil {
				return b, gerr
			}
			if cur.RoomID != nil {
				observability.ObserveAllocation("skipped")
				return cur, nil
			}
			continue
		}
		if err != nil {
			observability.ObserveAllocation("error")
			return b, err
		}
		observability.ObserveAllocation("assigned")
		log.Info().Int64("booking_id", b.ID).Str("room", r.Number).Msg("room assigned")
		return a.repo.GetBooking(ctx, b.ID)
	}
	observability.ObserveAllocation("no_room")
	log.Warn().Int64("booking_id", b.ID).Int64("room_type_id", b.RoomTypeID).Msg("no room free for booking")
	return b, nil
}

// rankRooms orders candidates: ready rooms first, then lowest floor, then room number.
func rankRooms(rooms []domain.Room) {
	ready := func(s domain.RoomStatus) bool { return s == domain.RoomAvailable || s == domain.RoomInspected }
	sort.SliceStable(rooms, func(i, j int) bool {
		ri, rj := ready(rooms[i].Status), ready(rooms[j].Status)
		if ri != rj {
			return ri
		}
		if rooms[i].Floor != rooms[j].Floor {
			return rooms[i].Floor < rooms[j].Floor
		}
		return rooms[i].Number < rooms[j].Number
	})
}
