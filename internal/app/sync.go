package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_pms/internal/domain"
)

// ChannelSync pushes upcoming rates and inventory to the channel manager.
type ChannelSync struct {
	client domain.ChannelClient
	props  domain.PropertyRepository
	avail  domain.AvailabilityRepository
	Now    func() time.Time
}

func NewChannelSync(c domain.ChannelClient, p domain.PropertyRepository, a domain.AvailabilityRepository) *ChannelSync {
	return &ChannelSync{client: c, props: p, avail: a, Now: time.Now}
}

// SyncRoomType pushes the next days of one room type. Room types unknown to the
// channel are skipped; credential errors and anything unexpected bubble up.
func (s *ChannelSync) SyncRoomType(ctx context.Context, rt domain.RoomType, days int) error {
	from := domain.Day(s.Now())
	rows, err := s.avail.GetCalendar(ctx, rt.ID, from, from.AddDate(0, 0, days))
	if err != nil {
		return fmt.Errorf("calendar for %s: %w", rt.Code, err)
	}
	if len(rows) == 0 {
		log.Debug().Str("room_type", rt.Code).Msg("nothing to sync")
		return nil
	}
	err = s.client.PushAvailability(ctx, rt.Code, rows)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("room_type", rt.Code).Msg("room type not mapped on channel, skipped")
		return nil
	}
	return err
}

// SyncResult counts the room types pushed and failed in one run.
type SyncResult struct {
	Pushed int
	Failed int
}

// SyncAll pushes every room type of every property with at most workers pushes in flight.
func (s *ChannelSync) SyncAll(ctx context.Context, days, workers int) (SyncResult, error) {
	if workers < 1 {
		workers = 1
	}
	props, err := s.props.ListProperties(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	var types []domain.RoomType
	for _, p := range props {
		rts, err := s.props.ListRoomTypes(ctx, p.ID)
		if err != nil {
			return SyncResult{}, err
		}
		types = append(types, rts...)
	}

	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res SyncResult
	)
	for _, rt := range types {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(rt domain.RoomType) {
			defer wg.Done()
			defer sem.Release(1)

			err := s.SyncRoomType(ctx, rt, days)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				log.Warn().Str("room_type", rt.Code).Err(err).Msg("channel sync failed")
				return
			}
			res.Pushed++
			log.Info().Str("room_type", rt.Code).Msg("channel sync ok")
		}(rt)
	}
	wg.Wait()
	return res, ctx.Err()
}
