// Package occupancy keeps room status in line with today's confirmed bookings.
package occupancy

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type Syncer interface {
	SyncOccupancy(ctx context.Context, day time.Time) (int64, error)
}

// Sync runs one pass for the calendar day of now.
func Sync(ctx context.Context, s Syncer, now time.Time) error {
	n, err := s.SyncOccupancy(ctx, now)
	if err != nil {
		log.Printf("[occupancy] sync failed: %v", err)
		return err
	}
	if n > 0 {
		log.Printf("[occupancy] updated %d rooms", n)
	}
	return nil
}

// Schedule starts a scheduler that syncs every interval, first run immediately.
// The caller owns Shutdown.
func Schedule(s Syncer, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = Sync(ctx, s, time.Now())
		}),
		gocron.WithName("occupancy-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	return sched, nil
}
