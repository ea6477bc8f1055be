package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/climatenet/sensor-bot/internal/directory"
)

// refreshTimeout bounds one full refresh cycle, retries included.
const refreshTimeout = 5 * time.Minute

// Scheduler periodically refreshes the device directory in the background.
type Scheduler struct {
	scheduler *gocron.Scheduler
	dir       *directory.Directory
	interval  time.Duration
}

// New creates a Scheduler refreshing dir every interval.
func New(dir *directory.Directory, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		dir:       dir,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler. Refresh failures are logged; the directory keeps serving its
// last good snapshot.
func (s *Scheduler) Start() error {
	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 86400
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(func() {
		log.Println("scheduler: running directory refresh")

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := s.dir.Refresh(ctx); err != nil {
			log.Printf("scheduler: directory refresh failed: %v", err)
			return
		}
		log.Println("scheduler: completed directory refresh")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
