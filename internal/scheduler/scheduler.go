package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/lwp-live/internal/weather"
)

// Refresher fetches live data for one location and stores it.
type Refresher interface {
	Refresh(ctx context.Context, loc weather.Location) error
}

// Scheduler keeps the per-location caches warm so feed requests are served
// from fresh data instead of waiting on upstream calls.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	refreshers map[string]Refresher
	locations  []weather.Location
	interval   time.Duration
	timeout    time.Duration
}

// New creates a new Scheduler. refreshers is keyed by a name used in logs.
func New(locations []weather.Location, interval, timeout time.Duration, refreshers map[string]Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler:  s,
		refreshers: refreshers,
		locations:  locations,
		interval:   interval,
		timeout:    timeout,
	}
}

// Start schedules the warm job, runs it once immediately and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 || len(s.refreshers) == 0 {
		log.Println("scheduler: nothing to warm")
		return nil
	}

	interval := s.interval
	if interval < time.Minute {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every location with every refresher and waits for all.
func (s *Scheduler) RunOnce() {
	log.Println("scheduler: running cache warm job")

	var wg sync.WaitGroup
	for name, r := range s.refreshers {
		for _, loc := range s.locations {
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
				defer cancel()

				if err := r.Refresh(ctx, loc); err != nil {
					log.Printf("scheduler: %s refresh failed for %s: %v", name, loc.Key(), err)
				}
			}()
		}
	}
	wg.Wait()
	log.Println("scheduler: completed cache warm job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
