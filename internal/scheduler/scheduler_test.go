package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/lwp-live/internal/weather"
)

type countingRefresher struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context, loc weather.Location) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[loc.ID]++
	return c.err
}

func TestRunOnceRefreshesEveryLocation(t *testing.T) {
	locs := []weather.Location{{ID: "JAXX0085"}, {ID: "GMXX0007"}}
	w := &countingRefresher{}
	n := &countingRefresher{err: errors.New("feed down")}

	s := New(locs, time.Minute, time.Second, map[string]Refresher{"weather": w, "news": n})
	s.RunOnce()

	for _, r := range []*countingRefresher{w, n} {
		for _, loc := range locs {
			if r.calls[loc.ID] != 1 {
				t.Fatalf("expected one refresh for %s, got %d", loc.ID, r.calls[loc.ID])
			}
		}
	}
}

func TestStartWithoutLocations(t *testing.T) {
	s := New(nil, time.Minute, 0, map[string]Refresher{"weather": &countingRefresher{}})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}
