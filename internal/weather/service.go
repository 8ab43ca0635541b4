package weather

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/i474232898/lwp-live/internal/metrics"
)

// Options tunes a Service.
type Options struct {
	// Timeout bounds one provider call.
	Timeout time.Duration
	// CacheTTL lets Current reuse a stored reading younger than this; zero disables reuse.
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
}

// Service fetches current conditions for a location and never fails: on any
// provider error it degrades to the last known reading, then to the neutral fallback.
type Service struct {
	store    Store
	provider Provider
	opts     Options
}

// NewService creates a new Service. store may be nil.
func NewService(store Store, provider Provider, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Service{
		store:    store,
		provider: provider,
		opts:     opts,
	}
}

// Current returns the best available reading for loc within the configured timeout.
func (s *Service) Current(ctx context.Context, loc Location) Reading {
	if r, ok := s.cached(loc); ok {
		return r
	}

	r, err := s.fetch(ctx, loc)
	if err == nil {
		return r
	}

	log.Printf("weather: fetch failed for %s, using fallback: %v", loc.Key(), err)
	s.opts.Metrics.Fallback("weather", loc.Key())

	if s.store != nil {
		if last, _, err := s.store.Latest(loc.Key()); err == nil {
			last.Origin = OriginStale
			return last
		}
	}
	return FallbackReading()
}

// Refresh fetches a live reading and stores it. Used by the cache warmer.
func (s *Service) Refresh(ctx context.Context, loc Location) error {
	_, err := s.fetch(ctx, loc)
	return err
}

func (s *Service) cached(loc Location) (Reading, bool) {
	if s.store == nil || s.opts.CacheTTL <= 0 {
		return Reading{}, false
	}
	r, savedAt, err := s.store.Latest(loc.Key())
	if err != nil || time.Since(savedAt) >= s.opts.CacheTTL {
		return Reading{}, false
	}
	r.Origin = OriginCached
	return r, true
}

func (s *Service) fetch(ctx context.Context, loc Location) (Reading, error) {
	if s.provider == nil {
		return Reading{}, fmt.Errorf("no weather provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	obs, err := s.provider.Fetch(ctx, loc)
	if err != nil {
		return Reading{}, fmt.Errorf("provider %s: %w", s.provider.Name(), err)
	}

	r := ReadingFrom(obs)
	if s.store != nil {
		s.store.Save(loc.Key(), r)
	}
	return r, nil
}

// ReadingFrom normalizes a provider observation.
func ReadingFrom(obs Observation) Reading {
	f := obs.TemperatureC*9/5 + 32
	if obs.TemperatureF != nil {
		f = *obs.TemperatureF
	}

	ts := obs.Timestamp.UTC()
	if obs.Timestamp.IsZero() {
		ts = time.Now().UTC()
	}

	return Reading{
		Celsius:    Degrees(obs.TemperatureC),
		Fahrenheit: Degrees(f),
		Code:       obs.Code,
		IsDay:      obs.IsDay,
		Timestamp:  ts,
		Origin:     OriginLive,
	}
}
