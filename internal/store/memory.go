package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no value is available for a given key.
	ErrNotFound = errors.New("no data for location")
)

type entry[T any] struct {
	value   T
	savedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory store of the latest value per
// location key. It backs both the short-lived fetch cache and the last-known
// fallback values.
type MemoryStore[T any] struct {
	mu sync.RWMutex

	// key: location key, value: most recent entry
	data map[string]entry[T]

	// maxAge drops entries older than this (0 = unlimited)
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore with an optional retention age.
func NewMemoryStore[T any](maxAge time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		data:   make(map[string]entry[T]),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Save replaces the value for key and enforces retention.
func (s *MemoryStore[T]) Save(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.data[key] = entry[T]{value: value, savedAt: now}

	if s.maxAge <= 0 {
		return
	}
	cutoff := now.Add(-s.maxAge)
	for k, e := range s.data {
		if e.savedAt.Before(cutoff) {
			delete(s.data, k)
		}
	}
}

// Latest returns the most recent value for key and when it was saved.
func (s *MemoryStore[T]) Latest(key string) (T, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	e, ok := s.data[key]
	if !ok {
		return zero, time.Time{}, ErrNotFound
	}
	if s.maxAge > 0 && s.now().Sub(e.savedAt) > s.maxAge {
		return zero, time.Time{}, ErrNotFound
	}
	return e.value, e.savedAt, nil
}
