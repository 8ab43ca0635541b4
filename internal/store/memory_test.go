package store

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreLatest(t *testing.T) {
	s := NewMemoryStore[int](0)

	if _, _, err := s.Latest("tokyo"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	s.Save("tokyo", 1)
	s.Save("tokyo", 2)
	s.Save("paris", 7)

	v, savedAt, err := s.Latest("tokyo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected latest value 2, got %d", v)
	}
	if savedAt.IsZero() {
		t.Fatalf("expected non-zero save time")
	}
	if len(s.data) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(s.data))
	}
}

func TestMemoryStoreRetention(t *testing.T) {
	s := NewMemoryStore[string](time.Hour)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Save("berlin", "old")

	now = now.Add(2 * time.Hour)
	if _, _, err := s.Latest("berlin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired entry to be hidden, got %v", err)
	}

	s.Save("london", "new")
	if len(s.data) != 1 {
		t.Fatalf("expected expired entry to be evicted on save, got %d keys", len(s.data))
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Save("loc", i)
			_, _, _ = s.Latest("loc")
		}(i)
	}
	wg.Wait()

	if _, _, err := s.Latest("loc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
