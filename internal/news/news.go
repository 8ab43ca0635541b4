package news

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/i474232898/lwp-live/internal/metrics"
	"github.com/i474232898/lwp-live/internal/weather"
)

// MaxHeadlines is the number of news slots a city block can show.
const MaxHeadlines = 4

// Headline is one news item. Title is plain text; escaping for markup
// happens where it is inserted.
type Headline struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Provider abstracts a headline source for one location.
type Provider interface {
	Name() string
	Headlines(ctx context.Context, loc weather.Location) ([]Headline, error)
}

// Store keeps the last headlines per location key.
type Store interface {
	Save(key string, value []Headline)
	Latest(key string) ([]Headline, time.Time, error)
}

// Options tunes a Service.
type Options struct {
	Timeout time.Duration
	// CacheTTL lets Headlines reuse a stored result younger than this; zero disables reuse.
	CacheTTL time.Duration
	// Separator, when set, cuts each title at its first occurrence
	// (e.g. " - " to drop a trailing publisher name).
	Separator string
	// FallbackLink is used by the per-location fallback headline.
	FallbackLink string
	Metrics      *metrics.Metrics
}

// Service fetches headlines for a location and never fails.
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
	if opts.FallbackLink == "" {
		opts.FallbackLink = "https://apnews.com"
	}
	return &Service{store: store, provider: provider, opts: opts}
}

// Headlines returns up to MaxHeadlines cleaned headlines for loc, or the
// fallback headline when the provider fails or returns nothing usable.
func (s *Service) Headlines(ctx context.Context, loc weather.Location) []Headline {
	if s.store != nil && s.opts.CacheTTL > 0 {
		if items, savedAt, err := s.store.Latest(loc.Key()); err == nil && time.Since(savedAt) < s.opts.CacheTTL {
			return items
		}
	}

	items, err := s.fetch(ctx, loc)
	if err != nil {
		log.Printf("news: headlines failed for %s, using fallback: %v", loc.Key(), err)
		s.opts.Metrics.Fallback("news", loc.Key())
		return s.Fallback(loc)
	}
	return items
}

// Refresh fetches and stores headlines. Used by the cache warmer.
func (s *Service) Refresh(ctx context.Context, loc weather.Location) error {
	_, err := s.fetch(ctx, loc)
	return err
}

// Fallback is the single placeholder headline shown when a location's feed is down.
func (s *Service) Fallback(loc weather.Location) []Headline {
	return []Headline{{
		Title: fmt.Sprintf("Checking %s News...", loc.Name),
		Link:  s.opts.FallbackLink,
	}}
}

func (s *Service) fetch(ctx context.Context, loc weather.Location) ([]Headline, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no headline provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	raw, err := s.provider.Headlines(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", s.provider.Name(), err)
	}

	items := Clean(raw, s.opts.Separator)
	if len(items) == 0 {
		return nil, fmt.Errorf("provider %s returned no usable headlines", s.provider.Name())
	}
	if s.store != nil {
		s.store.Save(loc.Key(), items)
	}
	return items, nil
}

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func plainText(s string) string {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	// bluemonday returns HTML-escaped text; callers want the raw characters.
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// Clean strips markup from titles, cuts them at sep, drops empty titles and
// keeps at most MaxHeadlines items in their original order.
func Clean(items []Headline, sep string) []Headline {
	out := make([]Headline, 0, MaxHeadlines)
	for _, h := range items {
		if len(out) == MaxHeadlines {
			break
		}
		title := plainText(h.Title)
		if sep != "" {
			if i := strings.Index(title, sep); i > 0 {
				title = strings.TrimSpace(title[:i])
			}
		}
		if title == "" {
			continue
		}
		out = append(out, Headline{Title: title, Link: strings.TrimSpace(h.Link)})
	}
	return out
}
