// Package relay proxies remote camera and satellite images, transcoding them
// to the fixed size the client understands.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/lwp-live/internal/fetch"
	"github.com/i474232898/lwp-live/internal/metrics"
	"github.com/i474232898/lwp-live/internal/weather"
)

// ErrNotFound means neither the remote source nor a fallback produced an image.
var ErrNotFound = errors.New("image not found")

// CloudID is the id of the satellite cloud overlay source.
const CloudID = "cloud"

// Source is one relayed image.
type Source struct {
	// ID is what Fetch takes. File, when set, is the public camera file
	// name that ByFile resolves to ID.
	ID   string
	File string
	URL  string
	// Fallback is a local image served when the remote fetch fails.
	Fallback string
	Output   Output
	Timeout  time.Duration
}

type source struct {
	Source
	circuit *gobreaker.CircuitBreaker
}

// Relay serves images from a fixed set of sources. Safe for concurrent use.
type Relay struct {
	httpCfg fetch.Config
	sources map[string]*source
	files   map[string]string
	metrics *metrics.Metrics
}

func New(client *http.Client, sources []Source, m *metrics.Metrics) *Relay {
	r := &Relay{
		httpCfg: fetch.Config{
			Client:       client,
			Backoff:      fetch.SingleAttempt,
			MaxBodyBytes: 16 << 20,
		},
		sources: make(map[string]*source, len(sources)),
		files:   make(map[string]string, len(sources)),
		metrics: m,
	}
	for _, s := range sources {
		if s.Timeout <= 0 {
			s.Timeout = 10 * time.Second
		}
		src := &source{Source: s, circuit: fetch.NewBreaker("relay-" + s.ID)}
		r.sources[s.ID] = src
		if s.File != "" {
			if _, taken := r.files[s.File]; !taken {
				r.files[s.File] = s.ID
			}
		}
	}
	return r
}

// CameraSources builds one camera source per location.
func CameraSources(locs []weather.Location, timeout time.Duration) []Source {
	out := make([]Source, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Source{
			ID:       loc.ID,
			File:     loc.File,
			URL:      loc.CameraURL,
			Fallback: loc.CameraFallback,
			Output:   CameraOutput,
			Timeout:  timeout,
		})
	}
	return out
}

// ByFile returns the id of the source published under file.
func (r *Relay) ByFile(file string) (string, bool) {
	id, ok := r.files[file]
	return id, ok
}

// Fetch returns the JPEG for id: the live image if the remote source
// answers within its timeout, else the transcoded fallback asset, else
// ErrNotFound with no bytes.
func (r *Relay) Fetch(ctx context.Context, id string) ([]byte, error) {
	src, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown source %q", ErrNotFound, id)
	}

	img, err := r.live(ctx, src)
	if err == nil {
		r.metrics.Relay(src.ID, "live")
		return img, nil
	}
	log.Printf("relay: %s live image unavailable: %v", src.ID, err)

	if src.Fallback != "" {
		img, ferr := fallback(src)
		if ferr == nil {
			r.metrics.Relay(src.ID, "fallback")
			return img, nil
		}
		log.Printf("relay: %s fallback unavailable: %v", src.ID, ferr)
	}

	r.metrics.Relay(src.ID, "not_found")
	return nil, fmt.Errorf("%w: %s", ErrNotFound, src.ID)
}

func (r *Relay) live(ctx context.Context, src *source) ([]byte, error) {
	if src.URL == "" {
		return nil, errors.New("no remote url configured")
	}

	ctx, cancel := context.WithTimeout(ctx, src.Timeout)
	defer cancel()

	header := http.Header{}
	header.Set("Accept", "image/*")
	body, err := fetch.ReadAll(ctx, r.httpCfg, src.circuit, fetch.GetRequest(src.URL, header))
	if err != nil {
		return nil, err
	}
	// An aborted fetch never reaches the decoder.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Transcode(body, src.Output)
}

func fallback(src *source) ([]byte, error) {
	data, err := os.ReadFile(src.Fallback)
	if err != nil {
		return nil, err
	}
	return Transcode(data, src.Output)
}
