package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/lwp-live/internal/markup"
	"github.com/i474232898/lwp-live/internal/metrics"
	"github.com/i474232898/lwp-live/internal/news"
	"github.com/i474232898/lwp-live/internal/weather"
)

// FeedSpec describes one synthesised document.
type FeedSpec struct {
	ID string
	// Path of the template inside the TemplateSource.
	Path string
	// TTL is written into every <ttl> element (minutes).
	TTL int
	// Locations enables per-city patching.
	Locations bool
	// StampPubDate sets <pubDate> elements and pubDate attributes to the request time.
	StampPubDate bool
	// GUIDPrefix, when set, turns every guid attribute into Token.HexGUID(GUIDPrefix).
	GUIDPrefix string
}

var (
	CityFeed = FeedSpec{
		ID:        "city_diff",
		Path:      "FLWP00001/city_diff.xml",
		TTL:       15,
		Locations: true,
	}
	CloudFeed = FeedSpec{
		ID:           "cloud",
		Path:         "FLWP00001/cloud.xml",
		TTL:          180,
		StampPubDate: true,
		GUIDPrefix:   "cloud",
	}
)

// WeatherSource never fails; see weather.Service.
type WeatherSource interface {
	Current(ctx context.Context, loc weather.Location) weather.Reading
}

// HeadlineSource never fails; see news.Service.
type HeadlineSource interface {
	Headlines(ctx context.Context, loc weather.Location) []news.Headline
}

// Options tunes an Engine.
type Options struct {
	// Marker is the local name of the city marker element.
	Marker string
	Slots  SlotPolicy
	// Concurrency bounds the per-location fetches of one synthesis.
	Concurrency int
	Icons       weather.IconTable
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// Engine synthesises feed documents. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	templates TemplateSource
	weather   WeatherSource
	news      HeadlineSource
	locations []weather.Location
	feeds     map[string]FeedSpec
	versions  *Versions
	opts      Options
}

func NewEngine(templates TemplateSource, ws WeatherSource, hs HeadlineSource, locations []weather.Location, feeds []FeedSpec, opts Options) *Engine {
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.Slots.Element == "" {
		opts.Slots = DefaultSlots
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Icons == nil {
		opts.Icons = weather.AccuWeatherIcons
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	byID := make(map[string]FeedSpec, len(feeds))
	for _, f := range feeds {
		byID[f.ID] = f
	}

	return &Engine{
		templates: templates,
		weather:   ws,
		news:      hs,
		locations: append([]weather.Location(nil), locations...),
		feeds:     byID,
		versions:  NewVersions(opts.Now),
		opts:      opts,
	}
}

// Synthesize builds the document for feedID. Missing live data never fails
// the call; only an unreadable or malformed template does (*FatalError).
func (e *Engine) Synthesize(ctx context.Context, feedID string) ([]byte, error) {
	spec, ok := e.feeds[feedID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeed, feedID)
	}

	runID := uuid.NewString()
	started := e.opts.Now()
	tok := e.versions.Next()

	out, err := e.synthesize(ctx, spec, tok, runID)
	if err != nil {
		var fatal *FatalError
		if errors.As(err, &fatal) {
			fatal.Feed = spec.ID
		}
		log.Printf("ERROR: feed: %s run %s failed: %v", spec.ID, runID, err)
		e.opts.Metrics.Feed(spec.ID, "fatal")
		return nil, err
	}

	log.Printf("INFO: feed: %s run %s synthesised (v=%s, %d bytes, %s)",
		spec.ID, runID, tok, len(out), e.opts.Now().Sub(started).Round(time.Millisecond))
	e.opts.Metrics.Feed(spec.ID, "ok")
	return out, nil
}

func (e *Engine) synthesize(ctx context.Context, spec FeedSpec, tok Token, runID string) ([]byte, error) {
	tpl, err := e.templates.Template(ctx, spec.Path)
	if err != nil {
		return nil, &FatalError{Op: "read template", Err: err}
	}

	var locs []weather.Location
	if spec.Locations {
		locs = e.locations
	}
	segs, err := Split(tpl, e.opts.Marker, locs)
	if err != nil {
		return nil, err
	}

	bundles := e.collect(ctx, segs)
	doc := Assemble(segs, func(i int, seg Segment) []byte {
		patched, err := Patch(seg, *seg.Location, bundles[i], tok, e.opts.Slots)
		if err != nil {
			log.Printf("ERROR: feed: run %s: %v", runID, err)
			return nil
		}
		return patched
	})

	return e.finish(doc, spec, tok)
}

// collect fetches one bundle per bound segment. Weather and headlines run
// as separate tasks so neither waits on the other's timeout.
func (e *Engine) collect(ctx context.Context, segs []Segment) []Bundle {
	readings := make([]weather.Reading, len(segs))
	headlines := make([][]news.Headline, len(segs))

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i, seg := range segs {
		if !seg.Bound() {
			continue
		}
		loc := *seg.Location
		g.Go(func() error {
			readings[i] = e.weather.Current(ctx, loc)
			return nil
		})
		g.Go(func() error {
			headlines[i] = e.news.Headlines(ctx, loc)
			return nil
		})
	}
	_ = g.Wait()

	bundles := make([]Bundle, len(segs))
	for i, seg := range segs {
		if !seg.Bound() {
			continue
		}
		r := readings[i]
		bundles[i] = Bundle{
			Celsius:    r.Celsius,
			Fahrenheit: r.Fahrenheit,
			Icon:       e.icon(r),
			Headlines:  headlines[i],
		}
	}
	return bundles
}

func (e *Engine) icon(r weather.Reading) weather.Icon {
	if r.Code == weather.CodeUnknown {
		return weather.IconDefault
	}
	return e.opts.Icons.Icon(r.Code, r.IsDay)
}

// Assemble concatenates segments in order. Bound segments are replaced by
// patch's result unless it returns nil, in which case they are kept as-is.
func Assemble(segs []Segment, patch func(i int, seg Segment) []byte) []byte {
	size := 0
	for _, s := range segs {
		size += len(s.Data)
	}
	out := make([]byte, 0, size+size/8)
	for i, s := range segs {
		if s.Bound() && patch != nil {
			if b := patch(i, s); b != nil {
				out = append(out, b...)
				continue
			}
		}
		out = append(out, s.Data...)
	}
	return out
}

// finish applies the document-wide fields: ttl, pubDate and hex guids.
func (e *Engine) finish(doc []byte, spec FeedSpec, tok Token) ([]byte, error) {
	frag, err := markup.Parse(doc)
	if err != nil {
		return nil, &FatalError{Op: "finish", Err: err}
	}

	if spec.TTL > 0 {
		ttl := fmt.Sprint(spec.TTL)
		for _, el := range frag.Elements("ttl") {
			if err := frag.SetContent(el, ttl); err != nil {
				log.Printf("feed: %s ttl not set: %v", spec.ID, err)
			}
		}
	}

	if spec.StampPubDate {
		now := e.opts.Now().UTC().Format(http.TimeFormat)
		for _, el := range frag.Elements("pubDate") {
			if err := frag.SetContent(el, now); err != nil {
				log.Printf("feed: %s pubDate not set: %v", spec.ID, err)
			}
		}
		for _, el := range frag.WithAttr("pubDate") {
			el.SetAttr("pubDate", now)
		}
	}

	if spec.GUIDPrefix != "" {
		guid := tok.HexGUID(spec.GUIDPrefix)
		for _, el := range frag.WithAttr("guid") {
			el.SetAttr("guid", guid)
		}
	}

	return frag.Bytes(), nil
}
