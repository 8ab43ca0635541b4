package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/lwp-live/internal/fetch"
	"github.com/i474232898/lwp-live/internal/news"
	"github.com/i474232898/lwp-live/internal/weather"
)

// Some feed hosts reject Go's default user agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// RSSProvider reads headlines from an RSS or Atom feed per location. The URL
// template may contain {topic} and {name}, which are path-escaped.
type RSSProvider struct {
	name        string
	urlTemplate string
	httpCfg     fetch.Config
	circuits    *fetch.Breakers
}

func NewRSSProvider(client *http.Client, urlTemplate string) *RSSProvider {
	return &RSSProvider{
		name:        "rss",
		urlTemplate: urlTemplate,
		httpCfg: fetch.Config{
			Client:       client,
			Backoff:      fetch.SingleAttempt,
			MaxBodyBytes: 4 << 20,
		},
		circuits: fetch.NewBreakers("rss"),
	}
}

func (p *RSSProvider) Name() string {
	return p.name
}

// FeedURL expands the URL template for loc.
func (p *RSSProvider) FeedURL(loc weather.Location) string {
	r := strings.NewReplacer(
		"{topic}", url.PathEscape(loc.HeadlineTopic()),
		"{name}", url.PathEscape(loc.Name),
	)
	return r.Replace(p.urlTemplate)
}

func (p *RSSProvider) Headlines(ctx context.Context, loc weather.Location) ([]news.Headline, error) {
	if p.urlTemplate == "" {
		return nil, fmt.Errorf("rss url template is not configured")
	}

	header := http.Header{}
	header.Set("User-Agent", browserUserAgent)
	header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	body, err := fetch.ReadAll(ctx, p.httpCfg, p.circuits.For(loc.Key()), fetch.GetRequest(p.FeedURL(loc), header))
	if err != nil {
		return nil, err
	}
	return parseFeed(body)
}
