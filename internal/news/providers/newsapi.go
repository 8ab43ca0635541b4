package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/lwp-live/internal/fetch"
	"github.com/i474232898/lwp-live/internal/news"
	"github.com/i474232898/lwp-live/internal/weather"
)

// NewsAPIProvider queries newsapi.org's everything endpoint by location topic.
type NewsAPIProvider struct {
	name     string
	apiKey   string
	endpoint string
	httpCfg  fetch.Config
	circuits *fetch.Breakers
}

func NewNewsAPIProvider(client *http.Client, apiKey string) *NewsAPIProvider {
	return &NewsAPIProvider{
		name:     "newsapi",
		apiKey:   apiKey,
		endpoint: "https://newsapi.org/v2/everything",
		httpCfg: fetch.Config{
			Client:       client,
			Backoff:      fetch.SingleAttempt,
			MaxBodyBytes: 4 << 20,
		},
		circuits: fetch.NewBreakers("newsapi"),
	}
}

// WithEndpoint points the provider at another endpoint (tests, proxies).
func (p *NewsAPIProvider) WithEndpoint(u string) *NewsAPIProvider {
	p.endpoint = u
	return p
}

func (p *NewsAPIProvider) Name() string {
	return p.name
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"articles"`
}

func (p *NewsAPIProvider) Headlines(ctx context.Context, loc weather.Location) ([]news.Headline, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("newsapi api key is not configured")
	}

	params := url.Values{}
	params.Add("q", fmt.Sprintf(`"%s"`, loc.HeadlineTopic()))
	params.Add("sortBy", "publishedAt")
	params.Add("pageSize", fmt.Sprintf("%d", news.MaxHeadlines))

	header := http.Header{}
	header.Set("X-Api-Key", p.apiKey)

	reqURL := fmt.Sprintf("%s?%s", p.endpoint, params.Encode())
	body, err := fetch.ReadAll(ctx, p.httpCfg, p.circuits.For(loc.Key()), fetch.GetRequest(reqURL, header))
	if err != nil {
		return nil, err
	}

	var result newsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s", result.Message)
	}

	out := make([]news.Headline, 0, len(result.Articles))
	for _, a := range result.Articles {
		out = append(out, news.Headline{Title: a.Title, Link: a.URL})
	}
	return out, nil
}
