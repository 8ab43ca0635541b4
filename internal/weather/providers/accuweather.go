package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/lwp-live/internal/fetch"
	"github.com/i474232898/lwp-live/internal/weather"
)

// AccuWeatherProvider implements the weather.Provider interface for the
// AccuWeather current conditions API.
type AccuWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	httpCfg  fetch.Config
	circuits *fetch.Breakers
}

func NewAccuWeatherProvider(client *http.Client, apiKey string) *AccuWeatherProvider {
	return &AccuWeatherProvider{
		name:    "accuweather",
		apiKey:  apiKey,
		baseURL: "http://api.accuweather.com/currentconditions/v1",
		httpCfg: fetch.Config{
			Client:       client,
			Backoff:      fetch.SingleAttempt,
			MaxBodyBytes: 1 << 20,
		},
		circuits: fetch.NewBreakers("accuweather"),
	}
}

// WithBaseURL points the provider at another endpoint (tests, proxies).
func (p *AccuWeatherProvider) WithBaseURL(u string) *AccuWeatherProvider {
	p.baseURL = u
	return p
}

func (p *AccuWeatherProvider) Name() string {
	return p.name
}

func (p *AccuWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("accuweather api key is not configured")
	}
	if loc.ProviderKey == "" {
		return weather.Observation{}, fmt.Errorf("accuweather requires a location key for %s", loc.Key())
	}

	values := url.Values{}
	values.Set("apikey", p.apiKey)
	u := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(loc.ProviderKey), values.Encode())

	body, err := fetch.ReadAll(ctx, p.httpCfg, p.circuits.For(loc.Key()), fetch.GetRequest(u, nil))
	if err != nil {
		return weather.Observation{}, err
	}

	var payload []struct {
		EpochTime   int64 `json:"EpochTime"`
		WeatherIcon int   `json:"WeatherIcon"`
		IsDayTime   bool  `json:"IsDayTime"`
		Temperature struct {
			Metric struct {
				Value *float64 `json:"Value"`
			} `json:"Metric"`
			Imperial struct {
				Value *float64 `json:"Value"`
			} `json:"Imperial"`
		} `json:"Temperature"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decode accuweather response: %w", err)
	}
	if len(payload) == 0 {
		return weather.Observation{}, fmt.Errorf("accuweather returned no observations")
	}
	cur := payload[0]
	if cur.Temperature.Metric.Value == nil {
		return weather.Observation{}, fmt.Errorf("accuweather observation has no metric temperature")
	}

	ts := time.Unix(cur.EpochTime, 0).UTC()
	if cur.EpochTime == 0 {
		ts = time.Now().UTC()
	}

	return weather.Observation{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: *cur.Temperature.Metric.Value,
		TemperatureF: cur.Temperature.Imperial.Value,
		Code:         cur.WeatherIcon,
		IsDay:        cur.IsDayTime,
	}, nil
}
