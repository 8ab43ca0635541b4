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

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name     string
	apiKey   string
	baseURL  string
	httpCfg  fetch.Config
	circuits *fetch.Breakers
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		httpCfg: fetch.Config{
			Client:       client,
			Backoff:      fetch.SingleAttempt,
			MaxBodyBytes: 1 << 20,
		},
		circuits: fetch.NewBreakers("weatherapi"),
	}
}

// WithBaseURL points the provider at another endpoint (tests, proxies).
func (p *WeatherAPIProvider) WithBaseURL(u string) *WeatherAPIProvider {
	p.baseURL = u
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts a city name or "lat,lon".
	if loc.Lat != nil && loc.Lon != nil {
		values.Set("q", fmt.Sprintf("%f,%f", *loc.Lat, *loc.Lon))
	} else {
		values.Set("q", loc.Name)
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	body, err := fetch.ReadAll(ctx, p.httpCfg, p.circuits.For(loc.Key()), fetch.GetRequest(u, nil))
	if err != nil {
		return weather.Observation{}, err
	}

	var payload struct {
		Current *struct {
			LastUpdatedEpoch int64   `json:"last_updated_epoch"`
			TempC            float64 `json:"temp_c"`
			TempF            float64 `json:"temp_f"`
			IsDay            int     `json:"is_day"`
			Condition        struct {
				Code int `json:"code"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decode weatherapi response: %w", err)
	}
	if payload.Current == nil {
		return weather.Observation{}, fmt.Errorf("weatherapi response has no current conditions")
	}
	cur := payload.Current

	ts := time.Unix(cur.LastUpdatedEpoch, 0).UTC()
	if cur.LastUpdatedEpoch == 0 {
		ts = time.Now().UTC()
	}

	tempF := cur.TempF
	return weather.Observation{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: cur.TempC,
		TemperatureF: &tempF,
		Code:         cur.Condition.Code,
		IsDay:        cur.IsDay == 1,
	}, nil
}
