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

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	httpCfg  fetch.Config
	circuits *fetch.Breakers
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: fetch.Config{
			Client:       client,
			Backoff:      fetch.SingleAttempt,
			MaxBodyBytes: 1 << 20,
		},
		circuits: fetch.NewBreakers("openmeteo"),
	}
}

// WithBaseURL points the provider at another endpoint (tests, proxies).
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = u
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	if loc.Lat == nil || loc.Lon == nil {
		return weather.Observation{}, fmt.Errorf("openmeteo requires latitude and longitude")
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", *loc.Lat))
	values.Set("longitude", fmt.Sprintf("%f", *loc.Lon))
	values.Set("current_weather", "true")
	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	body, err := fetch.ReadAll(ctx, p.httpCfg, p.circuits.For(loc.Key()), fetch.GetRequest(u, nil))
	if err != nil {
		return weather.Observation{}, err
	}

	var payload struct {
		CurrentWeather *struct {
			Temperature float64 `json:"temperature"`
			Time        string  `json:"time"`
			WeatherCode int     `json:"weathercode"`
			IsDay       int     `json:"is_day"`
		} `json:"current_weather"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decode openmeteo response: %w", err)
	}
	if payload.CurrentWeather == nil {
		return weather.Observation{}, fmt.Errorf("openmeteo response has no current_weather")
	}
	cur := payload.CurrentWeather

	// Open-Meteo reports local ISO8601 without seconds or zone.
	ts, err := time.Parse("2006-01-02T15:04", cur.Time)
	if err != nil {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	return weather.Observation{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: cur.Temperature,
		Code:         cur.WeatherCode,
		IsDay:        cur.IsDay == 1,
	}, nil
}
