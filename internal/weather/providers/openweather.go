package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/lwp-live/internal/fetch"
	"github.com/i474232898/lwp-live/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	httpCfg  fetch.Config
	circuits *fetch.Breakers
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweather",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: fetch.Config{
			Client:       client,
			Backoff:      fetch.SingleAttempt,
			MaxBodyBytes: 1 << 20,
		},
		circuits: fetch.NewBreakers("openweather"),
	}
}

// WithBaseURL points the provider at another endpoint (tests, proxies).
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = u
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	if loc.Lat != nil && loc.Lon != nil {
		values.Set("lat", fmt.Sprintf("%f", *loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", *loc.Lon))
	} else {
		values.Set("q", loc.Name)
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	body, err := fetch.ReadAll(ctx, p.httpCfg, p.circuits.For(loc.Key()), fetch.GetRequest(u, nil))
	if err != nil {
		return weather.Observation{}, err
	}

	var payload struct {
		Dt   int64 `json:"dt"`
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			ID   int    `json:"id"`
			Icon string `json:"icon"`
		} `json:"weather"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decode openweather response: %w", err)
	}
	if payload.Main == nil {
		return weather.Observation{}, fmt.Errorf("openweather response has no temperature")
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	obs := weather.Observation{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.Main.Temp,
		Code:         weather.CodeUnknown,
		IsDay:        true,
	}
	if len(payload.Weather) > 0 {
		obs.Code = payload.Weather[0].ID
		// Icons end in "d" by day and "n" by night, e.g. "01n".
		obs.IsDay = !strings.HasSuffix(payload.Weather[0].Icon, "n")
	}
	return obs, nil
}
