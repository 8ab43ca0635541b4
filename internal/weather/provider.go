package weather

import (
	"context"
	"time"
)

// Observation represents a single provider's normalized current conditions.
type Observation struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC float64
	// TemperatureF is filled by providers that report imperial values;
	// otherwise the service converts from Celsius.
	TemperatureF *float64

	Code  int
	IsDay bool
}

// Provider abstracts a current-conditions source (e.g. AccuWeather, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Observation, error)
}

// Store is the contract the in-memory store must satisfy for readings.
type Store interface {
	Save(key string, value Reading)
	Latest(key string) (Reading, time.Time, error)
}
