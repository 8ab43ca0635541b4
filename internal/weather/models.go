package weather

import (
	"math"
	"strconv"
	"time"
)

// Location describes one city of the live feed. It is loaded once at startup
// and never modified while serving.
type Location struct {
	// ID matches the city marker inside the feed template (e.g. JAXX0085).
	ID string `yaml:"id" json:"id" validate:"required"`
	// Name is the display name, also used for headline lookups.
	Name string `yaml:"name" json:"name" validate:"required"`
	// ProviderKey is the weather vendor's location key (AccuWeather city id).
	ProviderKey string `yaml:"provider_key" json:"providerKey"`
	// Topic is the headline provider topic; Name is used when empty.
	Topic string `yaml:"topic" json:"topic"`
	// File is the camera snapshot filename referenced by the template.
	File string `yaml:"file" json:"file" validate:"required"`

	CameraURL      string `yaml:"camera_url" json:"cameraUrl" validate:"omitempty,url"`
	CameraFallback string `yaml:"camera_fallback" json:"cameraFallback"`

	Lat *float64 `yaml:"lat" json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon *float64 `yaml:"lon" json:"lon,omitempty" validate:"omitempty,longitude"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.ID
}

// HeadlineTopic returns the topic used to query headline providers.
func (l Location) HeadlineTopic() string {
	if l.Topic != "" {
		return l.Topic
	}
	return l.Name
}

// Temperature is a whole-degree reading that may be missing.
type Temperature struct {
	Value int
	Valid bool
}

// Degrees returns a valid temperature rounded half up from v.
func Degrees(v float64) Temperature {
	return Temperature{Value: int(math.Floor(v + 0.5)), Valid: true}
}

// String renders the value, or "--" when the reading is unavailable.
func (t Temperature) String() string {
	if !t.Valid {
		return "--"
	}
	return strconv.Itoa(t.Value)
}

// Origin records where a Reading came from.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginCached   Origin = "cached"
	OriginStale    Origin = "stale"
	OriginFallback Origin = "fallback"
)

// Reading is the per-location weather value handed to the feed engine.
// It always carries something usable: missing fields keep their fallback.
type Reading struct {
	Celsius    Temperature `json:"celsius"`
	Fahrenheit Temperature `json:"fahrenheit"`

	// Code is the provider condition code; CodeUnknown when unavailable.
	Code  int  `json:"code"`
	IsDay bool `json:"isDay"`

	Timestamp time.Time `json:"timestamp"` // always UTC
	Origin    Origin    `json:"origin"`
}

// CodeUnknown marks a reading without a provider condition code.
const CodeUnknown = -1

// FallbackReading is the neutral value used when no live or last-known reading exists.
func FallbackReading() Reading {
	return Reading{
		Code:      CodeUnknown,
		IsDay:     true,
		Timestamp: time.Now().UTC(),
		Origin:    OriginFallback,
	}
}
