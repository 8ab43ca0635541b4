package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOCATIONS_FILE", "")
	t.Setenv("CACHE_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.ChannelDir != "channel_dir" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Locations) != 5 || cfg.Locations[0].ID != "JAXX0085" {
		t.Fatalf("expected built-in city table, got %+v", cfg.Locations)
	}
	if cfg.CameraTimeout != 10*time.Second || cfg.CloudTimeout != 15*time.Second {
		t.Fatalf("unexpected relay timeouts %s %s", cfg.CameraTimeout, cfg.CloudTimeout)
	}
	if cfg.TLSEnabled() {
		t.Fatalf("tls must be off without cert and key")
	}
	if cfg.CloudFallback() != filepath.Join("channel_dir", "FLWP00001", "cloud.jpg") {
		t.Fatalf("unexpected cloud fallback %q", cfg.CloudFallback())
	}
}

func TestLoadLocationsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.yaml")
	body := `locations:
  - id: FRXX0076
    name: Paris
    provider_key: "623"
    file: paris.jpg
    camera_url: http://145.238.185.10/jpg/1/image.jpg
    lat: 48.85
    lon: 2.35
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOCATIONS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Locations) != 1 {
		t.Fatalf("expected one location, got %d", len(cfg.Locations))
	}
	loc := cfg.Locations[0]
	if loc.ProviderKey != "623" || loc.Lat == nil || *loc.Lat != 48.85 {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestLoadOpenWeatherProvider(t *testing.T) {
	t.Setenv("LOCATIONS_FILE", "")
	t.Setenv("WEATHER_PROVIDER", "openweather")
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WeatherProvider != "openweather" || cfg.OpenWeatherAPIKey != "ow-key" {
		t.Fatalf("unexpected provider settings %q %q", cfg.WeatherProvider, cfg.OpenWeatherAPIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad duration":   {"WEATHER_TIMEOUT", "soon"},
		"cache too long": {"CACHE_TTL", "1h"},
		"bad provider":   {"WEATHER_PROVIDER", "yahoo"},
		"missing file":   {"LOCATIONS_FILE", "/nonexistent/locations.yaml"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestValidateLocations(t *testing.T) {
	locs := DefaultLocations()
	locs = append(locs, locs[0])
	if err := validateLocations(locs); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	locs = DefaultLocations()
	locs[1].File = ""
	if err := validateLocations(locs); err == nil {
		t.Fatalf("expected missing file error")
	}
}
