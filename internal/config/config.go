package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/lwp-live/internal/weather"
)

type AppConfig struct {
	Port string
	// TLS is enabled when both files are set.
	TLSCertFile string
	TLSKeyFile  string

	ChannelDir string
	WebsiteDir string
	PluginDir  string

	Locations []weather.Location

	WeatherProvider   string `validate:"oneof=accuweather openmeteo weatherapi openweather"`
	AccuWeatherAPIKey string
	WeatherAPIKey     string
	OpenWeatherAPIKey string
	GeocoderAPIKey    string

	HeadlineProvider  string `validate:"oneof=rss newsapi"`
	RSSURLTemplate    string
	NewsAPIKey        string
	HeadlineSeparator string

	WeatherTimeout  time.Duration `validate:"gt=0"`
	HeadlineTimeout time.Duration `validate:"gt=0"`
	CameraTimeout   time.Duration `validate:"gt=0"`
	CloudTimeout    time.Duration `validate:"gt=0"`
	CloudURL        string        `validate:"omitempty,url"`

	// FetchConcurrency bounds per-location fetches within one feed request.
	FetchConcurrency int `validate:"gte=1"`
	// CacheTTL is how long live data is reused across requests; it must not
	// outlive the 15 minute poll interval the feed announces.
	CacheTTL time.Duration `validate:"gte=0,lte=15m"`
	// WarmInterval drives the background cache warmer; zero disables it.
	WarmInterval time.Duration `validate:"gte=0"`

	// SessionID is echoed by the canned session endpoints.
	SessionID string `validate:"required"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = os.Getenv("TLS_KEY_FILE")

	cfg.ChannelDir = getenvDefault("CHANNEL_DIR", "channel_dir")
	cfg.WebsiteDir = getenvDefault("WEBSITE_DIR", "websites")
	cfg.PluginDir = getenvDefault("PLUGIN_DIR", "plugins")

	cfg.WeatherProvider = getenvDefault("WEATHER_PROVIDER", "accuweather")
	cfg.AccuWeatherAPIKey = os.Getenv("ACCUWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.HeadlineProvider = getenvDefault("HEADLINE_PROVIDER", "rss")
	cfg.RSSURLTemplate = getenvDefault("RSS_URL_TEMPLATE", "http://localhost:1200/apnews/topics/{name}")
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_API_KEY")
	cfg.HeadlineSeparator = os.Getenv("HEADLINE_SEPARATOR")

	cfg.CloudURL = getenvDefault("CLOUD_URL", "https://clouds.matteason.co.uk/images/2048x1024/clouds.jpg")
	cfg.FetchConcurrency = getenvInt("FETCH_CONCURRENCY", 4)
	cfg.SessionID = getenvDefault("SESSION_ID", "ff80c0a6fc0307efe")

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"WEATHER_TIMEOUT", "5s", &cfg.WeatherTimeout},
		{"HEADLINE_TIMEOUT", "5s", &cfg.HeadlineTimeout},
		{"CAMERA_TIMEOUT", "10s", &cfg.CameraTimeout},
		{"CLOUD_TIMEOUT", "15s", &cfg.CloudTimeout},
		{"CACHE_TTL", "5m", &cfg.CacheTTL},
		{"WARM_INTERVAL", "0", &cfg.WarmInterval},
	}
	for _, d := range durations {
		v, err := getenvDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	locs, err := loadLocations(os.Getenv("LOCATIONS_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the location table.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return validateLocations(c.Locations)
}

// TLSEnabled reports whether both certificate and key are configured.
func (c *AppConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// CloudFallback is the local overlay served when the remote one is down.
func (c *AppConfig) CloudFallback() string {
	return filepath.Join(c.ChannelDir, "FLWP00001", "cloud.jpg")
}

type locationFile struct {
	Locations []weather.Location `yaml:"locations"`
}

// loadLocations reads the location table from path, or returns the
// built-in table when path is empty.
func loadLocations(path string) ([]weather.Location, error) {
	if path == "" {
		return DefaultLocations(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}
	var f locationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse locations file: %w", err)
	}
	if len(f.Locations) == 0 {
		return nil, fmt.Errorf("locations file %s lists no locations", path)
	}
	return f.Locations, nil
}

func validateLocations(locs []weather.Location) error {
	seen := make(map[string]bool, len(locs))
	for i, loc := range locs {
		if err := validate.Struct(loc); err != nil {
			return fmt.Errorf("location %d (%s): %w", i, loc.ID, err)
		}
		if seen[loc.ID] {
			return fmt.Errorf("duplicate location id %s", loc.ID)
		}
		seen[loc.ID] = true
	}
	return nil
}

// DefaultLocations is the city table the stock channel template ships with.
func DefaultLocations() []weather.Location {
	return []weather.Location{
		{ID: "JAXX0085", Name: "Tokyo", ProviderKey: "226396", Topic: "tokyo", File: "tokyo.jpg",
			CameraURL: "http://182.171.234.126/SnapshotJPEG?Resolution=640x480"},
		{ID: "GMXX0007", Name: "Berlin", ProviderKey: "178087", Topic: "berlin", File: "berlin.jpg",
			CameraURL: "http://imgproxy.windy.com/_/preview/plain/current/1666966383/original.jpg"},
		{ID: "FRXX0076", Name: "Paris", ProviderKey: "623", Topic: "paris", File: "paris.jpg",
			CameraURL: "http://145.238.185.10/jpg/1/image.jpg"},
		{ID: "UKXX0085", Name: "London", ProviderKey: "328328", Topic: "london", File: "london.jpg",
			CameraURL: "http://imgproxy.windy.com/_/preview/plain/current/1508413562/original.jpg"},
		{ID: "INXX0038", Name: "new-delhi", ProviderKey: "202396", Topic: "india", File: "delhi.jpg",
			CameraURL: "http://61.246.194.45/cgi-bin/viewer/video.jpg"},
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
