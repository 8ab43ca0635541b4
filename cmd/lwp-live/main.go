package main

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/lwp-live/internal/api/http"
	"github.com/i474232898/lwp-live/internal/config"
	"github.com/i474232898/lwp-live/internal/feed"
	"github.com/i474232898/lwp-live/internal/metrics"
	"github.com/i474232898/lwp-live/internal/news"
	newsproviders "github.com/i474232898/lwp-live/internal/news/providers"
	"github.com/i474232898/lwp-live/internal/relay"
	"github.com/i474232898/lwp-live/internal/scheduler"
	"github.com/i474232898/lwp-live/internal/store"
	"github.com/i474232898/lwp-live/internal/weather"
	"github.com/i474232898/lwp-live/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls; each call also carries its own deadline.
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	m := metrics.New()
	locations := cfg.Locations

	// One weather provider per deployment.
	var weatherProvider weather.Provider
	switch cfg.WeatherProvider {
	case "openmeteo":
		// Open-Meteo does not require an API key, but geocoding requires a Google API key.
		if cfg.GeocoderAPIKey != "" {
			locations = providers.ResolveCoordinates(locations, providers.GoogleGeocoder(cfg.GeocoderAPIKey))
		}
		weatherProvider = providers.NewOpenMeteoProvider(httpClient)
	case "weatherapi":
		weatherProvider = providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey)
	case "openweather":
		weatherProvider = providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)
	default:
		weatherProvider = providers.NewAccuWeatherProvider(httpClient, cfg.AccuWeatherAPIKey)
	}

	var headlineProvider news.Provider
	switch cfg.HeadlineProvider {
	case "newsapi":
		headlineProvider = newsproviders.NewNewsAPIProvider(httpClient, cfg.NewsAPIKey)
	default:
		headlineProvider = newsproviders.NewRSSProvider(httpClient, cfg.RSSURLTemplate)
	}

	// Last-known values survive a day so an upstream outage degrades to stale data.
	weatherService := weather.NewService(
		store.NewMemoryStore[weather.Reading](24*time.Hour),
		weatherProvider,
		weather.Options{Timeout: cfg.WeatherTimeout, CacheTTL: cfg.CacheTTL, Metrics: m},
	)
	newsService := news.NewService(
		store.NewMemoryStore[[]news.Headline](24*time.Hour),
		headlineProvider,
		news.Options{
			Timeout:   cfg.HeadlineTimeout,
			CacheTTL:  cfg.CacheTTL,
			Separator: cfg.HeadlineSeparator,
			Metrics:   m,
		},
	)

	engine := feed.NewEngine(
		feed.DirTemplates(cfg.ChannelDir),
		weatherService,
		newsService,
		locations,
		[]feed.FeedSpec{feed.CityFeed, feed.CloudFeed},
		feed.Options{
			Concurrency: cfg.FetchConcurrency,
			Icons:       weather.IconTableFor(cfg.WeatherProvider),
			Metrics:     m,
		},
	)

	sources := relay.CameraSources(locations, cfg.CameraTimeout)
	sources = append(sources, relay.Source{
		ID:       relay.CloudID,
		URL:      cfg.CloudURL,
		Fallback: cfg.CloudFallback(),
		Output:   relay.CloudOutput,
		Timeout:  cfg.CloudTimeout,
	})
	images := relay.New(httpClient, sources, m)

	// Optional cache warmer.
	if cfg.WarmInterval > 0 {
		sched := scheduler.New(locations, cfg.WarmInterval, cfg.WeatherTimeout+cfg.HeadlineTimeout, map[string]scheduler.Refresher{
			"weather": weatherService,
			"news":    newsService,
		})
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "lwp-live",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Feeds:      engine,
		Images:     images,
		ChannelDir: cfg.ChannelDir,
		WebsiteDir: cfg.WebsiteDir,
		PluginDir:  cfg.PluginDir,
		SessionID:  cfg.SessionID,
		Metrics:    m.Handler(),
	})

	// Start server with graceful shutdown
	go func() {
		if err := listen(app, cfg); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: lwp-live listening on :%s (tls=%v, %d locations, weather=%s, headlines=%s)",
		cfg.Port, cfg.TLSEnabled(), len(locations), cfg.WeatherProvider, cfg.HeadlineProvider)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func listen(app *fiber.App, cfg *config.AppConfig) error {
	addr := ":" + cfg.Port
	if !cfg.TLSEnabled() {
		return app.Listen(addr)
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	// The console only negotiates TLS 1.0 to 1.2 and RSA key exchange.
	return app.Listener(tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS10,
		MaxVersion:   tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
			tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
			tls.TLS_RSA_WITH_AES_128_CBC_SHA,
			tls.TLS_RSA_WITH_AES_256_CBC_SHA,
		},
	}))
}
