package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/safezip/zip-safety-lookup/internal/api/http"
	"github.com/safezip/zip-safety-lookup/internal/config"
	"github.com/safezip/zip-safety-lookup/internal/crime"
	"github.com/safezip/zip-safety-lookup/internal/crime/providers"
	"github.com/safezip/zip-safety-lookup/internal/events"
	"github.com/safezip/zip-safety-lookup/internal/geo"
	"github.com/safezip/zip-safety-lookup/internal/history"
	"github.com/safezip/zip-safety-lookup/internal/mapview"
	"github.com/safezip/zip-safety-lookup/internal/observability"
	"github.com/safezip/zip-safety-lookup/internal/safety"
	"github.com/safezip/zip-safety-lookup/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound geocoder and provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	metrics := observability.NewMetrics()

	// Geocoder with an LRU cache in front; ZIP locations never change.
	var geocoder geo.Geocoder
	switch cfg.Geocoder {
	case config.GeocoderGoogle:
		geocoder = geo.NewGoogleClient(cfg.GoogleAPIKey)
	default:
		geocoder = geo.NewZippopotamClient(httpClient)
	}
	geocoder = geo.NewCachedGeocoder(geocoder, cfg.GeocodeCache)

	// Crime data provider variant, selected by configuration.
	var provider crime.Provider
	switch cfg.CrimeProvider {
	case config.ProviderProxy:
		provider = providers.NewProxy(httpClient, cfg.ProxyURL)
	case config.ProviderDirect:
		provider = providers.NewDirect(httpClient, cfg.CrimeAPIURL, cfg.CrimeAPIKey)
	default:
		provider = providers.NewMock(clockwork.NewRealClock(), cfg.MockLatency)
	}
	log.Printf("using crime provider %q and geocoder %q", provider.Name(), cfg.Geocoder)

	// Persisted search history and the marker registry behind the map feed.
	hist := history.NewStore(cfg.HistoryFile)
	markers := mapview.NewRegistry()

	// Optional Kafka search-event publishing.
	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.Printf("publishing search events to %v topic %q", cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	// The session owns all displayed state.
	session := safety.NewSession(geocoder, provider, hist, markers, publisher, metrics)

	// Scheduler that periodically refreshes displayed results.
	sched := scheduler.New(session, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "zip-safety-lookup",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "zip-safety-lookup",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Session:  session,
		History:  hist,
		Markers:  markers,
		Provider: provider,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

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
