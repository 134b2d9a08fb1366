package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider and geocoder selection values.
const (
	ProviderMock   = "mock"
	ProviderProxy  = "proxy"
	ProviderDirect = "direct"

	GeocoderZippopotam = "zippopotam"
	GeocoderGoogle     = "google"
)

type AppConfig struct {
	// CrimeProvider selects the crime data source: mock, proxy, or direct.
	CrimeProvider string

	// ProxyURL is the same-origin crime endpoint for the proxy provider.
	ProxyURL string

	// CrimeAPIURL and CrimeAPIKey configure the direct provider. The key
	// stays server-side and is never echoed to clients.
	CrimeAPIURL string
	CrimeAPIKey string

	// MockLatency is the simulated network delay of the mock provider.
	MockLatency time.Duration

	// Geocoder selects the ZIP resolver: zippopotam or google.
	Geocoder     string
	GoogleAPIKey string
	GeocodeCache int

	// HistoryFile is the persisted search history location.
	HistoryFile string

	// RefreshInterval controls periodic refresh of displayed results.
	// Zero disables the scheduler.
	RefreshInterval time.Duration

	// Kafka search-event publishing; disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string

	HTTPTimeout time.Duration
	Port        string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.CrimeProvider = getenvDefault("CRIME_PROVIDER", ProviderMock)
	switch cfg.CrimeProvider {
	case ProviderMock, ProviderProxy, ProviderDirect:
	default:
		return nil, fmt.Errorf("invalid CRIME_PROVIDER %q: want mock, proxy, or direct", cfg.CrimeProvider)
	}

	cfg.ProxyURL = getenvDefault("CRIME_PROXY_URL", "http://localhost:8788/api/crime")
	cfg.CrimeAPIURL = os.Getenv("CRIME_API_URL")
	cfg.CrimeAPIKey = os.Getenv("CRIME_API_KEY")

	if cfg.CrimeProvider == ProviderDirect && cfg.CrimeAPIURL == "" {
		return nil, fmt.Errorf("CRIME_API_URL is required for the direct provider")
	}

	latencyStr := getenvDefault("MOCK_LATENCY", "450ms")
	latency, err := time.ParseDuration(latencyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MOCK_LATENCY: %w", err)
	}
	cfg.MockLatency = latency

	cfg.Geocoder = getenvDefault("GEOCODER", GeocoderZippopotam)
	switch cfg.Geocoder {
	case GeocoderZippopotam, GeocoderGoogle:
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q: want zippopotam or google", cfg.Geocoder)
	}
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	if cfg.Geocoder == GeocoderGoogle && cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required for the google geocoder")
	}
	cfg.GeocodeCache = getenvInt("GEOCODE_CACHE_SIZE", 512)

	cfg.HistoryFile = getenvDefault("HISTORY_FILE", "zip-history.json")

	refreshStr := getenvDefault("REFRESH_INTERVAL", "15m")
	refresh, err := time.ParseDuration(refreshStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = refresh

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaTopic = getenvDefault("KAFKA_TOPIC", "zip-safety-searches")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
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
