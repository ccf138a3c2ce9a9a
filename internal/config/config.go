package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Fetch window and location.
	City         string
	Latitude     float64
	Longitude    float64
	PastDays     int
	ForecastDays int
	Timezone     string
	Location     *time.Location

	OpenMeteoURL string
	FetchTimeout time.Duration

	// Interchange file between the fetch and upsert stages.
	RawCSVPath string

	// Postgres connection.
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string
	PGSSLMode  string

	// Scheduled runs.
	ScheduleEnabled bool
	FetchInterval   time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	// Best effort; a missing .env is the normal case outside local dev.
	_ = godotenv.Load()

	lat, err := envFloat("LATITUDE", 52.52)
	if err != nil {
		return nil, err
	}
	lon, err := envFloat("LONGITUDE", 13.41)
	if err != nil {
		return nil, err
	}
	pastDays, err := envInt("PAST_DAYS", 7)
	if err != nil {
		return nil, err
	}
	forecastDays, err := envInt("FORECAST_DAYS", 1)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := envDuration("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	fetchInterval, err := envDuration("FETCH_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		City:         envOrDefault("CITY", "Berlin"),
		Latitude:     lat,
		Longitude:    lon,
		PastDays:     pastDays,
		ForecastDays: forecastDays,
		Timezone:     envOrDefault("TIMEZONE", "Europe/Berlin"),

		OpenMeteoURL: envOrDefault("OPEN_METEO_URL", "https://api.open-meteo.com/v1/forecast"),
		FetchTimeout: fetchTimeout,

		RawCSVPath: envOrDefault("RAW_CSV_PATH", "data/raw/berlin_weather.csv"),

		PGHost:     envOrDefault("PGHOST", "localhost"),
		PGPort:     envOrDefault("PGPORT", "5433"),
		PGUser:     envOrDefault("PGUSER", "shady"),
		PGPassword: envOrDefault("PGPASSWORD", "shady"),
		PGDatabase: envOrDefault("PGDATABASE", "berlin_bi"),
		PGSSLMode:  envOrDefault("PGSSLMODE", "disable"),

		ScheduleEnabled: envOrDefault("SCHEDULE_ENABLED", "true") == "true",
		FetchInterval:   fetchInterval,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func (c *Config) validate() error {
	if c.City == "" {
		return errors.New("CITY is required")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("LATITUDE out of range: %v", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("LONGITUDE out of range: %v", c.Longitude)
	}
	if c.PastDays < 0 {
		return fmt.Errorf("PAST_DAYS must not be negative: %d", c.PastDays)
	}
	if c.ForecastDays < 1 {
		return fmt.Errorf("FORECAST_DAYS must be at least 1: %d", c.ForecastDays)
	}
	if c.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}
	if c.ScheduleEnabled && c.FetchInterval <= 0 {
		return errors.New("FETCH_INTERVAL must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.RawCSVPath == "" {
		return errors.New("RAW_CSV_PATH is required")
	}
	return nil
}

// PostgresDSN renders the connection string for lib/pq.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.PGUser), url.QueryEscape(c.PGPassword),
		c.PGHost, c.PGPort, c.PGDatabase, c.PGSSLMode)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
