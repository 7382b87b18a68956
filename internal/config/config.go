// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
var ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")

// Config holds all service configuration. Third-party credentials are
// optional; a blank value disables that collaborator.
type Config struct {
	Addr        string
	DatabaseURL string

	SpotifyID     string
	SpotifySecret string
	DiscogsToken  string

	Timezone        string
	CacheTTL        time.Duration
	TimelineHourCap int
	MaxPageSize     int
	SyncInterval    time.Duration

	Debug bool
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getenv("ADDR", "127.0.0.1:8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SpotifyID:     os.Getenv("SPOTIFY_ID"),
		SpotifySecret: os.Getenv("SPOTIFY_SECRET"),
		DiscogsToken:  os.Getenv("DISCOGS_TOKEN"),
		Timezone:      getenv("TIMEZONE", "UTC"),
		Debug:         os.Getenv("DEBUG") != "",
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = getDuration("SYNC_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TimelineHourCap, err = getInt("TIMELINE_HOUR_CAP", 20); err != nil {
		return nil, err
	}
	if cfg.MaxPageSize, err = getInt("MAX_PAGE_SIZE", 200); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured timezone. The zone name is also
// handed to Postgres for hour bucketing, so it must be a real IANA
// name; Go's "Local" alias is rejected because Postgres does not
// recognize it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "Local" {
		return nil, fmt.Errorf("timezone %q is not an IANA zone name; set TIMEZONE to one (e.g. Europe/Amsterdam or UTC)", c.Timezone)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}
