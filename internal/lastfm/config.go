// Package lastfm provides the Last.fm scrobble-history client.
package lastfm

import (
	"errors"
	"os"
)

// Config errors.
var (
	// ErrMissingAPIKey is returned when LASTFM_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing LASTFM_API_KEY environment variable")

	// ErrMissingUser is returned when LASTFM_USER is not set.
	ErrMissingUser = errors.New("missing LASTFM_USER environment variable")
)

// Config holds Last.fm API configuration.
type Config struct {
	APIKey string
	User   string
}

// LoadConfig reads Last.fm configuration from environment variables.
func LoadConfig() (*Config, error) {
	apiKey := os.Getenv("LASTFM_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	user := os.Getenv("LASTFM_USER")
	if user == "" {
		return nil, ErrMissingUser
	}
	return &Config{APIKey: apiKey, User: user}, nil
}
