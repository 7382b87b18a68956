// Package spotify provides a wrapper around the Spotify Web API used
// for catalog metadata enrichment.
package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNoMatch is returned when a search yields no usable result.
var ErrNoMatch = errors.New("no matching track")

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a Spotify client using the client-credentials flow; no
// user authorization is involved, only public catalog lookups.
func New(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting client-credentials token: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &Client{api: spotify.New(httpClient)}, nil
}

// NewFromAPI wraps an already-configured API client. Used in tests.
func NewFromAPI(api *spotify.Client) *Client {
	return &Client{api: api}
}

// TrackMatch is the catalog data a successful search yields.
type TrackMatch struct {
	SpotifyID  string
	DurationMs int
	AlbumName  string
	ArtworkURL string
}

// SearchTrack finds the best Spotify match for an artist + title pair.
// Returns ErrNoMatch when the search comes back empty.
func (c *Client) SearchTrack(ctx context.Context, artist, title string) (*TrackMatch, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	results, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("searching track: %w", err)
	}

	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, ErrNoMatch
	}

	t := results.Tracks.Tracks[0]
	match := &TrackMatch{
		SpotifyID:  t.ID.String(),
		DurationMs: int(t.Duration),
		AlbumName:  t.Album.Name,
	}
	if len(t.Album.Images) > 0 {
		match.ArtworkURL = t.Album.Images[0].URL
	}
	return match, nil
}
