// Package discogs provides a minimal Discogs API client used for
// release-year and cover-art enrichment.
package discogs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.discogs.com"
	userAgent      = "auralog/1.0"
)

// ErrNoMatch is returned when a search yields no release.
var ErrNoMatch = errors.New("no matching release")

// Client talks to the Discogs database search API.
type Client struct {
	http *resty.Client
}

// NewClient creates a Discogs client. The token is optional; without it
// Discogs applies a much lower rate limit.
func NewClient(token string) *Client {
	c := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("User-Agent", userAgent).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second)
	if token != "" {
		c.SetHeader("Authorization", "Discogs token="+token)
	}
	return &Client{http: c}
}

// SetBaseURL overrides the API endpoint. Used in tests.
func (c *Client) SetBaseURL(u string) {
	c.http.SetBaseURL(u)
}

// Release is the enrichment data a successful search yields.
type Release struct {
	DiscogsID  int
	Year       int
	CoverImage string
}

type searchResponse struct {
	Results []struct {
		ID         int    `json:"id"`
		Year       string `json:"year"`
		CoverImage string `json:"cover_image"`
	} `json:"results"`
}

// SearchRelease finds the best release match for an artist + album pair.
// Returns ErrNoMatch when the search comes back empty.
func (c *Client) SearchRelease(ctx context.Context, artist, album string) (*Release, error) {
	var result searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"artist":        artist,
			"release_title": album,
			"type":          "release",
			"per_page":      "1",
		}).
		SetResult(&result).
		Get("/database/search")
	if err != nil {
		return nil, fmt.Errorf("searching release: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("discogs search failed: %s", resp.Status())
	}
	if len(result.Results) == 0 {
		return nil, ErrNoMatch
	}

	r := result.Results[0]
	release := &Release{
		DiscogsID:  r.ID,
		CoverImage: r.CoverImage,
	}
	if year, err := strconv.Atoi(r.Year); err == nil {
		release.Year = year
	}
	return release, nil
}
