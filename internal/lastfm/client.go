package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	baseURL   = "http://ws.audioscrobbler.com/2.0/"
	userAgent = "auralog/1.0"

	// pageSize is the per-request track limit (Last.fm maximum is 200).
	pageSize = 200
)

// Last.fm API error codes.
const (
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// Client is a Last.fm API client with rate-limit retries.
type Client struct {
	apiKey     string
	user       string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Last.fm API client from the provided configuration.
func NewClient(cfg *Config) *Client {
	return &Client{
		apiKey: cfg.APIKey,
		user:   cfg.User,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// RecentTracks fetches all scrobbles for the configured user played
// after `since` (pass the zero time for the full history), oldest
// first. The now-playing entry has no timestamp and is skipped.
func (c *Client) RecentTracks(ctx context.Context, since time.Time) ([]Scrobble, error) {
	var scrobbles []Scrobble

	for page := 1; ; page++ {
		tracks, totalPages, err := c.recentTracksPage(ctx, since, page)
		if err != nil {
			return nil, err
		}
		scrobbles = append(scrobbles, tracks...)
		if page >= totalPages {
			break
		}
	}

	// Last.fm returns newest first; callers want ingest order.
	for i, j := 0, len(scrobbles)-1; i < j; i, j = i+1, j-1 {
		scrobbles[i], scrobbles[j] = scrobbles[j], scrobbles[i]
	}
	return scrobbles, nil
}

// recentTracksPage fetches one page of user.getRecentTracks.
func (c *Client) recentTracksPage(ctx context.Context, since time.Time, page int) ([]Scrobble, int, error) {
	params := url.Values{
		"method":  {"user.getrecenttracks"},
		"user":    {c.user},
		"limit":   {strconv.Itoa(pageSize)},
		"page":    {strconv.Itoa(page)},
		"format":  {"json"},
		"api_key": {c.apiKey},
	}
	if !since.IsZero() {
		// `from` is exclusive on the Last.fm side.
		params.Set("from", strconv.FormatInt(since.Unix(), 10))
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching recent tracks: %w", err)
	}

	var resp recentTracksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("parsing recent tracks response: %w", err)
	}

	totalPages, err := strconv.Atoi(resp.RecentTracks.Attr.TotalPages)
	if err != nil || totalPages < 1 {
		totalPages = 1
	}

	var scrobbles []Scrobble
	for _, t := range resp.RecentTracks.Track {
		if t.Date == nil {
			// Now-playing entry, not a completed scrobble.
			continue
		}
		uts, err := strconv.ParseInt(t.Date.UTS, 10, 64)
		if err != nil {
			continue
		}
		scrobbles = append(scrobbles, Scrobble{
			Artist:   t.Artist.Text,
			Title:    t.Name,
			Album:    t.Album.Text,
			PlayedAt: time.Unix(uts, 0).UTC(),
		})
	}
	return scrobbles, totalPages, nil
}

// doRequest performs an HTTP GET request with retry on rate limit.
// Retries up to 3 times with exponential backoff (1s, 2s, 4s).
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	delays := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	var lastErr error

	for attempt := 0; attempt <= len(delays); attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		// Non-retryable error
		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Check for API error in response
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
		}
	}

	return body, nil
}
