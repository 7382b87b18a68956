package discogs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/database/search", r.URL.Path)
		assert.Equal(t, "Nina Simone", r.URL.Query().Get("artist"))
		assert.Equal(t, "Pastel Blues", r.URL.Query().Get("release_title"))
		assert.Equal(t, "release", r.URL.Query().Get("type"))
		assert.Equal(t, "Discogs token=secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": 12345, "year": "1965", "cover_image": "https://img.discogs.com/x.jpg"},
			},
		})
	}))
	defer server.Close()

	client := NewClient("secret")
	client.SetBaseURL(server.URL)

	release, err := client.SearchRelease(context.Background(), "Nina Simone", "Pastel Blues")
	require.NoError(t, err)
	assert.Equal(t, 12345, release.DiscogsID)
	assert.Equal(t, 1965, release.Year)
	assert.Equal(t, "https://img.discogs.com/x.jpg", release.CoverImage)
}

func TestSearchReleaseNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer server.Close()

	client := NewClient("")
	client.SetBaseURL(server.URL)

	_, err := client.SearchRelease(context.Background(), "Nobody", "Nothing")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestSearchReleaseUnparseableYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": 7, "year": "", "cover_image": ""},
			},
		})
	}))
	defer server.Close()

	client := NewClient("")
	client.SetBaseURL(server.URL)

	release, err := client.SearchRelease(context.Background(), "A", "B")
	require.NoError(t, err)
	assert.Zero(t, release.Year)
	assert.Equal(t, 7, release.DiscogsID)
}

func TestSearchReleaseServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("")
	client.SetBaseURL(server.URL)

	_, err := client.SearchRelease(context.Background(), "A", "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discogs search failed")
}
