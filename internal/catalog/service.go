// Package catalog coordinates read-only catalog lookups and metadata
// enrichment from Spotify and Discogs.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tbenett/auralog/internal/db"
	"github.com/tbenett/auralog/internal/discogs"
	"github.com/tbenett/auralog/internal/spotify"
)

// TrackStore is the catalog persistence the service reads and writes.
// Implemented by db.TrackRepository.
type TrackStore interface {
	Get(ctx context.Context, id string) (*db.Track, error)
	GetByIdentity(ctx context.Context, artistName, title string) (*db.Track, error)
	ListUnenriched(ctx context.Context, limit int) ([]db.Track, error)
	UpdateEnrichment(ctx context.Context, track *db.Track) error
}

// ArtistStore is the artist catalog read side.
// Implemented by db.ArtistRepository.
type ArtistStore interface {
	Get(ctx context.Context, id string) (*db.Artist, error)
}

// TrackSearcher finds catalog metadata by artist + title.
// Implemented by spotify.Client.
type TrackSearcher interface {
	SearchTrack(ctx context.Context, artist, title string) (*spotify.TrackMatch, error)
}

// ReleaseSearcher finds release metadata by artist + album.
// Implemented by discogs.Client.
type ReleaseSearcher interface {
	SearchRelease(ctx context.Context, artist, album string) (*discogs.Release, error)
}

// Service enriches catalog tracks and serves lookups. Either searcher
// may be nil when its credentials are not configured; enrichment then
// runs in degraded mode with whatever collaborators remain.
type Service struct {
	store   TrackStore
	artists ArtistStore
	spotify TrackSearcher
	discogs ReleaseSearcher
	log     zerolog.Logger
}

// New creates a catalog service.
func New(store TrackStore, artists ArtistStore, sp TrackSearcher, dg ReleaseSearcher, log zerolog.Logger) *Service {
	return &Service{store: store, artists: artists, spotify: sp, discogs: dg, log: log}
}

// Lookup fetches a catalog track by id. Returns db.ErrNotFound on a
// miss; callers degrade to their denormalized fields.
func (s *Service) Lookup(ctx context.Context, id string) (*db.Track, error) {
	return s.store.Get(ctx, id)
}

// LookupByIdentity fetches a catalog track by its case-insensitive
// artist+title pair. Returns db.ErrNotFound on a miss.
func (s *Service) LookupByIdentity(ctx context.Context, artist, title string) (*db.Track, error) {
	return s.store.GetByIdentity(ctx, artist, title)
}

// LookupArtist fetches a catalog artist by id. Returns db.ErrNotFound
// on a miss.
func (s *Service) LookupArtist(ctx context.Context, id string) (*db.Artist, error) {
	return s.artists.Get(ctx, id)
}

// EnrichPending enriches up to limit tracks that have never been
// enriched: Spotify first for duration and artwork, then Discogs for
// the release year and whatever artwork Spotify left blank. Failures on
// individual tracks are logged and skipped; the batch keeps going.
// Returns the number of tracks that gained any metadata.
func (s *Service) EnrichPending(ctx context.Context, limit int) (int, error) {
	tracks, err := s.store.ListUnenriched(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("listing unenriched tracks: %w", err)
	}

	enriched := 0
	for i := range tracks {
		if ctx.Err() != nil {
			return enriched, ctx.Err()
		}

		track := &tracks[i]
		changed := s.enrichOne(ctx, track)

		// Stamp enriched_at regardless so misses are not retried on
		// every cycle.
		if err := s.store.UpdateEnrichment(ctx, track); err != nil {
			s.log.Error().Err(err).Str("track", track.Title).Msg("persisting enrichment failed")
			continue
		}
		if changed {
			enriched++
		}
	}
	return enriched, nil
}

// enrichOne fills in missing metadata for a single track. Reports
// whether anything was learned.
func (s *Service) enrichOne(ctx context.Context, track *db.Track) bool {
	changed := false

	if s.spotify != nil {
		match, err := s.spotify.SearchTrack(ctx, track.ArtistName, track.Title)
		switch {
		case errors.Is(err, spotify.ErrNoMatch):
			// Fine, try Discogs below.
		case err != nil:
			s.log.Warn().Err(err).Str("track", track.Title).Msg("spotify lookup failed")
		default:
			if track.DurationMs == nil && match.DurationMs > 0 {
				track.DurationMs = &match.DurationMs
				changed = true
			}
			if track.ArtworkURL == nil && match.ArtworkURL != "" {
				track.ArtworkURL = &match.ArtworkURL
				changed = true
			}
			if track.AlbumName == nil && match.AlbumName != "" {
				track.AlbumName = &match.AlbumName
				changed = true
			}
			if track.SpotifyID == nil {
				track.SpotifyID = &match.SpotifyID
				changed = true
			}
		}
	}

	if s.discogs != nil && track.AlbumName != nil && (track.Year == nil || track.ArtworkURL == nil) {
		release, err := s.discogs.SearchRelease(ctx, track.ArtistName, *track.AlbumName)
		switch {
		case errors.Is(err, discogs.ErrNoMatch):
		case err != nil:
			s.log.Warn().Err(err).Str("track", track.Title).Msg("discogs lookup failed")
		default:
			if track.Year == nil && release.Year > 0 {
				track.Year = &release.Year
				changed = true
			}
			if track.ArtworkURL == nil && release.CoverImage != "" {
				track.ArtworkURL = &release.CoverImage
				changed = true
			}
			if track.DiscogsID == nil {
				track.DiscogsID = &release.DiscogsID
				changed = true
			}
		}
	}

	return changed
}
