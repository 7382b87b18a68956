// Package ingest appends scrobble history to the listen store and keeps
// the catalog linked to it.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbenett/auralog/internal/db"
	"github.com/tbenett/auralog/internal/lastfm"
)

// SourceName tags listen events ingested by this service.
const SourceName = "lastfm"

// ScrobbleSource fetches playback history from an external service.
// Implemented by lastfm.Client.
type ScrobbleSource interface {
	RecentTracks(ctx context.Context, since time.Time) ([]lastfm.Scrobble, error)
}

// ListenStore is the append side of the listen store.
// Implemented by db.ListenRepository.
type ListenStore interface {
	InsertBatch(ctx context.Context, events []db.ListenEvent) (int, error)
	LatestPlayedAt(ctx context.Context, source string) (*time.Time, error)
	LinkTrack(ctx context.Context, trackID, artistName, title string) (int, error)
}

// TrackStore is the catalog write side used for matching.
// Implemented by db.TrackRepository.
type TrackStore interface {
	Upsert(ctx context.Context, track *db.Track) error
}

// ArtistStore maintains the artist catalog alongside track matching.
// Implemented by db.ArtistRepository.
type ArtistStore interface {
	Upsert(ctx context.Context, artist *db.Artist) error
	LinkTrack(ctx context.Context, trackID, artistID string) error
}

// CacheInvalidator lets ingestion flush aggregate caches after a
// non-empty batch. Implemented by history.Service.
type CacheInvalidator interface {
	InvalidateCache()
}

// Service pulls new scrobbles and appends them as listen events.
type Service struct {
	source  ScrobbleSource
	listens ListenStore
	tracks  TrackStore
	artists ArtistStore
	cache   CacheInvalidator
	log     zerolog.Logger
}

// New creates an ingestion service.
func New(source ScrobbleSource, listens ListenStore, tracks TrackStore, artists ArtistStore, cache CacheInvalidator, log zerolog.Logger) *Service {
	return &Service{
		source:  source,
		listens: listens,
		tracks:  tracks,
		artists: artists,
		cache:   cache,
		log:     log,
	}
}

// SyncResult describes one sync run.
type SyncResult struct {
	Fetched  int       `json:"fetched"`
	Inserted int       `json:"inserted"`
	SyncedAt time.Time `json:"synced_at"`
}

// Sync fetches scrobbles newer than the latest stored event and appends
// them. Re-running is safe: the store's dedup key drops duplicates.
// Each distinct artist+title pair is upserted into the catalog and the
// new events arrive already linked.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	latest, err := s.listens.LatestPlayedAt(ctx, SourceName)
	if err != nil {
		return nil, fmt.Errorf("getting latest played_at: %w", err)
	}

	var since time.Time
	if latest != nil {
		since = *latest
	}

	scrobbles, err := s.source.RecentTracks(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetching scrobbles: %w", err)
	}

	result := &SyncResult{Fetched: len(scrobbles), SyncedAt: time.Now()}
	if len(scrobbles) == 0 {
		return result, nil
	}

	trackIDs, err := s.matchCatalog(ctx, scrobbles)
	if err != nil {
		return nil, err
	}

	events := make([]db.ListenEvent, len(scrobbles))
	for i, sc := range scrobbles {
		var trackID *string
		if id, ok := trackIDs[identityKey(sc.Artist, sc.Title)]; ok {
			trackID = &id
		}
		events[i] = db.ListenEvent{
			PlayedAt:   sc.PlayedAt,
			TrackID:    trackID,
			ArtistName: sc.Artist,
			Title:      sc.Title,
			AlbumName:  sc.Album,
			Source:     SourceName,
		}
	}

	inserted, err := s.listens.InsertBatch(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("inserting listens: %w", err)
	}
	result.Inserted = inserted

	if inserted > 0 && s.cache != nil {
		s.cache.InvalidateCache()
	}

	s.log.Info().Int("fetched", result.Fetched).Int("inserted", inserted).Msg("scrobble sync complete")
	return result, nil
}

// matchCatalog upserts a catalog row per distinct artist+title pair and
// relinks any previously unmatched listens with the same identity.
// Returns catalog ids keyed by identity.
func (s *Service) matchCatalog(ctx context.Context, scrobbles []lastfm.Scrobble) (map[string]string, error) {
	ids := make(map[string]string)
	artistIDs := make(map[string]string)
	for _, sc := range scrobbles {
		key := identityKey(sc.Artist, sc.Title)
		if _, seen := ids[key]; seen {
			continue
		}

		track := db.Track{
			ID:         uuid.NewString(),
			Title:      sc.Title,
			ArtistName: sc.Artist,
		}
		if sc.Album != "" {
			album := sc.Album
			track.AlbumName = &album
		}
		if err := s.tracks.Upsert(ctx, &track); err != nil {
			return nil, fmt.Errorf("upserting track %q: %w", sc.Title, err)
		}
		ids[key] = track.ID

		if _, err := s.listens.LinkTrack(ctx, track.ID, sc.Artist, sc.Title); err != nil {
			return nil, fmt.Errorf("linking listens: %w", err)
		}

		artistID, ok := artistIDs[strings.ToLower(sc.Artist)]
		if !ok {
			artist := db.Artist{ID: uuid.NewString(), Name: sc.Artist}
			if err := s.artists.Upsert(ctx, &artist); err != nil {
				return nil, fmt.Errorf("upserting artist %q: %w", sc.Artist, err)
			}
			artistID = artist.ID
			artistIDs[strings.ToLower(sc.Artist)] = artistID
		}
		if err := s.artists.LinkTrack(ctx, track.ID, artistID); err != nil {
			return nil, fmt.Errorf("linking track to artist: %w", err)
		}
	}
	return ids, nil
}

func identityKey(artist, title string) string {
	return strings.ToLower(artist) + "\x00" + strings.ToLower(title)
}
