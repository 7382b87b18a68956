package db

import (
	"time"

	"github.com/google/uuid"
)

// ListenEvent is one playback occurrence from a scrobble source.
// The artist/title/album strings are captured at ingestion time and kept
// even when TrackID later links the event to a catalog row, so history
// stays displayable if catalog matching fails or is corrected.
type ListenEvent struct {
	ID         int64
	PlayedAt   time.Time
	TrackID    *string // nullable - catalog link when matched
	ArtistName string
	Title      string
	AlbumName  string
	Loved      bool
	Source     string
	CreatedAt  time.Time

	// Joined catalog fields, nil when the event is unmatched or the
	// catalog row has not been enriched yet.
	DurationMs *int
	ArtworkURL *string
}

// Track represents a catalog track.
type Track struct {
	ID         string
	Title      string
	ArtistName string
	AlbumName  *string // nullable
	DurationMs *int    // nullable
	ArtworkURL *string // nullable
	SpotifyID  *string // nullable
	DiscogsID  *int    // nullable - Discogs release id
	Year       *int    // nullable
	CreatedAt  time.Time
	EnrichedAt *time.Time // nullable - last successful enrichment
}

// Artist represents a catalog artist.
type Artist struct {
	ID        string
	Name      string
	ImageURL  *string // nullable
	CreatedAt time.Time
}

// TrackFeature is per-track listening behavior aggregated from the
// listen history, consumed by the playlist generator.
type TrackFeature struct {
	TrackID      string
	Title        string
	ArtistName   string
	PlayCount    int
	LovedCount   int
	MeanHour     float64
	LastPlayedAt time.Time
}

// Playlist is an ordered set of catalog tracks, either hand-made or
// produced by the generator.
type Playlist struct {
	ID        uuid.UUID
	Name      string
	Generated bool
	CreatedAt time.Time
}

// PlaylistTrack is a track's position within a playlist.
type PlaylistTrack struct {
	PlaylistID uuid.UUID
	TrackID    string
	Position   int
}
