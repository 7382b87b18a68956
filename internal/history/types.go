// Package history implements the listening-history query engine:
// paginated journal listing, per-day hour timelines, rolling statistics
// and the loved toggle.
package history

import (
	"fmt"
	"time"

	"github.com/tbenett/auralog/internal/db"
)

// ValidationError reports user-correctable input (bad dates, bad page
// numbers, unknown filter values). The HTTP layer maps it to a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TrackIdentity is what the journal knows about the track behind a
// listen event. Resolved events carry a catalog reference plus whatever
// the catalog has (duration, artwork); unresolved events fall back to
// the strings captured at ingestion. Rendering handles both variants.
type TrackIdentity struct {
	TrackID         *string `json:"track_id,omitempty"`
	Artist          string  `json:"artist"`
	Title           string  `json:"title"`
	Album           string  `json:"album,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	ArtworkURL      *string `json:"artwork_url,omitempty"`
}

// Resolved reports whether the event is linked to a catalog track.
func (t TrackIdentity) Resolved() bool {
	return t.TrackID != nil
}

// Entry is a single journal item.
type Entry struct {
	ID       int64         `json:"id"`
	PlayedAt time.Time     `json:"played_at"`
	Track    TrackIdentity `json:"track"`
	Loved    bool          `json:"loved"`
	Source   string        `json:"source"`
}

// Filter narrows journal queries. Dates are calendar days in the
// service's configured location, inclusive on both ends.
type Filter struct {
	Search    string
	Artist    string
	Album     string
	Source    string
	Loved     *bool
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
}

// Page is one page of journal entries plus pagination metadata. Total
// and Pages always describe the full filtered set, even when the
// requested page is past the end.
type Page struct {
	Items    []Entry `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Pages    int     `json:"pages"`
}

// HourBucket holds one hour's events in chronological order. Entries is
// capped at the configured display limit; Total is the true count so
// callers can render an overflow indicator.
type HourBucket struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// TimelineStats summarizes a single day.
type TimelineStats struct {
	TotalTracks   int  `json:"total_tracks"`
	UniqueArtists int  `json:"unique_artists"`
	UniqueAlbums  int  `json:"unique_albums"`
	PeakHour      *int `json:"peak_hour"` // nil on a day with no events
}

// Timeline is a day's listening bucketed by hour. All 24 buckets are
// present even when empty.
type Timeline struct {
	Date  string             `json:"date"`
	Hours map[int]HourBucket `json:"hours"`
	Stats TimelineStats      `json:"stats"`
}

// Stats aggregates listening over an optional date range. Events whose
// track has no known duration contribute zero seconds but still count
// toward the other totals.
type Stats struct {
	TotalTracks          int   `json:"total_tracks"`
	UniqueArtists        int   `json:"unique_artists"`
	UniqueAlbums         int   `json:"unique_albums"`
	PeakHour             *int  `json:"peak_hour"`
	TotalDurationSeconds int64 `json:"total_duration_seconds"`
}

// entryFromEvent renders a stored listen event, preferring catalog data
// when the event is resolved and denormalized strings otherwise.
func entryFromEvent(e db.ListenEvent) Entry {
	track := TrackIdentity{
		TrackID:    e.TrackID,
		Artist:     e.ArtistName,
		Title:      e.Title,
		Album:      e.AlbumName,
		ArtworkURL: e.ArtworkURL,
	}
	if track.Resolved() && e.DurationMs != nil {
		secs := *e.DurationMs / 1000
		track.DurationSeconds = &secs
	}
	return Entry{
		ID:       e.ID,
		PlayedAt: e.PlayedAt,
		Track:    track,
		Loved:    e.Loved,
		Source:   e.Source,
	}
}
