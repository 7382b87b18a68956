package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbenett/auralog/internal/db"
	"github.com/tbenett/auralog/internal/lastfm"
)

type fakeSource struct {
	scrobbles []lastfm.Scrobble
	gotSince  time.Time
}

func (f *fakeSource) RecentTracks(_ context.Context, since time.Time) ([]lastfm.Scrobble, error) {
	f.gotSince = since
	return f.scrobbles, nil
}

type fakeListenStore struct {
	latest   *time.Time
	inserted []db.ListenEvent
	linked   []string
}

func (f *fakeListenStore) InsertBatch(_ context.Context, events []db.ListenEvent) (int, error) {
	f.inserted = append(f.inserted, events...)
	return len(events), nil
}

func (f *fakeListenStore) LatestPlayedAt(_ context.Context, source string) (*time.Time, error) {
	return f.latest, nil
}

func (f *fakeListenStore) LinkTrack(_ context.Context, trackID, artistName, title string) (int, error) {
	f.linked = append(f.linked, artistName+" - "+title)
	return 0, nil
}

type fakeTrackStore struct {
	upserts []db.Track
}

func (f *fakeTrackStore) Upsert(_ context.Context, track *db.Track) error {
	f.upserts = append(f.upserts, *track)
	return nil
}

type fakeArtistStore struct {
	upserts []db.Artist
	links   int
}

func (f *fakeArtistStore) Upsert(_ context.Context, artist *db.Artist) error {
	f.upserts = append(f.upserts, *artist)
	return nil
}

func (f *fakeArtistStore) LinkTrack(_ context.Context, trackID, artistID string) error {
	f.links++
	return nil
}

type fakeInvalidator struct {
	flushes int
}

func (f *fakeInvalidator) InvalidateCache() { f.flushes++ }

func scrobble(artist, title, album string, playedAt time.Time) lastfm.Scrobble {
	return lastfm.Scrobble{Artist: artist, Title: title, Album: album, PlayedAt: playedAt}
}

func TestSync(t *testing.T) {
	now := time.Date(2026, 1, 30, 14, 0, 0, 0, time.UTC)
	source := &fakeSource{scrobbles: []lastfm.Scrobble{
		scrobble("Nina Simone", "Feeling Good", "I Put a Spell on You", now.Add(-2*time.Hour)),
		scrobble("Nina Simone", "Feeling Good", "I Put a Spell on You", now.Add(-time.Hour)),
		scrobble("Radiohead", "Nude", "In Rainbows", now),
	}}
	listens := &fakeListenStore{}
	tracks := &fakeTrackStore{}
	artists := &fakeArtistStore{}
	cache := &fakeInvalidator{}

	svc := New(source, listens, tracks, artists, cache, zerolog.Nop())
	result, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 3, result.Inserted)

	// One catalog upsert per distinct artist+title pair
	assert.Len(t, tracks.upserts, 2)
	assert.Len(t, listens.linked, 2)

	// One artist row per distinct artist, linked to each of its tracks
	assert.Len(t, artists.upserts, 2)
	assert.Equal(t, 2, artists.links)

	// Every event arrives linked and tagged with the source
	require.Len(t, listens.inserted, 3)
	for _, e := range listens.inserted {
		assert.Equal(t, SourceName, e.Source)
		assert.NotNil(t, e.TrackID)
	}
	assert.Equal(t, "Feeling Good", listens.inserted[0].Title)
	assert.Equal(t, "I Put a Spell on You", listens.inserted[0].AlbumName)

	assert.Equal(t, 1, cache.flushes, "non-empty batch flushes the aggregate cache")
}

func TestSyncResumesFromLatest(t *testing.T) {
	latest := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{}
	svc := New(source, &fakeListenStore{latest: &latest}, &fakeTrackStore{}, &fakeArtistStore{}, &fakeInvalidator{}, zerolog.Nop())

	_, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, latest, source.gotSince)
}

func TestSyncEmpty(t *testing.T) {
	cache := &fakeInvalidator{}
	svc := New(&fakeSource{}, &fakeListenStore{}, &fakeTrackStore{}, &fakeArtistStore{}, cache, zerolog.Nop())

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Fetched)
	assert.Zero(t, result.Inserted)
	assert.Zero(t, cache.flushes, "empty batch leaves the cache alone")
}
