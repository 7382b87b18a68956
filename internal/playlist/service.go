package playlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbenett/auralog/internal/db"
	"github.com/tbenett/auralog/internal/export"
)

// MinPlaysForGeneration filters one-off listens out of the generator's
// input so clusters reflect actual habits.
const MinPlaysForGeneration = 2

// Store is the playlist persistence. Implemented by db.PlaylistRepository.
type Store interface {
	Create(ctx context.Context, playlist *db.Playlist, trackIDs []string) error
	Get(ctx context.Context, id uuid.UUID) (*db.Playlist, error)
	ListAll(ctx context.Context) ([]db.Playlist, error)
	GetTracks(ctx context.Context, playlistID uuid.UUID) ([]db.Track, error)
	DeleteGenerated(ctx context.Context) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FeatureStore provides per-track listening aggregates.
// Implemented by db.ListenRepository.
type FeatureStore interface {
	TrackFeatures(ctx context.Context, minPlays int, tz string) ([]db.TrackFeature, error)
}

// Service manages playlists: listing, export projection and generation.
type Service struct {
	store    Store
	features FeatureStore
	cfg      GeneratorConfig
	location *time.Location
	log      zerolog.Logger
}

// New creates a playlist service.
func New(store Store, features FeatureStore, cfg GeneratorConfig, loc *time.Location, log zerolog.Logger) *Service {
	// UTC rather than time.Local: the location's name is sent to
	// Postgres for mean-hour bucketing and "Local" is not a valid
	// zone there.
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		features: features,
		cfg:      cfg,
		location: loc,
		log:      log,
	}
}

// List returns all playlists, newest first.
func (s *Service) List(ctx context.Context) ([]db.Playlist, error) {
	return s.store.ListAll(ctx)
}

// Get returns a playlist with its ordered tracks. Returns
// db.ErrNotFound for an unknown id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*db.Playlist, []db.Track, error) {
	playlist, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	tracks, err := s.store.GetTracks(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting playlist tracks: %w", err)
	}
	return playlist, tracks, nil
}

// Delete removes a playlist, hand-made or generated. Returns
// db.ErrNotFound for an unknown id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// Export renders a playlist in the requested format. The entry order is
// the playlist's position order for every format.
func (s *Service) Export(ctx context.Context, id uuid.UUID, format export.Format) ([]byte, error) {
	_, tracks, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	entries := make([]export.Entry, len(tracks))
	for i, t := range tracks {
		entry := export.Entry{
			Position: i + 1,
			Title:    t.Title,
			Artist:   t.ArtistName,
		}
		if t.AlbumName != nil {
			entry.Album = *t.AlbumName
		}
		if t.DurationMs != nil {
			entry.DurationSeconds = *t.DurationMs / 1000
		}
		entries[i] = entry
	}

	return export.Render(entries, format)
}

// Generate clusters listening behavior into playlists, replacing any
// previously generated ones. Hand-made playlists are untouched.
func (s *Service) Generate(ctx context.Context) ([]db.Playlist, error) {
	features, err := s.features.TrackFeatures(ctx, MinPlaysForGeneration, s.location.String())
	if err != nil {
		return nil, fmt.Errorf("loading track features: %w", err)
	}

	profiles := make([]TrackProfile, len(features))
	for i, f := range features {
		lovedShare := 0.0
		if f.PlayCount > 0 {
			lovedShare = float64(f.LovedCount) / float64(f.PlayCount)
		}
		profiles[i] = TrackProfile{
			TrackID:      f.TrackID,
			Title:        f.Title,
			Artist:       f.ArtistName,
			PlayCount:    f.PlayCount,
			LovedShare:   lovedShare,
			MeanHour:     f.MeanHour,
			LastPlayedAt: f.LastPlayedAt,
		}
	}

	groups, outliers := GroupListening(profiles, s.cfg, time.Now())
	if len(outliers) > 0 {
		s.log.Debug().Int("outliers", len(outliers)).Msg("tracks skipped by generator")
	}

	if err := s.store.DeleteGenerated(ctx); err != nil {
		return nil, fmt.Errorf("clearing generated playlists: %w", err)
	}

	var created []db.Playlist
	for _, g := range groups {
		trackIDs := make([]string, len(g.Tracks))
		for i, t := range g.Tracks {
			trackIDs[i] = t.TrackID
		}

		playlist := db.Playlist{Name: g.Name, Generated: true}
		if err := s.store.Create(ctx, &playlist, trackIDs); err != nil {
			return nil, fmt.Errorf("creating playlist %q: %w", g.Name, err)
		}
		created = append(created, playlist)
	}

	s.log.Info().Int("playlists", len(created)).Int("tracks", len(profiles)).Msg("playlist generation complete")
	return created, nil
}
