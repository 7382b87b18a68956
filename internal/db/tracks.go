package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrackRepository handles catalog track database operations.
type TrackRepository struct {
	pool *pgxpool.Pool
}

// Upsert creates or updates a track, keyed by its case-insensitive
// (artist, title) identity. The track's ID is preserved on conflict.
func (r *TrackRepository) Upsert(ctx context.Context, track *Track) error {
	query := `
		INSERT INTO tracks (id, title, artist_name, album_name, duration_ms, artwork_url, spotify_id, discogs_id, year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (lower(artist_name), lower(title)) DO UPDATE SET
			album_name = COALESCE(EXCLUDED.album_name, tracks.album_name),
			duration_ms = COALESCE(EXCLUDED.duration_ms, tracks.duration_ms),
			artwork_url = COALESCE(EXCLUDED.artwork_url, tracks.artwork_url)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		track.ID,
		track.Title,
		track.ArtistName,
		track.AlbumName,
		track.DurationMs,
		track.ArtworkURL,
		track.SpotifyID,
		track.DiscogsID,
		track.Year,
	).Scan(&track.ID, &track.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting track: %w", err)
	}
	return nil
}

// Get retrieves a track by ID.
func (r *TrackRepository) Get(ctx context.Context, id string) (*Track, error) {
	query := `
		SELECT id, title, artist_name, album_name, duration_ms, artwork_url,
		       spotify_id, discogs_id, year, created_at, enriched_at
		FROM tracks
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByIdentity retrieves a track by its case-insensitive artist+title pair.
func (r *TrackRepository) GetByIdentity(ctx context.Context, artistName, title string) (*Track, error) {
	query := `
		SELECT id, title, artist_name, album_name, duration_ms, artwork_url,
		       spotify_id, discogs_id, year, created_at, enriched_at
		FROM tracks
		WHERE lower(artist_name) = lower($1) AND lower(title) = lower($2)
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, artistName, title))
}

// ListUnenriched returns tracks that have never been enriched, oldest
// first, up to limit.
func (r *TrackRepository) ListUnenriched(ctx context.Context, limit int) ([]Track, error) {
	query := `
		SELECT id, title, artist_name, album_name, duration_ms, artwork_url,
		       spotify_id, discogs_id, year, created_at, enriched_at
		FROM tracks
		WHERE enriched_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying unenriched tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(
			&t.ID, &t.Title, &t.ArtistName, &t.AlbumName, &t.DurationMs, &t.ArtworkURL,
			&t.SpotifyID, &t.DiscogsID, &t.Year, &t.CreatedAt, &t.EnrichedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// UpdateEnrichment persists enrichment results and stamps enriched_at.
func (r *TrackRepository) UpdateEnrichment(ctx context.Context, track *Track) error {
	query := `
		UPDATE tracks SET
			duration_ms = COALESCE($2, duration_ms),
			artwork_url = COALESCE($3, artwork_url),
			spotify_id = COALESCE($4, spotify_id),
			discogs_id = COALESCE($5, discogs_id),
			year = COALESCE($6, year),
			enriched_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		track.ID,
		track.DurationMs,
		track.ArtworkURL,
		track.SpotifyID,
		track.DiscogsID,
		track.Year,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("updating track enrichment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TrackRepository) scanOne(row pgx.Row) (*Track, error) {
	var t Track
	err := row.Scan(
		&t.ID, &t.Title, &t.ArtistName, &t.AlbumName, &t.DurationMs, &t.ArtworkURL,
		&t.SpotifyID, &t.DiscogsID, &t.Year, &t.CreatedAt, &t.EnrichedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying track: %w", err)
	}
	return &t, nil
}
