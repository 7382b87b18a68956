package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ArtistRepository handles catalog artist database operations.
type ArtistRepository struct {
	pool *pgxpool.Pool
}

// Upsert creates or updates an artist, keyed by case-insensitive name.
func (r *ArtistRepository) Upsert(ctx context.Context, artist *Artist) error {
	query := `
		INSERT INTO artists (id, name, image_url, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (lower(name)) DO UPDATE SET
			image_url = COALESCE(EXCLUDED.image_url, artists.image_url)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, artist.ID, artist.Name, artist.ImageURL).
		Scan(&artist.ID, &artist.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting artist: %w", err)
	}
	return nil
}

// Get retrieves an artist by ID.
func (r *ArtistRepository) Get(ctx context.Context, id string) (*Artist, error) {
	query := `SELECT id, name, image_url, created_at FROM artists WHERE id = $1`

	var a Artist
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.ImageURL, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying artist: %w", err)
	}
	return &a, nil
}

// LinkTrack records a track/artist association.
func (r *ArtistRepository) LinkTrack(ctx context.Context, trackID, artistID string) error {
	query := `
		INSERT INTO track_artists (track_id, artist_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, trackID, artistID); err != nil {
		return fmt.Errorf("linking track to artist: %w", err)
	}
	return nil
}
