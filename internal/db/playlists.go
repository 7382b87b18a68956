package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles playlist database operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new playlist with its ordered tracks.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *Playlist, trackIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if playlist.ID == uuid.Nil {
		playlist.ID = uuid.New()
	}

	playlistQuery := `
		INSERT INTO playlists (id, name, generated, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, playlistQuery, playlist.ID, playlist.Name, playlist.Generated).
		Scan(&playlist.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}

	if len(trackIDs) > 0 {
		tracksQuery := `
			INSERT INTO playlist_tracks (playlist_id, track_id, position)
			SELECT $1, id, ord
			FROM unnest($2::text[]) WITH ORDINALITY AS u(id, ord)
		`
		if _, err := tx.Exec(ctx, tracksQuery, playlist.ID, trackIDs); err != nil {
			return fmt.Errorf("inserting playlist tracks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a playlist by ID.
func (r *PlaylistRepository) Get(ctx context.Context, id uuid.UUID) (*Playlist, error) {
	query := `SELECT id, name, generated, created_at FROM playlists WHERE id = $1`

	var p Playlist
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Generated, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist: %w", err)
	}
	return &p, nil
}

// ListAll retrieves all playlists, newest first.
func (r *PlaylistRepository) ListAll(ctx context.Context) ([]Playlist, error) {
	query := `SELECT id, name, generated, created_at FROM playlists ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Generated, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// GetTracks retrieves a playlist's tracks in position order.
func (r *PlaylistRepository) GetTracks(ctx context.Context, playlistID uuid.UUID) ([]Track, error) {
	query := `
		SELECT t.id, t.title, t.artist_name, t.album_name, t.duration_ms, t.artwork_url,
		       t.spotify_id, t.discogs_id, t.year, t.created_at, t.enriched_at
		FROM tracks t
		JOIN playlist_tracks pt ON t.id = pt.track_id
		WHERE pt.playlist_id = $1
		ORDER BY pt.position ASC
	`
	rows, err := r.pool.Query(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("querying playlist tracks: %w", err)
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

// DeleteGenerated removes all generator-produced playlists, keeping
// hand-made ones. Used before regeneration.
func (r *PlaylistRepository) DeleteGenerated(ctx context.Context) error {
	query := `DELETE FROM playlists WHERE generated`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("deleting generated playlists: %w", err)
	}
	return nil
}

// Delete removes a playlist by ID.
func (r *PlaylistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM playlists WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting playlist: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
