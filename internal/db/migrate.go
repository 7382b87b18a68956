package db

import (
	"context"
	"fmt"
)

// migrations are applied in order at startup. Each statement is
// idempotent so reapplying the full set on every boot is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		image_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_artists_name ON artists (lower(name))`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist_name TEXT NOT NULL,
		album_name TEXT,
		duration_ms INT,
		artwork_url TEXT,
		spotify_id TEXT,
		discogs_id INT,
		year INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		enriched_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_identity
		ON tracks (lower(artist_name), lower(title))`,
	`CREATE TABLE IF NOT EXISTS track_artists (
		track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
		artist_id TEXT NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
		PRIMARY KEY (track_id, artist_id)
	)`,
	`CREATE TABLE IF NOT EXISTS listens (
		id BIGSERIAL PRIMARY KEY,
		played_at TIMESTAMPTZ NOT NULL,
		track_id TEXT REFERENCES tracks(id),
		artist_name TEXT NOT NULL,
		title TEXT NOT NULL,
		album_name TEXT NOT NULL DEFAULT '',
		loved BOOLEAN NOT NULL DEFAULT FALSE,
		source TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (source, played_at, artist_name, title)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listens_played_at ON listens (played_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_listens_loved ON listens (loved) WHERE loved`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		generated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id UUID NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
		position INT NOT NULL,
		PRIMARY KEY (playlist_id, track_id)
	)`,
}

// migrate applies the schema to the connected database.
func (db *DB) migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
