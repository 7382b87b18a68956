package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListenRepository handles listen-event database operations.
type ListenRepository struct {
	pool *pgxpool.Pool
}

// ListenFilter narrows listen-event queries. All set fields are combined
// with AND. Start is inclusive, End is exclusive; callers translate
// calendar-day ranges into these bounds.
type ListenFilter struct {
	Search string // case-insensitive substring over title, artist, album
	Artist string // case-insensitive equality
	Album  string // case-insensitive equality
	Source string
	Loved  *bool
	Start  *time.Time
	End    *time.Time
}

// Totals holds whole-set aggregates for a filtered listen query.
type Totals struct {
	Total           int
	UniqueArtists   int
	UniqueAlbums    int
	DurationSeconds int64
}

const listenColumns = `
	l.id, l.played_at, l.track_id, l.artist_name, l.title, l.album_name,
	l.loved, l.source, l.created_at, t.duration_ms, t.artwork_url`

// whereClause renders the filter as a SQL fragment. Returns the fragment
// (starting with " WHERE" or empty) and its positional arguments.
func (f ListenFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf(
			"(l.title ILIKE %[1]s OR l.artist_name ILIKE %[1]s OR l.album_name ILIKE %[1]s)", p))
	}
	if f.Artist != "" {
		conds = append(conds, fmt.Sprintf("lower(l.artist_name) = lower(%s)", arg(f.Artist)))
	}
	if f.Album != "" {
		conds = append(conds, fmt.Sprintf("lower(l.album_name) = lower(%s)", arg(f.Album)))
	}
	if f.Source != "" {
		conds = append(conds, fmt.Sprintf("l.source = %s", arg(f.Source)))
	}
	if f.Loved != nil {
		conds = append(conds, fmt.Sprintf("l.loved = %s", arg(*f.Loved)))
	}
	if f.Start != nil {
		conds = append(conds, fmt.Sprintf("l.played_at >= %s", arg(*f.Start)))
	}
	if f.End != nil {
		conds = append(conds, fmt.Sprintf("l.played_at < %s", arg(*f.End)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List retrieves a page of listen events matching the filter, newest
// first. The ordering key is (played_at DESC, id DESC) so pages are
// deterministic regardless of insertion order.
func (r *ListenRepository) List(ctx context.Context, f ListenFilter, limit, offset int) ([]ListenEvent, error) {
	where, args := f.whereClause()
	query := fmt.Sprintf(`
		SELECT %s
		FROM listens l
		LEFT JOIN tracks t ON t.id = l.track_id
		%s
		ORDER BY l.played_at DESC, l.id DESC
		LIMIT $%d OFFSET $%d
	`, listenColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listens: %w", err)
	}
	defer rows.Close()

	return scanListens(rows)
}

// ListRange retrieves all listen events with played_at in [from, to),
// oldest first. Used for day-timeline bucketing.
func (r *ListenRepository) ListRange(ctx context.Context, from, to time.Time) ([]ListenEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM listens l
		LEFT JOIN tracks t ON t.id = l.track_id
		WHERE l.played_at >= $1 AND l.played_at < $2
		ORDER BY l.played_at ASC, l.id ASC
	`, listenColumns)

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying listen range: %w", err)
	}
	defer rows.Close()

	return scanListens(rows)
}

// Count returns the number of listen events matching the filter.
func (r *ListenRepository) Count(ctx context.Context, f ListenFilter) (int, error) {
	where, args := f.whereClause()
	query := "SELECT COUNT(*) FROM listens l" + where

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting listens: %w", err)
	}
	return count, nil
}

// Totals computes whole-set aggregates for the filter. Album uniqueness
// ignores events with no album name; events linked to tracks without a
// known duration contribute zero seconds but still count.
func (r *ListenRepository) Totals(ctx context.Context, f ListenFilter) (Totals, error) {
	where, args := f.whereClause()
	query := `
		SELECT
			COUNT(*),
			COUNT(DISTINCT lower(l.artist_name)),
			COUNT(DISTINCT lower(l.album_name)) FILTER (WHERE l.album_name <> ''),
			COALESCE(SUM(t.duration_ms), 0) / 1000
		FROM listens l
		LEFT JOIN tracks t ON t.id = l.track_id` + where

	var t Totals
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&t.Total, &t.UniqueArtists, &t.UniqueAlbums, &t.DurationSeconds)
	if err != nil {
		return Totals{}, fmt.Errorf("aggregating listens: %w", err)
	}
	return t, nil
}

// HourCounts returns per-hour-of-day event counts for the filter,
// computed in the given IANA timezone.
func (r *ListenRepository) HourCounts(ctx context.Context, f ListenFilter, tz string) ([24]int, error) {
	where, args := f.whereClause()
	query := fmt.Sprintf(`
		SELECT EXTRACT(HOUR FROM l.played_at AT TIME ZONE $%d)::int AS hour, COUNT(*)
		FROM listens l
		%s
		GROUP BY hour
	`, len(args)+1, where)
	args = append(args, tz)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return [24]int{}, fmt.Errorf("querying hour counts: %w", err)
	}
	defer rows.Close()

	var counts [24]int
	for rows.Next() {
		var hour, n int
		if err := rows.Scan(&hour, &n); err != nil {
			return [24]int{}, fmt.Errorf("scanning hour count: %w", err)
		}
		if hour >= 0 && hour < 24 {
			counts[hour] = n
		}
	}
	return counts, rows.Err()
}

// ToggleLoved flips the loved flag on a listen event in a single UPDATE
// so concurrent toggles never lose a write. Returns the new value, or
// ErrNotFound for an unknown id.
func (r *ListenRepository) ToggleLoved(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE listens SET loved = NOT loved WHERE id = $1 RETURNING loved`

	var loved bool
	err := r.pool.QueryRow(ctx, query, id).Scan(&loved)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggling loved: %w", err)
	}
	return loved, nil
}

// Get retrieves a single listen event by id.
func (r *ListenRepository) Get(ctx context.Context, id int64) (*ListenEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM listens l
		LEFT JOIN tracks t ON t.id = l.track_id
		WHERE l.id = $1
	`, listenColumns)

	var e ListenEvent
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.PlayedAt, &e.TrackID, &e.ArtistName, &e.Title, &e.AlbumName,
		&e.Loved, &e.Source, &e.CreatedAt, &e.DurationMs, &e.ArtworkURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying listen: %w", err)
	}
	return &e, nil
}

// InsertBatch appends listen events, skipping rows that collide with the
// (source, played_at, artist, title) dedup key. Returns the number of
// rows actually inserted.
func (r *ListenRepository) InsertBatch(ctx context.Context, events []ListenEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO listens (played_at, track_id, artist_name, title, album_name, loved, source)
		SELECT * FROM unnest($1::timestamptz[], $2::text[], $3::text[], $4::text[], $5::text[], $6::bool[], $7::text[])
		ON CONFLICT (source, played_at, artist_name, title) DO NOTHING
	`

	playedAts := make([]time.Time, len(events))
	trackIDs := make([]*string, len(events))
	artists := make([]string, len(events))
	titles := make([]string, len(events))
	albums := make([]string, len(events))
	loveds := make([]bool, len(events))
	sources := make([]string, len(events))

	for i, e := range events {
		playedAts[i] = e.PlayedAt
		trackIDs[i] = e.TrackID
		artists[i] = e.ArtistName
		titles[i] = e.Title
		albums[i] = e.AlbumName
		loveds[i] = e.Loved
		sources[i] = e.Source
	}

	tag, err := r.pool.Exec(ctx, query, playedAts, trackIDs, artists, titles, albums, loveds, sources)
	if err != nil {
		return 0, fmt.Errorf("batch inserting listens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// LatestPlayedAt returns the most recent played_at for a source, or nil
// when no events from that source exist yet.
func (r *ListenRepository) LatestPlayedAt(ctx context.Context, source string) (*time.Time, error) {
	query := `SELECT MAX(played_at) FROM listens WHERE source = $1`

	var latest *time.Time
	if err := r.pool.QueryRow(ctx, query, source).Scan(&latest); err != nil {
		return nil, fmt.Errorf("querying latest played_at: %w", err)
	}
	return latest, nil
}

// LinkTrack attaches a catalog track to every unmatched listen event
// with the same artist and title. Returns the number of linked rows.
func (r *ListenRepository) LinkTrack(ctx context.Context, trackID, artistName, title string) (int, error) {
	query := `
		UPDATE listens SET track_id = $1
		WHERE track_id IS NULL
		  AND lower(artist_name) = lower($2)
		  AND lower(title) = lower($3)
	`
	tag, err := r.pool.Exec(ctx, query, trackID, artistName, title)
	if err != nil {
		return 0, fmt.Errorf("linking listens to track: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// TrackFeatures aggregates per-track listening behavior for catalog
// tracks with at least minPlays plays. Hours are computed in the given
// IANA timezone. Used by the playlist generator.
func (r *ListenRepository) TrackFeatures(ctx context.Context, minPlays int, tz string) ([]TrackFeature, error) {
	query := `
		SELECT l.track_id, t.title, t.artist_name,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE l.loved),
		       AVG(EXTRACT(HOUR FROM l.played_at AT TIME ZONE $2)),
		       MAX(l.played_at)
		FROM listens l
		JOIN tracks t ON t.id = l.track_id
		GROUP BY l.track_id, t.title, t.artist_name
		HAVING COUNT(*) >= $1
	`
	rows, err := r.pool.Query(ctx, query, minPlays, tz)
	if err != nil {
		return nil, fmt.Errorf("querying track features: %w", err)
	}
	defer rows.Close()

	var features []TrackFeature
	for rows.Next() {
		var f TrackFeature
		if err := rows.Scan(
			&f.TrackID, &f.Title, &f.ArtistName,
			&f.PlayCount, &f.LovedCount, &f.MeanHour, &f.LastPlayedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning track feature: %w", err)
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// scanListens drains rows into listen events.
func scanListens(rows pgx.Rows) ([]ListenEvent, error) {
	var events []ListenEvent
	for rows.Next() {
		var e ListenEvent
		if err := rows.Scan(
			&e.ID, &e.PlayedAt, &e.TrackID, &e.ArtistName, &e.Title, &e.AlbumName,
			&e.Loved, &e.Source, &e.CreatedAt, &e.DurationMs, &e.ArtworkURL,
		); err != nil {
			return nil, fmt.Errorf("scanning listen: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
