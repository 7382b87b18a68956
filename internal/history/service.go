package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tbenett/auralog/internal/db"
)

const dateFormat = "2006-01-02"

// Store is the listen-event persistence the query engine reads from.
// Implemented by db.ListenRepository.
type Store interface {
	List(ctx context.Context, f db.ListenFilter, limit, offset int) ([]db.ListenEvent, error)
	Get(ctx context.Context, id int64) (*db.ListenEvent, error)
	Count(ctx context.Context, f db.ListenFilter) (int, error)
	ListRange(ctx context.Context, from, to time.Time) ([]db.ListenEvent, error)
	Totals(ctx context.Context, f db.ListenFilter) (db.Totals, error)
	HourCounts(ctx context.Context, f db.ListenFilter, tz string) ([24]int, error)
	ToggleLoved(ctx context.Context, id int64) (bool, error)
}

// Config holds query-engine tuning. The hour cap and cache TTL are
// deployment configuration, not constants; changing them takes effect
// on the next cache miss.
type Config struct {
	Location        *time.Location
	DefaultPageSize int
	MaxPageSize     int
	TimelineHourCap int
	CacheTTL        time.Duration
}

// Defaults applied by New for zero-valued config fields.
const (
	DefaultPageSize    = 50
	DefaultMaxPageSize = 200
	DefaultHourCap     = 20
	DefaultCacheTTL    = 30 * time.Second
)

// Service answers journal, timeline and stats queries over the listen
// store, caching aggregate results for the cache TTL.
type Service struct {
	store Store
	cfg   Config
	cache *Cache
}

// New creates a query-engine service.
func New(store Store, cfg Config) *Service {
	// UTC, not time.Local: the location's name is handed to Postgres
	// for hour bucketing and "Local" is not a zone Postgres knows.
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultMaxPageSize
	}
	if cfg.TimelineHourCap <= 0 {
		cfg.TimelineHourCap = DefaultHourCap
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		store: store,
		cfg:   cfg,
		cache: NewCache(cfg.CacheTTL),
	}
}

// ListHistory returns one page of the journal, newest first. A page
// past the end returns empty items with the real total and page count.
func (s *Service) ListHistory(ctx context.Context, filter Filter, page, pageSize int) (*Page, error) {
	if page < 1 {
		return nil, &ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	dbFilter, err := s.toListenFilter(filter)
	if err != nil {
		return nil, err
	}

	total, err := s.store.Count(ctx, dbFilter)
	if err != nil {
		return nil, fmt.Errorf("counting history: %w", err)
	}

	result := &Page{
		Items:    []Entry{},
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    (total + pageSize - 1) / pageSize,
	}

	offset := (page - 1) * pageSize
	if total == 0 || offset >= total {
		return result, nil
	}

	events, err := s.store.List(ctx, dbFilter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	for _, e := range events {
		result.Items = append(result.Items, entryFromEvent(e))
	}
	return result, nil
}

// GetEntry returns a single journal entry by id. Returns db.ErrNotFound
// for an unknown id.
func (s *Service) GetEntry(ctx context.Context, id int64) (*Entry, error) {
	event, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := entryFromEvent(*event)
	return &entry, nil
}

// GetTimeline buckets one calendar day's events into hours 0-23 in the
// configured location and computes day stats. Buckets are chronological
// and capped at the configured display limit; the true per-hour count
// is reported alongside.
func (s *Service) GetTimeline(ctx context.Context, date string) (*Timeline, error) {
	day, err := s.parseDate("date", date)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("timeline|%s|cap=%d", date, s.cfg.TimelineHourCap)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*Timeline), nil
	}

	events, err := s.store.ListRange(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("listing timeline events: %w", err)
	}

	timeline := &Timeline{
		Date:  date,
		Hours: make(map[int]HourBucket, 24),
	}
	for h := 0; h < 24; h++ {
		timeline.Hours[h] = HourBucket{Entries: []Entry{}}
	}

	artists := make(map[string]struct{})
	albums := make(map[string]struct{})

	for _, e := range events {
		hour := e.PlayedAt.In(s.cfg.Location).Hour()
		bucket := timeline.Hours[hour]
		bucket.Total++
		if len(bucket.Entries) < s.cfg.TimelineHourCap {
			bucket.Entries = append(bucket.Entries, entryFromEvent(e))
		}
		timeline.Hours[hour] = bucket

		artists[strings.ToLower(e.ArtistName)] = struct{}{}
		if e.AlbumName != "" {
			albums[strings.ToLower(e.AlbumName)] = struct{}{}
		}
	}

	var counts [24]int
	for h := 0; h < 24; h++ {
		counts[h] = timeline.Hours[h].Total
	}
	timeline.Stats = TimelineStats{
		TotalTracks:   len(events),
		UniqueArtists: len(artists),
		UniqueAlbums:  len(albums),
		PeakHour:      peakHour(counts),
	}

	s.cache.Set(cacheKey, timeline)
	return timeline, nil
}

// GetStats aggregates listening over an optional inclusive date range.
func (s *Service) GetStats(ctx context.Context, startDate, endDate string) (*Stats, error) {
	dbFilter, err := s.toListenFilter(Filter{StartDate: startDate, EndDate: endDate})
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("stats|%s|%s", startDate, endDate)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*Stats), nil
	}

	totals, err := s.store.Totals(ctx, dbFilter)
	if err != nil {
		return nil, fmt.Errorf("aggregating stats: %w", err)
	}

	stats := &Stats{
		TotalTracks:          totals.Total,
		UniqueArtists:        totals.UniqueArtists,
		UniqueAlbums:         totals.UniqueAlbums,
		TotalDurationSeconds: totals.DurationSeconds,
	}

	if totals.Total > 0 {
		counts, err := s.store.HourCounts(ctx, dbFilter, s.cfg.Location.String())
		if err != nil {
			return nil, fmt.Errorf("aggregating hour counts: %w", err)
		}
		stats.PeakHour = peakHour(counts)
	}

	s.cache.Set(cacheKey, stats)
	return stats, nil
}

// ToggleLoved flips an event's loved flag and flushes the aggregate
// cache, since favorites-only views depend on current state. Returns
// db.ErrNotFound for an unknown id.
func (s *Service) ToggleLoved(ctx context.Context, id int64) (bool, error) {
	loved, err := s.store.ToggleLoved(ctx, id)
	if err != nil {
		return false, err
	}
	s.cache.Flush()
	return loved, nil
}

// InvalidateCache drops cached aggregates. Called by ingestion after a
// non-empty batch.
func (s *Service) InvalidateCache() {
	s.cache.Flush()
}

// toListenFilter validates the filter and translates calendar days into
// half-open timestamp bounds in the configured location.
func (s *Service) toListenFilter(f Filter) (db.ListenFilter, error) {
	out := db.ListenFilter{
		Search: f.Search,
		Artist: f.Artist,
		Album:  f.Album,
		Source: f.Source,
		Loved:  f.Loved,
	}

	if f.StartDate != "" {
		start, err := s.parseDate("start_date", f.StartDate)
		if err != nil {
			return db.ListenFilter{}, err
		}
		out.Start = &start
	}
	if f.EndDate != "" {
		end, err := s.parseDate("end_date", f.EndDate)
		if err != nil {
			return db.ListenFilter{}, err
		}
		// End of the named day, exclusive bound on the next midnight.
		endExclusive := end.AddDate(0, 0, 1)
		out.End = &endExclusive
	}
	return out, nil
}

// parseDate parses a YYYY-MM-DD string as midnight in the configured
// location.
func (s *Service) parseDate(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateFormat, value, s.cfg.Location)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return t, nil
}

// peakHour returns the hour with the highest count, preferring the
// earliest hour on ties, or nil when every bucket is empty.
func peakHour(counts [24]int) *int {
	best := -1
	bestCount := 0
	for h := 0; h < 24; h++ {
		if counts[h] > bestCount {
			best = h
			bestCount = counts[h]
		}
	}
	if best < 0 {
		return nil
	}
	return &best
}
