package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbenett/auralog/internal/catalog"
	"github.com/tbenett/auralog/internal/db"
	"github.com/tbenett/auralog/internal/export"
	"github.com/tbenett/auralog/internal/history"
	"github.com/tbenett/auralog/internal/ingest"
	"github.com/tbenett/auralog/internal/playlist"
)

// Syncer triggers a scrobble sync. Implemented by ingest.Service; nil
// when Last.fm credentials are not configured.
type Syncer interface {
	Sync(ctx context.Context) (*ingest.SyncResult, error)
}

// Pinger checks storage liveness. Implemented by db.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	history   *history.Service
	playlists *playlist.Service
	catalog   *catalog.Service
	syncer    Syncer
	pinger    Pinger
	log       zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(hist *history.Service, playlists *playlist.Service, cat *catalog.Service, syncer Syncer, pinger Pinger, log zerolog.Logger) *Handlers {
	return &Handlers{
		history:   hist,
		playlists: playlists,
		catalog:   cat,
		syncer:    syncer,
		pinger:    pinger,
		log:       log,
	}
}

// HistoryTracks handles GET /history/tracks.
func (h *Handlers) HistoryTracks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "invalid page: expected an integer")
			return
		}
		page = parsed
	}

	pageSize := 0
	if raw := q.Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "invalid page_size: expected an integer")
			return
		}
		pageSize = parsed
	}

	filter := history.Filter{
		Search:    q.Get("search"),
		Artist:    q.Get("artist"),
		Album:     q.Get("album"),
		Source:    q.Get("source"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	if raw := q.Get("loved"); raw != "" {
		loved, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "invalid loved: expected true or false")
			return
		}
		filter.Loved = &loved
	}

	result, err := h.history.ListHistory(r.Context(), filter, page, pageSize)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HistoryEntry handles GET /history/tracks/{id}.
func (h *Handlers) HistoryEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid track id")
		return
	}

	entry, err := h.history.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Timeline handles GET /history/timeline.
func (h *Handlers) Timeline(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		badRequest(w, "missing date parameter")
		return
	}

	timeline, err := h.history.GetTimeline(r.Context(), date)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}

// Stats handles GET /history/stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := h.history.GetStats(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// loveResponse is the body for a successful loved toggle.
type loveResponse struct {
	TrackID int64 `json:"track_id"`
	Loved   bool  `json:"loved"`
}

// LoveTrack handles POST /history/tracks/{id}/love.
func (h *Handlers) LoveTrack(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid track id")
		return
	}

	loved, err := h.history.ToggleLoved(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loveResponse{TrackID: id, Loved: loved})
}

// ListPlaylists handles GET /playlists.
func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.List(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// playlistResponse is a playlist with its ordered tracks.
type playlistResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Generated bool            `json:"generated"`
	Tracks    []trackResponse `json:"tracks"`
}

// trackResponse is a catalog track as rendered by track and playlist
// endpoints.
type trackResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           *string `json:"album,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	ArtworkURL      *string `json:"artwork_url,omitempty"`
	Year            *int    `json:"year,omitempty"`
}

func trackResponseFrom(t db.Track) trackResponse {
	tr := trackResponse{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.ArtistName,
		Album:      t.AlbumName,
		ArtworkURL: t.ArtworkURL,
		Year:       t.Year,
	}
	if t.DurationMs != nil {
		secs := *t.DurationMs / 1000
		tr.DurationSeconds = &secs
	}
	return tr
}

// GetPlaylist handles GET /playlists/{id}.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid playlist id")
		return
	}

	pl, tracks, err := h.playlists.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	resp := playlistResponse{
		ID:        pl.ID,
		Name:      pl.Name,
		Generated: pl.Generated,
		Tracks:    []trackResponse{},
	}
	for _, t := range tracks {
		resp.Tracks = append(resp.Tracks, trackResponseFrom(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeletePlaylist handles DELETE /playlists/{id}.
func (h *Handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid playlist id")
		return
	}

	if err := h.playlists.Delete(r.Context(), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTrack handles GET /tracks/{id}.
func (h *Handlers) GetTrack(w http.ResponseWriter, r *http.Request) {
	track, err := h.catalog.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, trackResponseFrom(*track))
}

// LookupTrack handles GET /tracks/lookup. Resolves an artist+title pair
// to its catalog row, letting the dashboard link journal entries that
// were ingested before matching.
func (h *Handlers) LookupTrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	artist, title := q.Get("artist"), q.Get("title")
	if artist == "" || title == "" {
		badRequest(w, "missing artist or title parameter")
		return
	}

	track, err := h.catalog.LookupByIdentity(r.Context(), artist, title)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, trackResponseFrom(*track))
}

// artistResponse is a catalog artist as rendered by the artist
// endpoint.
type artistResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url,omitempty"`
}

// GetArtist handles GET /artists/{id}.
func (h *Handlers) GetArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := h.catalog.LookupArtist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, artistResponse{
		ID:       artist.ID,
		Name:     artist.Name,
		ImageURL: artist.ImageURL,
	})
}

// GeneratePlaylists handles POST /playlists/generate.
func (h *Handlers) GeneratePlaylists(w http.ResponseWriter, r *http.Request) {
	created, err := h.playlists.Generate(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if created == nil {
		created = []db.Playlist{}
	}
	writeJSON(w, http.StatusOK, created)
}

// ExportPlaylist handles GET /playlists/{id}/export.
func (h *Handlers) ExportPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid playlist id")
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	body, err := h.playlists.Export(r.Context(), id, format)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "playlist-"+id.String()+"."+string(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Sync handles POST /sync.
func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "scrobble source not configured"})
		return
	}

	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "database unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
