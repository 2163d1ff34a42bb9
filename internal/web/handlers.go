package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/soniq-labs/soniq-core/internal/archetype"
	"github.com/soniq-labs/soniq-core/internal/catalog"
	"github.com/soniq-labs/soniq-core/internal/listening"
	"github.com/soniq-labs/soniq-core/internal/projection"
	"github.com/soniq-labs/soniq-core/internal/recommend"
	"github.com/soniq-labs/soniq-core/internal/similarity"
	"github.com/soniq-labs/soniq-core/internal/wormhole"
)

const (
	defaultWormholeSteps  = 10
	defaultPlaylistLength = 20
	maxPlaylistLength     = 100
)

// EventSource reads a user's listening history. Satisfied by
// listening.EventStore.
type EventSource interface {
	UserEvents(ctx context.Context, userID string) ([]listening.Event, error)
}

// Enricher fills in unknown genres on freshly loaded tracks.
type Enricher interface {
	Enrich(ctx context.Context, tracks []catalog.Track) int
}

// Handlers carries the service components behind the HTTP surface.
type Handlers struct {
	store       *catalog.Store
	catalogPath string
	enricher    Enricher

	recommender *recommend.Recommender
	sessions    *recommend.SessionStore
	wormholes   *wormhole.Generator
	classifier  *archetype.Classifier
	extractor   *listening.Extractor
	events      EventSource
	projector   *projection.Service

	metrics *Metrics
	log     zerolog.Logger
}

// HandlersConfig wires up the HTTP handlers. Events and Enricher may be
// nil: the archetype endpoint then reports the history as unavailable,
// and catalog reloads skip enrichment.
type HandlersConfig struct {
	Store       *catalog.Store
	CatalogPath string
	Enricher    Enricher
	Recommender *recommend.Recommender
	Sessions    *recommend.SessionStore
	Wormholes   *wormhole.Generator
	Classifier  *archetype.Classifier
	Extractor   *listening.Extractor
	Events      EventSource
	Projector   *projection.Service
	Metrics     *Metrics
	Logger      zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(cfg HandlersConfig) *Handlers {
	cfg.Metrics.catalogTracks.Set(float64(cfg.Store.Len()))
	return &Handlers{
		store:       cfg.Store,
		catalogPath: cfg.CatalogPath,
		enricher:    cfg.Enricher,
		recommender: cfg.Recommender,
		sessions:    cfg.Sessions,
		wormholes:   cfg.Wormholes,
		classifier:  cfg.Classifier,
		extractor:   cfg.Extractor,
		events:      cfg.Events,
		projector:   cfg.Projector,
		metrics:     cfg.Metrics,
		log:         cfg.Logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("encoding response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// Healthz reports liveness and the active catalog size.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tracks": h.store.Len(),
	})
}

// NextTrack handles GET /v1/recommendations/next.
func (h *Handlers) NextTrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	currentID := q.Get("current_track_id")
	if currentID == "" {
		h.writeError(w, http.StatusBadRequest, "current_track_id is required")
		return
	}

	session := h.sessions.GetOrCreate(q.Get("session_id"))
	h.metrics.activeSessions.Set(float64(h.sessions.Len()))

	recentlyPlayed := splitIDs(q.Get("skipped_track_ids"))

	trackID, err := h.recommender.RecommendNext(currentID, recentlyPlayed, session.Skips)
	switch {
	case errors.Is(err, catalog.ErrUnknownTrack):
		h.metrics.recommendations.WithLabelValues("unknown_track").Inc()
		h.writeError(w, http.StatusNotFound, "unknown track: "+currentID)
		return
	case errors.Is(err, similarity.ErrNoCandidates):
		h.metrics.recommendations.WithLabelValues("no_candidates").Inc()
		w.Header().Set("X-Session-Id", session.ID)
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		h.log.Error().Err(err).Str("track_id", currentID).Msg("recommendation failed")
		h.writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}

	h.metrics.recommendations.WithLabelValues("served").Inc()
	h.writeJSON(w, http.StatusOK, map[string]string{
		"track_id":   trackID,
		"session_id": session.ID,
	})
}

type skipRequest struct {
	TrackID         string  `json:"track_id"`
	PositionSeconds float64 `json:"position_seconds"`
}

// ReportSkip handles POST /v1/sessions/{session_id}/skips.
func (h *Handlers) ReportSkip(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var req skipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TrackID == "" {
		h.writeError(w, http.StatusBadRequest, "track_id is required")
		return
	}
	track, ok := h.store.Track(req.TrackID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown track: "+req.TrackID)
		return
	}

	session := h.sessions.GetOrCreate(sessionID)
	session.Skips.RecordSkip(track.Genre, req.PositionSeconds, track.DurationSec)
	h.metrics.activeSessions.Set(float64(h.sessions.Len()))

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"session_id": session.ID,
	})
}

// EndSession handles DELETE /v1/sessions/{session_id}.
func (h *Handlers) EndSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(chi.URLParam(r, "session_id"))
	h.metrics.activeSessions.Set(float64(h.sessions.Len()))
	w.WriteHeader(http.StatusNoContent)
}

type trackPayload struct {
	TrackID string `json:"track_id"`
	Title   string `json:"title,omitempty"`
	Artist  string `json:"artist,omitempty"`
	Genre   string `json:"genre"`
}

// Wormhole handles GET /v1/recommendations/wormhole.
func (h *Handlers) Wormhole(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startID := q.Get("start_track_id")
	endID := q.Get("end_track_id")
	if startID == "" || endID == "" {
		h.writeError(w, http.StatusBadRequest, "start_track_id and end_track_id are required")
		return
	}

	steps := defaultWormholeSteps
	if raw := q.Get("steps"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "steps must be an integer")
			return
		}
		steps = parsed
	}

	path, err := h.wormholes.GeneratePath(startID, endID, steps)
	switch {
	case errors.Is(err, wormhole.ErrInvalidStepCount):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, catalog.ErrUnknownTrack):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, wormhole.ErrDegenerateVector),
		errors.Is(err, similarity.ErrNoCandidates):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Msg("wormhole generation failed")
		h.writeError(w, http.StatusInternalServerError, "wormhole generation failed")
		return
	}

	h.metrics.wormholePaths.Inc()
	payload := make([]trackPayload, 0, len(path))
	for _, id := range path {
		payload = append(payload, h.trackPayload(id))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"path": payload})
}

// Playlist handles GET /v1/recommendations/playlist.
func (h *Handlers) Playlist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seedIDs := splitIDs(q.Get("seed_ids"))
	if len(seedIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "seed_ids is required")
		return
	}

	length := defaultPlaylistLength
	if raw := q.Get("length"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPlaylistLength {
			h.writeError(w, http.StatusBadRequest, "length must be between 1 and 100")
			return
		}
		length = parsed
	}

	trackIDs, err := h.recommender.GeneratePlaylist(seedIDs, length, seedIDs)
	switch {
	case errors.Is(err, catalog.ErrUnknownTrack):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, similarity.ErrNoCandidates):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("playlist generation failed")
		h.writeError(w, http.StatusInternalServerError, "playlist generation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string][]string{"track_ids": trackIDs})
}

// Archetype handles GET /v1/users/{user_id}/archetype.
func (h *Handlers) Archetype(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		h.writeError(w, http.StatusServiceUnavailable, "listening history is not configured")
		return
	}
	userID := chi.URLParam(r, "user_id")

	events, err := h.events.UserEvents(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("reading listening history")
		h.writeError(w, http.StatusInternalServerError, "reading listening history failed")
		return
	}

	features := h.extractor.Extract(events, h.store.Genre)
	result, err := h.classifier.Classify(features)
	if errors.Is(err, archetype.ErrInsufficientData) {
		h.writeError(w, http.StatusNotFound, "not enough listening history for user "+userID)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("classification failed")
		h.writeError(w, http.StatusInternalServerError, "classification failed")
		return
	}

	h.metrics.archetypes.WithLabelValues(result.Label).Inc()
	h.writeJSON(w, http.StatusOK, result)
}

type universePoint struct {
	TrackID string  `json:"track_id"`
	Title   string  `json:"title,omitempty"`
	Artist  string  `json:"artist,omitempty"`
	Genre   string  `json:"genre"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color"`
}

// Universe handles GET /v1/universe: every track with its 2D position
// and genre color.
func (h *Handlers) Universe(w http.ResponseWriter, r *http.Request) {
	points := h.projector.Project()

	payload := make([]universePoint, 0, len(points))
	for _, t := range h.store.All() {
		p := points[t.ID]
		payload = append(payload, universePoint{
			TrackID: t.ID,
			Title:   t.Title,
			Artist:  t.Artist,
			Genre:   t.Genre,
			X:       p.X,
			Y:       p.Y,
			Color:   projection.GenreColor(t.Genre),
		})
	}
	h.writeJSON(w, http.StatusOK, payload)
}

// ReloadCatalog handles POST /v1/admin/reload: re-reads the catalog
// file and swaps the snapshot.
func (h *Handlers) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if h.catalogPath == "" {
		h.writeError(w, http.StatusServiceUnavailable, "no catalog path configured")
		return
	}

	tracks, err := catalog.LoadFile(h.catalogPath)
	if err != nil {
		h.log.Error().Err(err).Str("path", h.catalogPath).Msg("catalog reload failed")
		h.writeError(w, http.StatusInternalServerError, "catalog reload failed: "+err.Error())
		return
	}
	if h.enricher != nil {
		enriched := h.enricher.Enrich(r.Context(), tracks)
		h.log.Info().Int("enriched", enriched).Msg("genre enrichment finished")
	}
	if err := h.store.Replace(tracks); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "catalog rejected: "+err.Error())
		return
	}

	h.metrics.catalogTracks.Set(float64(h.store.Len()))
	h.log.Info().Int("tracks", h.store.Len()).Msg("catalog reloaded")
	h.writeJSON(w, http.StatusOK, map[string]int{"tracks": h.store.Len()})
}

func (h *Handlers) trackPayload(id string) trackPayload {
	t, ok := h.store.Track(id)
	if !ok {
		return trackPayload{TrackID: id, Genre: catalog.UnknownGenre}
	}
	return trackPayload{
		TrackID: t.ID,
		Title:   t.Title,
		Artist:  t.Artist,
		Genre:   t.Genre,
	}
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
