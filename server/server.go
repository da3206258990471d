// Package server is the outward HTTP surface: thin handlers that validate
// query parameters, call the aggregation service and render the fixed JSON
// shapes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/museup/museup-api/errs"
	"github.com/museup/museup-api/internal/logger"
	"github.com/museup/museup-api/types"
)

// API is the service surface the handlers consume.
type API interface {
	VideoInfo(ctx context.Context, rawURL string) (*types.StreamResolution, error)
	Search(ctx context.Context, query string) ([]types.ResultRecord, error)
	Trending(ctx context.Context) ([]types.ResultRecord, error)
	CategorySongs(ctx context.Context, category string) ([]types.ResultRecord, error)
	CategoryPlaylists(ctx context.Context, category string) ([]types.ResultRecord, error)
	CategoryAlbums(ctx context.Context, category string) ([]types.ResultRecord, error)
}

// Server routes HTTP requests to the aggregation service.
type Server struct {
	api      API
	mediaDir string
	mux      *http.ServeMux
	log      *logger.ComponentLogger
}

// New builds the server and registers all routes. mediaDir, when non-empty,
// is served as static files under /media/.
func New(api API, mediaDir string) *Server {
	s := &Server{
		api:      api,
		mediaDir: mediaDir,
		mux:      http.NewServeMux(),
		log:      logger.WithComponent(logger.ComponentServer),
	}

	s.mux.HandleFunc("/ping", s.handlePing)
	s.mux.HandleFunc("/video-info", s.handleVideoInfo)
	s.mux.HandleFunc("/search", s.handleSearch)
	s.mux.HandleFunc("/browse", s.handleBrowse)
	s.mux.HandleFunc("/category/songs", s.handleCategorySongs)
	s.mux.HandleFunc("/category/playlists", s.handleCategoryPlaylists)
	s.mux.HandleFunc("/category/albums", s.handleCategoryAlbums)
	if mediaDir != "" {
		s.mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
	}

	return s
}

// ServeHTTP dispatches through the router with request logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	s.mux.ServeHTTP(rec, r)

	s.log.Info("request", map[string]interface{}{
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   rec.status,
		"duration": time.Since(start).String(),
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Response shapes. Field names are part of the downstream player contract
// and differ between endpoint families.

type videoInfoResponse struct {
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
	StreamURL string `json:"stream_url"`
	VideoID   string `json:"video_id"`
}

type searchItem struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"`
}

type songItem struct {
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Thumbnail string  `json:"thumbnail"`
	StreamURL *string `json:"stream_url"` // always null; resolved lazily via /video-info
}

type playlistItem struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
}

type albumItem struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Thumbnail string `json:"thumbnail"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: url")
		return
	}

	res, err := s.api.VideoInfo(r.Context(), rawURL)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, videoInfoResponse{
		Title:     res.Title,
		Duration:  res.Duration,
		Thumbnail: res.Thumbnail,
		StreamURL: res.StreamURL,
		VideoID:   res.VideoID,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: query")
		return
	}

	records, err := s.api.Search(r.Context(), query)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": toSearchItems(records)})
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	records, err := s.api.Trending(r.Context())
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": toSearchItems(records)})
}

func (s *Server) handleCategorySongs(w http.ResponseWriter, r *http.Request) {
	category, ok := s.categoryParam(w, r)
	if !ok {
		return
	}
	records, err := s.api.CategorySongs(r.Context(), category)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}

	items := make([]songItem, 0, len(records))
	for _, rec := range records {
		items = append(items, songItem{
			VideoID:   rec.ID,
			Title:     rec.Title,
			Author:    rec.Author,
			Thumbnail: rec.Thumbnail,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

func (s *Server) handleCategoryPlaylists(w http.ResponseWriter, r *http.Request) {
	category, ok := s.categoryParam(w, r)
	if !ok {
		return
	}
	records, err := s.api.CategoryPlaylists(r.Context(), category)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}

	items := make([]playlistItem, 0, len(records))
	for _, rec := range records {
		items = append(items, playlistItem{
			VideoID:     rec.ID,
			Title:       rec.Title,
			Author:      rec.Author,
			Thumbnail:   rec.Thumbnail,
			Description: rec.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

func (s *Server) handleCategoryAlbums(w http.ResponseWriter, r *http.Request) {
	category, ok := s.categoryParam(w, r)
	if !ok {
		return
	}
	records, err := s.api.CategoryAlbums(r.Context(), category)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}

	items := make([]albumItem, 0, len(records))
	for _, rec := range records {
		items = append(items, albumItem{
			VideoID:   rec.ID,
			Title:     rec.Title,
			Author:    rec.Author,
			Thumbnail: rec.Thumbnail,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

func (s *Server) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (s *Server) categoryParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !s.requireGet(w, r) {
		return "", false
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: category")
		return "", false
	}
	return category, true
}

// writeClassifiedError maps service errors onto the error taxonomy: user
// input errors are 400, upstream-unavailable outcomes are 404, everything
// else is 500. Category endpoints share this envelope; the legacy
// 200-with-embedded-error convention was dropped.
func (s *Server) writeClassifiedError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrInvalidURL):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrNoStreamingData),
		errors.Is(err, errs.ErrNoPlayableURL),
		errors.Is(err, errs.ErrCipheredFormat):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", map[string]interface{}{"error": err.Error()})
	}
	writeError(w, status, err.Error())
}

func toSearchItems(records []types.ResultRecord) []searchItem {
	items := make([]searchItem, 0, len(records))
	for _, rec := range records {
		items = append(items, searchItem{
			VideoID:   rec.ID,
			Title:     rec.Title,
			Channel:   rec.Author,
			Thumbnail: rec.Thumbnail,
			Duration:  rec.Duration,
		})
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
