// Package server handles HTTP requests and middleware.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geopaint/internal/event"
	"github.com/woozymasta/geopaint/internal/geo"
	"github.com/woozymasta/geopaint/internal/loader"
	"github.com/woozymasta/geopaint/internal/metrics"
	"github.com/woozymasta/geopaint/internal/paint"
	"github.com/woozymasta/geopaint/internal/tiles"
)

const (
	etagCap        = 64
	maxUploadBytes = 64 << 20
	maxEventBytes  = 64 << 10
)

// Routes returns the HTTP handler with every endpoint and the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.HandleState)
	mux.HandleFunc("/api/regions", s.HandleRegions)
	mux.HandleFunc("/api/events", s.HandleEvents)
	mux.HandleFunc("/api/load", s.HandleLoad)
	mux.HandleFunc("/ws", s.Hub.ServeWS)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/favicon.ico", s.HandleFavicon)
	mux.HandleFunc("/tiles/", s.HandleTile)
	mux.HandleFunc("/", s.HandleIndex)

	return RequestLogger(mux)
}

// HandleState serves the current painter snapshot.
func (s *ServerContext) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	snap, err := s.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// HandleRegions serves the attached collection as GeoJSON.
func (s *ServerContext) HandleRegions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	var (
		fc         *geojson.FeatureCollection
		generation uint64
	)
	err := s.Loop.Do(r.Context(), func() error {
		c := s.Painter.Collection()
		if c == nil {
			return nil
		}
		fc = c.FeatureCollection()
		generation = c.Generation
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if fc == nil {
		http.Error(w, "no region layer loaded", http.StatusNotFound)
		return
	}

	etag := fmt.Sprintf(`"gen-%d"`, generation)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := json.Marshal(fc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// HandleEvents dispatches a single page event and answers with the new snapshot.
func (s *ServerContext) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var ev event.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&ev); err != nil {
		http.Error(w, "invalid event: "+err.Error(), http.StatusBadRequest)
		return
	}

	var snap paint.Snapshot
	err := s.Loop.Do(r.Context(), func() error {
		if err := s.Dispatcher.Dispatch(ev); err != nil {
			return err
		}
		snap = s.snapshot()
		return nil
	})
	if err != nil {
		log.Debug().
			Err(err).
			Str("component", string(ev.Component)).
			Str("kind", string(ev.Kind)).
			Msg("Event rejected")
		http.Error(w, err.Error(), eventStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// HandleLoad builds the region layer from the first uploaded file.
func (s *ServerContext) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		http.Error(w, "no file selected", http.StatusBadRequest)
		return
	}

	f, err := files[0].Open()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = f.Close() }()

	fc, err := loader.LoadFile(f)
	if err != nil {
		log.Warn().
			Err(err).
			Str("file", files[0].Filename).
			Msg("Failed to parse uploaded GeoJSON")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.BuildLayer(r.Context(), fc); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	log.Info().
		Str("file", files[0].Filename).
		Int("features", len(fc.Features)).
		Msg("Local GeoJSON loaded")

	snap, err := s.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/favicon.ico" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleTile serves base layer tiles from the tile cache.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	if s.Tiles == nil {
		http.NotFound(w, r)
		return
	}

	// Path: /tiles/{z}/{x}/{y}.webp
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || !strings.HasSuffix(parts[3], ".webp") {
		http.NotFound(w, r)
		return
	}

	z, errZ := strconv.Atoi(parts[1])
	x, errX := strconv.Atoi(parts[2])
	y, errY := strconv.Atoi(strings.TrimSuffix(parts[3], ".webp"))
	if errZ != nil || errX != nil || errY != nil {
		http.NotFound(w, r)
		return
	}

	path, err := s.Tiles.Get(r.Context(), tiles.TileCoordinate{Z: z, X: x, Y: y})
	switch {
	case errors.Is(err, tiles.ErrTileOutOfRange), errors.Is(err, tiles.ErrTileNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Tile download failed")
		http.Error(w, "tile unavailable", http.StatusBadGateway)
		return
	}

	if !s.serveFile(w, r, path, "image/webp") {
		http.NotFound(w, r)
	}
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}

func eventStatus(err error) int {
	switch {
	case errors.Is(err, event.ErrUnhandled):
		return http.StatusNotFound
	case errors.Is(err, paint.ErrStaleRegion):
		return http.StatusConflict
	case errors.Is(err, geo.ErrInvalidColor):
		return http.StatusBadRequest
	case errors.Is(err, event.ErrLoopStopped), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}
