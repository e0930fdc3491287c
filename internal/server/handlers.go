// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/quakemap/internal/legend"
	"github.com/woozymasta/quakemap/internal/render"
)

const (
	swatchSize = 18
	retryAfter = "2" // seconds
)

// HandleIndex serves the map page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page, err := s.Page.Render(s.Surface.View())
	if err != nil {
		log.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	h := fnv.New64a()
	_, _ = h.Write(page)
	etag := fmt.Sprintf(`"%x"`, h.Sum64())

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(page)
}

// HandleMap serves the map view: base layers, overlays and legend.
func (s *ServerContext) HandleMap(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "application/json", s.Surface.View())
}

// HandleLegend serves legend entries in ascending depth order.
func (s *ServerContext) HandleLegend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "application/json", s.Surface.Legend())
}

// HandleOverlay serves the shapes of one overlay as GeoJSON.
// While its dataset is still loading the client is asked to retry.
// A failed dataset is served as an empty collection.
func (s *ServerContext) HandleOverlay(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if s.Surface.Pending(slug) {
		w.Header().Set("Retry-After", retryAfter)
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusServiceUnavailable, "application/json", map[string]string{"status": "loading"})
		return
	}

	shapes, ok := s.Surface.Shapes(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, "application/geo+json", render.ToGeoJSON(shapes))
}

// HandleLegendImage serves the legend swatches, deepest bucket on top.
func (s *ServerContext) HandleLegendImage(w http.ResponseWriter, r *http.Request) {
	entries := s.Surface.Legend()
	if len(entries) == 0 {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := legend.EncodeWebP(&buf, legend.Swatches(legend.Descending(entries), swatchSize)); err != nil {
		log.Error().Err(err).Msg("Failed to encode legend image")
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(buf.Bytes())
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "application/json", map[string]string{"status": "healthy"})
}

// HandleReady reports whether both datasets have settled.
func (s *ServerContext) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.Ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, "application/json", map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, "application/json", map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}
