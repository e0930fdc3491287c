package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/quakemap/internal/surface"
)

// ReadinessChecker reports whether every dataset has settled.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Surface *surface.Surface
	Page    *surface.Page
	Ready   ReadinessChecker
}

// NewServerContext initializes the context around an existing map surface.
func NewServerContext(s *surface.Surface, page *surface.Page, ready ReadinessChecker) *ServerContext {
	v := s.View()
	log.Info().
		Int("base_layers", len(v.BaseLayers)).
		Int("overlays", len(v.Overlays)).
		Str("default_base", v.DefaultBase).
		Msg("Server context initialized")

	return &ServerContext{
		Surface: s,
		Page:    page,
		Ready:   ready,
	}
}

// Handler returns all routes wrapped in the request logger.
func (s *ServerContext) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/map", s.HandleMap)
	mux.HandleFunc("GET /api/legend", s.HandleLegend)
	mux.HandleFunc("GET /api/overlays/{slug}", s.HandleOverlay)
	mux.HandleFunc("GET /legend.webp", s.HandleLegendImage)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.HandleFunc("GET /readyz", s.HandleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /", s.HandleIndex)

	return RequestLogger(mux)
}
