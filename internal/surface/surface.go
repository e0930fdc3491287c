// Package surface holds the map surface: base layers, overlays and legend.
//
// A Surface is created once per process and handed to whoever renders into it.
// Overlays are append-only and safe for concurrent writers.
package surface

import (
	"fmt"
	"strings"
	"sync"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/legend"
	"github.com/woozymasta/quakemap/internal/render"
)

// OverlaySpec declares a toggleable overlay.
type OverlaySpec struct {
	Name    string
	Visible bool // shown once loaded; hidden overlays only appear in the layer control
}

type overlay struct {
	spec   OverlaySpec
	slug   string
	shapes []render.Shape
	err    error
	loaded bool
}

// Surface is the presentation target of the rendering pipeline.
type Surface struct {
	cfg      *config.Config
	index    map[string]*overlay
	overlays []*overlay
	legend   []legend.Entry
	mu       sync.RWMutex
}

// View is the client-side description of the map.
type View struct {
	DefaultBase string             `json:"default_base"`
	BaseLayers  []config.BaseLayer `json:"base_layers"`
	Overlays    []OverlayView      `json:"overlays"`
	Legend      []legend.Entry     `json:"legend"` // deepest bucket first
	Center      [2]float64         `json:"center"`
	Zoom        int                `json:"zoom"`
}

// OverlayView describes one overlay for the client.
type OverlayView struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	URL     string `json:"url"`
	Shapes  int    `json:"shapes"`
	Visible bool   `json:"visible"`
	Loaded  bool   `json:"loaded"`
	Failed  bool   `json:"failed"`
}

// New creates a surface with the given overlays registered empty.
func New(cfg *config.Config, specs ...OverlaySpec) *Surface {
	s := &Surface{
		cfg:   cfg,
		index: make(map[string]*overlay, len(specs)),
	}

	for _, spec := range specs {
		o := &overlay{spec: spec, slug: Slug(spec.Name)}
		s.overlays = append(s.overlays, o)
		s.index[spec.Name] = o
		s.index[o.slug] = o
	}

	return s
}

// DefaultOverlays returns the earthquake overlay, shown once loaded, and the hidden plates overlay.
func DefaultOverlays() []OverlaySpec {
	return []OverlaySpec{
		{Name: config.OverlayEarthquakes, Visible: true},
		{Name: config.OverlayPlates},
	}
}

// Slug returns the URL-safe form of an overlay name.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// AddShapes appends shapes to the named overlay and marks it loaded.
func (s *Surface) AddShapes(name string, shapes []render.Shape) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.index[name]
	if !ok {
		return fmt.Errorf("unknown overlay %q", name)
	}

	o.shapes = append(o.shapes, shapes...)
	o.loaded = true
	return nil
}

// MarkFailed records that the dataset feeding the overlay will not arrive.
// The overlay stays empty; shapes added earlier are kept.
func (s *Surface) MarkFailed(name string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.index[name]
	if !ok {
		return fmt.Errorf("unknown overlay %q", name)
	}

	o.err = err
	return nil
}

// Pending reports whether the overlay exists and is still waiting for its dataset.
func (s *Surface) Pending(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.index[name]
	return ok && !o.loaded && o.err == nil
}

// Shapes returns a copy of the shapes of an overlay, looked up by name or slug.
func (s *Surface) Shapes(name string) ([]render.Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.index[name]
	if !ok {
		return nil, false
	}

	out := make([]render.Shape, len(o.shapes))
	copy(out, o.shapes)
	return out, true
}

// SetLegend attaches the legend, entries in ascending depth order.
func (s *Surface) SetLegend(entries []legend.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.legend = append([]legend.Entry(nil), entries...)
}

// Legend returns the legend in ascending depth order.
func (s *Surface) Legend() []legend.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]legend.Entry(nil), s.legend...)
}

// View snapshots the current state of the surface.
func (s *Surface) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Center:      s.cfg.Center,
		Zoom:        s.cfg.Zoom,
		DefaultBase: s.cfg.DefaultBase,
		BaseLayers:  append([]config.BaseLayer(nil), s.cfg.BaseLayers...),
		Overlays:    make([]OverlayView, 0, len(s.overlays)),
		Legend:      legend.Descending(s.legend),
	}

	for _, o := range s.overlays {
		v.Overlays = append(v.Overlays, OverlayView{
			Name:    o.spec.Name,
			Slug:    o.slug,
			URL:     "/api/overlays/" + o.slug,
			Shapes:  len(o.shapes),
			Visible: o.spec.Visible,
			Loaded:  o.loaded,
			Failed:  o.err != nil,
		})
	}

	return v
}
