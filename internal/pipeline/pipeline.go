// Package pipeline runs the fetch, render and attach pass for every dataset.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/legend"
	"github.com/woozymasta/quakemap/internal/observability"
	"github.com/woozymasta/quakemap/internal/render"
)

// Fetcher retrieves a feature collection.
type Fetcher interface {
	Fetch(ctx context.Context, dataset, url string) (*geo.FeatureCollection, error)
}

// RenderFunc turns a feature collection into shapes.
type RenderFunc func(*geo.FeatureCollection) ([]render.Shape, error)

// Surface receives rendered overlays and the legend.
type Surface interface {
	AddShapes(overlay string, shapes []render.Shape) error
	MarkFailed(overlay string, err error) error
	SetLegend(entries []legend.Entry)
}

// Dataset is one remote source and the overlay it feeds.
type Dataset struct {
	Render  RenderFunc
	Name    string
	Overlay string
	URL     string
}

// Result is the settled outcome of one dataset.
type Result struct {
	Err      error
	Dataset  string
	Shapes   []render.Shape
	Duration time.Duration
}

// Pipeline fetches datasets concurrently and attaches each to the surface as soon as it is ready.
type Pipeline struct {
	fetcher Fetcher
	surface Surface
	metrics *observability.Metrics
	pending atomic.Int64
	started atomic.Bool
}

// New creates a Pipeline.
func New(f Fetcher, s Surface, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{fetcher: f, surface: s, metrics: metrics}
}

// CheckReadiness returns nil once every dataset of the last Run has settled.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.started.Load() {
		return errors.New("pipeline has not started")
	}
	if n := p.pending.Load(); n > 0 {
		return fmt.Errorf("%d datasets still loading", n)
	}
	return nil
}

// Run attaches the legend, then processes all datasets in parallel and waits for every one to settle.
// A failing dataset never cancels or delays the others; results keep the order of datasets.
func (p *Pipeline) Run(ctx context.Context, datasets []Dataset) []Result {
	p.pending.Store(int64(len(datasets)))
	p.metrics.DatasetsSettled.Set(0)
	p.started.Store(true)

	p.surface.SetLegend(legend.Build())

	results := make([]Result, len(datasets))

	var wg sync.WaitGroup
	for i, ds := range datasets {
		wg.Add(1)
		go func(i int, ds Dataset) {
			defer wg.Done()
			defer p.settle()

			results[i] = p.process(ctx, ds)
		}(i, ds)
	}
	wg.Wait()

	return results
}

func (p *Pipeline) settle() {
	p.pending.Add(-1)
	p.metrics.DatasetsSettled.Inc()
}

func (p *Pipeline) process(ctx context.Context, ds Dataset) Result {
	start := time.Now()
	res := Result{Dataset: ds.Name}

	shapes, err := p.load(ctx, ds)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		// unknown overlays already failed in load, nothing to mark
		_ = p.surface.MarkFailed(ds.Overlay, err)
		log.Error().
			Err(err).
			Str("dataset", ds.Name).
			Str("url", ds.URL).
			Msg("Dataset failed, overlay stays empty")
		return res
	}

	res.Shapes = shapes
	p.metrics.ShapesRendered.WithLabelValues(ds.Name).Add(float64(len(shapes)))

	log.Info().
		Str("dataset", ds.Name).
		Str("overlay", ds.Overlay).
		Int("shapes", len(shapes)).
		Dur("duration", res.Duration).
		Msg("Overlay rendered")

	return res
}

func (p *Pipeline) load(ctx context.Context, ds Dataset) ([]render.Shape, error) {
	fc, err := p.fetcher.Fetch(ctx, ds.Name, ds.URL)
	if err != nil {
		return nil, err
	}

	shapes, err := ds.Render(fc)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", ds.Name, err)
	}

	if err := p.surface.AddShapes(ds.Overlay, shapes); err != nil {
		return nil, err
	}

	return shapes, nil
}

// Datasets returns the earthquake and plate boundary datasets of cfg.
func Datasets(cfg *config.Config) []Dataset {
	return []Dataset{
		{
			Name:    "earthquakes",
			Overlay: config.OverlayEarthquakes,
			URL:     cfg.Datasets.Earthquakes,
			Render:  render.Earthquakes,
		},
		{
			Name:    "plates",
			Overlay: config.OverlayPlates,
			URL:     cfg.Datasets.Plates,
			Render:  render.Plates,
		},
	}
}
