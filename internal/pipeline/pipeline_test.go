package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/loader"
	"github.com/woozymasta/quakemap/internal/observability"
	"github.com/woozymasta/quakemap/internal/pipeline"
	"github.com/woozymasta/quakemap/internal/surface"
)

const quakes = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"mag":5,"place":"X"},"geometry":{"type":"Point","coordinates":[0,0,45]}},
  {"type":"Feature","properties":{"mag":2.5,"place":"Y"},"geometry":{"type":"Point","coordinates":[1,1,95]}}]}`

const plates = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}]}`

// mockFetcher serves canned payloads or errors keyed by dataset name.
type mockFetcher struct {
	payloads map[string]string
	errs     map[string]error
	delays   map[string]time.Duration

	mu    sync.Mutex
	calls []string
}

func (m *mockFetcher) Fetch(ctx context.Context, dataset, _ string) (*geo.FeatureCollection, error) {
	m.mu.Lock()
	m.calls = append(m.calls, dataset)
	m.mu.Unlock()

	if d := m.delays[dataset]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := m.errs[dataset]; err != nil {
		return nil, err
	}
	return geo.Decode([]byte(m.payloads[dataset]))
}

func newSurface() *surface.Surface {
	return surface.New(config.Default(), surface.DefaultOverlays()...)
}

func TestRun_BothSucceed(t *testing.T) {
	f := &mockFetcher{payloads: map[string]string{"earthquakes": quakes, "plates": plates}}
	s := newSurface()
	m := observability.NewMetricsForTesting()
	p := pipeline.New(f, s, m)

	results := p.Run(context.Background(), pipeline.Datasets(config.Default()))
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, "earthquakes", results[0].Dataset)
	assert.Len(t, results[0].Shapes, 2)
	assert.Len(t, results[1].Shapes, 1)

	shapes, _ := s.Shapes(config.OverlayEarthquakes)
	require.Len(t, shapes, 2)
	assert.Equal(t, 20.0, shapes[0].Style.Radius)
	assert.Equal(t, "Magnitude: 5<br>Location: X<br>Depth: 45", shapes[0].Label)

	assert.Len(t, s.Legend(), 6)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DatasetsSettled))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ShapesRendered.WithLabelValues("earthquakes")))
}

func TestRun_OneFetchFails(t *testing.T) {
	f := &mockFetcher{
		payloads: map[string]string{"earthquakes": quakes},
		errs:     map[string]error{"plates": &loader.FetchError{URL: "http://plates", Status: 500}},
	}
	s := newSurface()
	p := pipeline.New(f, s, observability.NewMetricsForTesting())

	results := p.Run(context.Background(), pipeline.Datasets(config.Default()))

	require.NoError(t, results[0].Err)
	var fe *loader.FetchError
	require.True(t, errors.As(results[1].Err, &fe))

	quakeShapes, _ := s.Shapes(config.OverlayEarthquakes)
	assert.Len(t, quakeShapes, 2)
	plateShapes, _ := s.Shapes(config.OverlayPlates)
	assert.Empty(t, plateShapes)

	v := s.View()
	assert.True(t, v.Overlays[0].Loaded)
	assert.False(t, v.Overlays[1].Loaded)
	assert.True(t, v.Overlays[1].Failed)
	assert.False(t, s.Pending(config.OverlayPlates))
	assert.NoError(t, p.CheckReadiness(context.Background()), "a failed dataset still settles")
}

func TestRun_SettledResetsPerRun(t *testing.T) {
	f := &mockFetcher{payloads: map[string]string{"earthquakes": quakes, "plates": plates}}
	m := observability.NewMetricsForTesting()
	p := pipeline.New(f, newSurface(), m)

	p.Run(context.Background(), pipeline.Datasets(config.Default()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DatasetsSettled))

	p.Run(context.Background(), pipeline.Datasets(config.Default())[:1])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetsSettled))
}

func TestRun_MalformedPayloadIsolated(t *testing.T) {
	f := &mockFetcher{payloads: map[string]string{"earthquakes": `{"type":"nope"}`, "plates": plates}}
	s := newSurface()
	p := pipeline.New(f, s, observability.NewMetricsForTesting())

	results := p.Run(context.Background(), pipeline.Datasets(config.Default()))

	var dfe *geo.DataFormatError
	require.True(t, errors.As(results[0].Err, &dfe))
	require.NoError(t, results[1].Err)

	plateShapes, _ := s.Shapes(config.OverlayPlates)
	assert.Len(t, plateShapes, 1)
}

func TestRun_SlowDatasetDoesNotBlockOther(t *testing.T) {
	f := &mockFetcher{
		payloads: map[string]string{"earthquakes": quakes, "plates": plates},
		delays:   map[string]time.Duration{"earthquakes": 300 * time.Millisecond},
	}
	s := newSurface()
	p := pipeline.New(f, s, observability.NewMetricsForTesting())

	done := make(chan []pipeline.Result)
	go func() { done <- p.Run(context.Background(), pipeline.Datasets(config.Default())) }()

	assert.Eventually(t, func() bool {
		shapes, _ := s.Shapes(config.OverlayPlates)
		return len(shapes) == 1
	}, 250*time.Millisecond, 5*time.Millisecond)

	assert.Error(t, p.CheckReadiness(context.Background()))

	results := <-done
	assert.NoError(t, results[0].Err)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestRun_UnknownOverlay(t *testing.T) {
	f := &mockFetcher{payloads: map[string]string{"plates": plates}}
	s := newSurface()
	p := pipeline.New(f, s, observability.NewMetricsForTesting())

	ds := pipeline.Datasets(config.Default())[1]
	ds.Overlay = "Faults"

	results := p.Run(context.Background(), []pipeline.Dataset{ds})
	assert.Error(t, results[0].Err)
}

func TestCheckReadiness_NotStarted(t *testing.T) {
	p := pipeline.New(&mockFetcher{}, newSurface(), observability.NewMetricsForTesting())
	assert.Error(t, p.CheckReadiness(context.Background()))
}
