// Package loader fetches remote GeoJSON datasets.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/observability"
)

// FetchError reports a transport failure or a non-success response.
type FetchError struct {
	Err    error
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Loader downloads and decodes feature collections. It never retries.
type Loader struct {
	client  *http.Client
	metrics *observability.Metrics
}

// New creates a Loader using client for all requests.
func New(client *http.Client, metrics *observability.Metrics) *Loader {
	return &Loader{client: client, metrics: metrics}
}

// NewClient returns an HTTP client with the given overall request timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
		},
		Timeout: timeout,
	}
}

// Fetch downloads url and decodes it as a feature collection.
// dataset only labels logs and metrics.
func (l *Loader) Fetch(ctx context.Context, dataset, url string) (*geo.FeatureCollection, error) {
	start := time.Now()

	fc, err := l.fetch(ctx, url)

	l.metrics.FetchDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())
	l.metrics.FetchTotal.WithLabelValues(dataset, outcome(err)).Inc()

	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("dataset", dataset).
		Int("features", len(fc.Features)).
		Dur("duration", time.Since(start)).
		Msg("Dataset fetched")

	return fc, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (*geo.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	return geo.Decode(body)
}

func outcome(err error) string {
	var dfe *geo.DataFormatError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &dfe):
		return "format_error"
	default:
		return "fetch_error"
	}
}
