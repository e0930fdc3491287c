// Package geo handles GeoJSON feature collections fetched from remote datasets.
package geo

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DataFormatError reports a payload that is not a valid GeoJSON feature collection.
type DataFormatError struct {
	Err    error
	Reason string
}

func (e *DataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid feature collection: %s: %v", e.Reason, e.Err)
	}
	return "invalid feature collection: " + e.Reason
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// FeatureCollection is a decoded GeoJSON feature collection.
type FeatureCollection struct {
	Features []Feature
}

// Feature is a single geographic record. It is not modified after decoding.
type Feature struct {
	ID         any
	Geometry   orb.Geometry // nil for "geometry": null
	Properties geojson.Properties

	// orb points are two-dimensional, the third coordinate is kept here.
	depth    float64
	hasDepth bool
}

// Internal structures for JSON parsing
type rawCollection struct {
	Type     string          `json:"type"`
	Features json.RawMessage `json:"features"`
}

type rawFeature struct {
	ID         any                `json:"id,omitempty"`
	Properties geojson.Properties `json:"properties"`
	Type       string             `json:"type"`
	Geometry   json.RawMessage    `json:"geometry"`
}

type rawPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Decode parses data as a GeoJSON FeatureCollection.
// Any structural problem is returned as *DataFormatError.
func Decode(data []byte) (*FeatureCollection, error) {
	var root rawCollection
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &DataFormatError{Reason: "malformed json", Err: err}
	}
	if root.Type != "FeatureCollection" {
		return nil, &DataFormatError{Reason: fmt.Sprintf("unexpected type %q", root.Type)}
	}
	if len(root.Features) == 0 || isNull(root.Features) {
		return nil, &DataFormatError{Reason: "missing features"}
	}

	var raws []rawFeature
	if err := json.Unmarshal(root.Features, &raws); err != nil {
		return nil, &DataFormatError{Reason: "features is not an array of features", Err: err}
	}

	fc := &FeatureCollection{Features: make([]Feature, 0, len(raws))}
	for i, raw := range raws {
		f, err := decodeFeature(raw)
		if err != nil {
			return nil, &DataFormatError{Reason: fmt.Sprintf("feature %d", i), Err: err}
		}
		fc.Features = append(fc.Features, f)
	}

	return fc, nil
}

func decodeFeature(raw rawFeature) (Feature, error) {
	if raw.Type != "Feature" {
		return Feature{}, fmt.Errorf("unexpected type %q", raw.Type)
	}

	f := Feature{ID: raw.ID, Properties: raw.Properties}
	if len(raw.Geometry) == 0 || isNull(raw.Geometry) {
		return f, nil
	}

	g, err := geojson.UnmarshalGeometry(raw.Geometry)
	if err != nil {
		return Feature{}, fmt.Errorf("geometry: %w", err)
	}
	f.Geometry = g.Geometry()

	if _, ok := f.Geometry.(orb.Point); ok {
		var p rawPoint
		if err := json.Unmarshal(raw.Geometry, &p); err == nil && len(p.Coordinates) >= 3 {
			f.depth = p.Coordinates[2]
			f.hasDepth = true
		}
	}

	return f, nil
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// Depth returns the third coordinate of a Point geometry, in kilometers.
func (f Feature) Depth() (float64, bool) {
	return f.depth, f.hasDepth
}

// Magnitude returns properties.mag when it is a number.
func (f Feature) Magnitude() (float64, bool) {
	v, ok := f.Properties["mag"].(float64)
	return v, ok
}

// Place returns properties.place when it is a string.
func (f Feature) Place() (string, bool) {
	v, ok := f.Properties["place"].(string)
	return v, ok
}
