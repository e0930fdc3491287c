// Package render turns decoded features into shape descriptors for the map.
package render

import (
	"html"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/style"
)

// Kind is the shape a feature is drawn as.
type Kind string

const (
	KindCircle Kind = "circle"
	KindPath   Kind = "path"
)

// Earthquake and plate stroke constants.
const (
	QuakeStrokeColor  = "black"
	QuakeStrokeWeight = 0.5
	PlateColor        = "blue"
	PlateWeight       = 2
)

const unknown = "unknown"

// Style carries Leaflet path options. Zero fields are left to Leaflet defaults.
type Style struct {
	FillColor   style.Color `json:"fillColor,omitempty" yaml:"fill_color,omitempty"`
	Color       string      `json:"color,omitempty" yaml:"color,omitempty"`
	Radius      float64     `json:"radius,omitempty" yaml:"radius,omitempty"`
	Weight      float64     `json:"weight,omitempty" yaml:"weight,omitempty"`
	Opacity     float64     `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	FillOpacity float64     `json:"fillOpacity,omitempty" yaml:"fill_opacity,omitempty"`
	Stroke      bool        `json:"stroke,omitempty" yaml:"stroke,omitempty"`
}

// Shape is the visual descriptor of one feature.
type Shape struct {
	Geometry orb.Geometry `json:"-" yaml:"-"`
	ID       any          `json:"id,omitempty" yaml:"id,omitempty"`
	Kind     Kind         `json:"kind" yaml:"kind"`
	Label    string       `json:"label,omitempty" yaml:"label,omitempty"`
	Style    Style        `json:"style" yaml:"style"`
}

// Earthquakes renders one shape per feature, preserving input order.
// Point features become circles; anything else is drawn as a path with the same style.
func Earthquakes(fc *geo.FeatureCollection) ([]Shape, error) {
	if fc == nil {
		return nil, &geo.DataFormatError{Reason: "nil feature collection"}
	}

	shapes := make([]Shape, 0, len(fc.Features))
	for _, f := range fc.Features {
		kind := KindPath
		if _, ok := f.Geometry.(orb.Point); ok {
			kind = KindCircle
		}

		shapes = append(shapes, Shape{
			Geometry: f.Geometry,
			ID:       f.ID,
			Kind:     kind,
			Label:    quakeLabel(f),
			Style:    quakeStyle(f),
		})
	}

	return shapes, nil
}

// Plates renders plate boundaries with a fixed style and no label.
func Plates(fc *geo.FeatureCollection) ([]Shape, error) {
	if fc == nil {
		return nil, &geo.DataFormatError{Reason: "nil feature collection"}
	}

	shapes := make([]Shape, 0, len(fc.Features))
	for _, f := range fc.Features {
		shapes = append(shapes, Shape{
			Geometry: f.Geometry,
			ID:       f.ID,
			Kind:     KindPath,
			Style:    Style{Color: PlateColor, Weight: PlateWeight},
		})
	}

	return shapes, nil
}

// quakeStyle treats absent depth as the shallowest bucket and absent magnitude as the zero sentinel.
func quakeStyle(f geo.Feature) Style {
	depth, _ := f.Depth()
	mag, _ := f.Magnitude()

	return Style{
		FillColor:   style.ColorForDepth(depth),
		Color:       QuakeStrokeColor,
		Radius:      style.RadiusForMagnitude(mag),
		Weight:      QuakeStrokeWeight,
		Opacity:     1,
		FillOpacity: 1,
		Stroke:      true,
	}
}

func quakeLabel(f geo.Feature) string {
	mag, place, depth := unknown, unknown, unknown
	if v, ok := f.Magnitude(); ok {
		mag = formatNumber(v)
	}
	if v, ok := f.Place(); ok {
		place = html.EscapeString(v)
	}
	if v, ok := f.Depth(); ok {
		depth = formatNumber(v)
	}

	return "Magnitude: " + mag + "<br>Location: " + place + "<br>Depth: " + depth
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ToGeoJSON encodes shapes as a feature collection with kind, style and label in the properties.
// Shapes without geometry are dropped, there is nothing to draw for them.
func ToGeoJSON(shapes []Shape) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range shapes {
		if s.Geometry == nil {
			continue
		}

		f := geojson.NewFeature(s.Geometry)
		f.ID = s.ID
		f.Properties["kind"] = s.Kind
		f.Properties["style"] = s.Style
		if s.Label != "" {
			f.Properties["label"] = s.Label
		}
		fc.Append(f)
	}

	return fc
}
