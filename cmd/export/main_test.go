package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/quakemap/internal/legend"
	"github.com/woozymasta/quakemap/internal/render"
)

func testDoc() exportDoc {
	return exportDoc{
		Legend: legend.Build(),
		Overlays: []exportOverlay{
			{
				Name:    "Earthquakes",
				Dataset: "earthquakes",
				Features: render.ToGeoJSON([]render.Shape{{
					Geometry: orb.Point{1, 2},
					Kind:     render.KindCircle,
					Label:    "Magnitude: 1<br>Location: A<br>Depth: 3",
				}}),
			},
			{Name: "Plates", Dataset: "plates", Error: "fetch http://plates: status 500"},
		},
	}
}

func TestMarshal_JSON(t *testing.T) {
	data, err := marshal(testDoc(), "json")
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Len(t, out["legend"], 6)
	assert.Len(t, out["overlays"], 2)
	assert.Contains(t, string(data), `"type": "FeatureCollection"`)
	assert.NotContains(t, string(data), `"features": null`)
}

func TestMarshal_YAML(t *testing.T) {
	data, err := marshal(testDoc(), "yaml")
	require.NoError(t, err)

	var out struct {
		Legend   []legend.Entry `yaml:"legend"`
		Overlays []struct {
			Name     string `yaml:"name"`
			Error    string `yaml:"error"`
			Features struct {
				Type     string `yaml:"type"`
				Features []struct {
					Properties map[string]any `yaml:"properties"`
				} `yaml:"features"`
			} `yaml:"features"`
		} `yaml:"overlays"`
	}
	require.NoError(t, yaml.Unmarshal(data, &out))

	require.Len(t, out.Legend, 6)
	assert.Equal(t, "90+", out.Legend[5].Label)
	require.Len(t, out.Overlays, 2)
	assert.Equal(t, "FeatureCollection", out.Overlays[0].Features.Type)
	assert.Equal(t, "circle", out.Overlays[0].Features.Features[0].Properties["kind"])
	assert.Equal(t, "fetch http://plates: status 500", out.Overlays[1].Error)
}

func TestWriteLegend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legend.webp")
	require.NoError(t, writeLegend(path, legend.Build()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 18*6, img.Bounds().Dy())
}

func TestWriteLegend_BadPath(t *testing.T) {
	err := writeLegend(filepath.Join(t.TempDir(), "missing", "legend.webp"), legend.Build())
	assert.Error(t, err)
}
