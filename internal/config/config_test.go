package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, EarthquakesURL, cfg.Datasets.Earthquakes)
	assert.Equal(t, PlatesURL, cfg.Datasets.Plates)
	assert.Equal(t, "Dark Map", cfg.DefaultBase)
	assert.Equal(t, [2]float64{37.09, -95.71}, cfg.Center)
	assert.Equal(t, 4, cfg.Zoom)
	assert.Equal(t, 15*time.Second, cfg.Timeout)

	names := make([]string, 0, len(cfg.BaseLayers))
	for _, b := range cfg.BaseLayers {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"Light Map", "Dark Map", "Satellite Map"}, names)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
datasets:
  earthquakes: http://localhost/quakes.geojson
default_base: Satellite Map
zoom: 6
fetch_timeout: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/quakes.geojson", cfg.Datasets.Earthquakes)
	assert.Equal(t, PlatesURL, cfg.Datasets.Plates)
	assert.Equal(t, "Satellite Map", cfg.DefaultBase)
	assert.Equal(t, 6, cfg.Zoom)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Len(t, cfg.BaseLayers, 3)
}

func TestLoad_UnknownDefaultBase(t *testing.T) {
	path := writeConfig(t, "default_base: Night Map\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Night Map")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "zoom: [\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Datasets.Plates = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.BaseLayers = nil
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
