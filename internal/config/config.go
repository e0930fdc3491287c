// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default dataset URLs: USGS past-week feed and PB2002 plate boundaries.
const (
	EarthquakesURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson"
	PlatesURL      = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_plates.json"
)

// Overlay names shown in the layer control.
const (
	OverlayEarthquakes = "Earthquakes"
	OverlayPlates      = "Plates"
)

// Config represents the root configuration file structure.
type Config struct {
	Datasets    Datasets      `yaml:"datasets" json:"datasets"`
	DefaultBase string        `yaml:"default_base" json:"default_base"`
	BaseLayers  []BaseLayer   `yaml:"base_layers" json:"base_layers"`
	Center      [2]float64    `yaml:"center" json:"center"` // [Lat, Lon]
	Zoom        int           `yaml:"zoom" json:"zoom"`
	Timeout     time.Duration `yaml:"fetch_timeout,omitempty" json:"-"`
}

// Datasets holds the remote GeoJSON sources.
type Datasets struct {
	Earthquakes string `yaml:"earthquakes" json:"earthquakes"`
	Plates      string `yaml:"plates" json:"plates"`
}

// BaseLayer is a named tile source, only one is active at a time.
type BaseLayer struct {
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url" json:"url"`
	Attribution string `yaml:"attribution,omitempty" json:"attribution,omitempty"`
}

// Default returns the built-in configuration, centered on the contiguous US.
func Default() *Config {
	return &Config{
		Datasets: Datasets{
			Earthquakes: EarthquakesURL,
			Plates:      PlatesURL,
		},
		DefaultBase: "Dark Map",
		BaseLayers: []BaseLayer{
			{
				Name:        "Light Map",
				URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
				Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
			},
			{
				Name:        "Dark Map",
				URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
				Attribution: `&copy; <a href="https://www.esri.com/en-us/home">Esri</a>`,
			},
			{
				Name:        "Satellite Map",
				URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
				Attribution: `&copy; <a href="https://opentopomap.org/copyright">OpenTopoMap</a> contributors`,
			},
		},
		Center:  [2]float64{37.09, -95.71},
		Zoom:    4,
		Timeout: 15 * time.Second,
	}
}

// Load reads the YAML configuration file from the specified path.
// An empty path returns Default. Fields missing in the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the default base layer exists and dataset URLs are set.
func (c *Config) Validate() error {
	if c.Datasets.Earthquakes == "" || c.Datasets.Plates == "" {
		return errors.New("both dataset URLs are required")
	}
	if len(c.BaseLayers) == 0 {
		return errors.New("at least one base layer is required")
	}
	if c.Timeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}

	for _, b := range c.BaseLayers {
		if b.Name == "" || b.URL == "" {
			return errors.New("base layer name and url are required")
		}
		if b.Name == c.DefaultBase {
			return nil
		}
	}

	return fmt.Errorf("default base layer %q is not defined", c.DefaultBase)
}
