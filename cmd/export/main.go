package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/legend"
	"github.com/woozymasta/quakemap/internal/loader"
	"github.com/woozymasta/quakemap/internal/logger"
	"github.com/woozymasta/quakemap/internal/observability"
	"github.com/woozymasta/quakemap/internal/pipeline"
	"github.com/woozymasta/quakemap/internal/render"
	"github.com/woozymasta/quakemap/internal/surface"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"  env:"CONFIG_FILE"   description:"Path to optional configuration file"`
	Output     string        `short:"o" long:"out"                         description:"Output file path. Writes to stdout if empty"`
	Format     string        `short:"f" long:"format"                      description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Legend     string        `short:"L" long:"legend"                      description:"Write legend swatches as WebP to this path"`
	Limit      []string      `short:"l" long:"limit"   env:"LIMIT_NAMES"   description:"Limit processing to specific datasets (earthquakes, plates)"`
	Timeout    time.Duration `short:"t" long:"timeout" env:"FETCH_TIMEOUT" description:"Dataset fetch timeout, overrides config"`
}

type exportDoc struct {
	Legend   []legend.Entry  `json:"legend"`
	Overlays []exportOverlay `json:"overlays"`
}

type exportOverlay struct {
	Features *geojson.FeatureCollection `json:"features,omitempty"`
	Name     string                     `json:"name"`
	Dataset  string                     `json:"dataset"`
	Error    string                     `json:"error,omitempty"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}

	// Filter datasets if limit is set
	datasets := pipeline.Datasets(cfg)
	if len(opts.Limit) > 0 {
		datasets = slices.DeleteFunc(datasets, func(ds pipeline.Dataset) bool {
			return !slices.Contains(opts.Limit, ds.Name)
		})
		if len(datasets) == 0 {
			log.Fatal().Strs("limit", opts.Limit).Msg("No dataset matches --limit")
		}
	}

	metrics := observability.NewMetrics()
	mapSurface := surface.New(cfg, surface.DefaultOverlays()...)
	p := pipeline.New(loader.New(loader.NewClient(cfg.Timeout), metrics), mapSurface, metrics)

	results := p.Run(context.Background(), datasets)

	doc := exportDoc{Legend: mapSurface.Legend()}
	for i, r := range results {
		o := exportOverlay{Name: datasets[i].Overlay, Dataset: r.Dataset}
		if r.Err != nil {
			o.Error = r.Err.Error()
		} else {
			o.Features = render.ToGeoJSON(r.Shapes)
		}
		doc.Overlays = append(doc.Overlays, o)
	}

	outputData, err := marshal(doc, opts.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal export")
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
			log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write output file")
		}
		log.Info().
			Str("path", opts.Output).
			Str("format", opts.Format).
			Int("overlays", len(doc.Overlays)).
			Msg("Export written")
	} else {
		fmt.Println(string(outputData))
	}

	if opts.Legend != "" {
		if err := writeLegend(opts.Legend, doc.Legend); err != nil {
			log.Fatal().Err(err).Str("path", opts.Legend).Msg("Failed to write legend image")
		}
	}
}

// marshal encodes doc as indented JSON, or converts that JSON to YAML.
// Going through JSON keeps the GeoJSON member names for both formats.
func marshal(doc exportDoc, format string) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil || format != "yaml" {
		return data, err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func writeLegend(path string, entries []legend.Entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return legend.EncodeWebP(f, legend.Swatches(legend.Descending(entries), 18))
}
