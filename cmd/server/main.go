package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/loader"
	"github.com/woozymasta/quakemap/internal/logger"
	"github.com/woozymasta/quakemap/internal/observability"
	"github.com/woozymasta/quakemap/internal/pipeline"
	"github.com/woozymasta/quakemap/internal/server"
	"github.com/woozymasta/quakemap/internal/surface"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"  env:"CONFIG_FILE"    description:"Path to optional configuration file"`
	Addr       string        `short:"a" long:"addr"    env:"LISTEN_ADDRESS" description:"Address to listen on"        default:"0.0.0.0"`
	Port       int           `short:"p" long:"port"    env:"LISTEN_PORT"    description:"Port to listen on"           default:"8080"`
	Timeout    time.Duration `short:"t" long:"timeout" env:"FETCH_TIMEOUT"  description:"Dataset fetch timeout, overrides config"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}

	page, err := surface.NewPage()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare map page")
	}

	metrics := observability.NewMetrics()
	mapSurface := surface.New(cfg, surface.DefaultOverlays()...)
	p := pipeline.New(loader.New(loader.NewClient(cfg.Timeout), metrics), mapSurface, metrics)

	srvCtx := server.NewServerContext(mapSurface, page, p)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Single render pass, the page is served while datasets load
	go func() {
		results := p.Run(ctx, pipeline.Datasets(cfg))
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		log.Info().
			Int("datasets", len(results)).
			Int("failed", failed).
			Msg("Render pass finished")
	}()

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("earthquakes", cfg.Datasets.Earthquakes).
		Str("plates", cfg.Datasets.Plates).
		Dur("fetch_timeout", cfg.Timeout).
		Msg("Web server started")

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
