package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/woozymasta/geolink/internal/config"
	"github.com/woozymasta/geolink/internal/extension"
	"github.com/woozymasta/geolink/internal/geo"
	"github.com/woozymasta/geolink/internal/logger"
	"github.com/woozymasta/geolink/internal/service"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"       env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	URL         string   `short:"u" long:"url"          description:"Query this endpoint instead of the configured extensions"`
	Limit       []string `short:"l" long:"limit"        env:"LIMIT_NAMES" description:"Limit fetching to specific extension names"`
	Point       string   `short:"P" long:"point"        description:"Query point as x,y (longitude,latitude)" required:"true"`
	RemoveHoles bool     `short:"r" long:"remove-holes" description:"Ask the service to drop polygon holes"`
	OutputDir   string   `short:"o" long:"out"          description:"Output directory, one <name>.geojson per extension. Writes to stdout if empty"`
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

	pt, err := parsePoint(opts.Point)
	if err != nil {
		log.Fatal().Err(err).Str("point", opts.Point).Msg("Invalid point")
	}

	cfg := &config.Config{HTTP: config.HTTP{Timeout: config.DefaultTimeout}}
	if opts.URL != "" {
		cfg.Extensions = []config.Extension{{Name: "features", Kind: config.KindCHyF, URL: opts.URL}}
	} else {
		cfg, err = config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	client, err := service.New(service.Options{Timeout: cfg.HTTP.Timeout})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}
	defer client.Close()

	// Filter extensions if limit is set
	queue := make([]config.Extension, 0, len(cfg.Extensions))
	wanted := make(map[string]bool, len(opts.Limit))
	for _, name := range opts.Limit {
		wanted[name] = true
	}
	for _, ext := range cfg.Extensions {
		if ext.Kind != config.KindCHyF {
			continue
		}
		if len(wanted) > 0 && !wanted[ext.Name] {
			continue
		}
		delete(wanted, ext.Name)
		queue = append(queue, ext)
	}
	if len(opts.Limit) > 0 {
		for name := range wanted {
			log.Error().
				Str("name", name).
				Msg("Extension specified in --limit not found in configuration")
		}
	}

	log.Info().
		Int("extensions_total", len(cfg.Extensions)).
		Int("extensions_queued", len(queue)).
		Float64("x", pt[0]).
		Float64("y", pt[1]).
		Msg("Starting fetch")

	var seq geo.Sequence
	failed := 0
	for _, ext := range queue {
		if err := fetch(context.Background(), client, &seq, ext, pt, opts); err != nil {
			failed++
			log.Error().Err(err).Str("extension", ext.Name).Msg("Failed to fetch features")
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
	log.Info().Msg("Fetch finished successfully")
}

func fetch(ctx context.Context, client *service.Client, seq *geo.Sequence, ext config.Extension, pt orb.Point, opts Options) error {
	features, err := client.FeaturesByPoint(ctx, ext.URL, pt, opts.RemoveHoles || ext.RemoveHoles)
	if err != nil {
		return err
	}

	style := extension.DefaultStyle
	if ext.Style != nil {
		style = *ext.Style
	}
	geometries, err := geo.FeaturesToGeometries(features, style, seq)
	if err != nil {
		return err
	}

	out := ""
	if opts.OutputDir != "" {
		out = filepath.Join(opts.OutputDir, ext.Name+".geojson")
	}
	if err := service.WriteJSON(out, geo.FeatureCollection(features, geometries)); err != nil {
		return err
	}

	log.Info().
		Str("extension", ext.Name).
		Int("features", len(features)).
		Int("geometries", len(geometries)).
		Str("out", out).
		Msg("Features written")
	return nil
}

func parsePoint(s string) (orb.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, errors.New("expected x,y")
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("y: %w", err)
	}
	return orb.Point{x, y}, nil
}
