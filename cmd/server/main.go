package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/woozymasta/geolink/internal/config"
	"github.com/woozymasta/geolink/internal/logger"
	"github.com/woozymasta/geolink/internal/server"
	"github.com/woozymasta/geolink/internal/service"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE"       description:"Path to configuration file"       default:"config.yaml"`
	Addr        string `short:"a" long:"addr"        env:"LISTEN_ADDRESS"    description:"Address to listen on"             default:"0.0.0.0"`
	Port        int    `short:"p" long:"port"        env:"LISTEN_PORT"       description:"Port to listen on"                default:"8080"`
	Concurrency int    `short:"j" long:"concurrency" env:"CRAWL_CONCURRENCY" description:"Override crawl concurrency, 0 keeps the config value"`
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
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", opts.ConfigFile).Msg("Configuration not found, using built-in extensions")
		cfg, err = config.Default(), nil
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Concurrency > 0 {
		cfg.Crawl.Concurrency = opts.Concurrency
	}

	client, err := service.New(service.Options{
		Timeout:   cfg.HTTP.Timeout,
		CacheSize: cfg.Crawl.CacheSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}
	defer client.Close()

	srvCtx, err := server.NewServerContext(cfg, client)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize extensions")
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("name", cfg.Name).
		Int("extensions_loaded", len(cfg.Extensions)).
		Int("crawl_concurrency", cfg.Crawl.Concurrency).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, srvCtx.Routes()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
