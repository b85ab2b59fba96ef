package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/woozymasta/geolink/internal/linkeddata"
	"github.com/woozymasta/geolink/internal/logger"
	"github.com/woozymasta/geolink/internal/service"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	URI         string        `short:"u" long:"uri"         description:"Linked-data resource to crawl" required:"true"`
	Output      string        `short:"o" long:"out"         description:"Output file path. Writes to stdout if empty"`
	Format      string        `short:"f" long:"format"      description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Concurrency int           `short:"j" long:"concurrency" description:"References resolved at once" default:"1"`
	Timeout     time.Duration `short:"t" long:"timeout"     description:"Whole crawl timeout" default:"1m"`
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

	client, err := service.New(service.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	start := time.Now()
	objects, err := linkeddata.NewCrawler(client, opts.Concurrency).Crawl(ctx, opts.URI)
	if err != nil {
		log.Fatal().Err(err).Str("uri", opts.URI).Msg("Crawl failed")
	}

	if opts.Format == "yaml" {
		err = writeYAML(opts.Output, objects)
	} else {
		err = service.WriteJSON(opts.Output, objects)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}

	log.Info().
		Str("uri", opts.URI).
		Int("objects", len(objects)).
		Str("format", opts.Format).
		Dur("took", time.Since(start)).
		Msg("Crawl finished")
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
