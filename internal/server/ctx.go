package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geolink/internal/config"
	"github.com/woozymasta/geolink/internal/extension"
	"github.com/woozymasta/geolink/internal/geo"
	"github.com/woozymasta/geolink/internal/host"
	"github.com/woozymasta/geolink/internal/linkeddata"
	"github.com/woozymasta/geolink/internal/service"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config   *config.Config
	Manager  *extension.Manager
	Host     *host.Map
	Registry *prometheus.Registry
}

// NewServerContext builds the extensions described by cfg on a fresh host
// map. Remote calls go through client.
func NewServerContext(cfg *config.Config, client *service.Client) (*ServerContext, error) {
	log.Info().Int("config_extensions_count", len(cfg.Extensions)).Msg("Initializing server context")

	h := host.New()
	manager := extension.NewManager(cfg.Name, h).
		WithLogger(log.With().Str("component", "manager").Str("manager", cfg.Name).Logger())
	crawler := linkeddata.NewCrawler(client, cfg.Crawl.Concurrency).
		WithLogger(log.With().Str("component", "crawler").Int("concurrency", cfg.Crawl.Concurrency).Logger())

	// one sequence keeps geometry ids unique across every layer of the map
	seq := &geo.Sequence{}

	exts := make([]extension.Extension, 0, len(cfg.Extensions))
	for _, ec := range cfg.Extensions {
		switch ec.Kind {
		case config.KindCHyF:
			ext := extension.NewCHyF(ec.Name, ec.URL, client).WithSequence(seq)
			if ec.Style != nil {
				ext.WithStyle(*ec.Style)
			}
			ext.SetRemoveHoles(ec.RemoveHoles)
			exts = append(exts, ext)

		case config.KindGeoconnex:
			ext := extension.NewGeoconnex(ec.Name, ec.URL, client, crawler).WithSequence(seq)
			if ec.Style != nil {
				ext.WithStyle(*ec.Style)
			}
			exts = append(exts, ext)

		default:
			return nil, fmt.Errorf("extension %q: unknown kind %q", ec.Name, ec.Kind)
		}

		log.Debug().
			Str("extension", ec.Name).
			Str("kind", ec.Kind).
			Str("url", ec.URL).
			Msg("Extension configured")
	}

	if err := manager.AddExtensions(exts...); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := client.Metrics().Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	log.Info().
		Int("extensions_count", len(exts)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:   cfg,
		Manager:  manager,
		Host:     h,
		Registry: reg,
	}, nil
}

// Routes returns the API handler wrapped in the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/extensions", s.HandleExtensionsList)
	mux.HandleFunc("POST /api/extensions/{name}/select", s.HandleSelect)
	mux.HandleFunc("POST /api/extensions/{name}/clear", s.HandleClear)
	mux.HandleFunc("POST /api/click", s.HandleClick)
	mux.HandleFunc("POST /api/remove-holes", s.HandleRemoveHoles)
	mux.HandleFunc("GET /api/layers/{name}", s.HandleLayer)
	mux.HandleFunc("GET /api/panels", s.HandlePanels)
	mux.HandleFunc("GET /api/panels/{id}", s.HandlePanel)
	mux.HandleFunc("POST /api/linked/drill", s.HandleLinkedDrill)
	mux.HandleFunc("POST /api/linked/data", s.HandleLinkedData)
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))

	return RequestLogger(mux)
}
