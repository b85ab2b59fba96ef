// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/woozymasta/geolink/internal/geo"

	"gopkg.in/yaml.v3"
)

// Extension kinds.
const (
	KindCHyF      = "chyf"
	KindGeoconnex = "geoconnex"
)

// Defaults applied by Normalize.
const (
	DefaultName        = "Extensions"
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 1
	DefaultCacheSize   = 256
)

// Config represents the root configuration file structure.
type Config struct {
	Name       string      `yaml:"name" json:"name"`
	HTTP       HTTP        `yaml:"http" json:"-"`
	Crawl      Crawl       `yaml:"crawl" json:"-"`
	Extensions []Extension `yaml:"extensions" json:"extensions"`
}

// HTTP configures the outgoing client.
type HTTP struct {
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Crawl configures linked-data crawling.
type Crawl struct {
	// Concurrency is the number of references resolved at once; 1 resolves
	// them one after another.
	Concurrency int `yaml:"concurrency,omitempty"`
	// CacheSize is the number of graph documents kept; negative disables the cache.
	CacheSize int64 `yaml:"cache_size,omitempty"`
}

// Extension represents a single selectable extension.
type Extension struct {
	Style       *geo.Style `yaml:"style,omitempty" json:"style,omitempty"`
	Name        string     `yaml:"name" json:"name"`
	Kind        string     `yaml:"kind" json:"kind"`
	URL         string     `yaml:"url" json:"url"`
	RemoveHoles bool       `yaml:"remove_holes,omitempty" json:"remove_holes,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes and normalizes a YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize fills defaults and validates extensions.
func (c *Config) Normalize() error {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = DefaultTimeout
	}
	if c.Crawl.Concurrency <= 0 {
		c.Crawl.Concurrency = DefaultConcurrency
	}
	if c.Crawl.CacheSize == 0 {
		c.Crawl.CacheSize = DefaultCacheSize
	}
	if c.Crawl.CacheSize < 0 {
		c.Crawl.CacheSize = 0
	}

	if len(c.Extensions) == 0 {
		return errors.New("no extensions configured")
	}

	seen := make(map[string]bool, len(c.Extensions))
	for i, ext := range c.Extensions {
		switch {
		case ext.Name == "":
			return fmt.Errorf("extension %d: name is empty", i)
		case seen[ext.Name]:
			return fmt.Errorf("extension %q: duplicate name", ext.Name)
		case ext.URL == "":
			return fmt.Errorf("extension %q: url is empty", ext.Name)
		}
		switch ext.Kind {
		case KindCHyF, KindGeoconnex:
		default:
			return fmt.Errorf("extension %q: unknown kind %q", ext.Name, ext.Kind)
		}
		seen[ext.Name] = true
	}

	return nil
}

// Default returns the stock CHyF and Geoconnex endpoints.
func Default() *Config {
	const chyf = "http://dev.geogratis.gc.ca:8012/chyf"

	cfg := &Config{
		Extensions: []Extension{
			{Name: "Upstream", Kind: KindCHyF, URL: chyf + "/drainageArea/upstreamOf.json"},
			{Name: "Downstream", Kind: KindCHyF, URL: chyf + "/drainageArea/downstreamOf.json"},
			{Name: "Flowpath Upstream", Kind: KindCHyF, URL: chyf + "/eflowpath/upstreamOf.json"},
			{Name: "Flowpath Downstream", Kind: KindCHyF, URL: chyf + "/eflowpath/downstreamOf.json"},
			{Name: "GSIP", Kind: KindGeoconnex, URL: "https://geoconnex.ca/gsip/resources/catchment/catchments"},
		},
	}
	// stock entries always validate
	_ = cfg.Normalize()
	return cfg
}
