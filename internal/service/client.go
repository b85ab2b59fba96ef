// Package service talks to the remote hydrography and catchment endpoints.
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geolink/internal/fault"
	"github.com/woozymasta/geolink/internal/geo"
)

// maxBody caps a single response.
const maxBody = 64 << 20

// Client fetches features and graph documents over HTTP.
type Client struct {
	http    *http.Client
	seq     *geo.Sequence
	graphs  *graphCache
	metrics *Metrics
}

// Options configure a Client. Zero values pick the defaults.
type Options struct {
	HTTP      *http.Client
	Timeout   time.Duration
	CacheSize int64
	Sequence  *geo.Sequence
	Metrics   *Metrics
}

// New builds a Client. A CacheSize of zero disables the graph document cache.
func New(opts Options) (*Client, error) {
	hc := opts.HTTP
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	c := &Client{
		http:    hc,
		seq:     opts.Sequence,
		metrics: opts.Metrics,
	}
	if c.metrics == nil {
		c.metrics = NewMetrics()
	}

	if opts.CacheSize > 0 {
		cache, err := newGraphCache(opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("graph cache: %w", err)
		}
		c.graphs = cache
	}

	return c, nil
}

// Metrics returns the collectors updated by the client.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// Close releases the graph cache.
func (c *Client) Close() {
	if c.graphs != nil {
		c.graphs.close()
	}
}

// get downloads url. Transport errors and non-200 statuses are reported as
// fault.ErrResourceNotFound.
func (c *Client) get(ctx context.Context, op, kind, url, accept string) ([]byte, error) {
	start := time.Now()
	defer func() { c.metrics.observe(kind, time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.metrics.fail(kind)
		return nil, fault.NotFound(op, url, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.fail(kind)
		return nil, fault.NotFound(op, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.metrics.fail(kind)
		return nil, fault.NotFound(op, url, fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		c.metrics.fail(kind)
		return nil, fault.NotFound(op, url, err)
	}

	log.Debug().
		Str("url", url).
		Int("bytes", len(data)).
		Dur("took", time.Since(start)).
		Msg("Fetched")

	return data, nil
}
