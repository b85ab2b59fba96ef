package service

import (
	"context"

	"github.com/woozymasta/geolink/internal/geo"
	"github.com/woozymasta/geolink/internal/linkeddata"
)

// CatchmentProperties are the properties of a GSIP catchment feature.
type CatchmentProperties struct {
	URI      string `json:"uri"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Legal    string `json:"legal"`
	DrainsTo string `json:"drains-to"`
}

// Catchments fetches the catchment collection published at url.
func (c *Client) Catchments(ctx context.Context, url string) ([]geo.Feature[CatchmentProperties], error) {
	return Features[CatchmentProperties](ctx, c, url)
}

// LinkedFeatures fetches the GeoJSON behind a linked resource data link.
func (c *Client) LinkedFeatures(ctx context.Context, url string) ([]geo.Feature[HydroProperties], error) {
	return Features[HydroProperties](ctx, c, url)
}

// Graph fetches and decodes the graph document of uri. Documents are served
// from the cache when one is configured.
func (c *Client) Graph(ctx context.Context, uri string) (*linkeddata.Document, error) {
	if c.graphs != nil {
		if doc, ok := c.graphs.get(uri); ok {
			c.metrics.hit()
			return doc, nil
		}
	}

	data, err := c.get(ctx, "fetch graph", KindGraph, uri, "application/ld+json, application/json")
	if err != nil {
		return nil, err
	}

	doc, err := linkeddata.Decode(uri, data)
	if err != nil {
		c.metrics.fail(KindGraph)
		return nil, err
	}

	if c.graphs != nil {
		c.graphs.set(uri, doc)
	}
	return doc, nil
}

var _ linkeddata.Fetcher = (*Client)(nil)
