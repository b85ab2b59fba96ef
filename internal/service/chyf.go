package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/woozymasta/geolink/internal/geo"
)

// HydroProperties are the free-form properties of a CHyF feature
// (area, names, identifiers; they vary per endpoint).
type HydroProperties = map[string]any

// PointQuery builds a CHyF point query on endpoint.
func PointQuery(endpoint string, pt orb.Point, removeHoles bool) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spoint=%s,%s&removeHoles=%t",
		endpoint, sep,
		strconv.FormatFloat(pt[0], 'f', -1, 64),
		strconv.FormatFloat(pt[1], 'f', -1, 64),
		removeHoles,
	)
}

// FeaturesByPoint returns the CHyF features related to pt, such as the
// drainage area upstream of it.
func (c *Client) FeaturesByPoint(ctx context.Context, endpoint string, pt orb.Point, removeHoles bool) ([]geo.Feature[HydroProperties], error) {
	return Features[HydroProperties](ctx, c, PointQuery(endpoint, pt, removeHoles))
}

// Features fetches a GeoJSON FeatureCollection or Feature from url.
func Features[P any](ctx context.Context, c *Client, url string) ([]geo.Feature[P], error) {
	data, err := c.get(ctx, "fetch features", KindFeatures, url, "application/geo+json, application/json")
	if err != nil {
		return nil, err
	}

	features, err := geo.FeaturesFromGeoJSON[P](data, c.seq)
	if err != nil {
		c.metrics.fail(KindFeatures)
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return features, nil
}
