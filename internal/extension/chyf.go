package extension

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geolink/internal/geo"
	"github.com/woozymasta/geolink/internal/service"
)

// KindCHyF is the hydrography extension family.
const KindCHyF = "chyf"

// DefaultStyle is the render style of fetched areas.
var DefaultStyle = geo.Style{
	OutlineWidth: 0,
	FillColor:    "#000000",
	FillOpacity:  0.3,
}

// PointSource returns hydrography features related to a point.
type PointSource interface {
	FeaturesByPoint(ctx context.Context, endpoint string, pt orb.Point, removeHoles bool) ([]geo.Feature[service.HydroProperties], error)
}

// CHyF queries a hydrography endpoint with the clicked point and renders the
// returned features. It deselects itself after each successful click.
type CHyF struct {
	Base

	src         PointSource
	seq         *geo.Sequence
	style       geo.Style
	removeHoles atomic.Bool

	mu       sync.Mutex
	features []geo.Feature[service.HydroProperties]
}

// NewCHyF returns a CHyF extension named name querying endpoint.
func NewCHyF(name, endpoint string, src PointSource) *CHyF {
	return &CHyF{
		Base:  Base{name: name, url: endpoint},
		src:   src,
		style: DefaultStyle,
	}
}

// WithStyle sets the render style.
func (c *CHyF) WithStyle(s geo.Style) *CHyF {
	c.style = s
	return c
}

// WithSequence sets the id sequence used for conversions.
func (c *CHyF) WithSequence(seq *geo.Sequence) *CHyF {
	c.seq = seq
	return c
}

func (c *CHyF) Kind() string           { return KindCHyF }
func (c *CHyF) RenderStyle() geo.Style { return c.style }
func (c *CHyF) Persist() bool          { return false }

// SetRemoveHoles chooses whether the service fills polygon holes.
func (c *CHyF) SetRemoveHoles(v bool) { c.removeHoles.Store(v) }

// RemoveHoles reports the current remove-holes setting.
func (c *CHyF) RemoveHoles() bool { return c.removeHoles.Load() }

// ActionButton switches the host cursor to a crosshair.
func (c *CHyF) ActionButton(ctx context.Context) error {
	if h := c.Host(); h != nil {
		h.SetCursor(CursorCrosshair)
	}
	return nil
}

// ActionMap fetches the features for pt and renders them, replacing the
// previous result. The layer is left untouched when any step fails.
func (c *CHyF) ActionMap(ctx context.Context, pt orb.Point) error {
	token := c.beginRender()

	features, err := c.src.FeaturesByPoint(ctx, c.url, pt, c.RemoveHoles())
	if err != nil {
		return err
	}

	geometries, err := geo.FeaturesToGeometries(features, c.style, c.seq)
	if err != nil {
		return err
	}

	attrs := make([]map[string]any, 0, len(features))
	for _, f := range features {
		attrs = append(attrs, f.Properties)
	}

	applied, err := c.commit(token, func() error {
		if err := c.SetAttributes(attrs); err != nil {
			return err
		}
		if err := c.SetGeometries(geometries); err != nil {
			return err
		}
		c.mu.Lock()
		c.features = features
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		log.Debug().Str("extension", c.name).Msg("Dropped stale render")
		return nil
	}

	log.Info().
		Str("extension", c.name).
		Float64("x", pt[0]).
		Float64("y", pt[1]).
		Int("features", len(features)).
		Int("geometries", len(geometries)).
		Msg("Rendered features")

	return nil
}

// Features returns the features of the last rendered click.
func (c *CHyF) Features() []geo.Feature[service.HydroProperties] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.features
}
