package extension

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geolink/internal/fault"
	"github.com/woozymasta/geolink/internal/geo"
	"github.com/woozymasta/geolink/internal/linkeddata"
	"github.com/woozymasta/geolink/internal/service"
)

// KindGeoconnex is the catchment and linked-data extension family.
const KindGeoconnex = "geoconnex"

// LinkedDataLayer holds the geometry of linked resources.
const LinkedDataLayer = "LinkedData"

// LinkedStyle is the render style of linked resource geometry.
var LinkedStyle = geo.Style{
	Colour: "#9e0e0e",
	Icon:   "M255,0C114.75,0,0,114.75,0,255s114.75,255,255,255s255-114.75,255-255S395.25,0,255,0z M255,459c-112.2,0-204-91.8-204-204S142.8,51,255,51s204,91.8,204,204S367.2,459,255,459z",
}

// CatchmentSource fetches catchment collections and linked resource data.
type CatchmentSource interface {
	Catchments(ctx context.Context, url string) ([]geo.Feature[service.CatchmentProperties], error)
	LinkedFeatures(ctx context.Context, url string) ([]geo.Feature[service.HydroProperties], error)
}

// Crawler expands a linked-data node.
type Crawler interface {
	Crawl(ctx context.Context, uri string) ([]linkeddata.Object, error)
}

// Geoconnex renders every catchment when selected, then resolves clicks to
// a catchment and crawls its linked data into the linked-data panel. It stays
// selected across clicks.
type Geoconnex struct {
	Base

	src     CatchmentSource
	crawler Crawler
	seq     *geo.Sequence
	style   geo.Style

	// panel serializes drills; linked serializes ShowData renders
	panel  cycle
	linked cycle

	mu      sync.Mutex
	index   *geo.Index[service.CatchmentProperties]
	objects []linkeddata.Object
}

// NewGeoconnex returns a Geoconnex extension named name listing catchments at url.
func NewGeoconnex(name, url string, src CatchmentSource, crawler Crawler) *Geoconnex {
	return &Geoconnex{
		Base:    Base{name: name, url: url},
		src:     src,
		crawler: crawler,
		style:   DefaultStyle,
	}
}

// WithStyle sets the catchment render style.
func (g *Geoconnex) WithStyle(s geo.Style) *Geoconnex {
	g.style = s
	return g
}

// WithSequence sets the id sequence used for conversions.
func (g *Geoconnex) WithSequence(seq *geo.Sequence) *Geoconnex {
	g.seq = seq
	return g
}

func (g *Geoconnex) Kind() string           { return KindGeoconnex }
func (g *Geoconnex) RenderStyle() geo.Style { return g.style }
func (g *Geoconnex) Persist() bool          { return true }

// ActionButton fetches the full catchment collection and renders it.
func (g *Geoconnex) ActionButton(ctx context.Context) error {
	token := g.beginRender()

	features, err := g.src.Catchments(ctx, g.url)
	if err != nil {
		return err
	}
	geometries, err := geo.FeaturesToGeometries(features, g.style, g.seq)
	if err != nil {
		return err
	}
	idx := geo.NewIndex(features, geometries)

	applied, err := g.commit(token, func() error {
		if err := g.SetGeometries(geometries); err != nil {
			return err
		}
		g.mu.Lock()
		g.index = idx
		g.mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		log.Debug().Str("extension", g.name).Msg("Dropped stale catchments")
		return nil
	}

	log.Info().
		Str("extension", g.name).
		Int("catchments", idx.Len()).
		Msg("Rendered catchments")

	return nil
}

// ActionMap finds the catchment under pt, shows it in the info panel and
// crawls its linked data. A click outside every catchment does nothing.
func (g *Geoconnex) ActionMap(ctx context.Context, pt orb.Point) error {
	f, ok, err := g.Catchment(pt)
	if err != nil || !ok {
		return err
	}

	info, err := InfoHTML(f.Properties)
	if err != nil {
		return err
	}
	if h := g.Host(); h != nil {
		p := h.Panel(InfoPanel)
		p.SetContent(info)
		h.Panel(LinkedDataPanel).Close()
		p.Open()
	}

	if f.Properties.URI == "" {
		return fault.Malformed("locate catchment", "", fmt.Errorf("catchment %d has no uri", f.ID))
	}
	return g.Drill(ctx, f.Properties.URI)
}

// Catchment hit-tests pt against the rendered catchments.
func (g *Geoconnex) Catchment(pt orb.Point) (geo.Feature[service.CatchmentProperties], bool, error) {
	g.mu.Lock()
	idx := g.index
	g.mu.Unlock()

	if idx == nil {
		return geo.Feature[service.CatchmentProperties]{}, false,
			fault.Precondition("locate catchment", "catchments of "+g.name+" are not loaded")
	}

	f, _, ok := idx.Locate(pt)
	return f, ok, nil
}

// CatchmentForGeometry returns the catchment a rendered geometry came from.
func (g *Geoconnex) CatchmentForGeometry(geom geo.Geometry) (geo.Feature[service.CatchmentProperties], bool) {
	g.mu.Lock()
	idx := g.index
	g.mu.Unlock()

	if idx == nil {
		return geo.Feature[service.CatchmentProperties]{}, false
	}
	return idx.FeatureForGeometry(geom)
}

// Drill crawls uri and replaces the linked-data panel content with the
// result. Linked geometry from a previous node is cleared.
func (g *Geoconnex) Drill(ctx context.Context, uri string) error {
	h := g.Host()
	if h == nil {
		return fault.Precondition("drill", "extension "+g.name+" is not bound")
	}

	token := g.panel.begin()

	objects, err := g.crawler.Crawl(ctx, uri)
	if err != nil {
		return err
	}
	content, err := LinkedDataHTML(objects)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.panel.current(token) {
		log.Debug().Str("extension", g.name).Str("uri", uri).Msg("Dropped stale crawl")
		return nil
	}

	layer, err := h.AddLayer(LinkedDataLayer)
	if err != nil {
		return err
	}
	g.linked.begin()
	layer.RemoveGeometry()

	g.objects = objects
	panel := h.Panel(LinkedDataPanel)
	panel.SetContent(content)
	panel.Open()
	h.Panel(InfoPanel).Close()

	log.Info().
		Str("extension", g.name).
		Str("uri", uri).
		Int("objects", len(objects)).
		Msg("Crawled linked data")

	return nil
}

// LinkedObjects returns the last crawl result shown in the panel.
func (g *Geoconnex) LinkedObjects() []linkeddata.Object {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.objects
}

// ShowData fetches one of the data links of a crawl result and renders it on
// the linked-data layer, replacing what was there.
func (g *Geoconnex) ShowData(ctx context.Context, dataURI string) error {
	h := g.Host()
	if h == nil {
		return fault.Precondition("show data", "extension "+g.name+" is not bound")
	}

	token := g.linked.begin()

	features, err := g.src.LinkedFeatures(ctx, dataURI)
	if err != nil {
		return err
	}
	geometries, err := geo.FeaturesToGeometries(features, LinkedStyle, g.seq)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.linked.current(token) {
		log.Debug().Str("extension", g.name).Str("uri", dataURI).Msg("Dropped stale linked data")
		return nil
	}

	layer, err := h.AddLayer(LinkedDataLayer)
	if err != nil {
		return err
	}
	replaceGeometry(layer, geometries)

	log.Info().
		Str("extension", g.name).
		Str("uri", dataURI).
		Int("geometries", len(geometries)).
		Msg("Rendered linked data")

	return nil
}

// RemoveGeometries clears the catchments and the linked-data layer.
func (g *Geoconnex) RemoveGeometries() {
	g.Base.RemoveGeometries()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.index = nil
	g.linked.begin()
	if h := g.Host(); h != nil {
		if layer, err := h.AddLayer(LinkedDataLayer); err == nil {
			layer.RemoveGeometry()
		}
	}
}
