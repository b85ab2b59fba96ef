package extension

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"

	"github.com/woozymasta/geolink/internal/fault"
	"github.com/woozymasta/geolink/internal/geo"
)

// Extension is one selectable tool of a Manager.
type Extension interface {
	Name() string
	URL() string
	// Kind names the extension family, such as "chyf".
	Kind() string
	RenderStyle() geo.Style
	// Persist reports whether the extension stays selected after a map click.
	Persist() bool
	// ActionButton runs when the extension gets selected.
	ActionButton(ctx context.Context) error
	// ActionMap runs on a map click while the extension is selected.
	ActionMap(ctx context.Context, pt orb.Point) error
	// Bind attaches the extension to its host layer. active reports whether
	// the extension is still the selected one.
	Bind(host Map, layer Layer, active func() bool)
	Layer() Layer
	RemoveGeometries()
}

// cycle numbers render attempts so a slow attempt cannot overwrite a newer one.
type cycle struct {
	n atomic.Uint64
}

func (c *cycle) begin() uint64 {
	return c.n.Add(1)
}

func (c *cycle) current(token uint64) bool {
	return c.n.Load() == token
}

// Base carries the state shared by every extension: its name, endpoint,
// host layer and the render cycle guard.
type Base struct {
	name string
	url  string

	mu     sync.Mutex
	host   Map
	layer  Layer
	active func() bool

	// commits serializes the check-and-apply of render cycles
	commits sync.Mutex
	render  cycle
}

func (b *Base) Name() string { return b.name }
func (b *Base) URL() string  { return b.url }

func (b *Base) Bind(host Map, layer Layer, active func() bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.host = host
	b.layer = layer
	b.active = active
}

func (b *Base) Layer() Layer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.layer
}

// Host returns the bound map, nil before Bind.
func (b *Base) Host() Map {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.host
}

// Geometries returns the geometry currently on the layer.
func (b *Base) Geometries() []geo.Geometry {
	if l := b.Layer(); l != nil {
		return l.Geometry()
	}
	return nil
}

// Attributes returns the layer attribute list.
func (b *Base) Attributes() []map[string]any {
	if l := b.Layer(); l != nil {
		return l.Attributes()
	}
	return nil
}

// SetAttributes replaces the layer attribute list.
func (b *Base) SetAttributes(attrs []map[string]any) error {
	l := b.Layer()
	if l == nil {
		return fault.Precondition("set attributes", "extension "+b.name+" has no layer")
	}
	l.SetAttributes(attrs)
	return nil
}

// SetGeometries replaces the layer geometry with geometries.
func (b *Base) SetGeometries(geometries []geo.Geometry) error {
	l := b.Layer()
	if l == nil {
		return fault.Precondition("render", "extension "+b.name+" has no layer")
	}
	replaceGeometry(l, geometries)
	return nil
}

// RemoveGeometries clears the layer. It also invalidates pending renders.
func (b *Base) RemoveGeometries() {
	b.commits.Lock()
	defer b.commits.Unlock()

	b.render.begin()
	if l := b.Layer(); l != nil {
		l.RemoveGeometry()
	}
}

// beginRender starts a render cycle and returns its token.
func (b *Base) beginRender() uint64 {
	return b.render.begin()
}

// commit runs apply when token is still the latest render cycle and the
// extension is still selected. It reports whether apply ran.
func (b *Base) commit(token uint64, apply func() error) (bool, error) {
	b.mu.Lock()
	active := b.active
	b.mu.Unlock()

	b.commits.Lock()
	defer b.commits.Unlock()

	if !b.render.current(token) || (active != nil && !active()) {
		return false, nil
	}
	return true, apply()
}

func replaceGeometry(l Layer, geometries []geo.Geometry) {
	if len(l.Geometry()) != 0 {
		l.RemoveGeometry()
	}
	l.AddGeometry(geometries...)
}
