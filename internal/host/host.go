// Package host is an in-memory map viewer: it keeps layers, panels and the
// cursor that extensions drive, for the HTTP server to expose to a browser.
package host

import (
	"errors"
	"sort"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/geolink/internal/extension"
	"github.com/woozymasta/geolink/internal/geo"
)

// Map holds layers by name, panels by id and the current cursor.
type Map struct {
	mu     sync.RWMutex
	layers map[string]*Layer
	order  []string
	panels map[string]*Panel
	cursor string
}

// New returns an empty map with the default cursor.
func New() *Map {
	return &Map{
		layers: make(map[string]*Layer),
		panels: make(map[string]*Panel),
		cursor: extension.CursorDefault,
	}
}

// AddLayer returns the layer called name, creating it when missing.
func (m *Map) AddLayer(name string) (extension.Layer, error) {
	if name == "" {
		return nil, errors.New("layer name is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.layers[name]; ok {
		return l, nil
	}
	l := &Layer{name: name}
	m.layers[name] = l
	m.order = append(m.order, name)
	return l, nil
}

// Layer returns the layer called name.
func (m *Map) Layer(name string) (*Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.layers[name]
	return l, ok
}

// Layers returns layer names in creation order.
func (m *Map) Layers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

func (m *Map) SetCursor(cursor string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = cursor
}

// Cursor returns the current cursor name.
func (m *Map) Cursor() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursor
}

// Panel returns the panel with the given id, creating a closed one when missing.
func (m *Map) Panel(id string) extension.Panel {
	return m.panel(id)
}

func (m *Map) panel(id string) *Panel {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.panels[id]
	if !ok {
		p = &Panel{id: id}
		m.panels[id] = p
	}
	return p
}

// Panels returns a snapshot of every panel, sorted by id.
func (m *Map) Panels() []PanelState {
	m.mu.RLock()
	ps := make([]*Panel, 0, len(m.panels))
	for _, p := range m.panels {
		ps = append(ps, p)
	}
	m.mu.RUnlock()

	out := make([]PanelState, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.State())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PanelState returns a snapshot of panel id.
func (m *Map) PanelState(id string) (PanelState, bool) {
	m.mu.RLock()
	p, ok := m.panels[id]
	m.mu.RUnlock()
	if !ok {
		return PanelState{}, false
	}
	return p.State(), true
}

// Layer is a named list of geometries with an attribute list.
type Layer struct {
	name string

	mu         sync.RWMutex
	geometries []geo.Geometry
	attributes []map[string]any
}

func (l *Layer) Name() string { return l.name }

func (l *Layer) AddGeometry(geometries ...geo.Geometry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.geometries = append(l.geometries, geometries...)
}

func (l *Layer) RemoveGeometry() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.geometries = nil
}

func (l *Layer) Geometry() []geo.Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]geo.Geometry(nil), l.geometries...)
}

func (l *Layer) Attributes() []map[string]any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]map[string]any(nil), l.attributes...)
}

func (l *Layer) SetAttributes(attrs []map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attributes = append([]map[string]any(nil), attrs...)
}

// GeoJSON returns the layer geometry as a FeatureCollection. When the layer
// has one attribute entry per geometry, entries become feature properties.
func (l *Layer) GeoJSON() *geojson.FeatureCollection {
	l.mu.RLock()
	geometries := append([]geo.Geometry(nil), l.geometries...)
	attrs := l.attributes
	l.mu.RUnlock()

	fc := geo.GeometryCollection(geometries)
	if len(attrs) == len(fc.Features) {
		for i, f := range fc.Features {
			for k, v := range attrs[i] {
				if _, taken := f.Properties[k]; !taken {
					f.Properties[k] = v
				}
			}
		}
	}
	return fc
}

// PanelState is a snapshot of a panel.
type PanelState struct {
	ID      string `json:"id"`
	Open    bool   `json:"open"`
	Content string `json:"content"`
}

// Panel is a side panel with HTML content.
type Panel struct {
	id string

	mu      sync.RWMutex
	open    bool
	content string
}

func (p *Panel) ID() string { return p.id }

func (p *Panel) Open() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
}

func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
}

func (p *Panel) SetContent(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = html
}

// State returns a snapshot of the panel.
func (p *Panel) State() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PanelState{ID: p.id, Open: p.open, Content: p.content}
}

var _ extension.Map = (*Map)(nil)
