// Package extension drives the map extensions: each one turns a button press
// or a map click into a fetch, conversion and render cycle on its own layer.
package extension

import (
	"github.com/woozymasta/geolink/internal/geo"
)

// Cursor names understood by the host map.
const (
	CursorDefault   = "default"
	CursorCrosshair = "crosshair"
)

// Layer is a host map layer holding rendered geometry.
type Layer interface {
	Name() string
	AddGeometry(geometries ...geo.Geometry)
	RemoveGeometry()
	Geometry() []geo.Geometry
	Attributes() []map[string]any
	SetAttributes(attrs []map[string]any)
}

// Panel is a host side panel.
type Panel interface {
	ID() string
	Open()
	Close()
	SetContent(html string)
}

// Map is the host map viewer.
type Map interface {
	// AddLayer returns the layer called name, creating it when missing.
	AddLayer(name string) (Layer, error)
	SetCursor(cursor string)
	// Panel returns the panel with the given id, creating it when missing.
	Panel(id string) Panel
}
