package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/woozymasta/geolink/internal/fault"
)

// Kind is the geometry type discriminant.
type Kind string

// Geometry kinds built from features. Other GeoJSON types are skipped.
const (
	KindPoint        Kind = "Point"
	KindPolygon      Kind = "Polygon"
	KindMultiPolygon Kind = "MultiPolygon"
	KindLineString   Kind = "LineString"
)

// Style is the render style handed to the host together with a geometry.
type Style struct {
	OutlineWidth float64 `yaml:"outline_width" json:"outlineWidth,omitempty"`
	FillColor    string  `yaml:"fill_color"    json:"fillColor,omitempty"`
	FillOpacity  float64 `yaml:"fill_opacity"  json:"fillOpacity,omitempty"`
	Colour       string  `yaml:"colour"        json:"colour,omitempty"`
	Icon         string  `yaml:"icon"          json:"icon,omitempty"`
}

// Geometry is a renderable shape owned by a host layer.
type Geometry interface {
	ID() ID
	Type() Kind
	Style() Style
	// Orb returns the shape as an orb geometry, used for GeoJSON output.
	Orb() orb.Geometry
}

// Point is a single position.
type Point struct {
	id    ID
	style Style
	XY    orb.Point
}

func (p *Point) ID() ID            { return p.id }
func (p *Point) Type() Kind        { return KindPoint }
func (p *Point) Style() Style      { return p.style }
func (p *Point) Orb() orb.Geometry { return p.XY }

// Polygon keeps the outer ring only; interior rings (holes) are dropped.
type Polygon struct {
	id    ID
	style Style
	Ring  orb.Ring
}

func (p *Polygon) ID() ID            { return p.id }
func (p *Polygon) Type() Kind        { return KindPolygon }
func (p *Polygon) Style() Style      { return p.style }
func (p *Polygon) Orb() orb.Geometry { return orb.Polygon{p.Ring} }

// MultiPolygon owns one Polygon per part. Parts carry their own ids.
type MultiPolygon struct {
	id       ID
	style    Style
	Polygons []*Polygon
}

func (m *MultiPolygon) ID() ID       { return m.id }
func (m *MultiPolygon) Type() Kind   { return KindMultiPolygon }
func (m *MultiPolygon) Style() Style { return m.style }

func (m *MultiPolygon) Orb() orb.Geometry {
	mp := make(orb.MultiPolygon, 0, len(m.Polygons))
	for _, p := range m.Polygons {
		mp = append(mp, orb.Polygon{p.Ring})
	}
	return mp
}

// LineString is an ordered path.
type LineString struct {
	id    ID
	style Style
	Path  orb.LineString
}

func (l *LineString) ID() ID            { return l.id }
func (l *LineString) Type() Kind        { return KindLineString }
func (l *LineString) Style() Style      { return l.style }
func (l *LineString) Orb() orb.Geometry { return l.Path }

// NewPoint builds a Point geometry.
func NewPoint(id ID, xy orb.Point, style Style) *Point {
	return &Point{id: id, XY: xy, style: style}
}

// NewPolygon builds a Polygon geometry from an outer ring.
func NewPolygon(id ID, ring orb.Ring, style Style) *Polygon {
	return &Polygon{id: id, Ring: ring, style: style}
}

// FeaturesToGeometries builds one geometry per feature, keeping the feature ID.
// MultiPolygon parts get fresh ids from seq. Features whose geometry type is not
// Point, Polygon, MultiPolygon or LineString produce nothing.
// A coordinate that cannot be read fails the whole call with fault.ErrConversion.
func FeaturesToGeometries[P any](features []Feature[P], style Style, seq *Sequence) ([]Geometry, error) {
	const op = "build geometry"
	seq = sequenceOrDefault(seq)

	geometries := make([]Geometry, 0, len(features))
	for _, f := range features {
		g, err := buildGeometry(f.ID, f.Geometry, style, seq)
		if err != nil {
			return nil, fault.Conversion(op, fmt.Errorf("feature %d: %w", f.ID, err))
		}
		if g != nil {
			geometries = append(geometries, g)
		}
	}

	return geometries, nil
}

func buildGeometry(id ID, raw RawGeometry, style Style, seq *Sequence) (Geometry, error) {
	switch Kind(raw.Type) {
	case KindPoint:
		var c []float64
		if err := json.Unmarshal(raw.Coordinates, &c); err != nil {
			return nil, err
		}
		xy, err := toPoint(c)
		if err != nil {
			return nil, err
		}
		return NewPoint(id, xy, style), nil

	case KindPolygon:
		ring, err := decodeOuterRing(raw.Coordinates)
		if err != nil {
			return nil, err
		}
		return NewPolygon(id, ring, style), nil

	case KindMultiPolygon:
		rings, err := decodePartRings(raw.Coordinates)
		if err != nil {
			return nil, err
		}
		mp := &MultiPolygon{id: id, style: style, Polygons: make([]*Polygon, 0, len(rings))}
		for _, ring := range rings {
			mp.Polygons = append(mp.Polygons, NewPolygon(seq.Next(), ring, style))
		}
		return mp, nil

	case KindLineString:
		var c [][]float64
		if err := json.Unmarshal(raw.Coordinates, &c); err != nil {
			return nil, err
		}
		path, err := toPoints(c)
		if err != nil {
			return nil, err
		}
		return &LineString{id: id, Path: orb.LineString(path), style: style}, nil
	}

	return nil, nil
}

func toPoint(c []float64) (orb.Point, error) {
	if len(c) < 2 {
		return orb.Point{}, fmt.Errorf("position has %d values, need 2", len(c))
	}
	return orb.Point{c[0], c[1]}, nil
}

func toPoints(cs [][]float64) ([]orb.Point, error) {
	pts := make([]orb.Point, 0, len(cs))
	for _, c := range cs {
		p, err := toPoint(c)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

var errNoRing = errors.New("polygon has no rings")

// decodeOuterRing reads ring 0 of Polygon coordinates.
func decodeOuterRing(coords json.RawMessage) (orb.Ring, error) {
	var rings [][][]float64
	if err := json.Unmarshal(coords, &rings); err != nil {
		return nil, err
	}
	if len(rings) == 0 {
		return nil, errNoRing
	}
	pts, err := toPoints(rings[0])
	if err != nil {
		return nil, err
	}
	return orb.Ring(pts), nil
}

// decodePartRings reads ring 0 of every MultiPolygon part.
func decodePartRings(coords json.RawMessage) ([]orb.Ring, error) {
	var parts [][][][]float64
	if err := json.Unmarshal(coords, &parts); err != nil {
		return nil, err
	}
	rings := make([]orb.Ring, 0, len(parts))
	for i, part := range parts {
		if len(part) == 0 {
			return nil, fmt.Errorf("part %d: %w", i, errNoRing)
		}
		pts, err := toPoints(part[0])
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		rings = append(rings, orb.Ring(pts))
	}
	return rings, nil
}
