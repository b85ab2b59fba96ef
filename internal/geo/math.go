package geo

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// HitTestable reports whether a geometry type takes part in point hit-testing.
// Only polygon shapes do; points and lines never contain a click.
func HitTestable(geometryType string) bool {
	switch Kind(geometryType) {
	case KindPolygon, KindMultiPolygon:
		return true
	}
	return false
}

// outerRings returns ring 0 of a Polygon, or ring 0 of each MultiPolygon part.
// ok is false for types that are not HitTestable or for coordinates that
// cannot be read.
func outerRings(raw RawGeometry) (rings []orb.Ring, ok bool) {
	if !HitTestable(raw.Type) {
		return nil, false
	}

	if Kind(raw.Type) == KindPolygon {
		ring, err := decodeOuterRing(raw.Coordinates)
		if err != nil {
			return nil, false
		}
		return []orb.Ring{ring}, true
	}

	rs, err := decodePartRings(raw.Coordinates)
	if err != nil {
		return nil, false
	}
	return rs, true
}

// ringsContain runs the ray-casting test against each ring.
func ringsContain(rings []orb.Ring, pt orb.Point) bool {
	for _, r := range rings {
		if len(r) < 3 {
			continue
		}
		if planar.RingContains(r, pt) {
			return true
		}
	}
	return false
}

// R-tree rectangles need non-zero sides, and rtreego does not count rects
// that only touch as intersecting. Every rect is grown by rectEpsilon on each
// side so points on a ring edge still reach the containment test.
const rectEpsilon = 1e-9

func boundToRect(b orb.Bound) rtreego.Rect {
	lo := rtreego.Point{b.Min[0] - rectEpsilon, b.Min[1] - rectEpsilon}
	size := []float64{
		b.Max[0] - b.Min[0] + 2*rectEpsilon,
		b.Max[1] - b.Min[1] + 2*rectEpsilon,
	}
	rect, _ := rtreego.NewRect(lo, size)
	return rect
}

func ringsBound(rings []orb.Ring) orb.Bound {
	b := rings[0].Bound()
	for _, r := range rings[1:] {
		b = b.Union(r.Bound())
	}
	return b
}

func pointRect(pt orb.Point) rtreego.Rect {
	return boundToRect(orb.Bound{Min: pt, Max: pt})
}
