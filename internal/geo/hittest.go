package geo

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// LocateFeatureAtPoint returns the first feature, in slice order, whose outer
// ring contains pt, together with the geometry of the same id from geometries.
// Only Polygon and MultiPolygon features are tested; for a MultiPolygon a hit
// on ring 0 of any part counts. geom is nil when geometries holds no entry for
// the matched id, which happens when both slices do not come from the same
// conversion.
func LocateFeatureAtPoint[P any](pt orb.Point, features []Feature[P], geometries []Geometry) (f Feature[P], geom Geometry, ok bool) {
	for _, candidate := range features {
		rings, testable := outerRings(candidate.Geometry)
		if !testable || !ringsContain(rings, pt) {
			continue
		}
		for _, g := range geometries {
			if g.ID() == candidate.ID {
				return candidate, g, true
			}
		}
		return candidate, nil, true
	}
	return Feature[P]{}, nil, false
}

// Index correlates the features and geometries of one conversion cycle and
// answers hit-tests through an R-tree over the outer ring bounds.
type Index[P any] struct {
	features  []Feature[P]
	byFeature map[ID]int
	byID      map[ID]Geometry
	tree      *rtreego.Rtree
}

type indexedShape struct {
	pos   int
	rings []orb.Ring
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (s *indexedShape) Bounds() rtreego.Rect {
	return s.rect
}

// NewIndex indexes features and their geometries. Both slices must come from
// the same FeaturesToGeometries call.
func NewIndex[P any](features []Feature[P], geometries []Geometry) *Index[P] {
	idx := &Index[P]{
		features:  features,
		byFeature: make(map[ID]int, len(features)),
		byID:      make(map[ID]Geometry, len(geometries)),
		tree:      rtreego.NewTree(2, 25, 50),
	}

	for _, g := range geometries {
		idx.byID[g.ID()] = g
	}

	for i, f := range features {
		idx.byFeature[f.ID] = i

		rings, ok := outerRings(f.Geometry)
		if !ok {
			continue
		}
		usable := rings[:0:0]
		for _, r := range rings {
			if len(r) >= 3 {
				usable = append(usable, r)
			}
		}
		if len(usable) == 0 {
			continue
		}

		idx.tree.Insert(&indexedShape{
			pos:   i,
			rings: usable,
			rect:  boundToRect(ringsBound(usable)),
		})
	}

	return idx
}

// Len returns the number of indexed features.
func (idx *Index[P]) Len() int {
	return len(idx.features)
}

// Locate returns the first feature, in conversion order, containing pt.
func (idx *Index[P]) Locate(pt orb.Point) (Feature[P], Geometry, bool) {
	candidates := idx.tree.SearchIntersect(pointRect(pt))

	// rtree order is arbitrary; ties go to the earliest feature
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].(*indexedShape).pos < candidates[j].(*indexedShape).pos
	})

	for _, c := range candidates {
		shape := c.(*indexedShape)
		if !ringsContain(shape.rings, pt) {
			continue
		}
		f := idx.features[shape.pos]
		return f, idx.byID[f.ID], true
	}

	return Feature[P]{}, nil, false
}

// Geometry returns the geometry built for the feature with the given id.
func (idx *Index[P]) Geometry(id ID) (Geometry, bool) {
	g, ok := idx.byID[id]
	return g, ok
}

// FeatureForGeometry returns the feature a geometry was built from.
func (idx *Index[P]) FeatureForGeometry(g Geometry) (Feature[P], bool) {
	if g == nil {
		return Feature[P]{}, false
	}
	i, ok := idx.byFeature[g.ID()]
	if !ok {
		return Feature[P]{}, false
	}
	return idx.features[i], true
}
