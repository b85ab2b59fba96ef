package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two overlapping squares, a point, and a multipolygon with parts far apart.
const hitFixture = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"name":"west"},"geometry":{"type":"Polygon",
    "coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
  {"type":"Feature","properties":{"name":"east"},"geometry":{"type":"Polygon",
    "coordinates":[[[5,0],[15,0],[15,10],[5,10],[5,0]]]}},
  {"type":"Feature","properties":{"name":"pin"},"geometry":{"type":"Point",
    "coordinates":[20,20]}},
  {"type":"Feature","properties":{"name":"islands"},"geometry":{"type":"MultiPolygon",
    "coordinates":[[[[30,30],[32,30],[32,32],[30,32],[30,30]]],
                   [[[40,40],[42,40],[42,42],[40,42],[40,40]]]]}}
]}`

func hitFeatures(t *testing.T) ([]Feature[props], []Geometry) {
	t.Helper()
	var seq Sequence
	features, err := FeaturesFromGeoJSON[props]([]byte(hitFixture), &seq)
	require.NoError(t, err)
	geometries, err := FeaturesToGeometries(features, Style{}, &seq)
	require.NoError(t, err)
	return features, geometries
}

func TestLocateFeatureAtPoint(t *testing.T) {
	features, geometries := hitFeatures(t)
	idx := NewIndex(features, geometries)

	tests := []struct {
		name  string
		point orb.Point
		want  string
	}{
		{"outside everything", orb.Point{-5, -5}, ""},
		{"only west", orb.Point{2, 5}, "west"},
		{"only east", orb.Point{12, 5}, "east"},
		{"overlap goes to first feature", orb.Point{7, 5}, "west"},
		{"on a point feature", orb.Point{20, 20}, ""},
		{"second multipolygon part", orb.Point{41, 41}, "islands"},
		{"between multipolygon parts", orb.Point{35, 35}, ""},
		{"east max-x edge", orb.Point{15, 5}, "east"},
		{"shared max-y edge", orb.Point{7, 10}, "west"},
		{"west max-x edge inside east", orb.Point{10, 5}, "west"},
		{"multipolygon max corner", orb.Point{42, 42}, "islands"},
		{"multipolygon max-x edge", orb.Point{42, 41}, "islands"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, g, ok := LocateFeatureAtPoint(tt.point, features, geometries)
			fi, gi, oki := idx.Locate(tt.point)

			if tt.want == "" {
				assert.False(t, ok)
				assert.Nil(t, g)
				assert.False(t, oki)
				assert.Nil(t, gi)
				return
			}

			require.True(t, ok)
			assert.Equal(t, tt.want, f.Properties.Name)
			require.NotNil(t, g)
			assert.Equal(t, f.ID, g.ID())

			require.True(t, oki)
			assert.Equal(t, f.ID, fi.ID)
			assert.Equal(t, g, gi)
		})
	}
}

func TestLocateOnSharedBorder(t *testing.T) {
	const adjacent = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"name":"left"},"geometry":{"type":"Polygon",
    "coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
  {"type":"Feature","properties":{"name":"right"},"geometry":{"type":"Polygon",
    "coordinates":[[[10,0],[20,0],[20,10],[10,10],[10,0]]]}}
]}`

	var seq Sequence
	features, err := FeaturesFromGeoJSON[props]([]byte(adjacent), &seq)
	require.NoError(t, err)
	geometries, err := FeaturesToGeometries(features, Style{}, &seq)
	require.NoError(t, err)
	idx := NewIndex(features, geometries)

	tests := []struct {
		name  string
		point orb.Point
		want  string
	}{
		{"shared edge", orb.Point{10, 5}, "left"},
		{"shared corner", orb.Point{10, 10}, "left"},
		{"right max-x edge", orb.Point{20, 5}, "right"},
		{"right max-y edge", orb.Point{15, 10}, "right"},
		{"just past the right edge", orb.Point{20.001, 5}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, ok := LocateFeatureAtPoint(tt.point, features, geometries)
			fi, _, oki := idx.Locate(tt.point)

			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, ok, oki)
			if tt.want != "" {
				assert.Equal(t, tt.want, f.Properties.Name)
				assert.Equal(t, tt.want, fi.Properties.Name)
			}
		})
	}
}

func TestLocateFeatureAtPointMismatchedGeometries(t *testing.T) {
	features, _ := hitFeatures(t)
	_, other := hitFeatures(t)

	f, g, ok := LocateFeatureAtPoint(orb.Point{2, 5}, features, other)
	assert.True(t, ok)
	assert.Equal(t, "west", f.Properties.Name)
	assert.Nil(t, g)
}

func TestIndexLookups(t *testing.T) {
	features, geometries := hitFeatures(t)
	idx := NewIndex(features, geometries)

	assert.Equal(t, 4, idx.Len())

	for i, g := range geometries {
		f, ok := idx.FeatureForGeometry(g)
		require.True(t, ok)
		assert.Equal(t, features[i].ID, f.ID)

		got, ok := idx.Geometry(f.ID)
		require.True(t, ok)
		assert.Same(t, g, got)
	}

	_, ok := idx.FeatureForGeometry(nil)
	assert.False(t, ok)
	_, ok = idx.Geometry(0)
	assert.False(t, ok)
}

func TestHitTestable(t *testing.T) {
	assert.True(t, HitTestable("Polygon"))
	assert.True(t, HitTestable("MultiPolygon"))
	assert.False(t, HitTestable("Point"))
	assert.False(t, HitTestable("LineString"))
	assert.False(t, HitTestable(""))
}
