package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/geolink/internal/fault"
)

func decode(t *testing.T, data string, seq *Sequence) []Feature[map[string]any] {
	t.Helper()
	features, err := FeaturesFromGeoJSON[map[string]any]([]byte(data), seq)
	require.NoError(t, err)
	return features
}

func TestFeaturesToGeometriesPolygon(t *testing.T) {
	features := decode(t, `{"type":"Feature","properties":{},"geometry":{"type":"Polygon",
		"coordinates":[[[-73.13263,46.0267],[-73.13267,46.02665],[-73.13278,46.02646]]]}}`, nil)

	style := Style{OutlineWidth: 2, FillColor: "#0000ff", FillOpacity: 0.3}
	geometries, err := FeaturesToGeometries(features, style, nil)
	require.NoError(t, err)
	require.Len(t, geometries, 1)

	poly, ok := geometries[0].(*Polygon)
	require.True(t, ok)
	assert.Equal(t, features[0].ID, poly.ID())
	assert.Equal(t, KindPolygon, poly.Type())
	assert.Equal(t, style, poly.Style())
	assert.Equal(t, orb.Point{-73.13263, 46.0267}, poly.Ring[0])
	assert.Equal(t, orb.Point{-73.13278, 46.02646}, poly.Ring[len(poly.Ring)-1])
}

func TestFeaturesToGeometriesDropsHoles(t *testing.T) {
	features := decode(t, `{"type":"Feature","geometry":{"type":"Polygon","coordinates":[
		[[0,0],[10,0],[10,10],[0,10],[0,0]],
		[[4,4],[6,4],[6,6],[4,6],[4,4]]]}}`, nil)

	geometries, err := FeaturesToGeometries(features, Style{}, nil)
	require.NoError(t, err)
	require.Len(t, geometries, 1)

	poly := geometries[0].(*Polygon)
	assert.Len(t, poly.Ring, 5)
	assert.Equal(t, orb.Polygon{poly.Ring}, poly.Orb())
}

func TestFeaturesToGeometriesMultiPolygon(t *testing.T) {
	var seq Sequence
	features := decode(t, `{"type":"Feature","geometry":{"type":"MultiPolygon","coordinates":[
		[[[1,1],[2,1],[2,2],[1,1]]],
		[[[5,5],[6,5],[6,6],[5,5]], [[5.2,5.2],[5.4,5.2],[5.4,5.4],[5.2,5.2]]]]}}`, &seq)

	geometries, err := FeaturesToGeometries(features, Style{Colour: "red"}, &seq)
	require.NoError(t, err)
	require.Len(t, geometries, 1)

	mp, ok := geometries[0].(*MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, features[0].ID, mp.ID())
	require.Len(t, mp.Polygons, 2)
	assert.Equal(t, orb.Point{1, 1}, mp.Polygons[0].Ring[0])
	assert.Equal(t, orb.Point{5, 5}, mp.Polygons[1].Ring[0])

	ids := map[ID]bool{mp.ID(): true}
	for _, p := range mp.Polygons {
		assert.False(t, ids[p.ID()], "part id %d reused", p.ID())
		ids[p.ID()] = true
		assert.Equal(t, "red", p.Style().Colour)
	}
}

func TestFeaturesToGeometriesPointAndLine(t *testing.T) {
	features := decode(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[-73.5,45.5,12]}},
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,2],[3,4]]}}]}`, nil)

	geometries, err := FeaturesToGeometries(features, Style{}, nil)
	require.NoError(t, err)
	require.Len(t, geometries, 2)

	pt := geometries[0].(*Point)
	assert.Equal(t, orb.Point{-73.5, 45.5}, pt.XY)
	assert.Equal(t, features[0].ID, pt.ID())

	line := geometries[1].(*LineString)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 2}, {3, 4}}, line.Path)
	assert.Equal(t, features[1].ID, line.ID())
}

func TestFeaturesToGeometriesSkipsUnknownTypes(t *testing.T) {
	features := decode(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"MultiLineString","coordinates":"whatever"}},
		{"type":"Feature","geometry":null},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}}]}`, nil)

	geometries, err := FeaturesToGeometries(features, Style{}, nil)
	require.NoError(t, err)
	require.Len(t, geometries, 1)
	assert.Equal(t, features[2].ID, geometries[0].ID())
}

func TestFeaturesToGeometriesConversionError(t *testing.T) {
	tests := []struct {
		name     string
		geometry string
	}{
		{"point too short", `{"type":"Point","coordinates":[1]}`},
		{"point not numbers", `{"type":"Point","coordinates":["a","b"]}`},
		{"polygon without rings", `{"type":"Polygon","coordinates":[]}`},
		{"polygon flat", `{"type":"Polygon","coordinates":[1,2,3]}`},
		{"multipolygon empty part", `{"type":"MultiPolygon","coordinates":[[]]}`},
		{"line of scalars", `{"type":"LineString","coordinates":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := decode(t, `{"type":"Feature","geometry":`+tt.geometry+`}`, nil)

			geometries, err := FeaturesToGeometries(features, Style{}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, fault.ErrConversion)
			assert.Nil(t, geometries)
		})
	}
}
