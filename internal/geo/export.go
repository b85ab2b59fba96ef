package geo

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
)

// FeatureCollection encodes features with the geometry built from them.
// Features without a geometry in geometries are left out.
func FeatureCollection[P any](features []Feature[P], geometries []Geometry) *geojson.FeatureCollection {
	byID := make(map[ID]Geometry, len(geometries))
	for _, g := range geometries {
		byID[g.ID()] = g
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		g, ok := byID[f.ID]
		if !ok {
			continue
		}
		out := geojson.NewFeature(g.Orb())
		out.ID = uint64(f.ID)
		out.Properties = toProperties(f.Properties)
		fc.Append(out)
	}
	return fc
}

// GeometryCollection encodes bare geometries, keeping their id and style.
func GeometryCollection(geometries []Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range geometries {
		out := geojson.NewFeature(g.Orb())
		out.ID = uint64(g.ID())
		out.Properties = geojson.Properties{"kind": string(g.Type())}
		if style := toProperties(g.Style()); len(style) > 0 {
			out.Properties["style"] = style
		}
		fc.Append(out)
	}
	return fc
}

func toProperties(v any) geojson.Properties {
	if m, ok := v.(map[string]any); ok && m != nil {
		return geojson.Properties(m)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return geojson.Properties{}
	}
	var props geojson.Properties
	if err := json.Unmarshal(data, &props); err != nil || props == nil {
		return geojson.Properties{}
	}
	return props
}
