// Package geo handles GeoJSON features, their renderable geometry and point hit-testing.
package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/woozymasta/geolink/internal/fault"
)

// GeoJSON object types accepted at the top level of a payload.
const (
	TypeFeatureCollection = "FeatureCollection"
	TypeFeature           = "Feature"
)

// ID correlates a Feature with the geometry built from it.
type ID uint64

// Sequence hands out increasing ids. The zero value is ready to use.
type Sequence struct {
	n atomic.Uint64
}

// Next returns a fresh id, never zero.
func (s *Sequence) Next() ID {
	return ID(s.n.Add(1))
}

var defaultSequence Sequence

func sequenceOrDefault(s *Sequence) *Sequence {
	if s == nil {
		return &defaultSequence
	}
	return s
}

// RawGeometry is a GeoJSON geometry whose coordinates are decoded lazily,
// when geometry is built or hit-tested.
type RawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

// Feature is one geographic record with a locally assigned ID.
type Feature[P any] struct {
	Type       string
	Properties P
	Geometry   RawGeometry
	ID         ID
}

// geoJSONFeatureCollection is the top-level payload of a feature endpoint.
// Pointers tell an absent key apart from an empty one.
type geoJSONFeatureCollection struct {
	Type     *string            `json:"type"`
	Features *[]json.RawMessage `json:"features"`
}

// geoJSONFeature represents a single feature with geometry and properties.
type geoJSONFeature[P any] struct {
	Type       string       `json:"type"`
	Properties P            `json:"properties"`
	Geometry   *RawGeometry `json:"geometry"`
}

// FeaturesFromGeoJSON decodes a FeatureCollection or a bare Feature.
// Every returned Feature gets a new ID from seq (the package sequence when nil),
// regardless of any id carried by the source.
func FeaturesFromGeoJSON[P any](data []byte, seq *Sequence) ([]Feature[P], error) {
	const op = "decode geojson"
	seq = sequenceOrDefault(seq)

	var head geoJSONFeatureCollection
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fault.Malformed(op, "", err)
	}
	if head.Type == nil || *head.Type == "" {
		return nil, fault.Malformed(op, "", errors.New("missing type"))
	}

	switch *head.Type {
	case TypeFeatureCollection:
		if head.Features == nil {
			return nil, fault.Malformed(op, "", errors.New("feature collection without features"))
		}

		features := make([]Feature[P], 0, len(*head.Features))
		for i, raw := range *head.Features {
			f, err := decodeFeature[P](raw, seq)
			if err != nil {
				return nil, fault.Malformed(op, "", fmt.Errorf("feature %d: %w", i, err))
			}
			features = append(features, f)
		}
		return features, nil

	case TypeFeature:
		f, err := decodeFeature[P](data, seq)
		if err != nil {
			return nil, fault.Malformed(op, "", err)
		}
		return []Feature[P]{f}, nil

	default:
		return nil, fault.Malformed(op, "", fmt.Errorf("unsupported type %q", *head.Type))
	}
}

func decodeFeature[P any](raw json.RawMessage, seq *Sequence) (Feature[P], error) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return Feature[P]{}, errors.New("feature is not an object")
	}

	var gf geoJSONFeature[P]
	if err := json.Unmarshal(raw, &gf); err != nil {
		return Feature[P]{}, err
	}

	f := Feature[P]{
		Type:       gf.Type,
		Properties: gf.Properties,
		ID:         seq.Next(),
	}
	// null geometry is legal GeoJSON; it simply never renders
	if gf.Geometry != nil {
		f.Geometry = *gf.Geometry
	}

	return f, nil
}
