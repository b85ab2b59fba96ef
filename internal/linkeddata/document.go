// Package linkeddata models JSON-LD graph documents served by Geoconnex and
// crawls the relations of a node into a flat list of related resources.
package linkeddata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/woozymasta/geolink/internal/fault"
)

// Relation names, in crawl order. RelationID is the node itself.
const (
	RelationID         = "@id"
	RelationContains   = "contains"
	RelationMesures    = "mesures"
	RelationNear       = "near"
	RelationInside     = "inside"
	RelationDrains     = "drains"
	RelationDrainsInto = "drains-into"
	RelationOverlaps   = "overlaps"
)

// Relations lists every crawled relation in output order.
var Relations = []string{
	RelationID,
	RelationContains,
	RelationMesures,
	RelationNear,
	RelationInside,
	RelationDrains,
	RelationDrainsInto,
	RelationOverlaps,
}

// Document is a graph document: a set of nodes keyed by @id.
type Document struct {
	Graph []Node `json:"@graph"`
}

// Node returns the node whose @id equals id, or nil.
// The last match wins when a graph repeats an id.
func (d *Document) Node(id string) *Node {
	if d == nil {
		return nil
	}
	var found *Node
	for i := range d.Graph {
		if d.Graph[i].ID == id {
			found = &d.Graph[i]
		}
	}
	return found
}

// Decode parses a graph document. A payload without an @graph array is malformed.
func Decode(uri string, data []byte) (*Document, error) {
	const op = "decode graph"

	var head struct {
		Graph json.RawMessage `json:"@graph"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fault.Malformed(op, uri, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(head.Graph), []byte("[")) {
		return nil, fault.Malformed(op, uri, errors.New("missing @graph array"))
	}

	var doc Document
	if err := json.Unmarshal(head.Graph, &doc.Graph); err != nil {
		return nil, fault.Malformed(op, uri, err)
	}
	return &doc, nil
}

// Node is one entry of a graph. Relation values keep their source order.
type Node struct {
	ID        string
	Types     Refs
	Label     Labels
	SeeAlso   Refs
	SameAs    Refs
	Relations map[string]Refs
}

// UnmarshalJSON accepts scalar or array values for every relation.
func (n *Node) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*n = Node{Relations: make(map[string]Refs)}

	if raw, ok := fields["@id"]; ok {
		if err := json.Unmarshal(raw, &n.ID); err != nil {
			return fmt.Errorf("@id: %w", err)
		}
	}

	simple := []struct {
		key  string
		dest any
	}{
		{"@type", &n.Types},
		{"label", &n.Label},
		{"seeAlso", &n.SeeAlso},
		{"sameAs", &n.SameAs},
	}
	for _, s := range simple {
		raw, ok := fields[s.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, s.dest); err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
	}

	for _, rel := range Relations[1:] {
		raw, ok := fields[rel]
		if !ok {
			continue
		}
		var refs Refs
		if err := json.Unmarshal(raw, &refs); err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		if len(refs) > 0 {
			n.Relations[rel] = refs
		}
	}

	return nil
}

// References returns the URIs a relation points to. RelationID yields the
// node's own id.
func (n *Node) References(relation string) []string {
	if relation == RelationID {
		if n.ID == "" {
			return nil
		}
		return []string{n.ID}
	}
	return n.Relations[relation]
}

// Name is the value of the first label.
func (n *Node) Name() (string, bool) {
	if len(n.Label) == 0 {
		return "", false
	}
	return n.Label[0].Value, true
}

// Refs is a list of URIs. In JSON it may be a string, an {"@id": uri}
// object, null, or an array of strings and objects.
type Refs []string

func (r *Refs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(Refs, 0, len(items))
		for _, item := range items {
			ref, err := decodeRef(item)
			if err != nil {
				return err
			}
			out = append(out, ref)
		}
		*r = out
		return nil
	}

	ref, err := decodeRef(data)
	if err != nil {
		return err
	}
	*r = Refs{ref}
	return nil
}

func decodeRef(data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}

	var obj struct {
		ID string `json:"@id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("reference is neither a string nor an object: %s", data)
	}
	if obj.ID == "" {
		return "", errors.New("reference object without @id")
	}
	return obj.ID, nil
}

// Literal is a language-tagged string.
type Literal struct {
	Language string `json:"@language,omitempty"`
	Value    string `json:"@value"`
}

// Labels is a list of literals. In JSON it may be an array, a single literal
// object or a plain string.
type Labels []Literal

func (l *Labels) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(Labels, 0, len(items))
		for _, item := range items {
			lit, err := decodeLiteral(item)
			if err != nil {
				return err
			}
			out = append(out, lit)
		}
		*l = out
		return nil
	}

	lit, err := decodeLiteral(data)
	if err != nil {
		return err
	}
	*l = Labels{lit}
	return nil
}

func decodeLiteral(data json.RawMessage) (Literal, error) {
	var lit Literal
	if err := json.Unmarshal(data, &lit.Value); err == nil {
		return lit, nil
	}
	err := json.Unmarshal(data, &lit)
	return lit, err
}
