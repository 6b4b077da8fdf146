package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// =============================================================================
// Layout - Positioned Chart
// =============================================================================

// Layout is a positioned org chart: the serialization format handed to the
// rendering surface, stored in snapshots and cached.
//
// Positions are top-left corners of Box-sized rectangles. Width and Height
// are the bounds of all boxes. Rows maps each rank to its node ids in
// left-to-right order.
type Layout struct {
	Box           Box              `json:"box" bson:"box"`
	HorizontalGap float64          `json:"horizontal_gap" bson:"horizontal_gap"`
	VerticalGap   float64          `json:"vertical_gap" bson:"vertical_gap"`
	Width         float64          `json:"width" bson:"width"`
	Height        float64          `json:"height" bson:"height"`
	Nodes         []Node           `json:"nodes" bson:"nodes"`
	Edges         []Edge           `json:"edges" bson:"edges"`
	Rows          map[int][]string `json:"rows,omitempty" bson:"-"`

	// Empty marks a layout built from a hierarchy with no records.
	Empty bool `json:"empty,omitempty" bson:"empty,omitempty"`
}

// Node returns the node with the given id.
func (l *Layout) Node(id string) (*Node, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}

// RebuildRows recomputes Rows from node ranks, keeping node order within
// each rank. Stores that cannot persist Rows call it after loading.
func (l *Layout) RebuildRows() {
	if len(l.Nodes) == 0 {
		l.Rows = nil
		return
	}
	l.Rows = make(map[int][]string)
	for _, n := range l.Nodes {
		l.Rows[n.Rank] = append(l.Rows[n.Rank], n.ID)
	}
}

// Validate checks that node ids are unique and that every edge endpoint is
// a node of this layout.
func (l *Layout) Validate() error {
	ids := make(map[string]struct{}, len(l.Nodes))
	for _, n := range l.Nodes {
		if _, dup := ids[n.ID]; dup {
			return errors.New(errors.ErrCodeDuplicateID, "duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, e := range l.Edges {
		if _, ok := ids[e.Source]; !ok {
			return errors.New(errors.ErrCodeStructural, "edge %s: unknown source %q", e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return errors.New(errors.ErrCodeStructural, "edge %s: unknown target %q", e.ID, e.Target)
		}
	}
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout and validates its
// structure.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayout writes a Layout as indented JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadLayout decodes and validates a Layout from r.
func ReadLayout(r io.Reader) (Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Layout{}, fmt.Errorf("read: %w", err)
	}
	return UnmarshalLayout(data)
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Layout{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout file %s", path)
	}
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
