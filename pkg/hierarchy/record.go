package hierarchy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/orgchart/pkg/graph"
)

// ID is a record identifier in its stable string form.
//
// The backend may send ids as JSON numbers or strings; both decode to the
// same ID, so 7 and "7" compare equal.
type ID string

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as JSON numbers and everything else as
// strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalYAML accepts any scalar. A null id decodes as empty, as it
// does from JSON.
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("record id must be a scalar, got %v at line %d", node.Tag, node.Line)
	}
	if node.ShortTag() == "!!null" {
		*id = ""
		return nil
	}
	*id = ID(node.Value)
	return nil
}

// Record is one department as returned by the hierarchy endpoint.
type Record struct {
	ID         ID       `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	IsActive   bool     `json:"is_active" yaml:"is_active"`
	IsDeleted  bool     `json:"is_deleted" yaml:"is_deleted"`
	IsApproved bool     `json:"is_approved" yaml:"is_approved"`
	Children   []Record `json:"children,omitempty" yaml:"children,omitempty"`
}

// Status returns the record's flags in graph form.
func (r *Record) Status() graph.Status {
	return graph.Status{Active: r.IsActive, Deleted: r.IsDeleted, Approved: r.IsApproved}
}

// Forest is an ordered sequence of root records.
type Forest []Record

// Count returns the number of records and the number of parent-child
// relationships in the forest.
func (f Forest) Count() (records, relationships int) {
	var walk func(r *Record)
	walk = func(r *Record) {
		records++
		relationships += len(r.Children)
		for i := range r.Children {
			walk(&r.Children[i])
		}
	}
	for i := range f {
		walk(&f[i])
	}
	return records, relationships
}

// =============================================================================
// Flags - Backend Status Bitmask
// =============================================================================

// Flags is the status bitmask the backend accepts on create and update.
type Flags int

// Flag bits.
const (
	FlagActive   Flags = 1 << iota // 1
	FlagDeleted                    // 2
	FlagApproved                   // 4
)

// FlagsFromStatus packs a status into the backend bitmask.
func FlagsFromStatus(s graph.Status) Flags {
	var f Flags
	if s.Active {
		f |= FlagActive
	}
	if s.Deleted {
		f |= FlagDeleted
	}
	if s.Approved {
		f |= FlagApproved
	}
	return f
}

// Status unpacks the bitmask.
func (f Flags) Status() graph.Status {
	return graph.Status{
		Active:   f&FlagActive != 0,
		Deleted:  f&FlagDeleted != 0,
		Approved: f&FlagApproved != 0,
	}
}
