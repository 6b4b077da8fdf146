package graph

import (
	"context"
)

// =============================================================================
// Box - Uniform Node Footprint
// =============================================================================

// Box is the fixed rectangle reserved for every node during layout.
// All nodes in a chart share one Box.
type Box struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// DefaultBox matches the size of a department card in the diagram widget.
var DefaultBox = Box{Width: 150, Height: 100}

// =============================================================================
// Position
// =============================================================================

// Position is the top-left corner of a node's box.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Center returns the center of the box whose top-left corner is p.
// Use this for consumers that anchor nodes at their center.
func (p Position) Center(b Box) Position {
	return Position{X: p.X + b.Width/2, Y: p.Y + b.Height/2}
}

// =============================================================================
// Status
// =============================================================================

// Status holds the three department flags shown by the chart legend.
type Status struct {
	Active   bool `json:"active" bson:"active"`
	Deleted  bool `json:"deleted" bson:"deleted"`
	Approved bool `json:"approved" bson:"approved"`
}

// Class returns the legend class of a node: "deleted", "inactive",
// "approved" or "not-approved", in that precedence.
func (s Status) Class() string {
	switch {
	case s.Deleted:
		return "deleted"
	case !s.Active:
		return "inactive"
	case s.Approved:
		return "approved"
	default:
		return "not-approved"
	}
}

// =============================================================================
// Actions - Callbacks From the Rendering Surface
// =============================================================================

// EditRequest carries the new attributes of an existing department.
type EditRequest struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
}

// AddChildRequest describes a department to create under ParentID.
type AddChildRequest struct {
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
}

// Actions is the capability a rendering surface uses to call back into the
// application when a user edits, deletes, or adds a child to a node.
//
// The flattener attaches the caller's Actions to every node verbatim and
// never invokes it.
type Actions interface {
	OnEdit(ctx context.Context, req EditRequest) error
	OnDelete(ctx context.Context, id string) error
	OnAddChild(ctx context.Context, req AddChildRequest) error
}

// =============================================================================
// Node and Edge
// =============================================================================

// Node is one drawable department. Everything except Position is fixed by
// the flattener; the layout engine fills in Position on a copy.
type Node struct {
	ID       string   `json:"id" bson:"id"`
	ParentID string   `json:"parent_id,omitempty" bson:"parent_id,omitempty"` // empty for roots
	Label    string   `json:"label" bson:"label"`
	Status   Status   `json:"status" bson:"status"`
	Rank     int      `json:"rank" bson:"rank"`
	Position Position `json:"position" bson:"position"`

	// Actions is threaded through to the rendering surface and is never
	// serialized.
	Actions Actions `json:"-" bson:"-"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.ParentID == "" }

// Edge is a directed parent→child link.
type Edge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// EdgeID derives the identity of the edge from parent to child, so
// re-flattening the same hierarchy yields identical edge ids.
func EdgeID(parent, child string) string {
	return "e" + parent + "-" + child
}

// NewEdge returns the edge from parent to child.
func NewEdge(parent, child string) Edge {
	return Edge{ID: EdgeID(parent, child), Source: parent, Target: child}
}
