package dag

import (
	"errors"
	"slices"
)

var (
	ErrInvalidNodeID      = errors.New("node ID must not be empty")
	ErrDuplicateNodeID    = errors.New("duplicate node ID")
	ErrUnknownSourceNode  = errors.New("unknown source node")
	ErrUnknownTargetNode  = errors.New("unknown target node")
	ErrNonConsecutiveRows = errors.New("edges must connect consecutive rows")
	ErrGraphHasCycle      = errors.New("graph contains a cycle")
	ErrMultipleParents    = errors.New("node has more than one parent")
)

// NodeError ties one of the sentinel errors above to the node that caused
// it. Use errors.Is to test for the sentinel and errors.As to recover ID.
type NodeError struct {
	ID  string
	Err error
}

func (e *NodeError) Error() string { return e.Err.Error() + ": " + e.ID }
func (e *NodeError) Unwrap() error { return e.Err }

func nodeErr(id string, err error) error { return &NodeError{ID: id, Err: err} }

// Node is a vertex with an assigned row (layer). Row 0 is the top.
type Node struct {
	ID  string
	Row int
}

// Edge is a directed parent→child connection.
type Edge struct {
	From string
	To   string
}

// DAG is a directed acyclic graph indexed by row for layered layouts.
//
// Unlike a map-backed graph, every listing method returns nodes in
// insertion order, so algorithms built on top of DAG are deterministic
// without sorting.
//
// The zero value is not usable - use New. DAG is not safe for concurrent use.
type DAG struct {
	nodes    map[string]*Node
	order    []*Node
	edges    []Edge
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
	rows     map[int][]*Node     // row -> nodes in that row
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		rows:     make(map[int][]*Node),
	}
}

// AddNode adds a node and indexes it by its Row.
// Returns ErrInvalidNodeID for an empty ID or ErrDuplicateNodeID if the ID
// is already present.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return nodeErr(n.ID, ErrDuplicateNodeID)
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node)
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// SetRows updates row assignments and rebuilds the row index.
// Nodes not present in rows keep their current row. Within each row, nodes
// stay in insertion order.
func (d *DAG) SetRows(rows map[string]int) {
	d.rows = make(map[int][]*Node)
	for _, n := range d.order {
		if newRow, ok := rows[n.ID]; ok {
			n.Row = newRow
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is
// missing. Row consistency is checked by Validate, not here.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return nodeErr(e.From, ErrUnknownSourceNode)
	}
	if _, ok := d.nodes[e.To]; !ok {
		return nodeErr(e.To, ErrUnknownTargetNode)
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's own nodes.
func (d *DAG) Nodes() []*Node { return slices.Clone(d.order) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the IDs of the node's children in edge insertion order.
// The returned slice should be treated as read-only.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the IDs of the node's parents.
// The returned slice should be treated as read-only.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns the nodes assigned to row in insertion order.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowCount returns the number of distinct rows.
func (d *DAG) RowCount() int { return len(d.rows) }

// Sources returns nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, n := range d.order {
		if len(d.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Validate checks that every edge connects consecutive rows and that the
// graph is acyclic.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		if d.nodes[e.To].Row != d.nodes[e.From].Row+1 {
			return nodeErr(e.To, ErrNonConsecutiveRows)
		}
	}
	return d.DetectCycles()
}

// ValidateForest checks that the graph is a forest: acyclic, and no node
// has more than one parent.
func (d *DAG) ValidateForest() error {
	for _, n := range d.order {
		if len(d.Parents(n.ID)) > 1 {
			return nodeErr(n.ID, ErrMultipleParents)
		}
	}
	return d.DetectCycles()
}

// DetectCycles returns ErrGraphHasCycle, naming a node on the cycle, if
// any directed cycle exists. The search is iterative so deep hierarchies
// cannot exhaust the stack.
func (d *DAG) DetectCycles() error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(d.nodes))

	type frame struct {
		id   string
		next int
	}
	for _, root := range d.order {
		if state[root.ID] != unvisited {
			continue
		}
		state[root.ID] = onPath
		stack := []frame{{id: root.ID}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := d.outgoing[top.id]
			if top.next == len(children) {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++
			switch state[child] {
			case onPath:
				return nodeErr(child, ErrGraphHasCycle)
			case unvisited:
				state[child] = onPath
				stack = append(stack, frame{id: child})
			}
		}
	}
	return nil
}

// PosMap maps each ID to its index in ids.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node, preserving order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
