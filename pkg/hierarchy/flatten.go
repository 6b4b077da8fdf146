package hierarchy

import (
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
)

// Flatten walks the forest depth-first in pre-order and returns one node
// per record and one edge per parent→child relationship.
//
// Roots are visited in input order and children in their given order. Each
// node's Rank is its depth under its root. actions is attached verbatim to
// every node; Flatten never calls it.
//
// An empty forest returns empty slices and an EMPTY_INPUT error, which
// callers treat as "no data" (see [errors.IsSoft]). A repeated record id
// returns DUPLICATE_ID and no partial output. An empty id returns
// INVALID_INPUT.
func Flatten(forest Forest, actions graph.Actions) ([]graph.Node, []graph.Edge, error) {
	records, relationships := forest.Count()
	if records == 0 {
		return []graph.Node{}, []graph.Edge{}, errors.New(errors.ErrCodeEmptyInput, "hierarchy has no records")
	}

	f := flattener{
		actions: actions,
		seen:    make(map[ID]struct{}, records),
		nodes:   make([]graph.Node, 0, records),
		edges:   make([]graph.Edge, 0, relationships),
	}
	for i := range forest {
		if err := f.visit(&forest[i], "", 0); err != nil {
			return nil, nil, err
		}
	}
	return f.nodes, f.edges, nil
}

type flattener struct {
	actions graph.Actions
	seen    map[ID]struct{}
	nodes   []graph.Node
	edges   []graph.Edge
}

// visit emits r and then its subtree. Recursion depth equals tree depth.
func (f *flattener) visit(r *Record, parent ID, depth int) error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record %q has an empty id", r.Name)
	}
	if _, dup := f.seen[r.ID]; dup {
		return errors.New(errors.ErrCodeDuplicateID, "duplicate record id %q", r.ID)
	}
	f.seen[r.ID] = struct{}{}

	f.nodes = append(f.nodes, graph.Node{
		ID:       r.ID.String(),
		ParentID: parent.String(),
		Label:    r.Name,
		Status:   r.Status(),
		Rank:     depth,
		Actions:  f.actions,
	})
	if parent != "" {
		f.edges = append(f.edges, graph.NewEdge(parent.String(), r.ID.String()))
	}

	for i := range r.Children {
		if err := f.visit(&r.Children[i], r.ID, depth+1); err != nil {
			return err
		}
	}
	return nil
}
