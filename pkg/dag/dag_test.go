package dag

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a): %v", err)
	}
	if err := g.AddNode(Node{ID: "a", Row: 3}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want ErrDuplicateNodeID", err)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestAddEdge_UnknownEndpoints(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})

	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown source) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown target) = %v, want ErrUnknownTargetNode", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}

func TestInsertionOrder(t *testing.T) {
	g := New()
	ids := []string{"z", "m", "a", "q", "b"}
	for _, id := range ids {
		_ = g.AddNode(Node{ID: id})
	}

	if got := NodeIDs(g.Nodes()); !slices.Equal(got, ids) {
		t.Errorf("Nodes() = %v, want %v", got, ids)
	}
	if got := NodeIDs(g.NodesInRow(0)); !slices.Equal(got, ids) {
		t.Errorf("NodesInRow(0) = %v, want %v", got, ids)
	}

	g.SetRows(map[string]int{"m": 1, "q": 1})
	if got := NodeIDs(g.NodesInRow(1)); !slices.Equal(got, []string{"m", "q"}) {
		t.Errorf("NodesInRow(1) = %v, want [m q]", got)
	}
	if g.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", g.RowCount())
	}
}

func TestSources(t *testing.T) {
	g := New()
	for _, id := range []string{"r1", "c1", "r2"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "r1", To: "c1"})

	if got := NodeIDs(g.Sources()); !slices.Equal(got, []string{"r1", "r2"}) {
		t.Errorf("Sources() = %v, want [r1 r2]", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *DAG
		wantErr error
	}{
		{
			name: "valid chain",
			build: func() *DAG {
				g := New()
				_ = g.AddNode(Node{ID: "a", Row: 0})
				_ = g.AddNode(Node{ID: "b", Row: 1})
				_ = g.AddEdge(Edge{From: "a", To: "b"})
				return g
			},
		},
		{
			name: "skipped row",
			build: func() *DAG {
				g := New()
				_ = g.AddNode(Node{ID: "a", Row: 0})
				_ = g.AddNode(Node{ID: "b", Row: 2})
				_ = g.AddEdge(Edge{From: "a", To: "b"})
				return g
			},
			wantErr: ErrNonConsecutiveRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForest(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []string
		edges   []Edge
		wantErr error
	}{
		{
			name:  "two trees",
			nodes: []string{"a", "b", "c", "d"},
			edges: []Edge{{From: "a", To: "b"}, {From: "c", To: "d"}},
		},
		{
			name:    "shared child",
			nodes:   []string{"a", "b", "c"},
			edges:   []Edge{{From: "a", To: "c"}, {From: "b", To: "c"}},
			wantErr: ErrMultipleParents,
		},
		{
			name:    "cycle",
			nodes:   []string{"a", "b"},
			edges:   []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}},
			wantErr: ErrGraphHasCycle,
		},
		{
			name:    "self loop",
			nodes:   []string{"a"},
			edges:   []Edge{{From: "a", To: "a"}},
			wantErr: ErrGraphHasCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, id := range tt.nodes {
				_ = g.AddNode(Node{ID: id})
			}
			for _, e := range tt.edges {
				_ = g.AddEdge(e)
			}
			if err := g.ValidateForest(); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateForest() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCountCrossings(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "x", "y"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "a", To: "y"})
	_ = g.AddEdge(Edge{From: "b", To: "x"})

	crossed := map[int][]string{0: {"a", "b"}, 1: {"x", "y"}}
	if got := CountCrossings(g, crossed); got != 1 {
		t.Errorf("CountCrossings() = %d, want 1", got)
	}
	clean := map[int][]string{0: {"a", "b"}, 1: {"y", "x"}}
	if got := CountCrossings(g, clean); got != 0 {
		t.Errorf("CountCrossings() = %d, want 0", got)
	}
}

func TestNodeErrorNamesNode(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddNode(Node{ID: "c"})
	_ = g.AddEdge(Edge{From: "a", To: "c"})
	_ = g.AddEdge(Edge{From: "b", To: "c"})

	err := g.ValidateForest()
	var ne *NodeError
	if !errors.As(err, &ne) || ne.ID != "c" || !errors.Is(err, ErrMultipleParents) {
		t.Fatalf("ValidateForest() = %v, want ErrMultipleParents naming c", err)
	}
	if err.Error() != "node has more than one parent: c" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestDetectCyclesDeepChain(t *testing.T) {
	g := New()
	const depth = 100_000
	prev := ""
	for i := range depth {
		id := fmt.Sprint(i)
		_ = g.AddNode(Node{ID: id, Row: i})
		if prev != "" {
			_ = g.AddEdge(Edge{From: prev, To: id})
		}
		prev = id
	}
	if err := g.DetectCycles(); err != nil {
		t.Fatalf("DetectCycles() on a chain = %v", err)
	}

	_ = g.AddEdge(Edge{From: prev, To: "0"})
	var ne *NodeError
	if err := g.DetectCycles(); !errors.As(err, &ne) || ne.ID != "0" {
		t.Errorf("DetectCycles() = %v, want a cycle through 0", err)
	}
}
