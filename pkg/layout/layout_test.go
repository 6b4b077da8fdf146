package layout

import (
	"math"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/hierarchy"
)

func node(id, parent string) graph.Node {
	return graph.Node{ID: id, ParentID: parent, Label: "dept " + id}
}

func flatten(t *testing.T, forest hierarchy.Forest) ([]graph.Node, []graph.Edge) {
	t.Helper()
	nodes, edges, err := hierarchy.Flatten(forest, nil)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	return nodes, edges
}

func TestLayout_RootCenteredOverChildren(t *testing.T) {
	nodes := []graph.Node{node("1", ""), node("2", "1"), node("3", "1")}
	edges := []graph.Edge{graph.NewEdge("1", "2"), graph.NewEdge("1", "3")}

	res, err := Layout(nodes, edges, DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	l := res.Layout

	want := map[string]graph.Position{
		"1": {X: 100, Y: 0},
		"2": {X: 0, Y: 180},
		"3": {X: 200, Y: 180},
	}
	for _, n := range l.Nodes {
		if n.Position != want[n.ID] {
			t.Errorf("node %s at %+v, want %+v", n.ID, n.Position, want[n.ID])
		}
	}
	if l.Width != 350 || l.Height != 280 {
		t.Errorf("bounds = %gx%g, want 350x280", l.Width, l.Height)
	}
	if !reflect.DeepEqual(l.Rows, map[int][]string{0: {"1"}, 1: {"2", "3"}}) {
		t.Errorf("rows = %v", l.Rows)
	}
	if res.Crossings != 0 {
		t.Errorf("crossings = %d, want 0", res.Crossings)
	}
}

func TestLayout_DisjointRoots(t *testing.T) {
	res, err := Layout([]graph.Node{node("10", ""), node("20", "")}, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	a, b := res.Layout.Nodes[0].Position, res.Layout.Nodes[1].Position
	if a.Y != 0 || b.Y != 0 {
		t.Errorf("roots not in rank 0: %+v %+v", a, b)
	}
	if math.Abs(a.X-b.X) < graph.DefaultBox.Width {
		t.Errorf("roots overlap: %+v %+v", a, b)
	}
	if len(res.Layout.Edges) != 0 {
		t.Errorf("edges = %v, want none", res.Layout.Edges)
	}
}

func TestLayout_Empty(t *testing.T) {
	res, err := Layout(nil, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if !res.Layout.Empty || len(res.Layout.Nodes) != 0 || res.Layout.Width != 0 {
		t.Errorf("empty layout = %+v", res.Layout)
	}
	if res.Layout.Nodes == nil || res.Layout.Edges == nil {
		t.Error("empty layout should carry non-nil slices")
	}
}

func TestLayout_Errors(t *testing.T) {
	tests := []struct {
		name  string
		nodes []graph.Node
		edges []graph.Edge
		code  errors.Code
	}{
		{
			name:  "missing target",
			nodes: []graph.Node{node("1", "")},
			edges: []graph.Edge{graph.NewEdge("1", "9")},
			code:  errors.ErrCodeStructural,
		},
		{
			name:  "missing source",
			nodes: []graph.Node{node("2", "9")},
			edges: []graph.Edge{graph.NewEdge("9", "2")},
			code:  errors.ErrCodeStructural,
		},
		{
			name:  "two parents",
			nodes: []graph.Node{node("1", ""), node("2", ""), node("3", "1")},
			edges: []graph.Edge{graph.NewEdge("1", "3"), graph.NewEdge("2", "3")},
			code:  errors.ErrCodeStructural,
		},
		{
			name:  "cycle",
			nodes: []graph.Node{node("1", "2"), node("2", "1")},
			edges: []graph.Edge{graph.NewEdge("1", "2"), graph.NewEdge("2", "1")},
			code:  errors.ErrCodeStructural,
		},
		{
			name:  "duplicate id",
			nodes: []graph.Node{node("1", ""), node("1", "")},
			code:  errors.ErrCodeDuplicateID,
		},
		{
			name:  "empty id",
			nodes: []graph.Node{node("", "")},
			code:  errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Layout(tt.nodes, tt.edges, DefaultOptions())
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if res.Layout.Nodes != nil {
				t.Error("expected no partial layout")
			}
		})
	}
}

func TestLayout_InvalidOptions(t *testing.T) {
	nodes := []graph.Node{node("1", "")}
	for _, opts := range []Options{
		{Box: graph.Box{Width: -1, Height: 10}},
		{Box: graph.Box{Width: 10, Height: 0}},
		{Box: graph.DefaultBox, HorizontalGap: -5},
		{Box: graph.DefaultBox, HorizontalGap: math.NaN()},
		{Box: graph.DefaultBox, VerticalGap: math.Inf(1)},
		{Box: graph.Box{Width: math.NaN(), Height: 100}},
	} {
		if _, err := Layout(nodes, nil, opts); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Layout(%+v) err = %v, want INVALID_INPUT", opts, err)
		}
	}

	res, err := Layout(nodes, nil, Options{})
	if err != nil {
		t.Fatalf("Layout(zero options): %v", err)
	}
	if res.Layout.Box != graph.DefaultBox {
		t.Errorf("zero options box = %+v, want default", res.Layout.Box)
	}
}

// wideForest has uneven depths and fan-outs across three roots.
func wideForest() hierarchy.Forest {
	r := func(id string, children ...hierarchy.Record) hierarchy.Record {
		return hierarchy.Record{ID: hierarchy.ID(id), Name: id, Children: children}
	}
	return hierarchy.Forest{
		r("1",
			r("2", r("5"), r("6", r("9"), r("10"), r("11"))),
			r("3"),
			r("4", r("7", r("12")), r("8")),
		),
		r("20"),
		r("30", r("31", r("32", r("33")))),
	}
}

func TestLayout_SameRankNoOverlap(t *testing.T) {
	nodes, edges := flatten(t, wideForest())
	opts := Options{Box: graph.Box{Width: 120, Height: 40}, HorizontalGap: 10, VerticalGap: 30}

	res, err := Layout(nodes, edges, opts)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}

	byRank := map[int][]graph.Node{}
	for _, n := range res.Layout.Nodes {
		byRank[n.Rank] = append(byRank[n.Rank], n)
	}
	for rank, ns := range byRank {
		for i := range ns {
			for j := i + 1; j < len(ns); j++ {
				if d := math.Abs(ns[i].Position.X - ns[j].Position.X); d < opts.Box.Width {
					t.Errorf("rank %d: %s and %s only %g apart", rank, ns[i].ID, ns[j].ID, d)
				}
			}
		}
	}
	if res.Crossings != 0 {
		t.Errorf("crossings = %d, want 0", res.Crossings)
	}
}

func TestLayout_ChildBelowParent(t *testing.T) {
	nodes, edges := flatten(t, wideForest())
	opts := DefaultOptions()

	res, err := Layout(nodes, edges, opts)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}

	for _, e := range res.Layout.Edges {
		parent, _ := res.Layout.Node(e.Source)
		child, _ := res.Layout.Node(e.Target)
		if want := parent.Position.Y + opts.Box.Height + opts.VerticalGap; child.Position.Y != want {
			t.Errorf("%s: child y = %g, want %g", e.ID, child.Position.Y, want)
		}
		if child.Rank != parent.Rank+1 {
			t.Errorf("%s: child rank %d, parent rank %d", e.ID, child.Rank, parent.Rank)
		}
	}
}

func TestLayout_Deterministic(t *testing.T) {
	nodes, edges := flatten(t, wideForest())

	first, err := Layout(nodes, edges, DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	for range 5 {
		again, _ := Layout(nodes, edges, DefaultOptions())
		if !reflect.DeepEqual(first, again) {
			t.Fatal("layout differs between runs")
		}
	}

	nodes2, edges2 := flatten(t, wideForest())
	again, _ := Layout(nodes2, edges2, DefaultOptions())
	if !reflect.DeepEqual(first.Layout.Nodes, again.Layout.Nodes) {
		t.Error("re-flattened input gives different positions")
	}
}

func TestLayout_InputsUntouched(t *testing.T) {
	nodes, edges := flatten(t, wideForest())
	before := slices.Clone(nodes)

	res, err := Layout(nodes, edges, DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if !reflect.DeepEqual(nodes, before) {
		t.Error("Layout modified its input nodes")
	}
	for i, n := range res.Layout.Nodes {
		if n.ID != nodes[i].ID {
			t.Fatalf("output order differs at %d: %s vs %s", i, n.ID, nodes[i].ID)
		}
	}
}

func TestLayout_RowsFollowPreOrder(t *testing.T) {
	nodes, edges := flatten(t, wideForest())
	res, err := Layout(nodes, edges, DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}

	want := map[int][]string{
		0: {"1", "20", "30"},
		1: {"2", "3", "4", "31"},
		2: {"5", "6", "7", "8", "32"},
		3: {"9", "10", "11", "12", "33"},
	}
	if !reflect.DeepEqual(res.Layout.Rows, want) {
		t.Errorf("rows = %v, want %v", res.Layout.Rows, want)
	}
	for rank, ids := range res.Layout.Rows {
		for i := 1; i < len(ids); i++ {
			a, _ := res.Layout.Node(ids[i-1])
			b, _ := res.Layout.Node(ids[i])
			if a.Position.X >= b.Position.X {
				t.Errorf("rank %d: %s not left of %s", rank, a.ID, b.ID)
			}
		}
	}
}

func TestLayout_ActionsPreserved(t *testing.T) {
	type marker struct{ graph.Actions }
	m := &marker{}
	nodes := []graph.Node{{ID: "1", Actions: m}}

	res, err := Layout(nodes, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if res.Layout.Nodes[0].Actions != m {
		t.Error("actions not carried to positioned node")
	}
}
