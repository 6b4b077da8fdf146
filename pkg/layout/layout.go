package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/orgchart/pkg/dag"
	"github.com/matzehuels/orgchart/pkg/dag/transform"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
)

const (
	DefaultHorizontalGap = 50.0
	DefaultVerticalGap   = 80.0
)

// Options control node size and spacing.
type Options struct {
	Box           graph.Box
	HorizontalGap float64
	VerticalGap   float64
}

// DefaultOptions returns a 150x100 box with 50 horizontal and 80 vertical gap.
func DefaultOptions() Options {
	return Options{
		Box:           graph.DefaultBox,
		HorizontalGap: DefaultHorizontalGap,
		VerticalGap:   DefaultVerticalGap,
	}
}

// Validate reports whether the options can be used for a layout.
func (o Options) Validate() error {
	_, err := o.normalize()
	return err
}

// normalize fills a zero box with the default and rejects negative or
// non-finite sizes.
func (o Options) normalize() (Options, error) {
	for _, v := range []float64{o.Box.Width, o.Box.Height, o.HorizontalGap, o.VerticalGap} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return o, errors.New(errors.ErrCodeInvalidInput, "box size and gaps must be finite numbers")
		}
	}
	if o.Box.Width == 0 && o.Box.Height == 0 {
		o.Box = graph.DefaultBox
	}
	if o.Box.Width <= 0 || o.Box.Height <= 0 {
		return o, errors.New(errors.ErrCodeInvalidInput, "box size must be positive, got %gx%g", o.Box.Width, o.Box.Height)
	}
	if o.HorizontalGap < 0 || o.VerticalGap < 0 {
		return o, errors.New(errors.ErrCodeInvalidInput, "gaps must not be negative")
	}
	return o, nil
}

// Result is a positioned chart plus layout diagnostics.
type Result struct {
	Layout graph.Layout

	// Crossings is the number of edge crossings between adjacent rows.
	// It is zero for every valid forest.
	Crossings int
}

// Layout assigns a rank and a position to every node.
//
// The returned nodes are copies in input order with Rank and Position set;
// edges are copied unchanged. The inputs are never modified. The same
// inputs always produce the same result.
func Layout(nodes []graph.Node, edges []graph.Edge, opts Options) (Result, error) {
	opts, err := opts.normalize()
	if err != nil {
		return Result{}, err
	}

	g, err := build(nodes, edges)
	if err != nil {
		return Result{}, err
	}
	transform.AssignLayers(g)

	p := placer{
		g:    g,
		step: opts.Box.Width + opts.HorizontalGap,
		x:    make(map[string]float64, len(nodes)),
		rows: make(map[int][]string, g.RowCount()),
	}
	for _, id := range dag.NodeIDs(g.Sources()) {
		p.place(id)
	}

	rowStep := opts.Box.Height + opts.VerticalGap
	out := slices.Clone(nodes)
	var maxX, maxY float64
	for i := range out {
		n, _ := g.Node(out[i].ID)
		out[i].Rank = n.Row
		out[i].Position = graph.Position{
			X: p.x[n.ID],
			Y: float64(n.Row) * rowStep,
		}
		maxX = max(maxX, out[i].Position.X)
		maxY = max(maxY, out[i].Position.Y)
	}

	result := graph.Layout{
		Box:           opts.Box,
		HorizontalGap: opts.HorizontalGap,
		VerticalGap:   opts.VerticalGap,
		Nodes:         out,
		Edges:         slices.Clone(edges),
		Rows:          p.rows,
		Empty:         len(nodes) == 0,
	}
	if result.Nodes == nil {
		result.Nodes = []graph.Node{}
	}
	if result.Edges == nil {
		result.Edges = []graph.Edge{}
	}
	if len(nodes) > 0 {
		result.Width = maxX + opts.Box.Width
		result.Height = maxY + opts.Box.Height
	}

	return Result{
		Layout:    result,
		Crossings: dag.CountCrossings(g, p.rows),
	}, nil
}

// build loads nodes and edges into a fresh graph and checks it is a forest.
func build(nodes []graph.Node, edges []graph.Edge) (*dag.DAG, error) {
	g := dag.New()
	for _, n := range nodes {
		var ne *dag.NodeError
		switch err := g.AddNode(dag.Node{ID: n.ID}); {
		case err == nil:
		case errors.As(err, &ne) && ne.Err == dag.ErrDuplicateNodeID:
			return nil, errors.New(errors.ErrCodeDuplicateID, "duplicate node id %q", ne.ID)
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %q", n.Label)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e.Source, To: e.Target}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStructural, err, "edge %s (%s -> %s)", e.ID, e.Source, e.Target)
		}
	}
	if err := g.ValidateForest(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStructural, err, "hierarchy is not a forest")
	}
	return g, nil
}

// placer assigns x coordinates in one pre-order pass.
type placer struct {
	g    *dag.DAG
	step float64
	slot int
	x    map[string]float64
	rows map[int][]string
}

// place positions id's subtree and returns id's x. Leaves take the next
// free slot; an internal node sits at the mean x of its children.
func (p *placer) place(id string) float64 {
	n, _ := p.g.Node(id)
	p.rows[n.Row] = append(p.rows[n.Row], id)

	children := p.g.Children(id)
	if len(children) == 0 {
		x := float64(p.slot) * p.step
		p.slot++
		p.x[id] = x
		return x
	}

	var sum float64
	for _, c := range children {
		sum += p.place(c)
	}
	x := sum / float64(len(children))
	p.x[id] = x
	return x
}
