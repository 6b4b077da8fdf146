package nodelink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/orgchart/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the department id and status class to each label.
	Detailed bool

	// Legend draws a row of sample boxes under the chart.
	Legend bool
}

// style is the fill, outline and line style of one legend class.
type style struct {
	Label string
	Fill  string
	Color string
	Line  string
}

// Styles maps each status class to its appearance. Keys match
// [graph.Status.Class].
var Styles = map[string]style{
	"approved":     {Label: "Approved", Fill: "#d4edda", Color: "#28a745", Line: "solid"},
	"not-approved": {Label: "Not Approved", Fill: "#fff3cd", Color: "#d39e00", Line: "solid"},
	"deleted":      {Label: "Deleted", Fill: "#f8d7da", Color: "#dc3545", Line: "dashed"},
	"inactive":     {Label: "Inactive", Fill: "#e2e3e5", Color: "#6c757d", Line: "solid"},
}

// legendOrder is the left-to-right order of legend entries.
var legendOrder = []string{"approved", "not-approved", "deleted", "inactive"}

const pointsPerInch = 72.0

// ToDOT converts a positioned layout to Graphviz DOT with pinned node
// positions. Render the result with [RenderSVG].
func ToDOT(l graph.Layout, opts Options) string {
	box := l.Box
	if box.Width <= 0 || box.Height <= 0 {
		box = graph.DefaultBox
	}

	height := l.Height
	if opts.Legend {
		height += legendHeight(box, l.VerticalGap)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=box, fixedsize=true, width=%s, height=%s, fontsize=14, fontname=\"Helvetica\"];\n",
		inches(box.Width), inches(box.Height))
	buf.WriteString("  edge [arrowhead=none, color=\"#555555\"];\n")
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		c := n.Position.Center(box)
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("pos=\"%s,%s!\"", num(c.X), num(height-c.Y)),
		}
		attrs = append(attrs, fmtStyle(Styles[n.Status.Class()])...)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [id=%q];\n", e.Source, e.Target, e.ID)
	}

	if opts.Legend {
		writeLegend(&buf, box, height)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	return fmt.Sprintf("%s\n#%s · %s", n.Label, n.ID, n.Status.Class())
}

func fmtStyle(s style) []string {
	return []string{
		fmt.Sprintf("style=\"rounded,filled,%s\"", s.Line),
		fmt.Sprintf("fillcolor=%q", s.Fill),
		fmt.Sprintf("color=%q", s.Color),
		"penwidth=2",
	}
}

// legendHeight is the extra space reserved below the chart for the legend.
func legendHeight(box graph.Box, gap float64) float64 {
	return max(gap, 20) + box.Height/2
}

// writeLegend pins one half-height sample box per class along the bottom
// edge, left to right in legendOrder.
func writeLegend(buf *bytes.Buffer, box graph.Box, height float64) {
	buf.WriteString("\n")
	y := box.Height / 4
	for i, class := range legendOrder {
		s := Styles[class]
		x := float64(i)*(box.Width+box.Width/4) + box.Width/2
		attrs := append([]string{
			fmt.Sprintf("label=%q", s.Label),
			fmt.Sprintf("pos=\"%s,%s!\"", num(x), num(y)),
			fmt.Sprintf("height=%s", inches(box.Height/2)),
			"fontsize=12",
		}, fmtStyle(s)...)
		fmt.Fprintf(buf, "  %q [%s];\n", "legend-"+class, strings.Join(attrs, ", "))
	}
}

func inches(points float64) string { return num(points / pointsPerInch) }

func num(f float64) string { return fmt.Sprintf("%.4g", f) }
