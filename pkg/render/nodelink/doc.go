// Package nodelink renders org chart layouts as node-link diagrams.
//
// # Overview
//
// The layout engine has already decided where every department goes, so
// Graphviz is only used as a drawing backend. [ToDOT] pins each node with
// pos="x,y!" and renders with the neato engine, which keeps pinned nodes
// where they are and draws straight edges between them.
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Coordinates
//
// Layout positions are top-left corners in points with y growing down.
// DOT positions are box centers with y growing up, so ToDOT flips the
// y axis against the layout height. inputscale=72 makes DOT read the
// positions in points.
//
// # Styling
//
// Nodes are colored by [graph.Status.Class], matching the chart legend:
//
//   - approved: green
//   - not-approved: amber
//   - deleted: red, dashed outline
//   - inactive: grey
//
// Set [Options.Legend] to draw the legend under the chart.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
