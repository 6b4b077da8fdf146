// Package render turns positioned org charts into documents.
//
// The [nodelink] subpackage writes a layout as Graphviz DOT with every
// node pinned at its computed position, and renders it to SVG in-process.
// [ToPDF] and [ToPNG] convert that SVG with the external rsvg-convert tool
// (from librsvg):
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{Legend: true})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/orgchart/pkg/render/nodelink
package render
