// Package pkg provides the libraries behind orgchart, which turns a
// department hierarchy into a layered chart.
//
// # Overview
//
// The backend serves departments as nested records. Orgchart flattens them
// into nodes and parent-to-child edges, assigns every node a row (its
// depth) and an x coordinate, and writes the chart as JSON, Graphviz DOT,
// SVG, PNG or PDF.
//
//	Backend / hierarchy file
//	         ↓
//	    [hierarchy] (decode and flatten records)
//	         ↓
//	    [layout] (rank by depth, place subtrees left to right)
//	         ↓
//	    [render/nodelink] (DOT and SVG via Graphviz)
//	         ↓
//	    JSON/DOT/SVG/PNG/PDF output
//
// # Quick Start
//
//	forest, _ := hierarchy.ReadFile("org.json")
//	nodes, edges, _ := hierarchy.Flatten(forest, nil)
//	res, _ := layout.Layout(nodes, edges, layout.DefaultOptions())
//	dot := nodelink.ToDOT(res.Layout, nodelink.Options{})
//
// [pipeline.Runner] wraps these steps with caching and is what the CLI
// and the HTTP server use.
//
// # Main Packages
//
// ## Domain
//
// [hierarchy] - Department records as the backend serves them, JSON and
// YAML decoding, and flattening into graph nodes and edges. Duplicate ids
// fail with DUPLICATE_ID; an empty forest is a soft EMPTY_INPUT.
//
// [graph] - Serialization types shared by every package: nodes, edges,
// statuses, edit requests and the positioned [graph.Layout].
//
// [dag] - Directed graph with row assignments, forest validation and
// crossing counts. [dag/transform] assigns rows by longest path.
//
// [layout] - The layered layout engine. Positions are box top-left
// corners; a parent is centered over its children.
//
// [render] - SVG to PDF and PNG conversion. [render/nodelink] builds DOT
// and SVG with Graphviz.
//
// ## Orchestration
//
// [pipeline] - Build (flatten, then lay out) and Render, with layout and
// artifact caching, plus a Reloader where the newest refresh wins.
//
// ## Infrastructure
//
// [cache] - Cache backends: file (CLI), Redis (shared), null (disabled).
//
// [store] - Chart snapshots: in memory, SQLite (CLI history) and MongoDB
// (server).
//
// [session] - File-backed sessions holding the backend token.
//
// [config] - TOML config file and environment overrides.
//
// [observability] - Hooks for pipeline, cache and HTTP events, with a
// charmbracelet/log implementation.
//
// ## Integrations
//
// [integrations] - Shared HTTP client with retries and coded errors.
// [integrations/departments] talks to the departments backend and adapts
// it to [graph.Actions].
//
// [export/neo4j] - Writes a chart into Neo4j as Department nodes and
// PARENT_OF relationships.
//
// [server] - HTTP API serving charts and forwarding edits to the backend.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test -tags integration ./pkg/...  # Include Redis, MongoDB and Neo4j
package pkg
