// Package layout positions a flattened org chart in horizontal layers.
//
// # Overview
//
// [Layout] takes the nodes and edges produced by the hierarchy flattener
// and returns positioned copies. It runs three explicit steps on a fresh
// [dag.DAG] built for the call:
//
//  1. Ranking: every node is placed at its depth under its root
//     ([transform.AssignLayers]).
//  2. Ordering: nodes within a rank keep pre-order discovery order. Roots
//     follow the node input order and children follow the edge input order,
//     so a tree is drawn without edge crossings.
//  3. Coordinates: leaves take consecutive slots from left to right and
//     every internal node is centered over its children.
//
// # Coordinates
//
// Positions are the top-left corner of an [graph.Box]-sized rectangle:
//
//	x = slot * (Box.Width + HorizontalGap)
//	y = rank * (Box.Height + VerticalGap)
//
// Subtrees occupy disjoint runs of leaf slots, so two nodes in the same
// rank are always at least Box.Width + HorizontalGap apart. Use
// [graph.Position.Center] for consumers that anchor nodes at their center.
//
// # Errors
//
// Edges that reference unknown nodes, nodes with two parents, and cycles
// are STRUCTURAL errors. Repeated node ids are DUPLICATE_ID. No partial
// layout is returned on error.
//
// [dag.DAG]: github.com/matzehuels/orgchart/pkg/dag.DAG
// [transform.AssignLayers]: github.com/matzehuels/orgchart/pkg/dag/transform.AssignLayers
package layout
