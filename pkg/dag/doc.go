// Package dag provides the row-indexed directed graph that the layout engine
// builds for every layout pass.
//
// # Overview
//
// A layered layout places each node into a horizontal row (rank) and
// requires every edge to connect consecutive rows. DAG stores nodes, keeps
// a row index, and answers the adjacency queries the layout needs.
//
// All listing methods ([DAG.Nodes], [DAG.Sources], [DAG.NodesInRow], ...)
// return nodes in insertion order. The layout relies on this for
// determinism: the same input always yields the same traversal.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "1"})
//	g.AddNode(dag.Node{ID: "2", Row: 1})
//	g.AddEdge(dag.Edge{From: "1", To: "2"})
//
// [DAG.ValidateForest] rejects graphs where a node has two parents or a
// cycle exists; [DAG.Validate] checks row consistency after ranks are set.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count inversions with a Fenwick
// tree in O(E log V).
//
// # Concurrency
//
// A DAG is built and discarded inside a single layout call and is not safe
// for concurrent use.
//
// The [transform] subpackage assigns rows.
//
// [transform]: github.com/matzehuels/orgchart/pkg/dag/transform
package dag
