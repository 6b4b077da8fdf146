// Package transform assigns rows (ranks) to the nodes of a [dag.DAG].
//
// [AssignLayers] computes the longest path from any source. On a forest
// this is exactly the depth of each node below its root, which is the rank
// the org chart layout uses.
//
// [dag.DAG]: github.com/matzehuels/orgchart/pkg/dag
package transform
