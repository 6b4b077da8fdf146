// Package hierarchy models the department tree returned by the backend and
// flattens it into drawable nodes and edges.
//
// # Records
//
// A [Record] is one department with its status flags and ordered
// children. A [Forest] is the list of roots. Ids decode from JSON numbers
// or strings into the same [ID].
//
// # Flattening
//
// [Flatten] performs a pre-order depth-first walk:
//
//	nodes, edges, err := hierarchy.Flatten(forest, actions)
//	if errors.IsSoft(err) {
//	    // empty hierarchy: show "no results"
//	}
//
// For N records and E parent-child relationships it returns exactly N
// nodes and E edges. Every edge endpoint is one of the returned nodes.
//
// # Input Formats
//
// [Decode] reads JSON (bare array or {"data": [...]} envelope),
// [DecodeYAML] reads YAML fixtures, and [ReadFile] picks by extension.
package hierarchy
