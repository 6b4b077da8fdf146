// Package graph defines the drawable org chart: nodes, edges, the uniform
// node [Box], and the positioned [Layout] handed to a rendering surface.
//
// # Nodes and Edges
//
// A [Node] is one department. Its id is the stringified record id; its
// ParentID is empty for roots. An [Edge] links a parent to a child and
// has a derived id (see [EdgeID]) of the form "e{parent}-{child}", so
// flattening identical data twice yields identical edges.
//
// # Actions
//
// [Actions] is the callback capability (edit, delete, add child) that the
// rendering surface invokes. It is attached to each node by the flattener
// and excluded from serialization.
//
// # Coordinates
//
// [Position] is always the top-left corner of the node's box. Use
// [Position.Center] for center-anchored consumers.
//
// # Serialization
//
// [MarshalLayout], [UnmarshalLayout], [WriteLayoutFile] and
// [ReadLayoutFile] handle the JSON form. Unmarshalling validates that node
// ids are unique and that every edge endpoint exists.
package graph
