package transform

import "github.com/matzehuels/orgchart/pkg/dag"

// AssignLayers assigns nodes to horizontal rows based on their depth.
//
// It runs a longest-path pass via Kahn's topological sort. Each node is
// placed one row below the deepest of its parents, so:
//   - Source nodes (roots) are at row 0
//   - Parents are strictly above their children
//   - In a forest, a node's row equals its depth under its root
//
// Existing row assignments are overwritten. The queue is seeded from
// [dag.DAG.Sources], which is in insertion order, so the result does not
// depend on map iteration.
//
// Nodes on a cycle never reach in-degree zero and stay at row 0; callers
// reject cycles with [dag.DAG.ValidateForest] before layering.
//
// Time complexity is O(V + E).
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRows(rows)
}
