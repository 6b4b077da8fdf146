package dag

import (
	"cmp"
	"maps"
	"slices"
)

// CountCrossings sums the edge crossings between every pair of consecutive
// rows. orders holds the node ids of each row from left to right; a row
// missing from the map counts as empty.
//
//	orders := map[int][]string{
//	    0: {"1"},           // the root department
//	    1: {"2", "3", "4"}, // its children, left to right
//	}
//	n := dag.CountCrossings(g, orders)
//
// A forest placed in pre-order has none, which the layout tests rely on.
func CountCrossings(g *DAG, orders map[int][]string) int {
	total := 0
	for _, r := range slices.Sorted(maps.Keys(orders)) {
		if next, ok := orders[r+1]; ok {
			total += CountLayerCrossings(g, orders[r], next)
		}
	}
	return total
}

// CountLayerCrossings counts the crossings between the edges joining upper
// to lower. Edges (u1,v1) and (u2,v2) cross when u1 is left of u2 and v1 is
// right of v2, so the count is the number of inversions among lower
// positions once edges are sorted by upper position. It runs in
// O(E log V) with a Fenwick tree over lower.
func CountLayerCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := PosMap(lower)

	type span struct{ from, to int }
	var spans []span
	for i, id := range upper {
		for _, child := range g.Children(id) {
			if j, ok := lowerPos[child]; ok {
				spans = append(spans, span{i, j})
			}
		}
	}
	if len(spans) < 2 {
		return 0
	}
	slices.SortFunc(spans, func(a, b span) int {
		return cmp.Or(cmp.Compare(a.from, b.from), cmp.Compare(a.to, b.to))
	})

	seen := make(fenwick, len(lower)+1)
	crossings := 0
	for n, s := range spans {
		crossings += n - seen.prefix(s.to)
		seen.add(s.to)
	}
	return crossings
}

// fenwick counts marked positions. Index 0 is unused.
type fenwick []int

// add marks position pos.
func (f fenwick) add(pos int) {
	for i := pos + 1; i < len(f); i += i & -i {
		f[i]++
	}
}

// prefix returns how many marks lie at positions 0 through pos.
func (f fenwick) prefix(pos int) int {
	n := 0
	for i := pos + 1; i > 0; i -= i & -i {
		n += f[i]
	}
	return n
}
