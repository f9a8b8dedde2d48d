package edges

import (
	"cmp"
	"slices"

	"github.com/hupe1980/probecarto/cluster"
)

// Directions of a boundary edge; the group lies on its left.
const (
	dirRight = iota
	dirUp
	dirLeft
	dirDown
)

var dirStep = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// midCode is the code of the point halfway along a straight run.
var midCode = [4]int{6, 0, 2, 4}

// turnCode maps (incoming, outgoing) directions to the vertex code.
func turnCode(in, out int) int {
	switch {
	case (in == dirRight && out == dirUp) || (in == dirUp && out == dirRight):
		return 7
	case (in == dirUp && out == dirLeft) || (in == dirLeft && out == dirUp):
		return 1
	case (in == dirLeft && out == dirDown) || (in == dirDown && out == dirLeft):
		return 3
	default:
		return 5
	}
}

// edge is a unit cell side in doubled coordinates, where cell centres are even.
type edge struct {
	vx, vy int
	dir    int
	col    int
	row    int
}

func (e edge) end() (int, int) {
	return e.vx + 2*dirStep[e.dir][0], e.vy + 2*dirStep[e.dir][1]
}

// Trace returns the boundary loops of every group of c, ordered by group id.
func Trace(c *cluster.Clustering) []ClusteringEdges {
	var out []ClusteringEdges
	for _, id := range c.GroupIDs() {
		out = append(out, TraceGroup(c, id)...)
	}
	return out
}

// TraceGroup returns the boundary loops of group id: the outer boundary first,
// then one loop per hole. Sites are walked by (row, col) regardless of the
// geometry's site order, so the first loop starts at the bottom-left corner of
// the group's lowest row. Diagonally touching cells are joined.
func TraceGroup(c *cluster.Clustering, id int) []ClusteringEdges {
	idx := c.IndexGroup(id)
	if len(idx) == 0 {
		return nil
	}
	g := c.Grid()
	slices.SortFunc(idx, func(a, b int) int {
		return cmp.Or(cmp.Compare(g.RowOf(a), g.RowOf(b)), cmp.Compare(g.ColOf(a), g.ColOf(b)))
	})
	shank := g.ShankOf(idx[0])
	category := c.Category(id)

	member := func(col, row int) bool {
		j := g.At(shank, col, row)
		return j >= 0 && c.Label(j) == id
	}

	var all []edge
	from := make(map[[2]int][]int)
	for _, i := range idx {
		col, row := g.ColOf(i), g.RowOf(i)
		cx, cy := 2*col, 2*row
		add := func(vx, vy, dir int) {
			from[[2]int{vx, vy}] = append(from[[2]int{vx, vy}], len(all))
			all = append(all, edge{vx: vx, vy: vy, dir: dir, col: col, row: row})
		}
		if !member(col, row-1) {
			add(cx-1, cy-1, dirRight)
		}
		if !member(col+1, row) {
			add(cx+1, cy-1, dirUp)
		}
		if !member(col, row+1) {
			add(cx+1, cy+1, dirLeft)
		}
		if !member(col-1, row) {
			add(cx-1, cy+1, dirDown)
		}
	}

	used := make([]bool, len(all))
	var loops []ClusteringEdges

	for e0 := range all {
		if used[e0] {
			continue
		}
		var loop []edge
		cur := e0
		for {
			used[cur] = true
			loop = append(loop, all[cur])
			next := pickNext(all, used, from, cur, e0)
			if next < 0 || next == e0 {
				break
			}
			cur = next
		}
		loops = append(loops, ClusteringEdges{
			Category: category,
			Shank:    shank,
			Corners:  emit(loop),
		})
	}
	return loops
}

// pickNext chooses the edge leaving the end of cur. At a vertex shared by
// two diagonal cells it takes the right turn so the loop keeps both.
func pickNext(all []edge, used []bool, from map[[2]int][]int, cur, first int) int {
	ex, ey := all[cur].end()
	best := -1
	for _, k := range from[[2]int{ex, ey}] {
		if used[k] && k != first {
			continue
		}
		if best < 0 || all[k].dir == (all[cur].dir+3)%4 {
			best = k
		}
	}
	return best
}

func emit(loop []edge) []Corner {
	n := len(loop)
	var out []Corner
	for i, e := range loop {
		prev := loop[(i-1+n)%n]
		next := loop[(i+1)%n]
		if prev.dir != e.dir {
			code := turnCode(prev.dir, e.dir)
			o := offsets[code]
			out = append(out, Corner{X: (e.vx - o[0]) / 2, Y: (e.vy - o[1]) / 2, Code: code})
		} else if next.dir == e.dir {
			out = append(out, Corner{X: e.col, Y: e.row, Code: midCode[e.dir]})
		}
	}
	return out
}
