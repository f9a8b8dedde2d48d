// Package edges traces the boundary polygons of clustering groups.
//
// A traced loop is a list of Corners in lattice units. Each corner names a
// cell (X, Y) and a code giving the direction from the cell centre to the
// emitted point:
//
//	3 2 1
//	4 8 0
//	5 6 7
//
// Odd codes are polygon vertices on the cell's corners, even codes are the
// midpoints of straight boundary runs, and 8 marks an exact point produced by
// SetCorner. Loops run counter-clockwise with the group on their left, so
// outer boundaries have positive area and holes negative.
package edges

import (
	"fmt"
	"math"
	"slices"
)

// Corner is one emitted boundary point.
type Corner struct {
	X    int
	Y    int
	Code int
}

// Exact is the code of a point that already holds its final coordinate.
const Exact = 8

var offsets = [9][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {0, 0},
}

// Point returns the emitted coordinate: the cell centre moved half a cell
// toward the code's direction, or (X, Y) for Exact.
func (c Corner) Point() (x, y float64) {
	if c.Code < 0 || c.Code > Exact {
		return float64(c.X), float64(c.Y)
	}
	o := offsets[c.Code]
	return float64(c.X) + float64(o[0])/2, float64(c.Y) + float64(o[1])/2
}

// IsVertex reports whether the corner is a polygon vertex (odd code or Exact).
func (c Corner) IsVertex() bool {
	return c.Code%2 == 1 || c.Code == Exact
}

func (c Corner) String() string { return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Code) }

// ClusteringEdges is one closed boundary loop of a group.
// Values are immutable; every operation returns a new loop.
type ClusteringEdges struct {
	Category int
	Shank    int
	Corners  []Corner
}

// X returns the corner x coordinates.
func (e ClusteringEdges) X() []int {
	out := make([]int, len(e.Corners))
	for i, c := range e.Corners {
		out[i] = c.X
	}
	return out
}

// Y returns the corner y coordinates.
func (e ClusteringEdges) Y() []int {
	out := make([]int, len(e.Corners))
	for i, c := range e.Corners {
		out[i] = c.Y
	}
	return out
}

// WithCategory returns a copy with category c.
func (e ClusteringEdges) WithCategory(c int) ClusteringEdges {
	e.Corners = slices.Clone(e.Corners)
	e.Category = c
	return e
}

// WithShank returns a copy on shank s.
func (e ClusteringEdges) WithShank(s int) ClusteringEdges {
	e.Corners = slices.Clone(e.Corners)
	e.Shank = s
	return e
}

// Offset shifts every corner by (x, y), keeping codes.
func (e ClusteringEdges) Offset(x, y int) ClusteringEdges {
	return e.Map(func(c Corner) Corner {
		return Corner{X: c.X + x, Y: c.Y + y, Code: c.Code}
	})
}

// Map applies fn to every corner.
func (e ClusteringEdges) Map(fn func(Corner) Corner) ClusteringEdges {
	out := ClusteringEdges{Category: e.Category, Shank: e.Shank, Corners: make([]Corner, len(e.Corners))}
	for i, c := range e.Corners {
		out.Corners[i] = fn(c)
	}
	return out
}

// SetCorner resolves the odd-coded corners to exact points, moving each by
// (±dx, ±dy) toward its code direction, and drops midpoints. It is meant
// for loops whose coordinates were scaled to physical units, with dx and dy
// half the site pitch.
func (e ClusteringEdges) SetCorner(dx, dy int) (ClusteringEdges, error) {
	if dx < 0 || dy < 0 {
		return ClusteringEdges{}, fmt.Errorf("edges: negative corner offset (%d, %d)", dx, dy)
	}
	out := ClusteringEdges{Category: e.Category, Shank: e.Shank}
	for _, c := range e.Corners {
		if c.Code%2 == 0 {
			continue
		}
		o := offsets[c.Code]
		out.Corners = append(out.Corners, Corner{X: c.X + o[0]*dx, Y: c.Y + o[1]*dy, Code: Exact})
	}
	return out, nil
}

// Points returns the polygon vertices, skipping midpoints.
func (e ClusteringEdges) Points() [][2]float64 {
	var out [][2]float64
	for _, c := range e.Corners {
		if !c.IsVertex() {
			continue
		}
		x, y := c.Point()
		out = append(out, [2]float64{x, y})
	}
	return out
}

// Area returns the signed polygon area. Outer loops are positive.
func (e ClusteringEdges) Area() float64 {
	p := e.Points()
	var a float64
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i][0]*p[j][1] - p[j][0]*p[i][1]
	}
	return a / 2
}

// Contains reports whether (x, y) lies strictly inside the polygon,
// by even-odd ray casting.
func (e ClusteringEdges) Contains(x, y float64) bool {
	p := e.Points()
	in := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		xi, yi := p[i][0], p[i][1]
		xj, yj := p[j][0], p[j][1]
		if (yi > y) != (yj > y) {
			xc := xi + (y-yi)*(xj-xi)/(yj-yi)
			if x < xc {
				in = !in
			}
		}
	}
	return in
}

// SmallCornerRemoving drops midpoints and every concave vertex whose two
// adjacent segments are axis-aligned steps no longer than w horizontally and
// h vertically, replacing small notches with a diagonal.
func (e ClusteringEdges) SmallCornerRemoving(w, h int) ClusteringEdges {
	var verts []Corner
	for _, c := range e.Corners {
		if c.IsVertex() {
			verts = append(verts, c)
		}
	}
	out := ClusteringEdges{Category: e.Category, Shank: e.Shank}
	n := len(verts)
	if n < 4 {
		out.Corners = verts
		return out
	}

	small := func(ax, ay, bx, by float64) bool {
		dx, dy := math.Abs(bx-ax), math.Abs(by-ay)
		switch {
		case dy == 0:
			return dx <= float64(w)
		case dx == 0:
			return dy <= float64(h)
		}
		return false
	}

	for i, c := range verts {
		px, py := verts[(i-1+n)%n].Point()
		cx, cy := c.Point()
		nx, ny := verts[(i+1)%n].Point()
		cross := (cx-px)*(ny-cy) - (cy-py)*(nx-cx)
		if cross < 0 && small(px, py, cx, cy) && small(cx, cy, nx, ny) {
			continue
		}
		out.Corners = append(out.Corners, c)
	}
	return out
}

func (e ClusteringEdges) String() string {
	return fmt.Sprintf("ClusteringEdges(category=%d, shank=%d, %v)", e.Category, e.Shank, e.Corners)
}
