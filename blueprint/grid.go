package blueprint

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyGeometry is returned when a geometry has no sites.
	ErrEmptyGeometry = errors.New("blueprint: empty geometry")
	// ErrGeometryMismatch is returned when the coordinate arrays differ in length.
	ErrGeometryMismatch = errors.New("blueprint: coordinate arrays differ in length")
	// ErrInvalidSpacing is returned when dx or dy is not positive.
	ErrInvalidSpacing = errors.New("blueprint: spacing must be positive")
	// ErrLengthMismatch is returned when a category array does not match the grid length.
	ErrLengthMismatch = errors.New("blueprint: length mismatch")
)

// ErrDuplicatedSite indicates two sites share the same (shank, x, y).
type ErrDuplicatedSite struct {
	Shank, X, Y int
	First       int
	Second      int
}

func (e *ErrDuplicatedSite) Error() string {
	return fmt.Sprintf("blueprint: duplicated element s=%d x=%d y=%d (sites %d and %d)",
		e.Shank, e.X, e.Y, e.First, e.Second)
}

// Geometry is the coordinate data supplied by a probe description.
// Shank, X and Y are parallel arrays with one entry per site; X and Y are
// physical positions that are multiples of DX and DY away from their minimum.
type Geometry struct {
	Shank []int
	X     []int
	Y     []int
	DX    int
	DY    int
}

// Site is one grid cell.
type Site struct {
	Index int
	Shank int
	X     int
	Y     int
	Col   int
	Row   int
}

// Grid is an immutable shank-structured lattice built from a Geometry.
//
// Sites keep the order given by the geometry. Lattice coordinates (col, row)
// are derived as (x-xmin)/dx and (y-ymin)/dy and are used by every
// neighborhood algorithm.
type Grid struct {
	shank []int
	x     []int
	y     []int
	col   []int
	row   []int

	dx, dy     int
	xmin, ymin int
	ns, nx, ny int

	lut []int
}

// NewGrid builds a grid from a geometry.
func NewGrid(geom Geometry) (*Grid, error) {
	n := len(geom.Shank)
	if n == 0 {
		return nil, ErrEmptyGeometry
	}
	if len(geom.X) != n || len(geom.Y) != n {
		return nil, ErrGeometryMismatch
	}
	if geom.DX <= 0 || geom.DY <= 0 {
		return nil, ErrInvalidSpacing
	}

	g := &Grid{
		shank: append([]int(nil), geom.Shank...),
		x:     append([]int(nil), geom.X...),
		y:     append([]int(nil), geom.Y...),
		col:   make([]int, n),
		row:   make([]int, n),
		dx:    geom.DX,
		dy:    geom.DY,
		xmin:  geom.X[0],
		ymin:  geom.Y[0],
	}

	smax, xmax, ymax := 0, g.xmin, g.ymin
	for i := 0; i < n; i++ {
		if g.shank[i] < 0 {
			return nil, fmt.Errorf("blueprint: negative shank %d at site %d", g.shank[i], i)
		}
		smax = max(smax, g.shank[i])
		g.xmin = min(g.xmin, g.x[i])
		g.ymin = min(g.ymin, g.y[i])
		xmax = max(xmax, g.x[i])
		ymax = max(ymax, g.y[i])
	}

	g.ns = smax + 1
	g.nx = (xmax-g.xmin)/g.dx + 1
	g.ny = (ymax-g.ymin)/g.dy + 1

	g.lut = make([]int, g.ns*g.nx*g.ny)
	for i := range g.lut {
		g.lut[i] = -1
	}

	for i := 0; i < n; i++ {
		g.col[i] = (g.x[i] - g.xmin) / g.dx
		g.row[i] = (g.y[i] - g.ymin) / g.dy
		k := g.key(g.shank[i], g.col[i], g.row[i])
		if j := g.lut[k]; j >= 0 {
			return nil, &ErrDuplicatedSite{Shank: g.shank[i], X: g.x[i], Y: g.y[i], First: j, Second: i}
		}
		g.lut[k] = i
	}

	return g, nil
}

// Dummy returns a dense grid of ns shanks, ny rows and nx columns with unit
// spacing, where site order equals the linear index s*ny*nx + y*nx + x.
func Dummy(ns, ny, nx int) *Grid {
	n := ns * ny * nx
	geom := Geometry{
		Shank: make([]int, n),
		X:     make([]int, n),
		Y:     make([]int, n),
		DX:    1,
		DY:    1,
	}
	i := 0
	for s := 0; s < ns; s++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				geom.Shank[i] = s
				geom.X[i] = x
				geom.Y[i] = y
				i++
			}
		}
	}
	g, err := NewGrid(geom)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grid) key(s, col, row int) int {
	return (s*g.ny+row)*g.nx + col
}

// Len returns the number of sites.
func (g *Grid) Len() int { return len(g.shank) }

// Shape returns the lattice extent (shanks, rows, columns).
func (g *Grid) Shape() (ns, ny, nx int) { return g.ns, g.ny, g.nx }

// DX returns the column spacing.
func (g *Grid) DX() int { return g.dx }

// DY returns the row spacing.
func (g *Grid) DY() int { return g.dy }

// Site returns the coordinates of site i.
func (g *Grid) Site(i int) Site {
	return Site{
		Index: i,
		Shank: g.shank[i],
		X:     g.x[i],
		Y:     g.y[i],
		Col:   g.col[i],
		Row:   g.row[i],
	}
}

// ShankOf returns the shank of site i.
func (g *Grid) ShankOf(i int) int { return g.shank[i] }

// ColOf returns the lattice column of site i.
func (g *Grid) ColOf(i int) int { return g.col[i] }

// RowOf returns the lattice row of site i.
func (g *Grid) RowOf(i int) int { return g.row[i] }

// At returns the site at lattice position (s, col, row), or -1.
func (g *Grid) At(s, col, row int) int {
	if s < 0 || s >= g.ns || col < 0 || col >= g.nx || row < 0 || row >= g.ny {
		return -1
	}
	return g.lut[g.key(s, col, row)]
}

// Index returns the site at physical position (s, x, y), or -1.
func (g *Grid) Index(s, x, y int) int {
	dx := x - g.xmin
	dy := y - g.ymin
	if dx < 0 || dy < 0 || dx%g.dx != 0 || dy%g.dy != 0 {
		return -1
	}
	return g.At(s, dx/g.dx, dy/g.dy)
}

// Geometry returns a copy of the coordinate arrays.
func (g *Grid) Geometry() Geometry {
	return Geometry{
		Shank: append([]int(nil), g.shank...),
		X:     append([]int(nil), g.x...),
		Y:     append([]int(nil), g.y...),
		DX:    g.dx,
		DY:    g.dy,
	}
}

// Equal reports whether both grids describe the same sites in the same order.
func (g *Grid) Equal(o *Grid) bool {
	if g == o {
		return true
	}
	if o == nil || g.Len() != o.Len() || g.dx != o.dx || g.dy != o.dy {
		return false
	}
	for i := range g.shank {
		if g.shank[i] != o.shank[i] || g.x[i] != o.x[i] || g.y[i] != o.y[i] {
			return false
		}
	}
	return true
}
