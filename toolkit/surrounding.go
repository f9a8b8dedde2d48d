package toolkit

import (
	"github.com/hupe1980/probecarto/cluster"
)

// Surrounding codes name the neighbor direction, laid out with Y up as
//
//	3 2 1
//	4 8 0
//	5 6 7
//
// Code 8 is the site itself.
var codeOffsets = [9][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {0, 0},
}

// CodeOffset returns the (column, row) offset of a surrounding code.
func CodeOffset(code int) (dx, dy int, ok bool) {
	if code < 0 || code >= len(codeOffsets) {
		return 0, 0, false
	}
	return codeOffsets[code][0], codeOffsets[code][1], true
}

// SurroundingCode returns the site in direction code from i, or -1.
func (t *Toolkit) SurroundingCode(i, code int) int {
	dx, dy, ok := CodeOffset(code)
	if !ok {
		return -1
	}
	return t.moved(i, Movement{X: dx, Y: dy})
}

// Surrounding returns the neighbor sites of i present on the grid, in code
// order. Conn4 visits only the even codes.
func (t *Toolkit) Surrounding(i int, conn cluster.Connectivity) []int {
	stride := 2
	if conn == cluster.Conn8 {
		stride = 1
	}
	var out []int
	for code := 0; code < 8; code += stride {
		if j := t.SurroundingCode(i, code); j >= 0 {
			out = append(out, j)
		}
	}
	return out
}
