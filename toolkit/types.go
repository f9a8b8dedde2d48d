package toolkit

import (
	"fmt"
	"math"
)

// Movement is a translation in lattice units. Positive Y moves toward higher rows.
type Movement struct {
	X int
	Y int
}

// Zero reports whether the movement is the identity.
func (m Movement) Zero() bool { return m.X == 0 && m.Y == 0 }

// Reverse returns the opposite movement.
func (m Movement) Reverse() Movement { return Movement{X: -m.X, Y: -m.Y} }

func (m Movement) String() string { return fmt.Sprintf("Movement(%d, %d)", m.X, m.Y) }

// AreaChange enumerates how many steps an area grows or shrinks per direction.
// Up is toward higher rows, Right toward higher columns.
type AreaChange struct {
	Up    int
	Down  int
	Left  int
	Right int
}

// Rows returns an AreaChange of n steps up and down.
func Rows(n int) AreaChange {
	return AreaChange{Up: n, Down: n}
}

// Uniform returns an AreaChange of x steps left and right and y steps up and down.
func Uniform(x, y int) AreaChange {
	return AreaChange{Up: y, Down: y, Left: x, Right: x}
}

// Zero reports whether every direction is disabled.
func (a AreaChange) Zero() bool {
	return a.Up == 0 && a.Down == 0 && a.Left == 0 && a.Right == 0
}

// Validate rejects negative steps.
func (a AreaChange) Validate() error {
	if a.Up < 0 || a.Down < 0 || a.Left < 0 || a.Right < 0 {
		return fmt.Errorf("%w: %+v", ErrNegativeStep, a)
	}
	return nil
}

// Box returns every movement in [-Left, Right] x [-Down, Up] except the identity,
// ordered by Y then X.
func (a AreaChange) Box() []Movement {
	var out []Movement
	for y := -a.Down; y <= a.Up; y++ {
		for x := -a.Left; x <= a.Right; x++ {
			if x == 0 && y == 0 {
				continue
			}
			out = append(out, Movement{X: x, Y: y})
		}
	}
	return out
}

// Probes returns, per enabled direction, the movement that brings the
// neighbor exactly n steps away in that direction onto the cell. Sites in
// between are not consulted, so a group with a notch keeps the sites whose
// n-th neighbor lies across it.
func (a AreaChange) Probes() []Movement {
	var out []Movement
	if a.Up > 0 {
		out = append(out, Movement{Y: -a.Up})
	}
	if a.Down > 0 {
		out = append(out, Movement{Y: a.Down})
	}
	if a.Left > 0 {
		out = append(out, Movement{X: a.Left})
	}
	if a.Right > 0 {
		out = append(out, Movement{X: -a.Right})
	}
	return out
}

func (a AreaChange) String() string {
	return fmt.Sprintf("AreaChange(up=%d, down=%d, left=%d, right=%d)", a.Up, a.Down, a.Left, a.Right)
}

// AreaThreshold is an inclusive group-size filter.
type AreaThreshold struct {
	Lower int
	Upper int
}

// AllAreas admits every group size.
var AllAreas = AreaThreshold{Lower: 0, Upper: math.MaxInt}

// Threshold returns the inclusive range [lower, upper].
func Threshold(lower, upper int) AreaThreshold {
	return AreaThreshold{Lower: lower, Upper: upper}
}

// Allow reports whether size lies in the threshold.
func (t AreaThreshold) Allow(size int) bool {
	return t.Lower <= size && size <= t.Upper
}

func (t AreaThreshold) String() string {
	if t == AllAreas {
		return "AreaThreshold(all)"
	}
	return fmt.Sprintf("AreaThreshold(%d, %d)", t.Lower, t.Upper)
}
