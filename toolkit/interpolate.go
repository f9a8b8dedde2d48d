package toolkit

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method combines the valid neighbors of a NaN site.
type Method int

const (
	// MethodZero replaces every NaN with 0.
	MethodZero Method = iota
	// MethodMean takes the arithmetic mean.
	MethodMean
	// MethodMedian takes the median, averaging the middle pair.
	MethodMedian
	// MethodMin takes the minimum.
	MethodMin
	// MethodMax takes the maximum.
	MethodMax
)

func (m Method) String() string {
	switch m {
	case MethodZero:
		return "zero"
	case MethodMean:
		return "mean"
	case MethodMedian:
		return "median"
	case MethodMin:
		return "min"
	case MethodMax:
		return "max"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod parses a method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "zero":
		return MethodZero, nil
	case "mean":
		return MethodMean, nil
	case "median":
		return MethodMedian, nil
	case "min":
		return MethodMin, nil
	case "max":
		return MethodMax, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

func (m Method) reduce(vals []float64) float64 {
	switch m {
	case MethodMean:
		return stat.Mean(vals, nil)
	case MethodMin:
		return floats.Min(vals)
	case MethodMax:
		return floats.Max(vals)
	case MethodMedian:
		s := slices.Clone(vals)
		slices.Sort(s)
		n := len(s)
		if n%2 == 1 {
			return s[n/2]
		}
		return (s[n/2-1] + s[n/2]) / 2
	}
	return 0
}

// InterpolateNaN fills NaN sites from a k x k neighborhood.
func (t *Toolkit) InterpolateNaN(values []float64, k int, method Method) ([]float64, error) {
	return t.InterpolateNaNKernel(values, k, k, method)
}

// InterpolateNaNKernel fills every NaN site from the sites within kx/2
// columns and ky/2 rows on the same shank, skipping NaNs and the site itself.
// Sites with no valid neighbor stay NaN, except under MethodZero. A 1x1
// kernel returns a copy of values. Neighbors are always read from values.
func (t *Toolkit) InterpolateNaNKernel(values []float64, kx, ky int, method Method) ([]float64, error) {
	if err := t.checkLen(len(values)); err != nil {
		return nil, err
	}
	if kx <= 0 || ky <= 0 || kx%2 == 0 || ky%2 == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidKernel, kx, ky)
	}
	if method < MethodZero || method > MethodMax {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(method))
	}

	out := slices.Clone(values)
	if kx == 1 && ky == 1 {
		return out, nil
	}

	g := t.grid
	rx, ry := kx/2, ky/2
	var buf []float64

	for i, v := range values {
		if !math.IsNaN(v) {
			continue
		}
		if method == MethodZero {
			out[i] = 0
			continue
		}
		s, col, row := g.ShankOf(i), g.ColOf(i), g.RowOf(i)
		buf = buf[:0]
		for dy := -ry; dy <= ry; dy++ {
			for dx := -rx; dx <= rx; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				j := g.At(s, col+dx, row+dy)
				if j < 0 || math.IsNaN(values[j]) {
					continue
				}
				buf = append(buf, values[j])
			}
		}
		if len(buf) > 0 {
			out[i] = method.reduce(buf)
		}
	}
	return out, nil
}
