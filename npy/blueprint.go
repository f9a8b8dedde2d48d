package npy

import (
	"fmt"

	"github.com/hupe1980/probecarto/blueprint"
)

// Fields of each site record in an (N, 5) blueprint array.
const (
	FieldShank = iota
	FieldColumn
	FieldRow
	FieldState
	FieldCategory
	blueprintFields
)

// EncodeBlueprint stores values as an (N, 5) int64 array, one record of
// shank, lattice column, lattice row, state and category per site. State is
// written as 0.
func EncodeBlueprint(g *blueprint.Grid, values []int) (*Array, error) {
	n := g.Len()
	if len(values) != n {
		return nil, fmt.Errorf("%w: %d values for %d sites", ErrShapeMismatch, len(values), n)
	}
	flat := make([]int64, n*blueprintFields)
	for i := 0; i < n; i++ {
		rec := flat[i*blueprintFields : (i+1)*blueprintFields]
		rec[FieldShank] = int64(g.ShankOf(i))
		rec[FieldColumn] = int64(g.ColOf(i))
		rec[FieldRow] = int64(g.RowOf(i))
		rec[FieldCategory] = int64(values[i])
	}
	return From(flat, n, blueprintFields)
}

// DecodeBlueprint reads categories for g from an (N, 5) blueprint array,
// matching records by shank and lattice position; sites absent from the array
// stay 0 and records off the grid are skipped. A 1-D array of g.Len()
// elements is taken as the categories in site order. The transposed (5, N)
// layout is still read when N is not 5.
func DecodeBlueprint(g *blueprint.Grid, a *Array) ([]int, error) {
	shape := a.header.Shape
	switch {
	case len(shape) == 1 && shape[0] == g.Len():
		return a.Ints(), nil
	case len(shape) == 2 && shape[1] == blueprintFields:
		return decodeRecords(g, a.Ints(), shape[0], blueprintFields, 1), nil
	case len(shape) == 2 && shape[0] == blueprintFields:
		return decodeRecords(g, a.Ints(), shape[1], 1, shape[1]), nil
	}
	return nil, fmt.Errorf("%w: blueprint array has shape %v", ErrShapeMismatch, shape)
}

// decodeRecords reads n records from v; record k's field f sits at
// k*stride + f*field.
func decodeRecords(g *blueprint.Grid, v []int, n, stride, field int) []int {
	out := make([]int, g.Len())
	at := func(k, f int) int { return v[k*stride+f*field] }
	for k := 0; k < n; k++ {
		if i := g.At(at(k, FieldShank), at(k, FieldColumn), at(k, FieldRow)); i >= 0 {
			out[i] = at(k, FieldCategory)
		}
	}
	return out
}

// DecodeData reads a 1-D per-site float array for g.
func DecodeData(g *blueprint.Grid, a *Array) ([]float64, error) {
	if a.Ndim() != 1 || a.Len() != g.Len() {
		return nil, fmt.Errorf("%w: data array has shape %v, grid has %d sites", ErrShapeMismatch, a.header.Shape, g.Len())
	}
	return a.Float64s(), nil
}
