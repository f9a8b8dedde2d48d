package npy

import (
	"fmt"
)

// Number is an element type accepted by From.
type Number interface {
	int | int8 | int16 | int32 | int64 | uint8 | float32 | float64
}

// DtypeOf returns the dtype From uses for T. int maps to int64.
func DtypeOf[T Number]() Dtype {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case uint8:
		return Uint8
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Int64
}

// From builds an array from values. Without a shape the array is 1-D.
func From[T Number](values []T, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	d := DtypeOf[T]()
	a := newArray(d, shape)
	if a.Len() != len(values) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(values), shape)
	}
	for i, v := range values {
		if d.Kind == KindFloat {
			d.putFloat64(a.elem(i), float64(v))
		} else {
			d.putInt64(a.elem(i), int64(v))
		}
	}
	return a, nil
}

// FromBools builds a boolean array.
func FromBools(values []bool, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a := newArray(Bool, shape)
	if a.Len() != len(values) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(values), shape)
	}
	for i, v := range values {
		if v {
			a.data[i] = 1
		}
	}
	return a, nil
}

// From2D builds a 2-D array from equal-length rows.
func From2D[T Number](rows [][]T) (*Array, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	flat := make([]T, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(r), cols)
		}
		flat = append(flat, r...)
	}
	return From(flat, len(rows), cols)
}

// FromBool2D builds a 2-D boolean array from equal-length rows.
func FromBool2D(rows [][]bool) (*Array, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	flat := make([]bool, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(r), cols)
		}
		flat = append(flat, r...)
	}
	return FromBools(flat, len(rows), cols)
}

// From3D builds a 3-D array from a rectangular nested slice.
func From3D[T Number](planes [][][]T) (*Array, error) {
	n1, n2 := 0, 0
	if len(planes) > 0 {
		n1 = len(planes[0])
		if n1 > 0 {
			n2 = len(planes[0][0])
		}
	}
	flat := make([]T, 0, len(planes)*n1*n2)
	for i, p := range planes {
		if len(p) != n1 {
			return nil, fmt.Errorf("%w: plane %d has %d rows, want %d", ErrShapeMismatch, i, len(p), n1)
		}
		for j, r := range p {
			if len(r) != n2 {
				return nil, fmt.Errorf("%w: row [%d][%d] has %d columns, want %d", ErrShapeMismatch, i, j, len(r), n2)
			}
			flat = append(flat, r...)
		}
	}
	return From(flat, len(planes), n1, n2)
}
