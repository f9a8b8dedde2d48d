// Package npy reads and writes numpy .npy arrays and .npz archives.
//
// An Array keeps its payload as raw bytes in the declared dtype and converts
// on access, so an int64 file can be read as float64 and the reverse.
// Only C-order arrays are supported.
package npy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/probecarto/internal/mmap"
)

// ErrShapeMismatch is returned when data does not fit the requested shape.
var ErrShapeMismatch = errors.New("npy: shape mismatch")

// Array is a decoded .npy array.
type Array struct {
	header Header
	dtype  Dtype
	data   []byte
}

func newArray(d Dtype, shape []int) *Array {
	h := NewHeader(d.Descr(), shape...)
	return &Array{header: h, dtype: d, data: make([]byte, h.Count()*d.Size)}
}

// Header returns a copy of the array header.
func (a *Array) Header() Header {
	h := a.header
	h.Shape = append([]int(nil), h.Shape...)
	return h
}

// Dtype returns the element type.
func (a *Array) Dtype() Dtype { return a.dtype }

// Shape returns the dimensions.
func (a *Array) Shape() []int { return append([]int(nil), a.header.Shape...) }

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.header.Shape) }

// Len returns the element count.
func (a *Array) Len() int { return a.header.Count() }

// Bytes returns the raw payload. It must not be modified.
func (a *Array) Bytes() []byte { return a.data }

func (a *Array) elem(i int) []byte {
	s := a.dtype.Size
	return a.data[i*s : (i+1)*s]
}

// Int64At returns element i as an int64.
func (a *Array) Int64At(i int) int64 { return a.dtype.int64At(a.elem(i)) }

// Float64At returns element i as a float64.
func (a *Array) Float64At(i int) float64 { return a.dtype.float64At(a.elem(i)) }

// Ints returns every element as int in C order.
func (a *Array) Ints() []int {
	out := make([]int, a.Len())
	for i := range out {
		out[i] = int(a.Int64At(i))
	}
	return out
}

// Int64s returns every element as int64.
func (a *Array) Int64s() []int64 {
	out := make([]int64, a.Len())
	for i := range out {
		out[i] = a.Int64At(i)
	}
	return out
}

// Float64s returns every element as float64.
func (a *Array) Float64s() []float64 {
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = a.Float64At(i)
	}
	return out
}

// Bools returns every element as a bool, true where nonzero.
func (a *Array) Bools() []bool {
	out := make([]bool, a.Len())
	for i := range out {
		out[i] = a.Float64At(i) != 0
	}
	return out
}

func (a *Array) dims(n int) error {
	if a.Ndim() != n {
		return fmt.Errorf("%w: want %d dimensions, have %v", ErrShapeMismatch, n, a.header.Shape)
	}
	return nil
}

// Int2D returns a 2-D array as rows.
func (a *Array) Int2D() ([][]int, error) {
	if err := a.dims(2); err != nil {
		return nil, err
	}
	return split(a.Ints(), a.header.Shape[0], a.header.Shape[1]), nil
}

// Float2D returns a 2-D array as rows.
func (a *Array) Float2D() ([][]float64, error) {
	if err := a.dims(2); err != nil {
		return nil, err
	}
	return split(a.Float64s(), a.header.Shape[0], a.header.Shape[1]), nil
}

// Bool2D returns a 2-D array as rows.
func (a *Array) Bool2D() ([][]bool, error) {
	if err := a.dims(2); err != nil {
		return nil, err
	}
	return split(a.Bools(), a.header.Shape[0], a.header.Shape[1]), nil
}

// Int3D returns a 3-D array as nested rows.
func (a *Array) Int3D() ([][][]int, error) {
	if err := a.dims(3); err != nil {
		return nil, err
	}
	return split3(a.Ints(), a.header.Shape), nil
}

// Float3D returns a 3-D array as nested rows.
func (a *Array) Float3D() ([][][]float64, error) {
	if err := a.dims(3); err != nil {
		return nil, err
	}
	return split3(a.Float64s(), a.header.Shape), nil
}

func split[T any](flat []T, rows, cols int) [][]T {
	out := make([][]T, rows)
	for r := range out {
		out[r] = flat[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return out
}

func split3[T any](flat []T, shape []int) [][][]T {
	n0, n1, n2 := shape[0], shape[1], shape[2]
	out := make([][][]T, n0)
	for i := range out {
		out[i] = split(flat[i*n1*n2:(i+1)*n1*n2], n1, n2)
	}
	return out
}

// Convert returns a copy of the array in dtype d.
func (a *Array) Convert(d Dtype) *Array {
	out := newArray(d, a.header.Shape)
	for i := 0; i < a.Len(); i++ {
		dst := out.elem(i)
		if a.dtype.Kind == KindFloat {
			d.putFloat64(dst, a.Float64At(i))
		} else {
			d.putInt64(dst, a.Int64At(i))
		}
	}
	return out
}

// Reshape returns a view with a new shape of the same element count.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	h := a.header
	h.Shape = append([]int(nil), shape...)
	if h.Count() != a.Len() {
		return nil, fmt.Errorf("%w: cannot reshape %v to %v", ErrShapeMismatch, a.header.Shape, shape)
	}
	return &Array{header: h, dtype: a.dtype, data: a.data}, nil
}

// WriteTo writes the header and payload.
func (a *Array) WriteTo(w io.Writer) (int64, error) {
	n, err := WriteHeader(w, a.header)
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(a.data)
	return int64(n + m), err
}

// MarshalBinary encodes the array as a .npy file image.
func (a *Array) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes an array from r.
func Read(r io.Reader) (*Array, error) {
	h, _, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	a, err := fromHeader(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, a.data); err != nil {
		return nil, fmt.Errorf("npy: read payload: %w", err)
	}
	return a, nil
}

// Decode decodes an array from an in-memory file image. The payload is copied.
func Decode(b []byte) (*Array, error) {
	r := bytes.NewReader(b)
	h, n, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	a, err := fromHeader(h)
	if err != nil {
		return nil, err
	}
	if len(b)-n < len(a.data) {
		return nil, fmt.Errorf("npy: read payload: %w", io.ErrUnexpectedEOF)
	}
	copy(a.data, b[n:])
	return a, nil
}

func fromHeader(h Header) (*Array, error) {
	if h.FortranOrder {
		return nil, fmt.Errorf("%w: fortran order", ErrUnsupportedFormat)
	}
	d, err := h.Dtype()
	if err != nil {
		return nil, err
	}
	for _, dim := range h.Shape {
		if dim < 0 {
			return nil, fmt.Errorf("%w: negative dimension in %v", ErrMalformedHeader, h.Shape)
		}
	}
	return &Array{header: h, dtype: d, data: make([]byte, h.Count()*d.Size)}, nil
}

// ReadFile memory-maps path and decodes the array in it.
func ReadFile(path string) (*Array, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	h, n, err := ReadHeader(bytes.NewReader(m.Bytes()))
	if err != nil {
		return nil, err
	}
	a, err := fromHeader(h)
	if err != nil {
		return nil, err
	}
	payload, err := m.Region(n, len(a.data))
	if err != nil {
		return nil, fmt.Errorf("npy: read payload: %w", io.ErrUnexpectedEOF)
	}
	_ = payload.Advise(mmap.AccessSequential)
	copy(a.data, payload.Bytes())
	return a, nil
}

// WriteFile writes a to path, replacing any existing file.
func WriteFile(path string, a *Array) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := a.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
