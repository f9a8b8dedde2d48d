package npy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedDtype is returned for a descr outside the supported set.
var ErrUnsupportedDtype = errors.New("npy: unsupported dtype")

// Kind is the numpy type character.
type Kind byte

const (
	KindBool  Kind = 'b'
	KindInt   Kind = 'i'
	KindUint  Kind = 'u'
	KindFloat Kind = 'f'
)

// Dtype is an element type: kind, byte size and byte order.
type Dtype struct {
	Kind  Kind
	Size  int
	Order binary.ByteOrder
}

// Supported element types, little-endian where it matters.
var (
	Bool    = Dtype{Kind: KindBool, Size: 1, Order: binary.LittleEndian}
	Uint8   = Dtype{Kind: KindUint, Size: 1, Order: binary.LittleEndian}
	Int8    = Dtype{Kind: KindInt, Size: 1, Order: binary.LittleEndian}
	Int16   = Dtype{Kind: KindInt, Size: 2, Order: binary.LittleEndian}
	Int32   = Dtype{Kind: KindInt, Size: 4, Order: binary.LittleEndian}
	Int64   = Dtype{Kind: KindInt, Size: 8, Order: binary.LittleEndian}
	Float32 = Dtype{Kind: KindFloat, Size: 4, Order: binary.LittleEndian}
	Float64 = Dtype{Kind: KindFloat, Size: 8, Order: binary.LittleEndian}
)

// ParseDescr parses a numpy descr such as "<i8", ">f4" or "|b1".
func ParseDescr(descr string) (Dtype, error) {
	if len(descr) < 3 {
		return Dtype{}, fmt.Errorf("%w: %q", ErrUnsupportedDtype, descr)
	}
	var d Dtype
	switch descr[0] {
	case '<', '|', '=':
		d.Order = binary.LittleEndian
	case '>':
		d.Order = binary.BigEndian
	default:
		return Dtype{}, fmt.Errorf("%w: %q", ErrUnsupportedDtype, descr)
	}
	d.Kind = Kind(descr[1])

	switch descr[2:] {
	case "1":
		d.Size = 1
	case "2":
		d.Size = 2
	case "4":
		d.Size = 4
	case "8":
		d.Size = 8
	default:
		return Dtype{}, fmt.Errorf("%w: %q", ErrUnsupportedDtype, descr)
	}

	switch {
	case d.Kind == KindBool && d.Size == 1:
	case d.Kind == KindInt || d.Kind == KindUint:
	case d.Kind == KindFloat && (d.Size == 4 || d.Size == 8):
	default:
		return Dtype{}, fmt.Errorf("%w: %q", ErrUnsupportedDtype, descr)
	}
	return d, nil
}

// Descr returns the numpy descr. Bool is written as "|u1".
func (d Dtype) Descr() string {
	kind := d.Kind
	if kind == KindBool {
		kind = KindUint
	}
	order := byte('<')
	switch {
	case d.Size == 1:
		order = '|'
	case d.Order == binary.BigEndian:
		order = '>'
	}
	return fmt.Sprintf("%c%c%d", order, kind, d.Size)
}

func (d Dtype) String() string { return d.Descr() }

// Equal compares kind, size and order.
func (d Dtype) Equal(o Dtype) bool {
	if d.Kind != o.Kind || d.Size != o.Size {
		return false
	}
	return d.Size == 1 || d.Order == o.Order
}

// int64At decodes element b as a signed integer, truncating floats.
func (d Dtype) int64At(b []byte) int64 {
	switch d.Kind {
	case KindFloat:
		return int64(d.float64At(b))
	case KindUint, KindBool:
		return int64(d.uint64At(b))
	}
	switch d.Size {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(d.Order.Uint16(b)))
	case 4:
		return int64(int32(d.Order.Uint32(b)))
	}
	return int64(d.Order.Uint64(b))
}

func (d Dtype) uint64At(b []byte) uint64 {
	switch d.Size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(d.Order.Uint16(b))
	case 4:
		return uint64(d.Order.Uint32(b))
	}
	return d.Order.Uint64(b)
}

// float64At decodes element b as a float.
func (d Dtype) float64At(b []byte) float64 {
	switch d.Kind {
	case KindFloat:
		if d.Size == 4 {
			return float64(math.Float32frombits(d.Order.Uint32(b)))
		}
		return math.Float64frombits(d.Order.Uint64(b))
	case KindUint, KindBool:
		return float64(d.uint64At(b))
	}
	return float64(d.int64At(b))
}

// putInt64 encodes v into b.
func (d Dtype) putInt64(b []byte, v int64) {
	switch d.Kind {
	case KindFloat:
		d.putFloat64(b, float64(v))
		return
	case KindBool:
		if v != 0 {
			v = 1
		}
	}
	switch d.Size {
	case 1:
		b[0] = byte(v)
	case 2:
		d.Order.PutUint16(b, uint16(v))
	case 4:
		d.Order.PutUint32(b, uint32(v))
	default:
		d.Order.PutUint64(b, uint64(v))
	}
}

// putFloat64 encodes v into b, truncating for integer kinds.
func (d Dtype) putFloat64(b []byte, v float64) {
	if d.Kind != KindFloat {
		d.putInt64(b, int64(v))
		return
	}
	if d.Size == 4 {
		d.Order.PutUint32(b, math.Float32bits(float32(v)))
		return
	}
	d.Order.PutUint64(b, math.Float64bits(v))
}
