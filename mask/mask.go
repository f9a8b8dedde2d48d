// Package mask provides Mask, a fixed-length set of site indices backed by a
// roaring bitmap, together with the boolean algebra used by the toolkit.
//
// Binary operations require both operands to have the same length and panic
// otherwise, as slicing mismatches do.
package mask

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrLengthMismatch is the panic value for operands of different length.
	ErrLengthMismatch = errors.New("mask: length mismatch")
	// ErrCorrupt is returned when a serialized mask cannot be decoded.
	ErrCorrupt = errors.New("mask: corrupt encoding")
)

// Mask is a bit per site over [0, Len()).
type Mask struct {
	n  int
	rb *roaring.Bitmap
}

// New returns an empty mask of length n.
func New(n int) *Mask {
	return &Mask{n: n, rb: roaring.New()}
}

// Full returns a mask of length n with every bit set.
func Full(n int) *Mask {
	m := New(n)
	m.rb.AddRange(0, uint64(n))
	return m
}

// FromIndex returns a mask of length n with the given indices set.
// Out-of-range indices are ignored.
func FromIndex(n int, index []int) *Mask {
	m := New(n)
	for _, i := range index {
		if i >= 0 && i < n {
			m.rb.Add(uint32(i))
		}
	}
	return m
}

// FromBools returns a mask with bit i set where b[i] is true.
func FromBools(b []bool) *Mask {
	m := New(len(b))
	for i, v := range b {
		if v {
			m.rb.Add(uint32(i))
		}
	}
	return m
}

// Where returns a mask with bit i set where pred(a[i]) holds.
func Where[T any](a []T, pred func(T) bool) *Mask {
	m := New(len(a))
	for i, v := range a {
		if pred(v) {
			m.rb.Add(uint32(i))
		}
	}
	return m
}

// Eq returns the mask of a[i] == v.
func Eq(a []int, v int) *Mask { return Where(a, func(x int) bool { return x == v }) }

// Ne returns the mask of a[i] != v.
func Ne(a []int, v int) *Mask { return Where(a, func(x int) bool { return x != v }) }

// Lt returns the mask of a[i] < v.
func Lt(a []int, v int) *Mask { return Where(a, func(x int) bool { return x < v }) }

// Le returns the mask of a[i] <= v.
func Le(a []int, v int) *Mask { return Where(a, func(x int) bool { return x <= v }) }

// Gt returns the mask of a[i] > v.
func Gt(a []int, v int) *Mask { return Where(a, func(x int) bool { return x > v }) }

// Ge returns the mask of a[i] >= v.
func Ge(a []int, v int) *Mask { return Where(a, func(x int) bool { return x >= v }) }

// NaN returns the mask of NaN entries.
func NaN(a []float64) *Mask { return Where(a, math.IsNaN) }

// NotNaN returns the mask of non-NaN entries.
func NotNaN(a []float64) *Mask {
	return Where(a, func(x float64) bool { return !math.IsNaN(x) })
}

// Len returns the mask length.
func (m *Mask) Len() int { return m.n }

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	return &Mask{n: m.n, rb: m.rb.Clone()}
}

// Count returns the number of set bits.
func (m *Mask) Count() int { return int(m.rb.GetCardinality()) }

// Any reports whether any bit is set.
func (m *Mask) Any() bool { return !m.rb.IsEmpty() }

// All reports whether every bit is set.
func (m *Mask) All() bool { return m.Count() == m.n }

// Test reports whether bit i is set. Out-of-range indices are unset.
func (m *Mask) Test(i int) bool {
	if i < 0 || i >= m.n {
		return false
	}
	return m.rb.Contains(uint32(i))
}

// Set sets bit i.
func (m *Mask) Set(i int) {
	m.check(i)
	m.rb.Add(uint32(i))
}

// Clear clears bit i.
func (m *Mask) Clear(i int) {
	m.check(i)
	m.rb.Remove(uint32(i))
}

func (m *Mask) check(i int) {
	if i < 0 || i >= m.n {
		panic(fmt.Sprintf("mask: index %d out of range [0, %d)", i, m.n))
	}
}

func (m *Mask) same(o *Mask) {
	if m.n != o.n {
		panic(ErrLengthMismatch)
	}
}

// And returns m ∧ o.
func (m *Mask) And(o *Mask) *Mask {
	m.same(o)
	return &Mask{n: m.n, rb: roaring.And(m.rb, o.rb)}
}

// IAnd sets m to m ∧ o and returns m.
func (m *Mask) IAnd(o *Mask) *Mask {
	m.same(o)
	m.rb.And(o.rb)
	return m
}

// Or returns m ∨ o.
func (m *Mask) Or(o *Mask) *Mask {
	m.same(o)
	return &Mask{n: m.n, rb: roaring.Or(m.rb, o.rb)}
}

// IOr sets m to m ∨ o and returns m.
func (m *Mask) IOr(o *Mask) *Mask {
	m.same(o)
	m.rb.Or(o.rb)
	return m
}

// Xor returns m ⊕ o.
func (m *Mask) Xor(o *Mask) *Mask {
	m.same(o)
	return &Mask{n: m.n, rb: roaring.Xor(m.rb, o.rb)}
}

// IXor sets m to m ⊕ o and returns m.
func (m *Mask) IXor(o *Mask) *Mask {
	m.same(o)
	m.rb.Xor(o.rb)
	return m
}

// Diff returns m ∧ ¬o.
func (m *Mask) Diff(o *Mask) *Mask {
	m.same(o)
	return &Mask{n: m.n, rb: roaring.AndNot(m.rb, o.rb)}
}

// IDiff sets m to m ∧ ¬o and returns m.
func (m *Mask) IDiff(o *Mask) *Mask {
	m.same(o)
	m.rb.AndNot(o.rb)
	return m
}

// Not returns ¬m.
func (m *Mask) Not() *Mask {
	return m.Clone().INot()
}

// INot complements m in place and returns m.
func (m *Mask) INot() *Mask {
	m.rb.Flip(0, uint64(m.n))
	return m
}

// Equal reports whether both masks have the same length and bits.
func (m *Mask) Equal(o *Mask) bool {
	return m.n == o.n && m.rb.Equals(o.rb)
}

// NextSet returns the first set index >= from, or -1.
func (m *Mask) NextSet(from int) int {
	if from < 0 {
		from = 0
	}
	if from >= m.n {
		return -1
	}
	it := m.rb.Iterator()
	it.AdvanceIfNeeded(uint32(from))
	if !it.HasNext() {
		return -1
	}
	return int(it.Next())
}

// Indices iterates set indices in ascending order.
func (m *Mask) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := m.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// ForEach calls fn for each set index in ascending order.
func (m *Mask) ForEach(fn func(i int)) {
	it := m.rb.Iterator()
	for it.HasNext() {
		fn(int(it.Next()))
	}
}

// Index returns the set indices in ascending order.
func (m *Mask) Index() []int {
	out := make([]int, 0, m.Count())
	m.ForEach(func(i int) { out = append(out, i) })
	return out
}

// Bools expands the mask into a bool slice.
func (m *Mask) Bools() []bool {
	out := make([]bool, m.n)
	m.ForEach(func(i int) { out[i] = true })
	return out
}

func (m *Mask) checkArray(n int) {
	if n != m.n {
		panic(ErrLengthMismatch)
	}
}

// Fill writes v into out at every set index.
func (m *Mask) Fill(out []int, v int) {
	m.checkArray(len(out))
	m.ForEach(func(i int) { out[i] = v })
}

// FillFloat writes v into out at every set index.
func (m *Mask) FillFloat(out []float64, v float64) {
	m.checkArray(len(out))
	m.ForEach(func(i int) { out[i] = v })
}

// Copy writes a[i] into out[i] at every set index.
func (m *Mask) Copy(out, a []int) {
	m.checkArray(len(out))
	m.checkArray(len(a))
	m.ForEach(func(i int) { out[i] = a[i] })
}

// Squeeze returns the values of a at set indices.
func (m *Mask) Squeeze(a []int) []int {
	m.checkArray(len(a))
	out := make([]int, 0, m.Count())
	m.ForEach(func(i int) { out = append(out, a[i]) })
	return out
}

// SqueezeFloat returns the values of a at set indices.
func (m *Mask) SqueezeFloat(a []float64) []float64 {
	m.checkArray(len(a))
	out := make([]float64, 0, m.Count())
	m.ForEach(func(i int) { out = append(out, a[i]) })
	return out
}

// Select returns a copy of a where unset positions hold otherwise.
func (m *Mask) Select(a []int, otherwise int) []int {
	m.checkArray(len(a))
	out := make([]int, len(a))
	for i := range out {
		out[i] = otherwise
	}
	m.Copy(out, a)
	return out
}

// String renders the mask as a 0/1 string.
func (m *Mask) String() string {
	var sb strings.Builder
	sb.Grow(m.n)
	for i := 0; i < m.n; i++ {
		if m.rb.Contains(uint32(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// WriteTo writes the length followed by the portable roaring encoding.
func (m *Mask) WriteTo(w io.Writer) (int64, error) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(m.n))
	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}
	k, err := m.rb.WriteTo(w)
	return int64(n) + k, err
}

// ReadFrom replaces m with a mask read by WriteTo.
func (m *Mask) ReadFrom(r io.Reader) (int64, error) {
	var hdr [4]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		return int64(n), fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	rb := roaring.New()
	k, err := rb.ReadFrom(r)
	if err != nil {
		return int64(n) + k, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	length := int(binary.LittleEndian.Uint32(hdr[:]))
	if !rb.IsEmpty() && int(rb.Maximum()) >= length {
		return int64(n) + k, ErrCorrupt
	}
	m.n = length
	m.rb = rb
	return int64(n) + k, nil
}
