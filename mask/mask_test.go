package mask

import (
	"bytes"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	a := []int{0, 1, 2, 1, 0, 3}

	assert.Equal(t, "010100", Eq(a, 1).String())
	assert.Equal(t, "101011", Ne(a, 1).String())
	assert.Equal(t, "110110", Lt(a, 2).String())
	assert.Equal(t, "111110", Le(a, 2).String())
	assert.Equal(t, "001001", Gt(a, 1).String())
	assert.Equal(t, "011101", Ge(a, 1).String())

	f := []float64{1, math.NaN(), 2, math.NaN()}
	assert.Equal(t, "0101", NaN(f).String())
	assert.Equal(t, "1010", NotNaN(f).String())

	assert.Equal(t, "0110", FromIndex(4, []int{1, 2, -1, 9}).String())
	assert.Equal(t, "1001", FromBools([]bool{true, false, false, true}).String())
	assert.Equal(t, "1111", Full(4).String())
	assert.Equal(t, "0000", New(4).String())
}

func TestAlgebra(t *testing.T) {
	a := FromIndex(6, []int{0, 1, 2, 3})
	b := FromIndex(6, []int{2, 3, 4})

	assert.Equal(t, "001100", a.And(b).String())
	assert.Equal(t, "111110", a.Or(b).String())
	assert.Equal(t, "110010", a.Xor(b).String())
	assert.Equal(t, "110000", a.Diff(b).String())
	assert.Equal(t, "000011", a.Not().String())

	// non-mutating forms leave the receiver untouched
	assert.Equal(t, "111100", a.String())

	c := a.Clone().IAnd(b)
	assert.Equal(t, "001100", c.String())

	c = a.Clone().IDiff(b)
	assert.Equal(t, "110000", c.String())

	c = a.Clone().IOr(b)
	assert.Equal(t, "111110", c.String())

	c = a.Clone().IXor(b)
	assert.Equal(t, "110010", c.String())

	c = a.Clone().INot()
	assert.Equal(t, "000011", c.String())

	assert.True(t, a.Equal(a.Clone()))
	assert.False(t, a.Equal(b))

	assert.PanicsWithValue(t, ErrLengthMismatch, func() {
		a.And(New(3))
	})
}

func TestQueries(t *testing.T) {
	m := FromIndex(10, []int{2, 5, 7})

	assert.Equal(t, 3, m.Count())
	assert.True(t, m.Any())
	assert.False(t, m.All())
	assert.True(t, Full(3).All())
	assert.False(t, New(3).Any())

	assert.True(t, m.Test(5))
	assert.False(t, m.Test(6))
	assert.False(t, m.Test(-1))
	assert.False(t, m.Test(10))

	assert.Equal(t, 2, m.NextSet(0))
	assert.Equal(t, 5, m.NextSet(3))
	assert.Equal(t, 7, m.NextSet(7))
	assert.Equal(t, -1, m.NextSet(8))
	assert.Equal(t, -1, m.NextSet(20))

	assert.Equal(t, []int{2, 5, 7}, m.Index())
	assert.Equal(t, []int{2, 5, 7}, slices.Collect(m.Indices()))

	m.Set(0)
	m.Clear(7)
	assert.Equal(t, []int{0, 2, 5}, m.Index())
	assert.Panics(t, func() { m.Set(10) })
}

func TestArrays(t *testing.T) {
	m := FromIndex(5, []int{1, 3})

	out := []int{9, 9, 9, 9, 9}
	m.Fill(out, 0)
	assert.Equal(t, []int{9, 0, 9, 0, 9}, out)

	f := []float64{1, 2, 3, 4, 5}
	m.FillFloat(f, -1)
	assert.Equal(t, []float64{1, -1, 3, -1, 5}, f)

	a := []int{10, 11, 12, 13, 14}
	assert.Equal(t, []int{11, 13}, m.Squeeze(a))
	assert.Equal(t, []float64{-1, -1}, m.SqueezeFloat(f))
	assert.Equal(t, []int{0, 11, 0, 13, 0}, m.Select(a, 0))

	dst := make([]int, 5)
	m.Copy(dst, a)
	assert.Equal(t, []int{0, 11, 0, 13, 0}, dst)

	assert.Equal(t, []bool{false, true, false, true, false}, m.Bools())

	assert.Panics(t, func() { m.Fill(make([]int, 4), 1) })
}

func TestSerialization(t *testing.T) {
	m := FromIndex(1000, []int{0, 17, 500, 999})

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	var back Mask
	_, err = back.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, back.Len())
	assert.True(t, m.Equal(&back))

	_, err = back.ReadFrom(bytes.NewReader([]byte{1, 2}))
	assert.ErrorIs(t, err, ErrCorrupt)
}
