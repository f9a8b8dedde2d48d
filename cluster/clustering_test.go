package cluster

import (
	"slices"
	"testing"

	"github.com/hupe1980/probecarto/blueprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	g := blueprint.Dummy(1, 5, 2)

	t.Run("CategoriesSeparate", func(t *testing.T) {
		// 1 1
		// 0 1
		// 2 2
		// 0 1
		// 1 1
		c, err := Find(g, []int{1, 1, 0, 1, 2, 2, 0, 1, 1, 1}, Options{Conn: Conn4})
		require.NoError(t, err)
		assert.Equal(t, 3, c.GroupNumber())
		assert.Equal(t, []int{1, 2, 3}, c.GroupIDs())
		assert.Equal(t, 3, c.GroupCount(1))
		assert.Equal(t, 2, c.GroupCount(2))
		assert.Equal(t, 2, c.Category(2))
		assert.Equal(t, []int{0, 1, 3}, c.IndexGroup(1))
		assert.Equal(t, []int{7, 8, 9}, c.IndexGroup(3))
	})

	t.Run("Diagonal", func(t *testing.T) {
		// 1 1
		// 0 1
		// 1 0
		// 0 1
		// 1 1
		in := []int{1, 1, 0, 1, 1, 0, 0, 1, 1, 1}

		c, err := Find(g, in, Options{Conn: Conn4})
		require.NoError(t, err)
		assert.Equal(t, 3, c.GroupNumber())

		c, err = Find(g, in, Options{Conn: Conn8})
		require.NoError(t, err)
		assert.Equal(t, 1, c.GroupNumber())
		assert.Equal(t, 7, c.GroupCount(1))
	})

	t.Run("DiagonalPair", func(t *testing.T) {
		g := blueprint.Dummy(1, 2, 2)
		in := []int{1, 0, 0, 1}

		c, err := Find(g, in, Options{Conn: Conn4})
		require.NoError(t, err)
		assert.Equal(t, 2, c.GroupNumber())

		c, err = Find(g, in, Options{Conn: Conn8})
		require.NoError(t, err)
		assert.Equal(t, 1, c.GroupNumber())
	})

	t.Run("OnlyCategory", func(t *testing.T) {
		c, err := Find(g, []int{1, 1, 0, 1, 2, 2, 0, 1, 1, 1}, Options{Category: 2})
		require.NoError(t, err)
		assert.Equal(t, 1, c.GroupNumber())
		assert.Equal(t, []int{4, 5}, c.IndexGroup(1))
	})

	t.Run("NoCrossShank", func(t *testing.T) {
		g := blueprint.Dummy(2, 1, 1)
		c, err := Find(g, []int{1, 1}, Options{Conn: Conn8})
		require.NoError(t, err)
		assert.Equal(t, 2, c.GroupNumber())
		assert.Equal(t, 0, c.Shank(1))
		assert.Equal(t, 1, c.Shank(2))
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := Find(g, []int{1}, Options{})
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})
}

func TestClusteringEdits(t *testing.T) {
	g := blueprint.Dummy(1, 5, 2)
	c, err := Find(g, []int{1, 1, 0, 1, 2, 2, 0, 1, 1, 1}, Options{Conn: Conn4})
	require.NoError(t, err)

	assert.Equal(t, "1101110111", c.MaskGroup().String())

	c.RemoveGroup(2)
	assert.Equal(t, 2, c.GroupNumber())
	assert.Equal(t, 0, c.GroupCount(2))
	assert.Equal(t, "1101000111", c.MaskGroup().String())
	assert.Equal(t, 0, c.Label(4))

	c.UnionGroups(1, 3)
	assert.Equal(t, []int{1}, slices.Collect(c.Groups()))
	assert.Equal(t, 6, c.GroupCount(1))
	assert.Equal(t, []int{0, 1, 3, 7, 8, 9}, c.IndexGroup(1))
	assert.Equal(t, c.MaskGroup().String(), c.MaskOf(1).String())

	id, n := c.Largest()
	assert.Equal(t, 1, id)
	assert.Equal(t, 6, n)
	assert.Equal(t, 1, c.Mode())
}

func TestIsolate(t *testing.T) {
	g := blueprint.Dummy(1, 5, 2)
	c, err := Find(g, []int{1, 1, 0, 1, 2, 2, 0, 1, 1, 1}, Options{Conn: Conn4})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, c.GroupsFor(1))
	assert.Equal(t, []int{2}, c.GroupsFor(2))
	assert.Equal(t, 2, c.Group(4))

	c.Isolate(3)
	assert.Equal(t, []int{3}, c.GroupIDs())
	assert.Equal(t, 0, c.Group(0))

	only, err := Find(g, []int{1, 1, 0, 1, 2, 2, 0, 1, 1, 1}, Only(1, Conn8))
	require.NoError(t, err)
	assert.Equal(t, 2, only.GroupNumber())
	assert.Equal(t, 0, only.Group(4))
}

func TestRetain(t *testing.T) {
	g := blueprint.Dummy(1, 5, 2)
	c, err := Find(g, []int{2, 2, 2, 2, 2, 0, 0, 1, 1, 1}, Options{Conn: Conn8})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 5, 2: 3}, c.Sizes())

	c.Retain(func(_, count int) bool { return count >= 4 })
	assert.Equal(t, []int{1}, c.GroupIDs())
	assert.Equal(t, 2, c.Category(1))
}

func TestParseConnectivity(t *testing.T) {
	conn, ok := ParseConnectivity("8")
	assert.True(t, ok)
	assert.Equal(t, Conn8, conn)
	assert.Equal(t, "conn8", conn.String())

	_, ok = ParseConnectivity("6")
	assert.False(t, ok)
	assert.Len(t, Conn4.Offsets(), 4)
	assert.Len(t, Conn8.Offsets(), 8)
}
