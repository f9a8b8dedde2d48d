// Package cluster labels connected groups of equal-category sites on a
// blueprint grid.
//
// Groups never cross shanks. A Clustering is a mutable view over the labels:
// RemoveGroup and UnionGroups edit it and every query reflects the edits.
package cluster

import (
	"errors"
	"iter"
	"slices"

	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/mask"
)

// ErrLengthMismatch is returned when the category array does not match the grid.
var ErrLengthMismatch = errors.New("cluster: length mismatch")

// Options controls labeling.
type Options struct {
	// Conn chooses 4- or 8-directional adjacency.
	Conn Connectivity
	// Category restricts labeling to one category. Zero labels every nonzero category.
	Category int
}

// Clustering holds a positive group id per site, 0 for unlabeled sites.
type Clustering struct {
	grid       *blueprint.Grid
	categories []int
	labels     []int
}

// Only returns Options restricted to category c with adjacency conn.
func Only(c int, conn Connectivity) Options {
	return Options{Conn: conn, Category: c}
}

// Find labels the connected groups of categories over g.
func Find(g *blueprint.Grid, categories []int, opts Options) (*Clustering, error) {
	n := g.Len()
	if len(categories) != n {
		return nil, ErrLengthMismatch
	}

	c := &Clustering{
		grid:       g,
		categories: slices.Clone(categories),
		labels:     make([]int, n),
	}

	foreground := func(i int) bool {
		v := c.categories[i]
		if opts.Category != 0 {
			return v == opts.Category
		}
		return v != 0
	}

	offsets := opts.Conn.Offsets()
	group := 0
	var queue []int

	for i0 := 0; i0 < n; i0++ {
		if c.labels[i0] != 0 || !foreground(i0) {
			continue
		}
		group++
		cat := c.categories[i0]
		c.labels[i0] = group
		queue = append(queue[:0], i0)

		for qi := 0; qi < len(queue); qi++ {
			u := queue[qi]
			s, col, row := g.ShankOf(u), g.ColOf(u), g.RowOf(u)
			for _, d := range offsets {
				v := g.At(s, col+d[0], row+d[1])
				if v < 0 || c.labels[v] != 0 || c.categories[v] != cat {
					continue
				}
				c.labels[v] = group
				queue = append(queue, v)
			}
		}
	}

	return c, nil
}

// Grid returns the grid the clustering was computed on.
func (c *Clustering) Grid() *blueprint.Grid { return c.grid }

// Len returns the number of sites.
func (c *Clustering) Len() int { return len(c.labels) }

// Label returns the group id of site i, 0 if unlabeled.
func (c *Clustering) Label(i int) int { return c.labels[i] }

// Group is an alias of Label.
func (c *Clustering) Group(i int) int { return c.labels[i] }

// Labels returns a copy of the label array.
func (c *Clustering) Labels() []int { return slices.Clone(c.labels) }

// Categories returns the category snapshot the clustering was computed from.
func (c *Clustering) Categories() []int { return c.categories }

// GroupIDs returns the distinct positive labels in ascending order.
func (c *Clustering) GroupIDs() []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, l := range c.labels {
		if l <= 0 {
			continue
		}
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			ids = append(ids, l)
		}
	}
	slices.Sort(ids)
	return ids
}

// Groups iterates the current group ids in ascending order.
func (c *Clustering) Groups() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, id := range c.GroupIDs() {
			if !yield(id) {
				return
			}
		}
	}
}

// GroupNumber returns the number of distinct groups currently present.
func (c *Clustering) GroupNumber() int {
	return len(c.GroupIDs())
}

// GroupCount returns the number of sites in group id.
func (c *Clustering) GroupCount(id int) int {
	if id <= 0 {
		return 0
	}
	n := 0
	for _, l := range c.labels {
		if l == id {
			n++
		}
	}
	return n
}

// GroupsFor returns the ids of the groups holding category, ascending.
func (c *Clustering) GroupsFor(category int) []int {
	var ids []int
	for _, id := range c.GroupIDs() {
		if c.Category(id) == category {
			ids = append(ids, id)
		}
	}
	return ids
}

// Sizes returns the site count per group.
func (c *Clustering) Sizes() map[int]int {
	sizes := make(map[int]int)
	for _, l := range c.labels {
		if l > 0 {
			sizes[l]++
		}
	}
	return sizes
}

// IndexGroup returns the sites of group id in ascending order.
func (c *Clustering) IndexGroup(id int) []int {
	var out []int
	if id <= 0 {
		return out
	}
	for i, l := range c.labels {
		if l == id {
			out = append(out, i)
		}
	}
	return out
}

// MaskGroup returns the mask of all labeled sites.
func (c *Clustering) MaskGroup() *mask.Mask {
	return mask.Where(c.labels, func(l int) bool { return l > 0 })
}

// MaskOf returns the mask of group id.
func (c *Clustering) MaskOf(id int) *mask.Mask {
	if id <= 0 {
		return mask.New(len(c.labels))
	}
	return mask.Eq(c.labels, id)
}

// Category returns the category of group id, or 0 if the group is absent.
func (c *Clustering) Category(id int) int {
	if id <= 0 {
		return 0
	}
	for i, l := range c.labels {
		if l == id {
			return c.categories[i]
		}
	}
	return 0
}

// Shank returns the shank of group id, or -1 if the group is absent.
func (c *Clustering) Shank(id int) int {
	if id <= 0 {
		return -1
	}
	for i, l := range c.labels {
		if l == id {
			return c.grid.ShankOf(i)
		}
	}
	return -1
}

// RemoveGroup clears the label of every site in group id.
func (c *Clustering) RemoveGroup(id int) {
	if id <= 0 {
		return
	}
	for i, l := range c.labels {
		if l == id {
			c.labels[i] = 0
		}
	}
}

// UnionGroups relabels every site of group b as group a.
func (c *Clustering) UnionGroups(a, b int) {
	if a <= 0 || b <= 0 || a == b {
		return
	}
	for i, l := range c.labels {
		if l == b {
			c.labels[i] = a
		}
	}
}

// Retain removes every group for which keep returns false.
func (c *Clustering) Retain(keep func(id, count int) bool) {
	for id, count := range c.Sizes() {
		if !keep(id, count) {
			c.RemoveGroup(id)
		}
	}
}

// Isolate removes every group except id.
func (c *Clustering) Isolate(id int) {
	for i, l := range c.labels {
		if l != id {
			c.labels[i] = 0
		}
	}
}

// Mode returns the id of the largest group, 0 if none.
func (c *Clustering) Mode() int {
	id, _ := c.Largest()
	return id
}

// Largest returns the id and size of the largest group, preferring the
// smaller id on ties. It returns (0, 0) when no group is present.
func (c *Clustering) Largest() (id, count int) {
	for gid, n := range c.Sizes() {
		if n > count || (n == count && gid < id) {
			id, count = gid, n
		}
	}
	return id, count
}
