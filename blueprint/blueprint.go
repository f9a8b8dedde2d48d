package blueprint

import (
	"strconv"
	"strings"

	"github.com/hupe1980/probecarto/mask"
)

// Option configures a Blueprint.
type Option func(*Blueprint)

// WithChannelmap associates an opaque channel-map key with the blueprint.
func WithChannelmap(key string) Option {
	return func(b *Blueprint) {
		b.channelmap = key
	}
}

// Blueprint is a grid plus a mutable category per site.
// Category 0 is the background value.
type Blueprint struct {
	grid       *Grid
	channelmap string
	categories []int
}

// New creates an all-background blueprint over g.
func New(g *Grid, opts ...Option) *Blueprint {
	b := &Blueprint{
		grid:       g,
		categories: make([]int, g.Len()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Grid returns the underlying grid.
func (b *Blueprint) Grid() *Grid { return b.grid }

// Len returns the number of sites.
func (b *Blueprint) Len() int { return len(b.categories) }

// Channelmap returns the associated channel-map key.
func (b *Blueprint) Channelmap() string { return b.channelmap }

// SameChannelmap reports whether both blueprints were built for the same channel map.
func (b *Blueprint) SameChannelmap(o *Blueprint) bool {
	return o != nil && b.channelmap == o.channelmap
}

// Categories returns the live category buffer. Writes through the returned
// slice edit the blueprint.
func (b *Blueprint) Categories() []int { return b.categories }

// Snapshot returns a copy of the category buffer.
func (b *Blueprint) Snapshot() []int {
	return append([]int(nil), b.categories...)
}

// Get returns the category of site i.
func (b *Blueprint) Get(i int) int { return b.categories[i] }

// Clone returns a deep copy sharing the immutable grid.
func (b *Blueprint) Clone() *Blueprint {
	return &Blueprint{
		grid:       b.grid,
		channelmap: b.channelmap,
		categories: b.Snapshot(),
	}
}

// From replaces the categories with a copy of values.
func (b *Blueprint) From(values []int) error {
	if len(values) != len(b.categories) {
		return ErrLengthMismatch
	}
	copy(b.categories, values)
	return nil
}

// Clear sets every site to background.
func (b *Blueprint) Clear() {
	clear(b.categories)
}

// Set assigns v to every site.
func (b *Blueprint) Set(v int) {
	for i := range b.categories {
		b.categories[i] = v
	}
}

// SetWhere assigns v to every site matching pred and returns the number of
// sites changed.
func (b *Blueprint) SetWhere(v int, pred func(Site, int) bool) int {
	n := 0
	for i := range b.categories {
		if pred(b.grid.Site(i), b.categories[i]) {
			b.categories[i] = v
			n++
		}
	}
	return n
}

// SetIndex assigns v to the given sites. Out-of-range indices are ignored.
func (b *Blueprint) SetIndex(v int, index []int) {
	for _, i := range index {
		if i >= 0 && i < len(b.categories) {
			b.categories[i] = v
		}
	}
}

// SetMask assigns v to every site set in m.
func (b *Blueprint) SetMask(v int, m *mask.Mask) {
	m.Fill(b.categories, v)
}

// Unset clears every site matching pred.
func (b *Blueprint) Unset(pred func(Site, int) bool) int {
	return b.SetWhere(0, pred)
}

// Merge keeps nonzero categories and takes o's category where b is background.
func (b *Blueprint) Merge(o *Blueprint) error {
	return b.MergeValues(o.categories)
}

// MergeValues is Merge against a raw category array.
func (b *Blueprint) MergeValues(values []int) error {
	if len(values) != len(b.categories) {
		return ErrLengthMismatch
	}
	for i, c := range b.categories {
		if c == 0 {
			b.categories[i] = values[i]
		}
	}
	return nil
}

// Count returns the number of sites holding category c.
func (b *Blueprint) Count(c int) int {
	n := 0
	for _, v := range b.categories {
		if v == c {
			n++
		}
	}
	return n
}

// String renders rows from row 0 upward; shanks are separated by '|'.
func (b *Blueprint) String() string {
	return Format(b.grid, b.categories)
}

// Format renders values laid out on g, one line per row.
// Missing lattice cells print as '.'.
func Format(g *Grid, values []int) string {
	ns, ny, nx := g.Shape()
	var sb strings.Builder
	for y := 0; y < ny; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for s := 0; s < ns; s++ {
			if s > 0 {
				sb.WriteString(" |")
			}
			for x := 0; x < nx; x++ {
				if s > 0 || x > 0 {
					sb.WriteByte(' ')
				}
				if i := g.At(s, x, y); i >= 0 {
					sb.WriteString(strconv.Itoa(values[i]))
				} else {
					sb.WriteByte('.')
				}
			}
		}
	}
	return sb.String()
}
