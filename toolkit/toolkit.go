// Package toolkit implements region edits over blueprint category arrays:
// translation, gap filling, directional growth and shrinkage, neighborhood
// lookup and NaN interpolation.
//
// Operations take a category array laid out on the toolkit's grid and return
// a new array unless their name ends in InPlace or they take a Blueprint.
// Region growth and shrinkage run through a Strategy; MaskStrategy is the
// default and IndexStrategy produces identical results.
package toolkit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/cluster"
)

var (
	// ErrLengthMismatch is returned when an array does not match the grid length.
	ErrLengthMismatch = errors.New("toolkit: length mismatch")
	// ErrNegativeStep is returned for an AreaChange with a negative direction.
	ErrNegativeStep = errors.New("toolkit: negative area change")
	// ErrInvalidKernel is returned for an even or non-positive kernel size.
	ErrInvalidKernel = errors.New("toolkit: kernel size must be a positive odd number")
	// ErrUnknownMethod is returned for an unsupported interpolation method.
	ErrUnknownMethod = errors.New("toolkit: unknown interpolation method")
)

// Toolkit binds the edit operations to one grid.
type Toolkit struct {
	grid     *blueprint.Grid
	strategy Strategy
	conn     cluster.Connectivity
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithStrategy selects the region growth/shrink strategy.
// If nil is passed, MaskStrategy is used.
func WithStrategy(s Strategy) Option {
	return func(t *Toolkit) {
		if s == nil {
			s = MaskStrategy{}
		}
		t.strategy = s
	}
}

// WithConnectivity sets the adjacency used to find groups in Fill, Extend
// and Reduce. The default is Conn8.
func WithConnectivity(c cluster.Connectivity) Option {
	return func(t *Toolkit) {
		t.conn = c
	}
}

// New returns a Toolkit over g.
func New(g *blueprint.Grid, opts ...Option) *Toolkit {
	t := &Toolkit{
		grid:     g,
		strategy: MaskStrategy{},
		conn:     cluster.Conn8,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Grid returns the toolkit's grid.
func (t *Toolkit) Grid() *blueprint.Grid { return t.grid }

// Strategy returns the configured strategy.
func (t *Toolkit) Strategy() Strategy { return t.strategy }

// Connectivity returns the configured group adjacency.
func (t *Toolkit) Connectivity() cluster.Connectivity { return t.conn }

// Len returns the number of grid sites.
func (t *Toolkit) Len() int { return t.grid.Len() }

func (t *Toolkit) checkLen(n int) error {
	if n != t.grid.Len() {
		return fmt.Errorf("%w: got %d, grid has %d sites", ErrLengthMismatch, n, t.grid.Len())
	}
	return nil
}

// Clustering labels the groups of values; category 0 labels every nonzero category.
func (t *Toolkit) Clustering(values []int, category int) (*cluster.Clustering, error) {
	if err := t.checkLen(len(values)); err != nil {
		return nil, err
	}
	return cluster.Find(t.grid, values, cluster.Options{Conn: t.conn, Category: category})
}

// moved returns the site reached by moving i by m, or -1 if it leaves the grid.
func (t *Toolkit) moved(i int, m Movement) int {
	g := t.grid
	return g.At(g.ShankOf(i), g.ColOf(i)+m.X, g.RowOf(i)+m.Y)
}
