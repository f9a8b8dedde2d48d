package toolkit

import (
	"slices"

	"github.com/hupe1980/probecarto/mask"
)

// Strategy computes region growth and shrinkage for one group.
// Implementations must agree on results; they differ only in representation.
type Strategy interface {
	// Name identifies the strategy in logs and flags.
	Name() string
	// Grow returns, ascending, the sites outside component reached by moving
	// it through every movement of step.Box().
	Grow(t *Toolkit, component []int, step AreaChange) []int
	// Shrink returns, ascending, the component sites whose neighbor under
	// some movement of step.Probes() lies outside the component.
	Shrink(t *Toolkit, component []int, step AreaChange) []int
}

// ParseStrategy maps "mask" or "index" to a Strategy.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "", "mask":
		return MaskStrategy{}, true
	case "index":
		return IndexStrategy{}, true
	}
	return nil, false
}

// IndexStrategy works on sorted site index lists with binary search.
type IndexStrategy struct{}

func (IndexStrategy) Name() string { return "index" }

func (IndexStrategy) Grow(t *Toolkit, component []int, step AreaChange) []int {
	comp := slices.Clone(component)
	slices.Sort(comp)

	var out []int
	for _, m := range step.Box() {
		for _, j := range t.MoveIndex(comp, m) {
			if _, found := slices.BinarySearch(comp, j); !found {
				out = append(out, j)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (IndexStrategy) Shrink(t *Toolkit, component []int, step AreaChange) []int {
	comp := slices.Clone(component)
	slices.Sort(comp)

	var out []int
	for _, m := range step.Probes() {
		present := t.MoveIndex(comp, m)
		slices.Sort(present)
		for _, i := range comp {
			if _, found := slices.BinarySearch(present, i); !found {
				out = append(out, i)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// MaskStrategy works on roaring-backed masks.
type MaskStrategy struct{}

func (MaskStrategy) Name() string { return "mask" }

func (MaskStrategy) Grow(t *Toolkit, component []int, step AreaChange) []int {
	comp := mask.FromIndex(t.Len(), component)
	acc := mask.New(t.Len())
	for _, m := range step.Box() {
		acc.IOr(t.MoveMask(comp, m))
	}
	return acc.IDiff(comp).Index()
}

func (MaskStrategy) Shrink(t *Toolkit, component []int, step AreaChange) []int {
	comp := mask.FromIndex(t.Len(), component)
	keep := comp.Clone()
	for _, m := range step.Probes() {
		keep.IAnd(t.MoveMask(comp, m))
	}
	return comp.Diff(keep).Index()
}
