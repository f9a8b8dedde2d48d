package toolkit

import (
	"slices"

	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/mask"
)

// Move shifts every value by m within its shank. Cells that receive no value
// become 0 and values moved off the grid are dropped.
func (t *Toolkit) Move(values []int, m Movement) ([]int, error) {
	if err := t.checkLen(len(values)); err != nil {
		return nil, err
	}
	return t.move(values, m), nil
}

// MoveRows shifts every value by step rows.
func (t *Toolkit) MoveRows(values []int, step int) ([]int, error) {
	return t.Move(values, Movement{Y: step})
}

// MoveInPlace shifts values by m, overwriting the slice.
func (t *Toolkit) MoveInPlace(values []int, m Movement) error {
	if err := t.checkLen(len(values)); err != nil {
		return err
	}
	copy(values, t.move(values, m))
	return nil
}

func (t *Toolkit) move(values []int, m Movement) []int {
	out := make([]int, len(values))
	if m.Zero() {
		copy(out, values)
		return out
	}
	for i, v := range values {
		if v == 0 {
			continue
		}
		if j := t.moved(i, m); j >= 0 {
			out[j] = v
		}
	}
	return out
}

// MoveCategory shifts only the cells holding category. Their sources are
// cleared first, then destinations are written in ascending source order
// overwriting whatever is there. Other categories stay in place.
func (t *Toolkit) MoveCategory(values []int, m Movement, category int) ([]int, error) {
	if err := t.checkLen(len(values)); err != nil {
		return nil, err
	}
	out := slices.Clone(values)
	if m.Zero() {
		return out, nil
	}

	var sources []int
	for i, v := range values {
		if v == category {
			sources = append(sources, i)
			out[i] = 0
		}
	}
	for _, i := range sources {
		if j := t.moved(i, m); j >= 0 {
			out[j] = category
		}
	}
	return out, nil
}

// MoveIndex moves each site index by m and drops those leaving the grid.
// Output order follows input order.
func (t *Toolkit) MoveIndex(index []int, m Movement) []int {
	out := make([]int, 0, len(index))
	for _, i := range index {
		if j := t.moved(i, m); j >= 0 {
			out = append(out, j)
		}
	}
	return out
}

// MoveMask moves every set bit of src by m.
func (t *Toolkit) MoveMask(src *mask.Mask, m Movement) *mask.Mask {
	if m.Zero() {
		return src.Clone()
	}
	out := mask.New(src.Len())
	for i := range src.Indices() {
		if j := t.moved(i, m); j >= 0 {
			out.Set(j)
		}
	}
	return out
}

// MoveBlueprint shifts the blueprint's categories by m in place.
// A nonzero category restricts the move to that category.
func (t *Toolkit) MoveBlueprint(bp *blueprint.Blueprint, m Movement, category int) error {
	var (
		out []int
		err error
	)
	if category == 0 {
		out, err = t.Move(bp.Categories(), m)
	} else {
		out, err = t.MoveCategory(bp.Categories(), m, category)
	}
	if err != nil {
		return err
	}
	return bp.From(out)
}
