package toolkit

import (
	"slices"
)

type editOptions struct {
	value    int
	hasValue bool
}

// EditOption configures Extend, Reduce and ReduceGroups.
type EditOption func(*editOptions)

// WithValue sets the value written into affected cells.
// Extend defaults to the group's category and Reduce to 0.
func WithValue(v int) EditOption {
	return func(o *editOptions) {
		o.value = v
		o.hasValue = true
	}
}

func applyEdit(opts []EditOption) editOptions {
	var o editOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Extend grows each qualifying group of category by step. Cells covered by
// moving the group through every movement of the box [-Left, Right] x
// [-Down, Up] receive the fill value if they hold 0. Category 0 extends
// every nonzero category.
func (t *Toolkit) Extend(values []int, category int, step AreaChange, threshold AreaThreshold, opts ...EditOption) ([]int, error) {
	if err := step.Validate(); err != nil {
		return nil, err
	}
	c, err := t.Clustering(values, category)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(values)
	if step.Zero() {
		return out, nil
	}
	o := applyEdit(opts)

	for _, id := range c.GroupIDs() {
		comp := c.IndexGroup(id)
		if !threshold.Allow(len(comp)) {
			continue
		}
		v := values[comp[0]]
		if o.hasValue {
			v = o.value
		}
		for _, j := range t.strategy.Grow(t, comp, step) {
			if out[j] == 0 {
				out[j] = v
			}
		}
	}
	return out, nil
}

// Reduce shrinks each qualifying group of category by step. A cell is removed
// when, for some enabled direction of n steps, the cell exactly n steps away
// in that direction is not part of the group. Cells in between are not
// consulted. Removed cells receive the fill value, 0 unless set.
func (t *Toolkit) Reduce(values []int, category int, step AreaChange, threshold AreaThreshold, opts ...EditOption) ([]int, error) {
	if err := step.Validate(); err != nil {
		return nil, err
	}
	c, err := t.Clustering(values, category)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(values)
	if step.Zero() {
		return out, nil
	}
	o := applyEdit(opts)

	for _, id := range c.GroupIDs() {
		comp := c.IndexGroup(id)
		if !threshold.Allow(len(comp)) {
			continue
		}
		for _, j := range t.strategy.Shrink(t, comp, step) {
			out[j] = o.value
		}
	}
	return out, nil
}

// ReduceGroups removes every qualifying group of category entirely.
func (t *Toolkit) ReduceGroups(values []int, category int, threshold AreaThreshold, opts ...EditOption) ([]int, error) {
	c, err := t.Clustering(values, category)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(values)
	o := applyEdit(opts)

	for id, size := range c.Sizes() {
		if !threshold.Allow(size) {
			continue
		}
		for _, j := range c.IndexGroup(id) {
			out[j] = o.value
		}
	}
	return out, nil
}
