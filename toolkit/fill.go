package toolkit

import (
	"slices"

	"github.com/hupe1980/probecarto/edges"
)

// FillOptions controls Fill.
type FillOptions struct {
	// Category restricts filling to one category. Zero fills every nonzero category.
	Category int
	// Threshold filters groups by size. The zero value admits every group.
	Threshold AreaThreshold
}

func (o FillOptions) threshold() AreaThreshold {
	if o.Threshold == (AreaThreshold{}) {
		return AllAreas
	}
	return o.Threshold
}

// Fill closes single-row gaps inside each qualifying group. Within the group's
// column span, a row touched by the group that is not fully populated but
// borders a fully populated row receives the group's category across the span.
// Populated rows are judged on the input, so one call fills at most one row
// next to each full row. Groups are visited in ascending id order and a fill
// only writes sites that are background or already hold the group's category,
// so where two groups compete for a site the lower id wins.
func (t *Toolkit) Fill(values []int, opts FillOptions) ([]int, error) {
	c, err := t.Clustering(values, opts.Category)
	if err != nil {
		return nil, err
	}
	g := t.grid
	threshold := opts.threshold()
	out := slices.Clone(values)

	sizes := c.Sizes()
	for _, id := range c.GroupIDs() {
		if !threshold.Allow(sizes[id]) {
			continue
		}
		idx := c.IndexGroup(id)
		cat := values[idx[0]]
		s := g.ShankOf(idx[0])

		cmin, cmax := g.ColOf(idx[0]), g.ColOf(idx[0])
		rmin, rmax := g.RowOf(idx[0]), g.RowOf(idx[0])
		for _, i := range idx[1:] {
			cmin, cmax = min(cmin, g.ColOf(i)), max(cmax, g.ColOf(i))
			rmin, rmax = min(rmin, g.RowOf(i)), max(rmax, g.RowOf(i))
		}

		full := make([]bool, rmax-rmin+1)
		for r := rmin; r <= rmax; r++ {
			full[r-rmin] = true
			for col := cmin; col <= cmax; col++ {
				j := g.At(s, col, r)
				if j < 0 || values[j] != cat {
					full[r-rmin] = false
					break
				}
			}
		}

		for r := rmin; r <= rmax; r++ {
			k := r - rmin
			if full[k] {
				continue
			}
			if (k == 0 || !full[k-1]) && (k == len(full)-1 || !full[k+1]) {
				continue
			}
			for col := cmin; col <= cmax; col++ {
				if j := g.At(s, col, r); j >= 0 && (out[j] == 0 || out[j] == cat) {
					out[j] = cat
				}
			}
		}
	}

	return out, nil
}

// FillEdges sets every site whose cell centre lies inside one of loops to
// value, or to the loop's category when value is 0. Loops are matched to
// sites by shank.
func (t *Toolkit) FillEdges(values []int, loops []edges.ClusteringEdges, value int) ([]int, error) {
	if err := t.checkLen(len(values)); err != nil {
		return nil, err
	}
	g := t.grid
	out := slices.Clone(values)

	for _, e := range loops {
		v := value
		if v == 0 {
			v = e.Category
		}
		for i := range out {
			if g.ShankOf(i) != e.Shank {
				continue
			}
			if e.Contains(float64(g.ColOf(i)), float64(g.RowOf(i))) {
				out[i] = v
			}
		}
	}
	return out, nil
}
