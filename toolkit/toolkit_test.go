package toolkit

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/cluster"
	"github.com/hupe1980/probecarto/edges"
	"github.com/hupe1980/probecarto/mask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture arrays list rows from row 0 upward.

func TestMove(t *testing.T) {
	tk := New(blueprint.Dummy(2, 3, 2))
	in := []int{
		2, 0,
		1, 2,
		0, 1,
		//
		4, 0,
		3, 4,
		0, 3,
	}

	t.Run("Rows", func(t *testing.T) {
		out, err := tk.MoveRows(in, -1)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 0, 1, 0, 0, 3, 4, 0, 3, 0, 0}, out)

		out, err = tk.MoveRows(in, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 2, 0, 1, 2, 0, 0, 4, 0, 3, 4}, out)
	})

	t.Run("Columns", func(t *testing.T) {
		out, err := tk.Move(in, Movement{X: 1})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2, 0, 1, 0, 0, 0, 4, 0, 3, 0, 0}, out)
	})

	t.Run("Category", func(t *testing.T) {
		out, err := tk.MoveCategory(in, Movement{Y: -1}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2, 1, 0, 0, 1, 4, 0, 3, 4, 0, 3}, out)

		out, err = tk.MoveCategory(in, Movement{Y: 1}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 2, 0, 0, 2, 4, 0, 3, 4, 0, 3}, out)

		out, err = tk.MoveCategory(in, Movement{Y: 1}, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 0, 0, 2, 1, 0, 4, 0, 3, 4, 0, 3}, out)
	})

	t.Run("InPlace", func(t *testing.T) {
		buf := append([]int(nil), in...)
		require.NoError(t, tk.MoveInPlace(buf, Movement{Y: -1}))
		assert.Equal(t, []int{1, 2, 0, 1, 0, 0, 3, 4, 0, 3, 0, 0}, buf)
		assert.Equal(t, 2, in[0])
	})

	t.Run("IndexAndMask", func(t *testing.T) {
		assert.Equal(t, []int{2, 3}, tk.MoveIndex([]int{0, 1, 4}, Movement{Y: 1}))
		m := tk.MoveMask(mask.FromIndex(12, []int{0, 1, 4, 6}), Movement{Y: 1})
		assert.Equal(t, []int{2, 3, 8}, m.Index())
	})

	t.Run("Blueprint", func(t *testing.T) {
		bp := blueprint.New(tk.Grid())
		require.NoError(t, bp.From(in))
		require.NoError(t, tk.MoveBlueprint(bp, Movement{Y: 1}, 2))
		assert.Equal(t, []int{0, 0, 2, 0, 0, 2, 4, 0, 3, 4, 0, 3}, bp.Categories())
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := tk.Move([]int{1}, Movement{})
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})
}

func TestFill(t *testing.T) {
	tk := New(blueprint.Dummy(1, 5, 2))
	all := []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"Gaps", []int{1, 1, 0, 1, 1, 1, 0, 1, 1, 1}, all},
		{"Ends", []int{0, 1, 1, 1, 1, 1, 1, 1, 1, 0}, all},
		{"Diagonal", []int{0, 0, 0, 1, 1, 1, 1, 0, 0, 0}, []int{0, 0, 1, 1, 1, 1, 1, 1, 0, 0}},
		{"Full", []int{0, 0, 1, 1, 1, 1, 1, 1, 0, 0}, []int{0, 0, 1, 1, 1, 1, 1, 1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tk.Fill(tt.in, FillOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("Threshold", func(t *testing.T) {
		in := []int{2, 2, 2, 2, 2, 0, 0, 1, 1, 1}

		out, err := tk.Fill(in, FillOptions{Threshold: Threshold(4, 10)})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 2, 2, 2, 2, 0, 1, 1, 1}, out)

		out, err = tk.Fill(in, FillOptions{Threshold: Threshold(0, 4)})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 2, 2, 2, 0, 1, 1, 1, 1}, out)
	})

	t.Run("Category", func(t *testing.T) {
		in := []int{2, 2, 2, 2, 2, 0, 0, 1, 1, 1}
		out, err := tk.Fill(in, FillOptions{Category: 1})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 2, 2, 2, 0, 1, 1, 1, 1}, out)
	})

	t.Run("Overlap", func(t *testing.T) {
		tk := New(blueprint.Dummy(1, 3, 3))
		in := []int{
			1, 1, 1,
			2, 0, 1,
			2, 2, 0,
		}
		want := []int{
			1, 1, 1,
			2, 1, 1,
			2, 2, 0,
		}
		for i := 0; i < 20; i++ {
			out, err := tk.Fill(in, FillOptions{})
			require.NoError(t, err)
			assert.Equal(t, want, out, "call %d", i)
		}
	})
}

func TestFillEdges(t *testing.T) {
	tk := New(blueprint.Dummy(1, 5, 5), WithConnectivity(cluster.Conn4))
	ring := []int{
		0, 0, 0, 0, 0,
		0, 1, 1, 1, 0,
		0, 1, 0, 1, 0,
		0, 1, 1, 1, 0,
		0, 0, 0, 0, 0,
	}
	c, err := tk.Clustering(ring, 1)
	require.NoError(t, err)

	out, err := tk.FillEdges(ring, edges.Trace(c), 0)
	require.NoError(t, err)
	assert.Equal(t, []int{
		0, 0, 0, 0, 0,
		0, 1, 1, 1, 0,
		0, 1, 1, 1, 0,
		0, 1, 1, 1, 0,
		0, 0, 0, 0, 0,
	}, out)
	assert.Equal(t, 0, ring[12])
}

func TestExtend(t *testing.T) {
	t.Run("Rows", func(t *testing.T) {
		tk := New(blueprint.Dummy(1, 5, 2))
		in := []int{0, 0, 0, 0, 1, 1, 0, 0, 0, 0}

		out, err := tk.Extend(in, 1, Rows(1), AllAreas)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 1, 1, 1, 1, 1, 1, 0, 0}, out)

		out, err = tk.Extend(in, 1, Rows(1), AllAreas, WithValue(2))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 2, 2, 1, 1, 2, 2, 0, 0}, out)
	})

	tk := New(blueprint.Dummy(1, 6, 6))
	reset := []int{
		0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0,
		0, 0, 1, 1, 0, 0,
		0, 0, 1, 1, 0, 0,
		0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0,
	}
	tests := []struct {
		name string
		step AreaChange
		want []int
	}{
		{"Up", AreaChange{Up: 1}, []int{
			0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0,
			0, 0, 1, 1, 0, 0,
			0, 0, 1, 1, 0, 0,
			0, 0, 1, 1, 0, 0,
			0, 0, 0, 0, 0, 0,
		}},
		{"Down", AreaChange{Down: 1}, []int{
			0, 0, 0, 0, 0, 0,
			0, 0, 1, 1, 0, 0,
			0, 0, 1, 1, 0, 0,
			0, 0, 1, 1, 0, 0,
			0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0,
		}},
		{"Left", AreaChange{Left: 1}, []int{
			0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0,
			0, 1, 1, 1, 0, 0,
			0, 1, 1, 1, 0, 0,
			0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0,
		}},
		{"Right", AreaChange{Right: 1}, []int{
			0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0,
			0, 0, 1, 1, 1, 0,
			0, 0, 1, 1, 1, 0,
			0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0,
		}},
		{"All", Uniform(1, 1), []int{
			0, 0, 0, 0, 0, 0,
			0, 1, 1, 1, 1, 0,
			0, 1, 1, 1, 1, 0,
			0, 1, 1, 1, 1, 0,
			0, 1, 1, 1, 1, 0,
			0, 0, 0, 0, 0, 0,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tk.Extend(reset, 1, tt.step, AllAreas)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("OnlyBackground", func(t *testing.T) {
		tk := New(blueprint.Dummy(1, 3, 1))
		out, err := tk.Extend([]int{2, 1, 0}, 1, Rows(1), AllAreas)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 1, 1}, out)
	})

	t.Run("Threshold", func(t *testing.T) {
		tk := New(blueprint.Dummy(1, 5, 1))
		out, err := tk.Extend([]int{1, 0, 0, 0, 1}, 1, Rows(1), Threshold(2, 5))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 0, 0, 0, 1}, out)
	})

	t.Run("NegativeStep", func(t *testing.T) {
		_, err := tk.Extend(reset, 1, AreaChange{Up: -1}, AllAreas)
		assert.ErrorIs(t, err, ErrNegativeStep)
	})
}

func TestReduce(t *testing.T) {
	t.Run("Rows", func(t *testing.T) {
		tk := New(blueprint.Dummy(1, 7, 2))
		in := []int{0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0}

		out, err := tk.Reduce(in, 1, Rows(1), AllAreas)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0}, out)

		out, err = tk.Reduce(in, 1, Rows(1), AllAreas, WithValue(2))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 2, 2, 1, 1, 1, 1, 1, 1, 2, 2, 0, 0}, out)

		other := []int{2, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0}
		out, err = tk.Reduce(other, 1, Rows(1), AllAreas)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 0, 0, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0}, out)
	})

	t.Run("ToNone", func(t *testing.T) {
		tk := New(blueprint.Dummy(1, 4, 2))
		out, err := tk.Reduce([]int{0, 0, 1, 1, 1, 1, 0, 0}, 1, Rows(1), AllAreas)
		require.NoError(t, err)
		assert.Equal(t, make([]int, 8), out)
	})

	tk := New(blueprint.Dummy(1, 6, 6))
	reset := []int{
		0, 0, 0, 0, 0, 0,
		0, 1, 1, 1, 1, 0,
		0, 1, 1, 1, 1, 0,
		0, 1, 1, 1, 1, 0,
		0, 1, 1, 1, 1, 0,
		0, 0, 0, 0, 0, 0,
	}
	block := func(x0, x1, y0, y1 int) []int {
		out := make([]int, 36)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				out[y*6+x] = 1
			}
		}
		return out
	}
	tests := []struct {
		name string
		step AreaChange
		want []int
	}{
		{"Up", AreaChange{Up: 1}, block(1, 4, 1, 3)},
		{"Down", AreaChange{Down: 1}, block(1, 4, 2, 4)},
		{"Left", AreaChange{Left: 1}, block(2, 4, 1, 4)},
		{"Right", AreaChange{Right: 1}, block(1, 3, 1, 4)},
		{"All", Uniform(1, 1), block(2, 3, 2, 3)},
		{"UpDown2", AreaChange{Up: 2, Down: 2}, make([]int, 36)},
		{"LeftRight2", AreaChange{Left: 2, Right: 2}, make([]int, 36)},
		{"DownLeft1", AreaChange{Down: 1, Left: 1}, block(2, 4, 2, 4)},
		{"DownLeft2", AreaChange{Down: 2, Left: 2}, block(3, 4, 3, 4)},
		{"DownLeft3", AreaChange{Down: 3, Left: 3}, block(4, 4, 4, 4)},
		{"DownLeft4", AreaChange{Down: 4, Left: 4}, make([]int, 36)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tk.Reduce(reset, 1, tt.step, AllAreas)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("Notch", func(t *testing.T) {
		g := blueprint.Dummy(1, 3, 3)
		in := []int{
			1, 1, 1,
			1, 0, 1,
			1, 0, 1,
		}
		tests := []struct {
			name string
			step AreaChange
			want []int
		}{
			{"Left2", AreaChange{Left: 2}, []int{0, 0, 1, 0, 0, 1, 0, 0, 1}},
			{"Right2", AreaChange{Right: 2}, []int{1, 0, 0, 1, 0, 0, 1, 0, 0}},
			{"Left1", AreaChange{Left: 1}, []int{0, 1, 1, 0, 0, 0, 0, 0, 0}},
		}
		for _, s := range []Strategy{IndexStrategy{}, MaskStrategy{}} {
			for _, tt := range tests {
				t.Run(s.Name()+"/"+tt.name, func(t *testing.T) {
					out, err := New(g, WithStrategy(s)).Reduce(in, 1, tt.step, AllAreas)
					require.NoError(t, err)
					assert.Equal(t, tt.want, out)
				})
			}
		}
	})

	t.Run("ZeroStep", func(t *testing.T) {
		out, err := tk.Reduce(reset, 1, AreaChange{}, AllAreas)
		require.NoError(t, err)
		assert.Equal(t, reset, out)
		out[7] = 9
		assert.Equal(t, 1, reset[7])
	})
}

func TestReduceGroups(t *testing.T) {
	tk := New(blueprint.Dummy(1, 5, 2))
	in := []int{2, 2, 2, 2, 2, 0, 0, 1, 1, 1}

	out, err := tk.ReduceGroups(in, 0, Threshold(0, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 2, 2, 0, 0, 0, 0, 0}, out)

	out, err = tk.ReduceGroups(in, 2, AllAreas, WithValue(7))
	require.NoError(t, err)
	assert.Equal(t, []int{7, 7, 7, 7, 7, 0, 0, 1, 1, 1}, out)
}

func TestStrategyEquivalence(t *testing.T) {
	g := blueprint.Dummy(2, 12, 5)
	index := New(g, WithStrategy(IndexStrategy{}))
	masked := New(g, WithStrategy(MaskStrategy{}))
	rng := rand.New(rand.NewPCG(1, 2))

	steps := []AreaChange{
		Rows(1), Uniform(1, 1), Uniform(2, 1),
		{Up: 2}, {Down: 1, Right: 2}, {Left: 3},
	}

	for round := 0; round < 20; round++ {
		in := make([]int, g.Len())
		for i := range in {
			if rng.IntN(3) == 0 {
				in[i] = 1 + rng.IntN(2)
			}
		}
		for _, step := range steps {
			a, err := index.Extend(in, 0, step, AllAreas)
			require.NoError(t, err)
			b, err := masked.Extend(in, 0, step, AllAreas)
			require.NoError(t, err)
			assert.Equal(t, a, b, "extend %v round %d", step, round)

			a, err = index.Reduce(in, 1, step, Threshold(2, 40))
			require.NoError(t, err)
			b, err = masked.Reduce(in, 1, step, Threshold(2, 40))
			require.NoError(t, err)
			assert.Equal(t, a, b, "reduce %v round %d", step, round)
		}
	}

	s, ok := ParseStrategy("index")
	assert.True(t, ok)
	assert.Equal(t, "index", s.Name())
	_, ok = ParseStrategy("bitset")
	assert.False(t, ok)
}

func TestSurrounding(t *testing.T) {
	tk := New(blueprint.Dummy(2, 3, 3))

	// centre of shank 0
	assert.Equal(t, []int{5, 8, 7, 6, 3, 0, 1, 2}, tk.Surrounding(4, cluster.Conn8))
	assert.Equal(t, []int{5, 7, 3, 1}, tk.Surrounding(4, cluster.Conn4))

	// corner of shank 1 never reaches shank 0
	assert.Equal(t, []int{10, 13, 12}, tk.Surrounding(9, cluster.Conn8))

	assert.Equal(t, 4, tk.SurroundingCode(4, 8))
	assert.Equal(t, -1, tk.SurroundingCode(0, 4))
	assert.Equal(t, -1, tk.SurroundingCode(0, 9))
}

func TestInterpolateNaN(t *testing.T) {
	tk := New(blueprint.Dummy(1, 5, 2))
	x := math.NaN()
	origin := []float64{
		0, 0,
		1, x,
		x, 1,
		1, x,
		0, 0,
	}

	tests := []struct {
		method Method
		want   []float64
	}{
		{MethodMean, []float64{0, 0, 1, .5, 1, 1, 1, .5, 0, 0}},
		{MethodMin, []float64{0, 0, 1, 0, 1, 1, 1, 0, 0, 0}},
		{MethodMax, []float64{0, 0, 1, 1, 1, 1, 1, 1, 0, 0}},
		{MethodMedian, []float64{0, 0, 1, .5, 1, 1, 1, .5, 0, 0}},
		{MethodZero, []float64{0, 0, 1, 0, 0, 1, 1, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			out, err := tk.InterpolateNaN(origin, 3, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.True(t, math.IsNaN(origin[3]))
		})
	}

	t.Run("OneSizeKernel", func(t *testing.T) {
		out, err := tk.InterpolateNaN(origin, 1, MethodMean)
		require.NoError(t, err)
		assert.Equal(t, mask.NaN(origin).Index(), mask.NaN(out).Index())
	})

	t.Run("VerticalKernel", func(t *testing.T) {
		out, err := tk.InterpolateNaNKernel(origin, 1, 3, MethodMean)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 1, .5, 1, 1, 1, .5, 0, 0}, out)
	})

	t.Run("Isolated", func(t *testing.T) {
		tk := New(blueprint.Dummy(1, 3, 1))
		out, err := tk.InterpolateNaN([]float64{x, x, x}, 3, MethodMean)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(out[1]))

		out, err = tk.InterpolateNaN([]float64{1, x, 1}, 3, MethodMean)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1, 1}, out)
	})

	t.Run("EvenKernel", func(t *testing.T) {
		_, err := tk.InterpolateNaN(origin, 2, MethodMean)
		assert.ErrorIs(t, err, ErrInvalidKernel)
	})

	t.Run("ParseMethod", func(t *testing.T) {
		m, err := ParseMethod("Median")
		require.NoError(t, err)
		assert.Equal(t, MethodMedian, m)
		_, err = ParseMethod("mode")
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})
}
