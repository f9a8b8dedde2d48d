package probecarto_test

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/probecarto"
	"github.com/hupe1980/probecarto/blobstore"
	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/internal/resource"
	"github.com/hupe1980/probecarto/npy"
	"github.com/hupe1980/probecarto/toolkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...probecarto.Option) (*probecarto.Engine, *blobstore.MemoryStore) {
	t.Helper()
	store := blobstore.NewMemoryStore()
	eng, err := probecarto.New(store, blueprint.Dummy(2, 4, 3), opts...)
	require.NoError(t, err)
	return eng, store
}

func sampleBlueprint(eng *probecarto.Engine) *blueprint.Blueprint {
	bp := eng.NewBlueprint()
	for i := range bp.Categories() {
		bp.Categories()[i] = i % 3
	}
	return bp
}

func TestNew(t *testing.T) {
	_, err := probecarto.New(nil, blueprint.Dummy(1, 1, 1))
	assert.ErrorIs(t, err, probecarto.ErrMalformedInput)

	_, err = probecarto.New(blobstore.NewMemoryStore(), nil)
	assert.ErrorIs(t, err, probecarto.ErrMalformedInput)
}

func TestFormatOf(t *testing.T) {
	tests := map[string]probecarto.Format{
		"a.npy":       probecarto.FormatNPY,
		"a":           probecarto.FormatNPY,
		"dir/b.CSV":   probecarto.FormatCSV,
		"b.tsv":       probecarto.FormatTSV,
		"b.txt":       probecarto.FormatTSV,
		"bundle.npz":  probecarto.FormatNPZ,
		"x.y/bundle.": probecarto.FormatNPY,
	}
	for name, want := range tests {
		assert.Equal(t, want, probecarto.FormatOf(name), name)
	}
	assert.Equal(t, "csv", probecarto.FormatCSV.String())
}

func TestEngine_SaveLoad(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"bp/a.npy", "bp/a.csv", "bp/a.tsv"} {
		t.Run(name, func(t *testing.T) {
			eng, _ := newTestEngine(t, probecarto.WithChannelmap("imro-1"))
			bp := sampleBlueprint(eng)

			require.NoError(t, eng.Save(ctx, name, bp))
			got, err := eng.Load(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, bp.Categories(), got.Categories())
			assert.True(t, got.SameChannelmap(bp))
		})
	}
}

func TestEngine_NpyLayout(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	bp := sampleBlueprint(eng)
	require.NoError(t, eng.Save(ctx, "a.npy", bp))

	raw, err := blobstore.ReadAll(ctx, store, "a.npy")
	require.NoError(t, err)
	a, err := npy.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, []int{24, 5}, a.Shape())
	assert.Equal(t, "<i8", a.Header().Descr)

	rows, err := a.Int2D()
	require.NoError(t, err)
	for i, c := range bp.Categories() {
		assert.Equal(t, c, rows[i][npy.FieldCategory], "site %d", i)
	}
	assert.Equal(t, 1, rows[23][npy.FieldShank])
}

func TestEngine_LocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	eng, err := probecarto.New(blobstore.NewLocalStore(dir), blueprint.Dummy(2, 4, 3))
	require.NoError(t, err)

	bp := sampleBlueprint(eng)
	require.NoError(t, eng.Save(ctx, "probe/bp.npy", bp))

	a, err := npy.ReadFile(filepath.Join(dir, "probe", "bp.npy"))
	require.NoError(t, err)
	assert.Equal(t, []int{24, 5}, a.Shape())

	got, err := eng.Load(ctx, "probe/bp.npy")
	require.NoError(t, err)
	assert.Equal(t, bp.Categories(), got.Categories())

	names, err := eng.List(ctx, "probe/")
	require.NoError(t, err)
	assert.Equal(t, []string{"probe/bp.npy"}, names)

	require.NoError(t, eng.Delete(ctx, "probe/bp.npy"))
	_, err = os.Stat(filepath.Join(dir, "probe", "bp.npy"))
	assert.True(t, os.IsNotExist(err))
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	_, err := eng.Load(ctx, "missing.npy")
	assert.ErrorIs(t, err, probecarto.ErrNotFound)

	require.NoError(t, store.Put(ctx, "junk.npy", []byte("not an array")))
	_, err = eng.Load(ctx, "junk.npy")
	assert.ErrorIs(t, err, probecarto.ErrMalformedInput)

	require.NoError(t, store.Put(ctx, "junk.csv", []byte("a,b,c,d\n")))
	_, err = eng.Load(ctx, "junk.csv")
	assert.ErrorIs(t, err, probecarto.ErrMalformedInput)

	other := blueprint.New(blueprint.Dummy(1, 2, 2))
	err = eng.Save(ctx, "other.npy", other)
	assert.ErrorIs(t, err, probecarto.ErrInvariant)
	var gm *probecarto.ErrGridMismatch
	require.ErrorAs(t, err, &gm)
	assert.Equal(t, 24, gm.Expected)
	assert.Equal(t, 4, gm.Actual)

	err = eng.Save(ctx, "bundle.npz", eng.NewBlueprint())
	assert.ErrorIs(t, err, probecarto.ErrMalformedInput)

	ints, err := npy.From([]int64{1, 2, 3}, 3)
	require.NoError(t, err)
	raw, err := ints.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "short.npy", raw))
	_, err = eng.Load(ctx, "short.npy")
	assert.ErrorIs(t, err, probecarto.ErrMalformedInput)
}

func TestEngine_Data(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i) / 2
	}
	values[5] = math.NaN()
	require.NoError(t, eng.SaveData(ctx, "data.npy", values))

	got, err := eng.LoadData(ctx, "data.npy")
	require.NoError(t, err)
	require.Len(t, got, 24)
	assert.True(t, math.IsNaN(got[5]))
	assert.Equal(t, 11.5, got[23])

	assert.ErrorIs(t, eng.SaveData(ctx, "short.npy", []float64{1}), probecarto.ErrInvariant)

	require.NoError(t, store.Put(ctx, "data.csv", []byte("s,x,y,v\n0,1,0,2.5\n1,2,3,-1\n9,9,9,4\n")))
	got, err = eng.LoadData(ctx, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, 2.5, got[1])
	assert.Equal(t, -1.0, got[23])
	assert.True(t, math.IsNaN(got[0]))
}

func TestEngine_Bundle(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	cats, err := npy.From([]int64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	mask, err := npy.FromBools([]bool{true, false, true})
	require.NoError(t, err)

	require.NoError(t, eng.SaveBundle(ctx, "set.npz", map[string]*npy.Array{
		"categories": cats,
		"mask":       mask,
	}))

	raw, err := blobstore.ReadAll(ctx, store, "set.npz")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")))

	got, err := eng.LoadBundle(ctx, "set.npz")
	require.NoError(t, err)
	require.Len(t, got, 2)
	rows, err := got["categories"].Int2D()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, rows)
	assert.Equal(t, []bool{true, false, true}, got["mask"].Bools())

	_, err = eng.LoadBundle(ctx, "none.npz")
	assert.ErrorIs(t, err, probecarto.ErrNotFound)
}

func TestEngine_Edit(t *testing.T) {
	ctx := context.Background()
	metrics := &probecarto.BasicMetricsCollector{}
	eng, err := probecarto.New(blobstore.NewMemoryStore(), blueprint.Dummy(1, 3, 3),
		probecarto.WithMetricsCollector(metrics),
		probecarto.WithStrategy(toolkit.IndexStrategy{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "index", eng.Toolkit().Strategy().Name())

	bp := eng.NewBlueprint()
	bp.Categories()[4] = 1

	err = eng.Edit(ctx, "extend", bp, func(tk *toolkit.Toolkit, values []int) ([]int, error) {
		return tk.Extend(values, 1, toolkit.Uniform(1, 1), toolkit.AllAreas)
	})
	require.NoError(t, err)
	assert.Equal(t, 9, bp.Count(1))

	err = eng.Edit(ctx, "interpolate", bp, func(tk *toolkit.Toolkit, values []int) ([]int, error) {
		return nil, toolkit.ErrInvalidKernel
	})
	assert.ErrorIs(t, err, probecarto.ErrMalformedInput)
	assert.Equal(t, 9, bp.Count(1), "a failed edit leaves the blueprint unchanged")

	for _, n := range []int{0, 4, 10} {
		err = eng.Edit(ctx, "move", bp, func(tk *toolkit.Toolkit, values []int) ([]int, error) {
			return make([]int, n), nil
		})
		var mismatch *probecarto.ErrGridMismatch
		require.ErrorAs(t, err, &mismatch, "len %d", n)
		assert.Equal(t, 9, mismatch.Expected)
		assert.Equal(t, n, mismatch.Actual)
		assert.ErrorIs(t, err, probecarto.ErrInvariant)
		assert.Equal(t, 9, bp.Count(1))
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(5), stats.EditCount)
	assert.Equal(t, int64(4), stats.EditErrors)
}

func TestEngine_SaveAllLoadAll(t *testing.T) {
	ctx := context.Background()
	metrics := &probecarto.BasicMetricsCollector{}
	eng, _ := newTestEngine(t,
		probecarto.WithWorkers(3),
		probecarto.WithMemoryLimit(4096),
		probecarto.WithIOLimit(1<<20),
		probecarto.WithMetricsCollector(metrics),
	)

	bps := make(map[string]*blueprint.Blueprint)
	for i := 0; i < 10; i++ {
		bp := eng.NewBlueprint()
		bp.Set(i + 1)
		bps[fmt.Sprintf("bp/%02d.npy", i)] = bp
	}
	require.NoError(t, eng.SaveAll(ctx, bps))

	names, err := eng.List(ctx, "bp/")
	require.NoError(t, err)
	require.Len(t, names, 10)

	got, err := eng.LoadAll(ctx, append(names, "bp/missing.npy"))
	require.Error(t, err)
	assert.ErrorIs(t, err, probecarto.ErrNotFound)
	assert.Contains(t, err.Error(), "bp/missing.npy")
	require.Len(t, got, 10)
	for name, bp := range bps {
		assert.Equal(t, bp.Categories(), got[name].Categories(), name)
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(10), stats.SaveCount)
	assert.Equal(t, int64(11), stats.LoadCount)
	assert.Equal(t, int64(1), stats.LoadErrors)
	assert.Equal(t, int64(2), stats.BatchCount)
	assert.Equal(t, int64(21), stats.BatchItems)
	assert.Equal(t, int64(1), stats.BatchFailed)
	assert.Positive(t, stats.SaveBytes)
}

func TestEngine_SaveAllMemoryLimit(t *testing.T) {
	eng, _ := newTestEngine(t, probecarto.WithMemoryLimit(16))

	err := eng.SaveAll(context.Background(), map[string]*blueprint.Blueprint{
		"a.npy": eng.NewBlueprint(),
		"b.npy": eng.NewBlueprint(),
	})
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Contains(t, err.Error(), "a.npy")
	assert.Contains(t, err.Error(), "b.npy")
}

func TestEngine_SaveAllCanceled(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := eng.SaveAll(ctx, map[string]*blueprint.Blueprint{"a.npy": eng.NewBlueprint()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Compression(t *testing.T) {
	ctx := context.Background()
	for _, codec := range []blobstore.Compression{blobstore.CompressionLZ4, blobstore.CompressionZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			eng, inner := newTestEngine(t, probecarto.WithCompression(codec, 0))
			bp := sampleBlueprint(eng)
			require.NoError(t, eng.Save(ctx, "c.npy", bp))

			raw, err := blobstore.ReadAll(ctx, inner, "c.npy")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(raw), "PCZ1"))

			got, err := eng.Load(ctx, "c.npy")
			require.NoError(t, err)
			assert.Equal(t, bp.Categories(), got.Categories())
		})
	}
}

func TestPrometheusCollector(t *testing.T) {
	ctx := context.Background()
	prom := probecarto.NewPrometheusCollector()
	eng, _ := newTestEngine(t, probecarto.WithMetricsCollector(prom))

	require.NoError(t, eng.Save(ctx, "a.npy", eng.NewBlueprint()))
	_, err := eng.Load(ctx, "a.npy")
	require.NoError(t, err)
	_, err = eng.Load(ctx, "b.npy")
	require.Error(t, err)

	families, err := prom.Registry().Gather()
	require.NoError(t, err)
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "probecarto_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, lp := range m.GetLabel() {
				key += lp.GetName() + "=" + lp.GetValue() + " "
			}
			counts[strings.TrimSpace(key)] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, counts["op=save status=ok"])
	assert.Equal(t, 1.0, counts["op=load status=ok"])
	assert.Equal(t, 1.0, counts["op=load status=error"])

	path := filepath.Join(t.TempDir(), "probecarto.prom")
	require.NoError(t, prom.WriteToTextfile(path))
	text, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(text), "probecarto_bytes_total")
}
