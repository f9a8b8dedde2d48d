package probecarto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/probecarto/blobstore"
	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/internal/resource"
	"github.com/hupe1980/probecarto/npy"
	"github.com/hupe1980/probecarto/toolkit"
	"golang.org/x/sync/errgroup"
)

// Format is the encoding of a stored blob, chosen by name extension.
type Format int

const (
	// FormatNPY is an (N, 5) int64 blueprint array or a 1-D data array.
	FormatNPY Format = iota
	// FormatCSV is a comma separated site table.
	FormatCSV
	// FormatTSV is a tab separated site table.
	FormatTSV
	// FormatNPZ is a zip archive of named arrays.
	FormatNPZ
)

func (f Format) String() string {
	switch f {
	case FormatNPY:
		return "npy"
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatNPZ:
		return "npz"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf returns the format of a blob name. Unknown extensions are npy.
func FormatOf(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return FormatCSV
	case ".tsv", ".txt":
		return FormatTSV
	case ".npz":
		return FormatNPZ
	}
	return FormatNPY
}

// Engine persists blueprints of one grid in a blob store and applies
// toolkit edits to them.
type Engine struct {
	store   blobstore.Store
	grid    *blueprint.Grid
	toolkit *toolkit.Toolkit
	rc      *resource.Controller

	logger  *Logger
	metrics MetricsCollector
	opts    options
}

// New creates an engine over store for blueprints of grid.
func New(store blobstore.Store, grid *blueprint.Grid, optFns ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrMalformedInput)
	}
	if grid == nil || grid.Len() == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrMalformedInput)
	}
	o := applyOptions(optFns)
	if o.compression != blobstore.CompressionNone {
		store = blobstore.NewCompressed(store, o.compression, o.blockSize)
	}
	return &Engine{
		store:   store,
		grid:    grid,
		toolkit: toolkit.New(grid, o.toolkitOpts...),
		rc:      resource.NewController(o.resources),
		logger:  o.logger,
		metrics: o.metricsCollector,
		opts:    o,
	}, nil
}

// Store returns the blob store, including any compression layer.
func (e *Engine) Store() blobstore.Store { return e.store }

// Grid returns the engine's grid.
func (e *Engine) Grid() *blueprint.Grid { return e.grid }

// Toolkit returns the toolkit bound to the engine's grid.
func (e *Engine) Toolkit() *toolkit.Toolkit { return e.toolkit }

// Logger returns the configured logger.
func (e *Engine) Logger() *Logger { return e.logger }

// NewBlueprint returns an all-background blueprint tagged with the engine's
// channel map.
func (e *Engine) NewBlueprint() *blueprint.Blueprint {
	return blueprint.New(e.grid, blueprint.WithChannelmap(e.opts.channelmap))
}

func (e *Engine) check(bp *blueprint.Blueprint) error {
	if bp == nil {
		return fmt.Errorf("%w: nil blueprint", ErrMalformedInput)
	}
	if bp.Len() != e.grid.Len() || !bp.Grid().Equal(e.grid) {
		return &ErrGridMismatch{Expected: e.grid.Len(), Actual: bp.Len()}
	}
	return nil
}

// Encode renders bp in format f.
func (e *Engine) Encode(bp *blueprint.Blueprint, f Format) ([]byte, error) {
	if err := e.check(bp); err != nil {
		return nil, err
	}
	switch f {
	case FormatNPY:
		a, err := npy.EncodeBlueprint(e.grid, bp.Categories())
		if err != nil {
			return nil, translateError(err)
		}
		return a.MarshalBinary()
	case FormatCSV, FormatTSV:
		var buf bytes.Buffer
		if err := blueprint.WriteCSV(&buf, e.grid, bp.Categories(), f == FormatTSV); err != nil {
			return nil, translateError(err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: cannot encode a blueprint as %s", ErrMalformedInput, f)
}

// Decode parses a blueprint encoded in format f.
func (e *Engine) Decode(data []byte, f Format) (*blueprint.Blueprint, error) {
	var values []int
	switch f {
	case FormatNPY:
		a, err := npy.Decode(data)
		if err != nil {
			return nil, translateError(err)
		}
		if values, err = npy.DecodeBlueprint(e.grid, a); err != nil {
			return nil, translateError(err)
		}
	case FormatCSV, FormatTSV:
		var err error
		if values, err = blueprint.ReadCSV(bytes.NewReader(data), e.grid, f == FormatTSV); err != nil {
			return nil, translateError(err)
		}
	default:
		return nil, fmt.Errorf("%w: cannot decode a blueprint from %s", ErrMalformedInput, f)
	}
	bp := e.NewBlueprint()
	if err := bp.From(values); err != nil {
		return nil, translateError(err)
	}
	return bp, nil
}

// put writes data under name, charging the I/O limit first.
func (e *Engine) put(ctx context.Context, name string, data []byte) error {
	if err := e.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return storeError(e.store.Put(ctx, name, data))
}

// read calls fn with the content of name. Memory-mapped blobs are passed
// without copying and are only valid during fn.
func (e *Engine) read(ctx context.Context, name string, fn func([]byte) error) (int, error) {
	blob, err := e.store.Open(ctx, name)
	if err != nil {
		return 0, storeError(err)
	}
	defer func() { _ = blob.Close() }()

	if m, ok := blob.(blobstore.Mappable); ok {
		b, err := m.Bytes()
		if err == nil {
			if err := e.rc.AcquireIO(ctx, len(b)); err != nil {
				return 0, err
			}
			return len(b), fn(b)
		}
	}

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return 0, storeError(err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(resource.NewRateLimitedReader(ctx, rc, e.rc))
	if err != nil {
		return 0, storeError(err)
	}
	return len(b), fn(b)
}

// Save stores bp under name in the format given by the name's extension.
func (e *Engine) Save(ctx context.Context, name string, bp *blueprint.Blueprint) error {
	start := time.Now()
	data, err := e.Encode(bp, FormatOf(name))
	if err == nil {
		err = e.put(ctx, name, data)
	}
	e.metrics.RecordSave(len(data), time.Since(start), err)
	e.logger.LogSave(ctx, name, len(data), err)
	return err
}

// Load reads the blueprint stored under name.
func (e *Engine) Load(ctx context.Context, name string) (*blueprint.Blueprint, error) {
	start := time.Now()
	var bp *blueprint.Blueprint
	n, err := e.read(ctx, name, func(b []byte) error {
		var err error
		bp, err = e.Decode(b, FormatOf(name))
		return err
	})
	e.metrics.RecordLoad(n, time.Since(start), err)
	e.logger.LogLoad(ctx, name, n, err)
	if err != nil {
		return nil, err
	}
	return bp, nil
}

// SaveData stores one float per site as a 1-D float64 npy array.
func (e *Engine) SaveData(ctx context.Context, name string, values []float64) error {
	start := time.Now()
	var data []byte
	err := e.checkData(values)
	if err == nil {
		var a *npy.Array
		if a, err = npy.From(values, len(values)); err == nil {
			data, err = a.MarshalBinary()
		}
	}
	if err == nil {
		err = e.put(ctx, name, data)
	}
	e.metrics.RecordSave(len(data), time.Since(start), err)
	e.logger.LogSave(ctx, name, len(data), err)
	return translateError(err)
}

func (e *Engine) checkData(values []float64) error {
	if len(values) != e.grid.Len() {
		return &ErrGridMismatch{Expected: e.grid.Len(), Actual: len(values)}
	}
	return nil
}

// LoadData reads per-site values stored as npy or as a CSV/TSV table whose
// last column is numeric. Missing sites are NaN in tables.
func (e *Engine) LoadData(ctx context.Context, name string) ([]float64, error) {
	start := time.Now()
	var values []float64
	f := FormatOf(name)
	n, err := e.read(ctx, name, func(b []byte) error {
		switch f {
		case FormatCSV, FormatTSV:
			v, err := blueprint.ReadCSVData(bytes.NewReader(b), e.grid, f == FormatTSV)
			values = v
			return translateError(err)
		case FormatNPY:
			a, err := npy.Decode(b)
			if err != nil {
				return translateError(err)
			}
			v, err := npy.DecodeData(e.grid, a)
			values = v
			return translateError(err)
		}
		return fmt.Errorf("%w: cannot decode data from %s", ErrMalformedInput, f)
	})
	e.metrics.RecordLoad(n, time.Since(start), err)
	e.logger.LogLoad(ctx, name, n, err)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// SaveBundle streams arrays into a compressed npz archive under name.
func (e *Engine) SaveBundle(ctx context.Context, name string, arrays map[string]*npy.Array) (err error) {
	start := time.Now()
	counter := &countingWriter{}
	defer func() {
		e.metrics.RecordSave(int(counter.n), time.Since(start), err)
		e.logger.LogSave(ctx, name, int(counter.n), err)
	}()

	w, err := e.store.Create(ctx, name)
	if err != nil {
		return storeError(err)
	}
	counter.w = resource.NewRateLimitedWriter(ctx, w, e.rc)

	zw := npy.NewNpzWriter(counter, true)
	keys := make([]string, 0, len(arrays))
	for k := range arrays {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err = zw.Write(k, arrays[k]); err != nil {
			break
		}
	}
	if err == nil {
		err = zw.Close()
	}
	if cerr := w.Close(); err == nil {
		err = storeError(cerr)
	} else {
		_ = e.store.Delete(ctx, name)
	}
	return translateError(err)
}

// LoadBundle reads every array of the npz archive stored under name.
func (e *Engine) LoadBundle(ctx context.Context, name string) (map[string]*npy.Array, error) {
	start := time.Now()
	blob, err := e.store.Open(ctx, name)
	if err != nil {
		err = storeError(err)
		e.logger.LogLoad(ctx, name, 0, err)
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	out := make(map[string]*npy.Array)
	zr, err := npy.NewNpzReader(&blobReaderAt{ctx: ctx, blob: blob, rc: e.rc}, blob.Size())
	if err == nil {
		for _, k := range zr.Keys() {
			var a *npy.Array
			if a, err = zr.Read(k); err != nil {
				break
			}
			out[k] = a
		}
	}
	err = translateError(err)
	e.metrics.RecordLoad(int(blob.Size()), time.Since(start), err)
	e.logger.LogLoad(ctx, name, int(blob.Size()), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the stored blob names starting with prefix.
func (e *Engine) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := e.store.List(ctx, prefix)
	return names, storeError(err)
}

// Delete removes the blob stored under name.
func (e *Engine) Delete(ctx context.Context, name string) error {
	err := storeError(e.store.Delete(ctx, name))
	e.logger.LogDelete(ctx, name, err)
	return err
}

// Edit applies fn to a copy of bp's categories and stores the result in bp.
// op names the edit in logs and metrics.
func (e *Engine) Edit(ctx context.Context, op string, bp *blueprint.Blueprint, fn func(t *toolkit.Toolkit, values []int) ([]int, error)) error {
	start := time.Now()
	err := e.check(bp)
	changed := 0
	if err == nil {
		var out []int
		out, err = fn(e.toolkit, bp.Snapshot())
		if err == nil && len(out) != bp.Len() {
			err = &ErrGridMismatch{Expected: bp.Len(), Actual: len(out)}
		}
		if err == nil {
			for i, v := range bp.Categories() {
				if out[i] != v {
					changed++
				}
			}
			err = bp.From(out)
		}
		err = translateError(err)
	}
	e.metrics.RecordEdit(op, time.Since(start), err)
	e.logger.LogEdit(ctx, op, changed, err)
	return err
}

// SaveAll stores every blueprint concurrently, bounded by the worker, memory
// and I/O limits. A failing blob does not stop the others; all failures are
// joined in the returned error.
func (e *Engine) SaveAll(ctx context.Context, bps map[string]*blueprint.Blueprint) error {
	names := make([]string, 0, len(bps))
	for name := range bps {
		names = append(names, name)
	}
	slices.Sort(names)

	errs := e.batch(ctx, "save_all", names, func(ctx context.Context, i int) error {
		return e.Save(ctx, names[i], bps[names[i]])
	})
	return errors.Join(errs...)
}

// LoadAll loads the named blueprints concurrently. The map holds every
// blueprint that loaded; the error joins all failures.
func (e *Engine) LoadAll(ctx context.Context, names []string) (map[string]*blueprint.Blueprint, error) {
	loaded := make([]*blueprint.Blueprint, len(names))
	errs := e.batch(ctx, "load_all", names, func(ctx context.Context, i int) error {
		bp, err := e.Load(ctx, names[i])
		loaded[i] = bp
		return err
	})

	out := make(map[string]*blueprint.Blueprint, len(names))
	for i, bp := range loaded {
		if bp != nil {
			out[names[i]] = bp
		}
	}
	return out, errors.Join(errs...)
}

// estimate is the encoded npy size of one blueprint.
func (e *Engine) estimate() int64 {
	return int64(5*8*e.grid.Len() + 128)
}

func (e *Engine) batch(ctx context.Context, op string, names []string, fn func(ctx context.Context, i int) error) []error {
	start := time.Now()
	errs := make([]error, len(names))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for i := range names {
		if err := e.rc.AcquireWorker(gctx); err != nil {
			for j := i; j < len(names); j++ {
				errs[j] = fmt.Errorf("%s: %w", names[j], err)
			}
			failed.Add(int64(len(names) - i))
			break
		}
		g.Go(func() error {
			defer e.rc.ReleaseWorker()

			size := e.estimate()
			err := e.acquireMemory(gctx, size)
			if err == nil {
				err = fn(gctx, i)
				e.rc.ReleaseMemory(size)
			}
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", names[i], err)
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	e.metrics.RecordBatch(op, len(names), int(failed.Load()), time.Since(start))
	e.logger.LogBatch(ctx, op, len(names), int(failed.Load()), time.Since(start))
	return errs
}

// acquireMemory retries the non-blocking reservation until it succeeds or
// ctx is done. Requests above the limit fail at once.
func (e *Engine) acquireMemory(ctx context.Context, n int64) error {
	if limit := e.rc.MemoryLimit(); limit > 0 && n > limit {
		return resource.ErrMemoryLimitExceeded
	}
	backoff := time.Millisecond
	for {
		err := e.rc.AcquireMemory(n)
		if !errors.Is(err, resource.ErrMemoryLimitExceeded) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, 50*time.Millisecond)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// blobReaderAt adapts a blob to io.ReaderAt for archive readers.
type blobReaderAt struct {
	ctx  context.Context
	blob blobstore.Blob
	rc   *resource.Controller
}

func (r *blobReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.blob.ReadAt(r.ctx, p, off)
	if n > 0 {
		if werr := r.rc.AcquireIO(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
