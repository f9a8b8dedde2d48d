// Package probecarto is a spatial blueprint engine for shank-structured
// electrode grids.
//
// A blueprint assigns an integer category to every site of a grid; category 0
// is background. The subpackages provide the algorithms:
//
//   - blueprint: grid geometry, Blueprint buffers and CSV/TSV tables
//   - mask: packed site sets backed by Roaring bitmaps
//   - cluster: connected-component labeling with 4- or 8-adjacency
//   - toolkit: move, fill, extend, reduce and NaN interpolation
//   - edges: boundary tracing of clustered groups
//   - npy: the numpy .npy and .npz formats
//   - blobstore: local, memory, S3 and MinIO storage with block compression
//
// The Engine ties them together: it persists blueprints of one grid in a
// blob store and applies toolkit edits with logging and metrics.
//
// # Quick Start
//
//	ctx := context.Background()
//	eng, _ := probecarto.New(blobstore.NewLocalStore("./data"), blueprint.Dummy(4, 192, 2))
//
//	bp := eng.NewBlueprint()
//	bp.SetIndex(1, []int{0, 1, 2, 3})
//	_ = eng.Edit(ctx, "extend", bp, func(t *toolkit.Toolkit, v []int) ([]int, error) {
//	    return t.Extend(v, 1, toolkit.Rows(2), toolkit.AllAreas)
//	})
//	_ = eng.Save(ctx, "shank0.npy", bp)
//
// # Batch Persistence
//
// SaveAll and LoadAll fan out over an errgroup bounded by WithWorkers,
// WithMemoryLimit and WithIOLimit:
//
//	eng, _ := probecarto.New(store, grid,
//	    probecarto.WithWorkers(8),
//	    probecarto.WithIOLimit(64<<20),
//	    probecarto.WithCompression(blobstore.CompressionZSTD, 0),
//	)
//	loaded, err := eng.LoadAll(ctx, names)
//
// # Errors
//
// Engine errors match one of ErrMalformedInput, ErrInvariant, ErrNotFound or
// ErrIO with errors.Is; the underlying package error stays in the chain.
package probecarto
