package probecarto

import (
	"log/slog"

	"github.com/hupe1980/probecarto/blobstore"
	"github.com/hupe1980/probecarto/cluster"
	"github.com/hupe1980/probecarto/internal/resource"
	"github.com/hupe1980/probecarto/toolkit"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	resources        resource.Config
	compression      blobstore.Compression
	blockSize        int
	toolkitOpts      []toolkit.Option
	channelmap       string
}

// Option configures an Engine.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &probecarto.BasicMetricsCollector{}
//	eng, _ := probecarto.New(store, grid, probecarto.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Saves: %d, Avg latency: %dns\n", stats.SaveCount, stats.SaveAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithWorkers bounds the number of concurrent blobs in SaveAll and LoadAll.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.resources.MaxWorkers = int64(n)
	}
}

// WithMemoryLimit bounds the encoded bytes held in flight by batch operations.
// Zero disables the limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resources.MemoryLimitBytes = bytes
	}
}

// WithIOLimit throttles store reads and writes to bytesPerSec.
// Zero disables throttling.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resources.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithCompression stores every blob through blobstore.Compressed.
// A blockSize of 0 uses blobstore.DefaultBlockSize.
func WithCompression(c blobstore.Compression, blockSize int) Option {
	return func(o *options) {
		o.compression = c
		o.blockSize = blockSize
	}
}

// WithStrategy selects the strategy used by Extend and Reduce.
func WithStrategy(s toolkit.Strategy) Option {
	return func(o *options) {
		o.toolkitOpts = append(o.toolkitOpts, toolkit.WithStrategy(s))
	}
}

// WithConnectivity sets the adjacency used to find groups.
func WithConnectivity(c cluster.Connectivity) Option {
	return func(o *options) {
		o.toolkitOpts = append(o.toolkitOpts, toolkit.WithConnectivity(c))
	}
}

// WithChannelmap tags blueprints created and loaded by the engine.
func WithChannelmap(key string) Option {
	return func(o *options) {
		o.channelmap = key
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		resources:        resource.Config{MaxWorkers: 4},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
