// Package resource bounds the concurrency, memory and I/O throughput of batch
// persistence.
//
// A Controller combines three limits:
//
//   - Workers: a weighted semaphore capping concurrent load/save jobs
//   - Memory: a fail-fast budget for encoded payloads held in flight
//   - IO: a token bucket limiting bytes per second read from or written to stores
//
// A nil *Controller is valid and imposes no limits.
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:         4,
//	    MemoryLimitBytes:   256 << 20,
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
package resource
