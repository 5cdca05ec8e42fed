// Package resource implements the memory budget for tree nodes.
//
// Every node allocation reserves its size before the node is linked into the
// tree, and the reservation is returned when the node is reclaimed. When the
// budget is exhausted the reservation fails immediately with
// ErrMemoryLimitExceeded, which the tree surfaces as an out-of-memory error
// instead of retrying.
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic counters
// for usage tracking. AcquireMemory is non-blocking:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(size); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(size)
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
