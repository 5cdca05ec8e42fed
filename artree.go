package artree

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hupe1980/artree/internal/art"
	"github.com/hupe1980/artree/internal/resource"
	"github.com/hupe1980/artree/key"
	"golang.org/x/sync/errgroup"
)

// Stats describes the shape of a tree: node counts per width, leaves,
// stored values, fill density and height.
type Stats = art.Stats

// NodeStats aggregates the inner nodes of one width.
type NodeStats = art.NodeStats

// Entry is a key/value pair for BatchInsert.
type Entry[V any] struct {
	Key   key.Key
	Value V
}

// Tree is a concurrent ordered map from byte-string keys to values of type V.
//
// All methods except Close are safe for concurrent use. Lookups never block
// writers and never write shared memory.
type Tree[V any] struct {
	tree    *art.Tree[V]
	memory  *resource.Controller
	metrics MetricsCollector
	logger  *Logger
	opts    options
}

// New creates an empty Tree.
func New[V any](optFns ...Option) (*Tree[V], error) {
	opts := applyOptions(optFns)

	memory := resource.NewController(resource.Config{
		MemoryLimitBytes: max(opts.memoryLimit, 0),
	})

	tree, err := art.New[V](func(o *art.Options) {
		o.Reclamation = opts.reclamation
		o.EpochSlots = opts.epochSlots
		o.Memory = memory
		o.Observer = newMetricsObserver(opts.metricsCollector, opts.logger)
		o.Logger = opts.logger.WithComponent("art").Logger
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &Tree[V]{
		tree:    tree,
		memory:  memory,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
		opts:    opts,
	}, nil
}

// Get returns the value stored under k and whether it exists.
func (t *Tree[V]) Get(k key.Key) (V, bool) {
	start := time.Now()
	v, ok := t.tree.Get(k)
	t.metrics.RecordGet(time.Since(start), ok)
	return v, ok
}

// Insert stores v under k. If k was already present its previous value is
// returned with true.
//
// Insert fails with ErrOutOfMemory when the memory limit cannot pay for the
// nodes the insert needs, and with ErrClosed after Close. The tree is
// unchanged in both cases.
func (t *Tree[V]) Insert(k key.Key, v V) (V, bool, error) {
	start := time.Now()
	old, replaced, err := t.tree.Insert(k, v)
	err = translateError(err)
	t.metrics.RecordInsert(time.Since(start), err)

	if errors.Is(err, ErrOutOfMemory) {
		t.logger.LogOutOfMemory(k, t.memory.MemoryUsage(), t.memory.MemoryLimit())
	} else {
		t.logger.LogInsert(k, replaced, err)
	}
	return old, replaced, err
}

// Remove deletes k and returns the value it held and whether it existed.
// Remove never fails for lack of memory.
func (t *Tree[V]) Remove(k key.Key) (V, bool) {
	start := time.Now()
	old, ok := t.tree.Remove(k)
	t.metrics.RecordRemove(time.Since(start), ok)
	t.logger.LogRemove(k, ok)
	return old, ok
}

// BatchInsert inserts entries in parallel.
//
// It stops at the first failed insert and returns its error. Cancellation of
// ctx is checked between entries and reported as ctx.Err(). Entries inserted
// before the stop stay in the tree. If entries repeat a key, the value that
// wins is unspecified.
func (t *Tree[V]) BatchInsert(ctx context.Context, entries []Entry[V]) error {
	start := time.Now()

	limit := t.opts.batchConcurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var inserted atomic.Int64
	for _, e := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, _, err := t.Insert(e.Key, e.Value); err != nil {
				return err
			}
			inserted.Add(1)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	failed := len(entries) - int(inserted.Load())
	t.metrics.RecordBatchInsert(len(entries), failed, time.Since(start))
	t.logger.LogBatchInsert(ctx, len(entries), failed, err)

	return err
}

// Len returns the number of stored values.
func (t *Tree[V]) Len() int {
	return t.tree.Len()
}

// Stats walks the tree and reports its shape. The result is exact when no
// writer runs concurrently.
func (t *Tree[V]) Stats() Stats {
	return t.tree.Stats()
}

// MemoryUsage returns the bytes currently held by tree nodes, including
// unlinked nodes that have not been released yet.
func (t *Tree[V]) MemoryUsage() int64 {
	return t.memory.MemoryUsage()
}

// PeakMemoryUsage returns the highest MemoryUsage observed.
func (t *Tree[V]) PeakMemoryUsage() int64 {
	return t.memory.PeakMemoryUsage()
}

// Collect releases unlinked nodes whose grace period has elapsed and returns
// how many were released. Collection also runs automatically; Collect is
// useful to return memory after a burst of removals.
func (t *Tree[V]) Collect() int {
	return t.tree.Collect()
}
