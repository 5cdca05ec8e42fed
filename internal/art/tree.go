package art

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/hupe1980/artree/internal/epoch"
	"github.com/hupe1980/artree/internal/olc"
	"github.com/hupe1980/artree/key"
)

// Tree is a concurrent adaptive radix tree.
//
// The root is a Node256 with an empty prefix. It is never replaced, so every
// structural change below it has a parent to lock.
type Tree[V any] struct {
	root      *node[V]
	alloc     *allocator[V]
	collector *epoch.Collector
	observer  Observer
	logger    *slog.Logger
	opts      Options

	count  atomic.Int64
	closed atomic.Bool
}

// New creates a new Tree.
func New[V any](optFns ...func(o *Options)) (*Tree[V], error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Observer == nil {
		opts.Observer = NoopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	t := &Tree[V]{
		alloc:     newAllocator[V](opts.Memory, opts.Reclamation == ReclamationEpoch, opts.Observer),
		collector: opts.collector(),
		observer:  opts.Observer,
		logger:    opts.Logger,
		opts:      opts,
	}

	root, err := t.alloc.newInner(Kind256, nil, nil)
	if err != nil {
		return nil, err
	}
	t.root = root

	t.logger.Debug("tree created",
		slog.String("reclamation", opts.Reclamation.String()),
		slog.Int64("memory_limit", opts.Memory.MemoryLimit()),
	)

	return t, nil
}

// Len returns the number of stored values.
func (t *Tree[V]) Len() int {
	return int(t.count.Load())
}

// MemoryUsage returns the bytes currently charged to the memory budget.
func (t *Tree[V]) MemoryUsage() int64 {
	return t.opts.Memory.MemoryUsage()
}

// Get returns the value stored under k.
func (t *Tree[V]) Get(k key.Key) (V, bool) {
	var zero V
	if t.closed.Load() {
		return zero, false
	}

	g := t.collector.Pin()
	defer g.Unpin()

	var r retry
	for {
		v, err := t.get(k)
		if err == nil {
			if v == nil {
				return zero, false
			}
			return *v, true
		}
		r.wait(t.observer, OpGet)
	}
}

func (t *Tree[V]) get(k key.Key) (*V, error) {
	n := t.root
	g, err := n.lock.ReadLock()
	if err != nil {
		return nil, err
	}

	depth := 0
	for {
		prefix := n.loadPrefix()
		p := len(prefix)
		if k.CommonPrefixLenAt(depth, prefix) != p {
			return nil, g.Check()
		}

		if k.LengthAt(depth) == p {
			v := n.value.Load()
			if err := g.Check(); err != nil {
				return nil, err
			}
			return v, nil
		}

		if n.isLeaf() {
			return nil, g.Check()
		}

		child := n.inner.findChild(k.At(depth + p))
		if err := g.Check(); err != nil {
			return nil, err
		}
		if child == nil {
			return nil, nil
		}

		cg, err := lockChild(g, child)
		if err != nil {
			return nil, err
		}

		depth += p
		n, g = child, cg
	}
}

// Insert stores v under k and returns the value it replaced.
// The only error is ErrOutOfMemory (or ErrClosed), in which case the tree is
// unchanged.
func (t *Tree[V]) Insert(k key.Key, v V) (V, bool, error) {
	var zero V
	if t.closed.Load() {
		return zero, false, ErrClosed
	}

	g := t.collector.Pin()
	defer g.Unpin()

	val := &v
	var r retry
	for {
		old, err := t.insert(k, val, g)
		if err == nil {
			if old == nil {
				t.count.Add(1)
				return zero, false, nil
			}
			return *old, true, nil
		}
		if errors.Is(err, ErrOutOfMemory) {
			t.logger.Debug("allocation rejected", slog.Any("key", k), slog.Any("error", err))
			return zero, false, err
		}
		r.wait(t.observer, OpInsert)
	}
}

// Remove deletes k and returns the value it held.
func (t *Tree[V]) Remove(k key.Key) (V, bool) {
	var zero V
	if t.closed.Load() {
		return zero, false
	}

	g := t.collector.Pin()
	defer g.Unpin()

	var r retry
	for {
		old, err := t.remove(k, g)
		if err == nil {
			if old == nil {
				return zero, false
			}
			t.count.Add(-1)
			return *old, true
		}
		r.wait(t.observer, OpRemove)
	}
}

// Collect runs deferred reclamation whose grace period has elapsed and
// returns the number of nodes released.
func (t *Tree[V]) Collect() int {
	return t.collector.Collect()
}

// Close releases every node. It must not run concurrently with other
// operations; later calls return ErrClosed or report absence.
func (t *Tree[V]) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	drained := t.collector.Drain()
	released := t.release(t.root)
	t.count.Store(0)

	t.logger.Debug("tree closed",
		slog.Int("drained", drained),
		slog.Int("released", released),
	)
	return nil
}

// release returns the budget of n and its subtree.
func (t *Tree[V]) release(n *node[V]) int {
	released := 1
	if n.inner != nil {
		for _, child := range n.inner.children() {
			released += t.release(child)
		}
	}
	t.opts.Memory.ReleaseMemory(t.alloc.sizes[n.kind()])
	return released
}

// retire unlinks n for good. n must be marked obsolete.
func (t *Tree[V]) retire(g epoch.Guard, n *node[V]) {
	t.observer.OnRetire(n.kind())
	g.Defer(func() { t.alloc.reclaim(n) })
}

// lockChild read-locks child and then revalidates its parent. A split moves
// child one level down and rewrites its prefix, which only the parent's
// version records, so the parent must still be unchanged once the child's
// snapshot is taken.
func lockChild[V any](pg olc.ReadGuard, child *node[V]) (olc.ReadGuard, error) {
	cg, err := child.lock.ReadLock()
	if err != nil {
		return olc.ReadGuard{}, err
	}
	if err := pg.Check(); err != nil {
		return olc.ReadGuard{}, err
	}
	return cg, nil
}

// retry counts failed optimistic attempts of one operation.
type retry struct {
	b        backoff
	restarts int
}

func (r *retry) wait(obs Observer, op Op) {
	r.restarts++
	obs.OnRestart(op)
	if r.b.snooze() {
		obs.OnContention(op, r.restarts)
	}
}
