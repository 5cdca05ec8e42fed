package art

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/artree/internal/bitarray"
	"github.com/hupe1980/artree/internal/resource"
)

// allocator hands out nodes charged against the memory budget and takes
// them back once reclaimed.
type allocator[V any] struct {
	pools    [Kind256 + 1]sync.Pool
	sizes    [Kind256 + 1]int64
	memory   *resource.Controller
	recycle  bool
	observer Observer
}

func newAllocator[V any](memory *resource.Controller, recycle bool, observer Observer) *allocator[V] {
	a := &allocator[V]{
		memory:   memory,
		recycle:  recycle,
		observer: observer,
	}
	for k := KindLeaf; k <= Kind256; k++ {
		a.sizes[k] = footprint[V](k)
		a.pools[k].New = func() any { return freshNode[V](k) }
	}
	return a
}

func freshNode[V any](k Kind) *node[V] {
	n := &node[V]{}
	if k != KindLeaf {
		n.inner = newInner[V](k)
	}
	return n
}

// footprint estimates the bytes held by a node of kind k, excluding the
// prefix and value which are shared with the caller.
func footprint[V any](k Kind) int64 {
	size := reflect.TypeFor[node[V]]().Size()
	switch k {
	case Kind4:
		size += reflect.TypeFor[node4[V]]().Size()
	case Kind16:
		size += reflect.TypeFor[node16[V]]().Size()
	case Kind48:
		size += reflect.TypeFor[node48[V]]().Size()
	case Kind256:
		size += reflect.TypeFor[node256[V]]().Size()
	}
	if w := uintptr(k.Width()); w > 0 {
		slot := reflect.TypeFor[atomic.Pointer[node[V]]]().Size()
		size += reflect.TypeFor[bitarray.Array[node[V]]]().Size() + w*slot + (w+63)/64*8
	}
	return int64(size)
}

func (a *allocator[V]) alloc(k Kind) (*node[V], error) {
	if err := a.memory.AcquireMemory(a.sizes[k]); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOutOfMemory, k, err)
	}
	if a.recycle {
		return a.pools[k].Get().(*node[V]), nil
	}
	return freshNode[V](k), nil
}

func (a *allocator[V]) newLeaf(prefix []byte, v *V) (*node[V], error) {
	n, err := a.alloc(KindLeaf)
	if err != nil {
		return nil, err
	}
	n.storePrefix(prefix)
	n.value.Store(v)
	return n, nil
}

func (a *allocator[V]) newInner(k Kind, prefix []byte, v *V) (*node[V], error) {
	n, err := a.alloc(k)
	if err != nil {
		return nil, err
	}
	n.storePrefix(prefix)
	n.value.Store(v)
	return n, nil
}

// resize copies n into a fresh node of kind to. n must be write locked.
func (a *allocator[V]) resize(n *node[V], to Kind) (*node[V], error) {
	m, err := a.newInner(to, n.loadPrefix(), n.value.Load())
	if err != nil {
		return nil, err
	}
	for b, child := range n.inner.children() {
		m.inner.addChild(b, child)
	}
	return m, nil
}

// discard returns a node that was never published.
func (a *allocator[V]) discard(n *node[V]) {
	if n == nil {
		return
	}
	a.memory.ReleaseMemory(a.sizes[n.kind()])
	a.recycleNode(n)
}

// reclaim releases a retired node once no reader can reach it.
func (a *allocator[V]) reclaim(n *node[V]) {
	k := n.kind()
	a.memory.ReleaseMemory(a.sizes[k])
	a.observer.OnReclaim(k)
	a.recycleNode(n)
}

func (a *allocator[V]) recycleNode(n *node[V]) {
	if !a.recycle {
		return
	}
	n.prefix.Store(nil)
	n.value.Store(nil)
	if n.inner != nil {
		n.inner.reset()
	}
	n.lock.Reset()
	a.pools[n.kind()].Put(n)
}
