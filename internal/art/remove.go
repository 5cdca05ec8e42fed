package art

import (
	"github.com/hupe1980/artree/internal/epoch"
	"github.com/hupe1980/artree/internal/olc"
	"github.com/hupe1980/artree/key"
)

// step is one node on the path from the root to a removal target.
type step[V any] struct {
	n     *node[V]
	guard olc.ReadGuard
	// b is the byte the previous step indexes n by.
	b byte
}

// remove makes one optimistic attempt. It returns the removed value (nil if
// the key is absent) or an olc error asking for a restart.
func (t *Tree[V]) remove(k key.Key, g epoch.Guard) (*V, error) {
	root := t.root
	rguard, err := root.lock.ReadLock()
	if err != nil {
		return nil, err
	}

	path := make([]step[V], 1, 16)
	path[0] = step[V]{n: root, guard: rguard}

	depth := 0
	for {
		cur := &path[len(path)-1]
		n := cur.n
		prefix := n.loadPrefix()
		p := len(prefix)

		if k.CommonPrefixLenAt(depth, prefix) != p {
			return nil, cur.guard.Check()
		}

		if k.LengthAt(depth) == p {
			v := n.value.Load()
			if err := cur.guard.Check(); err != nil {
				return nil, err
			}
			if v == nil {
				return nil, nil
			}
			break
		}

		if n.isLeaf() {
			return nil, cur.guard.Check()
		}

		b := k.At(depth + p)
		child := n.inner.findChild(b)
		if err := cur.guard.Check(); err != nil {
			return nil, err
		}
		if child == nil {
			return nil, nil
		}

		cguard, err := lockChild(cur.guard, child)
		if err != nil {
			return nil, err
		}
		path = append(path, step[V]{n: child, guard: cguard, b: b})
		depth += p
	}

	last := len(path) - 1
	target := path[last].n

	// The key ends at a branch point: only the value goes.
	if last == 0 || (!target.isLeaf() && target.inner.numChildren() > 0) {
		w, err := path[last].guard.Upgrade()
		if err != nil {
			return nil, err
		}
		old := target.value.Swap(nil)
		w.Unlock()
		return old, nil
	}

	return t.detach(path, g)
}

// detach unlinks the last node of path together with every ancestor that
// would be left without children and value. The ancestor that keeps its
// other children loses one child and may shrink.
func (t *Tree[V]) detach(path []step[V], g epoch.Guard) (*V, error) {
	last := len(path) - 1

	// Decisions below are read optimistically and validated by the upgrades.
	top := last - 1
	for top > 0 {
		a := path[top].n
		if a.inner.numChildren() != 1 || a.value.Load() != nil {
			break
		}
		top--
	}

	holder := path[top].n
	from := holder.kind()
	to, shrink := from.shrunk(holder.inner.numChildren() - 1)
	shrink = shrink && top > 0

	start := top
	if shrink {
		start = top - 1
	}

	writers := make([]olc.WriteGuard, 0, last-start+1)
	unlockAll := func() {
		for i := len(writers) - 1; i >= 0; i-- {
			writers[i].Unlock()
		}
	}
	for i := start; i <= last; i++ {
		w, err := path[i].guard.Upgrade()
		if err != nil {
			unlockAll()
			return nil, err
		}
		writers = append(writers, w)
	}
	defer unlockAll()

	old := path[last].n.value.Load()

	holder.inner.deleteChild(path[top+1].b)
	for i := top + 1; i <= last; i++ {
		writers[i-start].MarkObsolete()
		t.retire(g, path[i].n)
	}

	if shrink {
		// Best effort: without budget for the smaller node the wider one stays.
		narrower, err := t.alloc.resize(holder, to)
		if err == nil {
			writers[top-start].MarkObsolete()
			path[top-1].n.inner.updateChild(path[top].b, narrower)
			t.observer.OnTransition(from, to)
			t.retire(g, holder)
		}
	}

	return old, nil
}
