package art

import (
	"github.com/hupe1980/artree/internal/epoch"
	"github.com/hupe1980/artree/internal/olc"
	"github.com/hupe1980/artree/key"
)

// insert makes one optimistic attempt. It returns the replaced value, an olc
// error asking for a restart, or ErrOutOfMemory.
//
// Structural changes lock the parent before the node they replace, each by
// upgrading the read guard taken on the way down. A successful upgrade proves
// that nothing the decision was based on has changed.
func (t *Tree[V]) insert(k key.Key, val *V, g epoch.Guard) (*V, error) {
	var (
		parent *node[V]
		pguard olc.ReadGuard
		pbyte  byte
		depth  int
	)

	n := t.root
	nguard, err := n.lock.ReadLock()
	if err != nil {
		return nil, err
	}

	for {
		prefix := n.loadPrefix()
		p := len(prefix)
		c := k.CommonPrefixLenAt(depth, prefix)
		r := k.LengthAt(depth)

		switch {
		case c < p:
			return nil, t.split(k, val, depth, c, prefix, n, nguard, parent, pguard, pbyte)

		case r == p:
			w, err := nguard.Upgrade()
			if err != nil {
				return nil, err
			}
			old := n.value.Swap(val)
			w.Unlock()
			return old, nil

		case n.isLeaf():
			return nil, t.promote(k, val, depth+p, n, nguard, parent, pguard, pbyte, g)
		}

		b := k.At(depth + p)
		child := n.inner.findChild(b)
		if err := nguard.Check(); err != nil {
			return nil, err
		}

		if child == nil {
			if n.inner.isFull() {
				return nil, t.grow(k, val, depth+p, n, nguard, parent, pguard, pbyte, g)
			}
			return nil, t.addLeaf(k, val, depth+p, n, nguard)
		}

		cguard, err := lockChild(nguard, child)
		if err != nil {
			return nil, err
		}

		parent, pguard, pbyte = n, nguard, b
		n, nguard = child, cguard
		depth += p
	}
}

// split inserts a Node4 above n holding the first c bytes of its prefix.
// The new key either ends at the Node4 or becomes a leaf beside n.
func (t *Tree[V]) split(k key.Key, val *V, depth, c int, prefix []byte,
	n *node[V], nguard olc.ReadGuard, parent *node[V], pguard olc.ReadGuard, pbyte byte,
) error {
	if parent == nil {
		panic("art: prefix mismatch at the root")
	}

	pw, err := pguard.Upgrade()
	if err != nil {
		return err
	}
	defer pw.Unlock()

	nw, err := nguard.Upgrade()
	if err != nil {
		return err
	}
	defer nw.Unlock()

	r := k.LengthAt(depth)

	var (
		branch *node[V]
		leaf   *node[V]
	)
	if c == r {
		branch, err = t.alloc.newInner(Kind4, prefix[:c], val)
	} else {
		branch, err = t.alloc.newInner(Kind4, prefix[:c], nil)
		if err == nil {
			leaf, err = t.alloc.newLeaf(k.After(depth+c), val)
		}
	}
	if err != nil {
		t.alloc.discard(branch)
		return err
	}

	n.storePrefix(prefix[c:])
	branch.inner.addChild(prefix[c], n)
	if leaf != nil {
		branch.inner.addChild(k.At(depth+c), leaf)
	}
	parent.inner.updateChild(pbyte, branch)
	return nil
}

// promote replaces leaf n by a Node4 that keeps its prefix and value and
// gains the new key's leaf as its only child.
func (t *Tree[V]) promote(k key.Key, val *V, at int,
	n *node[V], nguard olc.ReadGuard, parent *node[V], pguard olc.ReadGuard, pbyte byte, g epoch.Guard,
) error {
	pw, err := pguard.Upgrade()
	if err != nil {
		return err
	}
	defer pw.Unlock()

	nw, err := nguard.Upgrade()
	if err != nil {
		return err
	}
	defer nw.Unlock()

	branch, err := t.alloc.newInner(Kind4, n.loadPrefix(), n.value.Load())
	if err != nil {
		return err
	}
	leaf, err := t.alloc.newLeaf(k.After(at), val)
	if err != nil {
		t.alloc.discard(branch)
		return err
	}

	branch.inner.addChild(k.At(at), leaf)
	nw.MarkObsolete()
	parent.inner.updateChild(pbyte, branch)
	t.observer.OnTransition(KindLeaf, Kind4)
	t.retire(g, n)
	return nil
}

// grow replaces the full node n by the next wider representation with the
// new leaf added.
func (t *Tree[V]) grow(k key.Key, val *V, at int,
	n *node[V], nguard olc.ReadGuard, parent *node[V], pguard olc.ReadGuard, pbyte byte, g epoch.Guard,
) error {
	if parent == nil {
		panic("art: root is full")
	}

	pw, err := pguard.Upgrade()
	if err != nil {
		return err
	}
	defer pw.Unlock()

	nw, err := nguard.Upgrade()
	if err != nil {
		return err
	}
	defer nw.Unlock()

	from := n.kind()
	to := from.grown()

	wider, err := t.alloc.resize(n, to)
	if err != nil {
		return err
	}
	leaf, err := t.alloc.newLeaf(k.After(at), val)
	if err != nil {
		t.alloc.discard(wider)
		return err
	}

	wider.inner.addChild(k.At(at), leaf)
	nw.MarkObsolete()
	parent.inner.updateChild(pbyte, wider)
	t.observer.OnTransition(from, to)
	t.retire(g, n)
	return nil
}

// addLeaf adds the new key's leaf to n, which has room for it.
func (t *Tree[V]) addLeaf(k key.Key, val *V, at int, n *node[V], nguard olc.ReadGuard) error {
	nw, err := nguard.Upgrade()
	if err != nil {
		return err
	}
	defer nw.Unlock()

	leaf, err := t.alloc.newLeaf(k.After(at), val)
	if err != nil {
		return err
	}
	n.inner.addChild(k.At(at), leaf)
	return nil
}
