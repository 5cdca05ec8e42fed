package art

import (
	"iter"
	"sync/atomic"

	"github.com/hupe1980/artree/internal/bitarray"
)

// node48 maps each selector byte to a dense slot through a 256-entry index.
// Index bytes hold slot+1 so that zero means absent; they are packed eight to
// a word so readers can load them atomically.
type node48[V any] struct {
	index [32]atomic.Uint64
	slots *bitarray.Array[node[V]]
}

func newNode48[V any]() *node48[V] {
	return &node48[V]{slots: bitarray.New[node[V]](48)}
}

func (n *node48[V]) kind() Kind { return Kind48 }

func (n *node48[V]) numChildren() int { return n.slots.Len() }

func (n *node48[V]) isFull() bool { return n.slots.IsFull() }

func (n *node48[V]) slot(b byte) int {
	return int(byte(n.index[b/8].Load()>>(8*(b%8)))) - 1
}

func (n *node48[V]) setSlot(b byte, slot int) {
	w := &n.index[b/8]
	shift := 8 * (b % 8)
	w.Store(w.Load()&^(0xff<<shift) | uint64(slot+1)<<shift)
}

func (n *node48[V]) findChild(b byte) *node[V] {
	s := n.slot(b)
	if s < 0 {
		return nil
	}
	return n.slots.Get(s)
}

func (n *node48[V]) addChild(b byte, child *node[V]) {
	pos, ok := n.slots.FirstEmpty()
	if !ok {
		panic("art: add to full Node48")
	}
	n.slots.Set(pos, child)
	n.setSlot(b, pos)
}

func (n *node48[V]) updateChild(b byte, child *node[V]) *node[V] {
	s := n.slot(b)
	if s < 0 {
		panic("art: update of missing child in Node48")
	}
	old, _ := n.slots.Update(s, child)
	return old
}

func (n *node48[V]) deleteChild(b byte) *node[V] {
	s := n.slot(b)
	if s < 0 {
		return nil
	}
	n.setSlot(b, -1)
	old, _ := n.slots.Erase(s)
	return old
}

func (n *node48[V]) children() iter.Seq2[byte, *node[V]] {
	return func(yield func(byte, *node[V]) bool) {
		for i := range n.index {
			w := n.index[i].Load()
			for j := 0; w != 0; j, w = j+1, w>>8 {
				s := int(byte(w)) - 1
				if s < 0 {
					continue
				}
				child := n.slots.Get(s)
				if child == nil {
					continue
				}
				if !yield(byte(i*8+j), child) {
					return
				}
			}
		}
	}
}

func (n *node48[V]) reset() {
	for i := range n.index {
		n.index[i].Store(0)
	}
	n.slots.Clear()
}
