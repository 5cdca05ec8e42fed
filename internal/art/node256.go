package art

import (
	"iter"

	"github.com/hupe1980/artree/internal/bitarray"
)

// node256 indexes children directly by selector byte.
type node256[V any] struct {
	slots *bitarray.Array[node[V]]
}

func newNode256[V any]() *node256[V] {
	return &node256[V]{slots: bitarray.New[node[V]](256)}
}

func (n *node256[V]) kind() Kind { return Kind256 }

func (n *node256[V]) numChildren() int { return n.slots.Len() }

func (n *node256[V]) isFull() bool { return n.slots.IsFull() }

func (n *node256[V]) findChild(b byte) *node[V] {
	return n.slots.Get(int(b))
}

func (n *node256[V]) addChild(b byte, child *node[V]) {
	n.slots.Set(int(b), child)
}

func (n *node256[V]) updateChild(b byte, child *node[V]) *node[V] {
	old, ok := n.slots.Update(int(b), child)
	if !ok {
		panic("art: update of missing child in Node256")
	}
	return old
}

func (n *node256[V]) deleteChild(b byte) *node[V] {
	old, _ := n.slots.Erase(int(b))
	return old
}

func (n *node256[V]) children() iter.Seq2[byte, *node[V]] {
	return func(yield func(byte, *node[V]) bool) {
		for pos, child := range n.slots.All() {
			if !yield(byte(pos), child) {
				return
			}
		}
	}
}

func (n *node256[V]) reset() {
	n.slots.Clear()
}
