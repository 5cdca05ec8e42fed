package art

import (
	"iter"
	"sync/atomic"

	"github.com/hupe1980/artree/internal/bitarray"
	"github.com/hupe1980/artree/internal/simd"
)

// node4 keeps up to four selector bytes packed in one word, lane i belonging
// to child slot i. Lanes are unordered.
type node4[V any] struct {
	keys  atomic.Uint32
	slots *bitarray.Array[node[V]]
}

func newNode4[V any]() *node4[V] {
	return &node4[V]{slots: bitarray.New[node[V]](4)}
}

func (n *node4[V]) kind() Kind { return Kind4 }

func (n *node4[V]) numChildren() int { return n.slots.Len() }

func (n *node4[V]) isFull() bool { return n.slots.IsFull() }

func (n *node4[V]) lane(b byte) int {
	return simd.FindByte4(n.keys.Load(), uint8(n.slots.Word(0)), b)
}

func (n *node4[V]) findChild(b byte) *node[V] {
	i := n.lane(b)
	if i < 0 {
		return nil
	}
	return n.slots.Get(i)
}

func (n *node4[V]) addChild(b byte, child *node[V]) {
	pos, ok := n.slots.FirstEmpty()
	if !ok {
		panic("art: add to full Node4")
	}
	shift := 8 * pos
	n.keys.Store(n.keys.Load()&^(0xff<<shift) | uint32(b)<<shift)
	n.slots.Set(pos, child)
}

func (n *node4[V]) updateChild(b byte, child *node[V]) *node[V] {
	i := n.lane(b)
	if i < 0 {
		panic("art: update of missing child in Node4")
	}
	old, _ := n.slots.Update(i, child)
	return old
}

func (n *node4[V]) deleteChild(b byte) *node[V] {
	i := n.lane(b)
	if i < 0 {
		return nil
	}
	old, _ := n.slots.Erase(i)
	return old
}

func (n *node4[V]) children() iter.Seq2[byte, *node[V]] {
	return func(yield func(byte, *node[V]) bool) {
		keys := n.keys.Load()
		for pos, child := range n.slots.All() {
			if !yield(byte(keys>>(8*pos)), child) {
				return
			}
		}
	}
}

func (n *node4[V]) reset() {
	n.keys.Store(0)
	n.slots.Clear()
}
