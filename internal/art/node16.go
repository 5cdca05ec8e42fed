package art

import (
	"iter"
	"sync/atomic"

	"github.com/hupe1980/artree/internal/bitarray"
	"github.com/hupe1980/artree/internal/simd"
)

// node16 keeps sixteen selector byte lanes in two words. The scan compares
// all lanes at once and masks the result with the presence bits.
type node16[V any] struct {
	keys  [2]atomic.Uint64
	slots *bitarray.Array[node[V]]
}

func newNode16[V any]() *node16[V] {
	return &node16[V]{slots: bitarray.New[node[V]](16)}
}

func (n *node16[V]) kind() Kind { return Kind16 }

func (n *node16[V]) numChildren() int { return n.slots.Len() }

func (n *node16[V]) isFull() bool { return n.slots.IsFull() }

func (n *node16[V]) lane(b byte) int {
	return simd.FindByte16(n.keys[0].Load(), n.keys[1].Load(), uint16(n.slots.Word(0)), b)
}

func (n *node16[V]) findChild(b byte) *node[V] {
	i := n.lane(b)
	if i < 0 {
		return nil
	}
	return n.slots.Get(i)
}

func (n *node16[V]) addChild(b byte, child *node[V]) {
	pos, ok := n.slots.FirstEmpty()
	if !ok {
		panic("art: add to full Node16")
	}
	w := &n.keys[pos/8]
	shift := 8 * (pos % 8)
	w.Store(w.Load()&^(0xff<<shift) | uint64(b)<<shift)
	n.slots.Set(pos, child)
}

func (n *node16[V]) updateChild(b byte, child *node[V]) *node[V] {
	i := n.lane(b)
	if i < 0 {
		panic("art: update of missing child in Node16")
	}
	old, _ := n.slots.Update(i, child)
	return old
}

func (n *node16[V]) deleteChild(b byte) *node[V] {
	i := n.lane(b)
	if i < 0 {
		return nil
	}
	old, _ := n.slots.Erase(i)
	return old
}

func (n *node16[V]) children() iter.Seq2[byte, *node[V]] {
	return func(yield func(byte, *node[V]) bool) {
		lo, hi := n.keys[0].Load(), n.keys[1].Load()
		for pos, child := range n.slots.All() {
			w := lo
			if pos >= 8 {
				w = hi
			}
			if !yield(byte(w>>(8*(pos%8))), child) {
				return
			}
		}
	}
}

func (n *node16[V]) reset() {
	n.keys[0].Store(0)
	n.keys[1].Store(0)
	n.slots.Clear()
}
