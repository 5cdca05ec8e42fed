// Package bitarray implements a fixed-width slot array whose occupancy is
// tracked by a presence bitset.
//
// Writers are expected to be serialized externally (the owning node's write
// lock). Readers may access an Array concurrently with a writer; every slot
// and every presence word is read atomically, so a concurrent reader sees
// either the old or the new state of each slot and relies on the owner's
// version check to discard inconsistent views.
//
// A slot is published before its presence bit is set and cleared after its
// presence bit is dropped, so a present bit never points at a slot that was
// never written.
package bitarray

import (
	"iter"
	"math/bits"
	"sync/atomic"
)

const wordBits = 64

// Array is a fixed-capacity array of optional *T slots.
type Array[T any] struct {
	width int
	bits  []atomic.Uint64
	slots []atomic.Pointer[T]
}

// New creates an empty Array with width slots.
func New[T any](width int) *Array[T] {
	if width <= 0 {
		panic("bitarray: width must be positive")
	}
	return &Array[T]{
		width: width,
		bits:  make([]atomic.Uint64, (width+wordBits-1)/wordBits),
		slots: make([]atomic.Pointer[T], width),
	}
}

// Width returns the logical capacity.
func (a *Array[T]) Width() int {
	return a.width
}

// Len returns the number of occupied slots.
func (a *Array[T]) Len() int {
	n := 0
	for i := range a.bits {
		n += bits.OnesCount64(a.bits[i].Load())
	}
	return n
}

// IsFull reports whether every slot is occupied.
func (a *Array[T]) IsFull() bool {
	return a.Len() == a.width
}

// Word returns the i-th presence word.
func (a *Array[T]) Word(i int) uint64 {
	return a.bits[i].Load()
}

// Check reports whether pos is occupied.
func (a *Array[T]) Check(pos int) bool {
	if pos < 0 || pos >= a.width {
		return false
	}
	return a.bits[pos/wordBits].Load()&(1<<(pos%wordBits)) != 0
}

// Get returns the item at pos, or nil if the slot is empty.
func (a *Array[T]) Get(pos int) *T {
	if !a.Check(pos) {
		return nil
	}
	return a.slots[pos].Load()
}

// Set stores item at pos and marks it occupied.
func (a *Array[T]) Set(pos int, item *T) {
	a.mustBeInRange(pos)
	a.slots[pos].Store(item)
	a.bits[pos/wordBits].Or(1 << (pos % wordBits))
}

// Update replaces the item at pos and returns the previous one, if any.
func (a *Array[T]) Update(pos int, item *T) (*T, bool) {
	a.mustBeInRange(pos)
	if !a.Check(pos) {
		a.Set(pos, item)
		return nil, false
	}
	return a.slots[pos].Swap(item), true
}

// Push stores item in the first empty slot and returns its position.
// It returns false if the array is full.
func (a *Array[T]) Push(item *T) (int, bool) {
	pos, ok := a.FirstEmpty()
	if !ok {
		return 0, false
	}
	a.Set(pos, item)
	return pos, true
}

// Erase clears pos and returns the item it held, if any.
func (a *Array[T]) Erase(pos int) (*T, bool) {
	if !a.Check(pos) {
		return nil, false
	}
	a.bits[pos/wordBits].And(^uint64(1 << (pos % wordBits)))
	return a.slots[pos].Swap(nil), true
}

// FirstEmpty returns the lowest unoccupied position below Width.
func (a *Array[T]) FirstEmpty() (int, bool) {
	for i := range a.bits {
		free := ^a.bits[i].Load()
		if rem := a.width - i*wordBits; rem < wordBits {
			free &= (1 << rem) - 1
		}
		if free != 0 {
			return i*wordBits + bits.TrailingZeros64(free), true
		}
	}
	return 0, false
}

// All iterates over occupied slots in position order.
func (a *Array[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := range a.bits {
			w := a.bits[i].Load()
			for w != 0 {
				pos := i*wordBits + bits.TrailingZeros64(w)
				w &= w - 1
				item := a.slots[pos].Load()
				if item == nil {
					continue
				}
				if !yield(pos, item) {
					return
				}
			}
		}
	}
}

// Clear empties every slot.
func (a *Array[T]) Clear() {
	for i := range a.bits {
		a.bits[i].Store(0)
	}
	for i := range a.slots {
		a.slots[i].Store(nil)
	}
}

func (a *Array[T]) mustBeInRange(pos int) {
	if pos < 0 || pos >= a.width {
		panic("bitarray: position out of range")
	}
}
