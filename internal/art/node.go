package art

import (
	"iter"
	"sync/atomic"

	"github.com/hupe1980/artree/internal/olc"
)

// Kind identifies a node representation.
type Kind uint8

// Node kinds, from the leaf through the widest inner representation.
const (
	KindLeaf Kind = iota
	Kind4
	Kind16
	Kind48
	Kind256
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "Leaf"
	case Kind4:
		return "Node4"
	case Kind16:
		return "Node16"
	case Kind48:
		return "Node48"
	case Kind256:
		return "Node256"
	default:
		return "Unknown"
	}
}

// Width returns the child capacity of the representation.
func (k Kind) Width() int {
	switch k {
	case Kind4:
		return 4
	case Kind16:
		return 16
	case Kind48:
		return 48
	case Kind256:
		return 256
	default:
		return 0
	}
}

func (k Kind) grown() Kind {
	switch k {
	case Kind4:
		return Kind16
	case Kind16:
		return Kind48
	case Kind48:
		return Kind256
	default:
		panic("art: " + k.String() + " cannot grow")
	}
}

// shrunk returns the representation a node of kind k should convert to when
// it holds n children, and whether a conversion is due.
func (k Kind) shrunk(n int) (Kind, bool) {
	switch {
	case k == Kind256 && n < Kind48.Width():
		return Kind48, true
	case k == Kind48 && n < Kind16.Width():
		return Kind16, true
	case k == Kind16 && n < Kind4.Width():
		return Kind4, true
	default:
		return k, false
	}
}

// node is a tree node. Leaves have a nil inner container.
//
// Every field a reader touches is atomic: readers run concurrently with the
// single writer holding lock and discard what they read unless the version
// validates afterwards. The inner container is fixed for the node's life.
type node[V any] struct {
	lock olc.Lock

	// prefix is the compressed key segment owned by this node. It starts with
	// the byte the parent indexes this node by. The bytes are never mutated.
	prefix atomic.Pointer[[]byte]

	// value is the value of the key ending exactly at this node.
	value atomic.Pointer[V]

	inner inner[V]
}

func (n *node[V]) kind() Kind {
	if n.inner == nil {
		return KindLeaf
	}
	return n.inner.kind()
}

func (n *node[V]) isLeaf() bool {
	return n.inner == nil
}

func (n *node[V]) loadPrefix() []byte {
	if p := n.prefix.Load(); p != nil {
		return *p
	}
	return nil
}

func (n *node[V]) storePrefix(p []byte) {
	n.prefix.Store(&p)
}

// inner is the child container of an inner node. Mutating methods require
// the owner's write lock. Lookup methods may be called optimistically and
// can return garbage under a concurrent write; the caller validates.
type inner[V any] interface {
	kind() Kind
	numChildren() int
	isFull() bool
	findChild(b byte) *node[V]
	addChild(b byte, child *node[V])
	updateChild(b byte, child *node[V]) *node[V]
	deleteChild(b byte) *node[V]
	children() iter.Seq2[byte, *node[V]]
	reset()
}

func newInner[V any](k Kind) inner[V] {
	switch k {
	case Kind4:
		return newNode4[V]()
	case Kind16:
		return newNode16[V]()
	case Kind48:
		return newNode48[V]()
	case Kind256:
		return newNode256[V]()
	default:
		panic("art: no container for " + k.String())
	}
}
