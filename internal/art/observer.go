package art

// Op identifies a tree operation.
type Op uint8

// Tree operations reported to an Observer.
const (
	OpGet Op = iota
	OpInsert
	OpRemove
)

// String returns the string representation of an Op.
func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Observer receives structural events from a Tree.
// Implementations must be safe for concurrent use and must not call back
// into the tree.
type Observer interface {
	// OnRestart is called when an optimistic attempt failed validation.
	OnRestart(op Op)
	// OnContention is called once per operation when its spin budget is
	// exhausted and it falls back to yielding.
	OnContention(op Op, restarts int)
	// OnTransition is called when a node is replaced by another representation.
	OnTransition(from, to Kind)
	// OnRetire is called when a node is unlinked from the tree.
	OnRetire(k Kind)
	// OnReclaim is called when a retired node is released.
	OnReclaim(k Kind)
}

// NoopObserver is an Observer that does nothing.
type NoopObserver struct{}

func (NoopObserver) OnRestart(Op)           {}
func (NoopObserver) OnContention(Op, int)   {}
func (NoopObserver) OnTransition(_, _ Kind) {}
func (NoopObserver) OnRetire(Kind)          {}
func (NoopObserver) OnReclaim(Kind)         {}
