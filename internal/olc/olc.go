// Package olc implements the optimistic lock coupling version word.
//
// A Lock packs three things into one atomic uint64:
//
//	bit 0     obsolete  (terminal, the node was retired)
//	bit 1     locked    (an exclusive writer is present)
//	bits 2..  version   (bumped on every write unlock)
//
// Readers never write the word. They take a ReadGuard (a snapshot), read the
// protected state and call Check before trusting what they read. Writers
// upgrade a ReadGuard with a single compare-and-swap, which fails if anything
// happened since the snapshot.
package olc

import (
	"errors"
	"strconv"
	"sync/atomic"
)

var (
	// ErrLocked is returned when the word is locked or obsolete.
	ErrLocked = errors.New("olc: locked")

	// ErrVersionNotMatch is returned when the word changed since the snapshot.
	ErrVersionNotMatch = errors.New("olc: version not match")
)

const (
	obsoleteBit = 0b01
	lockedBit   = 0b10
	versionStep = 0b100
)

// State is a decoded snapshot of a version word.
type State uint64

// Version returns the version counter.
func (s State) Version() uint64 { return uint64(s) >> 2 }

// IsLocked reports whether a writer holds the lock.
func (s State) IsLocked() bool { return s&lockedBit != 0 }

// IsObsolete reports whether the node was retired.
func (s State) IsObsolete() bool { return s&obsoleteBit != 0 }

// String returns Unlocked(v), Locked(v) or Obsolete.
func (s State) String() string {
	switch {
	case s.IsObsolete():
		return "Obsolete"
	case s.IsLocked():
		return "Locked(" + strconv.FormatUint(s.Version(), 10) + ")"
	default:
		return "Unlocked(" + strconv.FormatUint(s.Version(), 10) + ")"
	}
}

// Lock is the version word. The zero value is Unlocked(0).
type Lock struct {
	word atomic.Uint64
}

// State returns the current decoded state.
func (l *Lock) State() State {
	return State(l.word.Load())
}

// ReadLock snapshots the word.
func (l *Lock) ReadLock() (ReadGuard, error) {
	v := l.word.Load()
	if v&(lockedBit|obsoleteBit) != 0 {
		return ReadGuard{}, ErrLocked
	}
	return ReadGuard{lock: l, version: v}, nil
}

// Reset returns a retired lock to a fresh unlocked state with a newer
// version, so guards taken before the reset can never validate. It must only
// be called once no reader can still reach the owner.
func (l *Lock) Reset() {
	v := l.word.Load()
	l.word.Store((v &^ (lockedBit | obsoleteBit)) + versionStep)
}

// ReadGuard is an optimistic snapshot of a Lock.
type ReadGuard struct {
	lock    *Lock
	version uint64
}

// Version returns the snapshotted version word.
func (g ReadGuard) Version() uint64 {
	return g.version
}

// Check fails if the word changed since the snapshot.
func (g ReadGuard) Check() error {
	v := g.lock.word.Load()
	if v == g.version {
		return nil
	}
	if v&(lockedBit|obsoleteBit) != 0 {
		return ErrLocked
	}
	return ErrVersionNotMatch
}

// Upgrade takes the exclusive lock if nothing changed since the snapshot.
func (g ReadGuard) Upgrade() (WriteGuard, error) {
	if g.lock.word.CompareAndSwap(g.version, g.version+lockedBit) {
		return WriteGuard{lock: g.lock}, nil
	}
	return WriteGuard{}, g.Check()
}

// WriteGuard is an exclusively held Lock.
type WriteGuard struct {
	lock *Lock
}

// MarkObsolete sets the terminal obsolete bit. The guard must still be
// unlocked afterwards; the word then stays obsolete.
func (g WriteGuard) MarkObsolete() {
	g.lock.word.Or(obsoleteBit)
}

// Unlock releases the lock and bumps the version.
func (g WriteGuard) Unlock() {
	// adding the set lock bit carries into the version
	g.lock.word.Add(lockedBit)
}
