// Package epoch implements epoch-based deferred reclamation.
//
// # Protocol
//
// A goroutine that may dereference shared nodes pins itself first. Pinning
// announces the current global epoch in a participant slot. Work retired
// while pinned is deferred and tagged with the global epoch observed at
// retirement. The global epoch only advances when every pinned participant
// has announced the current epoch, so once the global epoch has moved two
// steps past a tag no participant can still hold a reference obtained before
// the retirement, and the deferred function runs.
//
//	g := c.Pin()
//	defer g.Unpin()
//	// ... unlink node ...
//	g.Defer(func() { release(node) })
//
// # Nil Safety
//
// A nil *Collector is valid. Pin returns an inert guard and Defer runs the
// function immediately, which is the right behaviour when the garbage
// collector alone guarantees memory safety.
package epoch

import (
	"runtime"
	"sync/atomic"
)

const (
	// DefaultThreshold is the number of pending entries that triggers a
	// collection on Unpin.
	DefaultThreshold = 64

	cacheLine = 64
)

type slot struct {
	// state is 0 when free, epoch<<1|1 when pinned.
	state atomic.Uint64
	_     [cacheLine - 8]byte
}

type entry struct {
	fn    func()
	epoch uint64
	next  *entry
}

// Collector owns the global epoch and the deferred work list.
type Collector struct {
	global     atomic.Uint64
	slots      []slot
	hint       atomic.Uint64
	deferred   atomic.Pointer[entry]
	pending    atomic.Int64
	reclaimed  atomic.Uint64
	collecting atomic.Bool
	threshold  int64
}

// Options configures a Collector.
type Options struct {
	// Slots is the maximum number of simultaneously pinned goroutines.
	// Additional pinners wait for a free slot. Defaults to max(64, 4*GOMAXPROCS).
	Slots int

	// Threshold is the pending count that triggers collection. Defaults to DefaultThreshold.
	Threshold int
}

// NewCollector creates a Collector.
func NewCollector(optFns ...func(o *Options)) *Collector {
	opts := Options{
		Slots:     max(64, 4*runtime.GOMAXPROCS(0)),
		Threshold: DefaultThreshold,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Slots <= 0 {
		opts.Slots = 1
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 1
	}

	return &Collector{
		slots:     make([]slot, opts.Slots),
		threshold: int64(opts.Threshold),
	}
}

// Guard is a pinned participant. The zero Guard is inert.
type Guard struct {
	c    *Collector
	slot int
}

// Pin announces the calling goroutine as a participant.
func (c *Collector) Pin() Guard {
	if c == nil {
		return Guard{}
	}

	n := len(c.slots)
	for {
		start := int(c.hint.Add(1) % uint64(n))
		for i := range n {
			idx := (start + i) % n
			s := &c.slots[idx]
			e := c.global.Load()
			if !s.state.CompareAndSwap(0, e<<1|1) {
				continue
			}
			// the global epoch may have moved between the load and the claim
			for {
				g := c.global.Load()
				if g == e {
					break
				}
				s.state.Store(g<<1 | 1)
				e = g
			}
			return Guard{c: c, slot: idx}
		}
		runtime.Gosched()
	}
}

// Defer schedules fn to run once no participant pinned now can reach the
// retired object.
func (g Guard) Defer(fn func()) {
	if g.c == nil {
		fn()
		return
	}
	g.c.push(&entry{fn: fn, epoch: g.c.global.Load()})
	g.c.pending.Add(1)
}

// Unpin leaves the participant set and collects if enough work is pending.
func (g Guard) Unpin() {
	if g.c == nil {
		return
	}
	g.c.slots[g.slot].state.Store(0)
	if g.c.pending.Load() >= g.c.threshold {
		g.c.Collect()
	}
}

// TryAdvance increments the global epoch if every pinned participant has
// observed it. It reports whether the epoch advanced.
func (c *Collector) TryAdvance() bool {
	if c == nil {
		return false
	}
	e := c.global.Load()
	for i := range c.slots {
		s := c.slots[i].state.Load()
		if s != 0 && s>>1 != e {
			return false
		}
	}
	return c.global.CompareAndSwap(e, e+1)
}

// Collect advances the epoch if possible and runs every deferred function
// whose grace period has elapsed. Concurrent calls collapse into one.
func (c *Collector) Collect() int {
	if c == nil || !c.collecting.CompareAndSwap(false, true) {
		return 0
	}
	defer c.collecting.Store(false)

	c.TryAdvance()
	now := c.global.Load()

	ran := 0
	list := c.deferred.Swap(nil)
	for e := list; e != nil; {
		next := e.next
		if e.epoch+2 <= now {
			e.fn()
			ran++
		} else {
			c.push(e)
		}
		e = next
	}

	c.pending.Add(-int64(ran))
	c.reclaimed.Add(uint64(ran))
	return ran
}

// Drain runs every deferred function regardless of epochs. The caller must
// guarantee that no participant is pinned.
func (c *Collector) Drain() int {
	if c == nil {
		return 0
	}
	ran := 0
	for {
		list := c.deferred.Swap(nil)
		if list == nil {
			break
		}
		for e := list; e != nil; e = e.next {
			e.fn()
			ran++
		}
	}
	c.pending.Add(-int64(ran))
	c.reclaimed.Add(uint64(ran))
	return ran
}

// Epoch returns the current global epoch.
func (c *Collector) Epoch() uint64 {
	if c == nil {
		return 0
	}
	return c.global.Load()
}

// Pending returns the number of deferred functions not yet run.
func (c *Collector) Pending() int64 {
	if c == nil {
		return 0
	}
	return c.pending.Load()
}

// Reclaimed returns the number of deferred functions run so far.
func (c *Collector) Reclaimed() uint64 {
	if c == nil {
		return 0
	}
	return c.reclaimed.Load()
}

func (c *Collector) push(e *entry) {
	for {
		head := c.deferred.Load()
		e.next = head
		if c.deferred.CompareAndSwap(head, e) {
			return
		}
	}
}
