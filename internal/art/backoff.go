package art

import (
	"runtime"
	"sync/atomic"
)

const (
	// spinLimit is the last step that busy-waits; step s spins 2^s times.
	spinLimit = 6
	// yieldLimit is the last step counted; beyond it the backoff is completed
	// and keeps yielding.
	yieldLimit = 10
)

var spinSink atomic.Uint32

// backoff paces optimistic retries: exponential spinning first, then
// yielding the processor.
type backoff struct {
	step int
}

// snooze waits before the next attempt. It reports true exactly once, on
// the call that exhausts the backoff.
func (b *backoff) snooze() bool {
	if b.step <= spinLimit {
		for range 1 << b.step {
			spinSink.Load()
		}
	} else {
		runtime.Gosched()
	}
	if b.step <= yieldLimit {
		b.step++
		return b.step > yieldLimit
	}
	return false
}
