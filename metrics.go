package artree

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/artree/internal/art"
	"golang.org/x/time/rate"
)

// Op identifies a tree operation in contention reports.
type Op = art.Op

// Tree operations.
const (
	OpGet    = art.OpGet
	OpInsert = art.OpInsert
	OpRemove = art.OpRemove
)

// NodeKind identifies a node representation.
type NodeKind = art.Kind

// Node representations.
const (
	NodeLeaf = art.KindLeaf
	Node4    = art.Kind4
	Node16   = art.Kind16
	Node48   = art.Kind48
	Node256  = art.Kind256
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
// Implementations must be safe for concurrent use.
type MetricsCollector interface {
	// RecordGet is called after each lookup.
	RecordGet(duration time.Duration, found bool)

	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordBatchInsert is called after each batch insert operation.
	// count is the number of items attempted, failed is the number that were
	// not inserted, duration is the total time taken.
	RecordBatchInsert(count, failed int, duration time.Duration)

	// RecordRemove is called after each remove operation.
	RecordRemove(duration time.Duration, found bool)

	// RecordRestart is called whenever an optimistic attempt had to start over.
	RecordRestart(op Op)

	// RecordContention is called when an operation exhausted its spin budget.
	RecordContention(op Op)

	// RecordTransition is called when a node grows or shrinks into another
	// representation.
	RecordTransition(from, to NodeKind)

	// RecordRetire is called when a node is unlinked from the tree.
	RecordRetire(kind NodeKind)

	// RecordReclaim is called when an unlinked node is released.
	RecordReclaim(kind NodeKind)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGet(time.Duration, bool)             {}
func (NoopMetricsCollector) RecordInsert(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBatchInsert(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordRemove(time.Duration, bool)          {}
func (NoopMetricsCollector) RecordRestart(Op)                          {}
func (NoopMetricsCollector) RecordContention(Op)                       {}
func (NoopMetricsCollector) RecordTransition(_, _ NodeKind)            {}
func (NoopMetricsCollector) RecordRetire(NodeKind)                     {}
func (NoopMetricsCollector) RecordReclaim(NodeKind)                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GetCount          atomic.Int64
	GetHits           atomic.Int64
	GetTotalNanos     atomic.Int64
	InsertCount       atomic.Int64
	InsertErrors      atomic.Int64
	InsertTotalNanos  atomic.Int64
	BatchInsertCount  atomic.Int64
	BatchInsertItems  atomic.Int64
	BatchInsertFailed atomic.Int64
	RemoveCount       atomic.Int64
	RemoveHits        atomic.Int64
	RestartCount      atomic.Int64
	ContentionCount   atomic.Int64
	GrowCount         atomic.Int64
	ShrinkCount       atomic.Int64
	RetiredNodes      atomic.Int64
	ReclaimedNodes    atomic.Int64
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(duration time.Duration, found bool) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())
	if found {
		b.GetHits.Add(1)
	}
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count, failed int, duration time.Duration) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertItems.Add(int64(count))
	b.BatchInsertFailed.Add(int64(failed))
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(duration time.Duration, found bool) {
	b.RemoveCount.Add(1)
	if found {
		b.RemoveHits.Add(1)
	}
}

// RecordRestart implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestart(Op) {
	b.RestartCount.Add(1)
}

// RecordContention implements MetricsCollector.
func (b *BasicMetricsCollector) RecordContention(Op) {
	b.ContentionCount.Add(1)
}

// RecordTransition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransition(from, to NodeKind) {
	// leaves promote to Node4, which counts as growth
	if to > from {
		b.GrowCount.Add(1)
	} else {
		b.ShrinkCount.Add(1)
	}
}

// RecordRetire implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetire(NodeKind) {
	b.RetiredNodes.Add(1)
}

// RecordReclaim implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReclaim(NodeKind) {
	b.ReclaimedNodes.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GetCount:          b.GetCount.Load(),
		GetHits:           b.GetHits.Load(),
		GetAvgNanos:       avgNanos(b.GetTotalNanos.Load(), b.GetCount.Load()),
		InsertCount:       b.InsertCount.Load(),
		InsertErrors:      b.InsertErrors.Load(),
		InsertAvgNanos:    avgNanos(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BatchInsertCount:  b.BatchInsertCount.Load(),
		BatchInsertItems:  b.BatchInsertItems.Load(),
		BatchInsertFailed: b.BatchInsertFailed.Load(),
		RemoveCount:       b.RemoveCount.Load(),
		RemoveHits:        b.RemoveHits.Load(),
		RestartCount:      b.RestartCount.Load(),
		ContentionCount:   b.ContentionCount.Load(),
		GrowCount:         b.GrowCount.Load(),
		ShrinkCount:       b.ShrinkCount.Load(),
		RetiredNodes:      b.RetiredNodes.Load(),
		ReclaimedNodes:    b.ReclaimedNodes.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GetCount          int64
	GetHits           int64
	GetAvgNanos       int64
	InsertCount       int64
	InsertErrors      int64
	InsertAvgNanos    int64
	BatchInsertCount  int64
	BatchInsertItems  int64
	BatchInsertFailed int64
	RemoveCount       int64
	RemoveHits        int64
	RestartCount      int64
	ContentionCount   int64
	GrowCount         int64
	ShrinkCount       int64
	RetiredNodes      int64
	ReclaimedNodes    int64
}

// metricsObserver forwards structural events of the internal tree to a
// MetricsCollector. Contention is also logged, at most once per second.
type metricsObserver struct {
	metrics    MetricsCollector
	logger     *Logger
	contention *rate.Limiter
}

func newMetricsObserver(mc MetricsCollector, logger *Logger) *metricsObserver {
	return &metricsObserver{
		metrics:    mc,
		logger:     logger,
		contention: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (o *metricsObserver) OnRestart(op art.Op) {
	o.metrics.RecordRestart(op)
}

func (o *metricsObserver) OnContention(op art.Op, restarts int) {
	o.metrics.RecordContention(op)
	if o.contention.Allow() {
		o.logger.LogContention(op, restarts)
	}
}

func (o *metricsObserver) OnTransition(from, to art.Kind) {
	o.metrics.RecordTransition(from, to)
}

func (o *metricsObserver) OnRetire(k art.Kind) {
	o.metrics.RecordRetire(k)
}

func (o *metricsObserver) OnReclaim(k art.Kind) {
	o.metrics.RecordReclaim(k)
}
