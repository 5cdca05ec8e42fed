package artree

import (
	"log/slog"

	"github.com/hupe1980/artree/internal/art"
)

// Reclamation selects how nodes unlinked from the tree are released.
type Reclamation = art.Reclamation

const (
	// ReclamationEpoch recycles unlinked nodes once no reader can still hold
	// them. This is the default.
	ReclamationEpoch = art.ReclamationEpoch

	// ReclamationGC leaves unlinked nodes to the garbage collector.
	ReclamationGC = art.ReclamationGC
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	memoryLimit      int64
	reclamation      Reclamation
	epochSlots       int
	batchConcurrency int
}

// Option configures a Tree.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &artree.BasicMetricsCollector{}
//	t, _ := artree.New[int](artree.WithMetricsCollector(metrics))
//	// ... use t ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Restarts: %d\n", stats.InsertCount, stats.RestartCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := artree.NewJSONLogger(slog.LevelInfo)
//	t, _ := artree.New[int](artree.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMemoryLimit bounds the bytes held by tree nodes. Inserts that would
// exceed the limit fail with ErrOutOfMemory.
//
// A limit <= 0 disables the bound; usage is still tracked.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithReclamation selects how unlinked nodes are released.
func WithReclamation(r Reclamation) Option {
	return func(o *options) {
		o.reclamation = r
	}
}

// WithEpochSlots bounds the number of goroutines that can operate on the tree
// at the same time under ReclamationEpoch. Further goroutines wait for a free
// slot. Values <= 0 select the default, which scales with GOMAXPROCS.
func WithEpochSlots(n int) Option {
	return func(o *options) {
		o.epochSlots = n
	}
}

// WithBatchConcurrency sets the number of goroutines BatchInsert uses.
// Values <= 0 select GOMAXPROCS.
func WithBatchConcurrency(n int) Option {
	return func(o *options) {
		o.batchConcurrency = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		reclamation:      ReclamationEpoch,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
