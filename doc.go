// Package artree provides a concurrent adaptive radix tree for Go.
//
// A Tree maps byte-string keys to values. Keys are built with the key
// package from strings, raw bytes or integers; integer keys are encoded so
// that byte order equals numeric order.
//
// # Quick Start
//
//	t, err := artree.New[string]()
//	if err != nil {
//	    panic(err)
//	}
//	defer t.Close()
//
//	t.Insert(key.FromString("hello"), "world")
//	v, ok := t.Get(key.FromString("hello"))
//	old, ok := t.Remove(key.FromString("hello"))
//
// # Concurrency
//
// Get, Insert, Remove and BatchInsert may be called from any number of
// goroutines. Lookups are optimistic: they read without taking locks and
// start over if a writer changed a node underneath them. Writers lock only
// the nodes they change, so operations on different parts of the tree run in
// parallel.
//
// # Memory
//
// Node memory is tracked and can be bounded:
//
//	t, _ := artree.New[int](artree.WithMemoryLimit(64 << 20))
//	if _, _, err := t.Insert(k, 1); errors.Is(err, artree.ErrOutOfMemory) {
//	    // the tree is unchanged
//	}
//
// Nodes unlinked by removals or resizes are released once no concurrent
// reader can still see them (ReclamationEpoch, the default) or left to the
// garbage collector (ReclamationGC).
//
// # Observability
//
// WithLogger attaches a slog-based Logger and WithMetricsCollector a
// MetricsCollector such as BasicMetricsCollector:
//
//	metrics := &artree.BasicMetricsCollector{}
//	t, _ := artree.New[int](
//	    artree.WithMetricsCollector(metrics),
//	    artree.WithLogLevel(slog.LevelWarn),
//	)
//
// Stats reports the shape of the tree: nodes per width, leaves, density and
// height.
package artree
