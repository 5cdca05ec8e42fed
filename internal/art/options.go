package art

import (
	"log/slog"

	"github.com/hupe1980/artree/internal/epoch"
	"github.com/hupe1980/artree/internal/resource"
)

// Reclamation selects how retired nodes are released.
type Reclamation uint8

const (
	// ReclamationEpoch defers the release of retired nodes until no pinned
	// reader can reach them and then recycles them.
	ReclamationEpoch Reclamation = iota

	// ReclamationGC leaves retired nodes to the garbage collector. Nodes are
	// never recycled.
	ReclamationGC
)

// String returns the string representation of a Reclamation.
func (r Reclamation) String() string {
	switch r {
	case ReclamationEpoch:
		return "epoch"
	case ReclamationGC:
		return "gc"
	default:
		return "unknown"
	}
}

// Options represents the options for configuring a Tree.
type Options struct {
	Reclamation Reclamation

	// EpochSlots bounds the number of simultaneously pinned goroutines.
	// 0 selects the collector default.
	EpochSlots int

	// CollectThreshold is the number of retired nodes that triggers a
	// collection. 0 selects the collector default.
	CollectThreshold int

	// Memory is the node memory budget. Nil means unlimited.
	Memory *resource.Controller

	Observer Observer
	Logger   *slog.Logger
}

// DefaultOptions contains the default options for a Tree.
var DefaultOptions = Options{
	Reclamation: ReclamationEpoch,
	Observer:    NoopObserver{},
}

func (o Options) collector() *epoch.Collector {
	if o.Reclamation == ReclamationGC {
		return nil
	}
	return epoch.NewCollector(func(eo *epoch.Options) {
		if o.EpochSlots > 0 {
			eo.Slots = o.EpochSlots
		}
		if o.CollectThreshold > 0 {
			eo.Threshold = o.CollectThreshold
		}
	})
}
