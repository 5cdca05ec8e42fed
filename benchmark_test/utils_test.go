package benchmark_test

import (
	"testing"

	"github.com/hupe1980/artree"
	"github.com/hupe1980/artree/key"
	"github.com/hupe1980/artree/testutil"
)

const (
	benchSeed = 42
	benchKeys = 1 << 16
)

// keySet names a key distribution used across benchmarks.
type keySet struct {
	name string
	gen  func(rng *testutil.RNG, n int) []key.Key
}

var keySets = []keySet{
	{"sequential", func(_ *testutil.RNG, n int) []key.Key {
		keys := make([]key.Key, n)
		for i := range keys {
			keys[i] = key.FromUint64(uint64(i))
		}
		return keys
	}},
	{"random", func(rng *testutil.RNG, n int) []key.Key {
		keys := make([]key.Key, n)
		for i, v := range rng.UniqueUint32s(n) {
			keys[i] = key.FromUint32(v)
		}
		return keys
	}},
	{"paths", func(rng *testutil.RNG, n int) []key.Key {
		keys := make([]key.Key, n)
		for i, p := range rng.Paths(n, 6) {
			keys[i] = key.FromString(p)
		}
		return keys
	}},
}

// OpenBenchTree creates a tree preloaded with keys.
func OpenBenchTree(tb testing.TB, keys []key.Key, optFns ...artree.Option) *artree.Tree[int] {
	tb.Helper()

	tree, err := artree.New[int](optFns...)
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { _ = tree.Close() })

	for i, k := range keys {
		if _, _, err := tree.Insert(k, i); err != nil {
			tb.Fatal(err)
		}
	}
	return tree
}
