// Package testutil provides testing utilities for artree.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random source and generators for keys
// shaped like the ones a router feeds into the tree.
//
// # Random Keys
//
//	rng := testutil.NewRNG(seed)
//	paths := rng.Paths(1000, 4)     // "/ab3/x9f/..." style keys with shared prefixes
//	raw := rng.Bytes(16)            // random byte key
//	ids := rng.UniqueUint32s(1000)  // distinct integers
//
// # Skewed Access
//
//	i := rng.Zipf(len(paths), 1.2) // hot-key access patterns for benchmarks
package testutil
