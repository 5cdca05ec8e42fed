// Package simd provides word-parallel byte scans for the small inner nodes.
//
// Node4 and Node16 keep their child selector bytes packed into 64-bit words.
// FindByte4 and FindByte16 locate a byte inside such a word restricted to the
// positions marked present.
//
// # Implementations
//
//   - generic: scalar loop over every present position
//   - swar: SIMD-within-a-register equality test over a whole word followed by
//     a trailing-zero count, branch-free per word
//
// Runtime CPU feature detection selects the implementation. Setting
// ARTREE_SIMD=generic or ARTREE_SIMD=swar forces one of them. Both return the
// same result for every input.
package simd
