package testutil

import (
	"math"
	"math/rand"
	"strings"
	"sync"
)

const segmentAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Uint32 returns a pseudo-random uint32.
func (r *RNG) Uint32() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint32()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.rand.Intn(256))
	}
	return b
}

// UniqueUint32s returns n distinct pseudo-random uint32 values.
func (r *RNG) UniqueUint32s(n int) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uint32]struct{}, n)
	out := make([]uint32, 0, n)
	for len(out) < n {
		v := r.rand.Uint32()
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Paths returns num distinct URL-like paths with up to maxSegments segments.
// Segments are drawn from a small vocabulary so paths share long prefixes.
func (r *RNG) Paths(num, maxSegments int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	vocab := make([]string, 16)
	for i := range vocab {
		vocab[i] = r.segmentLocked(2 + r.rand.Intn(6))
	}

	seen := make(map[string]struct{}, num)
	out := make([]string, 0, num)
	var sb strings.Builder
	for len(out) < num {
		sb.Reset()
		segments := 1 + r.rand.Intn(maxSegments)
		for i := range segments {
			sb.WriteByte('/')
			if i == segments-1 && r.rand.Intn(4) == 0 {
				sb.WriteString(r.segmentLocked(1 + r.rand.Intn(8)))
				continue
			}
			sb.WriteString(vocab[r.rand.Intn(len(vocab))])
		}
		p := sb.String()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (r *RNG) segmentLocked(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = segmentAlphabet[r.rand.Intn(len(segmentAlphabet))]
	}
	return string(b)
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
// s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20 rule).
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 1 {
		return 0
	}

	// Compute normalization constant (harmonic number with exponent s)
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Sample from uniform and use inverse transform
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}
