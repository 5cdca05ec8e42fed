//go:build amd64

package simd

import "golang.org/x/sys/cpu"

func init() {
	// TZCNT is part of BMI1; without it TrailingZeros64 falls back to BSF plus a branch.
	hasFastCTZ = cpu.X86.HasBMI1
	initCapabilities()
}
