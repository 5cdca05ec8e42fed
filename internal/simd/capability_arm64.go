//go:build arm64

package simd

import "golang.org/x/sys/cpu"

func init() {
	// RBIT+CLZ are baseline; ASIMD marks a regular application core.
	hasFastCTZ = cpu.ARM64.HasASIMD
	initCapabilities()
}
