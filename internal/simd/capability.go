package simd

import (
	"os"
	"strings"
)

// ISA identifies a byte scan implementation.
type ISA uint8

const (
	// Generic is the scalar loop.
	Generic ISA = iota
	// SWAR scans eight bytes per 64-bit word.
	SWAR
)

// String returns the string representation of an ISA.
func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case SWAR:
		return "swar"
	default:
		return "unknown"
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "swar":
		return SWAR, true
	default:
		return Generic, false
	}
}

// Package-level state, set once by the platform init.
var (
	activeISA   ISA
	hasOverride bool

	// hasFastCTZ is true if the CPU counts trailing zeros in one instruction.
	hasFastCTZ bool

	findByte4Impl  = findByte4Generic
	findByte16Impl = findByte16Generic
)

// initCapabilities is called from platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	if override := os.Getenv("ARTREE_SIMD"); override != "" {
		if isa, ok := ParseISA(override); ok {
			hasOverride = true
			setISA(isa)
			return
		}
	}

	if hasFastCTZ {
		setISA(SWAR)
		return
	}
	setISA(Generic)
}

func setISA(isa ISA) {
	activeISA = isa
	switch isa {
	case SWAR:
		findByte4Impl = findByte4SWAR
		findByte16Impl = findByte16SWAR
	default:
		findByte4Impl = findByte4Generic
		findByte16Impl = findByte16Generic
	}
}

// ActiveISA returns the currently active ISA.
func ActiveISA() ISA {
	return activeISA
}

// IsOverridden returns true if ARTREE_SIMD was set.
func IsOverridden() bool {
	return hasOverride
}

// HasFastCTZ returns true if the CPU has a single-instruction trailing zero count.
func HasFastCTZ() bool {
	return hasFastCTZ
}
