package simd

import "math/bits"

const (
	lsb = 0x0101010101010101
	low = 0x7f7f7f7f7f7f7f7f
)

// spread maps a presence byte to a word with 0x80 in every present byte lane.
var spread = func() (t [256]uint64) {
	for p := range t {
		for i := range 8 {
			if p&(1<<i) != 0 {
				t[p] |= 0x80 << (8 * i)
			}
		}
	}
	return t
}()

// FindByte4 returns the lane in keys (lane i = bits 8i..8i+7) holding b among
// the lanes set in present, or -1.
func FindByte4(keys uint32, present uint8, b byte) int {
	return findByte4Impl(keys, present&0x0f, b)
}

// FindByte16 is FindByte4 for sixteen lanes split over lo (lanes 0..7) and
// hi (lanes 8..15).
func FindByte16(lo, hi uint64, present uint16, b byte) int {
	return findByte16Impl(lo, hi, present, b)
}

func findByte4Generic(keys uint32, present uint8, b byte) int {
	for i := range 4 {
		if present&(1<<i) != 0 && byte(keys>>(8*i)) == b {
			return i
		}
	}
	return -1
}

func findByte16Generic(lo, hi uint64, present uint16, b byte) int {
	for i := range 16 {
		if present&(1<<i) == 0 {
			continue
		}
		w := lo
		if i >= 8 {
			w = hi
		}
		if byte(w>>(8*(i%8))) == b {
			return i
		}
	}
	return -1
}

// matchLanes returns 0x80 in every lane of w equal to b. Unlike the classic
// haszero trick it has no false positives, so the mask can be trusted as is.
func matchLanes(w uint64, b byte) uint64 {
	x := w ^ (lsb * uint64(b))
	y := (x & low) + low
	return ^(y | x | low)
}

func findByte4SWAR(keys uint32, present uint8, b byte) int {
	m := matchLanes(uint64(keys), b) & spread[present]
	if m == 0 {
		return -1
	}
	return bits.TrailingZeros64(m) / 8
}

func findByte16SWAR(lo, hi uint64, present uint16, b byte) int {
	if m := matchLanes(lo, b) & spread[uint8(present)]; m != 0 {
		return bits.TrailingZeros64(m) / 8
	}
	if m := matchLanes(hi, b) & spread[uint8(present>>8)]; m != 0 {
		return 8 + bits.TrailingZeros64(m)/8
	}
	return -1
}
