package key

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
)

// Key is an immutable, comparable byte sequence.
//
// The zero Key is the empty key.
type Key struct {
	data []byte
}

// FromBytes returns a key holding a copy of b.
func FromBytes(b []byte) Key {
	if len(b) == 0 {
		return Key{}
	}
	return Key{data: bytes.Clone(b)}
}

// FromString returns the NUL-terminated encoding of s.
func FromString(s string) Key {
	data := make([]byte, len(s)+1)
	copy(data, s)
	return Key{data: data}
}

// FromUint8 returns the encoding of v.
func FromUint8(v uint8) Key {
	return Key{data: []byte{v}}
}

// FromUint16 returns the big-endian encoding of v.
func FromUint16(v uint16) Key {
	return Key{data: binary.BigEndian.AppendUint16(nil, v)}
}

// FromUint32 returns the big-endian encoding of v.
func FromUint32(v uint32) Key {
	return Key{data: binary.BigEndian.AppendUint32(nil, v)}
}

// FromUint64 returns the big-endian encoding of v.
func FromUint64(v uint64) Key {
	return Key{data: binary.BigEndian.AppendUint64(nil, v)}
}

// FromUint returns the 64-bit big-endian encoding of v.
func FromUint(v uint) Key {
	return FromUint64(uint64(v))
}

// FromInt8 returns the sign-flipped encoding of v.
func FromInt8(v int8) Key {
	return Key{data: []byte{uint8(v) ^ 0x80}}
}

// FromInt16 returns the sign-flipped big-endian encoding of v.
func FromInt16(v int16) Key {
	return Key{data: binary.BigEndian.AppendUint16(nil, uint16(v)^(1<<15))}
}

// FromInt32 returns the sign-flipped big-endian encoding of v.
func FromInt32(v int32) Key {
	return Key{data: binary.BigEndian.AppendUint32(nil, uint32(v)^(1<<31))}
}

// FromInt64 returns the sign-flipped big-endian encoding of v.
func FromInt64(v int64) Key {
	return Key{data: binary.BigEndian.AppendUint64(nil, uint64(v)^(1<<63))}
}

// FromInt returns the 64-bit sign-flipped encoding of v.
func FromInt(v int) Key {
	return FromInt64(int64(v))
}

// At returns the byte at pos. It panics if pos is out of range.
func (k Key) At(pos int) byte {
	return k.data[pos]
}

// Len returns the encoded length.
func (k Key) Len() int {
	return len(k.data)
}

// LengthAt returns the number of bytes remaining from depth.
func (k Key) LengthAt(depth int) int {
	return len(k.data) - depth
}

// IsEmpty reports whether the key has no bytes.
func (k Key) IsEmpty() bool {
	return len(k.data) == 0
}

// Before returns the bytes in [0, n).
//
// The returned slice shares memory with the key and must not be modified.
func (k Key) Before(n int) []byte {
	return k.data[:n:n]
}

// After returns the bytes in [n, Len()).
//
// The returned slice shares memory with the key and must not be modified.
func (k Key) After(n int) []byte {
	return k.data[n:len(k.data):len(k.data)]
}

// Between returns the bytes in [from, to).
//
// The returned slice shares memory with the key and must not be modified.
func (k Key) Between(from, to int) []byte {
	return k.data[from:to:to]
}

// Bytes returns a copy of the encoded key.
func (k Key) Bytes() []byte {
	return bytes.Clone(k.data)
}

// CommonPrefixLen returns the length of the longest common prefix of k and other.
func (k Key) CommonPrefixLen(other Key) int {
	return commonPrefixLen(k.data, other.data)
}

// CommonPrefixLenSlice returns the length of the longest common prefix of k and s.
func (k Key) CommonPrefixLenSlice(s []byte) int {
	return commonPrefixLen(k.data, s)
}

// CommonPrefixLenAt compares the key bytes starting at depth against s.
func (k Key) CommonPrefixLenAt(depth int, s []byte) int {
	if depth >= len(k.data) {
		return 0
	}
	return commonPrefixLen(k.data[depth:], s)
}

// Equal reports whether k and other hold the same bytes.
func (k Key) Equal(other Key) bool {
	return bytes.Equal(k.data, other.data)
}

// String returns a printable form for debugging.
func (k Key) String() string {
	return fmt.Sprintf("%q", k.data)
}

// LogValue implements slog.LogValuer. The key is only formatted when a
// handler actually emits the record.
func (k Key) LogValue() slog.Value {
	return slog.StringValue(k.String())
}

// Compare returns -1, 0 or +1 comparing a and b byte-wise.
func Compare(a, b Key) int {
	return bytes.Compare(a.data, b.data)
}

func commonPrefixLen(a, b []byte) int {
	n := min(len(a), len(b))
	// compare eight bytes at a time while they match
	i := 0
	for ; i+8 <= n; i += 8 {
		if binary.LittleEndian.Uint64(a[i:]) != binary.LittleEndian.Uint64(b[i:]) {
			break
		}
	}
	for ; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
