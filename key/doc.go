// Package key defines the order-preserving byte keys stored in an artree.
//
// # Encodings
//
//   - Bytes: copied verbatim
//   - Strings: UTF-8 bytes followed by a NUL terminator, so no encoded
//     string is a byte-prefix of another encoded string
//   - Unsigned integers: big-endian, fixed width
//   - Signed integers: big-endian with the sign bit flipped, so byte-wise
//     order equals numeric order across the whole domain
//
// # Example
//
//	k := key.FromString("/users")
//	n := key.FromInt64(-42)
//	key.Compare(key.FromInt64(-1), key.FromInt64(1)) // -1
//
// Keys are immutable once constructed. All comparisons are byte-wise; there
// are no locale or collation semantics.
package key
