package art

import "errors"

// ErrOutOfMemory is returned when a node allocation would exceed the memory
// budget. The failed mutation leaves the tree unchanged.
var ErrOutOfMemory = errors.New("art: out of memory")

// ErrClosed is returned by operations on a closed tree.
var ErrClosed = errors.New("art: tree closed")
