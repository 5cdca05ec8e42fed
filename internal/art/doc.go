// Package art implements a concurrent adaptive radix tree with optimistic
// lock coupling.
//
// # Layout
//
// Inner nodes come in four widths (Node4, Node16, Node48, Node256) and grow
// or shrink between them as children are added and removed. Every node
// carries a compressed prefix which starts with the byte its parent indexes
// it by, so concatenating the prefixes along a path yields the full key. A
// key that ends at an inner node is stored as that node's value; a key that
// ends in a leaf is stored in the leaf.
//
// # Concurrency
//
// Readers never write shared memory. They snapshot each node's version word,
// read what they need and validate the snapshot before descending further.
// Writers upgrade the snapshots of exactly the nodes they change, parent
// before child, with a compare-and-swap each. Any failed validation restarts
// the operation from the root under a bounded backoff.
//
// Nodes replaced by a grow, shrink, promotion or removal are marked obsolete
// and retired through an epoch collector. They return to a per-width pool
// only after every goroutine that might still hold a reference has unpinned.
// With ReclamationGC retired nodes are left to the garbage collector instead.
//
// # Memory
//
// Each node charges its footprint to an optional resource.Controller. An
// insert that cannot get budget fails with ErrOutOfMemory and leaves the tree
// unchanged. Removal never fails for lack of budget; a shrink that cannot be
// paid for is skipped.
package art
