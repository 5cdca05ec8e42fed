package artree

// Close releases every node held by the tree.
//
// Close must not run concurrently with other methods. After Close, Get and
// Remove report absence, Insert and BatchInsert fail with ErrClosed, and a
// second Close returns ErrClosed.
func (t *Tree[V]) Close() error {
	if t == nil {
		return nil
	}

	values := t.tree.Len()
	memory := t.memory.MemoryUsage()

	err := translateError(t.tree.Close())
	t.logger.LogClose(values, memory, err)

	return err
}
