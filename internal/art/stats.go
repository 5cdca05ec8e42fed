package art

// NodeStats aggregates the inner nodes of one width.
type NodeStats struct {
	Width    int
	Nodes    int
	Children int

	// Density is Children / (Nodes * Width).
	Density float64
}

// Stats describes the shape of a Tree.
type Stats struct {
	// Nodes holds one entry per inner node width present in the tree.
	Nodes map[int]NodeStats

	Leaves     int
	Values     int
	InnerNodes int

	// LeafChildren counts the child slots of inner nodes that hold a leaf.
	LeafChildren int

	// Density is the total number of children divided by the total capacity
	// of all inner nodes.
	Density   float64
	MaxHeight int
}

// TotalChildren returns the number of child slots in use across all inner nodes.
func (s Stats) TotalChildren() int {
	total := 0
	for _, ns := range s.Nodes {
		total += ns.Children
	}
	return total
}

// Stats walks the whole tree. Every visited node is validated like any
// optimistic read and the walk restarts if a writer touched one, so the
// result is exact whenever no writer runs concurrently.
func (t *Tree[V]) Stats() Stats {
	if t.closed.Load() {
		return Stats{Nodes: map[int]NodeStats{}}
	}

	g := t.collector.Pin()
	defer g.Unpin()

	var r retry
	for {
		s := Stats{Nodes: make(map[int]NodeStats)}
		if err := t.collectStats(t.root, 1, &s); err == nil {
			s.finish()
			return s
		}
		r.wait(t.observer, OpGet)
	}
}

func (t *Tree[V]) collectStats(n *node[V], height int, s *Stats) error {
	guard, err := n.lock.ReadLock()
	if err != nil {
		return err
	}

	s.MaxHeight = max(s.MaxHeight, height)
	if n.value.Load() != nil {
		s.Values++
	}

	if n.isLeaf() {
		s.Leaves++
		return guard.Check()
	}

	s.InnerNodes++
	width := n.kind().Width()
	ns := s.Nodes[width]
	ns.Width = width
	ns.Nodes++

	var children []*node[V]
	for _, child := range n.inner.children() {
		children = append(children, child)
		if child.isLeaf() {
			s.LeafChildren++
		}
	}
	ns.Children += len(children)
	s.Nodes[width] = ns

	if err := guard.Check(); err != nil {
		return err
	}
	for _, child := range children {
		if err := t.collectStats(child, height+1, s); err != nil {
			return err
		}
	}
	return guard.Check()
}

func (s *Stats) finish() {
	capacity := 0
	children := 0
	for w, ns := range s.Nodes {
		if ns.Nodes > 0 {
			ns.Density = float64(ns.Children) / float64(ns.Nodes*ns.Width)
		}
		s.Nodes[w] = ns
		capacity += ns.Nodes * ns.Width
		children += ns.Children
	}
	if capacity > 0 {
		s.Density = float64(children) / float64(capacity)
	}
}
