package art

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/artree/internal/resource"
	"github.com/hupe1980/artree/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree[V any](t *testing.T, optFns ...func(o *Options)) *Tree[V] {
	t.Helper()
	tree, err := New[V](optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tree.Close() })
	return tree
}

func str(s string) key.Key { return key.FromString(s) }

func raw(s string) key.Key { return key.FromBytes([]byte(s)) }

func mustInsert[V any](t *testing.T, tree *Tree[V], k key.Key, v V) {
	t.Helper()
	_, _, err := tree.Insert(k, v)
	require.NoError(t, err)
}

// kindAt returns the kind of the node reached from the root by b.
func kindAt[V any](tree *Tree[V], b byte) Kind {
	child := tree.root.inner.findChild(b)
	if child == nil {
		return KindLeaf
	}
	return child.kind()
}

// recorder is an Observer that counts events.
type recorder struct {
	mu          sync.Mutex
	transitions map[string]int
	retired     int
	reclaimed   int
	restarts    int
}

func newRecorder() *recorder {
	return &recorder{transitions: make(map[string]int)}
}

func (r *recorder) OnRestart(Op) {
	r.mu.Lock()
	r.restarts++
	r.mu.Unlock()
}

func (r *recorder) OnContention(Op, int) {}

func (r *recorder) OnTransition(from, to Kind) {
	r.mu.Lock()
	r.transitions[from.String()+"->"+to.String()]++
	r.mu.Unlock()
}

func (r *recorder) OnRetire(Kind) {
	r.mu.Lock()
	r.retired++
	r.mu.Unlock()
}

func (r *recorder) OnReclaim(Kind) {
	r.mu.Lock()
	r.reclaimed++
	r.mu.Unlock()
}

func (r *recorder) count(transition string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitions[transition]
}

func TestTree_RoundTrip(t *testing.T) {
	tree := newTestTree[int](t)

	keys := []string{"a", "ab", "abc", "b", "/users", "/users/:id", "/user", ""}
	for i, k := range keys {
		old, replaced, err := tree.Insert(str(k), i)
		require.NoError(t, err)
		assert.False(t, replaced)
		assert.Zero(t, old)
	}

	for i, k := range keys {
		v, ok := tree.Get(str(k))
		require.True(t, ok, "key %q", k)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, len(keys), tree.Len())

	_, ok := tree.Get(str("abcd"))
	assert.False(t, ok)
	_, ok = tree.Get(str("/use"))
	assert.False(t, ok)
}

func TestTree_Update(t *testing.T) {
	tree := newTestTree[string](t)

	mustInsert(t, tree, str("k"), "v1")
	old, replaced, err := tree.Insert(str("k"), "v2")
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "v1", old)

	v, ok := tree.Get(str("k"))
	require.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, tree.Len())
}

func TestTree_Remove(t *testing.T) {
	tree := newTestTree[int](t)

	mustInsert(t, tree, str("k"), 1)

	v, ok := tree.Remove(str("k"))
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = tree.Get(str("k"))
	assert.False(t, ok)

	_, ok = tree.Remove(str("k"))
	assert.False(t, ok)
	_, ok = tree.Remove(str("never"))
	assert.False(t, ok)
	assert.Equal(t, 0, tree.Len())
}

func TestTree_ExampleScenario(t *testing.T) {
	tree := newTestTree[int](t)

	mustInsert(t, tree, str("abcd"), 1)
	mustInsert(t, tree, str("abc"), 2)
	mustInsert(t, tree, str("abcde"), 3)
	mustInsert(t, tree, str("xyz"), 4)

	old, replaced, err := tree.Insert(str("xyz"), 5)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, 4, old)

	v, ok := tree.Get(str("abc"))
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = tree.Remove(str("abcde"))
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = tree.Get(str("abcde"))
	assert.False(t, ok)

	v, ok = tree.Get(str("abc"))
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = tree.Get(str("xyz"))
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestTree_PrefixSplit(t *testing.T) {
	tree := newTestTree[int](t)

	mustInsert(t, tree, raw("abc"), 1)
	mustInsert(t, tree, raw("abd"), 2)

	v, ok := tree.Get(raw("abc"))
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = tree.Get(raw("abd"))
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = tree.Get(raw("ab"))
	assert.False(t, ok)
	_, ok = tree.Get(raw("abe"))
	assert.False(t, ok)

	// both live below a Node4 holding the shared "ab"
	branch := tree.root.inner.findChild('a')
	require.NotNil(t, branch)
	assert.Equal(t, Kind4, branch.kind())
	assert.Equal(t, []byte("ab"), branch.loadPrefix())
}

func TestTree_StrictPrefixKeys(t *testing.T) {
	tree := newTestTree[string](t)

	// raw byte keys are not terminated, so they prefix each other
	keys := []string{"abcd", "ab", "abcdef", "a", "abc", ""}
	for _, k := range keys {
		mustInsert(t, tree, raw(k), "v:"+k)
	}

	for _, k := range keys {
		v, ok := tree.Get(raw(k))
		require.True(t, ok, "key %q", k)
		assert.Equal(t, "v:"+k, v)
	}
	_, ok := tree.Get(raw("abcde"))
	assert.False(t, ok)

	// removing an inner key keeps its extensions and vice versa
	v, ok := tree.Remove(raw("abc"))
	require.True(t, ok)
	assert.Equal(t, "v:abc", v)
	v, ok = tree.Remove(raw("abcdef"))
	require.True(t, ok)
	assert.Equal(t, "v:abcdef", v)

	for _, k := range []string{"abcd", "ab", "a", ""} {
		v, ok := tree.Get(raw(k))
		require.True(t, ok, "key %q", k)
		assert.Equal(t, "v:"+k, v)
	}
	for _, k := range []string{"abc", "abcdef"} {
		_, ok := tree.Get(raw(k))
		assert.False(t, ok, "key %q", k)
	}
	assert.Equal(t, 4, tree.Len())
}

func TestTree_LeafPromotion(t *testing.T) {
	obs := newRecorder()
	tree := newTestTree[int](t, func(o *Options) { o.Observer = obs })

	mustInsert(t, tree, raw("route"), 1)
	require.Equal(t, KindLeaf, kindAt(tree, 'r'))

	mustInsert(t, tree, raw("routes"), 2)
	assert.Equal(t, Kind4, kindAt(tree, 'r'))
	assert.Equal(t, 1, obs.count("Leaf->Node4"))

	v, ok := tree.Get(raw("route"))
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = tree.Get(raw("routes"))
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTree_KeyEndsInsidePrefix(t *testing.T) {
	tree := newTestTree[int](t)

	mustInsert(t, tree, raw("abcdef"), 1)
	mustInsert(t, tree, raw("abcxyz"), 2)
	// "ab" ends inside the compressed "abc" prefix
	mustInsert(t, tree, raw("ab"), 3)

	for k, want := range map[string]int{"abcdef": 1, "abcxyz": 2, "ab": 3} {
		v, ok := tree.Get(raw(k))
		require.True(t, ok, "key %q", k)
		assert.Equal(t, want, v)
	}
	_, ok := tree.Get(raw("abc"))
	assert.False(t, ok)
}

func TestTree_GrowAndShrink(t *testing.T) {
	obs := newRecorder()
	tree := newTestTree[int](t, func(o *Options) { o.Observer = obs })

	k := func(i int) key.Key { return key.FromBytes([]byte{'p', 'x', byte(i)}) }

	checkAll := func(n int) {
		t.Helper()
		for i := range n {
			v, ok := tree.Get(k(i))
			require.True(t, ok, "child %d of %d", i, n)
			require.Equal(t, i, v)
		}
		_, ok := tree.Get(k(n))
		require.False(t, ok)
	}

	expectGrow := map[int]Kind{1: KindLeaf, 2: Kind4, 4: Kind4, 5: Kind16, 16: Kind16, 17: Kind48, 48: Kind48, 49: Kind256, 200: Kind256}
	for i := range 200 {
		mustInsert(t, tree, k(i), i)
		if want, ok := expectGrow[i+1]; ok {
			assert.Equal(t, want, kindAt(tree, 'p'), "after %d inserts", i+1)
			checkAll(i + 1)
		}
	}
	assert.Equal(t, 1, obs.count("Node4->Node16"))
	assert.Equal(t, 1, obs.count("Node16->Node48"))
	assert.Equal(t, 1, obs.count("Node48->Node256"))

	expectShrink := map[int]Kind{48: Kind256, 47: Kind48, 16: Kind48, 15: Kind16, 4: Kind16, 3: Kind4, 1: Kind4}
	for n := 199; n >= 1; n-- {
		v, ok := tree.Remove(k(n))
		require.True(t, ok)
		require.Equal(t, n, v)
		if want, ok := expectShrink[n]; ok {
			assert.Equal(t, want, kindAt(tree, 'p'), "with %d children", n)
			checkAll(n)
		}
	}
	assert.Equal(t, 1, obs.count("Node256->Node48"))
	assert.Equal(t, 1, obs.count("Node48->Node16"))
	assert.Equal(t, 1, obs.count("Node16->Node4"))

	v, ok := tree.Remove(k(0))
	require.True(t, ok)
	assert.Equal(t, 0, v)
	assert.Nil(t, tree.root.inner.findChild('p'), "empty branch is pruned")
	assert.Equal(t, 0, tree.Len())
}

func TestTree_PrunesChains(t *testing.T) {
	tree := newTestTree[int](t)

	mustInsert(t, tree, raw("a1"), 1)
	mustInsert(t, tree, raw("a2x1"), 2)
	mustInsert(t, tree, raw("a2x2"), 3)

	_, ok := tree.Remove(raw("a2x1"))
	require.True(t, ok)
	_, ok = tree.Remove(raw("a2x2"))
	require.True(t, ok)

	// the "a" branch keeps only the a1 leaf
	branch := tree.root.inner.findChild('a')
	require.NotNil(t, branch)
	assert.Equal(t, 1, branch.inner.numChildren())
	assert.Nil(t, branch.inner.findChild('2'))

	s := tree.Stats()
	assert.Equal(t, 1, s.Leaves)
	assert.Equal(t, 1, s.Values)
}

func TestTree_EmptyKey(t *testing.T) {
	tree := newTestTree[int](t)

	empty := key.FromBytes(nil)
	_, ok := tree.Get(empty)
	assert.False(t, ok)

	mustInsert(t, tree, empty, 7)
	v, ok := tree.Get(empty)
	require.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = tree.Remove(empty)
	require.True(t, ok)
	assert.Equal(t, 7, v)
	_, ok = tree.Get(empty)
	assert.False(t, ok)
}

func TestTree_IntegerKeys(t *testing.T) {
	tree := newTestTree[int64](t)

	for i := int64(-1000); i <= 1000; i += 7 {
		mustInsert(t, tree, key.FromInt64(i), i)
	}
	for i := int64(-1000); i <= 1000; i++ {
		v, ok := tree.Get(key.FromInt64(i))
		if (i+1000)%7 == 0 {
			require.True(t, ok, "%d", i)
			assert.Equal(t, i, v)
		} else {
			assert.False(t, ok, "%d", i)
		}
	}
}

func TestTree_Stats(t *testing.T) {
	tree := newTestTree[int](t)

	for i := range 300 {
		mustInsert(t, tree, str(fmt.Sprintf("/api/v1/items/%d", i)), i)
	}

	s := tree.Stats()
	assert.Equal(t, 300, s.Leaves)
	assert.Equal(t, 300, s.LeafChildren)
	assert.Equal(t, 300, s.Values)
	// every node except the root is somebody's child
	assert.Equal(t, s.Leaves+s.InnerNodes-1, s.TotalChildren())
	assert.Greater(t, s.MaxHeight, 2)
	assert.Contains(t, s.Nodes, 256)
	assert.Greater(t, s.Density, 0.0)
	assert.LessOrEqual(t, s.Density, 1.0)
	for w, ns := range s.Nodes {
		assert.Equal(t, w, ns.Width)
		assert.LessOrEqual(t, ns.Density, 1.0)
	}
}

// TestTree_SplitBetweenParentAndChildLock replays a descent that loses the
// race against a split: the reader has found the child and validated the
// parent, then a writer splits the child's prefix before the child's read
// lock is taken. The child's own version then looks clean although the node
// moved one level down, so only the parent can reveal the change.
func TestTree_SplitBetweenParentAndChildLock(t *testing.T) {
	tree := newTestTree[int](t)
	mustInsert(t, tree, raw("aaaaX"), 1)
	mustInsert(t, tree, raw("aaaaaX"), 2)

	rg, err := tree.root.lock.ReadLock()
	require.NoError(t, err)
	child := tree.root.inner.findChild('a')
	require.NotNil(t, child)
	require.NoError(t, rg.Check())
	require.Equal(t, []byte("aaaa"), child.loadPrefix())

	// splits the "aaaa" branch into "a" -> "aaa"
	mustInsert(t, tree, raw("ab"), 3)

	cg, err := child.lock.ReadLock()
	require.NoError(t, err)
	require.NoError(t, cg.Check(), "the child's snapshot alone validates")
	assert.Equal(t, []byte("aaa"), child.loadPrefix())

	_, err = lockChild(rg, child)
	require.Error(t, err, "the stale descent must restart")

	for k, want := range map[string]int{"aaaaX": 1, "aaaaaX": 2, "ab": 3} {
		v, ok := tree.Get(raw(k))
		require.True(t, ok, k)
		assert.Equal(t, want, v, k)
	}
}

func TestTree_OutOfMemory(t *testing.T) {
	root := footprint[int](Kind256)
	leaf := footprint[int](KindLeaf)
	mem := resource.NewController(resource.Config{MemoryLimitBytes: root + 3*leaf})

	tree := newTestTree[int](t, func(o *Options) { o.Memory = mem })

	// three leaves directly under the root fit
	mustInsert(t, tree, raw("a"), 1)
	mustInsert(t, tree, raw("b"), 2)
	mustInsert(t, tree, raw("c"), 3)

	_, _, err := tree.Insert(raw("d"), 4)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	// extending a leaf needs a Node4 and fails the same way
	_, _, err = tree.Insert(raw("ab"), 5)
	require.ErrorIs(t, err, ErrOutOfMemory)

	// nothing changed
	assert.Equal(t, 3, tree.Len())
	for k, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		v, ok := tree.Get(raw(k))
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok := tree.Get(raw("d"))
	assert.False(t, ok)

	// updates need no allocation
	old, replaced, err := tree.Insert(raw("a"), 10)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, 1, old)

	// removal returns budget once reclaimed
	_, ok = tree.Remove(raw("c"))
	require.True(t, ok)
	for range 3 {
		tree.Collect()
	}
	mustInsert(t, tree, raw("d"), 4)
}

func TestTree_MemoryReturnsToRootAfterRemovals(t *testing.T) {
	for _, mode := range []Reclamation{ReclamationEpoch, ReclamationGC} {
		t.Run(mode.String(), func(t *testing.T) {
			mem := resource.NewController(resource.Config{})
			obs := newRecorder()
			tree := newTestTree[int](t, func(o *Options) {
				o.Memory = mem
				o.Reclamation = mode
				o.Observer = obs
			})

			base := mem.MemoryUsage()
			assert.Equal(t, footprint[int](Kind256), base)

			for i := range 500 {
				mustInsert(t, tree, key.FromUint32(uint32(i*7919)), i)
			}
			assert.Greater(t, mem.MemoryUsage(), base)

			for i := range 500 {
				_, ok := tree.Remove(key.FromUint32(uint32(i * 7919)))
				require.True(t, ok)
			}
			for range 3 {
				tree.Collect()
			}

			assert.Equal(t, base, mem.MemoryUsage())
			obs.mu.Lock()
			assert.Equal(t, obs.retired, obs.reclaimed)
			obs.mu.Unlock()
		})
	}
}

func TestTree_Close(t *testing.T) {
	mem := resource.NewController(resource.Config{})
	tree, err := New[int](func(o *Options) { o.Memory = mem })
	require.NoError(t, err)

	for i := range 100 {
		mustInsert(t, tree, key.FromInt(i), i)
	}
	for i := range 50 {
		tree.Remove(key.FromInt(i))
	}

	require.NoError(t, tree.Close())
	assert.Equal(t, int64(0), mem.MemoryUsage())
	assert.Equal(t, 0, tree.Len())

	assert.ErrorIs(t, tree.Close(), ErrClosed)
	_, _, err = tree.Insert(key.FromInt(1), 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, ok := tree.Get(key.FromInt(60))
	assert.False(t, ok)
	_, ok = tree.Remove(key.FromInt(60))
	assert.False(t, ok)
}

func TestTree_NewFailsWithoutBudgetForRoot(t *testing.T) {
	mem := resource.NewController(resource.Config{MemoryLimitBytes: 8})
	_, err := New[int](func(o *Options) { o.Memory = mem })
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestBackoff(t *testing.T) {
	var b backoff

	exhausted := 0
	for i := 0; i < 20; i++ {
		if b.snooze() {
			exhausted++
			assert.Equal(t, yieldLimit, i, "exhausted on the step after the last counted one")
		}
	}
	assert.Equal(t, 1, exhausted)
}
