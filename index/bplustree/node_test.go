package bplustree

import (
	"math"
	"slices"
	"testing"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeBuilder(t *testing.T) {
	built, err := BuildTree(4, entries(2, 3, 5), entries(7, 11))
	require.NoError(t, err)
	require.NoError(t, built.CheckValidity(true))

	expected := mustInner(t, 4, mustLeaf(t, 4, 2, 3, 5), mustLeaf(t, 4, 7, 11))
	expected.FixLeafLinks()
	require.NoError(t, expected.CheckValidity(true))

	assert.True(t, Equal(expected, built))
}

func TestBuildTreeSingleGroupIsLeaf(t *testing.T) {
	built, err := BuildTree(5, entries(1, 3, 5, 7))
	require.NoError(t, err)
	leaf, ok := built.(*LeafNode)
	require.True(t, ok)
	assert.True(t, leaf.IsFull())
	assert.Nil(t, leaf.Next())

	empty, err := BuildTree(5)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestBuildTreeCapacity(t *testing.T) {
	_, err := BuildTree(4, entries(1, 2, 3, 4))
	require.ErrorIs(t, err, ErrCapacityExceeded)

	groups := make([][]index.Entry, 5)
	for i := range groups {
		groups[i] = entries(int64(10*i), int64(10*i+1))
	}
	_, err = BuildTree(4, groups...)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestInvalidOrder(t *testing.T) {
	_, err := NewLeafNode(2)
	require.ErrorIs(t, err, ErrInvalidOrder)
	_, err = NewInnerNode(1)
	require.ErrorIs(t, err, ErrInvalidOrder)
	_, err = New(0)
	require.ErrorIs(t, err, ErrInvalidOrder)
}

func TestExampleTreeIsValid(t *testing.T) {
	f := newExample(t)
	require.NoError(t, f.root.CheckValidity(true))
}

func TestNodeHeight(t *testing.T) {
	f := newExample(t)
	assert.Equal(t, 2, f.root.Height())
	assert.Equal(t, 1, f.root.Child(0).Height())
	assert.Equal(t, 0, f.leaves[0].Height())
	assert.Equal(t, 1, newInner(4).Height())
}

func TestNodeSize(t *testing.T) {
	f := newExample(t)

	leaf0 := mustLeaf(t, 4)
	require.Error(t, leaf0.CheckValidity(false))
	leaf1 := mustLeaf(t, 4, 0)
	require.Error(t, leaf1.CheckValidity(false))
	leaf2 := mustLeaf(t, 4, 0, 1)
	require.NoError(t, leaf2.CheckValidity(false))
	leaf3 := mustLeaf(t, 4, 0, 1, 2)
	require.NoError(t, leaf3.CheckValidity(false))
	// leaves can only have order-1 references
	_, err := NewLeafNode(4, entries(0, 1, 2, 3)...)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	assert.Equal(t, 0, leaf0.Size())
	assert.Equal(t, 1, leaf1.Size())
	assert.Equal(t, 2, leaf2.Size())

	inner0 := mustInner(t, 4)
	require.Error(t, inner0.CheckValidity(false))
	inner1 := mustInner(t, 4, f.leaves[0])
	require.Error(t, inner1.CheckValidity(false))
	inner4 := mustInner(t, 4, f.leaves[0], f.leaves[1], f.leaves[2], f.leaves[3])
	require.NoError(t, inner4.CheckValidity(false))
	_, err = NewInnerNode(4, f.leaves[0], f.leaves[1], f.leaves[2], f.leaves[3], f.leaves[4])
	require.ErrorIs(t, err, ErrCapacityExceeded)

	assert.Equal(t, 0, inner0.Size())
	assert.Equal(t, 1, inner1.Size())
	assert.Equal(t, 4, inner4.Size())

	assert.True(t, leaf0.IsEmpty())
	assert.True(t, inner0.IsEmpty())

	assert.True(t, leaf3.IsFull())
	assert.True(t, inner4.IsFull())
	assert.False(t, leaf2.IsFull())
}

func TestNewInnerNodeRejectsEmptyChild(t *testing.T) {
	_, err := NewInnerNode(4, mustLeaf(t, 4, 1, 2), mustLeaf(t, 4))
	require.ErrorIs(t, err, ErrEmptyNode)

	_, err = NewInnerNode(4, mustLeaf(t, 4, 1, 2), nil)
	require.Error(t, err)
}

func TestGetSmallestKey(t *testing.T) {
	_, err := mustLeaf(t, 4).SmallestKey()
	require.ErrorIs(t, err, ErrEmptyNode)
	_, err = mustInner(t, 4).SmallestKey()
	require.ErrorIs(t, err, ErrEmptyNode)

	f := newExample(t)
	k, err := f.leaves[0].SmallestKey()
	require.NoError(t, err)
	assert.Equal(t, int64(2), k)
	k, err = f.root.SmallestKey()
	require.NoError(t, err)
	assert.Equal(t, int64(2), k)
}

func TestGetLargestKey(t *testing.T) {
	_, err := mustLeaf(t, 4).LargestKey()
	require.ErrorIs(t, err, ErrEmptyNode)
	_, err = mustInner(t, 4).LargestKey()
	require.ErrorIs(t, err, ErrEmptyNode)

	f := newExample(t)
	k, err := f.leaves[0].LargestKey()
	require.NoError(t, err)
	assert.Equal(t, int64(5), k)
	k, err = f.root.LargestKey()
	require.NoError(t, err)
	assert.Equal(t, int64(47), k)
}

func TestFindLeaf(t *testing.T) {
	f := newExample(t)
	tests := []struct {
		key  int64
		leaf int
	}{
		{0, 0}, {5, 0}, {7, 1}, {13, 2}, {19, 2},
		{30, 3}, {35, 4}, {44, 5}, {99, 5},
	}
	for _, tt := range tests {
		assert.Same(t, f.leaves[tt.leaf], f.root.FindLeaf(tt.key), "key %d", tt.key)
	}

	node := mustInner(t, 4, f.leaves[0], f.leaves[1], f.leaves[2])
	assert.Same(t, node.Child(0), node.FindLeaf(math.MinInt64))
	assert.Same(t, node.Child(2), node.FindLeaf(math.MaxInt64))
}

func TestSelectChild(t *testing.T) {
	f := newExample(t)
	full := mustInner(t, 4, f.leaves[0], f.leaves[1], f.leaves[2], f.leaves[3])

	// keys act as exclusive upper bounds of the subtree to their left
	assert.Same(t, f.leaves[0], full.SelectChild(6))
	assert.Same(t, f.leaves[1], full.SelectChild(7))
	assert.Same(t, f.leaves[2], full.SelectChild(22))
	// all separators exhausted: rightmost child
	assert.Same(t, f.leaves[3], full.SelectChild(23))
	// under-full node: child at the first empty separator
	assert.Same(t, f.inner[0].Child(2), f.inner[0].SelectChild(1000))
}

func TestGetOrNull(t *testing.T) {
	f := newExample(t)
	for _, k := range []int64{5, 7, 13, 19} {
		v, ok := f.root.GetOrNull(k)
		assert.True(t, ok, "key %d", k)
		assert.Equal(t, ref(k), v)
	}
	for _, k := range []int64{0, 30, 35, 44, 99} {
		_, ok := f.root.GetOrNull(k)
		assert.False(t, ok, "key %d", k)
	}
}

func TestEntries(t *testing.T) {
	f := newExample(t)
	var keys []int64
	for e := range f.root.Entries() {
		assert.Equal(t, ref(e.Key), e.Value)
		keys = append(keys, e.Key)
	}
	assert.Equal(t, primes, keys)
}

func TestDepthFirst(t *testing.T) {
	f := newExample(t)
	want := []Node{
		f.leaves[0], f.leaves[1], f.leaves[2], f.inner[0],
		f.leaves[3], f.leaves[4], f.leaves[5], f.inner[1],
		f.root,
	}
	assert.Equal(t, want, slices.Collect(f.root.DepthFirst()))

	var leaves []*LeafNode
	for l := f.leaves[0]; l != nil; l = l.Next() {
		leaves = append(leaves, l)
	}
	assert.Equal(t, slices.Collect(Leaves(f.root)), leaves)
}

func TestFixLeafLinks(t *testing.T) {
	a, b, c := mustLeaf(t, 4, 1, 2), mustLeaf(t, 4, 3, 4), mustLeaf(t, 4, 5, 6)
	c.next = a
	root := mustInner(t, 4, a, b, c)
	root.FixLeafLinks()

	assert.Same(t, b, a.Next())
	assert.Same(t, c, b.Next())
	assert.Nil(t, c.Next())
	require.NoError(t, root.CheckValidity(true))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(newExample(t).root, newExample(t).root))

	f := newExample(t)
	f.leaves[4].refs[0] = index.NewValueRef(1)
	assert.False(t, Equal(newExample(t).root, f.root))

	assert.False(t, Equal(mustLeaf(t, 4, 1), mustLeaf(t, 5, 1)))
	assert.False(t, Equal(mustLeaf(t, 4, 1), mustInner(t, 4, mustLeaf(t, 4, 1))))
}
