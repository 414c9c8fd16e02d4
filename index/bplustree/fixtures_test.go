package bplustree

import (
	"testing"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// primes are the keys of the example tree.
var primes = []int64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47}

// ref returns the value stored for key k in fixtures.
func ref(k int64) index.ValueRef { return index.NewValueRef(uint64(1000 + k)) }

func entry(k int64) index.Entry { return index.Entry{Key: k, Value: ref(k)} }

func entries(keys ...int64) []index.Entry {
	out := make([]index.Entry, len(keys))
	for i, k := range keys {
		out[i] = entry(k)
	}
	return out
}

func mustLeaf(t *testing.T, order int, keys ...int64) *LeafNode {
	t.Helper()
	leaf, err := NewLeafNode(order, entries(keys...)...)
	require.NoError(t, err)
	return leaf
}

func mustInner(t *testing.T, order int, children ...Node) *InnerNode {
	t.Helper()
	n, err := NewInnerNode(order, children...)
	require.NoError(t, err)
	return n
}

type exampleFixture struct {
	root   *InnerNode
	inner  [2]*InnerNode
	leaves [6]*LeafNode
}

// newExample builds the order-4, height-2 tree
//
//	              [23]
//	      [7,13]         [31,41]
//	{2,3,5}{7,11}{13,17,19} {23,29}{31,37}{41,43,47}
func newExample(t *testing.T) *exampleFixture {
	t.Helper()
	f := &exampleFixture{}
	f.leaves[0] = mustLeaf(t, 4, 2, 3, 5)
	f.leaves[1] = mustLeaf(t, 4, 7, 11)
	f.leaves[2] = mustLeaf(t, 4, 13, 17, 19)
	f.leaves[3] = mustLeaf(t, 4, 23, 29)
	f.leaves[4] = mustLeaf(t, 4, 31, 37)
	f.leaves[5] = mustLeaf(t, 4, 41, 43, 47)
	f.inner[0] = mustInner(t, 4, f.leaves[0], f.leaves[1], f.leaves[2])
	f.inner[1] = mustInner(t, 4, f.leaves[3], f.leaves[4], f.leaves[5])
	f.root = mustInner(t, 4, f.inner[0], f.inner[1])
	f.root.FixLeafLinks()
	return f
}

// twoLeaves builds the order-4 tree {2,3,5} -> {7,11} under the separator 7,
// with values v0..v4 in key order.
func twoLeaves(t *testing.T) (*InnerNode, []index.ValueRef) {
	t.Helper()
	v := make([]index.ValueRef, 5)
	for i := range v {
		v[i] = index.NewValueRef(uint64(i))
	}
	root, err := BuildTree(4,
		[]index.Entry{{Key: 2, Value: v[0]}, {Key: 3, Value: v[1]}, {Key: 5, Value: v[2]}},
		[]index.Entry{{Key: 7, Value: v[3]}, {Key: 11, Value: v[4]}},
	)
	require.NoError(t, err)
	return root.(*InnerNode), v
}

func requireViolation(t *testing.T, err error, rule Rule, path ...int) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrStructuralViolation)
	var ve *ViolationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, rule, ve.Rule, "unexpected rule: %v", err)
	if path == nil {
		path = []int{}
	}
	assert.Equal(t, path, ve.Path, "unexpected path: %v", err)
}

func collect(seq func(func(index.ValueRef) bool)) []index.ValueRef {
	var out []index.ValueRef
	for v := range seq {
		out = append(out, v)
	}
	return out
}
