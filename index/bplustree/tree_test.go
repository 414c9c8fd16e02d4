package bplustree

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := NewFromRoot(newExample(t).root, ReadOnly())
	require.NoError(t, err)
	return tree
}

func TestTreesAreValid(t *testing.T) {
	require.NoError(t, exampleTree(t).CheckValidity())

	for _, order := range []int{3, 4, 5, 6} {
		empty, err := New(order)
		require.NoError(t, err)
		require.NoError(t, empty.CheckValidity())
		assert.Equal(t, 0, empty.Height())
	}

	for _, keys := range [][]int64{nil, {0}, {0, 1}} {
		tree, err := NewFromRoot(mustLeaf(t, 4, keys...))
		require.NoError(t, err)
		require.NoError(t, tree.CheckValidity())
	}
}

func TestTwoLeafTree(t *testing.T) {
	root, v := twoLeaves(t)
	tree, err := NewFromRoot(root)
	require.NoError(t, err)

	assert.Equal(t, 1, tree.Height())
	assert.Equal(t, v[2:4], collect(tree.GetRange(4, 8)))
	assert.Equal(t, v, collect(tree.GetRange(math.MinInt64, math.MaxInt64)))

	got, err := tree.Get(11)
	require.NoError(t, err)
	assert.Equal(t, v[4], got)

	smallest, err := tree.SmallestKey()
	require.NoError(t, err)
	assert.Equal(t, int64(2), smallest)
	largest, err := tree.LargestKey()
	require.NoError(t, err)
	assert.Equal(t, int64(11), largest)
}

func TestEmptyTree(t *testing.T) {
	tree, err := New(4)
	require.NoError(t, err)

	_, ok := tree.GetOrNull(1)
	assert.False(t, ok)
	_, err = tree.Get(1)
	require.ErrorIs(t, err, index.ErrNotFound)
	assert.Empty(t, collect(tree.GetRange(math.MinInt64, math.MaxInt64)))

	_, err = tree.SmallestKey()
	require.ErrorIs(t, err, ErrEmptyNode)
	_, err = tree.LargestKey()
	require.ErrorIs(t, err, ErrEmptyNode)
}

func TestNewFromRootRejectsInvalidRoot(t *testing.T) {
	root, _ := twoLeaves(t)
	root.keys[0] = KeyOf(6)

	tree, err := NewFromRoot(root)
	assert.Nil(t, tree)
	requireViolation(t, err, RuleSeparator)
	assert.Contains(t, err.Error(), "adopt root")

	_, err = NewFromRoot(nil)
	require.Error(t, err)
}

func TestGetRange(t *testing.T) {
	tree := exampleTree(t)
	tests := []struct {
		name   string
		lo, hi int64
		want   []int64
	}{
		{"below smallest key", 0, 0, nil},
		{"inverted bounds", 40, 0, nil},
		{"single key", 2, 2, []int64{2}},
		{"between leaves", 4, 8, []int64{5, 7}},
		{"gap", 20, 22, nil},
		{"across subtrees", 18, 30, []int64{19, 23, 29}},
		{"above largest key", 48, 100, nil},
		{"everything", math.MinInt64, math.MaxInt64, primes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var want []index.ValueRef
			for _, k := range tt.want {
				want = append(want, ref(k))
			}
			assert.Equal(t, want, collect(tree.GetRange(tt.lo, tt.hi)))
		})
	}
}

func TestRangeIterator(t *testing.T) {
	tree := exampleTree(t)
	it, err := tree.Range(10, 20)
	require.NoError(t, err)

	got, err := index.Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []index.Entry{entry(11), entry(13), entry(17), entry(19)}, got)

	// an exhausted scan stays exhausted
	assert.False(t, it.Next())
	assert.False(t, it.Next())
	require.NoError(t, it.Close())
}

func TestRangeStopsAtUpperBound(t *testing.T) {
	f := newExample(t)
	tree, err := NewFromRoot(f.root)
	require.NoError(t, err)

	it, err := tree.Range(3, 7)
	require.NoError(t, err)
	for it.Next() {
	}
	// the scan stopped at 11 and never moved past the second leaf
	ri := it.(*RangeIterator)
	assert.True(t, ri.done)
	assert.Same(t, f.leaves[1], ri.curr)
}

func TestRangeEarlyBreak(t *testing.T) {
	tree := exampleTree(t)
	var got []index.ValueRef
	for v := range tree.GetRange(math.MinInt64, math.MaxInt64) {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []index.ValueRef{ref(2), ref(3), ref(5)}, got)
}

func TestRemoveIsUnsupported(t *testing.T) {
	tree := exampleTree(t)
	_, removed, err := tree.Remove(7)
	assert.False(t, removed)
	require.ErrorIs(t, err, ErrUnsupportedMutation)
	assert.True(t, errors.Is(err, index.ErrUnsupported))

	// nothing changed
	v, err := tree.Get(7)
	require.NoError(t, err)
	assert.Equal(t, ref(7), v)
}

func TestReadOnlyTree(t *testing.T) {
	tree := exampleTree(t)
	_, _, err := tree.Insert(8, ref(8))
	require.ErrorIs(t, err, ErrUnsupportedMutation)
	assert.True(t, errors.Is(err, index.ErrUnsupported))

	_, ok := tree.GetOrNull(8)
	assert.False(t, ok)
}

func TestTreeEntries(t *testing.T) {
	var keys []int64
	for e := range exampleTree(t).Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, primes, keys)
}

func TestTreeString(t *testing.T) {
	root, _ := twoLeaves(t)
	tree, err := NewFromRoot(root)
	require.NoError(t, err)

	out := tree.String()
	assert.True(t, strings.HasPrefix(out, "BPlusTree(order=4, height=1)"))
	assert.Contains(t, out, "Node[7,-,-]")
	assert.Contains(t, out, "Leaf{2->ref(0), 3->ref(1), 5->ref(2)}")
	assert.Contains(t, out, "Leaf{7->ref(3), 11->ref(4), -}")
}

func TestExportDOT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exampleTree(t).ExportDOT(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph BPlusTree {"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Equal(t, 6, strings.Count(out, "<B>LEAF</B>"))
	assert.Equal(t, 3, strings.Count(out, "<B>INTERNAL</B>"))
	assert.Equal(t, 5, strings.Count(out, "style=dashed"))
	assert.Contains(t, out, "rank=same")
}

func TestTreeEqual(t *testing.T) {
	a := exampleTree(t)
	b, err := NewFromRoot(newExample(t).root)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	_, _, err = b.Insert(8, ref(8))
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}
