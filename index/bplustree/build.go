package bplustree

import (
	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

// BuildTree assembles a node from entries that are already sorted and
// partitioned into leaves, one group per leaf. A single group yields a leaf;
// several groups yield one inner node over the linked leaves. BuildTree does
// not rebalance or add further levels; validate the result before use.
func BuildTree(order int, groups ...[]index.Entry) (Node, error) {
	if len(groups) == 0 {
		return NewLeafNode(order)
	}
	leaves := make([]Node, len(groups))
	var prev *LeafNode
	for i, group := range groups {
		leaf, err := NewLeafNode(order, group...)
		if err != nil {
			return nil, errors.Wrapf(err, "leaf %d", i)
		}
		if prev != nil {
			prev.next = leaf
		}
		prev = leaf
		leaves[i] = leaf
	}
	if len(leaves) == 1 {
		return leaves[0], nil
	}
	root, err := NewInnerNode(order, leaves...)
	if err != nil {
		return nil, errors.Wrap(err, "inner node over leaves")
	}
	return root, nil
}

// FixLeafLinks relinks the leaves below n in depth-first order and clears the
// link of the rightmost one. It is meant for hand-assembled subtrees.
func (n *InnerNode) FixLeafLinks() {
	var prev *LeafNode
	for leaf := range Leaves(n) {
		if prev != nil {
			prev.next = leaf
		}
		prev = leaf
	}
	if prev != nil {
		prev.next = nil
	}
}

// Equal reports whether a and b have the same shape, order, key slots and
// values. Sibling links are compared by presence only.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *LeafNode:
		b, ok := b.(*LeafNode)
		if !ok || a.order != b.order || len(a.keys) != len(b.keys) || len(a.refs) != len(b.refs) {
			return false
		}
		if (a.next == nil) != (b.next == nil) {
			return false
		}
		for i := range a.keys {
			if a.keys[i] != b.keys[i] || a.refs[i] != b.refs[i] {
				return false
			}
		}
		return true
	case *InnerNode:
		b, ok := b.(*InnerNode)
		if !ok || a.order != b.order || len(a.keys) != len(b.keys) || len(a.children) != len(b.children) {
			return false
		}
		for i := range a.keys {
			if a.keys[i] != b.keys[i] {
				return false
			}
		}
		for i := range a.children {
			if (a.children[i] == nil) != (b.children[i] == nil) {
				return false
			}
			if a.children[i] != nil && !Equal(a.children[i], b.children[i]) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

// Equal reports whether both trees have the same order and equal roots.
func (t *Tree) Equal(other *Tree) bool {
	return other != nil && t.order == other.order && Equal(t.root, other.root)
}
