// Package bplustree implements an in-memory B+ tree mapping int64 keys to
// opaque value references.
//
// A tree of order m stores at most m-1 entries per leaf and at most m
// children (m-1 separator keys) per inner node. Node slot arrays are allocated
// once, at their full capacity, and filled left to right; unused trailing
// slots stay empty. Leaves are linked left to right via a non-owning next
// pointer, which drives range scans.
//
// Separator keys[i] of an inner node equals the smallest key reachable
// through children[i+1], so a separator is an exclusive upper bound for the
// subtree on its left.
package bplustree

import (
	"fmt"
	"iter"

	"github.com/btree-query-bench/bplusindex/index"
)

// MinOrder is the smallest supported order.
const MinOrder = 3

// NullKey is one key slot of a node. The zero NullKey is an empty slot.
type NullKey struct {
	Key   int64
	Valid bool
}

// KeyOf returns a populated key slot.
func KeyOf(k int64) NullKey { return NullKey{Key: k, Valid: true} }

func (k NullKey) String() string {
	if !k.Valid {
		return "-"
	}
	return fmt.Sprint(k.Key)
}

// Node is a tree node. The set of implementations is closed: every Node is
// either a *LeafNode or an *InnerNode.
type Node interface {
	// Order is the order of the tree the node belongs to.
	Order() int
	// Size is the number of leading populated reference slots: entries for a
	// leaf, children for an inner node.
	Size() int
	IsEmpty() bool
	IsFull() bool
	Height() int
	SmallestKey() (int64, error)
	LargestKey() (int64, error)
	// FindLeaf returns the leaf in which key is or would be stored. It
	// returns nil only for a malformed inner node without children.
	FindLeaf(key int64) *LeafNode
	GetOrNull(key int64) (index.ValueRef, bool)
	// CheckValidity validates the subtree rooted at the node.
	CheckValidity(isRoot bool) error
	// Entries yields every entry of the subtree in key order.
	Entries() iter.Seq[index.Entry]
	// DepthFirst yields the nodes of the subtree children first, left to
	// right, each node after its children.
	DepthFirst() iter.Seq[Node]

	sealed()
}

var (
	_ Node = (*LeafNode)(nil)
	_ Node = (*InnerNode)(nil)
)

// Leaves yields the leaves below n in depth-first order.
func Leaves(n Node) iter.Seq[*LeafNode] {
	return func(yield func(*LeafNode) bool) {
		for node := range n.DepthFirst() {
			if leaf, ok := node.(*LeafNode); ok {
				if !yield(leaf) {
					return
				}
			}
		}
	}
}

func newKeySlots(order int) []NullKey { return make([]NullKey, order-1) }
