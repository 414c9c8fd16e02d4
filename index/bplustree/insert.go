package bplustree

import (
	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

// Inserter is an insertion algorithm. Insert adds e below root, replacing the
// value of an existing key, and returns the root of the resulting tree (which
// may be a new node), the previous value and whether there was one. The
// result must satisfy every structural invariant.
type Inserter interface {
	Insert(root Node, e index.Entry) (Node, index.ValueRef, bool, error)
}

// SplitInserter inserts top-down and splits full nodes on the way back up. A
// leaf split copies the first key of the new right leaf into the parent; an
// inner split pushes its median separator up. A split root is replaced by a
// new inner root over the two halves.
type SplitInserter struct{}

type promotion struct {
	key   int64
	right Node
}

type insertResult struct {
	prev     index.ValueRef
	replaced bool
	split    *promotion // set when the node was split
}

func (SplitInserter) Insert(root Node, e index.Entry) (Node, index.ValueRef, bool, error) {
	res, err := insertRec(root, e)
	if err != nil {
		return root, index.ValueRef{}, false, err
	}
	if res.split == nil {
		return root, res.prev, res.replaced, nil
	}
	// If root is split, tree grows in height
	newRoot := newInner(root.Order())
	newRoot.fill([]int64{res.split.key}, []Node{root, res.split.right})
	return newRoot, res.prev, res.replaced, nil
}

func insertRec(n Node, e index.Entry) (insertResult, error) {
	switch n := n.(type) {
	case *LeafNode:
		return n.insert(e), nil
	case *InnerNode:
		return n.insert(e)
	default:
		return insertResult{}, errors.AssertionFailedf("unknown node type %T", n)
	}
}

func (l *LeafNode) insert(e index.Entry) insertResult {
	size := l.Size()
	pos := 0
	for pos < size && l.keys[pos].Key < e.Key {
		pos++
	}
	if pos < size && l.keys[pos].Key == e.Key {
		prev := l.refs[pos]
		l.refs[pos] = e.Value // Update existing
		return insertResult{prev: prev, replaced: true}
	}

	entries := make([]index.Entry, 0, size+1)
	for i := 0; i < size; i++ {
		if i == pos {
			entries = append(entries, e)
		}
		entries = append(entries, index.Entry{Key: l.keys[i].Key, Value: l.refs[i]})
	}
	if pos == size {
		entries = append(entries, e)
	}
	if len(entries) <= l.order-1 {
		l.fill(entries)
		return insertResult{}
	}

	// B+ Leaf Split: The first key of the new leaf is copied to parent
	mid := (len(entries) + 1) / 2
	right := newLeaf(l.order)
	right.fill(entries[mid:])
	l.fill(entries[:mid])
	right.next = l.next
	l.next = right
	return insertResult{split: &promotion{key: entries[mid].Key, right: right}}
}

func (n *InnerNode) insert(e index.Entry) (insertResult, error) {
	idx := n.selectIndex(e.Key)
	child := n.children[idx]
	if child == nil {
		return insertResult{}, errors.AssertionFailedf("inner node has no child for key %d", e.Key)
	}
	res, err := insertRec(child, e)
	if err != nil || res.split == nil {
		return res, err
	}

	size := n.Size()
	keys := make([]int64, 0, size)
	children := make([]Node, 0, size+1)
	for i := 0; i < size; i++ {
		children = append(children, n.children[i])
		if i == idx {
			keys = append(keys, res.split.key)
			children = append(children, res.split.right)
		}
		if i < size-1 {
			keys = append(keys, n.keys[i].Key)
		}
	}
	if len(children) <= n.order {
		n.fill(keys, children)
		res.split = nil
		return res, nil
	}

	// B+ Internal Split: Middle key is pushed to parent and removed from child
	mid := (len(children) + 1) / 2
	right := newInner(n.order)
	right.fill(keys[mid:], children[mid:])
	up := keys[mid-1]
	n.fill(keys[:mid-1], children[:mid])
	res.split = &promotion{key: up, right: right}
	return res, nil
}
