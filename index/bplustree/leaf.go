package bplustree

import (
	"iter"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

// LeafNode holds up to order-1 entries and a link to its right sibling.
type LeafNode struct {
	order int
	keys  []NullKey
	refs  []index.ValueRef
	next  *LeafNode // nil for the rightmost leaf
}

// NewLeafNode creates a leaf holding entries, which must be sorted by key.
func NewLeafNode(order int, entries ...index.Entry) (*LeafNode, error) {
	if order < MinOrder {
		return nil, errors.Wrapf(ErrInvalidOrder, "order %d is below %d", order, MinOrder)
	}
	if len(entries) > order-1 {
		return nil, errors.Wrapf(ErrCapacityExceeded,
			"leaf node of order %d holds at most %d entries, got %d", order, order-1, len(entries))
	}
	l := newLeaf(order)
	l.fill(entries)
	return l, nil
}

func newLeaf(order int) *LeafNode {
	return &LeafNode{
		order: order,
		keys:  newKeySlots(order),
		refs:  make([]index.ValueRef, order-1),
	}
}

// fill overwrites the slots with entries and clears the remainder.
func (l *LeafNode) fill(entries []index.Entry) {
	for i := range l.keys {
		if i < len(entries) {
			l.keys[i] = KeyOf(entries[i].Key)
			l.refs[i] = entries[i].Value
		} else {
			l.keys[i] = NullKey{}
			l.refs[i] = index.ValueRef{}
		}
	}
}

func (l *LeafNode) sealed() {}

func (l *LeafNode) Order() int { return l.order }

// Next returns the right sibling, or nil for the rightmost leaf.
func (l *LeafNode) Next() *LeafNode { return l.next }

// Keys returns a copy of the key slots.
func (l *LeafNode) Keys() []NullKey { return append([]NullKey(nil), l.keys...) }

func (l *LeafNode) Size() int {
	n := 0
	for n < len(l.refs) && !l.refs[n].IsZero() {
		n++
	}
	return n
}

func (l *LeafNode) IsEmpty() bool { return l.Size() == 0 }
func (l *LeafNode) IsFull() bool  { return l.Size() == l.order-1 }
func (l *LeafNode) Height() int   { return 0 }

func (l *LeafNode) SmallestKey() (int64, error) {
	if len(l.keys) == 0 || !l.keys[0].Valid {
		return 0, errors.Wrap(ErrEmptyNode, "smallest key of leaf")
	}
	return l.keys[0].Key, nil
}

func (l *LeafNode) LargestKey() (int64, error) {
	for i := len(l.keys) - 1; i >= 0; i-- {
		if l.keys[i].Valid {
			return l.keys[i].Key, nil
		}
	}
	return 0, errors.Wrap(ErrEmptyNode, "largest key of leaf")
}

func (l *LeafNode) FindLeaf(int64) *LeafNode { return l }

func (l *LeafNode) GetOrNull(key int64) (index.ValueRef, bool) {
	for i, k := range l.keys {
		if k.Valid && k.Key == key {
			return l.refs[i], !l.refs[i].IsZero()
		}
	}
	return index.ValueRef{}, false
}

func (l *LeafNode) Entries() iter.Seq[index.Entry] {
	return func(yield func(index.Entry) bool) {
		for i := 0; i < l.Size(); i++ {
			if !yield(index.Entry{Key: l.keys[i].Key, Value: l.refs[i]}) {
				return
			}
		}
	}
}

func (l *LeafNode) DepthFirst() iter.Seq[Node] {
	return func(yield func(Node) bool) { yield(l) }
}

func (l *LeafNode) CheckValidity(isRoot bool) error {
	return validate(l, isRoot)
}
