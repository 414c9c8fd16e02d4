package bplustree

import (
	"iter"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

// InnerNode holds up to order children and order-1 separator keys.
type InnerNode struct {
	order    int
	keys     []NullKey
	children []Node
}

// NewInnerNode creates an inner node over children, which must be sorted and
// non-empty. Separator keys are derived from the children's smallest keys.
func NewInnerNode(order int, children ...Node) (*InnerNode, error) {
	if order < MinOrder {
		return nil, errors.Wrapf(ErrInvalidOrder, "order %d is below %d", order, MinOrder)
	}
	if len(children) > order {
		return nil, errors.Wrapf(ErrCapacityExceeded,
			"inner node of order %d holds at most %d children, got %d", order, order, len(children))
	}
	n := newInner(order)
	for i, child := range children {
		if child == nil {
			return nil, errors.Newf("child %d is nil", i)
		}
		n.children[i] = child
		if i == 0 {
			continue
		}
		k, err := child.SmallestKey()
		if err != nil {
			return nil, errors.Wrapf(err, "separator for child %d", i)
		}
		n.keys[i-1] = KeyOf(k)
	}
	return n, nil
}

func newInner(order int) *InnerNode {
	return &InnerNode{
		order:    order,
		keys:     newKeySlots(order),
		children: make([]Node, order),
	}
}

// fill overwrites the slots with separators and children and clears the
// remainder. len(keys) must be len(children)-1.
func (n *InnerNode) fill(keys []int64, children []Node) {
	for i := range n.children {
		if i < len(children) {
			n.children[i] = children[i]
		} else {
			n.children[i] = nil
		}
	}
	for i := range n.keys {
		if i < len(keys) {
			n.keys[i] = KeyOf(keys[i])
		} else {
			n.keys[i] = NullKey{}
		}
	}
}

func (n *InnerNode) sealed() {}

func (n *InnerNode) Order() int { return n.order }

// Child returns the i-th child slot, which may be nil.
func (n *InnerNode) Child(i int) Node { return n.children[i] }

// Keys returns a copy of the separator slots.
func (n *InnerNode) Keys() []NullKey { return append([]NullKey(nil), n.keys...) }

func (n *InnerNode) Size() int {
	size := 0
	for size < len(n.children) && n.children[size] != nil {
		size++
	}
	return size
}

func (n *InnerNode) IsEmpty() bool { return n.Size() == 0 }
func (n *InnerNode) IsFull() bool  { return n.Size() == n.order }

// Height is one more than the height of the first child. A childless node,
// which only exists mid-construction, reports 1.
func (n *InnerNode) Height() int {
	for _, child := range n.children {
		if child != nil {
			return child.Height() + 1
		}
	}
	return 1
}

func (n *InnerNode) SmallestKey() (int64, error) {
	if n.IsEmpty() {
		return 0, errors.Wrap(ErrEmptyNode, "smallest key of inner node")
	}
	return n.children[0].SmallestKey()
}

func (n *InnerNode) LargestKey() (int64, error) {
	for i := len(n.children) - 1; i >= 0; i-- {
		if n.children[i] != nil {
			return n.children[i].LargestKey()
		}
	}
	return 0, errors.Wrap(ErrEmptyNode, "largest key of inner node")
}

// selectIndex returns the index of the child that covers key: the child left
// of the first separator greater than key, the child at the first empty
// separator slot, or the rightmost child.
func (n *InnerNode) selectIndex(key int64) int {
	for i, k := range n.keys {
		if !k.Valid || key < k.Key {
			return i
		}
	}
	return n.order - 1
}

// SelectChild returns the child in which key could be located.
func (n *InnerNode) SelectChild(key int64) Node {
	return n.children[n.selectIndex(key)]
}

func (n *InnerNode) FindLeaf(key int64) *LeafNode {
	child := n.SelectChild(key)
	if child == nil {
		return nil
	}
	return child.FindLeaf(key)
}

func (n *InnerNode) GetOrNull(key int64) (index.ValueRef, bool) {
	leaf := n.FindLeaf(key)
	if leaf == nil {
		return index.ValueRef{}, false
	}
	return leaf.GetOrNull(key)
}

func (n *InnerNode) Entries() iter.Seq[index.Entry] {
	return func(yield func(index.Entry) bool) {
		for _, child := range n.children {
			if child == nil {
				return
			}
			for e := range child.Entries() {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func (n *InnerNode) DepthFirst() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, child := range n.children {
			if child == nil {
				break
			}
			for node := range child.DepthFirst() {
				if !yield(node) {
					return
				}
			}
		}
		yield(n)
	}
}

func (n *InnerNode) CheckValidity(isRoot bool) error {
	return validate(n, isRoot)
}
