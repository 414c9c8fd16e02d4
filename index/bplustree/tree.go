package bplustree

import (
	"iter"
	"log/slog"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

var _ index.Index = (*Tree)(nil)

// Tree is a B+ tree index. It owns its root node. A Tree is not safe for
// concurrent use.
type Tree struct {
	order    int
	root     Node
	inserter Inserter
	logger   *slog.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger used for structural events such as root splits.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithInserter replaces the insertion algorithm. The default is
// SplitInserter.
func WithInserter(ins Inserter) Option {
	return func(t *Tree) { t.inserter = ins }
}

// ReadOnly disables Insert.
func ReadOnly() Option {
	return func(t *Tree) { t.inserter = nil }
}

func newTree(order int, root Node, opts []Option) *Tree {
	t := &Tree{
		order:    order,
		root:     root,
		inserter: SplitInserter{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New creates an empty tree whose root is an empty leaf.
func New(order int, opts ...Option) (*Tree, error) {
	root, err := NewLeafNode(order)
	if err != nil {
		return nil, err
	}
	return newTree(order, root, opts), nil
}

// NewFromRoot adopts an existing node structure as the root of a tree. The
// structure is validated first; an invalid one is rejected.
func NewFromRoot(root Node, opts ...Option) (*Tree, error) {
	if root == nil {
		return nil, errors.New("nil root node")
	}
	t := newTree(root.Order(), root, opts)
	if err := t.CheckValidity(); err != nil {
		t.logger.Debug("rejected root", "order", t.order, "err", err)
		return nil, errors.Wrap(err, "adopt root")
	}
	t.logger.Debug("adopted root", "order", t.order, "height", root.Height())
	return t, nil
}

func (t *Tree) Order() int   { return t.order }
func (t *Tree) Root() Node   { return t.root }
func (t *Tree) Height() int  { return t.root.Height() }
func (t *Tree) Close() error { return nil }

// SmallestKey returns the smallest key in the tree, or ErrEmptyNode.
func (t *Tree) SmallestKey() (int64, error) { return t.root.SmallestKey() }

// LargestKey returns the largest key in the tree, or ErrEmptyNode.
func (t *Tree) LargestKey() (int64, error) { return t.root.LargestKey() }

// CheckValidity reports the first structural invariant the tree breaks.
func (t *Tree) CheckValidity() error {
	if t.root.Order() != t.order {
		return violation(RuleOrder, nil, false, "root has order %d, tree has %d", t.root.Order(), t.order)
	}
	return t.root.CheckValidity(true)
}

// Entries yields every entry of the tree in key order.
func (t *Tree) Entries() iter.Seq[index.Entry] { return t.root.Entries() }

// --- GET (Point Query) ---

// GetOrNull returns the value for key and whether it exists.
func (t *Tree) GetOrNull(key int64) (index.ValueRef, bool) {
	return t.root.GetOrNull(key)
}

func (t *Tree) Get(key int64) (index.ValueRef, error) {
	v, ok := t.GetOrNull(key)
	if !ok {
		return index.ValueRef{}, errors.Wrapf(index.ErrNotFound, "key %d", key)
	}
	return v, nil
}

// --- INSERT / REMOVE ---

func (t *Tree) Insert(key int64, value index.ValueRef) (index.ValueRef, bool, error) {
	return t.InsertEntry(index.Entry{Key: key, Value: value})
}

// InsertEntry inserts e through the configured Inserter.
func (t *Tree) InsertEntry(e index.Entry) (index.ValueRef, bool, error) {
	if t.inserter == nil {
		return index.ValueRef{}, false, errors.Wrap(ErrUnsupportedMutation, "insert into read-only tree")
	}
	if e.Value.IsZero() {
		return index.ValueRef{}, false, errors.Wrapf(ErrEmptyValue, "key %d", e.Key)
	}
	height := t.root.Height()
	root, prev, replaced, err := t.inserter.Insert(t.root, e)
	if err != nil {
		return index.ValueRef{}, false, errors.Wrapf(err, "insert key %d", e.Key)
	}
	t.root = root
	if h := root.Height(); h != height {
		t.logger.Debug("root split", "key", e.Key, "height", h)
	}
	return prev, replaced, nil
}

// Remove is not supported.
func (t *Tree) Remove(key int64) (index.ValueRef, bool, error) {
	return index.ValueRef{}, false, errors.Wrapf(ErrUnsupportedMutation, "remove key %d", key)
}

// --- RANGE (The Iterator) ---

// Range returns an iterator over the entries with start <= key <= end. The
// iterator is empty when start > end.
func (t *Tree) Range(start, end int64) (index.Iterator, error) {
	if start > end {
		return index.Empty(), nil
	}
	leaf := t.root.FindLeaf(start)
	if leaf == nil {
		return index.Empty(), nil
	}
	return &RangeIterator{
		curr:  leaf,
		start: start,
		end:   end,
	}, nil
}

// GetRange yields the values of the entries with lo <= key <= hi in
// ascending key order.
func (t *Tree) GetRange(lo, hi int64) iter.Seq[index.ValueRef] {
	it, _ := t.Range(lo, hi)
	return index.Values(it)
}

// RangeIterator walks the leaf chain from the leaf of the lower bound and
// stops for good at the first key above the upper bound.
type RangeIterator struct {
	curr       *LeafNode
	i          int
	start, end int64
	key        int64
	val        index.ValueRef
	done       bool
}

func (it *RangeIterator) Next() bool {
	for !it.done && it.curr != nil {
		for it.i < it.curr.Size() {
			k := it.curr.keys[it.i].Key
			if k > it.end {
				it.done = true
				return false
			}
			it.i++
			if k >= it.start {
				it.key = k
				it.val = it.curr.refs[it.i-1]
				return true
			}
		}
		// Follow the leaf chain
		it.curr = it.curr.next
		it.i = 0
	}
	it.done = true
	return false
}

func (it *RangeIterator) Key() int64            { return it.key }
func (it *RangeIterator) Value() index.ValueRef { return it.val }
func (it *RangeIterator) Error() error          { return nil }
func (it *RangeIterator) Close() error {
	it.done = true
	it.curr = nil
	return nil
}
