// Package btree is a classic in-memory B-tree of minimum degree t, with
// values stored in every node. It is a benchmark contender for the B+ tree.
package btree

import (
	"slices"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

var _ index.Index = (*BTree)(nil)

type BTreeNode struct {
	Leaf     bool
	Keys     []int64
	Values   []index.ValueRef
	Children []*BTreeNode
}

// BTree holds between t-1 and 2t-1 keys per non-root node.
type BTree struct {
	T    int
	Root *BTreeNode
}

func NewBTree(t int) *BTree {
	if t < 2 {
		t = 2
	}
	return &BTree{T: t, Root: &BTreeNode{Leaf: true}}
}

func (bt *BTree) maxKeys() int { return 2*bt.T - 1 }

// find returns the node holding key and its position there.
func (bt *BTree) find(key int64) (*BTreeNode, int, bool) {
	x := bt.Root
	for {
		i, found := slices.BinarySearch(x.Keys, key)
		if found {
			return x, i, true
		}
		if x.Leaf {
			return nil, 0, false
		}
		x = x.Children[i]
	}
}

func (bt *BTree) Get(key int64) (index.ValueRef, error) {
	x, i, ok := bt.find(key)
	if !ok {
		return index.ValueRef{}, errors.Wrapf(index.ErrNotFound, "key %d", key)
	}
	return x.Values[i], nil
}

func (bt *BTree) Insert(key int64, value index.ValueRef) (index.ValueRef, bool, error) {
	if x, i, ok := bt.find(key); ok {
		prev := x.Values[i]
		x.Values[i] = value
		return prev, true, nil
	}
	root := bt.Root
	if len(root.Keys) == bt.maxKeys() {
		newRoot := &BTreeNode{Children: []*BTreeNode{root}}
		bt.splitChild(newRoot, 0)
		bt.Root = newRoot
	}
	bt.insertNonFull(bt.Root, key, value)
	return index.ValueRef{}, false, nil
}

// insertNonFull adds a key known to be absent below x, which has room.
func (bt *BTree) insertNonFull(x *BTreeNode, k int64, v index.ValueRef) {
	for !x.Leaf {
		i, _ := slices.BinarySearch(x.Keys, k)
		if len(x.Children[i].Keys) == bt.maxKeys() {
			bt.splitChild(x, i)
			if k > x.Keys[i] {
				i++
			}
		}
		x = x.Children[i]
	}
	idx, _ := slices.BinarySearch(x.Keys, k)
	x.Keys = slices.Insert(x.Keys, idx, k)
	x.Values = slices.Insert(x.Values, idx, v)
}

// splitChild splits the full child i of x around its median, which moves up
// into x.
func (bt *BTree) splitChild(x *BTreeNode, i int) {
	t := bt.T
	y := x.Children[i]
	z := &BTreeNode{Leaf: y.Leaf}
	z.Keys = append(z.Keys, y.Keys[t:]...)
	z.Values = append(z.Values, y.Values[t:]...)
	if !y.Leaf {
		z.Children = append(z.Children, y.Children[t:]...)
		y.Children = slices.Clip(y.Children[:t])
	}

	midKey, midVal := y.Keys[t-1], y.Values[t-1]
	y.Keys, y.Values = slices.Clip(y.Keys[:t-1]), slices.Clip(y.Values[:t-1])

	x.Keys = slices.Insert(x.Keys, i, midKey)
	x.Values = slices.Insert(x.Values, i, midVal)
	x.Children = slices.Insert(x.Children, i+1, z)
}

func (bt *BTree) Remove(key int64) (index.ValueRef, bool, error) {
	x, i, ok := bt.find(key)
	if !ok {
		return index.ValueRef{}, false, nil
	}
	prev := x.Values[i]
	bt.delete(bt.Root, key)
	if len(bt.Root.Keys) == 0 && !bt.Root.Leaf {
		bt.Root = bt.Root.Children[0]
	}
	return prev, true, nil
}

// delete removes k from the subtree of x, topping up every child it descends
// into to at least t keys first.
func (bt *BTree) delete(x *BTreeNode, k int64) {
	idx, found := slices.BinarySearch(x.Keys, k)
	if found {
		if x.Leaf {
			x.Keys = slices.Delete(x.Keys, idx, idx+1)
			x.Values = slices.Delete(x.Values, idx, idx+1)
		} else {
			bt.deleteInternal(x, idx)
		}
		return
	}
	if x.Leaf {
		return
	}
	if len(x.Children[idx].Keys) < bt.T {
		bt.fill(x, idx)
	}
	// the last child may have been merged into its left sibling
	if idx > len(x.Keys) {
		idx--
	}
	bt.delete(x.Children[idx], k)
}

func (bt *BTree) deleteInternal(x *BTreeNode, i int) {
	k, y, z := x.Keys[i], x.Children[i], x.Children[i+1]
	switch {
	case len(y.Keys) >= bt.T:
		pk, pv := bt.getPred(y)
		x.Keys[i], x.Values[i] = pk, pv
		bt.delete(y, pk)
	case len(z.Keys) >= bt.T:
		sk, sv := bt.getSucc(z)
		x.Keys[i], x.Values[i] = sk, sv
		bt.delete(z, sk)
	default:
		bt.merge(x, i)
		bt.delete(y, k)
	}
}

func (bt *BTree) getPred(x *BTreeNode) (int64, index.ValueRef) {
	for !x.Leaf {
		x = x.Children[len(x.Keys)]
	}
	return x.Keys[len(x.Keys)-1], x.Values[len(x.Values)-1]
}

func (bt *BTree) getSucc(x *BTreeNode) (int64, index.ValueRef) {
	for !x.Leaf {
		x = x.Children[0]
	}
	return x.Keys[0], x.Values[0]
}

func (bt *BTree) fill(x *BTreeNode, i int) {
	switch {
	case i != 0 && len(x.Children[i-1].Keys) >= bt.T:
		bt.borrowPrev(x, i)
	case i != len(x.Keys) && len(x.Children[i+1].Keys) >= bt.T:
		bt.borrowNext(x, i)
	case i != len(x.Keys):
		bt.merge(x, i)
	default:
		bt.merge(x, i-1)
	}
}

func (bt *BTree) borrowPrev(x *BTreeNode, i int) {
	c, s := x.Children[i], x.Children[i-1]
	last := len(s.Keys) - 1
	c.Keys = slices.Insert(c.Keys, 0, x.Keys[i-1])
	c.Values = slices.Insert(c.Values, 0, x.Values[i-1])
	if !c.Leaf {
		c.Children = slices.Insert(c.Children, 0, s.Children[last+1])
		s.Children = s.Children[:last+1]
	}
	x.Keys[i-1], x.Values[i-1] = s.Keys[last], s.Values[last]
	s.Keys, s.Values = s.Keys[:last], s.Values[:last]
}

func (bt *BTree) borrowNext(x *BTreeNode, i int) {
	c, s := x.Children[i], x.Children[i+1]
	c.Keys, c.Values = append(c.Keys, x.Keys[i]), append(c.Values, x.Values[i])
	if !c.Leaf {
		c.Children = append(c.Children, s.Children[0])
		s.Children = slices.Delete(s.Children, 0, 1)
	}
	x.Keys[i], x.Values[i] = s.Keys[0], s.Values[0]
	s.Keys, s.Values = slices.Delete(s.Keys, 0, 1), slices.Delete(s.Values, 0, 1)
}

// merge folds separator i of x and child i+1 into child i.
func (bt *BTree) merge(x *BTreeNode, i int) {
	y, z := x.Children[i], x.Children[i+1]
	y.Keys, y.Values = append(y.Keys, x.Keys[i]), append(y.Values, x.Values[i])
	y.Keys, y.Values = append(y.Keys, z.Keys...), append(y.Values, z.Values...)
	if !y.Leaf {
		y.Children = append(y.Children, z.Children...)
	}
	x.Keys, x.Values = slices.Delete(x.Keys, i, i+1), slices.Delete(x.Values, i, i+1)
	x.Children = slices.Delete(x.Children, i+1, i+2)
}

// Range collects the entries in [start, end] with an in-order walk that
// skips subtrees outside the bounds.
func (bt *BTree) Range(start, end int64) (index.Iterator, error) {
	if start > end {
		return index.Empty(), nil
	}
	it := &BTreeIterator{idx: -1}
	bt.collect(bt.Root, start, end, it)
	return it, nil
}

func (bt *BTree) collect(x *BTreeNode, s, e int64, it *BTreeIterator) {
	from, _ := slices.BinarySearch(x.Keys, s)
	for i := from; i <= len(x.Keys); i++ {
		if !x.Leaf {
			bt.collect(x.Children[i], s, e, it)
		}
		if i == len(x.Keys) || x.Keys[i] > e {
			return
		}
		it.data = append(it.data, index.Entry{Key: x.Keys[i], Value: x.Values[i]})
	}
}

type BTreeIterator struct {
	data []index.Entry
	idx  int
}

func (it *BTreeIterator) Next() bool {
	if it.idx < len(it.data) {
		it.idx++
	}
	return it.idx < len(it.data)
}

func (it *BTreeIterator) Key() int64            { return it.data[it.idx].Key }
func (it *BTreeIterator) Value() index.ValueRef { return it.data[it.idx].Value }
func (it *BTreeIterator) Error() error          { return nil }
func (it *BTreeIterator) Close() error          { it.idx = len(it.data); return nil }
func (bt *BTree) Close() error                  { return nil }
