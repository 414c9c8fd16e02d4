// Package listindex is a sorted-slice index. It is the simplest correct
// implementation of index.Index and serves as the oracle in differential
// tests and as the baseline in benchmarks.
package listindex

import (
	"cmp"
	"slices"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

var _ index.Index = (*ListIndex)(nil)

type ListIndex struct {
	Data []index.Entry // sorted by key
}

func NewListIndex() *ListIndex {
	return &ListIndex{
		Data: make([]index.Entry, 0),
	}
}

func (l *ListIndex) search(key int64) (int, bool) {
	return slices.BinarySearchFunc(l.Data, key, func(e index.Entry, k int64) int {
		return cmp.Compare(e.Key, k)
	})
}

func (l *ListIndex) Insert(key int64, value index.ValueRef) (index.ValueRef, bool, error) {
	i, found := l.search(key)
	if found {
		prev := l.Data[i].Value
		l.Data[i].Value = value
		return prev, true, nil
	}
	l.Data = slices.Insert(l.Data, i, index.Entry{Key: key, Value: value})
	return index.ValueRef{}, false, nil
}

func (l *ListIndex) Get(key int64) (index.ValueRef, error) {
	if i, found := l.search(key); found {
		return l.Data[i].Value, nil
	}
	return index.ValueRef{}, errors.Wrapf(index.ErrNotFound, "key %d", key)
}

func (l *ListIndex) Remove(key int64) (index.ValueRef, bool, error) {
	i, found := l.search(key)
	if !found {
		return index.ValueRef{}, false, nil
	}
	prev := l.Data[i].Value
	l.Data = slices.Delete(l.Data, i, i+1)
	return prev, true, nil
}

func (l *ListIndex) Range(start, end int64) (index.Iterator, error) {
	if start > end {
		return index.Empty(), nil
	}
	from, _ := l.search(start)
	return &ListIterator{
		data: l.Data,
		cur:  from - 1,
		end:  end,
	}, nil
}

func (l *ListIndex) Close() error { return nil }

type ListIterator struct {
	data []index.Entry
	cur  int
	end  int64
}

func (it *ListIterator) Next() bool {
	it.cur++
	if it.cur < len(it.data) && it.data[it.cur].Key <= it.end {
		return true
	}
	it.cur = len(it.data)
	return false
}

func (it *ListIterator) Key() int64            { return it.data[it.cur].Key }
func (it *ListIterator) Value() index.ValueRef { return it.data[it.cur].Value }
func (it *ListIterator) Error() error          { return nil }
func (it *ListIterator) Close() error          { return nil }
