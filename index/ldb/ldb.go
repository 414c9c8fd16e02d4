// Package ldb wraps goleveldb behind the common Index interface.
package ldb

import (
	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var _ index.Index = (*Store)(nil)

// Store is a LevelDB-backed index.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func Open(path string) (*Store, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "ldb: open %q", path)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) lookup(key int64) (index.ValueRef, bool, error) {
	data, err := s.db.Get(index.EncodeKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return index.ValueRef{}, false, nil
	}
	if err != nil {
		return index.ValueRef{}, false, errors.Wrapf(err, "ldb: get %d", key)
	}
	v, err := index.DecodeValue(data)
	if err != nil {
		return index.ValueRef{}, false, errors.Wrapf(err, "ldb: get %d", key)
	}
	return v, true, nil
}

func (s *Store) Insert(key int64, value index.ValueRef) (index.ValueRef, bool, error) {
	prev, found, err := s.lookup(key)
	if err != nil {
		return index.ValueRef{}, false, err
	}
	if err := s.db.Put(index.EncodeKey(key), index.EncodeValue(value), nil); err != nil {
		return index.ValueRef{}, false, errors.Wrapf(err, "ldb: put %d", key)
	}
	return prev, found, nil
}

func (s *Store) Get(key int64) (index.ValueRef, error) {
	v, found, err := s.lookup(key)
	if err != nil {
		return index.ValueRef{}, err
	}
	if !found {
		return index.ValueRef{}, errors.Wrapf(index.ErrNotFound, "key %d", key)
	}
	return v, nil
}

func (s *Store) Remove(key int64) (index.ValueRef, bool, error) {
	prev, found, err := s.lookup(key)
	if err != nil || !found {
		return index.ValueRef{}, false, err
	}
	if err := s.db.Delete(index.EncodeKey(key), nil); err != nil {
		return index.ValueRef{}, false, errors.Wrapf(err, "ldb: delete %d", key)
	}
	return prev, true, nil
}

// Range returns an iterator over all keys in [start, end] inclusive.
func (s *Store) Range(start, end int64) (index.Iterator, error) {
	if start > end {
		return index.Empty(), nil
	}
	r := &util.Range{Start: index.EncodeKey(start)}
	if limit, ok := index.EncodeKeyExclusive(end); ok {
		r.Limit = limit
	}
	return &rangeIterator{iter: s.db.NewIterator(r, nil)}, nil
}

type rangeIterator struct {
	iter     iterator.Iterator
	released bool
	key      int64
	val      index.ValueRef
	err      error
}

func (it *rangeIterator) Next() bool {
	if it.err != nil || it.released || !it.iter.Next() {
		return false
	}
	if it.key, it.err = index.DecodeKey(it.iter.Key()); it.err != nil {
		return false
	}
	if it.val, it.err = index.DecodeValue(it.iter.Value()); it.err != nil {
		return false
	}
	return true
}

func (it *rangeIterator) Key() int64            { return it.key }
func (it *rangeIterator) Value() index.ValueRef { return it.val }

func (it *rangeIterator) Error() error {
	if it.err != nil {
		return it.err
	}
	if it.released {
		return nil
	}
	return it.iter.Error()
}

func (it *rangeIterator) Close() error {
	if it.released {
		return nil
	}
	err := it.iter.Error()
	it.iter.Release()
	it.released = true
	return err
}
