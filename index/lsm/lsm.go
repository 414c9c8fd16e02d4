// Package lsm wraps Pebble (CockroachDB's LSM storage engine) behind the
// common Index interface so it can be benchmarked alongside the B+ tree and
// used as an oracle in differential tests.
package lsm

import (
	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

var _ index.Index = (*LSM)(nil)

// Options configures Open.
type Options struct {
	// Dir is the database directory. It is ignored when InMemory is set.
	Dir string
	// InMemory keeps every file in a memory-backed filesystem.
	InMemory bool
}

type LSM struct {
	db *pebble.DB
}

// Open opens (or creates) a Pebble database.
func Open(o Options) (*LSM, error) {
	opts := &pebble.Options{
		// Use a 16 MB memtable
		MemTableSize: 16 << 20,
		// Keep 4 memtables so one can be flushed while the others are active.
		MemTableStopWritesThreshold: 4,
		// L0 compaction trigger.
		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 12,
	}
	dir := o.Dir
	if o.InMemory {
		opts.FS = vfs.NewMem()
		dir = ""
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrap(err, "lsm: open")
	}
	return &LSM{db: db}, nil
}

// OpenInMemory opens a Pebble database backed by memory only.
func OpenInMemory() (*LSM, error) {
	return Open(Options{InMemory: true})
}

// Close cleanly shuts down Pebble, flushing any in-memory state.
func (l *LSM) Close() error {
	return l.db.Close()
}

// Insert inserts or updates the value for key.
func (l *LSM) Insert(key int64, value index.ValueRef) (index.ValueRef, bool, error) {
	prev, found, err := l.lookup(key)
	if err != nil {
		return index.ValueRef{}, false, err
	}
	if err := l.db.Set(index.EncodeKey(key), index.EncodeValue(value), pebble.NoSync); err != nil {
		return index.ValueRef{}, false, errors.Wrap(err, "lsm: set")
	}
	return prev, found, nil
}

// Get retrieves the value for key.
func (l *LSM) Get(key int64) (index.ValueRef, error) {
	v, found, err := l.lookup(key)
	if err != nil {
		return index.ValueRef{}, err
	}
	if !found {
		return index.ValueRef{}, errors.Wrapf(index.ErrNotFound, "key %d", key)
	}
	return v, nil
}

func (l *LSM) lookup(key int64) (index.ValueRef, bool, error) {
	val, closer, err := l.db.Get(index.EncodeKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return index.ValueRef{}, false, nil
	}
	if err != nil {
		return index.ValueRef{}, false, errors.Wrap(err, "lsm: get")
	}
	// val is only valid until closer.Close(), so decode it first.
	v, err := index.DecodeValue(val)
	closer.Close()
	if err != nil {
		return index.ValueRef{}, false, errors.Wrap(err, "lsm: get")
	}
	return v, true, nil
}

// Remove removes the key from the store.
func (l *LSM) Remove(key int64) (index.ValueRef, bool, error) {
	prev, found, err := l.lookup(key)
	if err != nil || !found {
		return index.ValueRef{}, false, err
	}
	if err := l.db.Delete(index.EncodeKey(key), pebble.NoSync); err != nil {
		return index.ValueRef{}, false, errors.Wrap(err, "lsm: delete")
	}
	return prev, true, nil
}

// Range returns an iterator over all keys in [start, end] inclusive.
func (l *LSM) Range(start, end int64) (index.Iterator, error) {
	if start > end {
		return index.Empty(), nil
	}
	iterOpts := &pebble.IterOptions{
		LowerBound: index.EncodeKey(start),
	}
	if upper, ok := index.EncodeKeyExclusive(end); ok {
		iterOpts.UpperBound = upper
	}
	iter, err := l.db.NewIter(iterOpts)
	if err != nil {
		return nil, errors.Wrap(err, "lsm: range")
	}
	iter.First()
	return &rangeIterator{iter: iter, first: true}, nil
}

// ─── Range Iterator ───────────────────────────────────────────────────────────

type rangeIterator struct {
	iter   *pebble.Iterator
	first  bool
	closed bool
	key    int64
	val    index.ValueRef
	err    error
}

func (it *rangeIterator) Next() bool {
	if it.err != nil || it.closed {
		return false
	}
	var valid bool
	if it.first {
		// iter.First() was already called in Range(); just check validity.
		it.first = false
		valid = it.iter.Valid()
	} else {
		valid = it.iter.Next()
	}
	if !valid {
		return false
	}
	if it.key, it.err = index.DecodeKey(it.iter.Key()); it.err != nil {
		return false
	}
	// Value bytes are reused on Next(), decode them now.
	if it.val, it.err = index.DecodeValue(it.iter.Value()); it.err != nil {
		return false
	}
	return true
}

func (it *rangeIterator) Key() int64            { return it.key }
func (it *rangeIterator) Value() index.ValueRef { return it.val }
func (it *rangeIterator) Error() error          { return it.err }
func (it *rangeIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.iter.Close()
}
