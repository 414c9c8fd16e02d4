package index

import "iter"

// Iterator allows scanning over a range of key-value pairs in ascending key
// order. It is consumed once; scanning again requires a new Range call.
type Iterator interface {
	Next() bool
	Key() int64
	Value() ValueRef
	Error() error
	Close() error
}

// Empty returns an iterator that yields nothing.
func Empty() Iterator { return emptyIterator{} }

type emptyIterator struct{}

func (emptyIterator) Next() bool      { return false }
func (emptyIterator) Key() int64      { return 0 }
func (emptyIterator) Value() ValueRef { return ValueRef{} }
func (emptyIterator) Error() error    { return nil }
func (emptyIterator) Close() error    { return nil }

// Values drains it into a range-over-func sequence of values. The iterator is
// closed once the sequence stops, and a scan error ends the sequence early;
// callers that need the error should drive the Iterator themselves.
func Values(it Iterator) iter.Seq[ValueRef] {
	return func(yield func(ValueRef) bool) {
		defer it.Close()
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

// Collect drains it into a slice of entries and closes it.
func Collect(it Iterator) ([]Entry, error) {
	defer it.Close()
	var out []Entry
	for it.Next() {
		out = append(out, Entry{Key: it.Key(), Value: it.Value()})
	}
	return out, it.Error()
}
