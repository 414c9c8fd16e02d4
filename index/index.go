package index

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound is returned by Get when the key is not in the index.
	ErrNotFound = errors.New("key not found")
	// ErrUnsupported is returned by operations an implementation does not offer.
	ErrUnsupported = errors.New("operation not supported")
)

// Index is the common interface for all implementations.
type Index interface {
	// Insert maps key to value, replacing an existing mapping. It returns the
	// previous value and whether there was one.
	Insert(key int64, value ValueRef) (ValueRef, bool, error)
	Get(key int64) (ValueRef, error)
	// Remove deletes the mapping for key and returns the removed value.
	Remove(key int64) (ValueRef, bool, error)
	// Range returns an iterator over [start, end], both bounds inclusive.
	Range(start, end int64) (Iterator, error)
	Close() error
}
