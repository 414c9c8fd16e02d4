package index

import "fmt"

// ValueRef locates a stored record. Its meaning belongs to the caller; the
// index only stores and compares it. The zero ValueRef is the empty reference
// and is never stored.
type ValueRef struct {
	id    uint64
	valid bool
}

// NewValueRef wraps a caller-defined record locator.
func NewValueRef(id uint64) ValueRef {
	return ValueRef{id: id, valid: true}
}

// ID returns the locator passed to NewValueRef.
func (r ValueRef) ID() uint64 { return r.id }

// IsZero reports whether r is the empty reference.
func (r ValueRef) IsZero() bool { return !r.valid }

func (r ValueRef) String() string {
	if !r.valid {
		return "<nil>"
	}
	return fmt.Sprintf("ref(%d)", r.id)
}

// Entry is an immutable key/value pair.
type Entry struct {
	Key   int64
	Value ValueRef
}

func (e Entry) String() string {
	return fmt.Sprintf("[%d] -> %s", e.Key, e.Value)
}
