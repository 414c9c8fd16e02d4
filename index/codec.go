package index

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// ─── Key encoding ─────────────────────────────────────────────────────────────

// EncodeKey encodes an int64 as a big-endian 8-byte slice with the sign bit
// flipped, so that bytewise order equals numeric order for negative keys too.
func EncodeKey(k int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(k)^(1<<63))
	return b
}

// DecodeKey reverses EncodeKey.
func DecodeKey(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, errors.Newf("unexpected key length %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63)), nil
}

// EncodeKeyExclusive returns the exclusive upper bound for stores whose
// iterator bounds are half-open. The second result is false when k is
// math.MaxInt64 and no bound exists.
func EncodeKeyExclusive(k int64) ([]byte, bool) {
	if k == math.MaxInt64 {
		return nil, false
	}
	return EncodeKey(k + 1), true
}

// ─── Value encoding ───────────────────────────────────────────────────────────

// EncodeValue serialises a non-empty ValueRef.
func EncodeValue(v ValueRef) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v.id)
	return b
}

// DecodeValue reverses EncodeValue.
func DecodeValue(b []byte) (ValueRef, error) {
	if len(b) != 8 {
		return ValueRef{}, errors.Newf("unexpected value length %d", len(b))
	}
	return NewValueRef(binary.BigEndian.Uint64(b)), nil
}
