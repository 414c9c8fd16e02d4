package main

import (
	"math/rand/v2"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/cockroachdb/errors"
)

type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10)"
	OLAP      WorkloadType = "OLAP (10/90)"
	Reporting WorkloadType = "Reporting (Range)"
)

// reportingSpan is the width of each Reporting range scan.
const reportingSpan = 100

// ExecuteWorkload runs ops operations of the given mix against idx. Keys are
// drawn uniformly from [0, keySpace). Lookups of absent keys are not errors.
func ExecuteWorkload(idx index.Index, wType WorkloadType, ops, keySpace int, rng *rand.Rand) error {
	for i := 0; i < ops; i++ {
		choice := rng.IntN(100)
		key := rng.Int64N(int64(keySpace))

		var err error
		switch wType {
		case OLTP:
			if choice < 90 {
				err = get(idx, key)
			} else {
				_, _, err = idx.Insert(key, index.NewValueRef(uint64(key)))
			}
		case OLAP:
			if choice < 10 {
				err = get(idx, key)
			} else {
				_, _, err = idx.Insert(key, index.NewValueRef(uint64(key)))
			}
		case Reporting:
			err = scan(idx, key, key+reportingSpan)
		default:
			return errors.Newf("unknown workload %q", wType)
		}
		if err != nil {
			return errors.Wrapf(err, "%s op %d", wType, i)
		}
	}
	return nil
}

func get(idx index.Index, key int64) error {
	if _, err := idx.Get(key); err != nil && !errors.Is(err, index.ErrNotFound) {
		return err
	}
	return nil
}

func scan(idx index.Index, lo, hi int64) error {
	it, err := idx.Range(lo, hi)
	if err != nil {
		return err
	}
	for it.Next() {
	}
	if err := it.Error(); err != nil {
		it.Close()
		return err
	}
	return it.Close()
}
