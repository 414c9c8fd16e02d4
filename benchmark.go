package main

import (
	"encoding/csv"
	"runtime"
	"strconv"
)

var csvHeader = []string{"Structure", "Config", "TestType", "LatencyNs", "MemMB", "HeapObjects"}

// BenchResult is one CSV row. Objects tracks GC pressure after the initial
// load and is zero for the workload rows.
type BenchResult struct {
	Name      string
	Config    string
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

// Label identifies the contender in charts.
func (r BenchResult) Label() string {
	if r.Config == "" {
		return r.Name
	}
	return r.Name + "-" + r.Config
}

type MemoryStats struct {
	AllocMB      uint64
	TotalAllocMB uint64
	HeapObjects  uint64
}

// GetDetailedMem samples live heap usage after a forced collection.
func GetDetailedMem() MemoryStats {
	var m runtime.MemStats
	// Force GC to ensure we measure actual live data, not garbage
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		HeapObjects:  m.HeapObjects,
	}
}

// Record writes res as a CSV row.
func Record(w *csv.Writer, res BenchResult) error {
	return w.Write([]string{
		res.Name,
		res.Config,
		res.Operation,
		strconv.FormatInt(res.LatencyNs, 10),
		strconv.FormatUint(res.MemMB, 10),
		strconv.FormatUint(res.Objects, 10),
	})
}
