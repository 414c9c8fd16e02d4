package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/btree-query-bench/bplusindex/index/bplustree"
	"github.com/btree-query-bench/bplusindex/index/btree"
	"github.com/btree-query-bench/bplusindex/index/ldb"
	"github.com/btree-query-bench/bplusindex/index/listindex"
	"github.com/btree-query-bench/bplusindex/index/lsm"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// contender is one index under test. open is called once per suite.
type contender struct {
	name   string
	config string
	open   func() (index.Index, error)
}

type benchConfig struct {
	orders     []int
	scale      int
	structures []string
	out        string
	png        string
	html       string
	seed       uint64
}

func newBenchCmd() *cobra.Command {
	var cfg benchConfig
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the B+ tree against reference indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.OutOrStdout(), cfg)
		},
	}
	f := cmd.Flags()
	f.IntSliceVar(&cfg.orders, "orders", []int{8, 32, 128}, "B+ tree orders and B-tree degrees to sweep")
	f.IntVar(&cfg.scale, "scale", 100000, "number of keys loaded per suite")
	f.StringSliceVar(&cfg.structures, "with", []string{"bplustree", "btree", "list", "pebble", "leveldb"}, "structures to benchmark")
	f.StringVar(&cfg.out, "out", "results.csv", "CSV output file")
	f.StringVar(&cfg.png, "png", "", "write a latency bar chart to this PNG file")
	f.StringVar(&cfg.html, "html", "", "write an interactive latency chart to this HTML file")
	f.Uint64Var(&cfg.seed, "seed", 1, "workload random seed")
	return cmd
}

func contenders(cfg benchConfig) ([]contender, error) {
	var out []contender
	for _, s := range cfg.structures {
		switch s {
		case "bplustree":
			for _, order := range cfg.orders {
				out = append(out, contender{
					name:   "BPlusTree",
					config: strconv.Itoa(order),
					open: func() (index.Index, error) {
						return bplustree.New(order, bplustree.WithLogger(logger))
					},
				})
			}
		case "btree":
			for _, degree := range cfg.orders {
				out = append(out, contender{
					name:   "B-Tree",
					config: strconv.Itoa(degree),
					open:   func() (index.Index, error) { return btree.NewBTree(degree), nil },
				})
			}
		case "list":
			out = append(out, contender{
				name: "List",
				open: func() (index.Index, error) { return listindex.NewListIndex(), nil },
			})
		case "pebble":
			out = append(out, contender{
				name: "Pebble",
				open: func() (index.Index, error) { return lsm.OpenInMemory() },
			})
		case "leveldb":
			out = append(out, contender{
				name: "LevelDB",
				open: func() (index.Index, error) { return ldb.Open("") },
			})
		default:
			return nil, errors.Newf("unknown structure %q", s)
		}
	}
	return out, nil
}

func runBench(stdout io.Writer, cfg benchConfig) error {
	if cfg.scale < 2 {
		return errors.Newf("--scale must be at least 2, got %d", cfg.scale)
	}
	cs, err := contenders(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.out)
	if err != nil {
		return errors.Wrap(err, "create results file")
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	var results []BenchResult
	for _, c := range cs {
		rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed))
		rs, err := runSuite(stdout, w, c, cfg.scale, rng)
		if err != nil {
			return errors.Wrapf(err, "%s %s", c.name, c.config)
		}
		results = append(results, rs...)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "write results")
	}

	if cfg.png != "" {
		if err := SaveLatencyPNG(results, cfg.png); err != nil {
			return err
		}
	}
	if cfg.html != "" {
		if err := SaveLatencyHTML(results, cfg.html); err != nil {
			return err
		}
	}
	color.New(color.FgGreen).Fprintf(stdout, "Benchmark complete. Results written to %s\n", cfg.out)
	return nil
}

func runSuite(stdout io.Writer, w *csv.Writer, c contender, n int, rng *rand.Rand) ([]BenchResult, error) {
	color.New(color.Bold).Fprintf(stdout, "Testing %s (Config: %s)\n", c.name, c.config)
	i, err := c.open()
	if err != nil {
		return nil, err
	}
	defer i.Close()

	var results []BenchResult
	record := func(r BenchResult) error {
		results = append(results, r)
		return Record(w, r)
	}

	// 1. Pure Insert (Initial Load)
	start := time.Now()
	for k := 0; k < n; k++ {
		if _, _, err := i.Insert(int64(k), index.NewValueRef(uint64(k))); err != nil {
			return nil, errors.Wrapf(err, "load key %d", k)
		}
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(n)
	if tree, ok := i.(*bplustree.Tree); ok {
		if err := tree.CheckValidity(); err != nil {
			return nil, errors.Wrap(err, "tree invalid after load")
		}
		logger.Info("loaded tree", "order", tree.Order(), "height", tree.Height(), "keys", n)
	}

	// Measure memory immediately after load but before workloads
	stats := GetDetailedMem()
	if err := record(BenchResult{
		Name:      c.name,
		Config:    c.config,
		Operation: "Footprint_SteadyState",
		LatencyNs: insertLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	}); err != nil {
		return nil, err
	}

	workloads := []struct {
		op    string
		wType WorkloadType
		ops   int
	}{
		{"Workload_OLTP", OLTP, n / 2},
		{"Workload_OLAP", OLAP, n / 2},
		{"Workload_Range", Reporting, 100},
	}
	for _, wl := range workloads {
		start = time.Now()
		if err := ExecuteWorkload(i, wl.wType, wl.ops, n, rng); err != nil {
			return nil, err
		}
		latency := time.Since(start).Nanoseconds() / int64(wl.ops)
		logger.Debug("workload done", "structure", c.name, "config", c.config, "workload", wl.wType, "latency_ns", latency)
		if err := record(BenchResult{c.name, c.config, wl.op, latency, GetDetailedMem().AllocMB, 0}); err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(stdout, "  load %d ns/op, %d MB live\n", insertLatency, stats.AllocMB)
	return results, nil
}

// operations returns the distinct operation names of results in first-seen
// order.
func operations(results []BenchResult) []string {
	var ops []string
	for _, r := range results {
		if !slices.Contains(ops, r.Operation) {
			ops = append(ops, r.Operation)
		}
	}
	return ops
}
