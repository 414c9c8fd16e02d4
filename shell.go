package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/btree-query-bench/bplusindex/index"
	"github.com/btree-query-bench/bplusindex/index/bplustree"
	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/go-faker/faker/v4"
	"github.com/spf13/cobra"
)

const shellHelp = `
B+ Tree Shell

Available Commands:
  SET <key> <id>     Insert key, referencing record id
  GET <key>          Look up the record id stored for key
  DEL <key>          Remove key (unsupported by the B+ tree)
  RANGE <lo> <hi>    List the entries with lo <= key <= hi
  SEED <n>           Insert n random keys
  CHECK              Validate the tree structure
  PRINT              Print the tree
  HEIGHT             Print the tree height
  HELP               Show this message
  EXIT               Terminate this session
`

type shell struct {
	tree *bplustree.Tree
	out  io.Writer
	ok   *color.Color
	bad  *color.Color
}

func newShell(tree *bplustree.Tree, out io.Writer) *shell {
	return &shell{
		tree: tree,
		out:  out,
		ok:   color.New(color.FgGreen),
		bad:  color.New(color.FgRed),
	}
}

// exec runs one command line and reports whether the session should end.
func (s *shell) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	command, args := strings.ToLower(fields[0]), fields[1:]
	var err error
	switch command {
	case "set":
		err = s.set(args)
	case "get":
		err = s.get(args)
	case "del":
		err = s.del(args)
	case "range":
		err = s.rangeScan(args)
	case "seed":
		err = s.seed(args)
	case "check":
		err = s.check()
	case "print":
		fmt.Fprintln(s.out, s.tree)
	case "height":
		fmt.Fprintln(s.out, s.tree.Height())
	case "help":
		fmt.Fprint(s.out, shellHelp)
	case "exit", "quit":
		return true
	default:
		err = errors.Newf("unknown command %q", command)
	}
	if err != nil {
		s.bad.Fprintln(s.out, "error:", err)
	}
	return false
}

func parseKeys(args []string, usage string) ([]int64, error) {
	if n := strings.Count(usage, "<"); len(args) != n {
		return nil, errors.Newf("usage: %s", usage)
	}
	keys := make([]int64, len(args))
	for i, a := range args {
		k, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "usage: %s", usage)
		}
		keys[i] = k
	}
	return keys, nil
}

func (s *shell) set(args []string) error {
	kv, err := parseKeys(args, "SET <key> <id>")
	if err != nil {
		return err
	}
	if kv[1] < 0 {
		return errors.Newf("record id must not be negative, got %d", kv[1])
	}
	prev, replaced, err := s.tree.Insert(kv[0], index.NewValueRef(uint64(kv[1])))
	if err != nil {
		return err
	}
	if replaced {
		s.ok.Fprintf(s.out, "OK (replaced %s)\n", prev)
	} else {
		s.ok.Fprintln(s.out, "OK")
	}
	return nil
}

func (s *shell) get(args []string) error {
	k, err := parseKeys(args, "GET <key>")
	if err != nil {
		return err
	}
	v, err := s.tree.Get(k[0])
	if errors.Is(err, index.ErrNotFound) {
		fmt.Fprintln(s.out, "Key not found.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, v)
	return nil
}

func (s *shell) del(args []string) error {
	k, err := parseKeys(args, "DEL <key>")
	if err != nil {
		return err
	}
	_, removed, err := s.tree.Remove(k[0])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintln(s.out, "Key not found.")
	}
	return nil
}

func (s *shell) rangeScan(args []string) error {
	b, err := parseKeys(args, "RANGE <lo> <hi>")
	if err != nil {
		return err
	}
	it, err := s.tree.Range(b[0], b[1])
	if err != nil {
		return err
	}
	entries, err := index.Collect(it)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintln(s.out, e)
	}
	fmt.Fprintf(s.out, "(%d entries)\n", len(entries))
	return nil
}

func (s *shell) seed(args []string) error {
	n, err := parseKeys(args, "SEED <n>")
	if err != nil {
		return err
	}
	if n[0] <= 0 {
		return errors.Newf("SEED needs a positive count, got %d", n[0])
	}
	keys, err := faker.RandomInt(0, int(10*n[0]), int(n[0]))
	if err != nil {
		return errors.Wrap(err, "generate keys")
	}
	for _, k := range keys {
		if _, _, err := s.tree.Insert(int64(k), index.NewValueRef(uint64(k))); err != nil {
			return err
		}
	}
	s.ok.Fprintf(s.out, "OK (%d keys, height %d)\n", len(keys), s.tree.Height())
	return nil
}

func (s *shell) check() error {
	if err := s.tree.CheckValidity(); err != nil {
		return err
	}
	s.ok.Fprintln(s.out, "tree is valid")
	return nil
}

// preload inserts the keys 1..n with record ids equal to the keys.
func preload(tree *bplustree.Tree, n int) error {
	for k := 1; k <= n; k++ {
		if _, _, err := tree.Insert(int64(k), index.NewValueRef(uint64(k))); err != nil {
			return err
		}
	}
	return nil
}

func newShellCmd() *cobra.Command {
	var (
		order   int
		keys    int
		history string
	)
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive B+ tree shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := bplustree.New(order, bplustree.WithLogger(logger))
			if err != nil {
				return err
			}
			if err := preload(tree, keys); err != nil {
				return err
			}

			// Initialize readline, supporting arrow keys and command history
			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "> ",
				HistoryFile: history,
				Stdout:      cmd.OutOrStdout(),
			})
			if err != nil {
				return errors.Wrap(err, "start readline")
			}
			defer rl.Close()

			sh := newShell(tree, rl.Stdout())
			fmt.Fprint(sh.out, shellHelp)
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if sh.exec(line) {
					return nil
				}
			}
		},
	}
	cmd.Flags().IntVar(&order, "order", 4, "tree order")
	cmd.Flags().IntVar(&keys, "keys", 0, "preload the keys 1..n")
	cmd.Flags().StringVar(&history, "history", "", "history file")
	return cmd
}
