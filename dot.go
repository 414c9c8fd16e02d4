package main

import (
	"io"
	"os"

	"github.com/btree-query-bench/bplusindex/index/bplustree"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newDotCmd() *cobra.Command {
	var (
		order int
		keys  int
		out   string
	)
	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Build a tree from the keys 1..n and export it as Graphviz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := bplustree.New(order, bplustree.WithLogger(logger))
			if err != nil {
				return err
			}
			if err := preload(tree, keys); err != nil {
				return err
			}
			if err := tree.CheckValidity(); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, "create dot file")
				}
				defer f.Close()
				w = f
			}
			if err := tree.ExportDOT(w); err != nil {
				return errors.Wrap(err, "export dot")
			}
			logger.Info("exported tree", "order", order, "keys", keys, "height", tree.Height())
			return nil
		},
	}
	cmd.Flags().IntVar(&order, "order", 4, "tree order")
	cmd.Flags().IntVar(&keys, "keys", 20, "number of keys to insert")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
