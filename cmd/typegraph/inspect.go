package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/extract"
)

func newInspectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show what is extracted from a single source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			res, err := extract.File(args[0], e.logger)
			if err != nil {
				return err
			}
			return writeInspection(cmd.OutOrStdout(), res)
		},
	}
}

func writeInspection(w io.Writer, res *extract.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", res.File.Path, res.File.Kind)

	b.WriteString("declared types:\n")
	for _, sym := range slices.SortedFunc(maps.Keys(res.Declares), cxx.Compare) {
		block := res.Declares[sym]
		if inh := strings.TrimSpace(block.Inheritance); inh != "" {
			fmt.Fprintf(&b, "\t%s %s %s\n", sym.Kind, sym.Name, inh)
		} else {
			fmt.Fprintf(&b, "\t%s %s\n", sym.Kind, sym.Name)
		}
	}

	b.WriteString("included headers:\n")
	for _, inc := range res.Includes {
		fmt.Fprintf(&b, "\t%s\n", inc)
	}

	b.WriteString("forward declarations:\n")
	for _, sym := range res.ForwardDecls {
		fmt.Fprintf(&b, "\t%s %s\n", sym.Kind, sym.Name)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
