package main

import (
	"github.com/spf13/cobra"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [roots...]",
		Short: "Extract the type graph of one or more source trees",
		Long: `Scan walks the given roots (default: the working directory), extracts the
declared types of every C/C++ source, and writes nodes.jsonl and edges.jsonl.
The graph is also saved to SQLite with --sqlite and loaded into Neo4j with
--neo4j-uri and --neo4j-pass.`,
		Example: `  typegraph scan src
  typegraph scan --out graph --compress lib app
  typegraph scan --neo4j-uri bolt://localhost:7687 --neo4j-pass secret --clean .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			_, err = e.scanAndWrite(cmd.Context(), rootsOrDot(args), cmd.ErrOrStderr())
			return err
		},
	}
	addScanFlags(cmd)
	addSinkFlags(cmd, true)
	return cmd
}

func rootsOrDot(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
