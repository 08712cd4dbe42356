package main

import (
	"github.com/spf13/cobra"

	"cxx-typegraph-neo4j/internal/export"
)

func newLoadCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <dir>",
		Short: "Load a previously written graph into SQLite or Neo4j",
		Long: `Load reads nodes.jsonl and edges.jsonl (or their .zst variants) from dir,
validates the graph and writes it to the configured SQLite and Neo4j sinks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			g, err := export.ReadDir(args[0])
			if err != nil {
				return err
			}
			if err := g.Validate(e.logger); err != nil {
				return err
			}
			e.logger.Info("Graph read", "dir", args[0], "types", len(g.Nodes), "edges", len(g.Edges))
			return e.writeSinks(cmd.Context(), g, false, cmd.ErrOrStderr())
		},
	}
	addSinkFlags(cmd, false)
	return cmd
}
