package main

import (
	"github.com/spf13/cobra"

	"cxx-typegraph-neo4j/internal/headers"
	"cxx-typegraph-neo4j/internal/scan"
)

func newHeadersCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "headers <root> <subdir>",
		Short: "Report which headers of a subdirectory are included from outside it",
		Long: `Headers lists the headers below subdir that no file outside subdir includes,
then every included header with its includers. Build output and test sources
are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			scanner := scan.New(e.filter(headers.ExtraExclude...), e.cfg.Workers, e.cfg.QueueSize)
			report, err := headers.Scan(cmd.Context(), args[0], args[1], scanner, e.logger)
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout())
		},
	}
	addScanFlags(cmd)
	return cmd
}
