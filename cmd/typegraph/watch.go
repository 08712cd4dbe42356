package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"cxx-typegraph-neo4j/internal/watch"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [roots...]",
		Short: "Scan, then rescan whenever a source changes",
		Long: `Watch runs a scan like the scan command, then keeps watching the roots and
rescans after changes settle for the debounce period. A failed rescan is
logged and the previous output is left in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			roots := rootsOrDot(args)
			stderr := cmd.ErrOrStderr()

			if _, err := e.scanAndWrite(cmd.Context(), roots, stderr); err != nil {
				return err
			}

			debounce := time.Duration(e.cfg.Watch.DebounceMs) * time.Millisecond
			w, err := watch.New(roots, e.filter(), debounce, e.logger)
			if err != nil {
				return err
			}
			defer w.Close()

			e.logger.Info("Watching for changes", "roots", roots, "debounce", debounce)
			return w.Run(cmd.Context(), func(ctx context.Context, changed []string) error {
				e.logger.Debug("changed sources", "paths", changed)
				_, err := e.scanAndWrite(ctx, roots, stderr)
				return err
			})
		},
	}
	addScanFlags(cmd)
	addSinkFlags(cmd, true)
	cmd.Flags().Int("debounce", 500, "Quiet period in milliseconds before a rescan")
	return cmd
}
