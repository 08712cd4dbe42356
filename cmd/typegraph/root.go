package main

import (
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"cxx-typegraph-neo4j/internal/config"
	"cxx-typegraph-neo4j/internal/logging"
	"cxx-typegraph-neo4j/internal/metrics"
	"cxx-typegraph-neo4j/internal/scan"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    int
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "typegraph",
		Short: "Extract the type dependency graph of a C/C++ source tree",
		Long: `typegraph scans C/C++ sources lexically and records, for every declared
class, struct and enum, which other declared types it inherits from, holds as a
field, or uses in a method. The graph is written as JSON lines and can be
loaded into SQLite or Neo4j.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default ./"+config.FileName+")")
	pf.CountVarP(&opts.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress all logs")
	pf.String("log-format", "text", "Log format: text or json")

	cmd.AddCommand(
		newScanCmd(opts),
		newLoadCmd(opts),
		newInspectCmd(opts),
		newHeadersCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

// env is what a command needs after flags are parsed.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// setup loads the configuration with cmd's flags applied and builds the
// logger. Warnings are counted in the returned metrics.
func (o *globalOptions) setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logging.LevelFromString(cfg.Logging.Level)
	if o.verbose > 0 || o.quiet {
		level = logging.LevelFromVerbosity(o.verbose, o.quiet)
	}
	m := metrics.New()
	handler := logging.NewHandler(cmd.ErrOrStderr(), level, logging.Format(cfg.Logging.Format))
	logger := slog.New(logging.NewCountingHandler(handler, m.Warning))

	return &env{cfg: cfg, logger: logger, metrics: m}, nil
}

func (e *env) filter(extraExclude ...string) *scan.Filter {
	return scan.NewFilter(e.cfg.Extensions, slices.Concat(e.cfg.Exclude, extraExclude))
}

func addScanFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("workers", scan.DefaultWorkers, "Extraction workers")
	f.Int("queue-size", scan.DefaultQueueSize, "Capacity of the path queue")
	f.StringSlice("ext", scan.DefaultExtensions, "Source file extensions to scan")
	f.StringSlice("exclude", scan.DefaultExclude, "Exclusion patterns (gitignore syntax)")
}

func addSinkFlags(cmd *cobra.Command, jsonl bool) {
	f := cmd.Flags()
	if jsonl {
		f.String("out", "typegraph-out", "Directory for nodes.jsonl and edges.jsonl")
		f.Bool("compress", false, "Write zstd-compressed JSON lines")
	}
	f.String("sqlite", "", "SQLite database to save the graph to")
	f.String("neo4j-uri", "", "Neo4j bolt URI, e.g. bolt://localhost:7687")
	f.String("neo4j-user", "neo4j", "Neo4j username")
	f.String("neo4j-pass", "", "Neo4j password")
	f.Bool("clean", false, "Remove previously loaded type graph data from Neo4j")
	f.String("metrics-textfile", "", "Write Prometheus metrics to this file")
}

func printLines(w io.Writer, lines ...string) {
	for _, l := range lines {
		_, _ = io.WriteString(w, l+"\n")
	}
}
