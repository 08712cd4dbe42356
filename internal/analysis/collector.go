// Package analysis runs the extraction and resolution pipeline over a set of
// source roots and produces a validated type graph.
package analysis

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"cxx-typegraph-neo4j/internal/classify"
	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/extract"
	"cxx-typegraph-neo4j/internal/metrics"
	"cxx-typegraph-neo4j/internal/resolve"
	"cxx-typegraph-neo4j/internal/scan"
	"cxx-typegraph-neo4j/internal/typegraph"
)

// Options configures a run. Zero values select defaults.
type Options struct {
	Workers   int
	QueueSize int
	Filter    *scan.Filter
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Collector gathers declarations, includes and forward declarations from
// C/C++ sources and derives the dependency edges between declared types.
// A Collector serves a single run.
type Collector struct {
	RunID string

	scanner    *scan.Scanner
	classifier *classify.Classifier
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu           sync.Mutex
	Files        map[string]cxx.SourceFile
	Declares     map[string]map[cxx.Symbol]cxx.CodeBlock
	Includes     map[string][]string
	ForwardDecls map[string][]cxx.Symbol

	Resolved *resolve.Result
	Edges    []typegraph.Edge
}

// NewCollector creates a Collector with empty aggregates.
func NewCollector(opts Options) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &Collector{
		RunID:        runID,
		scanner:      scan.New(opts.Filter, opts.Workers, opts.QueueSize),
		classifier:   classify.New(),
		logger:       logger.With("run", runID),
		metrics:      opts.Metrics,
		Files:        make(map[string]cxx.SourceFile),
		Declares:     make(map[string]map[cxx.Symbol]cxx.CodeBlock),
		Includes:     make(map[string][]string),
		ForwardDecls: make(map[string][]cxx.Symbol),
	}
}

// Logger returns the run's logger.
func (c *Collector) Logger() *slog.Logger {
	return c.logger
}

// CollectSources extracts every accepted file below roots on the worker
// pool. It returns after all files were extracted or on the first fatal
// error.
func (c *Collector) CollectSources(ctx context.Context, roots []string) error {
	defer c.metrics.ObserveStage(metrics.StageExtract, time.Now())
	return c.scanner.Process(ctx, roots, func(_ context.Context, path string) error {
		res, err := extract.File(path, c.logger)
		if err != nil {
			return err
		}
		c.metrics.FileScanned()
		c.add(res)
		return nil
	})
}

func (c *Collector) add(res *extract.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := res.File.Path
	c.Files[p] = res.File
	if len(res.Declares) > 0 {
		c.Declares[p] = res.Declares
	}
	if len(res.Includes) > 0 {
		c.Includes[p] = res.Includes
	}
	if len(res.ForwardDecls) > 0 {
		c.ForwardDecls[p] = res.ForwardDecls
	}
}

// Resolve runs include resolution, the include closure, header pairing and
// forward declaration substitution over the collected sources.
func (c *Collector) Resolve() error {
	defer c.metrics.ObserveStage(metrics.StageResolve, time.Now())

	files := make([]cxx.SourceFile, 0, len(c.Files))
	for _, p := range slices.Sorted(maps.Keys(c.Files)) {
		files = append(files, c.Files[p])
	}
	declares := make(map[string]cxx.SymbolSet, len(c.Declares))
	for p, blocks := range c.Declares {
		set := cxx.NewSymbolSet()
		for sym := range blocks {
			set.Add(sym)
		}
		declares[p] = set
	}

	res, err := resolve.Run(resolve.Input{
		Files:        files,
		Declares:     declares,
		Includes:     c.Includes,
		ForwardDecls: c.ForwardDecls,
	}, c.logger)
	if err != nil {
		return err
	}
	c.Resolved = res
	return nil
}

// CollectDependencies classifies every declared type against the symbols
// visible to its file. Resolve must have succeeded.
func (c *Collector) CollectDependencies() {
	defer c.metrics.ObserveStage(metrics.StageClassify, time.Now())

	c.Edges = c.Edges[:0]
	for _, file := range slices.Sorted(maps.Keys(c.Declares)) {
		visible := classify.Visible(file, c.Resolved.Visible[file], c.Resolved.ForwardDecls[file])
		if len(visible) == 0 {
			continue
		}
		c.Edges = append(c.Edges, c.classifier.Edges(c.Declares[file], visible)...)
	}
}

// Symbols returns every declared type.
func (c *Collector) Symbols() []cxx.Symbol {
	var out []cxx.Symbol
	for _, blocks := range c.Declares {
		for sym := range blocks {
			out = append(out, sym)
		}
	}
	return out
}

// Graph builds the (unvalidated) graph from the collected symbols and edges.
func (c *Collector) Graph() *typegraph.Graph {
	return typegraph.New(c.Symbols(), c.Edges)
}

// Analyze scans roots, resolves and classifies their types, and returns the
// validated graph.
func Analyze(ctx context.Context, roots []string, opts Options) (*typegraph.Graph, error) {
	c := NewCollector(opts)
	logger := c.Logger()

	logger.Info("Scanning sources", "roots", roots)
	if err := c.CollectSources(ctx, roots); err != nil {
		return nil, err
	}
	logger.Info("Collected sources",
		"files", len(c.Files), "declaring", len(c.Declares),
		"including", len(c.Includes), "forward_declaring", len(c.ForwardDecls))

	logger.Info("Resolving includes and forward declarations")
	if err := c.Resolve(); err != nil {
		return nil, err
	}

	logger.Info("Classifying dependencies")
	c.CollectDependencies()

	start := time.Now()
	g := c.Graph()
	if err := g.Validate(logger); err != nil {
		return nil, err
	}
	c.metrics.ObserveStage(metrics.StageValidate, start)

	c.metrics.Symbols(len(g.Nodes))
	for kind, n := range g.CountByKind() {
		c.metrics.Edges(kind.String(), n)
	}
	logger.Info("Graph ready", "types", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}
