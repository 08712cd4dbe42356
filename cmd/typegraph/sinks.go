package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"cxx-typegraph-neo4j/internal/analysis"
	"cxx-typegraph-neo4j/internal/export"
	"cxx-typegraph-neo4j/internal/loader"
	"cxx-typegraph-neo4j/internal/store"
	"cxx-typegraph-neo4j/internal/typegraph"
)

// scanAndWrite runs one analysis over roots and writes the graph to every
// configured sink.
func (e *env) scanAndWrite(ctx context.Context, roots []string, stderr io.Writer) (*typegraph.Graph, error) {
	g, err := analysis.Analyze(ctx, roots, analysis.Options{
		Workers:   e.cfg.Workers,
		QueueSize: e.cfg.QueueSize,
		Filter:    e.filter(),
		Logger:    e.logger,
		Metrics:   e.metrics,
	})
	if err != nil {
		return nil, err
	}
	if err := e.writeSinks(ctx, g, true, stderr); err != nil {
		return nil, err
	}
	return g, nil
}

// writeSinks writes g to the JSON-lines directory (when jsonl is set), the
// SQLite database and Neo4j, then flushes the metrics textfile.
func (e *env) writeSinks(ctx context.Context, g *typegraph.Graph, jsonl bool, stderr io.Writer) error {
	if jsonl {
		written, err := export.WriteDir(e.cfg.Output.Dir, g, e.cfg.Output.Compress)
		if err != nil {
			return err
		}
		e.logger.Info("Graph written", "files", written)
	}

	if e.cfg.SQLite.Path != "" {
		if err := e.saveSQLite(ctx, g); err != nil {
			return err
		}
	}

	if e.cfg.Neo4j.Enabled() {
		if err := e.loadNeo4j(ctx, g); err != nil {
			return err
		}
		printLines(stderr, usefulQueries...)
	}

	if e.cfg.Metrics.Textfile != "" {
		if err := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func (e *env) saveSQLite(ctx context.Context, g *typegraph.Graph) error {
	s, err := store.Open(e.cfg.SQLite.Path, e.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	start := time.Now()
	if err := s.SaveGraph(ctx, g); err != nil {
		return err
	}
	e.logger.Info("Graph saved to SQLite", "path", e.cfg.SQLite.Path, "took", time.Since(start))
	return nil
}

func (e *env) loadNeo4j(ctx context.Context, g *typegraph.Graph) error {
	l, err := loader.NewNeo4jLoader(ctx, e.cfg.Neo4j.URI, e.cfg.Neo4j.User, e.cfg.Neo4j.Password, e.logger)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.Load(g, e.cfg.Neo4j.Clean); err != nil {
		return err
	}
	e.logger.Info("Done! Graph loaded into Neo4j.")
	return nil
}

var usefulQueries = []string{
	"",
	"Useful Cypher queries:",
	"  // All declared types of a file",
	"  MATCH (t:CxxType)-[:DECLARED_IN]->(f:CxxFile {name: 'shape.h'}) RETURN t.name, t.kind",
	"",
	"  // Base classes of a type",
	"  MATCH (t:CxxType {name: 'Circle'})-[:INHERITS*]->(base) RETURN base.name",
	"",
	"  // Types with most outgoing dependencies",
	"  MATCH (t:CxxType)-[r]->(dep:CxxType) RETURN t.name, count(dep) AS deps ORDER BY deps DESC LIMIT 20",
	"",
	"  // Who uses a type's methods",
	"  MATCH (caller:CxxType)-[:USES]->(t:CxxType {name: 'Color'}) RETURN caller.name",
	"",
	"  // Types nothing depends on",
	"  MATCH (t:CxxType) WHERE NOT ()-->(t) RETURN t.name, t.file",
}
