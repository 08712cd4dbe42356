// Package loader pushes a type graph into Neo4j.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"cxx-typegraph-neo4j/internal/typegraph"
)

// batchSize caps the rows sent with a single UNWIND statement.
const batchSize = 1000

// Neo4jLoader loads a type graph into a Neo4j database using batch UNWIND
// queries.
type Neo4jLoader struct {
	driver neo4j.DriverWithContext
	ctx    context.Context
	logger *slog.Logger
	run    func(cypher string, params map[string]any) error
}

// NewNeo4jLoader connects to Neo4j and returns a ready-to-use loader.
func NewNeo4jLoader(ctx context.Context, uri, user, password string, logger *slog.Logger) (*Neo4jLoader, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	l := &Neo4jLoader{driver: driver, ctx: ctx, logger: logger}
	l.run = l.runCypher
	return l, nil
}

// Close releases the underlying Neo4j driver resources.
func (l *Neo4jLoader) Close() {
	if l.driver != nil {
		l.driver.Close(l.ctx)
	}
}

// runCypher runs a single Cypher statement with optional parameters.
func (l *Neo4jLoader) runCypher(cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(l.ctx, l.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// runBatches runs cypher once per chunk of rows, bound to $batch.
func (l *Neo4jLoader) runBatches(cypher string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := l.run(cypher, map[string]any{"batch": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

// Load writes g, optionally removing previously loaded data first.
func (l *Neo4jLoader) Load(g *typegraph.Graph, clean bool) error {
	if clean {
		if err := l.CleanGraph(); err != nil {
			return err
		}
	}
	if err := l.CreateIndexes(); err != nil {
		return err
	}
	if err := l.LoadFiles(g); err != nil {
		return err
	}
	if err := l.LoadTypes(g); err != nil {
		return err
	}
	return l.LoadEdges(g)
}

// CleanGraph removes all previously loaded type graph nodes and relationships.
func (l *Neo4jLoader) CleanGraph() error {
	l.logger.Info("Cleaning existing type graph data...")
	queries := []string{
		"MATCH ()-[r:INHERITS]->() DELETE r",
		"MATCH ()-[r:COMPOSES]->() DELETE r",
		"MATCH ()-[r:USES]->() DELETE r",
		"MATCH ()-[r:DECLARED_IN]->() DELETE r",
		"MATCH (n:CxxType) DETACH DELETE n",
		"MATCH (n:CxxFile) DETACH DELETE n",
	}
	for _, q := range queries {
		if err := l.run(q, nil); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndexes ensures the required Neo4j indexes exist.
func (l *Neo4jLoader) CreateIndexes() error {
	l.logger.Info("Creating indexes...")
	indexes := []string{
		"CREATE INDEX cxx_file_path IF NOT EXISTS FOR (n:CxxFile) ON (n.path)",
		"CREATE INDEX cxx_type_name IF NOT EXISTS FOR (n:CxxType) ON (n.name)",
	}
	for _, q := range indexes {
		if err := l.run(q, nil); err != nil {
			return err
		}
	}
	return nil
}

// LoadFiles upserts CxxFile nodes for every file declaring a type.
func (l *Neo4jLoader) LoadFiles(g *typegraph.Graph) error {
	rows := fileRows(g)
	l.logger.Info("Loading files...", "count", len(rows))
	return l.runBatches(
		`UNWIND $batch AS row
		 MERGE (f:CxxFile {path: row.path})
		 SET f.name = row.name`,
		rows,
	)
}

// LoadTypes upserts CxxType nodes and links them to their files.
func (l *Neo4jLoader) LoadTypes(g *typegraph.Graph) error {
	rows := typeRows(g)
	l.logger.Info("Loading types...", "count", len(rows))
	return l.runBatches(
		`UNWIND $batch AS row
		 MERGE (n:CxxType {name: row.name})
		 SET n.kind = row.kind, n.file = row.file
		 WITH n, row
		 MATCH (f:CxxFile {path: row.file})
		 MERGE (n)-[:DECLARED_IN]->(f)`,
		rows,
	)
}

// LoadEdges upserts one relationship type per edge kind between CxxType
// nodes.
func (l *Neo4jLoader) LoadEdges(g *typegraph.Graph) error {
	for _, kind := range typegraph.EdgeKinds() {
		rows := edgeRows(g, kind)
		if len(rows) == 0 {
			continue
		}
		l.logger.Info("Loading edges...", "relationship", kind.Relationship(), "count", len(rows))
		err := l.runBatches(edgeCypher(kind), rows)
		if err != nil {
			return err
		}
	}
	return nil
}

func edgeCypher(kind typegraph.EdgeKind) string {
	return `UNWIND $batch AS row
		 MATCH (caller:CxxType {name: row.caller}), (callee:CxxType {name: row.callee})
		 MERGE (caller)-[:` + kind.Relationship() + `]->(callee)`
}

func fileRows(g *typegraph.Graph) []map[string]any {
	files := g.Files()
	rows := make([]map[string]any, 0, len(files))
	for _, f := range files {
		rows = append(rows, map[string]any{
			"path": f,
			"name": filepath.Base(f),
		})
	}
	return rows
}

func typeRows(g *typegraph.Graph) []map[string]any {
	rows := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		rows = append(rows, map[string]any{
			"name": n.Name,
			"kind": n.Kind.String(),
			"file": n.File,
		})
	}
	return rows
}

func edgeRows(g *typegraph.Graph, kind typegraph.EdgeKind) []map[string]any {
	var rows []map[string]any
	for _, e := range g.Edges {
		if e.Kind != kind {
			continue
		}
		rows = append(rows, map[string]any{
			"caller": e.Caller.Name,
			"callee": e.Callee.Name,
		})
	}
	return rows
}
