// Package store persists a type graph in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/typegraph"
)

const schema = `
	CREATE TABLE IF NOT EXISTS symbols (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		file TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS edges (
		caller TEXT NOT NULL REFERENCES symbols(name),
		callee TEXT NOT NULL REFERENCES symbols(name),
		kind TEXT NOT NULL,
		PRIMARY KEY (caller, callee)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_callee ON edges(callee);
	CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file);
`

// Store is an open graph database.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens or creates the database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize graph schema: %w", err)
	}

	return &Store{conn: conn, logger: logger, dbPath: dbPath}, nil
}

// SaveGraph replaces the stored graph with g in one transaction.
func (s *Store) SaveGraph(ctx context.Context, g *typegraph.Graph) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM edges", "DELETE FROM symbols"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear graph: %w", err)
		}
	}

	insSym, err := tx.PrepareContext(ctx, "INSERT INTO symbols (name, kind, file) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare symbols: %w", err)
	}
	defer insSym.Close()
	for _, n := range g.Nodes {
		if _, err = insSym.ExecContext(ctx, n.Name, n.Kind.String(), n.File); err != nil {
			return fmt.Errorf("insert symbol %s: %w", n.Name, err)
		}
	}

	insEdge, err := tx.PrepareContext(ctx, "INSERT INTO edges (caller, callee, kind) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare edges: %w", err)
	}
	defer insEdge.Close()
	for _, e := range g.Edges {
		if _, err = insEdge.ExecContext(ctx, e.Caller.Name, e.Callee.Name, e.Kind.String()); err != nil {
			return fmt.Errorf("insert edge %s: %w", e, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("Saved graph to SQLite", "path", s.dbPath, "types", len(g.Nodes), "edges", len(g.Edges))
	return nil
}

// LoadGraph reads the stored graph back.
func (s *Store) LoadGraph(ctx context.Context) (*typegraph.Graph, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT name, kind, file FROM symbols")
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	byName := make(map[string]cxx.Symbol)
	var nodes []cxx.Symbol
	for rows.Next() {
		var name, kind, file string
		if err := rows.Scan(&name, &kind, &file); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		k, ok := cxx.ParseDeclKind(kind)
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("symbol %s: unknown kind %q", name, kind)
		}
		sym := cxx.Symbol{Name: name, Kind: k, File: file}
		byName[name] = sym
		nodes = append(nodes, sym)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.QueryContext(ctx, "SELECT caller, callee, kind FROM edges")
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	var edges []typegraph.Edge
	for rows.Next() {
		var caller, callee, kind string
		if err := rows.Scan(&caller, &callee, &kind); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		k, ok := typegraph.ParseEdgeKind(kind)
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown kind %q", caller, callee, kind)
		}
		edges = append(edges, typegraph.Edge{Caller: byName[caller], Callee: byName[callee], Kind: k})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return typegraph.New(nodes, edges), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
