// Package export writes a graph as nodes.jsonl and edges.jsonl files and
// reads them back, optionally zstd-compressed.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"cxx-typegraph-neo4j/internal/typegraph"
)

const (
	NodesFile = "nodes.jsonl"
	EdgesFile = "edges.jsonl"

	compressedSuffix = ".zst"
)

// WriteDir writes g into dir, creating it if needed. With compress the files
// get a .zst suffix. It returns the paths written.
func WriteDir(dir string, g *typegraph.Graph, compress bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	nodesPath := filepath.Join(dir, NodesFile)
	edgesPath := filepath.Join(dir, EdgesFile)
	if compress {
		nodesPath += compressedSuffix
		edgesPath += compressedSuffix
	}

	// Drop the other variant so ReadDir never picks up a stale file.
	for _, stale := range []string{nodesPath, edgesPath} {
		stale = counterpart(stale)
		if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove %s: %w", stale, err)
		}
	}

	err := writeFile(nodesPath, compress, func(w io.Writer) error {
		return typegraph.EncodeNodes(w, g.Nodes)
	})
	if err != nil {
		return nil, err
	}
	err = writeFile(edgesPath, compress, func(w io.Writer) error {
		return typegraph.EncodeEdges(w, g.Edges)
	})
	if err != nil {
		return nil, err
	}
	return []string{nodesPath, edgesPath}, nil
}

func counterpart(path string) string {
	if trimmed, ok := strings.CutSuffix(path, compressedSuffix); ok {
		return trimmed
	}
	return path + compressedSuffix
}

func writeFile(path string, compress bool, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if !compress {
		return encode(f)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := encode(enc); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// ReadDir reads a graph written by WriteDir, preferring plain files over
// compressed ones. The graph is not validated.
func ReadDir(dir string) (*typegraph.Graph, error) {
	var g typegraph.Graph
	err := readFile(filepath.Join(dir, NodesFile), func(r io.Reader) error {
		nodes, err := typegraph.DecodeNodes(r)
		g.Nodes = nodes
		return err
	})
	if err != nil {
		return nil, err
	}
	err = readFile(filepath.Join(dir, EdgesFile), func(r io.Reader) error {
		edges, err := typegraph.DecodeEdges(r, g.Nodes)
		g.Edges = edges
		return err
	})
	if err != nil {
		return nil, err
	}
	return typegraph.New(g.Nodes, g.Edges), nil
}

func readFile(path string, decode func(io.Reader) error) error {
	f, err := os.Open(path)
	compressed := false
	if errors.Is(err, os.ErrNotExist) {
		f, err = os.Open(path + compressedSuffix)
		compressed = true
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if !compressed {
		if err := decode(f); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	if err := decode(dec); err != nil {
		return fmt.Errorf("%s%s: %w", path, compressedSuffix, err)
	}
	return nil
}
