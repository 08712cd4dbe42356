package typegraph

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"cxx-typegraph-neo4j/internal/cxx"
)

// NodeRecord is one line of a nodes file.
type NodeRecord struct {
	Name       string `json:"name"`
	Classifier string `json:"classifier"`
	Source     string `json:"source"`
}

// EdgeRecord is one line of an edges file. Endpoints are node names.
type EdgeRecord struct {
	Caller  string `json:"caller"`
	Callee  string `json:"callee"`
	RefType string `json:"refType"`
}

const maxLine = 1 << 20

// EncodeNodes writes one JSON object per node.
func EncodeNodes(w io.Writer, nodes []cxx.Symbol) error {
	enc := json.NewEncoder(w)
	for _, n := range nodes {
		rec := NodeRecord{Name: n.Name, Classifier: n.Kind.String(), Source: n.File}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode node %s: %w", n.Name, err)
		}
	}
	return nil
}

// EncodeEdges writes one JSON object per edge.
func EncodeEdges(w io.Writer, edges []Edge) error {
	enc := json.NewEncoder(w)
	for _, e := range edges {
		rec := EdgeRecord{Caller: e.Caller.Name, Callee: e.Callee.Name, RefType: e.Kind.String()}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode edge %s: %w", e, err)
		}
	}
	return nil
}

// DecodeNodes reads a nodes file written by EncodeNodes. Blank lines are
// skipped.
func DecodeNodes(r io.Reader) ([]cxx.Symbol, error) {
	var out []cxx.Symbol
	err := eachLine(r, func(n int, line []byte) error {
		var rec NodeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("node line %d: %w", n, err)
		}
		kind, ok := cxx.ParseDeclKind(rec.Classifier)
		if !ok {
			return fmt.Errorf("node line %d: unknown classifier %q", n, rec.Classifier)
		}
		out = append(out, cxx.Symbol{Name: rec.Name, Kind: kind, File: rec.Source})
		return nil
	})
	return out, err
}

// DecodeEdges reads an edges file written by EncodeEdges, binding endpoint
// names to nodes. An endpoint naming no node is kept as a bare name so that
// Validate reports it.
func DecodeEdges(r io.Reader, nodes []cxx.Symbol) ([]Edge, error) {
	byName := make(map[string]cxx.Symbol, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}
	lookup := func(name string) cxx.Symbol {
		if sym, ok := byName[name]; ok {
			return sym
		}
		return cxx.Symbol{Name: name}
	}

	var out []Edge
	err := eachLine(r, func(n int, line []byte) error {
		var rec EdgeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("edge line %d: %w", n, err)
		}
		kind, ok := ParseEdgeKind(rec.RefType)
		if !ok {
			return fmt.Errorf("edge line %d: unknown refType %q", n, rec.RefType)
		}
		out = append(out, Edge{Caller: lookup(rec.Caller), Callee: lookup(rec.Callee), Kind: kind})
		return nil
	})
	return out, err
}

func eachLine(r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return sc.Err()
}
