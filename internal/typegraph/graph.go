// Package typegraph holds the validated type dependency graph and its
// JSON-lines encoding.
package typegraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"cxx-typegraph-neo4j/internal/cxx"
)

var (
	// ErrNameConflict is returned when two nodes share a name.
	ErrNameConflict = errors.New("node name conflict")
	// ErrDanglingEdge is returned when an edge endpoint is not a node.
	ErrDanglingEdge = errors.New("edge references unknown node")
)

// EdgeKind classifies how a type depends on another.
type EdgeKind int

const (
	Inheritance EdgeKind = iota + 1
	Composition
	MethodUsage
)

var edgeKindNames = map[EdgeKind]string{
	Inheritance: "INHERITANCE",
	Composition: "COMPOSITION",
	MethodUsage: "METHOD",
}

// String returns the wire name of k.
func (k EdgeKind) String() string {
	if name, ok := edgeKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Relationship returns the Neo4j relationship type for k, or "" for an
// unknown kind.
func (k EdgeKind) Relationship() string {
	switch k {
	case Inheritance:
		return "INHERITS"
	case Composition:
		return "COMPOSES"
	case MethodUsage:
		return "USES"
	default:
		return ""
	}
}

// ParseEdgeKind parses a wire name produced by EdgeKind.String.
func ParseEdgeKind(name string) (EdgeKind, bool) {
	for k, n := range edgeKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// EdgeKinds lists every kind in declaration order.
func EdgeKinds() []EdgeKind {
	return []EdgeKind{Inheritance, Composition, MethodUsage}
}

// Edge records that Caller depends on Callee.
type Edge struct {
	Caller cxx.Symbol
	Callee cxx.Symbol
	Kind   EdgeKind
}

func (e Edge) String() string {
	return e.Caller.Name + " -" + e.Kind.String() + "-> " + e.Callee.Name
}

// CompareEdges orders edges by caller, callee, then kind.
func CompareEdges(a, b Edge) int {
	if c := cxx.Compare(a.Caller, b.Caller); c != 0 {
		return c
	}
	if c := cxx.Compare(a.Callee, b.Callee); c != 0 {
		return c
	}
	return int(a.Kind) - int(b.Kind)
}

// Graph is an immutable set of type nodes and dependency edges.
type Graph struct {
	Nodes []cxx.Symbol
	Edges []Edge
}

// New builds a graph from nodes and edges, removing duplicates and sorting
// both.
func New(nodes []cxx.Symbol, edges []Edge) *Graph {
	n := slices.Clone(nodes)
	slices.SortFunc(n, cxx.Compare)
	e := slices.Clone(edges)
	slices.SortFunc(e, CompareEdges)
	return &Graph{
		Nodes: slices.Compact(n),
		Edges: slices.Compact(e),
	}
}

// HasNode reports whether sym is a node of g.
func (g *Graph) HasNode(sym cxx.Symbol) bool {
	_, ok := slices.BinarySearchFunc(g.Nodes, sym, cxx.Compare)
	return ok
}

// NodeByName returns the node called name.
func (g *Graph) NodeByName(name string) (cxx.Symbol, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return cxx.Symbol{}, false
}

// Validate checks that node names are unique and that every edge connects
// two nodes. Isolated nodes are logged.
func (g *Graph) Validate(logger *slog.Logger) error {
	byName := make(map[string]cxx.Symbol, len(g.Nodes))
	for _, n := range g.Nodes {
		if prev, ok := byName[n.Name]; ok {
			return fmt.Errorf("%w: %s and %s", ErrNameConflict, prev, n)
		}
		byName[n.Name] = n
	}
	for _, e := range g.Edges {
		if !g.HasNode(e.Caller) {
			return fmt.Errorf("%w: caller %s of %s", ErrDanglingEdge, e.Caller, e)
		}
		if !g.HasNode(e.Callee) {
			return fmt.Errorf("%w: callee %s of %s", ErrDanglingEdge, e.Callee, e)
		}
	}

	if isolated := g.Isolated(); len(isolated) > 0 {
		logger.Info("types without dependencies", "count", len(isolated))
		names := make([]string, len(isolated))
		for i, n := range isolated {
			names[i] = n.Name
		}
		logger.Debug("isolated types", "names", strings.Join(names, ","))
	}
	return nil
}

// Isolated returns the nodes that are neither caller nor callee of any edge.
func (g *Graph) Isolated() []cxx.Symbol {
	linked := cxx.NewSymbolSet()
	for _, e := range g.Edges {
		linked.Add(e.Caller)
		linked.Add(e.Callee)
	}
	var out []cxx.Symbol
	for _, n := range g.Nodes {
		if !linked.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// CountByKind returns the number of edges of each kind.
func (g *Graph) CountByKind() map[EdgeKind]int {
	out := make(map[EdgeKind]int, 3)
	for _, e := range g.Edges {
		out[e.Kind]++
	}
	return out
}

// Files returns the distinct owning files of g's nodes, sorted.
func (g *Graph) Files() []string {
	var out []string
	for _, n := range g.Nodes {
		if n.File != "" {
			out = append(out, n.File)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
