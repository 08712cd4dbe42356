package resolve

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"cxx-typegraph-neo4j/internal/cxx"
)

// ErrIncludeCycle is returned when resolved includes form a cycle.
var ErrIncludeCycle = errors.New("include cycle")

// includeGraph is the include graph reduced to edges whose target declares
// a symbol. Edges point from an included file to its includer.
type includeGraph struct {
	directed *simple.DirectedGraph
	pathToID map[string]int64
	idToPath map[int64]string
}

func (g *includeGraph) node(path string) graph.Node {
	if id, ok := g.pathToID[path]; ok {
		return g.directed.Node(id)
	}
	id := int64(len(g.pathToID))
	g.pathToID[path] = id
	g.idToPath[id] = path
	n := simple.Node(id)
	g.directed.AddNode(n)
	return n
}

func (g *includeGraph) paths(nodes []graph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, g.idToPath[n.ID()])
	}
	return out
}

// Closure computes for every file the symbols it declares together with the
// symbols of every file it transitively includes. declares holds each file's
// own declarations and includes its resolved includes (see Includes).
//
// Only includes of declaring files order the traversal: files are visited
// in topological order of that reduced graph, so each declaring include's
// closure is complete before its includers are computed. A cycle in the
// reduced graph, including a declaring file that includes itself, fails with
// ErrIncludeCycle. Includes of files that declare nothing are followed
// through the full include graph instead and never form a cycle.
func Closure(declares map[string]cxx.SymbolSet, includes map[string][]string) (map[string]cxx.SymbolSet, error) {
	declaring := func(f string) bool { return len(declares[f]) > 0 }

	g := &includeGraph{
		directed: simple.NewDirectedGraph(),
		pathToID: make(map[string]int64),
		idToPath: make(map[int64]string),
	}
	nodes := make(map[string]bool)
	for f := range includes {
		nodes[f] = true
	}
	for f := range declares {
		if declaring(f) {
			nodes[f] = true
		}
	}
	files := slices.Sorted(maps.Keys(nodes))
	for _, f := range files {
		g.node(f)
	}
	for _, f := range files {
		for _, inc := range includes[f] {
			if !declaring(inc) {
				continue
			}
			if inc == f {
				return nil, fmt.Errorf("%w: %s includes itself", ErrIncludeCycle, f)
			}
			g.directed.SetEdge(simple.Edge{F: g.node(inc), T: g.node(f)})
		}
	}

	order, err := topo.SortStabilized(g.directed, byID)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			return nil, cycleError(g, cycles)
		}
		return nil, err
	}

	closure := make(map[string]cxx.SymbolSet, len(order))
	for _, n := range order {
		f := g.idToPath[n.ID()]
		set := cxx.NewSymbolSet()
		set.AddAll(declares[f])
		var passThrough []string
		for _, inc := range includes[f] {
			if declaring(inc) {
				set.AddAll(closure[inc])
			} else {
				passThrough = append(passThrough, inc)
			}
		}
		if len(passThrough) > 0 {
			set.AddAll(reachable(passThrough, declares, includes))
		}
		closure[f] = set
	}
	return closure, nil
}

// reachable collects the declarations of every file reachable from start in
// the full include graph, start included.
func reachable(start []string, declares map[string]cxx.SymbolSet, includes map[string][]string) cxx.SymbolSet {
	out := cxx.NewSymbolSet()
	seen := make(map[string]bool, len(start))
	queue := slices.Clone(start)
	for _, f := range start {
		seen[f] = true
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		out.AddAll(declares[f])
		for _, inc := range includes[f] {
			if !seen[inc] {
				seen[inc] = true
				queue = append(queue, inc)
			}
		}
	}
	return out
}

func byID(nodes []graph.Node) {
	slices.SortFunc(nodes, func(a, b graph.Node) int {
		return int(a.ID() - b.ID())
	})
}

func cycleError(g *includeGraph, cycles topo.Unorderable) error {
	parts := make([]string, 0, len(cycles))
	for _, component := range cycles {
		paths := g.paths(component)
		slices.Sort(paths)
		parts = append(parts, "["+strings.Join(paths, ", ")+"]")
	}
	slices.Sort(parts)
	return fmt.Errorf("%w: %s", ErrIncludeCycle, strings.Join(parts, " "))
}
