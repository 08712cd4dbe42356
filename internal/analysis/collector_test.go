package analysis

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/extract"
	"cxx-typegraph-neo4j/internal/logging"
	"cxx-typegraph-neo4j/internal/metrics"
	"cxx-typegraph-neo4j/internal/resolve"
	"cxx-typegraph-neo4j/internal/testutil"
	"cxx-typegraph-neo4j/internal/typegraph"
)

func analyze(t *testing.T, archive string) (*typegraph.Graph, string, error) {
	t.Helper()
	root := testutil.WriteTree(t, archive)
	g, err := Analyze(context.Background(), []string{root}, Options{Logger: logging.NewDiscardLogger()})
	return g, root, err
}

func sym(root, name string, kind cxx.DeclKind, file string) cxx.Symbol {
	return cxx.Symbol{Name: name, Kind: kind, File: testutil.Path(root, file)}
}

func TestAnalyze_InheritanceFromIncludedHeader(t *testing.T) {
	g, root, err := analyze(t, `
-- a.h --
#include "b.h"
class A : public B { B* field; };
-- b.h --
class B {};
`)
	require.NoError(t, err)

	a := sym(root, "A", cxx.DeclClass, "a.h")
	b := sym(root, "B", cxx.DeclClass, "b.h")
	assert.Equal(t, []cxx.Symbol{a, b}, g.Nodes)
	assert.Equal(t, []typegraph.Edge{{Caller: a, Callee: b, Kind: typegraph.Inheritance}}, g.Edges)
}

func TestAnalyze_MethodParameter(t *testing.T) {
	g, root, err := analyze(t, `
-- a.h --
#include "b.h"
class A { void doIt(B b); };
-- b.h --
class B {};
`)
	require.NoError(t, err)

	a := sym(root, "A", cxx.DeclClass, "a.h")
	b := sym(root, "B", cxx.DeclClass, "b.h")
	assert.Equal(t, []typegraph.Edge{{Caller: a, Callee: b, Kind: typegraph.MethodUsage}}, g.Edges)
}

func TestAnalyze_ForwardDeclarationThroughTransitiveInclude(t *testing.T) {
	g, root, err := analyze(t, `
-- a.cc --
#include "a.h"
class C;
struct Impl { C* c; };
-- a.h --
#include "b.h"
class A {};
-- b.h --
#include "c.h"
-- c.h --
class C {};
`)
	require.NoError(t, err)

	c := sym(root, "C", cxx.DeclClass, "c.h")
	impl := sym(root, "Impl", cxx.DeclStruct, "a.cc")
	assert.Equal(t, []cxx.Symbol{sym(root, "A", cxx.DeclClass, "a.h"), c, impl}, g.Nodes)
	assert.Equal(t, []typegraph.Edge{{Caller: impl, Callee: c, Kind: typegraph.Composition}}, g.Edges)
	for _, n := range g.Nodes {
		assert.False(t, n.IsForward())
	}
}

func TestAnalyze_ImplementationSeesPairedHeader(t *testing.T) {
	root := testutil.WriteTree(t, `
-- src/engine.cpp --
struct Runner { Engine* engine; };
-- include/engine.h --
#include "part.h"
class Engine { Part part; };
-- include/part.h --
struct Part {};
`)
	var buf bytes.Buffer
	logger := logging.NewLogger(&buf, slog.LevelWarn, logging.FormatText)
	g, err := Analyze(context.Background(), []string{root}, Options{Logger: logger})
	require.NoError(t, err)

	runner := sym(root, "Runner", cxx.DeclStruct, "src/engine.cpp")
	engine := sym(root, "Engine", cxx.DeclClass, "include/engine.h")
	part := sym(root, "Part", cxx.DeclStruct, "include/part.h")
	assert.Equal(t, []typegraph.Edge{
		{Caller: engine, Callee: part, Kind: typegraph.Composition},
		{Caller: runner, Callee: engine, Kind: typegraph.Composition},
	}, g.Edges)
	assert.Contains(t, buf.String(), "warning="+logging.MissingHeaderInclude)
}

func TestAnalyze_NoIntraFileEdges(t *testing.T) {
	g, _, err := analyze(t, `
-- shapes.h --
class Point {};
class Line { Point a; Point b; };
`)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Edges)
	assert.Len(t, g.Isolated(), 2)
}

func TestAnalyze_IncludeCycleIsFatal(t *testing.T) {
	_, _, err := analyze(t, `
-- a.h --
#include "b.h"
class A {};
-- b.h --
#include "a.h"
class B {};
`)
	assert.ErrorIs(t, err, resolve.ErrIncludeCycle)
}

func TestAnalyze_GuardedUmbrellaHeader(t *testing.T) {
	g, root, err := analyze(t, `
-- all.h --
#ifndef ALL_H
#define ALL_H
#include "shape.h"
#endif
-- shape.h --
#include "all.h"
class Shape {};
-- canvas.h --
#include "all.h"
class Canvas { Shape shape; };
`)
	require.NoError(t, err)

	canvas := sym(root, "Canvas", cxx.DeclClass, "canvas.h")
	shape := sym(root, "Shape", cxx.DeclClass, "shape.h")
	assert.Equal(t, []typegraph.Edge{{Caller: canvas, Callee: shape, Kind: typegraph.Composition}}, g.Edges)
}

func TestAnalyze_UnterminatedBodyIsFatal(t *testing.T) {
	_, _, err := analyze(t, `
-- ok.h --
class Ok {};
-- broken.h --
class Broken {
  int x;
`)
	require.ErrorIs(t, err, extract.ErrUnterminatedBody)
	assert.Contains(t, err.Error(), "broken.h")
}

func TestAnalyze_DuplicateTypeNamesAreFatal(t *testing.T) {
	_, _, err := analyze(t, `
-- net/util.h --
class Util {};
-- gfx/util.h --
class Util {};
`)
	assert.ErrorIs(t, err, typegraph.ErrNameConflict)
}

const project = `
-- include/shape.h --
#include "color.h"
class Shape {
public:
  virtual double area() const = 0;
  Color color;
};
-- include/color.h --
enum class Color { Red, Green };
-- include/circle.h --
#include "shape.h"
#include <vector>
class Canvas;
class Circle : public Shape {
  double radius;
  bool drawOn(Canvas* canvas);
};
-- src/circle.cpp --
#include "circle.h"
struct CircleCache { Circle* last; std::vector<Circle> all; };
-- src/canvas.h --
#include "circle.h"
class Canvas { Circle* circles; void clear(Color c); };
-- tests/ignored.h --
class Ignored { Shape s; };
`

func TestAnalyze_Idempotent(t *testing.T) {
	root := testutil.WriteTree(t, project)
	opts := Options{Logger: logging.NewDiscardLogger()}

	first, err := Analyze(context.Background(), []string{root}, opts)
	require.NoError(t, err)
	second, err := Analyze(context.Background(), []string{root}, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	names := make([]string, 0, len(first.Nodes))
	for _, n := range first.Nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Canvas", "Circle", "CircleCache", "Color", "Shape"}, names)

	circle, _ := first.NodeByName("Circle")
	shape, _ := first.NodeByName("Shape")
	canvas, _ := first.NodeByName("Canvas")
	color, _ := first.NodeByName("Color")
	cache, _ := first.NodeByName("CircleCache")
	// circle.h cannot see Canvas, so its forward declaration is dropped.
	assert.Equal(t, []typegraph.Edge{
		{Caller: canvas, Callee: circle, Kind: typegraph.Composition},
		{Caller: canvas, Callee: color, Kind: typegraph.MethodUsage},
		{Caller: circle, Callee: shape, Kind: typegraph.Inheritance},
		{Caller: cache, Callee: circle, Kind: typegraph.Composition},
		{Caller: shape, Callee: color, Kind: typegraph.Composition},
	}, first.Edges)
}

func TestAnalyze_Metrics(t *testing.T) {
	root := testutil.WriteTree(t, project)
	m := metrics.New()
	logger := slog.New(logging.NewCountingHandler(logging.NewDiscardLogger().Handler(), m.Warning))

	_, err := Analyze(context.Background(), []string{root}, Options{Logger: logger, Metrics: m, Workers: 2, QueueSize: 1})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "typegraph.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "typegraph_files_scanned_total 5")
	assert.Contains(t, out, "typegraph_symbols_total 5")
	assert.Contains(t, out, `typegraph_edges_total{kind="composition"} 3`)
	assert.Contains(t, out, `typegraph_warnings_total{kind="unresolved_forward_decl"} 1`)
	assert.Contains(t, out, `typegraph_stage_duration_seconds_count{stage="resolve"} 1`)
}

func TestCollector_Stages(t *testing.T) {
	root := testutil.WriteTree(t, project)
	c := NewCollector(Options{Logger: logging.NewDiscardLogger()})
	require.NotEmpty(t, c.RunID)

	require.NoError(t, c.CollectSources(context.Background(), []string{root}))
	assert.Len(t, c.Files, 5)
	assert.Len(t, c.Declares, 5)
	assert.Equal(t, []string{"shape.h"}, c.Includes[testutil.Path(root, "include/circle.h")])

	require.NoError(t, c.Resolve())
	assert.Equal(t,
		map[string]string{testutil.Path(root, "src/circle.cpp"): testutil.Path(root, "include/circle.h")},
		c.Resolved.Pairs)

	c.CollectDependencies()
	assert.Len(t, c.Edges, 5)
	assert.Len(t, c.Symbols(), 5)
}
