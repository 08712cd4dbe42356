package extract

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/logging"
)

func parse(t *testing.T, path, src string) *Result {
	t.Helper()
	res, err := Parse(cxx.NewSourceFile(path), []byte(src), logging.NewDiscardLogger())
	require.NoError(t, err)
	return res
}

func TestStripComments(t *testing.T) {
	src := "int a; // trailing\n\n   // whole line\n  int b;  \nint c; // x // y\n"
	assert.Equal(t, "int a;\nint b;\nint c;", StripComments(src))
}

func TestStripComments_BlockCommentsAreKept(t *testing.T) {
	assert.Equal(t, "/* class Hidden { }; */", StripComments("/* class Hidden { }; */"))
}

func TestElideTemplates(t *testing.T) {
	assert.Equal(t, " class Box {};", ElideTemplates("template<typename T, int N> class Box {};"))
	assert.Equal(t, "class Box {};", ElideTemplates("template <class SeedSeq>class Box {};"))
}

// Nested template arguments closed by ">>" are a known limitation: the
// elision stops at the first '>' and leaves the second behind.
func TestElideTemplates_NestedClosingLimitation(t *testing.T) {
	got := ElideTemplates("template<typename T = std::vector<int>> class Box {};")
	assert.Equal(t, "> class Box {};", got)
}

func TestIncludes(t *testing.T) {
	res := parse(t, "src/a.cc", `
#include "widget.h"
#include "gui/panel.hpp"
#include <vector>
#include <sys/types.h>
#include  "widget.h"
// #include "commented.h"
`)
	assert.Equal(t, []string{"panel.hpp", "types.h", "widget.h"}, res.Includes)
}

func TestIncludeDirectives(t *testing.T) {
	got := IncludeDirectives("#include <gui/panel.hpp>\n#include \"a.h\"\n#include <map>")
	assert.Equal(t, []string{"gui/panel.hpp", "a.h", "map"}, got)
}

func TestForwardDeclarations(t *testing.T) {
	res := parse(t, "a.h", `
class Engine;
struct Wheel ;
enum class Color;
enum Mode;
class Engine;
class Car { Engine* engine; };
`)
	assert.Equal(t, []cxx.Symbol{
		{Name: "Color", Kind: cxx.DeclEnum},
		{Name: "Engine", Kind: cxx.DeclClass},
		{Name: "Mode", Kind: cxx.DeclEnum},
		{Name: "Wheel", Kind: cxx.DeclStruct},
	}, res.ForwardDecls)
}

func TestDeclarations(t *testing.T) {
	res := parse(t, "shapes.h", `
class Shape {
public:
  virtual double area() const = 0;
};
class Circle : public Shape {
  double radius; // meters
  struct Center { int x; int y; } center;
};
enum class Color { Red, Green };
template<typename T>
struct Holder { T value; };
`)
	require.Len(t, res.Declares, 5)

	shape := cxx.Symbol{Name: "Shape", Kind: cxx.DeclClass, File: "shapes.h"}
	circle := cxx.Symbol{Name: "Circle", Kind: cxx.DeclClass, File: "shapes.h"}
	center := cxx.Symbol{Name: "Center", Kind: cxx.DeclStruct, File: "shapes.h"}
	color := cxx.Symbol{Name: "Color", Kind: cxx.DeclEnum, File: "shapes.h"}
	holder := cxx.Symbol{Name: "Holder", Kind: cxx.DeclStruct, File: "shapes.h"}

	assert.Equal(t, "public:\nvirtual double area() const = 0;", res.Declares[shape].Body)
	assert.Empty(t, res.Declares[shape].Inheritance)

	assert.Equal(t, ": public Shape ", res.Declares[circle].Inheritance)
	assert.Contains(t, res.Declares[circle].Body, "struct Center { int x; int y; } center;")

	assert.Equal(t, "int x; int y;", res.Declares[center].Body)
	assert.Equal(t, "Red, Green", res.Declares[color].Body)
	assert.Equal(t, "T value;", res.Declares[holder].Body)
}

func TestUnterminatedBody(t *testing.T) {
	_, err := Parse(cxx.NewSourceFile("broken.h"), []byte("class Broken {\n int x;\n"), logging.NewDiscardLogger())
	require.ErrorIs(t, err, ErrUnterminatedBody)
	assert.Contains(t, err.Error(), "broken.h")
	assert.Contains(t, err.Error(), "Broken")
}

func TestUnknownExtensionWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&buf, slog.LevelWarn, logging.FormatText)

	res, err := Parse(cxx.NewSourceFile("weird.inl"), []byte("class Inline {};"), logger)
	require.NoError(t, err)
	assert.Len(t, res.Declares, 1)
	assert.Contains(t, buf.String(), "warning="+logging.UnknownExtension)
}

func TestInvalidUTF8IsDropped(t *testing.T) {
	src := []byte("class Caf\xff\xfeWidget { int a; };")
	res := parse(t, "a.h", string(src))
	require.Len(t, res.Declares, 1)
	assert.Contains(t, res.Declares, cxx.Symbol{Name: "CafWidget", Kind: cxx.DeclClass, File: "a.h"})
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thing.hpp")
	require.NoError(t, os.WriteFile(path, []byte("#include \"other.h\"\nstruct Thing { Other o; };\n"), 0o644))

	res, err := File(path, logging.NewDiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, cxx.SourceKindHeader, res.File.Kind)
	assert.Equal(t, []string{"other.h"}, res.Includes)
	assert.Contains(t, res.Declares, cxx.Symbol{Name: "Thing", Kind: cxx.DeclStruct, File: path})

	_, err = File(filepath.Join(t.TempDir(), "missing.h"), logging.NewDiscardLogger())
	assert.Error(t, err)
}
