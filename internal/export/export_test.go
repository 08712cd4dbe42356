package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/typegraph"
)

func sampleGraph() *typegraph.Graph {
	shape := cxx.Symbol{Name: "Shape", Kind: cxx.DeclClass, File: "include/shape.h"}
	circle := cxx.Symbol{Name: "Circle", Kind: cxx.DeclClass, File: "include/circle.h"}
	color := cxx.Symbol{Name: "Color", Kind: cxx.DeclEnum, File: "include/color.h"}
	return typegraph.New(
		[]cxx.Symbol{shape, circle, color},
		[]typegraph.Edge{
			{Caller: circle, Callee: shape, Kind: typegraph.Inheritance},
			{Caller: shape, Callee: color, Kind: typegraph.Composition},
		},
	)
}

func TestWriteReadDir(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := filepath.Join(t.TempDir(), "out")
		g := sampleGraph()

		paths, err := WriteDir(dir, g, compress)
		require.NoError(t, err)
		require.Len(t, paths, 2)
		for _, p := range paths {
			assert.FileExists(t, p)
			assert.Equal(t, compress, filepath.Ext(p) == ".zst")
		}

		got, err := ReadDir(dir)
		require.NoError(t, err)
		assert.Equal(t, g, got)
	}
}

func TestWriteDir_ReplacesOtherVariant(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteDir(dir, typegraph.New(nil, nil), false)
	require.NoError(t, err)

	g := sampleGraph()
	_, err = WriteDir(dir, g, true)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, NodesFile))

	got, err := ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestWriteDir_PlainFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteDir(dir, sampleGraph(), false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, EdgesFile))
	require.NoError(t, err)
	assert.Equal(t,
		`{"caller":"Circle","callee":"Shape","refType":"INHERITANCE"}`+"\n"+
			`{"caller":"Shape","callee":"Color","refType":"COMPOSITION"}`+"\n",
		string(data))
}

func TestReadDir_Missing(t *testing.T) {
	_, err := ReadDir(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
