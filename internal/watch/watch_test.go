package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxx-typegraph-neo4j/internal/logging"
	"cxx-typegraph-neo4j/internal/scan"
	"cxx-typegraph-neo4j/internal/testutil"
)

func TestRun_DebouncesSourceChanges(t *testing.T) {
	root := testutil.WriteTree(t, `
-- src/a.h --
class A {};
-- tests/t.h --
`)
	w, err := New([]string{root}, scan.NewFilter(nil, nil), 100*time.Millisecond, logging.NewDiscardLogger())
	require.NoError(t, err)
	defer w.Close()

	var mu sync.Mutex
	var seen []string
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			seen = append(seen, changed...)
			return nil
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tests", "t.h"), []byte("class T {};"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.h"), []byte("class A { int x; };"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "b.cpp"), []byte("#include \"a.h\""), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, seen)
	assert.Subset(t, []string{
		filepath.Join(root, "src", "a.h"),
		filepath.Join(root, "src", "b.cpp"),
	}, seen)
	assert.NotContains(t, seen, filepath.Join(root, "notes.txt"))
	assert.NotContains(t, seen, filepath.Join(root, "tests", "t.h"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	w, err := New([]string{root}, scan.NewFilter(nil, nil), time.Second, logging.NewDiscardLogger())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx, func(context.Context, []string) error {
		t.Fatal("no change expected")
		return nil
	}))
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "nope")}, scan.NewFilter(nil, nil), time.Second, logging.NewDiscardLogger())
	assert.Error(t, err)
}
