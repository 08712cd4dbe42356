// Package scan discovers C/C++ sources below a set of roots and feeds them to
// a fixed pool of workers over a bounded queue.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers   = 7
	DefaultQueueSize = 7
)

// Scanner runs a function over every accepted file below its roots.
type Scanner struct {
	filter    *Filter
	workers   int
	queueSize int
}

// New creates a scanner. Non-positive sizes select the defaults.
func New(filter *Filter, workers, queueSize int) *Scanner {
	if filter == nil {
		filter = NewFilter(nil, nil)
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Scanner{filter: filter, workers: workers, queueSize: queueSize}
}

// Find returns every accepted path below roots, sorted.
func (s *Scanner) Find(roots []string) ([]string, error) {
	var out []string
	err := s.walk(roots, func(p string) error {
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Process walks roots on a producer goroutine and calls fn for each accepted
// path on one of the workers. The producer blocks while the queue is full.
// Process returns once every queued path was handled, or with the first error
// returned by fn or the walk; the remaining work is then abandoned.
func (s *Scanner) Process(ctx context.Context, roots []string, fn func(ctx context.Context, path string) error) error {
	g, ctx := errgroup.WithContext(ctx)
	paths := make(chan string, s.queueSize)

	g.Go(func() error {
		defer close(paths)
		return s.walk(roots, func(p string) error {
			select {
			case paths <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	for range s.workers {
		g.Go(func() error {
			for p := range paths {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(ctx, p); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Scanner) walk(roots []string, visit func(path string) error) error {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("scan root: %w", err)
		}
		if !info.IsDir() {
			if err := visit(root); err != nil {
				return err
			}
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			if d.IsDir() {
				if s.filter.SkipDir(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !s.filter.AcceptFile(rel) {
				return nil
			}
			return visit(p)
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return nil
}
