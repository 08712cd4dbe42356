// Package headers reports which headers of a project subdirectory are
// included from files outside it.
package headers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/extract"
	"cxx-typegraph-neo4j/internal/scan"
)

// ExtraExclude holds the exclusions applied on top of the configured ones:
// test sources and build output.
var ExtraExclude = []string{"build/", "*Test*"}

// Report maps each project header to the outside files including it.
// Headers are keyed "<parent dir>/<file name>", the form they are usually
// included by; includer paths are relative to the scanned root.
type Report struct {
	Used   map[string][]string
	Unused []string
}

// Scan finds the headers below subdir and the files outside it that include
// them. subdir is taken relative to root unless absolute.
func Scan(ctx context.Context, root, subdir string, scanner *scan.Scanner, logger *slog.Logger) (*Report, error) {
	if !filepath.IsAbs(subdir) {
		subdir = filepath.Join(root, subdir)
	}
	subdir = filepath.Clean(subdir)

	paths, err := scanner.Find([]string{root})
	if err != nil {
		return nil, err
	}
	project := make(map[string]bool)
	for _, p := range paths {
		if within(subdir, p) && cxx.NewSourceFile(p).Kind == cxx.SourceKindHeader {
			project[headerKey(p)] = true
		}
	}
	logger.Info("Project headers found", "subdir", subdir, "count", len(project))

	var mu sync.Mutex
	used := make(map[string][]string)
	err = scanner.Process(ctx, []string{root}, func(_ context.Context, p string) error {
		if within(subdir, p) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		rel := relPath(root, p)
		var hits []string
		for _, target := range extract.IncludeDirectives(extract.StripComments(strings.ToValidUTF8(string(data), ""))) {
			if project[target] {
				hits = append(hits, target)
			}
		}
		logger.Debug("Processed external file", "file", rel, "project_includes", len(hits))

		mu.Lock()
		defer mu.Unlock()
		for _, h := range hits {
			used[h] = append(used[h], rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &Report{Used: used}
	for h, includers := range used {
		slices.Sort(includers)
		used[h] = slices.Compact(includers)
	}
	for h := range project {
		if _, ok := used[h]; !ok {
			report.Unused = append(report.Unused, h)
		}
	}
	slices.Sort(report.Unused)
	return report, nil
}

// Write prints the report: unused headers first, then each used header with
// its includers.
func (r *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "unused headers:"); err != nil {
		return err
	}
	for _, h := range r.Unused {
		if _, err := fmt.Fprintf(w, "\t%s\n", h); err != nil {
			return err
		}
	}
	for _, h := range slices.Sorted(maps.Keys(r.Used)) {
		if _, err := fmt.Fprintf(w, "%s:\n", h); err != nil {
			return err
		}
		for _, src := range r.Used[h] {
			if _, err := fmt.Fprintf(w, "\t%s\n", src); err != nil {
				return err
			}
		}
	}
	return nil
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func headerKey(p string) string {
	return filepath.Base(filepath.Dir(p)) + "/" + filepath.Base(p)
}

func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
