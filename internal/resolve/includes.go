package resolve

import (
	"log/slog"
	"maps"
	"slices"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/logging"
)

// Includes maps the included basenames of every file in raw to the paths of
// the scanned files carrying those names. Basenames matching no scanned file
// are dropped; a basename matching several files resolves to the first of
// them by path. The returned map holds only files with at least one resolved
// include.
func Includes(raw map[string][]string, files []cxx.SourceFile, logger *slog.Logger) map[string][]string {
	byName := make(map[string][]string)
	for _, f := range files {
		byName[f.Name()] = append(byName[f.Name()], f.Path)
	}
	for _, paths := range byName {
		slices.Sort(paths)
	}

	out := make(map[string][]string, len(raw))
	for _, file := range slices.Sorted(maps.Keys(raw)) {
		var resolved []string
		for _, name := range raw[file] {
			candidates := byName[name]
			switch len(candidates) {
			case 0:
				continue
			case 1:
			default:
				logger.Warn("include matches several files, using the first",
					"file", file, "include", name, "candidates", candidates,
					logging.Diagnostic(logging.AmbiguousInclude))
			}
			resolved = append(resolved, candidates[0])
		}
		if len(resolved) == 0 {
			continue
		}
		slices.Sort(resolved)
		out[file] = slices.Compact(resolved)
	}
	return out
}
