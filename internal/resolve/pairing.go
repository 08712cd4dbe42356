package resolve

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/logging"
)

// PairHeaders pairs implementation files with the header sharing their base
// name. The result maps an implementation path to its header path.
//
// Groups of more than two files and groups with several headers or several
// implementations are reported; such a group still pairs its first header
// with its first implementation by path.
func PairHeaders(files []cxx.SourceFile, logger *slog.Logger) map[string]string {
	groups := make(map[string][]cxx.SourceFile)
	for _, f := range files {
		if f.Kind == cxx.SourceKindUnknown {
			continue
		}
		groups[f.Base] = append(groups[f.Base], f)
	}

	pairs := make(map[string]string)
	for _, base := range slices.Sorted(maps.Keys(groups)) {
		group := groups[base]
		slices.SortFunc(group, func(a, b cxx.SourceFile) int {
			return strings.Compare(a.Path, b.Path)
		})

		var headers, impls []string
		for _, f := range group {
			if f.Kind == cxx.SourceKindHeader {
				headers = append(headers, f.Path)
			} else {
				impls = append(impls, f.Path)
			}
		}

		if len(group) > 2 {
			logger.Warn("several files share a base name",
				"base", base, "files", len(group),
				logging.Diagnostic(logging.DuplicateBasename))
		}
		if len(headers) > 1 || len(impls) > 1 {
			logger.Warn("base name has more than one header or implementation",
				"base", base, "headers", headers, "implementations", impls,
				logging.Diagnostic(logging.PairingViolation))
		}
		if len(headers) > 0 && len(impls) > 0 {
			pairs[impls[0]] = headers[0]
		}
	}
	return pairs
}

// CheckPairs reports implementations that do not include their paired header.
// includes holds resolved includes (see Includes).
func CheckPairs(pairs map[string]string, includes map[string][]string, logger *slog.Logger) {
	for _, impl := range slices.Sorted(maps.Keys(pairs)) {
		header := pairs[impl]
		if slices.Contains(includes[impl], header) {
			continue
		}
		logger.Warn("implementation does not include its header",
			"file", impl, "header", header,
			logging.Diagnostic(logging.MissingHeaderInclude))
	}
}

// Deferred returns the symbols visible to each file: its closure, plus the
// closure of its paired header for an implementation.
func Deferred(closure map[string]cxx.SymbolSet, pairs map[string]string) map[string]cxx.SymbolSet {
	out := make(map[string]cxx.SymbolSet, len(closure)+len(pairs))
	for f, syms := range closure {
		out[f] = syms.Clone()
	}
	for impl, header := range pairs {
		set, ok := out[impl]
		if !ok {
			set = cxx.NewSymbolSet()
			out[impl] = set
		}
		set.AddAll(closure[header])
	}
	return out
}
