package resolve

import (
	"log/slog"
	"maps"
	"slices"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/logging"
)

// ForwardDecls replaces every forward declaration with the concrete symbol of
// the same name and kind visible to the declaring file. Declarations with no
// visible match are dropped. When several visible symbols match, the first in
// symbol order is used.
func ForwardDecls(fwd map[string][]cxx.Symbol, visible map[string]cxx.SymbolSet, logger *slog.Logger) map[string][]cxx.Symbol {
	out := make(map[string][]cxx.Symbol, len(fwd))
	for _, file := range slices.Sorted(maps.Keys(fwd)) {
		decls := fwd[file]
		if len(decls) == 0 {
			continue
		}

		index := make(map[cxx.Symbol][]cxx.Symbol)
		for _, sym := range visible[file].Sorted() {
			key := sym.Unbound()
			index[key] = append(index[key], sym)
		}

		resolved := cxx.NewSymbolSet()
		for _, decl := range decls {
			matches := index[decl.Unbound()]
			switch len(matches) {
			case 0:
				logger.Warn("forward declaration has no visible definition",
					"file", file, "symbol", decl.String(),
					logging.Diagnostic(logging.UnresolvedForwardDecl))
				continue
			case 1:
			default:
				logger.Warn("forward declaration matches several definitions, using the first",
					"file", file, "symbol", decl.String(), "chosen", matches[0].File,
					logging.Diagnostic(logging.SymbolConflict))
			}
			resolved.Add(matches[0])
		}
		if len(resolved) > 0 {
			out[file] = resolved.Sorted()
		}
	}
	return out
}
