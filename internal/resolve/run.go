// Package resolve turns per-file extraction results into the symbols visible
// to each file: include resolution, the include closure, header pairing and
// forward declaration substitution.
package resolve

import (
	"log/slog"

	"cxx-typegraph-neo4j/internal/cxx"
)

// Input is the joined output of extraction over a whole scan.
type Input struct {
	Files        []cxx.SourceFile
	Declares     map[string]cxx.SymbolSet // file -> declared symbols
	Includes     map[string][]string      // file -> included basenames
	ForwardDecls map[string][]cxx.Symbol  // file -> unbound forward declarations
}

// Result holds every resolution stage's output. Maps are keyed by file path.
type Result struct {
	Includes     map[string][]string
	Closure      map[string]cxx.SymbolSet
	Pairs        map[string]string // implementation -> header
	Visible      map[string]cxx.SymbolSet
	ForwardDecls map[string][]cxx.Symbol
}

// Run resolves in.
func Run(in Input, logger *slog.Logger) (*Result, error) {
	includes := Includes(in.Includes, in.Files, logger)
	closure, err := Closure(in.Declares, includes)
	if err != nil {
		return nil, err
	}
	pairs := PairHeaders(in.Files, logger)
	CheckPairs(pairs, includes, logger)
	visible := Deferred(closure, pairs)

	return &Result{
		Includes:     includes,
		Closure:      closure,
		Pairs:        pairs,
		Visible:      visible,
		ForwardDecls: ForwardDecls(in.ForwardDecls, visible, logger),
	}, nil
}
