// Package classify decides how a declared type depends on each symbol visible
// to it, by searching its inheritance clause and body text.
package classify

import (
	"regexp"
	"strings"
	"sync"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/typegraph"
)

// Classifier matches symbol names against declaration text. It caches one
// word-boundary pattern per name and is safe for concurrent use.
type Classifier struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{patterns: make(map[string]*regexp.Regexp)}
}

func (c *Classifier) pattern(name string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	re, ok := c.patterns[name]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		c.patterns[name] = re
	}
	return re
}

// Classify returns the dependency kind of block on every symbol in visible it
// refers to. A name found in the inheritance clause is Inheritance. Otherwise
// the body's ';'-separated statements are searched for the name as a whole
// word: if any matching statement contains a parenthesis the kind is
// MethodUsage, else Composition. Symbols not referenced are absent.
func (c *Classifier) Classify(block cxx.CodeBlock, visible []cxx.Symbol) map[cxx.Symbol]typegraph.EdgeKind {
	out := make(map[cxx.Symbol]typegraph.EdgeKind)
	var statements []string
	for _, sym := range visible {
		if block.Inheritance != "" && strings.Contains(block.Inheritance, sym.Name) {
			out[sym] = typegraph.Inheritance
			continue
		}
		if statements == nil {
			statements = strings.Split(block.Body, ";")
		}
		if kind, ok := c.bodyKind(statements, sym.Name); ok {
			out[sym] = kind
		}
	}
	return out
}

func (c *Classifier) bodyKind(statements []string, name string) (typegraph.EdgeKind, bool) {
	re := c.pattern(name)
	found := false
	for _, st := range statements {
		if !re.MatchString(st) {
			continue
		}
		if strings.ContainsAny(st, "()") {
			return typegraph.MethodUsage, true
		}
		found = true
	}
	if found {
		return typegraph.Composition, true
	}
	return 0, false
}

// Visible returns the symbols a type declared in file may depend on:
// the file's visible set and resolved forward declarations, without the
// symbols file itself declares.
func Visible(file string, visible cxx.SymbolSet, forward []cxx.Symbol) []cxx.Symbol {
	set := cxx.NewSymbolSet()
	for sym := range visible {
		if sym.File != file {
			set.Add(sym)
		}
	}
	for _, sym := range forward {
		if sym.File != file {
			set.Add(sym)
		}
	}
	return set.Sorted()
}

// Edges classifies every declaration of a file against its visible symbols.
func (c *Classifier) Edges(declares map[cxx.Symbol]cxx.CodeBlock, visible []cxx.Symbol) []typegraph.Edge {
	var out []typegraph.Edge
	for caller, block := range declares {
		for callee, kind := range c.Classify(block, visible) {
			out = append(out, typegraph.Edge{Caller: caller, Callee: callee, Kind: kind})
		}
	}
	return out
}
