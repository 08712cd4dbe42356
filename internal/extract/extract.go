// Package extract scans a single C/C++ source file with regular expressions
// and reports the types it declares, the headers it includes and the types it
// forward declares. It does not parse C++; the patterns below are the whole
// grammar it understands.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"

	"cxx-typegraph-neo4j/internal/cxx"
	"cxx-typegraph-neo4j/internal/logging"
)

// ErrUnterminatedBody is returned when a declaration's opening brace is never
// balanced.
var ErrUnterminatedBody = errors.New("unterminated declaration body")

var (
	includePattern  = regexp.MustCompile(`#include\s+["<](.*)[">]`)
	fwdDeclPattern  = regexp.MustCompile(`(class|struct|enum(?: class)?) +([_a-zA-Z][_a-zA-Z0-9]*)\s*;`)
	typeDeclPattern = regexp.MustCompile(`(class|struct|enum(?: class)?) +([_a-zA-Z][_a-zA-Z0-9]*)\s*(:[^{]+)?\{`)

	// Stops at the first '>', so "template<typename T = vector<int>>" leaves a
	// stray '>' behind.
	templatePattern = regexp.MustCompile(`template\s*<[^>]*>`)
)

// Result holds everything extracted from one file.
type Result struct {
	File         cxx.SourceFile
	Declares     map[cxx.Symbol]cxx.CodeBlock
	Includes     []string     // basenames of included files, sorted
	ForwardDecls []cxx.Symbol // unbound symbols, sorted
}

// File reads and parses the file at p.
func File(p string, logger *slog.Logger) (*Result, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return Parse(cxx.NewSourceFile(p), data, logger)
}

// Parse extracts declarations, includes and forward declarations from data.
func Parse(file cxx.SourceFile, data []byte, logger *slog.Logger) (*Result, error) {
	if file.Kind == cxx.SourceKindUnknown {
		logger.Warn("source file has no recognized extension",
			"file", file.Path, logging.Diagnostic(logging.UnknownExtension))
	}

	code := Preprocess(data)
	res := &Result{
		File:         file,
		Declares:     make(map[cxx.Symbol]cxx.CodeBlock),
		Includes:     includedBasenames(code),
		ForwardDecls: forwardDecls(code),
	}
	if err := declarations(code, file, res.Declares, logger); err != nil {
		return nil, err
	}
	return res, nil
}

// Preprocess decodes data, strips line comments and blank lines, and elides
// template parameter lists.
func Preprocess(data []byte) string {
	return ElideTemplates(StripComments(strings.ToValidUTF8(string(data), "")))
}

// StripComments truncates every line at its first "//", trims it, and drops
// lines left empty.
func StripComments(code string) string {
	lines := strings.Split(code, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// ElideTemplates removes "template<...>" spans.
func ElideTemplates(code string) string {
	return templatePattern.ReplaceAllString(code, "")
}

// IncludeDirectives returns the raw targets of every #include in code, in
// order of appearance.
func IncludeDirectives(code string) []string {
	var out []string
	for _, m := range includePattern.FindAllStringSubmatch(code, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func includedBasenames(code string) []string {
	var out []string
	for _, target := range IncludeDirectives(code) {
		base := path.Base(strings.ReplaceAll(target, `\`, "/"))
		if ext := path.Ext(base); ext == "" || ext == base {
			continue
		}
		out = append(out, base)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func forwardDecls(code string) []cxx.Symbol {
	seen := cxx.NewSymbolSet()
	for _, m := range fwdDeclPattern.FindAllStringSubmatch(code, -1) {
		kind, ok := cxx.ParseDeclKeyword(m[1])
		if !ok {
			continue
		}
		seen.Add(cxx.Symbol{Name: m[2], Kind: kind})
	}
	if len(seen) == 0 {
		return nil
	}
	return seen.Sorted()
}

func declarations(code string, file cxx.SourceFile, into map[cxx.Symbol]cxx.CodeBlock, logger *slog.Logger) error {
	for _, loc := range typeDeclPattern.FindAllStringSubmatchIndex(code, -1) {
		keyword := code[loc[2]:loc[3]]
		name := code[loc[4]:loc[5]]
		if strings.TrimSpace(name) == "" {
			logger.Warn("declaration has no name",
				"file", file.Path, "head", code[loc[0]:loc[1]],
				logging.Diagnostic(logging.InvalidDeclaration))
			continue
		}
		kind, ok := cxx.ParseDeclKeyword(keyword)
		if !ok {
			logger.Warn("declaration keyword not recognized",
				"file", file.Path, "keyword", keyword,
				logging.Diagnostic(logging.InvalidDeclaration))
			continue
		}

		sym := cxx.Symbol{Name: name, Kind: kind, File: file.Path}
		body, ok := braceBody(code[loc[1]:])
		if !ok {
			// Fails the whole run, not just this declaration.
			return fmt.Errorf("%s: %s: %w", file.Path, sym.Name, ErrUnterminatedBody)
		}
		var inheritance string
		if loc[6] >= 0 {
			inheritance = code[loc[6]:loc[7]]
		}
		into[sym] = cxx.CodeBlock{Body: body, Inheritance: inheritance}
	}
	return nil
}

// braceBody returns the text up to the brace closing an already opened one.
func braceBody(code string) (string, bool) {
	depth := 1
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(code[:i]), true
			}
		}
	}
	return "", false
}
