package scan

import (
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExtensions lists the source extensions scanned when none are
// configured.
var DefaultExtensions = []string{".h", ".hpp", ".c", ".cc", ".cpp"}

// DefaultExclude holds the gitignore-style patterns pruned by default.
var DefaultExclude = []string{"tests/", ".git/"}

// Filter decides which files under a root are scanned.
type Filter struct {
	extensions []string
	ignore     *ignore.GitIgnore
}

// NewFilter builds a filter from an extension allow-list and gitignore-style
// exclusion lines. Nil arguments select the defaults.
func NewFilter(extensions, exclude []string) *Filter {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	if exclude == nil {
		exclude = DefaultExclude
	}
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return &Filter{
		extensions: exts,
		ignore:     ignore.CompileIgnoreLines(exclude...),
	}
}

// AcceptFile reports whether the file at the root-relative path rel is
// scanned.
func (f *Filter) AcceptFile(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	if !slices.Contains(f.extensions, ext) {
		return false
	}
	return !f.ignore.MatchesPath(filepath.ToSlash(rel))
}

// SkipDir reports whether the directory at the root-relative path rel is
// pruned.
func (f *Filter) SkipDir(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	return f.ignore.MatchesPath(filepath.ToSlash(rel) + "/")
}
