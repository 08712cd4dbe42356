package cxx

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// SourceKind classifies a source file by its extension.
type SourceKind int

const (
	SourceKindUnknown SourceKind = iota
	SourceKindHeader
	SourceKindImplementation
)

var (
	headerExt         = regexp.MustCompile(`^(?:\.h|\.hpp)$`)
	implementationExt = regexp.MustCompile(`^(?:\.c|\.cc|\.cpp|\.c\+\+)$`)
)

// KindOf maps a file extension (with the leading dot) to its SourceKind.
func KindOf(ext string) SourceKind {
	switch {
	case headerExt.MatchString(ext):
		return SourceKindHeader
	case implementationExt.MatchString(ext):
		return SourceKindImplementation
	}
	return SourceKindUnknown
}

func (k SourceKind) String() string {
	switch k {
	case SourceKindHeader:
		return "header"
	case SourceKindImplementation:
		return "implementation"
	default:
		return "unknown"
	}
}

// SourceFile represents one scanned C/C++ file.
type SourceFile struct {
	Path string
	Base string // filename without extension
	Kind SourceKind
}

// NewSourceFile derives the base name and kind of the file at path.
func NewSourceFile(path string) SourceFile {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	return SourceFile{
		Path: path,
		Base: strings.TrimSuffix(name, ext),
		Kind: KindOf(ext),
	}
}

// Name returns the filename including its extension.
func (f SourceFile) Name() string {
	return filepath.Base(f.Path)
}

// DeclKind is the keyword a type was declared with.
type DeclKind int

const (
	DeclEnum DeclKind = iota + 1
	DeclStruct
	DeclClass
)

var declKindNames = map[DeclKind]string{
	DeclEnum:   "ENUM",
	DeclStruct: "STRUCT",
	DeclClass:  "CLASS",
}

func (k DeclKind) String() string {
	if name, ok := declKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseDeclKeyword maps a declaration keyword ("class", "struct", "enum",
// "enum class") to its DeclKind.
func ParseDeclKeyword(keyword string) (DeclKind, bool) {
	switch strings.Join(strings.Fields(keyword), " ") {
	case "enum", "enum class":
		return DeclEnum, true
	case "struct":
		return DeclStruct, true
	case "class":
		return DeclClass, true
	}
	return 0, false
}

// ParseDeclKind parses the wire name produced by DeclKind.String.
func ParseDeclKind(name string) (DeclKind, bool) {
	for k, n := range declKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Symbol is a declared class, struct or enum. File is the path of the
// defining source file; it is empty for a forward declaration that has not
// been tied to a definition yet.
type Symbol struct {
	Name string
	Kind DeclKind
	File string
}

// IsForward reports whether s is an unresolved forward declaration.
func (s Symbol) IsForward() bool {
	return s.File == ""
}

// Unbound returns s without its owning file, the key forward declarations
// are matched on.
func (s Symbol) Unbound() Symbol {
	return Symbol{Name: s.Name, Kind: s.Kind}
}

func (s Symbol) String() string {
	if s.IsForward() {
		return s.Kind.String() + " " + s.Name
	}
	return s.Kind.String() + " " + s.Name + " (" + s.File + ")"
}

// Compare orders symbols by name, then kind, then file.
func Compare(a, b Symbol) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	return strings.Compare(a.File, b.File)
}

// CodeBlock is the lexical body of one type declaration.
type CodeBlock struct {
	Body        string // text between the declaration's braces
	Inheritance string // raw base clause such as ": public Base", empty if none
}

// SymbolSet is an unordered set of symbols.
type SymbolSet map[Symbol]struct{}

// NewSymbolSet returns a set holding syms.
func NewSymbolSet(syms ...Symbol) SymbolSet {
	s := make(SymbolSet, len(syms))
	for _, sym := range syms {
		s[sym] = struct{}{}
	}
	return s
}

func (s SymbolSet) Add(sym Symbol) {
	s[sym] = struct{}{}
}

func (s SymbolSet) Has(sym Symbol) bool {
	_, ok := s[sym]
	return ok
}

// AddAll merges other into s.
func (s SymbolSet) AddAll(other SymbolSet) {
	for sym := range other {
		s[sym] = struct{}{}
	}
}

// Clone returns a copy of s.
func (s SymbolSet) Clone() SymbolSet {
	out := make(SymbolSet, len(s))
	out.AddAll(s)
	return out
}

// Sorted returns the members of s ordered by Compare.
func (s SymbolSet) Sorted() []Symbol {
	out := make([]Symbol, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	slices.SortFunc(out, Compare)
	return out
}
