package cxx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSourceFile(t *testing.T) {
	tests := []struct {
		path string
		base string
		kind SourceKind
	}{
		{"src/widget.h", "widget", SourceKindHeader},
		{"src/widget.hpp", "widget", SourceKindHeader},
		{"src/widget.cc", "widget", SourceKindImplementation},
		{"src/widget.cpp", "widget", SourceKindImplementation},
		{"src/widget.c", "widget", SourceKindImplementation},
		{"src/widget.c++", "widget", SourceKindImplementation},
		{"src/widget.hh", "widget", SourceKindUnknown},
		{"src/widget.txt", "widget", SourceKindUnknown},
		{"Makefile", "Makefile", SourceKindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := NewSourceFile(tt.path)
			assert.Equal(t, tt.path, f.Path)
			assert.Equal(t, tt.base, f.Base)
			assert.Equal(t, tt.kind, f.Kind)
		})
	}
}

func TestKindOf_RequiresFullMatch(t *testing.T) {
	assert.Equal(t, SourceKindUnknown, KindOf(".hxx"))
	assert.Equal(t, SourceKindUnknown, KindOf(".ccc"))
	assert.Equal(t, SourceKindUnknown, KindOf(""))
}

func TestParseDeclKeyword(t *testing.T) {
	for keyword, want := range map[string]DeclKind{
		"class":       DeclClass,
		"struct":      DeclStruct,
		"enum":        DeclEnum,
		"enum class":  DeclEnum,
		"enum  class": DeclEnum,
	} {
		got, ok := ParseDeclKeyword(keyword)
		assert.True(t, ok, keyword)
		assert.Equal(t, want, got, keyword)
	}

	_, ok := ParseDeclKeyword("union")
	assert.False(t, ok)
}

func TestDeclKindWireNames(t *testing.T) {
	for _, k := range []DeclKind{DeclEnum, DeclStruct, DeclClass} {
		parsed, ok := ParseDeclKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseDeclKind("UNION")
	assert.False(t, ok)
}

func TestSymbolEquality(t *testing.T) {
	a := Symbol{Name: "Foo", Kind: DeclClass, File: "a.h"}
	assert.Equal(t, a, Symbol{Name: "Foo", Kind: DeclClass, File: "a.h"})
	assert.NotEqual(t, a, Symbol{Name: "Foo", Kind: DeclStruct, File: "a.h"})
	assert.NotEqual(t, a, Symbol{Name: "Foo", Kind: DeclClass, File: "b.h"})

	fwd := a.Unbound()
	assert.True(t, fwd.IsForward())
	assert.False(t, a.IsForward())
	assert.Equal(t, Symbol{Name: "Foo", Kind: DeclClass}, fwd)
}

func TestSymbolSetSorted(t *testing.T) {
	s := NewSymbolSet(
		Symbol{Name: "B", Kind: DeclClass, File: "b.h"},
		Symbol{Name: "A", Kind: DeclStruct, File: "z.h"},
		Symbol{Name: "A", Kind: DeclStruct, File: "a.h"},
		Symbol{Name: "A", Kind: DeclEnum, File: "z.h"},
	)
	s.Add(Symbol{Name: "B", Kind: DeclClass, File: "b.h"})

	assert.Equal(t, []Symbol{
		{Name: "A", Kind: DeclEnum, File: "z.h"},
		{Name: "A", Kind: DeclStruct, File: "a.h"},
		{Name: "A", Kind: DeclStruct, File: "z.h"},
		{Name: "B", Kind: DeclClass, File: "b.h"},
	}, s.Sorted())

	clone := s.Clone()
	clone.Add(Symbol{Name: "C", Kind: DeclClass, File: "c.h"})
	assert.Len(t, s, 4)
	assert.Len(t, clone, 5)
}
