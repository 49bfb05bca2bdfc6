// Package ast holds the identifier-indirection types shared by js_ast and
// segment: a symbol table per source file, referenced everywhere else by a
// small Ref value instead of a bare string. This is esbuild's own design
// (internal/js_ast.Ref / Symbol / Scope, trimmed down to what a single-file,
// non-bundling pass needs): bundling-oriented fields (ChunkIndex, namespace
// aliases, minification slot assignment, CommonJS interop) are dropped since
// this module never links multiple files together (spec.md §1: "not a
// general bundler").
package ast

import "github.com/nota-dev/qrlc/internal/logger"

// Ref is a pointer into a single file's symbol table: (source, index).
// Two Refs are equal iff both fields match, which is exactly spec.md §3's
// definition of Identifier equality once combined with SyntaxContext via
// Symbol.Link (see SymbolMap.Follow).
type Ref struct {
	SourceIndex uint32
	InnerIndex  uint32
}

var InvalidRef = Ref{SourceIndex: 0xFFFFFFFF, InnerIndex: 0xFFFFFFFF}

func (r Ref) IsValid() bool { return r != InvalidRef }

// SymbolKind distinguishes the binding forms spec.md §3/§4.4 cares about:
// a "var"-kind declaration is capturable into a segment's scoped_idents; a
// function or class declaration is not.
type SymbolKind uint8

const (
	SymbolVar SymbolKind = iota
	SymbolHoistedFunction
	SymbolFunction
	SymbolClass
	SymbolImport
	SymbolUnbound
)

// IsCapturable reports whether a reference to a symbol of this kind may be
// lifted into a segment's runtime captures (spec.md §4.4 rule 2/invariant:
// "Every scoped_ident must resolve to a var-kind declaration").
func (k SymbolKind) IsCapturable() bool {
	return k == SymbolVar
}

type Symbol struct {
	OriginalName string
	Kind         SymbolKind
	// SyntaxContext is the hygiene mark from spec.md's Glossary: an opaque
	// tag distinguishing shadowing bindings that share OriginalName.
	SyntaxContext uint32
	DeclLoc       logger.Loc
	Link          Ref
}

// SymbolMap is one symbol slice per parsed file, mirroring esbuild's
// two-level array (SymbolsForSource). A segment-extraction pass only ever
// has one file loaded at a time (spec.md §5: "each file has its own
// collector, transformer, and segment list"), so in practice SourceIndex is
// always 0, but the shape is kept so a caller embedding multiple files (e.g.
// a future multi-file entry point) needs no redesign.
type SymbolMap struct {
	SymbolsForSource [][]Symbol
}

func NewSymbolMap(sourceCount int) SymbolMap {
	return SymbolMap{SymbolsForSource: make([][]Symbol, sourceCount)}
}

func (sm SymbolMap) Get(ref Ref) *Symbol {
	return &sm.SymbolsForSource[ref.SourceIndex][ref.InnerIndex]
}

// Follow resolves a symbol through any merge links (e.g. an entry created by
// ensure_import that later turns out to duplicate an existing one).
func (sm SymbolMap) Follow(ref Ref) Ref {
	for {
		sym := sm.Get(ref)
		if !sym.Link.IsValid() || sym.Link == ref {
			return ref
		}
		ref = sym.Link
	}
}
