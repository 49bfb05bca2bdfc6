// Package segment is the compiler core: it walks a parsed file once to
// collect its module-level bindings (collector.go), then folds the tree
// while maintaining the naming-context and declaration-scope state described
// by SPEC_FULL.md §4.2-§4.4, extracting every `$`-marked closure into its own
// module and replacing the call site with a QRL constructor call.
//
// The overall shape — a Collector built once per file, a Transformer that
// owns it and mutates it only through documented operations, segments
// accumulated in source order — mirrors esbuild's own linker/resolver split
// (internal/bundler building a module graph once, internal/linker mutating
// it under single ownership during the bundle pass).
package segment

import (
	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/logger"
)

type ImportKind uint8

const (
	ImportNamed ImportKind = iota
	ImportDefault
	ImportNamespace
)

// ImportRecord is spec.md §3's Import record.
type ImportRecord struct {
	Source     string
	Specifier  string
	Kind       ImportKind
	Synthetic  bool
}

type importKey struct {
	specifier string
	source    string
}

// Collector is the global, read-only-except-through-its-own-methods pass
// from spec.md §4.1: every top-level import/export/declaration in the file,
// plus a reverse (specifier,source)->id index backing ensure_import.
type Collector struct {
	Imports map[ast.Ref]ImportRecord
	Exports map[ast.Ref]string // alias; "" means "no rename, use OriginalName"
	Roots   map[ast.Ref]logger.Range

	reverse map[importKey]ast.Ref
	symbols *ast.SymbolMap
	newSym  func(name string, kind ast.SymbolKind) ast.Ref
	names   nameGenerator
}

// nameGenerator is implemented by internal/renamer.NameGenerator; declared as
// an interface here so this package doesn't need to import renamer just for
// a single method.
type nameGenerator interface {
	Next(base string) string
}

func NewCollector(tree js_ast.AST, symbols *ast.SymbolMap, newSym func(name string, kind ast.SymbolKind) ast.Ref, names nameGenerator) *Collector {
	c := &Collector{
		Imports: make(map[ast.Ref]ImportRecord),
		Exports: make(map[ast.Ref]string),
		Roots:   make(map[ast.Ref]logger.Range),
		reverse: make(map[importKey]ast.Ref),
		symbols: symbols,
		newSym:  newSym,
		names:   names,
	}
	c.collect(tree)
	return c
}

func (c *Collector) collect(tree js_ast.AST) {
	for _, stmt := range tree.Stmts {
		c.collectStmt(stmt)
	}
}

func (c *Collector) collectStmt(stmt js_ast.Stmt) {
	switch v := stmt.Data.(type) {
	case *js_ast.SImport:
		for _, item := range v.Items {
			var kind ImportKind
			specifier := item.Alias
			switch item.Kind {
			case js_ast.ImportDefault:
				kind = ImportDefault
				specifier = "default"
			case js_ast.ImportStar:
				kind = ImportNamespace
				specifier = "*"
			default:
				kind = ImportNamed
			}
			c.Imports[item.Name.Ref] = ImportRecord{Source: v.Source, Specifier: specifier, Kind: kind, Synthetic: v.IsSynthetic}
			key := importKey{specifier: specifier, source: v.Source}
			if _, ok := c.reverse[key]; !ok {
				c.reverse[key] = item.Name.Ref
			}
		}

	case *js_ast.SVarDecl:
		for _, decl := range v.Decls {
			c.collectBindingRoots(decl.Binding, v.IsExport)
		}

	case *js_ast.SFunction:
		if v.Fn.Name != nil {
			ref := v.Fn.Name.Ref
			c.Roots[ref] = logger.Range{Loc: v.Fn.Name.Loc}
			if v.IsDefaultExport {
				c.Exports[ref] = "default"
			} else if v.IsExport {
				c.Exports[ref] = ""
			}
		}

	case *js_ast.SClass:
		if v.Class.Name != nil {
			ref := v.Class.Name.Ref
			c.Roots[ref] = logger.Range{Loc: v.Class.Name.Loc}
			if v.IsDefaultExport {
				c.Exports[ref] = "default"
			} else if v.IsExport {
				c.Exports[ref] = ""
			}
		}

	case *js_ast.SExportClause:
		for _, item := range v.Items {
			if _, isRoot := c.Roots[item.Name.Ref]; isRoot {
				alias := item.Alias
				if alias == c.symbols.Get(item.Name.Ref).OriginalName {
					alias = ""
				}
				c.Exports[item.Name.Ref] = alias
			}
		}

	case *js_ast.SExportDefault:
		// A default-exported expression introduces no local binding of its
		// own (spec.md §4.1 collector rules enumerate var/function/class/enum
		// only); nothing to record here.
	}
}

// collectBindingRoots walks a (possibly destructured) declaration binding,
// adding every bound name as a root and, when isExport is set, as an export
// with no rename (spec.md §4.1: "Destructuring patterns on exported var
// declarations contribute every bound name as an export with no rename").
func (c *Collector) collectBindingRoots(b js_ast.Binding, isExport bool) {
	switch v := b.Data.(type) {
	case *js_ast.BIdentifier:
		c.Roots[v.Ref] = logger.Range{Loc: b.Loc}
		if isExport {
			c.Exports[v.Ref] = ""
		}
	case *js_ast.BArray:
		for _, item := range v.Items {
			c.collectBindingRoots(item.Binding, isExport)
		}
	case *js_ast.BObject:
		for _, prop := range v.Properties {
			c.collectBindingRoots(prop.Value, isExport)
		}
		if v.HasRest {
			c.Roots[v.RestRef] = logger.Range{}
			if isExport {
				c.Exports[v.RestRef] = ""
			}
		}
	}
}

// IsGlobal reports whether id is a module-level binding: an import, an
// export, or a root declaration (spec.md §4.1's is_global).
func (c *Collector) IsGlobal(ref ast.Ref) bool {
	if _, ok := c.Imports[ref]; ok {
		return true
	}
	if _, ok := c.Exports[ref]; ok {
		return true
	}
	if _, ok := c.Roots[ref]; ok {
		return true
	}
	return false
}

// EnsureImport returns the existing local binding for (specifier, source) if
// one exists, otherwise mints a fresh hygienic binding and a synthetic
// import record (spec.md §4.1/§3: "Import records are deduplicated").
func (c *Collector) EnsureImport(specifier, source string) ast.Ref {
	key := importKey{specifier: specifier, source: source}
	if ref, ok := c.reverse[key]; ok {
		return ref
	}
	localName := c.names.Next(syntheticLocalName(specifier))
	ref := c.newSym(localName, ast.SymbolImport)
	kind := ImportNamed
	switch specifier {
	case "default":
		kind = ImportDefault
	case "*":
		kind = ImportNamespace
	}
	c.Imports[ref] = ImportRecord{Source: source, Specifier: specifier, Kind: kind, Synthetic: true}
	c.reverse[key] = ref
	return ref
}

// AddExport inserts an export record only if absent, reporting whether an
// insertion occurred (spec.md §4.1's add_export).
func (c *Collector) AddExport(ref ast.Ref, alias string) bool {
	if _, ok := c.Exports[ref]; ok {
		return false
	}
	c.Exports[ref] = alias
	return true
}

func syntheticLocalName(specifier string) string {
	if specifier == "*" || specifier == "default" {
		return "_mod"
	}
	return "_" + specifier
}
