package segment

import (
	"sort"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
)

// localImport is one local_ident's resolved import shape, ready to emit as
// an SImport in a segment module (spec.md §4.6 step 2).
type localImport struct {
	ref       ast.Ref
	source    string
	specifier string // external name: "default", "*", or a named export
	kind      js_ast.ImportItemKind
}

// BuildModule assembles a segment's standalone module body in the order
// spec.md §4.6 specifies: a synthetic runtime namespace import, one import
// per local_ident (sorted by source path), the exported symbol_name const
// (with a captures-unpack prologue when scoped_idents is non-empty), and,
// for entry-marked segments, a trailing handleWatch import+export pair.
//
// newSym mints the private bindings for the two synthetic imports; it must
// be the same symbol-minting function the rest of the transform uses, since
// every other ref in the module body (the exported const's own name, every
// local_ident) is reused verbatim from the origin file's symbol table — a
// segment module never gets its own symbol table. That's sound because a
// module is printed independently: two printed files can share one
// underlying ast.Ref/OriginalName pair without ever rendering them side by
// side, which is the only situation where reuse would be visible.
func BuildModule(seg *Segment, collector *Collector, symbols *ast.SymbolMap, originStem, coreModule string, newSym func(name string, kind ast.SymbolKind) ast.Ref) []js_ast.Stmt {
	var stmts []js_ast.Stmt

	rtRef := newSym("_qwikRuntime", ast.SymbolImport)
	stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SImport{
		Items:       []js_ast.ClauseItem{{Alias: "*", Name: js_ast.LocRef{Ref: rtRef}, Kind: js_ast.ImportStar}},
		Source:      coreModule,
		IsSynthetic: true,
	}})

	imports := make([]localImport, 0, len(seg.LocalIdents))
	for _, ref := range seg.LocalIdents {
		if rec, ok := collector.Imports[ref]; ok {
			kind := js_ast.ImportNamed
			switch rec.Kind {
			case ImportDefault:
				kind = js_ast.ImportDefault
			case ImportNamespace:
				kind = js_ast.ImportStar
			}
			imports = append(imports, localImport{ref: ref, source: rec.Source, specifier: rec.Specifier, kind: kind})
			continue
		}
		// Otherwise ref is a same-file root: re-import from the origin
		// module under whatever external name it is (or was just made to
		// be) exported as.
		alias := collector.Exports[ref]
		if alias == "" {
			alias = symbols.Get(ref).OriginalName
		}
		imports = append(imports, localImport{ref: ref, source: "./" + originStem, specifier: alias, kind: js_ast.ImportNamed})
	}
	sort.SliceStable(imports, func(i, j int) bool { return imports[i].source < imports[j].source })

	for _, imp := range imports {
		item := js_ast.ClauseItem{Alias: imp.specifier, Name: js_ast.LocRef{Ref: imp.ref}, Kind: imp.kind}
		stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SImport{Items: []js_ast.ClauseItem{item}, Source: imp.source}})
	}

	body := seg.Expr
	if len(seg.ScopedIdents) > 0 {
		useLexicalScopeRef := collector.EnsureImport("useLexicalScope", coreModule)
		body = prependPrologue(body, lexicalScopePrologue(seg.ScopedIdents, useLexicalScopeRef))
	}
	stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SVarDecl{
		Kind:     js_ast.VarConst,
		IsExport: true,
		Decls:    []js_ast.Decl{{Binding: js_ast.Binding{Data: &js_ast.BIdentifier{Ref: seg.SymbolRef}}, ValueOrNil: &body}},
	}})

	if seg.IsEntry {
		hwRef := newSym("handleWatch", ast.SymbolImport)
		stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SImport{
			Items:       []js_ast.ClauseItem{{Alias: "handleWatch", Name: js_ast.LocRef{Ref: hwRef}, Kind: js_ast.ImportNamed}},
			Source:      coreModule,
			IsSynthetic: true,
		}})
		stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SExportClause{
			Items: []js_ast.ClauseItem{{Alias: "handleWatch", Name: js_ast.LocRef{Ref: hwRef}}},
		}})
	}

	return stmts
}

// lexicalScopePrologue builds `const [c1, c2, ...] = useLexicalScope();`
// (spec.md §4.6 step 3 / §4.5's inline-mode prologue), reusing the same
// ast.Ref for each captured identifier inside the module as at the original
// call site — see BuildModule's doc comment on ref reuse.
func lexicalScopePrologue(scopedIdents []ast.Ref, useLexicalScopeRef ast.Ref) js_ast.Stmt {
	items := make([]js_ast.ArrayBinding, len(scopedIdents))
	for i, ref := range scopedIdents {
		items[i] = js_ast.ArrayBinding{Binding: js_ast.Binding{Data: &js_ast.BIdentifier{Ref: ref}}}
	}
	call := js_ast.Expr{Data: &js_ast.ECall{Target: js_ast.Expr{Data: &js_ast.EIdentifier{Ref: useLexicalScopeRef}}}}
	return js_ast.Stmt{Data: &js_ast.SVarDecl{
		Kind:  js_ast.VarConst,
		Decls: []js_ast.Decl{{Binding: js_ast.Binding{Data: &js_ast.BArray{Items: items}}, ValueOrNil: &call}},
	}}
}

// prependPrologue inserts stmt at the front of an arrow's or function's
// body, converting an expression-bodied arrow to block form since it is
// about to hold more than one statement.
func prependPrologue(bodyExpr js_ast.Expr, stmt js_ast.Stmt) js_ast.Expr {
	switch v := bodyExpr.Data.(type) {
	case *js_ast.EArrow:
		newBody := make([]js_ast.Stmt, 0, len(v.Body)+1)
		newBody = append(newBody, stmt)
		newBody = append(newBody, v.Body...)
		return js_ast.Expr{Loc: bodyExpr.Loc, Data: &js_ast.EArrow{Args: v.Args, Body: newBody, IsExprBody: false, IsAsync: v.IsAsync}}
	case *js_ast.EFunction:
		fnCopy := v.Fn
		fnCopy.Body = append([]js_ast.Stmt{stmt}, v.Fn.Body...)
		return js_ast.Expr{Loc: bodyExpr.Loc, Data: &js_ast.EFunction{Fn: fnCopy}}
	default:
		return bodyExpr
	}
}
