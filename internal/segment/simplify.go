package segment

import (
	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/logger"
)

// Simplify implements spec.md §6's --minify=simplify pass: constant-condition
// dead-branch elimination. It is the pass ReplaceConsts's isServer/isBrowser/
// isDev literal folding exists to feed — once those identifiers are literal
// booleans, an `if (false) { ... }` guard around server-only or dev-only code
// can be dropped outright instead of shipping a branch that can never run.
// Grounded on esbuild's own constant-condition folding (mangleIf in
// internal/js_parser/js_parser.go), reduced to the one shape this module
// needs: `if` with a literal boolean test. Everything else rebuilds
// unchanged, recursing into block/loop/function bodies the same way
// rewriteStmts does.
func Simplify(stmts []js_ast.Stmt) []js_ast.Stmt {
	out := make([]js_ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, simplifyStmt(s)...)
	}
	return out
}

func simplifyStmt(s js_ast.Stmt) []js_ast.Stmt {
	switch v := s.Data.(type) {
	case *js_ast.SIf:
		if lit, ok := v.Test.Data.(*js_ast.EBoolean); ok {
			if lit.Value {
				dropped := []js_ast.Stmt{}
				if v.NoOrNil != nil {
					dropped = []js_ast.Stmt{*v.NoOrNil}
				}
				return append(hoistedVarDecl(dropped, s.Loc), simplifyStmt(v.Yes)...)
			}
			kept := []js_ast.Stmt{}
			if v.NoOrNil != nil {
				kept = simplifyStmt(*v.NoOrNil)
			}
			return append(hoistedVarDecl([]js_ast.Stmt{v.Yes}, s.Loc), kept...)
		}
		yes := asSingleStmt(simplifyStmt(v.Yes), v.Yes.Loc)
		var noOrNil *js_ast.Stmt
		if v.NoOrNil != nil {
			no := asSingleStmt(simplifyStmt(*v.NoOrNil), v.NoOrNil.Loc)
			noOrNil = &no
		}
		return []js_ast.Stmt{{Loc: s.Loc, Data: &js_ast.SIf{Test: v.Test, Yes: yes, NoOrNil: noOrNil}}}

	case *js_ast.SBlock:
		return []js_ast.Stmt{{Loc: s.Loc, Data: &js_ast.SBlock{Stmts: Simplify(v.Stmts)}}}

	case *js_ast.SFunction:
		fnCopy := v.Fn
		fnCopy.Body = Simplify(v.Fn.Body)
		return []js_ast.Stmt{{Loc: s.Loc, Data: &js_ast.SFunction{Fn: fnCopy, IsExport: v.IsExport, IsDefaultExport: v.IsDefaultExport}}}

	case *js_ast.SFor:
		out := &js_ast.SFor{Body: asSingleStmt(simplifyStmt(v.Body), v.Body.Loc), InitOrNil: v.InitOrNil, TestOrNil: v.TestOrNil, UpdateOrNil: v.UpdateOrNil}
		return []js_ast.Stmt{{Loc: s.Loc, Data: out}}

	case *js_ast.SForIn:
		return []js_ast.Stmt{{Loc: s.Loc, Data: &js_ast.SForIn{Init: v.Init, Value: v.Value, Body: asSingleStmt(simplifyStmt(v.Body), v.Body.Loc)}}}

	case *js_ast.SForOf:
		return []js_ast.Stmt{{Loc: s.Loc, Data: &js_ast.SForOf{Init: v.Init, Value: v.Value, Body: asSingleStmt(simplifyStmt(v.Body), v.Body.Loc)}}}

	case *js_ast.SWhile:
		return []js_ast.Stmt{{Loc: s.Loc, Data: &js_ast.SWhile{Test: v.Test, Body: asSingleStmt(simplifyStmt(v.Body), v.Body.Loc)}}}

	default:
		return []js_ast.Stmt{s}
	}
}

// hoistedVarDecl preserves `var` hoisting for a branch Simplify is about to
// discard entirely: dropping `if (false) { var x = f(); }` outright would
// un-declare x for the rest of its enclosing function scope, turning a later
// bare reference into a ReferenceError instead of the `undefined` it read as
// before minification. It returns a single `var <names>;` statement (no
// initializers — only the binding, not the assignment, needs to survive) if
// the dropped branch hoists anything, or nil otherwise.
func hoistedVarDecl(stmts []js_ast.Stmt, loc logger.Loc) []js_ast.Stmt {
	refs := hoistedVarRefs(stmts)
	if len(refs) == 0 {
		return nil
	}
	decls := make([]js_ast.Decl, len(refs))
	for i, ref := range refs {
		decls[i] = js_ast.Decl{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: ref}}}
	}
	return []js_ast.Stmt{{Loc: loc, Data: &js_ast.SVarDecl{Kind: js_ast.VarVar, Decls: decls}}}
}

// hoistedVarRefs collects every identifier bound by a `var` declaration
// anywhere in stmts, recursing into nested blocks/if/loop bodies (which
// share the enclosing function's var scope) but not into nested function or
// class bodies (which have their own).
func hoistedVarRefs(stmts []js_ast.Stmt) []ast.Ref {
	var refs []ast.Ref
	var walkBinding func(b js_ast.Binding)
	walkBinding = func(b js_ast.Binding) {
		switch d := b.Data.(type) {
		case *js_ast.BIdentifier:
			refs = append(refs, d.Ref)
		case *js_ast.BArray:
			for _, item := range d.Items {
				walkBinding(item.Binding)
			}
		case *js_ast.BObject:
			for _, p := range d.Properties {
				walkBinding(p.Value)
			}
		}
	}
	var walk func(stmts []js_ast.Stmt)
	walk = func(stmts []js_ast.Stmt) {
		for _, s := range stmts {
			switch v := s.Data.(type) {
			case *js_ast.SVarDecl:
				if v.Kind == js_ast.VarVar {
					for _, decl := range v.Decls {
						walkBinding(decl.Binding)
					}
				}
			case *js_ast.SBlock:
				walk(v.Stmts)
			case *js_ast.SIf:
				walk([]js_ast.Stmt{v.Yes})
				if v.NoOrNil != nil {
					walk([]js_ast.Stmt{*v.NoOrNil})
				}
			case *js_ast.SFor:
				if v.InitOrNil != nil {
					walk([]js_ast.Stmt{*v.InitOrNil})
				}
				walk([]js_ast.Stmt{v.Body})
			case *js_ast.SForIn:
				walk([]js_ast.Stmt{v.Init})
				walk([]js_ast.Stmt{v.Body})
			case *js_ast.SForOf:
				walk([]js_ast.Stmt{v.Init})
				walk([]js_ast.Stmt{v.Body})
			case *js_ast.SWhile:
				walk([]js_ast.Stmt{v.Body})
			}
		}
	}
	walk(stmts)
	return refs
}

// asSingleStmt collapses a possibly-empty, possibly-multi-statement dead
// branch result back into the single js_ast.Stmt a Yes/Body slot requires,
// wrapping in a block when collapsing changed the statement count.
func asSingleStmt(stmts []js_ast.Stmt, loc logger.Loc) js_ast.Stmt {
	switch len(stmts) {
	case 0:
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{}}
	case 1:
		return stmts[0]
	default:
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: stmts}}
	}
}
