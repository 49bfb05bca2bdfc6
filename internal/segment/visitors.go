package segment

import (
	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/logger"
)

// knownConstNames are the identifiers the const replacer folds when they
// resolve to an import from the core runtime module (spec.md §4.8).
var knownConstNames = map[string]bool{"isServer": true, "isBrowser": true, "isDev": true}

// ReplaceConsts folds references to isServer/isBrowser/isDev imported from
// coreModule into literal booleans according to the compile-time flags. It
// only ever replaces an EIdentifier node — a member access like
// `foo.isServer` never sees one, since EDot carries its property as a plain
// string, not a nested identifier (spec.md §4.8: "only replaces identifiers,
// never member accesses").
func ReplaceConsts(stmts []js_ast.Stmt, collector *Collector, coreModule string, isServer, isBrowser, isDev bool) []js_ast.Stmt {
	values := map[ast.Ref]bool{}
	for ref, rec := range collector.Imports {
		if rec.Source != coreModule || !knownConstNames[rec.Specifier] {
			continue
		}
		switch rec.Specifier {
		case "isServer":
			values[ref] = isServer
		case "isBrowser":
			values[ref] = isBrowser
		case "isDev":
			values[ref] = isDev
		}
	}
	if len(values) == 0 {
		return stmts
	}
	return rewriteStmts(stmts, func(e js_ast.Expr) js_ast.Expr {
		id, ok := e.Data.(*js_ast.EIdentifier)
		if !ok {
			return e
		}
		value, ok := values[id.Ref]
		if !ok {
			return e
		}
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EBoolean{Value: value}}
	})
}

// StripSentinel is the fixed error message the export stripper's thrown
// arrow raises (spec.md §4.8: "replacing it with an arrow that throws a
// fixed sentinel").
const StripSentinel = "QRL_STRIPPED_EXPORT"

// StripExports drops the initializer of every top-level export whose bound
// name is in names, replacing it with `() => { throw new Error(sentinel) }`
// while preserving the export declaration itself so importers still resolve
// (spec.md §4.8). errorCtorRef is the file's (unbound) reference to the
// global `Error` constructor, resolved once by the caller.
func StripExports(stmts []js_ast.Stmt, symbols *ast.SymbolMap, names map[string]bool, errorCtorRef ast.Ref) []js_ast.Stmt {
	if len(names) == 0 {
		return stmts
	}
	out := make([]js_ast.Stmt, len(stmts))
	copy(out, stmts)
	for i, s := range out {
		v, ok := s.Data.(*js_ast.SVarDecl)
		if !ok || !v.IsExport {
			continue
		}
		decls := make([]js_ast.Decl, len(v.Decls))
		copy(decls, v.Decls)
		changed := false
		for j, d := range decls {
			id, ok := d.Binding.Data.(*js_ast.BIdentifier)
			if !ok || !names[symbols.Get(id.Ref).OriginalName] {
				continue
			}
			thrower := js_ast.Expr{Loc: s.Loc, Data: &js_ast.EArrow{
				Body: []js_ast.Stmt{{Loc: s.Loc, Data: &js_ast.SThrow{
					Value: js_ast.Expr{Loc: s.Loc, Data: &js_ast.ENew{
						Target: js_ast.Expr{Loc: s.Loc, Data: &js_ast.EIdentifier{Ref: errorCtorRef}},
						Args:   []js_ast.Expr{{Loc: s.Loc, Data: &js_ast.EString{Value: StripSentinel}}},
					}},
				}}},
			}}
			decls[j].ValueOrNil = &thrower
			changed = true
		}
		if changed {
			out[i] = js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SVarDecl{Kind: v.Kind, Decls: decls, IsExport: true}}
		}
	}
	return out
}

// CleanSideEffects removes top-level expression statements that are bare
// calls or `new` expressions (spec.md §4.8: "at the module level only").
func CleanSideEffects(stmts []js_ast.Stmt) []js_ast.Stmt {
	out := stmts[:0:0]
	for _, s := range stmts {
		if expr, ok := s.Data.(*js_ast.SExpr); ok {
			switch expr.Value.Data.(type) {
			case *js_ast.ECall, *js_ast.ENew:
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// AddSideEffects re-injects bare imports for every relative import the
// collector recorded that no longer has any surviving reference in stmts,
// provided its resolved path still lies under srcDir (spec.md §4.8 /
// testable property 8). originDir is the directory of the module being
// finalized, used to resolve each import's relative source against srcDir.
func AddSideEffects(stmts []js_ast.Stmt, collector *Collector, originDir, srcDir string) []js_ast.Stmt {
	used := map[ast.Ref]bool{}
	for ref := range FreeRefsOfModule(stmts) {
		used[ref] = true
	}

	var bare []js_ast.Stmt
	seen := map[string]bool{}
	for ref, rec := range collector.Imports {
		if used[ref] {
			continue
		}
		if rec.Source == "" || (rec.Source[0] != '.' ) {
			continue // not relative
		}
		resolved := RelativeTo(srcDir, normalizeImportTarget(originDir, rec.Source))
		if len(resolved) >= 2 && resolved[:2] == ".." {
			continue // escapes srcDir
		}
		if seen[rec.Source] {
			continue
		}
		seen[rec.Source] = true
		bare = append(bare, js_ast.Stmt{Data: &js_ast.SImport{Source: rec.Source}})
	}
	if len(bare) == 0 {
		return stmts
	}
	return append(bare, stmts...)
}

func normalizeImportTarget(originDir, source string) string {
	if len(source) >= 2 && source[:2] == "./" {
		source = source[2:]
	}
	if originDir == "" || originDir == "." {
		return source
	}
	return originDir + "/" + source
}

// FreeRefsOfModule is FreeRefs generalized to a whole module's top-level
// statements: it treats every top-level binding as owned (module scope has
// no enclosing scope to escape to) and reports every other reference, the
// same owned/used split scope.go uses for a segment body.
func FreeRefsOfModule(stmts []js_ast.Stmt) map[ast.Ref]logger.Range {
	return FreeRefs(stmts)
}

// FixDynamicImports rewrites every `import("...")` inside a segment body so
// the path stays correct once the segment moves from oldDir to newDir
// (spec.md §4.8). A non-string argument is reported as C04 against log and
// left untouched.
func FixDynamicImports(body []js_ast.Stmt, oldDir, newDir string, source *logger.Source, log logger.Log) []js_ast.Stmt {
	return rewriteStmts(body, func(e js_ast.Expr) js_ast.Expr {
		call, ok := e.Data.(*js_ast.EImportCall)
		if !ok {
			return e
		}
		str, ok := call.Arg.Data.(*js_ast.EString)
		if !ok {
			log.AddError(source, call.Arg.Loc, logger.CodeDynamicImportNonStr,
				"dynamic import() inside a $ scope must take a string literal")
			return e
		}
		fixed := FixRelativeImport(oldDir, newDir, str.Value)
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EImportCall{
			Arg: js_ast.Expr{Loc: call.Arg.Loc, Data: &js_ast.EString{Value: fixed}},
		}}
	})
}

// RestPropsHelper is the runtime function name the props-destructuring
// visitor calls for a rest pattern (spec.md §4.8).
const RestPropsHelper = "_restProps"

// DestructureProps implements spec.md §4.8's props-destructuring visitor:
// for a component$-wrapped arrow whose sole parameter is an object pattern
// of plain-identifier pickups (optionally with a rest element), it rewrites
// the parameter to a single `props` binding and rewrites every inner
// reference to `props.<name>` (or, for the rest binding, a call to the
// imported _restProps(props, ["omitted", ...]) runtime helper).
//
// newPropsRef must already be a fresh symbol (ast.SymbolVar) the caller
// minted for the replacement parameter. When the pattern has a rest element,
// DestructureProps mints the _restProps reference itself via
// collector.EnsureImport, the same helper BuildModule uses for every other
// synthetic runtime import, and returns it so the caller can add it to the
// segment's local_idents — otherwise the emitted module never imports it.
func DestructureProps(arrow *js_ast.EArrow, symbols *ast.SymbolMap, newPropsRef ast.Ref, collector *Collector, coreModule string) (restRef *ast.Ref, ok bool) {
	if len(arrow.Args) != 1 {
		return nil, false
	}
	obj, ok := arrow.Args[0].Binding.Data.(*js_ast.BObject)
	if !ok {
		return nil, false
	}
	omitted := make([]string, 0, len(obj.Properties))
	replacements := map[ast.Ref]string{}
	for _, p := range obj.Properties {
		if p.IsComputed || p.DefaultOrNil != nil {
			return nil, false
		}
		id, ok := p.Value.Data.(*js_ast.BIdentifier)
		if !ok {
			return nil, false
		}
		keyStr, ok := p.Key.Data.(*js_ast.EString)
		if !ok {
			return nil, false
		}
		replacements[id.Ref] = keyStr.Value
		omitted = append(omitted, keyStr.Value)
	}

	if obj.HasRest {
		r := collector.EnsureImport(RestPropsHelper, coreModule)
		restRef = &r
	}

	propsLoc := arrow.Args[0].Binding.Loc
	arrow.Args = []js_ast.Arg{{Binding: js_ast.Binding{Loc: propsLoc, Data: &js_ast.BIdentifier{Ref: newPropsRef}}}}

	arrow.Body = rewriteStmts(arrow.Body, func(e js_ast.Expr) js_ast.Expr {
		id, ok := e.Data.(*js_ast.EIdentifier)
		if !ok {
			return e
		}
		if name, ok := replacements[id.Ref]; ok {
			return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EDot{
				Target: js_ast.Expr{Loc: e.Loc, Data: &js_ast.EIdentifier{Ref: newPropsRef}},
				Name:   name,
			}}
		}
		if obj.HasRest && id.Ref == obj.RestRef {
			args := make([]js_ast.Expr, 0, len(omitted)+1)
			args = append(args, js_ast.Expr{Loc: e.Loc, Data: &js_ast.EIdentifier{Ref: newPropsRef}})
			items := make([]js_ast.Expr, len(omitted))
			for i, name := range omitted {
				items[i] = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EString{Value: name}}
			}
			args = append(args, js_ast.Expr{Loc: e.Loc, Data: &js_ast.EArray{Items: items, IsSingleLine: true}})
			return js_ast.Expr{Loc: e.Loc, Data: &js_ast.ECall{
				Target: js_ast.Expr{Loc: e.Loc, Data: &js_ast.EIdentifier{Ref: *restRef}},
				Args:   args,
			}}
		}
		return e
	})
	return restRef, true
}
