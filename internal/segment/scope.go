package segment

import (
	"sort"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/logger"
)

type refSet map[ast.Ref]logger.Range

// refCollector is spec.md §4.4 rule 1's "distinct walker": a single
// full-tree traversal of a segment body recording two sets at once — every
// binding site (owned) and every identifier reference (used). A ref that is
// used but not owned is free: it resolves outside the segment body.
//
// The walker does not special-case nested function/class bodies; it
// descends into them uniformly. That is sound here because js_parser mints a
// fresh ast.Ref per declaration (the hygiene pass spec.md's Glossary
// describes), so a binding introduced inside a nested function can never
// collide with a ref used elsewhere — recording it as owned and subtracting
// it afterward has the same effect as skipping its subtree up front, with a
// simpler traversal.
type refCollector struct {
	owned refSet
	used  refSet
}

func (rc *refCollector) stmts(stmts []js_ast.Stmt) {
	for _, s := range stmts {
		rc.stmt(s)
	}
}

func (rc *refCollector) stmt(s js_ast.Stmt) {
	switch v := s.Data.(type) {
	case *js_ast.SExpr:
		rc.expr(v.Value)
	case *js_ast.SVarDecl:
		for _, d := range v.Decls {
			rc.binding(d.Binding)
			if d.ValueOrNil != nil {
				rc.expr(*d.ValueOrNil)
			}
		}
	case *js_ast.SFunction:
		if v.Fn.Name != nil {
			rc.owned[v.Fn.Name.Ref] = logger.Range{Loc: v.Fn.Name.Loc}
		}
		rc.fn(v.Fn)
	case *js_ast.SClass:
		if v.Class.Name != nil {
			rc.owned[v.Class.Name.Ref] = logger.Range{Loc: v.Class.Name.Loc}
		}
		rc.class(v.Class)
	case *js_ast.SReturn:
		if v.ValueOrNil != nil {
			rc.expr(*v.ValueOrNil)
		}
	case *js_ast.SIf:
		rc.expr(v.Test)
		rc.stmt(v.Yes)
		if v.NoOrNil != nil {
			rc.stmt(*v.NoOrNil)
		}
	case *js_ast.SBlock:
		rc.stmts(v.Stmts)
	case *js_ast.SFor:
		if v.InitOrNil != nil {
			rc.stmt(*v.InitOrNil)
		}
		if v.TestOrNil != nil {
			rc.expr(*v.TestOrNil)
		}
		if v.UpdateOrNil != nil {
			rc.expr(*v.UpdateOrNil)
		}
		rc.stmt(v.Body)
	case *js_ast.SForIn:
		rc.stmt(v.Init)
		rc.expr(v.Value)
		rc.stmt(v.Body)
	case *js_ast.SForOf:
		rc.stmt(v.Init)
		rc.expr(v.Value)
		rc.stmt(v.Body)
	case *js_ast.SWhile:
		rc.expr(v.Test)
		rc.stmt(v.Body)
	case *js_ast.SImport:
		for _, item := range v.Items {
			rc.owned[item.Name.Ref] = logger.Range{Loc: item.Name.Loc}
		}
	case *js_ast.SExportClause:
		for _, item := range v.Items {
			rc.used[item.Name.Ref] = logger.Range{Loc: item.Name.Loc}
		}
	case *js_ast.SExportDefault:
		rc.expr(v.Value)
	case *js_ast.SThrow:
		rc.expr(v.Value)
	}
}

func (rc *refCollector) binding(b js_ast.Binding) {
	switch v := b.Data.(type) {
	case *js_ast.BIdentifier:
		rc.owned[v.Ref] = logger.Range{Loc: b.Loc}
	case *js_ast.BArray:
		for _, item := range v.Items {
			rc.binding(item.Binding)
			if item.DefaultOrNil != nil {
				rc.expr(*item.DefaultOrNil)
			}
		}
	case *js_ast.BObject:
		for _, p := range v.Properties {
			if p.IsComputed {
				rc.expr(p.Key)
			}
			rc.binding(p.Value)
			if p.DefaultOrNil != nil {
				rc.expr(*p.DefaultOrNil)
			}
		}
		if v.HasRest {
			rc.owned[v.RestRef] = logger.Range{}
		}
	}
}

func (rc *refCollector) fn(fn js_ast.Fn) {
	for _, a := range fn.Args {
		rc.binding(a.Binding)
		if a.DefaultOrNil != nil {
			rc.expr(*a.DefaultOrNil)
		}
	}
	rc.stmts(fn.Body)
}

func (rc *refCollector) class(c js_ast.Class) {
	if c.ExtendsOrNil != nil {
		rc.expr(*c.ExtendsOrNil)
	}
	for _, m := range c.Members {
		if m.IsComputed {
			rc.expr(m.Key)
		}
		rc.expr(m.Value)
	}
}

func (rc *refCollector) expr(e js_ast.Expr) {
	switch v := e.Data.(type) {
	case *js_ast.EIdentifier:
		rc.used[v.Ref] = logger.Range{Loc: e.Loc}
	case *js_ast.EArray:
		for _, it := range v.Items {
			rc.expr(it)
		}
	case *js_ast.EObject:
		for _, p := range v.Properties {
			if p.IsComputed {
				rc.expr(p.Key)
			}
			if p.Value != nil {
				rc.expr(*p.Value)
			}
			if p.Initializer != nil {
				rc.expr(*p.Initializer)
			}
		}
	case *js_ast.ESpread:
		rc.expr(v.Value)
	case *js_ast.ETemplate:
		for _, part := range v.Parts {
			rc.expr(part.Value)
		}
	case *js_ast.EUnary:
		rc.expr(v.Value)
	case *js_ast.EBinary:
		rc.expr(v.Left)
		rc.expr(v.Right)
	case *js_ast.EIf:
		rc.expr(v.Test)
		rc.expr(v.Yes)
		rc.expr(v.No)
	case *js_ast.ECall:
		rc.expr(v.Target)
		for _, a := range v.Args {
			rc.expr(a)
		}
	case *js_ast.ENew:
		rc.expr(v.Target)
		for _, a := range v.Args {
			rc.expr(a)
		}
	case *js_ast.EDot:
		rc.expr(v.Target)
	case *js_ast.EIndex:
		rc.expr(v.Target)
		rc.expr(v.Index)
	case *js_ast.EArrow:
		for _, a := range v.Args {
			rc.binding(a.Binding)
			if a.DefaultOrNil != nil {
				rc.expr(*a.DefaultOrNil)
			}
		}
		rc.stmts(v.Body)
	case *js_ast.EFunction:
		if v.Fn.Name != nil {
			rc.owned[v.Fn.Name.Ref] = logger.Range{Loc: v.Fn.Name.Loc}
		}
		rc.fn(v.Fn)
	case *js_ast.EClass:
		if v.Class.Name != nil {
			rc.owned[v.Class.Name.Ref] = logger.Range{Loc: v.Class.Name.Loc}
		}
		rc.class(v.Class)
	case *js_ast.EJSXElement:
		if v.TagOrNil != nil {
			rc.expr(*v.TagOrNil)
		}
		for _, a := range v.Attributes {
			if a.Value != nil {
				rc.expr(*a.Value)
			}
		}
		for _, c := range v.Children {
			rc.expr(c)
		}
	case *js_ast.EImportCall:
		rc.expr(v.Arg)
	case *js_ast.EAwait:
		rc.expr(v.Value)
	case *js_ast.EYield:
		if v.ValueOrNil != nil {
			rc.expr(*v.ValueOrNil)
		}
	}
}

// FreeRefs returns every identifier referenced within body that is not bound
// by a declaration inside body itself (spec.md §4.4 rule 1).
func FreeRefs(body []js_ast.Stmt) map[ast.Ref]logger.Range {
	rc := &refCollector{owned: refSet{}, used: refSet{}}
	rc.stmts(body)
	free := make(map[ast.Ref]logger.Range, len(rc.used))
	for ref, rng := range rc.used {
		if _, isOwned := rc.owned[ref]; isOwned {
			continue
		}
		free[ref] = rng
	}
	return free
}

// CaptureResult is spec.md §4.4's output: the two partitions of a segment's
// free identifiers that matter downstream.
type CaptureResult struct {
	LocalIdents  []ast.Ref
	ScopedIdents []ast.Ref
}

// ClassifySegment applies spec.md §4.4 rules 2-4 to a segment body's free
// identifiers, raising C01/C02 diagnostics as a side effect and
// auto-exporting any under-exported root reference per rule 5. Results are
// ordered by source position so two runs over the same input produce
// identical capture arrays (spec.md §8 property 1).
func ClassifySegment(body []js_ast.Stmt, collector *Collector, symbols *ast.SymbolMap, source *logger.Source, log logger.Log) CaptureResult {
	free := FreeRefs(body)

	type freeRef struct {
		ref ast.Ref
		rng logger.Range
	}
	ordered := make([]freeRef, 0, len(free))
	for ref, rng := range free {
		ordered = append(ordered, freeRef{ref, rng})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].rng.Loc.Start < ordered[j].rng.Loc.Start })

	var result CaptureResult
	for _, fr := range ordered {
		ref, rng := fr.ref, fr.rng

		if _, isRoot := collector.Roots[ref]; isRoot {
			if _, exported := collector.Exports[ref]; !exported {
				name := symbols.Get(ref).OriginalName
				log.AddError(source, rng.Loc, logger.CodeRootLevelReference,
					"identifier '"+name+"' declared at the root must be exported to be used inside a `$` scope")
				collector.AddExport(ref, "")
			}
			result.LocalIdents = append(result.LocalIdents, ref)
			continue
		}
		if collector.IsGlobal(ref) {
			result.LocalIdents = append(result.LocalIdents, ref)
			continue
		}

		sym := symbols.Get(ref)
		switch sym.Kind {
		case ast.SymbolHoistedFunction, ast.SymbolFunction, ast.SymbolClass:
			log.AddError(source, rng.Loc, logger.CodeFunctionClassRef,
				"identifier '"+sym.OriginalName+"' refers to a function or class and cannot be captured")
		case ast.SymbolVar:
			result.ScopedIdents = append(result.ScopedIdents, ref)
			// SymbolImport is unreachable here (imports are always global,
			// handled by IsGlobal above); SymbolUnbound is a free global
			// like console or Math and needs neither capture nor diagnostic.
		}
	}
	return result
}

// EnforceCaptureLegality is spec.md §3's invariant and §4.4 rule 4's third
// clause: a segment whose own expression is not a function or arrow may not
// capture anything. isFnOrArrow is the caller's classification of the
// segment's own expr node.
func EnforceCaptureLegality(result CaptureResult, isFnOrArrow bool, source *logger.Source, loc logger.Loc, log logger.Log) CaptureResult {
	if !isFnOrArrow && len(result.ScopedIdents) > 0 {
		log.AddError(source, loc, logger.CodeCannotCapture,
			"segment captures local variables but its body is not a function or arrow expression")
		result.ScopedIdents = nil
	}
	return result
}
