package segment

import "github.com/nota-dev/qrlc/internal/js_ast"

// ExprRewriter is applied post-order (children first) to every expression in
// a tree walked by rewriteStmts/rewriteExpr. Returning e unchanged is always
// safe; the supporting visitors in visitors.go are exactly such rewriters.
type ExprRewriter func(e js_ast.Expr) js_ast.Expr

func rewriteStmts(stmts []js_ast.Stmt, fn ExprRewriter) []js_ast.Stmt {
	out := make([]js_ast.Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = rewriteStmt(s, fn)
	}
	return out
}

func rewriteStmt(s js_ast.Stmt, fn ExprRewriter) js_ast.Stmt {
	switch v := s.Data.(type) {
	case *js_ast.SExpr:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SExpr{Value: rewriteExpr(v.Value, fn)}}
	case *js_ast.SVarDecl:
		decls := make([]js_ast.Decl, len(v.Decls))
		for i, d := range v.Decls {
			decls[i] = d
			if d.ValueOrNil != nil {
				val := rewriteExpr(*d.ValueOrNil, fn)
				decls[i].ValueOrNil = &val
			}
		}
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SVarDecl{Kind: v.Kind, Decls: decls, IsExport: v.IsExport}}
	case *js_ast.SFunction:
		fnCopy := v.Fn
		fnCopy.Body = rewriteStmts(v.Fn.Body, fn)
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SFunction{Fn: fnCopy, IsExport: v.IsExport, IsDefaultExport: v.IsDefaultExport}}
	case *js_ast.SClass:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SClass{Class: rewriteClass(v.Class, fn), IsExport: v.IsExport, IsDefaultExport: v.IsDefaultExport}}
	case *js_ast.SReturn:
		if v.ValueOrNil == nil {
			return s
		}
		val := rewriteExpr(*v.ValueOrNil, fn)
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SReturn{ValueOrNil: &val}}
	case *js_ast.SIf:
		yes := rewriteStmt(v.Yes, fn)
		var noOrNil *js_ast.Stmt
		if v.NoOrNil != nil {
			no := rewriteStmt(*v.NoOrNil, fn)
			noOrNil = &no
		}
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SIf{Test: rewriteExpr(v.Test, fn), Yes: yes, NoOrNil: noOrNil}}
	case *js_ast.SBlock:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SBlock{Stmts: rewriteStmts(v.Stmts, fn)}}
	case *js_ast.SFor:
		out := &js_ast.SFor{Body: rewriteStmt(v.Body, fn)}
		if v.InitOrNil != nil {
			init := rewriteStmt(*v.InitOrNil, fn)
			out.InitOrNil = &init
		}
		if v.TestOrNil != nil {
			test := rewriteExpr(*v.TestOrNil, fn)
			out.TestOrNil = &test
		}
		if v.UpdateOrNil != nil {
			upd := rewriteExpr(*v.UpdateOrNil, fn)
			out.UpdateOrNil = &upd
		}
		return js_ast.Stmt{Loc: s.Loc, Data: out}
	case *js_ast.SForIn:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SForIn{Init: rewriteStmt(v.Init, fn), Value: rewriteExpr(v.Value, fn), Body: rewriteStmt(v.Body, fn)}}
	case *js_ast.SForOf:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SForOf{Init: rewriteStmt(v.Init, fn), Value: rewriteExpr(v.Value, fn), Body: rewriteStmt(v.Body, fn)}}
	case *js_ast.SWhile:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SWhile{Test: rewriteExpr(v.Test, fn), Body: rewriteStmt(v.Body, fn)}}
	case *js_ast.SExportDefault:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SExportDefault{Value: rewriteExpr(v.Value, fn)}}
	case *js_ast.SThrow:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SThrow{Value: rewriteExpr(v.Value, fn)}}
	default:
		return s
	}
}

func rewriteClass(c js_ast.Class, fn ExprRewriter) js_ast.Class {
	out := c
	if c.ExtendsOrNil != nil {
		ext := rewriteExpr(*c.ExtendsOrNil, fn)
		out.ExtendsOrNil = &ext
	}
	members := make([]js_ast.ClassMember, len(c.Members))
	for i, m := range c.Members {
		members[i] = js_ast.ClassMember{Key: rewriteExpr(m.Key, fn), Value: rewriteExpr(m.Value, fn), Kind: m.Kind, IsComputed: m.IsComputed, IsStatic: m.IsStatic}
	}
	out.Members = members
	return out
}

func rewriteExpr(e js_ast.Expr, fn ExprRewriter) js_ast.Expr {
	switch v := e.Data.(type) {
	case *js_ast.EArray:
		items := make([]js_ast.Expr, len(v.Items))
		for i, it := range v.Items {
			items[i] = rewriteExpr(it, fn)
		}
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EArray{Items: items, IsSingleLine: v.IsSingleLine}}
	case *js_ast.EObject:
		props := make([]js_ast.Property, len(v.Properties))
		for i, p := range v.Properties {
			props[i] = p
			props[i].Key = rewriteExpr(p.Key, fn)
			if p.Value != nil {
				val := rewriteExpr(*p.Value, fn)
				props[i].Value = &val
			}
			if p.Initializer != nil {
				init := rewriteExpr(*p.Initializer, fn)
				props[i].Initializer = &init
			}
		}
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EObject{Properties: props, IsSingleLine: v.IsSingleLine}}
	case *js_ast.ESpread:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.ESpread{Value: rewriteExpr(v.Value, fn)}}
	case *js_ast.ETemplate:
		parts := make([]js_ast.TemplatePart, len(v.Parts))
		for i, p := range v.Parts {
			parts[i] = js_ast.TemplatePart{Value: rewriteExpr(p.Value, fn), TailRaw: p.TailRaw}
		}
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.ETemplate{HeadRaw: v.HeadRaw, Parts: parts}}
	case *js_ast.EUnary:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EUnary{Op: v.Op, Value: rewriteExpr(v.Value, fn), Prefix: v.Prefix}}
	case *js_ast.EBinary:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EBinary{Op: v.Op, Left: rewriteExpr(v.Left, fn), Right: rewriteExpr(v.Right, fn)}}
	case *js_ast.EIf:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EIf{Test: rewriteExpr(v.Test, fn), Yes: rewriteExpr(v.Yes, fn), No: rewriteExpr(v.No, fn)}}
	case *js_ast.ECall:
		args := make([]js_ast.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = rewriteExpr(a, fn)
		}
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.ECall{Target: rewriteExpr(v.Target, fn), Args: args, OptionalChain: v.OptionalChain}}
	case *js_ast.ENew:
		args := make([]js_ast.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = rewriteExpr(a, fn)
		}
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.ENew{Target: rewriteExpr(v.Target, fn), Args: args}}
	case *js_ast.EDot:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EDot{Target: rewriteExpr(v.Target, fn), Name: v.Name, OptionalChain: v.OptionalChain}}
	case *js_ast.EIndex:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EIndex{Target: rewriteExpr(v.Target, fn), Index: rewriteExpr(v.Index, fn), OptionalChain: v.OptionalChain}}
	case *js_ast.EArrow:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EArrow{Args: v.Args, Body: rewriteStmts(v.Body, fn), IsExprBody: v.IsExprBody, IsAsync: v.IsAsync}}
	case *js_ast.EFunction:
		fnCopy := v.Fn
		fnCopy.Body = rewriteStmts(v.Fn.Body, fn)
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EFunction{Fn: fnCopy}}
	case *js_ast.EClass:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EClass{Class: rewriteClass(v.Class, fn)}}
	case *js_ast.EJSXElement:
		var tag *js_ast.Expr
		if v.TagOrNil != nil {
			t := rewriteExpr(*v.TagOrNil, fn)
			tag = &t
		}
		attrs := make([]js_ast.JSXAttr, len(v.Attributes))
		for i, a := range v.Attributes {
			attrs[i] = a
			if a.Value != nil {
				val := rewriteExpr(*a.Value, fn)
				attrs[i].Value = &val
			}
		}
		children := make([]js_ast.Expr, len(v.Children))
		for i, c := range v.Children {
			children[i] = rewriteExpr(c, fn)
		}
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EJSXElement{TagOrNil: tag, Attributes: attrs, Children: children, IsFragment: v.IsFragment}}
	case *js_ast.EImportCall:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EImportCall{Arg: rewriteExpr(v.Arg, fn)}}
	case *js_ast.EAwait:
		e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EAwait{Value: rewriteExpr(v.Value, fn)}}
	case *js_ast.EYield:
		if v.ValueOrNil != nil {
			val := rewriteExpr(*v.ValueOrNil, fn)
			e = js_ast.Expr{Loc: e.Loc, Data: &js_ast.EYield{ValueOrNil: &val}}
		}
	}
	return fn(e)
}
