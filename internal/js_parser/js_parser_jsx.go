package js_parser

import (
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_lexer"
	"github.com/nota-dev/qrlc/internal/logger"
)

// parseJSXElement parses "<Tag attr={expr} onClick$={...}>children</Tag>" or
// a self-closing/fragment form. It is deliberately tolerant: this subset
// grammar exists to feed internal/segment's shape-4 recognition (spec.md
// §4.5, "a JSX attribute whose name ends in $"), not to validate arbitrary
// real-world JSX.
func (p *Parser) parseJSXElement(loc logger.Loc) js_ast.Expr {
	p.expect(js_lexer.TLessThan, "\"<\"")

	if p.lexer.Token == js_lexer.TGreaterThan {
		// Fragment: <>...</>
		p.lexer.Next()
		children := p.parseJSXChildren()
		p.expectJSXClose("")
		return js_ast.Expr{Loc: loc, Data: &js_ast.EJSXElement{IsFragment: true, Children: children}}
	}

	tagLoc := p.lexer.Loc()
	tagName := p.lexer.Identifier
	p.expect(js_lexer.TIdentifier, "tag name")
	var tag js_ast.Expr
	if len(tagName) > 0 && tagName[0] >= 'A' && tagName[0] <= 'Z' {
		tag = js_ast.Expr{Loc: tagLoc, Data: &js_ast.EIdentifier{Ref: p.resolveRef(tagName, tagLoc)}}
	} else {
		tag = js_ast.Expr{Loc: tagLoc, Data: &js_ast.EString{Value: tagName}}
	}

	var attrs []js_ast.JSXAttr
	for p.lexer.Token != js_lexer.TGreaterThan && p.lexer.Token != js_lexer.TSlash && p.lexer.Token != js_lexer.TEndOfFile {
		if p.lexer.Token == js_lexer.TOpenBrace {
			// {...spread}
			p.lexer.Next()
			p.expect(js_lexer.TDotDotDot, "\"...\"")
			v := p.parseExpr(LComma + 1)
			p.expect(js_lexer.TCloseBrace, "\"}\"")
			attrs = append(attrs, js_ast.JSXAttr{IsSpread: true, Value: &v, Loc: loc})
			continue
		}
		attrLoc := p.lexer.Loc()
		name := p.lexer.Identifier
		p.lexer.Next()
		// namespaced attr, e.g. xml:lang — tolerated by gluing with ':'.
		if p.lexer.Token == js_lexer.TColon {
			p.lexer.Next()
			name = name + ":" + p.lexer.Identifier
			p.lexer.Next()
		}
		var value *js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TStringLiteral {
				v := js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
				p.lexer.Next()
				value = &v
			} else {
				p.expect(js_lexer.TOpenBrace, "\"{\"")
				v := p.parseExpr(LComma + 1)
				p.expect(js_lexer.TCloseBrace, "\"}\"")
				value = &v
			}
		}
		attrs = append(attrs, js_ast.JSXAttr{Name: name, Value: value, Loc: attrLoc})
	}

	if p.lexer.Token == js_lexer.TSlash {
		p.lexer.Next()
		p.expect(js_lexer.TGreaterThan, "\">\"")
		return js_ast.Expr{Loc: loc, Data: &js_ast.EJSXElement{TagOrNil: &tag, Attributes: attrs}}
	}

	p.expect(js_lexer.TGreaterThan, "\">\"")
	children := p.parseJSXChildren()
	p.expectJSXClose(tagName)
	return js_ast.Expr{Loc: loc, Data: &js_ast.EJSXElement{TagOrNil: &tag, Attributes: attrs, Children: children}}
}

// parseJSXChildren scans raw text runs and "{expr}" children until "</" is
// seen, switching the lexer between raw-text mode and token mode the same
// way esbuild's JSX parser does via ResetTo.
func (p *Parser) parseJSXChildren() []js_ast.Expr {
	var children []js_ast.Expr
	for {
		start := p.lexer.ByteOffset()
		raw, hit := p.scanJSXTextRun(start)
		if len(raw) > 0 {
			children = append(children, js_ast.Expr{Loc: logger.Loc{Start: int32(start)}, Data: &js_ast.EJSXText{Raw: raw}})
		}
		switch hit {
		case jsxHitCloseTag:
			return children
		case jsxHitExpr:
			p.lexer.Next() // consume "{"
			if p.lexer.Token != js_lexer.TCloseBrace {
				v := p.parseExprOrCommaList()
				children = append(children, v)
			}
			p.expect(js_lexer.TCloseBrace, "\"}\"")
		case jsxHitOpenTag:
			child := p.parseJSXElement(p.lexer.Loc())
			children = append(children, child)
		case jsxHitEOF:
			p.errorRange(p.lexer.Range(), "unterminated JSX element")
			return children
		}
	}
}

type jsxHit uint8

const (
	jsxHitCloseTag jsxHit = iota
	jsxHitExpr
	jsxHitOpenTag
	jsxHitEOF
)

// scanJSXTextRun reads raw JSX text starting at byteOffset up to the next
// "{", "<", or EOF, leaving the lexer positioned (via ResetTo) right after
// the text so the caller's token-mode parsing resumes cleanly.
func (p *Parser) scanJSXTextRun(byteOffset int) (string, jsxHit) {
	i := byteOffset
	src := p.sourceContentsFrom(i)
	j := 0
	for j < len(src) && src[j] != '{' && src[j] != '<' {
		j++
	}
	raw := src[:j]
	if j >= len(src) {
		p.lexer.ResetTo(i + j)
		return raw, jsxHitEOF
	}
	switch src[j] {
	case '{':
		p.lexer.ResetTo(i + j)
		return raw, jsxHitExpr
	case '<':
		if j+1 < len(src) && src[j+1] == '/' {
			p.lexer.ResetTo(i + j)
			p.lexer.Next() // "</", lexed as a single TLessThanSlash
			return raw, jsxHitCloseTag
		}
		p.lexer.ResetTo(i + j)
		return raw, jsxHitOpenTag
	}
	return raw, jsxHitEOF
}

func (p *Parser) sourceContentsFrom(offset int) string {
	return p.source.Contents[offset:]
}

func (p *Parser) expectJSXClose(tagName string) {
	if tagName != "" {
		if p.lexer.Token == js_lexer.TIdentifier {
			p.lexer.Next()
		}
	}
	p.expect(js_lexer.TGreaterThan, "\">\"")
}

// ---------------------------------------------------------------------
// JSX desugaring: EJSXElement -> ECall(factory, [tag, props, ...children])
// ---------------------------------------------------------------------

// jsxDesugarer lowers JSX into factory calls, run (when Options.JSXDesugar
// is set) right after parsing and before internal/segment ever sees the
// tree — matching the real Qwik optimizer's react::react() pass, which runs
// before qwik_transform. internal/segment's
// own JSX-attribute recognition (spec.md §4.5 shape 4) only fires when this
// pass is skipped: after desugaring, each JSX attribute is one plain object
// property on the props argument below, and internal/segment extracts no
// segment from an object property, even one whose key ends in "$".
type jsxDesugarer struct {
	p        *Parser
	factory  string
	fragment string
}

func (d *jsxDesugarer) stmts(in []js_ast.Stmt) []js_ast.Stmt {
	out := make([]js_ast.Stmt, len(in))
	for i, s := range in {
		out[i] = d.stmt(s)
	}
	return out
}

func (d *jsxDesugarer) stmt(s js_ast.Stmt) js_ast.Stmt {
	switch v := s.Data.(type) {
	case *js_ast.SExpr:
		v.Value = d.expr(v.Value)
	case *js_ast.SReturn:
		if v.ValueOrNil != nil {
			e := d.expr(*v.ValueOrNil)
			v.ValueOrNil = &e
		}
	case *js_ast.SVarDecl:
		for i := range v.Decls {
			if v.Decls[i].ValueOrNil != nil {
				e := d.expr(*v.Decls[i].ValueOrNil)
				v.Decls[i].ValueOrNil = &e
			}
		}
	case *js_ast.SIf:
		v.Test = d.expr(v.Test)
		v.Yes = d.stmt(v.Yes)
		if v.NoOrNil != nil {
			n := d.stmt(*v.NoOrNil)
			v.NoOrNil = &n
		}
	case *js_ast.SBlock:
		v.Stmts = d.stmts(v.Stmts)
	case *js_ast.SFunction:
		v.Fn.Body = d.stmts(v.Fn.Body)
	case *js_ast.SExportDefault:
		v.Value = d.expr(v.Value)
	case *js_ast.SFor:
		if v.InitOrNil != nil {
			i := d.stmt(*v.InitOrNil)
			v.InitOrNil = &i
		}
		if v.TestOrNil != nil {
			t := d.expr(*v.TestOrNil)
			v.TestOrNil = &t
		}
		v.Body = d.stmt(v.Body)
	case *js_ast.SWhile:
		v.Test = d.expr(v.Test)
		v.Body = d.stmt(v.Body)
	}
	return s
}

func (d *jsxDesugarer) expr(e js_ast.Expr) js_ast.Expr {
	switch v := e.Data.(type) {
	case *js_ast.EJSXElement:
		return d.desugarElement(e.Loc, v)
	case *js_ast.ECall:
		v.Target = d.expr(v.Target)
		for i := range v.Args {
			v.Args[i] = d.expr(v.Args[i])
		}
	case *js_ast.EArrow:
		v.Body = d.stmts(v.Body)
	case *js_ast.EFunction:
		v.Fn.Body = d.stmts(v.Fn.Body)
	case *js_ast.EBinary:
		v.Left = d.expr(v.Left)
		v.Right = d.expr(v.Right)
	case *js_ast.EIf:
		v.Test = d.expr(v.Test)
		v.Yes = d.expr(v.Yes)
		v.No = d.expr(v.No)
	case *js_ast.EArray:
		for i := range v.Items {
			v.Items[i] = d.expr(v.Items[i])
		}
	case *js_ast.EObject:
		for i := range v.Properties {
			if v.Properties[i].Value != nil {
				val := d.expr(*v.Properties[i].Value)
				v.Properties[i].Value = &val
			}
		}
	}
	return e
}

func (d *jsxDesugarer) desugarElement(loc logger.Loc, el *js_ast.EJSXElement) js_ast.Expr {
	factoryRef := d.p.resolveRef(d.factory, loc)
	var tag js_ast.Expr
	if el.IsFragment {
		tag = js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: d.p.resolveRef(d.fragment, loc)}}
	} else {
		tag = d.expr(*el.TagOrNil)
	}

	var props []js_ast.Property
	for _, a := range el.Attributes {
		if a.IsSpread {
			props = append(props, js_ast.Property{Kind: js_ast.PropertySpread, IsSpread: true, Value: a.Value})
			continue
		}
		key := js_ast.Expr{Loc: a.Loc, Data: &js_ast.EString{Value: a.Name}}
		var value js_ast.Expr
		if a.Value != nil {
			value = d.expr(*a.Value)
		} else {
			value = js_ast.Expr{Loc: a.Loc, Data: &js_ast.EBoolean{Value: true}}
		}
		props = append(props, js_ast.Property{Key: key, Value: &value})
	}
	var propsArg js_ast.Expr
	if len(props) > 0 {
		propsArg = js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: props}}
	} else {
		propsArg = js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}
	}

	args := []js_ast.Expr{tag, propsArg}
	for _, c := range el.Children {
		if text, ok := c.Data.(*js_ast.EJSXText); ok && isBlankJSXText(text.Raw) {
			continue
		}
		args = append(args, d.expr(c))
	}

	factoryExpr := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: factoryRef}}
	return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{Target: factoryExpr, Args: args}}
}

func isBlankJSXText(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
