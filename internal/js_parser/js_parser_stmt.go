package js_parser

import (
	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_lexer"
	"github.com/nota-dev/qrlc/internal/logger"
)

func (p *Parser) parseStmtsUntil(end js_lexer.T) []js_ast.Stmt {
	var stmts []js_ast.Stmt
	for p.lexer.Token != end && p.lexer.Token != js_lexer.TEndOfFile {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

func (p *Parser) parseBlockStmts() []js_ast.Stmt {
	p.expect(js_lexer.TOpenBrace, "\"{\"")
	p.pushScope(false)
	stmts := p.parseStmtsUntil(js_lexer.TCloseBrace)
	p.popScope()
	p.expect(js_lexer.TCloseBrace, "\"}\"")
	return stmts
}

func (p *Parser) parseStmt() js_ast.Stmt {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSemicolon:
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}

	case js_lexer.TOpenBrace:
		stmts := p.parseBlockStmts()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: stmts}}

	case js_lexer.TConst, js_lexer.TLet, js_lexer.TVar:
		decl := p.parseVarDeclStmt(false)
		p.consumeSemicolon()
		return decl

	case js_lexer.TFunction:
		return p.parseFunctionDeclStmt(false, false)

	case js_lexer.TAsync:
		// "async function foo() {}" at statement position.
		save := p.lexer
		p.lexer.Next()
		if p.lexer.Token == js_lexer.TFunction {
			return p.parseFunctionDeclStmt(false, true)
		}
		p.lexer = save
		expr := p.parseExprOrCommaList()
		p.consumeSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}

	case js_lexer.TClass:
		class := p.parseClassTail()
		if class.Name != nil {
			p.scopeStack.names[p.symbolName(class.Name.Ref)] = class.Name.Ref
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class}}

	case js_lexer.TReturn:
		p.lexer.Next()
		var value *js_ast.Expr
		if p.lexer.Token != js_lexer.TSemicolon && p.lexer.Token != js_lexer.TCloseBrace &&
			p.lexer.Token != js_lexer.TEndOfFile && !p.lexer.HasNewlineBefore {
			v := p.parseExprOrCommaList()
			value = &v
		}
		p.consumeSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{ValueOrNil: value}}

	case js_lexer.TIf:
		return p.parseIfStmt(loc)

	case js_lexer.TFor:
		return p.parseForStmt(loc)

	case js_lexer.TWhile:
		p.lexer.Next()
		p.expect(js_lexer.TOpenParen, "\"(\"")
		test := p.parseExprOrCommaList()
		p.expect(js_lexer.TCloseParen, "\")\"")
		body := p.parseStmt()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWhile{Test: test, Body: body}}

	case js_lexer.TThrow:
		p.lexer.Next()
		value := p.parseExprOrCommaList()
		p.consumeSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SThrow{Value: value}}

	case js_lexer.TImport:
		return p.parseImportStmt(loc)

	case js_lexer.TExport:
		return p.parseExportStmt(loc)

	default:
		expr := p.parseExprOrCommaList()
		p.consumeSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
	}
}

func (p *Parser) consumeSemicolon() {
	if p.lexer.Token == js_lexer.TSemicolon {
		p.lexer.Next()
	}
}

func (p *Parser) parseVarDeclStmt(isExport bool) js_ast.Stmt {
	loc := p.lexer.Loc()
	var kind js_ast.VarKind
	switch p.lexer.Token {
	case js_lexer.TConst:
		kind = js_ast.VarConst
	case js_lexer.TLet:
		kind = js_ast.VarLet
	default:
		kind = js_ast.VarVar
	}
	hoisted := kind == js_ast.VarVar
	p.lexer.Next()

	var decls []js_ast.Decl
	for {
		b := p.parseBindingTarget()
		var value *js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			v := p.parseExpr(LComma + 1)
			value = &v
		}
		decls = append(decls, js_ast.Decl{Binding: b, ValueOrNil: value})
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}
	_ = hoisted
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SVarDecl{Kind: kind, Decls: decls, IsExport: isExport}}
}

func (p *Parser) parseFunctionDeclStmt(isExport, isAsync bool) js_ast.Stmt {
	loc := p.lexer.Loc()
	p.expect(js_lexer.TFunction, "\"function\"")
	isGenerator := false
	if p.lexer.Token == js_lexer.TAsterisk {
		isGenerator = true
		p.lexer.Next()
	}
	nameLoc := p.lexer.Loc()
	name := p.lexer.Identifier
	isDefault := name == "" && p.lexer.Token != js_lexer.TIdentifier
	if p.lexer.Token == js_lexer.TIdentifier {
		p.lexer.Next()
	}
	var nameRef *js_ast.LocRef
	if !isDefault {
		ref := p.declare(name, ast.SymbolHoistedFunction, nameLoc, true)
		nameRef = &js_ast.LocRef{Loc: nameLoc, Ref: ref}
	}
	fn := p.parseFnTail(isAsync, isGenerator)
	fn.Name = nameRef
	if isDefault {
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn, IsExport: isExport, IsDefaultExport: true}}
	}
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn, IsExport: isExport}}
}

func (p *Parser) parseIfStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()
	p.expect(js_lexer.TOpenParen, "\"(\"")
	test := p.parseExprOrCommaList()
	p.expect(js_lexer.TCloseParen, "\")\"")
	yes := p.parseStmt()
	var no *js_ast.Stmt
	if p.lexer.Token == js_lexer.TElse {
		p.lexer.Next()
		n := p.parseStmt()
		no = &n
	}
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SIf{Test: test, Yes: yes, NoOrNil: no}}
}

// parseForStmt disambiguates the three C-style/in/of for-head shapes by
// parsing a single init clause (a var decl or an expression) and then
// branching on whether "in"/"of" follows, mirroring esbuild's parseFor.
func (p *Parser) parseForStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()
	p.expect(js_lexer.TOpenParen, "\"(\"")
	p.pushScope(false)
	defer p.popScope()

	var init *js_ast.Stmt

	if p.lexer.Token == js_lexer.TConst || p.lexer.Token == js_lexer.TLet || p.lexer.Token == js_lexer.TVar {
		declLoc := p.lexer.Loc()
		var kind js_ast.VarKind
		switch p.lexer.Token {
		case js_lexer.TConst:
			kind = js_ast.VarConst
		case js_lexer.TLet:
			kind = js_ast.VarLet
		default:
			kind = js_ast.VarVar
		}
		p.lexer.Next()
		b := p.parseBindingTarget()

		if p.lexer.Token == js_lexer.TIn || p.lexer.Token == js_lexer.TOf {
			isOf := p.lexer.Token == js_lexer.TOf
			p.lexer.Next()
			value := p.parseExpr(LComma + 1)
			p.expect(js_lexer.TCloseParen, "\")\"")
			body := p.parseStmt()
			initStmt := js_ast.Stmt{Loc: declLoc, Data: &js_ast.SVarDecl{Kind: kind, Decls: []js_ast.Decl{{Binding: b}}}}
			if isOf {
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SForOf{Init: initStmt, Value: value, Body: body}}
			}
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SForIn{Init: initStmt, Value: value, Body: body}}
		}

		var value *js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			v := p.parseExpr(LComma + 1)
			value = &v
		}
		decls := []js_ast.Decl{{Binding: b, ValueOrNil: value}}
		for p.lexer.Token == js_lexer.TComma {
			p.lexer.Next()
			b2 := p.parseBindingTarget()
			var v2 *js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				vv := p.parseExpr(LComma + 1)
				v2 = &vv
			}
			decls = append(decls, js_ast.Decl{Binding: b2, ValueOrNil: v2})
		}
		s := js_ast.Stmt{Loc: declLoc, Data: &js_ast.SVarDecl{Kind: kind, Decls: decls}}
		init = &s
	} else if p.lexer.Token != js_lexer.TSemicolon {
		exprLoc := p.lexer.Loc()
		expr := p.parseExprOrCommaList()

		if p.lexer.Token == js_lexer.TIn || p.lexer.Token == js_lexer.TOf {
			isOf := p.lexer.Token == js_lexer.TOf
			p.lexer.Next()
			value := p.parseExpr(LComma + 1)
			p.expect(js_lexer.TCloseParen, "\")\"")
			body := p.parseStmt()
			initStmt := js_ast.Stmt{Loc: exprLoc, Data: &js_ast.SExpr{Value: expr}}
			if isOf {
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SForOf{Init: initStmt, Value: value, Body: body}}
			}
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SForIn{Init: initStmt, Value: value, Body: body}}
		}
		s := js_ast.Stmt{Loc: exprLoc, Data: &js_ast.SExpr{Value: expr}}
		init = &s
	}

	p.expect(js_lexer.TSemicolon, "\";\"")
	var test *js_ast.Expr
	if p.lexer.Token != js_lexer.TSemicolon {
		t := p.parseExprOrCommaList()
		test = &t
	}
	p.expect(js_lexer.TSemicolon, "\";\"")
	var update *js_ast.Expr
	if p.lexer.Token != js_lexer.TCloseParen {
		u := p.parseExprOrCommaList()
		update = &u
	}
	p.expect(js_lexer.TCloseParen, "\")\"")
	body := p.parseStmt()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFor{InitOrNil: init, TestOrNil: test, UpdateOrNil: update, Body: body}}
}

func (p *Parser) parseImportStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()
	var items []js_ast.ClauseItem

	if p.lexer.Token == js_lexer.TIdentifier {
		nameLoc := p.lexer.Loc()
		name := p.lexer.Identifier
		p.lexer.Next()
		ref := p.declare(name, ast.SymbolImport, nameLoc, false)
		items = append(items, js_ast.ClauseItem{Alias: name, Name: js_ast.LocRef{Loc: nameLoc, Ref: ref}, Kind: js_ast.ImportDefault})
		if p.lexer.Token == js_lexer.TComma {
			p.lexer.Next()
		}
	}

	if p.lexer.Token == js_lexer.TAsterisk {
		p.lexer.Next()
		p.expect(js_lexer.TAs, "\"as\"")
		nameLoc := p.lexer.Loc()
		name := p.lexer.Identifier
		p.expect(js_lexer.TIdentifier, "namespace name")
		ref := p.declare(name, ast.SymbolImport, nameLoc, false)
		items = append(items, js_ast.ClauseItem{Alias: "*", Name: js_ast.LocRef{Loc: nameLoc, Ref: ref}, Kind: js_ast.ImportStar})
	} else if p.lexer.Token == js_lexer.TOpenBrace {
		p.lexer.Next()
		for p.lexer.Token != js_lexer.TCloseBrace {
			alias := p.lexer.Identifier
			p.lexer.Next()
			localLoc := p.lexer.Loc()
			localName := alias
			if p.lexer.Token == js_lexer.TAs {
				p.lexer.Next()
				localName = p.lexer.Identifier
				localLoc = p.lexer.Loc()
				p.lexer.Next()
			}
			ref := p.declare(localName, ast.SymbolImport, localLoc, false)
			items = append(items, js_ast.ClauseItem{Alias: alias, Name: js_ast.LocRef{Loc: localLoc, Ref: ref}, Kind: js_ast.ImportNamed})
			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}
		p.expect(js_lexer.TCloseBrace, "\"}\"")
	}

	var source string
	if len(items) > 0 {
		p.expect(js_lexer.TFrom, "\"from\"")
	}
	if p.lexer.Token == js_lexer.TStringLiteral {
		source = p.lexer.StringLiteral
		p.lexer.Next()
	}
	p.consumeSemicolon()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SImport{Items: items, Source: source}}
}

func (p *Parser) parseExportStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()

	switch p.lexer.Token {
	case js_lexer.TDefault:
		p.lexer.Next()
		if p.lexer.Token == js_lexer.TFunction {
			stmt := p.parseFunctionDeclStmt(true, false)
			stmt.Data.(*js_ast.SFunction).IsDefaultExport = true
			return stmt
		}
		if p.lexer.Token == js_lexer.TClass {
			class := p.parseClassTail()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class, IsExport: true, IsDefaultExport: true}}
		}
		value := p.parseExpr(LComma + 1)
		p.consumeSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{Value: value}}

	case js_lexer.TConst, js_lexer.TLet, js_lexer.TVar:
		decl := p.parseVarDeclStmt(true)
		p.consumeSemicolon()
		return decl

	case js_lexer.TFunction:
		return p.parseFunctionDeclStmt(true, false)

	case js_lexer.TClass:
		class := p.parseClassTail()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class, IsExport: true}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		var items []js_ast.ClauseItem
		for p.lexer.Token != js_lexer.TCloseBrace {
			nameLoc := p.lexer.Loc()
			name := p.lexer.Identifier
			p.lexer.Next()
			alias := name
			if p.lexer.Token == js_lexer.TAs {
				p.lexer.Next()
				alias = p.lexer.Identifier
				p.lexer.Next()
			}
			ref := p.resolveRef(name, nameLoc)
			items = append(items, js_ast.ClauseItem{Alias: alias, Name: js_ast.LocRef{Loc: nameLoc, Ref: ref}})
			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}
		p.expect(js_lexer.TCloseBrace, "\"}\"")
		p.consumeSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportClause{Items: items}}
	}

	p.errorRange(p.lexer.Range(), "unexpected token after \"export\"")
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}
}
