package js_parser

import (
	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_lexer"
	"github.com/nota-dev/qrlc/internal/logger"
)

// Level mirrors esbuild's js_parser.L: a precedence-climbing expression
// parser keyed by an ordered level enum rather than raw binding-power
// integers, so operator tables stay readable.
type Level uint8

const (
	LLowest Level = iota
	LComma
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LBitwiseOr
	LBitwiseXor
	LBitwiseAnd
	LEquals
	LCompare
	LShift
	LAdd
	LMultiply
	LExponentiation
	LPrefix
	LPostfix
	LCall
)

var binaryOpTable = map[js_lexer.T]struct {
	op    js_ast.OpCode
	level Level
}{
	js_lexer.TBarBar:                   {js_ast.BinOpLogicalOr, LLogicalOr},
	js_lexer.TAmpersandAmpersand:       {js_ast.BinOpLogicalAnd, LLogicalAnd},
	js_lexer.TQuestionQuestion:         {js_ast.BinOpNullishCoalescing, LNullishCoalescing},
	js_lexer.TBar:                      {js_ast.BinOpBitwiseOr, LBitwiseOr},
	js_lexer.TCaret:                    {js_ast.BinOpBitwiseXor, LBitwiseXor},
	js_lexer.TAmpersand:                {js_ast.BinOpBitwiseAnd, LBitwiseAnd},
	js_lexer.TEqualsEquals:             {js_ast.BinOpLooseEq, LEquals},
	js_lexer.TExclamationEquals:        {js_ast.BinOpLooseNe, LEquals},
	js_lexer.TEqualsEqualsEquals:       {js_ast.BinOpStrictEq, LEquals},
	js_lexer.TExclamationEqualsEquals:  {js_ast.BinOpStrictNe, LEquals},
	js_lexer.TLessThan:                 {js_ast.BinOpLt, LCompare},
	js_lexer.TLessThanEquals:           {js_ast.BinOpLe, LCompare},
	js_lexer.TGreaterThan:              {js_ast.BinOpGt, LCompare},
	js_lexer.TGreaterThanEquals:        {js_ast.BinOpGe, LCompare},
	js_lexer.TIn:                       {js_ast.BinOpIn, LCompare},
	js_lexer.TInstanceof:               {js_ast.BinOpInstanceof, LCompare},
	js_lexer.TLessThanLessThan:         {js_ast.BinOpShl, LShift},
	js_lexer.TGreaterThanGreaterThan:   {js_ast.BinOpShr, LShift},
	js_lexer.TGreaterThanGreaterThanGreaterThan: {js_ast.BinOpUShr, LShift},
	js_lexer.TPlus:                     {js_ast.BinOpAdd, LAdd},
	js_lexer.TMinus:                    {js_ast.BinOpSub, LAdd},
	js_lexer.TAsterisk:                 {js_ast.BinOpMul, LMultiply},
	js_lexer.TSlash:                    {js_ast.BinOpDiv, LMultiply},
	js_lexer.TPercent:                  {js_ast.BinOpMod, LMultiply},
	js_lexer.TAsteriskAsterisk:         {js_ast.BinOpPow, LExponentiation},
}

func (p *Parser) parseExpr(level Level) js_ast.Expr {
	expr := p.parsePrefix(level)
	return p.parseSuffix(expr, level)
}

// parseExprOrCommaList parses a comma-joined expression sequence at LComma,
// used for "a, b, c" in a for-loop's init/update clause. Callers needing a
// single assignment-level expression should call parseExpr(LAssign) instead.
func (p *Parser) parseExprOrCommaList() js_ast.Expr {
	expr := p.parseExpr(LComma)
	for p.lexer.Token == js_lexer.TComma {
		loc := p.lexer.Loc()
		p.lexer.Next()
		right := p.parseExpr(LComma)
		expr = js_ast.Expr{Loc: loc, Data: &js_ast.EBinary{Op: js_ast.BinOpAdd, Left: expr, Right: right}}
	}
	return expr
}

func (p *Parser) parsePrefix(level Level) js_ast.Expr {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TNumericLiteral:
		v := p.lexer.Number
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: v}}

	case js_lexer.TStringLiteral:
		v := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: v}}

	case js_lexer.TNoSubstitutionTemplateLiteral:
		v := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: v, PreferTemplate: true}}

	case js_lexer.TTemplateHead:
		return p.parseTemplate(loc)

	case js_lexer.TTrue:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: true}}

	case js_lexer.TFalse:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: false}}

	case js_lexer.TNull:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}

	case js_lexer.TUndefined:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUndefined{}}

	case js_lexer.TThis:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}

	case js_lexer.TSuper:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}

	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		p.lexer.Next()
		if p.lexer.Token == js_lexer.TArrow {
			return p.parseArrowFromSingleIdent(loc, name)
		}
		ref := p.resolveRef(name, loc)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: ref}}

	case js_lexer.TAsync:
		p.lexer.Next()
		return p.parseAsyncExpr(loc)

	case js_lexer.TFunction:
		return p.parseFnExpr(loc, false)

	case js_lexer.TClass:
		return p.parseClassExpr(loc)

	case js_lexer.TNew:
		p.lexer.Next()
		if p.lexer.Token == js_lexer.TDot {
			// new.target: treated as an opaque identifier expression.
			p.lexer.Next()
			p.expect(js_lexer.TIdentifier, "\"target\"")
			return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: p.resolveRef("new.target", loc)}}
		}
		target := p.parseExpr(LCall)
		var args []js_ast.Expr
		if p.lexer.Token == js_lexer.TOpenParen {
			args = p.parseCallArgs()
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENew{Target: target, Args: args}}

	case js_lexer.TOpenParen:
		return p.parseParenOrArrow(loc)

	case js_lexer.TOpenBracket:
		return p.parseArrayLit(loc)

	case js_lexer.TOpenBrace:
		return p.parseObjectLit(loc)

	case js_lexer.TImport:
		p.lexer.Next()
		p.expect(js_lexer.TOpenParen, "\"(\"")
		arg := p.parseExpr(LAssign)
		p.expect(js_lexer.TCloseParen, "\")\"")
		return js_ast.Expr{Loc: loc, Data: &js_ast.EImportCall{Arg: arg}}

	case js_lexer.TAwait:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: v}}

	case js_lexer.TYield:
		p.lexer.Next()
		if p.lexer.Token == js_lexer.TSemicolon || p.lexer.Token == js_lexer.TCloseParen ||
			p.lexer.Token == js_lexer.TCloseBrace || p.lexer.Token == js_lexer.TComma {
			return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{}}
		}
		v := p.parseExpr(LAssign)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{ValueOrNil: &v}}

	case js_lexer.TExclamation:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNot, Value: v, Prefix: true}}

	case js_lexer.TTilde:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpCpl, Value: v, Prefix: true}}

	case js_lexer.TMinus:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNeg, Value: v, Prefix: true}}

	case js_lexer.TPlus:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPos, Value: v, Prefix: true}}

	case js_lexer.TPlusPlus:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreInc, Value: v, Prefix: true}}

	case js_lexer.TMinusMinus:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreDec, Value: v, Prefix: true}}

	case js_lexer.TTypeof:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpTypeof, Value: v, Prefix: true}}

	case js_lexer.TVoid:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpVoid, Value: v, Prefix: true}}

	case js_lexer.TDelete:
		p.lexer.Next()
		v := p.parseExpr(LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpDelete, Value: v, Prefix: true}}

	case js_lexer.TDotDotDot:
		p.lexer.Next()
		v := p.parseExpr(LComma)
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESpread{Value: v}}

	case js_lexer.TLessThan:
		if p.options.IsJSX {
			return p.parseJSXElement(loc)
		}
	}

	p.errorRange(p.lexer.Range(), "unexpected token in expression")
	p.lexer.Next()
	return js_ast.Expr{Loc: loc, Data: &js_ast.EMissing{}}
}

func (p *Parser) parseSuffix(left js_ast.Expr, level Level) js_ast.Expr {
	for {
		loc := p.lexer.Loc()

		switch p.lexer.Token {
		case js_lexer.TDot:
			p.lexer.Next()
			name := p.lexer.Identifier
			p.expect(js_lexer.TIdentifier, "property name")
			left = js_ast.Expr{Loc: loc, Data: &js_ast.EDot{Target: left, Name: name}}
			continue

		case js_lexer.TQuestionDot:
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TOpenParen {
				args := p.parseCallArgs()
				left = js_ast.Expr{Loc: loc, Data: &js_ast.ECall{Target: left, Args: args, OptionalChain: true}}
				continue
			}
			if p.lexer.Token == js_lexer.TOpenBracket {
				p.lexer.Next()
				idx := p.parseExprOrCommaList()
				p.expect(js_lexer.TCloseBracket, "\"]\"")
				left = js_ast.Expr{Loc: loc, Data: &js_ast.EIndex{Target: left, Index: idx, OptionalChain: true}}
				continue
			}
			name := p.lexer.Identifier
			p.expect(js_lexer.TIdentifier, "property name")
			left = js_ast.Expr{Loc: loc, Data: &js_ast.EDot{Target: left, Name: name, OptionalChain: true}}
			continue

		case js_lexer.TOpenBracket:
			p.lexer.Next()
			idx := p.parseExprOrCommaList()
			p.expect(js_lexer.TCloseBracket, "\"]\"")
			left = js_ast.Expr{Loc: loc, Data: &js_ast.EIndex{Target: left, Index: idx}}
			continue

		case js_lexer.TOpenParen:
			if level >= LCall {
				return left
			}
			args := p.parseCallArgs()
			left = js_ast.Expr{Loc: loc, Data: &js_ast.ECall{Target: left, Args: args}}
			continue

		case js_lexer.TPlusPlus:
			if level >= LPostfix || p.lexer.HasNewlineBefore {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostInc, Value: left}}
			continue

		case js_lexer.TMinusMinus:
			if level >= LPostfix || p.lexer.HasNewlineBefore {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostDec, Value: left}}
			continue

		case js_lexer.TQuestion:
			if level >= LConditional {
				return left
			}
			p.lexer.Next()
			yes := p.parseExpr(LAssign)
			p.expect(js_lexer.TColon, "\":\"")
			no := p.parseExpr(LAssign)
			left = js_ast.Expr{Loc: loc, Data: &js_ast.EIf{Test: left, Yes: yes, No: no}}
			continue

		case js_lexer.TEquals:
			if level >= LAssign {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(LAssign - 1)
			left = js_ast.Expr{Loc: loc, Data: &js_ast.EBinary{Op: js_ast.BinOpAssign, Left: left, Right: right}}
			continue

		case js_lexer.TPlusEquals:
			if level >= LAssign {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(LAssign - 1)
			left = js_ast.Expr{Loc: loc, Data: &js_ast.EBinary{Op: js_ast.BinOpAddAssign, Left: left, Right: right}}
			continue

		default:
			if entry, ok := binaryOpTable[p.lexer.Token]; ok {
				if entry.level <= level {
					return left
				}
				p.lexer.Next()
				nextLevel := entry.level
				if entry.op != js_ast.BinOpPow {
					nextLevel++ // left-associative
				}
				right := p.parseExpr(nextLevel)
				left = js_ast.Expr{Loc: loc, Data: &js_ast.EBinary{Op: entry.op, Left: left, Right: right}}
				continue
			}
			return left
		}
	}
}

func (p *Parser) parseCallArgs() []js_ast.Expr {
	p.expect(js_lexer.TOpenParen, "\"(\"")
	var args []js_ast.Expr
	for p.lexer.Token != js_lexer.TCloseParen {
		args = append(args, p.parseExpr(LComma+1))
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}
	p.expect(js_lexer.TCloseParen, "\")\"")
	return args
}

func (p *Parser) parseTemplate(loc logger.Loc) js_ast.Expr {
	head := p.lexer.StringLiteral
	p.lexer.Next()
	var parts []js_ast.TemplatePart
	for {
		value := p.parseExprOrCommaList()
		if p.lexer.Token != js_lexer.TCloseBrace {
			p.errorRange(p.lexer.Range(), "expected %s", "\"}\"")
		}
		p.lexer.RescanTemplateContinuation()
		tailRaw := p.lexer.StringLiteral
		tok := p.lexer.Token
		p.lexer.Next()
		parts = append(parts, js_ast.TemplatePart{Value: value, TailRaw: tailRaw})
		if tok == js_lexer.TTemplateTail {
			break
		}
	}
	return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{HeadRaw: head, Parts: parts}}
}

func (p *Parser) parseArrayLit(loc logger.Loc) js_ast.Expr {
	p.lexer.Next()
	var items []js_ast.Expr
	for p.lexer.Token != js_lexer.TCloseBracket {
		items = append(items, p.parseExpr(LComma+1))
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}
	p.expect(js_lexer.TCloseBracket, "\"]\"")
	return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items}}
}

// parseObjectLit parses both plain object literals and (when used inside a
// parenthesized head later reinterpreted as a binding) object patterns; the
// caller is responsible for converting an EObject into a BObject if it turns
// out to be on the left of an assignment/param position.
func (p *Parser) parseObjectLit(loc logger.Loc) js_ast.Expr {
	p.lexer.Next()
	var props []js_ast.Property
	for p.lexer.Token != js_lexer.TCloseBrace {
		if p.lexer.Token == js_lexer.TDotDotDot {
			p.lexer.Next()
			v := p.parseExpr(LComma + 1)
			props = append(props, js_ast.Property{Kind: js_ast.PropertySpread, IsSpread: true, Value: &v})
		} else {
			prop := p.parseObjectProperty()
			props = append(props, prop)
		}
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}
	p.expect(js_lexer.TCloseBrace, "\"}\"")
	return js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: props}}
}

func (p *Parser) parseObjectProperty() js_ast.Property {
	keyLoc := p.lexer.Loc()
	isComputed := false
	var key js_ast.Expr

	if p.lexer.Token == js_lexer.TOpenBracket {
		isComputed = true
		p.lexer.Next()
		key = p.parseExpr(LAssign)
		p.expect(js_lexer.TCloseBracket, "\"]\"")
	} else if p.lexer.Token == js_lexer.TStringLiteral {
		key = js_ast.Expr{Loc: keyLoc, Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
		p.lexer.Next()
	} else if p.lexer.Token == js_lexer.TNumericLiteral {
		key = js_ast.Expr{Loc: keyLoc, Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()
	} else {
		name := p.lexer.Identifier
		p.lexer.Next()
		key = js_ast.Expr{Loc: keyLoc, Data: &js_ast.EString{Value: name}}
	}

	if p.lexer.Token == js_lexer.TColon {
		p.lexer.Next()
		value := p.parseExpr(LComma + 1)
		var initializer *js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			def := p.parseExpr(LComma + 1)
			initializer = &def
		}
		return js_ast.Property{Key: key, Value: &value, IsComputed: isComputed, Initializer: initializer}
	}

	if p.lexer.Token == js_lexer.TOpenParen {
		fn := p.parseFnTail(false, false)
		value := js_ast.Expr{Loc: keyLoc, Data: &js_ast.EFunction{Fn: fn}}
		return js_ast.Property{Key: key, Value: &value, Kind: js_ast.PropertyMethod, IsComputed: isComputed}
	}

	// shorthand { x } or { x = default }
	name, _ := key.Data.(*js_ast.EString)
	var shorthandValue js_ast.Expr
	if name != nil {
		shorthandValue = js_ast.Expr{Loc: keyLoc, Data: &js_ast.EIdentifier{Ref: p.resolveRef(name.Value, keyLoc)}}
	}
	var initializer *js_ast.Expr
	if p.lexer.Token == js_lexer.TEquals {
		p.lexer.Next()
		def := p.parseExpr(LComma + 1)
		initializer = &def
	}
	return js_ast.Property{Key: key, Value: &shorthandValue, IsComputed: isComputed, Initializer: initializer}
}

func (p *Parser) parseAsyncExpr(loc logger.Loc) js_ast.Expr {
	if p.lexer.Token == js_lexer.TFunction {
		fn := p.parseFnExpr(p.lexer.Loc(), true)
		fn.Data.(*js_ast.EFunction).Fn.IsAsync = true
		return fn
	}
	if p.lexer.Token == js_lexer.TIdentifier {
		name := p.lexer.Identifier
		p.lexer.Next()
		if p.lexer.Token == js_lexer.TArrow {
			arrow := p.parseArrowFromSingleIdent(loc, name)
			arrow.Data.(*js_ast.EArrow).IsAsync = true
			return arrow
		}
		ref := p.resolveRef(name, loc)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: ref}}
	}
	if p.lexer.Token == js_lexer.TOpenParen {
		arrow := p.parseParenOrArrow(loc)
		if a, ok := arrow.Data.(*js_ast.EArrow); ok {
			a.IsAsync = true
		}
		return arrow
	}
	return p.parsePrefix(LPrefix)
}

func (p *Parser) parseArrowFromSingleIdent(loc logger.Loc, name string) js_ast.Expr {
	p.lexer.Next() // consume "=>"
	p.pushScope(true)
	ref := p.declare(name, ast.SymbolVar, loc, true)
	args := []js_ast.Arg{{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: ref}}}}
	body, isExprBody := p.parseArrowBody()
	p.popScope()
	return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{Args: args, Body: body, IsExprBody: isExprBody}}
}

func (p *Parser) parseArrowBody() ([]js_ast.Stmt, bool) {
	if p.lexer.Token == js_lexer.TOpenBrace {
		return p.parseBlockStmts(), false
	}
	expr := p.parseExpr(LAssign)
	return []js_ast.Stmt{{Loc: expr.Loc, Data: &js_ast.SReturn{ValueOrNil: &expr}}}, true
}

// parseParenOrArrow disambiguates "(expr)" from an arrow parameter list by
// first trying to parse the parenthesized contents as an argument list (the
// common shape in this grammar subset: identifiers, optional defaults, rest,
// and destructuring patterns), falling back to a plain parenthesized
// expression when no "=>" follows.
func (p *Parser) parseParenOrArrow(loc logger.Loc) js_ast.Expr {
	p.pushScope(true)
	p.expect(js_lexer.TOpenParen, "\"(\"")

	var args []js_ast.Arg
	isArrow := true
	var single js_ast.Expr
	hasSingle := false

	for p.lexer.Token != js_lexer.TCloseParen {
		if p.lexer.Token == js_lexer.TDotDotDot {
			p.lexer.Next()
			b := p.parseBindingTarget()
			args = append(args, js_ast.Arg{Binding: b, IsRest: true})
		} else {
			b := p.parseBindingTarget()
			var def *js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				d := p.parseExpr(LComma + 1)
				def = &d
			}
			args = append(args, js_ast.Arg{Binding: b, DefaultOrNil: def})
		}
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}
	p.expect(js_lexer.TCloseParen, "\")\"")

	if p.lexer.Token == js_lexer.TArrow {
		p.lexer.Next()
		body, isExprBody := p.parseArrowBody()
		p.popScope()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{Args: args, Body: body, IsExprBody: isExprBody}}
	}

	// Not an arrow after all: re-evaluate as a plain parenthesized expression.
	// This subset grammar accepts only a single identifier in parens ("(a)"),
	// resolved by name in the enclosing scopes; any other content ("(a, b)",
	// a literal, a call) yields EMissing. Full reparse-as-expression of
	// an arbitrary binding target is out of scope (spec.md §1: front end is
	// an external collaborator; this parser only needs to drive the segment
	// transformer's own grammar, not every corner of real-world JS).
	p.popScope()
	isArrow = false
	_ = isArrow
	if len(args) == 1 && args[0].DefaultOrNil == nil && !args[0].IsRest {
		if id, ok := args[0].Binding.Data.(*js_ast.BIdentifier); ok {
			ref := p.resolveRef(p.symbolName(id.Ref), args[0].Binding.Loc)
			single = js_ast.Expr{Loc: args[0].Binding.Loc, Data: &js_ast.EIdentifier{Ref: ref}}
			hasSingle = true
		}
	}
	if hasSingle {
		return single
	}
	return js_ast.Expr{Loc: loc, Data: &js_ast.EMissing{}}
}

func (p *Parser) parseFnExpr(loc logger.Loc, isAsync bool) js_ast.Expr {
	p.expect(js_lexer.TFunction, "\"function\"")
	isGenerator := false
	if p.lexer.Token == js_lexer.TAsteriskAsterisk || p.lexer.Token == js_lexer.TAsterisk {
		isGenerator = true
		p.lexer.Next()
	}
	var nameRef *js_ast.LocRef
	if p.lexer.Token == js_lexer.TIdentifier {
		nameLoc := p.lexer.Loc()
		name := p.lexer.Identifier
		p.lexer.Next()
		ref := p.declare(name, ast.SymbolFunction, nameLoc, false)
		nameRef = &js_ast.LocRef{Loc: nameLoc, Ref: ref}
	}
	fn := p.parseFnTail(isAsync, isGenerator)
	fn.Name = nameRef
	return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}
}

func (p *Parser) parseFnTail(isAsync, isGenerator bool) js_ast.Fn {
	p.pushScope(true)
	defer p.popScope()
	p.expect(js_lexer.TOpenParen, "\"(\"")
	var args []js_ast.Arg
	for p.lexer.Token != js_lexer.TCloseParen {
		isRest := false
		if p.lexer.Token == js_lexer.TDotDotDot {
			isRest = true
			p.lexer.Next()
		}
		b := p.parseBindingTarget()
		var def *js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			d := p.parseExpr(LComma + 1)
			def = &d
		}
		args = append(args, js_ast.Arg{Binding: b, DefaultOrNil: def, IsRest: isRest})
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}
	p.expect(js_lexer.TCloseParen, "\")\"")
	body := p.parseBlockStmts()
	return js_ast.Fn{Args: args, Body: body, IsAsync: isAsync, IsGenerator: isGenerator}
}

func (p *Parser) parseClassExpr(loc logger.Loc) js_ast.Expr {
	class := p.parseClassTail()
	return js_ast.Expr{Loc: loc, Data: &js_ast.EClass{Class: class}}
}

func (p *Parser) parseClassTail() js_ast.Class {
	p.expect(js_lexer.TClass, "\"class\"")
	var nameRef *js_ast.LocRef
	if p.lexer.Token == js_lexer.TIdentifier {
		nameLoc := p.lexer.Loc()
		name := p.lexer.Identifier
		p.lexer.Next()
		ref := p.declare(name, ast.SymbolClass, nameLoc, false)
		nameRef = &js_ast.LocRef{Loc: nameLoc, Ref: ref}
	}
	var extends *js_ast.Expr
	if p.lexer.Token == js_lexer.TExtends {
		p.lexer.Next()
		e := p.parseExpr(LCall)
		extends = &e
	}
	bodyLoc := p.lexer.Loc()
	p.expect(js_lexer.TOpenBrace, "\"{\"")
	p.pushScope(true)
	var members []js_ast.ClassMember
	for p.lexer.Token != js_lexer.TCloseBrace && p.lexer.Token != js_lexer.TEndOfFile {
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
			continue
		}
		members = append(members, p.parseClassMember())
	}
	p.popScope()
	p.expect(js_lexer.TCloseBrace, "\"}\"")
	return js_ast.Class{Name: nameRef, ExtendsOrNil: extends, Members: members, BodyLoc: bodyLoc}
}

func (p *Parser) parseClassMember() js_ast.ClassMember {
	isStatic := false
	if p.lexer.Token == js_lexer.TIdentifier && p.lexer.Identifier == "static" {
		p.lexer.Next()
		isStatic = true
	}
	keyLoc := p.lexer.Loc()
	name := p.lexer.Identifier
	isComputed := false
	var key js_ast.Expr
	if p.lexer.Token == js_lexer.TOpenBracket {
		isComputed = true
		p.lexer.Next()
		key = p.parseExpr(LAssign)
		p.expect(js_lexer.TCloseBracket, "\"]\"")
	} else {
		p.lexer.Next()
		key = js_ast.Expr{Loc: keyLoc, Data: &js_ast.EString{Value: name}}
	}

	if p.lexer.Token == js_lexer.TOpenParen {
		fn := p.parseFnTail(false, false)
		value := js_ast.Expr{Loc: keyLoc, Data: &js_ast.EFunction{Fn: fn}}
		return js_ast.ClassMember{Key: key, Value: value, Kind: js_ast.PropertyMethod, IsComputed: isComputed, IsStatic: isStatic}
	}

	var value js_ast.Expr
	if p.lexer.Token == js_lexer.TEquals {
		p.lexer.Next()
		value = p.parseExpr(LComma + 1)
	}
	if p.lexer.Token == js_lexer.TSemicolon {
		p.lexer.Next()
	}
	return js_ast.ClassMember{Key: key, Value: value, IsComputed: isComputed, IsStatic: isStatic}
}

// parseBindingTarget parses a parameter/declaration binding: an identifier or
// an array/object destructuring pattern. Every identifier bound here becomes
// a fresh "var"-kind symbol (spec.md §4.4: parameters and destructured names
// are capturable scoped_idents).
func (p *Parser) parseBindingTarget() js_ast.Binding {
	loc := p.lexer.Loc()
	switch p.lexer.Token {
	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		p.lexer.Next()
		ref := p.declare(name, ast.SymbolVar, loc, true)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: ref}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		var items []js_ast.ArrayBinding
		hasRest := false
		for p.lexer.Token != js_lexer.TCloseBracket {
			if p.lexer.Token == js_lexer.TComma {
				items = append(items, js_ast.ArrayBinding{Binding: js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BMissing{}}})
				p.lexer.Next()
				continue
			}
			if p.lexer.Token == js_lexer.TDotDotDot {
				p.lexer.Next()
				hasRest = true
			}
			b := p.parseBindingTarget()
			var def *js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				d := p.parseExpr(LComma + 1)
				def = &d
			}
			items = append(items, js_ast.ArrayBinding{Binding: b, DefaultOrNil: def})
			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}
		p.expect(js_lexer.TCloseBracket, "\"]\"")
		return js_ast.Binding{Loc: loc, Data: &js_ast.BArray{Items: items, HasRest: hasRest}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		var props []js_ast.PropertyBinding
		hasRest := false
		var restRef ast.Ref
		for p.lexer.Token != js_lexer.TCloseBrace {
			if p.lexer.Token == js_lexer.TDotDotDot {
				p.lexer.Next()
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				p.expect(js_lexer.TIdentifier, "rest binding name")
				restRef = p.declare(name, ast.SymbolVar, nameLoc, true)
				hasRest = true
				break
			}
			keyLoc := p.lexer.Loc()
			isComputed := false
			var key js_ast.Expr
			var keyName string
			if p.lexer.Token == js_lexer.TOpenBracket {
				isComputed = true
				p.lexer.Next()
				key = p.parseExpr(LAssign)
				p.expect(js_lexer.TCloseBracket, "\"]\"")
			} else if p.lexer.Token == js_lexer.TStringLiteral {
				keyName = p.lexer.StringLiteral
				key = js_ast.Expr{Loc: keyLoc, Data: &js_ast.EString{Value: keyName}}
				p.lexer.Next()
			} else {
				keyName = p.lexer.Identifier
				key = js_ast.Expr{Loc: keyLoc, Data: &js_ast.EString{Value: keyName}}
				p.lexer.Next()
			}
			var valueBinding js_ast.Binding
			if p.lexer.Token == js_lexer.TColon {
				p.lexer.Next()
				valueBinding = p.parseBindingTarget()
			} else {
				ref := p.declare(keyName, ast.SymbolVar, keyLoc, true)
				valueBinding = js_ast.Binding{Loc: keyLoc, Data: &js_ast.BIdentifier{Ref: ref}}
			}
			var def *js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				d := p.parseExpr(LComma + 1)
				def = &d
			}
			props = append(props, js_ast.PropertyBinding{Key: key, Value: valueBinding, DefaultOrNil: def, IsComputed: isComputed})
			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}
		p.expect(js_lexer.TCloseBrace, "\"}\"")
		return js_ast.Binding{Loc: loc, Data: &js_ast.BObject{Properties: props, HasRest: hasRest, RestRef: restRef}}
	}

	p.errorRange(p.lexer.Range(), "expected a binding target")
	p.lexer.Next()
	return js_ast.Binding{Loc: loc, Data: &js_ast.BMissing{}}
}
