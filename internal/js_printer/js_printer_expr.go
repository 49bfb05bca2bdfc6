package js_printer

import (
	"github.com/nota-dev/qrlc/internal/helpers"
	"github.com/nota-dev/qrlc/internal/js_ast"
)

// Level mirrors js_parser.Level so printer parenthesization and parser
// precedence stay in lockstep (same trick esbuild's printer/parser share).
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

var opLevel = map[js_ast.OpCode]Level{
	js_ast.BinOpLogicalOr:         LLogicalOr,
	js_ast.BinOpLogicalAnd:        LLogicalAnd,
	js_ast.BinOpNullishCoalescing: LNullishCoalescing,
	js_ast.BinOpBitwiseOr:         LBitwiseOr,
	js_ast.BinOpBitwiseXor:        LBitwiseXor,
	js_ast.BinOpBitwiseAnd:        LBitwiseAnd,
	js_ast.BinOpLooseEq:           LEquals,
	js_ast.BinOpLooseNe:           LEquals,
	js_ast.BinOpStrictEq:          LEquals,
	js_ast.BinOpStrictNe:          LEquals,
	js_ast.BinOpLt:                LCompare,
	js_ast.BinOpLe:                LCompare,
	js_ast.BinOpGt:                LCompare,
	js_ast.BinOpGe:                LCompare,
	js_ast.BinOpIn:                LCompare,
	js_ast.BinOpInstanceof:        LCompare,
	js_ast.BinOpShl:               LShift,
	js_ast.BinOpShr:               LShift,
	js_ast.BinOpUShr:              LShift,
	js_ast.BinOpAdd:               LAdd,
	js_ast.BinOpSub:               LAdd,
	js_ast.BinOpMul:               LMultiply,
	js_ast.BinOpDiv:               LMultiply,
	js_ast.BinOpMod:               LMultiply,
	js_ast.BinOpPow:               LExponentiation,
	js_ast.BinOpAssign:            LAssign,
	js_ast.BinOpAddAssign:         LAssign,
}

var opText = map[js_ast.OpCode]string{
	js_ast.BinOpLogicalOr:         "||",
	js_ast.BinOpLogicalAnd:        "&&",
	js_ast.BinOpNullishCoalescing: "??",
	js_ast.BinOpBitwiseOr:         "|",
	js_ast.BinOpBitwiseXor:        "^",
	js_ast.BinOpBitwiseAnd:        "&",
	js_ast.BinOpLooseEq:           "==",
	js_ast.BinOpLooseNe:           "!=",
	js_ast.BinOpStrictEq:          "===",
	js_ast.BinOpStrictNe:          "!==",
	js_ast.BinOpLt:                "<",
	js_ast.BinOpLe:                "<=",
	js_ast.BinOpGt:                ">",
	js_ast.BinOpGe:                ">=",
	js_ast.BinOpIn:                "in",
	js_ast.BinOpInstanceof:        "instanceof",
	js_ast.BinOpShl:               "<<",
	js_ast.BinOpShr:               ">>",
	js_ast.BinOpUShr:              ">>>",
	js_ast.BinOpAdd:               "+",
	js_ast.BinOpSub:               "-",
	js_ast.BinOpMul:               "*",
	js_ast.BinOpDiv:               "/",
	js_ast.BinOpMod:               "%",
	js_ast.BinOpPow:               "**",
	js_ast.BinOpAssign:            "=",
	js_ast.BinOpAddAssign:         "+=",
}

func (p *printer) printExpr(e js_ast.Expr, level Level) {
	switch v := e.Data.(type) {
	case *js_ast.EMissing:
		// nothing to print (e.g. an elided array element)

	case *js_ast.EIdentifier:
		p.sb.WriteString(p.nameFor(v.Ref))

	case *js_ast.ENumber:
		p.sb.WriteString(formatNumber(v.Value))

	case *js_ast.EString:
		p.sb.Write(helpers.QuoteForJSON(v.Value, p.opts.ASCIIOnly))

	case *js_ast.EBoolean:
		if v.Value {
			p.sb.WriteString("true")
		} else {
			p.sb.WriteString("false")
		}

	case *js_ast.ENull:
		p.sb.WriteString("null")

	case *js_ast.EUndefined:
		p.sb.WriteString("undefined")

	case *js_ast.EThis:
		p.sb.WriteString("this")

	case *js_ast.ESuper:
		p.sb.WriteString("super")

	case *js_ast.EArray:
		p.sb.WriteString("[")
		for i, item := range v.Items {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printExpr(item, LComma+1)
		}
		p.sb.WriteString("]")

	case *js_ast.EObject:
		p.printObject(v)

	case *js_ast.ESpread:
		p.sb.WriteString("...")
		p.printExpr(v.Value, LComma+1)

	case *js_ast.ETemplate:
		p.printTemplate(v)

	case *js_ast.EUnary:
		p.printUnary(v, level)

	case *js_ast.EBinary:
		p.printBinary(v, level)

	case *js_ast.EIf:
		wrap := level > LConditional
		if wrap {
			p.sb.WriteString("(")
		}
		p.printExpr(v.Test, LConditional+1)
		p.sb.WriteString(" ? ")
		p.printExpr(v.Yes, LAssign)
		p.sb.WriteString(" : ")
		p.printExpr(v.No, LAssign)
		if wrap {
			p.sb.WriteString(")")
		}

	case *js_ast.ECall:
		p.printExpr(v.Target, LCall-1)
		if v.OptionalChain {
			p.sb.WriteString("?.")
		}
		p.sb.WriteString("(")
		for i, a := range v.Args {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printExpr(a, LComma+1)
		}
		p.sb.WriteString(")")

	case *js_ast.ENew:
		p.sb.WriteString("new ")
		p.printExpr(v.Target, LCall)
		p.sb.WriteString("(")
		for i, a := range v.Args {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printExpr(a, LComma+1)
		}
		p.sb.WriteString(")")

	case *js_ast.EDot:
		p.printExpr(v.Target, LCall-1)
		if v.OptionalChain {
			p.sb.WriteString("?.")
		} else {
			p.sb.WriteString(".")
		}
		p.sb.WriteString(v.Name)

	case *js_ast.EIndex:
		p.printExpr(v.Target, LCall-1)
		if v.OptionalChain {
			p.sb.WriteString("?.")
		}
		p.sb.WriteString("[")
		p.printExpr(v.Index, LLowest)
		p.sb.WriteString("]")

	case *js_ast.EArrow:
		p.printArrow(v, level)

	case *js_ast.EFunction:
		wrap := level >= LCall
		if wrap {
			p.sb.WriteString("(")
		}
		p.sb.WriteString("function")
		if v.Fn.Name != nil {
			p.sb.WriteString(" ")
			p.sb.WriteString(p.nameFor(v.Fn.Name.Ref))
		}
		p.printFnTail(v.Fn)
		if wrap {
			p.sb.WriteString(")")
		}

	case *js_ast.EClass:
		wrap := level >= LCall
		if wrap {
			p.sb.WriteString("(")
		}
		p.printClass(v.Class)
		if wrap {
			p.sb.WriteString(")")
		}

	case *js_ast.EJSXElement:
		p.printJSX(v)

	case *js_ast.EJSXText:
		p.sb.WriteString(v.Raw)

	case *js_ast.EImportCall:
		p.sb.WriteString("import(")
		p.printExpr(v.Arg, LComma+1)
		p.sb.WriteString(")")

	case *js_ast.EAwait:
		wrap := level > LPrefix
		if wrap {
			p.sb.WriteString("(")
		}
		p.sb.WriteString("await ")
		p.printExpr(v.Value, LPrefix)
		if wrap {
			p.sb.WriteString(")")
		}

	case *js_ast.EYield:
		p.sb.WriteString("yield")
		if v.ValueOrNil != nil {
			p.sb.WriteString(" ")
			p.printExpr(*v.ValueOrNil, LAssign)
		}

	default:
		p.sb.WriteString("/* unknown expr */")
	}
}

func (p *printer) printObject(v *js_ast.EObject) {
	p.sb.WriteString("{ ")
	for i, prop := range v.Properties {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		if prop.IsSpread {
			p.sb.WriteString("...")
			p.printExpr(*prop.Value, LComma+1)
			continue
		}
		if str, ok := prop.Key.Data.(*js_ast.EString); ok && !prop.IsComputed {
			p.sb.WriteString(str.Value)
		} else {
			p.sb.WriteString("[")
			p.printExpr(prop.Key, LAssign)
			p.sb.WriteString("]")
		}
		if prop.Kind == js_ast.PropertyMethod {
			fn := prop.Value.Data.(*js_ast.EFunction).Fn
			p.printFnTail(fn)
			continue
		}
		if id, ok := prop.Value.Data.(*js_ast.EIdentifier); ok && p.nameFor(id.Ref) == keyName(prop.Key) && prop.Initializer == nil {
			continue // shorthand
		}
		p.sb.WriteString(": ")
		p.printExpr(*prop.Value, LComma+1)
	}
	p.sb.WriteString(" }")
}

func (p *printer) printTemplate(v *js_ast.ETemplate) {
	p.sb.WriteString("`")
	p.sb.WriteString(v.HeadRaw)
	for _, part := range v.Parts {
		p.sb.WriteString("${")
		p.printExpr(part.Value, LLowest)
		p.sb.WriteString("}")
		p.sb.WriteString(part.TailRaw)
	}
	p.sb.WriteString("`")
}

func (p *printer) printUnary(v *js_ast.EUnary, level Level) {
	if !v.Prefix {
		p.printExpr(v.Value, LPostfix)
		p.sb.WriteString(postfixOpText(v.Op))
		return
	}
	wrap := level > LPrefix
	if wrap {
		p.sb.WriteString("(")
	}
	p.sb.WriteString(prefixOpText(v.Op))
	p.printExpr(v.Value, LPrefix)
	if wrap {
		p.sb.WriteString(")")
	}
}

func prefixOpText(op js_ast.OpCode) string {
	switch op {
	case js_ast.UnOpPos:
		return "+"
	case js_ast.UnOpNeg:
		return "-"
	case js_ast.UnOpNot:
		return "!"
	case js_ast.UnOpCpl:
		return "~"
	case js_ast.UnOpTypeof:
		return "typeof "
	case js_ast.UnOpVoid:
		return "void "
	case js_ast.UnOpDelete:
		return "delete "
	case js_ast.UnOpPreInc:
		return "++"
	case js_ast.UnOpPreDec:
		return "--"
	default:
		return ""
	}
}

func postfixOpText(op js_ast.OpCode) string {
	switch op {
	case js_ast.UnOpPostInc:
		return "++"
	case js_ast.UnOpPostDec:
		return "--"
	default:
		return ""
	}
}

func (p *printer) printBinary(v *js_ast.EBinary, level Level) {
	myLevel := opLevel[v.Op]
	wrap := myLevel < level
	if wrap {
		p.sb.WriteString("(")
	}
	leftLevel := myLevel
	rightLevel := myLevel + 1
	if v.Op == js_ast.BinOpAssign || v.Op == js_ast.BinOpAddAssign {
		leftLevel = myLevel + 1
		rightLevel = myLevel
	} else if v.Op == js_ast.BinOpPow {
		leftLevel = myLevel + 1
		rightLevel = myLevel
	}
	p.printExpr(v.Left, leftLevel)
	p.sb.WriteString(" ")
	p.sb.WriteString(opText[v.Op])
	p.sb.WriteString(" ")
	p.printExpr(v.Right, rightLevel)
	if wrap {
		p.sb.WriteString(")")
	}
}

func (p *printer) printArrow(v *js_ast.EArrow, level Level) {
	wrap := level > LAssign
	if wrap {
		p.sb.WriteString("(")
	}
	if v.IsAsync {
		p.sb.WriteString("async ")
	}
	p.sb.WriteString("(")
	p.printArgs(v.Args)
	p.sb.WriteString(") => ")
	if v.IsExprBody && len(v.Body) == 1 {
		if ret, ok := v.Body[0].Data.(*js_ast.SReturn); ok && ret.ValueOrNil != nil {
			if _, isObj := (*ret.ValueOrNil).Data.(*js_ast.EObject); isObj {
				p.sb.WriteString("(")
				p.printExpr(*ret.ValueOrNil, LComma+1)
				p.sb.WriteString(")")
			} else {
				p.printExpr(*ret.ValueOrNil, LComma+1)
			}
			if wrap {
				p.sb.WriteString(")")
			}
			return
		}
	}
	p.sb.WriteString("{\n")
	p.indent++
	for _, s := range v.Body {
		p.printStmt(s)
	}
	p.indent--
	p.writeIndent()
	p.sb.WriteString("}")
	if wrap {
		p.sb.WriteString(")")
	}
}

func (p *printer) printJSX(v *js_ast.EJSXElement) {
	p.sb.WriteString("<")
	if v.IsFragment {
		p.sb.WriteString(">")
	} else {
		p.printJSXTagName(*v.TagOrNil)
		for _, a := range v.Attributes {
			p.sb.WriteString(" ")
			if a.IsSpread {
				p.sb.WriteString("{...")
				p.printExpr(*a.Value, LComma+1)
				p.sb.WriteString("}")
				continue
			}
			p.sb.WriteString(a.Name)
			if a.Value != nil {
				p.sb.WriteString("={")
				p.printExpr(*a.Value, LComma+1)
				p.sb.WriteString("}")
			}
		}
		p.sb.WriteString(">")
	}
	for _, c := range v.Children {
		if text, ok := c.Data.(*js_ast.EJSXText); ok {
			p.sb.WriteString(text.Raw)
			continue
		}
		p.sb.WriteString("{")
		p.printExpr(c, LComma+1)
		p.sb.WriteString("}")
	}
	p.sb.WriteString("</")
	if !v.IsFragment {
		p.printJSXTagName(*v.TagOrNil)
	}
	p.sb.WriteString(">")
}

func (p *printer) printJSXTagName(tag js_ast.Expr) {
	switch v := tag.Data.(type) {
	case *js_ast.EString:
		p.sb.WriteString(v.Value)
	case *js_ast.EIdentifier:
		p.sb.WriteString(p.nameFor(v.Ref))
	}
}
