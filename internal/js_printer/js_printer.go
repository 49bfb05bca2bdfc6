// Package js_printer turns a js_ast.AST back into source text. It keeps
// esbuild's internal/js_printer shape — a printer struct wrapping a
// strings.Builder, one method per node kind, symbol names resolved through
// a renamer — but drops everything downstream of a single file's own
// syntax: source-map generation, minified-whitespace output, and the
// target-compat downleveling table esbuild's printer carries for its
// bundler. Those concerns belong to the "external front end" spec.md §1
// treats as out of scope; this printer exists only so internal/segment's
// per-segment modules and the main output module have something to emit
// through (spec.md §6: "modules: [{path, code, map?, ...}]").
package js_printer

import (
	"strconv"
	"strings"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/helpers"
	"github.com/nota-dev/qrlc/internal/js_ast"
)

type Options struct {
	// ASCIIOnly forces \uXXXX escapes for non-ASCII string content, matching
	// esbuild's Options.ASCIIOnly default for maximum output portability.
	ASCIIOnly bool
}

// NameForSymbol resolves a Ref to its final printed identifier. Segment
// extraction may have introduced fresh synthesized names (e.g. renamed
// captures in a segment's parameter list); the printer never invents names
// itself, mirroring esbuild's renamer.Renamer indirection.
type NameForSymbol func(ref ast.Ref) string

type printer struct {
	sb      strings.Builder
	nameFor NameForSymbol
	opts    Options
	indent  int
}

// Print renders a full statement list as a module body.
func Print(stmts []js_ast.Stmt, nameFor NameForSymbol, opts Options) string {
	p := &printer{nameFor: nameFor, opts: opts}
	for _, s := range stmts {
		p.printStmt(s)
	}
	return p.sb.String()
}

// PrintExpr renders a single expression, used by internal/segment when
// splicing a QRL call into an already-printed surrounding statement.
func PrintExpr(e js_ast.Expr, nameFor NameForSymbol, opts Options) string {
	p := &printer{nameFor: nameFor, opts: opts}
	p.printExpr(e, LLowest)
	return p.sb.String()
}

func (p *printer) writeIndent() {
	p.sb.WriteString(strings.Repeat("  ", p.indent))
}

func (p *printer) printStmt(s js_ast.Stmt) {
	p.writeIndent()
	switch v := s.Data.(type) {
	case *js_ast.SEmpty:
		p.sb.WriteString(";\n")

	case *js_ast.SExpr:
		p.printExpr(v.Value, LLowest)
		p.sb.WriteString(";\n")

	case *js_ast.SVarDecl:
		if v.IsExport {
			p.sb.WriteString("export ")
		}
		p.sb.WriteString(varKindString(v.Kind))
		p.sb.WriteString(" ")
		for i, d := range v.Decls {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printBinding(d.Binding)
			if d.ValueOrNil != nil {
				p.sb.WriteString(" = ")
				p.printExpr(*d.ValueOrNil, LAssign)
			}
		}
		p.sb.WriteString(";\n")

	case *js_ast.SFunction:
		if v.IsExport {
			p.sb.WriteString("export ")
		}
		if v.IsDefaultExport {
			p.sb.WriteString("default ")
		}
		p.sb.WriteString("function ")
		if v.Fn.Name != nil {
			p.sb.WriteString(p.nameFor(v.Fn.Name.Ref))
		}
		p.printFnTail(v.Fn)
		p.sb.WriteString("\n")

	case *js_ast.SClass:
		if v.IsExport {
			p.sb.WriteString("export ")
		}
		if v.IsDefaultExport {
			p.sb.WriteString("default ")
		}
		p.printClass(v.Class)
		p.sb.WriteString("\n")

	case *js_ast.SReturn:
		p.sb.WriteString("return")
		if v.ValueOrNil != nil {
			p.sb.WriteString(" ")
			p.printExpr(*v.ValueOrNil, LComma)
		}
		p.sb.WriteString(";\n")

	case *js_ast.SIf:
		p.sb.WriteString("if (")
		p.printExpr(v.Test, LLowest)
		p.sb.WriteString(") ")
		p.printBraced(v.Yes)
		if v.NoOrNil != nil {
			p.writeIndent()
			p.sb.WriteString("else ")
			p.printBraced(*v.NoOrNil)
		}

	case *js_ast.SBlock:
		p.sb.WriteString("{\n")
		p.indent++
		for _, child := range v.Stmts {
			p.printStmt(child)
		}
		p.indent--
		p.writeIndent()
		p.sb.WriteString("}\n")

	case *js_ast.SFor:
		p.sb.WriteString("for (")
		if v.InitOrNil != nil {
			p.printForClause(*v.InitOrNil)
		}
		p.sb.WriteString("; ")
		if v.TestOrNil != nil {
			p.printExpr(*v.TestOrNil, LLowest)
		}
		p.sb.WriteString("; ")
		if v.UpdateOrNil != nil {
			p.printExpr(*v.UpdateOrNil, LLowest)
		}
		p.sb.WriteString(") ")
		p.printBraced(v.Body)

	case *js_ast.SForOf:
		p.sb.WriteString("for (")
		p.printForClause(v.Init)
		p.sb.WriteString(" of ")
		p.printExpr(v.Value, LLowest)
		p.sb.WriteString(") ")
		p.printBraced(v.Body)

	case *js_ast.SForIn:
		p.sb.WriteString("for (")
		p.printForClause(v.Init)
		p.sb.WriteString(" in ")
		p.printExpr(v.Value, LLowest)
		p.sb.WriteString(") ")
		p.printBraced(v.Body)

	case *js_ast.SWhile:
		p.sb.WriteString("while (")
		p.printExpr(v.Test, LLowest)
		p.sb.WriteString(") ")
		p.printBraced(v.Body)

	case *js_ast.SThrow:
		p.sb.WriteString("throw ")
		p.printExpr(v.Value, LLowest)
		p.sb.WriteString(";\n")

	case *js_ast.SImport:
		p.printImport(v)

	case *js_ast.SExportClause:
		p.sb.WriteString("export { ")
		for i, item := range v.Items {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			name := p.nameFor(item.Name.Ref)
			if item.Alias != "" && item.Alias != name {
				p.sb.WriteString(name)
				p.sb.WriteString(" as ")
				p.sb.WriteString(item.Alias)
			} else {
				p.sb.WriteString(name)
			}
		}
		p.sb.WriteString(" };\n")

	case *js_ast.SExportDefault:
		p.sb.WriteString("export default ")
		p.printExpr(v.Value, LComma)
		p.sb.WriteString(";\n")

	case *js_ast.STypeScript:
		// carries no runtime semantics; nothing to print

	default:
		p.sb.WriteString("/* unknown stmt */\n")
	}
}

func (p *printer) printForClause(s js_ast.Stmt) {
	switch v := s.Data.(type) {
	case *js_ast.SVarDecl:
		p.sb.WriteString(varKindString(v.Kind))
		p.sb.WriteString(" ")
		for i, d := range v.Decls {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printBinding(d.Binding)
			if d.ValueOrNil != nil {
				p.sb.WriteString(" = ")
				p.printExpr(*d.ValueOrNil, LAssign)
			}
		}
	case *js_ast.SExpr:
		p.printExpr(v.Value, LLowest)
	}
}

func (p *printer) printBraced(s js_ast.Stmt) {
	if block, ok := s.Data.(*js_ast.SBlock); ok {
		p.sb.WriteString("{\n")
		p.indent++
		for _, child := range block.Stmts {
			p.printStmt(child)
		}
		p.indent--
		p.writeIndent()
		p.sb.WriteString("}\n")
		return
	}
	p.sb.WriteString("{\n")
	p.indent++
	p.printStmt(s)
	p.indent--
	p.writeIndent()
	p.sb.WriteString("}\n")
}

func (p *printer) printImport(v *js_ast.SImport) {
	p.sb.WriteString("import ")
	var named []js_ast.ClauseItem
	defaultWritten := false
	for _, item := range v.Items {
		switch item.Kind {
		case js_ast.ImportDefault:
			p.sb.WriteString(p.nameFor(item.Name.Ref))
			defaultWritten = true
		case js_ast.ImportStar:
			if defaultWritten {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString("* as ")
			p.sb.WriteString(p.nameFor(item.Name.Ref))
		case js_ast.ImportNamed:
			named = append(named, item)
		}
	}
	if len(named) > 0 {
		if defaultWritten {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString("{ ")
		for i, item := range named {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			name := p.nameFor(item.Name.Ref)
			if item.Alias != "" && item.Alias != name {
				p.sb.WriteString(item.Alias)
				p.sb.WriteString(" as ")
				p.sb.WriteString(name)
			} else {
				p.sb.WriteString(name)
			}
		}
		p.sb.WriteString(" }")
	}
	if len(v.Items) > 0 {
		p.sb.WriteString(" from ")
	}
	p.sb.Write(helpers.QuoteForJSON(v.Source, p.opts.ASCIIOnly))
	p.sb.WriteString(";\n")
}

func (p *printer) printBinding(b js_ast.Binding) {
	switch v := b.Data.(type) {
	case *js_ast.BIdentifier:
		p.sb.WriteString(p.nameFor(v.Ref))
	case *js_ast.BMissing:
		// nothing printed for an elided array-pattern slot
	case *js_ast.BArray:
		p.sb.WriteString("[")
		for i, item := range v.Items {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.printBinding(item.Binding)
			if item.DefaultOrNil != nil {
				p.sb.WriteString(" = ")
				p.printExpr(*item.DefaultOrNil, LAssign)
			}
		}
		p.sb.WriteString("]")
	case *js_ast.BObject:
		p.sb.WriteString("{ ")
		for i, prop := range v.Properties {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			if str, ok := prop.Key.Data.(*js_ast.EString); ok && !prop.IsComputed {
				p.sb.WriteString(str.Value)
			} else {
				p.sb.WriteString("[")
				p.printExpr(prop.Key, LAssign)
				p.sb.WriteString("]")
			}
			if id, ok := prop.Value.Data.(*js_ast.BIdentifier); !ok || p.nameFor(id.Ref) != keyName(prop.Key) {
				p.sb.WriteString(": ")
				p.printBinding(prop.Value)
			}
			if prop.DefaultOrNil != nil {
				p.sb.WriteString(" = ")
				p.printExpr(*prop.DefaultOrNil, LAssign)
			}
		}
		if v.HasRest {
			if len(v.Properties) > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString("...")
			p.sb.WriteString(p.nameFor(v.RestRef))
		}
		p.sb.WriteString(" }")
	}
}

func keyName(e js_ast.Expr) string {
	if str, ok := e.Data.(*js_ast.EString); ok {
		return str.Value
	}
	return ""
}

func (p *printer) printFnTail(fn js_ast.Fn) {
	p.sb.WriteString("(")
	p.printArgs(fn.Args)
	p.sb.WriteString(") {\n")
	p.indent++
	for _, s := range fn.Body {
		p.printStmt(s)
	}
	p.indent--
	p.writeIndent()
	p.sb.WriteString("}")
}

func (p *printer) printArgs(args []js_ast.Arg) {
	for i, a := range args {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		if a.IsRest {
			p.sb.WriteString("...")
		}
		p.printBinding(a.Binding)
		if a.DefaultOrNil != nil {
			p.sb.WriteString(" = ")
			p.printExpr(*a.DefaultOrNil, LAssign)
		}
	}
}

func (p *printer) printClass(c js_ast.Class) {
	p.sb.WriteString("class")
	if c.Name != nil {
		p.sb.WriteString(" ")
		p.sb.WriteString(p.nameFor(c.Name.Ref))
	}
	if c.ExtendsOrNil != nil {
		p.sb.WriteString(" extends ")
		p.printExpr(*c.ExtendsOrNil, LCall)
	}
	p.sb.WriteString(" {\n")
	p.indent++
	for _, m := range c.Members {
		p.writeIndent()
		if m.IsStatic {
			p.sb.WriteString("static ")
		}
		if str, ok := m.Key.Data.(*js_ast.EString); ok && !m.IsComputed {
			p.sb.WriteString(str.Value)
		} else {
			p.sb.WriteString("[")
			p.printExpr(m.Key, LAssign)
			p.sb.WriteString("]")
		}
		if m.Kind == js_ast.PropertyMethod {
			fn := m.Value.Data.(*js_ast.EFunction).Fn
			p.printFnTail(fn)
			p.sb.WriteString("\n")
		} else {
			if m.Value.Data != nil {
				p.sb.WriteString(" = ")
				p.printExpr(m.Value, LAssign)
			}
			p.sb.WriteString(";\n")
		}
	}
	p.indent--
	p.writeIndent()
	p.sb.WriteString("}")
}

func varKindString(k js_ast.VarKind) string {
	switch k {
	case js_ast.VarConst:
		return "const"
	case js_ast.VarLet:
		return "let"
	default:
		return "var"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
