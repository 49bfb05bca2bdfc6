package js_printer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_parser"
	"github.com/nota-dev/qrlc/internal/js_printer"
	"github.com/nota-dev/qrlc/internal/logger"
)

func parseAndPrint(t *testing.T, code string, opts js_parser.Options) (js_ast.AST, string) {
	t.Helper()
	source := logger.Source{Contents: code, PrettyPath: "t.tsx"}
	log := logger.NewLog()
	tree, err := js_parser.Parse(log, source, opts)
	require.NoError(t, err)
	require.Empty(t, log.Done())
	nameFor := func(ref ast.Ref) string { return tree.Symbols.Get(ref).OriginalName }
	out := js_printer.Print(tree.Stmts, nameFor, js_printer.Options{})
	return tree, out
}

func TestPrintsVarDeclAndCall(t *testing.T) {
	_, out := parseAndPrint(t, `const x = foo(1, "two");`, js_parser.Options{})
	require.Contains(t, out, "const x = foo(1, \"two\");")
}

func TestPrintsArrowWithExprBody(t *testing.T) {
	_, out := parseAndPrint(t, `const f = (a, b) => a + b;`, js_parser.Options{})
	require.Contains(t, out, "(a, b) => a + b")
}

func TestPrintsImportAndExportClause(t *testing.T) {
	_, out := parseAndPrint(t, `import { a, b as c } from "mod";
export { a };`, js_parser.Options{})
	require.True(t, strings.Contains(out, "import { a, b as c } from \"mod\";"))
	require.True(t, strings.Contains(out, "export { a };"))
}

func TestPrintsJSXElementVerbatim(t *testing.T) {
	_, out := parseAndPrint(t, `const App = () => <div class="x">hi</div>;`, js_parser.Options{IsJSX: true})
	require.Contains(t, out, "<div")
	require.Contains(t, out, "hi</div>")
}

func TestPrintsDesugaredJSXAsCall(t *testing.T) {
	_, out := parseAndPrint(t, `const App = () => <div class="x">hi</div>;`, js_parser.Options{
		IsJSX: true, JSXDesugar: true, JSXFactory: "h",
	})
	require.Contains(t, out, "h(")
	require.NotContains(t, out, "<div")
}
