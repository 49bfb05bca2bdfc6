package js_parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_parser"
	"github.com/nota-dev/qrlc/internal/logger"
)

func parse(t *testing.T, contents string, opts js_parser.Options) js_ast.AST {
	t.Helper()
	source := logger.Source{Contents: contents, PrettyPath: "test.tsx"}
	log := logger.NewLog()
	tree, err := js_parser.Parse(log, source, opts)
	require.NoError(t, err)
	require.Empty(t, log.Done())
	return tree
}

func TestParsesVarDeclAndCall(t *testing.T) {
	tree := parse(t, `const x = component$(() => { return 1; });`, js_parser.Options{})
	require.Len(t, tree.Stmts, 1)
	decl, ok := tree.Stmts[0].Data.(*js_ast.SVarDecl)
	require.True(t, ok)
	require.Equal(t, js_ast.VarConst, decl.Kind)
	call, ok := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.ECall)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	_, ok = call.Args[0].Data.(*js_ast.EArrow)
	require.True(t, ok)
}

func TestParsesImportAndExport(t *testing.T) {
	tree := parse(t, `import { component$ } from "@builder.io/qwik";
export const App = component$(() => null);`, js_parser.Options{})
	require.Len(t, tree.Stmts, 2)
	imp, ok := tree.Stmts[0].Data.(*js_ast.SImport)
	require.True(t, ok)
	require.Equal(t, "@builder.io/qwik", imp.Source)
	decl, ok := tree.Stmts[1].Data.(*js_ast.SVarDecl)
	require.True(t, ok)
	require.True(t, decl.IsExport)
}

func TestParsesDestructuredArrowParam(t *testing.T) {
	tree := parse(t, `const f = ({ a, b = 1, ...rest }) => a;`, js_parser.Options{})
	decl := tree.Stmts[0].Data.(*js_ast.SVarDecl)
	arrow := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.EArrow)
	require.Len(t, arrow.Args, 1)
	obj, ok := arrow.Args[0].Binding.Data.(*js_ast.BObject)
	require.True(t, ok)
	require.True(t, obj.HasRest)
	require.Len(t, obj.Properties, 2)
}

func TestParsesJSXWithEventHandlerAttr(t *testing.T) {
	tree := parse(t, `const App = component$(() => {
		return <button onClick$={() => console.log('hi')}>Click</button>;
	});`, js_parser.Options{IsJSX: true})
	decl := tree.Stmts[0].Data.(*js_ast.SVarDecl)
	outer := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.ECall)
	inner := outer.Args[0].Data.(*js_ast.EArrow)
	ret := inner.Body[0].Data.(*js_ast.SReturn)
	el := (*ret.ValueOrNil).Data.(*js_ast.EJSXElement)
	require.Len(t, el.Attributes, 1)
	require.Equal(t, "onClick$", el.Attributes[0].Name)
	_, ok := (*el.Attributes[0].Value).Data.(*js_ast.EArrow)
	require.True(t, ok)
}

func TestJSXDesugarProducesFactoryCall(t *testing.T) {
	tree := parse(t, `const App = () => <div class="a">hi</div>;`, js_parser.Options{
		IsJSX: true, JSXDesugar: true, JSXFactory: "h",
	})
	decl := tree.Stmts[0].Data.(*js_ast.SVarDecl)
	arrow := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.EArrow)
	call, ok := arrow.Body[0].Data.(*js_ast.SReturn)
	require.True(t, ok)
	ecall, ok := (*call.ValueOrNil).Data.(*js_ast.ECall)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(ecall.Args), 2)
	props, ok := ecall.Args[1].Data.(*js_ast.EObject)
	require.True(t, ok)
	require.Len(t, props.Properties, 1)
}

func TestParsesClassAndMethod(t *testing.T) {
	tree := parse(t, `class Foo extends Bar { method() { return 1; } }`, js_parser.Options{})
	class, ok := tree.Stmts[0].Data.(*js_ast.SClass)
	require.True(t, ok)
	require.NotNil(t, class.Class.ExtendsOrNil)
	require.Len(t, class.Class.Members, 1)
}

func TestParsesForOfAndTemplate(t *testing.T) {
	tree := parse(t, "for (const x of items) { console.log(`v=${x}`); }", js_parser.Options{})
	_, ok := tree.Stmts[0].Data.(*js_ast.SForOf)
	require.True(t, ok)
}
