package segment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_parser"
	"github.com/nota-dev/qrlc/internal/logger"
	"github.com/nota-dev/qrlc/internal/renamer"
	"github.com/nota-dev/qrlc/internal/segment"
)

func parseFull(t *testing.T, code string) (js_ast.AST, *segment.Collector) {
	t.Helper()
	source := logger.Source{Contents: code, PrettyPath: "src/app.tsx"}
	log := logger.NewLog()
	tree, err := js_parser.Parse(log, source, js_parser.Options{})
	require.NoError(t, err)
	require.Empty(t, log.Done())

	symbols := &tree.Symbols
	newSym := segment.NewSymbolMinter(symbols, 0)
	names := renamer.NewNameGenerator()
	collector := segment.NewCollector(tree, symbols, newSym, names)
	return tree, collector
}

func TestReplaceConstsFoldsKnownImportToLiteral(t *testing.T) {
	tree, collector := parseFull(t, `import { isServer } from "@builder.io/qwik";
const x = isServer;`)
	stmts := segment.ReplaceConsts(tree.Stmts, collector, "@builder.io/qwik", true, false, false)
	code := printModule(stmts, &tree.Symbols)
	require.Contains(t, code, "true")
}

func TestReplaceConstsLeavesOtherModuleSourceAlone(t *testing.T) {
	tree, collector := parseFull(t, `import { isServer } from "other-module";
const x = isServer;`)
	stmts := segment.ReplaceConsts(tree.Stmts, collector, "@builder.io/qwik", true, false, false)
	require.Equal(t, len(tree.Stmts), len(stmts))
	code := printModule(stmts, &tree.Symbols)
	require.NotContains(t, code, "true")
}

func TestStripExportsReplacesInitializerWithThrower(t *testing.T) {
	tree, _ := parseFull(t, `export const onRequest = 1;`)
	errRef := segment.NewSymbolMinter(&tree.Symbols, 0)("Error", ast.SymbolUnbound)

	stmts := segment.StripExports(tree.Stmts, &tree.Symbols, map[string]bool{"onRequest": true}, errRef)
	code := printModule(stmts, &tree.Symbols)
	require.Contains(t, code, segment.StripSentinel)
	require.Contains(t, code, "export const onRequest")
}

func TestStripExportsLeavesUnmatchedExportsAlone(t *testing.T) {
	tree, _ := parseFull(t, `export const keep = 1;`)
	stmts := segment.StripExports(tree.Stmts, &tree.Symbols, map[string]bool{"other": true}, ast.Ref{})
	code := printModule(stmts, &tree.Symbols)
	require.NotContains(t, code, segment.StripSentinel)
}

func TestCleanSideEffectsDropsBareCallsAtModuleLevel(t *testing.T) {
	tree, _ := parseFull(t, `console.log("hi");
const x = 1;`)
	stmts := segment.CleanSideEffects(tree.Stmts)
	require.Len(t, stmts, 1)
	_, ok := stmts[0].Data.(*js_ast.SVarDecl)
	require.True(t, ok)
}

func TestAddSideEffectsReinsertsUnusedRelativeImport(t *testing.T) {
	tree, collector := parseFull(t, `import "./styles.css";
const x = 1;`)
	stmts := segment.AddSideEffects([]js_ast.Stmt{tree.Stmts[1]}, collector, "", "")
	require.Len(t, stmts, 2)
	imp, ok := stmts[0].Data.(*js_ast.SImport)
	require.True(t, ok)
	require.Equal(t, "./styles.css", imp.Source)
}

func TestAddSideEffectsSkipsImportsOutsideSrcDir(t *testing.T) {
	tree, collector := parseFull(t, `import "../outside.css";
const x = 1;`)
	stmts := segment.AddSideEffects([]js_ast.Stmt{tree.Stmts[1]}, collector, "nested", "nested")
	require.Len(t, stmts, 1)
}

func TestFixDynamicImportsRewritesStringLiteralArgument(t *testing.T) {
	body := []js_ast.Stmt{{Data: &js_ast.SExpr{Value: js_ast.Expr{Data: &js_ast.EImportCall{
		Arg: js_ast.Expr{Data: &js_ast.EString{Value: "./helper"}},
	}}}}}
	log := logger.NewLog()
	source := logger.Source{PrettyPath: "src/app.tsx"}
	fixed := segment.FixDynamicImports(body, "src/a", "src/a/b", &source, log)
	require.Empty(t, log.Done())
	call := fixed[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EImportCall)
	str := call.Arg.Data.(*js_ast.EString)
	require.Equal(t, "../helper", str.Value)
}

func TestFixDynamicImportsRaisesC04ForNonStringArgument(t *testing.T) {
	body := []js_ast.Stmt{{Data: &js_ast.SExpr{Value: js_ast.Expr{Data: &js_ast.EImportCall{
		Arg: js_ast.Expr{Data: &js_ast.EIdentifier{}},
	}}}}}
	log := logger.NewLog()
	source := logger.Source{PrettyPath: "src/app.tsx"}
	segment.FixDynamicImports(body, "src/a", "src/a/b", &source, log)
	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeDynamicImportNonStr, msgs[0].Code)
}

func TestDestructurePropsRewritesPlainPickupsToPropsDot(t *testing.T) {
	tree, collector := parseFull(t, `const f = ({ count }) => count;`)
	decl := tree.Stmts[0].Data.(*js_ast.SVarDecl)
	arrow := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.EArrow)

	propsRef := segment.NewSymbolMinter(&tree.Symbols, 0)("props", ast.SymbolVar)
	_, ok := segment.DestructureProps(arrow, &tree.Symbols, propsRef, collector, "@builder.io/qwik")
	require.True(t, ok)

	code := printModule([]js_ast.Stmt{{Data: &js_ast.SExpr{Value: js_ast.Expr{Data: arrow}}}}, &tree.Symbols)
	require.Contains(t, code, "props.count")
}

func TestDestructurePropsRewritesRestToHelperCall(t *testing.T) {
	tree, collector := parseFull(t, `const f = ({ count, ...rest }) => rest;`)
	decl := tree.Stmts[0].Data.(*js_ast.SVarDecl)
	arrow := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.EArrow)

	propsRef := segment.NewSymbolMinter(&tree.Symbols, 0)("props", ast.SymbolVar)
	restRef, ok := segment.DestructureProps(arrow, &tree.Symbols, propsRef, collector, "@builder.io/qwik")
	require.True(t, ok)
	require.NotNil(t, restRef)

	rec, tracked := collector.Imports[*restRef]
	require.True(t, tracked)
	require.Equal(t, segment.RestPropsHelper, rec.Specifier)
	require.Equal(t, "@builder.io/qwik", rec.Source)

	code := printModule([]js_ast.Stmt{{Data: &js_ast.SExpr{Value: js_ast.Expr{Data: arrow}}}}, &tree.Symbols)
	require.Contains(t, code, "\"count\"")
}

func TestDestructurePropsRejectsComputedKeys(t *testing.T) {
	tree, collector := parseFull(t, `const f = ({ [x]: y }) => y;`)
	decl := tree.Stmts[0].Data.(*js_ast.SVarDecl)
	arrow := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.EArrow)

	propsRef := segment.NewSymbolMinter(&tree.Symbols, 0)("props", ast.SymbolVar)
	_, ok := segment.DestructureProps(arrow, &tree.Symbols, propsRef, collector, "@builder.io/qwik")
	require.False(t, ok)
}
