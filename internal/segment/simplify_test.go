package segment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/segment"
)

func TestSimplifyDropsElseBranchWhenTestIsLiteralTrue(t *testing.T) {
	tree, _ := parseFull(t, `if (true) { const a = 1; } else { const b = 2; }`)
	stmts := segment.Simplify(tree.Stmts)
	code := printModule(stmts, &tree.Symbols)
	require.Contains(t, code, "a = 1")
	require.NotContains(t, code, "b = 2")
}

func TestSimplifyDropsWholeStatementWhenTestIsLiteralFalseWithNoElse(t *testing.T) {
	tree, _ := parseFull(t, `if (false) { const a = 1; }
const kept = 2;`)
	stmts := segment.Simplify(tree.Stmts)
	require.Len(t, stmts, 1)
	code := printModule(stmts, &tree.Symbols)
	require.NotContains(t, code, "a = 1")
	require.Contains(t, code, "kept = 2")
}

func TestSimplifyPreservesVarHoistingFromDroppedBranch(t *testing.T) {
	tree, _ := parseFull(t, `if (false) { var token = 1; }
token;`)
	stmts := segment.Simplify(tree.Stmts)
	code := printModule(stmts, &tree.Symbols)
	require.NotContains(t, code, "= 1")
	require.Contains(t, code, "var token")
}

func TestSimplifyLeavesNonLiteralConditionsAlone(t *testing.T) {
	tree, _ := parseFull(t, `if (cond) { const a = 1; }`)
	stmts := segment.Simplify(tree.Stmts)
	require.Len(t, stmts, 1)
	_, ok := stmts[0].Data.(*js_ast.SIf)
	require.True(t, ok)
}

func TestSimplifyRecursesIntoFunctionBodies(t *testing.T) {
	tree, _ := parseFull(t, `function f() { if (false) { const a = 1; } const b = 2; }`)
	stmts := segment.Simplify(tree.Stmts)
	code := printModule(stmts, &tree.Symbols)
	require.NotContains(t, code, "a = 1")
	require.Contains(t, code, "b = 2")
}

func TestSimplifyIntegratesWithReplaceConstsToDropServerOnlyCode(t *testing.T) {
	tree, collector := parseFull(t, `import { isServer } from "@builder.io/qwik";
if (isServer) { const a = 1; } else { const b = 2; }`)
	stmts := segment.ReplaceConsts(tree.Stmts, collector, "@builder.io/qwik", false, true, false)
	stmts = segment.Simplify(stmts)
	code := printModule(stmts, &tree.Symbols)
	require.NotContains(t, code, "a = 1")
	require.Contains(t, code, "b = 2")
}
