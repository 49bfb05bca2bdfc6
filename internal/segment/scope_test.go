package segment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_parser"
	"github.com/nota-dev/qrlc/internal/logger"
	"github.com/nota-dev/qrlc/internal/renamer"
	"github.com/nota-dev/qrlc/internal/segment"
)

// arrowBody parses `const f = <expr>;` and returns the arrow/function body
// statements, for exercising FreeRefs/ClassifySegment directly.
func arrowBody(t *testing.T, code string) ([]js_ast.Stmt, *segment.Collector, *js_ast.AST) {
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

	decl := tree.Stmts[len(tree.Stmts)-1].Data.(*js_ast.SVarDecl)
	arrow := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.EArrow)
	return arrow.Body, collector, &tree
}

func TestFreeRefsExcludesOwnParameterAndLocalBinding(t *testing.T) {
	body, _, _ := arrowBody(t, `const f = (a) => { const b = a; return b; };`)
	free := segment.FreeRefs(body)
	require.Empty(t, free)
}

func TestFreeRefsIncludesOuterReference(t *testing.T) {
	body, _, _ := arrowBody(t, `const outer = 1;
const f = () => outer;`)
	free := segment.FreeRefs(body)
	require.Len(t, free, 1)
}

func TestClassifySegmentRoutesRootReferenceToLocalIdents(t *testing.T) {
	body, collector, tree := arrowBody(t, `export const outer = 1;
const f = () => outer;`)
	log := logger.NewLog()
	result := segment.ClassifySegment(body, collector, &tree.Symbols, &tree.Source, log)
	require.Empty(t, log.Done())
	require.Len(t, result.LocalIdents, 1)
	require.Empty(t, result.ScopedIdents)
}

func TestClassifySegmentRaisesRootLevelReferenceWhenUnexported(t *testing.T) {
	body, collector, tree := arrowBody(t, `const outer = 1;
const f = () => outer;`)
	log := logger.NewLog()
	result := segment.ClassifySegment(body, collector, &tree.Symbols, &tree.Source, log)
	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeRootLevelReference, msgs[0].Code)
	// auto-exported as a side effect, so the capture still resolves
	require.Len(t, result.LocalIdents, 1)
}

func TestClassifySegmentRoutesVarCaptureToScopedIdents(t *testing.T) {
	body, collector, tree := arrowBody(t, `const f = () => {
	const count = 1;
	return () => count;
};`)
	// The outer arrow's body is itself a nested-arrow factory; classify the
	// innermost body, which is the one that actually free-references "count".
	inner := body[1].Data.(*js_ast.SReturn)
	innerArrow := (*inner.ValueOrNil).Data.(*js_ast.EArrow)

	log := logger.NewLog()
	result := segment.ClassifySegment(innerArrow.Body, collector, &tree.Symbols, &tree.Source, log)
	require.Empty(t, log.Done())
	require.Len(t, result.ScopedIdents, 1)
	require.Empty(t, result.LocalIdents)
}

func TestClassifySegmentRaisesFunctionClassRefForCapturedFunction(t *testing.T) {
	body, collector, tree := arrowBody(t, `function helper() { return 1; }
const f = () => helper();`)
	log := logger.NewLog()
	result := segment.ClassifySegment(body, collector, &tree.Symbols, &tree.Source, log)
	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeFunctionClassRef, msgs[0].Code)
	require.Empty(t, result.LocalIdents)
	require.Empty(t, result.ScopedIdents)
}

func TestEnforceCaptureLegalityStripsScopedIdentsForNonFunctionBody(t *testing.T) {
	body, collector, tree := arrowBody(t, `const f = () => {
	const count = 1;
	return () => count;
};`)
	inner := body[1].Data.(*js_ast.SReturn)
	innerArrow := (*inner.ValueOrNil).Data.(*js_ast.EArrow)

	log := logger.NewLog()
	result := segment.ClassifySegment(innerArrow.Body, collector, &tree.Symbols, &tree.Source, log)
	require.NotEmpty(t, result.ScopedIdents)

	result = segment.EnforceCaptureLegality(result, false, &tree.Source, innerArrow.Body[0].Loc, log)
	require.Empty(t, result.ScopedIdents)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeCannotCapture, msgs[0].Code)
}
