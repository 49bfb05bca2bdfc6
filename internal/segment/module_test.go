package segment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_parser"
	"github.com/nota-dev/qrlc/internal/js_printer"
	"github.com/nota-dev/qrlc/internal/logger"
	"github.com/nota-dev/qrlc/internal/renamer"
	"github.com/nota-dev/qrlc/internal/segment"
)

func buildModuleFixture(t *testing.T, code string) (*segment.Collector, *ast.SymbolMap, func(name string, kind ast.SymbolKind) ast.Ref) {
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
	return collector, symbols, newSym
}

func printModule(stmts []js_ast.Stmt, symbols *ast.SymbolMap) string {
	return js_printer.Print(stmts, func(ref ast.Ref) string {
		return symbols.Get(symbols.Follow(ref)).OriginalName
	}, js_printer.Options{})
}

func TestBuildModuleEmitsRuntimeNamespaceImportFirst(t *testing.T) {
	collector, symbols, newSym := buildModuleFixture(t, `const x = 1;`)
	symRef := newSym("s_abc", ast.SymbolVar)
	seg := &segment.Segment{
		SymbolName:        "s_abc",
		SymbolRef:         symRef,
		CanonicalFilename: "s_abc",
		Expr:              js_ast.Expr{Data: &js_ast.ENumber{Value: 1}},
	}
	stmts := segment.BuildModule(seg, collector, symbols, "app", "@builder.io/qwik", newSym)
	require.NotEmpty(t, stmts)
	imp, ok := stmts[0].Data.(*js_ast.SImport)
	require.True(t, ok)
	require.Equal(t, "@builder.io/qwik", imp.Source)
	require.Equal(t, js_ast.ImportStar, imp.Items[0].Kind)
}

func TestBuildModuleExportsSegmentConst(t *testing.T) {
	collector, symbols, newSym := buildModuleFixture(t, `const x = 1;`)
	symRef := newSym("s_abc", ast.SymbolVar)
	seg := &segment.Segment{
		SymbolName:        "s_abc",
		SymbolRef:         symRef,
		CanonicalFilename: "s_abc",
		Expr:              js_ast.Expr{Data: &js_ast.ENumber{Value: 1}},
	}
	stmts := segment.BuildModule(seg, collector, symbols, "app", "@builder.io/qwik", newSym)
	code := printModule(stmts, symbols)
	require.Contains(t, code, "export const s_abc")
}

func TestBuildModuleAddsLexicalScopePrologueWhenCapturing(t *testing.T) {
	collector, symbols, newSym := buildModuleFixture(t, `const count = 1;`)
	countRef := findByName(t, symbols, collector, "count")
	symRef := newSym("s_abc", ast.SymbolVar)
	seg := &segment.Segment{
		SymbolName:        "s_abc",
		SymbolRef:         symRef,
		CanonicalFilename: "s_abc",
		Expr: js_ast.Expr{Data: &js_ast.EArrow{
			Body:       []js_ast.Stmt{{Data: &js_ast.SReturn{ValueOrNil: &js_ast.Expr{Data: &js_ast.EIdentifier{Ref: countRef}}}}},
			IsExprBody: true,
		}},
		ScopedIdents: []ast.Ref{countRef},
	}
	stmts := segment.BuildModule(seg, collector, symbols, "app", "@builder.io/qwik", newSym)
	code := printModule(stmts, symbols)
	require.Contains(t, code, "useLexicalScope")
}

func TestBuildModuleAddsHandleWatchExportForEntrySegments(t *testing.T) {
	collector, symbols, newSym := buildModuleFixture(t, `const x = 1;`)
	symRef := newSym("s_abc", ast.SymbolVar)
	seg := &segment.Segment{
		SymbolName:        "s_abc",
		SymbolRef:         symRef,
		CanonicalFilename: "s_abc",
		Expr:              js_ast.Expr{Data: &js_ast.ENumber{Value: 1}},
		IsEntry:           true,
	}
	stmts := segment.BuildModule(seg, collector, symbols, "app", "@builder.io/qwik", newSym)
	code := printModule(stmts, symbols)
	require.Contains(t, code, "handleWatch")
	require.Contains(t, code, "export")
}

func findByName(t *testing.T, symbols *ast.SymbolMap, c *segment.Collector, name string) ast.Ref {
	t.Helper()
	for ref := range c.Roots {
		if symbols.Get(ref).OriginalName == name {
			return ref
		}
	}
	t.Fatalf("no root named %q", name)
	return ast.Ref{}
}
