package segment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/js_parser"
	"github.com/nota-dev/qrlc/internal/logger"
	"github.com/nota-dev/qrlc/internal/renamer"
	"github.com/nota-dev/qrlc/internal/segment"
)

func collect(t *testing.T, code string) (*segment.Collector, *ast.SymbolMap) {
	t.Helper()
	source := logger.Source{Contents: code, PrettyPath: "src/app.tsx"}
	log := logger.NewLog()
	tree, err := js_parser.Parse(log, source, js_parser.Options{})
	require.NoError(t, err)
	require.Empty(t, log.Done())

	symbols := &tree.Symbols
	newSym := segment.NewSymbolMinter(symbols, 0)
	names := renamer.NewNameGenerator()
	c := segment.NewCollector(tree, symbols, newSym, names)
	return c, symbols
}

func findRootRef(t *testing.T, symbols *ast.SymbolMap, c *segment.Collector, name string) ast.Ref {
	t.Helper()
	for ref := range c.Roots {
		if symbols.Get(ref).OriginalName == name {
			return ref
		}
	}
	t.Fatalf("no root named %q", name)
	return ast.Ref{}
}

func TestCollectorRecordsTopLevelVarAsRoot(t *testing.T) {
	c, symbols := collect(t, `const count = 1;`)
	ref := findRootRef(t, symbols, c, "count")
	_, exported := c.Exports[ref]
	require.False(t, exported)
}

func TestCollectorRecordsExportedVarWithNoRenameAlias(t *testing.T) {
	c, symbols := collect(t, `export const count = 1;`)
	ref := findRootRef(t, symbols, c, "count")
	alias, exported := c.Exports[ref]
	require.True(t, exported)
	require.Empty(t, alias)
}

func TestCollectorRecordsDestructuredExportRoots(t *testing.T) {
	c, symbols := collect(t, `export const { a, b } = obj;`)
	for _, name := range []string{"a", "b"} {
		ref := findRootRef(t, symbols, c, name)
		_, exported := c.Exports[ref]
		require.True(t, exported, "%s should be exported", name)
	}
}

func TestCollectorRecordsImports(t *testing.T) {
	c, symbols := collect(t, `import { component$ } from "@builder.io/qwik";`)
	var found bool
	for ref, rec := range c.Imports {
		if symbols.Get(ref).OriginalName == "component$" {
			found = true
			require.Equal(t, "@builder.io/qwik", rec.Source)
			require.Equal(t, segment.ImportNamed, rec.Kind)
			require.False(t, rec.Synthetic)
		}
	}
	require.True(t, found)
}

func TestCollectorIsGlobalCoversImportsExportsAndRoots(t *testing.T) {
	c, symbols := collect(t, `import { x } from "mod";
const y = 1;
export const z = 2;`)

	var xRef ast.Ref
	for ref := range c.Imports {
		xRef = ref
	}
	require.True(t, c.IsGlobal(xRef))

	yRef := findRootRef(t, symbols, c, "y")
	require.True(t, c.IsGlobal(yRef))

	zRef := findRootRef(t, symbols, c, "z")
	require.True(t, c.IsGlobal(zRef))
}

func TestCollectorEnsureImportDeduplicates(t *testing.T) {
	c, _ := collect(t, `const x = 1;`)
	first := c.EnsureImport("qrl", "@builder.io/qwik")
	second := c.EnsureImport("qrl", "@builder.io/qwik")
	require.Equal(t, first, second)

	third := c.EnsureImport("inlinedQrl", "@builder.io/qwik")
	require.NotEqual(t, first, third)
}

func TestCollectorEnsureImportReturnsExistingStaticImport(t *testing.T) {
	c, symbols := collect(t, `import { qrl } from "@builder.io/qwik";`)
	var existing ast.Ref
	for ref := range c.Imports {
		existing = ref
	}
	ref := c.EnsureImport("qrl", "@builder.io/qwik")
	require.Equal(t, existing, ref)
	require.Equal(t, "qrl", symbols.Get(ref).OriginalName)
}

func TestCollectorAddExportOnlyInsertsOnce(t *testing.T) {
	c, _ := collect(t, `const x = 1;`)
	ref := c.EnsureImport("qrl", "@builder.io/qwik")
	require.True(t, c.AddExport(ref, "aliased"))
	require.False(t, c.AddExport(ref, "other"))
	require.Equal(t, "aliased", c.Exports[ref])
}
