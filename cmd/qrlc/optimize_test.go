package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/config"
	"github.com/nota-dev/qrlc/internal/logger"
	"github.com/nota-dev/qrlc/pkg/api"
)

func TestAllowedCLIStrategyRestrictsToDocumentedFour(t *testing.T) {
	require.True(t, allowedCLIStrategy(config.EntrySingle))
	require.True(t, allowedCLIStrategy(config.EntryHook))
	require.True(t, allowedCLIStrategy(config.EntrySmart))
	require.True(t, allowedCLIStrategy(config.EntryComponent))
	require.False(t, allowedCLIStrategy(config.EntryInline))
	require.False(t, allowedCLIStrategy(config.EntryHoist))
	require.False(t, allowedCLIStrategy(config.EntrySegment))
}

func TestParseMinifyMapsSynonymsToSimplify(t *testing.T) {
	mode, err := parseMinify("minify")
	require.NoError(t, err)
	require.Equal(t, config.MinifySimplify, mode)

	mode, err = parseMinify("simplify")
	require.NoError(t, err)
	require.Equal(t, config.MinifySimplify, mode)
}

func TestParseMinifyNoneAndEmptyMapToNoneMode(t *testing.T) {
	mode, err := parseMinify("none")
	require.NoError(t, err)
	require.Equal(t, config.MinifyNone, mode)

	mode, err = parseMinify("")
	require.NoError(t, err)
	require.Equal(t, config.MinifyNone, mode)
}

func TestParseMinifyRejectsUnknownValue(t *testing.T) {
	_, err := parseMinify("garbage")
	require.Error(t, err)
}

func TestDiscoverSourcesFindsTranspilableFilesAndSkipsNodeModules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.tsx"), []byte("const x = 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "dep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "dep", "index.js"), []byte("1;"), 0o644))

	files, err := discoverSources(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(dir, "app.tsx"), files[0])
}

func TestDiscoverSourcesHonorsQrlignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.tsx"), []byte("const x = 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generated.tsx"), []byte("const y = 2;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".qrlignore"), []byte("generated.tsx\n"), 0o644))

	files, err := discoverSources(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, filepath.Join(dir, "app.tsx"), files[0])
}

func TestWriteModulesCreatesNestedDirectoriesAndFiles(t *testing.T) {
	dest := t.TempDir()
	modules := []api.Module{{Path: "nested/s_abc.js", Code: "export const s_abc = 1;"}}
	require.NoError(t, writeModules(dest, modules))

	data, err := os.ReadFile(filepath.Join(dest, "nested", "s_abc.js"))
	require.NoError(t, err)
	require.Equal(t, "export const s_abc = 1;", string(data))
}

func TestWriteManifestEncodesResultAsJSON(t *testing.T) {
	dest := t.TempDir()
	manifestPath := filepath.Join(dest, "manifest.json")
	result := api.Result{Modules: []api.Module{{Path: "s_abc.js", Code: "export const s_abc = 1;"}}}
	require.NoError(t, writeManifest(manifestPath, result))

	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "s_abc.js")
}

func TestHasErrorDiagnosticCountsOnlyErrorSeverity(t *testing.T) {
	diags := []api.Diagnostic{
		{Severity: "warning", Message: "careful"},
		{Severity: "error", Message: "bad"},
		{Severity: "error", Message: "worse"},
	}
	require.True(t, hasErrorDiagnostic(diags))
	require.Equal(t, 2, countErrorDiagnostics(diags))
}

func TestHasErrorDiagnosticFalseWhenOnlyWarnings(t *testing.T) {
	diags := []api.Diagnostic{{Severity: "warning", Message: "careful"}}
	require.False(t, hasErrorDiagnostic(diags))
}

func TestMsgFromDiagnosticDoesNotDoublePrefixCode(t *testing.T) {
	msg := msgFromDiagnostic(api.Diagnostic{Severity: "error", Message: "[C01] root-level reference"})
	rendered := msg.String(logger.TerminalInfo{})
	require.Equal(t, 1, strings.Count(rendered, "[C01]"))
}

func TestKindFromSeverityMapsKnownAndUnknownValues(t *testing.T) {
	require.Equal(t, logger.Warning, kindFromSeverity("warning"))
	require.Equal(t, logger.Note, kindFromSeverity("note"))
	require.Equal(t, logger.Error, kindFromSeverity("error"))
	require.Equal(t, logger.Error, kindFromSeverity("something-else"))
}

func TestReportDiagnosticsWritesOneLinePerDiagnostic(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetErr(&buf)

	reportDiagnostics(cmd, []api.Diagnostic{{
		Origin:     "src/app.tsx",
		Severity:   "error",
		Message:    "boom",
		Highlights: []api.Highlight{{Line: 1, Column: 2}},
	}})
	require.Contains(t, buf.String(), "src/app.tsx")
	require.Contains(t, buf.String(), "boom")
}
