package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"

	"github.com/nota-dev/qrlc/internal/config"
	"github.com/nota-dev/qrlc/internal/exitcode"
	"github.com/nota-dev/qrlc/internal/helpers"
	"github.com/nota-dev/qrlc/internal/logger"
	"github.com/nota-dev/qrlc/pkg/api"
)

var allowedStrategyNames = []string{"single", "hook", "smart", "component"}

var (
	optSrc         string
	optDest        string
	optStrategy    string
	optManifest    string
	optNoTranspile bool
	optMinify      string
	optSourceMaps  bool
	optExtensions  bool
)

// sourceExtensions are the file extensions the walker treats as transformable
// input; anything else under --src is left alone.
var sourceExtensions = map[string]bool{".ts": true, ".tsx": true, ".js": true, ".jsx": true}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Extract $-marked segments from a source tree into standalone modules",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optSrc, "src", ".", "source directory to scan")
	optimizeCmd.Flags().StringVar(&optDest, "dest", "", "output directory (required)")
	optimizeCmd.Flags().StringVar(&optStrategy, "strategy", "single", "entry grouping strategy: single|hook|smart|component")
	optimizeCmd.Flags().StringVar(&optManifest, "manifest", "", "write a build manifest to this filename under --dest")
	optimizeCmd.Flags().BoolVar(&optNoTranspile, "no-transpile", false, "skip the TypeScript-strip and JSX-desugar pre-passes")
	optimizeCmd.Flags().StringVar(&optMinify, "minify", "none", "minify|simplify|none")
	optimizeCmd.Flags().BoolVar(&optSourceMaps, "sourcemaps", false, "request source maps (serialization is not performed by this core)")
	optimizeCmd.Flags().BoolVar(&optExtensions, "extensions", false, "append explicit \".js\" extensions to emitted QRL import paths")
	optimizeCmd.MarkFlagRequired("dest")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	strategy, ok := config.ParseEntryStrategy(optStrategy)
	if !ok || !allowedCLIStrategy(strategy) {
		return exitcode.Set(fmt.Errorf("unknown --strategy %q: must be one of %s",
			optStrategy, helpers.StringArrayToQuotedCommaSeparatedString(allowedStrategyNames)), 2)
	}

	minify, err := parseMinify(optMinify)
	if err != nil {
		return exitcode.Set(err, 2)
	}

	srcDir, err := filepath.Abs(optSrc)
	if err != nil {
		return exitcode.Set(fmt.Errorf("cannot resolve --src: %w", err), 1)
	}

	files, err := discoverSources(srcDir)
	if err != nil {
		return exitcode.Set(err, 1)
	}
	if len(files) == 0 {
		return exitcode.Set(fmt.Errorf("no .ts/.tsx/.js/.jsx files found under %s", optSrc), 1)
	}

	input := make([]config.InputModule, 0, len(files))
	for _, abs := range files {
		code, err := os.ReadFile(abs)
		if err != nil {
			return exitcode.Set(fmt.Errorf("reading %s: %w", abs, err), 1)
		}
		rel, err := filepath.Rel(srcDir, abs)
		if err != nil {
			return exitcode.Set(fmt.Errorf("resolving %s relative to --src: %w", abs, err), 1)
		}
		input = append(input, config.InputModule{Path: filepath.ToSlash(rel), Code: string(code)})
	}

	opts := config.Options{
		SrcDir:             ".",
		Input:              input,
		SourceMaps:         optSourceMaps,
		Minify:             minify,
		TranspileTS:        !optNoTranspile,
		TranspileJSX:       !optNoTranspile,
		EntryStrategy:      strategy,
		ExplicitExtensions: optExtensions,
		Mode:               config.ModeProd,
	}

	result, err := api.TransformModules(context.Background(), opts)
	if err != nil {
		return exitcode.Set(fmt.Errorf("transform failed: %w", err), 1)
	}

	if err := writeModules(optDest, result.Modules); err != nil {
		return exitcode.Set(err, 1)
	}

	if optManifest != "" {
		if err := writeManifest(filepath.Join(optDest, optManifest), result); err != nil {
			return exitcode.Set(err, 1)
		}
	}

	reportDiagnostics(cmd, result.Diagnostics)
	if hasErrorDiagnostic(result.Diagnostics) {
		return exitcode.Set(fmt.Errorf("%d error diagnostic(s) emitted", countErrorDiagnostics(result.Diagnostics)), 1)
	}
	return nil
}

// allowedCLIStrategy restricts the broader config.EntryStrategy enum (which
// also serves the library's inline/hoist/segment strategies) to the four
// values spec.md §6's CLI surface documents.
func allowedCLIStrategy(s config.EntryStrategy) bool {
	switch s {
	case config.EntrySingle, config.EntryHook, config.EntrySmart, config.EntryComponent:
		return true
	default:
		return false
	}
}

// parseMinify maps the CLI's three-value spelling onto config.MinifyMode's
// two actual modes: this core performs no byte-level minification of its own
// (see config.go's MinifyMode doc comment), so "minify" and "simplify" are
// synonyms here, both enabling segment.Simplify's constant-condition
// dead-branch elimination on the emitted main module.
func parseMinify(s string) (config.MinifyMode, error) {
	switch s {
	case "minify", "simplify":
		return config.MinifySimplify, nil
	case "none", "":
		return config.MinifyNone, nil
	default:
		return 0, fmt.Errorf("unknown --minify %q: must be minify, simplify, or none", s)
	}
}

// discoverSources walks srcDir for transformable files, honoring a
// .gitignore or .qrlignore at its root and skipping node_modules, the same
// two exclusions the teacher's own dependency-walking code applies.
func discoverSources(srcDir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(srcDir), "**/*")
	if err != nil {
		return nil, fmt.Errorf("walking --src: %w", err)
	}

	var gitIgnore *ignore.GitIgnore
	for _, name := range []string{".qrlignore", ".gitignore"} {
		path := filepath.Join(srcDir, name)
		if _, err := os.Stat(path); err == nil {
			gitIgnore, err = ignore.CompileIgnoreFile(path)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", name, err)
			}
			break
		}
	}

	var out []string
	for _, rel := range matches {
		if !sourceExtensions[strings.ToLower(filepath.Ext(rel))] {
			continue
		}
		if helpers.IsInsideNodeModules(rel) {
			continue
		}
		if gitIgnore != nil && gitIgnore.MatchesPath(rel) {
			continue
		}
		out = append(out, filepath.Join(srcDir, rel))
	}
	return out, nil
}

func writeModules(dest string, modules []api.Module) error {
	for _, m := range modules {
		full := filepath.Join(dest, filepath.FromSlash(m.Path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", m.Path, err)
		}
		if err := os.WriteFile(full, []byte(m.Code), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", m.Path, err)
		}
	}
	return nil
}

func writeManifest(path string, result api.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// reportDiagnostics renders each diagnostic through the logger's own
// terminal-aware formatter (logger.Msg.String), the teacher's rendering path,
// so --color output matches a diagnostic emitted anywhere else in this
// module. Color is gated on stderr actually being a TTY (logger.GetTerminalInfo).
func reportDiagnostics(cmd *cobra.Command, diags []api.Diagnostic) {
	terminalInfo := logger.GetTerminalInfo(os.Stderr)
	out := cmd.ErrOrStderr()
	for _, d := range diags {
		fmt.Fprintln(out, msgFromDiagnostic(d).String(terminalInfo))
	}
}

// msgFromDiagnostic reconstructs a logger.Msg from the flattened wire-format
// api.Diagnostic so it can be rendered through logger.Msg.String. The code
// prefix (e.g. "[C01] ") is already folded into d.Message by
// api.diagnosticsFromLog, so Code stays logger.CodeNone here to avoid adding
// it a second time.
func msgFromDiagnostic(d api.Diagnostic) logger.Msg {
	msg := logger.Msg{Kind: kindFromSeverity(d.Severity), Data: logger.MsgData{Text: d.Message}}
	if len(d.Highlights) > 0 {
		h := d.Highlights[0]
		msg.Data.Location = &logger.MsgLocation{File: d.Origin, Line: h.Line, Column: h.Column, Length: h.Length}
	}
	for _, hint := range d.Hints {
		msg.Notes = append(msg.Notes, logger.MsgData{Text: hint})
	}
	return msg
}

func kindFromSeverity(severity string) logger.MsgKind {
	switch severity {
	case "warning":
		return logger.Warning
	case "note":
		return logger.Note
	default:
		return logger.Error
	}
}

func hasErrorDiagnostic(diags []api.Diagnostic) bool {
	return countErrorDiagnostics(diags) > 0
}

func countErrorDiagnostics(diags []api.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == "error" {
			n++
		}
	}
	return n
}
