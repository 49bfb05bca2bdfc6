// Package api is the library façade spec.md §6 calls transform_modules: it
// wires a parsed file through a Collector, a Transformer, the §4.8 cleanup
// visitors, and the printer, and does so for every input file concurrently
// (spec.md §5: "the top-level driver MAY process multiple files in
// parallel threads, with no shared mutable state between files"). The
// concurrency idiom — an errgroup.Group fed one goroutine per unit of work,
// cancellation on first error — is the one the retrieved example pack uses
// throughout for exactly this shape of fan-out.
package api

import (
	"context"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/config"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_parser"
	"github.com/nota-dev/qrlc/internal/js_printer"
	"github.com/nota-dev/qrlc/internal/logger"
	"github.com/nota-dev/qrlc/internal/renamer"
	"github.com/nota-dev/qrlc/internal/segment"
)

// Module is one entry of spec.md §6's `modules` response array.
type Module struct {
	Path    string       `json:"path"`
	Code    string       `json:"code"`
	Map     *string      `json:"map,omitempty"`
	Segment *SegmentMeta `json:"segment,omitempty"`
	IsEntry bool         `json:"is_entry"`
	Order   int          `json:"order"`
}

// SegmentMeta is spec.md §6's "segment metadata per output module", present
// only on modules that hold an extracted segment.
type SegmentMeta struct {
	Origin            string    `json:"origin"`
	Name              string    `json:"name"`
	Entry             *string   `json:"entry,omitempty"`
	DisplayName       string    `json:"display_name"`
	Hash              string    `json:"hash"`
	CanonicalFilename string    `json:"canonical_filename"`
	Extension         string    `json:"extension"`
	Parent            *string   `json:"parent,omitempty"`
	CtxKind           string    `json:"ctx_kind"`
	CtxName           string    `json:"ctx_name"`
	Captures          bool      `json:"captures"`
	Loc               [2]uint32 `json:"loc"`
}

// Diagnostic is spec.md §6's diagnostic record.
type Diagnostic struct {
	Origin     string      `json:"origin"`
	Message    string      `json:"message"`
	Severity   string      `json:"severity"`
	Highlights []Highlight `json:"highlights,omitempty"`
	Hints      []string    `json:"hints,omitempty"`
}

type Highlight struct {
	Line, Column, Length int
}

// Result is spec.md §6's transform_modules response.
type Result struct {
	Modules      []Module     `json:"modules"`
	Diagnostics  []Diagnostic `json:"diagnostics"`
	IsTypeScript bool         `json:"is_type_script"`
	IsJSX        bool         `json:"is_jsx"`
}

// TransformModules runs spec.md §6's transform_modules operation: one
// collector/transformer/segment-list per input file, fanned out over
// errgroup, then a final single-threaded merge that groups entry-marked
// segments into their shared entry modules and assigns the deterministic
// `order` spec.md §5 requires.
func TransformModules(ctx context.Context, opts config.Options) (Result, error) {
	opts = opts.WithDefaults()

	fileResults := make([]fileOutput, len(opts.Input))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range opts.Input {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := transformFile(uint32(i), in, opts)
			if err != nil {
				return err
			}
			fileResults[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var modules []Module
	var diagnostics []Diagnostic
	groups := map[string][]entryRef{}
	for _, fr := range fileResults {
		modules = append(modules, fr.main)
		modules = append(modules, fr.segments...)
		diagnostics = append(diagnostics, fr.diagnostics...)
		for _, ref := range fr.entryRefs {
			groups[ref.entry] = append(groups[ref.entry], ref)
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		refs := groups[name]
		sort.Slice(refs, func(i, j int) bool { return refs[i].symbol < refs[j].symbol })
		modules = append(modules, buildEntryAggregate(name, refs))
	}

	for i := range modules {
		modules[i].Order = i
	}

	return Result{
		Modules:      modules,
		Diagnostics:  diagnostics,
		IsTypeScript: opts.TranspileTS,
		IsJSX:        opts.TranspileJSX,
	}, nil
}

// entryRef is one segment's contribution to a shared entry aggregate module.
type entryRef struct {
	entry             string
	symbol            string
	originDir         string
	canonicalFilename string
}

type fileOutput struct {
	main        Module
	segments    []Module
	entryRefs   []entryRef
	diagnostics []Diagnostic
}

// transformFile runs one file's full pipeline: parse, collect, fold, clean
// up, print. It touches no state shared with any other file's call, per
// spec.md §5's isolation requirement.
func transformFile(index uint32, in config.InputModule, opts config.Options) (fileOutput, error) {
	prettyPath := in.Path
	if in.DevPath != "" {
		prettyPath = in.DevPath
	}
	source := logger.Source{
		Index:      index,
		KeyPath:    logger.Path{Text: in.Path},
		PrettyPath: prettyPath,
		Contents:   in.Code,
	}
	log := logger.NewLog()

	// JSXDesugar is never requested here even when opts.TranspileJSX is set:
	// internal/segment's own JSX-attribute recognition (spec.md §4.5 shape 4,
	// `name$={arrow}`) needs the raw EJSXElement tree, and runs before any
	// factory-call lowering could happen (see js_parser's jsxDesugarer doc
	// comment). TranspileJSX here only
	// governs whether the parser accepts JSX syntax at all.
	tree, err := js_parser.Parse(log, source, js_parser.Options{
		TSStrip: opts.TranspileTS,
		IsJSX:   opts.TranspileJSX,
	})
	if err != nil {
		return fileOutput{}, err
	}

	symbols := &tree.Symbols
	// js_parser.Parse always builds a single-element SymbolsForSource (its
	// internal fileRef is hardcoded to 0, since this core never links
	// multiple files' symbol tables together — see ast.go's doc comment on
	// SourceIndex). The minter must match that, independent of this file's
	// position in the input batch.
	newSym := segment.NewSymbolMinter(symbols, 0)
	names := renamer.NewNameGenerator()

	collector := segment.NewCollector(tree, symbols, newSym, names)
	transformer := segment.NewTransformerWithMinter(&tree.Source, log, opts, symbols, collector, names, newSym)

	stmts, segs := transformer.Transform(tree.Stmts)

	isServer := opts.IsServerOrDefault()
	stmts = segment.ReplaceConsts(stmts, collector, opts.CoreModule, isServer, !isServer, opts.Mode == config.ModeDev)

	if opts.Minify == config.MinifySimplify {
		stmts = segment.Simplify(stmts)
	}

	needsErrorRef := len(opts.StripExports) > 0 || len(opts.StripCtxName) > 0 || opts.StripEventHandlers
	var errorRef ast.Ref
	if needsErrorRef {
		errorRef = newSym("Error", ast.SymbolUnbound)
	}

	if len(opts.StripExports) > 0 {
		stripNames := make(map[string]bool, len(opts.StripExports))
		for _, n := range opts.StripExports {
			stripNames[n] = true
		}
		stmts = segment.StripExports(stmts, symbols, stripNames, errorRef)
	}

	stripCtxNames := make(map[string]bool, len(opts.StripCtxName))
	for _, n := range opts.StripCtxName {
		stripCtxNames[n] = true
	}
	regCtxNames := make(map[string]bool, len(opts.RegCtxName))
	for _, n := range opts.RegCtxName {
		regCtxNames[n] = true
	}

	stmts = segment.CleanSideEffects(stmts)

	originDir := dirOf(source.PrettyPath)
	stmts = segment.AddSideEffects(stmts, collector, originDir, opts.SrcDir)

	nameFor := symbolNamer(symbols)
	mainCode := js_printer.Print(stmts, nameFor, js_printer.Options{})

	// spec.md §6 "File layout": the main module is emitted alongside its
	// origin with the origin's own extension swapped for the emitted
	// artifact's (always .js, same reasoning as Segment.Extension).
	mainPath := dirJoin(dirOf(in.Path), stemOf(in.Path)+".js")

	out := fileOutput{
		main: Module{Path: mainPath, Code: mainCode},
	}

	originStem := stemOf(source.PrettyPath)
	for _, seg := range segs {
		body := fixSegmentDynamicImports(seg.Expr, originDir, originDir, &tree.Source, log)
		seg.Expr = body

		if arrow, ok := body.Data.(*js_ast.EArrow); ok && seg.Kind == segment.SegmentFunction {
			if _, ok := soleObjectParam(arrow); ok {
				propsRef := newSym("props", ast.SymbolVar)
				if restRef, destructured := segment.DestructureProps(arrow, symbols, propsRef, collector, opts.CoreModule); destructured && restRef != nil {
					seg.LocalIdents = append(seg.LocalIdents, *restRef)
				}
			}
		}

		modStmts := segment.BuildModule(seg, collector, symbols, originStem, opts.CoreModule, newSym)
		if shouldStripSegment(seg, opts, stripCtxNames, regCtxNames) {
			modStmts = segment.StripExports(modStmts, symbols, map[string]bool{seg.SymbolName: true}, errorRef)
		}
		modPath := dirJoin(originDir, seg.CanonicalFilename+".js")
		code := js_printer.Print(modStmts, nameFor, js_printer.Options{})

		var entryPtr *string
		if seg.IsEntry {
			e := seg.Entry
			entryPtr = &e
		}
		var parentPtr *string
		if seg.ParentSegment != "" {
			parentPtr = &seg.ParentSegment
		}

		out.segments = append(out.segments, Module{
			Path: modPath,
			Code: code,
			Segment: &SegmentMeta{
				Origin:            seg.Origin,
				Name:              seg.SymbolName,
				Entry:             entryPtr,
				DisplayName:       seg.DisplayName,
				Hash:              seg.Hash,
				CanonicalFilename: seg.CanonicalFilename,
				Extension:         seg.Extension,
				Parent:            parentPtr,
				CtxKind:           ctxKindString(seg.Kind),
				CtxName:           seg.CtxName,
				Captures:          len(seg.ScopedIdents) > 0,
				Loc:               [2]uint32{uint32(seg.Span.Loc.Start), uint32(seg.Span.Len)},
			},
			IsEntry: seg.IsEntry,
		})

		if seg.IsEntry {
			out.entryRefs = append(out.entryRefs, entryRef{
				entry:             seg.Entry,
				symbol:            seg.SymbolName,
				originDir:         originDir,
				canonicalFilename: seg.CanonicalFilename,
			})
		}
	}

	out.diagnostics = append(out.diagnostics, diagnosticsFromLog(log, source.PrettyPath)...)
	return out, nil
}

// fixSegmentDynamicImports applies segment.FixDynamicImports to a segment
// body expression, which may be a function/arrow (the common case) or a bare
// expression (spec.md §8 S1's `$(x)` shape). oldDir and newDir are equal in
// this pipeline since a segment module is always emitted alongside its
// origin file (see module.go's BuildModule doc comment on shared symbols);
// the call is still routed through FixDynamicImports so a future layout that
// relocates segment modules elsewhere only has to change these two
// arguments.
func fixSegmentDynamicImports(body js_ast.Expr, oldDir, newDir string, source *logger.Source, log logger.Log) js_ast.Expr {
	switch v := body.Data.(type) {
	case *js_ast.EArrow:
		fixed := segment.FixDynamicImports(v.Body, oldDir, newDir, source, log)
		return js_ast.Expr{Loc: body.Loc, Data: &js_ast.EArrow{Args: v.Args, Body: fixed, IsExprBody: v.IsExprBody, IsAsync: v.IsAsync}}
	case *js_ast.EFunction:
		fnCopy := v.Fn
		fnCopy.Body = segment.FixDynamicImports(v.Fn.Body, oldDir, newDir, source, log)
		return js_ast.Expr{Loc: body.Loc, Data: &js_ast.EFunction{Fn: fnCopy}}
	default:
		wrapped := segment.FixDynamicImports([]js_ast.Stmt{{Loc: body.Loc, Data: &js_ast.SExpr{Value: body}}}, oldDir, newDir, source, log)
		return wrapped[0].Data.(*js_ast.SExpr).Value
	}
}

// soleObjectParam reports whether arrow's only parameter is an object
// pattern, the shape segment.DestructureProps requires.
func soleObjectParam(arrow *js_ast.EArrow) (*js_ast.BObject, bool) {
	if len(arrow.Args) != 1 {
		return nil, false
	}
	obj, ok := arrow.Args[0].Binding.Data.(*js_ast.BObject)
	return obj, ok
}

// shouldStripSegment implements spec.md §6's strip_ctx_name/strip_event_handlers/
// reg_ctx_name options: strip_ctx_name names segments to stub out by their
// naming-context (the `ctx` of a `component$`/event-attribute call, spec.md
// §6's ctx_name segment metadata field), strip_event_handlers is the same cut
// applied to every event-kind segment regardless of name, and reg_ctx_name is
// the explicit exemption list — a ctx_name present there is never stripped,
// the same "keep what's explicitly registered" escape hatch original_source's
// lib.rs documents reg_ctx_name alongside the two strip options for.
func shouldStripSegment(seg *segment.Segment, opts config.Options, stripCtxNames, regCtxNames map[string]bool) bool {
	if regCtxNames[seg.CtxName] {
		return false
	}
	if stripCtxNames[seg.CtxName] {
		return true
	}
	return opts.StripEventHandlers && seg.Kind == segment.SegmentEvent
}

func ctxKindString(k segment.SegmentKind) string {
	if k == segment.SegmentEvent {
		return "event"
	}
	return "function"
}

func symbolNamer(symbols *ast.SymbolMap) js_printer.NameForSymbol {
	return func(ref ast.Ref) string {
		return symbols.Get(symbols.Follow(ref)).OriginalName
	}
}

func dirOf(prettyPath string) string {
	d := path.Dir(segment.NormalizeSlashes(prettyPath))
	if d == "." {
		return ""
	}
	return d
}

func stemOf(prettyPath string) string {
	base := path.Base(segment.NormalizeSlashes(prettyPath))
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func dirJoin(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// buildEntryAggregate assembles the re-export module a grouping entry policy
// produces: spec.md §4.7 groups multiple segments under one entry name, and
// the conventional way Qwik's own build ships that grouping is a module that
// re-exports every grouped segment's symbol from its own file, so a bundler
// can chunk them together. This is plain re-export boilerplate with no
// identifier resolution of its own, so it is built as text directly rather
// than through js_ast/js_printer.
func buildEntryAggregate(entryName string, refs []entryRef) Module {
	modPath := entryName + ".js"
	aggregateDir := dirOf(modPath)

	var b strings.Builder
	for _, ref := range refs {
		target := dirJoin(ref.originDir, ref.canonicalFilename)
		rel := segment.AnchorRelative(segment.RelativeTo(aggregateDir, target))
		b.WriteString("export { ")
		b.WriteString(ref.symbol)
		b.WriteString(" } from \"")
		b.WriteString(rel)
		b.WriteString(".js\";\n")
	}

	return Module{Path: modPath, Code: b.String(), IsEntry: true}
}

func diagnosticsFromLog(log logger.Log, origin string) []Diagnostic {
	msgs := log.Done()
	out := make([]Diagnostic, 0, len(msgs))
	for _, msg := range msgs {
		d := Diagnostic{Origin: origin, Message: msg.Data.Text, Severity: msg.Kind.String()}
		if msg.Code != logger.CodeNone {
			d.Message = "[" + string(msg.Code) + "] " + d.Message
		}
		if loc := msg.Data.Location; loc != nil {
			d.Highlights = append(d.Highlights, Highlight{Line: loc.Line, Column: loc.Column, Length: loc.Length})
		}
		for _, note := range msg.Notes {
			d.Hints = append(d.Hints, note.Text)
		}
		out = append(out, d)
	}
	return out
}
