package segment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/config"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/js_parser"
	"github.com/nota-dev/qrlc/internal/logger"
	"github.com/nota-dev/qrlc/internal/renamer"
	"github.com/nota-dev/qrlc/internal/segment"
)

func runTransform(t *testing.T, code string, opts config.Options, isJSX bool) ([]js_ast.Stmt, []*segment.Segment, logger.Log) {
	t.Helper()
	source := logger.Source{Contents: code, PrettyPath: "src/app.tsx"}
	log := logger.NewLog()
	tree, err := js_parser.Parse(log, source, js_parser.Options{IsJSX: isJSX})
	require.NoError(t, err)

	symbols := &tree.Symbols
	newSym := segment.NewSymbolMinter(symbols, 0)
	names := renamer.NewNameGenerator()
	collector := segment.NewCollector(tree, symbols, newSym, names)
	transformer := segment.NewTransformerWithMinter(&tree.Source, log, opts, symbols, collector, names, newSym)
	stmts, segs := transformer.Transform(tree.Stmts)
	return stmts, segs, log
}

// S1 — bare marker in an arrow.
func TestS1BareMarkerProducesOneSegmentBoundToOriginalArrow(t *testing.T) {
	stmts, segs, log := runTransform(t, `import {$} from 'q'; export const x = $((c) => console.log(c));`, config.Options{Mode: config.ModeProd, EntryStrategy: config.EntrySingle}, false)
	require.Empty(t, log.Done())
	require.Len(t, segs, 1)
	_, isArrow := segs[0].Expr.Data.(*js_ast.EArrow)
	require.True(t, isArrow)

	decl := stmts[1].Data.(*js_ast.SVarDecl)
	call := (*decl.Decls[0].ValueOrNil).Data.(*js_ast.ECall)
	require.Len(t, call.Args, 2)
}

// S2 — capture of a local var.
func TestS2CapturesLocalVarIntoScopedIdents(t *testing.T) {
	_, segs, log := runTransform(t, `import {component$} from 'q'; export const C = component$(() => { const n=1; return $(() => n); });`, config.Options{Mode: config.ModeProd, EntryStrategy: config.EntrySingle}, false)
	require.Empty(t, log.Done())

	var inner *segment.Segment
	for _, s := range segs {
		if len(s.ScopedIdents) > 0 {
			inner = s
		}
	}
	require.NotNil(t, inner)
	require.Len(t, inner.ScopedIdents, 1)
}

// S3 — capture of a root-level function. A function declared at the file
// root is a root binding before it is a function/class binding, so it goes
// through the root-level-reference check (C01) rather than the
// function/class-reference check (C02), which is reserved for a fn/class
// declared in an ENCLOSING scope nested inside the segment, not at the file
// root. The transformer auto-exports it so the emitted segment module still
// resolves its reference (spec.md §4.4 rule 5).
func TestS3CapturingUnexportedRootFunctionRaisesC01AndAutoExports(t *testing.T) {
	_, segs, log := runTransform(t, `function g(){} export const C = component$(() => $(() => g()));`, config.Options{Mode: config.ModeProd, EntryStrategy: config.EntrySingle}, false)
	msgs := log.Done()
	found := false
	for _, m := range msgs {
		if m.Code == logger.CodeRootLevelReference {
			found = true
		}
	}
	require.True(t, found)

	var inner *segment.Segment
	for _, s := range segs {
		if len(s.LocalIdents) > 0 {
			inner = s
		}
	}
	require.NotNil(t, inner)
}

// S4 — JSX event attribute.
func TestS4JSXEventAttributeProducesEventSegment(t *testing.T) {
	_, segs, log := runTransform(t, `import {component$} from 'q';
const App = component$(() => <button onClick$={() => 1}/>);`, config.Options{Mode: config.ModeProd, EntryStrategy: config.EntrySingle}, true)
	require.Empty(t, log.Done())

	var eventSeg *segment.Segment
	for _, s := range segs {
		if s.Kind == segment.SegmentEvent {
			eventSeg = s
		}
	}
	require.NotNil(t, eventSeg)
	require.Equal(t, "onClick", eventSeg.CtxName)
}

// S5 — smart strategy grouping: three uncapturing event handlers all get
// entry = none under the smart strategy.
func TestS5SmartStrategyUncapturingHandlersBypassGrouping(t *testing.T) {
	_, segs, log := runTransform(t, `import {component$} from 'q';
const App = component$(() => (
	<div>
		<button onClick$={() => 1}/>
		<button onClick$={() => 2}/>
		<button onClick$={() => 3}/>
	</div>
));`, config.Options{Mode: config.ModeProd, EntryStrategy: config.EntrySmart}, true)
	require.Empty(t, log.Done())

	eventSegs := 0
	for _, s := range segs {
		if s.Kind == segment.SegmentEvent {
			eventSegs++
			require.False(t, s.IsEntry)
			require.Empty(t, s.Entry)
		}
	}
	require.Equal(t, 3, eventSegs)
}

// S6 — inlined round-trip: a pre-existing inlinedQrl re-entry preserves its
// symbol_name verbatim instead of re-hashing.
func TestS6InlinedRoundTripPreservesSymbolName(t *testing.T) {
	_, segs, log := runTransform(t, `import {inlinedQrl} from 'q';
const x = inlinedQrl(() => 1, "Foo_abcd", []);`, config.Options{Mode: config.ModeProd, EntryStrategy: config.EntryInline}, false)
	require.Empty(t, log.Done())
	require.Len(t, segs, 1)
	require.Equal(t, "Foo_abcd", segs[0].SymbolName)
	require.Equal(t, "Foo", segs[0].DisplayName)
	require.Equal(t, "abcd", segs[0].Hash)
}
