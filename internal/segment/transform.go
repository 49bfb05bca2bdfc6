package segment

import (
	"strings"

	"github.com/nota-dev/qrlc/internal/ast"
	"github.com/nota-dev/qrlc/internal/config"
	"github.com/nota-dev/qrlc/internal/js_ast"
	"github.com/nota-dev/qrlc/internal/logger"
)

// Segment is spec.md §3's central entity: a lifted closure plus everything
// needed to name it, import it, and route it to an entry.
type Segment struct {
	SymbolName        string
	SymbolRef         ast.Ref
	DisplayName       string
	Hash              string
	CanonicalFilename string
	Kind              SegmentKind
	Origin            string
	Extension         string
	Expr              js_ast.Expr
	LocalIdents       []ast.Ref
	ScopedIdents      []ast.Ref
	ParentSegment     string
	Entry             string
	IsEntry           bool
	Inline            bool
	Span              logger.Range
	Order             int
	CtxName           string
}

// Transformer is spec.md §4's "segment transformer": the main pass, scoped
// to one file, carrying the naming-context stack (NamingContext), the
// nesting stack of enclosing segment names (hookStack, spec.md §4.9's
// hook_stack), and the accumulated segment list.
type Transformer struct {
	Source    *logger.Source
	Log       logger.Log
	Options   config.Options
	Symbols   *ast.SymbolMap
	Collector *Collector

	newSym func(name string, kind ast.SymbolKind) ast.Ref
	namer  *Namer

	naming    NamingContext
	hookStack []string
	segments  []*Segment
}

// NewSymbolMinter appends fresh symbols directly onto the shared SymbolMap's
// backing slice. A segment module is never given its own symbol table (see
// module.go's BuildModule doc comment), so every synthetic binding the
// transform mints — a segment's own exported name, a synthesized import's
// local name — lives in this same per-file table. pkg/api shares one minter
// between NewCollector and NewTransformer so both mint into the same slice.
func NewSymbolMinter(symbols *ast.SymbolMap, sourceIndex uint32) func(name string, kind ast.SymbolKind) ast.Ref {
	return func(name string, kind ast.SymbolKind) ast.Ref {
		idx := uint32(len(symbols.SymbolsForSource[sourceIndex]))
		symbols.SymbolsForSource[sourceIndex] = append(symbols.SymbolsForSource[sourceIndex], ast.Symbol{
			OriginalName: name, Kind: kind, Link: ast.InvalidRef,
		})
		return ast.Ref{SourceIndex: sourceIndex, InnerIndex: idx}
	}
}

// NewTransformer builds a Transformer that mints its own symbols via a fresh
// NewSymbolMinter closure. Callers that also construct a Collector for the
// same file (pkg/api's pipeline) use NewTransformerWithMinter instead, so
// that both mint from one shared NewSymbolMinter instance.
func NewTransformer(source *logger.Source, log logger.Log, opts config.Options, symbols *ast.SymbolMap, collector *Collector, names nameGenerator) *Transformer {
	return NewTransformerWithMinter(source, log, opts, symbols, collector, names, NewSymbolMinter(symbols, 0))
}

// NewTransformerWithMinter is NewTransformer with an explicit symbol minter,
// for callers (pkg/api) that must share one minter between a Collector and
// its Transformer so every ast.Ref in a file's pipeline indexes the same
// backing symbol slice.
func NewTransformerWithMinter(source *logger.Source, log logger.Log, opts config.Options, symbols *ast.SymbolMap, collector *Collector, names nameGenerator, newSym func(name string, kind ast.SymbolKind) ast.Ref) *Transformer {
	namer := NewNamer(source.PrettyPath, opts.Scope, opts.Mode == config.ModeProd, names)
	return &Transformer{
		Source: source, Log: log, Options: opts, Symbols: symbols, Collector: collector,
		newSym: newSym, namer: namer,
	}
}

// Transform folds tree.Stmts, extracting every segment it finds, and returns
// the rewritten top-level statements plus the segments created, in source
// order (spec.md §3 Lifecycle: "Segments are created in source order").
func (t *Transformer) Transform(stmts []js_ast.Stmt) ([]js_ast.Stmt, []*Segment) {
	out := t.foldStmts(stmts)
	return out, t.segments
}

// ---------------------------------------------------------------------
// Statement-level fold: maintains the naming-context pushes that are tied
// to a statement shape (var declarator, function/class decl, default
// export) per spec.md §4.2.
// ---------------------------------------------------------------------

func (t *Transformer) foldStmts(stmts []js_ast.Stmt) []js_ast.Stmt {
	out := make([]js_ast.Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = t.foldStmt(s)
	}
	return out
}

func (t *Transformer) foldStmt(s js_ast.Stmt) js_ast.Stmt {
	switch v := s.Data.(type) {
	case *js_ast.SExpr:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SExpr{Value: t.foldExpr(v.Value)}}

	case *js_ast.SVarDecl:
		decls := make([]js_ast.Decl, len(v.Decls))
		for i, d := range v.Decls {
			decls[i] = d
			if d.ValueOrNil == nil {
				continue
			}
			id, hasToken := d.Binding.Data.(*js_ast.BIdentifier)
			if hasToken {
				t.naming.Push(t.Symbols.Get(id.Ref).OriginalName)
			}
			val := t.foldExpr(*d.ValueOrNil)
			if hasToken {
				t.naming.Pop()
			}
			decls[i].ValueOrNil = &val
		}
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SVarDecl{Kind: v.Kind, Decls: decls, IsExport: v.IsExport}}

	case *js_ast.SFunction:
		fnCopy := v.Fn
		if v.Fn.Name != nil {
			t.naming.Push(t.Symbols.Get(v.Fn.Name.Ref).OriginalName)
		}
		fnCopy.Body = t.foldStmts(v.Fn.Body)
		if v.Fn.Name != nil {
			t.naming.Pop()
		}
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SFunction{Fn: fnCopy, IsExport: v.IsExport, IsDefaultExport: v.IsDefaultExport}}

	case *js_ast.SClass:
		if v.Class.Name != nil {
			t.naming.Push(t.Symbols.Get(v.Class.Name.Ref).OriginalName)
		}
		class := t.foldClass(v.Class)
		if v.Class.Name != nil {
			t.naming.Pop()
		}
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SClass{Class: class, IsExport: v.IsExport, IsDefaultExport: v.IsDefaultExport}}

	case *js_ast.SReturn:
		if v.ValueOrNil == nil {
			return s
		}
		val := t.foldExpr(*v.ValueOrNil)
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SReturn{ValueOrNil: &val}}

	case *js_ast.SIf:
		yes := t.foldStmt(v.Yes)
		var no *js_ast.Stmt
		if v.NoOrNil != nil {
			n := t.foldStmt(*v.NoOrNil)
			no = &n
		}
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SIf{Test: t.foldExpr(v.Test), Yes: yes, NoOrNil: no}}

	case *js_ast.SBlock:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SBlock{Stmts: t.foldStmts(v.Stmts)}}

	case *js_ast.SFor:
		out := &js_ast.SFor{Body: t.foldStmt(v.Body)}
		if v.InitOrNil != nil {
			i := t.foldStmt(*v.InitOrNil)
			out.InitOrNil = &i
		}
		if v.TestOrNil != nil {
			tExpr := t.foldExpr(*v.TestOrNil)
			out.TestOrNil = &tExpr
		}
		if v.UpdateOrNil != nil {
			u := t.foldExpr(*v.UpdateOrNil)
			out.UpdateOrNil = &u
		}
		return js_ast.Stmt{Loc: s.Loc, Data: out}

	case *js_ast.SForIn:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SForIn{Init: t.foldStmt(v.Init), Value: t.foldExpr(v.Value), Body: t.foldStmt(v.Body)}}

	case *js_ast.SForOf:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SForOf{Init: t.foldStmt(v.Init), Value: t.foldExpr(v.Value), Body: t.foldStmt(v.Body)}}

	case *js_ast.SWhile:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SWhile{Test: t.foldExpr(v.Test), Body: t.foldStmt(v.Body)}}

	case *js_ast.SThrow:
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SThrow{Value: t.foldExpr(v.Value)}}

	case *js_ast.SExportDefault:
		token := fileDefaultExportToken(t.Source.PrettyPath)
		t.naming.Push(token)
		val := t.foldExpr(v.Value)
		t.naming.Pop()
		return js_ast.Stmt{Loc: s.Loc, Data: &js_ast.SExportDefault{Value: val}}

	default:
		return s
	}
}

func (t *Transformer) foldClass(c js_ast.Class) js_ast.Class {
	out := c
	if c.ExtendsOrNil != nil {
		e := t.foldExpr(*c.ExtendsOrNil)
		out.ExtendsOrNil = &e
	}
	members := make([]js_ast.ClassMember, len(c.Members))
	for i, m := range c.Members {
		members[i] = js_ast.ClassMember{Key: m.Key, Value: t.foldExpr(m.Value), Kind: m.Kind, IsComputed: m.IsComputed, IsStatic: m.IsStatic}
	}
	out.Members = members
	return out
}

// fileDefaultExportToken is spec.md §4.2's sixth push rule.
func fileDefaultExportToken(prettyPath string) string {
	stem := fileStem(prettyPath)
	if stem == "index" {
		return dirName(prettyPath)
	}
	return stem
}

func fileStem(prettyPath string) string {
	p := NormalizeSlashes(prettyPath)
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.LastIndexByte(p, '.'); i > 0 {
		p = p[:i]
	}
	return p
}

func dirName(prettyPath string) string {
	p := NormalizeSlashes(prettyPath)
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	p = p[:i]
	if j := strings.LastIndexByte(p, '/'); j >= 0 {
		p = p[j+1:]
	}
	return p
}

// ---------------------------------------------------------------------
// Expression-level fold: recognises the four segment shapes from
// spec.md §4.5, maintains the remaining naming-context push rules (JSX
// opening tag, JSX attribute, object property key), and recurses
// structurally everywhere else.
// ---------------------------------------------------------------------

func (t *Transformer) foldExpr(e js_ast.Expr) js_ast.Expr {
	switch v := e.Data.(type) {
	case *js_ast.ECall:
		if call, ok := t.tryExtractCall(e.Loc, v); ok {
			return call
		}
		args := make([]js_ast.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = t.foldExpr(a)
		}
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.ECall{Target: t.foldExpr(v.Target), Args: args, OptionalChain: v.OptionalChain}}

	case *js_ast.EArray:
		items := make([]js_ast.Expr, len(v.Items))
		for i, it := range v.Items {
			items[i] = t.foldExpr(it)
		}
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EArray{Items: items, IsSingleLine: v.IsSingleLine}}

	case *js_ast.EObject:
		props := make([]js_ast.Property, len(v.Properties))
		for i, p := range v.Properties {
			props[i] = p
			token, hasToken := objectKeyToken(p)
			if hasToken {
				t.naming.Push(token)
			}
			if p.Value != nil {
				val := t.foldExpr(*p.Value)
				props[i].Value = &val
			}
			if p.Initializer != nil {
				init := t.foldExpr(*p.Initializer)
				props[i].Initializer = &init
			}
			if hasToken {
				t.naming.Pop()
			}
		}
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EObject{Properties: props, IsSingleLine: v.IsSingleLine}}

	case *js_ast.ESpread:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.ESpread{Value: t.foldExpr(v.Value)}}

	case *js_ast.ETemplate:
		parts := make([]js_ast.TemplatePart, len(v.Parts))
		for i, p := range v.Parts {
			parts[i] = js_ast.TemplatePart{Value: t.foldExpr(p.Value), TailRaw: p.TailRaw}
		}
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.ETemplate{HeadRaw: v.HeadRaw, Parts: parts}}

	case *js_ast.EUnary:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EUnary{Op: v.Op, Value: t.foldExpr(v.Value), Prefix: v.Prefix}}

	case *js_ast.EBinary:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EBinary{Op: v.Op, Left: t.foldExpr(v.Left), Right: t.foldExpr(v.Right)}}

	case *js_ast.EIf:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EIf{Test: t.foldExpr(v.Test), Yes: t.foldExpr(v.Yes), No: t.foldExpr(v.No)}}

	case *js_ast.ENew:
		args := make([]js_ast.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = t.foldExpr(a)
		}
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.ENew{Target: t.foldExpr(v.Target), Args: args}}

	case *js_ast.EDot:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EDot{Target: t.foldExpr(v.Target), Name: v.Name, OptionalChain: v.OptionalChain}}

	case *js_ast.EIndex:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EIndex{Target: t.foldExpr(v.Target), Index: t.foldExpr(v.Index), OptionalChain: v.OptionalChain}}

	case *js_ast.EArrow:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EArrow{Args: v.Args, Body: t.foldStmts(v.Body), IsExprBody: v.IsExprBody, IsAsync: v.IsAsync}}

	case *js_ast.EFunction:
		fnCopy := v.Fn
		if v.Fn.Name != nil {
			t.naming.Push(t.Symbols.Get(v.Fn.Name.Ref).OriginalName)
		}
		fnCopy.Body = t.foldStmts(v.Fn.Body)
		if v.Fn.Name != nil {
			t.naming.Pop()
		}
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EFunction{Fn: fnCopy}}

	case *js_ast.EClass:
		if v.Class.Name != nil {
			t.naming.Push(t.Symbols.Get(v.Class.Name.Ref).OriginalName)
		}
		class := t.foldClass(v.Class)
		if v.Class.Name != nil {
			t.naming.Pop()
		}
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EClass{Class: class}}

	case *js_ast.EJSXElement:
		return t.foldJSX(e.Loc, v)

	case *js_ast.EImportCall:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EImportCall{Arg: t.foldExpr(v.Arg)}}

	case *js_ast.EAwait:
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EAwait{Value: t.foldExpr(v.Value)}}

	case *js_ast.EYield:
		if v.ValueOrNil == nil {
			return e
		}
		val := t.foldExpr(*v.ValueOrNil)
		return js_ast.Expr{Loc: e.Loc, Data: &js_ast.EYield{ValueOrNil: &val}}

	default:
		return e
	}
}

// objectKeyToken is spec.md §4.2's fifth push rule: "an object property key
// (excluding children)". Computed keys and the reserved JSX children prop
// contribute no token.
func objectKeyToken(p js_ast.Property) (string, bool) {
	key, ok := p.Key.Data.(*js_ast.EString)
	if !ok || p.IsComputed || key.Value == "children" {
		return "", false
	}
	return key.Value, true
}

// foldJSX handles an element's three naming-context push sites at once: the
// opening tag (pushed for the whole element), each attribute name (pushed
// only around that attribute's value), and §4.5 shape 4's event-segment
// detection, which must run before an attribute's value is folded generically.
func (t *Transformer) foldJSX(loc logger.Loc, v *js_ast.EJSXElement) js_ast.Expr {
	tagToken, hasTag := t.jsxTagToken(v.TagOrNil)
	if hasTag {
		t.naming.Push(tagToken)
	}

	var tag *js_ast.Expr
	if v.TagOrNil != nil {
		tagged := t.foldExpr(*v.TagOrNil)
		tag = &tagged
	}

	attrs := make([]js_ast.JSXAttr, len(v.Attributes))
	for i, a := range v.Attributes {
		attrs[i] = a
		if a.Value == nil {
			continue
		}
		if isEventAttr(a.Name) {
			if body, ok := asSegmentBody(*a.Value); ok {
				ctx := strings.TrimSuffix(a.Name, "$")
				extracted := t.extractSegment(body, SegmentEvent, ctx, "", nil)
				attrs[i].Value = &extracted
				continue
			}
		}
		t.naming.Push(jsxAttrToken(a))
		val := t.foldExpr(*a.Value)
		attrs[i].Value = &val
		t.naming.Pop()
	}

	children := make([]js_ast.Expr, len(v.Children))
	for i, c := range v.Children {
		children[i] = t.foldExpr(c)
	}

	if hasTag {
		t.naming.Pop()
	}
	return js_ast.Expr{Loc: loc, Data: &js_ast.EJSXElement{TagOrNil: tag, Attributes: attrs, Children: children, IsFragment: v.IsFragment}}
}

func (t *Transformer) jsxTagToken(tagOrNil *js_ast.Expr) (string, bool) {
	if tagOrNil == nil {
		return "", false
	}
	switch v := tagOrNil.Data.(type) {
	case *js_ast.EIdentifier:
		return t.Symbols.Get(v.Ref).OriginalName, true
	case *js_ast.EDot:
		return v.Name, true
	}
	return "", false
}

func jsxAttrToken(a js_ast.JSXAttr) string {
	if a.Namespace != "" {
		return a.Namespace + "-" + a.Name
	}
	return a.Name
}

func isEventAttr(name string) bool {
	return strings.HasSuffix(name, "$")
}

func asSegmentBody(e js_ast.Expr) (js_ast.Expr, bool) {
	switch e.Data.(type) {
	case *js_ast.EArrow, *js_ast.EFunction:
		return e, true
	}
	return js_ast.Expr{}, false
}

// tryExtractCall recognises spec.md §4.5's shapes 1-3, all of which pivot on
// the callee being an EIdentifier resolved to a collected import record; the
// bare `$` marker of shape 1 is also recognised when "$" is not imported and
// resolves to no binding at all.
func (t *Transformer) tryExtractCall(loc logger.Loc, call *js_ast.ECall) (js_ast.Expr, bool) {
	id, ok := call.Target.Data.(*js_ast.EIdentifier)
	if !ok {
		return js_ast.Expr{}, false
	}
	rec, ok := t.Collector.Imports[id.Ref]
	if !ok {
		sym := t.Symbols.Get(id.Ref)
		if sym.Kind != ast.SymbolUnbound || sym.OriginalName != "$" {
			return js_ast.Expr{}, false
		}
		rec = ImportRecord{Specifier: "$"}
	}

	switch {
	case rec.Specifier == "$":
		if len(call.Args) == 0 {
			return js_ast.Expr{}, false
		}
		override := ""
		if len(call.Args) > 1 {
			if s, ok := call.Args[1].Data.(*js_ast.EString); ok {
				override = s.Value
			}
		}
		return t.extractSegment(call.Args[0], SegmentFunction, "", override, nil), true

	case rec.Specifier == "inlinedQrl":
		if len(call.Args) < 2 {
			return js_ast.Expr{}, false
		}
		name, ok := call.Args[1].Data.(*js_ast.EString)
		if !ok {
			return js_ast.Expr{}, false
		}
		pre := &preExtracted{symbolName: name.Value}
		if len(call.Args) > 2 {
			if arr, ok := call.Args[2].Data.(*js_ast.EArray); ok {
				for _, item := range arr.Items {
					if idr, ok := item.Data.(*js_ast.EIdentifier); ok {
						pre.captures = append(pre.captures, idr.Ref)
					}
				}
			}
		}
		return t.extractSegment(call.Args[0], SegmentFunction, "", "", pre), true

	case rec.Specifier != "qrl" && rec.Specifier != "useLexicalScope" && strings.HasSuffix(rec.Specifier, "$"):
		if len(call.Args) == 0 {
			return js_ast.Expr{}, false
		}
		base := strings.TrimSuffix(rec.Specifier, "$")
		qrlRef := t.Collector.EnsureImport(base+"Qrl", rec.Source)
		extracted := t.extractSegment(call.Args[0], SegmentFunction, "", "", nil)
		args := make([]js_ast.Expr, len(call.Args))
		args[0] = extracted
		for i := 1; i < len(call.Args); i++ {
			args[i] = t.foldExpr(call.Args[i])
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
			Target: js_ast.Expr{Loc: call.Target.Loc, Data: &js_ast.EIdentifier{Ref: qrlRef}},
			Args:   args,
		}}, true
	}
	return js_ast.Expr{}, false
}

func isFunctionOrArrow(e js_ast.Expr) bool {
	switch e.Data.(type) {
	case *js_ast.EArrow, *js_ast.EFunction:
		return true
	}
	return false
}

// bodyStmtsOf views a segment's body expression as a statement list for the
// scope walker: a function/arrow's own block, or — for the rarer shapes
// where the body is a plain expression (spec.md §8 S1's `$(x)` case) — that
// expression wrapped as a single statement.
func bodyStmtsOf(e js_ast.Expr) []js_ast.Stmt {
	switch v := e.Data.(type) {
	case *js_ast.EArrow:
		return v.Body
	case *js_ast.EFunction:
		return v.Fn.Body
	default:
		return []js_ast.Stmt{{Loc: e.Loc, Data: &js_ast.SExpr{Value: e}}}
	}
}

// preExtracted carries shape 2's (`inlinedQrl` re-entry) already-resolved
// naming and captures past extractSegment's usual naming/classification
// steps — see spec.md §4.5 rule 2: "no re-hashing".
type preExtracted struct {
	symbolName string
	captures   []ast.Ref
}

// extractSegment is the single funnel every one of the four §4.5 shapes
// drives through: name the segment, fold its body (so nested segments are
// extracted and hookStack reflects the right parent for them), classify its
// captures, route it to an entry, and replace the call site with a QRL (or
// inlinedQrl) construction.
func (t *Transformer) extractSegment(bodyExpr js_ast.Expr, kind SegmentKind, ctxName string, override string, pre *preExtracted) js_ast.Expr {
	loc := bodyExpr.Loc
	isFnOrArrow := isFunctionOrArrow(bodyExpr)
	origin := NormalizeSlashes(t.Source.PrettyPath)

	var named NamedSegment
	switch {
	case pre != nil:
		displayName, hash := SplitInlinedSymbolName(pre.symbolName)
		named = NamedSegment{DisplayName: displayName, Hash: hash, SymbolName: pre.symbolName, CanonicalFilename: strings.ToLower(pre.symbolName)}
	case override != "":
		stack := append(t.naming.snapshot(), override)
		named = t.namer.Name(stack, t.Options.PreserveFilenames)
	default:
		stack := t.naming.snapshot()
		if ctxName != "" {
			stack = append(stack, ctxName)
		}
		named = t.namer.Name(stack, t.Options.PreserveFilenames)
	}

	parent := ""
	if len(t.hookStack) > 0 {
		parent = t.hookStack[len(t.hookStack)-1]
	}

	// Fold the body — and so extract any nested segments — under this
	// segment's own name on hookStack, before classifying captures: a nested
	// $() call's capture array may reach into this segment's own enclosing
	// scope, and those references must count as this segment's captures too
	// (spec.md §4.9's parent_segment chain).
	t.hookStack = append(t.hookStack, named.SymbolName)
	bodyExpr = t.foldExpr(bodyExpr)
	t.hookStack = t.hookStack[:len(t.hookStack)-1]

	var result CaptureResult
	if pre != nil {
		result.ScopedIdents = pre.captures
		for ref := range FreeRefs(bodyStmtsOf(bodyExpr)) {
			if t.Collector.IsGlobal(ref) {
				result.LocalIdents = append(result.LocalIdents, ref)
			}
		}
	} else {
		result = ClassifySegment(bodyStmtsOf(bodyExpr), t.Collector, t.Symbols, t.Source, t.Log)
		result = EnforceCaptureLegality(result, isFnOrArrow, t.Source, loc, t.Log)
	}

	firstToken, hasFirst := t.naming.First()
	entryName, isEntry := ChooseEntry(t.Options.EntryStrategy.String(), EntryInput{
		HasCaptures:        len(result.ScopedIdents) > 0,
		Kind:               kind,
		Origin:             origin,
		FirstStackToken:    firstToken,
		HasFirstStackToken: hasFirst,
	})

	seg := &Segment{
		SymbolName:        named.SymbolName,
		SymbolRef:         t.newSym(named.SymbolName, ast.SymbolVar),
		DisplayName:       named.DisplayName,
		Hash:              named.Hash,
		CanonicalFilename: named.CanonicalFilename,
		Kind:              kind,
		Origin:            origin,
		// Extension is always "js": a segment module is emitted output, never
		// the origin file's own source language (spec.md §6 segment metadata's
		// extension is about the emitted artifact, not origin.ts/.tsx).
		Extension: "js",
		Expr:              bodyExpr,
		LocalIdents:       result.LocalIdents,
		ScopedIdents:      result.ScopedIdents,
		ParentSegment:     parent,
		Entry:             entryName,
		IsEntry:           isEntry,
		Inline:            t.Options.EntryStrategy == config.EntryInline,
		Span:              logger.Range{Loc: loc},
		Order:             len(t.segments),
		CtxName:           ctxName,
	}
	t.segments = append(t.segments, seg)

	// A local_ident that resolves to an un-exported root declaration must be
	// exported now so the segment module's re-import (module.go's BuildModule
	// step 2) resolves (spec.md §4.4 rule 5).
	for _, id := range result.LocalIdents {
		if _, isRoot := t.Collector.Roots[id]; isRoot {
			t.Collector.AddExport(id, "")
		}
	}

	if seg.Inline {
		return t.buildInlinedQrlCall(seg)
	}
	return t.buildQrlCall(seg)
}

func (t *Transformer) buildQrlCall(seg *Segment) js_ast.Expr {
	qrlRef := t.Collector.EnsureImport("qrl", t.Options.CoreModule)
	importPath := BuildImportPath(seg.CanonicalFilename, seg.Extension, t.Options.ExplicitExtensions)
	thunkBody := js_ast.Expr{Data: &js_ast.EImportCall{Arg: js_ast.Expr{Data: &js_ast.EString{Value: importPath}}}}
	importThunk := js_ast.Expr{Data: &js_ast.EArrow{
		Body:       []js_ast.Stmt{{Data: &js_ast.SReturn{ValueOrNil: &thunkBody}}},
		IsExprBody: true,
	}}
	args := []js_ast.Expr{importThunk, {Data: &js_ast.EString{Value: seg.SymbolName}}}
	if len(seg.ScopedIdents) > 0 {
		args = append(args, capturesArray(seg.ScopedIdents))
	}
	return js_ast.Expr{Loc: seg.Span.Loc, Data: &js_ast.ECall{Target: js_ast.Expr{Data: &js_ast.EIdentifier{Ref: qrlRef}}, Args: args}}
}

func (t *Transformer) buildInlinedQrlCall(seg *Segment) js_ast.Expr {
	inlinedQrlRef := t.Collector.EnsureImport("inlinedQrl", t.Options.CoreModule)
	body := seg.Expr
	if len(seg.ScopedIdents) > 0 {
		useLexicalScopeRef := t.Collector.EnsureImport("useLexicalScope", t.Options.CoreModule)
		body = prependPrologue(body, lexicalScopePrologue(seg.ScopedIdents, useLexicalScopeRef))
	}
	args := []js_ast.Expr{body, {Data: &js_ast.EString{Value: seg.SymbolName}}}
	if len(seg.ScopedIdents) > 0 {
		args = append(args, capturesArray(seg.ScopedIdents))
	}
	return js_ast.Expr{Loc: seg.Span.Loc, Data: &js_ast.ECall{Target: js_ast.Expr{Data: &js_ast.EIdentifier{Ref: inlinedQrlRef}}, Args: args}}
}

func capturesArray(refs []ast.Ref) js_ast.Expr {
	items := make([]js_ast.Expr, len(refs))
	for i, r := range refs {
		items[i] = js_ast.Expr{Data: &js_ast.EIdentifier{Ref: r}}
	}
	return js_ast.Expr{Data: &js_ast.EArray{Items: items, IsSingleLine: true}}
}
