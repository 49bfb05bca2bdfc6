// Package config holds the options mega-struct threaded through every stage
// of a transform, the same role esbuild's internal/config.Options plays for
// its bundler (minus every field that only a bundler/linker/resolver reads:
// target engines, external module lists, loader-by-extension maps, tree
// shaking, code splitting). Field names follow spec.md §6's
// transform_modules request shape, translated from snake_case to Go's
// exported CamelCase.
package config

// EntryStrategy selects how internal/segment/entry.go groups segments into
// entry files (spec.md §4.7).
type EntryStrategy uint8

const (
	EntryInline EntryStrategy = iota
	EntryHoist
	EntrySingle
	EntrySegment
	EntryHook
	EntryComponent
	EntrySmart
)

func (s EntryStrategy) String() string {
	switch s {
	case EntryInline:
		return "inline"
	case EntryHoist:
		return "hoist"
	case EntrySingle:
		return "single"
	case EntrySegment:
		return "segment"
	case EntryHook:
		return "hook"
	case EntryComponent:
		return "component"
	case EntrySmart:
		return "smart"
	default:
		return "unknown"
	}
}

func ParseEntryStrategy(s string) (EntryStrategy, bool) {
	switch s {
	case "inline":
		return EntryInline, true
	case "hoist":
		return EntryHoist, true
	case "single":
		return EntrySingle, true
	case "segment":
		return EntrySegment, true
	case "hook":
		return EntryHook, true
	case "component":
		return EntryComponent, true
	case "smart":
		return EntrySmart, true
	default:
		return 0, false
	}
}

// MinifyMode mirrors the CLI's "--minify simplify|minify|none" and the
// library's "minify: simplify|none" (spec.md §6): this core never emits
// minified output itself (that's the printer's concern, out of scope per
// spec.md §1), but the flag still changes whether segment.Simplify's
// constant-condition dead-branch elimination runs on the main module, after
// ReplaceConsts has folded isServer/isBrowser/isDev into literal booleans.
type MinifyMode uint8

const (
	MinifyNone MinifyMode = iota
	MinifySimplify
)

// Mode is dev|prod (spec.md §4.3): it switches symbol_name between the
// display-name-plus-hash form (dev) and the bare "s_"+hash form (prod).
type Mode uint8

const (
	ModeDev Mode = iota
	ModeProd
)

// InputModule is one member of TransformModulesOptions.Input.
type InputModule struct {
	Path    string
	DevPath string
	Code    string
}

// Options is the Go-native shape of spec.md §6's transform_modules request.
type Options struct {
	SrcDir             string
	RootDir            string
	Input              []InputModule
	SourceMaps         bool
	Minify             MinifyMode
	TranspileTS        bool
	TranspileJSX       bool
	PreserveFilenames  bool
	EntryStrategy      EntryStrategy
	ExplicitExtensions bool
	Mode               Mode
	Scope              string
	CoreModule         string
	StripExports       []string
	// StripCtxName and StripEventHandlers name segments to stub out by their
	// ctx_name (spec.md §6 segment metadata) rather than by export name:
	// StripCtxName lists specific ctx names, StripEventHandlers cuts every
	// event-kind segment regardless of name. RegCtxName is the exemption
	// list the other two are checked against first — a ctx_name listed here
	// is never stripped. See pkg/api's shouldStripSegment.
	StripCtxName       []string
	StripEventHandlers bool
	RegCtxName         []string
	// IsServer defaults to true per spec.md §6 ("is_server: optional bool
	// (default true)"); nil means "unset, use the default".
	IsServer *bool
}

// IsServerOrDefault reads IsServer, applying spec.md §6's documented default.
func (o Options) IsServerOrDefault() bool {
	if o.IsServer == nil {
		return true
	}
	return *o.IsServer
}

// WithDefaults fills in the handful of options spec.md §6 gives a documented
// default for, the same role esbuild's config.Options gets from its own
// ApplyOptionDefaults helper.
func (o Options) WithDefaults() Options {
	if o.CoreModule == "" {
		o.CoreModule = "@builder.io/qwik"
	}
	return o
}
