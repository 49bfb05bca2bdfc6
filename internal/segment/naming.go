package segment

import (
	"encoding/base64"
	"hash/fnv"
	"strings"
)

// NamingContext is the human-readable token stack from spec.md §4.2, pushed
// on entering a variable declarator, function/class declaration, JSX
// opening tag, JSX/event-prop attribute, object property key, or default
// export, and popped on exit. Its contents at segment-creation time are the
// basis of display_name (spec.md §4.3).
type NamingContext struct {
	stack []string
}

func (n *NamingContext) Push(token string) { n.stack = append(n.stack, token) }
func (n *NamingContext) Pop()              { n.stack = n.stack[:len(n.stack)-1] }

// First returns the outermost token ("first-stack-token" in spec.md §4.7),
// used by the per-component and smart entry policies.
func (n *NamingContext) First() (string, bool) {
	if len(n.stack) == 0 {
		return "", false
	}
	return n.stack[0], true
}

func (n *NamingContext) snapshot() []string {
	out := make([]string, len(n.stack))
	copy(out, n.stack)
	return out
}

// escapeToken replaces every character outside [A-Za-z0-9_] with '_' and
// strips '$' entirely, per spec.md §4.3's display_name recipe.
func escapeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '$':
			continue
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// displayNameFromStack builds the raw (pre-collision-suffix) display name
// from a naming-context snapshot. An empty stack yields "s_" (spec.md §4.3).
func displayNameFromStack(stack []string) string {
	if len(stack) == 0 {
		return "s_"
	}
	tokens := make([]string, len(stack))
	for i, t := range stack {
		tokens[i] = escapeToken(t)
	}
	return strings.Join(tokens, "_")
}

// hashSegment is spec.md §4.3's hash recipe: a 64-bit digest of (scope,
// relative path, display name), little-endian bytes, URL-safe base64
// without padding, with '-' and '_' replaced by '0'.
//
// The Rust original hashes with Rust's std DefaultHasher (SipHash), which has
// no portable Go equivalent and is not itself part of any public API
// contract — spec.md §4.3 explicitly permits substituting "any stable 64-bit
// hash ... deterministic across platforms", so this uses the standard
// library's hash/fnv (FNV-1a), the same substitution esbuild makes in
// internal/renamer for non-cryptographic identifier hashing.
func hashSegment(scope, relativePath, displayName string) string {
	h := fnv.New64a()
	h.Write([]byte(scope))
	h.Write([]byte(relativePath))
	h.Write([]byte(displayName))
	sum := h.Sum64()

	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (8 * i))
	}
	encoded := base64.RawURLEncoding.EncodeToString(buf[:])
	encoded = strings.ReplaceAll(encoded, "-", "0")
	encoded = strings.ReplaceAll(encoded, "_", "0")
	return encoded
}

// Namer (via Name) computes dev/prod symbol_name, hash, and canonical_filename for
// a segment, applying the collision-suffix renamer to display_name first so
// that two segments sharing a raw display name get distinct hashes as well
// as distinct printed names (spec.md §3: "symbol_name is unique within a
// file; collisions are resolved by appending _N").
type Namer struct {
	RelativePath string
	Scope        string
	Prod         bool
	names        nameGenerator
}

func NewNamer(relativePath, scope string, prod bool, names nameGenerator) *Namer {
	return &Namer{RelativePath: relativePath, Scope: scope, Prod: prod, names: names}
}

type NamedSegment struct {
	DisplayName       string
	Hash              string
	SymbolName        string
	CanonicalFilename string
}

func (n *Namer) Name(stack []string, preserveFilenames bool) NamedSegment {
	raw := displayNameFromStack(stack)
	if preserveFilenames {
		// spec.md §9 Open Question: preserve_filenames is treated as a hint
		// to suppress the display-name component of symbol_name.
		raw = "s_"
	}
	unique := n.names.Next(raw)
	hash := hashSegment(n.Scope, n.RelativePath, unique)

	var symbolName string
	if n.Prod {
		symbolName = "s_" + hash
	} else {
		symbolName = unique + "_" + hash
	}
	return NamedSegment{
		DisplayName:       unique,
		Hash:              hash,
		SymbolName:        symbolName,
		CanonicalFilename: strings.ToLower(symbolName),
	}
}

// SplitInlinedSymbolName implements spec.md S6 / shape 2: re-entry into an
// already-extracted `inlinedQrl(fn, "symbol_name", [...])` form parses
// symbol_name as "displayName_hash" by splitting on the LAST underscore, so
// the transformer can preserve it verbatim instead of re-hashing.
func SplitInlinedSymbolName(symbolName string) (displayName, hash string) {
	idx := strings.LastIndexByte(symbolName, '_')
	if idx < 0 {
		return symbolName, ""
	}
	return symbolName[:idx], symbolName[idx+1:]
}
