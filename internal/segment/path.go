package segment

import (
	"path"
	"strings"
)

// NormalizeSlashes converts OS-style separators to forward slashes, the wire
// format every import path in this package uses (spec.md §4.5: "rewritten to
// use forward slashes").
func NormalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// AnchorRelative adds a leading "./" to p unless it is already anchored
// relative ("./", "../") or absolute.
func AnchorRelative(p string) string {
	if strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
		return p
	}
	return "./" + p
}

// BuildImportPath constructs a segment's QRL import path (spec.md §4.5):
// relative to originDir, forward-slashed, anchored, with ".ext" appended
// only when explicitExtensions is set.
func BuildImportPath(canonicalFilename, ext string, explicitExtensions bool) string {
	name := canonicalFilename
	if explicitExtensions {
		name += "." + ext
	}
	return AnchorRelative(NormalizeSlashes(name))
}

// RelativeTo computes target's path relative to fromDir, both in slash form,
// using string-only path.Join/Clean semantics — this package never touches
// disk (spec.md §5: "no shared mutable state between files", and nothing in
// §4 has the transformer stat a path).
func RelativeTo(fromDir, target string) string {
	fromDir = path.Clean(NormalizeSlashes(fromDir))
	target = path.Clean(NormalizeSlashes(target))
	if fromDir == "." {
		return target
	}

	fromParts := strings.Split(fromDir, "/")
	targetParts := strings.Split(target, "/")

	common := 0
	for common < len(fromParts) && common < len(targetParts)-1 && fromParts[common] == targetParts[common] {
		common++
	}
	ups := len(fromParts) - common
	rel := make([]string, 0, ups+len(targetParts)-common)
	for i := 0; i < ups; i++ {
		rel = append(rel, "..")
	}
	rel = append(rel, targetParts[common:]...)
	if len(rel) == 0 {
		return "."
	}
	return strings.Join(rel, "/")
}

// FixRelativeImport re-resolves a relative import path written inside a
// module at oldDir so that, once the module moves to newDir, the path still
// points at the same file (spec.md §4.8's dynamic-import fixer; also the
// operation spec.md §8 property 3 tests: resolving the fixed path against
// newDir must reach the same target as resolving p against oldDir).
//
// An absolute oldDir (leading "/") is rejected per property 3's "absolute O
// is rejected" clause: p is returned unchanged since the round-trip law is
// defined only for relative origins.
func FixRelativeImport(oldDir, newDir, p string) string {
	if strings.HasPrefix(oldDir, "/") {
		return p
	}
	if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") {
		return p
	}
	target := path.Join(NormalizeSlashes(oldDir), p)
	rel := RelativeTo(newDir, target)
	return AnchorRelative(NormalizeSlashes(rel))
}
