package segment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSlashesConvertsBackslashes(t *testing.T) {
	require.Equal(t, "src/foo/bar.tsx", NormalizeSlashes(`src\foo\bar.tsx`))
}

func TestAnchorRelativeAddsDotSlashOnlyWhenUnanchored(t *testing.T) {
	require.Equal(t, "./foo", AnchorRelative("foo"))
	require.Equal(t, "./foo", AnchorRelative("./foo"))
	require.Equal(t, "../foo", AnchorRelative("../foo"))
	require.Equal(t, "/abs/foo", AnchorRelative("/abs/foo"))
}

func TestBuildImportPathOmitsExtensionByDefault(t *testing.T) {
	require.Equal(t, "./s_abc123", BuildImportPath("s_abc123", "js", false))
}

func TestBuildImportPathAppendsExtensionWhenRequested(t *testing.T) {
	require.Equal(t, "./s_abc123.js", BuildImportPath("s_abc123", "js", true))
}

func TestRelativeToSameDirectory(t *testing.T) {
	require.Equal(t, "bar.js", RelativeTo("src", "src/bar.js"))
}

func TestRelativeToSibling(t *testing.T) {
	require.Equal(t, "../other/bar.js", RelativeTo("src/foo", "src/other/bar.js"))
}

func TestRelativeToNestedChild(t *testing.T) {
	require.Equal(t, "foo/bar.js", RelativeTo("src", "src/foo/bar.js"))
}

func TestRelativeToFromRoot(t *testing.T) {
	require.Equal(t, "src/foo/bar.js", RelativeTo(".", "src/foo/bar.js"))
}

func TestFixRelativeImportRoundTripsThroughNewDirectory(t *testing.T) {
	// Module moved from src/a to src/a/b; the original "./helper" import
	// (src/a/helper.js) must still resolve to the same target.
	fixed := FixRelativeImport("src/a", "src/a/b", "./helper")
	require.Equal(t, "../helper", fixed)

	resolvedOld := pathJoinClean("src/a", "./helper")
	resolvedNew := pathJoinClean("src/a/b", fixed)
	require.Equal(t, resolvedOld, resolvedNew)
}

func TestFixRelativeImportLeavesNonRelativePathsAlone(t *testing.T) {
	require.Equal(t, "@builder.io/qwik", FixRelativeImport("src/a", "src/a/b", "@builder.io/qwik"))
}

func TestFixRelativeImportRejectsAbsoluteOldDir(t *testing.T) {
	require.Equal(t, "./helper", FixRelativeImport("/abs/a", "src/a/b", "./helper"))
}

func pathJoinClean(dir, p string) string {
	return RelativeTo(".", dir+"/"+p)
}
