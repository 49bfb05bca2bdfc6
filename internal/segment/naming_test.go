package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/renamer"
)

func TestNamingContextPushPopFirst(t *testing.T) {
	var ctx NamingContext
	_, ok := ctx.First()
	require.False(t, ok)

	ctx.Push("App")
	ctx.Push("onClick")
	first, ok := ctx.First()
	require.True(t, ok)
	require.Equal(t, "App", first)
	require.Equal(t, []string{"App", "onClick"}, ctx.snapshot())

	ctx.Pop()
	require.Equal(t, []string{"App"}, ctx.snapshot())
}

func TestEscapeTokenStripsDollarAndReplacesOthers(t *testing.T) {
	require.Equal(t, "onClick", escapeToken("onClick$"))
	require.Equal(t, "a_b_c", escapeToken("a.b-c"))
	require.Equal(t, "_123", escapeToken(" 123"))
}

func TestDisplayNameFromStackEmptyIsS(t *testing.T) {
	require.Equal(t, "s_", displayNameFromStack(nil))
	require.Equal(t, "App_onClick", displayNameFromStack([]string{"App", "onClick"}))
}

func TestHashSegmentIsDeterministicAndScopeSensitive(t *testing.T) {
	a := hashSegment("", "src/app.tsx", "App_onClick")
	b := hashSegment("", "src/app.tsx", "App_onClick")
	require.Equal(t, a, b)

	c := hashSegment("other-scope", "src/app.tsx", "App_onClick")
	require.NotEqual(t, a, c)

	require.NotContains(t, a, "-")
	require.NotContains(t, a, "_")
}

func TestNamerProdVsDevSymbolName(t *testing.T) {
	prod := NewNamer("src/app.tsx", "", true, renamer.NewNameGenerator())
	named := prod.Name([]string{"App"}, false)
	require.Equal(t, "s_"+named.Hash, named.SymbolName)
	require.Equal(t, strings.ToLower(named.SymbolName), named.CanonicalFilename)

	dev := NewNamer("src/app.tsx", "", false, renamer.NewNameGenerator())
	namedDev := dev.Name([]string{"App"}, false)
	require.Equal(t, "App_"+namedDev.Hash, namedDev.SymbolName)
}

func TestNamerPreserveFilenamesForcesBareDisplayName(t *testing.T) {
	namer := NewNamer("src/app.tsx", "", false, renamer.NewNameGenerator())
	named := namer.Name([]string{"App", "onClick"}, true)
	require.Equal(t, "s_", named.DisplayName)
}

func TestNamerDeduplicatesCollidingDisplayNames(t *testing.T) {
	gen := renamer.NewNameGenerator()
	namer := NewNamer("src/app.tsx", "", false, gen)
	first := namer.Name([]string{"App"}, false)
	second := namer.Name([]string{"App"}, false)
	require.NotEqual(t, first.SymbolName, second.SymbolName)
	require.NotEqual(t, first.Hash, second.Hash)
}

func TestSplitInlinedSymbolNameSplitsOnLastUnderscore(t *testing.T) {
	display, hash := SplitInlinedSymbolName("App_onClick_aBcD1234")
	require.Equal(t, "App_onClick", display)
	require.Equal(t, "aBcD1234", hash)
}

func TestSplitInlinedSymbolNameNoUnderscore(t *testing.T) {
	display, hash := SplitInlinedSymbolName("nodash")
	require.Equal(t, "nodash", display)
	require.Empty(t, hash)
}
