package js_lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/js_lexer"
	"github.com/nota-dev/qrlc/internal/logger"
)

func lex(t *testing.T, contents string) *js_lexer.Lexer {
	t.Helper()
	source := &logger.Source{Contents: contents}
	lexer := js_lexer.NewLexer(logger.NewLog(), source)
	return &lexer
}

func TestIdentifiersAndKeywords(t *testing.T) {
	lexer := lex(t, "component$ onClick$")
	require.Equal(t, js_lexer.TIdentifier, lexer.Token)
	require.Equal(t, "component$", lexer.Identifier)
	lexer.Next()
	require.Equal(t, js_lexer.TIdentifier, lexer.Token)
	require.Equal(t, "onClick$", lexer.Identifier)
}

func TestStringEscapes(t *testing.T) {
	lexer := lex(t, `"a\nb"`)
	require.Equal(t, js_lexer.TStringLiteral, lexer.Token)
	require.Equal(t, "a\nb", lexer.StringLiteral)
}

func TestNumberLiteral(t *testing.T) {
	lexer := lex(t, "1_000.5")
	require.Equal(t, js_lexer.TNumericLiteral, lexer.Token)
	require.Equal(t, 1000.5, lexer.Number)
}

func TestArrowPunctuation(t *testing.T) {
	lexer := lex(t, "() => {}")
	require.Equal(t, js_lexer.TOpenParen, lexer.Token)
	lexer.Next()
	require.Equal(t, js_lexer.TCloseParen, lexer.Token)
	lexer.Next()
	require.Equal(t, js_lexer.TArrow, lexer.Token)
}

func TestOptionalChainAndNullish(t *testing.T) {
	lexer := lex(t, "a?.b ?? c")
	lexer.Next()
	require.Equal(t, js_lexer.TQuestionDot, lexer.Token)
	lexer.Next()
	lexer.Next()
	require.Equal(t, js_lexer.TQuestionQuestion, lexer.Token)
}

func TestIsIdentifier(t *testing.T) {
	require.True(t, js_lexer.IsIdentifier("component$"))
	require.True(t, js_lexer.IsIdentifier("_x"))
	require.False(t, js_lexer.IsIdentifier("1x"))
	require.False(t, js_lexer.IsIdentifier(""))
}
