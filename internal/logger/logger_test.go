package logger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nota-dev/qrlc/internal/logger"
)

func TestSourceLineColumn(t *testing.T) {
	source := &logger.Source{Contents: "const a = 1;\nconst b = $(() => a);\n"}

	line, column, lineText := source.LineColumn(logger.Loc{Start: 0})
	require.Equal(t, 1, line)
	require.Equal(t, 0, column)
	require.Equal(t, "const a = 1;", lineText)

	secondLineStart := int32(len("const a = 1;\n"))
	line, column, lineText = source.LineColumn(logger.Loc{Start: secondLineStart + 10})
	require.Equal(t, 2, line)
	require.Equal(t, 10, column)
	require.Equal(t, "const b = $(() => a);", lineText)
}

func TestLogAccumulatesAndSortsByLocation(t *testing.T) {
	log := logger.NewLog()
	require.False(t, log.HasErrors())

	log.AddMsg(logger.Msg{Kind: logger.Error, Code: logger.CodeCannotCapture, Data: logger.MsgData{
		Text:     "second",
		Location: &logger.MsgLocation{Line: 5, Column: 0},
	}})
	log.AddMsg(logger.Msg{Kind: logger.Warning, Data: logger.MsgData{
		Text:     "first",
		Location: &logger.MsgLocation{Line: 1, Column: 0},
	}})

	require.True(t, log.HasErrors())
	msgs := log.Done()
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Data.Text)
	require.Equal(t, "second", msgs[1].Data.Text)
}

func TestMsgStringIncludesCodeAndCaret(t *testing.T) {
	msg := logger.Msg{
		Kind: logger.Error,
		Code: logger.CodeRootLevelReference,
		Data: logger.MsgData{
			Text: "identifier declared at the root must be exported to be used inside a `$` scope",
			Location: &logger.MsgLocation{
				File:     "src/app.tsx",
				Line:     3,
				Column:   14,
				LineText: "  return $(() => value);",
			},
		},
	}

	rendered := msg.String(logger.TerminalInfo{})
	require.Contains(t, rendered, "src/app.tsx:3:14")
	require.Contains(t, rendered, "[C01]")
	require.Contains(t, rendered, "^")
}
