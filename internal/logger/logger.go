// Package logger carries diagnostics through a single file's transform.
//
// It is a trimmed descendant of esbuild's internal/logger: the same
// Loc/Range/Msg shape and the same closures-based Log (so a caller can choose
// to buffer, stream, or discard messages), but re-keyed to the small fixed
// diagnostic taxonomy a segment-extraction pass needs (DiagnosticCode C01-C05)
// instead of esbuild's ~120 MsgID constants, and with terminal detection
// delegated to github.com/mattn/go-isatty instead of three per-OS build-tag
// files (esbuild predates that package's dominance for this; the rest of the
// retrieved example pack uses it uniformly).
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

// Loc is a 0-based byte offset from the start of the source file.
type Loc struct {
	Start int32
}

var LocBeforeFile = Loc{Start: -1}

// Range is a Loc plus a byte length.
type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 { return r.Loc.Start + r.Len }

// Path mirrors esbuild's logger.Path: a namespace-qualified file path.
type Path struct {
	Text      string
	Namespace string
}

// Source is the file text a diagnostic's Loc/Range is relative to.
type Source struct {
	Index          uint32
	KeyPath        Path
	PrettyPath     string
	Contents       string
	IdentifierName string
}

// LineColumn resolves a Loc to a 1-based line and 0-based byte column, along
// with the full text of that line, the same information esbuild's
// Source.RangeOfString / Source.LineColumnToByte machinery exposes.
func (s *Source) LineColumn(loc Loc) (line int, column int, lineText string) {
	if loc.Start < 0 || int(loc.Start) > len(s.Contents) {
		return 1, 0, ""
	}
	contents := s.Contents
	offset := int(loc.Start)
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if contents[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := len(contents)
	if idx := strings.IndexByte(contents[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	lineText = contents[lineStart:lineEnd]
	column = offset - lineStart
	return
}

// MsgKind is the severity of a diagnostic. spec.md §7 reserves Warning for
// future use; the taxonomy still models it so a future caller can raise one
// without a breaking change.
type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
	Note
)

func (kind MsgKind) String() string {
	switch kind {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "info"
	}
}

// DiagnosticCode is the fixed taxonomy from spec.md §7: C01-C05. The Rust
// source this was distilled from conflates two numbering schemes for the
// same "function/class reference" error across files; this
// enum is the single stable numbering, per spec.md's own instruction that
// its §7 table is authoritative.
type DiagnosticCode string

const (
	CodeNone                DiagnosticCode = ""
	CodeRootLevelReference  DiagnosticCode = "C01"
	CodeFunctionClassRef    DiagnosticCode = "C02"
	CodeCannotCapture       DiagnosticCode = "C03"
	CodeDynamicImportNonStr DiagnosticCode = "C04"
	CodeMissingQrlImpl      DiagnosticCode = "C05"
)

type MsgLocation struct {
	File       string
	Line       int
	Column     int
	Length     int
	LineText   string
	Suggestion string
}

type MsgData struct {
	Text     string
	Location *MsgLocation
}

type Msg struct {
	Kind  MsgKind
	Code  DiagnosticCode
	Data  MsgData
	Notes []MsgData
}

// Log is the same closures-shaped accumulator esbuild uses: callers that
// want streaming behavior (e.g. a language server) can supply their own
// AddMsg, while the common case uses NewLog's in-memory buffer.
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

// NewLog returns a Log that buffers messages in order and sorts them by
// source location (Done), the equivalent of esbuild's NewDeferLog.
func NewLog() Log {
	var mutex sync.Mutex
	var msgs []Msg
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sorted := make([]Msg, len(msgs))
			copy(sorted, msgs)
			sort.SliceStable(sorted, func(i, j int) bool {
				li, lj := sorted[i].Data.Location, sorted[j].Data.Location
				if li == nil || lj == nil {
					return false
				}
				if li.Line != lj.Line {
					return li.Line < lj.Line
				}
				return li.Column < lj.Column
			})
			return sorted
		},
	}
}

func (log Log) AddError(source *Source, loc Loc, code DiagnosticCode, text string) {
	log.AddMsg(msgFromSourceLoc(Error, code, source, loc, text))
}

func (log Log) AddErrorRange(source *Source, r Range, code DiagnosticCode, text string, hint string) {
	msg := msgFromSourceLoc(Error, code, source, r.Loc, text)
	if hint != "" {
		msg.Notes = append(msg.Notes, MsgData{Text: hint})
	}
	if msg.Data.Location != nil {
		msg.Data.Location.Length = int(r.Len)
	}
	log.AddMsg(msg)
}

func msgFromSourceLoc(kind MsgKind, code DiagnosticCode, source *Source, loc Loc, text string) Msg {
	msg := Msg{Kind: kind, Code: code, Data: MsgData{Text: text}}
	if source != nil {
		line, column, lineText := source.LineColumn(loc)
		msg.Data.Location = &MsgLocation{
			File:     source.PrettyPath,
			Line:     line,
			Column:   column,
			LineText: lineText,
		}
	}
	return msg
}

// Colors is esbuild's terminal color table, unmodified in spirit.
type Colors struct {
	Reset, Red, Green, Yellow, Bold, Dim, Underline string
}

var ColorsEnabled = Colors{
	Reset:     "\033[0m",
	Red:       "\033[31m",
	Green:     "\033[32m",
	Yellow:    "\033[33m",
	Bold:      "\033[1m",
	Dim:       "\033[2m",
	Underline: "\033[4m",
}

var ColorsDisabled = Colors{}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
}

// GetTerminalInfo replaces esbuild's three platform-specific
// logger_{darwin,windows,other}.go files with one isatty check, the pattern
// the rest of the retrieved pack uses uniformly for terminal detection.
func GetTerminalInfo(file *os.File) TerminalInfo {
	isTTY := isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	return TerminalInfo{
		IsTTY:           isTTY,
		UseColorEscapes: isTTY && !hasNoColorEnv(),
		Width:           80,
	}
}

func hasNoColorEnv() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// String renders a diagnostic the way esbuild renders a Msg: "file:line:col:
// kind: text", optionally followed by the offending source line and a caret.
func (msg Msg) String(terminalInfo TerminalInfo) string {
	colors := ColorsDisabled
	if terminalInfo.UseColorEscapes {
		colors = ColorsEnabled
	}
	kindColor := colors.Red
	if msg.Kind == Warning {
		kindColor = colors.Yellow
	} else if msg.Kind == Note {
		kindColor = colors.Dim
	}

	var b strings.Builder
	if loc := msg.Data.Location; loc != nil {
		fmt.Fprintf(&b, "%s%s:%d:%d:%s ", colors.Bold, loc.File, loc.Line, loc.Column, colors.Reset)
	}
	fmt.Fprintf(&b, "%s%s%s: ", kindColor, msg.Kind.String(), colors.Reset)
	if msg.Code != CodeNone {
		fmt.Fprintf(&b, "[%s] ", msg.Code)
	}
	b.WriteString(msg.Data.Text)
	if loc := msg.Data.Location; loc != nil && loc.LineText != "" {
		b.WriteByte('\n')
		b.WriteString(loc.LineText)
		b.WriteByte('\n')
		b.WriteString(caret(loc.Column, loc.LineText))
	}
	for _, note := range msg.Notes {
		fmt.Fprintf(&b, "\n  %s%s%s", colors.Dim, note.Text, colors.Reset)
	}
	return b.String()
}

func caret(column int, lineText string) string {
	width := 0
	for i, r := range lineText {
		if i >= column {
			break
		}
		if r == '\t' {
			width++
		} else {
			width += utf8.RuneLen(r)
		}
	}
	return strings.Repeat(" ", width) + "^"
}
