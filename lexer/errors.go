package lexer

import (
	"fmt"
	"strings"

	"github.com/shreeve/rip-sub000/token"
)

// Error is the single error kind raised while tokenizing. Lexing stops at
// the first one.
type Error struct {
	Filename string
	Message  string
	Loc      token.Location
}

func (e *Error) Error() string {
	pos := fmt.Sprintf("%d:%d", e.Loc.FirstLine+1, e.Loc.FirstColumn+1)
	if e.Filename != "" {
		pos = e.Filename + ":" + pos
	}
	return pos + ": " + e.Message
}

// lexPanic carries an *Error from deep inside the scanners up to Tokenize.
type lexPanic struct {
	err *Error
}

// FormatError renders err with the offending source line and a caret run
// under the reported span. One line of context is shown on each side.
func FormatError(err *Error, src string, color bool) string {
	lines := strings.Split(src, "\n")
	line := err.Loc.FirstLine
	if line < 0 {
		line = 0
	}
	if line >= len(lines) {
		line = len(lines) - 1
	}
	text := strings.TrimRight(lines[line], "\r")
	col := err.Loc.FirstColumn
	if col > len(text) {
		col = len(text)
	}
	width := 1
	if err.Loc.LastLine == err.Loc.FirstLine && err.Loc.LastColumn >= err.Loc.FirstColumn {
		width = err.Loc.LastColumn - err.Loc.FirstColumn + 1
	}
	if col+width > len(text) {
		width = max(len(text)-col, 1)
	}

	red, bold, reset := "\033[31m", "\033[1m", "\033[0m"
	if !color {
		red, bold, reset = "", "", ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s: %serror:%s %s\n", bold, positionOf(err), red, reset, err.Message)
	if line > 0 {
		fmt.Fprintf(&b, "%4d | %s\n", line, strings.TrimRight(lines[line-1], "\r"))
	}
	fmt.Fprintf(&b, "%4d | %s\n", line+1, text)
	pad := make([]byte, col)
	for i := range pad {
		// Keep tabs so the caret lines up with the source line.
		if text[i] == '\t' {
			pad[i] = '\t'
		} else {
			pad[i] = ' '
		}
	}
	fmt.Fprintf(&b, "     | %s%s%s%s\n", pad, red, strings.Repeat("^", width), reset)
	if line+1 < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+2, strings.TrimRight(lines[line+1], "\r"))
	}
	return b.String()
}

func positionOf(err *Error) string {
	name := err.Filename
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", name, err.Loc.FirstLine+1, err.Loc.FirstColumn+1)
}
