package lexer

import (
	"strings"

	"github.com/shreeve/rip-sub000/scanner"
	"github.com/shreeve/rip-sub000/token"
)

// commentLine is one comment found by commentToken, before it is located.
type commentLine struct {
	content             string
	length              int
	leading             string
	precededByBlankLine bool
}

// commentToken lexes a ### block comment or a run of # line comments and
// attaches them to the previous token. With no previous token they ride on
// a generated empty JS token.
func (l *Lexer) commentToken() int {
	m, ok := scanner.MatchComment(l.chunk)
	if !ok {
		if m.Unterminated {
			l.fail(len(m.Leading), 3, "missing ###")
		}
		return 0
	}
	full := l.chunk[:m.Len]
	hash := strings.IndexByte(full, '#')
	leadingNewline := strings.Contains(full[:hash], "\n")

	var lines []commentLine
	if m.Here {
		if i := strings.Index(m.Content, "*/"); i >= 0 {
			l.fail(len(m.Leading)+3+i, 2, "block comments cannot contain */")
		}
		lines = []commentLine{{
			content: m.Content,
			length:  len(m.Content) + 6,
			leading: m.Leading,
		}}
	} else {
		lines = splitLineComments(m.Lines)
	}

	offset := 0
	comments := make([]*token.Comment, 0, len(lines))
	for i, c := range lines {
		nonInitial := i != 0
		if nonInitial {
			offset++
		}
		offset += len(c.leading)
		size := -1
		last := strings.LastIndexByte(c.leading, '\n')
		if last >= 0 || (nonInitial && !m.Here) {
			size = len(c.leading) - 1 - last
		}
		comments = append(comments, &token.Comment{
			Content:             c.content,
			Here:                m.Here,
			NewLine:             leadingNewline || nonInitial,
			IndentSize:          size,
			Indented:            size >= 0 && size > l.indent,
			Outdented:           size >= 0 && size < l.indent,
			PrecededByBlankLine: c.precededByBlankLine,
			Loc:                 *l.src.span(l.pos+offset, c.length),
		})
		offset += c.length
	}

	prev := l.prev()
	if prev != nil {
		prev.Comments = append(prev.Comments, comments...)
		return m.Len
	}
	comments[0].NewLine = true
	l.lineToken(l.chunk[m.Len:], m.Len)
	placeholder := l.generated(token.JS, "", m.Len)
	placeholder.Comments = comments
	l.newlineToken(m.Len)
	return m.Len
}

// splitLineComments breaks a run of line comments into one entry per
// comment. Blank lines between comments are folded into the leading
// whitespace of the next one.
func splitLineComments(run string) []commentLine {
	trimmed := strings.TrimLeft(run, "\n")
	newlines := run[:len(run)-len(trimmed)]

	var out []commentLine
	blank := ""
	seen := false
	for _, line := range strings.Split(trimmed, "\n") {
		if !strings.Contains(line, "#") {
			blank += "\n" + line
			continue
		}
		ws := len(line) - len(strings.TrimLeft(line, " |\t"))
		if ws >= len(line) || line[ws] != '#' {
			ws = strings.IndexByte(line, '#')
		}
		content := line[ws+1:]
		leading := blank + line[:ws]
		if !seen {
			leading = newlines + leading
		}
		out = append(out, commentLine{
			content:             content,
			length:              1 + len(content),
			leading:             leading,
			precededByBlankLine: blank != "",
		})
		seen = true
		blank = ""
	}
	return out
}
