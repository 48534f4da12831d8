package lexer

import (
	"strings"

	"github.com/shreeve/rip-sub000/rewriter"
	"github.com/shreeve/rip-sub000/scanner"
	"github.com/shreeve/rip-sub000/token"
)

// whitespaceToken marks the previous token as spaced, or as followed by a
// newline. Newlines themselves are consumed by lineToken.
func (l *Lexer) whitespaceToken() int {
	n := scanner.MatchWhitespace(l.chunk)
	newline := n == 0 && strings.HasPrefix(l.chunk, "\n")
	if n == 0 && !newline {
		return 0
	}
	if p := l.prev(); p != nil {
		if newline {
			p.NewLine = true
		} else {
			p.Spaced = true
		}
	}
	return n
}

// lineToken measures the indentation after a run of line breaks and emits
// TERMINATOR, INDENT or OUTDENT as the change in width demands. chunk is
// usually l.chunk; offset is where chunk starts relative to l.chunk.
func (l *Lexer) lineToken(chunk string, offset int) int {
	n := scanner.MatchMultiDent(chunk)
	if n == 0 {
		return 0
	}
	indent := chunk[:n]

	prev := l.prev()
	backslash := prev != nil && prev.Tag == token.Backslash
	if !(backslash || l.seenForEnds < len(l.ends)) || !l.seenFor {
		l.seenFor = false
	}
	if !(backslash && l.seenImport) && !l.importSpecifierList {
		l.seenImport = false
	}
	if !(backslash && l.seenExport) && !l.exportSpecifierList {
		l.seenExport = false
	}

	size := n - 1 - strings.LastIndexByte(indent, '\n')
	noNewlines := l.unfinished()

	literal := indent[n-size:]
	for i := 1; i < len(literal); i++ {
		if literal[i] != literal[0] {
			l.fail(offset+n, 1, "mixed indentation")
		}
	}
	common := min(len(literal), len(l.indentLiteral))
	if literal[:common] != l.indentLiteral[:common] {
		l.fail(offset+n, 1, "indentation mismatch")
	}

	switch {
	case size-l.continuation == l.indent:
		if noNewlines {
			l.suppressNewlines()
		} else {
			l.newlineToken(offset)
		}
	case size > l.indent:
		if noNewlines {
			if !backslash {
				l.continuation = size - l.indent
			}
			if l.continuation != 0 && prev != nil {
				prev.ContinuationLineIndent = l.indent + l.continuation
			}
			l.suppressNewlines()
			return n
		}
		if len(l.tokens) == 0 {
			l.baseIndent = size
			l.indent = size
			l.indentLiteral = literal
			return n
		}
		diff := size - l.indent + l.outdebt
		t := l.token(token.Indent, itoa(diff), offset+n-size, size)
		t.Indent = diff
		l.indents = append(l.indents, diff)
		l.ends = append(l.ends, pending{tag: token.Outdent})
		l.outdebt = 0
		l.continuation = 0
		l.indent = size
		l.indentLiteral = literal
	case size < l.baseIndent:
		l.fail(offset+n, 1, "missing indentation")
	default:
		endsContinuation := l.continuation > 0
		l.continuation = 0
		l.outdentToken(outdent{
			moveOut:          l.indent - size,
			noNewlines:       noNewlines,
			length:           n,
			offset:           offset,
			chunk:            chunk,
			indentSize:       size,
			endsContinuation: endsContinuation,
		})
	}
	return n
}

type outdent struct {
	moveOut    int
	noNewlines bool
	// length of the line-break run that caused the outdent, 0 when closing
	// an indented block implicitly.
	length           int
	offset           int
	chunk            string
	indentSize       int
	endsContinuation bool
}

// outdentToken pops indentation levels worth o.moveOut columns, emitting
// one OUTDENT per level. A closing bracket right after the line break
// swallows a partial level as outdebt.
func (l *Lexer) outdentToken(o outdent) {
	moveOut := o.moveOut
	decreased := l.indent - moveOut
	dented := false
	for moveOut > 0 {
		switch last := len(l.indents) - 1; {
		case last < 0 || l.indents[last] == 0:
			l.outdebt = 0
			moveOut = 0
		case l.outdebt != 0 && moveOut <= l.outdebt:
			l.outdebt -= moveOut
			moveOut = 0
		default:
			dent := l.indents[last] + l.outdebt
			l.indents = l.indents[:last]
			dented = true
			if o.length > 0 && o.length < len(o.chunk) && scanner.IsCloseBracket(o.chunk[o.length]) {
				decreased -= dent - moveOut
				moveOut = dent
			}
			l.outdebt = 0
			l.pair(token.Outdent)
			t := l.token(token.Outdent, itoa(moveOut), o.offset, o.length)
			t.Indent = moveOut
			t.IndentSize = o.indentSize + moveOut - dent
			t.HasIndentSize = true
			moveOut -= dent
		}
	}
	if dented {
		l.outdebt -= moveOut
	}
	l.suppressSemicolons()

	if l.tag() != token.Terminator && !o.noNewlines {
		t := l.token(token.Terminator, "\n", o.offset+o.length, 0)
		if o.endsContinuation {
			pre := l.indent
			t.EndsContinuation = &pre
		}
	}
	l.indent = decreased
	if decreased < len(l.indentLiteral) {
		l.indentLiteral = l.indentLiteral[:max(decreased, 0)]
	}
}

// newlineToken ends the current statement unless it already ended.
func (l *Lexer) newlineToken(offset int) {
	l.suppressSemicolons()
	if l.tag() != token.Terminator {
		l.token(token.Terminator, "\n", offset, 0)
	}
}

// suppressNewlines drops a line-continuation backslash, handing its
// comments to the token before it.
func (l *Lexer) suppressNewlines() {
	prev := l.prev()
	if prev == nil || prev.Tag != token.Backslash {
		return
	}
	if len(prev.Comments) > 0 && len(l.tokens) > 1 {
		token.MoveComments(prev, l.tokens[len(l.tokens)-2])
	}
	l.pop()
}

// suppressSemicolons removes trailing `;` terminators.
func (l *Lexer) suppressSemicolons() {
	for len(l.tokens) > 0 && l.prev().Tag == token.Terminator && l.prev().Text == ";" {
		semi := l.pop()
		if p := l.prev(); p != nil && (p.Tag == token.Assign || rewriter.Unfinished[p.Tag]) {
			l.failAt(semi.Loc, "unexpected ;")
		}
	}
}

// unfinished reports whether the line so far cannot end the statement.
func (l *Lexer) unfinished() bool {
	return scanner.LineContinues(l.chunk) || rewriter.Unfinished[l.tag()]
}

// closeIndentation closes every open indentation level at end of input.
func (l *Lexer) closeIndentation() {
	l.outdentToken(outdent{moveOut: l.indent, offset: len(l.chunk)})
}

// pair closes the innermost opener, which must be waiting for tag. An
// open INDENT is closed implicitly first, to allow
//
//	el.click((event) ->
//	  el.hide())
func (l *Lexer) pair(tag token.Tag) {
	var wanted token.Tag
	if n := len(l.ends); n > 0 {
		wanted = l.ends[n-1].tag
	}
	if tag == wanted {
		l.ends = l.ends[:len(l.ends)-1]
		return
	}
	if wanted != token.Outdent {
		l.fail(0, 1, "unmatched %s", tag)
	}
	last := 0
	if n := len(l.indents); n > 0 {
		last = l.indents[n-1]
	}
	l.outdentToken(outdent{moveOut: last, noNewlines: true})
	l.pair(tag)
}
