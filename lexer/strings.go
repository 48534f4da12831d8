package lexer

import (
	"strings"

	"github.com/shreeve/rip-sub000/scanner"
	"github.com/shreeve/rip-sub000/token"
)

// part is one piece of an interpolated literal: either a plain chunk or the
// tokens of one `#{...}` region.
type part struct {
	chunk  *token.Token
	offset int
	nested []*token.Token
}

// stringToken lexes single, double and triple quoted strings.
func (l *Lexer) stringToken() int {
	var quote string
	switch {
	case strings.HasPrefix(l.chunk, `"""`), strings.HasPrefix(l.chunk, `'''`):
		quote = l.chunk[:3]
	case strings.HasPrefix(l.chunk, `"`), strings.HasPrefix(l.chunk, `'`):
		quote = l.chunk[:1]
	default:
		return 0
	}

	if prev := l.prev(); prev != nil && l.value(false) == "from" && (l.seenImport || l.seenExport) {
		prev.Tag = token.From
	}

	var run scanner.Run
	switch quote {
	case `'`:
		run = scanner.SingleString
	case `"`:
		run = scanner.DoubleString
	case `'''`:
		run = scanner.SingleHeredoc
	default:
		run = scanner.DoubleHeredoc
	}
	parts, end := l.matchWithInterpolations(run, quote, false)

	m := merge{quote: quote, end: end}
	if len(quote) == 3 {
		var chunks []string
		for _, p := range parts {
			if p.chunk != nil {
				chunks = append(chunks, p.chunk.Text)
			}
		}
		m.indent, m.heredoc = scanner.HeredocIndent(strings.Join(chunks, "#{}"))
	}
	l.mergeInterpolationTokens(parts, m)
	return end
}

// regexToken lexes /.../ regexes and ///.../// heregexes. A slash that can
// only be division is left for literalToken.
func (l *Lexer) regexToken() int {
	if off, ok := scanner.IllegalRegexStart(l.chunk); ok {
		l.fail(off, 1, "regular expressions cannot begin with *")
	}

	var (
		parts    []part
		body     string
		index    int
		heregex  bool
		comments []*token.Comment
	)
	switch {
	case strings.HasPrefix(l.chunk, "///"):
		heregex = true
		parts, index = l.matchWithInterpolations(scanner.Heregex, "///", true)
		for _, c := range scanner.HeregexComments(l.chunk[:index]) {
			comments = append(comments, &token.Comment{
				Content:    c.Text[1:],
				IndentSize: -1,
				Heregex:    true,
				Loc:        *l.src.span(l.pos+c.Offset, len(c.Text)),
			})
		}
	case strings.HasPrefix(l.chunk, "/"):
		n, b, closed := scanner.MatchRegex(l.chunk)
		if n == 0 {
			return 0
		}
		l.validateEscapes(b, true, 1)
		if prev := l.prev(); prev != nil {
			if prev.Spaced && callable[prev.Tag] {
				if !closed || scanner.PossiblyDivision(l.chunk[:n]) {
					return 0
				}
			} else if notRegex[prev.Tag] {
				return 0
			}
		}
		if !closed {
			l.fail(0, 1, "missing / (unclosed regex)")
		}
		body, index = b, n
	default:
		return 0
	}

	flags := l.chunk[index : index+scanner.MatchRegexFlags(l.chunk[index:])]
	end := index + len(flags)
	origin := l.makeToken(token.Regex, l.chunk[:end], 0, end)
	switch {
	case !scanner.ValidRegexFlags(flags):
		l.fail(index, len(flags), "invalid regular expression flags %s", flags)
	case !heregex || len(parts) == 1:
		delimiter := "/"
		if heregex {
			delimiter = "///"
			body = parts[0].chunk.Text
		}
		l.validateCodePoints(body, len(delimiter))
		t := l.token(token.Regex, l.chunk[:end], 0, end)
		t.SetData("delimiter", delimiter)
		if flags != "" {
			t.SetData("flags", flags)
		}
	default:
		start := l.generated(token.RegexStart, "(", 0)
		start.Origin = origin
		l.generated(token.Identifier, "RegExp", 0)
		l.generated(token.CallStart, "(", 0)
		l.mergeInterpolationTokens(parts, merge{quote: "///", double: true, heregex: true, flags: flags, end: end - len(flags)})
		if flags != "" {
			l.generated(token.Comma, ",", index-1)
			l.token(token.String, `"`+flags+`"`, index, len(flags))
		}
		l.generated(token.RParen, ")", end)
		l.generated(token.RegexEnd, ")", end)
	}

	if len(comments) > 0 {
		l.prev().SetData("heregexComments", comments)
	}
	return end
}

// matchWithInterpolations scans a delimited literal whose body is measured
// by run, lexing each `#{...}` region with a nested Lexer that stops at the
// matching brace. It returns the parts and the length of the literal,
// closing delimiter included.
func (l *Lexer) matchWithInterpolations(run scanner.Run, delimiter string, regex bool) ([]part, int) {
	var parts []part
	offset := len(delimiter)
	str := l.chunk[offset:]
	for {
		n := run(str)
		l.validateEscapes(str[:n], regex, offset)
		parts = append(parts, part{
			chunk:  l.makeToken(token.NeoString, str[:n], offset, n),
			offset: offset,
		})
		str = str[n:]
		offset += n

		if !strings.HasPrefix(str, "#{") {
			break
		}
		if l.depth+1 > l.opts.MaxInterpolationDepth {
			l.fail(offset, 2, "interpolations nested deeper than %d levels", l.opts.MaxInterpolationDepth)
		}
		opts := l.opts
		opts.UntilBalanced = true
		inner := newLexer(l.src, l.code, l.pos+offset+1, l.depth+1, opts)
		stop := inner.run()
		index := stop - (l.pos + offset)
		nested := inner.tokens

		opening, closing := nested[0], nested[len(nested)-1]
		opening.Tag, opening.Text = token.InterpolationStart, "#{"
		opening.Loc = l.src.span(l.pos+offset, 2)
		closing.Tag = token.InterpolationEnd
		closing.Origin = &token.Token{Tag: token.InterpolationEnd, Text: "end of interpolation", Loc: closing.Loc}

		if len(nested) > 1 && nested[1].Tag == token.Terminator {
			nested = append(nested[:1], nested[2:]...)
		}
		if k := len(nested); k >= 3 && nested[k-3].Tag == token.Indent && nested[k-2].Tag == token.Outdent {
			nested = append(nested[:k-3], nested[k-1:]...)
		}
		parts = append(parts, part{nested: nested, offset: offset})

		str = str[index:]
		offset += index
	}

	if !strings.HasPrefix(str, delimiter) {
		if regex {
			l.fail(offset, 0, "missing %s", delimiter)
		}
		l.fail(offset, 0, "missing closing quote %s", delimiter)
	}
	return parts, offset + len(delimiter)
}

type merge struct {
	quote   string
	indent  string
	heredoc bool
	double  bool
	heregex bool
	flags   string
	// end is the chunk offset just past the closing delimiter.
	end int
}

// mergeInterpolationTokens emits the parts of a literal. A literal without
// interpolations becomes one STRING token covering its quotes; otherwise
// the parts are wrapped in STRING_START/STRING_END, empty chunks dropped.
func (l *Lexer) mergeInterpolationTokens(parts []part, m merge) {
	if len(parts) == 1 && !m.heregex {
		p := parts[0]
		l.validateCodePoints(p.chunk.Text, p.offset)
		t := p.chunk
		t.Tag = token.String
		t.Text = l.chunk[:m.end]
		t.Loc = l.src.span(l.pos, m.end)
		l.annotate(t, m, true, true)
		l.tokens = append(l.tokens, t)
		return
	}

	start := l.token(token.StringStart, m.quote, 0, len(m.quote))
	start.SetData("quote", m.quote)
	start.Origin = &token.Token{Tag: token.String, Text: l.chunk[:m.end], Loc: l.src.span(l.pos, m.end)}

	last := len(parts) - 1
	for i, p := range parts {
		if p.nested != nil {
			nested := p.nested
			if len(nested) == 2 && (len(nested[0].Comments) > 0 || len(nested[1].Comments) > 0) {
				placeholder := &token.Token{Tag: token.JS, Generated: true, Loc: nested[0].Loc}
				for _, t := range nested {
					placeholder.Comments = append(placeholder.Comments, t.Comments...)
					t.Comments = nil
				}
				nested = []*token.Token{nested[0], placeholder, nested[1]}
			}
			l.tokens = append(l.tokens, nested...)
			continue
		}
		l.validateCodePoints(p.chunk.Text, p.offset)
		if p.chunk.Text == "" {
			continue
		}
		l.annotate(p.chunk, m, i == 0, i == last)
		l.tokens = append(l.tokens, p.chunk)
	}

	end := l.token(token.StringEnd, m.quote, m.end-len(m.quote), len(m.quote))
	end.SetData("quote", m.quote)
}

func (l *Lexer) annotate(t *token.Token, m merge, first, last bool) {
	if first {
		t.SetData("initialChunk", true)
	}
	if last {
		t.SetData("finalChunk", true)
	}
	t.SetData("quote", m.quote)
	if m.heredoc {
		t.SetData("indent", m.indent)
	}
	if m.double {
		t.SetData("double", true)
	}
	if m.heregex {
		t.SetData("heregex", map[string]any{"flags": m.flags})
	}
}

// validateEscapes rejects escape sequences the target cannot express.
// offset is where str starts in the chunk.
func (l *Lexer) validateEscapes(str string, regex bool, offset int) {
	esc, ok := scanner.InvalidEscape(str, regex)
	if !ok {
		return
	}
	msg := "invalid escape sequence"
	if esc.Octal {
		msg = "octal escape sequences are not allowed"
	}
	l.fail(offset+esc.Offset, len(esc.Seq)+1, "%s \\%s", msg, esc.Seq)
}

// validateCodePoints rejects `\u{...}` escapes beyond the Unicode range.
func (l *Lexer) validateCodePoints(str string, offset int) {
	for _, cp := range scanner.CodePointEscapes(str) {
		if cp.Value > 0x10FFFF {
			l.fail(offset+cp.Offset, cp.Len, "unicode code point escapes greater than \\u{10ffff} are not allowed")
		}
	}
}
