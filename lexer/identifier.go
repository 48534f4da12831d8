package lexer

import (
	"strings"

	"github.com/shreeve/rip-sub000/scanner"
	"github.com/shreeve/rip-sub000/token"
)

func isKeyword(id string) bool { return jsKeywords[id] || ripKeywords[id] }

func isGetSet(s string) bool { return s == "get" || s == "set" }

// identifierToken lexes names, keywords and object keys. Keywords are
// contextual: `own`, `from`, `as` and `default` only count in the statement
// forms that use them, and `in`/`of` after `for` loop over a collection.
func (l *Lexer) identifierToken() int {
	m, ok := scanner.MatchIdentifier(l.chunk)
	if !ok {
		return 0
	}
	id := m.Name
	if m.Bang && isKeyword(id) {
		// Keywords never take the await suffix; leave the `!` to literalToken.
		m = scanner.Ident{Name: id, Colon: -1, Len: len(id)}
	}
	length := len(id)
	if m.Bang {
		length++
	}

	switch {
	case id == "own" && l.tag() == token.For:
		l.emit(token.Own, id)
		return len(id)
	case id == "from" && l.tag() == token.Yield:
		l.emit(token.From, id)
		return len(id)
	}
	if id == "as" && l.seenImport {
		if l.value(false) == "*" {
			l.prev().Tag = token.ImportAll
		} else if kw := l.value(true); ripKeywords[kw] {
			p := l.prev()
			p.Tag, p.Text = token.Identifier, kw
		}
		if l.tag().Is(token.Default, token.ImportAll, token.Identifier) {
			l.emit(token.As, id)
			return len(id)
		}
	}
	if id == "as" && l.seenExport {
		if l.tag().Is(token.Identifier, token.Default) {
			l.emit(token.As, id)
			return len(id)
		}
		if kw := l.value(true); ripKeywords[kw] {
			p := l.prev()
			p.Tag, p.Text = token.Identifier, kw
			l.emit(token.As, id)
			return len(id)
		}
	}
	if id == "default" && l.seenExport && l.tag().Is(token.Export, token.As) {
		l.emit(token.Default, id)
		return len(id)
	}
	if id == "do" {
		if n := l.doSuper(); n > 0 {
			return n
		}
	}

	prev := l.prev()
	colon := m.Colon >= 0
	tag := token.Identifier
	if colon || prev != nil &&
		(prev.Tag.Is(token.Access, token.SoakAccess, token.Prototype, token.SoakPrototype) ||
			!prev.Spaced && prev.Tag == token.At) {
		tag = token.Property
	}

	var popped *token.Token
	var invert string
	n := len(l.tokens)
	switch {
	case tag == token.Identifier && isKeyword(id) && !(l.exportSpecifierList && ripKeywords[id]):
		tag = keywordTags[id]
		switch id {
		case "when":
			if lineBreak[l.tag()] {
				tag = token.LeadingWhen
			}
		case "for":
			l.seenFor = true
			l.seenForEnds = len(l.ends)
		case "import":
			l.seenImport = true
		case "export":
			l.seenExport = true
		case "in", "of", "instanceof":
			if id != "instanceof" && l.seenFor {
				tag = token.ForIn
				if id == "of" {
					tag = token.ForOf
				}
				l.seenFor = false
			} else if l.value(false) == "!" {
				popped = l.pop()
				invert = popped.Text
				if orig, ok := popped.Data["original"].(string); ok {
					invert = orig
				}
			}
		}
	case tag == token.Identifier && l.seenFor && id == "from" && isForFrom(prev):
		tag = token.ForFrom
		l.seenFor = false
	case tag == token.Property && prev != nil:
		switch {
		case prev.Spaced && callable[prev.Tag] && isGetSet(prev.Text) &&
			n > 1 && !l.tokens[n-2].Tag.Is(token.Access, token.SoakAccess, token.At):
			l.failAt(prev.Loc, "'%s' cannot be used as a keyword, or as a function call without parentheses", prev.Text)
		case prev.Tag == token.Access && n > 1 && l.tokens[n-2].Tag == token.Unary && l.tokens[n-2].Text == "new":
			l.tokens[n-2].Tag = token.NewTarget
		case prev.Tag == token.Access && n > 1 && l.tokens[n-2].Tag == token.Import:
			l.seenImport = false
			l.tokens[n-2].Tag = token.ImportMeta
		case n > 2:
			pp := l.tokens[n-2]
			if prev.Tag.Is(token.At, token.This) && pp.Spaced && isGetSet(pp.Text) &&
				!l.tokens[n-3].Tag.Is(token.Access, token.SoakAccess, token.At) {
				l.failAt(pp.Loc, "'%s' cannot be used as a keyword, or as a function call without parentheses", pp.Text)
			}
		}
	}

	if tag == token.Identifier && reserved[id] {
		l.fail(0, len(id), "reserved word '%s'", id)
	}

	text := id
	var alias string
	if tag != token.Property && !l.exportSpecifierList && !l.importSpecifierList {
		if mapped, ok := aliasMap[id]; ok {
			alias, text = id, mapped
		}
		switch text {
		case "!":
			tag = token.Unary
		case "==", "!=":
			tag = token.Compare
		case "true", "false":
			tag = token.Bool
		case "break", "continue", "debugger":
			tag = token.Statement
		case "&&":
			tag = token.LogicAnd
		case "||":
			tag = token.LogicOr
		}
	}

	t := l.token(tag, text, 0, length)
	if alias != "" {
		t.SetData("original", alias)
		t.Origin = &token.Token{Tag: tag, Text: alias, Loc: t.Loc}
	}
	if popped != nil {
		t.SetData("invert", invert)
		t.Loc.FirstLine = popped.Loc.FirstLine
		t.Loc.FirstColumn = popped.Loc.FirstColumn
		t.Loc.Range[0] = popped.Loc.Range[0]
	}
	if m.Bang {
		t.SetData("await", true)
	}
	if colon {
		l.token(token.Colon, ":", m.Colon, 1)
	}
	return m.Len
}

// doSuper lexes `do super` as a bare call of super.
func (l *Lexer) doSuper() int {
	if len(l.chunk) < 4 || !strings.ContainsRune(" \t", rune(l.chunk[2])) {
		return 0
	}
	rest := l.chunk[3:]
	ws := scanner.MatchWhitespace(rest)
	rest = rest[ws:]
	if !strings.HasPrefix(rest, "super") || strings.HasPrefix(rest[5:], "()") {
		return 0
	}
	if len(rest) > 5 && scanner.IsWordByte(rest[5]) {
		return 0
	}
	end := 3 + ws + len("super")
	l.token(token.Super, "super", 3+ws, len("super"))
	l.generated(token.CallStart, "(", end)
	l.generated(token.CallEnd, ")", end)
	return end
}

// isForFrom reports whether `from` after `for` is the loop keyword rather
// than a variable named from.
func isForFrom(prev *token.Token) bool {
	switch {
	case prev == nil:
		return true
	case prev.Tag == token.Identifier:
		return true
	case prev.Tag == token.For:
		return false
	case prev.Text == "{" || prev.Text == "[" || prev.Text == "," || prev.Text == ":":
		return false
	}
	return true
}
