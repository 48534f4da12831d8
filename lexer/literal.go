package lexer

import (
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shreeve/rip-sub000/rewriter"
	"github.com/shreeve/rip-sub000/scanner"
	"github.com/shreeve/rip-sub000/token"
)

// literalToken lexes operators and single punctuation characters. Brackets
// are classified by what precedes them and paired on the ends stack.
func (l *Lexer) literalToken() int {
	var value string
	if n := scanner.MatchOperator(l.chunk); n > 0 {
		value = l.chunk[:n]
		if value == "->" || value == "=>" {
			l.tagParameters()
		}
	} else {
		_, size := utf8.DecodeRuneInString(l.chunk)
		value = l.chunk[:size]
	}
	prev := l.prev()

	if prev != nil && (value == "=" || compound[value]) {
		folded := false
		if value == "=" && (prev.Text == "||" || prev.Text == "&&") && !prev.Spaced {
			prev.Tag = token.CompoundAssign
			prev.Text += "="
			if orig, ok := prev.Data["original"].(string); ok {
				prev.Data["original"] = orig + "="
			}
			extend(prev.Loc, l.src.span(l.pos, 1))
			prev = nil
			if n := len(l.tokens); n > 1 {
				prev = l.tokens[n-2]
			}
			folded = true
		}
		if prev != nil && prev.Tag != token.Property {
			origin := prev
			if prev.Origin != nil {
				origin = prev.Origin
			}
			if msg := isUnassignable(prev.Text, origin.Text); msg != "" {
				l.failAt(origin.Loc, "%s", msg)
			}
		}
		if folded {
			return len(value)
		}
	}

	if value == "(" && prev != nil && prev.Tag == token.Import {
		prev.Tag = token.DynamicImport
	}

	switch {
	case value == "{" && l.seenImport:
		l.importSpecifierList = true
	case l.importSpecifierList && value == "}":
		l.importSpecifierList = false
	case value == "{" && prev != nil && prev.Tag == token.Export:
		l.exportSpecifierList = true
	case l.exportSpecifierList && value == "}":
		l.exportSpecifierList = false
	}

	var tag token.Tag
	switch {
	case value == ";":
		if prev != nil && (prev.Tag == token.Assign || rewriter.Unfinished[prev.Tag]) {
			l.fail(0, 1, "unexpected ;")
		}
		l.seenFor, l.seenImport, l.seenExport = false, false, false
		tag = token.Terminator
	case value == "*" && prev != nil && prev.Tag == token.Export:
		tag = token.ExportAll
	case mathOps[value]:
		tag = token.Math
	case compareOps[value]:
		tag = token.Compare
	case compound[value]:
		tag = token.CompoundAssign
	case unaryMath[value]:
		tag = token.UnaryMath
	case shiftOps[value]:
		tag = token.Shift
	case value == "?" && prev != nil && prev.Spaced:
		tag = token.BinExist
	default:
		t, ok := punctuation[value]
		if !ok {
			l.fail(0, len(value), "unexpected %s", value)
		}
		tag = t
		if prev == nil {
			break
		}
		if value == "(" && !prev.Spaced && callable[prev.Tag] {
			if prev.Tag == token.Exist {
				prev.Tag = token.FuncExist
			}
			tag = token.CallStart
		} else if value == "[" && (indexable[prev.Tag] && !prev.Spaced || prev.Tag == token.Prototype) {
			tag = token.IndexStart
			if prev.Tag == token.Exist {
				prev.Tag = token.IndexSoak
			}
		}
	}

	t := l.makeToken(tag, value, 0, len(value))
	switch value {
	case "(", "{", "[":
		l.ends = append(l.ends, pending{tag: closerTag[value], origin: t})
	case ")", "}", "]":
		l.pair(punctuation[value])
	}
	l.tokens = append(l.tokens, t)
	return len(value)
}

// extend stretches loc so it ends where end ends.
func extend(loc, end *token.Location) {
	loc.LastLine, loc.LastColumn = end.LastLine, end.LastColumn
	loc.LastLineExclusive, loc.LastColumnExclusive = end.LastLineExclusive, end.LastColumnExclusive
	loc.Range[1] = end.Range[1]
}

// tagParameters runs when a function glyph is lexed. A balanced paren
// group right before it is the parameter list; a `do` before that group
// makes the function an immediately invoked one.
func (l *Lexer) tagParameters() {
	if l.tag() != token.RParen {
		l.tagDoIIFE(len(l.tokens) - 1)
		return
	}
	i := len(l.tokens) - 1
	paramEnd := l.tokens[i]
	paramEnd.Tag = token.ParamEnd
	depth := 0
	for i--; i >= 0; i-- {
		switch t := l.tokens[i]; t.Tag {
		case token.RParen:
			depth++
		case token.LParen, token.CallStart:
			switch {
			case depth > 0:
				depth--
			case t.Tag == token.LParen:
				t.Tag = token.ParamStart
				l.tagDoIIFE(i - 1)
				return
			default:
				paramEnd.Tag = token.CallEnd
				return
			}
		}
	}
}

func (l *Lexer) tagDoIIFE(i int) {
	if i >= 0 && i < len(l.tokens) && l.tokens[i].Tag == token.Do {
		l.tokens[i].Tag = token.DoIIFE
	}
}

// numberToken lexes numeric literals. Values too large for a float64
// become INFINITY.
func (l *Lexer) numberToken() int {
	n := scanner.MatchNumber(l.chunk)
	if n == 0 {
		return 0
	}
	number := l.chunk[:n]
	switch {
	case len(number) > 1 && number[0] == '0' && strings.ContainsRune("BOX", rune(number[1])):
		l.fail(1, 1, "radix prefix in '%s' must be lowercase", number)
	case leadingZeroDecimal(number):
		l.fail(0, n, "decimal literal '%s' must not be prefixed with '0'", number)
	case len(number) > 1 && number[0] == '0' && number[1] >= '0' && number[1] <= '9':
		l.fail(0, n, "octal literal '%s' must be prefixed with '0o'", number)
	}

	value := parseNumber(number)
	tag := token.Number
	t := l.token(tag, number, 0, n)
	if value > maxFloat {
		t.Tag = token.Infinity
		t.SetData("original", number)
	}
	t.SetData("parsedValue", value)
	return n
}

const maxFloat = 1.7976931348623157e308

// leadingZeroDecimal matches 0 followed by digits of which one is 8 or 9.
func leadingZeroDecimal(s string) bool {
	if len(s) < 2 || s[0] != '0' {
		return false
	}
	for i := 1; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if s[i] == '8' || s[i] == '9' {
			return true
		}
	}
	return false
}

func parseNumber(s string) float64 {
	s = strings.ReplaceAll(s, "_", "")
	s = strings.TrimRight(s, "nN")
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'b':
			base = 2
		case 'o':
			base = 8
		case 'x':
			base = 16
		}
		if base != 0 {
			i, ok := new(big.Int).SetString(s[2:], base)
			if !ok {
				return 0
			}
			f, _ := new(big.Float).SetInt(i).Float64()
			return f
		}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// jsToken passes backtick-quoted code through untouched.
func (l *Lexer) jsToken() int {
	if !strings.HasPrefix(l.chunk, "`") {
		return 0
	}
	n, script, here := scanner.MatchJS(l.chunk)
	if n == 0 {
		return 0
	}
	t := l.token(token.JS, script, 0, n)
	t.SetData("here", here)
	return n
}
