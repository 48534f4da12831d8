// Package scanner provides the character-level matchers used by the rip
// lexer. Each matcher inspects the start of the remaining source chunk and
// reports how many bytes it consumes, so the lexer can try them in priority
// order. The lexical grammar relies on look-ahead (`#` not followed by `{`,
// `:` not followed by `:`, ...) that RE2 cannot express, which is why these
// are written by hand instead of as regular expressions.
package scanner

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsOpenBracket reports whether ch is an opening bracket/paren/brace.
func IsOpenBracket(ch byte) bool {
	return ch == '(' || ch == '[' || ch == '{'
}

// IsCloseBracket reports whether ch is a closing bracket/paren/brace.
func IsCloseBracket(ch byte) bool {
	return ch == ')' || ch == ']' || ch == '}'
}

// Inverse returns the bracket that closes (or opens) ch.
func Inverse(ch byte) byte {
	switch ch {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	case ')':
		return '('
	case ']':
		return '['
	case '}':
		return '{'
	}
	return 0
}

// IsIdentPart reports whether r may appear in an identifier.
func IsIdentPart(r rune) bool {
	switch {
	case r == '$' || r == '_':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x7f:
		return r != utf8.RuneError && !unicode.IsSpace(r)
	}
	return false
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isBinary(c byte) bool { return c == '0' || c == '1' }
func isOctal(c byte) bool  { return c >= '0' && c <= '7' }
func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// IsWordByte reports whether c is in [A-Za-z0-9_].
func IsWordByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// hspace returns the length of the run of non-newline whitespace at the
// start of s.
func hspace(s string) int {
	i := 0
	for i < len(s) {
		c := s[i]
		if c < utf8.RuneSelf {
			if c == '\n' || !isSpace(c) {
				return i
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) && r != 0xFEFF {
			return i
		}
		i += size
	}
	return i
}

// MatchWhitespace returns the length of the horizontal whitespace run at
// the start of s.
func MatchWhitespace(s string) int { return hspace(s) }

// MatchMultiDent matches one or more line breaks, each followed by its
// indentation, and returns the total length.
func MatchMultiDent(s string) int {
	i := 0
	for i < len(s) && s[i] == '\n' {
		i++
		i += hspace(s[i:])
	}
	return i
}

// Ident is the result of MatchIdentifier.
type Ident struct {
	Name string
	// Bang is set when the name carries a trailing `!`.
	Bang bool
	// Colon is the offset of an object-key colon within the match, or -1.
	Colon int
	Len   int
}

// MatchIdentifier matches a name, an optional trailing `!` (not `!=`) and an
// optional `:` (not `::`) that marks the name as an object key.
func MatchIdentifier(s string) (Ident, bool) {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !IsIdentPart(r) {
			break
		}
		if i == 0 && r >= '0' && r <= '9' {
			return Ident{}, false
		}
		i += size
	}
	if i == 0 {
		return Ident{}, false
	}
	id := Ident{Name: s[:i], Colon: -1}
	if i < len(s) && s[i] == '!' && (i+1 >= len(s) || s[i+1] != '=') {
		id.Bang = true
		i++
	}
	j := i + hspace(s[i:])
	if j < len(s) && s[j] == ':' && (j+1 >= len(s) || s[j+1] != ':') {
		id.Colon = j
		i = j + 1
	}
	id.Len = i
	return id, true
}

// digits matches d(_?d)* where d satisfies ok: digit groups separated by
// single underscores.
func digits(s string, ok func(byte) bool) int {
	if len(s) == 0 || !ok(s[0]) {
		return 0
	}
	i := 1
	for i < len(s) {
		if ok(s[i]) {
			i++
			continue
		}
		if s[i] == '_' && i+1 < len(s) && ok(s[i+1]) {
			i += 2
			continue
		}
		break
	}
	return i
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func radix(s string, prefix byte, ok func(byte) bool) int {
	if len(s) < 3 || s[0] != '0' || lower(s[1]) != prefix {
		return 0
	}
	n := digits(s[2:], ok)
	if n == 0 {
		return 0
	}
	n += 2
	if n < len(s) && lower(s[n]) == 'n' {
		n++
	}
	return n
}

// MatchNumber matches a numeric literal: binary, octal or hex with an
// optional bigint suffix, a decimal bigint, or a decimal with optional
// fraction and exponent. Prefixes and the exponent marker are matched
// case-insensitively; the lexer rejects upper-case radix prefixes.
func MatchNumber(s string) int {
	if n := radix(s, 'b', isBinary); n > 0 {
		return n
	}
	if n := radix(s, 'o', isOctal); n > 0 {
		return n
	}
	if n := radix(s, 'x', isHex); n > 0 {
		return n
	}
	whole := digits(s, isDigit)
	if whole > 0 && whole < len(s) && lower(s[whole]) == 'n' {
		return whole + 1
	}
	end := 0
	switch {
	case whole > 0 && whole < len(s) && s[whole] == '.':
		if frac := digits(s[whole+1:], isDigit); frac > 0 {
			end = whole + 1 + frac
		} else {
			end = whole
		}
	case whole > 0:
		end = whole
	case len(s) > 1 && s[0] == '.':
		if frac := digits(s[1:], isDigit); frac > 0 {
			end = 1 + frac
		}
	}
	if end == 0 {
		return 0
	}
	if end < len(s) && lower(s[end]) == 'e' {
		j := end + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if exp := digits(s[j:], isDigit); exp > 0 {
			end = j + exp
		}
	}
	return end
}

// MatchOperator matches the multi-character operators, returning 0 when
// the chunk starts with a single-character literal instead.
func MatchOperator(s string) int {
	if len(s) < 2 {
		return 0
	}
	c0, c1 := s[0], s[1]
	switch {
	case (c0 == '-' || c0 == '=') && c1 == '>':
		return 2
	case strings.IndexByte("-+*/%<>&|^!?=", c0) >= 0 && c1 == '=':
		return 2
	case strings.HasPrefix(s, ">>>"):
		if len(s) > 3 && s[3] == '=' {
			return 4
		}
		return 3
	case (c0 == '-' || c0 == '+' || c0 == ':') && c1 == c0:
		return 2
	case strings.IndexByte("&|<>*/%", c0) >= 0 && c1 == c0:
		if len(s) > 2 && s[2] == '=' {
			return 3
		}
		return 2
	case c0 == '?' && c1 == '.':
		return 2
	case strings.HasPrefix(s, "?::"):
		return 3
	case strings.HasPrefix(s, "..."):
		return 3
	case c0 == '.' && c1 == '.':
		return 2
	}
	return 0
}

// LineContinues reports whether s starts (after whitespace) with a token
// that continues the previous line: a comma, an accessor or `::`.
func LineContinues(s string) bool {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	s = s[i:]
	if strings.HasPrefix(s, ",") {
		return true
	}
	if strings.HasPrefix(s, "?") {
		s = s[1:]
	}
	if strings.HasPrefix(s, "::") {
		return true
	}
	if strings.HasPrefix(s, ".") {
		return len(s) == 1 || (s[1] != '.' && !isDigit(s[1]))
	}
	return false
}

// CommentMatch is the result of MatchComment.
type CommentMatch struct {
	Len  int
	Here bool
	// Block comment parts.
	Leading, Content, Trailing string
	// Lines is the raw run of line comments, leading whitespace included.
	Lines string
	// Unterminated is set for a `###` block that never closes.
	Unterminated bool
}

// MatchComment matches either a ### block comment (with surrounding
// whitespace) or a run of consecutive # line comments.
func MatchComment(s string) (CommentMatch, bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if strings.HasPrefix(s[i:], "###") && i+3 < len(s) && s[i+3] != '#' {
		end := strings.Index(s[i+4:], "###")
		if end < 0 {
			return CommentMatch{Unterminated: true, Leading: s[:i]}, false
		}
		close := i + 4 + end
		trail := hspace(s[close+3:])
		return CommentMatch{
			Len:      close + 3 + trail,
			Here:     true,
			Leading:  s[:i],
			Content:  s[i+3 : close],
			Trailing: s[close+3 : close+3+trail],
		}, true
	}
	n := 0
	for {
		j := n
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j >= len(s) || s[j] != '#' {
			break
		}
		if strings.HasPrefix(s[j+1:], "##") && j+3 < len(s) && s[j+3] != '#' {
			break
		}
		eol := strings.IndexByte(s[j:], '\n')
		if eol < 0 {
			n = len(s)
			break
		}
		n = j + eol
	}
	if n == 0 {
		return CommentMatch{}, false
	}
	return CommentMatch{Len: n, Lines: s[:n]}, true
}

// Run measures the plain (non-interpolated) run of a string-like literal
// body at the start of s.
type Run func(s string) int

func escaped(s string, i int) (int, bool) {
	if i+1 < len(s) {
		return i + 2, true
	}
	return i, false
}

// SingleString matches the body of a '...' string.
func SingleString(s string) int {
	i := 0
	for i < len(s) {
		switch s[i] {
		case '\\':
			n, ok := escaped(s, i)
			if !ok {
				return i
			}
			i = n
		case '\'':
			return i
		default:
			i++
		}
	}
	return i
}

// DoubleString matches the body of a "..." string up to an interpolation.
func DoubleString(s string) int {
	i := 0
	for i < len(s) {
		switch s[i] {
		case '\\':
			n, ok := escaped(s, i)
			if !ok {
				return i
			}
			i = n
		case '"':
			return i
		case '#':
			if i+1 < len(s) && s[i+1] == '{' {
				return i
			}
			i++
		default:
			i++
		}
	}
	return i
}

// SingleHeredoc matches the body of a '''...''' string.
func SingleHeredoc(s string) int {
	i := 0
	for i < len(s) {
		switch s[i] {
		case '\\':
			n, ok := escaped(s, i)
			if !ok {
				return i
			}
			i = n
		case '\'':
			if strings.HasPrefix(s[i+1:], "''") {
				return i
			}
			i++
		default:
			i++
		}
	}
	return i
}

// DoubleHeredoc matches the body of a """...""" string up to an
// interpolation.
func DoubleHeredoc(s string) int {
	i := 0
	for i < len(s) {
		switch s[i] {
		case '\\':
			n, ok := escaped(s, i)
			if !ok {
				return i
			}
			i = n
		case '"':
			if strings.HasPrefix(s[i+1:], `""`) {
				return i
			}
			i++
		case '#':
			if i+1 < len(s) && s[i+1] == '{' {
				return i
			}
			i++
		default:
			i++
		}
	}
	return i
}

// Heregex matches the body of a ///.../// regex up to an interpolation.
// Whitespace-led # comments run to the end of their line and may contain
// `///`.
func Heregex(s string) int {
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\':
			n, ok := escaped(s, i)
			if !ok {
				return i
			}
			i = n
		case c == '/':
			if strings.HasPrefix(s[i+1:], "//") {
				return i
			}
			i++
		case c == '#':
			if i+1 < len(s) && s[i+1] == '{' {
				return i
			}
			i++
		case isSpace(c):
			for i < len(s) && isSpace(s[i]) {
				i++
			}
			if i < len(s) && s[i] == '#' && (i+1 >= len(s) || s[i+1] != '{') {
				if eol := strings.IndexByte(s[i:], '\n'); eol >= 0 {
					i += eol
				} else {
					i = len(s)
				}
			}
		default:
			i++
		}
	}
	return i
}

// HeregexComment is a # comment found inside a heregex body.
type HeregexComment struct {
	Offset int
	Text   string
}

// HeregexComments finds every whitespace-led # comment in a heregex.
func HeregexComments(s string) []HeregexComment {
	var out []HeregexComment
	for i := 1; i < len(s); i++ {
		if s[i] != '#' || !isSpace(s[i-1]) || (i+1 < len(s) && s[i+1] == '{') {
			continue
		}
		end := strings.IndexByte(s[i:], '\n')
		if end < 0 {
			end = len(s) - i
		}
		out = append(out, HeregexComment{Offset: i, Text: s[i : i+end]})
		i += end
	}
	return out
}

// MatchRegex matches a /.../ literal. It reports the consumed length, the
// body, and whether the closing slash was found.
func MatchRegex(s string) (n int, body string, closed bool) {
	if len(s) == 0 || s[0] != '/' || (len(s) > 1 && s[1] == '/') {
		return 0, "", false
	}
	i := 1
loop:
	for i < len(s) {
		switch s[i] {
		case '/', '\n':
			break loop
		case '\\':
			if i+1 >= len(s) || s[i+1] == '\n' {
				break loop
			}
			i += 2
		case '[':
			j, ok := regexClass(s, i+1)
			if !ok {
				break loop
			}
			i = j
		default:
			i++
		}
	}
	body = s[1:i]
	if i < len(s) && s[i] == '/' {
		return i + 1, body, true
	}
	return i, body, false
}

func regexClass(s string, j int) (int, bool) {
	for j < len(s) {
		switch s[j] {
		case '\\':
			if j+1 >= len(s) || s[j+1] == '\n' {
				return j, false
			}
			j += 2
		case ']':
			return j + 1, true
		case '\n':
			return j, false
		default:
			j++
		}
	}
	return j, false
}

// MatchRegexFlags returns the length of the word run following a regex.
func MatchRegexFlags(s string) int {
	i := 0
	for i < len(s) && IsWordByte(s[i]) {
		i++
	}
	return i
}

// ValidRegexFlags reports whether flags is a set of distinct gimsuy flags.
func ValidRegexFlags(flags string) bool {
	seen := 0
	for i := 0; i < len(flags); i++ {
		bit := strings.IndexByte("gimsuy", flags[i])
		if bit < 0 || seen&(1<<bit) != 0 {
			return false
		}
		seen |= 1 << bit
	}
	return true
}

// IllegalRegexStart reports the offset of a `*` that directly follows a
// regex opener (`/*` or `/// *`), which cannot start a regular expression.
func IllegalRegexStart(s string) (int, bool) {
	if strings.HasPrefix(s, "/*") {
		return 1, true
	}
	if strings.HasPrefix(s, "///") {
		j := 3
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j < len(s) && s[j] == '*' {
			return j, true
		}
	}
	return 0, false
}

// PossiblyDivision reports whether a slash reads as a spaced division
// operator: `/ ` or `/= `.
func PossiblyDivision(s string) bool {
	if len(s) == 0 || s[0] != '/' {
		return false
	}
	s = s[1:]
	if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return len(s) > 0 && isSpace(s[0])
}

// MatchJS matches embedded JavaScript between backticks or triple
// backticks. here reports the triple form.
func MatchJS(s string) (n int, script string, here bool) {
	if strings.HasPrefix(s, "```") {
		for i := 3; i < len(s); {
			if s[i] == '\\' {
				if i+1 >= len(s) {
					break
				}
				i += 2
				continue
			}
			if strings.HasPrefix(s[i:], "```") {
				return i + 3, s[3:i], true
			}
			i++
		}
		return 0, "", false
	}
	if len(s) == 0 || s[0] != '`' {
		return 0, "", false
	}
	for i := 1; i < len(s); {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return 0, "", false
			}
			i += 2
		case '`':
			return i + 1, s[1:i], false
		default:
			i++
		}
	}
	return 0, "", false
}

// Escape describes an invalid escape sequence.
type Escape struct {
	// Offset of the backslash.
	Offset int
	// Seq is the offending sequence without the backslash.
	Seq   string
	Octal bool
}

func takeLine(s string, n int) string {
	if n > len(s) {
		n = len(s)
	}
	if i := strings.IndexByte(s[:n], '\n'); i >= 0 {
		n = i
	}
	return s[:n]
}

func hexRun(s string) int {
	i := 0
	for i < len(s) && isHex(s[i]) {
		i++
	}
	return i
}

// InvalidEscape finds the first escape sequence that is not allowed.
// Strings reject octal escapes (`\1`-`\7`, `\0` followed by a digit);
// regexes only reject `\0` followed by a digit. Both reject malformed
// `\x`, `\u` and `\u{}` escapes.
func InvalidEscape(s string, regex bool) (Escape, bool) {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '\\' {
			continue
		}
		c := s[i+1]
		rest := s[i+2:]
		switch {
		case c == '0' && len(rest) > 0 && isDigit(rest[0]):
			return Escape{Offset: i, Seq: s[i+1 : i+3], Octal: true}, true
		case !regex && c >= '1' && c <= '7':
			return Escape{Offset: i, Seq: string(c), Octal: true}, true
		case c == 'x':
			if len(rest) < 2 || !isHex(rest[0]) || !isHex(rest[1]) {
				return Escape{Offset: i, Seq: "x" + takeLine(rest, 2)}, true
			}
		case c == 'u' && strings.HasPrefix(rest, "{"):
			n := hexRun(rest[1:])
			if n == 0 || !strings.HasPrefix(rest[1+n:], "}") {
				end := strings.IndexByte(rest, '}')
				seq := rest
				if end >= 0 {
					seq = rest[:end+1]
				}
				return Escape{Offset: i, Seq: "u" + seq}, true
			}
		case c == 'u':
			if hexRun(rest) < 4 {
				return Escape{Offset: i, Seq: "u" + takeLine(rest, 4)}, true
			}
		}
		i++
	}
	return Escape{}, false
}

// CodePoint is a `\u{...}` escape.
type CodePoint struct {
	Offset int
	// Len covers the whole escape including `\u{` and `}`.
	Len   int
	Value int64
}

// CodePointEscapes lists the `\u{...}` escapes in s, skipping escaped
// backslashes.
func CodePointEscapes(s string) []CodePoint {
	var out []CodePoint
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 >= len(s) {
			i++
			continue
		}
		if s[i+1] == '\\' {
			i += 2
			continue
		}
		if strings.HasPrefix(s[i+1:], "u{") {
			n := hexRun(s[i+3:])
			if n > 0 && i+3+n < len(s) && s[i+3+n] == '}' {
				var v int64
				for _, h := range s[i+3 : i+3+n] {
					v = v*16 + int64(hexValue(byte(h)))
					if v > 0x10FFFF {
						v = 0x110000
					}
				}
				out = append(out, CodePoint{Offset: i, Len: n + 4, Value: v})
				i += n + 4
				continue
			}
		}
		i++
	}
	return out
}

func hexValue(c byte) int {
	switch {
	case isDigit(c):
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

// HeredocIndent returns the smallest non-empty indentation shared by the
// non-blank lines after the first one, and whether any such line exists.
func HeredocIndent(doc string) (string, bool) {
	var indent string
	found := false
	lines := strings.Split(doc, "\n")
	for _, line := range lines[1:] {
		n := hspace(line)
		if n == len(line) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(line[n:])
		if unicode.IsSpace(r) {
			continue
		}
		attempt := line[:n]
		if !found || (len(attempt) > 0 && len(attempt) < len(indent)) {
			indent = attempt
			found = true
		}
	}
	return indent, found
}
