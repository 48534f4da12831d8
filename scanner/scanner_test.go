package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrackets(t *testing.T) {
	for _, ch := range []byte("([{") {
		assert.True(t, IsOpenBracket(ch))
		assert.False(t, IsCloseBracket(ch))
		assert.Equal(t, ch, Inverse(Inverse(ch)))
	}
	assert.Equal(t, byte(')'), Inverse('('))
	assert.Equal(t, byte('{'), Inverse('}'))
	assert.Equal(t, byte(0), Inverse('x'))
}

func TestMatchIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Ident
		ok    bool
	}{
		{"plain", "foo bar", Ident{Name: "foo", Colon: -1, Len: 3}, true},
		{"object key", "key: 1", Ident{Name: "key", Colon: 3, Len: 4}, true},
		{"spaced key", "key  : 1", Ident{Name: "key", Colon: 5, Len: 6}, true},
		{"prototype is not a key", "a::b", Ident{Name: "a", Colon: -1, Len: 1}, true},
		{"bang", "go!()", Ident{Name: "go", Bang: true, Colon: -1, Len: 3}, true},
		{"not equal is not a bang", "x!= 1", Ident{Name: "x", Colon: -1, Len: 1}, true},
		{"dollar and underscore", "$_x1 = 2", Ident{Name: "$_x1", Colon: -1, Len: 4}, true},
		{"unicode", "café = 1", Ident{Name: "café", Colon: -1, Len: 5}, true},
		{"leading digit", "1abc", Ident{}, false},
		{"operator", "+ 1", Ident{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchIdentifier(tt.input)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchNumber(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"0b1010 ", 6},
		{"0o17", 4},
		{"0xFFn+1", 5},
		{"0XAB", 4},
		{"123n", 4},
		{"1_000_000", 9},
		{"1__0", 1},
		{"3.14", 4},
		{"1.", 1},
		{"1..5", 1},
		{".5e-3", 5},
		{"6e", 1},
		{"2E10", 4},
		{"x1", 0},
		{".", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchNumber(tt.input))
		})
	}
}

func TestMatchOperator(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"-> x", 2},
		{"=> x", 2},
		{"== 1", 2},
		{"!= 1", 2},
		{">>>= 1", 4},
		{">>> 1", 3},
		{"**= 2", 3},
		{"// 2", 2},
		{"++x", 2},
		{"::", 2},
		{"?.x", 2},
		{"?::x", 3},
		{"...a", 3},
		{"..a", 2},
		{".a", 0},
		{"+ 1", 0},
		{"(", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchOperator(tt.input))
		})
	}
}

func TestWhitespace(t *testing.T) {
	assert.Equal(t, 3, MatchWhitespace(" \t x"))
	assert.Equal(t, 0, MatchWhitespace("\n x"))
	assert.Equal(t, 8, MatchMultiDent("\n  \n    x"))
	assert.Equal(t, 0, MatchMultiDent("  x"))
}

func TestLineContinues(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"  .foo", true},
		{"?.foo", true},
		{"::bar", true},
		{"?::bar", true},
		{", b", true},
		{"..b", false},
		{".5", false},
		{"foo", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, LineContinues(tt.input))
		})
	}
}

func TestMatchComment(t *testing.T) {
	t.Run("line comments", func(t *testing.T) {
		m, ok := MatchComment("# one\n  # two\nx")
		require.True(t, ok)
		assert.False(t, m.Here)
		assert.Equal(t, "# one\n  # two", m.Lines)
		assert.Equal(t, len("# one\n  # two"), m.Len)
	})

	t.Run("block comment", func(t *testing.T) {
		m, ok := MatchComment("### doc ###  \nx")
		require.True(t, ok)
		assert.True(t, m.Here)
		assert.Equal(t, " doc ", m.Content)
		assert.Equal(t, "  ", m.Trailing)
		assert.Equal(t, len("### doc ###  "), m.Len)
	})

	t.Run("unterminated block", func(t *testing.T) {
		m, ok := MatchComment("  ### never closed")
		assert.False(t, ok)
		assert.True(t, m.Unterminated)
		assert.Equal(t, "  ", m.Leading)
	})

	t.Run("four hashes is a line comment", func(t *testing.T) {
		m, ok := MatchComment("#### rule")
		require.True(t, ok)
		assert.False(t, m.Here)
	})

	t.Run("no comment", func(t *testing.T) {
		_, ok := MatchComment("x # trailing")
		assert.False(t, ok)
	})
}

func TestStringRuns(t *testing.T) {
	tests := []struct {
		name  string
		run   Run
		input string
		want  int
	}{
		{"single stops at quote", SingleString, `ab\'c' rest`, 5},
		{"single ignores interpolation", SingleString, `a#{b}'`, 5},
		{"double stops at interpolation", DoubleString, `ab#{c}"`, 2},
		{"double keeps lone hash", DoubleString, `a#b"`, 3},
		{"double escaped quote", DoubleString, `a\"b"`, 4},
		{"single heredoc", SingleHeredoc, "a'b''c'''", 6},
		{"double heredoc", DoubleHeredoc, `a"b""c"""`, 6},
		{"double heredoc interpolation", DoubleHeredoc, `a#{b}"""`, 1},
		{"heregex", Heregex, `a/b//c///`, 6},
		{"heregex comment hides delimiter", Heregex, "a # x ///\nb///", 11},
		{"heregex interpolation", Heregex, `ab#{c}///`, 2},
		{"unterminated", DoubleString, `abc`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.run(tt.input))
		})
	}
}

func TestHeregexComments(t *testing.T) {
	got := HeregexComments("a # first\n  b #{c} # second")
	require.Len(t, got, 2)
	assert.Equal(t, HeregexComment{Offset: 2, Text: "# first"}, got[0])
	assert.Equal(t, "# second", got[1].Text)
}

func TestMatchRegex(t *testing.T) {
	tests := []struct {
		input  string
		n      int
		body   string
		closed bool
	}{
		{"/ab+c/g", 6, "ab+c", true},
		{`/a\/b/`, 6, `a\/b`, true},
		{"/[/]x/", 6, "[/]x", true},
		{"/abc\nd/", 4, "abc", false},
		{"// comment", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, body, closed := MatchRegex(tt.input)
			assert.Equal(t, tt.n, n)
			assert.Equal(t, tt.body, body)
			assert.Equal(t, tt.closed, closed)
		})
	}
}

func TestRegexFlags(t *testing.T) {
	assert.Equal(t, 2, MatchRegexFlags("gi.test"))
	assert.True(t, ValidRegexFlags(""))
	assert.True(t, ValidRegexFlags("gimsuy"))
	assert.False(t, ValidRegexFlags("gg"))
	assert.False(t, ValidRegexFlags("x"))

	off, ok := IllegalRegexStart("/*a/")
	assert.True(t, ok)
	assert.Equal(t, 1, off)
	off, ok = IllegalRegexStart("///  *a///")
	assert.True(t, ok)
	assert.Equal(t, 5, off)
	_, ok = IllegalRegexStart("/a*/")
	assert.False(t, ok)

	assert.True(t, PossiblyDivision("/ 2"))
	assert.True(t, PossiblyDivision("/= 2"))
	assert.False(t, PossiblyDivision("/2/"))
}

func TestMatchJS(t *testing.T) {
	n, script, here := MatchJS("`a + b` c")
	assert.Equal(t, 7, n)
	assert.Equal(t, "a + b", script)
	assert.False(t, here)

	n, script, here = MatchJS("```\nx = `y`\n``` rest")
	assert.Equal(t, len("```\nx = `y`\n```"), n)
	assert.Equal(t, "\nx = `y`\n", script)
	assert.True(t, here)

	n, _, _ = MatchJS("`open")
	assert.Equal(t, 0, n)
}

func TestInvalidEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		regex bool
		want  Escape
		bad   bool
	}{
		{"valid", `a\nb\x41A\u{1F600}`, false, Escape{}, false},
		{"octal in string", `a\7`, false, Escape{Offset: 1, Seq: "7", Octal: true}, true},
		{"octal allowed in regex", `a\7`, true, Escape{}, false},
		{"zero digit", `\01`, true, Escape{Offset: 0, Seq: "01", Octal: true}, true},
		{"short hex", `\xZ1`, false, Escape{Offset: 0, Seq: "xZ1"}, true},
		{"short unicode", `\u12`, false, Escape{Offset: 0, Seq: "u12"}, true},
		{"empty braces", `\u{}`, false, Escape{Offset: 0, Seq: "u{}"}, true},
		{"escaped backslash", `\\7`, false, Escape{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bad := InvalidEscape(tt.input, tt.regex)
			require.Equal(t, tt.bad, bad)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodePointEscapes(t *testing.T) {
	got := CodePointEscapes(`a\u{41}\\u{42}\u{110000}`)
	require.Len(t, got, 2)
	assert.Equal(t, CodePoint{Offset: 1, Len: 6, Value: 0x41}, got[0])
	assert.Greater(t, got[1].Value, int64(0x10FFFF))
}

func TestHeredocIndent(t *testing.T) {
	indent, ok := HeredocIndent("\n    a\n  b\n\n      c\n")
	assert.True(t, ok)
	assert.Equal(t, "  ", indent)

	_, ok = HeredocIndent("single line")
	assert.False(t, ok)
}
