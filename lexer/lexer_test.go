package lexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/d4l3k/messagediff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeve/rip-sub000/token"
)

func tokenize(t *testing.T, code string) []*token.Token {
	t.Helper()
	tokens, err := Tokenize(code, Options{Filename: "test.rip"})
	require.NoError(t, err)
	return tokens
}

func raw(t *testing.T, code string) []*token.Token {
	t.Helper()
	tokens, err := Tokenize(code, Options{Filename: "test.rip", NoRewrite: true})
	require.NoError(t, err)
	return tokens
}

func assertTags(t *testing.T, want []token.Tag, tokens []*token.Token) {
	t.Helper()
	got := token.Tags(tokens)
	if diff, equal := messagediff.PrettyDiff(want, got); !equal {
		t.Errorf("tag stream mismatch:\n%s\ngot: %s", diff, token.Dump(tokens))
	}
}

func lexError(t *testing.T, code string) *Error {
	t.Helper()
	_, err := Tokenize(code, Options{Filename: "test.rip"})
	require.Error(t, err)
	var lexErr *Error
	require.True(t, errors.As(err, &lexErr), "want *lexer.Error, got %T", err)
	return lexErr
}

const program = `square = (x) -> x * x
list = [1, 2, 3]
obj =
  name: "rip"
  greet: (who) ->
    "hello #{who}, from #{@name}"
if list.length > 2 then console.log square 3 else no
`

func TestRoundTrip(t *testing.T) {
	tokens := tokenize(t, program)

	var b strings.Builder
	end := 0
	for _, tok := range tokens {
		r := tok.Loc.Range
		require.GreaterOrEqual(t, r[0], end, "token %s overlaps its predecessor", tok)
		gap := program[end:r[0]]
		assert.Empty(t, strings.TrimSpace(gap), "non-blank gap before %s", tok)
		b.WriteString(gap)
		b.WriteString(program[r[0]:r[1]])
		end = r[1]
	}
	b.WriteString(program[end:])
	assert.Equal(t, program, b.String())
}

func TestTokenTextMatchesSource(t *testing.T) {
	for _, tok := range tokenize(t, program) {
		if !tok.Tag.Is(token.Identifier, token.Property, token.Number, token.NeoString) {
			continue
		}
		assert.Equal(t, tok.Text, program[tok.Loc.Range[0]:tok.Loc.Range[1]], "token %s", tok)
	}
}

func TestIndentBalance(t *testing.T) {
	inputs := []string{
		program,
		"if a\n  if b\n    c\n  else\n    d\ne",
		"f ->\n  g ->\n    h\n",
		"x = [\n  1\n  2\n]\n",
		"a = if b then c else d",
	}
	for _, input := range inputs {
		tokens := tokenize(t, input)
		depth := 0
		for _, tok := range tokens {
			switch tok.Tag {
			case token.Indent:
				depth++
			case token.Outdent:
				depth--
			}
			require.GreaterOrEqual(t, depth, 0, "unbalanced OUTDENT in %q", input)
		}
		assert.Equal(t, 0, depth, "unclosed INDENT in %q", input)
	}
}

// nest builds a string literal with n levels of nested interpolation.
func nest(n int) string {
	if n == 0 {
		return "x"
	}
	return `"s#{` + nest(n-1) + `}e"`
}

func TestInterpolationNesting(t *testing.T) {
	for _, depth := range []int{1, 2, 5} {
		t.Run(nest(depth), func(t *testing.T) {
			tokens := tokenize(t, "v = "+nest(depth))
			starts, ends, level, deepest := 0, 0, 0, 0
			for _, tok := range tokens {
				switch tok.Tag {
				case token.InterpolationStart:
					starts++
					level++
					deepest = max(deepest, level)
					assert.Equal(t, "#{", tok.Text)
				case token.InterpolationEnd:
					ends++
					level--
					require.GreaterOrEqual(t, level, 0)
				}
			}
			assert.Equal(t, depth, starts)
			assert.Equal(t, depth, ends)
			assert.Equal(t, depth, deepest)
		})
	}
}

func TestInterpolationDepthLimit(t *testing.T) {
	_, err := Tokenize("v = "+nest(DefaultMaxInterpolationDepth), Options{})
	require.NoError(t, err)

	e := lexError(t, "v = "+nest(DefaultMaxInterpolationDepth+6))
	assert.Equal(t, "interpolations nested deeper than 64 levels", e.Message)

	_, err = Tokenize("v = "+nest(3), Options{MaxInterpolationDepth: 2})
	assert.ErrorContains(t, err, "nested deeper than 2 levels")
}

func TestInterpolatedString(t *testing.T) {
	tokens := tokenize(t, `x = "a#{1+1}b"`)
	assertTags(t, []token.Tag{
		token.Identifier, token.Assign,
		token.StringStart,
		token.NeoString,
		token.InterpolationStart, token.Number, token.Plus, token.Number, token.InterpolationEnd,
		token.NeoString,
		token.StringEnd,
		token.Terminator,
	}, tokens)

	assert.Equal(t, "a", tokens[3].Text)
	assert.Equal(t, "b", tokens[9].Text)
	assert.Equal(t, [2]int{4, 5}, tokens[2].Loc.Range)
	assert.Equal(t, [2]int{6, 8}, tokens[4].Loc.Range)
	assert.Equal(t, [2]int{11, 12}, tokens[8].Loc.Range)
	assert.Equal(t, [2]int{13, 14}, tokens[10].Loc.Range)
	assert.Equal(t, true, tokens[3].Data["initialChunk"])
	assert.Equal(t, true, tokens[9].Data["finalChunk"])
	assert.Equal(t, `"`, tokens[2].Data["quote"])
	require.NotNil(t, tokens[8].Origin)
	assert.Equal(t, "end of interpolation", tokens[8].Origin.Text)
}

func TestPlainString(t *testing.T) {
	tokens := tokenize(t, `x = 'a#{b}'`)
	require.Len(t, tokens, 4)
	assert.Equal(t, token.String, tokens[2].Tag)
	assert.Equal(t, `'a#{b}'`, tokens[2].Text)
	assert.Equal(t, [2]int{4, 11}, tokens[2].Loc.Range)

	tokens = tokenize(t, `x = "#{a}"`)
	assertTags(t, []token.Tag{
		token.Identifier, token.Assign,
		token.StringStart, token.InterpolationStart, token.Identifier, token.InterpolationEnd, token.StringEnd,
		token.Terminator,
	}, tokens)
}

func TestHeredoc(t *testing.T) {
	tokens := tokenize(t, "x = '''\n    one\n      two\n    '''")
	require.Equal(t, token.String, tokens[2].Tag)
	assert.Equal(t, "    ", tokens[2].Data["indent"])
	assert.Equal(t, "'''", tokens[2].Data["quote"])
}

func TestUnterminatedString(t *testing.T) {
	e := lexError(t, `"abc`)
	assert.Contains(t, e.Message, "missing closing quote")
	assert.Equal(t, 0, e.Loc.FirstLine)
	assert.Equal(t, 4, e.Loc.FirstColumn)
	assert.Equal(t, [2]int{4, 4}, e.Loc.Range)
	assert.Equal(t, `test.rip:1:5: missing closing quote "`, e.Error())
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
		line  int
	}{
		{"upper radix", "x = 0B101", "radix prefix in '0B101' must be lowercase", 0},
		{"leading zero decimal", "x = 09", "decimal literal '09' must not be prefixed with '0'", 0},
		{"legacy octal", "x = 07", "octal literal '07' must be prefixed with '0o'", 0},
		{"regex flags", "/a/gg", "invalid regular expression flags gg", 0},
		{"regex star", "x = /*a/", "regular expressions cannot begin with *", 0},
		{"reserved word", "var = 1", "reserved word 'var'", 0},
		{"keyword assignment", "y = 1\nclass = 1", "keyword 'class' can't be assigned", 1},
		{"proscribed assignment", "eval = 1", "'eval' can't be assigned", 0},
		{"unmatched", "(a]", "unmatched ]", 0},
		{"missing closer", "f(a, b", "missing )", 0},
		{"octal escape", `"\7"`, `octal escape sequences are not allowed \7`, 0},
		{"bad hex escape", `"\xZZ"`, `invalid escape sequence \xZZ`, 0},
		{"code point", `"\u{110000}"`, `unicode code point escapes greater than \u{10ffff} are not allowed`, 0},
		{"block comment", "a = 1\n### never closed", "missing ###", 1},
		{"block comment close", "### a */ b ###\nx", "block comments cannot contain */", 0},
		{"unexpected semicolon", "x = ;", "unexpected ;", 0},
		{"unknown character", "x = `open", "unexpected `", 0},
		{"unterminated heregex", "///abc", "missing ///", 0},
		{"get keyword", "a = get foo: ->", "'get' cannot be used as a keyword, or as a function call without parentheses", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := lexError(t, tt.input)
			assert.Equal(t, tt.msg, e.Message)
			assert.Equal(t, tt.line, e.Loc.FirstLine)
			assert.Equal(t, "test.rip", e.Filename)
		})
	}
}

func TestMixedIndentation(t *testing.T) {
	e := lexError(t, "if x\n  y\n\tz")
	assert.Equal(t, "indentation mismatch", e.Message)
	assert.Equal(t, 2, e.Loc.FirstLine)
	assert.Contains(t, e.Error(), "test.rip:3:")

	e = lexError(t, "if x\n \ty")
	assert.Equal(t, "mixed indentation", e.Message)
	assert.Equal(t, 1, e.Loc.FirstLine)
}

func TestIdentifiers(t *testing.T) {
	t.Run("aliases keep their spelling", func(t *testing.T) {
		tokens := tokenize(t, "a and b")
		require.Equal(t, token.LogicAnd, tokens[1].Tag)
		assert.Equal(t, "&&", tokens[1].Text)
		assert.Equal(t, "and", tokens[1].Data["original"])
		require.NotNil(t, tokens[1].Origin)
		assert.Equal(t, "and", tokens[1].Origin.Text)
	})

	t.Run("not in folds into the relation", func(t *testing.T) {
		tokens := tokenize(t, "a not in b")
		assertTags(t, []token.Tag{token.Identifier, token.Relation, token.Identifier, token.Terminator}, tokens)
		assert.Equal(t, "in", tokens[1].Text)
		assert.Equal(t, "not", tokens[1].Data["invert"])
		assert.Equal(t, 2, tokens[1].Loc.Range[0])
	})

	t.Run("object keys are properties", func(t *testing.T) {
		tokens := raw(t, "a: 1")
		assertTags(t, []token.Tag{token.Property, token.Colon, token.Number, token.Terminator}, tokens)
		assert.Equal(t, [2]int{1, 2}, tokens[1].Loc.Range)
	})

	t.Run("await suffix", func(t *testing.T) {
		tokens := raw(t, "data = fetch! url")
		f := tokens[2]
		assert.Equal(t, token.Identifier, f.Tag)
		assert.Equal(t, "fetch", f.Text)
		assert.Equal(t, true, f.Data["await"])
		assert.Equal(t, [2]int{7, 13}, f.Loc.Range)
	})

	t.Run("for loops", func(t *testing.T) {
		tokens := raw(t, "for own k, v of obj then k")
		assertTags(t, []token.Tag{
			token.For, token.Own, token.Identifier, token.Comma, token.Identifier, token.ForOf,
			token.Identifier, token.Then, token.Identifier, token.Terminator,
		}, tokens)
	})

	t.Run("leading when", func(t *testing.T) {
		tokens := raw(t, "switch x\n  when 1 then a")
		assert.Contains(t, token.Tags(tokens), token.LeadingWhen)
	})

	t.Run("import specifiers", func(t *testing.T) {
		tokens := raw(t, "import * as fs from 'fs'")
		assertTags(t, []token.Tag{
			token.Import, token.ImportAll, token.As, token.Identifier, token.From, token.String, token.Terminator,
		}, tokens)
	})

	t.Run("new.target and import.meta", func(t *testing.T) {
		tokens := raw(t, "a = new.target\nb = import.meta")
		tags := token.Tags(tokens)
		assert.Contains(t, tags, token.NewTarget)
		assert.Contains(t, tags, token.ImportMeta)
	})

	t.Run("do super", func(t *testing.T) {
		tokens := raw(t, "do super")
		assertTags(t, []token.Tag{token.Super, token.CallStart, token.CallEnd, token.Terminator}, tokens)
		assert.True(t, tokens[1].Generated)
		assert.Equal(t, [2]int{3, 8}, tokens[0].Loc.Range)
	})
}

func TestOperators(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Tag
	}{
		{"a ||= b", []token.Tag{token.Identifier, token.CompoundAssign, token.Identifier, token.Terminator}},
		{"a || = b", nil},
		{"a / b", []token.Tag{token.Identifier, token.Math, token.Identifier, token.Terminator}},
		{"a ? b", []token.Tag{token.Identifier, token.BinExist, token.Identifier, token.Terminator}},
		{"a?.b", []token.Tag{token.Identifier, token.SoakAccess, token.Property, token.Terminator}},
		{"a[0]", []token.Tag{token.Identifier, token.IndexStart, token.Number, token.RBracket, token.Terminator}},
		{"a?[0]", []token.Tag{token.Identifier, token.IndexSoak, token.IndexStart, token.Number, token.RBracket, token.Terminator}},
		{"f(1)", []token.Tag{token.Identifier, token.CallStart, token.Number, token.RParen, token.Terminator}},
		{"(a) -> a", []token.Tag{token.ParamStart, token.Identifier, token.ParamEnd, token.Func, token.Identifier, token.Terminator}},
		{"do (a) -> a", []token.Tag{token.DoIIFE, token.ParamStart, token.Identifier, token.ParamEnd, token.Func, token.Identifier, token.Terminator}},
		{"x = !a", []token.Tag{token.Identifier, token.Assign, token.UnaryMath, token.Identifier, token.Terminator}},
		{"a << 2", []token.Tag{token.Identifier, token.Shift, token.Number, token.Terminator}},
		{"a == b", []token.Tag{token.Identifier, token.Compare, token.Identifier, token.Terminator}},
		{"a += 1", []token.Tag{token.Identifier, token.CompoundAssign, token.Number, token.Terminator}},
		{"a ** 2", []token.Tag{token.Identifier, token.Power, token.Number, token.Terminator}},
		{"[1..2]", []token.Tag{token.LBracket, token.Number, token.Range, token.Number, token.RBracket, token.Terminator}},
		{"f a...", []token.Tag{token.Identifier, token.Identifier, token.Splat, token.Terminator}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Tokenize(tt.input, Options{NoRewrite: true})
			if tt.want == nil {
				// `||` and `=` only fold when adjacent.
				require.NoError(t, err)
				assert.NotContains(t, token.Tags(tokens), token.CompoundAssign)
				return
			}
			require.NoError(t, err)
			assertTags(t, tt.want, tokens)
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		tag   token.Tag
		value float64
	}{
		{"0x10", token.Number, 16},
		{"0b101", token.Number, 5},
		{"0o17", token.Number, 15},
		{"1_000", token.Number, 1000},
		{"2.5e3", token.Number, 2500},
		{"123n", token.Number, 123},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := raw(t, tt.input)
			assert.Equal(t, tt.tag, tokens[0].Tag)
			assert.Equal(t, tt.input, tokens[0].Text)
			assert.Equal(t, tt.value, tokens[0].Data["parsedValue"])
		})
	}

	tokens := raw(t, "1e400")
	assert.Equal(t, token.Infinity, tokens[0].Tag)
	assert.Equal(t, "1e400", tokens[0].Data["original"])
}

func TestRegexes(t *testing.T) {
	tokens := raw(t, "x = /ab+c/gi")
	re := tokens[2]
	assert.Equal(t, token.Regex, re.Tag)
	assert.Equal(t, "/ab+c/gi", re.Text)
	assert.Equal(t, "gi", re.Data["flags"])
	assert.Equal(t, "/", re.Data["delimiter"])

	tokens = raw(t, "x = ///\n  a+ # letters\n  b\n///")
	re = tokens[2]
	assert.Equal(t, token.Regex, re.Tag)
	assert.Equal(t, "///", re.Data["delimiter"])
	comments, ok := re.Data["heregexComments"].([]*token.Comment)
	require.True(t, ok)
	require.Len(t, comments, 1)
	assert.Equal(t, " letters", comments[0].Content)

	tags := token.Tags(tokenize(t, "x = ///a#{b}c///i"))
	assert.Contains(t, tags, token.RegexStart)
	assert.Contains(t, tags, token.RegexEnd)
	assert.Contains(t, tags, token.InterpolationStart)
	assert.NotContains(t, tags, token.RParen)
}

func TestEmbeddedJS(t *testing.T) {
	tokens := raw(t, "x = `a + b`")
	assert.Equal(t, token.JS, tokens[2].Tag)
	assert.Equal(t, "a + b", tokens[2].Text)
	assert.Equal(t, false, tokens[2].Data["here"])
}

func TestComments(t *testing.T) {
	t.Run("trailing comment stays on its token", func(t *testing.T) {
		tokens := tokenize(t, "x = 1 # note\ny = 2")
		one := tokens[2]
		require.Len(t, one.Comments, 1)
		c := one.Comments[0]
		assert.Equal(t, " note", c.Content)
		assert.False(t, c.NewLine)
		assert.False(t, c.Here)
		assert.Equal(t, [2]int{6, 12}, c.Loc.Range)
	})

	t.Run("leading comment rides on a placeholder", func(t *testing.T) {
		tokens := tokenize(t, "# lead\nx = 1")
		first := tokens[0]
		assert.Equal(t, token.JS, first.Tag)
		assert.True(t, first.Generated)
		require.Len(t, first.Comments, 1)
		assert.Equal(t, " lead", first.Comments[0].Content)
		assert.True(t, first.Comments[0].NewLine)
	})

	t.Run("block comment", func(t *testing.T) {
		tokens := raw(t, "x = 1\n###\ndoc\n###\ny = 2")
		var found *token.Comment
		for _, tok := range tokens {
			for _, c := range tok.Comments {
				found = c
			}
		}
		require.NotNil(t, found)
		assert.True(t, found.Here)
		assert.Equal(t, "\ndoc\n", found.Content)
	})
}

func TestLocations(t *testing.T) {
	t.Run("second line", func(t *testing.T) {
		tokens := raw(t, "a = 1\nbb = 22")
		bb := tokens[4]
		require.Equal(t, "bb", bb.Text)
		assert.Equal(t, 1, bb.Loc.FirstLine)
		assert.Equal(t, 0, bb.Loc.FirstColumn)
		assert.Equal(t, 1, bb.Loc.LastColumn)
		assert.Equal(t, 2, bb.Loc.LastColumnExclusive)
		assert.Equal(t, [2]int{6, 8}, bb.Loc.Range)
	})

	t.Run("carriage returns", func(t *testing.T) {
		tokens := raw(t, "a = 1\r\nbb = 22")
		bb := tokens[4]
		require.Equal(t, "bb", bb.Text)
		assert.Equal(t, 1, bb.Loc.FirstLine)
		assert.Equal(t, [2]int{7, 9}, bb.Loc.Range)
	})

	t.Run("byte order mark", func(t *testing.T) {
		tokens := raw(t, "\uFEFFab")
		assert.Equal(t, [2]int{3, 5}, tokens[0].Loc.Range)
		assert.Equal(t, 3, tokens[0].Loc.FirstColumn)
	})

	t.Run("leading indentation", func(t *testing.T) {
		tokens := raw(t, "  x = 1")
		require.Equal(t, "x", tokens[0].Text)
		assert.Equal(t, [2]int{2, 3}, tokens[0].Loc.Range)
		assert.Equal(t, 2, tokens[0].Loc.FirstColumn)
	})

	t.Run("embedded snippet origin", func(t *testing.T) {
		tokens, err := Tokenize("x = 1", Options{Line: 10, Column: 4, Offset: 100, NoRewrite: true})
		require.NoError(t, err)
		assert.Equal(t, 10, tokens[0].Loc.FirstLine)
		assert.Equal(t, 4, tokens[0].Loc.FirstColumn)
		assert.Equal(t, [2]int{100, 101}, tokens[0].Loc.Range)
	})
}

func TestUntilBalanced(t *testing.T) {
	tokens, consumed, err := TokenizeIndex("{a: 1} rest", Options{UntilBalanced: true})
	require.NoError(t, err)
	assert.Equal(t, 6, consumed)
	assertTags(t, []token.Tag{token.LBrace, token.Property, token.Colon, token.Number, token.RBrace}, tokens)
}

func TestFormatError(t *testing.T) {
	src := "y = 1\nx = \"abc"
	_, err := Tokenize(src, Options{})
	var e *Error
	require.True(t, errors.As(err, &e))

	out := FormatError(e, src, false)
	assert.Contains(t, out, `<input>:2:9: error: missing closing quote "`)
	assert.Contains(t, out, "   2 | x = \"abc")
	assert.Contains(t, out, "^")
	assert.NotContains(t, out, "\033[")

	colored := FormatError(e, src, true)
	assert.Contains(t, colored, "\033[31m")
}
