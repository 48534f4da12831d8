// Package lexer turns rip source text into the located token stream read
// by the grammar. Scanning is a single linear pass that tries each scanner
// in priority order on the remaining chunk; string and regex interpolations
// are lexed by nested Lexers over the same source. The finished stream is
// handed to the rewriter unless Options.NoRewrite is set.
package lexer

import (
	"fmt"
	"log"
	"strconv"

	"github.com/shreeve/rip-sub000/rewriter"
	"github.com/shreeve/rip-sub000/token"
)

// DefaultMaxInterpolationDepth bounds how deeply `#{...}` regions may nest.
const DefaultMaxInterpolationDepth = 64

// Options configures a Tokenize call.
type Options struct {
	Filename string
	// Line, Column and Offset give the origin of the code when it is a
	// snippet embedded in a larger document. All are 0-based.
	Line, Column, Offset int
	// UntilBalanced stops at the first point where every bracket opened so
	// far has been closed.
	UntilBalanced bool
	// NoRewrite returns the raw scanner output.
	NoRewrite             bool
	MaxInterpolationDepth int
	// Logger receives token stream dumps from the rewriter when set.
	Logger *log.Logger
}

// pending is an opener waiting for its closer.
type pending struct {
	tag    token.Tag
	origin *token.Token
}

// Lexer holds the state of one linear scan. Nested lexers for
// interpolations get their own Lexer and share only the source.
type Lexer struct {
	src   *source
	opts  Options
	depth int

	code  string
	pos   int
	chunk string

	tokens []*token.Token
	ends   []pending

	indent        int
	baseIndent    int
	continuation  int
	outdebt       int
	indents       []int
	indentLiteral string

	seenFor             bool
	seenForEnds         int
	seenImport          bool
	seenExport          bool
	importSpecifierList bool
	exportSpecifierList bool
}

func newLexer(src *source, code string, pos, depth int, opts Options) *Lexer {
	return &Lexer{src: src, code: code, pos: pos, depth: depth, opts: opts}
}

// Tokenize scans code and returns the rewritten token stream.
func Tokenize(code string, opts Options) ([]*token.Token, error) {
	tokens, _, err := TokenizeIndex(code, opts)
	return tokens, err
}

// TokenizeIndex is Tokenize that also reports how many bytes of code were
// consumed, which is less than len(code) only with UntilBalanced.
func TokenizeIndex(code string, opts Options) (tokens []*token.Token, consumed int, err error) {
	if opts.MaxInterpolationDepth <= 0 {
		opts.MaxInterpolationDepth = DefaultMaxInterpolationDepth
	}
	src := newSource(opts.Filename, code, opts)
	l := newLexer(src, src.clean(), 0, 0, opts)

	defer func() {
		if r := recover(); r != nil {
			lp, ok := r.(lexPanic)
			if !ok {
				panic(r)
			}
			tokens, consumed, err = nil, 0, lp.err
		}
	}()

	end := l.run()
	consumed = src.original(end)
	if end >= len(l.code) {
		consumed = len(code)
	}
	if opts.UntilBalanced || opts.NoRewrite {
		return l.tokens, consumed, nil
	}
	rw := &rewriter.Rewriter{Logger: opts.Logger}
	return rw.Rewrite(l.tokens), consumed, nil
}

// run scans from l.pos and returns the cleaned offset where it stopped.
func (l *Lexer) run() int {
	for l.pos < len(l.code) {
		l.chunk = l.code[l.pos:]
		n := l.identifierToken()
		if n == 0 {
			n = l.commentToken()
		}
		if n == 0 {
			n = l.whitespaceToken()
		}
		if n == 0 {
			n = l.lineToken(l.chunk, 0)
		}
		if n == 0 {
			n = l.stringToken()
		}
		if n == 0 {
			n = l.numberToken()
		}
		if n == 0 {
			n = l.regexToken()
		}
		if n == 0 {
			n = l.jsToken()
		}
		if n == 0 {
			n = l.literalToken()
		}
		l.pos += n
		if l.opts.UntilBalanced && len(l.ends) == 0 {
			return l.pos
		}
	}
	l.chunk = ""
	l.closeIndentation()
	if n := len(l.ends); n > 0 {
		end := l.ends[n-1]
		l.failAt(end.origin.Loc, "missing %s", end.tag)
	}
	return l.pos
}

// Token helpers.

func (l *Lexer) makeToken(tag token.Tag, text string, offset, length int) *token.Token {
	return &token.Token{Tag: tag, Text: text, Loc: l.src.span(l.pos+offset, length)}
}

func (l *Lexer) token(tag token.Tag, text string, offset, length int) *token.Token {
	t := l.makeToken(tag, text, offset, length)
	l.tokens = append(l.tokens, t)
	return t
}

func (l *Lexer) emit(tag token.Tag, text string) *token.Token {
	return l.token(tag, text, 0, len(text))
}

func (l *Lexer) generated(tag token.Tag, text string, offset int) *token.Token {
	t := l.token(tag, text, offset, 0)
	t.Generated = true
	return t
}

func (l *Lexer) prev() *token.Token {
	if len(l.tokens) == 0 {
		return nil
	}
	return l.tokens[len(l.tokens)-1]
}

func (l *Lexer) tag() token.Tag {
	if p := l.prev(); p != nil {
		return p.Tag
	}
	return token.None
}

// value returns the text of the last token, or of its origin when
// useOrigin is set and one exists.
func (l *Lexer) value(useOrigin bool) string {
	p := l.prev()
	if p == nil {
		return ""
	}
	if useOrigin && p.Origin != nil {
		return p.Origin.Text
	}
	return p.Text
}

func (l *Lexer) pop() *token.Token {
	t := l.tokens[len(l.tokens)-1]
	l.tokens = l.tokens[:len(l.tokens)-1]
	return t
}

// Errors.

func (l *Lexer) fail(offset, length int, format string, args ...any) {
	l.failAt(l.src.span(l.pos+offset, length), format, args...)
}

func (l *Lexer) failAt(loc *token.Location, format string, args ...any) {
	panic(lexPanic{&Error{
		Filename: l.src.name,
		Message:  fmt.Sprintf(format, args...),
		Loc:      *loc,
	}})
}

func itoa(n int) string { return strconv.Itoa(n) }
