// Package rewriter cleans up the raw lexer stream before the grammar sees
// it: it balances brackets, normalizes single-line blocks into indented
// ones, and makes implicit calls and objects explicit. It works in passes
// over the stream, inserting and retagging tokens in place.
package rewriter

import (
	"log"
	"slices"

	"github.com/shreeve/rip-sub000/token"
)

// Rewriter runs the rewriting passes over one token stream.
type Rewriter struct {
	// Logger receives the stream before and after rewriting when set.
	Logger *log.Logger

	tokens []*token.Token
}

// Rewrite rewrites tokens and returns the result. The input slice is
// reused, so callers must not keep using it.
func (r *Rewriter) Rewrite(tokens []*token.Token) []*token.Token {
	r.tokens = tokens
	if r.Logger != nil {
		r.Logger.Printf("initial token stream: %s", token.Dump(r.tokens))
	}
	r.removeLeadingNewlines()
	r.closeOpenCalls()
	r.closeOpenIndexes()
	r.normalizeLines()
	r.tagPostfixConditionals()
	r.addImplicitBracesAndParens()
	r.rescueStowawayComments()
	r.addLocationDataToGeneratedTokens()
	r.fixIndentationLocationData()
	r.exposeTokenDataToGrammar()
	if r.Logger != nil {
		r.Logger.Printf("rewritten token stream: %s", token.Dump(r.tokens))
	}
	out := r.tokens
	r.tokens = nil
	return out
}

// Rewrite runs a fresh Rewriter over tokens.
func Rewrite(tokens []*token.Token) []*token.Token {
	return new(Rewriter).Rewrite(tokens)
}

// scanTokens calls fn for each token in turn. fn returns how far to move,
// which lets it account for tokens it inserted or removed.
func (r *Rewriter) scanTokens(fn func(t *token.Token, i int) int) {
	for i := 0; i < len(r.tokens); {
		i += fn(r.tokens[i], i)
	}
}

// detectEnd walks forward from i until condition holds at the current
// nesting level, or until the level drops below where it started, and
// then runs action. With returnOnNegative the second case returns without
// running action.
func (r *Rewriter) detectEnd(i int, condition func(t *token.Token, i int) bool, action func(t *token.Token, i int), returnOnNegative bool) int {
	levels := 0
	for ; i < len(r.tokens); i++ {
		t := r.tokens[i]
		if levels == 0 && condition(t, i) {
			action(t, i)
			return i
		}
		if expressionStart[t.Tag] {
			levels++
		} else if expressionEnd[t.Tag] {
			levels--
		}
		if levels < 0 {
			if !returnOnNegative {
				action(t, i)
			}
			return i
		}
	}
	return i - 1
}

func (r *Rewriter) tag(i int) token.Tag {
	if i < 0 || i >= len(r.tokens) {
		return token.None
	}
	return r.tokens[i].Tag
}

func (r *Rewriter) insert(i int, tokens ...*token.Token) {
	r.tokens = slices.Insert(r.tokens, i, tokens...)
}

func (r *Rewriter) remove(i, n int) {
	r.tokens = slices.Delete(r.tokens, i, i+n)
}

// generate makes a synthetic token. Comments on commentsToken move to it.
func generate(tag token.Tag, text string, origin, commentsToken *token.Token) *token.Token {
	t := &token.Token{Tag: tag, Text: text, Generated: true, Origin: origin}
	if commentsToken != nil {
		token.MoveComments(commentsToken, t)
	}
	return t
}

// describe makes an origin that only names what a generated token stands
// for, located at loc.
func describe(text string, at *token.Token) *token.Token {
	o := &token.Token{Text: text}
	if at != nil {
		o.Loc = at.Loc
	}
	return o
}

// indentation returns an INDENT/OUTDENT pair. With an origin the pair is
// generated from it; without one it is explicit.
func (r *Rewriter) indentation(origin *token.Token) (*token.Token, *token.Token) {
	indent := &token.Token{Tag: token.Indent, Text: "2", Indent: 2}
	outdent := &token.Token{Tag: token.Outdent, Text: "2", Indent: 2}
	if origin != nil {
		indent.Generated, outdent.Generated = true, true
		indent.Origin, outdent.Origin = origin, origin
	} else {
		indent.Explicit, outdent.Explicit = true, true
	}
	return indent, outdent
}

// removeLeadingNewlines drops TERMINATORs at the start of the stream. Their
// comments move to the first real token.
func (r *Rewriter) removeLeadingNewlines() {
	i := 0
	for i < len(r.tokens) && r.tokens[i].Tag == token.Terminator {
		i++
	}
	if i == 0 || i == len(r.tokens) {
		return
	}
	for _, t := range r.tokens[:i] {
		token.MoveComments(t, r.tokens[i])
	}
	r.remove(0, i)
}

// closeOpenCalls retags the closer of every call as CALL_END, so a call
// opened with CALL_START always ends with one.
func (r *Rewriter) closeOpenCalls() {
	condition := func(t *token.Token, _ int) bool {
		return t.Tag == token.RParen || t.Tag == token.CallEnd
	}
	action := func(t *token.Token, _ int) {
		t.Tag = token.CallEnd
	}
	r.scanTokens(func(t *token.Token, i int) int {
		if t.Tag == token.CallStart {
			r.detectEnd(i+1, condition, action, false)
		}
		return 1
	})
}

// closeOpenIndexes does the same for indexes. An index directly followed by
// a colon is a computed property key and becomes a plain bracket pair.
// INDEX_SOAK only prefixes an INDEX_START and opens nothing itself.
func (r *Rewriter) closeOpenIndexes() {
	var start *token.Token
	condition := func(t *token.Token, _ int) bool {
		return t.Tag == token.RBracket || t.Tag == token.IndexEnd
	}
	action := func(t *token.Token, i int) {
		if r.tag(i+1) == token.Colon {
			start.Tag = token.LBracket
			t.Tag = token.RBracket
		} else {
			t.Tag = token.IndexEnd
		}
	}
	r.scanTokens(func(t *token.Token, i int) int {
		if t.Tag == token.IndexStart {
			start = t
			r.detectEnd(i+1, condition, action, false)
		}
		return 1
	})
}

// normalizeLines wraps single-line bodies (after THEN, ELSE, ->, TRY and
// friends) in INDENT/OUTDENT so the grammar only deals with blocks. THEN
// itself is removed once its body is wrapped.
func (r *Rewriter) normalizeLines() {
	var (
		starter     token.Tag
		outdent     *token.Token
		nestedThens int
	)

	condition := func(t *token.Token, i int) bool {
		// An ELSE belongs to the innermost THEN still waiting for one.
		if starter == token.Then {
			switch t.Tag {
			case token.Then:
				nestedThens++
				return false
			case token.Else:
				if nestedThens > 0 {
					nestedThens--
					return false
				}
			}
		}
		closes := t.Text != ";" && singleClosers[t.Tag] &&
			!(t.Tag == token.Terminator && expressionClose[r.tag(i+1)]) &&
			!(t.Tag == token.Else && starter != token.Then) &&
			!(t.Tag.Is(token.Catch, token.Finally) && starter.Is(token.Func, token.BoundFunc))
		return closes || callClosers[t.Tag] && i > 0 &&
			(r.tokens[i-1].NewLine || r.tokens[i-1].Tag == token.Outdent)
	}

	action := func(t *token.Token, i int) {
		if t.Tag == token.Else && r.tag(i-1) == token.Outdent {
			i--
		}
		if r.tag(i-1) == token.Comma {
			i--
		}
		r.insert(i, outdent)
	}

	r.scanTokens(func(t *token.Token, i int) int {
		tag := t.Tag
		conditionTag := tag.Is(token.Func, token.BoundFunc) &&
			r.findTagsBackwards(i, token.If, token.While, token.For, token.Until, token.Switch,
				token.When, token.LeadingWhen, token.LBracket, token.IndexStart) &&
			!r.findTagsBackwards(i, token.Then, token.Range, token.Splat)

		if tag == token.Terminator {
			if r.tag(i+1) == token.Else && r.tag(i-1) != token.Outdent {
				indent, out := r.indentation(nil)
				r.remove(i, 1)
				r.insert(i, indent, out)
				return 1
			}
			if expressionClose[r.tag(i+1)] {
				if t.Text == ";" && r.tag(i+1) == token.Outdent {
					next := r.tokens[i+1]
					next.PrevToken = t
					token.MoveComments(t, next)
				}
				r.remove(i, 1)
				return 0
			}
		}
		if tag == token.Catch {
			for j := 1; j <= 2; j++ {
				if r.tag(i+j).Is(token.Outdent, token.Terminator, token.Finally) {
					indent, out := r.indentation(nil)
					r.insert(i+j, indent, out)
					return 2 + j
				}
			}
		}
		if tag.Is(token.Func, token.BoundFunc) &&
			(r.tag(i+1).Is(token.Comma, token.RBracket) || r.tag(i+1) == token.Access && t.NewLine) {
			indent, out := r.indentation(t)
			r.insert(i+1, indent, out)
			return 1
		}
		if singleLiners[tag] && r.tag(i+1) != token.Indent &&
			!(tag == token.Else && r.tag(i+1) == token.If) && !conditionTag {
			starter = tag
			nestedThens = 0
			var indent *token.Token
			indent, outdent = r.indentation(t)
			if starter == token.Then {
				indent.FromThen = true
			}
			r.insert(i+1, indent)
			r.detectEnd(i+2, condition, action, false)
			if tag == token.Then {
				r.remove(i, 1)
			}
		}
		return 1
	})
}

// tagPostfixConditionals retags IF as POST_IF when it trails the statement
// it guards, which shows as no block opening after the condition.
func (r *Rewriter) tagPostfixConditionals() {
	var original *token.Token
	condition := func(t *token.Token, i int) bool {
		return t.Tag == token.Terminator || t.Tag == token.Indent && !singleLiners[r.tag(i-1)]
	}
	action := func(t *token.Token, _ int) {
		if t.Tag != token.Indent || t.Generated && !t.FromThen {
			original.Tag = token.PostIf
		}
	}
	r.scanTokens(func(t *token.Token, i int) int {
		if t.Tag != token.If {
			return 1
		}
		original = t
		r.detectEnd(i+1, condition, action, false)
		return 1
	})
}

// exposeTokenDataToGrammar copies each token's Data into Extra, marking
// generated tokens, so the grammar reads one map.
func (r *Rewriter) exposeTokenDataToGrammar() {
	for _, t := range r.tokens {
		if !t.Generated && len(t.Data) == 0 {
			continue
		}
		t.Extra = make(map[string]any, len(t.Data)+1)
		for k, v := range t.Data {
			t.Extra[k] = v
		}
		if t.Generated {
			t.Extra["generated"] = true
		}
	}
}
