package rewriter

import "github.com/shreeve/rip-sub000/token"

// addLocationDataToGeneratedTokens gives every token still lacking a
// location a zero-length one next to its neighbours. An INDENT made for a
// THEN body takes the location of the THEN.
func (r *Rewriter) addLocationDataToGeneratedTokens() {
	r.scanTokens(func(t *token.Token, i int) int {
		if t.Loc != nil {
			return 1
		}
		if t.FromThen && t.Tag == token.Indent && t.Origin != nil && t.Origin.Loc != nil {
			loc := *t.Origin.Loc
			t.Loc = &loc
			return 1
		}
		switch {
		case t.Tag == token.LBrace && i+1 < len(r.tokens) && r.tokens[i+1].Loc != nil:
			next := r.tokens[i+1].Loc
			t.Loc = token.Point(next.FirstLine, next.FirstColumn, next.Range[0])
		case i > 0 && r.tokens[i-1].Loc != nil:
			prev := r.tokens[i-1].Loc
			t.Loc = token.Point(prev.LastLine, prev.LastColumn+1, prev.Range[1])
		default:
			t.Loc = token.Point(0, 0, 0)
		}
		return 1
	})
}

// fixIndentationLocationData relocates OUTDENTs and generated closers to
// the end of what they close, and INDENTs to the start of a comment that
// opens their block.
func (r *Rewriter) fixIndentationLocationData() {
	comments := token.AllComments(r.tokens)

	type query struct {
		after         int
		indentSize    int
		hasIndentSize bool
		first         bool
		indented      bool
	}
	findPrecedingComment := func(t *token.Token, q query) *token.Comment {
		start := t.Loc.Range[0]
		matches := func(c *token.Comment) bool {
			if c.Outdented && !(q.hasIndentSize && c.IndentSize > q.indentSize) {
				return false
			}
			if q.indented && !c.Indented {
				return false
			}
			return c.Loc.Range[0] < start && c.Loc.Range[0] > q.after
		}
		if q.first {
			var last *token.Comment
			for k := len(comments) - 1; k >= 0; k-- {
				if matches(comments[k]) {
					last = comments[k]
				} else if last != nil {
					return last
				}
			}
			return last
		}
		for k := len(comments) - 1; k >= 0; k-- {
			if matches(comments[k]) {
				return comments[k]
			}
		}
		return nil
	}

	r.scanTokens(func(t *token.Token, i int) int {
		if !(t.Tag.Is(token.Indent, token.Outdent) || t.Generated && t.Tag.Is(token.CallEnd, token.RBrace)) {
			return 1
		}
		isIndent := t.Tag == token.Indent
		prev := t.PrevToken
		if prev == nil {
			if i == 0 {
				return 1
			}
			prev = r.tokens[i-1]
		}
		prevLoc := prev.Loc

		// A generated token sits where the previous token ended; to find
		// comments inside an empty block look before the next real token.
		useNext := t.Explicit || t.Generated
		target := t
		if useNext {
			for k := i; (target.Explicit || target.Generated) && k != len(r.tokens)-1; k++ {
				target = r.tokens[k]
			}
		}
		comment := findPrecedingComment(target, query{
			after:         prevLoc.Range[0],
			indentSize:    t.IndentSize,
			hasIndentSize: t.HasIndentSize,
			first:         isIndent,
			indented:      useNext,
		})
		if isIndent && (comment == nil || !comment.NewLine) {
			return 1
		}
		// An implicit call ending an `if` condition must not swallow the
		// indented comment that follows it.
		if t.Generated && t.Tag == token.CallEnd && comment != nil && comment.Indented {
			return 1
		}

		var loc token.Location
		if comment != nil {
			src := comment.Loc
			loc = src
			if isIndent {
				loc.FirstColumn = 0
				if comment.IndentSize > 0 {
					loc.Range[0] -= comment.IndentSize
				}
			}
		} else {
			loc = *token.Point(prevLoc.LastLine, prevLoc.LastColumn, prevLoc.Range[1])
			loc.LastLineExclusive, loc.LastColumnExclusive = prevLoc.LastLineExclusive, prevLoc.LastColumnExclusive
		}
		t.Loc = &loc
		return 1
	})
}
