package rewriter

import "github.com/shreeve/rip-sub000/token"

// frame is one entry of the balancing stack kept by
// addImplicitBracesAndParens. Frames with ours set were opened by the
// rewriter rather than by a token in the source.
type frame struct {
	tag  token.Tag
	idx  int
	ours bool
	// control marks an IF, TRY, CLASS and the like met inside an implicit
	// call or object; its INDENT must not close the call.
	control    bool
	sameLine   bool
	startsLine bool
	// continuationIndent is the continuation-line indent in effect where an
	// implicit object started.
	continuationIndent int
}

// findTagsBackwards reports whether one of tags is found walking back from
// i on the same line and nesting level.
func (r *Rewriter) findTagsBackwards(i int, tags ...token.Tag) bool {
	depth := 0
	for i >= 0 {
		tag := r.tag(i)
		if depth == 0 && (tag.Is(tags...) || expressionStart[tag] && !r.tokens[i].Generated || lineBreaks[tag]) {
			break
		}
		if expressionEnd[tag] {
			depth++
		}
		if expressionStart[tag] && depth > 0 {
			depth--
		}
		i--
	}
	return r.tag(i).Is(tags...)
}

// looksObjectish reports whether the tokens at j start an object member.
func (r *Rewriter) looksObjectish(j int) bool {
	if r.tag(j) == token.At && r.tag(j+2) == token.Colon || r.tag(j+1) == token.Colon {
		return true
	}
	if expressionStart[r.tag(j)] {
		end := -1
		r.detectEnd(j+1,
			func(t *token.Token, _ int) bool { return expressionEnd[t.Tag] },
			func(_ *token.Token, i int) { end = i },
			false)
		if end >= 0 && r.tag(end+1) == token.Colon {
			return true
		}
	}
	return false
}

// addImplicitBracesAndParens makes implicit calls and objects explicit by
// inserting generated CALL_START/CALL_END and {/} tokens. The stack tracks
// every open bracket, explicit or not, so the implicit ones can be closed
// at the right place.
func (r *Rewriter) addImplicitBracesAndParens() {
	var (
		stack []*frame
		start *frame
	)

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}
	pop := func() *frame {
		f := top()
		if f != nil {
			stack = stack[:len(stack)-1]
		}
		return f
	}
	isImplicit := func(f *frame) bool { return f != nil && f.ours }
	isImplicitObject := func(f *frame) bool { return isImplicit(f) && f.tag == token.LBrace }
	isImplicitCall := func(f *frame) bool { return isImplicit(f) && f.tag == token.LParen }
	inImplicit := func() bool { return isImplicit(top()) }
	inImplicitCall := func() bool { return isImplicitCall(top()) }
	inImplicitObject := func() bool { return isImplicitObject(top()) }
	inImplicitControl := func() bool { return inImplicit() && top().control }

	r.scanTokens(func(tok *token.Token, i int) int {
		tag := tok.Tag
		var prevTok, nextTok *token.Token
		prevTag, nextTag := token.None, token.None
		if i > 0 {
			prevTok = r.tokens[i-1]
			prevTag = prevTok.Tag
		}
		if i < len(r.tokens)-1 {
			nextTok = r.tokens[i+1]
			nextTag = nextTok.Tag
		}
		startIdx := i
		// forward returns the step to the next token, counting whatever
		// was spliced in before it.
		forward := func(n int) int { return i - startIdx + n }

		startImplicitCall := func(idx int) {
			stack = append(stack, &frame{tag: token.LParen, idx: idx, ours: true})
			r.insert(idx, generate(token.CallStart, "(", describe("implicit function call", tok), prevTok))
		}
		endImplicitCall := func() {
			pop()
			r.insert(i, generate(token.CallEnd, ")", describe("end of input", tok), prevTok))
			i++
		}
		startImplicitObject := func(idx int, startsLine bool, continuationIndent int) {
			stack = append(stack, &frame{
				tag:                token.LBrace,
				idx:                idx,
				ours:               true,
				sameLine:           true,
				startsLine:         startsLine,
				continuationIndent: continuationIndent,
			})
			r.insert(idx, generate(token.LBrace, "{", tok, prevTok))
		}
		endImplicitObject := func(j int) {
			pop()
			r.insert(j, generate(token.RBrace, "}", tok, prevTok))
			i++
		}
		implicitObjectContinues := func(j int) bool {
			next := -1
			r.detectEnd(j,
				func(t *token.Token, _ int) bool { return t.Tag == token.Terminator },
				func(_ *token.Token, k int) { next = k },
				true)
			return next >= 0 && r.looksObjectish(next+1)
		}

		// Don't end an implicit call or object on the next indent when a
		// control structure is one of its arguments or values.
		if (inImplicitCall() || inImplicitObject()) && controlInImplicit[tag] ||
			inImplicitObject() && prevTag == token.Colon && tag == token.For {
			stack = append(stack, &frame{idx: i, ours: true, control: true})
			return forward(1)
		}

		if tag == token.Indent && inImplicit() {
			// An INDENT closes an implicit call unless the line ended with
			// something that expects a block.
			if !prevTag.Is(token.BoundFunc, token.Func, token.LBracket, token.LParen,
				token.Comma, token.LBrace, token.Else, token.Assign) {
				for inImplicitCall() || inImplicitObject() && prevTag != token.Colon {
					if inImplicitCall() {
						endImplicitCall()
					} else {
						endImplicitObject(i)
					}
				}
			}
			if inImplicitControl() {
				pop()
			}
			stack = append(stack, &frame{tag: tag, idx: i})
			return forward(1)
		}

		if expressionStart[tag] {
			stack = append(stack, &frame{tag: tag, idx: i})
			return forward(1)
		}

		// Explicit closers close every implicit bracket inside them.
		if expressionEnd[tag] {
			for inImplicit() {
				switch {
				case inImplicitCall():
					endImplicitCall()
				case inImplicitObject():
					endImplicitObject(i)
				default:
					pop()
				}
			}
			start = pop()
		}

		inControlFlow := func() bool {
			seenFor := r.findTagsBackwards(i, token.For) &&
				r.findTagsBackwards(i, token.ForIn, token.ForOf, token.ForFrom)
			controlFlow := seenFor || r.findTagsBackwards(i, token.While, token.Until, token.Loop, token.LeadingWhen)
			if !controlFlow {
				return false
			}
			line := -1
			if tok.Loc != nil {
				line = tok.Loc.FirstLine
			}
			isFunc := false
			r.detectEnd(i,
				func(t *token.Token, _ int) bool { return lineBreaks[t.Tag] },
				func(_ *token.Token, k int) {
					if k == 0 {
						return
					}
					p := r.tokens[k-1]
					isFunc = p.Loc != nil && p.Loc.FirstLine == line && p.Tag.Is(token.Func, token.BoundFunc)
				},
				true)
			return isFunc
		}

		// Standard implicit calls: f a, f() b, f? c, h[0] d and f ...a.
		if (implicitFunc[tag] && tok.Spaced || tag == token.Exist && i > 0 && !r.tokens[i-1].Spaced) &&
			(implicitCall[nextTag] ||
				nextTag == token.Splat && implicitCall[r.tag(i+2)] && !r.findTagsBackwards(i, token.IndexStart, token.LBracket) ||
				implicitUnspacedCall[nextTag] && !nextTok.Spaced && !nextTok.NewLine) &&
			!inControlFlow() {
			if tag == token.Exist {
				tok.Tag = token.FuncExist
			}
			startImplicitCall(i + 1)
			return forward(2)
		}

		// An implicit call whose first argument is an indented implicit
		// object. Not on the line of a control structure, where
		// `if f\n  a: 1` would otherwise read as `if f(a: 1)`, and not on the
		// first line of an explicit array or object.
		if implicitFunc[tag] && r.tag(i+1) == token.Indent && r.looksObjectish(i+2) &&
			!r.findTagsBackwards(i, token.Class, token.Extends, token.If, token.Catch,
				token.Switch, token.LeadingWhen, token.For, token.While, token.Until) {
			f := top()
			explicitOpen := f != nil && f.tag.Is(token.LBrace, token.LBracket) && !isImplicit(f) &&
				r.findTagsBackwards(i, f.tag)
			if !explicitOpen {
				startImplicitCall(i + 1)
				stack = append(stack, &frame{tag: token.Indent, idx: i + 2})
				return forward(3)
			}
		}

		// Implicit objects start here.
		if tag == token.Colon {
			// Go back to the start of the key.
			var s int
			switch {
			case expressionEnd[r.tag(i-1)] && start != nil:
				s = start.idx
				if start.tag == token.LBracket && s > 0 && r.tag(s-1) == token.At && !r.tokens[s-1].Spaced {
					s--
				}
			case r.tag(i-2) == token.At:
				s = i - 2
			default:
				s = i - 1
			}
			// A colon with no key before it, as in `:a`, still opens the
			// object where it stands.
			s = min(max(s, 0), i)

			startsLine := s <= 0 || lineBreaks[r.tag(s-1)] || r.tokens[s-1].NewLine
			// Continuing an object that is already open, including one
			// indented right after an explicit `{`.
			if f := top(); f != nil {
				var below *frame
				if len(stack) > 1 {
					below = stack[len(stack)-2]
				}
				if (f.tag == token.LBrace ||
					f.tag == token.Indent && below != nil && below.tag == token.LBrace &&
						!isImplicit(below) && r.findTagsBackwards(f.idx-1, token.LBrace)) &&
					(startsLine || r.tag(s-1) == token.Comma || r.tag(s-1) == token.LBrace) &&
					!Unfinished[r.tag(s-1)] {
					return forward(1)
				}
			}

			continuationIndent := 0
			if i > 1 {
				continuationIndent = r.tokens[i-2].ContinuationLineIndent
			}
			startImplicitObject(s, startsLine, continuationIndent)
			return forward(2)
		}

		// Objects that started on an earlier line are no longer same-line.
		if lineBreaks[tag] {
			for k := len(stack) - 1; k >= 0; k-- {
				f := stack[k]
				if !isImplicit(f) {
					break
				}
				if isImplicitObject(f) {
					f.sameLine = false
				}
			}
		}

		// End implicit objects opened on a continuation line once its
		// indentation is over.
		if tag == token.Terminator && tok.EndsContinuation != nil {
			pre := *tok.EndsContinuation
			for inImplicitObject() && top().continuationIndent > pre {
				endImplicitObject(i)
			}
		}

		newLine := prevTag == token.Outdent || prevTok != nil && prevTok.NewLine
		if implicitEnd[tag] ||
			callClosers[tag] && newLine ||
			tag.Is(token.Range, token.Splat) && r.findTagsBackwards(i, token.IndexStart) {
		closing:
			for inImplicit() {
				f := top()
				switch {
				// The argument list of an implicit call ended.
				case inImplicitCall() && prevTag != token.Comma ||
					prevTag == token.Comma && tag == token.Terminator && nextTok == nil:
					endImplicitCall()
				// return a: 1, b: 2 unless true
				case inImplicitObject() && f.sameLine && tag != token.Terminator && prevTag != token.Colon &&
					!(tag.Is(token.PostIf, token.For, token.While, token.Until) && f.startsLine && implicitObjectContinues(i+1)):
					endImplicitObject(i)
				// End of line, no trailing comma, and the next line does
				// not continue an object that started a line.
				case inImplicitObject() && tag == token.Terminator && prevTag != token.Comma &&
					!(f.startsLine && r.looksObjectish(i+1)):
					endImplicitObject(i)
				case inImplicitControl() && f.idx < len(r.tokens) && r.tokens[f.idx].Tag == token.Class && tag == token.Terminator:
					pop()
				default:
					break closing
				}
			}
		}

		// A comma closes an implicit object when what follows does not
		// look like another member, as in trailing commas and
		//
		//     f a, b: c, d: e, f, g: h: i, j
		if tag == token.Comma && !r.looksObjectish(i+1) && inImplicitObject() &&
			!r.tag(i+2).Is(token.ForOf, token.ForIn) &&
			(nextTag != token.Terminator || !r.looksObjectish(i+2)) {
			// Before an OUTDENT the comma is insignificant and stays inside
			// the object.
			offset := 0
			if nextTag == token.Outdent {
				offset = 1
			}
			for inImplicitObject() {
				endImplicitObject(i + offset)
			}
		}
		return forward(1)
	})
}
