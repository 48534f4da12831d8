package rewriter

import "github.com/shreeve/rip-sub000/token"

// rescueStowawayComments moves comments off tokens the parser discards, so
// they survive into the tree. Trailing comments move back to the last
// surviving token and comments that start a line move forward to the next
// one. When no surviving token exists a placeholder JS token carries them.
func (r *Rewriter) rescueStowawayComments() {
	insertPlaceholder := func(t *token.Token, j int, atEnd bool) {
		anchor := r.tokens[j]
		placeholder := generate(token.JS, "", anchor, t)
		if atEnd {
			if anchor.Tag != token.Terminator {
				r.tokens = append(r.tokens, generate(token.Terminator, "\n", anchor, nil))
			}
			r.tokens = append(r.tokens, placeholder)
			return
		}
		if anchor.Tag != token.Terminator {
			r.insert(0, generate(token.Terminator, "\n", anchor, nil))
		}
		r.insert(0, placeholder)
	}

	// Comments right before an interpolation closes stay put.
	dontShiftForward := func(i int) bool {
		for j := i + 1; j < len(r.tokens) && discarded[r.tokens[j].Tag]; j++ {
			if r.tokens[j].Tag == token.InterpolationEnd {
				return true
			}
		}
		return false
	}

	shiftForward := func(t *token.Token, i int) int {
		j := i
		for j < len(r.tokens) && discarded[r.tokens[j].Tag] {
			j++
		}
		if j < len(r.tokens) {
			for _, c := range t.Comments {
				c.Unshift = true
			}
			token.MoveComments(t, r.tokens[j])
			return 1
		}
		insertPlaceholder(t, len(r.tokens)-1, true)
		return 1
	}

	shiftBackward := func(t *token.Token, i int) int {
		j := i
		for j >= 0 && discarded[r.tokens[j].Tag] {
			j--
		}
		if j >= 0 {
			token.MoveComments(t, r.tokens[j])
			return 1
		}
		insertPlaceholder(t, 0, false)
		return 3
	}

	r.scanTokens(func(t *token.Token, i int) int {
		if len(t.Comments) == 0 {
			return 1
		}
		ret := 1
		carrier := &token.Token{}
		var keep []*token.Comment
		if discarded[t.Tag] {
			for _, c := range t.Comments {
				if !c.NewLine && !c.Here {
					carrier.Comments = append(carrier.Comments, c)
				} else {
					keep = append(keep, c)
				}
			}
			t.Comments = keep
			if len(carrier.Comments) > 0 {
				ret = shiftBackward(carrier, i-1)
			}
			if len(t.Comments) > 0 {
				shiftForward(t, i)
			}
		} else if !dontShiftForward(i) {
			for _, c := range t.Comments {
				if c.NewLine && !c.Unshift && !(t.Tag == token.JS && t.Generated) {
					carrier.Comments = append(carrier.Comments, c)
				} else {
					keep = append(keep, c)
				}
			}
			t.Comments = keep
			if len(carrier.Comments) > 0 {
				ret = shiftForward(carrier, i+1)
			}
		}
		if len(t.Comments) == 0 {
			t.Comments = nil
		}
		return ret
	})
}
