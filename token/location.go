package token

import "fmt"

// Location is the source span of a token or comment. Lines and columns are
// 0-based; columns count bytes. Range holds absolute byte offsets into the
// original source, end exclusive.
type Location struct {
	FirstLine           int
	FirstColumn         int
	LastLine            int
	LastColumn          int
	LastLineExclusive   int
	LastColumnExclusive int
	Range               [2]int
}

// Point returns a zero-length location at the given position.
func Point(line, column, offset int) *Location {
	return &Location{
		FirstLine:           line,
		FirstColumn:         column,
		LastLine:            line,
		LastColumn:          column,
		LastLineExclusive:   line,
		LastColumnExclusive: column,
		Range:               [2]int{offset, offset},
	}
}

// Len returns the number of source bytes covered.
func (l *Location) Len() int { return l.Range[1] - l.Range[0] }

// String renders the span 1-based, as line:col-line:col.
func (l *Location) String() string {
	if l == nil {
		return "-"
	}
	return fmt.Sprintf("%d:%d-%d:%d", l.FirstLine+1, l.FirstColumn+1, l.LastLine+1, l.LastColumn+1)
}

// Comment is a source comment carried by the token it is attached to.
type Comment struct {
	Content string
	// Here is set for ### block comments.
	Here bool
	// NewLine is set when only whitespace precedes the comment on its line.
	NewLine bool
	// IndentSize is the comment's column when it starts a line, -1 when
	// unknown.
	IndentSize          int
	Indented            bool
	Outdented           bool
	PrecededByBlankLine bool
	// Unshift asks the compiler to emit the comment before, rather than
	// after, the token that owns it.
	Unshift bool
	Heregex bool
	Loc     Location
}

// MoveComments transfers every comment owned by from onto to. Comments
// flagged Unshift go in front of to's existing comments.
func MoveComments(from, to *Token) {
	if from == nil || len(from.Comments) == 0 {
		return
	}
	if len(to.Comments) != 0 {
		var unshifted []*Comment
		for _, c := range from.Comments {
			if c.Unshift {
				unshifted = append(unshifted, c)
			} else {
				to.Comments = append(to.Comments, c)
			}
		}
		to.Comments = append(unshifted, to.Comments...)
	} else {
		to.Comments = from.Comments
	}
	from.Comments = nil
}

// AllComments returns every comment in the stream ordered by start offset.
func AllComments(tokens []*Token) []*Comment {
	var all []*Comment
	for _, t := range tokens {
		all = append(all, t.Comments...)
	}
	// Comments are attached in source order already except for those
	// moved forward by the rewriter; a stable insertion sort keeps it cheap.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].Loc.Range[0] < all[j-1].Loc.Range[0]; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	return all
}

// Clone returns a deep copy of tokens. Origin and PrevToken links that
// point inside the slice are re-pointed at the copies.
func Clone(tokens []*Token) []*Token {
	index := make(map[*Token]*Token, len(tokens))
	out := make([]*Token, len(tokens))
	for i, t := range tokens {
		c := *t
		if t.Loc != nil {
			loc := *t.Loc
			c.Loc = &loc
		}
		if t.EndsContinuation != nil {
			v := *t.EndsContinuation
			c.EndsContinuation = &v
		}
		c.Data = cloneMap(t.Data)
		c.Extra = cloneMap(t.Extra)
		if t.Comments != nil {
			c.Comments = make([]*Comment, len(t.Comments))
			for j, cm := range t.Comments {
				cc := *cm
				c.Comments[j] = &cc
			}
		}
		out[i] = &c
		index[t] = &c
	}
	for _, c := range out {
		if o, ok := index[c.Origin]; ok {
			c.Origin = o
		}
		if p, ok := index[c.PrevToken]; ok {
			c.PrevToken = p
		}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
