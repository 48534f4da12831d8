package lexer

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	mtoken "modernc.org/token"

	"github.com/shreeve/rip-sub000/scanner"
	"github.com/shreeve/rip-sub000/token"
)

const bom = '\uFEFF'

// shift records that every cleaned offset >= at sits delta bytes before its
// original offset.
type shift struct {
	at, delta int
}

// source is the read-only context shared by a lexer and every nested
// interpolation lexer it spawns: the original text, its line table and the
// compensation table that maps cleaned offsets back to original ones.
type source struct {
	name   string
	orig   string
	file   *mtoken.File
	shifts []shift
	// base is added to every reported range, for snippets embedded in a
	// larger document.
	base int
}

func newSource(name, orig string, opts Options) *source {
	f := mtoken.NewFile(name, len(orig))
	if len(orig) > 0 {
		f.SetLinesForContent([]byte(orig))
	}
	if opts.Line != 0 || opts.Column != 0 {
		f.AddLineColumnInfo(0, name, opts.Line+1, opts.Column+1)
	}
	return &source{name: name, orig: orig, file: f, base: opts.Offset}
}

// clean normalizes the original text for scanning. It strips a leading BOM
// and every carriage return, prepends a newline when the code starts with
// horizontal whitespace so the first line's indentation is measured, and
// trims trailing whitespace. Each removal is recorded in the shift table.
func (s *source) clean() string {
	code := s.orig
	removed := 0
	var sb strings.Builder
	sb.Grow(len(code) + 1)
	start := 0
	if strings.HasPrefix(code, string(bom)) {
		start = utf8.RuneLen(bom)
		removed = start
		s.shifts = append(s.shifts, shift{0, removed})
	}
	for i := start; i < len(code); i++ {
		if code[i] == '\r' {
			removed++
			s.shifts = append(s.shifts, shift{i + 1 - removed, removed})
			continue
		}
		sb.WriteByte(code[i])
	}
	cleaned := sb.String()
	if scanner.MatchWhitespace(cleaned) > 0 {
		cleaned = "\n" + cleaned
		moved := make([]shift, 0, len(s.shifts)+1)
		moved = append(moved, shift{0, -1})
		for _, sh := range s.shifts {
			moved = append(moved, shift{sh.at + 1, sh.delta - 1})
		}
		s.shifts = moved
	}
	return strings.TrimRightFunc(cleaned, func(r rune) bool { return unicode.IsSpace(r) || r == bom })
}

// original maps a cleaned offset to an offset into the original text.
func (s *source) original(off int) int {
	i := sort.Search(len(s.shifts), func(i int) bool { return s.shifts[i].at > off }) - 1
	if i >= 0 {
		off += s.shifts[i].delta
	}
	if off < 0 {
		return 0
	}
	if off > len(s.orig) {
		return len(s.orig)
	}
	return off
}

// lineCol returns the 0-based line and byte column of an original offset.
func (s *source) lineCol(off int) (int, int) {
	if len(s.orig) == 0 {
		return 0, 0
	}
	if off == len(s.orig) && s.orig[off-1] == '\n' {
		p := s.file.Position(s.file.Pos(off - 1))
		return p.Line, 0
	}
	p := s.file.Position(s.file.Pos(off))
	return p.Line - 1, p.Column - 1
}

// span builds the location of length cleaned bytes starting at start.
func (s *source) span(start, length int) *token.Location {
	first := s.original(start)
	last := first
	if length > 0 {
		last = s.original(start + length - 1)
	}
	end := last
	if length > 0 && last < len(s.orig) {
		end = last + 1
	}
	loc := &token.Location{Range: [2]int{first + s.base, end + s.base}}
	loc.FirstLine, loc.FirstColumn = s.lineCol(first)
	loc.LastLine, loc.LastColumn = s.lineCol(last)
	loc.LastLineExclusive, loc.LastColumnExclusive = s.lineCol(end)
	return loc
}
