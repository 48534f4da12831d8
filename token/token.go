// Package token defines the token stream shared by the lexer, the rewriter
// and the downstream grammar: the closed Tag set, source locations and
// attached comments.
package token

import (
	"fmt"
	"strings"
)

// Tag identifies the grammatical role of a token.
type Tag uint8

const (
	None Tag = iota

	// Literals and names
	Identifier
	Property
	Number
	Infinity
	NaN
	String
	StringStart
	StringEnd
	NeoString
	InterpolationStart
	InterpolationEnd
	Regex
	RegexStart
	RegexEnd
	JS
	Bool
	Null
	Undefined
	This
	Super
	Statement

	// Keywords
	Return
	Throw
	Yield
	Await
	If
	PostIf
	Else
	Then
	Switch
	When
	LeadingWhen
	For
	Own
	ForIn
	ForOf
	ForFrom
	While
	Until
	Loop
	By
	Do
	DoIIFE
	Try
	Catch
	Finally
	Class
	Extends
	Import
	Export
	Default
	From
	As
	ImportAll
	ExportAll
	ImportMeta
	NewTarget
	DynamicImport

	// Structure
	Indent
	Outdent
	Terminator
	CallStart
	CallEnd
	IndexStart
	IndexEnd
	IndexSoak
	ParamStart
	ParamEnd
	FuncExist

	// Operator classes
	Unary
	UnaryMath
	Math
	Compare
	CompoundAssign
	Shift
	Relation
	BinExist
	LogicAnd
	LogicOr
	BitAnd
	BitOr
	BitXor
	Power
	Plus
	Minus
	Increment
	Decrement
	Assign
	Exist
	At
	Prototype
	SoakAccess
	SoakPrototype
	Access
	Range
	Splat
	Comma
	Colon
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Func
	BoundFunc
	Backslash

	numTags
)

var tagNames = [numTags]string{
	None:               "NONE",
	Identifier:         "IDENTIFIER",
	Property:           "PROPERTY",
	Number:             "NUMBER",
	Infinity:           "INFINITY",
	NaN:                "NAN",
	String:             "STRING",
	StringStart:        "STRING_START",
	StringEnd:          "STRING_END",
	NeoString:          "NEOSTRING",
	InterpolationStart: "INTERPOLATION_START",
	InterpolationEnd:   "INTERPOLATION_END",
	Regex:              "REGEX",
	RegexStart:         "REGEX_START",
	RegexEnd:           "REGEX_END",
	JS:                 "JS",
	Bool:               "BOOL",
	Null:               "NULL",
	Undefined:          "UNDEFINED",
	This:               "THIS",
	Super:              "SUPER",
	Statement:          "STATEMENT",
	Return:             "RETURN",
	Throw:              "THROW",
	Yield:              "YIELD",
	Await:              "AWAIT",
	If:                 "IF",
	PostIf:             "POST_IF",
	Else:               "ELSE",
	Then:               "THEN",
	Switch:             "SWITCH",
	When:               "WHEN",
	LeadingWhen:        "LEADING_WHEN",
	For:                "FOR",
	Own:                "OWN",
	ForIn:              "FORIN",
	ForOf:              "FOROF",
	ForFrom:            "FORFROM",
	While:              "WHILE",
	Until:              "UNTIL",
	Loop:               "LOOP",
	By:                 "BY",
	Do:                 "DO",
	DoIIFE:             "DO_IIFE",
	Try:                "TRY",
	Catch:              "CATCH",
	Finally:            "FINALLY",
	Class:              "CLASS",
	Extends:            "EXTENDS",
	Import:             "IMPORT",
	Export:             "EXPORT",
	Default:            "DEFAULT",
	From:               "FROM",
	As:                 "AS",
	ImportAll:          "IMPORT_ALL",
	ExportAll:          "EXPORT_ALL",
	ImportMeta:         "IMPORT_META",
	NewTarget:          "NEW_TARGET",
	DynamicImport:      "DYNAMIC_IMPORT",
	Indent:             "INDENT",
	Outdent:            "OUTDENT",
	Terminator:         "TERMINATOR",
	CallStart:          "CALL_START",
	CallEnd:            "CALL_END",
	IndexStart:         "INDEX_START",
	IndexEnd:           "INDEX_END",
	IndexSoak:          "INDEX_SOAK",
	ParamStart:         "PARAM_START",
	ParamEnd:           "PARAM_END",
	FuncExist:          "FUNC_EXIST",
	Unary:              "UNARY",
	UnaryMath:          "UNARY_MATH",
	Math:               "MATH",
	Compare:            "COMPARE",
	CompoundAssign:     "COMPOUND_ASSIGN",
	Shift:              "SHIFT",
	Relation:           "RELATION",
	BinExist:           "BIN?",
	LogicAnd:           "&&",
	LogicOr:            "||",
	BitAnd:             "&",
	BitOr:              "|",
	BitXor:             "^",
	Power:              "**",
	Plus:               "+",
	Minus:              "-",
	Increment:          "++",
	Decrement:          "--",
	Assign:             "=",
	Exist:              "?",
	At:                 "@",
	Prototype:          "::",
	SoakAccess:         "?.",
	SoakPrototype:      "?::",
	Access:             ".",
	Range:              "..",
	Splat:              "...",
	Comma:              ",",
	Colon:              ":",
	LParen:             "(",
	RParen:             ")",
	LBracket:           "[",
	RBracket:           "]",
	LBrace:             "{",
	RBrace:             "}",
	Func:               "->",
	BoundFunc:          "=>",
	Backslash:          "\\",
}

// String returns the grammar name of the tag: the upper-case symbol for
// named tags and the literal spelling for punctuation.
func (t Tag) String() string {
	if t < numTags {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Is reports whether t is one of tags.
func (t Tag) Is(tags ...Tag) bool {
	for _, x := range tags {
		if t == x {
			return true
		}
	}
	return false
}

var tagsByName map[string]Tag

func init() {
	tagsByName = make(map[string]Tag, numTags)
	for t := Tag(1); t < numTags; t++ {
		tagsByName[tagNames[t]] = t
	}
}

// Lookup returns the tag whose grammar name is name.
func Lookup(name string) (Tag, bool) {
	t, ok := tagsByName[name]
	return t, ok
}

// Token is one element of the stream handed to the parser.
type Token struct {
	Tag  Tag
	Text string
	// Indent is the width delta carried by INDENT and OUTDENT.
	Indent int
	Loc    *Location
	// Origin points at the token (or a synthetic description) this one was
	// derived from. It is used for error messages only.
	Origin    *Token
	Generated bool
	Explicit  bool
	Spaced    bool
	NewLine   bool
	// FromThen marks an INDENT synthesized for a single-line THEN body.
	FromThen bool

	IndentSize    int
	HasIndentSize bool

	// ContinuationLineIndent is the indent a continuation line reached
	// after this token; zero when the next line was not a continuation.
	ContinuationLineIndent int
	// EndsContinuation is set on a TERMINATOR that closes a continuation
	// block; it holds the indent in effect before the continuation.
	EndsContinuation *int

	// PrevToken is the real predecessor of an OUTDENT that replaced a
	// removed TERMINATOR.
	PrevToken *Token

	Data     map[string]any
	Extra    map[string]any
	Comments []*Comment
}

// SetData records a side-channel value for the grammar.
func (t *Token) SetData(key string, val any) {
	if t.Data == nil {
		t.Data = make(map[string]any)
	}
	t.Data[key] = val
}

// String formats the token the way the CLI and debug dumps print it.
func (t *Token) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(t.Tag.String())
	sb.WriteByte(' ')
	sb.WriteString(strings.ReplaceAll(t.Text, "\n", `\n`))
	sb.WriteByte(']')
	if len(t.Comments) > 0 {
		sb.WriteByte('*')
	}
	return sb.String()
}

// Tags returns the tag of every token, in order.
func Tags(tokens []*Token) []Tag {
	tags := make([]Tag, len(tokens))
	for i, t := range tokens {
		tags[i] = t.Tag
	}
	return tags
}

// Dump renders tokens as a single line of "TAG/text" pairs.
func Dump(tokens []*Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		s := t.Tag.String() + "/" + strings.ReplaceAll(t.Text, "\n", `\n`)
		if len(t.Comments) > 0 {
			s += "*"
		}
		parts[i] = s
	}
	return strings.Join(parts, " ")
}
