package rewriter

import "github.com/shreeve/rip-sub000/token"

// Set is a set of tags.
type Set map[token.Tag]bool

func set(tags ...token.Tag) Set {
	s := make(Set, len(tags))
	for _, t := range tags {
		s[t] = true
	}
	return s
}

func union(sets ...Set) Set {
	out := make(Set)
	for _, s := range sets {
		for t := range s {
			out[t] = true
		}
	}
	return out
}

// Balanced pairs of tokens that must nest properly.
var balancedPairs = [][2]token.Tag{
	{token.LParen, token.RParen},
	{token.LBracket, token.RBracket},
	{token.LBrace, token.RBrace},
	{token.Indent, token.Outdent},
	{token.CallStart, token.CallEnd},
	{token.ParamStart, token.ParamEnd},
	{token.IndexStart, token.IndexEnd},
	{token.StringStart, token.StringEnd},
	{token.InterpolationStart, token.InterpolationEnd},
	{token.RegexStart, token.RegexEnd},
}

var (
	expressionStart = make(Set)
	expressionEnd   = make(Set)
	// Inverses maps each half of a balanced pair to the other half.
	Inverses = make(map[token.Tag]token.Tag)
)

func init() {
	for _, p := range balancedPairs {
		expressionStart[p[0]] = true
		expressionEnd[p[1]] = true
		Inverses[p[0]] = p[1]
		Inverses[p[1]] = p[0]
	}
	expressionClose = union(set(token.Catch, token.Then, token.Else, token.Finally), expressionEnd)
	discarded = union(discarded, implicitUnspacedCall, implicitEnd, callClosers, controlInImplicit)
}

// Tokens that indicate the close of a clause of an expression.
var expressionClose Set

// Tokens that, if followed by an implicit call argument, start the call.
var implicitFunc = set(
	token.Identifier, token.Property, token.Super, token.RParen, token.CallEnd,
	token.RBracket, token.IndexEnd, token.At, token.This,
)

// If preceded by an implicitFunc token, these start an implicit call.
var implicitCall = set(
	token.Identifier, token.Property, token.Number, token.Infinity, token.NaN,
	token.String, token.StringStart, token.Regex, token.RegexStart, token.JS,
	token.ParamStart, token.Class, token.If, token.Try, token.Switch, token.This,
	token.DynamicImport, token.ImportMeta, token.NewTarget,
	token.Undefined, token.Null, token.Bool,
	token.Unary, token.Do, token.DoIIFE, token.Yield, token.Await, token.UnaryMath,
	token.Super, token.Throw,
	token.At, token.Func, token.BoundFunc, token.LBracket, token.LParen, token.LBrace,
	token.Decrement, token.Increment,
)

var implicitUnspacedCall = set(token.Plus, token.Minus)

// Tokens that always mark the end of an implicit call for single-liners.
var implicitEnd = set(
	token.PostIf, token.For, token.While, token.Until, token.When, token.By,
	token.Loop, token.Terminator,
)

// Single-line flavors of block expressions that have unclosed endings.
// The grammar can't disambiguate them, so we insert the implicit indentation.
var singleLiners = set(token.Else, token.Func, token.BoundFunc, token.Try, token.Finally, token.Then)
var singleClosers = set(token.Terminator, token.Catch, token.Finally, token.Else, token.Outdent, token.LeadingWhen)

var lineBreaks = set(token.Terminator, token.Indent, token.Outdent)

// Tokens that close open calls when they follow a newline.
var callClosers = set(token.Access, token.SoakAccess, token.Prototype, token.SoakPrototype)

// Tokens that prevent a subsequent indent from ending implicit calls/objects.
var controlInImplicit = set(token.If, token.Try, token.Finally, token.Catch, token.Class, token.Switch)

// Tokens the parser drops; comments attached to them must move.
var discarded = set(
	token.LParen, token.RParen, token.LBracket, token.RBracket, token.LBrace, token.RBrace,
	token.Colon, token.Access, token.Range, token.Splat, token.Comma, token.Assign,
	token.Increment, token.Decrement, token.Exist,
	token.As, token.Await, token.CallStart, token.CallEnd, token.Default, token.Do,
	token.DoIIFE, token.Else, token.Extends, token.Export, token.ForIn, token.ForOf,
	token.ForFrom, token.Import, token.Indent, token.IndexSoak, token.IndexStart,
	token.InterpolationEnd, token.InterpolationStart, token.LeadingWhen,
	token.Outdent, token.ParamEnd, token.RegexStart, token.RegexEnd, token.Return,
	token.StringEnd, token.Throw, token.Unary, token.Yield,
)

// Unfinished holds the tags that leave a line syntactically open, so the
// line break after them does not end the statement.
var Unfinished = set(
	token.Backslash, token.Access, token.SoakAccess, token.SoakPrototype,
	token.Unary, token.Do, token.DoIIFE, token.Math, token.UnaryMath,
	token.Plus, token.Minus, token.Power, token.Shift, token.Relation,
	token.Compare, token.BitAnd, token.BitXor, token.BitOr,
	token.LogicAnd, token.LogicOr, token.BinExist, token.Extends,
)
