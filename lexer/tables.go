package lexer

import "github.com/shreeve/rip-sub000/token"

type tagSet map[token.Tag]bool

func newTagSet(tags ...token.Tag) tagSet {
	s := make(tagSet, len(tags))
	for _, t := range tags {
		s[t] = true
	}
	return s
}

func (s tagSet) with(tags ...token.Tag) tagSet {
	out := make(tagSet, len(s)+len(tags))
	for t := range s {
		out[t] = true
	}
	for _, t := range tags {
		out[t] = true
	}
	return out
}

type wordSet map[string]bool

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

// Keywords shared with the target language.
var jsKeywords = newWordSet(
	"true", "false", "null", "this",
	"new", "delete", "typeof", "in", "instanceof",
	"return", "throw", "break", "continue", "debugger", "yield", "await",
	"if", "else", "switch", "for", "while", "do", "try", "catch", "finally",
	"class", "extends", "super",
	"import", "export", "default",
)

var aliasMap = map[string]string{
	"and":  "&&",
	"or":   "||",
	"is":   "==",
	"isnt": "!=",
	"not":  "!",
	"yes":  "true",
	"no":   "false",
	"on":   "true",
	"off":  "false",
}

// Keywords of the language itself, aliases included.
var ripKeywords = newWordSet(
	"undefined", "Infinity", "NaN", "then", "unless", "until", "loop", "of", "by", "when",
	"and", "or", "is", "isnt", "not", "yes", "no", "on", "off",
)

// Words reserved by the target language that may not be used at all.
var reserved = newWordSet(
	"case", "function", "var", "void", "with", "const", "let", "enum",
	"native", "implements", "interface", "package", "private", "protected",
	"public", "static",
)

var strictProscribed = newWordSet("arguments", "eval")

// keywordTags maps a keyword to its tag once the contextual rules in
// identifierToken have had their say.
var keywordTags = map[string]token.Tag{
	"true":       token.Bool,
	"false":      token.Bool,
	"null":       token.Null,
	"this":       token.This,
	"new":        token.Unary,
	"delete":     token.Unary,
	"typeof":     token.Unary,
	"return":     token.Return,
	"throw":      token.Throw,
	"break":      token.Statement,
	"continue":   token.Statement,
	"debugger":   token.Statement,
	"yield":      token.Yield,
	"await":      token.Await,
	"if":         token.If,
	"else":       token.Else,
	"switch":     token.Switch,
	"for":        token.For,
	"while":      token.While,
	"do":         token.Do,
	"try":        token.Try,
	"catch":      token.Catch,
	"finally":    token.Finally,
	"class":      token.Class,
	"extends":    token.Extends,
	"super":      token.Super,
	"import":     token.Import,
	"export":     token.Export,
	"default":    token.Default,
	"undefined":  token.Undefined,
	"Infinity":   token.Infinity,
	"NaN":        token.NaN,
	"then":       token.Then,
	"unless":     token.If,
	"until":      token.Until,
	"loop":       token.Loop,
	"by":         token.By,
	"when":       token.When,
	"and":        token.LogicAnd,
	"or":         token.LogicOr,
	"is":         token.Compare,
	"isnt":       token.Compare,
	"not":        token.Unary,
	"yes":        token.Bool,
	"no":         token.Bool,
	"on":         token.Bool,
	"off":        token.Bool,
	"in":         token.Relation,
	"of":         token.Relation,
	"instanceof": token.Relation,
}

// Tokens which could legitimately be invoked or indexed. An opening
// parenthesis or bracket following these is a call or index, not a group
// or array.
var callable = newTagSet(
	token.Identifier, token.Property, token.RParen, token.RBracket, token.Exist,
	token.At, token.This, token.Super, token.DynamicImport,
)

var indexable = callable.with(
	token.Number, token.Infinity, token.NaN, token.String, token.StringEnd,
	token.Regex, token.RegexEnd, token.Bool, token.Null, token.Undefined,
	token.RBrace, token.Prototype,
)

// A slash after these is division, never the start of a regex.
var notRegex = indexable.with(token.Increment, token.Decrement)

var lineBreak = newTagSet(token.Indent, token.Outdent, token.Terminator)

var (
	mathOps    = newWordSet("*", "/", "%", "//", "%%")
	compareOps = newWordSet("==", "!=", "<", ">", "<=", ">=")
	compound   = newWordSet(
		"-=", "+=", "/=", "*=", "%=", "||=", "&&=", "?=", "<<=", ">>=", ">>>=",
		"&=", "^=", "|=", "**=", "//=", "%%=",
	)
	unaryMath = newWordSet("!", "~")
	shiftOps  = newWordSet("<<", ">>", ">>>")
)

// punctuation maps operator and bracket spellings to their own tags.
var punctuation = map[string]token.Tag{
	"&&":  token.LogicAnd,
	"||":  token.LogicOr,
	"&":   token.BitAnd,
	"|":   token.BitOr,
	"^":   token.BitXor,
	"**":  token.Power,
	"+":   token.Plus,
	"-":   token.Minus,
	"++":  token.Increment,
	"--":  token.Decrement,
	"=":   token.Assign,
	"?":   token.Exist,
	"@":   token.At,
	"::":  token.Prototype,
	"?.":  token.SoakAccess,
	"?::": token.SoakPrototype,
	".":   token.Access,
	"..":  token.Range,
	"...": token.Splat,
	",":   token.Comma,
	":":   token.Colon,
	"(":   token.LParen,
	")":   token.RParen,
	"[":   token.LBracket,
	"]":   token.RBracket,
	"{":   token.LBrace,
	"}":   token.RBrace,
	"->":  token.Func,
	"=>":  token.BoundFunc,
	"\\":  token.Backslash,
}

// closerTag is the tag an opening bracket waits for.
var closerTag = map[string]token.Tag{
	"(": token.RParen,
	"[": token.RBracket,
	"{": token.RBrace,
}

// isUnassignable returns the error for assigning to name, or "" when the
// assignment is allowed. display is the spelling used in the message.
func isUnassignable(name, display string) string {
	switch {
	case jsKeywords[name] || ripKeywords[name]:
		return "keyword '" + display + "' can't be assigned"
	case strictProscribed[name]:
		return "'" + display + "' can't be assigned"
	case reserved[name]:
		return "reserved word '" + display + "' can't be assigned"
	}
	return ""
}
