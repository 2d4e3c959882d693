// Package highlight turns syntax captures into classified tokens, either
// synchronously or on a background worker that drops stale results.
package highlight

import (
	"strings"

	"github.com/dshills/textcore/internal/syntax/query"
)

// TokenType is the semantic class of a token.
type TokenType uint16

// Token types. Names follow the dotted capture names used by the
// highlight queries.
const (
	TokenNone TokenType = iota

	TokenComment
	TokenCommentLine
	TokenCommentBlock
	TokenCommentDoc

	TokenString
	TokenStringEscape
	TokenStringRegexp
	TokenStringSpecial

	TokenNumber
	TokenNumberInteger
	TokenNumberFloat

	TokenKeyword
	TokenKeywordControl     // if, else, for, return
	TokenKeywordOperator    // new, typeof, delete
	TokenKeywordOther       // package, import, export
	TokenKeywordDeclaration // var, let, const, func, type

	TokenOperator
	TokenOperatorAssignment
	TokenOperatorComparison
	TokenOperatorArithmetic
	TokenOperatorLogical
	TokenPunctuation
	TokenPunctuationBracket
	TokenPunctuationDelimiter

	TokenVariable
	TokenVariableParameter
	TokenVariableOther
	TokenVariableBuiltin
	TokenConstant
	TokenConstantLanguage // true, false, nil, null

	TokenFunction
	TokenFunctionDeclaration
	TokenFunctionCall
	TokenFunctionMethod
	TokenFunctionBuiltin

	TokenTypeName
	TokenTypeBuiltin
	TokenTypeClass

	TokenTag
	TokenAttribute
	TokenNamespace
	TokenLabel
	TokenMeta

	TokenInvalid

	tokenTypeCount
)

var tokenTypeNames = [tokenTypeCount]string{
	TokenNone: "none",

	TokenComment:      "comment",
	TokenCommentLine:  "comment.line",
	TokenCommentBlock: "comment.block",
	TokenCommentDoc:   "comment.block.documentation",

	TokenString:        "string",
	TokenStringEscape:  "string.escape",
	TokenStringRegexp:  "string.regexp",
	TokenStringSpecial: "string.special",

	TokenNumber:        "number",
	TokenNumberInteger: "number.integer",
	TokenNumberFloat:   "number.float",

	TokenKeyword:            "keyword",
	TokenKeywordControl:     "keyword.control",
	TokenKeywordOperator:    "keyword.operator",
	TokenKeywordOther:       "keyword.other",
	TokenKeywordDeclaration: "keyword.declaration",

	TokenOperator:             "operator",
	TokenOperatorAssignment:   "operator.assignment",
	TokenOperatorComparison:   "operator.comparison",
	TokenOperatorArithmetic:   "operator.arithmetic",
	TokenOperatorLogical:      "operator.logical",
	TokenPunctuation:          "punctuation",
	TokenPunctuationBracket:   "punctuation.bracket",
	TokenPunctuationDelimiter: "punctuation.delimiter",

	TokenVariable:          "variable",
	TokenVariableParameter: "variable.parameter",
	TokenVariableOther:     "variable.other",
	TokenVariableBuiltin:   "variable.builtin",
	TokenConstant:          "constant",
	TokenConstantLanguage:  "constant.language",

	TokenFunction:            "function",
	TokenFunctionDeclaration: "function.declaration",
	TokenFunctionCall:        "function.call",
	TokenFunctionMethod:      "function.method",
	TokenFunctionBuiltin:     "function.builtin",

	TokenTypeName:    "type",
	TokenTypeBuiltin: "type.builtin",
	TokenTypeClass:   "type.class",

	TokenTag:       "tag",
	TokenAttribute: "attribute",
	TokenNamespace: "namespace",
	TokenLabel:     "label",
	TokenMeta:      "meta",

	TokenInvalid: "invalid",
}

var captureToToken = func() map[string]TokenType {
	m := make(map[string]TokenType, len(tokenTypeNames))
	for i, name := range tokenTypeNames {
		m[name] = TokenType(i)
	}
	return m
}()

// String returns the dotted name of the token type.
func (t TokenType) String() string {
	if t < tokenTypeCount {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// IsComment reports whether t is a comment type.
func (t TokenType) IsComment() bool { return t >= TokenComment && t <= TokenCommentDoc }

// IsString reports whether t is a string type.
func (t TokenType) IsString() bool { return t >= TokenString && t <= TokenStringSpecial }

// IsKeyword reports whether t is a keyword type.
func (t TokenType) IsKeyword() bool { return t >= TokenKeyword && t <= TokenKeywordDeclaration }

// IsFunction reports whether t is a function type.
func (t TokenType) IsFunction() bool { return t >= TokenFunction && t <= TokenFunctionBuiltin }

// TokenTypeFromCapture classifies a capture name. Unknown names fall back
// to their longest known dotted prefix, so "keyword.control.return" is
// TokenKeywordControl and "string.special.url" is TokenStringSpecial.
func TokenTypeFromCapture(name string) TokenType {
	for name != "" {
		if t, ok := captureToToken[name]; ok {
			return t
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			break
		}
		name = name[:i]
	}
	return TokenNone
}

// Token is a classified byte span.
type Token struct {
	StartByte uint32
	EndByte   uint32
	Type      TokenType
	Capture   string
}

// Len is the byte length of the token.
func (t Token) Len() uint32 {
	return t.EndByte - t.StartByte
}

// Tokens classifies captures, keeping their order. Captures whose name
// maps to no token type are dropped.
func Tokens(caps []query.Capture) []Token {
	out := make([]Token, 0, len(caps))
	for _, c := range caps {
		tt := TokenTypeFromCapture(c.Name)
		if tt == TokenNone || c.StartByte == c.EndByte {
			continue
		}
		out = append(out, Token{StartByte: c.StartByte, EndByte: c.EndByte, Type: tt, Capture: c.Name})
	}
	return out
}

// Flatten paints tokens in order, later tokens covering earlier ones, and
// returns the visible non-overlapping spans in byte order. Adjacent spans
// from the same token are merged.
func Flatten(tokens []Token) []Token {
	if len(tokens) == 0 {
		return nil
	}
	lo, hi := tokens[0].StartByte, tokens[0].EndByte
	for _, t := range tokens[1:] {
		lo, hi = min(lo, t.StartByte), max(hi, t.EndByte)
	}
	owner := make([]int32, hi-lo)
	for i := range owner {
		owner[i] = -1
	}
	for i, t := range tokens {
		for b := t.StartByte; b < t.EndByte; b++ {
			owner[b-lo] = int32(i)
		}
	}

	var out []Token
	for b := 0; b < len(owner); {
		o := owner[b]
		e := b + 1
		for e < len(owner) && owner[e] == o {
			e++
		}
		if o >= 0 {
			t := tokens[o]
			t.StartByte, t.EndByte = lo+uint32(b), lo+uint32(e)
			out = append(out, t)
		}
		b = e
	}
	return out
}
