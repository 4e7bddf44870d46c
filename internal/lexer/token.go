package lexer

import (
	"fmt"

	"ember/internal/diag"
)

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenInt
	TokenTrue
	TokenFalse
	// keywords
	TokenFn
	TokenIf
	TokenElse
	TokenFor
	TokenWhile
	TokenDo
	TokenReturn
	// type keywords
	TokenVoid
	TokenBool
	TokenInt8
	TokenInt16
	TokenInt32
	TokenInt64
	TokenUInt8
	TokenUInt16
	TokenUInt32
	TokenUInt64
	// symbols
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenComma
	TokenColon
	TokenSemicolon
	TokenEq
	TokenEqEq
	TokenBang
	TokenNotEq
	TokenLT
	TokenLTE
	TokenGT
	TokenGTE
	TokenPlus
	TokenPlusEq
	TokenMinus
	TokenMinusEq
	TokenStar
	TokenStarEq
	TokenSlash
	TokenSlashEq
	TokenPercent
	TokenPercentEq
)

type Token struct {
	Kind TokenKind
	Text string // set for TokenIdent and TokenInt only
	Loc  diag.Location
}

// String renders the token the way it is spelled in source, so joining the
// rendered tokens with spaces and lexing the result yields the same tokens.
func (t Token) String() string {
	switch t.Kind {
	case TokenIdent, TokenInt:
		return t.Text
	}
	return t.Kind.String()
}

// IsType reports whether the kind is one of the datatype keywords.
func (k TokenKind) IsType() bool {
	return k >= TokenVoid && k <= TokenUInt64
}

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of file"
	case TokenIdent:
		return "identifier"
	case TokenInt:
		return "integer"
	case TokenTrue:
		return "true"
	case TokenFalse:
		return "false"
	case TokenFn:
		return "fn"
	case TokenIf:
		return "if"
	case TokenElse:
		return "else"
	case TokenFor:
		return "for"
	case TokenWhile:
		return "while"
	case TokenDo:
		return "do"
	case TokenReturn:
		return "return"
	case TokenVoid:
		return "void"
	case TokenBool:
		return "bool"
	case TokenInt8:
		return "int8"
	case TokenInt16:
		return "int16"
	case TokenInt32:
		return "int32"
	case TokenInt64:
		return "int64"
	case TokenUInt8:
		return "uint8"
	case TokenUInt16:
		return "uint16"
	case TokenUInt32:
		return "uint32"
	case TokenUInt64:
		return "uint64"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenSemicolon:
		return ";"
	case TokenEq:
		return "="
	case TokenEqEq:
		return "=="
	case TokenBang:
		return "!"
	case TokenNotEq:
		return "!="
	case TokenLT:
		return "<"
	case TokenLTE:
		return "<="
	case TokenGT:
		return ">"
	case TokenGTE:
		return ">="
	case TokenPlus:
		return "+"
	case TokenPlusEq:
		return "+="
	case TokenMinus:
		return "-"
	case TokenMinusEq:
		return "-="
	case TokenStar:
		return "*"
	case TokenStarEq:
		return "*="
	case TokenSlash:
		return "/"
	case TokenSlashEq:
		return "/="
	case TokenPercent:
		return "%"
	case TokenPercentEq:
		return "%="
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

var keywords = map[string]TokenKind{
	"fn":     TokenFn,
	"if":     TokenIf,
	"else":   TokenElse,
	"for":    TokenFor,
	"while":  TokenWhile,
	"do":     TokenDo,
	"return": TokenReturn,
	"true":   TokenTrue,
	"false":  TokenFalse,
	"void":   TokenVoid,
	"bool":   TokenBool,
	"int8":   TokenInt8,
	"int16":  TokenInt16,
	"int32":  TokenInt32,
	"int64":  TokenInt64,
	"uint8":  TokenUInt8,
	"uint16": TokenUInt16,
	"uint32": TokenUInt32,
	"uint64": TokenUInt64,
}

// single maps a one-character symbol to its kind and, when the symbol can
// be followed by '=', the kind of the two-character form.
var single = map[rune][2]TokenKind{
	'(': {TokenLParen, TokenEOF},
	')': {TokenRParen, TokenEOF},
	'{': {TokenLBrace, TokenEOF},
	'}': {TokenRBrace, TokenEOF},
	',': {TokenComma, TokenEOF},
	':': {TokenColon, TokenEOF},
	';': {TokenSemicolon, TokenEOF},
	'=': {TokenEq, TokenEqEq},
	'!': {TokenBang, TokenNotEq},
	'<': {TokenLT, TokenLTE},
	'>': {TokenGT, TokenGTE},
	'+': {TokenPlus, TokenPlusEq},
	'-': {TokenMinus, TokenMinusEq},
	'*': {TokenStar, TokenStarEq},
	'/': {TokenSlash, TokenSlashEq},
	'%': {TokenPercent, TokenPercentEq},
}
