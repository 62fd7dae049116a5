// Package token defines the token kinds produced by the lexer.
//
// The lexer works at single-character granularity for operators: ">=" arrives
// as GT followed by ASSIGN. The parser fuses such pairs on demand (see Fuse).
package token

import (
	"fmt"

	"tide-lang/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	NUMBER // 42
	FLOAT  // 4.2
	STRING // "text" or 'text'
	IDENT  // name

	// Keywords
	KW_FN
	KW_MATCH
	KW_CASE
	KW_FINALLY
	KW_CONTINUE
	KW_BREAK
	KW_LOOP
	KW_FOR
	KW_ELSE
	KW_NOT
	KW_XOR
	KW_AND
	KW_IS
	KW_OR
	KW_EXTEND
	KW_IMMUT
	KW_MUT
	KW_PUBLIC
	KW_RETURN
	KW_AWAIT
	KW_ASYNC
	KW_EXPORT
	KW_CATCH
	KW_TRY
	KW_DEL
	KW_FROM
	KW_PASS
	KW_AS
	KW_LOCAL
	KW_GLOBAL
	KW_RAISE
	KW_IMPORT
	KW_LAMBDA
	KW_PRIVATE
	KW_CLASS
	KW_IF
	KW_IN
	KW_WHILE

	// Single-character operators and punctuation
	MINUS     // -
	PLUS      // +
	STAR      // *
	SLASH     // /
	PERCENT   // %
	GT        // >
	LT        // <
	ASSIGN    // =
	TILDE     // ~  floor division
	BACKTICK  // `
	CARET     // ^  power
	COMMA     // ,
	DOT       // .
	COLON     // :
	SEMICOLON // ;
	PIPE      // |
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	BANG      // !  constant declaration marker
	QUESTION  // ?  mutable declaration marker
	HASH      // #

	// Fused operators (built by the parser, never by the lexer)
	ARROW     // ->
	FAT_ARROW // =>
	GTE       // >=
	LTE       // <=
	EQ        // ==
	NEQ       // !=
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	NUMBER: "NUMBER",
	FLOAT:  "FLOAT",
	STRING: "STRING",
	IDENT:  "IDENT",

	MINUS:     "-",
	PLUS:      "+",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	GT:        ">",
	LT:        "<",
	ASSIGN:    "=",
	TILDE:     "~",
	BACKTICK:  "`",
	CARET:     "^",
	COMMA:     ",",
	DOT:       ".",
	COLON:     ":",
	SEMICOLON: ";",
	PIPE:      "|",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	BANG:      "!",
	QUESTION:  "?",
	HASH:      "#",

	ARROW:     "->",
	FAT_ARROW: "=>",
	GTE:       ">=",
	LTE:       "<=",
	EQ:        "==",
	NEQ:       "!=",
}

var keywords = map[string]Kind{
	"fn":       KW_FN,
	"match":    KW_MATCH,
	"case":     KW_CASE,
	"finally":  KW_FINALLY,
	"continue": KW_CONTINUE,
	"break":    KW_BREAK,
	"loop":     KW_LOOP,
	"for":      KW_FOR,
	"else":     KW_ELSE,
	"not":      KW_NOT,
	"xor":      KW_XOR,
	"and":      KW_AND,
	"is":       KW_IS,
	"or":       KW_OR,
	"extend":   KW_EXTEND,
	"immut":    KW_IMMUT,
	"mut":      KW_MUT,
	"public":   KW_PUBLIC,
	"return":   KW_RETURN,
	"await":    KW_AWAIT,
	"async":    KW_ASYNC,
	"export":   KW_EXPORT,
	"catch":    KW_CATCH,
	"try":      KW_TRY,
	"del":      KW_DEL,
	"from":     KW_FROM,
	"pass":     KW_PASS,
	"as":       KW_AS,
	"local":    KW_LOCAL,
	"global":   KW_GLOBAL,
	"raise":    KW_RAISE,
	"import":   KW_IMPORT,
	"lambda":   KW_LAMBDA,
	"private":  KW_PRIVATE,
	"class":    KW_CLASS,
	"if":       KW_IF,
	"in":       KW_IN,
	"while":    KW_WHILE,
}

func init() {
	for word, kind := range keywords {
		kindNames[kind] = word
	}
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_FN && k <= KW_WHILE
}

// IsLiteral reports whether the kind is a number, float, string or identifier.
func (k Kind) IsLiteral() bool {
	return k >= NUMBER && k <= IDENT
}

// IsNumeric reports whether the kind is NUMBER or FLOAT.
func (k Kind) IsNumeric() bool {
	return k == NUMBER || k == FLOAT
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// LookupSymbol returns the single-character operator kind for ch.
func LookupSymbol(ch byte) (Kind, bool) {
	switch ch {
	case '-':
		return MINUS, true
	case '+':
		return PLUS, true
	case '*':
		return STAR, true
	case '/':
		return SLASH, true
	case '%':
		return PERCENT, true
	case '>':
		return GT, true
	case '<':
		return LT, true
	case '=':
		return ASSIGN, true
	case '~':
		return TILDE, true
	case '`':
		return BACKTICK, true
	case '^':
		return CARET, true
	case ',':
		return COMMA, true
	case '.':
		return DOT, true
	case ':':
		return COLON, true
	case ';':
		return SEMICOLON, true
	case '|':
		return PIPE, true
	case '(':
		return LPAREN, true
	case ')':
		return RPAREN, true
	case '{':
		return LBRACE, true
	case '}':
		return RBRACE, true
	case '[':
		return LBRACKET, true
	case ']':
		return RBRACKET, true
	case '!':
		return BANG, true
	case '?':
		return QUESTION, true
	case '#':
		return HASH, true
	}
	return ILLEGAL, false
}

type pair struct{ first, second Kind }

var fusions = map[pair]Kind{
	{MINUS, GT}:      ARROW,
	{ASSIGN, GT}:     FAT_ARROW,
	{GT, ASSIGN}:     GTE,
	{LT, ASSIGN}:     LTE,
	{ASSIGN, ASSIGN}: EQ,
	{BANG, ASSIGN}:   NEQ,
}

// Fuse returns the two-character operator spelled by first followed by second.
func Fuse(first, second Kind) (Kind, bool) {
	kind, ok := fusions[pair{first, second}]
	return kind, ok
}

// Token is a lexical token with its kind, text, and source location.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
