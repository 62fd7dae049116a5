// Package lexer implements tokenization for tide-lang.
//
// Operators are emitted one character at a time; the parser is responsible
// for recognising two-character operators such as ">=" and "=>".
package lexer

import (
	"unicode"
	"unicode/utf8"

	"tide-lang/internal/diag"
	"tide-lang/internal/span"
	"tide-lang/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	warnings []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source. The returned slice always ends with an
// EOF token. Scanning stops at the first malformed character sequence.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

// Warnings returns the non-fatal diagnostics gathered during Tokenize.
func (l *Lexer) Warnings() []diag.Diagnostic {
	return l.warnings
}

// Filename returns the name the lexer was created with.
func (l *Lexer) Filename() string {
	return l.filename
}

// ---- internal helpers ----

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

// skipTrivia skips whitespace and /* block comments */.
func (l *Lexer) skipTrivia() error {
	for l.pos < len(l.source) {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekNext() == '*':
			start := l.curPos()
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.source) {
				if l.peek() == '*' && l.peekNext() == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return diag.Errorf("E1003", l.makeSpan(start), "unterminated block comment")
			}
		default:
			return nil
		}
	}
	return nil
}

// ---- token reading ----

func (l *Lexer) nextToken() (token.Token, error) {
	if err := l.skipTrivia(); err != nil {
		return token.Token{}, err
	}

	start := l.curPos()
	if l.pos >= len(l.source) {
		return token.Token{Kind: token.EOF, Span: l.makeSpan(start)}, nil
	}

	ch := l.peek()
	switch {
	case ch == '"' || ch == '\'':
		return l.readString(start)
	case isDigit(ch):
		return l.readNumber(start), nil
	case isIdentStart(l.source[l.pos:]):
		return l.readIdentifier(start), nil
	}

	kind, ok := token.LookupSymbol(ch)
	if !ok {
		r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
		return token.Token{}, diag.Errorf("E1001", span.Span{Start: start, End: start}, "unrecognized character %q in source", r)
	}
	l.advance()
	return token.Token{Kind: kind, Lexeme: string(ch), Span: l.makeSpan(start)}, nil
}

// readString reads a literal delimited by matching single or double quotes.
func (l *Lexer) readString(start span.Position) (token.Token, error) {
	quote := l.advance()
	var value []byte

	for l.pos < len(l.source) {
		ch := l.peek()
		if ch == quote {
			l.advance()
			return token.Token{Kind: token.STRING, Lexeme: string(value), Span: l.makeSpan(start)}, nil
		}
		if ch == '\\' && l.pos+1 < len(l.source) {
			escStart := l.curPos()
			l.advance()
			esc := l.advance()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case '\\', '"', '\'':
				value = append(value, esc)
			default:
				l.warnings = append(l.warnings,
					diag.Warningf("E1004", l.makeSpan(escStart), "unknown escape sequence \\%c kept verbatim", esc))
				value = append(value, '\\', esc)
			}
			continue
		}
		if ch >= utf8.RuneSelf {
			_, size := utf8.DecodeRuneInString(l.source[l.pos:])
			value = append(value, l.source[l.pos:l.pos+size]...)
			l.pos += size
			l.col++
			continue
		}
		value = append(value, ch)
		l.advance()
	}

	return token.Token{}, diag.Errorf("E1002", l.makeSpan(start), "unterminated string literal")
}

// readNumber reads a run of digits and dots. A run containing a dot is a FLOAT.
func (l *Lexer) readNumber(start span.Position) token.Token {
	numStart := l.pos
	isFloat := false
	for l.pos < len(l.source) && (isDigit(l.peek()) || l.peek() == '.') {
		if l.peek() == '.' {
			isFloat = true
		}
		l.advance()
	}

	kind := token.NUMBER
	if isFloat {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Lexeme: l.source[numStart:l.pos], Span: l.makeSpan(start)}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos
	// identifiers never span lines, so columns advance once per rune
	for l.pos < len(l.source) && isIdentPart(l.source[l.pos:]) {
		_, size := utf8.DecodeRuneInString(l.source[l.pos:])
		l.pos += size
		l.col++
	}

	lexeme := l.source[identStart:l.pos]
	return token.Token{Kind: token.LookupIdent(lexeme), Lexeme: lexeme, Span: l.makeSpan(start)}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
