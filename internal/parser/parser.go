// Package parser implements the syntax analysis for tide-lang.
//
// It is a recursive-descent parser with one function per precedence level.
// From loosest to tightest the chain is: assignment, object literal, array
// literal, additive, multiplicative, conditional (and/or/xor), relational,
// call/member chain, primary. Logical and relational operators therefore
// bind tighter than arithmetic: `x + 1 < 3` groups as `x + (1 < 3)`.
//
// Parsing stops at the first error; there is no recovery.
package parser

import (
	"strconv"
	"unicode/utf8"

	"tide-lang/internal/ast"
	"tide-lang/internal/diag"
	"tide-lang/internal/span"
	"tide-lang/internal/token"
)

// parseCtx tracks where `return` is legal. It is passed by value, so a
// nested parse can never leak its flags back to the caller.
type parseCtx struct {
	inFunction    bool // lexically inside a fn body
	returnAllowed bool // at statement level of that body
}

// expr returns the context for a sub-expression, where a bare return is
// never allowed.
func (c parseCtx) expr() parseCtx {
	return parseCtx{inFunction: c.inFunction}
}

// bailout carries the first diagnostic up to ParseProgram.
type bailout struct {
	d diag.Diagnostic
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New creates a new parser from a token slice. The slice is copied, since
// operator fusion rewrites the stream in place.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: append([]token.Token(nil), tokens...)}
}

// ParseProgram parses the whole token stream. The returned error is a
// diag.Diagnostic describing the first structural problem.
func (p *Parser) ParseProgram() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.d
		}
	}()

	prog = &ast.Program{}
	startPos := p.peek().Span.Start

	top := parseCtx{}
	p.skipSep()
	for !p.isAtEnd() {
		prog.Body = append(prog.Body, p.parseStatement(top))
		p.skipSep()
	}

	prog.Span = span.Span{Start: startPos, End: p.peek().Span.End}
	return prog, nil
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) peekNext() token.Token {
	if p.pos+1 >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	tok := p.peek()
	p.fail("E2001", tok.Span, "expected '%s', got %s", kind, describe(tok))
	return tok
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// skipSep skips semicolons between statements.
func (p *Parser) skipSep() {
	for p.check(token.SEMICOLON) {
		p.advance()
	}
}

// fuse merges the current token with the next one when together they spell
// one of the wanted two-character operators. The two tokens must touch.
func (p *Parser) fuse(wanted ...token.Kind) {
	if p.pos+1 >= len(p.tokens) {
		return
	}
	first, second := p.tokens[p.pos], p.tokens[p.pos+1]
	if first.Span.End.Offset != second.Span.Start.Offset {
		return
	}
	kind, ok := token.Fuse(first.Kind, second.Kind)
	if !ok {
		return
	}
	for _, w := range wanted {
		if kind == w {
			p.tokens[p.pos] = token.Token{
				Kind:   kind,
				Lexeme: first.Lexeme + second.Lexeme,
				Span:   span.Join(first.Span, second.Span),
			}
			p.tokens = append(p.tokens[:p.pos+1], p.tokens[p.pos+2:]...)
			return
		}
	}
}

func (p *Parser) fail(code string, s span.Span, format string, args ...interface{}) {
	panic(bailout{diag.Errorf(code, s, format, args...)})
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER, token.FLOAT:
		return "'" + tok.Lexeme + "'"
	case token.STRING:
		return strconv.Quote(tok.Lexeme)
	}
	return "'" + tok.Kind.String() + "'"
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStatement(ctx parseCtx) ast.Node {
	switch p.peekKind() {
	case token.QUESTION, token.BANG:
		return p.parseVarDecl(ctx)
	case token.KW_FN:
		return p.parseFuncDecl()
	case token.KW_IF:
		return p.parseIf(ctx)
	case token.KW_RETURN:
		return p.parseReturn(ctx)
	default:
		return p.parseExpr(ctx.expr())
	}
}

// parseVarDecl parses: (? | !) IDENT ; | (? | !) IDENT = statement
func (p *Parser) parseVarDecl(ctx parseCtx) *ast.VarDecl {
	start := p.advance() // consume marker
	decl := &ast.VarDecl{Constant: start.Kind == token.BANG}
	decl.Name = p.expect(token.IDENT).Lexeme

	if p.check(token.SEMICOLON) {
		if decl.Constant {
			p.fail("E2003", p.makeSpan(start.Span.Start), "constant '%s' must be initialized", decl.Name)
		}
		p.advance()
		decl.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
		return decl
	}

	if !p.check(token.ASSIGN) {
		p.fail("E2003", p.peek().Span, "expected '=' or ';' after '%s', got %s", decl.Name, describe(p.peek()))
	}
	p.advance()
	decl.Value = p.parseStatement(ctx.expr())
	decl.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return decl
}

// parseFuncDecl parses: fn IDENT | params | ( body )
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.advance() // consume 'fn'
	decl := &ast.FuncDecl{}
	decl.Name = p.expect(token.IDENT).Lexeme
	decl.Params = p.parseParamList()
	decl.Body = p.parseBody(parseCtx{inFunction: true, returnAllowed: true})
	decl.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return decl
}

// parseParamList parses: | ident, ident, ... |
func (p *Parser) parseParamList() []string {
	params := []string{}
	p.expect(token.PIPE)
	if !p.check(token.PIPE) {
		params = append(params, p.expect(token.IDENT).Lexeme)
		for p.check(token.COMMA) {
			p.advance() // consume ','
			params = append(params, p.expect(token.IDENT).Lexeme)
		}
	}
	p.expect(token.PIPE)
	return params
}

// parseBody parses a parenthesised statement list.
func (p *Parser) parseBody(ctx parseCtx) []ast.Node {
	body := []ast.Node{}
	p.expect(token.LPAREN)
	p.skipSep()
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		body = append(body, p.parseStatement(ctx))
		p.skipSep()
	}
	p.expect(token.RPAREN)
	return body
}

// parseIf parses: if {cond} (body) { else if {cond} (body) } [ else (body) ]
// Bodies inherit ctx, so a return directly inside an if that sits at
// statement level of a function body is legal.
func (p *Parser) parseIf(ctx parseCtx) *ast.IfExpr {
	start := p.advance() // consume 'if'
	expr := &ast.IfExpr{}
	expr.Branches = append(expr.Branches, p.parseIfBranch(start, ctx))

	for p.check(token.KW_ELSE) {
		p.advance() // consume 'else'
		if p.check(token.KW_IF) {
			branchStart := p.advance() // consume 'if'
			expr.Branches = append(expr.Branches, p.parseIfBranch(branchStart, ctx))
			continue
		}
		expr.Else = p.parseBody(ctx)
		break
	}

	expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return expr
}

func (p *Parser) parseIfBranch(start token.Token, ctx parseCtx) ast.IfBranch {
	open := p.expect(token.LBRACE)
	if p.check(token.RBRACE) {
		p.fail("E2006", span.Join(open.Span, p.peek().Span), "if condition must not be empty")
	}
	branch := ast.IfBranch{}
	branch.Condition = p.parseExpr(ctx.expr())
	p.expect(token.RBRACE)
	branch.Body = p.parseBody(ctx)
	branch.Span = p.makeSpan(start.Span.Start)
	return branch
}

// parseReturn parses: return expr
func (p *Parser) parseReturn(ctx parseCtx) *ast.ReturnExpr {
	start := p.advance() // consume 'return'
	if !ctx.inFunction {
		p.fail("E2004", start.Span, "return outside of a function body")
	}
	if !ctx.returnAllowed {
		d := diag.Errorf("E2004", start.Span, "return is not allowed inside an expression")
		panic(bailout{d.WithHint("return must start a statement of the function body")})
	}
	value := p.parseExpr(ctx.expr())
	return &ast.ReturnExpr{ExprBase: makeExprBase(start.Span.Start, p.prevEnd()), Value: value}
}

// ============================================================
// Expression parsing, loosest to tightest
// ============================================================

func (p *Parser) parseExpr(ctx parseCtx) ast.Expr {
	return p.parseAssignment(ctx)
}

// parseAssignment is right-associative: a = b = c is a = (b = c).
func (p *Parser) parseAssignment(ctx parseCtx) ast.Expr {
	left := p.parseObject(ctx)
	if !p.check(token.ASSIGN) {
		return left
	}
	p.advance() // consume '='
	value := p.parseAssignment(ctx)
	return &ast.AssignExpr{
		ExprBase: makeExprBase(left.GetSpan().Start, value.GetSpan().End),
		Target:   left,
		Value:    value,
	}
}

// parseObject parses: { key: value, shorthand, ... }
func (p *Parser) parseObject(ctx parseCtx) ast.Expr {
	if !p.check(token.LBRACE) {
		return p.parseArray(ctx)
	}
	start := p.advance() // consume '{'
	obj := &ast.ObjectLit{Properties: []ast.Property{}}

	for !p.isAtEnd() && !p.check(token.RBRACE) {
		keyTok := p.expect(token.IDENT)
		prop := ast.Property{Key: keyTok.Lexeme}

		if p.check(token.COMMA) || p.check(token.RBRACE) {
			// shorthand { key } looks the key up at evaluation time
			if p.check(token.COMMA) {
				p.advance()
			}
			prop.Span = keyTok.Span
			obj.Properties = append(obj.Properties, prop)
			continue
		}

		p.expect(token.COLON)
		prop.Value = p.parseExpr(ctx)
		prop.Span = p.makeSpan(keyTok.Span.Start)
		obj.Properties = append(obj.Properties, prop)
		if !p.check(token.RBRACE) {
			p.expect(token.COMMA)
		}
	}

	p.expect(token.RBRACE)
	obj.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return obj
}

// parseArray parses: [ expr, expr, ... ]
func (p *Parser) parseArray(ctx parseCtx) ast.Expr {
	if !p.check(token.LBRACKET) {
		return p.parseAdditive(ctx)
	}
	start := p.advance() // consume '['
	arr := &ast.ArrayLit{Elements: []ast.Expr{}}

	if !p.check(token.RBRACKET) {
		arr.Elements = append(arr.Elements, p.parseExpr(ctx))
		for p.check(token.COMMA) {
			p.advance() // consume ','
			arr.Elements = append(arr.Elements, p.parseExpr(ctx))
		}
	}

	p.expect(token.RBRACKET)
	arr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return arr
}

func (p *Parser) parseAdditive(ctx parseCtx) ast.Expr {
	left := p.parseMultiplicative(ctx)
	for p.match(token.PLUS, token.MINUS) {
		op := p.advance().Kind
		right := p.parseMultiplicative(ctx)
		left = &ast.BinaryExpr{ExprBase: joinBase(left, right), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative(ctx parseCtx) ast.Expr {
	left := p.parseConditional(ctx)
	for p.match(token.STAR, token.SLASH, token.PERCENT, token.CARET, token.TILDE) {
		op := p.advance().Kind
		right := p.parseConditional(ctx)
		left = &ast.BinaryExpr{ExprBase: joinBase(left, right), Op: op, Left: left, Right: right}
	}
	return left
}

// parseConditional recurses for its right operand, making and/or/xor
// right-associative.
func (p *Parser) parseConditional(ctx parseCtx) ast.Expr {
	left := p.parseRelational(ctx)
	for p.match(token.KW_AND, token.KW_OR, token.KW_XOR) {
		op := p.advance().Kind
		right := p.parseConditional(ctx)
		left = &ast.ConditionalExpr{ExprBase: joinBase(left, right), Op: op, Left: left, Right: right}
	}
	return left
}

// parseRelational recurses for its right operand, like parseConditional.
func (p *Parser) parseRelational(ctx parseCtx) ast.Expr {
	left := p.parseCallMember(ctx)
	for p.relationalAhead() {
		op := p.advance().Kind
		right := p.parseRelational(ctx)
		left = &ast.BooleanExpr{ExprBase: joinBase(left, right), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) relationalAhead() bool {
	p.fuse(token.GTE, token.LTE, token.EQ, token.NEQ)
	return p.match(token.LT, token.GT, token.GTE, token.LTE, token.EQ, token.NEQ)
}

// parseCallMember parses a primary followed by any mix of
// calls f(a), member accesses a.b and index accesses a[e].
func (p *Parser) parseCallMember(ctx parseCtx) ast.Expr {
	expr := p.parsePrimary(ctx)
	for {
		switch p.peekKind() {
		case token.LPAREN:
			expr = p.parseCall(expr, ctx)
		case token.DOT:
			p.advance() // consume '.'
			tok := p.peek()
			if tok.Kind != token.IDENT {
				p.fail("E2001", tok.Span, "expected property name after '.', got %s", describe(tok))
			}
			p.advance()
			prop := &ast.Ident{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End), Name: tok.Lexeme}
			expr = &ast.MemberExpr{ExprBase: joinBase(expr, prop), Object: expr, Property: prop}
		case token.LBRACKET:
			p.advance() // consume '['
			prop := p.parseExpr(ctx)
			p.expect(token.RBRACKET)
			expr = &ast.MemberExpr{
				ExprBase: makeExprBase(expr.GetSpan().Start, p.prevEnd()),
				Object:   expr,
				Property: prop,
				Computed: true,
			}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCall(callee ast.Expr, ctx parseCtx) *ast.CallExpr {
	p.advance() // consume '('
	call := &ast.CallExpr{Callee: callee, Args: []ast.Expr{}}

	if !p.check(token.RPAREN) {
		call.Args = append(call.Args, p.parseExpr(ctx))
		for p.check(token.COMMA) {
			p.advance() // consume ','
			call.Args = append(call.Args, p.parseExpr(ctx))
		}
	}

	p.expect(token.RPAREN)
	call.ExprBase = makeExprBase(callee.GetSpan().Start, p.prevEnd())
	return call
}

// ============================================================
// Primary expressions
// ============================================================

func (p *Parser) parsePrimary(ctx parseCtx) ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.IDENT:
		p.advance()
		return &ast.Ident{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End), Name: tok.Lexeme}

	case token.NUMBER, token.FLOAT:
		p.advance()
		return p.numberLit(tok.Lexeme, tok.Span)

	case token.MINUS, token.PLUS:
		next := p.peekNext()
		if !next.Kind.IsNumeric() {
			p.fail("E2007", tok.Span, "sign '%s' is only supported before a number literal", tok.Lexeme)
		}
		p.advance()
		p.advance()
		return p.numberLit(tok.Lexeme+next.Lexeme, span.Join(tok.Span, next.Span))

	case token.STRING:
		p.advance()
		return &ast.StringLit{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    tok.Lexeme,
			Len:      utf8.RuneCountInString(tok.Lexeme),
		}

	case token.LPAREN:
		p.advance() // consume '('
		expr := p.parseExpr(ctx)
		p.expect(token.RPAREN)
		return expr

	case token.KW_LAMBDA:
		return p.parseLambda(ctx)

	case token.KW_IF:
		return p.parseIf(ctx)

	case token.KW_RETURN:
		return p.parseReturn(ctx)

	case token.KW_DEL:
		p.advance() // consume 'del'
		target := p.peek()
		if target.Kind != token.IDENT {
			p.fail("E2011", target.Span, "del expects an identifier, got %s", describe(target))
		}
		p.advance()
		return &ast.DelExpr{ExprBase: makeExprBase(tok.Span.Start, target.Span.End), Name: target.Lexeme}

	case token.KW_RAISE:
		p.advance() // consume 'raise'
		msg := p.peek()
		if msg.Kind != token.STRING {
			p.fail("E2010", msg.Span, "raise expects a string literal, got %s", describe(msg))
		}
		p.advance()
		return &ast.RaiseExpr{ExprBase: makeExprBase(tok.Span.Start, msg.Span.End), Message: msg.Lexeme}

	case token.KW_ELSE:
		p.fail("E2005", tok.Span, "'else' without a preceding 'if'")
	}

	if tok.Kind.IsKeyword() {
		p.fail("E2008", tok.Span, "'%s' is reserved and not supported", tok.Kind)
	}
	p.fail("E2002", tok.Span, "unexpected %s", describe(tok))
	return nil
}

// parseLambda parses: lambda | params | => expr
func (p *Parser) parseLambda(ctx parseCtx) *ast.LambdaDecl {
	start := p.advance() // consume 'lambda'
	params := p.parseParamList()
	p.fuse(token.FAT_ARROW)
	p.expect(token.FAT_ARROW)
	body := p.parseExpr(parseCtx{inFunction: true})
	return &ast.LambdaDecl{
		ExprBase: makeExprBase(start.Span.Start, p.prevEnd()),
		Params:   params,
		Body:     body,
	}
}

func (p *Parser) numberLit(text string, s span.Span) *ast.NumberLit {
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.fail("E2009", s, "invalid number literal %q", text)
	}
	return &ast.NumberLit{ExprBase: makeExprBase(s.Start, s.End), Value: value, Len: len(text)}
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func joinBase(left, right ast.Node) ast.ExprBase {
	s := span.Join(left.GetSpan(), right.GetSpan())
	return makeExprBase(s.Start, s.End)
}
