// Package ast defines the abstract syntax tree for tide-lang.
//
// The tree is strict: every node owns its children and nothing is shared.
// Nodes are never modified after the parser returns them.
package ast

import (
	"tide-lang/internal/span"
	"tide-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (root)
// ============================================================

// Program is the sequence of top-level statements of one source text.
type Program struct {
	NodeBase
	Body []Node
}

// ============================================================
// Declarations
// ============================================================

// VarDecl is `! name = value` (Constant) or `? name = value` / `? name;`.
type VarDecl struct {
	StmtBase
	Name     string
	Constant bool
	Value    Node // nil when declared without initializer
}

// FuncDecl is `fn name |params| ( body )`.
type FuncDecl struct {
	StmtBase
	Name   string
	Params []string
	Body   []Node
}

// LambdaDecl is `lambda |params| => expr`. Body is implicitly returned.
type LambdaDecl struct {
	ExprBase
	Params []string
	Body   Expr
}

// ============================================================
// Control flow
// ============================================================

// IfExpr is an if / else-if / else chain.
type IfExpr struct {
	ExprBase
	Branches []IfBranch // the `if` first, then each `else if`
	Else     []Node     // nil when there is no else
}

// IfBranch pairs a condition with the body run when it is true.
type IfBranch struct {
	Span      span.Span
	Condition Expr
	Body      []Node
}

// ReturnExpr is `return value`, legal only inside a function body.
type ReturnExpr struct {
	ExprBase
	Value Expr
}

// DelExpr is `del name`.
type DelExpr struct {
	ExprBase
	Name string
}

// RaiseExpr is `raise "message"`.
type RaiseExpr struct {
	ExprBase
	Message string
}

// ============================================================
// Expressions
// ============================================================

// AssignExpr is `target = value`. Only identifier targets evaluate.
type AssignExpr struct {
	ExprBase
	Target Expr
	Value  Expr
}

// MemberExpr is `object.property` or, when Computed, `object[property]`.
type MemberExpr struct {
	ExprBase
	Object   Expr
	Property Expr
	Computed bool
}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// BinaryExpr is an arithmetic operation: + - * / % ^ ~.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// BooleanExpr is a comparison: < > <= >= == !=.
type BooleanExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// ConditionalExpr is a logical composition: and, or, xor (and is).
type ConditionalExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// Ident is a reference to a binding.
type Ident struct {
	ExprBase
	Name string
}

// ============================================================
// Literals
// ============================================================

// NumberLit is a numeric literal. Len is the length of its source text.
type NumberLit struct {
	ExprBase
	Value float64
	Len   int
}

// StringLit is a string literal. Len is its length in characters.
type StringLit struct {
	ExprBase
	Value string
	Len   int
}

// ArrayLit is `[a, b, c]`.
type ArrayLit struct {
	ExprBase
	Elements []Expr
}

// ObjectLit is `{ key: value, shorthand }`.
type ObjectLit struct {
	ExprBase
	Properties []Property
}

// Property is one entry of an object literal. A nil Value is shorthand for
// looking up a binding named Key.
type Property struct {
	Span  span.Span
	Key   string
	Value Expr
}

// NullLit is the null literal.
type NullLit struct {
	ExprBase
}
