package runtime

import (
	"errors"
	"fmt"
	"io"
	"math"

	"tide-lang/internal/ast"
	"tide-lang/internal/span"
	"tide-lang/internal/token"
)

// ============================================================
// Errors
// ============================================================

// RuntimeError represents an error during evaluation. Err holds the
// underlying cause when there is one (for example ErrUndefined).
type RuntimeError struct {
	Message string
	Span    span.Span
	Err     error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func runtimeErr(s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Span: s}
}

func wrapErr(s span.Span, err error) *RuntimeError {
	return &RuntimeError{Message: err.Error(), Span: s, Err: err}
}

// RaiseError is the abort produced by `raise "message"`.
type RaiseError struct {
	Message string
	Span    span.Span
}

func (e *RaiseError) Error() string {
	return fmt.Sprintf("raised at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter owns the global environment and runs programs in it.
type Interpreter struct {
	global *Environment
	output io.Writer
}

// NewInterpreter creates a new interpreter with the natives registered.
// print writes to output.
func NewInterpreter(output io.Writer) *Interpreter {
	global := NewEnvironment(nil)
	RegisterBuiltins(global, output)
	return &Interpreter{global: global, output: output}
}

// Run evaluates prog in the global environment and returns the value of its
// last statement. Bindings persist between runs, which the REPL relies on.
func (i *Interpreter) Run(prog *ast.Program) (Value, error) {
	return Evaluate(prog, i.global)
}

// Env returns the global environment.
func (i *Interpreter) Env() *Environment {
	return i.global
}

// ============================================================
// Node dispatch
// ============================================================

// Evaluate computes the value of node in env. Every error is fatal to the
// current run and is returned unchanged to the caller.
func Evaluate(node ast.Node, env *Environment) (Value, error) {
	switch n := node.(type) {
	case *ast.Program:
		return evalProgram(n, env)

	// ---- Literals ----
	case *ast.NumberLit:
		return NumberVal{Value: n.Value, Len: n.Len}, nil
	case *ast.StringLit:
		return StringVal{Value: n.Value, Len: n.Len}, nil
	case *ast.NullLit:
		return NullVal{}, nil
	case *ast.ArrayLit:
		return evalArray(n, env)
	case *ast.ObjectLit:
		return evalObject(n, env)

	// ---- Declarations ----
	case *ast.VarDecl:
		return evalVarDecl(n, env)
	case *ast.FuncDecl:
		fn := &FuncVal{Name: n.Name, Params: n.Params, Body: n.Body, Env: env}
		if err := env.Declare(n.Name, fn, true); err != nil {
			return nil, wrapErr(n.Span, err)
		}
		return fn, nil
	case *ast.LambdaDecl:
		return &LambdaVal{Params: n.Params, Body: n.Body, Env: env}, nil

	// ---- Expressions ----
	case *ast.Ident:
		v, err := env.Lookup(n.Name)
		if err != nil {
			return nil, wrapErr(n.Span, err)
		}
		return v, nil
	case *ast.AssignExpr:
		return evalAssign(n, env)
	case *ast.BinaryExpr:
		return evalBinary(n, env)
	case *ast.BooleanExpr:
		return evalBoolean(n, env)
	case *ast.ConditionalExpr:
		return evalConditional(n, env)
	case *ast.CallExpr:
		return evalCall(n, env)
	case *ast.MemberExpr:
		return evalMember(n, env)

	// ---- Control flow ----
	case *ast.IfExpr:
		return evalIf(n, env)
	case *ast.ReturnExpr:
		v, err := Evaluate(n.Value, env)
		if err != nil {
			return nil, err
		}
		return &returnVal{value: v}, nil
	case *ast.DelExpr:
		if err := env.Delete(n.Name); err != nil {
			return nil, wrapErr(n.Span, err)
		}
		return NullVal{}, nil
	case *ast.RaiseExpr:
		return nil, &RaiseError{Message: n.Message, Span: n.Span}
	}

	if node == nil {
		return NullVal{}, nil
	}
	return nil, runtimeErr(node.GetSpan(), "unexpected node type: %T", node)
}

func evalProgram(prog *ast.Program, env *Environment) (Value, error) {
	var result Value = NullVal{}
	for _, stmt := range prog.Body {
		v, err := Evaluate(stmt, env)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(*returnVal); ok {
			return nil, runtimeErr(stmt.GetSpan(), "return outside of function")
		}
		result = v
	}
	return result, nil
}

// evalBody runs statements in env. The result is the last statement's value,
// or the pending return signal if a return was reached.
func evalBody(body []ast.Node, env *Environment) (Value, error) {
	var result Value = NullVal{}
	for _, stmt := range body {
		v, err := Evaluate(stmt, env)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(*returnVal); ok {
			return v, nil
		}
		result = v
	}
	return result, nil
}

// ============================================================
// Declarations and assignment
// ============================================================

func evalVarDecl(n *ast.VarDecl, env *Environment) (Value, error) {
	var value Value = NullVal{}
	if n.Value != nil {
		v, err := Evaluate(n.Value, env)
		if err != nil {
			return nil, err
		}
		value = v
	}
	if err := env.Declare(n.Name, value, n.Constant); err != nil {
		return nil, wrapErr(n.Span, err)
	}
	return value, nil
}

func evalAssign(n *ast.AssignExpr, env *Environment) (Value, error) {
	target, ok := n.Target.(*ast.Ident)
	if !ok {
		return nil, runtimeErr(n.Target.GetSpan(), "invalid assignment target")
	}
	value, err := Evaluate(n.Value, env)
	if err != nil {
		return nil, err
	}
	if err := env.Assign(target.Name, value); err != nil {
		return nil, wrapErr(n.Span, err)
	}
	return value, nil
}

// ============================================================
// Literals
// ============================================================

// evalArray builds a fresh array; the literal node is left untouched.
func evalArray(n *ast.ArrayLit, env *Environment) (Value, error) {
	elements := make([]Value, len(n.Elements))
	for idx, elem := range n.Elements {
		v, err := Evaluate(elem, env)
		if err != nil {
			return nil, err
		}
		elements[idx] = v
	}
	return &ArrayVal{Elements: elements}, nil
}

func evalObject(n *ast.ObjectLit, env *Environment) (Value, error) {
	obj := NewObject()
	for _, prop := range n.Properties {
		if prop.Value == nil {
			v, err := env.Lookup(prop.Key)
			if err != nil {
				return nil, wrapErr(prop.Span, err)
			}
			obj.Set(prop.Key, v)
			continue
		}
		v, err := Evaluate(prop.Value, env)
		if err != nil {
			return nil, err
		}
		obj.Set(prop.Key, v)
	}
	return obj, nil
}

// ============================================================
// Operators
// ============================================================

func evalOperands(left, right ast.Expr, env *Environment) (Value, Value, error) {
	l, err := Evaluate(left, env)
	if err != nil {
		return nil, nil, err
	}
	r, err := Evaluate(right, env)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// evalBinary applies arithmetic. Anything but two numbers yields null.
func evalBinary(n *ast.BinaryExpr, env *Environment) (Value, error) {
	l, r, err := evalOperands(n.Left, n.Right, env)
	if err != nil {
		return nil, err
	}
	ln, lok := l.(NumberVal)
	rn, rok := r.(NumberVal)
	if !lok || !rok {
		return NullVal{}, nil
	}

	a, b := ln.Value, rn.Value
	switch n.Op {
	case token.PLUS:
		return NewNumber(a + b), nil
	case token.MINUS:
		return NewNumber(a - b), nil
	case token.STAR:
		return NewNumber(a * b), nil
	case token.CARET:
		return NewNumber(math.Pow(a, b)), nil
	case token.SLASH, token.PERCENT, token.TILDE:
		if b == 0 {
			return nil, runtimeErr(n.Span, "division by zero")
		}
		switch n.Op {
		case token.SLASH:
			return NewNumber(a / b), nil
		case token.PERCENT:
			return NewNumber(math.Mod(a, b)), nil
		default:
			return NewNumber(math.Floor(a / b)), nil
		}
	}
	return nil, runtimeErr(n.Span, "unknown arithmetic operator '%s'", n.Op)
}

// evalBoolean applies a comparison. Numbers compare with every operator;
// == and != also compare two strings, two booleans or two nulls. Any other
// pairing yields null.
func evalBoolean(n *ast.BooleanExpr, env *Environment) (Value, error) {
	l, r, err := evalOperands(n.Left, n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case token.KW_AND, token.KW_OR, token.KW_XOR:
		// the combination is computed twice and then combined with itself,
		// so xor here is always false
		first := logic(n.Op, truthy(l), truthy(r))
		second := logic(n.Op, truthy(l), truthy(r))
		return BoolVal(logic(n.Op, first, second)), nil
	}

	if ln, ok := l.(NumberVal); ok {
		if rn, ok := r.(NumberVal); ok {
			return compareNumbers(n, ln.Value, rn.Value)
		}
	}

	if n.Op != token.EQ && n.Op != token.NEQ {
		return NullVal{}, nil
	}
	var equal bool
	switch lv := l.(type) {
	case StringVal:
		rv, ok := r.(StringVal)
		if !ok {
			return NullVal{}, nil
		}
		equal = lv.Value == rv.Value
	case BoolVal:
		rv, ok := r.(BoolVal)
		if !ok {
			return NullVal{}, nil
		}
		equal = lv == rv
	case NullVal:
		if _, ok := r.(NullVal); !ok {
			return NullVal{}, nil
		}
		equal = true
	default:
		return NullVal{}, nil
	}
	if n.Op == token.NEQ {
		equal = !equal
	}
	return BoolVal(equal), nil
}

func compareNumbers(n *ast.BooleanExpr, a, b float64) (Value, error) {
	switch n.Op {
	case token.LT:
		return BoolVal(a < b), nil
	case token.GT:
		return BoolVal(a > b), nil
	case token.LTE:
		return BoolVal(a <= b), nil
	case token.GTE:
		return BoolVal(a >= b), nil
	case token.EQ:
		return BoolVal(a == b), nil
	case token.NEQ:
		return BoolVal(a != b), nil
	}
	return nil, runtimeErr(n.Span, "unknown comparison operator '%s'", n.Op)
}

// evalConditional evaluates both sides (no short circuit) and combines two
// booleans. `is` compares identity and accepts any operands.
func evalConditional(n *ast.ConditionalExpr, env *Environment) (Value, error) {
	l, r, err := evalOperands(n.Left, n.Right, env)
	if err != nil {
		return nil, err
	}
	if n.Op == token.KW_IS {
		return BoolVal(identical(l, r)), nil
	}

	lb, lok := l.(BoolVal)
	rb, rok := r.(BoolVal)
	if !lok || !rok {
		return nil, runtimeErr(n.Span, "operands of '%s' must be booleans, got %s and %s",
			n.Op, l.TypeName(), r.TypeName())
	}
	switch n.Op {
	case token.KW_AND, token.KW_OR, token.KW_XOR:
		return BoolVal(logic(n.Op, bool(lb), bool(rb))), nil
	}
	return nil, runtimeErr(n.Span, "unknown logical operator '%s'", n.Op)
}

func logic(op token.Kind, a, b bool) bool {
	switch op {
	case token.KW_AND:
		return a && b
	case token.KW_OR:
		return a || b
	default:
		return a != b
	}
}

func truthy(v Value) bool {
	b, ok := v.(BoolVal)
	return ok && bool(b)
}

// ============================================================
// Control flow
// ============================================================

// evalIf runs the first branch whose condition is true, in the current
// scope. No match and no else yields null.
func evalIf(n *ast.IfExpr, env *Environment) (Value, error) {
	for _, branch := range n.Branches {
		cond, err := Evaluate(branch.Condition, env)
		if err != nil {
			return nil, err
		}
		b, ok := cond.(BoolVal)
		if !ok {
			return nil, runtimeErr(branch.Condition.GetSpan(),
				"if condition must be a bool, got %s", cond.TypeName())
		}
		if b {
			return evalBody(branch.Body, env)
		}
	}
	if n.Else != nil {
		return evalBody(n.Else, env)
	}
	return NullVal{}, nil
}

// ============================================================
// Calls
// ============================================================

func evalCall(n *ast.CallExpr, env *Environment) (Value, error) {
	args := make([]Value, len(n.Args))
	for idx, arg := range n.Args {
		v, err := Evaluate(arg, env)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}

	callee, err := Evaluate(n.Callee, env)
	if err != nil {
		return nil, err
	}
	return callValue(callee, args, env, n.Span)
}

func callValue(callee Value, args []Value, env *Environment, s span.Span) (Value, error) {
	switch fn := callee.(type) {
	case *NativeFnVal:
		v, err := fn.Fn(args, env)
		if err != nil {
			var rtErr *RuntimeError
			if errors.As(err, &rtErr) {
				return nil, err
			}
			return nil, wrapErr(s, fmt.Errorf("%s: %w", fn.Name, err))
		}
		return v, nil

	case *FuncVal:
		scope, err := bindParams(fn.Name, fn.Params, args, fn.Env, s)
		if err != nil {
			return nil, err
		}
		v, err := evalBody(fn.Body, scope)
		if err != nil {
			return nil, err
		}
		if ret, ok := v.(*returnVal); ok {
			return ret.value, nil
		}
		return NullVal{}, nil

	case *LambdaVal:
		scope, err := bindParams("lambda", fn.Params, args, fn.Env, s)
		if err != nil {
			return nil, err
		}
		return Evaluate(fn.Body, scope)
	}
	return nil, runtimeErr(s, "cannot call value of type %s", callee.TypeName())
}

// bindParams creates the call scope, parented at the declaration
// environment, and binds each argument by position.
func bindParams(name string, params []string, args []Value, declEnv *Environment, s span.Span) (*Environment, error) {
	if len(args) != len(params) {
		return nil, runtimeErr(s, "%s expects %d argument(s), got %d", name, len(params), len(args))
	}
	scope := NewEnvironment(declEnv)
	for idx, param := range params {
		if err := scope.Declare(param, args[idx], false); err != nil {
			return nil, wrapErr(s, err)
		}
	}
	return scope, nil
}

// ============================================================
// Member access
// ============================================================

func evalMember(n *ast.MemberExpr, env *Environment) (Value, error) {
	object, err := Evaluate(n.Object, env)
	if err != nil {
		return nil, err
	}

	var key Value
	if n.Computed {
		key, err = Evaluate(n.Property, env)
		if err != nil {
			return nil, err
		}
	} else {
		ident, ok := n.Property.(*ast.Ident)
		if !ok {
			return nil, runtimeErr(n.Property.GetSpan(), "property name must be an identifier")
		}
		key = NewString(ident.Name)
	}

	switch obj := object.(type) {
	case *ObjectVal:
		k, ok := key.(StringVal)
		if !ok {
			return nil, runtimeErr(n.Property.GetSpan(), "object key must be a string, got %s", key.TypeName())
		}
		if v, ok := obj.Get(k.Value); ok {
			return v, nil
		}
		return NullVal{}, nil

	case *ArrayVal:
		idx, ok := key.(NumberVal)
		if !n.Computed || !ok {
			return nil, runtimeErr(n.Property.GetSpan(), "array index must be a number, got %s", key.TypeName())
		}
		i := int(idx.Value)
		if float64(i) != idx.Value || i < 0 || i >= len(obj.Elements) {
			return nil, runtimeErr(n.Property.GetSpan(), "index %s out of range for array of length %d",
				idx, len(obj.Elements))
		}
		return obj.Elements[i], nil
	}
	return nil, runtimeErr(n.Span, "cannot access member of %s", object.TypeName())
}
