// Package runtime implements the evaluator and runtime value system for tide-lang.
package runtime

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"tide-lang/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// NullVal represents null.
type NullVal struct{}

func (v NullVal) TypeName() string { return "null" }
func (v NullVal) String() string   { return "null" }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }

// NumberVal is a number together with its display length hint.
type NumberVal struct {
	Value float64
	Len   int
}

// NewNumber makes a NumberVal whose length hint matches its display form.
func NewNumber(v float64) NumberVal {
	return NumberVal{Value: v, Len: len(formatNumber(v))}
}

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string   { return formatNumber(v.Value) }

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// StringVal is a string together with its length in characters.
type StringVal struct {
	Value string
	Len   int
}

// NewString makes a StringVal with its length filled in.
func NewString(s string) StringVal {
	return StringVal{Value: s, Len: utf8.RuneCountInString(s)}
}

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return v.Value }

// ---- Compound values ----

// ArrayVal represents an array value.
type ArrayVal struct {
	Elements []Value
}

func (v *ArrayVal) TypeName() string { return "array" }
func (v *ArrayVal) String() string {
	parts := make([]string, len(v.Elements))
	for i, elem := range v.Elements {
		parts[i] = nested(elem)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjectVal is a string-keyed map that remembers insertion order.
type ObjectVal struct {
	Keys   []string
	Values map[string]Value
}

// NewObject returns an empty object.
func NewObject() *ObjectVal {
	return &ObjectVal{Values: make(map[string]Value)}
}

// Set stores value under key, keeping the key's first position.
func (v *ObjectVal) Set(key string, value Value) {
	if _, exists := v.Values[key]; !exists {
		v.Keys = append(v.Keys, key)
	}
	v.Values[key] = value
}

// Get returns the value stored under key.
func (v *ObjectVal) Get(key string) (Value, bool) {
	val, ok := v.Values[key]
	return val, ok
}

func (v *ObjectVal) TypeName() string { return "object" }
func (v *ObjectVal) String() string {
	parts := make([]string, len(v.Keys))
	for i, k := range v.Keys {
		parts[i] = k + ": " + nested(v.Values[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// nested renders a value inside an array or object, where strings are quoted.
func nested(v Value) string {
	if s, ok := v.(StringVal); ok {
		return strconv.Quote(s.Value)
	}
	return v.String()
}

// ---- Callable values ----

// NativeFn is the Go signature for host-provided functions. env is the
// environment of the call site.
type NativeFn func(args []Value, env *Environment) (Value, error)

// NativeFnVal represents a host-provided function.
type NativeFnVal struct {
	Name string
	Fn   NativeFn
}

func (v *NativeFnVal) TypeName() string { return "native-fn" }
func (v *NativeFnVal) String() string   { return fmt.Sprintf("<native-fn %s>", v.Name) }

// FuncVal represents a user-defined function closing over its declaration
// environment.
type FuncVal struct {
	Name   string
	Params []string
	Body   []ast.Node
	Env    *Environment
}

func (v *FuncVal) TypeName() string { return "function" }
func (v *FuncVal) String() string   { return fmt.Sprintf("<function %s>", v.Name) }

// LambdaVal is an anonymous function whose body is a single expression.
type LambdaVal struct {
	Params []string
	Body   ast.Expr
	Env    *Environment
}

func (v *LambdaVal) TypeName() string { return "lambda" }
func (v *LambdaVal) String() string {
	return fmt.Sprintf("<lambda |%s|>", strings.Join(v.Params, ", "))
}

// returnVal carries a returned value up to the enclosing call.
type returnVal struct {
	value Value
}

func (v *returnVal) TypeName() string { return "return" }
func (v *returnVal) String() string   { return v.value.String() }

// ---- Helpers ----

// ValuesString formats a slice of values with a separator.
func ValuesString(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// identical reports whether a and b are the same value: equal primitives or
// the same compound instance.
func identical(a, b Value) bool {
	switch x := a.(type) {
	case NullVal:
		_, ok := b.(NullVal)
		return ok
	case BoolVal:
		y, ok := b.(BoolVal)
		return ok && x == y
	case NumberVal:
		y, ok := b.(NumberVal)
		return ok && x.Value == y.Value
	case StringVal:
		y, ok := b.(StringVal)
		return ok && x.Value == y.Value
	}
	return a == b
}
