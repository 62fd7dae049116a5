package ast

import (
	"testing"

	"tide-lang/internal/token"
)

func num(v float64) *NumberLit { return &NumberLit{Value: v} }
func ident(name string) *Ident { return &Ident{Name: name} }

func TestFormatOperandsAreParenthesised(t *testing.T) {
	// (1 + 2) * 3 cannot be written without parentheses
	expr := &BinaryExpr{
		Op:    token.STAR,
		Left:  &BinaryExpr{Op: token.PLUS, Left: num(1), Right: num(2)},
		Right: num(3),
	}
	if got, want := Format(expr), "(1 + 2) * 3"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatLiterals(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"integer", num(42), "42"},
		{"negative float", num(-2.5), "-2.5"},
		{"string escapes", &StringLit{Value: "a\"b\n"}, `"a\"b\n"`},
		{"array", &ArrayLit{Elements: []Expr{num(1), &StringLit{Value: "x"}}}, `[1, "x"]`},
		{"object", &ObjectLit{Properties: []Property{
			{Key: "a", Value: num(1)},
			{Key: "b"},
		}}, "{a: 1, b}"},
		{"null", &NullLit{}, "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.node); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatProgram(t *testing.T) {
	prog := &Program{Body: []Node{
		&FuncDecl{
			Name:   "add",
			Params: []string{"a", "b"},
			Body: []Node{
				&ReturnExpr{Value: &BinaryExpr{Op: token.PLUS, Left: ident("a"), Right: ident("b")}},
			},
		},
		&VarDecl{Name: "x", Constant: true, Value: &CallExpr{
			Callee: ident("add"),
			Args:   []Expr{num(2), num(3)},
		}},
		&IfExpr{
			Branches: []IfBranch{{
				Condition: &BooleanExpr{Op: token.GT, Left: ident("x"), Right: num(4)},
				Body:      []Node{&CallExpr{Callee: ident("print"), Args: []Expr{ident("x")}}},
			}},
			Else: []Node{&RaiseExpr{Message: "too small"}},
		},
		&VarDecl{Name: "f", Value: &LambdaDecl{Params: []string{"n"}, Body: ident("n")}},
	}}

	want := `fn add |a, b| (
  return a + b;
)
! x = add(2, 3);
if {x > 4} (
  print(x);
) else (
  raise "too small";
)
? f = lambda |n| => n;
`
	if got := Format(prog); got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestNodeToMapKinds(t *testing.T) {
	m := NodeToMap(&MemberExpr{Object: ident("o"), Property: ident("k")})
	if m["kind"] != "MemberExpr" {
		t.Fatalf("expected MemberExpr, got %v", m["kind"])
	}
	if m["computed"] != false {
		t.Errorf("expected computed=false, got %v", m["computed"])
	}
	obj := m["object"].(map[string]interface{})
	if obj["name"] != "o" {
		t.Errorf("expected object name o, got %v", obj["name"])
	}

	decl := NodeToMap(&VarDecl{Name: "x"})
	if _, ok := decl["value"]; ok {
		t.Errorf("expected no value for bare declaration, got %v", decl["value"])
	}
}
