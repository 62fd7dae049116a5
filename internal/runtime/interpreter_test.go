package runtime

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"tide-lang/internal/ast"
	"tide-lang/internal/lexer"
	"tide-lang/internal/parser"
	"tide-lang/internal/token"
)

// runSource parses and evaluates source code, returning captured output,
// the program's value and any error.
func runSource(t *testing.T, source string) (string, Value, error) {
	t.Helper()
	tokens, err := lexer.New(source, "test.td").Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.New(tokens).ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var buf bytes.Buffer
	v, err := NewInterpreter(&buf).Run(prog)
	return buf.String(), v, err
}

func expectOutput(t *testing.T, source, expected string) {
	t.Helper()
	out, _, err := runSource(t, source)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if strings.TrimRight(out, "\n") != strings.TrimRight(expected, "\n") {
		t.Errorf("output mismatch:\nexpected: %q\ngot:      %q", expected, out)
	}
}

// expectValue checks the String() form of the program's final value.
func expectValue(t *testing.T, source, expected string) {
	t.Helper()
	_, v, err := runSource(t, source)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if v.String() != expected {
		t.Errorf("value mismatch for %q:\nexpected: %s\ngot:      %s (%s)", source, expected, v, v.TypeName())
	}
}

func expectError(t *testing.T, source, contains string) error {
	t.Helper()
	_, _, err := runSource(t, source)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Errorf("expected error containing %q, got: %v", contains, err)
	}
	return err
}

// ---- Tests ----

func TestPrint(t *testing.T) {
	expectOutput(t, `print(42)`, "42\n")
	expectOutput(t, `print("hello", 1.5, true, null)`, "hello 1.5 true null\n")
	expectOutput(t, `print([1, "a"], {k: "v"})`, `[1, "a"] {k: "v"}`)
}

func TestEmptyProgramIsNull(t *testing.T) {
	expectValue(t, ``, "null")
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`2 + 3 * 4`, "14"},
		{`(2 + 3) * 4`, "20"},
		{`10 / 4`, "2.5"},
		{`10 % 3`, "1"},
		{`-7 % 3`, "-1"},
		{`7 ~ 2`, "3"},
		{`-7 ~ 2`, "-4"},
		{`2 ^ 10`, "1024"},
		{`0.1 + 0.2`, "0.30000000000000004"},
		{`10 - 2 - 3`, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			expectValue(t, tt.source, tt.want)
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, src := range []string{`1 / 0`, `1 % 0`, `1 ~ 0`} {
		t.Run(src, func(t *testing.T) {
			expectError(t, src, "division by zero")
		})
	}
}

func TestMixedArithmeticIsNull(t *testing.T) {
	expectValue(t, `1 + "a"`, "null")
	expectValue(t, `"a" + "b"`, "null")
	expectValue(t, `([1]) * 2`, "null")
}

func TestUndefinedOperandIsFatal(t *testing.T) {
	err := expectError(t, `1 + missing`, "undefined identifier 'missing'")
	if !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined in chain, got %v", err)
	}
}

func TestPrecedenceRegression(t *testing.T) {
	// relational binds tighter than +, so this is 1 + (2 < 3) = 1 + true
	expectValue(t, `1 + 2 < 3`, "null")
	// and binds tighter than *, so this is 2 * (true and true)
	expectValue(t, `2 * 1 < 2 and true`, "null")
	expectValue(t, `(1 + 2) < 4`, "true")
	expectValue(t, `1 < 2 and 2 < 3`, "true")
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`1 < 2`, "true"},
		{`2 <= 2`, "true"},
		{`3 >= 4`, "false"},
		{`1 == 1`, "true"},
		{`1 != 1`, "false"},
		{`"a" == "a"`, "true"},
		{`"a" != "b"`, "true"},
		{`true == false`, "false"},
		{`null == null`, "true"},
		{`"a" < "b"`, "null"},
		{`1 == "1"`, "null"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			expectValue(t, tt.source, tt.want)
		})
	}
}

func TestLogical(t *testing.T) {
	expectValue(t, `true and false`, "false")
	expectValue(t, `true or false`, "true")
	expectValue(t, `true xor true`, "false")
	expectValue(t, `true xor false`, "true")
	expectError(t, `1 and true`, "must be booleans")
}

func TestLogicalEvaluatesBothSides(t *testing.T) {
	expectOutput(t, `
fn side |v| ( print("side"); return v )
false and side(true)
`, "side\n")
}

func TestBooleanExprLogicQuirk(t *testing.T) {
	// the parser never builds this shape; the evaluator combines the
	// result with itself, so xor collapses to false
	env := NewEnvironment(nil)
	RegisterBuiltins(env, &bytes.Buffer{})
	build := func(op token.Kind, l, r bool) ast.Node {
		return &ast.BooleanExpr{Op: op, Left: &ast.Ident{Name: boolName(l)}, Right: &ast.Ident{Name: boolName(r)}}
	}
	tests := []struct {
		op   token.Kind
		l, r bool
		want bool
	}{
		{token.KW_AND, true, true, true},
		{token.KW_AND, true, false, false},
		{token.KW_OR, false, true, true},
		{token.KW_XOR, true, false, false},
	}
	for _, tt := range tests {
		v, err := Evaluate(build(tt.op, tt.l, tt.r), env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != BoolVal(tt.want) {
			t.Errorf("%v %s %v: expected %v, got %v", tt.l, tt.op, tt.r, tt.want, v)
		}
	}
}

func boolName(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestIsComparesIdentity(t *testing.T) {
	env := NewEnvironment(nil)
	arr := &ArrayVal{}
	env.Declare("a", arr, false)
	env.Declare("b", &ArrayVal{}, false)
	is := func(l, r ast.Expr) Value {
		v, err := Evaluate(&ast.ConditionalExpr{Op: token.KW_IS, Left: l, Right: r}, env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return v
	}
	if got := is(&ast.Ident{Name: "a"}, &ast.Ident{Name: "a"}); got != BoolVal(true) {
		t.Errorf("expected a is a, got %v", got)
	}
	if got := is(&ast.Ident{Name: "a"}, &ast.Ident{Name: "b"}); got != BoolVal(false) {
		t.Errorf("expected a is not b, got %v", got)
	}
	if got := is(&ast.NumberLit{Value: 2, Len: 1}, &ast.NumberLit{Value: 2, Len: 3}); got != BoolVal(true) {
		t.Errorf("expected numbers compared by value, got %v", got)
	}
}

func TestConstantDeclaration(t *testing.T) {
	err := expectError(t, `! x = 1; ! x = 2`, "already declared")
	if !errors.Is(err, ErrRedeclared) {
		t.Errorf("expected ErrRedeclared, got %v", err)
	}
	err = expectError(t, `! x = 1; x = 2`, "cannot assign to constant 'x'")
	if !errors.Is(err, ErrConstant) {
		t.Errorf("expected ErrConstant, got %v", err)
	}
	expectError(t, `? x = 1; ? x = 2`, "already declared")
}

func TestMutableDeclaration(t *testing.T) {
	expectValue(t, `? x = 1; x = 2; x`, "2")
	expectValue(t, `? x; x`, "null")
	expectValue(t, `? a = 1; ? b = 2; a = b = 7; a + b`, "14")
	expectError(t, `y = 1`, "undefined identifier 'y'")
}

func TestBuiltinConstantsAreConstant(t *testing.T) {
	expectError(t, `true = false`, "cannot assign to constant 'true'")
}

func TestInvalidAssignmentTarget(t *testing.T) {
	expectError(t, `? o = {a: 1}; o.a = 2`, "invalid assignment target")
}

func TestIfExpr(t *testing.T) {
	expectValue(t, `if {1 < 2} ( 10 ) else ( 20 )`, "10")
	expectValue(t, `if {1 > 2} ( 10 ) else ( 20 )`, "20")
	expectValue(t, `if {1 > 2} ( 10 )`, "null")
	expectValue(t, `? x = 5; if {x < 3} ( "a" ) else if {x < 6} ( "b" ) else ( "c" )`, "b")
	expectError(t, `if {1} ( 10 )`, "if condition must be a bool, got number")
}

func TestIfStopsAtFirstTrueBranch(t *testing.T) {
	expectOutput(t, `
if {true} ( print("first") ) else if {true} ( print("second") )
`, "first\n")
}

func TestIfBodySharesScope(t *testing.T) {
	expectValue(t, `if {true} ( ? inner = 3 ); inner`, "3")
}

func TestFunctions(t *testing.T) {
	expectValue(t, `fn add |a, b| ( return a + b ) add(2, 3)`, "5")
	expectValue(t, `fn noop || ( 1 ) noop()`, "null")
	expectError(t, `fn f || ( 1 ) ! f = 2`, "already declared")
	expectError(t, `fn f || ( 1 ) f = 2`, "cannot assign to constant 'f'")
}

func TestReturnStopsBody(t *testing.T) {
	expectOutput(t, `
fn pick |n| (
  if {n < 0} ( return "negative" )
  print("checked")
  return "positive"
)
print(pick(-1))
print(pick(1))
`, "negative\nchecked\npositive\n")
}

func TestRecursion(t *testing.T) {
	expectValue(t, `
fn fact |n| (
  if {n <= 1} ( return 1 )
  return n * fact(n - 1)
)
fact(10)
`, "3628800")
}

func TestArityMismatchIsFatal(t *testing.T) {
	expectError(t, `fn add |a, b| ( return a + b ) add(1)`, "add expects 2 argument(s), got 1")
	expectError(t, `? f = lambda |x| => x; f(1, 2)`, "lambda expects 1 argument(s), got 2")
}

func TestLexicalScoping(t *testing.T) {
	expectValue(t, `
? x = "global"
fn show || ( return x )
fn caller || ( ? x = "local"; return show() )
caller()
`, "global")
}

func TestClosures(t *testing.T) {
	expectValue(t, `
fn makeAdder |n| (
  return lambda |x| => x + n
)
? add5 = makeAdder(5)
add5(10)
`, "15")

	expectValue(t, `
fn counter || (
  ? count = 0
  fn next || ( count = count + 1; return count )
  return next
)
? c = counter()
c()
c()
c()
`, "3")
}

func TestLambdas(t *testing.T) {
	expectValue(t, `? sq = lambda |x| => x * x; sq(7)`, "49")
	expectValue(t, `(lambda |a, b| => a - b)(10, 4)`, "6")
	expectValue(t, `type(lambda || => 1)`, "lambda")
}

func TestCallNonCallable(t *testing.T) {
	expectError(t, `? x = 1; x()`, "cannot call value of type number")
}

func TestCallArgumentsBeforeCallee(t *testing.T) {
	expectError(t, `missing(print("arg"))`, "undefined identifier 'missing'")
	expectOutput(t, `fn f |a| ( return a ) f(print("arg"))`, "arg\n")
}

func TestDel(t *testing.T) {
	err := expectError(t, `? x = 1; del x; x`, "undefined identifier 'x'")
	if !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined, got %v", err)
	}
	expectValue(t, `! x = 1; del x; ? x = 2; x = 3; x`, "3")
	expectValue(t, `? x = 1; del x`, "null")
	expectError(t, `del nothing`, "undefined identifier 'nothing'")
}

func TestRaise(t *testing.T) {
	_, _, err := runSource(t, `print("before"); raise "boom"; print("after")`)
	var raised *RaiseError
	if !errors.As(err, &raised) {
		t.Fatalf("expected RaiseError, got %v", err)
	}
	if raised.Message != "boom" {
		t.Errorf("expected message boom, got %q", raised.Message)
	}
}

func TestArraysAndObjects(t *testing.T) {
	expectValue(t, `[1, 2 + 3, "x"]`, `[1, 5, "x"]`)
	expectValue(t, `? a = 1; {a, b: a + 1}`, "{a: 1, b: 2}")
	expectValue(t, `? o = {name: "tide", tags: ["x", "y"]}; o.tags[1]`, "y")
	expectValue(t, `? o = {a: 1}; o["a"]`, "1")
	expectValue(t, `? o = {a: 1}; o.missing`, "null")
	expectError(t, `{missing}`, "undefined identifier 'missing'")
	expectError(t, `? xs = [1, 2]; xs[2]`, "out of range")
	expectError(t, `? xs = [1, 2]; xs[0.5]`, "out of range")
	expectError(t, `? n = 1; n.x`, "cannot access member of number")
}

func TestArrayLiteralIsReevaluated(t *testing.T) {
	expectOutput(t, `
? x = 1
fn snapshot || ( return [x] )
print(snapshot())
x = 2
print(snapshot())
`, "[1]\n[2]\n")
}

func TestTypeNative(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`type(null)`, "null"},
		{`type(true)`, "bool"},
		{`type(1)`, "number"},
		{`type("s")`, "string"},
		{`type([])`, "array"},
		{`type({})`, "object"},
		{`type(print)`, "native-fn"},
		{`fn f || ( 1 ) type(f)`, "function"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			expectValue(t, tt.source, tt.want)
		})
	}
	expectError(t, `type(1, 2)`, "type: expects 1 argument, got 2")
	expectError(t, `type()`, "expects 1 argument")
}

func TestRangeNative(t *testing.T) {
	expectValue(t, `range(0, 5, 1)`, "[0, 1, 2, 3, 4]")
	expectValue(t, `range(5, 0, -1)`, "[5, 4, 3, 2, 1]")
	expectValue(t, `range(0, 1, 0.25)`, "[0, 0.25, 0.5, 0.75]")
	expectValue(t, `range(0, 5, -1)`, "[]")
	expectValue(t, `range(3, 3, 1)`, "[]")
	expectError(t, `range(0, 5)`, "expects 3 arguments")
	expectError(t, `range(0, "5", 1)`, "argument 2 must be a number")
}

func TestNumberLengthHint(t *testing.T) {
	_, v, err := runSource(t, `007`)
	if err != nil {
		t.Fatal(err)
	}
	if n := v.(NumberVal); n.Len != 3 {
		t.Errorf("expected literal length 3, got %d", n.Len)
	}
	_, v, err = runSource(t, `100 + 23`)
	if err != nil {
		t.Fatal(err)
	}
	if n := v.(NumberVal); n.Len != 3 {
		t.Errorf("expected computed length 3, got %d", n.Len)
	}
}

func TestStringLength(t *testing.T) {
	_, v, err := runSource(t, `"héllo"`)
	if err != nil {
		t.Fatal(err)
	}
	if s := v.(StringVal); s.Len != 5 {
		t.Errorf("expected 5 characters, got %d", s.Len)
	}
}

func TestFormatRoundTripEvaluates(t *testing.T) {
	sources := []string{
		`[1, -2.5, "a\"b", [true, null], {k: "v", n: [3]}]`,
		`{a: 1, nested: {b: [1, 2]}}`,
		`(2 + 3) * 4 - 10 ~ 3`,
	}
	for _, src := range sources {
		_, want, err := runSource(t, src)
		if err != nil {
			t.Fatal(err)
		}
		tokens, err := lexer.New(src, "test.td").Tokenize()
		if err != nil {
			t.Fatal(err)
		}
		prog, err := parser.New(tokens).ParseProgram()
		if err != nil {
			t.Fatal(err)
		}
		_, got, err := runSource(t, ast.Format(prog))
		if err != nil {
			t.Fatalf("re-evaluating %q: %v", ast.Format(prog), err)
		}
		if got.String() != want.String() {
			t.Errorf("round trip changed value: %s -> %s", want, got)
		}
	}
}

func TestReplStylePersistence(t *testing.T) {
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	for _, line := range []string{`? n = 2`, `fn double |x| ( return x * 2 )`, `double(n)`} {
		tokens, err := lexer.New(line, "repl").Tokenize()
		if err != nil {
			t.Fatal(err)
		}
		prog, err := parser.New(tokens).ParseProgram()
		if err != nil {
			t.Fatal(err)
		}
		v, err := interp.Run(prog)
		if err != nil {
			t.Fatal(err)
		}
		if line == `double(n)` && v.String() != "4" {
			t.Errorf("expected 4, got %s", v)
		}
	}
}

func TestReturnOutsideFunctionAtRuntime(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{&ast.ReturnExpr{Value: &ast.NumberLit{Value: 1}}}}
	_, err := NewInterpreter(&bytes.Buffer{}).Run(prog)
	if err == nil || !strings.Contains(err.Error(), "return outside of function") {
		t.Errorf("expected return outside of function, got %v", err)
	}
}
