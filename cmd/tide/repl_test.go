package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestBracketDepth(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"? x = 1;", 0},
		{"fn f |a| (", 1},
		{"fn f |a| (\n  return a;\n)", 0},
		{`print("(");`, 0},
		{`print("\"(");`, 0},
		{"{a: [1, 2", 2},
		{"/* ( */ x", 0},
		{"/* ( ", 1},
		{")", -1},
		{"print('(')", 0},
		{`'\''`, 0},
		{`'"(' + "')"`, 0},
	}
	for _, tt := range tests {
		if got := bracketDepth(tt.input); got != tt.want {
			t.Errorf("bracketDepth(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func newTestSession() (*session, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return newSession(&out, &errOut, false), &out, &errOut
}

func TestSessionPersistsBindings(t *testing.T) {
	s, out, errOut := newTestSession()
	for _, line := range []string{"? x = 20;", "x + 1;"} {
		if !s.feed(line) {
			t.Fatalf("expected %q to complete", line)
		}
	}
	if errOut.Len() > 0 {
		t.Fatalf("unexpected errors: %s", errOut)
	}
	if got := out.String(); got != "21\n" {
		t.Errorf("expected %q, got %q", "21\n", got)
	}
}

func TestSessionMultiLineInput(t *testing.T) {
	s, out, errOut := newTestSession()
	lines := []string{"fn double |n| (", "  return n * 2;", ")", "double(4);"}
	var completed []bool
	for _, line := range lines {
		completed = append(completed, s.feed(line))
	}
	want := []bool{false, false, true, true}
	for i := range want {
		if completed[i] != want[i] {
			t.Errorf("line %d: expected complete=%v, got %v", i+1, want[i], completed[i])
		}
	}
	if errOut.Len() > 0 {
		t.Fatalf("unexpected errors: %s", errOut)
	}
	if got := out.String(); got != "8\n" {
		t.Errorf("expected %q, got %q", "8\n", got)
	}
}

func TestSessionRecoversFromErrors(t *testing.T) {
	s, out, errOut := newTestSession()
	s.feed("? x 1;")
	s.feed("undefinedName;")
	s.feed(`raise "boom";`)
	s.feed(`"still alive";`)

	errs := errOut.String()
	for _, want := range []string{"<repl>: [E2003]", "undefined identifier 'undefinedName'", "boom"} {
		if !strings.Contains(errs, want) {
			t.Errorf("expected errors to contain %q, got:\n%s", want, errs)
		}
	}
	if got := out.String(); got != "still alive\n" {
		t.Errorf("expected session to keep running, got %q", got)
	}
}

func TestSessionSingleQuotedBracket(t *testing.T) {
	s, out, errOut := newTestSession()
	if !s.feed("print('(');") {
		t.Fatal("expected single-quoted bracket to complete the input")
	}
	if errOut.Len() > 0 {
		t.Fatalf("unexpected errors: %s", errOut)
	}
	if got := out.String(); got != "(\n" {
		t.Errorf("expected %q, got %q", "(\n", got)
	}
}

func TestSessionEchoesOnlyExpressions(t *testing.T) {
	s, out, _ := newTestSession()
	s.feed("? x = 1;")
	s.feed("! y = 2;")
	s.feed("fn f || ( return 3; )")
	if out.Len() > 0 {
		t.Fatalf("expected declarations to print nothing, got %q", out.String())
	}
	s.feed("x = 5;")
	s.feed("? z = 1; z + x;")
	if got := out.String(); got != "5\n6\n" {
		t.Errorf("expected %q, got %q", "5\n6\n", got)
	}
}

func TestSessionSkipsNullResults(t *testing.T) {
	s, out, _ := newTestSession()
	s.feed(`print("hi");`)
	if got := out.String(); got != "hi\n" {
		t.Errorf("expected only printed output, got %q", got)
	}
}

func TestSessionCommands(t *testing.T) {
	s, out, _ := newTestSession()
	s.feed("? answer = 42;")

	if handled, quit := s.command(":env"); !handled || quit {
		t.Fatalf("expected :env handled without quitting")
	}
	if !strings.Contains(out.String(), "answer 42") {
		t.Errorf("expected :env to list answer, got %q", out.String())
	}
	if handled, quit := s.command("exit"); !handled || !quit {
		t.Error("expected exit to quit")
	}
	if handled, _ := s.command("answer;"); handled {
		t.Error("expected ordinary input to pass through")
	}
}

func TestSplitConfigFlag(t *testing.T) {
	args, path, err := splitConfigFlag([]string{"--config", "my.yaml", "run", "main.td"})
	if err != nil {
		t.Fatal(err)
	}
	if path != "my.yaml" || strings.Join(args, " ") != "run main.td" {
		t.Errorf("got args=%v path=%q", args, path)
	}

	args, path, _ = splitConfigFlag([]string{"run", "--config=x.yaml", "main.td"})
	if path != "x.yaml" || strings.Join(args, " ") != "run main.td" {
		t.Errorf("got args=%v path=%q", args, path)
	}

	if _, _, err := splitConfigFlag([]string{"run", "--config"}); err == nil {
		t.Error("expected error for --config without a path")
	}
}
