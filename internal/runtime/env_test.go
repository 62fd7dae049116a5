package runtime

import (
	"errors"
	"testing"
)

func TestEnvDeclareAndLookup(t *testing.T) {
	env := NewEnvironment(nil)
	if err := env.Declare("x", NewNumber(1), false); err != nil {
		t.Fatal(err)
	}
	v, err := env.Lookup("x")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "1" {
		t.Errorf("expected 1, got %s", v)
	}
	if err := env.Declare("x", NewNumber(2), false); !errors.Is(err, ErrRedeclared) {
		t.Errorf("expected ErrRedeclared, got %v", err)
	}
}

func TestEnvLookupWalksParents(t *testing.T) {
	global := NewEnvironment(nil)
	global.Declare("g", NewString("outer"), false)
	child := NewEnvironment(global)

	v, err := child.Lookup("g")
	if err != nil || v.String() != "outer" {
		t.Fatalf("expected outer, got %v, %v", v, err)
	}
	owner, err := child.Resolve("g")
	if err != nil || owner != global {
		t.Errorf("expected global to own g, got %p, %v", owner, err)
	}
	if _, err := child.Lookup("nope"); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined, got %v", err)
	}
}

func TestEnvShadowing(t *testing.T) {
	global := NewEnvironment(nil)
	global.Declare("x", NewNumber(1), true)
	child := NewEnvironment(global)
	if err := child.Declare("x", NewNumber(2), false); err != nil {
		t.Fatalf("shadowing in a child scope should succeed: %v", err)
	}
	v, _ := child.Lookup("x")
	if v.String() != "2" {
		t.Errorf("expected shadowed value 2, got %s", v)
	}
}

func TestEnvAssignUpdatesOwningScope(t *testing.T) {
	global := NewEnvironment(nil)
	global.Declare("x", NewNumber(1), false)
	child := NewEnvironment(global)

	if err := child.Assign("x", NewNumber(5)); err != nil {
		t.Fatal(err)
	}
	v, _ := global.Lookup("x")
	if v.String() != "5" {
		t.Errorf("expected 5 in global, got %s", v)
	}
	if names := child.Names(); len(names) != 0 {
		t.Errorf("assign must not declare in child, got %v", names)
	}
}

func TestEnvAssignConstant(t *testing.T) {
	env := NewEnvironment(nil)
	env.Declare("k", NewNumber(1), true)
	if err := env.Assign("k", NewNumber(2)); !errors.Is(err, ErrConstant) {
		t.Errorf("expected ErrConstant, got %v", err)
	}
	if err := env.Assign("missing", NewNumber(2)); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined, got %v", err)
	}
}

func TestEnvDeleteRemovesConstantMarker(t *testing.T) {
	global := NewEnvironment(nil)
	global.Declare("k", NewNumber(1), true)
	child := NewEnvironment(global)

	if err := child.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, err := global.Lookup("k"); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected k to be gone, got %v", err)
	}
	global.Declare("k", NewNumber(2), false)
	if err := global.Assign("k", NewNumber(3)); err != nil {
		t.Errorf("expected k to be mutable after redeclaration, got %v", err)
	}
}

func TestEnvNames(t *testing.T) {
	env := NewEnvironment(nil)
	RegisterBuiltins(env, nil)
	want := []string{"false", "null", "print", "range", "true", "type"}
	got := env.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}
