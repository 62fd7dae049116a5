package runtime

import (
	"errors"
	"fmt"
	"sort"
)

// Errors reported by Environment. They are wrapped with the offending name,
// so compare with errors.Is.
var (
	ErrUndefined  = errors.New("undefined identifier")
	ErrConstant   = errors.New("cannot assign to constant")
	ErrRedeclared = errors.New("already declared in this scope")
)

// Environment represents a variable scope with a parent chain. A scope
// referenced by a closure stays alive as long as the closure does.
type Environment struct {
	values map[string]Value
	consts map[string]bool // tracks which names are constant
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		consts: make(map[string]bool),
		parent: parent,
	}
}

// Parent returns the enclosing scope, or nil for the global scope.
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Declare binds a new name in this scope.
func (e *Environment) Declare(name string, value Value, constant bool) error {
	if _, exists := e.values[name]; exists {
		return fmt.Errorf("'%s' %w", name, ErrRedeclared)
	}
	e.values[name] = value
	if constant {
		e.consts[name] = true
	}
	return nil
}

// Resolve returns the nearest scope that defines name.
func (e *Environment) Resolve(name string) (*Environment, error) {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			return env, nil
		}
	}
	return nil, fmt.Errorf("%w '%s'", ErrUndefined, name)
}

// Lookup returns the value bound to name in the nearest defining scope.
func (e *Environment) Lookup(name string) (Value, error) {
	env, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	return env.values[name], nil
}

// Assign rebinds name in the scope that defines it.
func (e *Environment) Assign(name string, value Value) error {
	env, err := e.Resolve(name)
	if err != nil {
		return err
	}
	if env.consts[name] {
		return fmt.Errorf("%w '%s'", ErrConstant, name)
	}
	env.values[name] = value
	return nil
}

// Delete removes name and its constant marker from the scope that defines it.
func (e *Environment) Delete(name string) error {
	env, err := e.Resolve(name)
	if err != nil {
		return err
	}
	delete(env.values, name)
	delete(env.consts, name)
	return nil
}

// Names returns the names bound directly in this scope, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
