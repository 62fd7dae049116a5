package runtime

import (
	"fmt"
	"io"
)

// RegisterBuiltins declares the natives and the true/false/null constants
// in env. print writes to w.
func RegisterBuiltins(env *Environment, w io.Writer) {
	env.Declare("true", BoolVal(true), true)
	env.Declare("false", BoolVal(false), true)
	env.Declare("null", NullVal{}, true)

	env.Declare("print", &NativeFnVal{
		Name: "print",
		Fn: func(args []Value, _ *Environment) (Value, error) {
			fmt.Fprintln(w, ValuesString(args, " "))
			return NullVal{}, nil
		},
	}, true)

	env.Declare("type", &NativeFnVal{
		Name: "type",
		Fn: func(args []Value, _ *Environment) (Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expects 1 argument, got %d", len(args))
			}
			return NewString(args[0].TypeName()), nil
		},
	}, true)

	env.Declare("range", &NativeFnVal{
		Name: "range",
		Fn:   rangeFn,
	}, true)
}

// rangeFn implements range(start, end, step). It counts up when start < end
// and step > 0, down when start > end and step < 0, and is empty otherwise.
// end is exclusive.
func rangeFn(args []Value, _ *Environment) (Value, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("expects 3 arguments (start, end, step), got %d", len(args))
	}
	nums := make([]float64, 3)
	for i, arg := range args {
		n, ok := arg.(NumberVal)
		if !ok {
			return nil, fmt.Errorf("argument %d must be a number, got %s", i+1, arg.TypeName())
		}
		nums[i] = n.Value
	}
	start, end, step := nums[0], nums[1], nums[2]

	elements := []Value{}
	switch {
	case start < end && step > 0:
		for v := start; v < end; v += step {
			elements = append(elements, NewNumber(v))
		}
	case start > end && step < 0:
		for v := start; v > end; v += step {
			elements = append(elements, NewNumber(v))
		}
	}
	return &ArrayVal{Elements: elements}, nil
}
