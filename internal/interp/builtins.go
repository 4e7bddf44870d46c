package interp

import (
	"fmt"
	"strings"

	"ember/internal/diag"
)

// Callable is implemented by Ember functions and host builtins. An arity
// of -1 accepts any number of arguments.
type Callable interface {
	Name() string
	Arity() int
	call(in *Interpreter, args []Value, loc diag.Location) (Value, error)
}

type Builtin struct {
	name  string
	arity int
	fn    func(in *Interpreter, args []Value) (Value, error)
}

func (b *Builtin) Name() string { return b.name }
func (b *Builtin) Arity() int   { return b.arity }

func (b *Builtin) call(in *Interpreter, args []Value, _ diag.Location) (Value, error) {
	return b.fn(in, args)
}

var builtins = []*Builtin{
	{name: "print", arity: -1, fn: builtinPrint},
}

func builtinPrint(in *Interpreter, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	if _, err := fmt.Fprintln(in.out, strings.Join(parts, " ")); err != nil {
		return Void, fmt.Errorf("print: %w", err)
	}
	return Void, nil
}
