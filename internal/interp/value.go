package interp

import (
	"strconv"

	"ember/internal/types"
)

type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindBool
	KindFunc
)

// Value is a runtime value. Integers and booleans share Int (booleans hold
// 0 or 1); Fn is set only for KindFunc. Unsigned marks a uint64 integer
// whose bits are kept in Int.
type Value struct {
	Kind     Kind
	Int      int64
	Unsigned bool
	Fn       Callable
}

var Void = Value{Kind: KindVoid}

func Int(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

func Uint(v uint64) Value {
	return Value{Kind: KindInt, Int: int64(v), Unsigned: true}
}

func Bool(b bool) Value {
	if b {
		return Value{Kind: KindBool, Int: 1}
	}
	return Value{Kind: KindBool}
}

func Func(fn Callable) Value {
	return Value{Kind: KindFunc, Fn: fn}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		if v.Unsigned {
			return strconv.FormatUint(uint64(v.Int), 10)
		}
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		if v.Int != 0 {
			return "true"
		}
		return "false"
	case KindFunc:
		return "<fn " + v.Fn.Name() + ">"
	default:
		return "void"
	}
}

func (v Value) Truthy() bool {
	switch v.Kind {
	case KindInt, KindBool:
		return v.Int != 0
	case KindFunc:
		return true
	default:
		return false
	}
}

// numeric reports whether v can take part in arithmetic.
func (v Value) numeric() bool {
	return v.Kind == KindInt || v.Kind == KindBool
}

// narrow converts v for storage in a binding of type dt. Untyped bindings
// (functions, builtins) keep the value as is.
func (v Value) narrow(dt types.Datatype) Value {
	if !v.numeric() {
		return v
	}
	switch {
	case dt == types.Boolean:
		return Bool(v.Int != 0)
	case dt == types.UInt64:
		return Uint(uint64(v.Int))
	case dt.IsInteger():
		return Int(dt.Narrow(v.Int))
	default:
		return v
	}
}

// zero is the value of a declaration without an initialiser.
func zero(dt types.Datatype) Value {
	switch {
	case dt == types.Boolean:
		return Bool(false)
	case dt == types.UInt64:
		return Uint(0)
	case dt.IsInteger():
		return Int(0)
	default:
		return Void
	}
}
