package interp

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/types"
)

func (in *Interpreter) eval(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		if e.Type == types.UInt64 {
			return Uint(uint64(e.Int)), nil
		}
		if e.Type.IsInteger() {
			return Int(e.Int), nil
		}
		return Bool(e.Bool), nil
	case *ast.VariableExpr:
		b, ok := in.lookup(e.ID)
		if !ok {
			return Void, diag.New(diag.UndefinedVariable, e.Loc, diag.Args{"name": in.table.Name(e.ID)})
		}
		return b.value, nil
	case *ast.GroupExpr:
		return in.eval(e.Inner)
	case *ast.AssignExpr:
		return in.evalAssign(e)
	case *ast.UnaryExpr:
		return in.evalUnary(e)
	case *ast.BinaryExpr:
		return in.evalBinary(e)
	case *ast.CallExpr:
		return in.evalCall(e)
	default:
		panic(fmt.Sprintf("interp: unknown expression %T", expr))
	}
}

// evalAssign stores into the nearest frame that already binds the target.
func (in *Interpreter) evalAssign(e *ast.AssignExpr) (Value, error) {
	target, ok := ast.Unparen(e.Target).(*ast.VariableExpr)
	if !ok {
		return Void, diag.New(diag.InvalidAssignTarget, e.Target.GetLoc(), nil)
	}
	b, ok := in.lookup(target.ID)
	if !ok {
		return Void, diag.New(diag.UndefinedVariable, target.Loc, diag.Args{"name": in.table.Name(target.ID)})
	}
	v, err := in.eval(e.Value)
	if err != nil {
		return Void, err
	}
	b.value = v.narrow(b.dt)
	return b.value, nil
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	v, err := in.eval(e.Operand)
	if err != nil {
		return Void, err
	}
	switch e.Op {
	case ast.Not:
		return Bool(!v.Truthy()), nil
	default:
		if !v.numeric() {
			return Void, diag.New(diag.InvalidOperand, e.Loc, diag.Args{"operator": e.Op.String()})
		}
		return Value{Kind: KindInt, Int: -v.Int, Unsigned: v.Unsigned}, nil
	}
}

// evalBinary evaluates both operands before applying the operator. There
// is no short-circuiting.
func (in *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	lhs, err := in.eval(e.Left)
	if err != nil {
		return Void, err
	}
	rhs, err := in.eval(e.Right)
	if err != nil {
		return Void, err
	}
	if !lhs.numeric() || !rhs.numeric() {
		return Void, diag.New(diag.InvalidOperand, e.Loc, diag.Args{"operator": e.Op.String()})
	}
	if (e.Op == ast.Div || e.Op == ast.Mod) && rhs.Int == 0 {
		return Void, diag.New(diag.DivisionByZero, e.Loc, nil)
	}
	// A uint64 operand makes the whole operation unsigned.
	if lhs.Unsigned || rhs.Unsigned {
		return unsignedBinary(e.Op, uint64(lhs.Int), uint64(rhs.Int)), nil
	}
	a, b := lhs.Int, rhs.Int
	switch e.Op {
	case ast.Add:
		return Int(a + b), nil
	case ast.Sub:
		return Int(a - b), nil
	case ast.Mul:
		return Int(a * b), nil
	case ast.Div:
		return Int(a / b), nil
	case ast.Mod:
		return Int(a % b), nil
	case ast.Eq:
		return Bool(a == b), nil
	case ast.NotEq:
		return Bool(a != b), nil
	case ast.Lt:
		return Bool(a < b), nil
	case ast.Gt:
		return Bool(a > b), nil
	case ast.LtEq:
		return Bool(a <= b), nil
	case ast.GtEq:
		return Bool(a >= b), nil
	default:
		panic(fmt.Sprintf("interp: unknown operator %d", e.Op))
	}
}

func unsignedBinary(op ast.BinaryOp, a, b uint64) Value {
	switch op {
	case ast.Add:
		return Uint(a + b)
	case ast.Sub:
		return Uint(a - b)
	case ast.Mul:
		return Uint(a * b)
	case ast.Div:
		return Uint(a / b)
	case ast.Mod:
		return Uint(a % b)
	case ast.Eq:
		return Bool(a == b)
	case ast.NotEq:
		return Bool(a != b)
	case ast.Lt:
		return Bool(a < b)
	case ast.Gt:
		return Bool(a > b)
	case ast.LtEq:
		return Bool(a <= b)
	case ast.GtEq:
		return Bool(a >= b)
	default:
		panic(fmt.Sprintf("interp: unknown operator %d", op))
	}
}

// evalCall checks the callee and its arity before any argument is
// evaluated, so a bad call has no side effects.
func (in *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := in.eval(e.Callee)
	if err != nil {
		return Void, err
	}
	if callee.Kind != KindFunc {
		return Void, diag.New(diag.NotCallable, e.Loc, diag.Args{"value": in.describe(e.Callee, callee)})
	}
	fn := callee.Fn
	if arity := fn.Arity(); arity >= 0 && arity != len(e.Args) {
		return Void, diag.New(diag.ArityMismatch, e.Loc, diag.Args{
			"name":     fn.Name(),
			"expected": arity,
			"actual":   len(e.Args),
		})
	}
	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		if args[i], err = in.eval(arg); err != nil {
			return Void, err
		}
	}
	return fn.call(in, args, e.Loc)
}

// describe names a non-callable callee for diagnostics: the variable name
// when there is one, the value otherwise.
func (in *Interpreter) describe(expr ast.Expr, v Value) string {
	if ve, ok := ast.Unparen(expr).(*ast.VariableExpr); ok {
		return in.table.Name(ve.ID)
	}
	return v.String()
}
