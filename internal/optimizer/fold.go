// Package optimizer rewrites ASTs without changing what they compute.
package optimizer

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/types"
)

// Fold returns a copy of mod in which operators applied to literal
// operands are replaced by their result. Division and modulo by a literal
// zero are left alone so the error still surfaces at run time. The input
// tree is not modified.
func Fold(mod *ast.Module) *ast.Module {
	body := make([]ast.Stmt, len(mod.Body))
	for i, s := range mod.Body {
		body[i] = foldStmt(s)
	}
	return &ast.Module{File: mod.File, Body: body}
}

func foldStmt(stmt ast.Stmt) ast.Stmt {
	switch s := stmt.(type) {
	case nil:
		return nil
	case *ast.FunctionDecl:
		cp := ast.CloneStmt(s).(*ast.FunctionDecl)
		cp.Body = foldStmt(s.Body).(*ast.BlockStmt)
		return cp
	case *ast.VariableDecl:
		return &ast.VariableDecl{ID: s.ID, Type: s.Type, Init: FoldExpr(s.Init), Loc: s.Loc}
	case *ast.BlockStmt:
		body := make([]ast.Stmt, len(s.Body))
		for i, c := range s.Body {
			body[i] = foldStmt(c)
		}
		return &ast.BlockStmt{Body: body, Loc: s.Loc}
	case *ast.ConditionalStmt:
		return &ast.ConditionalStmt{Cond: FoldExpr(s.Cond), Body: foldStmt(s.Body), Else: foldStmt(s.Else), Loc: s.Loc}
	case *ast.LoopStmt:
		return &ast.LoopStmt{Cond: FoldExpr(s.Cond), Body: foldStmt(s.Body), Loc: s.Loc}
	case *ast.ReturnStmt:
		return &ast.ReturnStmt{Value: FoldExpr(s.Value), Loc: s.Loc}
	case *ast.ExprStmt:
		return &ast.ExprStmt{Expr: FoldExpr(s.Expr), Loc: s.Loc}
	default:
		panic(fmt.Sprintf("optimizer: unknown statement %T", stmt))
	}
}

// FoldExpr folds a single expression, returning a new tree.
func FoldExpr(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.LiteralExpr, *ast.VariableExpr:
		return ast.CloneExpr(e)
	case *ast.GroupExpr:
		inner := FoldExpr(e.Inner)
		if lit, ok := inner.(*ast.LiteralExpr); ok {
			lit.Loc = e.Loc
			return lit
		}
		return &ast.GroupExpr{Inner: inner, Loc: e.Loc}
	case *ast.AssignExpr:
		return &ast.AssignExpr{Target: ast.CloneExpr(e.Target), Value: FoldExpr(e.Value), Loc: e.Loc}
	case *ast.CallExpr:
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = FoldExpr(a)
		}
		return &ast.CallExpr{Callee: FoldExpr(e.Callee), Args: args, Loc: e.Loc}
	case *ast.UnaryExpr:
		operand := FoldExpr(e.Operand)
		if lit, ok := operand.(*ast.LiteralExpr); ok {
			if e.Op == ast.Not {
				return ast.BoolLit(lit.Value() == 0, e.Loc)
			}
			if lit.Type == types.UInt64 {
				return ast.UintLit(uint64(-lit.Value()), e.Loc)
			}
			return ast.IntLit(-lit.Value(), e.Loc)
		}
		return &ast.UnaryExpr{Op: e.Op, Operand: operand, Loc: e.Loc}
	case *ast.BinaryExpr:
		left, right := FoldExpr(e.Left), FoldExpr(e.Right)
		l, lok := left.(*ast.LiteralExpr)
		r, rok := right.(*ast.LiteralExpr)
		if lok && rok {
			unsigned := l.Type == types.UInt64 || r.Type == types.UInt64
			if folded, ok := apply(e.Op, l.Value(), r.Value(), unsigned, e.Loc); ok {
				return folded
			}
		}
		return &ast.BinaryExpr{Op: e.Op, Left: left, Right: right, Loc: e.Loc}
	default:
		panic(fmt.Sprintf("optimizer: unknown expression %T", expr))
	}
}

// apply computes a op b. With unsigned set both operands are read as
// uint64, the same rule the interpreter uses.
func apply(op ast.BinaryOp, a, b int64, unsigned bool, loc diag.Location) (*ast.LiteralExpr, bool) {
	if (op == ast.Div || op == ast.Mod) && b == 0 {
		return nil, false
	}
	if unsigned {
		return applyUnsigned(op, uint64(a), uint64(b), loc)
	}
	switch op {
	case ast.Add:
		return ast.IntLit(a+b, loc), true
	case ast.Sub:
		return ast.IntLit(a-b, loc), true
	case ast.Mul:
		return ast.IntLit(a*b, loc), true
	case ast.Div:
		return ast.IntLit(a/b, loc), true
	case ast.Mod:
		return ast.IntLit(a%b, loc), true
	case ast.Eq:
		return ast.BoolLit(a == b, loc), true
	case ast.NotEq:
		return ast.BoolLit(a != b, loc), true
	case ast.Lt:
		return ast.BoolLit(a < b, loc), true
	case ast.Gt:
		return ast.BoolLit(a > b, loc), true
	case ast.LtEq:
		return ast.BoolLit(a <= b, loc), true
	case ast.GtEq:
		return ast.BoolLit(a >= b, loc), true
	}
	return nil, false
}

func applyUnsigned(op ast.BinaryOp, a, b uint64, loc diag.Location) (*ast.LiteralExpr, bool) {
	switch op {
	case ast.Add:
		return ast.UintLit(a+b, loc), true
	case ast.Sub:
		return ast.UintLit(a-b, loc), true
	case ast.Mul:
		return ast.UintLit(a*b, loc), true
	case ast.Div:
		return ast.UintLit(a/b, loc), true
	case ast.Mod:
		return ast.UintLit(a%b, loc), true
	case ast.Eq:
		return ast.BoolLit(a == b, loc), true
	case ast.NotEq:
		return ast.BoolLit(a != b, loc), true
	case ast.Lt:
		return ast.BoolLit(a < b, loc), true
	case ast.Gt:
		return ast.BoolLit(a > b, loc), true
	case ast.LtEq:
		return ast.BoolLit(a <= b, loc), true
	case ast.GtEq:
		return ast.BoolLit(a >= b, loc), true
	}
	return nil, false
}
