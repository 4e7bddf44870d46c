package ast

import (
	"fmt"

	"ember/internal/diag"
	"ember/internal/types"
)

type Node interface {
	node()
}

type Stmt interface {
	Node
	stmtNode()
	GetLoc() diag.Location
}

type Expr interface {
	Node
	exprNode()
	GetLoc() diag.Location
}

type Module struct {
	File string
	Body []Stmt
}

func (*Module) node() {}

type Param struct {
	ID   int
	Type types.Datatype
	Loc  diag.Location
}

func (*Param) node() {}

type FunctionDecl struct {
	ID     int
	Params []*Param
	Return types.Datatype
	Body   *BlockStmt
	Loc    diag.Location
}

// VariableDecl declares one name. A declaration listing several names is
// parsed into consecutive VariableDecl statements.
type VariableDecl struct {
	ID   int
	Type types.Datatype
	Init Expr // nil when no initialiser was written
	Loc  diag.Location
}

type BlockStmt struct {
	Body []Stmt
	Loc  diag.Location
}

type ConditionalStmt struct {
	Cond Expr
	Body Stmt
	Else Stmt
	Loc  diag.Location
}

// LoopStmt is the only loop form; do-while and for are desugared into it.
type LoopStmt struct {
	Cond Expr
	Body Stmt
	Loc  diag.Location
}

type ReturnStmt struct {
	Value Expr
	Loc   diag.Location
}

type ExprStmt struct {
	Expr Expr
	Loc  diag.Location
}

func (*FunctionDecl) node()    {}
func (*VariableDecl) node()    {}
func (*BlockStmt) node()       {}
func (*ConditionalStmt) node() {}
func (*LoopStmt) node()        {}
func (*ReturnStmt) node()      {}
func (*ExprStmt) node()        {}

func (*FunctionDecl) stmtNode()    {}
func (*VariableDecl) stmtNode()    {}
func (*BlockStmt) stmtNode()       {}
func (*ConditionalStmt) stmtNode() {}
func (*LoopStmt) stmtNode()        {}
func (*ReturnStmt) stmtNode()      {}
func (*ExprStmt) stmtNode()        {}

func (s *FunctionDecl) GetLoc() diag.Location    { return s.Loc }
func (s *VariableDecl) GetLoc() diag.Location    { return s.Loc }
func (s *BlockStmt) GetLoc() diag.Location       { return s.Loc }
func (s *ConditionalStmt) GetLoc() diag.Location { return s.Loc }
func (s *LoopStmt) GetLoc() diag.Location        { return s.Loc }
func (s *ReturnStmt) GetLoc() diag.Location      { return s.Loc }
func (s *ExprStmt) GetLoc() diag.Location        { return s.Loc }

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	NotEq
	Lt
	Gt
	LtEq
	GtEq
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Eq:
		return "=="
	case NotEq:
		return "!="
	case Lt:
		return "<"
	case Gt:
		return ">"
	case LtEq:
		return "<="
	case GtEq:
		return ">="
	default:
		return fmt.Sprintf("binop(%d)", int(op))
	}
}

// IsComparison reports whether the operator yields a boolean.
func (op BinaryOp) IsComparison() bool {
	return op >= Eq
}

// Precedence follows the grammar: equality binds loosest, multiplicative
// operators tightest.
func (op BinaryOp) Precedence() int {
	switch op {
	case Eq, NotEq:
		return 1
	case Lt, Gt, LtEq, GtEq:
		return 2
	case Add, Sub:
		return 3
	default:
		return 4
	}
}

type UnaryOp int

const (
	Neg UnaryOp = iota
	Not
)

func (op UnaryOp) String() string {
	if op == Not {
		return "!"
	}
	return "-"
}

type AssignExpr struct {
	Target Expr
	Value  Expr
	Loc    diag.Location
}

type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
	Loc   diag.Location
}

type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
	Loc     diag.Location
}

type CallExpr struct {
	Callee Expr
	Args   []Expr
	Loc    diag.Location
}

type GroupExpr struct {
	Inner Expr
	Loc   diag.Location
}

type VariableExpr struct {
	ID  int
	Loc diag.Location
}

// LiteralExpr holds an integer (Type is an integer datatype, value in Int)
// or a boolean (Type is Boolean, value in Bool).
type LiteralExpr struct {
	Type types.Datatype
	Int  int64
	Bool bool
	Loc  diag.Location
}

func (*AssignExpr) node()   {}
func (*BinaryExpr) node()   {}
func (*UnaryExpr) node()    {}
func (*CallExpr) node()     {}
func (*GroupExpr) node()    {}
func (*VariableExpr) node() {}
func (*LiteralExpr) node()  {}

func (*AssignExpr) exprNode()   {}
func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*CallExpr) exprNode()     {}
func (*GroupExpr) exprNode()    {}
func (*VariableExpr) exprNode() {}
func (*LiteralExpr) exprNode()  {}

func (e *AssignExpr) GetLoc() diag.Location   { return e.Loc }
func (e *BinaryExpr) GetLoc() diag.Location   { return e.Loc }
func (e *UnaryExpr) GetLoc() diag.Location    { return e.Loc }
func (e *CallExpr) GetLoc() diag.Location     { return e.Loc }
func (e *GroupExpr) GetLoc() diag.Location    { return e.Loc }
func (e *VariableExpr) GetLoc() diag.Location { return e.Loc }
func (e *LiteralExpr) GetLoc() diag.Location  { return e.Loc }

// Value returns the literal as an int64, booleans mapping to 0 and 1.
func (e *LiteralExpr) Value() int64 {
	if e.Type == types.Boolean {
		if e.Bool {
			return 1
		}
		return 0
	}
	return e.Int
}

func IntLit(v int64, loc diag.Location) *LiteralExpr {
	return &LiteralExpr{Type: types.Int64, Int: v, Loc: loc}
}

// UintLit holds v's bit pattern in Int; the UInt64 type marks it unsigned.
func UintLit(v uint64, loc diag.Location) *LiteralExpr {
	return &LiteralExpr{Type: types.UInt64, Int: int64(v), Loc: loc}
}

func BoolLit(v bool, loc diag.Location) *LiteralExpr {
	return &LiteralExpr{Type: types.Boolean, Bool: v, Loc: loc}
}

// KindName is the node's type name without package prefix, used by dumps
// and exports.
func KindName(n Node) string {
	switch n.(type) {
	case *Module:
		return "Module"
	case *Param:
		return "Param"
	case *FunctionDecl:
		return "FunctionDecl"
	case *VariableDecl:
		return "VariableDecl"
	case *BlockStmt:
		return "BlockStmt"
	case *ConditionalStmt:
		return "ConditionalStmt"
	case *LoopStmt:
		return "LoopStmt"
	case *ReturnStmt:
		return "ReturnStmt"
	case *ExprStmt:
		return "ExprStmt"
	case *AssignExpr:
		return "AssignExpr"
	case *BinaryExpr:
		return "BinaryExpr"
	case *UnaryExpr:
		return "UnaryExpr"
	case *CallExpr:
		return "CallExpr"
	case *GroupExpr:
		return "GroupExpr"
	case *VariableExpr:
		return "VariableExpr"
	case *LiteralExpr:
		return "LiteralExpr"
	default:
		panic(fmt.Sprintf("ast: unknown node %T", n))
	}
}
