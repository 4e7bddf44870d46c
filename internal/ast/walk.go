package ast

import "fmt"

// Children returns the direct children of n in source order. Absent
// optional children (a missing else branch, initialiser or return value)
// are skipped.
func Children(n Node) []Node {
	var out []Node
	addExpr := func(e Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	addStmt := func(s Stmt) {
		if s != nil {
			out = append(out, s)
		}
	}
	switch n := n.(type) {
	case *Module:
		for _, s := range n.Body {
			out = append(out, s)
		}
	case *Param, *VariableExpr, *LiteralExpr:
	case *FunctionDecl:
		for _, p := range n.Params {
			out = append(out, p)
		}
		if n.Body != nil {
			out = append(out, n.Body)
		}
	case *VariableDecl:
		addExpr(n.Init)
	case *BlockStmt:
		for _, s := range n.Body {
			out = append(out, s)
		}
	case *ConditionalStmt:
		addExpr(n.Cond)
		addStmt(n.Body)
		addStmt(n.Else)
	case *LoopStmt:
		addExpr(n.Cond)
		addStmt(n.Body)
	case *ReturnStmt:
		addExpr(n.Value)
	case *ExprStmt:
		addExpr(n.Expr)
	case *AssignExpr:
		addExpr(n.Target)
		addExpr(n.Value)
	case *BinaryExpr:
		addExpr(n.Left)
		addExpr(n.Right)
	case *UnaryExpr:
		addExpr(n.Operand)
	case *CallExpr:
		addExpr(n.Callee)
		for _, a := range n.Args {
			addExpr(a)
		}
	case *GroupExpr:
		addExpr(n.Inner)
	default:
		panic(fmt.Sprintf("ast: unknown node %T", n))
	}
	return out
}

// FlatNode is one entry of a pre-order numbering of a tree. Parent is -1
// for the root.
type FlatNode struct {
	ID     int
	Parent int
	Depth  int
	Node   Node
}

// Flatten numbers every node of the tree rooted at root in pre-order.
// Numbering starts at 0 on each call.
func Flatten(root Node) []FlatNode {
	var out []FlatNode
	var walk func(n Node, parent, depth int)
	walk = func(n Node, parent, depth int) {
		id := len(out)
		out = append(out, FlatNode{ID: id, Parent: parent, Depth: depth, Node: n})
		for _, child := range Children(n) {
			walk(child, id, depth+1)
		}
	}
	walk(root, -1, 0)
	return out
}

func CloneModule(m *Module) *Module {
	if m == nil {
		return nil
	}
	body := make([]Stmt, len(m.Body))
	for i, s := range m.Body {
		body[i] = CloneStmt(s)
	}
	return &Module{File: m.File, Body: body}
}

// CloneStmt deep copies a statement so the copy shares no node with s.
func CloneStmt(s Stmt) Stmt {
	switch s := s.(type) {
	case nil:
		return nil
	case *FunctionDecl:
		params := make([]*Param, len(s.Params))
		for i, p := range s.Params {
			cp := *p
			params[i] = &cp
		}
		var body *BlockStmt
		if s.Body != nil {
			body = CloneStmt(s.Body).(*BlockStmt)
		}
		return &FunctionDecl{ID: s.ID, Params: params, Return: s.Return, Body: body, Loc: s.Loc}
	case *VariableDecl:
		return &VariableDecl{ID: s.ID, Type: s.Type, Init: CloneExpr(s.Init), Loc: s.Loc}
	case *BlockStmt:
		body := make([]Stmt, len(s.Body))
		for i, c := range s.Body {
			body[i] = CloneStmt(c)
		}
		return &BlockStmt{Body: body, Loc: s.Loc}
	case *ConditionalStmt:
		return &ConditionalStmt{Cond: CloneExpr(s.Cond), Body: CloneStmt(s.Body), Else: CloneStmt(s.Else), Loc: s.Loc}
	case *LoopStmt:
		return &LoopStmt{Cond: CloneExpr(s.Cond), Body: CloneStmt(s.Body), Loc: s.Loc}
	case *ReturnStmt:
		return &ReturnStmt{Value: CloneExpr(s.Value), Loc: s.Loc}
	case *ExprStmt:
		return &ExprStmt{Expr: CloneExpr(s.Expr), Loc: s.Loc}
	default:
		panic(fmt.Sprintf("ast: unknown statement %T", s))
	}
}

func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *AssignExpr:
		return &AssignExpr{Target: CloneExpr(e.Target), Value: CloneExpr(e.Value), Loc: e.Loc}
	case *BinaryExpr:
		return &BinaryExpr{Op: e.Op, Left: CloneExpr(e.Left), Right: CloneExpr(e.Right), Loc: e.Loc}
	case *UnaryExpr:
		return &UnaryExpr{Op: e.Op, Operand: CloneExpr(e.Operand), Loc: e.Loc}
	case *CallExpr:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = CloneExpr(a)
		}
		return &CallExpr{Callee: CloneExpr(e.Callee), Args: args, Loc: e.Loc}
	case *GroupExpr:
		return &GroupExpr{Inner: CloneExpr(e.Inner), Loc: e.Loc}
	case *VariableExpr:
		cp := *e
		return &cp
	case *LiteralExpr:
		cp := *e
		return &cp
	default:
		panic(fmt.Sprintf("ast: unknown expression %T", e))
	}
}

// Unparen strips any number of enclosing groups.
func Unparen(e Expr) Expr {
	for {
		g, ok := e.(*GroupExpr)
		if !ok {
			return e
		}
		e = g.Inner
	}
}
