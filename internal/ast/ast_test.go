package ast

import (
	"reflect"
	"testing"

	"ember/internal/diag"
	"ember/internal/types"
)

func sample() *Module {
	loc := diag.Location{File: "s.ember", Row: 1, Column: 1}
	body := &BlockStmt{Body: []Stmt{
		&ExprStmt{Expr: &AssignExpr{
			Target: &VariableExpr{ID: 0, Loc: loc},
			Value:  &BinaryExpr{Op: Add, Left: &VariableExpr{ID: 0, Loc: loc}, Right: IntLit(1, loc), Loc: loc},
			Loc:    loc,
		}},
	}}
	return &Module{File: "s.ember", Body: []Stmt{
		&VariableDecl{ID: 0, Type: types.Int32, Init: IntLit(0, loc), Loc: loc},
		&LoopStmt{Cond: &BinaryExpr{Op: Lt, Left: &VariableExpr{ID: 0, Loc: loc}, Right: IntLit(3, loc), Loc: loc}, Body: body, Loc: loc},
	}}
}

func TestCloneIsDeepAndEqual(t *testing.T) {
	orig := sample()
	cp := CloneModule(orig)
	if !reflect.DeepEqual(orig, cp) {
		t.Fatalf("clone differs from original")
	}
	origLoop := orig.Body[1].(*LoopStmt)
	cpLoop := cp.Body[1].(*LoopStmt)
	if origLoop.Body == cpLoop.Body || origLoop.Cond == cpLoop.Cond {
		t.Fatalf("clone shares nodes with the original")
	}
	cpLoop.Cond.(*BinaryExpr).Right.(*LiteralExpr).Int = 99
	if origLoop.Cond.(*BinaryExpr).Right.(*LiteralExpr).Int != 3 {
		t.Fatalf("mutating the clone changed the original")
	}
}

func TestFlattenPreOrder(t *testing.T) {
	flat := Flatten(sample())
	wantKinds := []string{
		"Module",
		"VariableDecl", "LiteralExpr",
		"LoopStmt", "BinaryExpr", "VariableExpr", "LiteralExpr",
		"BlockStmt", "ExprStmt", "AssignExpr", "VariableExpr", "BinaryExpr", "VariableExpr", "LiteralExpr",
	}
	if len(flat) != len(wantKinds) {
		t.Fatalf("got %d nodes, want %d", len(flat), len(wantKinds))
	}
	for i, fn := range flat {
		if fn.ID != i {
			t.Fatalf("ids must be dense, got %d at %d", fn.ID, i)
		}
		if KindName(fn.Node) != wantKinds[i] {
			t.Fatalf("node %d: got %s, want %s", i, KindName(fn.Node), wantKinds[i])
		}
	}
	if flat[0].Parent != -1 || flat[2].Parent != 1 || flat[4].Parent != 3 || flat[4].Depth != 2 {
		t.Fatalf("unexpected parent links: %+v", flat[:5])
	}
	again := Flatten(sample())
	for i := range flat {
		if flat[i].ID != again[i].ID || flat[i].Parent != again[i].Parent {
			t.Fatalf("numbering is not stable across calls")
		}
	}
}

func TestOperatorSpelling(t *testing.T) {
	if Add.String() != "+" || GtEq.String() != ">=" || Not.String() != "!" || Neg.String() != "-" {
		t.Fatalf("unexpected spellings")
	}
	if Mul.Precedence() <= Add.Precedence() || Add.Precedence() <= Lt.Precedence() || Lt.Precedence() <= Eq.Precedence() {
		t.Fatalf("precedence ordering broken")
	}
	if !Eq.IsComparison() || Mod.IsComparison() {
		t.Fatalf("comparison classification broken")
	}
}

func TestUnparen(t *testing.T) {
	v := &VariableExpr{ID: 2}
	if Unparen(&GroupExpr{Inner: &GroupExpr{Inner: v}}) != v {
		t.Fatalf("groups not stripped")
	}
}
