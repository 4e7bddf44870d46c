package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symtab"
	"ember/internal/types"
)

func parseOK(t *testing.T, src string) (*ast.Module, *symtab.Table) {
	t.Helper()
	table := symtab.New()
	mod, err := New("test.ember", src, table).ParseModule()
	if err != nil {
		t.Fatalf("unexpected errors:\n%v", err)
	}
	return mod, table
}

func parseErrs(t *testing.T, src string) diag.List {
	t.Helper()
	mod, err := New("test.ember", src, symtab.New()).ParseModule()
	if mod == nil {
		t.Fatalf("module must be returned even on error")
	}
	var list diag.List
	if !errors.As(err, &list) {
		t.Fatalf("expected diag.List, got %v", err)
	}
	return list
}

func exprOf(t *testing.T, stmt ast.Stmt) ast.Expr {
	t.Helper()
	es, ok := stmt.(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", stmt)
	}
	return es.Expr
}

func TestPrecedence(t *testing.T) {
	mod, _ := parseOK(t, "2 + 3 * 4;")
	add, ok := exprOf(t, mod.Body[0]).(*ast.BinaryExpr)
	if !ok || add.Op != ast.Add {
		t.Fatalf("root should be Add, got %#v", exprOf(t, mod.Body[0]))
	}
	if lit, ok := add.Left.(*ast.LiteralExpr); !ok || lit.Int != 2 {
		t.Fatalf("left should be 2")
	}
	mul, ok := add.Right.(*ast.BinaryExpr)
	if !ok || mul.Op != ast.Mul {
		t.Fatalf("right should be Mul")
	}
}

func TestLeftAssociativity(t *testing.T) {
	mod, _ := parseOK(t, "8 - 3 - 2;")
	outer := exprOf(t, mod.Body[0]).(*ast.BinaryExpr)
	inner, ok := outer.Left.(*ast.BinaryExpr)
	if !ok || inner.Op != ast.Sub || outer.Op != ast.Sub {
		t.Fatalf("expected (8 - 3) - 2")
	}
	if outer.Right.(*ast.LiteralExpr).Int != 2 {
		t.Fatalf("rightmost operand should be 2")
	}
}

func TestComparisonBindsLooserThanArithmetic(t *testing.T) {
	mod, _ := parseOK(t, "a + 1 < b * 2 == c;")
	eq := exprOf(t, mod.Body[0]).(*ast.BinaryExpr)
	if eq.Op != ast.Eq {
		t.Fatalf("root should be ==, got %s", eq.Op)
	}
	lt := eq.Left.(*ast.BinaryExpr)
	if lt.Op != ast.Lt || lt.Left.(*ast.BinaryExpr).Op != ast.Add || lt.Right.(*ast.BinaryExpr).Op != ast.Mul {
		t.Fatalf("unexpected shape under <")
	}
}

func TestUnaryAndCalls(t *testing.T) {
	mod, table := parseOK(t, "-f(1, !x)(2);")
	neg := exprOf(t, mod.Body[0]).(*ast.UnaryExpr)
	if neg.Op != ast.Neg {
		t.Fatalf("expected negation")
	}
	outer := neg.Operand.(*ast.CallExpr)
	inner := outer.Callee.(*ast.CallExpr)
	if len(outer.Args) != 1 || len(inner.Args) != 2 {
		t.Fatalf("unexpected argument counts")
	}
	if table.Name(inner.Callee.(*ast.VariableExpr).ID) != "f" {
		t.Fatalf("callee should resolve to f")
	}
	if inner.Args[1].(*ast.UnaryExpr).Op != ast.Not {
		t.Fatalf("second argument should be !x")
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	mod, _ := parseOK(t, "a = b = 1;")
	outer := exprOf(t, mod.Body[0]).(*ast.AssignExpr)
	if _, ok := outer.Value.(*ast.AssignExpr); !ok {
		t.Fatalf("expected nested assignment")
	}
}

func TestCompoundAssignmentDesugars(t *testing.T) {
	mod, _ := parseOK(t, "int32 x = 1; x *= 3 + 1;")
	assign := exprOf(t, mod.Body[1]).(*ast.AssignExpr)
	bin, ok := assign.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.Mul {
		t.Fatalf("expected x = x * (...)")
	}
	left := bin.Left.(*ast.VariableExpr)
	if left == assign.Target {
		t.Fatalf("target must be copied, not shared")
	}
	if left.ID != assign.Target.(*ast.VariableExpr).ID {
		t.Fatalf("copy must refer to the same entry")
	}
}

func TestDeclarations(t *testing.T) {
	mod, table := parseOK(t, "fn add(int32 a, uint8 b): int64 { return a + b; } bool p, q = true;")
	fn := mod.Body[0].(*ast.FunctionDecl)
	if table.Name(fn.ID) != "add" || fn.Return != types.Int64 || len(fn.Params) != 2 {
		t.Fatalf("unexpected function %+v", fn)
	}
	if table.Lookup(fn.ID).Type != types.Int64 {
		t.Fatalf("function entry should carry the return type")
	}
	if fn.Params[1].Type != types.UInt8 || table.Lookup(fn.Params[1].ID).Type != types.UInt8 {
		t.Fatalf("parameter type lost")
	}
	if len(mod.Body) != 3 {
		t.Fatalf("multi-name declaration should yield one node per name, got %d", len(mod.Body))
	}
	p := mod.Body[1].(*ast.VariableDecl)
	q := mod.Body[2].(*ast.VariableDecl)
	if p.Init != nil || q.Init == nil || q.Type != types.Boolean {
		t.Fatalf("unexpected declarations %+v %+v", p, q)
	}
}

func TestDoWhileDesugars(t *testing.T) {
	mod, _ := parseOK(t, "int32 i = 0; do i += 1; while (i < 3);")
	block := mod.Body[1].(*ast.BlockStmt)
	if len(block.Body) != 2 {
		t.Fatalf("expected body followed by loop")
	}
	loop := block.Body[1].(*ast.LoopStmt)
	if !reflect.DeepEqual(loop.Body, block.Body[0]) {
		t.Fatalf("loop body must equal the leading body")
	}
	if loop.Body == block.Body[0] {
		t.Fatalf("loop body must be a copy")
	}
}

func TestForDesugars(t *testing.T) {
	mod, _ := parseOK(t, "for (int32 i = 0; i < 3; i = i + 1) print(i);")
	block := mod.Body[0].(*ast.BlockStmt)
	if _, ok := block.Body[0].(*ast.VariableDecl); !ok {
		t.Fatalf("init should come first")
	}
	loop := block.Body[1].(*ast.LoopStmt)
	inner := loop.Body.(*ast.BlockStmt)
	if len(inner.Body) != 2 {
		t.Fatalf("loop body should hold statement and increment")
	}
	if _, ok := exprOf(t, inner.Body[1]).(*ast.AssignExpr); !ok {
		t.Fatalf("increment should be last")
	}
}

func TestForWithoutClauses(t *testing.T) {
	mod, _ := parseOK(t, "for (;;) return;")
	block := mod.Body[0].(*ast.BlockStmt)
	if len(block.Body) != 1 {
		t.Fatalf("no init expected")
	}
	loop := block.Body[0].(*ast.LoopStmt)
	lit, ok := loop.Cond.(*ast.LiteralExpr)
	if !ok || lit.Type != types.Boolean || !lit.Bool {
		t.Fatalf("missing condition should be true")
	}
	if _, ok := loop.Body.(*ast.ReturnStmt); !ok {
		t.Fatalf("no increment block expected, got %T", loop.Body)
	}
}

func TestTwoMissingSemicolons(t *testing.T) {
	src := "int32 a = 1\nint32 b = 2;\nint32 c = 3\nprint(c);\nprint(a);"
	errs := parseErrs(t, src)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d:\n%v", len(errs), errs)
	}
	if errs[0].Loc.Row != 1 || errs[1].Loc.Row != 3 {
		t.Fatalf("errors on wrong lines: %v", errs)
	}
	// Both point at the start of the literal before the missing ';'.
	if errs[0].Loc.Column != 11 || errs[1].Loc.Column != 11 {
		t.Fatalf("errors on wrong columns: %v", errs)
	}
	for _, e := range errs {
		if e.Code != diag.ExpectedSymbol || e.Message() != "';' expected" {
			t.Fatalf("unexpected error %v", e)
		}
	}
}

func TestRecoveryInsideBlocks(t *testing.T) {
	table := symtab.New()
	mod, err := New("test.ember", "fn f(): void { x = ; y = 2; }\nz = 3;", table).ParseModule()
	var errs diag.List
	if !errors.As(err, &errs) || len(errs) != 1 || errs[0].Code != diag.InvalidExpression {
		t.Fatalf("expected a single invalid expression error, got %v", err)
	}
	if len(mod.Body) != 2 {
		t.Fatalf("parsing should continue after the block, got %d statements", len(mod.Body))
	}
	fn := mod.Body[0].(*ast.FunctionDecl)
	if len(fn.Body.Body) != 1 {
		t.Fatalf("the statement after the error should be kept")
	}
}

func TestStrayBraceAtModuleLevel(t *testing.T) {
	errs := parseErrs(t, "fn f(int32 a: int32 { return a; } int32 ok = 1;")
	if len(errs) != 1 || errs[0].Code != diag.ExpectedSymbol {
		t.Fatalf("expected one error, got %v", errs)
	}
}

func TestEndOfFileVariants(t *testing.T) {
	cases := map[string]diag.Code{
		"int32 x = 1":    diag.ExpectedSymbolEOF,
		"x = 1 +":        diag.ExpectedExpression,
		"int32":          diag.ExpectedIdentifier,
		"fn f(): ":       diag.ExpectedType,
		"fn f(): void {": diag.ExpectedSymbolEOF,
	}
	for src, code := range cases {
		errs := parseErrs(t, src)
		if len(errs) != 1 || errs[0].Code != code {
			t.Fatalf("%q: expected %d, got %v", src, code, errs)
		}
		if !errs.Incomplete() {
			t.Fatalf("%q should be incomplete input", src)
		}
	}
}

func TestInvalidTokens(t *testing.T) {
	errs := parseErrs(t, "fn 1(): void {}\nint32 y = );\nfn g(): foo {}")
	want := []diag.Code{diag.InvalidIdentifier, diag.InvalidExpression, diag.InvalidType}
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), errs)
	}
	for i, code := range want {
		if errs[i].Code != code {
			t.Fatalf("error %d: got %v", i, errs[i])
		}
	}
	if errs[1].Message() != "Invalid expression term ')'" {
		t.Fatalf("unexpected message %q", errs[1].Message())
	}
}

func TestIntegerOverflow(t *testing.T) {
	errs := parseErrs(t, "int64 big = 99999999999999999999;")
	if len(errs) != 1 || errs[0].Code != diag.IntegerOutOfRange {
		t.Fatalf("expected out of range error, got %v", errs)
	}
}

func TestUint64Literals(t *testing.T) {
	mod, _ := parseOK(t, "9223372036854775807; 9223372036854775808; 18446744073709551615;")
	wantTypes := []types.Datatype{types.Int64, types.UInt64, types.UInt64}
	for i, dt := range wantTypes {
		lit := mod.Body[i].(*ast.ExprStmt).Expr.(*ast.LiteralExpr)
		if lit.Type != dt {
			t.Fatalf("literal %d: got %v, want %v", i, lit.Type, dt)
		}
	}
	if lit := mod.Body[2].(*ast.ExprStmt).Expr.(*ast.LiteralExpr); uint64(lit.Int) != 18446744073709551615 {
		t.Fatalf("lost bits: %d", lit.Int)
	}
	errs := parseErrs(t, "uint64 x = 18446744073709551616;")
	if len(errs) != 1 || errs[0].Code != diag.IntegerOutOfRange {
		t.Fatalf("expected out of range error, got %v", errs)
	}
}

func TestStrayBraceRunReportedOnce(t *testing.T) {
	table := symtab.New()
	mod, err := New("test.ember", "}}} int32 a = 1;", table).ParseModule()
	var errs diag.List
	if !errors.As(err, &errs) || len(errs) != 1 || errs[0].Code != diag.InvalidExpression {
		t.Fatalf("expected a single error, got %v", err)
	}
	if len(mod.Body) != 1 {
		t.Fatalf("declaration after the braces should parse, got %d statements", len(mod.Body))
	}

	deep := strings.Repeat("{", 300) + strings.Repeat("}", 300)
	errs = parseErrs(t, deep)
	if len(errs) != 2 || errs[0].Code != diag.NestingTooDeep || errs[1].Code != diag.InvalidExpression {
		t.Fatalf("expected the nesting error and one for the leftover braces, got %v", errs)
	}
}

func TestNestingLimit(t *testing.T) {
	deep := strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300) + ";"
	errs := parseErrs(t, deep+"\nint32 ok = 1;")
	if len(errs) != 1 || errs[0].Code != diag.NestingTooDeep {
		t.Fatalf("expected nesting error, got %v", errs)
	}
	shallow := strings.Repeat("(", 100) + "1" + strings.Repeat(")", 100) + ";"
	parseOK(t, shallow)
}

func TestLexicalErrorsAreMerged(t *testing.T) {
	errs := parseErrs(t, "int32 a = 1 $ ;\nint32 b = 2")
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs[0].Code != diag.UnexpectedCharacter || errs[1].Code != diag.ExpectedSymbolEOF {
		t.Fatalf("errors should be ordered by position: %v", errs)
	}
}

func TestParsingIsDeterministic(t *testing.T) {
	src := `fn fib(int32 n): int32 { if (n < 2) return n; return fib(n - 1) + fib(n - 2); }
for (int32 i = 0; i < 5; i += 1) { print(fib(i)); }`
	table := symtab.New()
	first, err := New("d.ember", src, table).ParseModule()
	if err != nil {
		t.Fatal(err)
	}
	n := table.Len()
	second, err := New("d.ember", src, table).ParseModule()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parsing the same source twice should give equal trees")
	}
	if table.Len() != n {
		t.Fatalf("re-parsing must not add entries")
	}
	fresh, err := New("d.ember", src, symtab.New()).ParseModule()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, fresh) {
		t.Fatalf("a fresh table should assign the same ids")
	}
}
