package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"ember/internal/ast"
	"ember/internal/parser"
	"ember/internal/symtab"
	"ember/internal/types"
)

// Formatter renders an AST back to Ember source. Loops come out in their
// desugared while form.
type Formatter struct {
	table  *symtab.Table
	indent int
	buf    strings.Builder
}

func New(table *symtab.Table) *Formatter {
	return &Formatter{table: table}
}

// Format parses src and returns it in canonical form.
func (f *Formatter) Format(path, src string) (string, error) {
	mod, err := parser.New(path, src, f.table).ParseModule()
	if err != nil {
		return "", err
	}
	return f.FormatModule(mod), nil
}

func (f *Formatter) FormatModule(mod *ast.Module) string {
	f.buf.Reset()
	f.indent = 0
	for i, stmt := range mod.Body {
		f.formatStmt(stmt)
		if _, ok := stmt.(*ast.FunctionDecl); ok && i < len(mod.Body)-1 {
			f.buf.WriteString("\n")
		}
	}
	return f.buf.String()
}

func (f *Formatter) writeIndent() {
	for i := 0; i < f.indent; i++ {
		f.buf.WriteString("  ")
	}
}

func (f *Formatter) formatStmt(s ast.Stmt) {
	f.writeIndent()
	f.formatStmtInline(s)
	f.buf.WriteString("\n")
}

// formatStmtInline writes s without leading indentation or trailing
// newline.
func (f *Formatter) formatStmtInline(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.FunctionDecl:
		f.buf.WriteString("fn ")
		f.buf.WriteString(f.table.Name(s.ID))
		f.buf.WriteString("(")
		for i, p := range s.Params {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			f.buf.WriteString(p.Type.String())
			f.buf.WriteString(" ")
			f.buf.WriteString(f.table.Name(p.ID))
		}
		f.buf.WriteString("): ")
		f.buf.WriteString(s.Return.String())
		f.buf.WriteString(" ")
		f.formatBlock(s.Body)
	case *ast.VariableDecl:
		f.buf.WriteString(s.Type.String())
		f.buf.WriteString(" ")
		f.buf.WriteString(f.table.Name(s.ID))
		if s.Init != nil {
			f.buf.WriteString(" = ")
			f.buf.WriteString(f.expr(s.Init))
		}
		f.buf.WriteString(";")
	case *ast.BlockStmt:
		f.formatBlock(s)
	case *ast.ConditionalStmt:
		f.buf.WriteString("if (")
		f.buf.WriteString(f.expr(s.Cond))
		f.buf.WriteString(")")
		f.formatBody(s.Body)
		if s.Else == nil {
			return
		}
		if _, ok := s.Body.(*ast.BlockStmt); ok {
			f.buf.WriteString(" else")
		} else {
			f.buf.WriteString("\n")
			f.writeIndent()
			f.buf.WriteString("else")
		}
		if elif, ok := s.Else.(*ast.ConditionalStmt); ok {
			f.buf.WriteString(" ")
			f.formatStmtInline(elif)
			return
		}
		f.formatBody(s.Else)
	case *ast.LoopStmt:
		f.buf.WriteString("while (")
		f.buf.WriteString(f.expr(s.Cond))
		f.buf.WriteString(")")
		f.formatBody(s.Body)
	case *ast.ReturnStmt:
		f.buf.WriteString("return")
		if s.Value != nil {
			f.buf.WriteString(" ")
			f.buf.WriteString(f.expr(s.Value))
		}
		f.buf.WriteString(";")
	case *ast.ExprStmt:
		f.buf.WriteString(f.expr(s.Expr))
		f.buf.WriteString(";")
	default:
		panic(fmt.Sprintf("formatter: unknown statement %T", s))
	}
}

// formatBody writes the body of an if, else or while: blocks stay on the
// same line, other statements go on their own indented line.
func (f *Formatter) formatBody(s ast.Stmt) {
	if block, ok := s.(*ast.BlockStmt); ok {
		f.buf.WriteString(" ")
		f.formatBlock(block)
		return
	}
	f.buf.WriteString("\n")
	f.indent++
	f.writeIndent()
	f.formatStmtInline(s)
	f.indent--
}

func (f *Formatter) formatBlock(b *ast.BlockStmt) {
	if len(b.Body) == 0 {
		f.buf.WriteString("{}")
		return
	}
	f.buf.WriteString("{\n")
	f.indent++
	for _, stmt := range b.Body {
		f.formatStmt(stmt)
	}
	f.indent--
	f.writeIndent()
	f.buf.WriteString("}")
}

// expr renders e with the fewest parentheses that keep its meaning.
// Groups written in the source are kept.
func (f *Formatter) expr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return literal(e)
	case *ast.VariableExpr:
		return f.table.Name(e.ID)
	case *ast.GroupExpr:
		return "(" + f.expr(e.Inner) + ")"
	case *ast.AssignExpr:
		return f.expr(e.Target) + " = " + f.expr(e.Value)
	case *ast.UnaryExpr:
		operand := f.expr(e.Operand)
		switch e.Operand.(type) {
		case *ast.BinaryExpr, *ast.AssignExpr:
			operand = "(" + operand + ")"
		}
		return e.Op.String() + operand
	case *ast.BinaryExpr:
		prec := e.Op.Precedence()
		return f.operand(e.Left, prec, false) + " " + e.Op.String() + " " + f.operand(e.Right, prec, true)
	case *ast.CallExpr:
		callee := f.expr(e.Callee)
		switch e.Callee.(type) {
		case *ast.BinaryExpr, *ast.UnaryExpr, *ast.AssignExpr:
			callee = "(" + callee + ")"
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = f.expr(a)
		}
		return callee + "(" + strings.Join(args, ", ") + ")"
	default:
		panic(fmt.Sprintf("formatter: unknown expression %T", e))
	}
}

func (f *Formatter) operand(e ast.Expr, parent int, right bool) string {
	s := f.expr(e)
	switch c := e.(type) {
	case *ast.AssignExpr:
		return "(" + s + ")"
	case *ast.BinaryExpr:
		prec := c.Op.Precedence()
		if prec < parent || (right && prec == parent) {
			return "(" + s + ")"
		}
	}
	return s
}

func literal(e *ast.LiteralExpr) string {
	if e.Type == types.UInt64 {
		return strconv.FormatUint(uint64(e.Int), 10)
	}
	if e.Type.IsInteger() {
		return strconv.FormatInt(e.Int, 10)
	}
	return strconv.FormatBool(e.Bool)
}

// Expr renders an expression fully parenthesised, one pair per operator,
// e.g. (2 + (3 * 4)).
func Expr(e ast.Expr, table *symtab.Table) string {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return literal(e)
	case *ast.VariableExpr:
		return table.Name(e.ID)
	case *ast.GroupExpr:
		return Expr(e.Inner, table)
	case *ast.AssignExpr:
		return "(" + Expr(e.Target, table) + " = " + Expr(e.Value, table) + ")"
	case *ast.UnaryExpr:
		return "(" + e.Op.String() + Expr(e.Operand, table) + ")"
	case *ast.BinaryExpr:
		return "(" + Expr(e.Left, table) + " " + e.Op.String() + " " + Expr(e.Right, table) + ")"
	case *ast.CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = Expr(a, table)
		}
		return Expr(e.Callee, table) + "(" + strings.Join(args, ", ") + ")"
	default:
		panic(fmt.Sprintf("formatter: unknown expression %T", e))
	}
}
