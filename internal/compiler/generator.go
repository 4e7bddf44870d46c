package compiler

import (
	"fmt"
	"sort"
	"strings"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symtab"
	"ember/internal/types"
)

// Generator lowers a module to WebAssembly text. Every Ember value is an
// i64 on the operand stack; booleans are 0 or 1.
type Generator struct {
	table   *symtab.Table
	funcs   map[int]*ast.FunctionDecl
	order   []*ast.FunctionDecl
	globals map[int]types.Datatype
}

func NewGenerator(table *symtab.Table) *Generator {
	return &Generator{
		table:   table,
		funcs:   map[int]*ast.FunctionDecl{},
		globals: map[int]types.Datatype{},
	}
}

func (g *Generator) Generate(mod *ast.Module) (string, error) {
	if err := g.collect(mod); err != nil {
		return "", err
	}
	w := &watBuilder{}
	w.line("(module")
	w.indent++
	g.emitImports(w)
	g.emitGlobals(w)
	for _, fn := range g.order {
		if err := g.emitFunction(w, fn); err != nil {
			return "", err
		}
	}
	if err := g.emitStart(w, mod); err != nil {
		return "", err
	}
	w.indent--
	w.line(")")
	return w.String(), nil
}

// collect hoists top-level functions and globals so bodies can refer to
// them regardless of declaration order.
func (g *Generator) collect(mod *ast.Module) error {
	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDecl:
			if _, dup := g.funcs[s.ID]; dup {
				return diag.New(diag.UnsupportedConstruct, s.Loc, diag.Args{"value": "redefinition of " + g.table.Name(s.ID)})
			}
			g.funcs[s.ID] = s
			g.order = append(g.order, s)
		case *ast.VariableDecl:
			g.globals[s.ID] = s.Type
		}
	}
	return nil
}

func (g *Generator) emitImports(w *watBuilder) {
	w.line(`(import "ember" "print_i64" (func $print_i64 (param i64)))`)
	w.line(`(import "ember" "print_u64" (func $print_u64 (param i64)))`)
	w.line(`(import "ember" "print_bool" (func $print_bool (param i64)))`)
	w.line(`(import "ember" "print_space" (func $print_space))`)
	w.line(`(import "ember" "print_newline" (func $print_newline))`)
}

func (g *Generator) emitGlobals(w *watBuilder) {
	ids := make([]int, 0, len(g.globals))
	for id := range g.globals {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		w.line(fmt.Sprintf("(global %s (mut i64) (i64.const 0))", globalName(id)))
	}
}

func (g *Generator) emitFunction(w *watBuilder, fn *ast.FunctionDecl) error {
	f := newFuncEmitter(g, fn.Return, false)
	for _, p := range fn.Params {
		name := f.addParam()
		f.bind(p.ID, binding{name: name, dt: p.Type})
		if narrow := narrowInstrs(p.Type); len(narrow) > 0 {
			f.emit("local.get " + name)
			f.emitAll(narrow)
			f.emit("local.set " + name)
		}
	}
	if err := f.emitStmt(fn.Body); err != nil {
		return err
	}
	f.emit("i64.const 0")
	f.writeTo(w, fmt.Sprintf("(func %s%s (result i64)", funcName(fn.ID), f.signature()))
	return nil
}

// emitStart wraps the top-level statements in the exported _start
// function, whose result is the program's exit code.
func (g *Generator) emitStart(w *watBuilder, mod *ast.Module) error {
	f := newFuncEmitter(g, types.Int64, true)
	for _, stmt := range mod.Body {
		if err := f.emitStmt(stmt); err != nil {
			return err
		}
	}
	f.emit("i64.const 0")
	f.writeTo(w, `(func $_start (export "_start") (result i64)`)
	return nil
}

func funcName(id int) string   { return fmt.Sprintf("$f%d", id) }
func globalName(id int) string { return fmt.Sprintf("$g%d", id) }

// narrowInstrs wraps the i64 on top of the stack to the width of dt.
func narrowInstrs(dt types.Datatype) []string {
	switch dt {
	case types.Boolean:
		return []string{"i64.const 0", "i64.ne", "i64.extend_i32_u"}
	case types.Int8:
		return []string{"i64.extend8_s"}
	case types.Int16:
		return []string{"i64.extend16_s"}
	case types.Int32:
		return []string{"i64.extend32_s"}
	case types.UInt8:
		return []string{"i64.const 255", "i64.and"}
	case types.UInt16:
		return []string{"i64.const 65535", "i64.and"}
	case types.UInt32:
		return []string{"i64.const 4294967295", "i64.and"}
	}
	return nil
}

var binaryInstrs = map[ast.BinaryOp][]string{
	ast.Add:   {"i64.add"},
	ast.Sub:   {"i64.sub"},
	ast.Mul:   {"i64.mul"},
	ast.Div:   {"i64.div_s"},
	ast.Mod:   {"i64.rem_s"},
	ast.Eq:    {"i64.eq", "i64.extend_i32_u"},
	ast.NotEq: {"i64.ne", "i64.extend_i32_u"},
	ast.Lt:    {"i64.lt_s", "i64.extend_i32_u"},
	ast.Gt:    {"i64.gt_s", "i64.extend_i32_u"},
	ast.LtEq:  {"i64.le_s", "i64.extend_i32_u"},
	ast.GtEq:  {"i64.ge_s", "i64.extend_i32_u"},
}

// unsignedInstrs replace the signed forms when an operand is uint64.
var unsignedInstrs = map[ast.BinaryOp][]string{
	ast.Div:  {"i64.div_u"},
	ast.Mod:  {"i64.rem_u"},
	ast.Lt:   {"i64.lt_u", "i64.extend_i32_u"},
	ast.Gt:   {"i64.gt_u", "i64.extend_i32_u"},
	ast.LtEq: {"i64.le_u", "i64.extend_i32_u"},
	ast.GtEq: {"i64.ge_u", "i64.extend_i32_u"},
}

type watBuilder struct {
	sb     strings.Builder
	indent int
}

func (w *watBuilder) line(s string) {
	w.sb.WriteString(strings.Repeat("  ", w.indent))
	w.sb.WriteString(s)
	w.sb.WriteString("\n")
}

func (w *watBuilder) String() string {
	return w.sb.String()
}

type binding struct {
	name   string
	dt     types.Datatype
	global bool
}

func (b binding) get() string {
	if b.global {
		return "global.get " + b.name
	}
	return "local.get " + b.name
}

type funcEmitter struct {
	g      *Generator
	ret    types.Datatype
	start  bool
	params []string
	locals []string
	body   []string
	indent int
	labels int
	scopes []map[int]binding
}

func newFuncEmitter(g *Generator, ret types.Datatype, start bool) *funcEmitter {
	return &funcEmitter{g: g, ret: ret, start: start, scopes: []map[int]binding{{}}}
}

func (f *funcEmitter) signature() string {
	var sb strings.Builder
	for _, p := range f.params {
		sb.WriteString(fmt.Sprintf(" (param %s i64)", p))
	}
	return sb.String()
}

func (f *funcEmitter) writeTo(w *watBuilder, header string) {
	w.line(header)
	w.indent++
	for _, l := range f.locals {
		w.line(fmt.Sprintf("(local %s i64)", l))
	}
	for _, l := range f.body {
		w.line(l)
	}
	w.indent--
	w.line(")")
}

func (f *funcEmitter) addParam() string {
	name := fmt.Sprintf("$p%d", len(f.params))
	f.params = append(f.params, name)
	return name
}

func (f *funcEmitter) addLocal() string {
	name := fmt.Sprintf("$l%d", len(f.locals))
	f.locals = append(f.locals, name)
	return name
}

func (f *funcEmitter) newLabel() int {
	f.labels++
	return f.labels
}

func (f *funcEmitter) emit(line string) {
	f.body = append(f.body, strings.Repeat("  ", f.indent)+line)
}

func (f *funcEmitter) emitAll(lines []string) {
	for _, l := range lines {
		f.emit(l)
	}
}

func (f *funcEmitter) bind(id int, b binding) {
	f.scopes[len(f.scopes)-1][id] = b
}

func (f *funcEmitter) pushScope() {
	f.scopes = append(f.scopes, map[int]binding{})
}

func (f *funcEmitter) popScope() {
	f.scopes = f.scopes[:len(f.scopes)-1]
}

// atTopLevel reports whether declarations land in module globals.
func (f *funcEmitter) atTopLevel() bool {
	return f.start && len(f.scopes) == 1
}

// lookup finds a variable binding. Function bodies see every module
// global; top-level code only sees globals already declared.
func (f *funcEmitter) lookup(id int) (binding, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if b, ok := f.scopes[i][id]; ok {
			return b, true
		}
	}
	if !f.start {
		if dt, ok := f.g.globals[id]; ok {
			return binding{name: globalName(id), dt: dt, global: true}, true
		}
	}
	return binding{}, false
}

func (f *funcEmitter) resolve(v *ast.VariableExpr) (binding, error) {
	if b, ok := f.lookup(v.ID); ok {
		return b, nil
	}
	name := f.g.table.Name(v.ID)
	if _, ok := f.g.funcs[v.ID]; ok {
		return binding{}, diag.New(diag.UnsupportedConstruct, v.Loc, diag.Args{"value": "function value " + name})
	}
	return binding{}, diag.New(diag.UnresolvedReference, v.Loc, diag.Args{"name": name})
}

func (f *funcEmitter) emitStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.FunctionDecl:
		if f.atTopLevel() {
			return nil
		}
		return diag.New(diag.UnsupportedConstruct, s.Loc, diag.Args{"value": "nested function " + f.g.table.Name(s.ID)})
	case *ast.VariableDecl:
		if s.Init != nil {
			if err := f.emitExpr(s.Init); err != nil {
				return err
			}
		} else {
			f.emit("i64.const 0")
		}
		f.emitAll(narrowInstrs(s.Type))
		if f.atTopLevel() {
			name := globalName(s.ID)
			f.emit("global.set " + name)
			f.bind(s.ID, binding{name: name, dt: s.Type, global: true})
			return nil
		}
		name := f.addLocal()
		f.emit("local.set " + name)
		f.bind(s.ID, binding{name: name, dt: s.Type})
		return nil
	case *ast.BlockStmt:
		f.pushScope()
		defer f.popScope()
		for _, child := range s.Body {
			if err := f.emitStmt(child); err != nil {
				return err
			}
		}
		return nil
	case *ast.ConditionalStmt:
		if err := f.emitCond(s.Cond); err != nil {
			return err
		}
		f.emit("(if")
		f.indent++
		f.emit("(then")
		f.indent++
		if err := f.emitStmt(s.Body); err != nil {
			return err
		}
		f.indent--
		f.emit(")")
		if s.Else != nil {
			f.emit("(else")
			f.indent++
			if err := f.emitStmt(s.Else); err != nil {
				return err
			}
			f.indent--
			f.emit(")")
		}
		f.indent--
		f.emit(")")
		return nil
	case *ast.LoopStmt:
		n := f.newLabel()
		f.emit(fmt.Sprintf("(block $brk%d", n))
		f.indent++
		f.emit(fmt.Sprintf("(loop $cont%d", n))
		f.indent++
		if err := f.emitExpr(s.Cond); err != nil {
			return err
		}
		f.emit("i64.eqz")
		f.emit(fmt.Sprintf("br_if $brk%d", n))
		if err := f.emitStmt(s.Body); err != nil {
			return err
		}
		f.emit(fmt.Sprintf("br $cont%d", n))
		f.indent--
		f.emit(")")
		f.indent--
		f.emit(")")
		return nil
	case *ast.ReturnStmt:
		return f.emitReturn(s)
	case *ast.ExprStmt:
		if err := f.emitExpr(s.Expr); err != nil {
			return err
		}
		f.emit("drop")
		return nil
	default:
		return diag.New(diag.UnsupportedConstruct, stmt.GetLoc(), diag.Args{"value": ast.KindName(stmt)})
	}
}

func (f *funcEmitter) emitReturn(s *ast.ReturnStmt) error {
	if s.Value != nil {
		if err := f.emitExpr(s.Value); err != nil {
			return err
		}
	} else {
		f.emit("i64.const 0")
	}
	if !f.start {
		if f.ret == types.Void {
			f.emit("drop")
			f.emit("i64.const 0")
		}
		f.emitAll(narrowInstrs(f.ret))
	}
	f.emit("return")
	return nil
}

// emitCond leaves an i32 truth value for `if`.
func (f *funcEmitter) emitCond(cond ast.Expr) error {
	if err := f.emitExpr(cond); err != nil {
		return err
	}
	f.emit("i64.const 0")
	f.emit("i64.ne")
	return nil
}

// emitExpr leaves exactly one i64 on the stack.
func (f *funcEmitter) emitExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		f.emit(fmt.Sprintf("i64.const %d", e.Value()))
	case *ast.GroupExpr:
		return f.emitExpr(e.Inner)
	case *ast.VariableExpr:
		b, err := f.resolve(e)
		if err != nil {
			return err
		}
		f.emit(b.get())
	case *ast.AssignExpr:
		target, ok := ast.Unparen(e.Target).(*ast.VariableExpr)
		if !ok {
			return diag.New(diag.UnsupportedConstruct, e.Target.GetLoc(), diag.Args{"value": "assignment to " + ast.KindName(e.Target)})
		}
		b, err := f.resolve(target)
		if err != nil {
			return err
		}
		if err := f.emitExpr(e.Value); err != nil {
			return err
		}
		f.emitAll(narrowInstrs(b.dt))
		if b.global {
			f.emit("global.set " + b.name)
			f.emit("global.get " + b.name)
		} else {
			f.emit("local.tee " + b.name)
		}
	case *ast.UnaryExpr:
		if e.Op == ast.Neg {
			f.emit("i64.const 0")
			if err := f.emitExpr(e.Operand); err != nil {
				return err
			}
			f.emit("i64.sub")
			return nil
		}
		if err := f.emitExpr(e.Operand); err != nil {
			return err
		}
		f.emit("i64.eqz")
		f.emit("i64.extend_i32_u")
	case *ast.BinaryExpr:
		if err := f.emitExpr(e.Left); err != nil {
			return err
		}
		if err := f.emitExpr(e.Right); err != nil {
			return err
		}
		instrs := binaryInstrs[e.Op]
		if u, ok := unsignedInstrs[e.Op]; ok && (f.isUnsigned(e.Left) || f.isUnsigned(e.Right)) {
			instrs = u
		}
		f.emitAll(instrs)
	case *ast.CallExpr:
		return f.emitCall(e)
	default:
		return diag.New(diag.UnsupportedConstruct, expr.GetLoc(), diag.Args{"value": ast.KindName(expr)})
	}
	return nil
}

func (f *funcEmitter) emitCall(e *ast.CallExpr) error {
	callee, ok := ast.Unparen(e.Callee).(*ast.VariableExpr)
	if !ok {
		return diag.New(diag.CodegenNotCallable, e.Loc, diag.Args{"value": ast.KindName(e.Callee)})
	}
	name := f.g.table.Name(callee.ID)
	if _, ok := f.lookup(callee.ID); ok {
		return diag.New(diag.CodegenNotCallable, e.Loc, diag.Args{"value": name})
	}
	if fn, ok := f.g.funcs[callee.ID]; ok {
		if len(fn.Params) != len(e.Args) {
			return diag.New(diag.CodegenArity, e.Loc, diag.Args{"name": name, "expected": len(fn.Params), "actual": len(e.Args)})
		}
		for _, arg := range e.Args {
			if err := f.emitExpr(arg); err != nil {
				return err
			}
		}
		f.emit("call " + funcName(fn.ID))
		return nil
	}
	if name == "print" {
		return f.emitPrint(e)
	}
	return diag.New(diag.UnresolvedReference, callee.Loc, diag.Args{"name": name})
}

func (f *funcEmitter) emitPrint(e *ast.CallExpr) error {
	for i, arg := range e.Args {
		if f.isVoidCall(arg) {
			return diag.New(diag.UnsupportedConstruct, arg.GetLoc(), diag.Args{"value": "void value"})
		}
		if i > 0 {
			f.emit("call $print_space")
		}
		if err := f.emitExpr(arg); err != nil {
			return err
		}
		switch {
		case f.isBool(arg):
			f.emit("call $print_bool")
		case f.isUnsigned(arg):
			f.emit("call $print_u64")
		default:
			f.emit("call $print_i64")
		}
	}
	f.emit("call $print_newline")
	f.emit("i64.const 0")
	return nil
}

func (f *funcEmitter) calledFunc(e ast.Expr) (*ast.FunctionDecl, bool) {
	call, ok := ast.Unparen(e).(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	callee, ok := ast.Unparen(call.Callee).(*ast.VariableExpr)
	if !ok {
		return nil, false
	}
	if _, shadowed := f.lookup(callee.ID); shadowed {
		return nil, false
	}
	fn, ok := f.g.funcs[callee.ID]
	return fn, ok
}

func (f *funcEmitter) isVoidCall(e ast.Expr) bool {
	fn, ok := f.calledFunc(e)
	return ok && fn.Return == types.Void
}

// isBool decides statically whether e evaluates to a boolean, which
// selects the print host function.
func (f *funcEmitter) isBool(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return e.Type == types.Boolean
	case *ast.GroupExpr:
		return f.isBool(e.Inner)
	case *ast.VariableExpr:
		b, ok := f.lookup(e.ID)
		return ok && b.dt == types.Boolean
	case *ast.AssignExpr:
		if target, ok := ast.Unparen(e.Target).(*ast.VariableExpr); ok {
			b, ok := f.lookup(target.ID)
			return ok && b.dt == types.Boolean
		}
	case *ast.UnaryExpr:
		return e.Op == ast.Not
	case *ast.BinaryExpr:
		return e.Op.IsComparison()
	case *ast.CallExpr:
		fn, ok := f.calledFunc(e)
		return ok && fn.Return == types.Boolean
	}
	return false
}

// isUnsigned mirrors the interpreter: uint64 literals, bindings and
// results make an expression unsigned, and arithmetic keeps it so.
func (f *funcEmitter) isUnsigned(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return e.Type == types.UInt64
	case *ast.GroupExpr:
		return f.isUnsigned(e.Inner)
	case *ast.VariableExpr:
		b, ok := f.lookup(e.ID)
		return ok && b.dt == types.UInt64
	case *ast.AssignExpr:
		if target, ok := ast.Unparen(e.Target).(*ast.VariableExpr); ok {
			b, ok := f.lookup(target.ID)
			return ok && b.dt == types.UInt64
		}
	case *ast.UnaryExpr:
		return e.Op == ast.Neg && f.isUnsigned(e.Operand)
	case *ast.BinaryExpr:
		return !e.Op.IsComparison() && (f.isUnsigned(e.Left) || f.isUnsigned(e.Right))
	case *ast.CallExpr:
		fn, ok := f.calledFunc(e)
		return ok && fn.Return == types.UInt64
	}
	return false
}
