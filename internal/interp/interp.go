package interp

import (
	"fmt"
	"io"
	"log"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symtab"
	"ember/internal/types"
)

// maxCalls bounds the activation stack, the root activation included.
const maxCalls = 1000

type binding struct {
	value Value
	dt    types.Datatype
}

// frame holds the bindings of one block or call, keyed by entry id.
type frame map[int]*binding

type activation struct {
	returned bool
	value    Value
}

type Interpreter struct {
	table *symtab.Table
	out   io.Writer
	trace *log.Logger
	env   []frame
	calls []*activation
}

func New(table *symtab.Table, out io.Writer) *Interpreter {
	in := &Interpreter{table: table, out: out}
	in.reset()
	return in
}

// SetTrace enables trace output of environment and statement activity.
// A nil logger turns tracing off.
func (in *Interpreter) SetTrace(l *log.Logger) {
	in.trace = l
}

func (in *Interpreter) reset() {
	root := frame{}
	for _, b := range builtins {
		root[in.table.Add(b.name, types.Empty)] = &binding{value: Func(b)}
	}
	in.env = []frame{root}
	in.calls = []*activation{{}}
}

// Run executes mod in a fresh session and returns the program's exit
// code: the value of a top-level return, or 0.
func (in *Interpreter) Run(mod *ast.Module) (int, error) {
	in.reset()
	if err := in.execList(mod.Body); err != nil {
		return 0, err
	}
	root := in.calls[0]
	if !root.returned {
		return 0, nil
	}
	return exitCode(root.value), nil
}

// Exec runs mod in the current session, keeping earlier declarations
// alive, and returns the value of the last top-level expression
// statement. A runtime error leaves the session at top level.
func (in *Interpreter) Exec(mod *ast.Module) (Value, error) {
	root := in.calls[0]
	root.returned = false
	last := Void
	for _, stmt := range mod.Body {
		if es, ok := stmt.(*ast.ExprStmt); ok {
			v, err := in.eval(es.Expr)
			if err != nil {
				in.unwind()
				return Void, err
			}
			last = v
			continue
		}
		if err := in.exec(stmt); err != nil {
			in.unwind()
			return Void, err
		}
		if root.returned {
			return root.value, nil
		}
	}
	return last, nil
}

func (in *Interpreter) unwind() {
	in.env = in.env[:1]
	in.calls = in.calls[:1]
}

func exitCode(v Value) int {
	if v.numeric() {
		return int(v.Int)
	}
	return 0
}

func (in *Interpreter) tracef(format string, args ...any) {
	if in.trace != nil {
		in.trace.Printf(format, args...)
	}
}

func (in *Interpreter) push() {
	in.tracef("push environment")
	in.env = append(in.env, frame{})
}

func (in *Interpreter) pop() {
	in.tracef("pop environment")
	in.env = in.env[:len(in.env)-1]
}

func (in *Interpreter) current() *activation {
	return in.calls[len(in.calls)-1]
}

func (in *Interpreter) lookup(id int) (*binding, bool) {
	for i := len(in.env) - 1; i >= 0; i-- {
		if b, ok := in.env[i][id]; ok {
			return b, true
		}
	}
	return nil, false
}

func (in *Interpreter) declare(id int, dt types.Datatype, v Value) {
	in.env[len(in.env)-1][id] = &binding{value: v.narrow(dt), dt: dt}
}

// execList runs statements until one of them returns.
func (in *Interpreter) execList(stmts []ast.Stmt) error {
	act := in.current()
	for _, stmt := range stmts {
		if err := in.exec(stmt); err != nil {
			return err
		}
		if act.returned {
			return nil
		}
	}
	return nil
}

func (in *Interpreter) exec(stmt ast.Stmt) error {
	in.tracef("exec %s", ast.KindName(stmt))
	switch s := stmt.(type) {
	case *ast.FunctionDecl:
		fn := &Function{decl: s, name: in.table.Name(s.ID), env: append([]frame(nil), in.env...)}
		in.declare(s.ID, types.Empty, Func(fn))
		return nil
	case *ast.VariableDecl:
		v := zero(s.Type)
		if s.Init != nil {
			var err error
			if v, err = in.eval(s.Init); err != nil {
				return err
			}
		}
		in.declare(s.ID, s.Type, v)
		return nil
	case *ast.BlockStmt:
		in.push()
		defer in.pop()
		return in.execList(s.Body)
	case *ast.ConditionalStmt:
		cond, err := in.eval(s.Cond)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return in.exec(s.Body)
		}
		if s.Else != nil {
			return in.exec(s.Else)
		}
		return nil
	case *ast.LoopStmt:
		act := in.current()
		for {
			cond, err := in.eval(s.Cond)
			if err != nil {
				return err
			}
			if !cond.Truthy() {
				return nil
			}
			if err := in.exec(s.Body); err != nil {
				return err
			}
			if act.returned {
				return nil
			}
		}
	case *ast.ReturnStmt:
		v := Void
		if s.Value != nil {
			var err error
			if v, err = in.eval(s.Value); err != nil {
				return err
			}
		}
		act := in.current()
		act.returned = true
		act.value = v
		return nil
	case *ast.ExprStmt:
		_, err := in.eval(s.Expr)
		return err
	default:
		panic(fmt.Sprintf("interp: unknown statement %T", stmt))
	}
}

// Function is a user-defined function together with the environment stack
// it was declared in.
type Function struct {
	decl *ast.FunctionDecl
	name string
	env  []frame
}

func (f *Function) Name() string { return f.name }
func (f *Function) Arity() int   { return len(f.decl.Params) }

func (f *Function) call(in *Interpreter, args []Value, loc diag.Location) (Value, error) {
	if len(in.calls) >= maxCalls {
		return Void, diag.New(diag.CallStackOverflow, loc, nil)
	}
	in.tracef("call %s", f.name)
	saved := in.env
	in.env = append(append([]frame(nil), f.env...), frame{})
	in.tracef("push environment")
	for i, p := range f.decl.Params {
		in.declare(p.ID, p.Type, args[i])
	}
	act := &activation{}
	in.calls = append(in.calls, act)
	err := in.exec(f.decl.Body)
	in.calls = in.calls[:len(in.calls)-1]
	in.tracef("pop environment")
	in.env = saved
	if err != nil {
		return Void, err
	}
	if f.decl.Return == types.Void {
		return Void, nil
	}
	// Falling off the end of a typed function yields its zero value.
	if !act.returned {
		return zero(f.decl.Return), nil
	}
	return act.value.narrow(f.decl.Return), nil
}
