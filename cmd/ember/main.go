package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"ember/internal/ast"
	"ember/internal/astdb"
	"ember/internal/compiler"
	"ember/internal/diag"
	"ember/internal/formatter"
	"ember/internal/graphviz"
	"ember/internal/interp"
	"ember/internal/lexer"
	"ember/internal/optimizer"
	"ember/internal/parser"
	"ember/internal/runtime"
	"ember/internal/symtab"
)

const (
	exitUsage   = 2
	exitData    = 64
	exitNoInput = 66
	exitRuntime = 70
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}
	c := &cli{stdout: stdout, stderr: stderr, diags: diag.NewPrinter(stderr, colorEnabled(stderr))}
	switch args[0] {
	case "tokens":
		return c.tokensCmd(args[1:])
	case "ast":
		return c.astCmd(args[1:])
	case "format":
		return c.formatCmd(args[1:])
	case "run":
		return c.runCmd(args[1:])
	case "build":
		return c.buildCmd(args[1:])
	case "launch":
		return c.launchCmd(args[1:])
	case "graph":
		return c.graphCmd(args[1:])
	case "export":
		return c.exportCmd(args[1:])
	case "repl":
		return c.replCmd(args[1:])
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  ember tokens <file.ember>")
	fmt.Fprintln(w, "  ember ast [--fold] <file.ember>")
	fmt.Fprintln(w, "  ember format [--write] <file.ember>")
	fmt.Fprintln(w, "  ember run [--fold] [--trace] [--wasm] <file.ember>")
	fmt.Fprintln(w, "  ember build [-o <name>] <file.ember>")
	fmt.Fprintln(w, "  ember launch <file.wasm>")
	fmt.Fprintln(w, "  ember graph [-o <out.dot>] <file.ember>")
	fmt.Fprintln(w, "  ember export -db <out.sqlite> <file.ember>")
	fmt.Fprintln(w, "  ember repl")
}

// colorEnabled reports whether diagnostics written to w may use ANSI colors.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type cli struct {
	stdout io.Writer
	stderr io.Writer
	diags  *diag.Printer
}

// flags builds a flag set whose errors go to stderr instead of exiting.
func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// input parses fs and returns its single positional argument.
func (c *cli) input(fs *flag.FlagSet, args []string) (string, bool) {
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(c.stderr, "%s: exactly one input file is required\n", fs.Name())
		return "", false
	}
	return fs.Arg(0), true
}

// load reads and parses path. On failure the diagnostics are already
// printed and the returned code is the one to exit with.
func (c *cli) load(path string) (*ast.Module, *symtab.Table, string, int) {
	src, err := lexer.ReadSource(path)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return nil, nil, "", exitNoInput
	}
	table := symtab.New()
	mod, err := parser.New(path, src, table).ParseModule()
	if err != nil {
		c.diags.Print(err)
		return nil, nil, "", exitData
	}
	return mod, table, src, 0
}

func (c *cli) tokensCmd(args []string) int {
	fs := c.flags("tokens")
	path, ok := c.input(fs, args)
	if !ok {
		return exitUsage
	}
	toks, errs, err := lexer.TokenizeFile(path)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitNoInput
	}
	for _, tok := range toks {
		fmt.Fprintf(c.stdout, "%d:%d\t%s\n", tok.Loc.Row, tok.Loc.Column, tok)
	}
	if errs.Len() > 0 {
		c.diags.Print(errs.Sorted())
		return exitData
	}
	return 0
}

func (c *cli) astCmd(args []string) int {
	fs := c.flags("ast")
	fold := fs.Bool("fold", false, "fold constant expressions before printing")
	path, ok := c.input(fs, args)
	if !ok {
		return exitUsage
	}
	mod, table, _, code := c.load(path)
	if code != 0 {
		return code
	}
	if *fold {
		mod = optimizer.Fold(mod)
	}
	fmt.Fprint(c.stdout, formatter.Tree(mod, table))
	return 0
}

func (c *cli) formatCmd(args []string) int {
	fs := c.flags("format")
	write := fs.Bool("write", false, "overwrite the file with the formatted source")
	path, ok := c.input(fs, args)
	if !ok {
		return exitUsage
	}
	mod, table, src, code := c.load(path)
	if code != 0 {
		return code
	}
	formatted := formatter.New(table).FormatModule(mod)
	if !*write {
		fmt.Fprint(c.stdout, formatted)
		return 0
	}
	if formatted == src {
		return 0
	}
	if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	return 0
}

func (c *cli) runCmd(args []string) int {
	fs := c.flags("run")
	fold := fs.Bool("fold", false, "fold constant expressions before running")
	trace := fs.Bool("trace", false, "log environment and statement activity to stderr")
	wasm := fs.Bool("wasm", false, "compile to WebAssembly and run it with wasmtime")
	path, ok := c.input(fs, args)
	if !ok {
		return exitUsage
	}
	mod, table, _, code := c.load(path)
	if code != 0 {
		return code
	}
	if *wasm {
		res, err := compiler.New(table).Compile(mod)
		if err != nil {
			c.diags.Print(err)
			return exitRuntime
		}
		return c.execWasm(res.Wasm)
	}
	if *fold {
		mod = optimizer.Fold(mod)
	}
	in := interp.New(table, c.stdout)
	if *trace {
		in.SetTrace(log.New(c.stderr, "trace: ", 0))
	}
	exit, err := in.Run(mod)
	if err != nil {
		c.diags.Print(err)
		return exitRuntime
	}
	return exit
}

func (c *cli) execWasm(wasm []byte) int {
	out, exit, err := runtime.NewRunner().Run(wasm)
	fmt.Fprint(c.stdout, out)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitRuntime
	}
	return exit
}

func (c *cli) buildCmd(args []string) int {
	fs := c.flags("build")
	out := fs.String("o", "", "base name of the output files, placed next to the input")
	path, ok := c.input(fs, args)
	if !ok {
		return exitUsage
	}
	mod, table, _, code := c.load(path)
	if code != 0 {
		return code
	}
	res, err := compiler.New(table).Compile(mod)
	if err != nil {
		c.diags.Print(err)
		return exitRuntime
	}
	base := *out
	if base == "" {
		base = filepath.Base(path)
	}
	base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	basePath := filepath.Join(filepath.Dir(path), base)
	if err := os.WriteFile(basePath+".wat", []byte(res.Wat), 0644); err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	if err := os.WriteFile(basePath+".wasm", res.Wasm, 0644); err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	fmt.Fprintf(c.stdout, "wrote %s.wasm (%s)\n", basePath, humanize.Bytes(uint64(len(res.Wasm))))
	return 0
}

func (c *cli) launchCmd(args []string) int {
	fs := c.flags("launch")
	path, ok := c.input(fs, args)
	if !ok {
		return exitUsage
	}
	wasm, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitNoInput
	}
	return c.execWasm(wasm)
}

func (c *cli) graphCmd(args []string) int {
	fs := c.flags("graph")
	out := fs.String("o", "", "write the DOT graph to this file instead of stdout")
	path, ok := c.input(fs, args)
	if !ok {
		return exitUsage
	}
	mod, table, _, code := c.load(path)
	if code != 0 {
		return code
	}
	if *out == "" {
		if err := graphviz.Write(c.stdout, mod, table); err != nil {
			fmt.Fprintln(c.stderr, err)
			return 1
		}
		return 0
	}
	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	err = graphviz.Write(f, mod, table)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	return 0
}

func (c *cli) exportCmd(args []string) int {
	fs := c.flags("export")
	dbPath := fs.String("db", "", "SQLite database to write to")
	path, ok := c.input(fs, args)
	if !ok {
		return exitUsage
	}
	if *dbPath == "" {
		fmt.Fprintln(c.stderr, "export: -db is required")
		return exitUsage
	}
	mod, table, src, code := c.load(path)
	if code != 0 {
		return code
	}
	toks, _ := lexer.Tokenize(path, src)
	db, err := astdb.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	defer db.Close()
	runID, err := db.Export(context.Background(), astdb.Snapshot{File: path, Tokens: toks, Table: table, Module: mod})
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	fmt.Fprintf(c.stdout, "exported %s as run %d\n", path, runID)
	return 0
}
