package compiler

import (
	"ember/internal/ast"
	"ember/internal/optimizer"
	"ember/internal/parser"
	"ember/internal/symtab"
)

type Result struct {
	Wat  string
	Wasm []byte
}

type Compiler struct {
	table *symtab.Table
}

func New(table *symtab.Table) *Compiler {
	return &Compiler{table: table}
}

// Compile folds constants, lowers mod to WebAssembly text and assembles
// it. mod must have parsed without errors.
func (c *Compiler) Compile(mod *ast.Module) (*Result, error) {
	wat, err := c.GenerateWat(mod)
	if err != nil {
		return nil, err
	}
	wasm, err := WatToWasm(wat)
	if err != nil {
		return nil, err
	}
	return &Result{Wat: wat, Wasm: wasm}, nil
}

// GenerateWat stops after lowering, which needs no WebAssembly toolchain.
func (c *Compiler) GenerateWat(mod *ast.Module) (string, error) {
	return NewGenerator(c.table).Generate(optimizer.Fold(mod))
}

// CompileFile parses path into the compiler's table and compiles it.
func (c *Compiler) CompileFile(path string) (*Result, error) {
	mod, err := parser.ParseFile(path, c.table)
	if err != nil {
		return nil, err
	}
	return c.Compile(mod)
}
