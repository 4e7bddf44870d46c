//go:build cgo
// +build cgo

package runtime

import (
	"errors"
	"fmt"

	"github.com/bytecodealliance/wasmtime-go"
)

type Runner struct {
	engine *wasmtime.Engine
}

func NewRunner() *Runner {
	return &Runner{engine: wasmtime.NewEngine()}
}

// Run instantiates wasm, calls its _start export and returns the printed
// output with the exit code _start produced. A trap is returned as the
// error together with the output written before it.
func (r *Runner) Run(wasm []byte) (string, int, error) {
	store := wasmtime.NewStore(r.engine)
	linker := wasmtime.NewLinker(r.engine)
	host := NewHost()
	if err := Define(host, linker, store); err != nil {
		return "", 0, err
	}
	module, err := wasmtime.NewModule(r.engine, wasm)
	if err != nil {
		return "", 0, err
	}
	instance, err := linker.Instantiate(store, module)
	if err != nil {
		return "", 0, err
	}
	start := instance.GetFunc(store, "_start")
	if start == nil {
		return "", 0, errors.New("module has no _start export")
	}
	result, err := start.Call(store)
	if err != nil {
		return host.Output(), 0, err
	}
	code, ok := result.(int64)
	if !ok {
		return host.Output(), 0, fmt.Errorf("_start returned %T, want i64", result)
	}
	return host.Output(), int(code), nil
}

// Define registers the host functions under the "ember" module.
func Define(h *Host, linker *wasmtime.Linker, store *wasmtime.Store) error {
	define := func(name string, fn interface{}) error {
		return linker.DefineFunc(store, "ember", name, fn)
	}
	if err := define("print_i64", h.PrintI64); err != nil {
		return err
	}
	if err := define("print_u64", h.PrintU64); err != nil {
		return err
	}
	if err := define("print_bool", h.PrintBool); err != nil {
		return err
	}
	if err := define("print_space", h.PrintSpace); err != nil {
		return err
	}
	return define("print_newline", h.PrintNewline)
}
