//go:build !cgo
// +build !cgo

package runtime

import "errors"

type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Run(wasm []byte) (string, int, error) {
	return "", 0, errors.New("cgo is disabled: running WebAssembly needs wasmtime-go")
}
