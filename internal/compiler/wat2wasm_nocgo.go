//go:build !cgo
// +build !cgo

package compiler

import "errors"

func WatToWasm(wat string) ([]byte, error) {
	return nil, errors.New("cgo is disabled: assembling WebAssembly needs wasmtime-go")
}
