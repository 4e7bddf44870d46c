//go:build cgo
// +build cgo

package runtime

import (
	"testing"

	"github.com/bytecodealliance/wasmtime-go"
)

func TestRunnerCapturesHostOutput(t *testing.T) {
	wasm, err := wasmtime.Wat2Wasm(`
	(module
	  (import "ember" "print_i64" (func $print_i64 (param i64)))
	  (import "ember" "print_bool" (func $print_bool (param i64)))
	  (import "ember" "print_space" (func $print_space))
	  (import "ember" "print_newline" (func $print_newline))
	  (func (export "_start") (result i64)
	    (call $print_i64 (i64.const -42))
	    (call $print_space)
	    (call $print_bool (i64.const 1))
	    (call $print_newline)
	    (i64.const 3)))
	`)
	if err != nil {
		t.Fatalf("wat2wasm failed: %v", err)
	}
	out, code, err := NewRunner().Run(wasm)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "-42 true\n" || code != 3 {
		t.Fatalf("unexpected result: %q exit %d", out, code)
	}
}

func TestRunnerReportsTraps(t *testing.T) {
	wasm, err := wasmtime.Wat2Wasm(`
	(module
	  (import "ember" "print_i64" (func $print_i64 (param i64)))
	  (func (export "_start") (result i64)
	    (call $print_i64 (i64.const 1))
	    (i64.div_s (i64.const 1) (i64.const 0))))
	`)
	if err != nil {
		t.Fatalf("wat2wasm failed: %v", err)
	}
	out, _, err := NewRunner().Run(wasm)
	if err == nil {
		t.Fatalf("expected a trap")
	}
	if out != "1" {
		t.Fatalf("output before the trap should be kept, got %q", out)
	}
}

func TestRunnerRequiresStart(t *testing.T) {
	wasm, err := wasmtime.Wat2Wasm(`(module)`)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewRunner().Run(wasm); err == nil {
		t.Fatalf("expected missing _start error")
	}
}
