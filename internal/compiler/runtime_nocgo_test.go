//go:build !cgo
// +build !cgo

package compiler_test

const runtimeAvailable = false
