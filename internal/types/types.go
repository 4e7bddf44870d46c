package types

import (
	"fmt"

	"ember/internal/lexer"
)

// Datatype is the flat type tag attached to declarations and symbols.
type Datatype int

const (
	Empty Datatype = iota
	Void
	Boolean
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
)

func (d Datatype) String() string {
	switch d {
	case Empty:
		return "empty"
	case Void:
		return "void"
	case Boolean:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	default:
		return fmt.Sprintf("datatype(%d)", int(d))
	}
}

// FromKeyword maps a type keyword to its datatype. ok is false for any
// other token kind.
func FromKeyword(kind lexer.TokenKind) (Datatype, bool) {
	switch kind {
	case lexer.TokenVoid:
		return Void, true
	case lexer.TokenBool:
		return Boolean, true
	case lexer.TokenInt8:
		return Int8, true
	case lexer.TokenInt16:
		return Int16, true
	case lexer.TokenInt32:
		return Int32, true
	case lexer.TokenInt64:
		return Int64, true
	case lexer.TokenUInt8:
		return UInt8, true
	case lexer.TokenUInt16:
		return UInt16, true
	case lexer.TokenUInt32:
		return UInt32, true
	case lexer.TokenUInt64:
		return UInt64, true
	default:
		return Empty, false
	}
}

// Keyword is the inverse of FromKeyword. Empty has no keyword and maps to
// TokenEOF.
func (d Datatype) Keyword() lexer.TokenKind {
	switch d {
	case Void:
		return lexer.TokenVoid
	case Boolean:
		return lexer.TokenBool
	case Int8:
		return lexer.TokenInt8
	case Int16:
		return lexer.TokenInt16
	case Int32:
		return lexer.TokenInt32
	case Int64:
		return lexer.TokenInt64
	case UInt8:
		return lexer.TokenUInt8
	case UInt16:
		return lexer.TokenUInt16
	case UInt32:
		return lexer.TokenUInt32
	case UInt64:
		return lexer.TokenUInt64
	default:
		return lexer.TokenEOF
	}
}

func (d Datatype) IsInteger() bool {
	return d >= Int8 && d <= UInt64
}

func (d Datatype) IsSigned() bool {
	return d >= Int8 && d <= Int64
}

// Bits returns the storage width of integer types and 1 for Boolean.
func (d Datatype) Bits() int {
	switch d {
	case Boolean:
		return 1
	case Int8, UInt8:
		return 8
	case Int16, UInt16:
		return 16
	case Int32, UInt32:
		return 32
	default:
		return 64
	}
}

// Narrow wraps v to the width and signedness of d. Boolean collapses to
// 0 or 1. Empty, Void, Int64 and UInt64 leave v unchanged (uint64 values
// share the int64 bit pattern).
func (d Datatype) Narrow(v int64) int64 {
	switch d {
	case Boolean:
		if v != 0 {
			return 1
		}
		return 0
	case Int8:
		return int64(int8(v))
	case Int16:
		return int64(int16(v))
	case Int32:
		return int64(int32(v))
	case UInt8:
		return int64(uint8(v))
	case UInt16:
		return int64(uint16(v))
	case UInt32:
		return int64(uint32(v))
	default:
		return v
	}
}
