package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Location identifies the start of a lexeme in a source file.
type Location struct {
	File   string
	Row    int
	Column int
	Offset int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Row, l.Column)
}

// IsZero reports whether the location was never set.
func (l Location) IsZero() bool {
	return l.Row == 0 && l.Column == 0 && l.File == ""
}

type Code int

const (
	UnexpectedCharacter Code = 101
	UnknownSymbol       Code = 102
	UnterminatedComment Code = 103

	ExpectedSymbol       Code = 201
	InvalidExpression    Code = 202
	ExpectedExpression   Code = 203
	InvalidIdentifier    Code = 204
	ExpectedIdentifier   Code = 205
	InvalidType          Code = 206
	ExpectedType         Code = 207
	ExpectedSymbolEOF    Code = 208
	NestingTooDeep       Code = 209
	IntegerOutOfRange    Code = 210
	UndefinedVariable    Code = 301
	InvalidAssignTarget  Code = 302
	ArityMismatch        Code = 303
	NotCallable          Code = 304
	DivisionByZero       Code = 305
	InvalidOperand       Code = 306
	CallStackOverflow    Code = 307
	UnsupportedConstruct Code = 401
	UnresolvedReference  Code = 402
	CodegenArity         Code = 403
	CodegenNotCallable   Code = 404
)

var phases = [...]string{"Lexical", "Syntax", "Runtime", "Codegen"}

// templates holds one message per code; placeholders are {name} keys
// filled from Error.Args.
var templates = map[Code]string{
	UnexpectedCharacter: "Unexpected character '{char}'",
	UnknownSymbol:       "Unknown symbol '{char}'",
	UnterminatedComment: "Unterminated multiline comment",

	ExpectedSymbol:     "'{symbol}' expected",
	InvalidExpression:  "Invalid expression term '{value}'",
	ExpectedExpression: "Expected expression",
	InvalidIdentifier:  "Invalid identifier '{value}'",
	ExpectedIdentifier: "Expected identifier",
	InvalidType:        "Invalid type '{value}'",
	ExpectedType:       "Type expected",
	ExpectedSymbolEOF:  "'{symbol}' expected at end of file",
	NestingTooDeep:     "Expression too deeply nested",
	IntegerOutOfRange:  "Integer literal '{value}' out of range",

	UndefinedVariable:   "Undefined variable '{name}'",
	InvalidAssignTarget: "Invalid assignment target",
	ArityMismatch:       "'{name}' expects {expected} argument(s), got {actual}",
	NotCallable:         "'{value}' is not callable",
	DivisionByZero:      "Division by zero",
	InvalidOperand:      "Invalid operand for '{operator}'",
	CallStackOverflow:   "Call stack overflow",

	UnsupportedConstruct: "Unsupported construct '{value}'",
	UnresolvedReference:  "Unresolved reference '{name}'",
	CodegenArity:         "'{name}' expects {expected} argument(s), got {actual}",
	CodegenNotCallable:   "'{value}' is not callable",
}

// Phase derives the compiler phase from the hundreds digit of the code.
func (c Code) Phase() string {
	idx := int(c)/100 - 1
	if idx < 0 || idx >= len(phases) {
		return "Internal"
	}
	return phases[idx]
}

// Args are the keyword arguments substituted into a code's template.
type Args map[string]any

type Error struct {
	Code Code
	Loc  Location
	Args Args
}

func New(code Code, loc Location, args Args) *Error {
	return &Error{Code: code, Loc: loc, Args: args}
}

// Message formats the template for e.Code without location or phase.
func (e *Error) Message() string {
	tmpl, ok := templates[e.Code]
	if !ok {
		return fmt.Sprintf("error %d", int(e.Code))
	}
	if len(e.Args) == 0 {
		return tmpl
	}
	keys := make([]string, 0, len(e.Args))
	for k := range e.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(e.Args[k]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error %d: %s", e.Code.Phase(), int(e.Code), e.Message())
	if e.Loc.IsZero() {
		return msg
	}
	return fmt.Sprintf("[%s] %s", e.Loc, msg)
}

// Incomplete reports whether the error was caused by input ending early.
// The REPL uses it to keep reading continuation lines.
func (e *Error) Incomplete() bool {
	switch e.Code {
	case UnterminatedComment, ExpectedExpression, ExpectedIdentifier, ExpectedType, ExpectedSymbolEOF:
		return true
	}
	return false
}

// List accumulates errors across the lexer and parser.
type List []*Error

func (l *List) Add(err *Error) {
	*l = append(*l, err)
}

func (l List) Len() int { return len(l) }

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	lines := make([]string, len(l))
	for i, err := range l {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// Err returns nil for an empty list so callers can compare against nil.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Incomplete reports whether every error stems from premature end of input.
func (l List) Incomplete() bool {
	if len(l) == 0 {
		return false
	}
	for _, err := range l {
		if !err.Incomplete() {
			return false
		}
	}
	return true
}

// Sorted returns the errors ordered by source offset, stable for equal offsets.
func (l List) Sorted() List {
	out := make(List, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Loc.File != out[j].Loc.File {
			return out[i].Loc.File < out[j].Loc.File
		}
		return out[i].Loc.Offset < out[j].Loc.Offset
	})
	return out
}
