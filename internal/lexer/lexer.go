package lexer

import (
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"ember/internal/diag"
)

type Lexer struct {
	file   string
	src    string
	pos    int
	row    int
	col    int
	peeked *Token
	done   bool
	errs   diag.List
}

func New(file, src string) *Lexer {
	return &Lexer{file: file, src: src, row: 1}
}

// Errors returns the lexical errors accumulated so far.
func (l *Lexer) Errors() diag.List {
	return l.errs
}

// File returns the name used in token locations.
func (l *Lexer) File() string {
	return l.file
}

// Next returns the next token. After end of input, or after a fatal
// lexical error, it keeps returning TokenEOF.
func (l *Lexer) Next() Token {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok
	}
	for {
		if l.done {
			return Token{Kind: TokenEOF, Loc: l.loc()}
		}
		l.skipSpace()
		if l.done {
			return Token{Kind: TokenEOF, Loc: l.loc()}
		}
		start := l.loc()
		if l.eof() {
			l.done = true
			return Token{Kind: TokenEOF, Loc: start}
		}
		ch := l.peek()
		switch {
		case isDigit(ch):
			return Token{Kind: TokenInt, Text: l.readNumber(), Loc: start}
		case isIdentStart(ch):
			text := l.readIdent()
			if kind, ok := keywords[text]; ok {
				return Token{Kind: kind, Loc: start}
			}
			return Token{Kind: TokenIdent, Text: text, Loc: start}
		}
		if tok, ok := l.readSymbol(start); ok {
			return tok
		}
	}
}

func (l *Lexer) Peek() Token {
	if l.peeked == nil {
		tok := l.Next()
		l.peeked = &tok
	}
	return *l.peeked
}

// Tokenize lexes src to completion. The returned slice always ends with
// a TokenEOF token.
func Tokenize(file, src string) ([]Token, diag.List) {
	l := New(file, src)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, l.errs
		}
	}
}

// ReadSource reads a whole source file. The handle is closed before the
// function returns, whatever the outcome.
func ReadSource(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", &os.PathError{Op: "read", Path: path, Err: os.ErrInvalid}
	}
	buf, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func TokenizeFile(path string) ([]Token, diag.List, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, nil, err
	}
	toks, errs := Tokenize(path, src)
	return toks, errs, nil
}

func (l *Lexer) readSymbol(start diag.Location) (Token, bool) {
	ch := l.peek()
	if ch == '&' || ch == '|' {
		l.advance()
		l.errs.Add(diag.New(diag.UnknownSymbol, start, diag.Args{"char": string(ch)}))
		return Token{}, false
	}
	kinds, ok := single[ch]
	if !ok {
		l.advance()
		l.errs.Add(diag.New(diag.UnexpectedCharacter, start, diag.Args{"char": string(ch)}))
		return Token{}, false
	}
	l.advance()
	if kinds[1] != TokenEOF && l.peek() == '=' {
		l.advance()
		return Token{Kind: kinds[1], Loc: start}, true
	}
	return Token{Kind: kinds[0], Loc: start}, true
}

// skipSpace consumes whitespace and comments. Block comments nest.
func (l *Lexer) skipSpace() {
	for !l.eof() {
		ch := l.peek()
		switch {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '/' && l.peekN(1) == '/':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekN(1) == '*':
			start := l.loc()
			l.advance()
			l.advance()
			if !l.skipBlockComment() {
				l.errs.Add(diag.New(diag.UnterminatedComment, start, nil))
				l.done = true
				return
			}
		default:
			return
		}
	}
}

// skipBlockComment is entered after an opening "/*" and returns false when
// input ends before the matching "*/".
func (l *Lexer) skipBlockComment() bool {
	depth := 1
	for !l.eof() {
		switch {
		case l.peek() == '/' && l.peekN(1) == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peekN(1) == '/':
			l.advance()
			l.advance()
			depth--
			if depth == 0 {
				return true
			}
		default:
			l.advance()
		}
	}
	return false
}

func (l *Lexer) readIdent() string {
	start := l.pos
	for !l.eof() && isIdentPart(l.peek()) {
		l.advance()
	}
	return l.src[start:l.pos]
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}
	return l.src[start:l.pos]
}

func (l *Lexer) loc() diag.Location {
	return diag.Location{File: l.file, Row: l.row, Column: l.col + 1, Offset: l.pos}
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.row++
		l.col = 0
		return
	}
	l.col++
}

func (l *Lexer) peek() rune {
	if l.eof() {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return ch
}

func (l *Lexer) peekN(n int) rune {
	idx := l.pos
	for i := 0; i < n; i++ {
		if idx >= len(l.src) {
			return 0
		}
		_, size := utf8.DecodeRuneInString(l.src[idx:])
		idx += size
	}
	if idx >= len(l.src) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.src[idx:])
	return ch
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.src)
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
