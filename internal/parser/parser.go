package parser

import (
	"errors"
	"strconv"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/symtab"
	"ember/internal/types"
)

// maxDepth bounds statement and expression recursion.
const maxDepth = 256

type Parser struct {
	lex   *lexer.Lexer
	table *symtab.Table
	curr  lexer.Token
	prev  lexer.Token
	depth int
	errs  diag.List
}

func New(file, src string, table *symtab.Table) *Parser {
	return NewFromLexer(lexer.New(file, src), table)
}

func NewFromLexer(lex *lexer.Lexer, table *symtab.Table) *Parser {
	p := &Parser{lex: lex, table: table}
	p.curr = lex.Next()
	return p
}

// ParseFile reads path and parses it. A read failure is returned as is;
// lexical and syntax errors come back as a diag.List.
func ParseFile(path string, table *symtab.Table) (*ast.Module, error) {
	src, err := lexer.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return New(path, src, table).ParseModule()
}

// ParseModule parses declarations until end of input. The module is
// returned even when errors were reported; the error is then a diag.List
// holding every lexical and syntax error in source order.
func (p *Parser) ParseModule() (*ast.Module, error) {
	mod := &ast.Module{File: p.lex.File()}
	for p.curr.Kind != lexer.TokenEOF {
		stmts, err := p.parseDeclaration()
		if err != nil {
			p.record(err)
			p.sync()
			p.skipBraces()
			continue
		}
		mod.Body = append(mod.Body, stmts...)
	}
	var all diag.List
	all = append(all, p.lex.Errors()...)
	all = append(all, p.errs...)
	return mod, all.Sorted().Err()
}

func (p *Parser) parseDeclaration() ([]ast.Stmt, error) {
	if p.curr.Kind == lexer.TokenFn {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{fn}, nil
	}
	return p.parseDeclStatement()
}

func (p *Parser) parseFunction() (*ast.FunctionDecl, error) {
	start := p.curr.Loc
	p.next()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	id := p.table.Add(name.Text, types.Empty)
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	var params []*ast.Param
	if p.curr.Kind != lexer.TokenRParen {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenColon); err != nil {
		return nil, err
	}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.table.SetType(id, ret)
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{ID: id, Params: params, Return: ret, Body: body, Loc: start}, nil
}

func (p *Parser) parseParam() (*ast.Param, error) {
	loc := p.curr.Loc
	dt, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &ast.Param{ID: p.table.Add(name.Text, dt), Type: dt, Loc: loc}, nil
}

func (p *Parser) parseDeclStatement() ([]ast.Stmt, error) {
	if p.curr.Kind.IsType() {
		return p.parseVariableDecl()
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{stmt}, nil
}

// parseVariableDecl yields one VariableDecl per declared name.
func (p *Parser) parseVariableDecl() ([]ast.Stmt, error) {
	dt, err := p.parseType()
	if err != nil {
		return nil, err
	}
	var out []ast.Stmt
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		decl := &ast.VariableDecl{ID: p.table.Add(name.Text, dt), Type: dt, Loc: name.Loc}
		if p.match(lexer.TokenEq) {
			decl.Init, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		out = append(out, decl)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	switch p.curr.Kind {
	case lexer.TokenLBrace:
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return block, nil
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenDo:
		return p.parseDoWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenReturn:
		return p.parseReturn()
	}
	loc := p.curr.Loc
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr, Loc: loc}, nil
}

// parseBlock recovers from errors in its own entries, so one bad
// statement does not discard the rest of the block.
func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	open, err := p.expect(lexer.TokenLBrace)
	if err != nil {
		return nil, err
	}
	block := &ast.BlockStmt{Loc: open.Loc}
	for p.curr.Kind != lexer.TokenRBrace && p.curr.Kind != lexer.TokenEOF {
		stmts, err := p.parseDeclStatement()
		if err != nil {
			p.record(err)
			p.sync()
			continue
		}
		block.Body = append(block.Body, stmts...)
	}
	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	loc := p.curr.Loc
	p.next()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.ConditionalStmt{Cond: cond, Body: body, Loc: loc}
	if p.match(lexer.TokenElse) {
		stmt.Else, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	loc := p.curr.Loc
	p.next()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.LoopStmt{Cond: cond, Body: body, Loc: loc}, nil
}

// parseDoWhile lowers `do S while (E);` to `{ S; while (E) S }`. The loop
// body is a deep copy so each node has a single owner.
func (p *Parser) parseDoWhile() (ast.Stmt, error) {
	loc := p.curr.Loc
	p.next()
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenWhile); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	loop := &ast.LoopStmt{Cond: cond, Body: ast.CloneStmt(body), Loc: loc}
	return &ast.BlockStmt{Body: []ast.Stmt{body, loop}, Loc: loc}, nil
}

// parseFor lowers `for (I; C; N) S` to `{ I; while (C) { S; N } }`. A
// missing condition becomes the literal true.
func (p *Parser) parseFor() (ast.Stmt, error) {
	loc := p.curr.Loc
	p.next()
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	var init []ast.Stmt
	switch {
	case p.match(lexer.TokenSemicolon):
	case p.curr.Kind.IsType():
		decls, err := p.parseVariableDecl()
		if err != nil {
			return nil, err
		}
		init = decls
	default:
		eloc := p.curr.Loc
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
		init = []ast.Stmt{&ast.ExprStmt{Expr: expr, Loc: eloc}}
	}
	var cond ast.Expr = ast.BoolLit(true, p.curr.Loc)
	if p.curr.Kind != lexer.TokenSemicolon {
		var err error
		if cond, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	var incr ast.Stmt
	if p.curr.Kind != lexer.TokenRParen {
		iloc := p.curr.Loc
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		incr = &ast.ExprStmt{Expr: expr, Loc: iloc}
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if incr != nil {
		body = &ast.BlockStmt{Body: []ast.Stmt{body, incr}, Loc: body.GetLoc()}
	}
	stmts := append(init, &ast.LoopStmt{Cond: cond, Body: body, Loc: loc})
	return &ast.BlockStmt{Body: stmts, Loc: loc}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	stmt := &ast.ReturnStmt{Loc: p.curr.Loc}
	p.next()
	if p.curr.Kind != lexer.TokenSemicolon {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseCondition() (ast.Expr, error) {
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseAssignment()
}

// parseAssignment is right associative. `x op= e` becomes
// `x = x op e` with a copy of the target on the right.
func (p *Parser) parseAssignment() (ast.Expr, error) {
	target, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	op, compound, ok := assignOp(p.curr.Kind)
	if !ok {
		return target, nil
	}
	opLoc := p.curr.Loc
	p.next()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if compound {
		value = &ast.BinaryExpr{Op: op, Left: ast.CloneExpr(target), Right: value, Loc: opLoc}
	}
	return &ast.AssignExpr{Target: target, Value: value, Loc: target.GetLoc()}, nil
}

// parseBinary folds operators whose precedence exceeds min; the right
// operand is parsed at the operator's own precedence, which makes every
// level left associative.
func (p *Parser) parseBinary(min int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := binaryOp(p.curr.Kind)
		if !ok || op.Precedence() <= min {
			return left, nil
		}
		opLoc := p.curr.Loc
		p.next()
		right, err := p.parseBinary(op.Precedence())
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Loc: opLoc}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	var op ast.UnaryOp
	switch p.curr.Kind {
	case lexer.TokenMinus:
		op = ast.Neg
	case lexer.TokenBang:
		op = ast.Not
	default:
		return p.parseCall()
	}
	loc := p.curr.Loc
	p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpr{Op: op, Operand: operand, Loc: loc}, nil
}

func (p *Parser) parseCall() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.curr.Kind == lexer.TokenLParen {
		p.next()
		var args []ast.Expr
		if p.curr.Kind != lexer.TokenRParen {
			for {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(lexer.TokenComma) {
					break
				}
			}
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		expr = &ast.CallExpr{Callee: expr, Args: args, Loc: expr.GetLoc()}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.curr
	switch tok.Kind {
	case lexer.TokenIdent:
		p.next()
		return &ast.VariableExpr{ID: p.resolve(tok.Text), Loc: tok.Loc}, nil
	case lexer.TokenTrue, lexer.TokenFalse:
		p.next()
		return ast.BoolLit(tok.Kind == lexer.TokenTrue, tok.Loc), nil
	case lexer.TokenInt:
		if v, err := strconv.ParseInt(tok.Text, 10, 64); err == nil {
			p.next()
			return ast.IntLit(v, tok.Loc), nil
		}
		// Literals past int64 but within uint64 are typed uint64.
		u, err := strconv.ParseUint(tok.Text, 10, 64)
		if err != nil {
			return nil, diag.New(diag.IntegerOutOfRange, tok.Loc, diag.Args{"value": tok.Text})
		}
		p.next()
		return ast.UintLit(u, tok.Loc), nil
	case lexer.TokenLParen:
		p.next()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return &ast.GroupExpr{Inner: inner, Loc: tok.Loc}, nil
	case lexer.TokenEOF:
		return nil, diag.New(diag.ExpectedExpression, tok.Loc, nil)
	default:
		return nil, diag.New(diag.InvalidExpression, tok.Loc, diag.Args{"value": tok.String()})
	}
}

// resolve maps a referenced name to its entry, creating an untyped entry
// for names not declared yet (calls to functions declared further down,
// builtins).
func (p *Parser) resolve(name string) int {
	if id, ok := p.table.Get(name); ok {
		return id
	}
	return p.table.Add(name, types.Empty)
}

func (p *Parser) parseType() (types.Datatype, error) {
	tok := p.curr
	if dt, ok := types.FromKeyword(tok.Kind); ok {
		p.next()
		return dt, nil
	}
	if tok.Kind == lexer.TokenEOF {
		return types.Empty, diag.New(diag.ExpectedType, tok.Loc, nil)
	}
	return types.Empty, diag.New(diag.InvalidType, tok.Loc, diag.Args{"value": tok.String()})
}

func (p *Parser) expectIdent() (lexer.Token, error) {
	tok := p.curr
	switch tok.Kind {
	case lexer.TokenIdent:
		p.next()
		return tok, nil
	case lexer.TokenEOF:
		return tok, diag.New(diag.ExpectedIdentifier, tok.Loc, nil)
	default:
		return tok, diag.New(diag.InvalidIdentifier, tok.Loc, diag.Args{"value": tok.String()})
	}
}

func binaryOp(kind lexer.TokenKind) (ast.BinaryOp, bool) {
	switch kind {
	case lexer.TokenPlus:
		return ast.Add, true
	case lexer.TokenMinus:
		return ast.Sub, true
	case lexer.TokenStar:
		return ast.Mul, true
	case lexer.TokenSlash:
		return ast.Div, true
	case lexer.TokenPercent:
		return ast.Mod, true
	case lexer.TokenEqEq:
		return ast.Eq, true
	case lexer.TokenNotEq:
		return ast.NotEq, true
	case lexer.TokenLT:
		return ast.Lt, true
	case lexer.TokenGT:
		return ast.Gt, true
	case lexer.TokenLTE:
		return ast.LtEq, true
	case lexer.TokenGTE:
		return ast.GtEq, true
	}
	return 0, false
}

// assignOp reports whether kind is an assignment operator and, for the
// compound forms, the binary operator it applies.
func assignOp(kind lexer.TokenKind) (op ast.BinaryOp, compound bool, ok bool) {
	switch kind {
	case lexer.TokenEq:
		return 0, false, true
	case lexer.TokenPlusEq:
		return ast.Add, true, true
	case lexer.TokenMinusEq:
		return ast.Sub, true, true
	case lexer.TokenStarEq:
		return ast.Mul, true, true
	case lexer.TokenSlashEq:
		return ast.Div, true, true
	case lexer.TokenPercentEq:
		return ast.Mod, true, true
	}
	return 0, false, false
}

func (p *Parser) match(kind lexer.TokenKind) bool {
	if p.curr.Kind != kind {
		return false
	}
	p.next()
	return true
}

// expect consumes a token of the given kind. A mismatch is reported at the
// start of the previous token, the last one that did parse.
func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, error) {
	if p.curr.Kind == kind {
		tok := p.curr
		p.next()
		return tok, nil
	}
	loc := p.prev.Loc
	if loc.IsZero() {
		loc = p.curr.Loc
	}
	if p.curr.Kind == lexer.TokenEOF {
		return p.curr, diag.New(diag.ExpectedSymbolEOF, loc, diag.Args{"symbol": kind.String()})
	}
	return p.curr, diag.New(diag.ExpectedSymbol, loc, diag.Args{"symbol": kind.String()})
}

func (p *Parser) next() {
	p.prev = p.curr
	p.curr = p.lex.Next()
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		p.depth--
		return diag.New(diag.NestingTooDeep, p.curr.Loc, nil)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) record(err error) {
	var d *diag.Error
	if errors.As(err, &d) {
		p.errs.Add(d)
	}
}

// skipBraces drops a run of '}' left over at module level after an error,
// so one unbalanced run is reported once.
func (p *Parser) skipBraces() {
	for p.curr.Kind == lexer.TokenRBrace {
		p.next()
	}
}

// sync discards tokens up to and including the next ';'. It stops early,
// without consuming, at a '}' so the enclosing block can close.
func (p *Parser) sync() {
	for p.curr.Kind != lexer.TokenEOF {
		switch p.curr.Kind {
		case lexer.TokenSemicolon:
			p.next()
			return
		case lexer.TokenRBrace:
			return
		default:
			p.next()
		}
	}
}
