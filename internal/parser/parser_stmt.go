package parser

import (
	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/lexer"
)

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.cur().Type {
	case lexer.LET, lexer.VAR:
		return p.parseSimpleStatement()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.BREAK:
		tok := p.advance()
		return &ast.Break{Pos: p.pos2(tok)}, nil
	case lexer.RETURN:
		tok := p.advance()
		if p.atStatementEnd() {
			return &ast.Return{Pos: p.pos2(tok)}, nil
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: val, Pos: p.pos2(tok)}, nil
	case lexer.INIT:
		return p.parseInitCall()
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if op, ok := p.curAssignOp(); ok {
			opTok := p.advance()
			rhs, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &ast.Assignment{LHS: expr, Op: op, RHS: rhs, Pos: p.pos2(opTok)}, nil
		}
		return &ast.ExprStmt{X: expr, Pos: expr.Position()}, nil
	}
}

func (p *Parser) atStatementEnd() bool {
	switch p.cur().Type {
	case lexer.NEWLINE, lexer.DEDENT, lexer.EOF:
		return true
	default:
		return false
	}
}

func (p *Parser) parseInitCall() (ast.Stmt, error) {
	tok, err := p.expect(lexer.INIT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return &ast.InitCall{Args: args, Pos: p.pos2(tok)}, nil
}

// parseDecl parses `let`/`var name [: Type] [= value]`, usable both as a
// statement and, for `let`, as an if/while condition (the if-let/while-let form).
func (p *Parser) parseDecl() (*ast.Decl, error) {
	tok := p.advance() // LET or VAR
	kind := ast.LetDecl
	if tok.Type == lexer.VAR {
		kind = ast.VarDecl
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	var ty ast.TypeExpr
	if p.cur().Type == lexer.COLON {
		p.advance()
		ty, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	var val ast.Expr
	if p.cur().Type == lexer.ASSIGN {
		p.advance()
		val, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Decl{Kind: kind, Name: nameTok.Literal, Type: ty, Value: val, Pos: p.pos2(tok)}, nil
}

func (p *Parser) parseSimpleStatement() (ast.Stmt, error) {
	return p.parseDecl()
}

// parseCond parses an if/elif/while condition, which is either a `let`
// binding (the if-let/while-let form) or a plain expression.
func (p *Parser) parseCond() (ast.Expr, error) {
	if p.cur().Type == lexer.LET {
		return p.parseDecl()
	}
	return p.parseExpr()
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	tok, err := p.expect(lexer.IF)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	ifStmt := &ast.If{Cond: cond, Body: body, Pos: p.pos2(tok)}
	for p.cur().Type == lexer.ELIF {
		etok := p.advance()
		ec, err := p.parseCond()
		if err != nil {
			return nil, err
		}
		eb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		ifStmt.Elifs = append(ifStmt.Elifs, ast.Elif{Cond: ec, Body: eb, Pos: p.pos2(etok)})
	}
	if p.cur().Type == lexer.ELSE {
		p.advance()
		eb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		ifStmt.Else = eb
	}
	return ifStmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	tok, err := p.expect(lexer.WHILE)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, Pos: p.pos2(tok)}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	tok, err := p.expect(lexer.FOR)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IN); err != nil {
		return nil, err
	}
	container, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{ElemName: nameTok.Literal, Container: container, Body: body, Pos: p.pos2(tok)}, nil
}
