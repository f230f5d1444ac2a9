package parser

import (
	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/lexer"
)

// precedence is the operator re-association table:
// +,- = 1; *,/ and and,or = 2; comparisons = 3; is = 4. Higher binds tighter.
func precedence(op string) int {
	switch op {
	case "is":
		return 4
	case "==", "!=", "<=", ">=", "<", ">":
		return 3
	case "*", "/", "and", "or":
		return 2
	case "+", "-":
		return 1
	default:
		return 0
	}
}

func (p *Parser) curBinOp() (string, bool) {
	switch p.cur().Type {
	case lexer.PLUS:
		return "+", true
	case lexer.MINUS:
		return "-", true
	case lexer.STAR:
		return "*", true
	case lexer.SLASH:
		return "/", true
	case lexer.EQ:
		return "==", true
	case lexer.NEQ:
		return "!=", true
	case lexer.LTE:
		return "<=", true
	case lexer.GTE:
		return ">=", true
	case lexer.LANGLE:
		return "<", true
	case lexer.RANGLE:
		return ">", true
	case lexer.AND:
		return "and", true
	case lexer.OR:
		return "or", true
	case lexer.IS:
		return "is", true
	default:
		return "", false
	}
}

func (p *Parser) curAssignOp() (string, bool) {
	switch p.cur().Type {
	case lexer.ASSIGN:
		return "=", true
	case lexer.PLUSEQ:
		return "+=", true
	case lexer.MINUSEQ:
		return "-=", true
	case lexer.STAREQ:
		return "*=", true
	case lexer.SLASHEQ:
		return "/=", true
	default:
		return "", false
	}
}

// parseExpr parses a full expression via precedence climbing.
func (p *Parser) parseExpr() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryRHS(0, lhs)
}

func (p *Parser) parseBinaryRHS(minPrec int, lhs ast.Expr) (ast.Expr, error) {
	for {
		op, ok := p.curBinOp()
		if !ok {
			return lhs, nil
		}
		prec := precedence(op)
		if prec < minPrec {
			return lhs, nil
		}
		opTok := p.advance()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		for {
			nextOp, ok := p.curBinOp()
			if !ok {
				break
			}
			if precedence(nextOp) <= prec {
				break
			}
			rhs, err = p.parseBinaryRHS(prec+1, rhs)
			if err != nil {
				return nil, err
			}
		}
		lhs = &ast.BinaryExpression{Left: lhs, Op: op, Right: rhs, Pos: p.pos2(opTok)}
	}
}

// parseUnary handles the one prefix operator this grammar has: `ref`.
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur().Type == lexer.REF {
		tok := p.advance()
		val, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Ref{Value: val, Pos: p.pos2(tok)}, nil
	}
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(expr)
}

// parsePostfix chains `.field`, `(args)`, `[index]`, and the optional
// force-unwrap `!`. A `.field` is always parsed as Field here; the
// clarifier is responsible for rewriting `FunctionCall{Path: *Field}`
// into a MethodCall or an optional-constructor call.
func (p *Parser) parsePostfix(expr ast.Expr) (ast.Expr, error) {
	for {
		switch p.cur().Type {
		case lexer.DOT:
			p.advance()
			nameTok, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			expr = &ast.Field{Base: expr, Field: nameTok.Literal, Pos: p.pos2(nameTok)}
		case lexer.LPAREN:
			tok := p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			expr = &ast.FunctionCall{Path: expr, Args: args, Pos: p.pos2(tok)}
		case lexer.LBRACKET:
			tok := p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET); err != nil {
				return nil, err
			}
			expr = &ast.Subscript{Base: expr, Index: idx, Pos: p.pos2(tok)}
		case lexer.BANG:
			tok := p.advance()
			expr = &ast.OptionalSomeValue{Base: expr, Pos: p.pos2(tok)}
		default:
			return expr, nil
		}
	}
}

// parseArgs parses a comma-separated call-argument list, recognizing
// `name: expr` named arguments.
func (p *Parser) parseArgs() ([]ast.Expr, error) {
	var args []ast.Expr
	if p.cur().Type == lexer.RPAREN {
		return args, nil
	}
	for {
		if p.cur().Type == lexer.IDENT && p.peek().Type == lexer.COLON {
			nameTok := p.advance()
			p.advance() // colon
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, &ast.NamedArgument{Name: nameTok.Literal, Value: val, Pos: p.pos2(nameTok)})
		} else {
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, val)
		}
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		return &ast.Literal{Kind: ast.IntLit, Raw: tok.Literal, Pos: p.pos2(tok)}, nil
	case lexer.DECIMAL:
		p.advance()
		return &ast.Literal{Kind: ast.DecimalLit, Raw: tok.Literal, Pos: p.pos2(tok)}, nil
	case lexer.STRING:
		p.advance()
		return &ast.Literal{Kind: ast.StringLit, Raw: tok.Literal, Pos: p.pos2(tok)}, nil
	case lexer.CHAR:
		p.advance()
		return &ast.Literal{Kind: ast.CharLit, Raw: tok.Literal, Pos: p.pos2(tok)}, nil
	case lexer.SELF:
		p.advance()
		return &ast.SpecialName{Pos: p.pos2(tok)}, nil
	case lexer.IDENT:
		p.advance()
		return &ast.Name{Member: tok.Literal, Pos: p.pos2(tok)}, nil
	case lexer.LBRACKET:
		return p.parseVectorLiteral()
	case lexer.LBRACE:
		return p.parseDictLiteral()
	case lexer.LPAREN:
		if cast, ok := p.tryParseCast(); ok {
			return cast, nil
		}
		return p.parseParenthesized()
	default:
		return nil, p.errorf("expected an expression, found %s %q", tok.Type, tok.Literal)
	}
}

// tryParseCast speculatively parses `(T)(e)`, backtracking to mark on any
// mismatch so the caller can fall back to a plain parenthesized expression.
func (p *Parser) tryParseCast() (*ast.Cast, bool) {
	mark := p.mark()
	startTok := p.cur()
	if startTok.Type != lexer.LPAREN {
		return nil, false
	}
	p.advance()
	te, err := p.parseTypeExpr()
	if err != nil {
		p.reset(mark)
		return nil, false
	}
	if p.cur().Type != lexer.RPAREN {
		p.reset(mark)
		return nil, false
	}
	p.advance()
	if p.cur().Type != lexer.LPAREN {
		p.reset(mark)
		return nil, false
	}
	p.advance()
	val, err := p.parseExpr()
	if err != nil {
		p.reset(mark)
		return nil, false
	}
	if p.cur().Type != lexer.RPAREN {
		p.reset(mark)
		return nil, false
	}
	p.advance()
	return &ast.Cast{Type: te, Value: val, Pos: p.pos2(startTok)}, true
}

func (p *Parser) parseParenthesized() (ast.Expr, error) {
	tok := p.advance() // LPAREN
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return &ast.Parentheses{Inner: inner, Pos: p.pos2(tok)}, nil
}

func (p *Parser) parseVectorLiteral() (ast.Expr, error) {
	tok := p.advance() // LBRACKET
	lit := &ast.Literal{Kind: ast.VectorLit, Pos: p.pos2(tok)}
	for p.cur().Type != lexer.RBRACKET {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Elems = append(lit.Elems, e)
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseDictLiteral() (ast.Expr, error) {
	tok := p.advance() // LBRACE
	lit := &ast.Literal{Kind: ast.DictLit, Pos: p.pos2(tok)}
	for p.cur().Type != lexer.RBRACE {
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Pairs = append(lit.Pairs, ast.DictPair{Key: k, Val: v})
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return lit, nil
}
