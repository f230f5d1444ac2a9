package parser

import (
	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/lexer"
)

var builtinTypeNames = map[string]ast.BuiltinTypeName{
	"I8": ast.TyI8, "I16": ast.TyI16, "I32": ast.TyI32, "I64": ast.TyI64,
	"U8": ast.TyU8, "U16": ast.TyU16, "U32": ast.TyU32, "U64": ast.TyU64,
	"Int": ast.TyInt, "F32": ast.TyF32, "F64": ast.TyF64,
	"String": ast.TyString, "Char": ast.TyChar, "Bool": ast.TyBool,
	"Void": ast.TyVoid, "Self": ast.TySelf, "Object": ast.TyObject,
	"ConvertibleToString": ast.TyConvertibleToString,
	"ConvertibleToI8":     ast.TyConvertibleToI8,
	"ConvertibleToI16":    ast.TyConvertibleToI16,
	"ConvertibleToI32":    ast.TyConvertibleToI32,
	"ConvertibleToI64":    ast.TyConvertibleToI64,
	"ConvertibleToU8":     ast.TyConvertibleToU8,
	"ConvertibleToU16":    ast.TyConvertibleToU16,
	"ConvertibleToU32":    ast.TyConvertibleToU32,
	"ConvertibleToU64":    ast.TyConvertibleToU64,
	"Addable":             ast.TyAddable,
	"Subtractable":        ast.TySubtractable,
	"Multipliable":        ast.TyMultipliable,
	"Divisible":           ast.TyDivisible,
	"ArithmeticObject":    ast.TyArithmeticObject,
	"Eq":                  ast.TyEq,
	"Iterable":            ast.TyIterable,
	"Optional":            ast.TyOptional,
}

// parseTypeExpr parses a type, including the postfix `?` optional marker
// which may stack (`T??`).
func (p *Parser) parseTypeExpr() (ast.TypeExpr, error) {
	te, err := p.parseTypeAtom()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.QUESTION {
		tok := p.advance()
		te = &ast.OptionalType{Elem: te, Pos: p.pos2(tok)}
	}
	return te, nil
}

func (p *Parser) parseTypeAtom() (ast.TypeExpr, error) {
	tok := p.cur()
	if tok.Type == lexer.REF {
		p.advance()
		elem, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return &ast.RefType{Elem: elem, Pos: p.pos2(tok)}, nil
	}
	if tok.Type != lexer.IDENT {
		return nil, p.errorf("expected a type, found %s %q", tok.Type, tok.Literal)
	}
	p.advance()

	switch tok.Literal {
	case "Vector":
		if _, err := p.expect(lexer.LANGLE); err != nil {
			return nil, err
		}
		elem, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RANGLE); err != nil {
			return nil, err
		}
		return &ast.VectorType{Elem: elem, Pos: p.pos2(tok)}, nil
	case "Dict":
		if _, err := p.expect(lexer.LANGLE); err != nil {
			return nil, err
		}
		key, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COMMA); err != nil {
			return nil, err
		}
		val, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RANGLE); err != nil {
			return nil, err
		}
		return &ast.DictType{Key: key, Val: val, Pos: p.pos2(tok)}, nil
	}

	if bt, ok := builtinTypeNames[tok.Literal]; ok {
		return &ast.BuiltinType{Name: bt, Pos: p.pos2(tok)}, nil
	}

	base := ast.NameType{Member: tok.Literal, Pos: p.pos2(tok)}
	if p.cur().Type != lexer.LANGLE {
		return &base, nil
	}
	p.advance()
	var args []ast.TypeExpr
	for {
		a, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RANGLE); err != nil {
		return nil, err
	}
	return &ast.GenericTypeExpr{Base: base, Args: args, Pos: p.pos2(tok)}, nil
}

// parseTypeParams parses an optional `<T, U>` type-parameter list.
func (p *Parser) parseTypeParams() ([]string, error) {
	if p.cur().Type != lexer.LANGLE {
		return nil, nil
	}
	p.advance()
	var names []string
	for {
		tok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Literal)
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RANGLE); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseParams() ([]ast.Param, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Param
	for p.cur().Type != lexer.RPAREN {
		nameTok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ty, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		var def ast.Expr
		if p.cur().Type == lexer.ASSIGN {
			p.advance()
			def, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		params = append(params, ast.Param{Name: nameTok.Literal, Type: ty, Default: def, Pos: p.pos2(nameTok)})
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

// parseWhere parses `where X is I [and Y is J]*`, flattening the
// conjunction into individual atomic clauses (the "where-clause
// extraction").
func (p *Parser) parseWhere() ([]ast.Expr, error) {
	if p.cur().Type != lexer.WHERE {
		return nil, nil
	}
	p.advance()
	var clauses []ast.Expr
	for {
		left, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		tok, err := p.expect(lexer.IS)
		if err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, &ast.BinaryExpression{Left: left, Op: "is", Right: right, Pos: p.pos2(tok)})
		if p.cur().Type == lexer.AND || p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return clauses, nil
}

// parseFunctionSig parses the signature shared by `fun` declarations and
// methods: optional type params, parameter list, optional return type,
// optional where-clause. Stops just before the trailing `:`.
func (p *Parser) parseFunctionSig() (*ast.FunctionTypeExpr, error) {
	pos := p.pos2(p.cur())
	typeParams, err := p.parseTypeParams()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	var ret ast.TypeExpr = &ast.BuiltinType{Name: ast.TyVoid, Pos: pos}
	if p.cur().Type == lexer.ARROW {
		p.advance()
		ret, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionTypeExpr{TypeParams: typeParams, Params: params, Return: ret, Where: where, Pos: pos}, nil
}
