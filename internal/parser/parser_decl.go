package parser

import (
	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/lexer"
)

func (p *Parser) parseFunctionDeclaration() (ast.Stmt, error) {
	tok, err := p.expect(lexer.FUN)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	sig, err := p.parseFunctionSig()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDeclaration{Name: nameTok.Literal, Sig: sig, Body: body, Pos: p.pos2(tok)}, nil
}

func (p *Parser) parseMethodDeclaration() (*ast.MethodDeclaration, error) {
	tok, err := p.expect(lexer.FUN)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	sig, err := p.parseFunctionSig()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.MethodDeclaration{Name: nameTok.Literal, Sig: sig, Body: body, Visibility: ast.VisibilityOf(nameTok.Literal), Pos: p.pos2(tok)}, nil
}

// parseInterfaceMethodSignature parses a bodyless `fun` header, the form
// interface members take.
func (p *Parser) parseInterfaceMethodSignature() (*ast.MethodDeclaration, error) {
	tok, err := p.expect(lexer.FUN)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	sig, err := p.parseFunctionSig()
	if err != nil {
		return nil, err
	}
	return &ast.MethodDeclaration{Name: nameTok.Literal, Sig: sig, Visibility: ast.VisibilityOf(nameTok.Literal), Pos: p.pos2(tok)}, nil
}

func (p *Parser) parseFieldDeclaration() (*ast.FieldDeclaration, error) {
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
	return &ast.FieldDeclaration{Name: nameTok.Literal, Type: ty, Default: def, Visibility: ast.VisibilityOf(nameTok.Literal), Pos: p.pos2(nameTok)}, nil
}

func (p *Parser) parseInitDeclaration() (*ast.InitDeclaration, error) {
	tok, err := p.expect(lexer.INIT)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.InitDeclaration{Params: params, Body: body, Pos: p.pos2(tok)}, nil
}

// parseStructDeclaration parses `struct Name<T> [implements I, J] [where
// ...]:` followed by a body of fields, inits, and methods in any order.
func (p *Parser) parseStructDeclaration() (ast.Stmt, error) {
	tok, err := p.expect(lexer.STRUCT)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	typeParams, err := p.parseTypeParams()
	if err != nil {
		return nil, err
	}
	implements, err := p.parseImplementsClause()
	if err != nil {
		return nil, err
	}
	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	decl := &ast.StructDeclaration{Name: nameTok.Literal, TypeParams: typeParams, Where: where, Implements: implements, Pos: p.pos2(tok)}
	if err := p.parseStructLikeBody(nameTok.Literal, &decl.Fields, &decl.Inits, &decl.Methods); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseImplementsClause() ([]ast.NameType, error) {
	if p.cur().Type != lexer.IMPLEMENTS {
		return nil, nil
	}
	p.advance()
	var out []ast.NameType
	for {
		t, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.NameType{Member: t.Literal, Pos: p.pos2(t)})
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// parseStructLikeBody parses the `: NEWLINE INDENT ... DEDENT` body shared
// by struct declarations and algebraic constructors: fields, inits, and
// methods in any order.
func (p *Parser) parseStructLikeBody(ownerName string, fields *[]*ast.FieldDeclaration, inits *[]*ast.InitDeclaration, methods *[]*ast.MethodDeclaration) error {
	if _, err := p.expect(lexer.COLON); err != nil {
		return err
	}
	if _, err := p.expect(lexer.NEWLINE); err != nil {
		return err
	}
	if _, err := p.expect(lexer.INDENT); err != nil {
		return err
	}
	for p.cur().Type != lexer.DEDENT && p.cur().Type != lexer.EOF {
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
			continue
		}
		switch p.cur().Type {
		case lexer.INIT:
			i, err := p.parseInitDeclaration()
			if err != nil {
				return err
			}
			*inits = append(*inits, i)
		case lexer.FUN:
			m, err := p.parseMethodDeclaration()
			if err != nil {
				return err
			}
			*methods = append(*methods, m)
		case lexer.IDENT:
			f, err := p.parseFieldDeclaration()
			if err != nil {
				return err
			}
			*fields = append(*fields, f)
		default:
			return p.errorf("expected a field, init, or method inside %q, found %s", ownerName, p.cur().Type)
		}
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
		}
	}
	_, err := p.expect(lexer.DEDENT)
	return err
}

func (p *Parser) parseAlgebraicConstructor() (*ast.StructDeclaration, error) {
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.StructDeclaration{Name: nameTok.Literal, Pos: p.pos2(nameTok)}
	if err := p.parseStructLikeBody(nameTok.Literal, &decl.Fields, &decl.Inits, &decl.Methods); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseAlgebraicDeclaration parses `algebraic Name<T>:` followed by a body
// of nested constructors (each its own struct-like block) and methods
// shared across every constructor.
func (p *Parser) parseAlgebraicDeclaration() (ast.Stmt, error) {
	tok, err := p.expect(lexer.ALGEBRAIC)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	typeParams, err := p.parseTypeParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INDENT); err != nil {
		return nil, err
	}
	decl := &ast.AlgebraicDeclaration{Name: nameTok.Literal, TypeParams: typeParams, Pos: p.pos2(tok)}
	for p.cur().Type != lexer.DEDENT && p.cur().Type != lexer.EOF {
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
			continue
		}
		switch p.cur().Type {
		case lexer.FUN:
			m, err := p.parseMethodDeclaration()
			if err != nil {
				return nil, err
			}
			decl.Methods = append(decl.Methods, m)
		case lexer.IDENT:
			c, err := p.parseAlgebraicConstructor()
			if err != nil {
				return nil, err
			}
			decl.Constructors = append(decl.Constructors, c)
		default:
			return nil, p.errorf("expected a constructor or method inside algebraic %q, found %s", nameTok.Literal, p.cur().Type)
		}
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.DEDENT); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseInterfaceDeclaration parses `interface Name [implements Parent,
// ...]:` followed by field and bodyless-method signatures.
func (p *Parser) parseInterfaceDeclaration() (ast.Stmt, error) {
	tok, err := p.expect(lexer.INTERFACE)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	var parents []string
	if p.cur().Type == lexer.IMPLEMENTS {
		p.advance()
		for {
			pt, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			parents = append(parents, pt.Literal)
			if p.cur().Type == lexer.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INDENT); err != nil {
		return nil, err
	}
	decl := &ast.InterfaceDeclaration{Name: nameTok.Literal, Parents: parents, Pos: p.pos2(tok)}
	for p.cur().Type != lexer.DEDENT && p.cur().Type != lexer.EOF {
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
			continue
		}
		switch p.cur().Type {
		case lexer.FUN:
			m, err := p.parseInterfaceMethodSignature()
			if err != nil {
				return nil, err
			}
			decl.Methods = append(decl.Methods, m)
		case lexer.IDENT:
			f, err := p.parseFieldDeclaration()
			if err != nil {
				return nil, err
			}
			decl.Fields = append(decl.Fields, f)
		default:
			return nil, p.errorf("expected a field or method inside interface %q, found %s", nameTok.Literal, p.cur().Type)
		}
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.DEDENT); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseExtensionDeclaration parses `extend Name:` followed by methods only.
func (p *Parser) parseExtensionDeclaration() (ast.Stmt, error) {
	tok, err := p.expect(lexer.EXTEND)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INDENT); err != nil {
		return nil, err
	}
	decl := &ast.ExtensionDeclaration{Target: nameTok.Literal, Pos: p.pos2(tok)}
	for p.cur().Type != lexer.DEDENT && p.cur().Type != lexer.EOF {
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
			continue
		}
		m, err := p.parseMethodDeclaration()
		if err != nil {
			return nil, err
		}
		decl.Methods = append(decl.Methods, m)
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.DEDENT); err != nil {
		return nil, err
	}
	return decl, nil
}
