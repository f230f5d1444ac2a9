// Package parser turns a pre-lexed token stream into the raw ast.File,
// handling indentation-based blocks and operator re-association.
package parser

import (
	"fmt"
	"strings"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/lexer"
)

// Error is a structured syntax error: headline plus the offending source
// line, for the multi-line diagnostics internal/diag renders.
type Error struct {
	Message string
	Pos     ast.Pos
	Line    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("SyntaxError at %s: %s\n  %s", e.Pos, e.Message, e.Line)
}

// Parser is a recursive-descent parser over a fully buffered token stream;
// buffering the whole stream up front (rather than a 1-token lookahead)
// lets the grammar backtrack cheaply when disambiguating a cast
// `(T)(e)` from a parenthesized expression.
type Parser struct {
	tokens []lexer.Token
	pos    int
	lines  []string
	file   string
}

// New tokenizes src in full and returns a Parser positioned at the first
// token.
func New(src, filename string) *Parser {
	l := lexer.New(src, filename)
	var toks []lexer.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}
	return &Parser{tokens: toks, lines: strings.Split(src, "\n"), file: filename}
}

func (p *Parser) cur() lexer.Token  { return p.tokens[p.pos] }
func (p *Parser) peek() lexer.Token { return p.at(1) }
func (p *Parser) at(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) mark() int      { return p.pos }
func (p *Parser) reset(mark int) { p.pos = mark }

func (p *Parser) pos2(tok lexer.Token) ast.Pos {
	return ast.Pos{Line: tok.Line, Column: tok.Column, File: p.file}
}

func (p *Parser) sourceLine(line int) string {
	if line-1 < 0 || line-1 >= len(p.lines) {
		return ""
	}
	return p.lines[line-1]
}

func (p *Parser) errorf(format string, args ...interface{}) *Error {
	tok := p.cur()
	return &Error{Message: fmt.Sprintf(format, args...), Pos: p.pos2(tok), Line: p.sourceLine(tok.Line)}
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.cur().Type != tt {
		return lexer.Token{}, p.errorf("expected %s, found %s %q", tt, p.cur().Type, p.cur().Literal)
	}
	return p.advance(), nil
}

// skipNewlines consumes any run of blank NEWLINE tokens (used between
// top-level declarations and at block boundaries).
func (p *Parser) skipNewlines() {
	for p.cur().Type == lexer.NEWLINE {
		p.advance()
	}
}

// ParseFile parses an entire compilation unit.
func ParseFile(src, filename string) (*ast.File, error) {
	p := New(src, filename)
	return p.parseFile()
}

func (p *Parser) parseFile() (*ast.File, error) {
	file := &ast.File{Path: p.file, Pos: ast.Pos{Line: 1, Column: 1, File: p.file}}
	p.skipNewlines()
	for p.cur().Type != lexer.EOF {
		decl, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		file.Decls = append(file.Decls, decl)
		p.skipNewlines()
	}
	return file, nil
}

func (p *Parser) parseTopLevel() (ast.Stmt, error) {
	switch p.cur().Type {
	case lexer.FUN:
		return p.parseFunctionDeclaration()
	case lexer.STRUCT:
		return p.parseStructDeclaration()
	case lexer.ALGEBRAIC:
		return p.parseAlgebraicDeclaration()
	case lexer.INTERFACE:
		return p.parseInterfaceDeclaration()
	case lexer.EXTEND:
		return p.parseExtensionDeclaration()
	case lexer.LET, lexer.VAR:
		return p.parseSimpleStatement()
	default:
		return p.parseStatement()
	}
}

// parseBlock parses `: NEWLINE INDENT stmt* DEDENT`, the indentation-based
// body used after every header that introduces one.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INDENT); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.cur().Type != lexer.DEDENT && p.cur().Type != lexer.EOF {
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
			continue
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if p.cur().Type == lexer.NEWLINE {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.DEDENT); err != nil {
		return nil, err
	}
	return stmts, nil
}
