package lexer

import "testing"

func TestNextTokenBasic(t *testing.T) {
	input := "let x: I32 = 5 + y\nfun f(a: I8) -> Bool:\n    return a > 0\n"

	tests := []struct {
		typ TokenType
		lit string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{COLON, ":"},
		{IDENT, "I32"},
		{ASSIGN, "="},
		{INT, "5"},
		{PLUS, "+"},
		{IDENT, "y"},
		{NEWLINE, "\\n"},
		{FUN, "fun"},
		{IDENT, "f"},
		{LPAREN, "("},
		{IDENT, "a"},
		{COLON, ":"},
		{IDENT, "I8"},
		{RPAREN, ")"},
		{ARROW, "->"},
		{IDENT, "Bool"},
		{COLON, ":"},
		{NEWLINE, "\\n"},
		{INDENT, ""},
		{RETURN, "return"},
		{IDENT, "a"},
		{RANGLE, ">"},
		{INT, "0"},
		{NEWLINE, "\\n"},
		{DEDENT, ""},
		{EOF, ""},
	}

	l := New(input, "test.angel")
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("token %d: expected type %s, got %s (%q)", i, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("token %d: expected literal %q, got %q", i, tt.lit, tok.Literal)
		}
	}
}

func TestNextTokenNestedIndentation(t *testing.T) {
	input := "if x:\n    if y:\n        z\n    w\n"
	want := []TokenType{
		IF, IDENT, COLON, NEWLINE,
		INDENT, IF, IDENT, COLON, NEWLINE,
		INDENT, IDENT, NEWLINE,
		DEDENT, IDENT, NEWLINE,
		DEDENT, EOF,
	}
	l := New(input, "test.angel")
	for i, want := range want {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %s, got %s", i, want, tok.Type)
		}
	}
}

func TestNextTokenStringAndChar(t *testing.T) {
	l := New(`"hi\n" 'a'`, "test.angel")
	tok := l.NextToken()
	if tok.Type != STRING || tok.Literal != "hi\n" {
		t.Fatalf("expected STRING %q, got %s %q", "hi\n", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != CHAR || tok.Literal != "a" {
		t.Fatalf("expected CHAR 'a', got %s %q", tok.Type, tok.Literal)
	}
}
