package scanner

import (
	"testing"

	"github.com/nilan-lang/nilan/token"
)

func collectTokens(source string) []token.Token {
	s := New(source)
	var tokens []token.Token
	for {
		tok := s.NextToken()
		tokens = append(tokens, tok)
		if tok.TokenType == token.EOF {
			break
		}
	}
	return tokens
}

func TestNextTokenPunctuationAndOperators(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []token.TokenType
	}{
		{
			name:   "single character punctuation",
			source: "(){},.;",
			want:   []token.TokenType{token.LPA, token.RPA, token.LCUR, token.RCUR, token.COMMA, token.DOT, token.SEMICOLON, token.EOF},
		},
		{
			name:   "one and two character operators",
			source: "! != = == < <= > >=",
			want:   []token.TokenType{token.BANG, token.NOT_EQUAL, token.ASSIGN, token.EQUAL_EQUAL, token.LESS, token.LESS_EQUAL, token.LARGER, token.LARGER_EQUAL, token.EOF},
		},
		{
			name:   "arithmetic operators",
			source: "+ - * /",
			want:   []token.TokenType{token.ADD, token.SUB, token.MULT, token.DIV, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collectTokens(tt.source)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d: %v", len(got), len(tt.want), got)
			}
			for i, typ := range tt.want {
				if got[i].TokenType != typ {
					t.Errorf("token %d: got %v, want %v", i, got[i].TokenType, typ)
				}
			}
		})
	}
}

func TestNextTokenSkipsWhitespaceAndComments(t *testing.T) {
	source := "  \t\n// a comment\nvar"
	got := collectTokens(source)
	if len(got) != 2 {
		t.Fatalf("got %d tokens, want 2: %v", len(got), got)
	}
	if got[0].TokenType != token.VAR {
		t.Errorf("got %v, want VAR", got[0].TokenType)
	}
	if got[0].Line != 3 {
		t.Errorf("got line %d, want 3", got[0].Line)
	}
}

func TestNextTokenNumbers(t *testing.T) {
	tests := []struct {
		source string
		lexeme string
	}{
		{"42", "42"},
		{"3.14", "3.14"},
		{"0", "0"},
	}
	for _, tt := range tests {
		got := collectTokens(tt.source)
		if got[0].TokenType != token.NUMBER {
			t.Errorf("source %q: got %v, want NUMBER", tt.source, got[0].TokenType)
		}
		if got[0].Lexeme != tt.lexeme {
			t.Errorf("source %q: got lexeme %q, want %q", tt.source, got[0].Lexeme, tt.lexeme)
		}
	}
}

func TestNextTokenNumberDotWithoutFractionIsTwoTokens(t *testing.T) {
	// "1." is a NUMBER ("1") followed by a DOT, since a trailing dot with no
	// following digit is not part of the numeric literal.
	got := collectTokens("1.")
	if got[0].TokenType != token.NUMBER || got[0].Lexeme != "1" {
		t.Errorf("got %v, want NUMBER(1)", got[0])
	}
	if got[1].TokenType != token.DOT {
		t.Errorf("got %v, want DOT", got[1])
	}
}

func TestNextTokenStrings(t *testing.T) {
	got := collectTokens(`"hello world"`)
	if got[0].TokenType != token.STRING {
		t.Fatalf("got %v, want STRING", got[0].TokenType)
	}
	if got[0].Lexeme != `"hello world"` {
		t.Errorf("got lexeme %q", got[0].Lexeme)
	}
}

func TestNextTokenMultilineString(t *testing.T) {
	got := collectTokens("\"line one\nline two\"\nvar")
	if got[0].TokenType != token.STRING {
		t.Fatalf("got %v, want STRING", got[0].TokenType)
	}
	if got[1].TokenType != token.VAR {
		t.Fatalf("got %v, want VAR", got[1].TokenType)
	}
	if got[1].Line != 3 {
		t.Errorf("got line %d, want 3", got[1].Line)
	}
}

func TestNextTokenUnterminatedString(t *testing.T) {
	got := collectTokens(`"unterminated`)
	if got[0].TokenType != token.ERROR {
		t.Fatalf("got %v, want ERROR", got[0].TokenType)
	}
	if got[0].Lexeme != "Unterminated string." {
		t.Errorf("got lexeme %q", got[0].Lexeme)
	}
}

func TestNextTokenIdentifiersAndKeywords(t *testing.T) {
	got := collectTokens("myVar and false")
	want := []token.TokenType{token.IDENTIFIER, token.AND, token.FALSE, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	for i, typ := range want {
		if got[i].TokenType != typ {
			t.Errorf("token %d: got %v, want %v", i, got[i].TokenType, typ)
		}
	}
}

func TestNextTokenUnexpectedCharacter(t *testing.T) {
	got := collectTokens("@")
	if got[0].TokenType != token.ERROR {
		t.Fatalf("got %v, want ERROR", got[0].TokenType)
	}
	if got[0].Lexeme != "Unexpected character." {
		t.Errorf("got lexeme %q", got[0].Lexeme)
	}
}

func TestNextTokenEmptySourceYieldsEOF(t *testing.T) {
	got := collectTokens("")
	if len(got) != 1 || got[0].TokenType != token.EOF {
		t.Fatalf("got %v, want single EOF token", got)
	}
}
