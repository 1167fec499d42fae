// Package scanner implements the hand-rolled lexer that turns source text
// into a stream of lexeme-bearing tokens. Scanner is pull-based: the
// compiler calls NextToken once per token rather than scanning the whole
// input up front into a slice, mirroring the classic single-pass clox
// scanner this core is modeled on.
package scanner

import (
	"github.com/nilan-lang/nilan/token"
)

func isDigit(char byte) bool {
	return char >= '0' && char <= '9'
}

func isAlpha(char byte) bool {
	return char == '_' || (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')
}

// Scanner is a forward cursor over the source text. It never backtracks
// beyond one character of lookahead (two for "//" comments and numeric
// fractional parts).
type Scanner struct {
	source  string
	start   int
	current int
	line    int
}

// New returns a Scanner positioned at the start of source.
func New(source string) *Scanner {
	return &Scanner{source: source, start: 0, current: 0, line: 1}
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

// match consumes the current character and returns true if it equals
// expected; otherwise it leaves the cursor untouched.
func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) makeToken(typ token.TokenType) token.Token {
	return token.CreateToken(typ, s.source[s.start:s.current], s.line)
}

// skipWhitespace consumes spaces, tabs, carriage returns, newlines, and
// "//" line comments ahead of the next token.
func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.isAtEnd() {
					s.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) identifierType() token.TokenType {
	lexeme := s.source[s.start:s.current]
	if typ, ok := token.KeyWords[lexeme]; ok {
		return typ
	}
	return token.IDENTIFIER
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	return s.makeToken(s.identifierType())
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance() // consume the '.'
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.makeToken(token.NUMBER)
}

// string scans a double-quoted string literal. Multi-line strings are
// allowed; each embedded newline bumps the line counter. An unterminated
// string yields an ERROR token.
func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.isAtEnd() {
		return token.CreateErrorToken("Unterminated string.", s.line)
	}
	s.advance() // the closing quote
	return s.makeToken(token.STRING)
}

// NextToken scans and returns the next token in the source, skipping
// whitespace and comments first. It never backtracks beyond the lookahead
// needed for "//" comments, two-character operators, and the fractional
// part of a number. Lexical errors are surfaced as ERROR tokens, never as
// panics or Go errors: the scanner is infallible at the function level.
func (s *Scanner) NextToken() token.Token {
	s.skipWhitespace()
	s.start = s.current

	if s.isAtEnd() {
		return s.makeToken(token.EOF)
	}

	c := s.advance()

	if isAlpha(c) {
		return s.identifier()
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.makeToken(token.LPA)
	case ')':
		return s.makeToken(token.RPA)
	case '{':
		return s.makeToken(token.LCUR)
	case '}':
		return s.makeToken(token.RCUR)
	case ';':
		return s.makeToken(token.SEMICOLON)
	case ',':
		return s.makeToken(token.COMMA)
	case '.':
		return s.makeToken(token.DOT)
	case '-':
		return s.makeToken(token.SUB)
	case '+':
		return s.makeToken(token.ADD)
	case '/':
		return s.makeToken(token.DIV)
	case '*':
		return s.makeToken(token.MULT)
	case '!':
		if s.match('=') {
			return s.makeToken(token.NOT_EQUAL)
		}
		return s.makeToken(token.BANG)
	case '=':
		if s.match('=') {
			return s.makeToken(token.EQUAL_EQUAL)
		}
		return s.makeToken(token.ASSIGN)
	case '<':
		if s.match('=') {
			return s.makeToken(token.LESS_EQUAL)
		}
		return s.makeToken(token.LESS)
	case '>':
		if s.match('=') {
			return s.makeToken(token.LARGER_EQUAL)
		}
		return s.makeToken(token.LARGER)
	case '"':
		return s.string()
	}

	return token.CreateErrorToken("Unexpected character.", s.line)
}
