// Package scanner turns script source text into a token stream.
package scanner

import (
	"fmt"
	"io"
	"strings"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/token"
)

// Config holds scanner options.
type Config struct {
	// RetainTrivia keeps whitespace and comment tokens in the output
	// stream instead of discarding them.
	RetainTrivia bool
	// LogTokens writes each produced token to Log.
	LogTokens bool
	Log       io.Writer
}

// Scanner lexes a single source string left to right.
type Scanner struct {
	src string
	pos int
	cfg Config
}

// New creates a scanner over src.
func New(src string, cfg Config) *Scanner {
	return &Scanner{src: src, cfg: cfg}
}

// Tokenize consumes the whole source and returns the token stream,
// terminated by an explicit EOF token so the parser never walks off the end.
func (s *Scanner) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.Whitespace || tok.Kind == token.Comment {
			if s.cfg.RetainTrivia {
				toks = s.emit(toks, tok)
			}
			continue
		}
		toks = s.emit(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

func (s *Scanner) emit(toks []token.Token, tok token.Token) []token.Token {
	if s.cfg.LogTokens && s.cfg.Log != nil {
		fmt.Fprintf(s.cfg.Log, "%s [%d..%d] %s\n", tok.Kind, tok.Start, tok.End, tok)
	}
	return append(toks, tok)
}

func (s *Scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) peek2() byte {
	if s.pos+1 >= len(s.src) {
		return 0
	}
	return s.src[s.pos+1]
}

func (s *Scanner) next() (token.Token, error) {
	if s.pos >= len(s.src) {
		return token.Token{Kind: token.EOF, Lexeme: "", Start: s.pos, End: s.pos}, nil
	}

	start := s.pos
	c := s.src[s.pos]

	switch {
	case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
			s.pos++
		}
		return s.tok(token.Whitespace, start), nil

	case c == '/' && s.peek2() == '/':
		for s.pos < len(s.src) && s.src[s.pos] != '\n' {
			s.pos++
		}
		return s.tok(token.Comment, start), nil

	case isDigit(c):
		return s.scanNumber(start)

	case c == '"':
		return s.scanString(start)

	case isIdentStart(c):
		for s.pos < len(s.src) && isIdentCont(s.src[s.pos]) {
			s.pos++
		}
		t := s.tok(token.Identifier, start)
		if kw, ok := token.Lookup(t.Lexeme); ok {
			t.Kind = kw
		}
		return t, nil
	}

	if k, ok := singleCharKinds[c]; ok {
		s.pos++
		return s.tok(k, start), nil
	}

	switch c {
	case '=':
		s.pos++
		if s.peek() == '=' {
			s.pos++
			return s.tok(token.Eq, start), nil
		}
		return s.tok(token.Assign, start), nil
	case '<':
		s.pos++
		if s.peek() == '=' {
			s.pos++
			return s.tok(token.LtEq, start), nil
		}
		return s.tok(token.Lt, start), nil
	case '>':
		s.pos++
		if s.peek() == '=' {
			s.pos++
			return s.tok(token.GtEq, start), nil
		}
		return s.tok(token.Gt, start), nil
	case '!':
		s.pos++
		if s.peek() == '=' {
			s.pos++
			return s.tok(token.NotEq, start), nil
		}
		return s.tok(token.Not, start), nil
	}

	return token.Token{}, core.Errf(core.ErrLex, "Tokenize", s.pos, s.pos,
		"unrecognized character %q", string(c))
}

func (s *Scanner) scanNumber(start int) (token.Token, error) {
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.pos++
	}
	if s.peek() == '.' {
		s.pos++
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
	}
	if c := s.peek(); c == 'e' || c == 'E' {
		mark := s.pos
		s.pos++
		if c := s.peek(); c == '+' || c == '-' {
			s.pos++
		}
		if !isDigit(s.peek()) {
			return token.Token{}, core.Errf(core.ErrLex, "Tokenize", mark, s.pos,
				"malformed numeric literal: exponent requires digits")
		}
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
	}
	return s.tok(token.Number, start), nil
}

func (s *Scanner) scanString(start int) (token.Token, error) {
	s.pos++ // opening quote
	var sb strings.Builder
	for {
		if s.pos >= len(s.src) {
			return token.Token{}, core.Errf(core.ErrLex, "Tokenize", start, s.pos-1,
				"unterminated string literal")
		}
		c := s.src[s.pos]
		switch c {
		case '"':
			s.pos++
			return token.Token{Kind: token.String, Lexeme: sb.String(), Start: start, End: s.pos - 1}, nil
		case '\n':
			return token.Token{}, core.Errf(core.ErrLex, "Tokenize", s.pos, s.pos,
				"literal newline inside string literal")
		case '\\':
			s.pos++
			if s.pos >= len(s.src) {
				return token.Token{}, core.Errf(core.ErrLex, "Tokenize", start, s.pos-1,
					"unterminated string literal")
			}
			switch s.src[s.pos] {
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'n':
				sb.WriteByte('\n')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				return token.Token{}, core.Errf(core.ErrLex, "Tokenize", s.pos-1, s.pos,
					"illegal escape \\%s in string literal", string(s.src[s.pos]))
			}
			s.pos++
		default:
			sb.WriteByte(c)
			s.pos++
		}
	}
}

func (s *Scanner) tok(k token.Kind, start int) token.Token {
	return token.Token{Kind: k, Lexeme: s.src[start:s.pos], Start: start, End: s.pos - 1}
}

// AppendOptionalSemicolon forgives a missing terminator on interactive
// input: if the last significant token before EOF is neither '}' nor ';',
// a synthetic ';' is inserted immediately before EOF.
func AppendOptionalSemicolon(toks []token.Token) []token.Token {
	for i := len(toks) - 1; i >= 0; i-- {
		switch toks[i].Kind {
		case token.EOF, token.Whitespace, token.Comment:
			continue
		case token.RBrace, token.Semicolon:
			return toks
		default:
			pos := toks[i].End + 1
			semi := token.Token{Kind: token.Semicolon, Lexeme: ";", Start: pos, End: pos}
			out := make([]token.Token, 0, len(toks)+1)
			out = append(out, toks[:i+1]...)
			out = append(out, semi)
			out = append(out, toks[i+1:]...)
			return out
		}
	}
	return toks
}

var singleCharKinds = map[byte]token.Kind{
	';': token.Semicolon, ':': token.Colon, ',': token.Comma,
	'{': token.LBrace, '}': token.RBrace,
	'(': token.LParen, ')': token.RParen,
	'[': token.LBracket, ']': token.RBracket,
	'.': token.Dot,
	'+': token.Plus, '-': token.Minus, '*': token.Mul, '/': token.Div,
	'%': token.Mod, '^': token.Exp,
	'&': token.And, '|': token.Or,
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }
