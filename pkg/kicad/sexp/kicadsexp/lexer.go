package kicadsexp

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// Definition holds the token rules for netlist clause syntax.
// Rules are tried in order, so a quote that is never closed falls through to
// Word and becomes part of a bare value.
var Definition = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},

	// Quoted strings; backslash escapes are matched but not decoded
	{Name: "DQString", Pattern: `"(?:[^"\\]|\\(?s:.))*"`},
	{Name: "SQString", Pattern: `'(?:[^'\\]|\\(?s:.))*'`},

	// Anything else up to whitespace or a parenthesis
	{Name: "Word", Pattern: `[^\s()]+`},
})

// TokenKind classifies a token produced by Definition.
type TokenKind int

const (
	KindEOF TokenKind = iota
	KindWhitespace
	KindLeftParen
	KindRightParen
	KindString
	KindWord
)

var kinds = func() map[lexer.TokenType]TokenKind {
	symbols := Definition.Symbols()
	return map[lexer.TokenType]TokenKind{
		lexer.EOF:             KindEOF,
		symbols["Whitespace"]: KindWhitespace,
		symbols["LParen"]:     KindLeftParen,
		symbols["RParen"]:     KindRightParen,
		symbols["DQString"]:   KindString,
		symbols["SQString"]:   KindString,
		symbols["Word"]:       KindWord,
	}
}()

// Token is a lexical token with its kind resolved.
type Token struct {
	Kind  TokenKind
	Value string // raw source text, quotes included
	Pos   lexer.Position
}

// Unquoted returns the contents of a string token without its quotes.
func (t Token) Unquoted() string {
	if t.Kind != KindString || len(t.Value) < 2 {
		return t.Value
	}
	return t.Value[1 : len(t.Value)-1]
}

// Lexer tokenizes clause syntax from a string.
type Lexer struct {
	lex lexer.Lexer
}

// NewLexer creates a lexer over text. filename is only used in positions.
func NewLexer(filename, text string) (*Lexer, error) {
	lex, err := Definition.LexString(filename, text)
	if err != nil {
		return nil, err
	}
	return &Lexer{lex: lex}, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, error) {
	tok, err := l.lex.Next()
	if err != nil {
		return Token{}, err
	}

	kind, ok := kinds[tok.Type]
	if !ok {
		return Token{}, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token %q", tok.Value)}
	}

	return Token{Kind: kind, Value: tok.Value, Pos: tok.Pos}, nil
}

// NextSignificant skips whitespace and returns the next other token.
func (l *Lexer) NextSignificant() (Token, error) {
	for {
		tok, err := l.Next()
		if err != nil {
			return Token{}, err
		}
		if tok.Kind != KindWhitespace {
			return tok, nil
		}
	}
}
