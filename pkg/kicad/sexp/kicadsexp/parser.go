package kicadsexp

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

const trailingSpace = " \t\r\n\f\v"

// SyntaxError reports malformed clause syntax at a source position.
type SyntaxError struct {
	Pos lexer.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Parser builds clause trees from a lexer.
type Parser struct {
	lexer *Lexer
}

// NewParser creates a parser over text. filename is only used in positions.
func NewParser(filename, text string) (*Parser, error) {
	lex, err := NewLexer(filename, text)
	if err != nil {
		return nil, err
	}
	return &Parser{lexer: lex}, nil
}

// ParseSingle parses exactly one top-level clause. Anything other than
// whitespace after its closing parenthesis is an error.
func (p *Parser) ParseSingle() (*List, error) {
	tok, err := p.lexer.NextSignificant()
	if err != nil {
		return nil, err
	}
	if tok.Kind == KindEOF {
		return nil, &SyntaxError{Pos: tok.Pos, Msg: "expected '(', found end of input"}
	}
	if tok.Kind != KindLeftParen {
		return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("expected '(', found %q", tok.Value)}
	}

	list, err := p.parseList(tok)
	if err != nil {
		return nil, err
	}

	tok, err = p.lexer.NextSignificant()
	if err != nil {
		return nil, err
	}
	if tok.Kind != KindEOF {
		return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("expected end of input, found %q", tok.Value)}
	}

	return list, nil
}

// parseList parses a clause whose '(' has already been consumed.
func (p *Parser) parseList(open Token) (*List, error) {
	kw, err := p.lexer.NextSignificant()
	if err != nil {
		return nil, err
	}
	if kw.Kind != KindWord {
		return nil, &SyntaxError{Pos: kw.Pos, Msg: fmt.Sprintf("expected clause keyword, found %s", describe(kw))}
	}

	list := &List{Keyword: kw.Value, Pos: open.Pos}
	var run valueRun

	for {
		tok, err := p.lexer.Next()
		if err != nil {
			return nil, err
		}

		switch tok.Kind {
		case KindWhitespace, KindString, KindWord:
			run.add(tok)

		case KindLeftParen:
			if atom := run.flush(); atom != nil {
				list.Items = append(list.Items, atom)
			}
			sub, err := p.parseList(tok)
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, sub)

		case KindRightParen:
			if atom := run.flush(); atom != nil {
				list.Items = append(list.Items, atom)
			}
			return list, nil

		case KindEOF:
			return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected end of input in (%s ...) opened at %s", list.Keyword, open.Pos)}
		}
	}
}

// valueRun accumulates the tokens of one value between parentheses.
type valueRun struct {
	tokens []Token
}

func (r *valueRun) add(tok Token) {
	// Leading whitespace never starts a value
	if len(r.tokens) == 0 && tok.Kind == KindWhitespace {
		return
	}
	r.tokens = append(r.tokens, tok)
}

// flush turns the accumulated tokens into an atom. A lone quoted string
// yields its contents; any longer run is kept as written, minus trailing
// whitespace.
func (r *valueRun) flush() *Atom {
	if len(r.tokens) == 0 {
		return nil
	}
	defer func() { r.tokens = r.tokens[:0] }()

	significant := r.tokens
	for len(significant) > 0 && significant[len(significant)-1].Kind == KindWhitespace {
		significant = significant[:len(significant)-1]
	}

	first := significant[0]
	if len(significant) == 1 && first.Kind == KindString {
		return &Atom{Value: first.Unquoted(), Quoted: true, Pos: first.Pos}
	}

	var b strings.Builder
	for _, tok := range significant {
		b.WriteString(tok.Value)
	}
	return &Atom{Value: strings.TrimRight(b.String(), trailingSpace), Pos: first.Pos}
}

func describe(tok Token) string {
	switch tok.Kind {
	case KindEOF:
		return "end of input"
	case KindLeftParen:
		return "'('"
	case KindRightParen:
		return "')'"
	default:
		return fmt.Sprintf("%q", tok.Value)
	}
}

// ParseString parses exactly one top-level clause from text.
func ParseString(filename, text string) (*List, error) {
	parser, err := NewParser(filename, text)
	if err != nil {
		return nil, err
	}
	return parser.ParseSingle()
}
