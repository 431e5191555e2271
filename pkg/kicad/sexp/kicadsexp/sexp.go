// Package kicadsexp tokenizes and parses the parenthesized clause syntax used
// by KiCad netlist exports.
//
// Every clause has the shape ( keyword item... ) where each item is either a
// nested clause or a value. A value is a single- or double-quoted string, or
// the bare run of text up to the next parenthesis. Netlist files are read
// whole; there is no streaming mode.
package kicadsexp

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Sexp is a node of the clause tree: an *Atom or a *List.
type Sexp interface {
	// IsLeaf returns true for atoms
	IsLeaf() bool

	// Position returns where the node starts in the source
	Position() lexer.Position

	// String renders the node back in clause syntax
	String() string
}

// Atom is a clause value. Quoted atoms have their surrounding quotes
// stripped; backslash escapes inside them are kept as written.
type Atom struct {
	Value  string
	Quoted bool
	Pos    lexer.Position
}

func (a *Atom) IsLeaf() bool             { return true }
func (a *Atom) Position() lexer.Position { return a.Pos }

func (a *Atom) String() string {
	if !a.Quoted {
		return a.Value
	}
	return `"` + a.Value + `"`
}

// List is a parenthesized clause.
type List struct {
	Keyword string
	Pos     lexer.Position
	Items   []Sexp // values and sub-clauses in source order, keyword excluded
}

func (l *List) IsLeaf() bool             { return false }
func (l *List) Position() lexer.Position { return l.Pos }

func (l *List) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(l.Keyword)
	for _, item := range l.Items {
		b.WriteString(" ")
		b.WriteString(item.String())
	}
	b.WriteString(")")
	return b.String()
}

// Lists returns the nested clauses of l in source order.
func (l *List) Lists() []*List {
	var out []*List
	for _, item := range l.Items {
		if sub, ok := item.(*List); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Atoms returns the values of l in source order.
func (l *List) Atoms() []*Atom {
	var out []*Atom
	for _, item := range l.Items {
		if a, ok := item.(*Atom); ok {
			out = append(out, a)
		}
	}
	return out
}

// Is reports whether the clause keyword matches one of the given spellings,
// ignoring case.
func (l *List) Is(keywords ...string) bool {
	for _, kw := range keywords {
		if strings.EqualFold(l.Keyword, kw) {
			return true
		}
	}
	return false
}
