// Package sexp provides navigation helpers and a shape-checking clause
// reader over kicadsexp trees.
package sexp

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/sexp/kicadsexp"
	"github.com/alecthomas/participle/v2/lexer"
)

// FindNode returns the first sub-clause of s whose keyword matches one of
// keywords, ignoring case.
// Example: FindNode(comp, "ref") finds (ref U1) in a (comp ...) clause
func FindNode(s *kicadsexp.List, keywords ...string) (*kicadsexp.List, bool) {
	if s == nil {
		return nil, false
	}
	for _, sub := range s.Lists() {
		if sub.Is(keywords...) {
			return sub, true
		}
	}
	return nil, false
}

// FindAllNodes returns every sub-clause of s whose keyword matches one of
// keywords, in source order.
func FindAllNodes(s *kicadsexp.List, keywords ...string) []*kicadsexp.List {
	var results []*kicadsexp.List
	if s == nil {
		return results
	}
	for _, sub := range s.Lists() {
		if sub.Is(keywords...) {
			results = append(results, sub)
		}
	}
	return results
}

// GetValue returns the single value of a clause such as (ref U1).
// A clause without a value yields "" and false.
func GetValue(s *kicadsexp.List) (string, bool) {
	if s == nil {
		return "", false
	}
	atoms := s.Atoms()
	if len(atoms) == 0 {
		return "", false
	}
	return atoms[0].Value, true
}

// ShapeError reports a clause that does not have the expected structure.
type ShapeError struct {
	Pos      lexer.Position
	Expected string
	Found    string
}

func (e *ShapeError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("%s: expected %s", e.Pos, e.Expected)
	}
	return fmt.Sprintf("%s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// Reader walks the sub-clauses of one clause, checking that each one is
// claimed exactly as the grammar allows. Sub-clauses behave as an unordered
// set: Optional, Required and Repeated may be called in any order, and Done
// reports any sub-clause that nobody asked for.
type Reader struct {
	list    *kicadsexp.List
	subs    []*kicadsexp.List
	claimed []bool
	err     error
}

// NewReader starts reading the sub-clauses of list.
func NewReader(list *kicadsexp.List) *Reader {
	subs := list.Lists()
	return &Reader{
		list:    list,
		subs:    subs,
		claimed: make([]bool, len(subs)),
	}
}

// Err returns the first shape error seen by the reader.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(err *ShapeError) {
	if r.err == nil {
		r.err = err
	}
}

// Optional claims at most one sub-clause spelled as any of keywords.
// The spellings are alternatives for the same field, so (name x) and
// (names x) together are as much an error as two (name x) clauses.
func (r *Reader) Optional(keywords ...string) *kicadsexp.List {
	var found *kicadsexp.List
	for i, sub := range r.subs {
		if r.claimed[i] || !sub.Is(keywords...) {
			continue
		}
		r.claimed[i] = true
		if found != nil {
			r.fail(&ShapeError{
				Pos:      sub.Pos,
				Expected: fmt.Sprintf("a single (%s ...) in (%s ...)", strings.Join(keywords, "|"), r.list.Keyword),
				Found:    "(" + sub.Keyword + " ...) again",
			})
			continue
		}
		found = sub
	}
	return found
}

// Required is Optional with absence reported as an error.
func (r *Reader) Required(keywords ...string) *kicadsexp.List {
	found := r.Optional(keywords...)
	if found == nil {
		r.fail(&ShapeError{
			Pos:      r.list.Pos,
			Expected: fmt.Sprintf("(%s ...) in (%s ...)", strings.Join(keywords, "|"), r.list.Keyword),
		})
	}
	return found
}

// Repeated claims every sub-clause spelled as any of keywords, in source order.
func (r *Reader) Repeated(keywords ...string) []*kicadsexp.List {
	var found []*kicadsexp.List
	for i, sub := range r.subs {
		if r.claimed[i] || !sub.Is(keywords...) {
			continue
		}
		r.claimed[i] = true
		found = append(found, sub)
	}
	return found
}

// AtLeastOne is Repeated with an empty result reported as an error.
func (r *Reader) AtLeastOne(keywords ...string) []*kicadsexp.List {
	found := r.Repeated(keywords...)
	if len(found) == 0 {
		r.fail(&ShapeError{
			Pos:      r.list.Pos,
			Expected: fmt.Sprintf("at least one (%s ...) in (%s ...)", strings.Join(keywords, "|"), r.list.Keyword),
		})
	}
	return found
}

// Value returns the clause's own value, or "" if it has none.
func (r *Reader) Value() string {
	v, _ := GetValue(r.list)
	return v
}

// Done checks that every sub-clause was claimed and returns the first error.
func (r *Reader) Done() error {
	for i, sub := range r.subs {
		if !r.claimed[i] {
			r.fail(&ShapeError{
				Pos:      sub.Pos,
				Expected: fmt.Sprintf("end of (%s ...)", r.list.Keyword),
				Found:    "unexpected (" + sub.Keyword + " ...)",
			})
			break
		}
	}
	return r.err
}

// ValueOf returns the value of an optional sub-clause, or "" if absent.
func ValueOf(s *kicadsexp.List) string {
	v, _ := GetValue(s)
	return v
}
