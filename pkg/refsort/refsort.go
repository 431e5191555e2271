// Package refsort orders reference designators naturally: R2 before R10.
package refsort

import (
	"sort"
	"strings"
)

// Ref is a reference designator split into its prefix and the maximal run
// of trailing decimal digits.
type Ref struct {
	Prefix    string
	Digits    string // trailing digits as written, "" when absent
	HasNumber bool
}

// Split splits ref into prefix and trailing number.
// Example: Split("U10") returns {Prefix: "U", Digits: "10", HasNumber: true}
func Split(ref string) Ref {
	i := len(ref)
	for i > 0 && ref[i-1] >= '0' && ref[i-1] <= '9' {
		i--
	}
	return Ref{
		Prefix:    ref[:i],
		Digits:    ref[i:],
		HasNumber: i < len(ref),
	}
}

// Compare orders by prefix, then by numeric value of the trailing digits.
// A missing number sorts before any number.
func (r Ref) Compare(other Ref) int {
	if c := strings.Compare(r.Prefix, other.Prefix); c != 0 {
		return c
	}
	return CompareNumbers(r, other)
}

// CompareNumbers orders two refs by their trailing numbers alone. Digit runs
// of any length compare by value; leading zeros are ignored.
func CompareNumbers(a, b Ref) int {
	switch {
	case !a.HasNumber && !b.HasNumber:
		return 0
	case !a.HasNumber:
		return -1
	case !b.HasNumber:
		return 1
	}

	x := strings.TrimLeft(a.Digits, "0")
	y := strings.TrimLeft(b.Digits, "0")
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	return strings.Compare(x, y)
}

// Less reports whether reference a sorts before reference b.
func Less(a, b string) bool {
	return Split(a).Compare(Split(b)) < 0
}

// Sort sorts refs in place in natural order. Equal keys keep their order.
func Sort(refs []string) {
	sort.SliceStable(refs, func(i, j int) bool {
		return Less(refs[i], refs[j])
	})
}
