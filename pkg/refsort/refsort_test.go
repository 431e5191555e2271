package refsort

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		ref  string
		want Ref
	}{
		{"U10", Ref{Prefix: "U", Digits: "10", HasNumber: true}},
		{"R1", Ref{Prefix: "R", Digits: "1", HasNumber: true}},
		{"TP", Ref{Prefix: "TP"}},
		{"42", Ref{Digits: "42", HasNumber: true}},
		{"", Ref{}},
		{"A1B2", Ref{Prefix: "A1B", Digits: "2", HasNumber: true}},
		{"D007", Ref{Prefix: "D", Digits: "007", HasNumber: true}},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := Split(tt.ref); got != tt.want {
				t.Errorf("Split(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestSortNatural(t *testing.T) {
	refs := []string{"U10", "U2", "U1"}
	Sort(refs)

	want := []string{"U1", "U2", "U10"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("Sort = %v, want %v", refs, want)
	}
}

func TestSortMixedPrefixes(t *testing.T) {
	refs := []string{"U3", "R10", "C1", "R2", "J", "R", "C10"}
	Sort(refs)

	want := []string{"C1", "C10", "J", "R", "R2", "R10", "U3"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("Sort = %v, want %v", refs, want)
	}
}

func TestCompareNumbers(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"A2", "A10", -1},
		{"A10", "A2", 1},
		{"A007", "A7", 0},
		{"A", "A0", -1},
		{"A", "B", 0},
		{"X123456789012345678901234567890", "X99", 1},
	}

	for _, tt := range tests {
		if got := CompareNumbers(Split(tt.a), Split(tt.b)); got != tt.want {
			t.Errorf("CompareNumbers(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLessIsStrictWeakOrder(t *testing.T) {
	refs := []string{"U1", "U01", "U", "R5", "R05", "", "10", "9", "C3"}

	for _, a := range refs {
		if Less(a, a) {
			t.Errorf("Less(%q, %q) should be false", a, a)
		}
		for _, b := range refs {
			if Less(a, b) && Less(b, a) {
				t.Errorf("Less is not asymmetric for %q, %q", a, b)
			}
			for _, c := range refs {
				if Less(a, b) && Less(b, c) && !Less(a, c) {
					t.Errorf("Less is not transitive for %q < %q < %q", a, b, c)
				}
			}
		}
	}
}
