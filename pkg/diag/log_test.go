package diag

import (
	"reflect"
	"testing"
)

func TestEmptyLogSucceeds(t *testing.T) {
	var l Log

	want := []string{"0 errors, 0 warnings", "Verilog generation succeeded!"}
	if got := l.Messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Messages() = %q, want %q", got, want)
	}
}

func TestMessagesKeepOrderAndPrefixes(t *testing.T) {
	l := New()
	l.Warningf("Pin %s on part %s is not connected", "2", "U1")
	l.Infof("No module generated for %s", "J1")
	l.Errorf("bad pin %q", "9")

	want := []string{
		"WARNING: Pin 2 on part U1 is not connected",
		"INFO: No module generated for J1",
		`ERROR: bad pin "9"`,
		"1 errors, 1 warnings",
		"Verilog generation failed.",
	}
	if got := l.Messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Messages() = %q, want %q", got, want)
	}

	if l.Errors() != 1 || l.Warnings() != 1 || l.Infos() != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", l.Errors(), l.Warnings(), l.Infos())
	}
}

func TestWarningsDoNotFail(t *testing.T) {
	l := New()
	l.Warningf("one")
	l.Warningf("two")

	if l.Failed() {
		t.Error("warnings alone should not fail the run")
	}
	if got := l.Summary()[1]; got != "Verilog generation succeeded!" {
		t.Errorf("verdict = %q", got)
	}
}
