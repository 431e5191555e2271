// Package diag collects the diagnostics of one conversion run.
package diag

import "fmt"

// Severity of a diagnostic message.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	default:
		return "INFO"
	}
}

// Entry is one logged diagnostic.
type Entry struct {
	Severity Severity
	Message  string
}

func (e Entry) String() string {
	return e.Severity.String() + ": " + e.Message
}

// Log accumulates diagnostics in the order they are reported. The zero value
// is ready to use.
type Log struct {
	entries  []Entry
	errors   int
	warnings int
	infos    int
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

func (l *Log) add(sev Severity, format string, args ...any) {
	l.entries = append(l.entries, Entry{Severity: sev, Message: fmt.Sprintf(format, args...)})
	switch sev {
	case Error:
		l.errors++
	case Warning:
		l.warnings++
	default:
		l.infos++
	}
}

// Errorf logs an error. Any error makes the run fail.
func (l *Log) Errorf(format string, args ...any) { l.add(Error, format, args...) }

// Warningf logs a warning.
func (l *Log) Warningf(format string, args ...any) { l.add(Warning, format, args...) }

// Infof logs an informational message.
func (l *Log) Infof(format string, args ...any) { l.add(Info, format, args...) }

// Entries returns the logged diagnostics without the summary.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Errors() int   { return l.errors }
func (l *Log) Warnings() int { return l.warnings }
func (l *Log) Infos() int    { return l.infos }

// Failed reports whether any error was logged.
func (l *Log) Failed() bool {
	return l.errors > 0
}

// Summary returns the two closing lines: the counts and the verdict.
func (l *Log) Summary() []string {
	verdict := "Verilog generation succeeded!"
	if l.Failed() {
		verdict = "Verilog generation failed."
	}
	return []string{
		fmt.Sprintf("%d errors, %d warnings", l.errors, l.warnings),
		verdict,
	}
}

// Messages returns every entry rendered with its severity prefix, followed
// by the summary lines.
func (l *Log) Messages() []string {
	msgs := make([]string, 0, len(l.entries)+2)
	for _, e := range l.entries {
		msgs = append(msgs, e.String())
	}
	return append(msgs, l.Summary()...)
}
