package verilog

import (
	"strconv"
	"strings"
)

// Legalize maps an arbitrary KiCad name to a valid Verilog identifier.
//
// ASCII letters, digits, '$' and '_' are kept. The active-low markers '*'
// and '~' become 'n', braces are dropped and '(', ')', '-', ' ', '.' and '/'
// become '_'. '+' is spelled "plus". Anything else is replaced by its code
// point in lowercase hex. A result that is empty or starts with a digit is
// prefixed with '_'.
func Legalize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case isIdentRune(r):
			b.WriteRune(r)
		case r == '*' || r == '~':
			b.WriteByte('n')
		case r == '{' || r == '}':
		case strings.ContainsRune("()- ./", r):
			b.WriteByte('_')
		case r == '+':
			b.WriteString("plus")
		default:
			b.WriteString(strconv.FormatInt(int64(r), 16))
		}
	}

	legal := b.String()
	if legal == "" || isDigit(legal[0]) {
		legal = "_" + legal
	}
	return legal
}

func isIdentRune(r rune) bool {
	return r == '$' || r == '_' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
