package verilog

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Unescape decodes the backslash escapes KiCad users write in VerilogCode
// fields, since a field value cannot hold a literal newline. Recognized
// escapes are \n \t \r \a \b \f \v \\ \' \", a backslash-newline line
// continuation, octal \o to \ooo, \xHH, \uXXXX and \UXXXXXXXX.
// Malformed or unknown escapes are kept as written.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		n, r, ok := unescapeOne(s[i+1:])
		switch {
		case !ok:
			b.WriteByte('\\')
			i++
		case r >= 0:
			b.WriteRune(r)
			i += 1 + n
		default:
			// line continuation
			i += 1 + n
		}
	}
	return b.String()
}

var simpleEscapes = map[byte]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'v':  '\v',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
}

// unescapeOne decodes the escape whose body starts s, returning the number
// of bytes consumed and the decoded rune, or -1 for a line continuation.
func unescapeOne(s string) (int, rune, bool) {
	c := s[0]
	if r, ok := simpleEscapes[c]; ok {
		return 1, r, true
	}

	switch c {
	case '\n':
		return 1, -1, true
	case 'x':
		return hexEscape(s, 2)
	case 'u':
		return hexEscape(s, 4)
	case 'U':
		return hexEscape(s, 8)
	}

	if '0' <= c && c <= '7' {
		n := 1
		for n < 3 && n < len(s) && '0' <= s[n] && s[n] <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(s[:n], 8, 32)
		return n, rune(v), true
	}
	return 0, 0, false
}

func hexEscape(s string, digits int) (int, rune, bool) {
	if len(s) < 1+digits {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:1+digits], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, 0, false
	}
	return 1 + digits, rune(v), true
}
