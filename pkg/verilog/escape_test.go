package verilog

import "testing"

func TestUnescape(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "assign Y = A;", "assign Y = A;"},
		{"newline", `a\nb`, "a\nb"},
		{"tab and cr", `\t\r`, "\t\r"},
		{"escaped backslash", `\\n`, `\n`},
		{"quotes", `\"x\'`, `"x'`},
		{"hex", `\x41\x62`, "Ab"},
		{"octal", `\101\0`, "A\x00"},
		{"short octal stops at non-octal", `\18`, "\x018"},
		{"unicode", `é\U0001F600`, "é😀"},
		{"continuation", "one\\\ntwo", "onetwo"},
		{"unknown kept", `\q\d`, `\q\d`},
		{"truncated hex kept", `\x4`, `\x4`},
		{"invalid hex kept", `\xzz`, `\xzz`},
		{"trailing backslash", `end\`, `end\`},
		{"literal unicode untouched", "µs", "µs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unescape(tt.in); got != tt.want {
				t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
