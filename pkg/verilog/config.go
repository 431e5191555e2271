package verilog

import (
	"errors"
	"fmt"
)

// IncludeOrder selects the order of the `include directives.
type IncludeOrder int

const (
	IncludesSorted    IncludeOrder = iota // lexicographic by file name
	IncludesFirstSeen                     // order of the first part declaring each file
)

func (o IncludeOrder) String() string {
	if o == IncludesFirstSeen {
		return "first-seen"
	}
	return "sorted"
}

// ParseIncludeOrder parses "sorted" or "first-seen".
func ParseIncludeOrder(s string) (IncludeOrder, error) {
	switch s {
	case "sorted", "":
		return IncludesSorted, nil
	case "first-seen":
		return IncludesFirstSeen, nil
	}
	return 0, fmt.Errorf("unknown include order %q (want sorted or first-seen)", s)
}

// ErrNoModuleName is returned by Validate when the top module has no name.
var ErrNoModuleName = errors.New("verilog: top module name is empty")

// Config controls Verilog generation.
type Config struct {
	ModuleName   string // name of the top module
	IncludeOrder IncludeOrder

	// Instantiation lines longer than WrapWidth are broken after the last
	// comma within the first WrapSearch bytes
	WrapWidth  int // default: 70
	WrapSearch int // default: 80
}

// DefaultConfig returns a Config with sorted includes and 70 column wrapping.
// ModuleName must still be set.
func DefaultConfig() *Config {
	return &Config{
		IncludeOrder: IncludesSorted,
		WrapWidth:    70,
		WrapSearch:   80,
	}
}

// Validate checks the configuration and fills in defaults for unset wrap
// limits.
func (c *Config) Validate() error {
	if c.ModuleName == "" {
		return ErrNoModuleName
	}

	if c.WrapWidth < 1 {
		c.WrapWidth = 70
	}
	if c.WrapSearch < c.WrapWidth {
		c.WrapSearch = c.WrapWidth + 10
	}

	if c.IncludeOrder != IncludesSorted && c.IncludeOrder != IncludesFirstSeen {
		return fmt.Errorf("verilog: invalid include order %d", c.IncludeOrder)
	}
	return nil
}
