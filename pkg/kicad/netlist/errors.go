package netlist

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/sexp"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/sexp/kicadsexp"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrMalformed is matched by every error Parse returns for text that is not
// a valid netlist.
var ErrMalformed = errors.New("netlist: malformed netlist")

// MalformedNetlist describes where and why parsing failed.
type MalformedNetlist struct {
	Pos      lexer.Position
	Expected string
	Found    string
	Msg      string // set instead of Expected for lexical errors
}

func (e *MalformedNetlist) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	if e.Found == "" {
		return fmt.Sprintf("%s: expected %s", e.Pos, e.Expected)
	}
	return fmt.Sprintf("%s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

func (e *MalformedNetlist) Unwrap() error {
	return ErrMalformed
}

// malformed converts lower level syntax and shape errors into a
// *MalformedNetlist, keeping their position.
func malformed(err error) error {
	if err == nil {
		return nil
	}

	var shape *sexp.ShapeError
	if errors.As(err, &shape) {
		return &MalformedNetlist{Pos: shape.Pos, Expected: shape.Expected, Found: shape.Found}
	}

	var syntax *kicadsexp.SyntaxError
	if errors.As(err, &syntax) {
		return &MalformedNetlist{Pos: syntax.Pos, Msg: syntax.Msg}
	}

	return &MalformedNetlist{Msg: err.Error()}
}
