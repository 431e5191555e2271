// Package verilog generates structural Verilog from a circuit netlist.
//
// The output is one top module whose ports are the nets selected by the
// parts' VerilogModulePort fields. Every other net is declared inside it
// as a constant assignment (power and ground), a tri0/tri1 net (pulled
// nets) or a plain wire. Each remaining part becomes a sub-module holding
// the code from its VerilogCode field, instantiated once in the top module.
// Pull resistors and bypass capacitors are left out.
package verilog

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/circuit"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/diag"
)

// HighZ is the instantiation argument of an unconnected pin.
const HighZ = "1'bz"

// Direction returns the Verilog port direction for a pin type.
func Direction(t circuit.PinType) string {
	switch t {
	case circuit.Input:
		return "input"
	case circuit.Output:
		return "output"
	default:
		return "inout"
	}
}

// Emit writes the Verilog for nl to w. Structural problems are reported to
// log and never stop generation; the returned error is from writing only.
func Emit(w io.Writer, nl *circuit.Netlist, cfg *Config, log *diag.Log) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e := &emitter{
		w:   bufio.NewWriter(w),
		cfg: cfg,
		log: log,
	}
	e.includes(nl)
	e.topModule(nl)
	return e.w.Flush()
}

// emitter writes through a bufio.Writer, whose sticky error is reported
// by the final Flush.
type emitter struct {
	w   *bufio.Writer
	cfg *Config
	log *diag.Log
}

func (e *emitter) includes(nl *circuit.Netlist) {
	includes := nl.Includes()
	if e.cfg.IncludeOrder == IncludesSorted {
		sort.Strings(includes)
	}
	for _, inc := range includes {
		fmt.Fprintf(e.w, "`include \"%s\"\n", inc)
	}
	e.w.WriteString("\n")
}

func (e *emitter) topModule(nl *circuit.Netlist) {
	portTypes := nl.ModulePorts(e.log)

	var ports []string
	var nets strings.Builder
	for _, net := range nl.Nets {
		name := Legalize(net.Name)
		if t, ok := portTypes[net.Name]; ok {
			ports = append(ports, Direction(t)+" "+name)
			continue
		}
		nets.WriteString(netDeclaration(net, name))
	}

	fmt.Fprintf(e.w, "module %s\n", e.cfg.ModuleName)
	if len(ports) > 0 {
		sort.Strings(ports)
		e.w.WriteString("(\n   " + strings.Join(ports, ",\n   ") + "\n);\n\n\n")
	} else {
		e.w.WriteString("();\n\n\n")
	}
	e.w.WriteString(nets.String())
	e.w.WriteString("\n\n")

	// Instantiations are written as each part is visited; the module bodies
	// follow the top module.
	var bodies []string
	for _, part := range nl.SortedParts() {
		if part.Role() != circuit.RoleNone {
			continue
		}
		if body, ok := e.part(part); ok {
			bodies = append(bodies, body)
		}
	}

	e.w.WriteString("\nendmodule\n\n")
	e.w.WriteString("\n")
	for _, body := range bodies {
		e.w.WriteString(body + "\n")
	}
}

// netDeclaration declares a net that is not a module port.
func netDeclaration(net *circuit.Net, name string) string {
	switch {
	case net.IsPower():
		return "   assign " + name + " = 1;\n"
	case net.IsGround():
		return "   assign " + name + " = 0;\n"
	case net.Pulled() == circuit.PulledDown:
		return "   tri0 " + name + ";\n"
	case net.Pulled() == circuit.PulledUp:
		return "   tri1 " + name + ";\n"
	default:
		return "   wire " + name + ";\n"
	}
}

// part writes the instantiation of part and returns its module body. It
// reports false when the part has no pins to connect.
func (e *emitter) part(part *circuit.Part) (string, bool) {
	module := Legalize(part.Ref)
	if len(part.Pins) == 0 {
		e.log.Warningf("No relevant nets connected to %s", part.Ref)
	}

	var ports, args []string
	for _, pin := range part.Pins {
		if pin.IsPower() {
			continue
		}
		ports = append(ports, "   "+Direction(pin.Type)+" "+Legalize(pin.UniqueName))
		if pin.Net != nil {
			args = append(args, Legalize(pin.Net.Name))
		} else {
			args = append(args, HighZ)
			e.log.Warningf("Pin %s on part %s is not connected to a net, and is not marked as 'no-connect'", pin.Num, part.Ref)
		}
	}

	if len(ports) == 0 {
		e.log.Infof("No module generated for %s because it has no relevant pins.", part.Ref)
		return "", false
	}

	body := e.moduleBody(part, module, ports)

	inst := "   " + module + " _" + Legalize(part.Ref) + "(" + strings.Join(args, ", ") + ");\n"
	e.w.WriteString(wrap(inst, e.cfg.WrapWidth, e.cfg.WrapSearch) + "\n")
	return body, true
}

func (e *emitter) moduleBody(part *circuit.Part, module string, ports []string) string {
	var b strings.Builder
	b.WriteString("module " + module + "(\n" + strings.Join(ports, ",\n") + ");\n\n")

	var undefs []string
	for _, bus := range part.Buses {
		if len(bus.Members) <= 1 {
			continue
		}
		if len(undefs) == 0 {
			b.WriteString("   // NOTE: The following symbols are MACRO definition(s)!\n")
			b.WriteString("   // To use them, precede them with a `\n")
		}

		pins := bus.Descending()
		names := make([]string, len(pins))
		for i, pin := range pins {
			names[i] = Legalize(pin.UniqueName)
		}
		macro := Legalize(bus.Name)
		fmt.Fprintf(&b, "   `define %s {%s}\n", macro, strings.Join(names, ", "))
		undefs = append(undefs, "   `undef "+macro)
	}
	if len(undefs) > 0 {
		b.WriteString("\n")
	}

	if part.Verilog.HasCode {
		b.WriteString(Unescape(part.Verilog.Code))
		b.WriteString("\n\n")
	} else {
		e.log.Warningf("Module %s has no Verilog code.", module)
	}

	if len(undefs) > 0 {
		b.WriteString(strings.Join(undefs, "\n") + "\n\n")
	}
	b.WriteString("endmodule\n")
	return b.String()
}

// wrap breaks text after the last comma in its first search bytes while it
// is longer than width. Continuation lines are indented three spaces.
func wrap(text string, width, search int) string {
	var lines []string
	for len(text) > width {
		pos := strings.LastIndexByte(text[:min(search, len(text))], ',')
		if pos < 0 {
			break
		}
		lines = append(lines, text[:pos+1])
		text = text[pos+1:]
	}
	if text != "" {
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n   ")
}
