package circuit

import (
	"strings"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/netlist"
)

// Field names that carry Verilog generation data, in normalized form.
const (
	FieldVerilogInclude    = "veriloginclude"
	FieldVerilogCode       = "verilogcode"
	FieldVerilogModulePort = "verilogmoduleport"
)

// Fields maps normalized field names to values. Lookups ignore case, spaces
// and underscores, so "Verilog Code" and "VERILOG_CODE" name the same field.
type Fields map[string]string

// NormalizeFieldName returns the lookup key for a field name.
func NormalizeFieldName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == ' ' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// newFields collects a component's (fields ...) entries, then its
// (property ...) entries. The first entry for a name wins.
func newFields(comp netlist.Component) Fields {
	fields := make(Fields)
	add := func(entries []netlist.Field) {
		for _, f := range entries {
			key := NormalizeFieldName(f.Name)
			if _, ok := fields[key]; !ok {
				fields[key] = f.Value
			}
		}
	}
	add(comp.Fields)
	add(comp.Properties)
	return fields
}

// Get returns the value of the named field.
func (f Fields) Get(name string) (string, bool) {
	v, ok := f[NormalizeFieldName(name)]
	return v, ok
}

// VerilogFields are the Verilog generation fields of a part, resolved once
// when the part is built.
type VerilogFields struct {
	Include    string
	HasInclude bool

	// Code is the behavioral code as written in the field, escapes
	// not yet decoded
	Code    string
	HasCode bool

	// ModulePorts lists the pin numbers whose nets become ports of the top
	// module
	ModulePorts    []string
	HasModulePorts bool
}

func resolveVerilogFields(fields Fields) VerilogFields {
	var vf VerilogFields
	vf.Include, vf.HasInclude = fields[FieldVerilogInclude]
	vf.Code, vf.HasCode = fields[FieldVerilogCode]

	var ports string
	if ports, vf.HasModulePorts = fields[FieldVerilogModulePort]; vf.HasModulePorts {
		for _, num := range strings.Split(ports, ",") {
			if num = strings.TrimSpace(num); num != "" {
				vf.ModulePorts = append(vf.ModulePorts, num)
			}
		}
	}
	return vf
}
