package verilog

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/circuit"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/diag"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/netlist"
)

func pinDecls(decls ...string) []netlist.PinDecl {
	var out []netlist.PinDecl
	for _, d := range decls {
		f := strings.Split(d, ":")
		out = append(out, netlist.PinDecl{Num: f[0], Name: f[1], Type: f[2]})
	}
	return out
}

func component(ref, part string, fields ...netlist.Field) netlist.Component {
	return netlist.Component{
		Ref:       ref,
		Fields:    fields,
		LibSource: &netlist.LibSource{Lib: "lib", Part: part},
	}
}

func netDecl(name string, nodes ...string) netlist.Net {
	n := netlist.Net{Name: name}
	for _, node := range nodes {
		ref, pin, _ := strings.Cut(node, ".")
		n.Nodes = append(n.Nodes, netlist.Node{Ref: ref, Pin: pin})
	}
	return n
}

var testLibParts = []netlist.LibPart{
	{Lib: "lib", Part: "R", Description: "Resistor", Pins: pinDecls("1:~:passive", "2:~:passive")},
	{Lib: "lib", Part: "C", Description: "Unpolarized capacitor", Pins: pinDecls("1:~:passive", "2:~:passive")},
	{Lib: "lib", Part: "BUF", Description: "Buffer", Pins: pinDecls("1:A:input", "2:Y:output")},
	{Lib: "lib", Part: "IO", Description: "Connector", Pins: pinDecls("1:IN:input", "2:PWR:power_in")},
	{Lib: "lib", Part: "MEM", Description: "Memory", Pins: pinDecls("1:A0:input", "2:A1:input", "3:A2:input", "4:D0:tri_state", "5:VCC:power_in")},
	{Lib: "lib", Part: "PWR", Description: "Power flag", Pins: pinDecls("1:pwr:power_out")},
}

func emit(t *testing.T, tree *netlist.Tree) (string, *diag.Log) {
	t.Helper()
	tree.LibParts = testLibParts
	log := diag.New()
	nl := circuit.Build(tree, log)

	cfg := DefaultConfig()
	cfg.ModuleName = "top"
	var buf bytes.Buffer
	if err := Emit(&buf, nl, cfg, log); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	return buf.String(), log
}

func TestEmitPullUpScenario(t *testing.T) {
	tree := &netlist.Tree{
		Components: []netlist.Component{
			component("R1", "R"),
			component("U1", "BUF", netlist.Field{Name: "VerilogCode", Value: `always @(*)\n  Y = A;`}),
		},
		Nets: []netlist.Net{
			netDecl("VCC", "R1.1"),
			netDecl("SIG1", "R1.2", "U1.1"),
		},
	}
	out, log := emit(t, tree)

	want := "\n" +
		"module top\n" +
		"();\n\n\n" +
		"   assign VCC = 1;\n" +
		"   tri1 SIG1;\n" +
		"\n\n" +
		"   U1 _U1(SIG1, 1'bz);\n\n" +
		"\nendmodule\n\n" +
		"\n" +
		"module U1(\n   input A,\n   output Y);\n\n" +
		"always @(*)\n  Y = A;\n\n" +
		"endmodule\n\n"
	if out != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", out, want)
	}

	wantLog := []string{
		"WARNING: Pin 2 on part U1 is not connected to a net, and is not marked as 'no-connect'",
		"0 errors, 1 warnings",
		"Verilog generation succeeded!",
	}
	if got := log.Messages(); !reflect.DeepEqual(got, wantLog) {
		t.Errorf("log = %q, want %q", got, wantLog)
	}
}

func TestEmitPortWirePartition(t *testing.T) {
	tree := &netlist.Tree{
		Components: []netlist.Component{
			component("J1", "IO",
				netlist.Field{Name: "VerilogModulePort", Value: "1"},
				netlist.Field{Name: "VerilogCode", Value: "// connector"}),
			component("R1", "R"),
			component("C1", "C"),
		},
		Nets: []netlist.Net{
			netDecl("CLK", "J1.1"),
			netDecl("VCC", "J1.2", "C1.1"),
			netDecl("GND", "R1.1", "C1.2"),
			netDecl("+5V"),
			netDecl("SIG"),
			netDecl("PD", "R1.2"),
		},
	}
	out, log := emit(t, tree)

	header := "\n" +
		"module top\n" +
		"(\n   input CLK\n);\n\n\n" +
		"   assign VCC = 1;\n" +
		"   assign GND = 0;\n" +
		"   assign plus5V = 1;\n" +
		"   wire SIG;\n" +
		"   tri0 PD;\n" +
		"\n\n" +
		"   J1 _J1(CLK);\n\n" +
		"\nendmodule\n"
	if !strings.HasPrefix(out, header) {
		t.Errorf("output does not start with the expected top module\ngot:\n%s", out)
	}
	if strings.Contains(out, "module R1") || strings.Contains(out, "module C1") {
		t.Error("pull resistor or bypass capacitor got a module")
	}
	if !strings.Contains(out, "module J1(\n   input IN);\n\n// connector\n\nendmodule\n") {
		t.Errorf("J1 module body missing, power pin should be excluded\ngot:\n%s", out)
	}
	if log.Warnings() != 0 || log.Errors() != 0 {
		t.Errorf("unexpected diagnostics: %q", log.Messages())
	}
}

func TestEmitBusMacros(t *testing.T) {
	tree := &netlist.Tree{
		Components: []netlist.Component{component("U2", "MEM")},
		Nets: []netlist.Net{
			netDecl("ADDR0", "U2.1"), netDecl("ADDR1", "U2.2"), netDecl("ADDR2", "U2.3"), netDecl("DATA", "U2.4"),
		},
	}
	out, log := emit(t, tree)

	body := "module U2(\n   input A0,\n   input A1,\n   input A2,\n   inout D0);\n\n" +
		"   // NOTE: The following symbols are MACRO definition(s)!\n" +
		"   // To use them, precede them with a `\n" +
		"   `define A {A2, A1, A0}\n" +
		"\n" +
		"   `undef A\n\n" +
		"endmodule\n"
	if !strings.Contains(out, body) {
		t.Errorf("bus macro body missing\ngot:\n%s", out)
	}
	if strings.Contains(out, "`define D") {
		t.Error("single-member bus D got a macro")
	}
	if !strings.Contains(out, "   U2 _U2(ADDR0, ADDR1, ADDR2, DATA);\n") {
		t.Errorf("instantiation missing\ngot:\n%s", out)
	}

	want := []string{"WARNING: Module U2 has no Verilog code.", "0 errors, 1 warnings", "Verilog generation succeeded!"}
	if got := log.Messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestEmitSkipsPartsWithoutRelevantPins(t *testing.T) {
	tree := &netlist.Tree{
		Components: []netlist.Component{component("#FLG01", "PWR"), component("X1", "NOPE")},
		Nets:       []netlist.Net{netDecl("VCC", "#FLG01.1")},
	}
	out, log := emit(t, tree)

	if strings.Contains(out, "FLG01") {
		t.Errorf("power-only part was emitted\ngot:\n%s", out)
	}
	want := []string{
		"WARNING: Part X1 has no matching library part lib:NOPE, so it has no pins",
		"INFO: No module generated for #FLG01 because it has no relevant pins.",
		"WARNING: No relevant nets connected to X1",
		"INFO: No module generated for X1 because it has no relevant pins.",
		"0 errors, 2 warnings",
		"Verilog generation succeeded!",
	}
	if got := log.Messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestEmitIncludeOrder(t *testing.T) {
	newTree := func() *netlist.Tree {
		return &netlist.Tree{Components: []netlist.Component{
			component("U1", "BUF", netlist.Field{Name: "VerilogInclude", Value: "z.v"}),
			component("U2", "BUF", netlist.Field{Name: "Verilog Include", Value: "a.v"}),
			component("U3", "BUF", netlist.Field{Name: "VerilogInclude", Value: "z.v"}),
		}}
	}

	out, _ := emit(t, newTree())
	if !strings.HasPrefix(out, "`include \"a.v\"\n`include \"z.v\"\n\nmodule top\n") {
		t.Errorf("sorted includes wrong\ngot:\n%s", out)
	}

	tree := newTree()
	tree.LibParts = testLibParts
	log := diag.New()
	cfg := DefaultConfig()
	cfg.ModuleName = "top"
	cfg.IncludeOrder = IncludesFirstSeen
	var buf bytes.Buffer
	if err := Emit(&buf, circuit.Build(tree, log), cfg, log); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "`include \"z.v\"\n`include \"a.v\"\n\n") {
		t.Errorf("first-seen includes wrong\ngot:\n%s", buf.String())
	}
}

func TestEmitRequiresModuleName(t *testing.T) {
	log := diag.New()
	nl := circuit.Build(&netlist.Tree{}, log)
	if err := Emit(&bytes.Buffer{}, nl, DefaultConfig(), log); err != ErrNoModuleName {
		t.Errorf("Emit() error = %v, want ErrNoModuleName", err)
	}
}

func TestWrap(t *testing.T) {
	short := "   U1 _U1(A, B);\n"
	if got := wrap(short, 70, 80); got != short {
		t.Errorf("short line changed: %q", got)
	}

	var args []string
	for i := 0; i < 20; i++ {
		args = append(args, "SIGNAL_NAME")
	}
	long := "   U1 _U1(" + strings.Join(args, ", ") + ");\n"
	got := wrap(long, 70, 80)

	if strings.ReplaceAll(got, "\n   ", "") != long {
		t.Errorf("wrapping changed the text: %q", got)
	}
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 lines, got %d: %q", len(lines), got)
	}
	for i, line := range lines[:len(lines)-1] {
		if !strings.HasSuffix(line, ",") {
			t.Errorf("line %d does not end at a comma: %q", i, line)
		}
		if len(line) > 83 {
			t.Errorf("line %d too long (%d): %q", i, len(line), line)
		}
	}

	noComma := strings.Repeat("x", 100)
	if got := wrap(noComma, 70, 80); got != noComma {
		t.Errorf("line without commas changed")
	}
}
