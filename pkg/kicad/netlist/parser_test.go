package netlist

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleNetlist = `(export (version "E")
  (design
    (source "/home/user/demo/demo.kicad_sch")
    (date "Wed 01 Mar 2023 10:00:00 AM")
    (tool "Eeschema (6.0.11)")
    (textvar (name "REV") "1.2")
    (sheet (number "1") (name "/") (tstamps "/")
      (title_block
        (title "Demo")
        (company)
        (rev "A")
        (date "2023-03-01")
        (source "demo.kicad_sch")
        (comment (number "1") (value "first"))
        (comment (number "2") (value "")))))
  (components
    (comp (ref "R1")
      (value "10k")
      (footprint "Resistor_SMD:R_0603_1608Metric")
      (datasheet "~")
      (libsource (lib "Device") (part "R") (description "Resistor"))
      (property (name "Sheetname") (value ""))
      (property (name "Sheetfile") (value "demo.kicad_sch"))
      (sheetpath (names "/") (tstamps "/"))
      (tstamps "0f3e5c1a-0000-4000-8000-000000000001"))
    (comp (ref "U1")
      (value "74HC04")
      (fields
        (field (name "VerilogCode") "assign Y = ~A;")
        (field (name "Empty")))
      (libsource (lib "74xx") (part "74HC04") (description "Hex Inverter"))
      (sheetpath (names "/") (tstamps "/"))
      (tstamp "0f3e5c1a-0000-4000-8000-000000000002")))
  (libparts
    (libpart (lib "Device") (part "R")
      (description "Resistor")
      (docs "~")
      (footprints
        (fp "R_*"))
      (fields
        (field (name "Reference") "R")
        (field (name "Value") "R"))
      (pins
        (pin (num "1") (name "~") (type "passive"))
        (pin (num "2") (name "~") (type "passive"))))
    (libpart (lib "74xx") (part "74HC04")
      (aliases
        (alias "74LS04"))
      (description "Hex Inverter")
      (pins
        (pin (num "1") (name "A") (type "input"))
        (pin (num "2") (name "Y") (type "output")))))
  (libraries
    (library (logical "Device")
      (uri "/usr/share/kicad/symbols/Device.kicad_sym")))
  (nets
    (net (code "1") (name "+5V")
      (node (ref "R1") (pin "1") (pintype "passive")))
    (net (code "2") (name "Net-(R1-Pad2)")
      (node (ref "R1") (pin "2") (pintype "passive"))
      (node (ref "U1") (pin "1") (pinfunction "A") (pintype "input")))))
`

func TestParseSample(t *testing.T) {
	tree, err := ParseString("demo.net", sampleNetlist)
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}

	if tree.Version != "E" {
		t.Errorf("Version = %q", tree.Version)
	}
	if tree.Design.Source != "/home/user/demo/demo.kicad_sch" {
		t.Errorf("Design.Source = %q", tree.Design.Source)
	}
	if want := []TextVar{{Name: "REV", Value: "1.2"}}; !reflect.DeepEqual(tree.Design.TextVars, want) {
		t.Errorf("TextVars = %+v", tree.Design.TextVars)
	}
	if len(tree.Design.Sheets) != 1 || tree.Design.Sheets[0].TitleBlock == nil {
		t.Fatalf("Sheets = %+v", tree.Design.Sheets)
	}
	tb := tree.Design.Sheets[0].TitleBlock
	if tb.Title != "Demo" || tb.Company != "" || len(tb.Comments) != 2 || tb.Comments[0].Text != "first" {
		t.Errorf("TitleBlock = %+v", tb)
	}

	if len(tree.Components) != 2 {
		t.Fatalf("got %d components", len(tree.Components))
	}
	r1 := tree.Components[0]
	if r1.Ref != "R1" || r1.Value != "10k" || r1.Footprint != "Resistor_SMD:R_0603_1608Metric" {
		t.Errorf("R1 = %+v", r1)
	}
	if r1.LibSource == nil || r1.LibSource.Lib != "Device" || r1.LibSource.Part != "R" {
		t.Errorf("R1 libsource = %+v", r1.LibSource)
	}
	if len(r1.Properties) != 2 || r1.Properties[1].Value != "demo.kicad_sch" {
		t.Errorf("R1 properties = %+v", r1.Properties)
	}
	if r1.Fields != nil {
		t.Errorf("R1 has no (fields), got %+v", r1.Fields)
	}

	u1 := tree.Components[1]
	wantFields := []Field{{Name: "VerilogCode", Value: "assign Y = ~A;"}, {Name: "Empty"}}
	if !reflect.DeepEqual(u1.Fields, wantFields) {
		t.Errorf("U1 fields = %+v, want %+v", u1.Fields, wantFields)
	}
	if u1.Tstamp == "" {
		t.Error("singular (tstamp) spelling not accepted")
	}

	lp, ok := tree.FindLibPart("74xx", "74HC04")
	if !ok {
		t.Fatal("FindLibPart(74xx, 74HC04) failed")
	}
	if want := []PinDecl{{"1", "A", "input"}, {"2", "Y", "output"}}; !reflect.DeepEqual(lp.Pins, want) {
		t.Errorf("pins = %+v", lp.Pins)
	}
	if !reflect.DeepEqual(lp.Aliases, []string{"74LS04"}) {
		t.Errorf("aliases = %v", lp.Aliases)
	}

	if len(tree.Libraries) != 1 || tree.Libraries[0].URI != "/usr/share/kicad/symbols/Device.kicad_sym" {
		t.Errorf("Libraries = %+v", tree.Libraries)
	}

	if len(tree.Nets) != 2 {
		t.Fatalf("got %d nets", len(tree.Nets))
	}
	sig := tree.Nets[1]
	wantNodes := []Node{
		{Ref: "R1", Pin: "2", PinType: "passive"},
		{Ref: "U1", Pin: "1", PinFunction: "A", PinType: "input"},
	}
	if sig.Name != "Net-(R1-Pad2)" || !reflect.DeepEqual(sig.Nodes, wantNodes) {
		t.Errorf("net 2 = %+v", sig)
	}
}

func TestParseMinimal(t *testing.T) {
	tree, err := ParseString("", "(export (version D) (design) (components) (nets))")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Version != "D" || len(tree.Components) != 0 || tree.LibParts != nil || tree.Libraries != nil {
		t.Errorf("tree = %+v", tree)
	}
}

func TestParseIgnoresKeywordCaseAndOrder(t *testing.T) {
	text := `(EXPORT (Version "E")
  (NETS (net (NAMES "A") (code 1) (node (pin 1) (ref U1))))
  (Components (comp (value X) (ref U1)))
  (design))`
	tree, err := ParseString("", text)
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}
	if tree.Nets[0].Name != "A" || tree.Nets[0].Nodes[0].Ref != "U1" || tree.Components[0].Value != "X" {
		t.Errorf("tree = %+v", tree)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"wrong root", "(kicad_sch (version 1))", "expected (export ...)"},
		{"version not first", "(export (design) (version E) (components) (nets))", "(version ...) first"},
		{"missing nets", "(export (version E) (design) (components))", "(nets ...) in (export ...)"},
		{"duplicate design", "(export (version E) (design) (design) (components) (nets))", "again"},
		{"unknown clause", "(export (version E) (design) (components) (nets) (extra))", "unexpected (extra ...)"},
		{"net without nodes", "(export (version E) (design) (components) (nets (net (code 1) (name A))))", "at least one (node ...)"},
		{"pin missing type", "(export (version E) (design) (components) (libparts (libpart (lib a) (part b) (pins (pin (num 1) (name x))))) (nets))", "(type ...)"},
		{"sub-clause in leaf", "(export (version (x)) (design) (components) (nets))", "a value in (version ...)"},
		{"value in container", "(export (version E) (design) (components oops) (nets))", `"oops"`},
		{"trailing content", "(export (version E) (design) (components) (nets)) (x)", "expected end of input"},
		{"unbalanced", "(export (version E)", "unexpected end of input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString("bad.net", tt.in)
			if err == nil {
				t.Fatal("ParseString() succeeded")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error %v does not match ErrMalformed", err)
			}
			var mn *MalformedNetlist
			if !errors.As(err, &mn) {
				t.Fatalf("error %T is not a *MalformedNetlist", err)
			}
			if mn.Pos.Filename != "bad.net" || mn.Pos.Line < 1 {
				t.Errorf("position = %+v", mn.Pos)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestParseLatin1(t *testing.T) {
	data := []byte("(export (version E) (design (source \"caf\xe9\xb5\")) (components) (nets))")
	tree, err := Parse("latin1.net", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if tree.Design.Source != "café\u00b5" {
		t.Errorf("Source = %q", tree.Design.Source)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	tree, err := ParseString("demo.net", sampleNetlist)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, tree); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	again, err := Parse("written.net", &buf)
	if err != nil {
		t.Fatalf("re-parse error: %v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(tree, again) {
		t.Errorf("round trip changed the tree\nbefore: %+v\nafter:  %+v", tree, again)
	}
}

func TestWriteQuoting(t *testing.T) {
	tree := &Tree{
		Version: "E",
		Components: []Component{
			{Ref: "U1", Value: `say "hi"`},
			{Ref: "U2", Value: `it's "x"`},
			{Ref: "U3", Value: `C:\path\`},
		},
		Nets: []Net{{Code: "1", Name: "µ", Nodes: []Node{{Ref: "U1", Pin: "1"}}}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, tree); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte{'"', 0xb5, '"'}) {
		t.Error("output is not Latin-1 encoded")
	}

	again, err := Parse("", &buf)
	if err != nil {
		t.Fatalf("re-parse error: %v\n%s", err, buf.String())
	}
	for i, c := range tree.Components {
		if got := again.Components[i].Value; got != c.Value {
			t.Errorf("component %s value = %q, want %q", c.Ref, got, c.Value)
		}
	}
}

func TestWriteRejectsUnrepresentable(t *testing.T) {
	tree := &Tree{Components: []Component{{Ref: "U1", Value: `both ' and " (x)`}}}
	if err := Write(&bytes.Buffer{}, tree); err == nil {
		t.Error("Write() accepted a value that cannot be quoted")
	}
}

func TestComponentClause(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.net")
	text := `(export (version E)
  (components
    (comp (ref U1) (value OLD))
    (comp (ref R1) (value 10k))
    (comp (ref U1) (value NEW)))
  (nets))`
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	comp, err := ComponentClause(path, "U1")
	if err != nil {
		t.Fatal(err)
	}
	if got := comp.String(); got != "(comp (ref U1) (value NEW))" {
		t.Errorf("clause = %q, want the last declaration", got)
	}

	if _, err := ComponentClause(path, "C1"); err == nil {
		t.Error("expected an error for a missing component")
	}
	if _, err := ComponentClause(filepath.Join(t.TempDir(), "missing.net"), "U1"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
