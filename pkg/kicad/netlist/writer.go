package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Write renders tree in netlist syntax, Latin-1 encoded, so that parsing the
// output yields an equal tree. Values that cannot be expressed in any quoting
// style are reported as errors.
func Write(w io.Writer, tree *Tree) error {
	var b strings.Builder
	nw := &netlistWriter{b: &b}
	nw.export(tree)
	if nw.err != nil {
		return nw.err
	}

	out, err := charmap.ISO8859_1.NewEncoder().String(b.String())
	if err != nil {
		return fmt.Errorf("failed to encode netlist: %w", err)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(out); err != nil {
		return err
	}
	return bw.Flush()
}

// quote picks a representation of v that the parser reads back unchanged.
// Quoted contents are not unescaped by the parser, so v only has to avoid
// closing the quote early.
func quote(v string) (string, bool) {
	if !strings.HasSuffix(v, `\`) {
		if !strings.Contains(v, `"`) {
			return `"` + v + `"`, true
		}
		if !strings.Contains(v, `'`) {
			return `'` + v + `'`, true
		}
	}

	// Fall back to a bare run, which ends at the first parenthesis
	if v == "" || strings.ContainsAny(v, "()") || strings.TrimSpace(v) != v {
		return "", false
	}
	if v[0] == '"' || v[0] == '\'' {
		return "", false
	}
	return v, true
}

type netlistWriter struct {
	b     *strings.Builder
	depth int
	err   error
}

func (w *netlistWriter) indent() {
	w.b.WriteString("\n")
	w.b.WriteString(strings.Repeat("  ", w.depth))
}

func (w *netlistWriter) open(keyword string) {
	if w.depth > 0 {
		w.indent()
	}
	w.b.WriteString("(" + keyword)
	w.depth++
}

func (w *netlistWriter) close() {
	w.depth--
	w.b.WriteString(")")
}

func (w *netlistWriter) value(v string) {
	q, ok := quote(v)
	if !ok {
		if w.err == nil {
			w.err = fmt.Errorf("netlist: value %q cannot be written", v)
		}
		return
	}
	w.b.WriteString(" " + q)
}

// leaf writes (keyword "value") on the current line.
func (w *netlistWriter) leaf(keyword, v string) {
	w.b.WriteString(" (" + keyword)
	w.value(v)
	w.b.WriteString(")")
}

// leafLine writes (keyword "value") on a line of its own.
func (w *netlistWriter) leafLine(keyword, v string) {
	w.open(keyword)
	w.value(v)
	w.close()
}

func (w *netlistWriter) export(t *Tree) {
	w.open("export")
	w.leaf("version", t.Version)

	w.design(t.Design)

	w.open("components")
	for _, c := range t.Components {
		w.component(c)
	}
	w.close()

	if t.LibParts != nil {
		w.open("libparts")
		for _, lp := range t.LibParts {
			w.libPart(lp)
		}
		w.close()
	}

	if t.Libraries != nil {
		w.open("libraries")
		for _, lib := range t.Libraries {
			w.open("library")
			w.leaf("logical", lib.Logical)
			w.leaf("uri", lib.URI)
			w.close()
		}
		w.close()
	}

	w.open("nets")
	for _, n := range t.Nets {
		w.open("net")
		w.leaf("code", n.Code)
		w.leaf("name", n.Name)
		for _, node := range n.Nodes {
			w.open("node")
			w.leaf("ref", node.Ref)
			w.leaf("pin", node.Pin)
			if node.PinFunction != "" {
				w.leaf("pinfunction", node.PinFunction)
			}
			if node.PinType != "" {
				w.leaf("pintype", node.PinType)
			}
			w.close()
		}
		w.close()
	}
	w.close()

	w.close()
	w.b.WriteString("\n")
}

func (w *netlistWriter) design(d Design) {
	w.open("design")
	if d.Source != "" {
		w.leafLine("source", d.Source)
	}
	if d.Date != "" {
		w.leafLine("date", d.Date)
	}
	if d.Tool != "" {
		w.leafLine("tool", d.Tool)
	}
	for _, tv := range d.TextVars {
		w.open("textvar")
		w.leaf("name", tv.Name)
		w.value(tv.Value)
		w.close()
	}
	for _, s := range d.Sheets {
		w.open("sheet")
		w.leaf("number", s.Number)
		w.leaf("name", s.Name)
		w.leaf("tstamps", s.Tstamp)
		if tb := s.TitleBlock; tb != nil {
			w.open("title_block")
			w.leafLine("title", tb.Title)
			w.leafLine("company", tb.Company)
			w.leafLine("rev", tb.Rev)
			w.leafLine("date", tb.Date)
			w.leafLine("source", tb.Source)
			for _, c := range tb.Comments {
				w.open("comment")
				w.leaf("number", c.Number)
				w.leaf("value", c.Text)
				w.close()
			}
			w.close()
		}
		w.close()
	}
	w.close()
}

func (w *netlistWriter) component(c Component) {
	w.open("comp")
	w.leaf("ref", c.Ref)
	w.leafLine("value", c.Value)
	if c.Footprint != "" {
		w.leafLine("footprint", c.Footprint)
	}
	if c.Datasheet != "" {
		w.leafLine("datasheet", c.Datasheet)
	}
	if c.Fields != nil {
		w.fields(c.Fields)
	}
	if ls := c.LibSource; ls != nil {
		w.open("libsource")
		w.leaf("lib", ls.Lib)
		w.leaf("part", ls.Part)
		if ls.Description != "" {
			w.leaf("description", ls.Description)
		}
		w.close()
	}
	for _, p := range c.Properties {
		w.open("property")
		w.leaf("name", p.Name)
		w.leaf("value", p.Value)
		w.close()
	}
	if sp := c.SheetPath; sp != nil {
		w.open("sheetpath")
		w.leaf("names", sp.Names)
		w.leaf("tstamps", sp.Tstamps)
		w.close()
	}
	if c.Tstamp != "" {
		w.leafLine("tstamps", c.Tstamp)
	}
	w.close()
}

func (w *netlistWriter) fields(fields []Field) {
	w.open("fields")
	for _, f := range fields {
		w.open("field")
		w.leaf("name", f.Name)
		if f.Value != "" {
			w.value(f.Value)
		}
		w.close()
	}
	w.close()
}

func (w *netlistWriter) libPart(lp LibPart) {
	w.open("libpart")
	w.leaf("lib", lp.Lib)
	w.leaf("part", lp.Part)
	if lp.Description != "" {
		w.leafLine("description", lp.Description)
	}
	if lp.Docs != "" {
		w.leafLine("docs", lp.Docs)
	}
	if lp.Footprints != nil {
		w.open("footprints")
		for _, fp := range lp.Footprints {
			w.leafLine("fp", fp)
		}
		w.close()
	}
	if lp.Aliases != nil {
		w.open("aliases")
		for _, a := range lp.Aliases {
			w.leafLine("alias", a)
		}
		w.close()
	}
	if lp.Fields != nil {
		w.fields(lp.Fields)
	}
	if lp.Pins != nil {
		w.open("pins")
		for _, p := range lp.Pins {
			w.open("pin")
			w.leaf("num", p.Num)
			w.leaf("name", p.Name)
			w.leaf("type", p.Type)
			w.close()
		}
		w.close()
	}
	w.close()
}
