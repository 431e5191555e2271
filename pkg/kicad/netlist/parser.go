package netlist

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/sexp"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/sexp/kicadsexp"
	"golang.org/x/text/encoding/charmap"
)

// The accepted grammar, keywords matched without regard to case. Sub-clauses
// after (version) may appear in any order; "a|b" are alternative spellings
// of one field, "?" marks optional, "*" zero or more, "+" one or more.
//
//	export     = (export version design components libparts? libraries? nets)
//	design     = (design source? date? tool? textvar* sheet*)
//	sheet      = (sheet number name|names tstamp|tstamps title_block?)
//	title_block= (title_block title? company? rev? date? source? comment*)
//	comment    = (comment number value)
//	components = (components comp*)
//	comp       = (comp ref value datasheet? fields? libsource? footprint?
//	                   sheetpath? tstamp|tstamps? property*)
//	fields     = (fields field*)
//	field      = (field name|names VALUE?)
//	libsource  = (libsource lib part description?)
//	sheetpath  = (sheetpath name|names tstamp|tstamps)
//	property   = (property name|names value?)
//	libparts   = (libparts libpart*)
//	libpart    = (libpart lib part fields? pins? footprints? aliases?
//	                      description? docs?)
//	pins       = (pins pin*)
//	pin        = (pin num name|names type)
//	libraries  = (libraries library*)
//	library    = (library logical uri)
//	nets       = (nets net*)
//	net        = (net code name|names node+)
//	node       = (node ref pin pinfunction? pintype?)

// ParseFile reads and parses a netlist file.
func ParseFile(filename string) (*Tree, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(filename, file)
}

// Parse reads a Latin-1 encoded netlist from r. filename is only used in
// error positions.
func Parse(filename string, r io.Reader) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read netlist: %w", err)
	}

	text, err := DecodeLatin1(data)
	if err != nil {
		return nil, err
	}

	return ParseString(filename, text)
}

// ParseString parses netlist text that is already decoded.
func ParseString(filename, text string) (*Tree, error) {
	root, err := kicadsexp.ParseString(filename, text)
	if err != nil {
		return nil, malformed(err)
	}

	tree, err := parseExport(root)
	if err != nil {
		return nil, malformed(err)
	}
	return tree, nil
}

// DecodeLatin1 maps every byte to the code point of the same value, so any
// byte sequence decodes without loss.
func DecodeLatin1(data []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode netlist: %w", err)
	}
	return string(out), nil
}

func parseExport(root *kicadsexp.List) (*Tree, error) {
	if !root.Is("export") {
		return nil, &sexp.ShapeError{Pos: root.Pos, Expected: "(export ...)", Found: "(" + root.Keyword + " ...)"}
	}

	// (version) must lead; the rest may come in any order
	subs := root.Lists()
	if len(subs) == 0 || !subs[0].Is("version") {
		found := "end of (export ...)"
		if len(subs) > 0 {
			found = "(" + subs[0].Keyword + " ...)"
		}
		return nil, &sexp.ShapeError{Pos: root.Pos, Expected: "(version ...) first in (export ...)", Found: found}
	}
	if len(root.Atoms()) > 0 {
		return nil, unexpectedValue(root)
	}

	r := sexp.NewReader(root)
	tree := &Tree{}

	version := r.Required("version")
	design := r.Required("design")
	components := r.Required("components")
	libparts := r.Optional("libparts")
	libraries := r.Optional("libraries")
	nets := r.Required("nets")
	if err := r.Done(); err != nil {
		return nil, err
	}

	var err error
	if tree.Version, err = leaf(version); err != nil {
		return nil, err
	}
	if tree.Design, err = parseDesign(design); err != nil {
		return nil, err
	}
	if tree.Components, err = parseComponents(components); err != nil {
		return nil, err
	}
	if libparts != nil {
		if tree.LibParts, err = parseLibParts(libparts); err != nil {
			return nil, err
		}
	}
	if libraries != nil {
		if tree.Libraries, err = parseLibraries(libraries); err != nil {
			return nil, err
		}
	}
	if tree.Nets, err = parseNets(nets); err != nil {
		return nil, err
	}

	return tree, nil
}

// leaf returns the value of a clause that must not contain sub-clauses.
// A nil clause is an absent optional field and yields "".
func leaf(list *kicadsexp.List) (string, error) {
	if list == nil {
		return "", nil
	}
	if subs := list.Lists(); len(subs) > 0 {
		return "", &sexp.ShapeError{
			Pos:      subs[0].Pos,
			Expected: fmt.Sprintf("a value in (%s ...)", list.Keyword),
			Found:    "(" + subs[0].Keyword + " ...)",
		}
	}
	return sexp.ValueOf(list), nil
}

// leaves resolves several leaf clauses, stopping at the first error.
func leaves(dst []*string, lists ...*kicadsexp.List) error {
	for i, list := range lists {
		v, err := leaf(list)
		if err != nil {
			return err
		}
		*dst[i] = v
	}
	return nil
}

func unexpectedValue(list *kicadsexp.List) error {
	atom := list.Atoms()[0]
	return &sexp.ShapeError{
		Pos:      atom.Pos,
		Expected: fmt.Sprintf("only sub-clauses in (%s ...)", list.Keyword),
		Found:    fmt.Sprintf("%q", atom.Value),
	}
}

// container checks that a clause holds sub-clauses only.
func container(list *kicadsexp.List) error {
	if len(list.Atoms()) > 0 {
		return unexpectedValue(list)
	}
	return nil
}

func parseDesign(list *kicadsexp.List) (Design, error) {
	var d Design
	if err := container(list); err != nil {
		return d, err
	}

	r := sexp.NewReader(list)
	source := r.Optional("source")
	date := r.Optional("date")
	tool := r.Optional("tool")
	textvars := r.Repeated("textvar")
	sheets := r.Repeated("sheet")
	if err := r.Done(); err != nil {
		return d, err
	}

	if err := leaves([]*string{&d.Source, &d.Date, &d.Tool}, source, date, tool); err != nil {
		return d, err
	}

	for _, tv := range textvars {
		field, err := parseField(tv)
		if err != nil {
			return d, err
		}
		d.TextVars = append(d.TextVars, TextVar{Name: field.Name, Value: field.Value})
	}

	for _, s := range sheets {
		sheet, err := parseSheet(s)
		if err != nil {
			return d, err
		}
		d.Sheets = append(d.Sheets, sheet)
	}

	return d, nil
}

func parseSheet(list *kicadsexp.List) (Sheet, error) {
	var s Sheet
	if err := container(list); err != nil {
		return s, err
	}

	r := sexp.NewReader(list)
	number := r.Required("number")
	name := r.Required("name", "names")
	tstamp := r.Required("tstamp", "tstamps")
	titleBlock := r.Optional("title_block")
	if err := r.Done(); err != nil {
		return s, err
	}

	if err := leaves([]*string{&s.Number, &s.Name, &s.Tstamp}, number, name, tstamp); err != nil {
		return s, err
	}

	if titleBlock != nil {
		tb, err := parseTitleBlock(titleBlock)
		if err != nil {
			return s, err
		}
		s.TitleBlock = tb
	}

	return s, nil
}

func parseTitleBlock(list *kicadsexp.List) (*TitleBlock, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	title := r.Optional("title")
	company := r.Optional("company")
	rev := r.Optional("rev")
	date := r.Optional("date")
	source := r.Optional("source")
	comments := r.Repeated("comment")
	if err := r.Done(); err != nil {
		return nil, err
	}

	tb := &TitleBlock{}
	if err := leaves([]*string{&tb.Title, &tb.Company, &tb.Rev, &tb.Date, &tb.Source},
		title, company, rev, date, source); err != nil {
		return nil, err
	}

	for _, c := range comments {
		cr := sexp.NewReader(c)
		number := cr.Required("number")
		text := cr.Required("value")
		if err := cr.Done(); err != nil {
			return nil, err
		}

		var comment Comment
		if err := leaves([]*string{&comment.Number, &comment.Text}, number, text); err != nil {
			return nil, err
		}
		tb.Comments = append(tb.Comments, comment)
	}

	return tb, nil
}

func parseComponents(list *kicadsexp.List) ([]Component, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	comps := r.Repeated("comp")
	if err := r.Done(); err != nil {
		return nil, err
	}

	result := make([]Component, 0, len(comps))
	for _, c := range comps {
		comp, err := parseComponent(c)
		if err != nil {
			return nil, err
		}
		result = append(result, comp)
	}
	return result, nil
}

func parseComponent(list *kicadsexp.List) (Component, error) {
	var c Component
	if err := container(list); err != nil {
		return c, err
	}

	r := sexp.NewReader(list)
	ref := r.Required("ref")
	value := r.Required("value")
	datasheet := r.Optional("datasheet")
	fields := r.Optional("fields")
	libsource := r.Optional("libsource")
	footprint := r.Optional("footprint")
	sheetpath := r.Optional("sheetpath")
	tstamp := r.Optional("tstamp", "tstamps")
	properties := r.Repeated("property")
	if err := r.Done(); err != nil {
		return c, err
	}

	if err := leaves([]*string{&c.Ref, &c.Value, &c.Datasheet, &c.Footprint, &c.Tstamp},
		ref, value, datasheet, footprint, tstamp); err != nil {
		return c, err
	}

	var err error
	if fields != nil {
		if c.Fields, err = parseFields(fields); err != nil {
			return c, err
		}
	}

	if libsource != nil {
		if c.LibSource, err = parseLibSource(libsource); err != nil {
			return c, err
		}
	}

	if sheetpath != nil {
		if err := container(sheetpath); err != nil {
			return c, err
		}
		sr := sexp.NewReader(sheetpath)
		names := sr.Required("name", "names")
		tstamps := sr.Required("tstamp", "tstamps")
		if err := sr.Done(); err != nil {
			return c, err
		}
		sp := &SheetPath{}
		if err := leaves([]*string{&sp.Names, &sp.Tstamps}, names, tstamps); err != nil {
			return c, err
		}
		c.SheetPath = sp
	}

	for _, p := range properties {
		prop, err := parseProperty(p)
		if err != nil {
			return c, err
		}
		c.Properties = append(c.Properties, prop)
	}

	return c, nil
}

func parseFields(list *kicadsexp.List) ([]Field, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	entries := r.Repeated("field")
	if err := r.Done(); err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(entries))
	for _, e := range entries {
		f, err := parseField(e)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// parseField reads (field (name X) value), where the value is a bare atom.
func parseField(list *kicadsexp.List) (Field, error) {
	var f Field
	r := sexp.NewReader(list)
	name := r.Required("name", "names")
	if err := r.Done(); err != nil {
		return f, err
	}

	var err error
	if f.Name, err = leaf(name); err != nil {
		return f, err
	}
	f.Value = r.Value()
	return f, nil
}

// parseProperty reads (property (name X) (value Y)).
func parseProperty(list *kicadsexp.List) (Field, error) {
	var f Field
	if err := container(list); err != nil {
		return f, err
	}

	r := sexp.NewReader(list)
	name := r.Required("name", "names")
	value := r.Optional("value")
	if err := r.Done(); err != nil {
		return f, err
	}

	err := leaves([]*string{&f.Name, &f.Value}, name, value)
	return f, err
}

func parseLibSource(list *kicadsexp.List) (*LibSource, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	lib := r.Required("lib")
	part := r.Required("part")
	desc := r.Optional("description")
	if err := r.Done(); err != nil {
		return nil, err
	}

	ls := &LibSource{}
	if err := leaves([]*string{&ls.Lib, &ls.Part, &ls.Description}, lib, part, desc); err != nil {
		return nil, err
	}
	return ls, nil
}

func parseLibParts(list *kicadsexp.List) ([]LibPart, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	entries := r.Repeated("libpart")
	if err := r.Done(); err != nil {
		return nil, err
	}

	result := make([]LibPart, 0, len(entries))
	for _, e := range entries {
		lp, err := parseLibPart(e)
		if err != nil {
			return nil, err
		}
		result = append(result, lp)
	}
	return result, nil
}

func parseLibPart(list *kicadsexp.List) (LibPart, error) {
	var lp LibPart
	if err := container(list); err != nil {
		return lp, err
	}

	r := sexp.NewReader(list)
	lib := r.Required("lib")
	part := r.Required("part")
	fields := r.Optional("fields")
	pins := r.Optional("pins")
	footprints := r.Optional("footprints")
	aliases := r.Optional("aliases")
	desc := r.Optional("description")
	docs := r.Optional("docs")
	if err := r.Done(); err != nil {
		return lp, err
	}

	if err := leaves([]*string{&lp.Lib, &lp.Part, &lp.Description, &lp.Docs},
		lib, part, desc, docs); err != nil {
		return lp, err
	}

	var err error
	if fields != nil {
		if lp.Fields, err = parseFields(fields); err != nil {
			return lp, err
		}
	}

	if pins != nil {
		if lp.Pins, err = parsePinDecls(pins); err != nil {
			return lp, err
		}
	}

	if footprints != nil {
		if lp.Footprints, err = parseLeafList(footprints, "fp"); err != nil {
			return lp, err
		}
	}

	if aliases != nil {
		if lp.Aliases, err = parseLeafList(aliases, "alias"); err != nil {
			return lp, err
		}
	}

	return lp, nil
}

func parsePinDecls(list *kicadsexp.List) ([]PinDecl, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	entries := r.Repeated("pin")
	if err := r.Done(); err != nil {
		return nil, err
	}

	pins := make([]PinDecl, 0, len(entries))
	for _, e := range entries {
		if err := container(e); err != nil {
			return nil, err
		}
		pr := sexp.NewReader(e)
		num := pr.Required("num")
		name := pr.Required("name", "names")
		typ := pr.Required("type")
		if err := pr.Done(); err != nil {
			return nil, err
		}

		var pin PinDecl
		if err := leaves([]*string{&pin.Num, &pin.Name, &pin.Type}, num, name, typ); err != nil {
			return nil, err
		}
		pins = append(pins, pin)
	}
	return pins, nil
}

// parseLeafList reads a clause holding repeated (keyword value) entries,
// such as (footprints (fp A) (fp B)).
func parseLeafList(list *kicadsexp.List, keyword string) ([]string, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	entries := r.Repeated(keyword)
	if err := r.Done(); err != nil {
		return nil, err
	}

	values := make([]string, 0, len(entries))
	for _, e := range entries {
		v, err := leaf(e)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func parseLibraries(list *kicadsexp.List) ([]Library, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	entries := r.Repeated("library")
	if err := r.Done(); err != nil {
		return nil, err
	}

	libs := make([]Library, 0, len(entries))
	for _, e := range entries {
		if err := container(e); err != nil {
			return nil, err
		}
		lr := sexp.NewReader(e)
		logical := lr.Required("logical")
		uri := lr.Required("uri")
		if err := lr.Done(); err != nil {
			return nil, err
		}

		var lib Library
		if err := leaves([]*string{&lib.Logical, &lib.URI}, logical, uri); err != nil {
			return nil, err
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

func parseNets(list *kicadsexp.List) ([]Net, error) {
	if err := container(list); err != nil {
		return nil, err
	}

	r := sexp.NewReader(list)
	entries := r.Repeated("net")
	if err := r.Done(); err != nil {
		return nil, err
	}

	nets := make([]Net, 0, len(entries))
	for _, e := range entries {
		net, err := parseNet(e)
		if err != nil {
			return nil, err
		}
		nets = append(nets, net)
	}
	return nets, nil
}

func parseNet(list *kicadsexp.List) (Net, error) {
	var n Net
	if err := container(list); err != nil {
		return n, err
	}

	r := sexp.NewReader(list)
	code := r.Required("code")
	name := r.Required("name", "names")
	nodes := r.AtLeastOne("node")
	if err := r.Done(); err != nil {
		return n, err
	}

	if err := leaves([]*string{&n.Code, &n.Name}, code, name); err != nil {
		return n, err
	}

	for _, nd := range nodes {
		if err := container(nd); err != nil {
			return n, err
		}
		nr := sexp.NewReader(nd)
		ref := nr.Required("ref")
		pin := nr.Required("pin")
		fn := nr.Optional("pinfunction")
		typ := nr.Optional("pintype")
		if err := nr.Done(); err != nil {
			return n, err
		}

		var node Node
		if err := leaves([]*string{&node.Ref, &node.Pin, &node.PinFunction, &node.PinType},
			ref, pin, fn, typ); err != nil {
			return n, err
		}
		n.Nodes = append(n.Nodes, node)
	}

	return n, nil
}

// ComponentClause returns the (comp ...) clause that declares ref in the
// netlist file, as written. When ref is declared more than once the last
// declaration is returned, the one Build keeps.
func ComponentClause(filename, ref string) (*kicadsexp.List, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read netlist: %w", err)
	}
	text, err := DecodeLatin1(data)
	if err != nil {
		return nil, err
	}
	root, err := kicadsexp.ParseString(filename, text)
	if err != nil {
		return nil, malformed(err)
	}

	var found *kicadsexp.List
	for _, components := range sexp.FindAllNodes(root, "components") {
		for _, comp := range sexp.FindAllNodes(components, "comp") {
			node, ok := sexp.FindNode(comp, "ref")
			if !ok {
				continue
			}
			if v, _ := sexp.GetValue(node); v == ref {
				found = comp
			}
		}
	}
	if found == nil {
		return nil, fmt.Errorf("component %s not found in %s", ref, filename)
	}
	return found, nil
}
