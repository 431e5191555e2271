// Package netlist parses KiCad netlist exports, the (export ...) files written
// by Eeschema's "Export Netlist" command, into a typed parse tree.
//
// The tree mirrors the file: design metadata, component instances, library
// parts, libraries and nets. It is produced once per file and is read-only
// afterwards; package circuit builds the connected object model from it.
package netlist

// Tree is the parsed contents of one netlist file.
type Tree struct {
	Version    string
	Design     Design
	Components []Component
	LibParts   []LibPart
	Libraries  []Library
	Nets       []Net
}

// Design holds the (design ...) metadata. Nothing downstream depends on it
// except Source, which names the schematic the netlist came from.
type Design struct {
	Source   string
	Date     string
	Tool     string
	TextVars []TextVar
	Sheets   []Sheet
}

// TextVar is a project text variable, (textvar (name X) value).
type TextVar struct {
	Name  string
	Value string
}

// Sheet is one schematic sheet of the design.
type Sheet struct {
	Number     string
	Name       string
	Tstamp     string
	TitleBlock *TitleBlock
}

// TitleBlock is a sheet's title block.
type TitleBlock struct {
	Title    string
	Company  string
	Rev      string
	Date     string
	Source   string
	Comments []Comment
}

// Comment is a numbered title block comment line.
type Comment struct {
	Number string
	Text   string
}

// Component is one placed part, a (comp ...) clause.
type Component struct {
	Ref        string
	Value      string
	Datasheet  string
	Footprint  string
	Tstamp     string
	Fields     []Field
	LibSource  *LibSource
	SheetPath  *SheetPath
	Properties []Field
}

// Field is a user field or property: a name with a value.
type Field struct {
	Name  string
	Value string
}

// LibSource names the library part a component was placed from.
type LibSource struct {
	Lib         string
	Part        string
	Description string
}

// SheetPath locates a component in the sheet hierarchy.
type SheetPath struct {
	Names   string
	Tstamps string
}

// LibPart is a library part template shared by all components placed from it.
type LibPart struct {
	Lib         string
	Part        string
	Description string
	Docs        string
	Fields      []Field
	Pins        []PinDecl
	Footprints  []string
	Aliases     []string
}

// PinDecl is a pin as declared by a library part.
type PinDecl struct {
	Num  string
	Name string
	Type string
}

// Library maps a logical library name to its location.
type Library struct {
	Logical string
	URI     string
}

// Net is a set of connected component pins.
type Net struct {
	Code  string
	Name  string
	Nodes []Node
}

// Node is one component pin on a net.
type Node struct {
	Ref         string
	Pin         string
	PinFunction string
	PinType     string
}

// FindLibPart returns the library part with exactly matching library and
// part names.
func (t *Tree) FindLibPart(lib, part string) (*LibPart, bool) {
	for i := range t.LibParts {
		if t.LibParts[i].Lib == lib && t.LibParts[i].Part == part {
			return &t.LibParts[i], true
		}
	}
	return nil, false
}
