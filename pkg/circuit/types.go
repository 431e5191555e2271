// Package circuit builds the connected object model of a netlist: parts with
// their own pins, nets, inferred buses and the electrical roles of
// two-pin passives.
//
// # Overview
//
// Build runs in two passes separated by a hard barrier:
//  1. Every component becomes a Part whose pins are fresh copies of its
//     library part's pin declarations.
//  2. Every net node is attached to the matching pin.
//
// Only after all nets are attached are the roles of resistors and capacitors
// inferred. Role inference marks the nets that pull-up and pull-down
// resistors drive weakly; it runs exactly once per Netlist.
//
// # Naming conventions
//
// Nets are classified by name only: a net is power when its name starts with
// '+' or is VCC or VDD, and ground when its name starts with GND or VSS
// (case-insensitive).
package circuit

import (
	"sort"
	"strings"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/netlist"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/refsort"
)

// PinType is the electrical type of a pin.
type PinType int

const (
	Bidirectional PinType = iota
	Input
	Output
	TriState
	Passive
	PowerIn
	PowerOut
	OpenCollector
	OpenEmitter
	Unspecified
	Free
	NoConnect
)

var pinTypeNames = map[string]PinType{
	"input":          Input,
	"output":         Output,
	"bidirectional":  Bidirectional,
	"bidi":           Bidirectional,
	"tri_state":      TriState,
	"3state":         TriState,
	"passive":        Passive,
	"power_in":       PowerIn,
	"power_out":      PowerOut,
	"open_collector": OpenCollector,
	"opencol":        OpenCollector,
	"open_emitter":   OpenEmitter,
	"openem":         OpenEmitter,
	"unspecified":    Unspecified,
	"unspc":          Unspecified,
	"free":           Free,
	"no_connect":     NoConnect,
	"notconnected":   NoConnect,
}

// ParsePinType maps a netlist pin type to a PinType. Unrecognized types are
// Bidirectional.
func ParsePinType(s string) PinType {
	if t, ok := pinTypeNames[strings.ToLower(s)]; ok {
		return t
	}
	return Bidirectional
}

func (t PinType) String() string {
	switch t {
	case Input:
		return "input"
	case Output:
		return "output"
	case TriState:
		return "tri_state"
	case Passive:
		return "passive"
	case PowerIn:
		return "power_in"
	case PowerOut:
		return "power_out"
	case OpenCollector:
		return "open_collector"
	case OpenEmitter:
		return "open_emitter"
	case Unspecified:
		return "unspecified"
	case Free:
		return "free"
	case NoConnect:
		return "no_connect"
	default:
		return "bidirectional"
	}
}

// Pin is one pin of a Part. Each Part owns its pins.
type Pin struct {
	Num        string
	Name       string
	Type       PinType
	RawType    string // type as written in the netlist
	UniqueName string // Name, disambiguated within the part
	Part       *Part
	Net        *Net // nil when unconnected
}

// IsPower reports whether the pin is a power pin. Power pins never become
// module ports.
func (p *Pin) IsPower() bool {
	return strings.Contains(strings.ToLower(p.RawType), "power")
}

// BusMember is a pin that belongs to an inferred bus.
type BusMember struct {
	Index refsort.Ref // the pin name split into bus name and index
	Pin   *Pin
}

// Bus groups pins named with a common prefix and a numeric suffix, such as
// A0, A1, A2.
type Bus struct {
	Name    string
	Members []BusMember // in pin declaration order
}

// Descending returns the member pins ordered from the highest index to the
// lowest, the order of a Verilog vector concatenation.
func (b *Bus) Descending() []*Pin {
	members := append([]BusMember(nil), b.Members...)
	sort.SliceStable(members, func(i, j int) bool {
		return refsort.CompareNumbers(members[i].Index, members[j].Index) > 0
	})

	pins := make([]*Pin, len(members))
	for i, m := range members {
		pins[i] = m.Pin
	}
	return pins
}

// Role is the inferred electrical role of a part.
type Role int

const (
	RoleNone Role = iota
	RolePullUp
	RolePullDown
	RoleBypass
)

func (r Role) String() string {
	switch r {
	case RolePullUp:
		return "pull-up resistor"
	case RolePullDown:
		return "pull-down resistor"
	case RoleBypass:
		return "bypass capacitor"
	default:
		return "none"
	}
}

// Part is one component instance.
type Part struct {
	Ref         string
	Name        string // library part name
	Lib         string
	Value       string
	Description string           // library part description
	LibPart     *netlist.LibPart // nil when no library part matched
	Pins        []*Pin           // declaration order
	Buses       []*Bus           // order of first member
	Fields      Fields
	Verilog     VerilogFields

	pinsByNum map[string]*Pin
	role      Role
}

// Pin returns the pin with the given number.
func (p *Part) Pin(num string) (*Pin, bool) {
	pin, ok := p.pinsByNum[num]
	return pin, ok
}

// Bus returns the bus with the given name.
func (p *Part) Bus(name string) (*Bus, bool) {
	for _, b := range p.Buses {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Role returns the role inferred when the netlist was built.
func (p *Part) Role() Role {
	return p.role
}

// Nets returns the nets connected to the part's pins, in pin order.
func (p *Part) Nets() []*Net {
	var nets []*Net
	for _, pin := range p.Pins {
		if pin.Net != nil {
			nets = append(nets, pin.Net)
		}
	}
	return nets
}

// Pull is the weak drive state of a net.
type Pull int

const (
	NotPulled Pull = iota
	PulledDown
	PulledUp
)

// Net is one set of electrically common pins.
type Net struct {
	Name string
	Code string
	Pins []*Pin // attached pins, in node order

	pulled Pull
}

// Pulled returns the weak drive state set by role inference.
func (n *Net) Pulled() Pull {
	return n.pulled
}

// pull records the first resistor that pulls the net; later ones are
// ignored.
func (n *Net) pull(state Pull) {
	if n.pulled == NotPulled {
		n.pulled = state
	}
}

// IsPower reports whether the net's name marks it as a supply rail.
func (n *Net) IsPower() bool {
	return IsPowerName(n.Name)
}

// IsGround reports whether the net's name marks it as ground.
func (n *Net) IsGround() bool {
	return IsGroundName(n.Name)
}

// IsPowerName reports whether name is a power net name: a leading '+', or
// VCC or VDD in any case.
func IsPowerName(name string) bool {
	if strings.HasPrefix(name, "+") {
		return true
	}
	lower := strings.ToLower(name)
	return lower == "vdd" || lower == "vcc"
}

// IsGroundName reports whether name starts with GND or VSS in any case.
func IsGroundName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "gnd") || strings.HasPrefix(lower, "vss")
}

// Netlist is the object model of one netlist file.
type Netlist struct {
	Parts  []*Part // declaration order
	Nets   []*Net  // order of first appearance
	Source string  // schematic the netlist was exported from

	partsByRef map[string]*Part
	netsByName map[string]*Net
}

// Part returns the part with the given reference.
func (nl *Netlist) Part(ref string) (*Part, bool) {
	p, ok := nl.partsByRef[ref]
	return p, ok
}

// Net returns the net with the given name.
func (nl *Netlist) Net(name string) (*Net, bool) {
	n, ok := nl.netsByName[name]
	return n, ok
}

// SortedParts returns the parts in natural reference order.
func (nl *Netlist) SortedParts() []*Part {
	parts := append([]*Part(nil), nl.Parts...)
	sort.SliceStable(parts, func(i, j int) bool {
		return refsort.Less(parts[i].Ref, parts[j].Ref)
	})
	return parts
}
