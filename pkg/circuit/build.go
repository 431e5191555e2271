package circuit

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/diag"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/netlist"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/refsort"
)

// Build creates the object model for a parsed netlist. Structural problems
// are logged as warnings; Build itself never fails.
func Build(tree *netlist.Tree, log *diag.Log) *Netlist {
	nl := &Netlist{
		Source:     tree.Design.Source,
		partsByRef: make(map[string]*Part),
		netsByName: make(map[string]*Net),
	}

	for _, comp := range tree.Components {
		part := newPart(comp, tree.LibParts, log)
		if prev, ok := nl.partsByRef[part.Ref]; ok {
			log.Warningf("Part %s is declared more than once; the last declaration is used", part.Ref)
			for i, p := range nl.Parts {
				if p == prev {
					nl.Parts[i] = part
				}
			}
		} else {
			nl.Parts = append(nl.Parts, part)
		}
		nl.partsByRef[part.Ref] = part
	}

	for _, decl := range tree.Nets {
		net, ok := nl.netsByName[decl.Name]
		if !ok {
			net = &Net{Name: decl.Name, Code: decl.Code}
			nl.netsByName[decl.Name] = net
			nl.Nets = append(nl.Nets, net)
		}

		for _, node := range decl.Nodes {
			// Nodes on parts or pins we don't know are ignored
			part, ok := nl.partsByRef[node.Ref]
			if !ok {
				continue
			}
			pin, ok := part.Pin(node.Pin)
			if !ok {
				continue
			}
			pin.Net = net
			net.Pins = append(net.Pins, pin)
		}
	}

	// All nets are attached; roles can now be inferred
	for _, part := range nl.Parts {
		part.role = inferRole(part)
		switch part.role {
		case RolePullUp:
			markFirst(part, func(n *Net) bool { return !n.IsPower() }, PulledUp)
		case RolePullDown:
			markFirst(part, func(n *Net) bool { return !n.IsGround() }, PulledDown)
		}
	}

	return nl
}

// newPart builds a part from its component and copies of its library part's
// pins. libparts is searched for an exact library and part name match.
func newPart(comp netlist.Component, libparts []netlist.LibPart, log *diag.Log) *Part {
	part := &Part{
		Ref:       comp.Ref,
		Value:     comp.Value,
		Fields:    newFields(comp),
		pinsByNum: make(map[string]*Pin),
	}
	part.Verilog = resolveVerilogFields(part.Fields)

	if comp.LibSource == nil {
		log.Warningf("Part %s has no library source, so it has no pins", comp.Ref)
		return part
	}
	part.Lib = comp.LibSource.Lib
	part.Name = comp.LibSource.Part

	for i := range libparts {
		if libparts[i].Lib == part.Lib && libparts[i].Part == part.Name {
			part.LibPart = &libparts[i]
			break
		}
	}
	if part.LibPart == nil {
		log.Warningf("Part %s has no matching library part %s:%s, so it has no pins", comp.Ref, part.Lib, part.Name)
		return part
	}
	part.Description = part.LibPart.Description

	for _, decl := range part.LibPart.Pins {
		pin := &Pin{
			Num:     decl.Num,
			Name:    decl.Name,
			Type:    ParsePinType(decl.Type),
			RawType: decl.Type,
			Part:    part,
		}
		// A repeated pin number replaces the earlier declaration in place
		if prev, ok := part.pinsByNum[decl.Num]; ok {
			for i, p := range part.Pins {
				if p == prev {
					part.Pins[i] = pin
				}
			}
		} else {
			part.Pins = append(part.Pins, pin)
		}
		part.pinsByNum[decl.Num] = pin
	}

	assignUniqueNames(part.Pins)
	part.Buses = detectBuses(part.Pins)
	return part
}

// assignUniqueNames gives every pin a name distinct within its part. Pins
// whose names collide, and unnamed pins, get their pin number appended.
func assignUniqueNames(pins []*Pin) {
	counts := make(map[string]int)
	for _, pin := range pins {
		counts[pin.Name]++
	}

	taken := make(map[string]bool)
	for _, pin := range pins {
		if counts[pin.Name] == 1 && pin.Name != "" {
			pin.UniqueName = pin.Name
			taken[pin.Name] = true
		}
	}
	for _, pin := range pins {
		if pin.UniqueName != "" {
			continue
		}
		name := pin.Name + "_" + pin.Num
		for taken[name] {
			name += "_" + pin.Num
		}
		pin.UniqueName = name
		taken[name] = true
	}
}

// detectBuses groups pins whose names are a prefix followed by a number.
// Single-member buses are kept; the emitter decides what to do with them.
func detectBuses(pins []*Pin) []*Bus {
	var buses []*Bus
	byName := make(map[string]*Bus)
	for _, pin := range pins {
		split := refsort.Split(pin.Name)
		if split.Prefix == "" || !split.HasNumber {
			continue
		}
		bus, ok := byName[split.Prefix]
		if !ok {
			bus = &Bus{Name: split.Prefix}
			byName[split.Prefix] = bus
			buses = append(buses, bus)
		}
		bus.Members = append(bus.Members, BusMember{Index: split, Pin: pin})
	}
	return buses
}

// inferRole classifies two-pin resistors and capacitors by the nets they
// connect. A resistor with one pin on a power net is a pull-up, otherwise
// one with a pin on ground is a pull-down. A capacitor from power to
// ground is a bypass capacitor.
func inferRole(part *Part) Role {
	if len(part.Pins) != 2 {
		return RoleNone
	}

	var power, ground int
	for _, pin := range part.Pins {
		if pin.Net == nil {
			continue
		}
		if pin.Net.IsPower() {
			power++
		}
		if pin.Net.IsGround() {
			ground++
		}
	}

	desc := strings.ToLower(part.Description)
	switch {
	case strings.Contains(desc, "resistor"):
		if power == 1 {
			return RolePullUp
		}
		if ground == 1 {
			return RolePullDown
		}
	case strings.Contains(desc, "capacitor"):
		if power == 1 && ground == 1 {
			return RoleBypass
		}
	}
	return RoleNone
}

// markFirst sets the pull state of the first connected net that satisfies
// pick.
func markFirst(part *Part, pick func(*Net) bool, state Pull) {
	for _, pin := range part.Pins {
		if pin.Net != nil && pick(pin.Net) {
			pin.Net.pull(state)
			return
		}
	}
}

// Includes returns the distinct VerilogInclude files of all parts, in the
// order they are first declared. Blank fields name no file.
func (nl *Netlist) Includes() []string {
	var includes []string
	seen := make(map[string]bool)
	for _, part := range nl.Parts {
		if !part.Verilog.HasInclude || seen[part.Verilog.Include] {
			continue
		}
		if strings.TrimSpace(part.Verilog.Include) == "" {
			continue
		}
		seen[part.Verilog.Include] = true
		includes = append(includes, part.Verilog.Include)
	}
	return includes
}

// ModulePorts returns the nets that the parts' VerilogModulePort fields
// promote to top module ports, mapped to the type of the pin that claimed
// them. Parts are visited in declaration order and a later claim on the same
// net replaces an earlier one.
func (nl *Netlist) ModulePorts(log *diag.Log) map[string]PinType {
	ports := make(map[string]PinType)
	for _, part := range nl.Parts {
		for _, num := range part.Verilog.ModulePorts {
			pin, ok := part.Pin(num)
			if !ok {
				log.Errorf("in part %s, the VerilogModulePort field has the invalid pin number %q", part.Ref, num)
				continue
			}
			if pin.Net == nil {
				log.Warningf("Pin %s on part %s is listed in VerilogModulePort but is not connected to a net", num, part.Ref)
				continue
			}
			ports[pin.Net.Name] = pin.Type
		}
	}
	return ports
}

// String summarizes the netlist for diagnostics.
func (nl *Netlist) String() string {
	return fmt.Sprintf("%d parts, %d nets", len(nl.Parts), len(nl.Nets))
}
