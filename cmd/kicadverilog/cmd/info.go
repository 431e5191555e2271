package cmd

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/circuit"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/diag"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/netlist"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/refsort"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/verilog"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <netlist_file> [part]",
	Short: "Show how a netlist is interpreted",
	Long: `Display the parts, nets and inferred roles of a KiCad netlist.

Without part argument: shows the netlist summary
With part argument: shows the pins, buses and Verilog fields of that part`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]
	tree, err := netlist.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing netlist: %w", err)
	}

	log := diag.New()
	nl := circuit.Build(tree, log)

	if len(args) >= 2 {
		part, ok := nl.Part(args[1])
		if !ok {
			return fmt.Errorf("part %s not found", args[1])
		}
		clause, err := netlist.ComponentClause(filename, part.Ref)
		if err != nil {
			return fmt.Errorf("error reading part clause: %w", err)
		}
		showPartDetails(part)
		fmt.Printf("  Declared as:\n    %s\n", clause)
		return nil
	}

	showNetlistSummary(tree, nl, filename)
	if entries := log.Entries(); len(entries) > 0 {
		fmt.Println("Diagnostics:")
		for _, e := range entries {
			fmt.Printf("  %s\n", e)
		}
	}
	return nil
}

func showNetlistSummary(tree *netlist.Tree, nl *circuit.Netlist, filename string) {
	fmt.Printf("Netlist: %s\n", filename)
	fmt.Printf("Version: %s\n", tree.Version)
	if tree.Design.Source != "" {
		fmt.Printf("Source: %s\n", tree.Design.Source)
	}
	if tree.Design.Tool != "" {
		fmt.Printf("Tool: %s\n", tree.Design.Tool)
	}
	fmt.Println()

	fmt.Println("Statistics:")
	fmt.Printf("  Components: %d\n", len(tree.Components))
	fmt.Printf("  Library parts: %d\n", len(tree.LibParts))
	fmt.Printf("  Libraries: %d\n", len(tree.Libraries))
	fmt.Printf("  Nets: %d\n", len(tree.Nets))
	fmt.Println()

	if len(nl.Parts) > 0 {
		fmt.Println("Parts:")
		fmt.Printf("  %-10s %-20s %5s  %s\n", "Ref", "Part", "Pins", "Role")
		for _, part := range nl.SortedParts() {
			role := ""
			if part.Role() != circuit.RoleNone {
				role = part.Role().String()
			}
			fmt.Printf("  %-10s %-20s %5d  %s\n", part.Ref, part.Lib+":"+part.Name, len(part.Pins), role)
		}
		fmt.Println()
	}

	if len(nl.Nets) > 0 {
		fmt.Println("Nets:")
		for _, net := range nl.Nets {
			fmt.Printf("  %-24s %-8s %d pins  %s\n", net.Name, netKind(net), len(net.Pins), strings.Join(netRefs(net), ", "))
		}
		fmt.Println()
	}

	if includes := nl.Includes(); len(includes) > 0 {
		fmt.Printf("Includes: %s\n\n", strings.Join(includes, ", "))
	}
}

func netKind(net *circuit.Net) string {
	switch {
	case net.IsPower():
		return "power"
	case net.IsGround():
		return "ground"
	case net.Pulled() == circuit.PulledUp:
		return "tri1"
	case net.Pulled() == circuit.PulledDown:
		return "tri0"
	default:
		return "wire"
	}
}

// netRefs returns the distinct refs of the parts on net in natural order.
func netRefs(net *circuit.Net) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, pin := range net.Pins {
		if !seen[pin.Part.Ref] {
			seen[pin.Part.Ref] = true
			refs = append(refs, pin.Part.Ref)
		}
	}
	refsort.Sort(refs)
	return refs
}

func showPartDetails(part *circuit.Part) {
	fmt.Printf("Part: %s\n", part.Ref)
	fmt.Printf("  Library part: %s:%s\n", part.Lib, part.Name)
	if part.Value != "" {
		fmt.Printf("  Value: %s\n", part.Value)
	}
	if part.Description != "" {
		fmt.Printf("  Description: %s\n", part.Description)
	}
	if part.Role() != circuit.RoleNone {
		fmt.Printf("  Role: %s (no module generated)\n", part.Role())
	}
	fmt.Println()

	if len(part.Pins) > 0 {
		fmt.Println("  Pins:")
		for _, pin := range part.Pins {
			net := "(unconnected)"
			if pin.Net != nil {
				net = pin.Net.Name
			}
			fmt.Printf("    %-4s %-16s %-14s %s\n", pin.Num, verilog.Legalize(pin.UniqueName), pin.Type, net)
		}
		fmt.Println()
	}

	var nets []string
	seen := make(map[*circuit.Net]bool)
	for _, net := range part.Nets() {
		if !seen[net] {
			seen[net] = true
			nets = append(nets, net.Name)
		}
	}
	if len(nets) > 0 {
		fmt.Printf("  Nets: %s\n", strings.Join(nets, ", "))
	}

	for _, bus := range part.Buses {
		if len(bus.Members) <= 1 {
			continue
		}
		var names []string
		for _, pin := range bus.Descending() {
			names = append(names, pin.UniqueName)
		}
		fmt.Printf("  Bus %s: {%s}\n", bus.Name, strings.Join(names, ", "))
	}

	if v := part.Verilog; v.HasInclude || v.HasModulePorts || v.HasCode {
		fmt.Println("  Verilog fields:")
		if v.HasInclude {
			fmt.Printf("    Include: %s\n", v.Include)
		}
		if v.HasModulePorts {
			fmt.Printf("    Module ports: %s\n", strings.Join(v.ModulePorts, ", "))
		}
		if v.HasCode {
			fmt.Printf("    Code:\n%s\n", verilog.Unescape(v.Code))
		}
	}
}
