package cmd

import (
	"fmt"
	"os"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/netlist"
	"github.com/spf13/cobra"
)

var fmtOutput string

var fmtCmd = &cobra.Command{
	Use:   "fmt <netlist_file>",
	Short: "Re-emit a netlist in normalized form",
	Long: `Parse a KiCad netlist and write it back with one clause per line and
consistent quoting. Parsing the output yields the same netlist.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)
	fmtCmd.Flags().StringVarP(&fmtOutput, "output", "o", "", "output file (default: stdout)")
}

func runFmt(cmd *cobra.Command, args []string) error {
	tree, err := netlist.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing netlist: %w", err)
	}

	if fmtOutput == "" {
		return netlist.Write(os.Stdout, tree)
	}

	f, err := os.Create(fmtOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := netlist.Write(f, tree); err != nil {
		f.Close()
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Wrote %s: %d components, %d nets\n", fmtOutput, len(tree.Components), len(tree.Nets))
	}
	return f.Close()
}
