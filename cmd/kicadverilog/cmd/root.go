package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/convert"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/verilog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool

	// Conversion flags
	inputFile    string
	outputFile   string
	moduleName   string
	includeOrder string
)

// errFailed is returned after the diagnostic log has already reported the
// failure.
var errFailed = errors.New("verilog generation failed")

var rootCmd = &cobra.Command{
	Use:   "kicadverilog",
	Short: "Convert a KiCad netlist into structural Verilog",
	Long: `kicadverilog converts a KiCad 6+ netlist export into a Verilog top module
with one sub-module per schematic part.

Parts carry their behavior in the VerilogCode field, extra include files in
VerilogInclude, and the pins whose nets become top module ports in
VerilogModulePort. Pull-up and pull-down resistors become tri1/tri0 nets and
bypass capacitors are left out.

Examples:
  kicadverilog -i board.net -o board.v      # Write board.v, top module "board"
  kicadverilog -i board.net                 # Write the Verilog to stdout
  kicadverilog info board.net               # Show how the netlist is interpreted
  kicadverilog fmt board.net                # Re-emit the netlist normalized`,
	Version:       "1.0.0",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConvert,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "KiCad netlist input file (required)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Verilog output file (default: stdout)")
	rootCmd.Flags().StringVar(&moduleName, "module", "", "top module name (default: output or input file name)")
	rootCmd.Flags().StringVar(&includeOrder, "include-order", "sorted", "order of include directives: sorted or first-seen")
}

func runConvert(cmd *cobra.Command, args []string) error {
	if inputFile == "" {
		return cmd.Help()
	}

	order, err := verilog.ParseIncludeOrder(includeOrder)
	if err != nil {
		return err
	}

	opts := convert.Options{
		ModuleName:   moduleName,
		IncludeOrder: order,
	}
	if verbose {
		opts.Verbose = os.Stderr
	}

	log := convert.ConvertFile(inputFile, outputFile, os.Stdout, opts)
	for _, msg := range log.Messages() {
		fmt.Fprintln(os.Stderr, msg)
	}

	if log.Failed() {
		return errFailed
	}
	return nil
}
