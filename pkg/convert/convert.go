// Package convert runs the whole netlist to Verilog pipeline: parse, build the
// circuit model and emit Verilog.
//
// Fatal problems (unreadable input, unwritable output, a malformed netlist)
// are reported in the returned log like every other diagnostic. Output is
// only produced when the netlist parsed, and ConvertFile never leaves a
// truncated output file behind.
package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/KiCadVerilog/pkg/circuit"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/diag"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/kicad/netlist"
	"github.com/OpenTraceLab/KiCadVerilog/pkg/verilog"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultModuleName names the top module when neither a file name nor the
// netlist's design source provides one.
const DefaultModuleName = "top"

// Options control a conversion.
type Options struct {
	InputName    string // used in messages; default "stdin"
	ModuleName   string // top module name; derived when empty
	IncludeOrder verilog.IncludeOrder

	// Verbose, when set, receives phase statistics and the causes of fatal
	// errors
	Verbose io.Writer
}

func (o *Options) tracef(format string, args ...any) {
	if o.Verbose != nil {
		fmt.Fprintf(o.Verbose, format+"\n", args...)
	}
}

// ModuleName derives a module name from a file path: the base name without
// its extension. Both '/' and '\' separate directories.
func ModuleName(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// Convert reads a netlist from r and writes its Verilog to w. Nothing is
// written unless the netlist parses.
func Convert(r io.Reader, w io.Writer, opts Options) *diag.Log {
	log := diag.New()
	if opts.InputName == "" {
		opts.InputName = "stdin"
	}

	out, ok := generate(r, &opts, log)
	if !ok {
		return log
	}
	if _, err := w.Write(out); err != nil {
		log.Errorf("Unable to write the Verilog output.")
		opts.tracef("%+v", errors.Wrap(err, "write output"))
	}
	return log
}

// generate runs the pipeline into memory and returns the Latin-1 encoded
// Verilog. It reports false after a fatal error.
func generate(r io.Reader, opts *Options, log *diag.Log) ([]byte, bool) {
	data, err := io.ReadAll(r)
	if err != nil {
		log.Errorf("Unable to open %s for reading.", opts.InputName)
		opts.tracef("%+v", errors.Wrapf(err, "read %s", opts.InputName))
		return nil, false
	}

	tree, err := netlist.Parse(opts.InputName, bytes.NewReader(data))
	if err != nil {
		log.Errorf("Unable to parse %s as a KiCad 6+ netlist.", opts.InputName)
		log.Errorf("%v", err)
		return nil, false
	}
	opts.tracef("parsed %s: %d components, %d library parts, %d nets",
		opts.InputName, len(tree.Components), len(tree.LibParts), len(tree.Nets))

	nl := circuit.Build(tree, log)
	opts.tracef("built circuit: %s", nl)

	cfg := verilog.DefaultConfig()
	cfg.IncludeOrder = opts.IncludeOrder
	cfg.ModuleName = opts.ModuleName
	if cfg.ModuleName == "" {
		cfg.ModuleName = ModuleName(tree.Design.Source)
	}
	if cfg.ModuleName == "" {
		cfg.ModuleName = DefaultModuleName
	}
	if legal := verilog.Legalize(cfg.ModuleName); legal != cfg.ModuleName {
		log.Warningf("Module name %s is not a legal Verilog identifier, so %s is used", cfg.ModuleName, legal)
		cfg.ModuleName = legal
	}

	var text strings.Builder
	if err := verilog.Emit(&text, nl, cfg, log); err != nil {
		log.Errorf("Unable to generate Verilog: %v", err)
		return nil, false
	}

	// Code points above 0xFF can only come from escapes in VerilogCode
	// fields; they are replaced rather than failing the run.
	out, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).String(text.String())
	if err != nil {
		log.Errorf("Unable to encode the Verilog output: %v", err)
		return nil, false
	}
	opts.tracef("generated module %s: %d bytes", cfg.ModuleName, len(out))
	return []byte(out), true
}

// ConvertFile converts the netlist file input. The Verilog goes to output,
// or to stdout when output is empty. The top module is named after output,
// else after input, unless opts.ModuleName is set.
func ConvertFile(input, output string, stdout io.Writer, opts Options) *diag.Log {
	opts.InputName = input
	if opts.ModuleName == "" {
		if output != "" {
			opts.ModuleName = ModuleName(output)
		} else {
			opts.ModuleName = ModuleName(input)
		}
	}

	log := diag.New()
	in, err := os.Open(input)
	if err != nil {
		log.Errorf("Unable to open %s for reading.", input)
		opts.tracef("%+v", errors.Wrap(err, "open input"))
		return log
	}
	defer in.Close()

	if output == "" {
		return Convert(in, stdout, opts)
	}

	// The temporary file proves the output location is writable before any
	// parsing happens.
	tmp, err := createTemp(output)
	if err != nil {
		log.Errorf("Unable to open %s for writing.", output)
		opts.tracef("%+v", err)
		return log
	}

	out, ok := generate(in, &opts, log)
	if ok {
		if err := commit(tmp, output, out); err != nil {
			log.Errorf("Unable to open %s for writing.", output)
			opts.tracef("%+v", err)
		}
		return log
	}

	tmp.Close()
	os.Remove(tmp.Name())
	return log
}

func createTemp(output string) (*os.File, error) {
	f, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*")
	return f, errors.Wrapf(err, "create temporary file for %s", output)
}

// commit writes data to the temporary file and renames it over output.
func commit(tmp *os.File, output string, data []byte) error {
	_, err := tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "rename %s to %s", tmp.Name(), output)
	}
	return nil
}
