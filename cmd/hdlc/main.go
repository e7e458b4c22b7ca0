// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command hdlc generates Verilog, pin constraints and simulation traces for
// the widgets of the hwlib package.
//
// Usage:
//
//	hdlc [-config file.cue] [-design name] [-out dir] [-v level] [-dump-ast]
//
// The configuration is a CUE file checked against the #Config schema in
// schema.cue. Outputs are written to the output directory as <design>.v,
// <design>.pcf, <design>.xdc, <design>.ucf and <design>.vcd.
//
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/internal/pinmap"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/k0kubun/pp/v3"
	"github.com/pkg/errors"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		log.SetFlags(0)
		log.Fatalf("hdlc: %v", err)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("hdlc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgFile = fs.String("config", "", "CUE configuration `file`")
		name    = fs.String("design", "", "design `name`: "+strings.Join(designNames(), ", "))
		out     = fs.String("out", ".", "output `directory`")
		verbose = fs.Int("v", 0, "log verbosity")
		dump    = fs.Bool("dump-ast", false, "dump the Verilog AST of the top module")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	stdr.SetVerbosity(*verbose)
	logger := stdr.New(log.New(stderr, "", log.LstdFlags)).WithName("hdlc")

	var src []byte
	cfgName := "<flags>"
	if *cfgFile != "" {
		var err error
		if src, err = os.ReadFile(*cfgFile); err != nil {
			return err
		}
		cfgName = *cfgFile
	}
	c, err := loadConfig(cfgName, src, *name)
	if err != nil {
		return err
	}
	d, ok := designs[c.Design]
	if !ok {
		return errors.Errorf("unknown design %q", c.Design)
	}
	x, err := d.build(c)
	if err != nil {
		return err
	}
	b := hdl.Elaborate(x)
	if err := constrain(b, c, d.clocked); err != nil {
		return err
	}
	if *dump {
		pp.Fprintln(stderr, b.HDL())
	}
	return generate(b, x, d, c, *out, logger)
}

func designNames() []string {
	names := make([]string, 0, len(designs))
	for n := range designs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// constrain applies the pin assignments of c to b. Clocked designs also get
// a period constraint on their clock input.
//
func constrain(b *hdl.Block, c *config, clocked bool) error {
	as, err := pinmap.Parse(c.Pins)
	if err != nil {
		return errors.Wrap(err, "pins")
	}
	for _, a := range as {
		if err := b.Constrain(a.Name, hdl.PinConstraint{Index: a.Index, Location: a.Location}); err != nil {
			return err
		}
		if a.Standard == "" {
			continue
		}
		typ, err := hdl.ParseSignalType(a.Standard)
		if err != nil {
			return errors.Wrapf(err, "pin %s[%d]", a.Name, a.Index)
		}
		if err := b.Constrain(a.Name, hdl.PinConstraint{Index: a.Index, Kind: hdl.StandardConstraint, Signal: typ}); err != nil {
			return err
		}
	}
	if !clocked {
		return nil
	}
	return b.Constrain("clock", hdl.PinConstraint{Kind: hdl.TimingConstraint,
		Timing: hdl.Timing{Kind: hdl.Periodic, Net: "clock", Period: 1e9 / c.ClockHz}})
}

func generate(b *hdl.Block, x hdl.Logic, d design, c *config, dir string, log logr.Logger) error {
	base := filepath.Join(dir, c.Design)
	for _, o := range c.Outputs {
		var (
			s   string
			err error
		)
		name := base + "." + o
		switch o {
		case "verilog":
			name = base + ".v"
			s, err = hdl.GenerateVerilog(b)
		case "pcf":
			s = hdl.GeneratePCF(b)
		case "xdc":
			s = hdl.GenerateXDC(b)
		case "ucf":
			s = hdl.GenerateUCF(b)
		case "vcd":
			if err := d.trace(x, c, log, name); err != nil {
				return errors.Wrap(err, "simulation")
			}
			log.V(1).Info("trace written", "file", name, "cycles", c.Cycles)
			continue
		default:
			return errors.Errorf("unknown output %q", o)
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(name, []byte(s), 0644); err != nil {
			return err
		}
		log.V(1).Info("output written", "file", name)
	}
	return nil
}
