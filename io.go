// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SignalType is the I/O standard of a pin.
//
type SignalType int

// I/O standards.
//
const (
	LVCMOS33 SignalType = iota
	LVCMOS25
	LVCMOS18
	LVCMOS15
	SSTL15
	DiffSSTL15
	SSTL18II
	DiffSSTL18II
	LVDS25
)

var xilinxStandards = [...]string{
	LVCMOS33:     "LVCMOS33",
	LVCMOS25:     "LVCMOS25",
	LVCMOS18:     "LVCMOS18",
	LVCMOS15:     "LVCMOS15",
	SSTL15:       "SSTL15",
	DiffSSTL15:   "DIFF_SSTL15",
	SSTL18II:     "SSTL18_II",
	DiffSSTL18II: "DIFF_SSTL18_II",
	LVDS25:       "LVDS_25",
}

// Xilinx returns the name of the I/O standard in Xilinx constraint files.
//
func (t SignalType) Xilinx() string {
	if t < 0 || int(t) >= len(xilinxStandards) {
		return "UNKNOWN"
	}
	return xilinxStandards[t]
}

func (t SignalType) String() string { return t.Xilinx() }

// ParseSignalType returns the I/O standard with the given Xilinx name. The
// match is case insensitive.
//
func ParseSignalType(name string) (SignalType, error) {
	for i, n := range xilinxStandards {
		if strings.EqualFold(n, name) {
			return SignalType(i), nil
		}
	}
	return 0, errors.Errorf("unknown I/O standard %q", name)
}

// SlewType is the output slew rate of a pin.
//
type SlewType int

// Slew rates.
//
const (
	SlewNormal SlewType = iota
	SlewFast
)

// TimingKind is the kind of a timing constraint.
//
type TimingKind int

// Timing constraint kinds.
//
const (
	Periodic TimingKind = iota
	FalsePath
	InputOffset
	OutputOffset
)

// Timing is a timing constraint. Durations are in nanoseconds.
//
type Timing struct {
	Kind      TimingKind
	Net       string  // clock net name
	Period    float64 // Periodic
	DutyCycle float64 // Periodic, in percent; 0 means 50
	Offset    float64 // InputOffset, OutputOffset
	Valid     float64 // InputOffset data valid window
	Relative  string  // reference clock port of offsets
	From, To  string  // FalsePath pin regular expressions
}

// ConstraintKind is the kind of a PinConstraint.
//
type ConstraintKind int

// Constraint kinds.
//
const (
	LocationConstraint ConstraintKind = iota
	StandardConstraint
	SlewConstraint
	TimingConstraint
	CustomConstraint
)

// PinConstraint is a physical constraint on bit Index of a signal. Only the
// field matching Kind is used.
//
type PinConstraint struct {
	Index    int
	Kind     ConstraintKind
	Location string
	Signal   SignalType
	Slew     SlewType
	Timing   Timing
	Custom   string
}

// Constrain adds c to the top level signal of b with the given '$' separated
// name. Signals of child blocks cannot be constrained.
//
func (b *Block) Constrain(name string, c PinConstraint) error {
	e, ok := b.scope()[name]
	if !ok || e.atom == nil || e.child {
		return errors.Errorf("no top level signal named %q", name)
	}
	if c.Index < 0 || c.Index >= e.atom.Width() {
		return errors.Errorf("%s: bit index %d out of range [0:%d]", name, c.Index, e.atom.Width()-1)
	}
	s, ok := e.atom.(interface{ AddConstraint(PinConstraint) })
	if !ok {
		return errors.Errorf("%s: signal %T cannot be constrained", name, e.atom)
	}
	s.AddConstraint(c)
	return nil
}

// constraintGen walks the top level atoms and formats their constraints
// with format, one line per constraint. Lines are deduplicated.
type constraintGen struct {
	pathProbe
	format func(name string, w int, c PinConstraint) []string
	lines  []string
	seen   map[string]bool
}

func (g *constraintGen) VisitAtom(name string, a Atom) {
	if g.path.Len() != 1 {
		return
	}
	n := g.atomName(name)
	for _, c := range a.Constraints() {
		for _, l := range g.format(n, a.Width(), c) {
			if l == "" || g.seen[l] {
				continue
			}
			g.seen[l] = true
			g.lines = append(g.lines, l)
		}
	}
}

func generate(b *Block, format func(string, int, PinConstraint) []string) string {
	g := &constraintGen{format: format, seen: make(map[string]bool)}
	b.Accept("top", g)
	if len(g.lines) == 0 {
		return ""
	}
	return strings.Join(g.lines, "\n") + "\n"
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// GeneratePCF returns the physical constraints of the top level signals of
// b in Lattice PCF format. The format only supports locations and custom
// lines; other constraints are ignored.
//
func GeneratePCF(b *Block) string {
	return generate(b, func(name string, w int, c PinConstraint) []string {
		if w > 1 {
			name += "[" + strconv.Itoa(c.Index) + "]"
		}
		switch c.Kind {
		case LocationConstraint:
			return []string{"set_io " + name + " " + c.Location}
		case CustomConstraint:
			return []string{c.Custom}
		}
		return nil
	})
}

// GenerateXDC returns the physical constraints of the top level signals of
// b in Xilinx XDC format.
//
func GenerateXDC(b *Block) string {
	return generate(b, func(name string, w int, c PinConstraint) []string {
		if w > 1 {
			name += "[" + strconv.Itoa(c.Index) + "]"
		}
		port := "[get_ports { " + name + " }]"
		switch c.Kind {
		case LocationConstraint:
			return []string{"set_property PACKAGE_PIN " + c.Location + " " + port}
		case StandardConstraint:
			return []string{"set_property IOSTANDARD " + c.Signal.Xilinx() + " " + port}
		case SlewConstraint:
			if c.Slew == SlewFast {
				return []string{"set_property SLEW FAST " + port}
			}
		case TimingConstraint:
			t := c.Timing
			clock := "[get_clocks { " + t.Net + " }]"
			switch t.Kind {
			case Periodic:
				s := "create_clock -name " + t.Net + " -period " + ftoa(t.Period)
				if t.DutyCycle != 0 && t.DutyCycle != 50 {
					s += " -waveform {0 " + ftoa(t.Period*t.DutyCycle/100) + "}"
				}
				return []string{s + " " + port}
			case FalsePath:
				return []string{"set_false_path -from [get_pins -hierarchical -regexp " + t.From +
					"] -to [get_pins -hierarchical -regexp " + t.To + "]"}
			case InputOffset:
				return []string{"set_input_delay -add_delay -clock " + clock + " " + ftoa(t.Offset) + " " + port}
			case OutputOffset:
				return []string{"set_output_delay -add_delay -clock " + clock + " " + ftoa(t.Offset) + " " + port}
			}
		case CustomConstraint:
			return []string{c.Custom}
		}
		return nil
	})
}

// GenerateUCF returns the physical constraints of the top level signals of
// b in Xilinx UCF format.
//
func GenerateUCF(b *Block) string {
	return generate(b, func(name string, w int, c PinConstraint) []string {
		if w > 1 {
			name += "<" + strconv.Itoa(c.Index) + ">"
		}
		net := `NET "` + name + `"`
		switch c.Kind {
		case LocationConstraint:
			return []string{net + ` LOC = "` + c.Location + `";`}
		case StandardConstraint:
			return []string{net + " IOSTANDARD = " + c.Signal.Xilinx() + ";"}
		case SlewConstraint:
			if c.Slew == SlewFast {
				return []string{net + " SLEW = FAST;"}
			}
		case TimingConstraint:
			t := c.Timing
			switch t.Kind {
			case Periodic:
				duty := t.DutyCycle
				if duty == 0 {
					duty = 50
				}
				return []string{
					net + " TNM_NET = " + t.Net + ";",
					"TIMESPEC TS_" + t.Net + " = PERIOD " + t.Net + " " + ftoa(t.Period) + " ns HIGH " + ftoa(duty) + "%;",
				}
			case InputOffset:
				return []string{net + " OFFSET = IN " + ftoa(t.Offset) + " ns VALID " + ftoa(t.Valid) +
					` ns BEFORE "` + t.Relative + `" RISING;`}
			case OutputOffset:
				return []string{net + " OFFSET = OUT " + ftoa(t.Offset) + ` ns AFTER "` + t.Relative + `" RISING;`}
			}
		case CustomConstraint:
			return []string{c.Custom}
		}
		return nil
	})
}
