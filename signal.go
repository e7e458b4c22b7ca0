// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"sync/atomic"

	"github.com/db47h/hdl/bits"
	"github.com/pkg/errors"
)

// AtomKind is the role an atom plays at its scope boundary.
//
type AtomKind int

// Atom kinds. Stub kinds never describe an atom directly: they are the role
// of a child block's port as seen from its parent.
//
const (
	InputParameter AtomKind = iota
	OutputParameter
	StubInputSignal
	StubOutputSignal
	ConstantSignal
	LocalSignal
	InOutParameter
	PassthroughParameter
)

var atomKindNames = [...]string{
	InputParameter:       "input",
	OutputParameter:      "output",
	StubInputSignal:      "stub input",
	StubOutputSignal:     "stub output",
	ConstantSignal:       "constant",
	LocalSignal:          "local",
	InOutParameter:       "inout",
	PassthroughParameter: "output passthrough",
}

func (k AtomKind) String() string { return atomKindNames[k] }

// IsParameter reports whether k is part of a module interface.
//
func (k AtomKind) IsParameter() bool {
	switch k {
	case InputParameter, OutputParameter, InOutParameter, PassthroughParameter:
		return true
	}
	return false
}

// IsStub reports whether k is a stub kind.
//
func (k AtomKind) IsStub() bool { return k == StubInputSignal || k == StubOutputSignal }

// Direction is the direction of a signal. It is one of In, Out, Local, InOut
// or OutputPassthrough.
//
type Direction interface {
	kind() AtomKind
}

// Signal directions.
//
type (
	// In is an input port.
	In struct{}
	// Out is an output port.
	Out struct{}
	// Local is a signal internal to a block.
	Local struct{}
	// InOut is a tri-state port.
	InOut struct{}
	// OutputPassthrough is an output port driven directly by the output of
	// a child block.
	OutputPassthrough struct{}
)

func (In) kind() AtomKind                { return InputParameter }
func (Out) kind() AtomKind               { return OutputParameter }
func (Local) kind() AtomKind             { return LocalSignal }
func (InOut) kind() AtomKind             { return InOutParameter }
func (OutputPassthrough) kind() AtomKind { return PassthroughParameter }

// Atom is the uniform view of signals and constants used by probes.
//
type Atom interface {
	// Kind returns the role of the atom in its owning block.
	Kind() AtomKind
	// Width returns the bit width of the atom.
	Width() int
	// ID returns the process wide unique id of the atom.
	ID() uint64
	// IsConnected reports whether the atom is driven.
	IsConnected() bool
	// Changed reports whether the last commit changed the atom's value.
	Changed() bool
	// Descriptor returns the type descriptor of the atom's value.
	Descriptor() Descriptor
	// Value returns the committed value of the atom.
	Value() bits.Vec
	// HighZ reports whether the atom is an undriven tri-state net.
	HighZ() bool
	// Constraints returns the physical constraints of the atom.
	Constraints() []PinConstraint
}

// atom is implemented by the atoms that a Block owns.
type atom interface {
	Atom
	connect()
	commit()
}

var lastID uint64

func allocID() uint64 {
	id := atomic.AddUint64(&lastID, 1)
	if id == 0 {
		panic(errors.New("signal id overflow"))
	}
	return id
}

// Signal is a typed port.
//
// Signals are double buffered: blocks write the pending value Next, which
// becomes the committed value when the owning block commits its atoms at the
// end of an update pass.
//
// The zero value of a signal holds the zero value of T. Use NewSignal to set
// an initial value, which is required for types whose zero value has no
// width, like bits.Vec.
//
type Signal[D Direction, T Synth[T]] struct {
	Next T

	val, prev   T
	changed     bool
	connected   bool
	driving     bool
	undriven    bool
	id          uint64
	constraints []PinConstraint
}

// NewSignal returns a signal with initial value init. The direction must be
// given explicitly:
//
//	q := hdl.NewSignal[hdl.Out](bits.Zero(8))
//
func NewSignal[D Direction, T Synth[T]](init T) Signal[D, T] {
	return Signal[D, T]{Next: init, val: init, prev: init}
}

// PinSignal returns a signal with initial value init bound to a physical pin
// location with the given signal standard. Only bit 0 is constrained.
//
func PinSignal[D Direction, T Synth[T]](init T, location string, typ SignalType) Signal[D, T] {
	s := NewSignal[D](init)
	s.AddLocation(0, location)
	s.AddSignalType(0, typ)
	return s
}

func (s *Signal[D, T]) kindOf() AtomKind {
	var d D
	return d.kind()
}

// Val returns the current value of the signal. For Out, Local and
// OutputPassthrough signals this is the pending value, so that a block reads
// back what it wrote in the same pass. For In and InOut signals this is the
// committed value.
//
func (s *Signal[D, T]) Val() T {
	switch s.kindOf() {
	case OutputParameter, LocalSignal, PassthroughParameter:
		return s.Next
	}
	return s.val
}

// PosEdge reports a rising edge: the last commit took the signal from low to
// high. It is always false for values without a logic level.
//
func (s *Signal[D, T]) PosEdge() bool {
	return s.changed && high(s.val) && !high(s.prev)
}

// NegEdge reports a falling edge.
//
func (s *Signal[D, T]) NegEdge() bool {
	return s.changed && !high(s.val) && high(s.prev)
}

// IsHigh reports whether the committed value is high.
//
func (s *Signal[D, T]) IsHigh() bool { return high(s.val) }

// Connect marks the signal as driven. Blocks call Connect on the signals
// they drive from their Connect method.
//
func (s *Signal[D, T]) Connect() { s.connected = true }

func (s *Signal[D, T]) connect() { s.connected = true }

func (s *Signal[D, T]) commit() {
	s.changed = !s.val.Equal(s.Next)
	if s.changed {
		s.prev = s.val
		s.val = s.Next
	}
}

func (s *Signal[D, T]) Kind() AtomKind         { return s.kindOf() }
func (s *Signal[D, T]) Width() int             { return s.val.Width() }
func (s *Signal[D, T]) IsConnected() bool      { return s.connected }
func (s *Signal[D, T]) Changed() bool          { return s.changed }
func (s *Signal[D, T]) Descriptor() Descriptor { return describe(s.val) }
func (s *Signal[D, T]) Value() bits.Vec        { return s.val.Vec() }
func (s *Signal[D, T]) HighZ() bool            { return s.undriven }

// ID returns the signal id, allocating it on first use.
//
func (s *Signal[D, T]) ID() uint64 {
	if s.id == 0 {
		s.id = allocID()
	}
	return s.id
}

// SetTristateIsOutput sets whether the owner of an InOut signal drives the
// net in the current pass.
//
func (s *Signal[D, T]) SetTristateIsOutput(driving bool) { s.driving = driving }

// IsDrivingTristate reports whether the owner of an InOut signal drives the
// net.
//
func (s *Signal[D, T]) IsDrivingTristate() bool { return s.driving }

// Constraints returns the physical constraints of the signal.
//
func (s *Signal[D, T]) Constraints() []PinConstraint { return s.constraints }

// AddConstraint adds a physical constraint.
//
func (s *Signal[D, T]) AddConstraint(c PinConstraint) {
	s.constraints = append(s.constraints, c)
}

// AddLocation constrains bit index of the signal to a pin location.
//
func (s *Signal[D, T]) AddLocation(index int, location string) {
	s.AddConstraint(PinConstraint{Index: index, Kind: LocationConstraint, Location: location})
}

// AddSignalType sets the I/O standard of bit index of the signal.
//
func (s *Signal[D, T]) AddSignalType(index int, typ SignalType) {
	s.AddConstraint(PinConstraint{Index: index, Kind: StandardConstraint, Signal: typ})
}

// Join drives to from from. It is the simulation counterpart of a forward
// link.
//
func Join[D1, D2 Direction, T Synth[T]](from *Signal[D1, T], to *Signal[D2, T]) {
	to.Next = from.Val()
}

// JoinTristate arbitrates the tri-state net shared by a and b. If exactly
// one side drives the net, its value propagates to the other side. If
// neither drives it, both sides keep their value and are marked undriven.
// If both drive it, JoinTristate panics with a *BusContentionError that the
// simulator reports as the result of the run.
//
func JoinTristate[T Synth[T]](a, b *Signal[InOut, T]) {
	switch {
	case a.driving && b.driving:
		panic(&BusContentionError{ID: a.ID()})
	case a.driving:
		b.Next = a.Next
		a.undriven, b.undriven = false, false
	case b.driving:
		a.Next = b.Next
		a.undriven, b.undriven = false, false
	default:
		a.undriven, b.undriven = true, true
	}
}

// Constant is a constant atom, declared as a local parameter in Verilog.
//
type Constant[T Synth[T]] struct {
	val T
	id  uint64
}

// NewConstant returns a new constant with value v.
//
func NewConstant[T Synth[T]](v T) Constant[T] {
	return Constant[T]{val: v}
}

// Val returns the constant value.
//
func (c *Constant[T]) Val() T { return c.val }

func (c *Constant[T]) Kind() AtomKind               { return ConstantSignal }
func (c *Constant[T]) Width() int                   { return c.val.Width() }
func (c *Constant[T]) IsConnected() bool            { return true }
func (c *Constant[T]) Changed() bool                { return false }
func (c *Constant[T]) Descriptor() Descriptor       { return describe(c.val) }
func (c *Constant[T]) Value() bits.Vec              { return c.val.Vec() }
func (c *Constant[T]) HighZ() bool                  { return false }
func (c *Constant[T]) Constraints() []PinConstraint { return nil }
func (c *Constant[T]) connect()                     {}
func (c *Constant[T]) commit()                      {}

// ID returns the constant id, allocating it on first use.
//
func (c *Constant[T]) ID() uint64 {
	if c.id == 0 {
		c.id = allocID()
	}
	return c.id
}
