// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/hdl"
	"github.com/db47h/hdl/verilog"
)

// EdgeDetector detects the rising or falling edges of a signal.
//
//	Inputs: clock, input_signal
//	Outputs: edge_signal
//	Function: edge_signal is high during the clock cycle that follows the
//	          clock edge at which the edge was sampled.
//
type EdgeDetector struct {
	Clock       hdl.Signal[hdl.In, hdl.Clock]
	InputSignal hdl.Signal[hdl.In, hdl.Bit]
	EdgeSignal  hdl.Signal[hdl.Out, hdl.Bit]
	Prev        *DFF[hdl.Bit]
	Edge        *DFF[hdl.Bit]

	rising bool
}

// NewEdgeDetector returns a rising edge detector if rising is true, a
// falling edge detector otherwise.
//
func NewEdgeDetector(rising bool) *EdgeDetector {
	return &EdgeDetector{
		Prev:   NewDFF(hdl.Bit(false)),
		Edge:   NewDFF(hdl.Bit(false)),
		rising: rising,
	}
}

func (e *EdgeDetector) Update() {
	e.Prev.Setup(e.Clock.Val())
	e.Edge.Setup(e.Clock.Val())
	in, prev := e.InputSignal.Val(), e.Prev.Q.Val()
	e.Prev.D.Next = in
	if e.rising {
		e.Edge.D.Next = in && !prev
	} else {
		e.Edge.D.Next = !in && prev
	}
	e.EdgeSignal.Next = e.Edge.Q.Val()
}

func (e *EdgeDetector) HDL() verilog.Verilog {
	k := hdl.NewKernel(e)
	in, prev := k.Val(&e.InputSignal), k.Val(&e.Prev.Q)
	edge := in.Not().And(prev)
	if e.rising {
		edge = in.And(prev.Not())
	}
	return k.Combinatorial(
		k.ClockDFF(&e.Clock, e.Prev, e.Edge),
		k.Assign(&e.Prev.D, in),
		k.Assign(&e.Edge.D, edge),
		k.Assign(&e.EdgeSignal, k.Val(&e.Edge.Q)),
	)
}

// BitSynchronizer brings a single bit signal into the clock domain of
// clock through two registers.
//
//	Inputs: clock, sig_in
//	Outputs: sig_out
//
type BitSynchronizer struct {
	SigIn  hdl.Signal[hdl.In, hdl.Bit]
	SigOut hdl.Signal[hdl.Out, hdl.Bit]
	Clock  hdl.Signal[hdl.In, hdl.Clock]
	Dff0   *DFF[hdl.Bit]
	Dff1   *DFF[hdl.Bit]
}

// NewBitSynchronizer returns a new bit synchronizer.
//
func NewBitSynchronizer() *BitSynchronizer {
	return &BitSynchronizer{Dff0: NewDFF(hdl.Bit(false)), Dff1: NewDFF(hdl.Bit(false))}
}

func (s *BitSynchronizer) Update() {
	s.Dff0.Clock.Next = s.Clock.Val()
	s.Dff1.Clock.Next = s.Clock.Val()
	s.Dff0.D.Next = s.SigIn.Val()
	s.Dff1.D.Next = s.Dff0.Q.Val()
	s.SigOut.Next = s.Dff1.Q.Val()
}

func (s *BitSynchronizer) HDL() verilog.Verilog {
	k := hdl.NewKernel(s)
	return k.Combinatorial(
		k.ClockDFF(&s.Clock, s.Dff0, s.Dff1),
		k.Assign(&s.Dff0.D, k.Val(&s.SigIn)),
		k.Assign(&s.Dff1.D, k.Val(&s.Dff0.Q)),
		k.Assign(&s.SigOut, k.Val(&s.Dff1.Q)),
	)
}

// PulseSynchronizer carries single cycle pulses from the clock_in domain
// to the clock_out domain. Each input pulse flips a toggle register whose
// output is synchronized to clock_out, where its edges are turned back
// into pulses. Input pulses must be at least three clock_out cycles apart.
//
//	Inputs: clock_in, pulse_in, clock_out
//	Outputs: pulse_out
//
type PulseSynchronizer struct {
	ClockIn  hdl.Signal[hdl.In, hdl.Clock]
	PulseIn  hdl.Signal[hdl.In, hdl.Bit]
	ClockOut hdl.Signal[hdl.In, hdl.Clock]
	PulseOut hdl.Signal[hdl.Out, hdl.Bit]
	Toggle   *DFF[hdl.Bit]
	Sync     *BitSynchronizer
	Delay    *DFF[hdl.Bit]
}

// NewPulseSynchronizer returns a new pulse synchronizer.
//
func NewPulseSynchronizer() *PulseSynchronizer {
	return &PulseSynchronizer{
		Toggle: NewDFF(hdl.Bit(false)),
		Sync:   NewBitSynchronizer(),
		Delay:  NewDFF(hdl.Bit(false)),
	}
}

func (p *PulseSynchronizer) Update() {
	p.Toggle.Setup(p.ClockIn.Val())
	p.Delay.Setup(p.ClockOut.Val())
	if p.PulseIn.Val() {
		p.Toggle.D.Next = !p.Toggle.Q.Val()
	}
	p.Sync.Clock.Next = p.ClockOut.Val()
	p.Sync.SigIn.Next = p.Toggle.Q.Val()
	p.Delay.D.Next = p.Sync.SigOut.Val()
	p.PulseOut.Next = p.Sync.SigOut.Val() != p.Delay.Q.Val()
}

func (p *PulseSynchronizer) HDL() verilog.Verilog {
	k := hdl.NewKernel(p)
	return k.Combinatorial(
		k.SetupDFF(&p.ClockIn, p.Toggle),
		k.ClockDFF(&p.ClockOut, p.Delay),
		k.If(k.Val(&p.PulseIn), k.Assign(&p.Toggle.D, k.Val(&p.Toggle.Q).Not())),
		k.Assign(&p.Sync.Clock, k.Val(&p.ClockOut)),
		k.Assign(&p.Sync.SigIn, k.Val(&p.Toggle.Q)),
		k.Assign(&p.Delay.D, k.Val(&p.Sync.SigOut)),
		k.Assign(&p.PulseOut, k.Val(&p.Sync.SigOut).Xor(k.Val(&p.Delay.Q))),
	)
}

// ResetSynchronizer asserts its output as soon as reset_in is asserted and
// releases it synchronously to clock, two clock cycles after reset_in is
// released.
//
//	Inputs: clock, reset_in
//	Outputs: reset_out
//
type ResetSynchronizer struct {
	Clock    hdl.Signal[hdl.In, hdl.Clock]
	ResetIn  hdl.Signal[hdl.In, hdl.Reset]
	ResetOut hdl.Signal[hdl.Out, hdl.Reset]
	Dff0     *ResetDFF[hdl.Reset]
	Dff1     *ResetDFF[hdl.Reset]
}

// NewResetSynchronizer returns a new reset synchronizer. Its output is
// asserted until the first two clock edges.
//
func NewResetSynchronizer() *ResetSynchronizer {
	return &ResetSynchronizer{
		ResetOut: hdl.NewSignal[hdl.Out](hdl.Reset(true)),
		Dff0:     NewResetDFF(hdl.Reset(true), true),
		Dff1:     NewResetDFF(hdl.Reset(true), true),
	}
}

func (r *ResetSynchronizer) Update() {
	r.Dff0.Setup(r.Clock.Val(), r.ResetIn.Val())
	r.Dff1.Setup(r.Clock.Val(), r.ResetIn.Val())
	r.Dff0.D.Next = false
	r.Dff1.D.Next = r.Dff0.Q.Val()
	r.ResetOut.Next = r.Dff1.Q.Val()
}

func (r *ResetSynchronizer) HDL() verilog.Verilog {
	k := hdl.NewKernel(r)
	return k.Combinatorial(
		k.ClockDFF(&r.Clock, r.Dff0, r.Dff1),
		k.Assign(&r.Dff0.Reset, k.Val(&r.ResetIn)),
		k.Assign(&r.Dff1.Reset, k.Val(&r.ResetIn)),
		k.Assign(&r.Dff0.D, k.Bool(false)),
		k.Assign(&r.Dff1.D, k.Val(&r.Dff0.Q)),
		k.Assign(&r.ResetOut, k.Val(&r.Dff1.Q)),
	)
}
