// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
)

// DFF is a positive edge triggered register.
//
//	Inputs: clock, d
//	Outputs: q
//	Function: q(t) = d(t-1) // where t is the current clock cycle.
//
// The q output holds init until the first rising edge of the clock.
//
type DFF[T hdl.Synth[T]] struct {
	Clock hdl.Signal[hdl.In, hdl.Clock]
	D     hdl.Signal[hdl.In, T]
	Q     hdl.Signal[hdl.Out, T]

	init T
}

// NewDFF returns a new register with initial value init.
//
func NewDFF[T hdl.Synth[T]](init T) *DFF[T] {
	return &DFF[T]{
		D:    hdl.NewSignal[hdl.In](init),
		Q:    hdl.NewSignal[hdl.Out](init),
		init: init,
	}
}

// Setup drives the register clock and makes it hold its current value
// unless d is assigned afterwards. This is the simulation counterpart of
// Kernel.SetupDFF.
//
func (f *DFF[T]) Setup(clk hdl.Clock) {
	f.Clock.Next = clk
	f.D.Next = f.Q.Val()
}

func (f *DFF[T]) Update() {
	if f.Clock.PosEdge() {
		f.Q.Next = f.D.Val()
	}
}

func (f *DFF[T]) Connect() { f.Q.Connect() }

func (f *DFF[T]) HDL() verilog.Verilog {
	return verilog.Custom(initial(f.init.Vec()) + "\nalways @(posedge clock) q <= d;\n")
}

func initial(v bits.Vec) string {
	return "initial begin\n    q = " + v.Verilog() + ";\nend\n"
}

// ResetDFF is a positive edge triggered register with an active high reset
// that loads the initial value. The reset is either synchronous to the
// clock or asynchronous.
//
//	Inputs: clock, reset, d
//	Outputs: q
//
type ResetDFF[T hdl.Synth[T]] struct {
	Clock hdl.Signal[hdl.In, hdl.Clock]
	Reset hdl.Signal[hdl.In, hdl.Reset]
	D     hdl.Signal[hdl.In, T]
	Q     hdl.Signal[hdl.Out, T]

	init  T
	async bool
}

// NewResetDFF returns a new register with a reset. If async is true, the
// reset takes effect as soon as it is asserted.
//
func NewResetDFF[T hdl.Synth[T]](init T, async bool) *ResetDFF[T] {
	return &ResetDFF[T]{
		D:     hdl.NewSignal[hdl.In](init),
		Q:     hdl.NewSignal[hdl.Out](init),
		init:  init,
		async: async,
	}
}

// Setup drives the register clock and reset and makes it hold its current
// value.
//
func (f *ResetDFF[T]) Setup(clk hdl.Clock, rst hdl.Reset) {
	f.Clock.Next = clk
	f.Reset.Next = rst
	f.D.Next = f.Q.Val()
}

func (f *ResetDFF[T]) Update() {
	switch {
	case f.async && f.Reset.IsHigh():
		f.Q.Next = f.init
	case f.Clock.PosEdge():
		if f.Reset.IsHigh() {
			f.Q.Next = f.init
		} else {
			f.Q.Next = f.D.Val()
		}
	}
}

func (f *ResetDFF[T]) Connect() { f.Q.Connect() }

func (f *ResetDFF[T]) HDL() verilog.Verilog {
	sense := "posedge clock"
	if f.async {
		sense += " or posedge reset"
	}
	return verilog.Custom(initial(f.init.Vec()) + `
always @(` + sense + `) begin
    if (reset) q <= ` + f.init.Vec().Verilog() + `;
    else q <= d;
end
`)
}
