// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
)

// Adder is an unsigned adder with carry out.
//
//	Inputs: a, b
//	Outputs: sum, carry
//	Function: sum = lsb(a + b)
//	          carry = msb(a + b)
//
type Adder struct {
	A     hdl.Signal[hdl.In, bits.Vec]
	B     hdl.Signal[hdl.In, bits.Vec]
	Sum   hdl.Signal[hdl.Out, bits.Vec]
	Carry hdl.Signal[hdl.Out, hdl.Bit]
	Wide  hdl.Signal[hdl.Local, bits.Vec]
}

// NewAdder returns a width bits adder.
//
func NewAdder(width int) *Adder {
	return &Adder{
		A:    hdl.NewSignal[hdl.In](bits.Zero(width)),
		B:    hdl.NewSignal[hdl.In](bits.Zero(width)),
		Sum:  hdl.NewSignal[hdl.Out](bits.Zero(width)),
		Wide: hdl.NewSignal[hdl.Local](bits.Zero(width + 1)),
	}
}

func (a *Adder) Update() {
	w := a.Sum.Width()
	a.Wide.Next = a.A.Val().Resize(w + 1).Add(a.B.Val().Resize(w + 1))
	a.Sum.Next = a.Wide.Val().Slice(w, 0)
	a.Carry.Next = hdl.Bit(a.Wide.Val().Bit(w))
}

func (a *Adder) HDL() verilog.Verilog {
	k := hdl.NewKernel(a)
	w := a.Sum.Width()
	return k.Combinatorial(
		k.Assign(&a.Wide, k.Val(&a.A).Cast(w+1).Add(k.Val(&a.B).Cast(w+1))),
		k.Assign(&a.Sum, k.Slice(&a.Wide, w, k.Lit(0))),
		k.Assign(&a.Carry, k.Index(&a.Wide, k.Lit(uint64(w)))),
	)
}

// Counter is a free running counter with enable. It wraps around to zero.
//
//	Inputs: clock, enable
//	Outputs: count
//
type Counter struct {
	Clock  hdl.Signal[hdl.In, hdl.Clock]
	Enable hdl.Signal[hdl.In, hdl.Bit]
	Count  hdl.Signal[hdl.Out, bits.Vec]
	Value  *DFF[bits.Vec]
}

// NewCounter returns a width bits counter.
//
func NewCounter(width int) *Counter {
	return &Counter{
		Count: hdl.NewSignal[hdl.Out](bits.Zero(width)),
		Value: NewDFF(bits.Zero(width)),
	}
}

func (c *Counter) Update() {
	c.Value.Setup(c.Clock.Val())
	if c.Enable.Val() {
		c.Value.D.Next = c.Value.Q.Val().AddUint(1)
	}
	c.Count.Next = c.Value.Q.Val()
}

func (c *Counter) HDL() verilog.Verilog {
	k := hdl.NewKernel(c)
	return k.Combinatorial(
		k.SetupDFF(&c.Clock, c.Value),
		k.If(k.Val(&c.Enable), k.Assign(&c.Value.D, k.Val(&c.Value.Q).Add(k.Lit(1)))),
		k.Assign(&c.Count, k.Val(&c.Value.Q)),
	)
}
