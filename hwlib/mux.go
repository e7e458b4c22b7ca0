// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
)

// Mux is an n-way multiplexer.
//
//	Inputs: inputs_0 ... inputs_{n-1}, sel
//	Outputs: out
//	Function: out = inputs[sel], or inputs_0 if sel >= n
//
type Mux[T hdl.Synth[T]] struct {
	Inputs []hdl.Signal[hdl.In, T]
	Sel    hdl.Signal[hdl.In, bits.Vec]
	Out    hdl.Signal[hdl.Out, T]
}

// NewMux returns a multiplexer of n inputs of the width of init.
//
func NewMux[T hdl.Synth[T]](n int, init T) (*Mux[T], error) {
	if n < 2 {
		return nil, &hdl.ConstructionError{Block: "Mux", Reason: "less than two inputs"}
	}
	m := &Mux[T]{
		Inputs: make([]hdl.Signal[hdl.In, T], n),
		Sel:    hdl.NewSignal[hdl.In](bits.Zero(bits.Clog2(uint64(n)))),
		Out:    hdl.NewSignal[hdl.Out](init),
	}
	for i := range m.Inputs {
		m.Inputs[i] = hdl.NewSignal[hdl.In](init)
	}
	return m, nil
}

func (m *Mux[T]) Update() {
	i := m.Sel.Val().Uint64()
	if i >= uint64(len(m.Inputs)) {
		i = 0
	}
	m.Out.Next = m.Inputs[i].Val()
}

func (m *Mux[T]) HDL() verilog.Verilog {
	k := hdl.NewKernel(m)
	w := m.Sel.Width()
	cases := make([]hdl.Case, 0, len(m.Inputs)+1)
	for i := 1; i < len(m.Inputs); i++ {
		cases = append(cases, k.Case(k.Bits(w, uint64(i)), k.Assign(&m.Out, k.Val(&m.Inputs[i]))))
	}
	cases = append(cases, k.Default(k.Assign(&m.Out, k.Val(&m.Inputs[0]))))
	return k.Combinatorial(k.Match(k.Val(&m.Sel), cases...))
}
