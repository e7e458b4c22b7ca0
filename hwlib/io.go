// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/verilog"
)

// TristateBuffer interfaces a tri-state bus.
//
//	Inputs: write_enable, write_data
//	Outputs: read_data
//	InOut: bus
//	Function: bus = write_enable ? write_data : high impedance
//	          read_data = bus
//
// Two buffers are joined by their parent with hdl.JoinTristate in Update
// and Kernel.LinkTristate in HDL.
//
type TristateBuffer[T hdl.Synth[T]] struct {
	Bus         hdl.Signal[hdl.InOut, T]
	WriteEnable hdl.Signal[hdl.In, hdl.Bit]
	WriteData   hdl.Signal[hdl.In, T]
	ReadData    hdl.Signal[hdl.Out, T]
}

// NewTristateBuffer returns a buffer for a bus of the width of init, the
// initial value of its signals.
//
func NewTristateBuffer[T hdl.Synth[T]](init T) *TristateBuffer[T] {
	return &TristateBuffer[T]{
		Bus:       hdl.NewSignal[hdl.InOut](init),
		WriteData: hdl.NewSignal[hdl.In](init),
		ReadData:  hdl.NewSignal[hdl.Out](init),
	}
}

func (b *TristateBuffer[T]) Update() {
	we := bool(b.WriteEnable.Val())
	if we {
		b.Bus.Next = b.WriteData.Val()
	}
	b.ReadData.Next = b.Bus.Val()
	b.Bus.SetTristateIsOutput(we)
}

func (b *TristateBuffer[T]) Connect() {
	b.Bus.Connect()
	b.ReadData.Connect()
}

func (b *TristateBuffer[T]) HDL() verilog.Verilog {
	w := strconv.Itoa(b.Bus.Width())
	return verilog.Custom("assign bus = write_enable ? write_data : " + w + "'bz;\n" +
		"always @(*) read_data = bus;\n")
}
