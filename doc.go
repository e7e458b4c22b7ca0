/*
Package hdl provides the tools to describe synchronous digital circuits in Go,
simulate them and lower them to synthesizable Verilog.

A circuit is a tree of blocks. A block is a pointer to a struct implementing
Logic; its exported fields are its signals, its child blocks and its signal
bundles, discovered by reflection:

	type Counter struct {
		Clock  hdl.Signal[hdl.In, hdl.Clock]
		Enable hdl.Signal[hdl.In, hdl.Bit]
		Count  hdl.Signal[hdl.Out, bits.Vec]
		Acc    *hwlib.DFF[bits.Vec]
	}

The Update method describes the behavior of the block for simulation. The
HDL method returns the same behavior as a syntax tree, usually built with a
Kernel, from which GenerateVerilog derives one Verilog module per block.

Signals are double buffered: Update writes the Next field of signals, which
is committed at the end of each update pass. The simulator repeats update
passes until the circuit settles. Clocks and testbenches are driven by a
Simulation, which can trace all signals to a VCD file.

*/
package hdl
