// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"sort"
	"strconv"
	"strings"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
)

// table is the content of a memory. Addresses missing from data read as
// fill.
type table[T hdl.Synth[T]] struct {
	data map[uint64]T
	fill T
	aw   int
}

func newTable[T hdl.Synth[T]](block string, addrWidth int, contents []T, fill T) (*table[T], error) {
	if addrWidth < 1 || addrWidth > 24 {
		return nil, &hdl.ConstructionError{Block: block, Reason: "address width out of range: " + strconv.Itoa(addrWidth)}
	}
	if len(contents) > 1<<uint(addrWidth) {
		return nil, &hdl.ConstructionError{Block: block,
			Reason: strconv.Itoa(len(contents)) + " words do not fit in a " + strconv.Itoa(addrWidth) + " bits address space"}
	}
	t := &table[T]{data: make(map[uint64]T, len(contents)), fill: fill, aw: addrWidth}
	for i, v := range contents {
		if v.Width() != fill.Width() {
			return nil, &hdl.ConstructionError{Block: block, Reason: "width mismatch for word " + strconv.Itoa(i)}
		}
		t.data[uint64(i)] = v
	}
	return t, nil
}

func (t *table[T]) get(addr bits.Vec) T {
	if v, ok := t.data[addr.Uint64()]; ok {
		return v
	}
	return t.fill
}

func (t *table[T]) set(addr bits.Vec, v T) { t.data[addr.Uint64()] = v }

func (t *table[T]) clone() *table[T] {
	c := &table[T]{data: make(map[uint64]T, len(t.data)), fill: t.fill, aw: t.aw}
	for a, v := range t.data {
		c.data[a] = v
	}
	return c
}

func (t *table[T]) addresses() []uint64 {
	as := make([]uint64, 0, len(t.data))
	for a := range t.data {
		as = append(as, a)
	}
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	return as
}

// lookup returns a case statement assigning the word at address to target
// with the given assignment operator.
func (t *table[T]) lookup(address, target, op string) string {
	var b strings.Builder
	b.WriteString("case (" + address + ")\n")
	for _, a := range t.addresses() {
		b.WriteString("    " + bits.New(t.aw, a).Verilog() + ": " + target + " " + op + " " + t.data[a].Vec().Verilog() + ";\n")
	}
	b.WriteString("    default: " + target + " " + op + " " + t.fill.Vec().Verilog() + ";\n")
	b.WriteString("endcase\n")
	return b.String()
}

// ROM is a read only memory with a combinational read port.
//
//	Inputs: address
//	Outputs: data
//	Function: data = contents[address]
//
type ROM[T hdl.Synth[T]] struct {
	Address hdl.Signal[hdl.In, bits.Vec]
	Data    hdl.Signal[hdl.Out, T]

	t *table[T]
}

// NewROM returns a ROM with a addrWidth bits address. Word i is
// contents[i]; the words past the end of contents are set to fill.
//
func NewROM[T hdl.Synth[T]](addrWidth int, contents []T, fill T) (*ROM[T], error) {
	t, err := newTable("ROM", addrWidth, contents, fill)
	if err != nil {
		return nil, err
	}
	return &ROM[T]{
		Address: hdl.NewSignal[hdl.In](bits.Zero(addrWidth)),
		Data:    hdl.NewSignal[hdl.Out](t.get(bits.Zero(addrWidth))),
		t:       t,
	}, nil
}

func (r *ROM[T]) Update() { r.Data.Next = r.t.get(r.Address.Val()) }

func (r *ROM[T]) Connect() { r.Data.Connect() }

func (r *ROM[T]) HDL() verilog.Verilog {
	return verilog.Custom("always @(*)\n" + r.t.lookup("address", "data", "="))
}

// SyncROM is a read only memory with a registered read port.
//
//	Inputs: clock, address
//	Outputs: data
//	Function: data(t) = contents[address(t-1)]
//
type SyncROM[T hdl.Synth[T]] struct {
	Clock   hdl.Signal[hdl.In, hdl.Clock]
	Address hdl.Signal[hdl.In, bits.Vec]
	Data    hdl.Signal[hdl.Out, T]

	t *table[T]
}

// NewSyncROM returns a registered ROM. See NewROM.
//
func NewSyncROM[T hdl.Synth[T]](addrWidth int, contents []T, fill T) (*SyncROM[T], error) {
	t, err := newTable("SyncROM", addrWidth, contents, fill)
	if err != nil {
		return nil, err
	}
	return &SyncROM[T]{
		Address: hdl.NewSignal[hdl.In](bits.Zero(addrWidth)),
		Data:    hdl.NewSignal[hdl.Out](fill),
		t:       t,
	}, nil
}

func (r *SyncROM[T]) Update() {
	if r.Clock.PosEdge() {
		r.Data.Next = r.t.get(r.Address.Val())
	}
}

func (r *SyncROM[T]) Connect() { r.Data.Connect() }

func (r *SyncROM[T]) HDL() verilog.Verilog {
	return verilog.Custom("initial begin\n    data = " + r.t.fill.Vec().Verilog() + ";\nend\n\n" +
		"always @(posedge clock)\n" + r.t.lookup("address", "data", "<="))
}

// RAM is a dual port memory with independent read and write clocks. Reads
// are registered. A read and a write of the same address on the same clock
// edge read the old word.
//
//	Inputs: read_address, read_clock, write_address, write_clock,
//	        write_data, write_enable
//	Outputs: read_data
//
type RAM[T hdl.Synth[T]] struct {
	ReadAddress  hdl.Signal[hdl.In, bits.Vec]
	ReadClock    hdl.Signal[hdl.In, hdl.Clock]
	ReadData     hdl.Signal[hdl.Out, T]
	WriteAddress hdl.Signal[hdl.In, bits.Vec]
	WriteClock   hdl.Signal[hdl.In, hdl.Clock]
	WriteData    hdl.Signal[hdl.In, T]
	WriteEnable  hdl.Signal[hdl.In, hdl.Bit]

	t   *table[T] // initial content
	mem *table[T]
}

// NewRAM returns a RAM with a addrWidth bits address and initial content
// contents, padded with fill.
//
func NewRAM[T hdl.Synth[T]](addrWidth int, contents []T, fill T) (*RAM[T], error) {
	t, err := newTable("RAM", addrWidth, contents, fill)
	if err != nil {
		return nil, err
	}
	return &RAM[T]{
		ReadAddress:  hdl.NewSignal[hdl.In](bits.Zero(addrWidth)),
		ReadData:     hdl.NewSignal[hdl.Out](fill),
		WriteAddress: hdl.NewSignal[hdl.In](bits.Zero(addrWidth)),
		WriteData:    hdl.NewSignal[hdl.In](fill),
		t:            t,
		mem:          t.clone(),
	}, nil
}

func (r *RAM[T]) Update() {
	if r.ReadClock.PosEdge() {
		r.ReadData.Next = r.mem.get(r.ReadAddress.Val())
	}
	if r.WriteClock.PosEdge() && bool(r.WriteEnable.Val()) {
		r.mem.set(r.WriteAddress.Val(), r.WriteData.Val())
	}
}

func (r *RAM[T]) Connect() { r.ReadData.Connect() }

func (r *RAM[T]) HDL() verilog.Verilog {
	var b strings.Builder
	w, n := r.t.fill.Width(), 1<<uint(r.t.aw)
	b.WriteString("reg [" + strconv.Itoa(w-1) + ":0] mem[0:" + strconv.Itoa(n-1) + "];\n")
	b.WriteString("integer i;\n\ninitial begin\n")
	b.WriteString("    read_data = " + r.t.fill.Vec().Verilog() + ";\n")
	b.WriteString("    for (i = 0; i < " + strconv.Itoa(n) + "; i = i + 1) mem[i] = " + r.t.fill.Vec().Verilog() + ";\n")
	for _, a := range r.t.addresses() {
		b.WriteString("    mem[" + strconv.FormatUint(a, 10) + "] = " + r.t.data[a].Vec().Verilog() + ";\n")
	}
	b.WriteString(`end

always @(posedge read_clock) begin
    read_data <= mem[read_address];
end

always @(posedge write_clock) begin
    if (write_enable) begin
        mem[write_address] <= write_data;
    end
end
`)
	return verilog.Custom(b.String())
}
