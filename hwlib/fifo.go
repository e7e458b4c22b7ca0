// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
)

// SyncFIFO is a first word fall through FIFO with a single clock. It holds
// 2^addrWidth words in a RAM addressed by addrWidth+1 bits pointers, the
// extra bit telling a full FIFO from an empty one.
//
// data_out is valid whenever empty is low. Asserting read on a clock edge
// discards the current word. A word written on a clock edge is readable
// two clock edges later. Writes to a full FIFO and reads from an empty one
// are ignored and latch overflow and underflow.
//
//	Inputs: clock, read, write, data_in
//	Outputs: data_out, empty, almost_empty, underflow, full, almost_full,
//	         overflow
//
type SyncFIFO[T hdl.Synth[T]] struct {
	Clock       hdl.Signal[hdl.In, hdl.Clock]
	Read        hdl.Signal[hdl.In, hdl.Bit]
	DataOut     hdl.Signal[hdl.Out, T]
	Empty       hdl.Signal[hdl.Out, hdl.Bit]
	AlmostEmpty hdl.Signal[hdl.Out, hdl.Bit]
	Underflow   hdl.Signal[hdl.Out, hdl.Bit]
	Write       hdl.Signal[hdl.In, hdl.Bit]
	DataIn      hdl.Signal[hdl.In, T]
	Full        hdl.Signal[hdl.Out, hdl.Bit]
	AlmostFull  hdl.Signal[hdl.Out, hdl.Bit]
	Overflow    hdl.Signal[hdl.Out, hdl.Bit]

	Mem                 *RAM[T]
	WriteAddress        *DFF[bits.Vec]
	WriteAddressDelayed *DFF[bits.Vec]
	ReadAddress         *DFF[bits.Vec]
	OverflowFlag        *DFF[hdl.Bit]
	UnderflowFlag       *DFF[hdl.Bit]

	FifoSize        hdl.Constant[bits.Vec]
	BlockSize       hdl.Constant[bits.Vec]
	AlmostFullLevel hdl.Constant[bits.Vec]

	FillLevel hdl.Signal[hdl.Local, bits.Vec]
	IsEmpty   hdl.Signal[hdl.Local, hdl.Bit]
	IsFull    hdl.Signal[hdl.Local, hdl.Bit]
}

func checkFIFO(block string, addrWidth, blockSize int) error {
	if addrWidth < 1 || addrWidth > 24 {
		return &hdl.ConstructionError{Block: block, Reason: "address width out of range: " + strconv.Itoa(addrWidth)}
	}
	if blockSize < 1 || blockSize > 1<<uint(addrWidth) {
		return &hdl.ConstructionError{Block: block, Reason: "block size out of range: " + strconv.Itoa(blockSize)}
	}
	return nil
}

// NewSyncFIFO returns a FIFO of 2^addrWidth words of the width of fill,
// which is the value of data_out while the FIFO has not been written.
// almost_empty is high when the FIFO holds less than blockSize words and
// almost_full when it has room for less than blockSize more.
//
func NewSyncFIFO[T hdl.Synth[T]](addrWidth, blockSize int, fill T) (*SyncFIFO[T], error) {
	if err := checkFIFO("SyncFIFO", addrWidth, blockSize); err != nil {
		return nil, err
	}
	mem, err := NewRAM(addrWidth, nil, fill)
	if err != nil {
		return nil, err
	}
	pw := addrWidth + 1
	size := uint64(1) << uint(addrWidth)
	return &SyncFIFO[T]{
		DataOut:             hdl.NewSignal[hdl.Out](fill),
		Empty:               hdl.NewSignal[hdl.Out](hdl.Bit(true)),
		AlmostEmpty:         hdl.NewSignal[hdl.Out](hdl.Bit(true)),
		DataIn:              hdl.NewSignal[hdl.In](fill),
		Mem:                 mem,
		WriteAddress:        NewDFF(bits.Zero(pw)),
		WriteAddressDelayed: NewDFF(bits.Zero(pw)),
		ReadAddress:         NewDFF(bits.Zero(pw)),
		OverflowFlag:        NewDFF(hdl.Bit(false)),
		UnderflowFlag:       NewDFF(hdl.Bit(false)),
		FifoSize:            hdl.NewConstant(bits.New(pw, size)),
		BlockSize:           hdl.NewConstant(bits.New(pw, uint64(blockSize))),
		AlmostFullLevel:     hdl.NewConstant(bits.New(pw, size-uint64(blockSize))),
		FillLevel:           hdl.NewSignal[hdl.Local](bits.Zero(pw)),
		IsEmpty:             hdl.NewSignal[hdl.Local](hdl.Bit(true)),
	}, nil
}

func (f *SyncFIFO[T]) Update() {
	clk := f.Clock.Val()
	aw := f.Mem.ReadAddress.Width()
	f.Mem.ReadClock.Next = clk
	f.Mem.WriteClock.Next = clk
	f.WriteAddress.Setup(clk)
	f.WriteAddressDelayed.Setup(clk)
	f.ReadAddress.Setup(clk)
	f.OverflowFlag.Setup(clk)
	f.UnderflowFlag.Setup(clk)

	wp, wpd, rp := f.WriteAddress.Q.Val(), f.WriteAddressDelayed.Q.Val(), f.ReadAddress.Q.Val()
	// readers see the write pointer one cycle late, so that the RAM read
	// port never returns a word written on the same edge.
	f.WriteAddressDelayed.D.Next = wp
	f.IsEmpty.Next = hdl.Bit(rp.Equal(wpd))
	f.FillLevel.Next = wp.Sub(rp)
	f.IsFull.Next = hdl.Bit(f.FillLevel.Val().Equal(f.FifoSize.Val()))
	f.AlmostFull.Next = hdl.Bit(f.FillLevel.Val().Ge(f.AlmostFullLevel.Val()))
	f.AlmostEmpty.Next = hdl.Bit(wpd.Sub(rp).Lt(f.BlockSize.Val()))
	f.Empty.Next = f.IsEmpty.Val()
	f.Full.Next = f.IsFull.Val()

	f.Mem.WriteAddress.Next = wp.Resize(aw)
	f.Mem.WriteData.Next = f.DataIn.Val()
	f.Mem.WriteEnable.Next = false
	f.Mem.ReadAddress.Next = rp.Resize(aw)
	f.DataOut.Next = f.Mem.ReadData.Val()

	write, read := f.Write.Val(), f.Read.Val()
	if write && !f.IsFull.Val() {
		f.WriteAddress.D.Next = wp.AddUint(1)
		f.Mem.WriteEnable.Next = true
	}
	if read && !f.IsEmpty.Val() {
		f.ReadAddress.D.Next = rp.AddUint(1)
		f.Mem.ReadAddress.Next = rp.AddUint(1).Resize(aw)
	}
	f.OverflowFlag.D.Next = f.OverflowFlag.Q.Val() || f.IsFull.Val() && write
	f.UnderflowFlag.D.Next = f.UnderflowFlag.Q.Val() || f.IsEmpty.Val() && read
	f.Overflow.Next = f.OverflowFlag.Q.Val()
	f.Underflow.Next = f.UnderflowFlag.Q.Val()
}

func (f *SyncFIFO[T]) HDL() verilog.Verilog {
	k := hdl.NewKernel(f)
	aw := f.Mem.ReadAddress.Width()
	wp, wpd, rp := k.Val(&f.WriteAddress.Q), k.Val(&f.WriteAddressDelayed.Q), k.Val(&f.ReadAddress.Q)
	isEmpty, isFull := k.Val(&f.IsEmpty), k.Val(&f.IsFull)
	write, read := k.Val(&f.Write), k.Val(&f.Read)
	return k.Combinatorial(
		k.Assign(&f.Mem.ReadClock, k.Val(&f.Clock)),
		k.Assign(&f.Mem.WriteClock, k.Val(&f.Clock)),
		k.SetupDFF(&f.Clock, f.WriteAddress, f.WriteAddressDelayed, f.ReadAddress, f.OverflowFlag, f.UnderflowFlag),
		k.Assign(&f.WriteAddressDelayed.D, wp),
		k.Assign(&f.IsEmpty, rp.Eq(wpd)),
		k.Assign(&f.FillLevel, wp.Sub(rp)),
		k.Assign(&f.IsFull, k.Val(&f.FillLevel).Eq(k.Val(&f.FifoSize))),
		k.Assign(&f.AlmostFull, k.Val(&f.FillLevel).Ge(k.Val(&f.AlmostFullLevel))),
		k.Assign(&f.AlmostEmpty, wpd.Sub(rp).Lt(k.Val(&f.BlockSize))),
		k.Assign(&f.Empty, isEmpty),
		k.Assign(&f.Full, isFull),
		k.Assign(&f.Mem.WriteAddress, wp.Cast(aw)),
		k.Assign(&f.Mem.WriteData, k.Val(&f.DataIn)),
		k.Assign(&f.Mem.WriteEnable, k.Bool(false)),
		k.Assign(&f.Mem.ReadAddress, rp.Cast(aw)),
		k.Assign(&f.DataOut, k.Val(&f.Mem.ReadData)),
		k.If(write.And(isFull.Not()),
			k.Assign(&f.WriteAddress.D, wp.Add(k.Lit(1))),
			k.Assign(&f.Mem.WriteEnable, k.Bool(true)),
		),
		k.If(read.And(isEmpty.Not()),
			k.Assign(&f.ReadAddress.D, rp.Add(k.Lit(1))),
			k.Assign(&f.Mem.ReadAddress, rp.Add(k.Lit(1)).Cast(aw)),
		),
		k.Assign(&f.OverflowFlag.D, k.Val(&f.OverflowFlag.Q).Or(isFull.And(write))),
		k.Assign(&f.UnderflowFlag.D, k.Val(&f.UnderflowFlag.Q).Or(isEmpty.And(read))),
		k.Assign(&f.Overflow, k.Val(&f.OverflowFlag.Q)),
		k.Assign(&f.Underflow, k.Val(&f.UnderflowFlag.Q)),
	)
}

func gray(v bits.Vec) bits.Vec { return v.Xor(v.Shr(1)) }

// AsyncFIFO is a first word fall through FIFO whose write and read sides
// run on independent clocks. The pointers cross clock domains Gray coded,
// through two register synchronizers, so that empty and full are
// pessimistic: a written word shows up on the read side after at least two
// read clock edges.
//
//	Inputs: write_clock, write, data_in, read_clock, read
//	Outputs: full, data_out, empty
//
type AsyncFIFO[T hdl.Synth[T]] struct {
	WriteClock hdl.Signal[hdl.In, hdl.Clock]
	Write      hdl.Signal[hdl.In, hdl.Bit]
	DataIn     hdl.Signal[hdl.In, T]
	Full       hdl.Signal[hdl.Out, hdl.Bit]
	ReadClock  hdl.Signal[hdl.In, hdl.Clock]
	Read       hdl.Signal[hdl.In, hdl.Bit]
	DataOut    hdl.Signal[hdl.Out, T]
	Empty      hdl.Signal[hdl.Out, hdl.Bit]

	Mem *RAM[T]

	// write clock domain
	WritePtr     *DFF[bits.Vec]
	WriteGray    *DFF[bits.Vec]
	ReadGraySync [2]*DFF[bits.Vec]

	// read clock domain
	ReadPtr       *DFF[bits.Vec]
	ReadGray      *DFF[bits.Vec]
	WriteGraySync [2]*DFF[bits.Vec]

	// FullMask flips the two most significant bits of a Gray pointer.
	FullMask hdl.Constant[bits.Vec]
	IsEmpty  hdl.Signal[hdl.Local, hdl.Bit]
	IsFull   hdl.Signal[hdl.Local, hdl.Bit]
}

// NewAsyncFIFO returns a dual clock FIFO of 2^addrWidth words of the width
// of fill.
//
func NewAsyncFIFO[T hdl.Synth[T]](addrWidth int, fill T) (*AsyncFIFO[T], error) {
	if err := checkFIFO("AsyncFIFO", addrWidth, 1); err != nil {
		return nil, err
	}
	mem, err := NewRAM(addrWidth, nil, fill)
	if err != nil {
		return nil, err
	}
	pw := addrWidth + 1
	ptr := func() *DFF[bits.Vec] { return NewDFF(bits.Zero(pw)) }
	return &AsyncFIFO[T]{
		DataIn:        hdl.NewSignal[hdl.In](fill),
		DataOut:       hdl.NewSignal[hdl.Out](fill),
		Empty:         hdl.NewSignal[hdl.Out](hdl.Bit(true)),
		Mem:           mem,
		WritePtr:      ptr(),
		WriteGray:     ptr(),
		ReadGraySync:  [2]*DFF[bits.Vec]{ptr(), ptr()},
		ReadPtr:       ptr(),
		ReadGray:      ptr(),
		WriteGraySync: [2]*DFF[bits.Vec]{ptr(), ptr()},
		FullMask:      hdl.NewConstant(bits.New(pw, 3<<uint(addrWidth-1))),
		IsEmpty:       hdl.NewSignal[hdl.Local](hdl.Bit(true)),
	}, nil
}

func (f *AsyncFIFO[T]) Update() {
	wclk, rclk := f.WriteClock.Val(), f.ReadClock.Val()
	aw := f.Mem.ReadAddress.Width()
	f.Mem.WriteClock.Next = wclk
	f.Mem.ReadClock.Next = rclk
	for _, r := range []*DFF[bits.Vec]{f.WritePtr, f.WriteGray, f.ReadGraySync[0], f.ReadGraySync[1]} {
		r.Setup(wclk)
	}
	for _, r := range []*DFF[bits.Vec]{f.ReadPtr, f.ReadGray, f.WriteGraySync[0], f.WriteGraySync[1]} {
		r.Setup(rclk)
	}

	// write side
	wp := f.WritePtr.Q.Val()
	f.ReadGraySync[0].D.Next = f.ReadGray.Q.Val()
	f.ReadGraySync[1].D.Next = f.ReadGraySync[0].Q.Val()
	f.IsFull.Next = hdl.Bit(f.WriteGray.Q.Val().Equal(f.ReadGraySync[1].Q.Val().Xor(f.FullMask.Val())))
	f.Full.Next = f.IsFull.Val()
	f.Mem.WriteAddress.Next = wp.Resize(aw)
	f.Mem.WriteData.Next = f.DataIn.Val()
	f.Mem.WriteEnable.Next = false
	if f.Write.Val() && !f.IsFull.Val() {
		f.WritePtr.D.Next = wp.AddUint(1)
		f.Mem.WriteEnable.Next = true
	}
	f.WriteGray.D.Next = gray(f.WritePtr.D.Next)

	// read side
	rp := f.ReadPtr.Q.Val()
	f.WriteGraySync[0].D.Next = f.WriteGray.Q.Val()
	f.WriteGraySync[1].D.Next = f.WriteGraySync[0].Q.Val()
	f.IsEmpty.Next = hdl.Bit(f.ReadGray.Q.Val().Equal(f.WriteGraySync[1].Q.Val()))
	f.Empty.Next = f.IsEmpty.Val()
	f.Mem.ReadAddress.Next = rp.Resize(aw)
	f.DataOut.Next = f.Mem.ReadData.Val()
	if f.Read.Val() && !f.IsEmpty.Val() {
		f.ReadPtr.D.Next = rp.AddUint(1)
		f.Mem.ReadAddress.Next = rp.AddUint(1).Resize(aw)
	}
	f.ReadGray.D.Next = gray(f.ReadPtr.D.Next)
}

func (f *AsyncFIFO[T]) HDL() verilog.Verilog {
	k := hdl.NewKernel(f)
	aw := f.Mem.ReadAddress.Width()
	wp, rp := k.Val(&f.WritePtr.Q), k.Val(&f.ReadPtr.Q)
	wpNext, rpNext := k.Val(&f.WritePtr.D), k.Val(&f.ReadPtr.D)
	isEmpty, isFull := k.Val(&f.IsEmpty), k.Val(&f.IsFull)
	return k.Combinatorial(
		k.Assign(&f.Mem.WriteClock, k.Val(&f.WriteClock)),
		k.Assign(&f.Mem.ReadClock, k.Val(&f.ReadClock)),
		k.SetupDFF(&f.WriteClock, f.WritePtr, f.WriteGray, f.ReadGraySync[0], f.ReadGraySync[1]),
		k.SetupDFF(&f.ReadClock, f.ReadPtr, f.ReadGray, f.WriteGraySync[0], f.WriteGraySync[1]),

		k.Comment("write side"),
		k.Assign(&f.ReadGraySync[0].D, k.Val(&f.ReadGray.Q)),
		k.Assign(&f.ReadGraySync[1].D, k.Val(&f.ReadGraySync[0].Q)),
		k.Assign(&f.IsFull, k.Val(&f.WriteGray.Q).Eq(k.Val(&f.ReadGraySync[1].Q).Xor(k.Val(&f.FullMask)))),
		k.Assign(&f.Full, isFull),
		k.Assign(&f.Mem.WriteAddress, wp.Cast(aw)),
		k.Assign(&f.Mem.WriteData, k.Val(&f.DataIn)),
		k.Assign(&f.Mem.WriteEnable, k.Bool(false)),
		k.If(k.Val(&f.Write).And(isFull.Not()),
			k.Assign(&f.WritePtr.D, wp.Add(k.Lit(1))),
			k.Assign(&f.Mem.WriteEnable, k.Bool(true)),
		),
		k.Assign(&f.WriteGray.D, wpNext.Xor(wpNext.Shr(k.Lit(1)))),

		k.Comment("read side"),
		k.Assign(&f.WriteGraySync[0].D, k.Val(&f.WriteGray.Q)),
		k.Assign(&f.WriteGraySync[1].D, k.Val(&f.WriteGraySync[0].Q)),
		k.Assign(&f.IsEmpty, k.Val(&f.ReadGray.Q).Eq(k.Val(&f.WriteGraySync[1].Q))),
		k.Assign(&f.Empty, isEmpty),
		k.Assign(&f.Mem.ReadAddress, rp.Cast(aw)),
		k.Assign(&f.DataOut, k.Val(&f.Mem.ReadData)),
		k.If(k.Val(&f.Read).And(isEmpty.Not()),
			k.Assign(&f.ReadPtr.D, rp.Add(k.Lit(1))),
			k.Assign(&f.Mem.ReadAddress, rp.Add(k.Lit(1)).Cast(aw)),
		),
		k.Assign(&f.ReadGray.D, rpNext.Xor(rpNext.Shr(k.Lit(1)))),
	)
}
