package hwlib_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/hwlib"
	"github.com/db47h/hdl/verilog"
)

// sharedBus joins two tri-state buffers.
type sharedBus struct {
	LeftEnable  hdl.Signal[hdl.In, hdl.Bit]
	LeftData    hdl.Signal[hdl.In, bits.Vec]
	LeftRead    hdl.Signal[hdl.Out, bits.Vec]
	RightEnable hdl.Signal[hdl.In, hdl.Bit]
	RightData   hdl.Signal[hdl.In, bits.Vec]
	RightRead   hdl.Signal[hdl.Out, bits.Vec]
	Left        *hwlib.TristateBuffer[bits.Vec]
	Right       *hwlib.TristateBuffer[bits.Vec]
}

func newSharedBus() *sharedBus {
	z := bits.Zero(8)
	return &sharedBus{
		LeftData:  hdl.NewSignal[hdl.In](z),
		LeftRead:  hdl.NewSignal[hdl.Out](z),
		RightData: hdl.NewSignal[hdl.In](z),
		RightRead: hdl.NewSignal[hdl.Out](z),
		Left:      hwlib.NewTristateBuffer(z),
		Right:     hwlib.NewTristateBuffer(z),
	}
}

func (b *sharedBus) Update() {
	b.Left.WriteEnable.Next = b.LeftEnable.Val()
	b.Left.WriteData.Next = b.LeftData.Val()
	b.Right.WriteEnable.Next = b.RightEnable.Val()
	b.Right.WriteData.Next = b.RightData.Val()
	hdl.JoinTristate(&b.Left.Bus, &b.Right.Bus)
	b.LeftRead.Next = b.Left.ReadData.Val()
	b.RightRead.Next = b.Right.ReadData.Val()
}

func (b *sharedBus) HDL() verilog.Verilog {
	k := hdl.NewKernel(b)
	return k.Combinatorial(
		k.Assign(&b.Left.WriteEnable, k.Val(&b.LeftEnable)),
		k.Assign(&b.Left.WriteData, k.Val(&b.LeftData)),
		k.Assign(&b.Right.WriteEnable, k.Val(&b.RightEnable)),
		k.Assign(&b.Right.WriteData, k.Val(&b.RightData)),
		k.LinkTristate(&b.Left.Bus, &b.Right.Bus),
		k.Assign(&b.LeftRead, k.Val(&b.Left.ReadData)),
		k.Assign(&b.RightRead, k.Val(&b.Right.ReadData)),
	)
}

var _ = Describe("TristateBuffer", func() {
	It("should carry the value of the driving side", func() {
		x := newSharedBus()
		var left, right uint64
		sim := hdl.NewSimulation[*sharedBus]()
		sim.AddTestbench(func(s *hdl.Sim[*sharedBus]) error {
			x, _ := s.Init()
			x.LeftEnable.Next = true
			x.LeftData.Next = bits.New(8, 0x42)
			if err := s.Wait(1000); err != nil {
				return err
			}
			right = x.RightRead.Val().Uint64()
			x.LeftEnable.Next = false
			x.RightEnable.Next = true
			x.RightData.Next = bits.New(8, 0x43)
			if err := s.Wait(1000); err != nil {
				return err
			}
			left = x.LeftRead.Val().Uint64()
			return nil
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(right).To(Equal(uint64(0x42)))
		Expect(left).To(Equal(uint64(0x43)))
	})

	It("should report bus contention", func() {
		sim := hdl.NewSimulation[*sharedBus]()
		sim.AddTestbench(func(s *hdl.Sim[*sharedBus]) error {
			x, _ := s.Init()
			x.LeftEnable.Next = true
			x.RightEnable.Next = true
			return s.Wait(1000)
		})
		err := sim.Run(newSharedBus(), hdl.FemtosPerSecond)
		Expect(err).To(BeAssignableToTypeOf(&hdl.BusContentionError{}))
		Expect(err.(*hdl.BusContentionError).Path).To(Equal("top$left$bus"))
	})

	It("should lower to a conditional assignment", func() {
		v, err := hdl.GenerateVerilog(hdl.Elaborate(newSharedBus()))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(ContainSubstring("assign bus = write_enable ? write_data : 8'bz;"))
		Expect(v).To(ContainSubstring("inout"))
	})
})
