package hwlib_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/hwlib"
)

func vecs(w int, xs ...uint64) []bits.Vec {
	vs := make([]bits.Vec, len(xs))
	for i, x := range xs {
		vs[i] = bits.New(w, x)
	}
	return vs
}

var _ = Describe("ROM", func() {
	contents := vecs(8, 0x10, 0x20, 0x30, 0x40)

	It("should reject contents that do not fit", func() {
		_, err := hwlib.NewROM(1, contents, bits.Zero(8))
		Expect(err).To(BeAssignableToTypeOf(&hdl.ConstructionError{}))
		_, err = hwlib.NewROM(4, vecs(4, 1), bits.Zero(8))
		Expect(err).To(BeAssignableToTypeOf(&hdl.ConstructionError{}))
	})

	It("should read combinationally", func() {
		x, err := hwlib.NewROM(4, contents, bits.New(8, 0xFF))
		Expect(err).NotTo(HaveOccurred())
		var got []uint64
		sim := hdl.NewSimulation[*hwlib.ROM[bits.Vec]]()
		sim.AddTestbench(func(s *hdl.Sim[*hwlib.ROM[bits.Vec]]) error {
			x, _ := s.Init()
			for a := uint64(0); a < 6; a++ {
				x.Address.Next = bits.New(4, a)
				if err := s.Wait(1000); err != nil {
					return err
				}
				got = append(got, x.Data.Val().Uint64())
			}
			return nil
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(got).To(Equal([]uint64{0x10, 0x20, 0x30, 0x40, 0xFF, 0xFF}))
	})

	It("should lower to a case statement", func() {
		x, err := hwlib.NewROM(4, contents, bits.New(8, 0xFF))
		Expect(err).NotTo(HaveOccurred())
		v, err := hdl.GenerateVerilog(hdl.Elaborate(x))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(ContainSubstring("case (address)"))
		Expect(v).To(ContainSubstring("4'h3: data = 8'h40;"))
		Expect(v).To(ContainSubstring("default: data = 8'hff;"))
	})
})

var _ = Describe("SyncROM", func() {
	It("should register reads", func() {
		x, err := hwlib.NewSyncROM(2, vecs(8, 7, 6, 5, 4), bits.Zero(8))
		Expect(err).NotTo(HaveOccurred())
		sim := hdl.SimpleSim(1e6, func(x *hwlib.SyncROM[bits.Vec]) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.SyncROM[bits.Vec]]) error {
				x, _ := s.Init()
				x.Address.Next = bits.New(2, 2)
				if err := s.Wait(1000); err != nil {
					return err
				}
				if err := s.AssertEqual(x.Data.Val(), bits.Zero(8)); err != nil {
					return err
				}
				if err := s.WaitClockCycle(&x.Clock); err != nil {
					return err
				}
				return s.AssertEqual(x.Data.Val(), bits.New(8, 5))
			})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
	})
})

type ram = hwlib.RAM[bits.Vec]

var _ = Describe("RAM", func() {
	It("should store words and keep its initial content", func() {
		x, err := hwlib.NewRAM(3, vecs(8, 0x11), bits.Zero(8))
		Expect(err).NotTo(HaveOccurred())
		var got []uint64
		sim := hdl.NewSimulation[*ram]()
		sim.AddClock(hdl.FreqHzToPeriodFemto(1e6)/2, func(x *ram) {
			x.ReadClock.Next = !x.ReadClock.Val()
			x.WriteClock.Next = x.ReadClock.Next
		})
		sim.AddTestbench(func(s *hdl.Sim[*ram]) error {
			x, _ := s.Init()
			x.WriteEnable.Next = true
			for a := uint64(1); a < 4; a++ {
				x.WriteAddress.Next = bits.New(3, a)
				x.WriteData.Next = bits.New(8, a*3)
				if err := s.WaitClockCycle(&x.ReadClock); err != nil {
					return err
				}
			}
			x.WriteEnable.Next = false
			for a := uint64(0); a < 5; a++ {
				x.ReadAddress.Next = bits.New(3, a)
				if err := s.WaitClockCycle(&x.ReadClock); err != nil {
					return err
				}
				got = append(got, x.ReadData.Val().Uint64())
			}
			return nil
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(got).To(Equal([]uint64{0x11, 3, 6, 9, 0}))

		// simulation does not leak into the generated initial block
		v, err := hdl.GenerateVerilog(hdl.Elaborate(x))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(ContainSubstring("mem[0] = 8'h11;"))
		Expect(v).NotTo(ContainSubstring("mem[1] = "))
		Expect(v).To(ContainSubstring("reg [7:0] mem[0:7];"))
	})
})
