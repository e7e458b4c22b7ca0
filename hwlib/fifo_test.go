package hwlib_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/hwlib"
)

type syncFIFO = hwlib.SyncFIFO[bits.Vec]

func fifoSim(tb func(s *hdl.Sim[*syncFIFO], x *syncFIFO) error) *hdl.Simulation[*syncFIFO] {
	return hdl.SimpleSim(1e6, func(x *syncFIFO) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
		func(s *hdl.Sim[*syncFIFO]) error {
			x, _ := s.Init()
			return tb(s, x)
		})
}

var _ = Describe("SyncFIFO", func() {
	var x *syncFIFO

	BeforeEach(func() {
		var err error
		x, err = hwlib.NewSyncFIFO(4, 1, bits.Zero(8))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject invalid parameters", func() {
		_, err := hwlib.NewSyncFIFO(0, 1, bits.Zero(8))
		Expect(err).To(BeAssignableToTypeOf(&hdl.ConstructionError{}))
		_, err = hwlib.NewSyncFIFO(4, 17, bits.Zero(8))
		Expect(err).To(BeAssignableToTypeOf(&hdl.ConstructionError{}))
	})

	It("should read back words in order", func() {
		words := []uint64{0xDE, 0xAD, 0xBE, 0xEF}
		sim := fifoSim(func(s *hdl.Sim[*syncFIFO], x *syncFIFO) error {
			if err := s.Assert(bool(x.Empty.Val()), "empty after reset"); err != nil {
				return err
			}
			for _, w := range words {
				x.DataIn.Next = bits.New(8, w)
				x.Write.Next = true
				if err := s.WaitClockCycle(&x.Clock); err != nil {
					return err
				}
			}
			x.Write.Next = false
			if err := s.WaitClockCycles(&x.Clock, 2); err != nil {
				return err
			}
			for _, w := range words {
				if err := s.Assert(!bool(x.Empty.Val()), "not empty"); err != nil {
					return err
				}
				if err := s.AssertEqual(x.DataOut.Val(), bits.New(8, w)); err != nil {
					return err
				}
				x.Read.Next = true
				if err := s.WaitClockCycle(&x.Clock); err != nil {
					return err
				}
			}
			x.Read.Next = false
			if err := s.WaitClockCycle(&x.Clock); err != nil {
				return err
			}
			if err := s.Assert(bool(x.Empty.Val()), "empty after reading all words"); err != nil {
				return err
			}
			return s.Assert(!bool(x.Underflow.Val()), "no underflow")
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
	})

	It("should latch underflows", func() {
		sim := fifoSim(func(s *hdl.Sim[*syncFIFO], x *syncFIFO) error {
			x.Read.Next = true
			if err := s.WaitClockCycle(&x.Clock); err != nil {
				return err
			}
			x.Read.Next = false
			return s.WaitClockCycles(&x.Clock, 3)
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(bool(x.Underflow.Val())).To(BeTrue())
		Expect(bool(x.Overflow.Val())).To(BeFalse())
	})

	It("should report full and latch overflows", func() {
		var almostFull, full, overflow []bool
		sim := fifoSim(func(s *hdl.Sim[*syncFIFO], x *syncFIFO) error {
			x.Write.Next = true
			for i := 0; i < 17; i++ {
				x.DataIn.Next = bits.New(8, uint64(i))
				if err := s.WaitClockCycle(&x.Clock); err != nil {
					return err
				}
				almostFull = append(almostFull, bool(x.AlmostFull.Val()))
				full = append(full, bool(x.Full.Val()))
				overflow = append(overflow, bool(x.Overflow.Val()))
			}
			x.Write.Next = false
			return nil
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		// after 14, 15, 16 and 17 writes
		Expect(almostFull[13:]).To(Equal([]bool{false, true, true, true}))
		Expect(full[14:]).To(Equal([]bool{false, true, true}))
		Expect(overflow[15:]).To(Equal([]bool{false, true}))
		Expect(overflow[:15]).NotTo(ContainElement(true))
	})
})

type asyncFIFO = hwlib.AsyncFIFO[bits.Vec]

var _ = Describe("AsyncFIFO", func() {
	It("should carry words across clock domains in order", func() {
		x, err := hwlib.NewAsyncFIFO(4, bits.Zero(8))
		Expect(err).NotTo(HaveOccurred())

		words := []uint64{1, 2, 3, 5, 8, 13, 21, 34}
		var got []uint64
		sim := hdl.NewSimulation[*asyncFIFO]()
		sim.AddClock(hdl.FreqHzToPeriodFemto(10e6)/2, func(x *asyncFIFO) { x.WriteClock.Next = !x.WriteClock.Val() })
		sim.AddClock(hdl.FreqHzToPeriodFemto(7e6)/2, func(x *asyncFIFO) { x.ReadClock.Next = !x.ReadClock.Val() })
		sim.AddTestbench(func(s *hdl.Sim[*asyncFIFO]) error {
			x, _ := s.Init()
			for _, w := range words {
				x.DataIn.Next = bits.New(8, w)
				x.Write.Next = true
				if err := s.WaitClockCycle(&x.WriteClock); err != nil {
					return err
				}
			}
			x.Write.Next = false
			return nil
		})
		sim.AddTestbench(func(s *hdl.Sim[*asyncFIFO]) error {
			x, _ := s.Init()
			for len(got) < len(words) {
				if err := s.WaitClockCycle(&x.ReadClock); err != nil {
					return err
				}
				if x.Empty.Val() {
					x.Read.Next = false
					continue
				}
				got = append(got, x.DataOut.Val().Uint64())
				x.Read.Next = true
			}
			x.Read.Next = false
			return nil
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond/1000)).To(Succeed())
		Expect(got).To(Equal(words))
		Expect(bool(x.Full.Val())).To(BeFalse())
	})
})
