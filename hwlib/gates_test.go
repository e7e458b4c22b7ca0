package hwlib_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/hwlib"
)

var _ = Describe("EdgeDetector", func() {
	// edges returns the edge_signal value observed after each clock cycle
	// while input_signal follows levels.
	edges := func(rising bool, levels ...bool) []bool {
		x := hwlib.NewEdgeDetector(rising)
		var got []bool
		sim := hdl.SimpleSim(1e6, func(x *hwlib.EdgeDetector) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.EdgeDetector]) error {
				x, _ := s.Init()
				for _, l := range levels {
					x.InputSignal.Next = hdl.Bit(l)
					if err := s.WaitClockCycle(&x.Clock); err != nil {
						return err
					}
					got = append(got, bool(x.EdgeSignal.Val()))
				}
				return nil
			})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		return got
	}

	It("should detect rising edges for one cycle", func() {
		Expect(edges(true, false, false, true, true, true, false, true, false)).
			To(Equal([]bool{false, false, true, false, false, false, true, false}))
	})

	It("should detect falling edges for one cycle", func() {
		Expect(edges(false, true, true, false, false, true, false, false)).
			To(Equal([]bool{false, false, true, false, false, true, false}))
	})
})

var _ = Describe("BitSynchronizer", func() {
	It("should delay its input by two clock cycles", func() {
		x := hwlib.NewBitSynchronizer()
		var got []bool
		sim := hdl.SimpleSim(1e6, func(x *hwlib.BitSynchronizer) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.BitSynchronizer]) error {
				x, _ := s.Init()
				x.SigIn.Next = true
				for i := 0; i < 3; i++ {
					if err := s.WaitClockCycle(&x.Clock); err != nil {
						return err
					}
					got = append(got, bool(x.SigOut.Val()))
				}
				return nil
			})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(got).To(Equal([]bool{false, true, true}))
	})
})

var _ = Describe("PulseSynchronizer", func() {
	It("should turn each input pulse into a single output pulse", func() {
		x := hwlib.NewPulseSynchronizer()
		pulses, wide := 0, 0
		last := false
		sim := hdl.NewSimulation[*hwlib.PulseSynchronizer]()
		sim.AddClock(hdl.FreqHzToPeriodFemto(10e6)/2, func(x *hwlib.PulseSynchronizer) { x.ClockIn.Next = !x.ClockIn.Val() })
		sim.AddClock(hdl.FreqHzToPeriodFemto(3e6)/2, func(x *hwlib.PulseSynchronizer) { x.ClockOut.Next = !x.ClockOut.Val() })
		sim.AddCustomLogic(func(x *hwlib.PulseSynchronizer) {
			if !x.ClockOut.PosEdge() {
				return
			}
			p := bool(x.PulseOut.Val())
			if p {
				pulses++
				if last {
					wide++
				}
			}
			last = p
		})
		sim.AddTestbench(func(s *hdl.Sim[*hwlib.PulseSynchronizer]) error {
			x, _ := s.Init()
			for i := 0; i < 3; i++ {
				if err := s.WaitClockCycles(&x.ClockIn, 30); err != nil {
					return err
				}
				x.PulseIn.Next = true
				if err := s.WaitClockCycle(&x.ClockIn); err != nil {
					return err
				}
				x.PulseIn.Next = false
			}
			return s.WaitClockCycles(&x.ClockIn, 30)
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(pulses).To(Equal(3))
		Expect(wide).To(BeZero())
	})
})

var _ = Describe("ResetSynchronizer", func() {
	It("should assert asynchronously and release synchronously", func() {
		x := hwlib.NewResetSynchronizer()
		var trace []bool
		sample := func(x *hwlib.ResetSynchronizer) { trace = append(trace, bool(x.ResetOut.Val())) }
		sim := hdl.SimpleSim(1e6, func(x *hwlib.ResetSynchronizer) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.ResetSynchronizer]) error {
				x, _ := s.Init()
				sample(x)
				for i := 0; i < 2; i++ {
					if err := s.WaitClockCycle(&x.Clock); err != nil {
						return err
					}
					sample(x)
				}
				// assert between two clock edges
				x.ResetIn.Next = true
				if err := s.Wait(1000); err != nil {
					return err
				}
				sample(x)
				x.ResetIn.Next = false
				for i := 0; i < 3; i++ {
					if err := s.WaitClockCycle(&x.Clock); err != nil {
						return err
					}
					sample(x)
				}
				return nil
			})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(trace).To(Equal([]bool{true, true, false, true, true, false, false}))
	})
})
