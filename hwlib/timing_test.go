package hwlib_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/hwlib"
)

var _ = Describe("Strobe", func() {
	It("should reject thresholds out of range", func() {
		_, err := hwlib.NewStrobe(8, 1e6, 10)
		Expect(err).To(BeAssignableToTypeOf(&hdl.ConstructionError{}))
		_, err = hwlib.NewStrobe(32, 1e6, 5e5)
		Expect(err).To(BeAssignableToTypeOf(&hdl.ConstructionError{}))
	})

	It("should pulse 10 times per second with a 1MHz clock", func() {
		x, err := hwlib.NewStrobe(32, 1e6, 10)
		Expect(err).NotTo(HaveOccurred())
		x.Enable.Next = true

		var pulses, wide int
		last := false
		sim := hdl.NewSimulation[*hwlib.Strobe]()
		sim.AddClock(hdl.FreqHzToPeriodFemto(1e6)/2, func(x *hwlib.Strobe) { x.Clock.Next = !x.Clock.Val() })
		sim.AddCustomLogic(func(x *hwlib.Strobe) {
			if !x.Clock.PosEdge() {
				return
			}
			s := bool(x.Strobe.Val())
			if s {
				pulses++
				if last {
					wide++
				}
			}
			last = s
		})
		sim.AddTestbench(func(s *hdl.Sim[*hwlib.Strobe]) error {
			return s.Wait(hdl.FemtosPerSecond)
		})
		Expect(sim.Run(x, 2*hdl.FemtosPerSecond)).To(Succeed())
		Expect(pulses).To(Equal(10))
		Expect(wide).To(BeZero(), "strobes last a single clock cycle")
	})

	It("should hold while disabled", func() {
		x, err := hwlib.NewStrobe(8, 1e3, 100)
		Expect(err).NotTo(HaveOccurred())
		pulses := 0
		sim := hdl.SimpleSim(1e3, func(x *hwlib.Strobe) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.Strobe]) error {
				x, _ := s.Init()
				return s.WaitClockCycles(&x.Clock, 100)
			})
		sim.AddCustomLogic(func(x *hwlib.Strobe) {
			if x.Clock.PosEdge() && bool(x.Strobe.Val()) {
				pulses++
			}
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(pulses).To(BeZero())
	})
})

var _ = Describe("Shot", func() {
	It("should stay active for its duration", func() {
		x, err := hwlib.NewShot(8, time.Millisecond, 1e4)
		Expect(err).NotTo(HaveOccurred())

		var active, fired int
		sim := hdl.SimpleSim(1e4, func(x *hwlib.Shot) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.Shot]) error {
				x, _ := s.Init()
				x.Trigger.Next = true
				if err := s.WaitClockCycle(&x.Clock); err != nil {
					return err
				}
				x.Trigger.Next = false
				return s.WaitClockCycles(&x.Clock, 20)
			})
		sim.AddCustomLogic(func(x *hwlib.Shot) {
			if !x.Clock.PosEdge() {
				return
			}
			if x.Active.Val() {
				active++
			}
			if x.Fired.Val() {
				fired++
			}
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(active).To(Equal(10))
		Expect(fired).To(Equal(1))
	})

	It("should reject durations that do not fit its counter", func() {
		_, err := hwlib.NewShot(4, time.Second, 1e3)
		Expect(err).To(BeAssignableToTypeOf(&hdl.ConstructionError{}))
	})
})

var _ = Describe("Pulser", func() {
	It("should emit 10 cycles pulses every 100 cycles", func() {
		x, err := hwlib.NewPulser(1e4, 100, time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		x.Enable.Next = true

		var (
			edges, riseAt, rises int
			lastFall             = -1
			high                 bool
			widths, gaps         []int
		)
		sim := hdl.NewSimulation[*hwlib.Pulser]()
		sim.AddClock(hdl.FreqHzToPeriodFemto(1e4)/2, func(x *hwlib.Pulser) { x.Clock.Next = !x.Clock.Val() })
		sim.AddCustomLogic(func(x *hwlib.Pulser) {
			if x.Clock.PosEdge() {
				edges++
			}
			p := bool(x.Pulse.Val())
			switch {
			case p && !high:
				rises++
				if lastFall >= 0 {
					gaps = append(gaps, edges-lastFall)
				}
				riseAt = edges
			case !p && high:
				widths = append(widths, edges-riseAt)
				lastFall = edges
			}
			high = p
		})
		sim.AddTestbench(func(s *hdl.Sim[*hwlib.Pulser]) error {
			return s.Wait(200 * hdl.FemtosPerSecond / 1000)
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(rises).To(Equal(20))
		Expect(widths).NotTo(BeEmpty())
		for _, w := range widths {
			Expect(w).To(Equal(10))
		}
		for _, g := range gaps {
			Expect(g).To(BeNumerically(">=", 90))
		}
	})
})

var _ = Describe("PWM", func() {
	It("should be active threshold cycles out of 2^width", func() {
		x := hwlib.NewPWM(8)
		x.Enable.Next = true
		x.Threshold.Next = bits.New(8, 32)

		var n, active int
		sim := hdl.SimpleSim(1e6, func(x *hwlib.PWM) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.PWM]) error {
				x, _ := s.Init()
				return s.WaitClockCycles(&x.Clock, 300)
			})
		sim.AddCustomLogic(func(x *hwlib.PWM) {
			if x.Clock.PosEdge() && n < 256 {
				n++
				if x.Active.Val() {
					active++
				}
			}
		})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(n).To(Equal(256))
		Expect(active).To(Equal(32))
	})
})
