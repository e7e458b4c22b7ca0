package hwlib_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/hwlib"
	"github.com/db47h/hdl/verilog"
)

// counter counts clock cycles modulo 256.
type counter struct {
	Clock hdl.Signal[hdl.In, hdl.Clock]
	Count hdl.Signal[hdl.Out, bits.Vec]
	Acc   *hwlib.DFF[bits.Vec]
}

func newCounter() *counter {
	return &counter{
		Count: hdl.NewSignal[hdl.Out](bits.Zero(8)),
		Acc:   hwlib.NewDFF(bits.Zero(8)),
	}
}

func (c *counter) Update() {
	c.Acc.Clock.Next = c.Clock.Val()
	c.Acc.D.Next = c.Acc.Q.Val().AddUint(1)
	c.Count.Next = c.Acc.Q.Val()
}

func (c *counter) HDL() verilog.Verilog {
	k := hdl.NewKernel(c)
	return k.Combinatorial(
		k.ClockDFF(&c.Clock, c.Acc),
		k.Assign(&c.Acc.D, k.Val(&c.Acc.Q).Add(k.Lit(1))),
		k.Assign(&c.Count, k.Val(&c.Acc.Q)),
	)
}

func counterClock(c *counter) *hdl.Signal[hdl.In, hdl.Clock] { return &c.Clock }

var _ = Describe("DFF", func() {
	It("should count clock cycles", func() {
		sim := hdl.SimpleSim(1e4, counterClock, func(s *hdl.Sim[*counter]) error {
			x, _ := s.Init()
			for i := 1; i <= 600; i++ {
				if err := s.WaitClockCycle(&x.Clock); err != nil {
					return err
				}
				if err := s.AssertEqual(x.Count.Val().Uint64(), uint64(i%256)); err != nil {
					return err
				}
			}
			return s.Done()
		})
		Expect(sim.Run(newCounter(), hdl.FemtosPerSecond)).To(Succeed())
	})

	It("should lower to a clocked always block", func() {
		v, err := hdl.GenerateVerilog(hdl.Elaborate(newCounter()))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(ContainSubstring("always @(posedge clock) q <= d;"))
		Expect(v).To(ContainSubstring("q = 8'h0;"))
		Expect(v).To(ContainSubstring("acc(.clock(acc$clock),.d(acc$d),.q(acc$q));"))
	})
})

var _ = Describe("ResetDFF", func() {
	run := func(async bool) (beforeEdge, afterEdge uint64) {
		x := hwlib.NewResetDFF(bits.New(4, 5), async)
		x.D.Next = bits.New(4, 9)
		sim := hdl.SimpleSim(1e6, func(x *hwlib.ResetDFF[bits.Vec]) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.ResetDFF[bits.Vec]]) error {
				x, _ := s.Init()
				if err := s.WaitClockCycle(&x.Clock); err != nil {
					return err
				}
				if err := s.AssertEqual(x.Q.Val().Uint64(), uint64(9)); err != nil {
					return err
				}
				x.Reset.Next = true
				if err := s.Wait(1); err != nil {
					return err
				}
				beforeEdge = x.Q.Val().Uint64()
				if err := s.WaitClockCycle(&x.Clock); err != nil {
					return err
				}
				afterEdge = x.Q.Val().Uint64()
				x.Reset.Next = false
				return s.WaitClockCycle(&x.Clock)
			})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
		Expect(x.Q.Val().Uint64()).To(Equal(uint64(9)))
		return beforeEdge, afterEdge
	}

	It("should reset on the clock edge when synchronous", func() {
		before, after := run(false)
		Expect(before).To(Equal(uint64(9)))
		Expect(after).To(Equal(uint64(5)))
	})

	It("should reset immediately when asynchronous", func() {
		before, after := run(true)
		Expect(before).To(Equal(uint64(5)))
		Expect(after).To(Equal(uint64(5)))
	})

	It("should add the reset to the sensitivity list when asynchronous", func() {
		v, err := hdl.GenerateVerilog(hdl.Elaborate(hwlib.NewResetDFF(hdl.Bit(true), true)))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(ContainSubstring("always @(posedge clock or posedge reset) begin"))
		Expect(v).To(ContainSubstring("if (reset) q <= 1'h1;"))
	})
})

var _ = Describe("Counter", func() {
	It("should only count when enabled", func() {
		x := hwlib.NewCounter(4)
		sim := hdl.SimpleSim(1e6, func(x *hwlib.Counter) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*hwlib.Counter]) error {
				x, _ := s.Init()
				if err := s.WaitClockCycles(&x.Clock, 3); err != nil {
					return err
				}
				if err := s.AssertEqual(x.Count.Val().Uint64(), uint64(0)); err != nil {
					return err
				}
				x.Enable.Next = true
				if err := s.WaitClockCycles(&x.Clock, 18); err != nil {
					return err
				}
				return s.AssertEqual(x.Count.Val().Uint64(), uint64(18%16))
			})
		Expect(sim.Run(x, hdl.FemtosPerSecond)).To(Succeed())
	})
})
