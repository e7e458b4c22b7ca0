package hwlib_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/hwlib"
	"github.com/db47h/hdl/verilog"
)

var (
	stateType = hdl.NewEnum("State", "Idle", "Run", "Done")
	idle      = stateType.Value("Idle")
	running   = stateType.Value("Run")
	done      = stateType.Value("Done")
)

// machine is a three state machine: start moves it from Idle to Run,
// finish from Run to Done and rearm from Done back to Idle.
type machine struct {
	Clock  hdl.Signal[hdl.In, hdl.Clock]
	Start  hdl.Signal[hdl.In, hdl.Bit]
	Finish hdl.Signal[hdl.In, hdl.Bit]
	Rearm  hdl.Signal[hdl.In, hdl.Bit]
	Busy   hdl.Signal[hdl.Out, hdl.Bit]
	State  *hwlib.DFF[hdl.Enum]
}

func newMachine() *machine { return &machine{State: hwlib.NewDFF(idle)} }

func (m *machine) Update() {
	m.State.Setup(m.Clock.Val())
	q := m.State.Q.Val()
	switch q {
	case idle:
		if m.Start.Val() {
			m.State.D.Next = running
		}
	case running:
		if m.Finish.Val() {
			m.State.D.Next = done
		}
	case done:
		if m.Rearm.Val() {
			m.State.D.Next = idle
		}
	}
	m.Busy.Next = hdl.Bit(q == running)
}

func (m *machine) HDL() verilog.Verilog {
	k := hdl.NewKernel(m)
	q := k.Val(&m.State.Q)
	return k.Combinatorial(
		k.SetupDFF(&m.Clock, m.State),
		k.Match(q,
			k.Case(k.Enum(idle), k.If(k.Val(&m.Start), k.Assign(&m.State.D, k.Enum(running)))),
			k.Case(k.Enum(running), k.If(k.Val(&m.Finish), k.Assign(&m.State.D, k.Enum(done)))),
			k.Case(k.Enum(done), k.If(k.Val(&m.Rearm), k.Assign(&m.State.D, k.Enum(idle)))),
		),
		k.Assign(&m.Busy, q.Eq(k.Enum(running))),
	)
}

func pulse(s *hdl.Sim[*machine], sig *hdl.Signal[hdl.In, hdl.Bit]) error {
	x, _ := s.Init()
	sig.Next = true
	if err := s.WaitClockCycle(&x.Clock); err != nil {
		return err
	}
	sig.Next = false
	return nil
}

var _ = Describe("enum state machine", func() {
	It("should step through its states", func() {
		var vcd bytes.Buffer
		sim := hdl.SimpleSim(1e6, func(x *machine) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
			func(s *hdl.Sim[*machine]) error {
				x, _ := s.Init()
				steps := []struct {
					in   *hdl.Signal[hdl.In, hdl.Bit]
					want hdl.Enum
					busy bool
				}{
					{&x.Finish, idle, false},
					{&x.Start, running, true},
					{&x.Start, running, true},
					{&x.Finish, done, false},
					{&x.Rearm, idle, false},
				}
				for _, st := range steps {
					if err := pulse(s, st.in); err != nil {
						return err
					}
					if err := s.AssertEqual(x.State.Q.Val(), st.want); err != nil {
						return err
					}
					if err := s.AssertEqual(bool(x.Busy.Val()), st.busy); err != nil {
						return err
					}
				}
				return nil
			})
		Expect(sim.RunTraced(newMachine(), hdl.FemtosPerSecond, &vcd)).To(Succeed())
		Expect(vcd.String()).To(ContainSubstring("$var string 1"))
		for _, s := range []string{"sIdle ", "sRun ", "sDone "} {
			Expect(vcd.String()).To(ContainSubstring(s))
		}
	})

	It("should declare its states as local parameters", func() {
		v, err := hdl.GenerateVerilog(hdl.Elaborate(newMachine()))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(ContainSubstring("localparam State$Idle = 2'd0;"))
		Expect(v).To(ContainSubstring("localparam State$Done = 2'd2;"))
		Expect(v).To(ContainSubstring("State$Run"))
		Expect(v).NotTo(ContainSubstring("::"))
	})
})
