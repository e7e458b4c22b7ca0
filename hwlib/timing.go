// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"math"
	"strconv"
	"time"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
)

func maxCount(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return 1<<uint(width) - 1
}

// clockCycles returns the number of whole clock cycles in d.
func clockCycles(d time.Duration, clockHz float64) float64 {
	// the epsilon absorbs rounding errors on exact multiples
	return math.Floor(float64(d.Nanoseconds())*clockHz/1e9 + 1e-9)
}

// Strobe generates a one cycle pulse at a fixed rate.
//
//	Inputs: clock, enable
//	Outputs: strobe
//	Function: strobe is high during one clock cycle every threshold cycles
//	          while enable is high, threshold = round(clockHz / strobeHz).
//
// The counter loads 1 and reloads 1 after each strobe, so that the first
// strobe happens on the threshold-th enabled cycle.
//
type Strobe struct {
	Enable    hdl.Signal[hdl.In, hdl.Bit]
	Strobe    hdl.Signal[hdl.Out, hdl.Bit]
	Clock     hdl.Signal[hdl.In, hdl.Clock]
	Threshold hdl.Constant[bits.Vec]
	Counter   *DFF[bits.Vec]
}

// NewStrobe returns a strobe generator with a counter of the given width.
// The threshold must be greater than 2 and fit in width bits.
//
func NewStrobe(width int, clockHz, strobeHz float64) (*Strobe, error) {
	if width < 2 || strobeHz <= 0 {
		return nil, &hdl.ConstructionError{Block: "Strobe", Reason: "invalid counter width or strobe frequency"}
	}
	t := math.Round(clockHz / strobeHz)
	if t <= 2 {
		return nil, &hdl.ConstructionError{Block: "Strobe", Reason: "strobe frequency too close to the clock frequency"}
	}
	if t > float64(maxCount(width)) {
		return nil, &hdl.ConstructionError{Block: "Strobe",
			Reason: "threshold " + strconv.FormatFloat(t, 'f', 0, 64) + " does not fit in " + strconv.Itoa(width) + " bits"}
	}
	return &Strobe{
		Threshold: hdl.NewConstant(bits.New(width, uint64(t))),
		Counter:   NewDFF(bits.New(width, 1)),
	}, nil
}

func (s *Strobe) Update() {
	s.Counter.Setup(s.Clock.Val())
	en := bool(s.Enable.Val())
	q := s.Counter.Q.Val()
	if en {
		s.Counter.D.Next = q.AddUint(1)
	}
	s.Strobe.Next = hdl.Bit(en && q.Equal(s.Threshold.Val()))
	if s.Strobe.Val() {
		s.Counter.D.Next = bits.New(q.Width(), 1)
	}
}

func (s *Strobe) HDL() verilog.Verilog {
	k := hdl.NewKernel(s)
	q := k.Val(&s.Counter.Q)
	return k.Combinatorial(
		k.SetupDFF(&s.Clock, s.Counter),
		k.If(k.Val(&s.Enable), k.Assign(&s.Counter.D, q.Add(k.Lit(1)))),
		k.Assign(&s.Strobe, k.Val(&s.Enable).And(q.Eq(k.Val(&s.Threshold)))),
		k.If(k.Val(&s.Strobe), k.Assign(&s.Counter.D, k.Lit(1))),
	)
}

// Shot is a retriggerable one shot.
//
//	Inputs: clock, trigger
//	Outputs: active, fired
//	Function: active goes high on the clock edge that samples trigger and
//	          stays high for duration clock cycles. fired is high during
//	          the last active cycle.
//
type Shot struct {
	Trigger  hdl.Signal[hdl.In, hdl.Bit]
	Active   hdl.Signal[hdl.Out, hdl.Bit]
	Fired    hdl.Signal[hdl.Out, hdl.Bit]
	Clock    hdl.Signal[hdl.In, hdl.Clock]
	Duration hdl.Constant[bits.Vec]
	Counter  *DFF[bits.Vec]
	State    *DFF[hdl.Bit]
}

// NewShot returns a one shot of the given duration, counted in cycles of a
// clockHz clock by a counter of the given width.
//
func NewShot(width int, duration time.Duration, clockHz float64) (*Shot, error) {
	if width < 1 {
		return nil, &hdl.ConstructionError{Block: "Shot", Reason: "invalid counter width"}
	}
	n := clockCycles(duration, clockHz)
	if n < 1 {
		return nil, &hdl.ConstructionError{Block: "Shot", Reason: "duration shorter than a clock cycle"}
	}
	if n > float64(maxCount(width)) {
		return nil, &hdl.ConstructionError{Block: "Shot",
			Reason: "duration of " + strconv.FormatFloat(n, 'f', 0, 64) + " cycles does not fit in " + strconv.Itoa(width) + " bits"}
	}
	return &Shot{
		Duration: hdl.NewConstant(bits.New(width, uint64(n))),
		Counter:  NewDFF(bits.Zero(width)),
		State:    NewDFF(hdl.Bit(false)),
	}, nil
}

func (s *Shot) Update() {
	clk := s.Clock.Val()
	s.Counter.Setup(clk)
	s.State.Setup(clk)
	q, on := s.Counter.Q.Val(), bool(s.State.Q.Val())
	if on {
		s.Counter.D.Next = q.AddUint(1)
	}
	s.Fired.Next = false
	if on && q.Equal(s.Duration.Val()) {
		s.State.D.Next = false
		s.Fired.Next = true
	}
	s.Active.Next = s.State.Q.Val()
	if s.Trigger.Val() {
		s.State.D.Next = true
		s.Counter.D.Next = bits.New(q.Width(), 1)
	}
}

func (s *Shot) HDL() verilog.Verilog {
	k := hdl.NewKernel(s)
	q, on := k.Val(&s.Counter.Q), k.Val(&s.State.Q)
	return k.Combinatorial(
		k.SetupDFF(&s.Clock, s.Counter, s.State),
		k.If(on, k.Assign(&s.Counter.D, q.Add(k.Lit(1)))),
		k.Assign(&s.Fired, k.Bool(false)),
		k.If(on.And(q.Eq(k.Val(&s.Duration))),
			k.Assign(&s.State.D, k.Bool(false)),
			k.Assign(&s.Fired, k.Bool(true)),
		),
		k.Assign(&s.Active, on),
		k.If(k.Val(&s.Trigger),
			k.Assign(&s.State.D, k.Bool(true)),
			k.Assign(&s.Counter.D, k.Lit(1)),
		),
	)
}

// Pulser generates pulses of a fixed duration at a fixed rate.
//
//	Inputs: clock, enable
//	Outputs: pulse
//
type Pulser struct {
	Clock  hdl.Signal[hdl.In, hdl.Clock]
	Enable hdl.Signal[hdl.In, hdl.Bit]
	Pulse  hdl.Signal[hdl.Out, hdl.Bit]
	Strobe *Strobe
	Shot   *Shot
}

// NewPulser returns a pulser emitting pulseHz pulses per second, each
// lasting duration.
//
func NewPulser(clockHz, pulseHz float64, duration time.Duration) (*Pulser, error) {
	st, err := NewStrobe(32, clockHz, pulseHz)
	if err != nil {
		return nil, err
	}
	sh, err := NewShot(32, duration, clockHz)
	if err != nil {
		return nil, err
	}
	return &Pulser{Strobe: st, Shot: sh}, nil
}

func (p *Pulser) Update() {
	p.Strobe.Clock.Next = p.Clock.Val()
	p.Shot.Clock.Next = p.Clock.Val()
	p.Strobe.Enable.Next = p.Enable.Val()
	p.Shot.Trigger.Next = p.Strobe.Strobe.Val()
	p.Pulse.Next = p.Shot.Active.Val()
}

func (p *Pulser) HDL() verilog.Verilog {
	k := hdl.NewKernel(p)
	return k.Combinatorial(
		k.Assign(&p.Strobe.Clock, k.Val(&p.Clock)),
		k.Assign(&p.Shot.Clock, k.Val(&p.Clock)),
		k.Assign(&p.Strobe.Enable, k.Val(&p.Enable)),
		k.Assign(&p.Shot.Trigger, k.Val(&p.Strobe.Strobe)),
		k.Assign(&p.Pulse, k.Val(&p.Shot.Active)),
	)
}

// PWM is a pulse width modulator.
//
//	Inputs: clock, enable, threshold
//	Outputs: active
//	Function: active = enable & (counter < threshold), where counter is a
//	          free running counter of the width of threshold.
//
// The duty cycle is threshold / 2^width.
//
type PWM struct {
	Enable    hdl.Signal[hdl.In, hdl.Bit]
	Threshold hdl.Signal[hdl.In, bits.Vec]
	Active    hdl.Signal[hdl.Out, hdl.Bit]
	Clock     hdl.Signal[hdl.In, hdl.Clock]
	Counter   *DFF[bits.Vec]
}

// NewPWM returns a pulse width modulator with a width bits counter.
//
func NewPWM(width int) *PWM {
	return &PWM{
		Threshold: hdl.NewSignal[hdl.In](bits.Zero(width)),
		Counter:   NewDFF(bits.Zero(width)),
	}
}

func (p *PWM) Update() {
	p.Counter.Setup(p.Clock.Val())
	q := p.Counter.Q.Val()
	p.Counter.D.Next = q.AddUint(1)
	p.Active.Next = hdl.Bit(bool(p.Enable.Val()) && q.Lt(p.Threshold.Val()))
}

func (p *PWM) HDL() verilog.Verilog {
	k := hdl.NewKernel(p)
	q := k.Val(&p.Counter.Q)
	return k.Combinatorial(
		k.ClockDFF(&p.Clock, p.Counter),
		k.Assign(&p.Counter.D, q.Add(k.Lit(1))),
		k.Assign(&p.Active, k.Val(&p.Enable).And(q.Lt(k.Val(&p.Threshold)))),
	)
}
