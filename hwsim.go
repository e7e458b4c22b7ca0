// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

// Simulation time is expressed in femtoseconds.
//
const FemtosPerSecond uint64 = 1e15

// FreqHzToPeriodFemto returns the period in femtoseconds of a clock of
// frequency f.
//
func FreqHzToPeriodFemto(f float64) uint64 {
	return uint64(math.Round(float64(FemtosPerSecond) / f))
}

// DefaultMaxPasses is the default limit of update passes per convergence.
//
const DefaultMaxPasses = 100

type simConfig struct {
	log       logr.Logger
	maxPasses int
}

// SimOption configures a Simulation.
//
type SimOption func(*simConfig)

// WithLogger sets the simulation logger. Dispatches are logged at level 1,
// convergence passes at level 2. Failed testbench assertions are logged at
// level 0.
//
func WithLogger(l logr.Logger) SimOption {
	return func(c *simConfig) { c.log = l }
}

// WithMaxPasses sets the maximum number of update passes allowed for the
// circuit to settle after a testbench or clock mutated it.
//
func WithMaxPasses(n int) SimOption {
	return func(c *simConfig) {
		if n > 0 {
			c.maxPasses = n
		}
	}
}

type trigger int

const (
	trigNever trigger = iota
	trigTime
	trigWatch
	trigClock
	trigHalt
	trigError
)

type request[T Logic] struct {
	kind trigger
	at   uint64
	pred func(T) bool
	err  error
}

type worker[T Logic] struct {
	index int
	req   request[T]

	// clocks
	half, phase uint64
	toggle      func(T)
	started     bool

	// testbenches
	tb     func(*Sim[T]) error
	resume chan uint64
	yield  chan request[T]
}

// Simulation is a cooperative event driven simulation of a circuit of type
// T. Clocks and testbenches are registered before calling one of the Run
// methods.
//
// Testbenches run in their own goroutine but never concurrently with the
// simulator or with each other: control is handed over with unbuffered
// channels. A testbench has exclusive access to the circuit between the
// moment it resumes and its next suspension.
//
type Simulation[T Logic] struct {
	cfg     simConfig
	workers []*worker[T]
	custom  []func(T)
}

// NewSimulation returns a new, empty simulation.
//
func NewSimulation[T Logic](opts ...SimOption) *Simulation[T] {
	s := &Simulation[T]{cfg: simConfig{log: logr.Discard(), maxPasses: DefaultMaxPasses}}
	for _, o := range opts {
		o(&s.cfg)
	}
	return s
}

// AddClock adds a clock that calls fn every halfPeriod femtoseconds, starting
// at time halfPeriod. fn usually toggles a clock signal:
//
//	sim.AddClock(5e8, func(x *Counter) { x.Clock.Next = !x.Clock.Val() })
//
func (s *Simulation[T]) AddClock(halfPeriod uint64, fn func(T)) {
	s.AddPhasedClock(halfPeriod, 0, fn)
}

// AddPhasedClock adds a clock whose first call to fn is delayed by phase.
//
func (s *Simulation[T]) AddPhasedClock(halfPeriod, phase uint64, fn func(T)) {
	if halfPeriod == 0 {
		panic(errors.New("zero clock half period"))
	}
	s.workers = append(s.workers, &worker[T]{index: len(s.workers), half: halfPeriod, phase: phase, toggle: fn})
}

// AddTestbench adds a testbench. The simulation ends successfully when all
// testbenches have returned nil. A testbench returning any other error than
// those returned by the Sim methods aborts the simulation.
//
func (s *Simulation[T]) AddTestbench(fn func(*Sim[T]) error) {
	s.workers = append(s.workers, &worker[T]{index: len(s.workers), tb: fn})
}

// AddCustomLogic adds a function called before each update pass. It models
// behavior that blocks cannot express, like the resolution of shared buses.
//
func (s *Simulation[T]) AddCustomLogic(fn func(T)) {
	s.custom = append(s.custom, fn)
}

// Run simulates x until all testbenches are done or maxTime is reached.
//
// Before the simulation starts, x is elaborated and connected, then checked
// with CheckAll. Failing checks are reported as a *SimError.
//
func (s *Simulation[T]) Run(x T, maxTime uint64) error {
	return s.run(x, maxTime, nil)
}

// RunTraced is like Run and writes a VCD trace of all the signals of x to w.
//
func (s *Simulation[T]) RunTraced(x T, maxTime uint64, w io.Writer) error {
	return s.run(x, maxTime, w)
}

// RunToFile is like RunTraced and writes the trace to the named file.
//
func (s *Simulation[T]) RunToFile(x T, maxTime uint64, name string) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "cannot create trace file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "cannot write trace file")
		}
	}()
	return s.run(x, maxTime, f)
}

type runner[T Logic] struct {
	*Simulation[T]
	x     T
	b     *Block
	time  uint64
	trace *tracer
	quit  chan struct{}
	wg    sync.WaitGroup
	paths map[uint64]string
}

func (s *Simulation[T]) run(x T, maxTime uint64, w io.Writer) (err error) {
	b := Elaborate(x)
	b.ConnectAll()
	if err := CheckAll(b); err != nil {
		return &SimError{err}
	}
	r := &runner[T]{Simulation: s, x: x, b: b, quit: make(chan struct{})}
	if w != nil {
		if r.trace, err = newTracer(w, b); err != nil {
			return err
		}
	}
	if r.trace != nil {
		defer func() {
			if ferr := r.trace.flush(); err == nil {
				err = ferr
			}
		}()
	}
	r.start()
	defer r.stop()

	for _, wk := range s.workers {
		if err := r.dispatch(wk); err != nil {
			return err
		}
	}
	if r.trace != nil {
		r.trace.dump()
	}

	for {
		next, err := r.next(maxTime)
		if next == nil || err != nil {
			return err
		}
		if err = r.dispatch(next); err != nil {
			return err
		}
		if r.trace != nil {
			r.trace.change(r.time)
		}
	}
}

// next returns the next worker to dispatch and advances time. It returns a
// nil worker when the simulation is over.
func (r *runner[T]) next(maxTime uint64) (*worker[T], error) {
	active := false
	for _, w := range r.workers {
		switch w.req.kind {
		case trigHalt:
			return nil, ErrSimHalted
		case trigTime, trigWatch:
			active = true
		}
	}
	if !active {
		return nil, nil
	}
	for _, w := range r.workers {
		if w.req.kind == trigWatch && w.req.pred(r.x) {
			return w, nil
		}
	}
	var next *worker[T]
	for _, w := range r.workers {
		if k := w.req.kind; (k == trigTime || k == trigClock) && (next == nil || w.req.at < next.req.at) {
			next = w
		}
	}
	if next == nil {
		return nil, ErrSimStalled
	}
	if next.req.at >= maxTime {
		return nil, ErrMaxTimeReached
	}
	r.time = next.req.at
	return next, nil
}

func (r *runner[T]) start() {
	for _, w := range r.workers {
		w.req, w.started = request[T]{}, false
		if w.tb == nil {
			continue
		}
		w.resume = make(chan uint64)
		w.yield = make(chan request[T])
		sim := &Sim[T]{w: w, x: r.x, quit: r.quit, log: r.cfg.log.WithValues("testbench", w.index)}
		r.wg.Add(1)
		go func(w *worker[T]) {
			defer r.wg.Done()
			select {
			case t := <-w.resume:
				sim.time = t
			case <-r.quit:
				return
			}
			req := sim.exec()
			select {
			case w.yield <- req:
			case <-r.quit:
			}
		}(w)
	}
}

// stop releases the testbenches still waiting, which get ErrSimTerminated.
func (r *runner[T]) stop() {
	close(r.quit)
	r.wg.Wait()
}

func (r *runner[T]) dispatch(w *worker[T]) error {
	log := r.cfg.log.V(1)
	if w.tb == nil {
		if w.started {
			w.toggle(r.x)
			w.req.at += w.half
		} else {
			w.started = true
			w.req = request[T]{kind: trigClock, at: w.phase + w.half}
		}
		return r.converge()
	}
	log.Info("resume testbench", "index", w.index, "time", r.time)
	w.resume <- r.time
	w.req = <-w.yield
	if w.req.kind == trigError {
		return &TestbenchError{Index: w.index, Err: w.req.err}
	}
	return r.converge()
}

func (r *runner[T]) converge() (err error) {
	defer func() {
		if p := recover(); p != nil {
			bc, ok := p.(*BusContentionError)
			if !ok {
				panic(p)
			}
			if r.paths == nil {
				r.paths = Paths(r.b)
			}
			bc.Path = r.paths[bc.ID]
			err = bc
		}
	}()
	for i := 0; i < r.cfg.maxPasses; i++ {
		for _, f := range r.custom {
			f(r.x)
		}
		r.b.UpdateAll()
		if !r.b.HasChanged() {
			r.cfg.log.V(2).Info("converged", "time", r.time, "passes", i+1)
			return nil
		}
	}
	return &ConvergenceError{Time: r.time}
}

// Sim is the endpoint through which a testbench drives a simulation. Its
// methods that suspend the testbench return ErrSimTerminated when the
// simulation ends before the testbench is resumed.
//
type Sim[T Logic] struct {
	w      *worker[T]
	x      T
	time   uint64
	quit   chan struct{}
	log    logr.Logger
	done   bool
	halted bool
}

// exec runs the testbench and returns its final request.
func (s *Sim[T]) exec() (req request[T]) {
	defer func() {
		if p := recover(); p != nil {
			err, ok := p.(error)
			if !ok {
				err = errors.Errorf("panic: %v", p)
			}
			req = request[T]{kind: trigError, err: errors.WithStack(err)}
		}
	}()
	err := s.w.tb(s)
	switch {
	case s.halted:
		return request[T]{kind: trigHalt}
	case err != nil && err != ErrSimTerminated:
		return request[T]{kind: trigError, err: err}
	}
	return request[T]{kind: trigNever}
}

func (s *Sim[T]) suspend(req request[T]) error {
	if s.done || s.halted {
		return ErrSimTerminated
	}
	select {
	case s.w.yield <- req:
	case <-s.quit:
		return ErrSimTerminated
	}
	select {
	case s.time = <-s.w.resume:
		return nil
	case <-s.quit:
		return ErrSimTerminated
	}
}

// Init returns the circuit under simulation. The testbench may set its
// inputs before its first suspension.
//
func (s *Sim[T]) Init() (T, error) { return s.x, nil }

// Time returns the current simulation time.
//
func (s *Sim[T]) Time() uint64 { return s.time }

// Wait suspends the testbench for dt femtoseconds.
//
func (s *Sim[T]) Wait(dt uint64) error {
	return s.suspend(request[T]{kind: trigTime, at: s.time + dt})
}

// Watch suspends the testbench until pred holds on the settled circuit.
//
func (s *Sim[T]) Watch(pred func(T) bool) error {
	return s.suspend(request[T]{kind: trigWatch, pred: pred})
}

// Done marks the testbench as finished. The testbench should return right
// after.
//
func (s *Sim[T]) Done() error {
	s.done = true
	return nil
}

// Halt stops the whole simulation with ErrSimHalted, which it also
// returns.
//
func (s *Sim[T]) Halt() error {
	s.halted = true
	return ErrSimHalted
}

// LevelSignal is a one bit signal with a logic level, like a clock.
//
type LevelSignal interface {
	IsHigh() bool
}

// WaitClockTrue waits until clk is high.
//
func (s *Sim[T]) WaitClockTrue(clk LevelSignal) error {
	return s.Watch(func(T) bool { return clk.IsHigh() })
}

// WaitClockFalse waits until clk is low.
//
func (s *Sim[T]) WaitClockFalse(clk LevelSignal) error {
	return s.Watch(func(T) bool { return !clk.IsHigh() })
}

// WaitClockCycle waits for a full cycle of clk: if clk is high, until its
// next rising edge, otherwise until its next falling edge.
//
func (s *Sim[T]) WaitClockCycle(clk LevelSignal) error {
	if clk.IsHigh() {
		if err := s.WaitClockFalse(clk); err != nil {
			return err
		}
		return s.WaitClockTrue(clk)
	}
	if err := s.WaitClockTrue(clk); err != nil {
		return err
	}
	return s.WaitClockFalse(clk)
}

// WaitClockCycles waits for n cycles of clk.
//
func (s *Sim[T]) WaitClockCycles(clk LevelSignal, n int) error {
	for i := 0; i < n; i++ {
		if err := s.WaitClockCycle(clk); err != nil {
			return err
		}
	}
	return nil
}

// Assert halts the simulation if cond is false.
//
func (s *Sim[T]) Assert(cond bool, msg string) error {
	if cond {
		return nil
	}
	s.log.Info("HALT", "time", s.time, "assertion", msg)
	return s.Halt()
}

// AssertEqual halts the simulation if got and want differ. Values are
// compared with go-cmp: bit vectors, enums and other value types with an
// Equal method compare with it.
//
func (s *Sim[T]) AssertEqual(got, want interface{}) error {
	if cmp.Equal(got, want) {
		return nil
	}
	s.log.Info("HALT", "time", s.time, "diff", cmp.Diff(want, got), "got", fmt.Sprint(got), "want", fmt.Sprint(want))
	return s.Halt()
}

// ResetSim holds rst high for one cycle of clk.
//
func (s *Sim[T]) ResetSim(clk LevelSignal, rst *Signal[In, Reset]) error {
	rst.Next = true
	if err := s.WaitClockCycle(clk); err != nil {
		return err
	}
	rst.Next = false
	return nil
}

// SimpleSim returns a simulation of a circuit with a single clock of the
// given frequency and a single testbench. clock returns the clock input of
// the circuit.
//
func SimpleSim[T Logic](clockHz float64, clock func(T) *Signal[In, Clock], tb func(*Sim[T]) error, opts ...SimOption) *Simulation[T] {
	s := NewSimulation[T](opts...)
	s.AddClock(FreqHzToPeriodFemto(clockHz)/2, func(x T) {
		c := clock(x)
		c.Next = !c.Val()
	})
	s.AddTestbench(tb)
	return s
}
