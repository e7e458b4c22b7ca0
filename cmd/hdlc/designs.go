// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"time"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/hwlib"
	"github.com/go-logr/logr"
)

// A design is a top level circuit hdlc knows how to build and simulate.
type design struct {
	clocked bool
	build   func(c *config) (hdl.Logic, error)
	// trace simulates x, as returned by build, and writes a VCD trace to
	// the named file.
	trace func(x hdl.Logic, c *config, log logr.Logger, name string) error
}

var designs = map[string]design{
	"counter": {
		clocked: true,
		build:   func(c *config) (hdl.Logic, error) { return hwlib.NewCounter(c.Width), nil },
		trace: func(x hdl.Logic, c *config, log logr.Logger, name string) error {
			return clocked(x.(*hwlib.Counter), c, log, name,
				func(x *hwlib.Counter) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
				func(s *hdl.Sim[*hwlib.Counter], x *hwlib.Counter) error {
					x.Enable.Next = true
					return s.WaitClockCycles(&x.Clock, c.Cycles)
				})
		},
	},
	"strobe": {
		clocked: true,
		build: func(c *config) (hdl.Logic, error) {
			return hwlib.NewStrobe(32, c.ClockHz, c.RateHz)
		},
		trace: func(x hdl.Logic, c *config, log logr.Logger, name string) error {
			return clocked(x.(*hwlib.Strobe), c, log, name,
				func(x *hwlib.Strobe) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
				func(s *hdl.Sim[*hwlib.Strobe], x *hwlib.Strobe) error {
					x.Enable.Next = true
					return s.WaitClockCycles(&x.Clock, c.Cycles)
				})
		},
	},
	"pulser": {
		clocked: true,
		build: func(c *config) (hdl.Logic, error) {
			return hwlib.NewPulser(c.ClockHz, c.RateHz, time.Duration(c.PulseNs)*time.Nanosecond)
		},
		trace: func(x hdl.Logic, c *config, log logr.Logger, name string) error {
			return clocked(x.(*hwlib.Pulser), c, log, name,
				func(x *hwlib.Pulser) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
				func(s *hdl.Sim[*hwlib.Pulser], x *hwlib.Pulser) error {
					x.Enable.Next = true
					return s.WaitClockCycles(&x.Clock, c.Cycles)
				})
		},
	},
	"fifo": {
		clocked: true,
		build: func(c *config) (hdl.Logic, error) {
			return hwlib.NewSyncFIFO(c.AddrWidth, c.BlockSize, bits.Zero(c.Width))
		},
		trace: func(x hdl.Logic, c *config, log logr.Logger, name string) error {
			type fifo = hwlib.SyncFIFO[bits.Vec]
			return clocked(x.(*fifo), c, log, name,
				func(x *fifo) *hdl.Signal[hdl.In, hdl.Clock] { return &x.Clock },
				func(s *hdl.Sim[*fifo], x *fifo) error {
					// fill the first half of the run, drain the second
					n := c.Cycles / 2
					for i := 0; i < n; i++ {
						x.Write.Next = true
						x.DataIn.Next = bits.New(c.Width, uint64(i+1))
						if err := s.WaitClockCycle(&x.Clock); err != nil {
							return err
						}
					}
					x.Write.Next = false
					x.Read.Next = true
					return s.WaitClockCycles(&x.Clock, c.Cycles-n)
				})
		},
	},
	"tristate": {
		build: func(c *config) (hdl.Logic, error) {
			return hwlib.NewTristateBuffer(bits.Zero(c.Width)), nil
		},
		trace: func(x hdl.Logic, c *config, log logr.Logger, name string) error {
			type buffer = hwlib.TristateBuffer[bits.Vec]
			period := hdl.FreqHzToPeriodFemto(c.ClockHz)
			sim := hdl.NewSimulation[*buffer](hdl.WithLogger(log))
			sim.AddTestbench(func(s *hdl.Sim[*buffer]) error {
				x, err := s.Init()
				if err != nil {
					return err
				}
				for i := 0; i < c.Cycles; i++ {
					x.WriteEnable.Next = i%2 == 0
					x.WriteData.Next = bits.New(c.Width, uint64(i))
					if err := s.Wait(period); err != nil {
						return err
					}
				}
				return nil
			})
			return sim.RunToFile(x.(*buffer), uint64(c.Cycles+1)*period, name)
		},
	},
}

// clocked runs tb against x, driven by a clock of c.ClockHz, and traces the
// run to the named file.
//
func clocked[T hdl.Logic](x T, c *config, log logr.Logger, name string, clock func(T) *hdl.Signal[hdl.In, hdl.Clock], tb func(*hdl.Sim[T], T) error) error {
	sim := hdl.SimpleSim(c.ClockHz, clock, func(s *hdl.Sim[T]) error {
		x, err := s.Init()
		if err != nil {
			return err
		}
		return tb(s, x)
	}, hdl.WithLogger(log))
	return sim.RunToFile(x, uint64(c.Cycles+1)*hdl.FreqHzToPeriodFemto(c.ClockHz), name)
}
