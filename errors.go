// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ConstructionError is returned by block constructors whose parameters
// violate the block's invariants.
//
type ConstructionError struct {
	Block  string
	Reason string
}

func (e *ConstructionError) Error() string {
	return "cannot build " + e.Block + ": " + e.Reason
}

// OpenSignal describes an atom that no block drives.
//
type OpenSignal struct {
	Path      string // scope path
	Namespace string // namespace within the scope, if any
	Name      string
}

func (o OpenSignal) String() string {
	if o.Namespace != "" {
		return o.Path + "$" + o.Namespace + "$" + o.Name
	}
	return o.Path + "$" + o.Name
}

// CheckError reports the offenders found by the circuit checkers.
//
type CheckError struct {
	Open   map[uint64]OpenSignal // open signals by atom id
	Loops  [][]string            // combinational cycles, as atom paths
	Writes []string              // blocks writing to their inputs, as atom paths
}

func (e *CheckError) empty() bool {
	return len(e.Open) == 0 && len(e.Loops) == 0 && len(e.Writes) == 0
}

func (e *CheckError) Error() string {
	var parts []string
	if len(e.Open) > 0 {
		var open []string
		for _, o := range e.Open {
			open = append(open, o.String())
		}
		sort.Strings(open)
		parts = append(parts, "open signals: "+strings.Join(open, ", "))
	}
	for _, l := range e.Loops {
		parts = append(parts, "logic loop: "+strings.Join(l, " -> "))
	}
	if len(e.Writes) > 0 {
		parts = append(parts, "writes to inputs: "+strings.Join(e.Writes, ", "))
	}
	return "check failed: " + strings.Join(parts, "; ")
}

// merge adds the offenders of o to e.
func (e *CheckError) merge(o *CheckError) {
	for k, v := range o.Open {
		if e.Open == nil {
			e.Open = make(map[uint64]OpenSignal)
		}
		e.Open[k] = v
	}
	e.Loops = append(e.Loops, o.Loops...)
	e.Writes = append(e.Writes, o.Writes...)
}

// Simulation errors.
//
var (
	ErrMaxTimeReached = errors.New("simulation reached its maximum time")
	ErrSimHalted      = errors.New("simulation halted")
	ErrSimTerminated  = errors.New("simulation terminated")
	ErrSimStalled     = errors.New("simulation stalled: testbenches wait with no pending event")
)

// ConvergenceError is returned when the update passes at a given time do not
// reach a fixed point.
//
type ConvergenceError struct {
	Time uint64
}

func (e *ConvergenceError) Error() string {
	return "logic did not converge at time " + strconv.FormatUint(e.Time, 10)
}

// TestbenchError wraps an error returned by, or a panic raised in, a
// testbench. Index is the registration index of the testbench.
//
type TestbenchError struct {
	Index int
	Err   error
}

func (e *TestbenchError) Error() string {
	return "testbench " + strconv.Itoa(e.Index) + ": " + e.Err.Error()
}

// Cause returns the testbench error.
//
func (e *TestbenchError) Cause() error { return e.Err }

// Unwrap returns the testbench error.
//
func (e *TestbenchError) Unwrap() error { return e.Err }

// BusContentionError reports two drivers on a tri-state net.
//
type BusContentionError struct {
	ID   uint64 // id of one of the signals on the net
	Path string
}

func (e *BusContentionError) Error() string {
	if e.Path == "" {
		return "bus contention on signal #" + strconv.FormatUint(e.ID, 10)
	}
	return "bus contention on " + e.Path
}

// SimError reports a circuit that failed the checks run before a
// simulation.
//
type SimError struct {
	Err error
}

func (e *SimError) Error() string { return "cannot simulate: " + e.Err.Error() }

// Cause returns the underlying error.
//
func (e *SimError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
//
func (e *SimError) Unwrap() error { return e.Err }
