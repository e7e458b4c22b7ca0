// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd writes value change dump files as read by waveform viewers
// like GTKWave.
//
// A dump is written in two phases. The header declares the hierarchy of
// scopes and variables:
//
//	w := vcd.NewWriter(f)
//	w.Header("", "hdl", "1 fs")
//	w.Scope("top")
//	clk := w.Var(vcd.Wire, 1, "clock")
//	w.Upscope()
//	w.EndDefinitions()
//
// Then value changes follow, grouped by timestamp:
//
//	w.Timestamp(0)
//	w.Scalar(clk, '0')
//
// Errors are sticky: once a write fails, subsequent calls are no-ops and
// Flush returns the first error.
//
package vcd

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// VarType is the type of a variable.
//
type VarType string

// Variable types.
//
const (
	Reg    VarType = "reg"
	Wire   VarType = "wire"
	String VarType = "string"
)

// ID is the short identifier code of a variable.
//
type ID string

// Writer writes a value change dump.
//
type Writer struct {
	w        *bufio.Writer
	err      error
	next     int
	depth    int
	defsDone bool
	time     uint64
	stamped  bool
}

// NewWriter returns a new Writer writing to w.
//
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) printf(ss ...string) {
	if w.err != nil {
		return
	}
	for _, s := range ss {
		if _, err := w.w.WriteString(s); err != nil {
			w.err = errors.Wrap(err, "vcd write failed")
			return
		}
	}
}

// Header writes the $date, $version and $timescale sections. An empty date
// omits the $date section.
//
func (w *Writer) Header(date, version, timescale string) {
	if date != "" {
		w.printf("$date\n    ", date, "\n$end\n")
	}
	w.printf("$version\n    ", version, "\n$end\n")
	w.printf("$timescale ", timescale, " $end\n")
}

// Date formats t the way VCD headers usually carry it.
//
func Date(t time.Time) string {
	return t.Format("Mon Jan 2 15:04:05 2006")
}

// Scope opens a module scope.
//
func (w *Writer) Scope(name string) {
	w.depth++
	w.printf("$scope module ", escape(name), " $end\n")
}

// Upscope closes the innermost scope.
//
func (w *Writer) Upscope() {
	if w.depth == 0 {
		w.setErr(errors.New("vcd: $upscope without matching $scope"))
		return
	}
	w.depth--
	w.printf("$upscope $end\n")
}

// Var declares a variable in the current scope and returns its identifier
// code.
//
func (w *Writer) Var(typ VarType, width int, name string) ID {
	if w.defsDone {
		w.setErr(errors.Errorf("vcd: variable %s declared after $enddefinitions", name))
	}
	id := idCode(w.next)
	w.next++
	w.printf("$var ", string(typ), " ", strconv.Itoa(width), " ", string(id), " ", escape(name), " $end\n")
	return id
}

// EndDefinitions terminates the header. Open scopes are closed.
//
func (w *Writer) EndDefinitions() {
	for w.depth > 0 {
		w.Upscope()
	}
	w.defsDone = true
	w.printf("$enddefinitions $end\n")
}

// BeginDumpvars starts the initial value section.
//
func (w *Writer) BeginDumpvars() { w.printf("$dumpvars\n") }

// EndDumpvars terminates the initial value section.
//
func (w *Writer) EndDumpvars() { w.printf("$end\n") }

// Timestamp starts a new time record. Timestamps must not decrease;
// a repeated timestamp is written only once.
//
func (w *Writer) Timestamp(t uint64) {
	if w.stamped {
		if t < w.time {
			w.setErr(errors.Errorf("vcd: timestamp %d before %d", t, w.time))
			return
		}
		if t == w.time {
			return
		}
	}
	w.time, w.stamped = t, true
	w.printf("#", strconv.FormatUint(t, 10), "\n")
}

// Scalar writes the value of a one bit variable: one of '0', '1', 'x' or 'z'.
//
func (w *Writer) Scalar(id ID, v byte) {
	w.printf(string(v), string(id), "\n")
}

// Vector writes the value of a vector variable given as a string of binary
// digits, most significant first. The digits 'x' and 'z' are allowed.
//
func (w *Writer) Vector(id ID, digits string) {
	w.printf("b", digits, " ", string(id), "\n")
}

// String writes the value of a string variable.
//
func (w *Writer) String(id ID, s string) {
	w.printf("s", escape(s), " ", string(id), "\n")
}

// Flush flushes buffered output and returns the first error encountered.
//
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = errors.Wrap(err, "vcd flush failed")
	}
	return w.err
}

// Err returns the first error encountered.
//
func (w *Writer) Err() error { return w.err }

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

// idCode returns the identifier code for the n-th variable: a base 94 number
// written with the printable ASCII characters '!' through '~'.
//
func idCode(n int) ID {
	const base = '~' - '!' + 1
	var b []byte
	for {
		b = append(b, byte('!'+n%base))
		n /= base
		if n == 0 {
			break
		}
		n--
	}
	return ID(b)
}

// escape replaces white space in identifiers and string values.
func escape(s string) string {
	if !strings.ContainsAny(s, " \t\n\r") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
