// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package verilog

import "strings"

const indentString = "    "

type line struct {
	indent int
	text   string
}

// CodeWriter accumulates indented lines of code.
//
// Write appends to a pending line that is flushed with the indentation in
// effect at flush time.
//
type CodeWriter struct {
	lines  []line
	indent int
	buf    strings.Builder
}

// Push increases the indentation level.
func (w *CodeWriter) Push() { w.indent++ }

// Pop decreases the indentation level.
func (w *CodeWriter) Pop() {
	if w.indent > 0 {
		w.indent--
	}
}

// Add flushes any pending text then adds s as complete lines at the current
// indentation.
//
func (w *CodeWriter) Add(s string) {
	w.Flush()
	for _, l := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		w.lines = append(w.lines, line{w.indent, l})
	}
}

// AddLine flushes any pending text and adds s as a single line.
//
func (w *CodeWriter) AddLine(s string) {
	w.Flush()
	w.lines = append(w.lines, line{w.indent, s})
}

// Next adds an empty line.
//
func (w *CodeWriter) Next() { w.AddLine("") }

// Write appends s to the pending line.
//
func (w *CodeWriter) Write(s string) { w.buf.WriteString(s) }

// Writeln appends s to the pending line and flushes it.
//
func (w *CodeWriter) Writeln(s string) {
	w.buf.WriteString(s)
	w.Flush()
}

// Flush terminates the pending line, if any.
//
func (w *CodeWriter) Flush() {
	if w.buf.Len() == 0 {
		return
	}
	for _, l := range strings.Split(w.buf.String(), "\n") {
		w.lines = append(w.lines, line{w.indent, l})
	}
	w.buf.Reset()
}

// String flushes pending text and returns the code.
//
func (w *CodeWriter) String() string {
	w.Flush()
	var b strings.Builder
	for _, l := range w.lines {
		if l.text != "" {
			b.WriteString(strings.Repeat(indentString, l.indent))
			b.WriteString(l.text)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
