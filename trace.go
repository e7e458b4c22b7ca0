// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"io"
	"strings"

	"github.com/db47h/hdl/vcd"
)

// traceVar is a VCD variable bound to an atom, or to a field of a composite
// atom.
type traceVar struct {
	atom   Atom
	id     vcd.ID
	enum   []string // variant names of enum atoms
	width  int
	offset int
	last   string
}

func (v *traceVar) value() string {
	if v.atom.HighZ() {
		return strings.Repeat("z", v.width)
	}
	x := v.atom.Value()
	if v.enum != nil {
		if i := x.Int(); i < len(v.enum) {
			return v.enum[i]
		}
		return "?"
	}
	if v.offset != 0 || v.width != x.Width() {
		x = x.Slice(v.width, v.offset)
	}
	return x.VCD()
}

func (v *traceVar) write(w *vcd.Writer, s string) {
	switch {
	case v.enum != nil:
		w.String(v.id, s)
	case v.width == 1:
		w.Scalar(v.id, s[0])
	default:
		w.Vector(v.id, s)
	}
}

// vcdProbe declares a VCD variable for each atom of a hierarchy. Scopes and
// namespaces become VCD scopes.
type vcdProbe struct {
	w    *vcd.Writer
	vars []*traceVar
}

func (p *vcdProbe) VisitStartScope(name string, _ *Block)     { p.w.Scope(name) }
func (p *vcdProbe) VisitStartNamespace(name string, _ *Block) { p.w.Scope(name) }
func (p *vcdProbe) VisitEndNamespace(string, *Block)          { p.w.Upscope() }
func (p *vcdProbe) VisitEndScope(string, *Block)              { p.w.Upscope() }

func (p *vcdProbe) VisitAtom(name string, a Atom) {
	d := a.Descriptor()
	switch d.Kind {
	case KindEnum:
		v := &traceVar{atom: a, enum: d.Variants, width: d.Width}
		v.id = p.w.Var(vcd.String, 1, name)
		p.vars = append(p.vars, v)
	case KindComposite:
		off := 0
		for _, f := range d.Fields {
			v := &traceVar{atom: a, width: f.Type.Width, offset: off}
			v.id = p.w.Var(vcd.Reg, f.Type.Width, name+"$"+f.Name)
			p.vars = append(p.vars, v)
			off += f.Type.Width
		}
	default:
		v := &traceVar{atom: a, width: a.Width()}
		v.id = p.w.Var(vcd.Reg, a.Width(), name)
		p.vars = append(p.vars, v)
	}
}

// tracer writes the value changes of a block hierarchy.
type tracer struct {
	w    *vcd.Writer
	vars []*traceVar
}

func newTracer(w io.Writer, b *Block) (*tracer, error) {
	vw := vcd.NewWriter(w)
	vw.Header("", "hdl", "1 fs")
	p := &vcdProbe{w: vw}
	b.Accept("top", p)
	vw.EndDefinitions()
	return &tracer{w: vw, vars: p.vars}, vw.Err()
}

// dump writes the initial values.
func (t *tracer) dump() {
	t.w.Timestamp(0)
	t.w.BeginDumpvars()
	for _, v := range t.vars {
		v.last = v.value()
		v.write(t.w, v.last)
	}
	t.w.EndDumpvars()
}

// change writes the values that changed since the last call, at time now.
func (t *tracer) change(now uint64) {
	stamped := false
	for _, v := range t.vars {
		s := v.value()
		if s == v.last {
			continue
		}
		if !stamped {
			t.w.Timestamp(now)
			stamped = true
		}
		v.last = s
		v.write(t.w, s)
	}
}

func (t *tracer) flush() error { return t.w.Flush() }

// WriteVCDHeader writes the VCD header and variable definitions of the
// hierarchy rooted at b, followed by a dump of its current values at time 0.
//
func WriteVCDHeader(w io.Writer, b *Block) error {
	t, err := newTracer(w, b)
	if err != nil {
		return err
	}
	t.dump()
	return t.flush()
}
