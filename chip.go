// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"reflect"

	"github.com/db47h/hdl/verilog"
	"github.com/pkg/errors"
)

// member is a named child of a block or namespace. Exactly one of atom,
// block or ns is set.
type member struct {
	name  string
	atom  atom
	block *Block
	ns    []member
}

// A Block is an elaborated circuit node. It wraps a Logic value together with
// its children, discovered by reflection over its exported fields.
//
type Block struct {
	logic   Logic
	members []member
}

// Elaborate builds the block hierarchy rooted at l. The elaboration shares
// all signals with l: updating the block updates l's signals.
//
// Elaborate panics if l is not a pointer to a struct, or if a signal bundle
// contains a block.
//
func Elaborate(l Logic) *Block {
	v := reflect.ValueOf(l)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		panic(errors.Errorf("unsupported logic type %T: not a pointer to a struct", l))
	}
	if v.IsNil() {
		panic(errors.Errorf("nil logic %T", l))
	}
	return &Block{logic: l, members: elaborate(v, "")}
}

func elaborate(v reflect.Value, ns string) []member {
	fs := fields(v)
	ms := make([]member, 0, len(fs))
	for _, f := range fs {
		m := member{name: f.name}
		switch f.kind {
		case fieldAtom:
			m.atom = f.v.Interface().(atom)
		case fieldBlock:
			if ns != "" {
				panic(errors.Errorf("block %s in signal bundle %s", f.name, ns))
			}
			m.block = Elaborate(f.v.Interface().(Logic))
		case fieldNamespace:
			m.ns = elaborate(f.v, f.name)
			if m.ns == nil {
				continue
			}
		}
		ms = append(ms, m)
	}
	return ms
}

// Logic returns the logic wrapped by b.
//
func (b *Block) Logic() Logic { return b.logic }

// HDL returns the Verilog description of b. Blocks that do not implement
// HDLer have an Empty body.
//
func (b *Block) HDL() verilog.Verilog {
	if h, ok := b.logic.(HDLer); ok {
		return h.HDL()
	}
	return verilog.Empty{}
}

// ConnectAll connects the children of b recursively, then b itself. Blocks
// implementing Connector connect the signals they drive in their Connect
// method. Others have the targets of the assignments in their Combinatorial
// HDL body connected. ConnectAll is idempotent.
//
func (b *Block) ConnectAll() {
	b.eachBlock(func(c *Block) { c.ConnectAll() })
	if c, ok := b.logic.(Connector); ok {
		c.Connect()
		return
	}
	code, ok := b.HDL().(verilog.Combinatorial)
	if !ok {
		return
	}
	scope := b.scope()
	for _, w := range verilog.Writes(verilog.Block(code)) {
		if a := scope[verilog.Fixup(w)]; a.atom != nil {
			a.atom.connect()
		}
	}
	verilog.Inspect(verilog.Block(code), func(n verilog.Node) bool {
		if l, ok := n.(*verilog.Link); ok && l.Kind == verilog.Bidirectional {
			for _, name := range []string{l.From, l.To} {
				if a := scope[verilog.Fixup(name)]; a.atom != nil {
					a.atom.connect()
				}
			}
		}
		return true
	})
}

// UpdateAll runs one update pass over the block hierarchy: b's Update method
// is called first, then each child in declaration order. Signals commit
// their pending value when they are reached.
//
func (b *Block) UpdateAll() {
	b.logic.Update()
	updateMembers(b.members)
}

func updateMembers(ms []member) {
	for i := range ms {
		m := &ms[i]
		switch {
		case m.atom != nil:
			m.atom.commit()
		case m.block != nil:
			m.block.UpdateAll()
		default:
			updateMembers(m.ns)
		}
	}
}

// HasChanged reports whether any atom in the hierarchy changed in the last
// update pass.
//
func (b *Block) HasChanged() bool {
	return changed(b.members)
}

func changed(ms []member) bool {
	for i := range ms {
		m := &ms[i]
		switch {
		case m.atom != nil:
			if m.atom.Changed() {
				return true
			}
		case m.block != nil:
			if m.block.HasChanged() {
				return true
			}
		default:
			if changed(m.ns) {
				return true
			}
		}
	}
	return false
}

// Accept walks the hierarchy with probe p. name is the name of b in its
// parent scope; the top block is conventionally named "top".
//
func (b *Block) Accept(name string, p Probe) {
	p.VisitStartScope(name, b)
	b.accept(b.members, p)
	p.VisitEndScope(name, b)
}

func (b *Block) accept(ms []member, p Probe) {
	for i := range ms {
		m := &ms[i]
		switch {
		case m.atom != nil:
			p.VisitAtom(m.name, m.atom)
		case m.block != nil:
			m.block.Accept(m.name, p)
		default:
			p.VisitStartNamespace(m.name, b)
			b.accept(m.ns, p)
			p.VisitEndNamespace(m.name, b)
		}
	}
}

func (b *Block) eachBlock(f func(*Block)) {
	for i := range b.members {
		if c := b.members[i].block; c != nil {
			f(c)
		}
	}
}

// scopeEntry is a name visible from within a block.
type scopeEntry struct {
	atom  atom
	block *Block
	child bool // the atom is a port of a child block
}

// scope returns the names visible from within b's HDL: its own atoms, the
// atoms of its signal bundles and the ports of its children, as '$'
// separated paths relative to b. Child blocks are listed as well.
//
func (b *Block) scope() map[string]scopeEntry {
	s := make(map[string]scopeEntry)
	var walk func(prefix string, ms []member, child bool)
	walk = func(prefix string, ms []member, child bool) {
		for i := range ms {
			m := &ms[i]
			switch {
			case m.atom != nil:
				s[prefix+m.name] = scopeEntry{atom: m.atom, child: child}
			case m.block != nil:
				if !child {
					s[prefix+m.name] = scopeEntry{block: m.block}
					walk(prefix+m.name+"$", m.block.members, true)
				}
			default:
				walk(prefix+m.name+"$", m.ns, child)
			}
		}
	}
	walk("", b.members, false)
	return s
}
