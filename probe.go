// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import "strings"

// Probe is a scoped visitor over a block hierarchy. See Block.Accept.
//
// Scopes are blocks, namespaces are signal bundles within a block. Atoms are
// visited in declaration order, interleaved with child scopes and
// namespaces.
//
type Probe interface {
	VisitStartScope(name string, b *Block)
	VisitStartNamespace(name string, b *Block)
	VisitAtom(name string, a Atom)
	VisitEndNamespace(name string, b *Block)
	VisitEndScope(name string, b *Block)
}

// NullProbe implements Probe with no-op methods. Embed it in probes that do
// not need every method.
//
type NullProbe struct{}

func (NullProbe) VisitStartScope(string, *Block)     {}
func (NullProbe) VisitStartNamespace(string, *Block) {}
func (NullProbe) VisitAtom(string, Atom)             {}
func (NullProbe) VisitEndNamespace(string, *Block)   {}
func (NullProbe) VisitEndScope(string, *Block)       {}

// NamedPath is a stack of names forming a hierarchical path.
//
type NamedPath struct {
	names []string
}

// Push appends a name to the path.
//
func (p *NamedPath) Push(name string) { p.names = append(p.names, name) }

// Pop removes the last name from the path.
//
func (p *NamedPath) Pop() {
	if len(p.names) > 0 {
		p.names = p.names[:len(p.names)-1]
	}
}

// Reset empties the path.
//
func (p *NamedPath) Reset() { p.names = p.names[:0] }

// Len returns the number of names in the path.
//
func (p *NamedPath) Len() int { return len(p.names) }

// Last returns the last name in the path, or "".
//
func (p *NamedPath) Last() string {
	if len(p.names) == 0 {
		return ""
	}
	return p.names[len(p.names)-1]
}

// Parent returns the path without its last name, '$' separated.
//
func (p *NamedPath) Parent() string {
	if len(p.names) == 0 {
		return ""
	}
	return strings.Join(p.names[:len(p.names)-1], "$")
}

// Flat returns the path joined with sep.
//
func (p *NamedPath) Flat(sep string) string { return strings.Join(p.names, sep) }

// String returns the '$' separated path, as used for Verilog identifiers.
//
func (p *NamedPath) String() string { return p.Flat("$") }

// pathProbe tracks the scope and namespace paths during a walk.
type pathProbe struct {
	path, ns NamedPath
}

func (p *pathProbe) VisitStartScope(name string, _ *Block) {
	p.path.Push(name)
	p.ns.Reset()
}

func (p *pathProbe) VisitStartNamespace(name string, _ *Block) { p.ns.Push(name) }
func (p *pathProbe) VisitEndNamespace(string, *Block)          { p.ns.Pop() }
func (p *pathProbe) VisitEndScope(string, *Block)              { p.path.Pop() }

// atomName returns the name of an atom in the current scope, including its
// namespace prefix.
func (p *pathProbe) atomName(name string) string {
	if p.ns.Len() == 0 {
		return name
	}
	return p.ns.Flat("$") + "$" + name
}

// fullName returns the '$' separated path of an atom from the top scope.
func (p *pathProbe) fullName(name string) string {
	return p.path.String() + "$" + p.atomName(name)
}

// atomPaths maps atom ids to their full path.
type atomPaths struct {
	pathProbe
	paths map[uint64]string
}

func (p *atomPaths) VisitAtom(name string, a Atom) {
	p.paths[a.ID()] = p.fullName(name)
}

// Paths returns a map of atom ids to their '$' separated path from the top
// scope, named "top".
//
func Paths(b *Block) map[uint64]string {
	p := &atomPaths{paths: make(map[uint64]string)}
	b.Accept("top", p)
	return p.paths
}
