// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"sort"

	"github.com/db47h/hdl/verilog"
)

// CheckConnected checks that every atom of the hierarchy is driven. The
// inputs and tri-state ports of the top block are driven by the environment
// and are exempt.
//
// It returns a *CheckError listing the open signals, or nil.
//
func CheckConnected(b *Block) error {
	p := &connectProbe{open: make(map[uint64]OpenSignal)}
	b.Accept("top", p)
	if len(p.open) == 0 {
		return nil
	}
	return &CheckError{Open: p.open}
}

type connectProbe struct {
	pathProbe
	open map[uint64]OpenSignal
}

func (p *connectProbe) VisitAtom(name string, a Atom) {
	if p.path.Len() == 1 {
		if k := a.Kind(); k == InputParameter || k == InOutParameter {
			return
		}
	}
	if !a.IsConnected() {
		p.open[a.ID()] = OpenSignal{Path: p.path.String(), Namespace: p.ns.Flat("$"), Name: name}
	}
}

// CheckLogicLoops checks that the circuit has no combinational cycle.
//
// The dependency graph spans the whole hierarchy: each Combinatorial body
// adds an edge from every signal it reads, including the tests of
// conditionals, to every signal it assigns. A read of a signal the body has
// already assigned stands for the signals that value was computed from.
// Custom, Wrapper and Blackbox bodies are opaque: registers break loops.
// Forward and backward links add edges as well.
//
// It returns a *CheckError listing the cycles, or nil.
//
func CheckLogicLoops(b *Block) error {
	p := &loopProbe{atomPaths: atomPaths{paths: make(map[uint64]string)}, edges: make(map[uint64][]uint64)}
	b.Accept("top", p)
	loops := p.cycles()
	if len(loops) == 0 {
		return nil
	}
	return &CheckError{Loops: loops}
}

type loopProbe struct {
	atomPaths
	edges map[uint64][]uint64
}

func (p *loopProbe) VisitStartScope(name string, b *Block) {
	p.atomPaths.VisitStartScope(name, b)
	code, ok := b.HDL().(verilog.Combinatorial)
	if !ok {
		return
	}
	scope := b.scope()
	for _, d := range verilog.Dependencies(verilog.Block(code)) {
		t := scope[verilog.Fixup(d.Target)].atom
		if t == nil {
			continue
		}
		for _, src := range d.Sources {
			if s := scope[verilog.Fixup(src)].atom; s != nil {
				p.edges[s.ID()] = append(p.edges[s.ID()], t.ID())
			}
		}
	}
}

// cycles returns the strongly connected components of the dependency graph
// that form cycles, using Tarjan's algorithm.
func (p *loopProbe) cycles() [][]string {
	var (
		index   = make(map[uint64]int)
		low     = make(map[uint64]int)
		onStack = make(map[uint64]bool)
		stack   []uint64
		next    int
		loops   [][]string
	)
	selfLoop := func(v uint64) bool {
		for _, w := range p.edges[v] {
			if w == v {
				return true
			}
		}
		return false
	}
	var connect func(v uint64)
	connect = func(v uint64) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range p.edges[v] {
			if _, ok := index[w]; !ok {
				connect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && index[w] < low[v] {
				low[v] = index[w]
			}
		}
		if low[v] != index[v] {
			return
		}
		var scc []uint64
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 || selfLoop(v) {
			names := make([]string, len(scc))
			for i, id := range scc {
				names[i] = p.paths[id]
			}
			sort.Strings(names)
			loops = append(loops, names)
		}
	}

	nodes := make([]uint64, 0, len(p.edges))
	for v := range p.edges {
		nodes = append(nodes, v)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	for _, v := range nodes {
		if _, ok := index[v]; !ok {
			connect(v)
		}
	}
	sort.Slice(loops, func(i, j int) bool { return loops[i][0] < loops[j][0] })
	return loops
}

// CheckWritesToInputs checks that no block assigns its own inputs, or the
// outputs of its children, in its Combinatorial body.
//
// It returns a *CheckError listing the offending assignments, or nil.
//
func CheckWritesToInputs(b *Block) error {
	p := &writeProbe{}
	b.Accept("top", p)
	if len(p.writes) == 0 {
		return nil
	}
	return &CheckError{Writes: p.writes}
}

type writeProbe struct {
	pathProbe
	writes []string
}

func (p *writeProbe) VisitStartScope(name string, b *Block) {
	p.pathProbe.VisitStartScope(name, b)
	code, ok := b.HDL().(verilog.Combinatorial)
	if !ok {
		return
	}
	scope := b.scope()
	for _, w := range verilog.Writes(verilog.Block(code)) {
		n := verilog.Fixup(w)
		e := scope[n]
		if e.atom == nil {
			continue
		}
		k := e.atom.Kind()
		if !e.child && k == InputParameter ||
			e.child && (k == OutputParameter || k == PassthroughParameter) {
			p.writes = append(p.writes, p.path.String()+"$"+n)
		}
	}
}

func (p *writeProbe) VisitAtom(string, Atom) {}

// CheckAll runs all the checkers and merges their findings in a single
// *CheckError.
//
func CheckAll(b *Block) error {
	var all CheckError
	for _, check := range []func(*Block) error{CheckConnected, CheckLogicLoops, CheckWritesToInputs} {
		if err := check(b); err != nil {
			all.merge(err.(*CheckError))
		}
	}
	if all.empty() {
		return nil
	}
	return &all
}
