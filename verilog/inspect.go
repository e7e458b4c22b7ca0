// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package verilog

// Inspect traverses the syntax tree rooted at n in depth-first order. It
// calls f(n); if f returns true, Inspect recurses into each of the children
// of n.
//
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case Combinatorial:
		Inspect(Block(n), f)
	case Block:
		for _, s := range n {
			Inspect(s, f)
		}
	case *Assignment:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *SliceAssignment:
		Inspect(n.Offset, f)
		Inspect(n.Value, f)
	case *If:
		Inspect(n.Test, f)
		Inspect(n.Then, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
		if n.ElseIf != nil {
			Inspect(n.ElseIf, f)
		}
	case *Match:
		Inspect(n.Test, f)
		for i := range n.Cases {
			Inspect(&n.Cases[i], f)
		}
	case *Case:
		if n.Cond != nil {
			Inspect(n.Cond, f)
		}
		Inspect(n.Block, f)
	case *Cast:
		Inspect(n.X, f)
	case *SignedCast:
		Inspect(n.X, f)
	case *UnsignedCast:
		Inspect(n.X, f)
	case *Paren:
		Inspect(n.X, f)
	case *Binary:
		Inspect(n.L, f)
		Inspect(n.R, f)
	case *Unary:
		Inspect(n.X, f)
	case *Index:
		Inspect(n.Index, f)
	case *Slice:
		Inspect(n.Offset, f)
	case *IndexReplace:
		Inspect(n.Index, f)
		Inspect(n.Value, f)
	}
}

// TargetName returns the name of the signal written by an assignment target
// expression, or "" if the expression is not assignable.
//
func TargetName(e Expr) string {
	switch e := e.(type) {
	case Signal:
		return string(e)
	case *Index:
		return e.Name
	case *Slice:
		return e.Name
	case *Paren:
		return TargetName(e.X)
	}
	return ""
}

// Reads returns the names of all signals read by e, in order of appearance.
//
func Reads(e Expr) []string {
	var names []string
	Inspect(e, func(n Node) bool {
		switch n := n.(type) {
		case Signal:
			names = append(names, string(n))
		case *Index:
			names = append(names, n.Name)
		case *Slice:
			names = append(names, n.Name)
		case *IndexReplace:
			names = append(names, n.Name)
		}
		return true
	})
	return names
}

// Writes returns the names of all signals assigned in b, in order of first
// appearance.
//
func Writes(b Block) []string {
	var names []string
	seen := make(map[string]bool)
	for _, d := range Dependencies(b) {
		if !seen[d.Target] {
			seen[d.Target] = true
			names = append(names, d.Target)
		}
	}
	return names
}

// Dependency records that Target is assigned a value computed from Sources.
// Sources include the signals read by every enclosing condition.
//
type Dependency struct {
	Target  string
	Sources []string
}

// Dependencies returns the data and control dependencies of every
// assignment in b, including those described by Link statements.
//
// A read of a signal assigned earlier on every path to the read sees the
// value computed in the same pass: it is replaced by the sources of that
// value.
//
func Dependencies(b Block) []Dependency {
	var deps []Dependency
	depBlock(b, nil, make(assigned), &deps)
	return deps
}

// assigned maps the signals fully assigned so far in a block to the sources
// of their current value.
type assigned map[string][]string

func (a assigned) clone() assigned {
	c := make(assigned, len(a))
	for n, src := range a {
		c[n] = src
	}
	return c
}

// sources returns the sources of the values read by e.
func (a assigned) sources(e Expr) []string {
	var names []string
	for _, n := range Reads(e) {
		if src, ok := a[n]; ok {
			names = union(names, src...)
		} else {
			names = union(names, n)
		}
	}
	return names
}

// join keeps in a the signals assigned on all paths, with the sources of
// every path.
func (a assigned) join(paths ...assigned) {
	for n := range a {
		delete(a, n)
	}
	for n, src := range paths[0] {
		all := true
		for _, p := range paths[1:] {
			s, ok := p[n]
			if !ok {
				all = false
				break
			}
			src = union(src, s...)
		}
		if all {
			a[n] = src
		}
	}
}

func union(set []string, names ...string) []string {
	out := append([]string(nil), set...)
	for _, n := range names {
		dup := false
		for _, m := range out {
			if m == n {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}

func depBlock(b Block, ctl []string, a assigned, deps *[]Dependency) {
	for _, s := range b {
		switch s := s.(type) {
		case *Assignment:
			src := union(ctl, a.sources(s.Value)...)
			// indexed targets also depend on their index expression.
			switch t := s.Target.(type) {
			case *Index:
				src = union(src, a.sources(t.Index)...)
			case *Slice:
				src = union(src, a.sources(t.Offset)...)
			}
			name := TargetName(s.Target)
			*deps = append(*deps, Dependency{Target: name, Sources: src})
			a.update(name, src, isSignal(s.Target))
		case *SliceAssignment:
			src := union(ctl, a.sources(s.Value)...)
			src = union(src, a.sources(s.Offset)...)
			*deps = append(*deps, Dependency{Target: s.Base, Sources: src})
			a.update(s.Base, src, false)
		case *If:
			depIf(s, ctl, a, deps)
		case *Match:
			c := union(ctl, a.sources(s.Test)...)
			var paths []assigned
			exhaustive := false
			for _, cs := range s.Cases {
				cc := c
				if cs.Cond != nil {
					cc = union(c, a.sources(cs.Cond)...)
				} else {
					exhaustive = true
				}
				p := a.clone()
				depBlock(cs.Block, cc, p, deps)
				paths = append(paths, p)
			}
			if !exhaustive {
				paths = append(paths, a.clone())
			}
			a.join(paths...)
		case *Link:
			switch s.Kind {
			case Forward:
				*deps = append(*deps, Dependency{Target: s.To, Sources: []string{s.From}})
			case Backward:
				*deps = append(*deps, Dependency{Target: s.From, Sources: []string{s.To}})
			}
		}
	}
}

// update records an assignment to name. A partial assignment merges its
// sources into those of a fully assigned signal and leaves others alone.
func (a assigned) update(name string, src []string, full bool) {
	if full {
		a[name] = src
	} else if prev, ok := a[name]; ok {
		a[name] = union(prev, src...)
	}
}

func isSignal(e Expr) bool {
	_, ok := e.(Signal)
	return ok
}

func depIf(s *If, ctl []string, a assigned, deps *[]Dependency) {
	c := union(ctl, a.sources(s.Test)...)
	then := a.clone()
	depBlock(s.Then, c, then, deps)
	other := a.clone()
	switch {
	case s.ElseIf != nil:
		depIf(s.ElseIf, c, other, deps)
	case s.Else != nil:
		depBlock(s.Else, c, other, deps)
	}
	a.join(then, other)
}
