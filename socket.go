// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"reflect"

	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/verilog"
	"github.com/pkg/errors"
)

type ref struct {
	p uintptr
	t reflect.Type
}

func refOf(x interface{}) ref {
	v := reflect.ValueOf(x)
	if v.Kind() != reflect.Ptr {
		panic(errors.Errorf("kernel reference to non pointer type %T", x))
	}
	return ref{v.Pointer(), v.Type()}
}

// Kernel builds the HDL description of a block. It resolves pointers to the
// signals of the block, of its signal bundles and of its children's ports
// into Verilog names:
//
//	func (s *Counter) HDL() verilog.Verilog {
//		k := hdl.NewKernel(s)
//		return k.Combinatorial(
//			k.Assign(&s.Acc.Clock, k.Val(&s.Clock)),
//			k.Assign(&s.Acc.D, k.Val(&s.Acc.Q).Add(k.Lit(1))),
//		)
//	}
//
// Kernel methods panic on references to signals outside of the block's scope.
//
type Kernel struct {
	names  map[ref]string
	widths map[string]int
}

// NewKernel returns a new kernel for l.
//
func NewKernel(l Logic) *Kernel {
	b := Elaborate(l)
	k := &Kernel{names: make(map[ref]string), widths: make(map[string]int)}
	for n, e := range b.scope() {
		switch {
		case e.atom != nil:
			k.names[refOf(e.atom)] = n
			k.widths[n] = e.atom.Width()
		case e.block != nil:
			k.names[refOf(e.block.logic)] = n
		}
	}
	return k
}

// Name returns the Verilog name of the signal, constant or child block
// pointed to by p.
//
func (k *Kernel) Name(p interface{}) string {
	n, ok := k.names[refOf(p)]
	if !ok {
		panic(errors.Errorf("%T is not in the kernel scope", p))
	}
	return n
}

// Expr is a typed expression under construction. A zero width marks an
// unsized literal whose width is taken from the other operand.
//
type Expr struct {
	node   verilog.Expr
	width  int
	signed bool
	lit    uint64
	free   bool
}

// Node returns the expression as a syntax tree node. Unsized literals get a
// 32 bits width.
//
func (x Expr) Node() verilog.Expr { return x.sized(32) }

// Width returns the width of x, or 0 for unsized literals.
//
func (x Expr) Width() int { return x.width }

func (x Expr) sized(w int) verilog.Expr {
	if x.free {
		if w <= 0 {
			w = 32
		}
		return &verilog.Literal{Value: bits.New(w, x.lit)}
	}
	return x.node
}

// Val references a signal or constant.
//
func (k *Kernel) Val(p interface{}) Expr {
	n := k.Name(p)
	return Expr{node: verilog.Signal(n), width: k.widths[n], signed: isSigned(p)}
}

func isSigned(p interface{}) bool {
	a, ok := p.(Atom)
	return ok && a.Descriptor().Kind == KindSigned
}

// Lit returns an unsized literal.
//
func (k *Kernel) Lit(x uint64) Expr { return Expr{lit: x, free: true} }

// Bits returns a literal of width w.
//
func (k *Kernel) Bits(w int, x uint64) Expr { return k.Vec(bits.New(w, x)) }

// Vec returns a literal bit vector.
//
func (k *Kernel) Vec(v bits.Vec) Expr {
	return Expr{node: &verilog.Literal{Value: v}, width: v.Width()}
}

// SignedLit returns a signed literal.
//
func (k *Kernel) SignedLit(v bits.Signed) Expr {
	return Expr{node: &verilog.Literal{Value: v.Vec(), Signed: true}, width: v.Width(), signed: true}
}

// Bool returns a one bit literal.
//
func (k *Kernel) Bool(b bool) Expr { return k.Vec(bits.FromBool(b)) }

// Enum returns an enum literal.
//
func (k *Kernel) Enum(e Enum) Expr {
	return Expr{node: verilog.Signal(e.Qualified()), width: e.Width()}
}

func binop(op verilog.Op, a, b Expr) Expr {
	w := a.width
	if a.free {
		w = b.width
	}
	if a.free && b.free {
		w = 32
	}
	x := Expr{node: &verilog.Binary{Op: op, L: a.sized(w), R: b.sized(w)}, width: w, signed: a.signed && b.signed}
	switch {
	case op.Comparison():
		x.width, x.signed = 1, false
	case op.Arithmetic():
		x.node.(*verilog.Binary).Width = w
	}
	return x
}

func (x Expr) Add(y Expr) Expr  { return binop(verilog.Add, x, y) }
func (x Expr) Sub(y Expr) Expr  { return binop(verilog.Sub, x, y) }
func (x Expr) Mul(y Expr) Expr  { return binop(verilog.Mul, x, y) }
func (x Expr) And(y Expr) Expr  { return binop(verilog.BitAnd, x, y) }
func (x Expr) Or(y Expr) Expr   { return binop(verilog.BitOr, x, y) }
func (x Expr) Xor(y Expr) Expr  { return binop(verilog.BitXor, x, y) }
func (x Expr) LAnd(y Expr) Expr { return binop(verilog.LogicalAnd, x, y) }
func (x Expr) LOr(y Expr) Expr  { return binop(verilog.LogicalOr, x, y) }
func (x Expr) Eq(y Expr) Expr   { return binop(verilog.Eq, x, y) }
func (x Expr) Ne(y Expr) Expr   { return binop(verilog.Ne, x, y) }
func (x Expr) Lt(y Expr) Expr   { return binop(verilog.Lt, x, y) }
func (x Expr) Le(y Expr) Expr   { return binop(verilog.Le, x, y) }
func (x Expr) Gt(y Expr) Expr   { return binop(verilog.Gt, x, y) }
func (x Expr) Ge(y Expr) Expr   { return binop(verilog.Ge, x, y) }

// Shl shifts x left by y. The result has the width of x.
//
func (x Expr) Shl(y Expr) Expr {
	r := binop(verilog.Shl, x, y)
	r.signed = x.signed
	if !x.free {
		r.width = x.width
		r.node.(*verilog.Binary).Width = x.width
	}
	return r
}

// Shr shifts x right by y. The result has the width of x. Signed values
// are shifted arithmetically.
//
func (x Expr) Shr(y Expr) Expr {
	op := verilog.Shr
	if x.signed {
		op = verilog.Sshr
	}
	r := binop(op, x, y)
	r.signed = x.signed
	if !x.free {
		r.width = x.width
	}
	return r
}

func unop(op verilog.UnaryOp, x Expr, w int) Expr {
	return Expr{node: &verilog.Unary{Op: op, X: x.sized(x.width)}, width: w, signed: x.signed && w == x.width}
}

func (x Expr) Not() Expr       { return unop(verilog.Not, x, x.width) }
func (x Expr) Neg() Expr       { return unop(verilog.Neg, x, x.width) }
func (x Expr) All() Expr       { return unop(verilog.All, x, 1) }
func (x Expr) Any() Expr       { return unop(verilog.Any, x, 1) }
func (x Expr) XorReduce() Expr { return unop(verilog.Xor, x, 1) }

// Cast truncates or zero extends x to w bits.
//
func (x Expr) Cast(w int) Expr {
	if x.free {
		return Expr{node: &verilog.Literal{Value: bits.New(w, x.lit)}, width: w}
	}
	return Expr{node: &verilog.Cast{X: x.node, Width: w}, width: w}
}

// Signed reinterprets x as a signed value.
//
func (x Expr) Signed() Expr {
	return Expr{node: &verilog.SignedCast{X: x.sized(x.width)}, width: x.width, signed: true}
}

// Unsigned reinterprets x as an unsigned value.
//
func (x Expr) Unsigned() Expr {
	return Expr{node: &verilog.UnsignedCast{X: x.sized(x.width)}, width: x.width}
}

// Paren parenthesizes x.
//
func (x Expr) Paren() Expr {
	x.node = &verilog.Paren{X: x.sized(x.width)}
	x.free = false
	return x
}

// Index reads bit i of the signal pointed to by p.
//
func (k *Kernel) Index(p interface{}, i Expr) Expr {
	n := k.Name(p)
	return Expr{node: &verilog.Index{Name: n, Index: i.sized(bits.Clog2(uint64(k.widths[n])) + 1)}, width: 1}
}

// Slice reads w bits of the signal pointed to by p, starting at bit off.
//
func (k *Kernel) Slice(p interface{}, w int, off Expr) Expr {
	n := k.Name(p)
	return Expr{node: &verilog.Slice{Name: n, Width: w, Offset: off.sized(32)}, width: w}
}

// Replace returns the value of the signal pointed to by p with bit i
// replaced by v.
//
func (k *Kernel) Replace(p interface{}, i, v Expr) Expr {
	n := k.Name(p)
	w := k.widths[n]
	return Expr{node: &verilog.IndexReplace{Name: n, Index: i.sized(32), Value: v.sized(1)}, width: w}
}

// Stmt is a statement built by a Kernel.
//
type Stmt interface {
	statements() []verilog.Statement
}

type stmts []verilog.Statement

func (s stmts) statements() []verilog.Statement { return s }

func block(ss []Stmt) verilog.Block {
	var b verilog.Block
	for _, s := range ss {
		b = append(b, s.statements()...)
	}
	return b
}

// Assign assigns v to the signal pointed to by p.
//
func (k *Kernel) Assign(p interface{}, v Expr) Stmt {
	n := k.Name(p)
	return stmts{&verilog.Assignment{Target: verilog.Signal(n), Value: v.sized(k.widths[n])}}
}

// AssignSlice replaces w bits of the signal pointed to by p, starting at bit
// off, with v.
//
func (k *Kernel) AssignSlice(p interface{}, w int, off, v Expr) Stmt {
	return stmts{&verilog.SliceAssignment{Base: k.Name(p), Width: w, Offset: off.sized(32), Value: v.sized(w)}}
}

// AssignIndex assigns v to bit i of the signal pointed to by p.
//
func (k *Kernel) AssignIndex(p interface{}, i, v Expr) Stmt {
	n := k.Name(p)
	return stmts{&verilog.Assignment{Target: &verilog.Index{Name: n, Index: i.sized(32)}, Value: v.sized(1)}}
}

// Comment adds a comment line.
//
func (k *Kernel) Comment(s string) Stmt { return stmts{verilog.Comment(s)} }

// Link drives the signal pointed to by to from the one pointed to by from.
//
func (k *Kernel) Link(from, to interface{}) Stmt {
	return stmts{&verilog.Link{Kind: verilog.Forward, From: k.Name(from), To: k.Name(to)}}
}

// LinkTristate joins two tri-state ports.
//
func (k *Kernel) LinkTristate(a, b interface{}) Stmt {
	return stmts{&verilog.Link{Kind: verilog.Bidirectional, From: k.Name(a), To: k.Name(b)}}
}

// IfStmt is an if statement under construction.
//
type IfStmt struct {
	root, last *verilog.If
}

func (s *IfStmt) statements() []verilog.Statement { return []verilog.Statement{s.root} }

// If starts a conditional statement.
//
func (k *Kernel) If(cond Expr, then ...Stmt) *IfStmt {
	s := &verilog.If{Test: cond.sized(1), Then: block(then)}
	return &IfStmt{s, s}
}

// ElseIf adds an else if clause.
//
func (s *IfStmt) ElseIf(cond Expr, then ...Stmt) *IfStmt {
	n := &verilog.If{Test: cond.sized(1), Then: block(then)}
	s.last.ElseIf = n
	s.last = n
	return s
}

// Else adds the final else clause.
//
func (s *IfStmt) Else(body ...Stmt) *IfStmt {
	s.last.Else = block(body)
	if s.last.Else == nil {
		s.last.Else = verilog.Block{}
	}
	return s
}

// Case is an arm of a Match statement.
//
type Case struct {
	cond Expr
	def  bool
	body []Stmt
}

// Case returns a match arm selected when the tested value equals v.
//
func (k *Kernel) Case(v Expr, body ...Stmt) Case { return Case{cond: v, body: body} }

// Default returns the default match arm.
//
func (k *Kernel) Default(body ...Stmt) Case { return Case{def: true, body: body} }

// Match selects the arm whose value equals x.
//
func (k *Kernel) Match(x Expr, cases ...Case) Stmt {
	m := &verilog.Match{Test: x.sized(32)}
	for _, c := range cases {
		vc := verilog.Case{Block: block(c.body)}
		if !c.def {
			vc.Cond = c.cond.sized(x.width)
		}
		m.Cases = append(m.Cases, vc)
	}
	return stmts{m}
}

// ClockDFF distributes clock to the clock input of registers. Registers are
// child blocks with "clock", "d" and "q" ports.
//
func (k *Kernel) ClockDFF(clock interface{}, regs ...interface{}) Stmt {
	clk := k.Name(clock)
	var s stmts
	for _, r := range regs {
		s = append(s, &verilog.Assignment{Target: verilog.Signal(k.Name(r) + "$clock"), Value: verilog.Signal(clk)})
	}
	return s
}

// SetupDFF distributes clock to registers and makes them hold their value:
// each d input is assigned its q output.
//
func (k *Kernel) SetupDFF(clock interface{}, regs ...interface{}) Stmt {
	s := k.ClockDFF(clock, regs...).(stmts)
	for _, r := range regs {
		n := k.Name(r)
		s = append(s, &verilog.Assignment{Target: verilog.Signal(n + "$d"), Value: verilog.Signal(n + "$q")})
	}
	return s
}

// Block returns the statements as a syntax tree block.
//
func (k *Kernel) Block(ss ...Stmt) verilog.Block { return block(ss) }

// Combinatorial returns the statements as a Combinatorial body.
//
func (k *Kernel) Combinatorial(ss ...Stmt) verilog.Verilog {
	return verilog.Combinatorial(block(ss))
}
