// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package verilog defines the syntax tree of the RTL subset used to describe
// the behavior of logic blocks, and its lowering to Verilog text.
//
package verilog

import "github.com/db47h/hdl/bits"

// Node is implemented by all syntax tree nodes.
//
type Node interface {
	node()
}

// Verilog is the body of a module. It is one of Empty, Combinatorial, Custom,
// Blackbox or Wrapper.
//
type Verilog interface {
	Node
	body()
}

// Empty is the body of a block with no logic of its own.
//
type Empty struct{}

// Combinatorial is a body made of statements that all land in a single
// always @(*) block.
//
type Combinatorial Block

// Custom is a verbatim module body.
//
type Custom string

// Blackbox declares an externally provided core. Only the module interface
// is emitted; Body is the black box declaration appended to the translation
// unit.
//
type Blackbox struct {
	Name string
	Body string
}

// Wrapper inserts Code as the module body and appends Cores to the
// translation unit.
//
type Wrapper struct {
	Code  string
	Cores string
}

// Block is a sequence of statements.
//
type Block []Statement

// Statement is one of Assignment, SliceAssignment, *If, *Match, Comment or
// Link.
//
type Statement interface {
	Node
	stmt()
}

// Assignment assigns Value to Target.
//
type Assignment struct {
	Target Expr
	Value  Expr
}

// SliceAssignment replaces Width bits of Base, starting at Offset, with Value.
//
type SliceAssignment struct {
	Base   string
	Width  int
	Offset Expr
	Value  Expr
}

// If is a conditional statement. At most one of Else and ElseIf is set.
//
type If struct {
	Test   Expr
	Then   Block
	Else   Block
	ElseIf *If
}

// Match is a case statement.
//
type Match struct {
	Test  Expr
	Cases []Case
}

// Case is a single match arm. A nil Cond is the default arm.
//
type Case struct {
	Cond  Expr
	Block Block
}

// Comment is a single line comment.
//
type Comment string

// LinkKind is the direction of a Link.
//
type LinkKind int

// Link kinds.
//
const (
	Forward LinkKind = iota
	Backward
	Bidirectional
)

func (k LinkKind) String() string {
	switch k {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Bidirectional:
		return "bidirectional"
	}
	return "unknown"
}

// Link describes port to port wiring across block boundaries. For Forward
// links From drives To, for Backward links To drives From. Bidirectional
// links are continuous assignments between tri-state nets.
//
type Link struct {
	Kind LinkKind
	From string
	To   string
}

// Expr is an expression node.
//
type Expr interface {
	Node
	expr()
}

// Signal references a signal by its qualified name.
//
type Signal string

// Literal is a sized constant.
//
type Literal struct {
	Value  bits.Vec
	Signed bool
}

// Cast truncates or zero-extends X to Width bits.
//
type Cast struct {
	X     Expr
	Width int
}

// SignedCast reinterprets X as a signed value.
//
type SignedCast struct {
	X Expr
}

// UnsignedCast reinterprets X as an unsigned value.
//
type UnsignedCast struct {
	X Expr
}

// Paren is a parenthesized expression.
//
type Paren struct {
	X Expr
}

// Binary is a binary operation. Width is the width of the result in the
// simulation model, or 0 when unknown.
//
type Binary struct {
	Op    Op
	L, R  Expr
	Width int
}

// Unary is a unary operation.
//
type Unary struct {
	Op UnaryOp
	X  Expr
}

// Index reads a single bit of a signal.
//
type Index struct {
	Name  string
	Index Expr
}

// Slice reads Width bits of a signal starting at Offset.
//
type Slice struct {
	Name   string
	Width  int
	Offset Expr
}

// IndexReplace is the value of Name with the bit at Index replaced by Value.
//
type IndexReplace struct {
	Name  string
	Index Expr
	Value Expr
}

// Op is a binary operator.
//
type Op int

// Binary operators.
//
const (
	Add Op = iota
	Sub
	Mul
	LogicalAnd
	LogicalOr
	BitXor
	BitAnd
	BitOr
	Shl
	Shr
	Sshr
	Eq
	Lt
	Le
	Ne
	Ge
	Gt
)

var opTokens = [...]string{
	Add:        "+",
	Sub:        "-",
	Mul:        "*",
	LogicalAnd: "&&",
	LogicalOr:  "||",
	BitXor:     "^",
	BitAnd:     "&",
	BitOr:      "|",
	Shl:        "<<",
	Shr:        ">>",
	Sshr:       ">>>",
	Eq:         "==",
	Lt:         "<",
	Le:         "<=",
	Ne:         "!=",
	Ge:         ">=",
	Gt:         ">",
}

func (o Op) String() string { return opTokens[o] }

// Arithmetic reports whether the result of o may need more bits than its
// operands.
//
func (o Op) Arithmetic() bool {
	return o == Add || o == Sub || o == Mul || o == Shl
}

// Comparison reports whether o yields a single bit.
//
func (o Op) Comparison() bool {
	return o >= Eq || o == LogicalAnd || o == LogicalOr
}

// UnaryOp is a unary operator.
//
type UnaryOp int

// Unary operators.
//
const (
	Not UnaryOp = iota
	Neg
	All
	Any
	Xor
)

var unaryTokens = [...]string{
	Not: "~",
	Neg: "-",
	All: "&",
	Any: "|",
	Xor: "^",
}

func (o UnaryOp) String() string { return unaryTokens[o] }

func (Empty) node()         {}
func (Combinatorial) node() {}
func (Custom) node()        {}
func (Blackbox) node()      {}
func (Wrapper) node()       {}
func (Empty) body()         {}
func (Combinatorial) body() {}
func (Custom) body()        {}
func (Blackbox) body()      {}
func (Wrapper) body()       {}

func (Block) node()            {}
func (*Case) node()            {}
func (*Assignment) node()      {}
func (*SliceAssignment) node() {}
func (*If) node()              {}
func (*Match) node()           {}
func (Comment) node()          {}
func (*Link) node()            {}
func (*Assignment) stmt()      {}
func (*SliceAssignment) stmt() {}
func (*If) stmt()              {}
func (*Match) stmt()           {}
func (Comment) stmt()          {}
func (*Link) stmt()            {}

func (Signal) node()        {}
func (*Literal) node()      {}
func (*Cast) node()         {}
func (*SignedCast) node()   {}
func (*UnsignedCast) node() {}
func (*Paren) node()        {}
func (*Binary) node()       {}
func (*Unary) node()        {}
func (*Index) node()        {}
func (*Slice) node()        {}
func (*IndexReplace) node() {}
func (Signal) expr()        {}
func (*Literal) expr()      {}
func (*Cast) expr()         {}
func (*SignedCast) expr()   {}
func (*UnsignedCast) expr() {}
func (*Paren) expr()        {}
func (*Binary) expr()       {}
func (*Unary) expr()        {}
func (*Index) expr()        {}
func (*Slice) expr()        {}
func (*IndexReplace) expr() {}
