// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package verilog

import (
	"strconv"
	"strings"

	"github.com/db47h/hdl/bits"
	"github.com/pkg/errors"
)

// Fixup turns a qualified name into a Verilog identifier: a leading '.' is
// dropped, '.' and "::" become '$' and a trailing "$next" is removed.
//
func Fixup(name string) string {
	name = strings.TrimPrefix(name, ".")
	name = strings.Replace(name, "::", "$", -1)
	name = strings.Replace(name, ".", "$", -1)
	return strings.TrimSuffix(name, "$next")
}

// Generate lowers a module body to Verilog text. Custom and Wrapper bodies
// are validated with Validate. Blackbox bodies lower to nothing: the black
// box declaration is appended to the translation unit by the caller.
//
func Generate(v Verilog) (string, error) {
	switch v := v.(type) {
	case nil, Empty:
		return "", nil
	case Combinatorial:
		return Combinational(Block(v)), nil
	case Custom:
		if err := Validate(string(v)); err != nil {
			return "", errors.Wrap(err, "invalid custom Verilog")
		}
		return string(v), nil
	case Wrapper:
		if err := Validate(v.Code); err != nil {
			return "", errors.Wrap(err, "invalid wrapper Verilog")
		}
		if err := Validate(v.Cores); err != nil {
			return "", errors.Wrap(err, "invalid wrapped cores")
		}
		return v.Code, nil
	case Blackbox:
		if err := Validate(v.Body); err != nil {
			return "", errors.Wrapf(err, "invalid black box %s", v.Name)
		}
		return "", nil
	}
	return "", errors.Errorf("unsupported Verilog body %T", v)
}

// Combinational lowers b to a single always @(*) block followed by one
// statement per Link.
//
func Combinational(b Block) string {
	var g generator
	if hasLogic(b) {
		g.w.Write("always @(*) ")
		g.block(b)
	}
	g.w.Flush()
	for _, l := range g.links {
		g.w.AddLine(LinkStatement(l))
	}
	return g.w.String()
}

func hasLogic(b Block) bool {
	for _, s := range b {
		if _, ok := s.(*Link); !ok {
			return true
		}
	}
	return false
}

// LinkStatement returns the Verilog statement implementing l.
//
func LinkStatement(l *Link) string {
	from, to := Fixup(l.From), Fixup(l.To)
	switch l.Kind {
	case Backward:
		return "always @(*) " + from + " = " + to + ";"
	case Bidirectional:
		return "assign " + to + " = " + from + ";"
	}
	return "always @(*) " + to + " = " + from + ";"
}

// Expression renders a single expression.
//
func Expression(e Expr) string {
	var g generator
	g.expr(e, false)
	return g.w.buf.String()
}

type generator struct {
	w     CodeWriter
	links []*Link
}

func (g *generator) block(b Block) {
	g.w.Writeln("begin")
	g.w.Push()
	for _, s := range b {
		g.stmt(s)
	}
	g.w.Pop()
	g.w.AddLine("end")
}

func (g *generator) stmt(s Statement) {
	switch s := s.(type) {
	case *Assignment:
		g.expr(s.Target, false)
		g.w.Write(" = ")
		g.expr(s.Value, true)
		g.w.Writeln(";")
	case *SliceAssignment:
		g.w.Write(Fixup(s.Base))
		g.slice(s.Width, s.Offset)
		g.w.Write(" = ")
		g.expr(s.Value, true)
		g.w.Writeln(";")
	case *If:
		g.cond(s)
	case *Match:
		g.w.Write("case (")
		g.expr(s.Test, false)
		g.w.Writeln(")")
		g.w.Push()
		for _, c := range s.Cases {
			if c.Cond == nil {
				g.w.Write("default")
			} else {
				g.expr(c.Cond, false)
			}
			g.w.Writeln(":")
			g.w.Push()
			g.block(c.Block)
			g.w.Pop()
		}
		g.w.Pop()
		g.w.AddLine("endcase")
	case Comment:
		g.w.AddLine("// " + string(s))
	case *Link:
		g.links = append(g.links, s)
	}
}

func (g *generator) cond(s *If) {
	g.w.Write("if (")
	g.expr(s.Test, false)
	g.w.Write(") ")
	g.block(s.Then)
	switch {
	case s.ElseIf != nil:
		g.w.Write("else ")
		g.cond(s.ElseIf)
	case s.Else != nil:
		g.w.Write("else ")
		g.block(s.Else)
	}
}

func (g *generator) slice(w int, off Expr) {
	if lit, ok := off.(*Literal); ok {
		lo := lit.Value.Int()
		g.w.Write("[" + strconv.Itoa(lo+w-1) + ":" + strconv.Itoa(lo) + "]")
		return
	}
	g.w.Write("[(")
	g.expr(off, false)
	g.w.Write(")+:(" + strconv.Itoa(w) + ")]")
}

func mask(w int) string {
	return bits.Ones(w).Verilog()
}

// operand renders e, parenthesized when it is a binary operation.
func (g *generator) operand(e Expr) {
	if _, ok := e.(*Binary); ok {
		g.w.Write("(")
		g.expr(e, false)
		g.w.Write(")")
		return
	}
	g.expr(e, false)
}

// expr renders e. When top is true, e is the right hand side of an
// assignment and the target width already truncates the result.
func (g *generator) expr(e Expr, top bool) {
	switch e := e.(type) {
	case Signal:
		g.w.Write(Fixup(string(e)))
	case *Literal:
		if e.Signed {
			g.w.Write(e.Value.Signed().Verilog())
		} else {
			g.w.Write(e.Value.Verilog())
		}
	case *Cast:
		g.w.Write("((")
		g.expr(e.X, false)
		g.w.Write(") & " + mask(e.Width) + ")")
	case *SignedCast:
		g.w.Write("$signed(")
		g.expr(e.X, false)
		g.w.Write(")")
	case *UnsignedCast:
		g.w.Write("$unsigned(")
		g.expr(e.X, false)
		g.w.Write(")")
	case *Paren:
		g.w.Write("(")
		g.expr(e.X, false)
		g.w.Write(")")
	case *Binary:
		wrap := !top && e.Width > 0 && e.Op.Arithmetic()
		if wrap {
			g.w.Write("((")
		}
		g.operand(e.L)
		g.w.Write(" " + e.Op.String() + " ")
		g.operand(e.R)
		if wrap {
			g.w.Write(") & " + mask(e.Width) + ")")
		}
	case *Unary:
		g.w.Write(e.Op.String())
		g.operand(e.X)
	case *Index:
		g.w.Write(Fixup(e.Name) + "[")
		g.expr(e.Index, false)
		g.w.Write("]")
	case *Slice:
		g.w.Write(Fixup(e.Name))
		g.slice(e.Width, e.Offset)
	case *IndexReplace:
		n := Fixup(e.Name)
		g.w.Write("((" + n + " & ~(1 << (")
		g.expr(e.Index, false)
		g.w.Write("))) | ((")
		g.expr(e.Value, false)
		g.w.Write(") << (")
		g.expr(e.Index, false)
		g.w.Write(")))")
	}
}

// FilterBlackbox removes (* blackbox *) declarations from a translation
// unit.
//
func FilterBlackbox(text string) string {
	var out []string
	in := false
	for _, l := range strings.Split(text, "\n") {
		in = in || strings.HasPrefix(l, "(* blackbox *)")
		if !in {
			out = append(out, l)
		}
		if strings.HasPrefix(l, "endmodule") {
			in = false
		}
	}
	return strings.Join(out, "\n")
}
