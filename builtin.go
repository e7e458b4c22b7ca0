// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strings"

	"github.com/db47h/hdl/bits"
	"github.com/pkg/errors"
)

// Synth is the set of value types that signals can carry.
//
// Width returns the width in bits of the value, which must be the same for
// all values of a given signal. Equal reports whether two values are equal
// and Vec returns the raw bits of the value.
//
type Synth[T any] interface {
	Width() int
	Equal(T) bool
	Vec() bits.Vec
}

// TypeKind is the kind of a type Descriptor.
//
type TypeKind int

// Type kinds.
//
const (
	KindBits TypeKind = iota
	KindSigned
	KindEnum
	KindComposite
)

func (k TypeKind) String() string {
	switch k {
	case KindBits:
		return "bits"
	case KindSigned:
		return "signed"
	case KindEnum:
		return "enum"
	case KindComposite:
		return "composite"
	}
	return "unknown"
}

// Descriptor is the structural description of a value type. It drives VCD
// grouping and Verilog literal formatting.
//
type Descriptor struct {
	Name     string
	Kind     TypeKind
	Width    int
	Variants []string // enum variant names, in code order
	Fields   []Field  // composite fields, least significant first
}

// Field is a named field of a composite type.
//
type Field struct {
	Name string
	Type Descriptor
}

// Describer is implemented by value types that provide their own
// Descriptor, like enums and composites.
//
type Describer interface {
	Descriptor() Descriptor
}

// Leveled is implemented by one bit values that have a logic level.
//
type Leveled interface {
	High() bool
}

func describe(v interface{ Width() int }) Descriptor {
	switch v := v.(type) {
	case Describer:
		return v.Descriptor()
	case bits.Signed:
		return Descriptor{Name: "Signed", Kind: KindSigned, Width: v.Width()}
	}
	return Descriptor{Name: "Bits", Kind: KindBits, Width: v.Width()}
}

func high(v interface{}) bool {
	l, ok := v.(Leveled)
	return ok && l.High()
}

// Bit is a single bit value.
//
type Bit bool

func (b Bit) Width() int             { return 1 }
func (b Bit) Equal(o Bit) bool       { return b == o }
func (b Bit) Vec() bits.Vec          { return bits.FromBool(bool(b)) }
func (b Bit) High() bool             { return bool(b) }
func (b Bit) Descriptor() Descriptor { return Descriptor{Name: "Bit", Kind: KindBits, Width: 1} }

// Clock is a clock level.
//
type Clock bool

func (c Clock) Width() int             { return 1 }
func (c Clock) Equal(o Clock) bool     { return c == o }
func (c Clock) Vec() bits.Vec          { return bits.FromBool(bool(c)) }
func (c Clock) High() bool             { return bool(c) }
func (c Clock) Descriptor() Descriptor { return Descriptor{Name: "Clock", Kind: KindBits, Width: 1} }

// Reset is an active high reset level. There is no active low variant: use
// Not in the HDL kernel to interface with active low reset pins.
//
type Reset bool

func (r Reset) Width() int             { return 1 }
func (r Reset) Equal(o Reset) bool     { return r == o }
func (r Reset) Vec() bits.Vec          { return bits.FromBool(bool(r)) }
func (r Reset) High() bool             { return bool(r) }
func (r Reset) Descriptor() Descriptor { return Descriptor{Name: "Reset", Kind: KindBits, Width: 1} }

// EnumType describes an enumerated type. Variants are encoded with dense
// codes in declaration order, using the smallest width able to hold them.
//
//	var (
//		State = hdl.NewEnum("State", "Idle", "Run", "Done")
//		Idle  = State.Value("Idle")
//	)
//
type EnumType struct {
	name     string
	variants []string
	width    int
}

// NewEnum returns a new enumerated type. It panics if no variants are given
// or if a variant name is duplicated.
//
func NewEnum(name string, variants ...string) *EnumType {
	if len(variants) == 0 {
		panic(errors.Errorf("enum %s has no variants", name))
	}
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v == "" || seen[v] {
			panic(errors.Errorf("invalid or duplicate variant %q in enum %s", v, name))
		}
		seen[v] = true
	}
	w := bits.Clog2(uint64(len(variants)))
	if w == 0 {
		w = 1
	}
	return &EnumType{name: name, variants: append([]string(nil), variants...), width: w}
}

// Name returns the type name.
//
func (t *EnumType) Name() string { return t.name }

// Width returns the width of encoded values.
//
func (t *EnumType) Width() int { return t.width }

// Variants returns the variant names in code order.
//
func (t *EnumType) Variants() []string { return append([]string(nil), t.variants...) }

// Value returns the variant with the given name. It panics if there is no
// such variant.
//
func (t *EnumType) Value(name string) Enum {
	for i, v := range t.variants {
		if v == name {
			return Enum{t, i}
		}
	}
	panic(errors.Errorf("enum %s has no variant %q", t.name, name))
}

// At returns the i-th variant.
//
func (t *EnumType) At(i int) Enum {
	if i < 0 || i >= len(t.variants) {
		panic(errors.Errorf("variant index %d out of range for enum %s", i, t.name))
	}
	return Enum{t, i}
}

// Enum is a value of an enumerated type.
//
type Enum struct {
	t *EnumType
	v int
}

func (e Enum) Width() int        { return e.t.width }
func (e Enum) Equal(o Enum) bool { return e == o }
func (e Enum) Vec() bits.Vec     { return bits.New(e.t.width, uint64(e.v)) }

// Type returns the enumerated type of e.
//
func (e Enum) Type() *EnumType { return e.t }

// Index returns the code of e.
//
func (e Enum) Index() int { return e.v }

// String returns the variant name.
//
func (e Enum) String() string {
	if e.t == nil {
		return "<nil>"
	}
	return e.t.variants[e.v]
}

// Qualified returns the variant name qualified by its type name, as used
// in HDL expressions.
//
func (e Enum) Qualified() string { return e.t.name + "::" + e.t.variants[e.v] }

// Descriptor returns the type descriptor of e.
//
func (e Enum) Descriptor() Descriptor {
	return Descriptor{Name: e.t.name, Kind: KindEnum, Width: e.t.width, Variants: e.t.Variants()}
}

// enumLocalParam returns the Verilog local parameter name of a variant.
func enumLocalParam(typ, variant string) string {
	return strings.Replace(typ+"$"+variant, "::", "$", -1)
}
