// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bits implements fixed width bit vectors.
//
// A Vec is an immutable unsigned integer of a given bit width. All arithmetic
// is carried modulo 2^width. Vectors of up to 64 bits are stored in a single
// machine word. Wider vectors are backed by a math/big.Int.
//
// Binary operations require both operands to have the same width. A width
// mismatch is a programming error and causes a panic.
//
package bits

import (
	"math/big"
	mbits "math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ShortWidth is the largest width stored in the short (single word) form.
//
const ShortWidth = 64

// Vec is a fixed width bit vector.
//
// The zero value is a zero width vector and is only useful as a placeholder.
//
type Vec struct {
	width int
	lo    uint64
	hi    *big.Int // long form, nil for width <= ShortWidth. Never mutated.
}

func mask64(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(w) - 1
}

func bigMask(w int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(w))
	return m.Sub(m, big.NewInt(1))
}

func checkWidth(w int) {
	if w <= 0 {
		panic(errors.Errorf("invalid bit vector width %d", w))
	}
}

// New returns a vector of width w holding the low w bits of x.
//
func New(w int, x uint64) Vec {
	checkWidth(w)
	if w <= ShortWidth {
		return Vec{width: w, lo: x & mask64(w)}
	}
	return Vec{width: w, hi: new(big.Int).SetUint64(x)}
}

// Zero returns the zero vector of width w.
//
func Zero(w int) Vec { return New(w, 0) }

// Ones returns a vector of width w with all bits set.
//
func Ones(w int) Vec {
	checkWidth(w)
	if w <= ShortWidth {
		return Vec{width: w, lo: mask64(w)}
	}
	return Vec{width: w, hi: bigMask(w)}
}

// FromBig returns a vector of width w holding x modulo 2^w. Negative values
// are taken in two's complement.
//
func FromBig(w int, x *big.Int) Vec {
	checkWidth(w)
	return fromBig(w, new(big.Int).Set(x))
}

// fromBig takes ownership of x.
func fromBig(w int, x *big.Int) Vec {
	x.And(x, bigMask(w))
	if w <= ShortWidth {
		return Vec{width: w, lo: x.Uint64()}
	}
	return Vec{width: w, hi: x}
}

// FromBool returns a single bit vector.
//
func FromBool(b bool) Vec {
	if b {
		return Vec{width: 1, lo: 1}
	}
	return Vec{width: 1}
}

// Parse parses s as an unsigned integer in the given base and returns it as a
// vector of width w. Values that do not fit in w bits are an error.
//
func Parse(w int, s string, base int) (Vec, error) {
	checkWidth(w)
	x, ok := new(big.Int).SetString(strings.Replace(s, "_", "", -1), base)
	if !ok || x.Sign() < 0 {
		return Vec{}, errors.Errorf("invalid literal %q", s)
	}
	if x.BitLen() > w {
		return Vec{}, errors.Errorf("literal %q does not fit in %d bits", s, w)
	}
	return fromBig(w, x), nil
}

// Clog2 returns the number of bits needed to count n distinct values, that
// is ceil(log2(n)), with Clog2(0) == Clog2(1) == 0.
//
func Clog2(n uint64) int {
	if n <= 1 {
		return 0
	}
	return mbits.Len64(n - 1)
}

// Width returns the bit width of v.
//
func (v Vec) Width() int { return v.width }

// IsShort reports whether v uses the single word storage.
//
func (v Vec) IsShort() bool { return v.hi == nil }

// Vec returns v. It makes Vec usable as a signal value.
//
func (v Vec) Vec() Vec { return v }

func (v Vec) big() *big.Int {
	if v.hi != nil {
		return v.hi
	}
	return new(big.Int).SetUint64(v.lo)
}

// Big returns the value of v as a new big.Int.
//
func (v Vec) Big() *big.Int {
	return new(big.Int).Set(v.big())
}

// Uint64 returns the low 64 bits of v.
//
func (v Vec) Uint64() uint64 {
	if v.hi != nil {
		return new(big.Int).And(v.hi, bigMask(64)).Uint64()
	}
	return v.lo
}

// Int returns the low bits of v as an int.
//
func (v Vec) Int() int { return int(v.Uint64()) }

func (v Vec) same(o Vec) {
	if v.width != o.width {
		panic(errors.Errorf("bit width mismatch: %d != %d", v.width, o.width))
	}
}

// Equal reports whether v and o have the same width and value.
//
func (v Vec) Equal(o Vec) bool {
	if v.width != o.width {
		return false
	}
	if v.hi == nil {
		return v.lo == o.lo
	}
	return v.hi.Cmp(o.hi) == 0
}

// Cmp compares v and o as unsigned integers and returns -1, 0 or +1.
//
func (v Vec) Cmp(o Vec) int {
	v.same(o)
	if v.hi == nil {
		switch {
		case v.lo < o.lo:
			return -1
		case v.lo > o.lo:
			return 1
		}
		return 0
	}
	return v.hi.Cmp(o.hi)
}

// Eq returns v == o.
func (v Vec) Eq(o Vec) bool { return v.Cmp(o) == 0 }

// Ne returns v != o.
func (v Vec) Ne(o Vec) bool { return v.Cmp(o) != 0 }

// Lt returns v < o.
func (v Vec) Lt(o Vec) bool { return v.Cmp(o) < 0 }

// Le returns v <= o.
func (v Vec) Le(o Vec) bool { return v.Cmp(o) <= 0 }

// Gt returns v > o.
func (v Vec) Gt(o Vec) bool { return v.Cmp(o) > 0 }

// Ge returns v >= o.
func (v Vec) Ge(o Vec) bool { return v.Cmp(o) >= 0 }

type bigOp func(z, x, y *big.Int) *big.Int

func (v Vec) arith(o Vec, short func(a, b uint64) uint64, long bigOp) Vec {
	v.same(o)
	if v.hi == nil {
		return Vec{width: v.width, lo: short(v.lo, o.lo) & mask64(v.width)}
	}
	return fromBig(v.width, long(new(big.Int), v.hi, o.hi))
}

// Add returns v + o modulo 2^width.
//
func (v Vec) Add(o Vec) Vec {
	return v.arith(o, func(a, b uint64) uint64 { return a + b }, (*big.Int).Add)
}

// Sub returns v - o modulo 2^width.
//
func (v Vec) Sub(o Vec) Vec {
	return v.arith(o, func(a, b uint64) uint64 { return a - b }, (*big.Int).Sub)
}

// Mul returns v * o modulo 2^width.
//
func (v Vec) Mul(o Vec) Vec {
	return v.arith(o, func(a, b uint64) uint64 { return a * b }, (*big.Int).Mul)
}

// And returns the bitwise and of v and o.
func (v Vec) And(o Vec) Vec {
	return v.arith(o, func(a, b uint64) uint64 { return a & b }, (*big.Int).And)
}

// Or returns the bitwise or of v and o.
func (v Vec) Or(o Vec) Vec {
	return v.arith(o, func(a, b uint64) uint64 { return a | b }, (*big.Int).Or)
}

// Xor returns the bitwise exclusive or of v and o.
func (v Vec) Xor(o Vec) Vec {
	return v.arith(o, func(a, b uint64) uint64 { return a ^ b }, (*big.Int).Xor)
}

// AddUint is a shorthand for v.Add(New(v.Width(), x)).
//
func (v Vec) AddUint(x uint64) Vec { return v.Add(New(v.width, x)) }

// SubUint is a shorthand for v.Sub(New(v.Width(), x)).
//
func (v Vec) SubUint(x uint64) Vec { return v.Sub(New(v.width, x)) }

// Not returns the bitwise complement of v.
//
func (v Vec) Not() Vec {
	if v.hi == nil {
		return Vec{width: v.width, lo: ^v.lo & mask64(v.width)}
	}
	return Vec{width: v.width, hi: new(big.Int).Xor(v.hi, bigMask(v.width))}
}

// Neg returns the two's complement negation of v.
//
func (v Vec) Neg() Vec { return Zero(v.width).Sub(v) }

// Shl returns v << k, truncated to the width of v.
//
func (v Vec) Shl(k uint) Vec {
	if v.hi == nil {
		if k >= 64 {
			return Vec{width: v.width}
		}
		return Vec{width: v.width, lo: v.lo << k & mask64(v.width)}
	}
	return fromBig(v.width, new(big.Int).Lsh(v.hi, k))
}

// Shr returns v >> k (logical shift).
//
func (v Vec) Shr(k uint) Vec {
	if v.hi == nil {
		if k >= 64 {
			return Vec{width: v.width}
		}
		return Vec{width: v.width, lo: v.lo >> k}
	}
	return fromBig(v.width, new(big.Int).Rsh(v.hi, k))
}

// Bit returns the value of bit i.
//
func (v Vec) Bit(i int) bool {
	if i < 0 || i >= v.width {
		panic(errors.Errorf("bit index %d out of range for width %d", i, v.width))
	}
	if v.hi == nil {
		return v.lo>>uint(i)&1 != 0
	}
	return v.hi.Bit(i) != 0
}

// ReplaceBit returns a copy of v with bit i set to b.
//
func (v Vec) ReplaceBit(i int, b bool) Vec {
	return v.Replace(i, FromBool(b))
}

// Slice returns the m bits of v starting at bit offset off.
//
func (v Vec) Slice(m, off int) Vec {
	checkWidth(m)
	if off < 0 || off+m > v.width {
		panic(errors.Errorf("slice [%d+:%d] out of range for width %d", off, m, v.width))
	}
	return v.Shr(uint(off)).Resize(m)
}

// Replace returns a copy of v where the bits starting at offset off are
// replaced by x.
//
func (v Vec) Replace(off int, x Vec) Vec {
	if off < 0 || off+x.width > v.width {
		panic(errors.Errorf("replace [%d+:%d] out of range for width %d", off, x.width, v.width))
	}
	hole := Ones(x.width).Resize(v.width).Shl(uint(off)).Not()
	return v.And(hole).Or(x.Resize(v.width).Shl(uint(off)))
}

// Resize returns v zero-extended or truncated to width w.
//
func (v Vec) Resize(w int) Vec {
	checkWidth(w)
	if w == v.width {
		return v
	}
	if v.hi == nil && w <= ShortWidth {
		return Vec{width: w, lo: v.lo & mask64(w)}
	}
	return fromBig(w, new(big.Int).Set(v.big()))
}

// Concat returns the concatenation {v, low}: v forms the most significant
// bits of the result.
//
func (v Vec) Concat(low Vec) Vec {
	w := v.width + low.width
	return v.Resize(w).Shl(uint(low.width)).Or(low.Resize(w))
}

// Any reports whether any bit of v is set (or-reduction).
//
func (v Vec) Any() bool {
	if v.hi == nil {
		return v.lo != 0
	}
	return v.hi.Sign() != 0
}

// All reports whether all bits of v are set (and-reduction).
//
func (v Vec) All() bool { return v.Equal(Ones(v.width)) }

// XorReduce returns the parity of v.
//
func (v Vec) XorReduce() bool { return v.OnesCount()&1 != 0 }

// OnesCount returns the number of bits set in v.
//
func (v Vec) OnesCount() int {
	if v.hi == nil {
		return mbits.OnesCount64(v.lo)
	}
	n := 0
	for _, w := range v.hi.Bits() {
		n += mbits.OnesCount(uint(w))
	}
	return n
}

// LeadingZeros returns the number of leading zero bits of v within its width.
//
func (v Vec) LeadingZeros() int {
	return v.width - v.big().BitLen()
}

// TrailingZeros returns the number of trailing zero bits of v. It returns the
// width of v for a zero vector.
//
func (v Vec) TrailingZeros() int {
	if v.hi == nil {
		if v.lo == 0 {
			return v.width
		}
		return mbits.TrailingZeros64(v.lo)
	}
	if v.hi.Sign() == 0 {
		return v.width
	}
	return int(v.hi.TrailingZeroBits())
}

// Signed returns v reinterpreted as a two's complement signed value.
//
func (v Vec) Signed() Signed { return Signed{v} }

func (v Vec) text(base int) string {
	if v.hi == nil {
		return strconv.FormatUint(v.lo, base)
	}
	return v.hi.Text(base)
}

// VCD returns the binary representation of v, most significant bit first,
// padded to its full width.
//
func (v Vec) VCD() string {
	s := v.text(2)
	if n := v.width - len(s); n > 0 {
		s = strings.Repeat("0", n) + s
	}
	return s
}

// Verilog returns v as a sized Verilog hexadecimal literal.
//
func (v Vec) Verilog() string {
	return strconv.Itoa(v.width) + "'h" + v.text(16)
}

// Decimal returns v as a sized Verilog decimal literal.
//
func (v Vec) Decimal() string {
	return strconv.Itoa(v.width) + "'d" + v.text(10)
}

func (v Vec) String() string { return v.Verilog() }
