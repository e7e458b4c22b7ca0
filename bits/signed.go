// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bits

import (
	"math/big"
	"strconv"
)

// Signed is a two's complement signed view of a bit vector.
//
type Signed struct {
	v Vec
}

// NewSigned returns the w bits two's complement representation of x.
//
func NewSigned(w int, x int64) Signed {
	return Signed{FromBig(w, big.NewInt(x))}
}

// Width returns the bit width of s.
//
func (s Signed) Width() int { return s.v.width }

// Vec returns the raw bits of s.
//
func (s Signed) Vec() Vec { return s.v }

// Unsigned returns the raw bits of s. It is the inverse of Vec.Signed.
//
func (s Signed) Unsigned() Vec { return s.v }

// IsNegative reports whether the sign bit of s is set.
//
func (s Signed) IsNegative() bool {
	return s.v.width > 0 && s.v.Bit(s.v.width-1)
}

// Big returns the signed value of s.
//
func (s Signed) Big() *big.Int {
	x := s.v.Big()
	if s.IsNegative() {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(s.v.width)))
	}
	return x
}

// Int64 returns the signed value of s. The result is only meaningful for
// widths up to 64 bits.
//
func (s Signed) Int64() int64 {
	if s.v.hi == nil {
		sh := uint(64 - s.v.width)
		return int64(s.v.lo<<sh) >> sh
	}
	return s.Big().Int64()
}

// Equal reports whether s and o have the same width and bits.
//
func (s Signed) Equal(o Signed) bool { return s.v.Equal(o.v) }

// Cmp compares s and o as signed integers.
//
func (s Signed) Cmp(o Signed) int {
	s.v.same(o.v)
	return s.Big().Cmp(o.Big())
}

// Lt returns s < o.
func (s Signed) Lt(o Signed) bool { return s.Cmp(o) < 0 }

// Le returns s <= o.
func (s Signed) Le(o Signed) bool { return s.Cmp(o) <= 0 }

// Gt returns s > o.
func (s Signed) Gt(o Signed) bool { return s.Cmp(o) > 0 }

// Ge returns s >= o.
func (s Signed) Ge(o Signed) bool { return s.Cmp(o) >= 0 }

// Add returns s + o with wrap-around.
func (s Signed) Add(o Signed) Signed { return Signed{s.v.Add(o.v)} }

// Sub returns s - o with wrap-around.
func (s Signed) Sub(o Signed) Signed { return Signed{s.v.Sub(o.v)} }

// Mul returns s * o with wrap-around.
func (s Signed) Mul(o Signed) Signed { return Signed{s.v.Mul(o.v)} }

// Neg returns -s with wrap-around.
func (s Signed) Neg() Signed { return Signed{s.v.Neg()} }

// Shl returns s << k.
func (s Signed) Shl(k uint) Signed { return Signed{s.v.Shl(k)} }

// Shr returns s >> k with sign extension.
//
func (s Signed) Shr(k uint) Signed {
	return Signed{FromBig(s.v.width, new(big.Int).Rsh(s.Big(), k))}
}

// Resize returns s sign-extended or truncated to width w.
//
func (s Signed) Resize(w int) Signed {
	return Signed{FromBig(w, s.Big())}
}

// VCD returns the raw bits of s in binary.
//
func (s Signed) VCD() string { return s.v.VCD() }

// Verilog returns s as a signed Verilog literal.
//
func (s Signed) Verilog() string {
	return "$signed(" + s.v.Verilog() + ")"
}

func (s Signed) String() string {
	return strconv.Itoa(s.v.width) + "'sd" + s.Big().String()
}
