// This file is part of Pipesim.
//
// Pipesim is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Pipesim is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Pipesim.  If not, see <https://www.gnu.org/licenses/>.

package term

import (
	"fmt"
	"strings"

	"github.com/pipesim/pipesim/curated"
)

// Sentinal error patterns.
const (
	TooWide       = "term: value of %d significant bits does not fit in %d bits"
	InvalidString = "term: invalid binary string (%q)"
	InvalidWidth  = "term: invalid width (%d)"
)

type bit bool

// Term is an immutable, arbitrary width binary value. Bit zero is the most
// significant bit. The zero value is not a valid Term and should not be
// used. Create Terms with the From*() functions.
type Term struct {
	bits []bit
}

// FromUint creates a Term of exactly width bits from v. If width is zero the
// Term is trimmed of leading zeros, leaving at least one bit. Bits of v above
// width are discarded.
func FromUint(v uint64, width int) Term {
	if width <= 0 {
		width = 1
		for w := 64; w > 1; w-- {
			if v&(1<<(w-1)) != 0 {
				width = w
				break
			}
		}
	}

	t := Term{bits: make([]bit, width)}
	for i := 0; i < width; i++ {
		shift := width - 1 - i
		if shift < 64 {
			t.bits[i] = bit(v&(1<<shift) != 0)
		}
	}
	return t
}

// FromInt creates a Term of exactly width bits holding the two's complement
// representation of v.
func FromInt(v int64, width int) Term {
	if width <= 0 {
		width = 64
	}
	t := FromUint(uint64(v), width)

	// sign extend beyond 64 bits
	if v < 0 && width > 64 {
		for i := 0; i < width-64; i++ {
			t.bits[i] = true
		}
	}
	return t
}

// FromString creates a Term from a string of '0' and '1' characters. Spaces
// and underscores may be used as separators and are ignored.
func FromString(s string) (Term, error) {
	b := make([]bit, 0, len(s))
	for _, c := range s {
		switch c {
		case '0':
			b = append(b, false)
		case '1':
			b = append(b, true)
		case '_', ' ':
		default:
			return Term{}, curated.Errorf(InvalidString, s)
		}
	}
	if len(b) == 0 {
		return Term{}, curated.Errorf(InvalidString, s)
	}
	return Term{bits: b}, nil
}

// FromBits creates a Term from a slice of bool values, MSB first. The slice
// is copied.
func FromBits(b []bool) Term {
	if len(b) == 0 {
		return Term{bits: []bit{false}}
	}
	t := Term{bits: make([]bit, len(b))}
	for i := range b {
		t.bits[i] = bit(b[i])
	}
	return t
}

// Len returns the width of the Term.
func (t Term) Len() int {
	return len(t.bits)
}

// Bit returns the value of bit i, where bit zero is the most significant bit.
func (t Term) Bit(i int) bool {
	return bool(t.bits[i])
}

// Bits returns a copy of the bits in the Term, MSB first.
func (t Term) Bits() []bool {
	b := make([]bool, len(t.bits))
	for i := range t.bits {
		b[i] = bool(t.bits[i])
	}
	return b
}

// Clone returns an independent copy of the Term.
func (t Term) Clone() Term {
	c := Term{bits: make([]bit, len(t.bits))}
	copy(c.bits, t.bits)
	return c
}

// Equal returns true if the two Terms have the same width and bits.
func (t Term) Equal(o Term) bool {
	if len(t.bits) != len(o.bits) {
		return false
	}
	for i := range t.bits {
		if t.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// Extend returns a copy of the Term zero extended to width bits. If the Term
// is already at least width bits wide then a plain copy is returned.
func (t Term) Extend(width int) Term {
	if width <= len(t.bits) {
		return t.Clone()
	}
	e := Term{bits: make([]bit, width)}
	copy(e.bits[width-len(t.bits):], t.bits)
	return e
}

// Trimmed returns a copy of the Term with leading zeros removed. At least
// one bit always remains.
func (t Term) Trimmed() Term {
	i := 0
	for i < len(t.bits)-1 && !t.bits[i] {
		i++
	}
	c := Term{bits: make([]bit, len(t.bits)-i)}
	copy(c.bits, t.bits[i:])
	return c
}

// Slice returns bits from up to but not including to as a new Term.
func (t Term) Slice(from, to int) Term {
	if from < 0 || to > len(t.bits) || from >= to {
		panic(curated.Errorf("term: slice [%d:%d] out of range for width %d", from, to, len(t.bits)))
	}
	c := Term{bits: make([]bit, to-from)}
	copy(c.bits, t.bits[from:to])
	return c
}

// Concat returns a new Term with the bits of the other Terms appended to the
// bits of t.
func (t Term) Concat(others ...Term) Term {
	n := len(t.bits)
	for _, o := range others {
		n += len(o.bits)
	}
	c := Term{bits: make([]bit, 0, n)}
	c.bits = append(c.bits, t.bits...)
	for _, o := range others {
		c.bits = append(c.bits, o.bits...)
	}
	return c
}

// pair zero extends a and b to the same width.
func pair(a, b Term) (Term, Term) {
	w := len(a.bits)
	if len(b.bits) > w {
		w = len(b.bits)
	}
	return a.Extend(w), b.Extend(w)
}

// Not returns the bitwise complement of the Term.
func (t Term) Not() Term {
	c := t.Clone()
	for i := range c.bits {
		c.bits[i] = !c.bits[i]
	}
	return c
}

// And returns the bitwise AND of the two Terms. The narrower Term is zero
// extended.
func (t Term) And(o Term) Term {
	a, b := pair(t, o)
	for i := range a.bits {
		a.bits[i] = a.bits[i] && b.bits[i]
	}
	return a
}

// Or returns the bitwise OR of the two Terms. The narrower Term is zero
// extended.
func (t Term) Or(o Term) Term {
	a, b := pair(t, o)
	for i := range a.bits {
		a.bits[i] = a.bits[i] || b.bits[i]
	}
	return a
}

// Xor returns the bitwise exclusive OR of the two Terms. The narrower Term is
// zero extended.
func (t Term) Xor(o Term) Term {
	a, b := pair(t, o)
	for i := range a.bits {
		a.bits[i] = a.bits[i] != b.bits[i]
	}
	return a
}

// ShiftLeft returns the Term shifted left by n bits. The width is preserved
// and vacated bits are zero.
func (t Term) ShiftLeft(n int) Term {
	c := Term{bits: make([]bit, len(t.bits))}
	if n < len(t.bits) {
		copy(c.bits, t.bits[n:])
	}
	return c
}

// ShiftRight returns the Term shifted right by n bits. The width is
// preserved and vacated bits are zero.
func (t Term) ShiftRight(n int) Term {
	c := Term{bits: make([]bit, len(t.bits))}
	if n < len(t.bits) {
		copy(c.bits[n:], t.bits[:len(t.bits)-n])
	}
	return c
}

// IsZero returns true if no bits are set.
func (t Term) IsZero() bool {
	for _, b := range t.bits {
		if b {
			return false
		}
	}
	return true
}

// IsNegative returns true if the most significant bit is set.
func (t Term) IsNegative() bool {
	return len(t.bits) > 0 && bool(t.bits[0])
}

// String returns the Term as a string of binary digits.
func (t Term) String() string {
	s := strings.Builder{}
	for _, b := range t.bits {
		if b {
			s.WriteRune('1')
		} else {
			s.WriteRune('0')
		}
	}
	return s.String()
}

// GoString implements the fmt.GoStringer interface.
func (t Term) GoString() string {
	return fmt.Sprintf("term.Term{%d:%s}", len(t.bits), t.String())
}
