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

// significant returns the number of bits after leading zeros are removed.
func (t Term) significant() int {
	for i, b := range t.bits {
		if b {
			return len(t.bits) - i
		}
	}
	return 0
}

// Uint64 returns the unsigned value of the Term. An error is returned if the
// significant bits do not fit in 64 bits.
func (t Term) Uint64() (uint64, error) {
	if s := t.significant(); s > 64 {
		return 0, curated.Errorf(TooWide, s, 64)
	}

	var v uint64
	for _, b := range t.bits {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v, nil
}

// Uint32 returns the unsigned value of the Term. An error is returned if the
// significant bits do not fit in 32 bits.
func (t Term) Uint32() (uint32, error) {
	if s := t.significant(); s > 32 {
		return 0, curated.Errorf(TooWide, s, 32)
	}
	v, err := t.Uint64()
	return uint32(v), err
}

// Int64 returns the signed value of the Term, treating the most significant
// bit as the sign bit. Terms wider than 64 bits are truncated to their lower
// 64 bits before the conversion.
func (t Term) Int64() int64 {
	b := t.bits
	if len(b) > 64 {
		b = b[len(b)-64:]
	}

	var v uint64
	for _, x := range b {
		v <<= 1
		if x {
			v |= 1
		}
	}

	if len(b) < 64 && len(b) > 0 && b[0] {
		v |= ^uint64(0) << len(b)
	}

	return int64(v)
}

// Radix values supported by Format().
const (
	Binary      = 2
	Decimal     = 10
	Hexadecimal = 16
)

// Format returns the Term as a string in the specified radix. Binary output
// is the full width of the Term, hexadecimal output is zero padded to the
// width of the Term and decimal output is the signed value.
func (t Term) Format(radix int) string {
	switch radix {
	case Binary:
		return t.String()
	case Hexadecimal:
		digits := (len(t.bits) + 3) / 4
		e := t.Extend(digits * 4)
		s := strings.Builder{}
		for i := 0; i < digits; i++ {
			v, _ := e.Slice(i*4, i*4+4).Uint64()
			s.WriteString(fmt.Sprintf("%x", v))
		}
		return s.String()
	default:
		return fmt.Sprintf("%d", t.Int64())
	}
}
