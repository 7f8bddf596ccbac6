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

package instructions

import (
	"github.com/pipesim/pipesim/hardware/term"
)

// Word sizes supported by the machine. A long word occupies two adjacent
// short words in instruction memory.
const (
	ShortWord = 32
	LongWord  = 64
)

// Flags are the two bits that follow the header in an instruction word.
type Flags uint8

// List of valid Flags.
const (
	// the operand is an immediate value rather than a register. bit 6 of the
	// word
	F0 Flags = 0b01

	// the destination is in the internal register bank. bit 7 of the word.
	// only valid for MOVE
	F1 Flags = 0b10
)

// Fields are the raw fields of an instruction word.
type Fields struct {
	Bits  uint8
	Flags Flags
	Args  [3]uint8

	// only present in long words
	Imm  uint32
	Long bool
}

// Encode creates an instruction word from its fields. Any size other than
// LongWord creates a ShortWord. The imm argument is ignored for short words.
//
// The layout of a word, most significant bit first, is:
//
//	header(6) F0(1) F1(1) a0(8) a1(8) a2(8)
//	header(6) F0(1) F1(1) a0(8) a1(8) a2(8) imm(32)
func Encode(size int, header Header, flags Flags, args [3]uint8, imm uint32) term.Term {
	v := uint64(header.Bits()) << 26
	if flags&F0 == F0 {
		v |= 1 << 25
	}
	if flags&F1 == F1 {
		v |= 1 << 24
	}
	v |= uint64(args[0])<<16 | uint64(args[1])<<8 | uint64(args[2])

	if size == LongWord {
		return term.FromUint(v<<32|uint64(imm), LongWord)
	}
	return term.FromUint(v, ShortWord)
}

// normalise the width of a word to either a short or long word.
func normalise(word term.Term) term.Term {
	switch {
	case word.Len() <= ShortWord:
		return word.Extend(ShortWord)
	case word.Len() <= LongWord:
		return word.Extend(LongWord)
	}
	return word.Slice(word.Len()-LongWord, word.Len())
}

// DecodeFields extracts the raw fields from an instruction word. Words that
// are not exactly 32 or 64 bits are zero extended, or truncated to their
// lower 64 bits.
func DecodeFields(word term.Term) Fields {
	word = normalise(word)

	v, _ := word.Uint64()
	f := Fields{Long: word.Len() == LongWord}
	if f.Long {
		f.Imm = uint32(v)
		v >>= 32
	}

	f.Bits = uint8(v>>26) & 0b111111
	if v&(1<<25) != 0 {
		f.Flags |= F0
	}
	if v&(1<<24) != 0 {
		f.Flags |= F1
	}
	f.Args[0] = uint8(v >> 16)
	f.Args[1] = uint8(v >> 8)
	f.Args[2] = uint8(v)

	return f
}

// signedImmediate is the immediate for arithmetic operands and address
// offsets. in short words it is a2 sign extended.
func (f Fields) signedImmediate() int64 {
	if f.Long {
		return int64(int32(f.Imm))
	}
	return int64(int8(f.Args[2]))
}

// absoluteImmediate is the immediate for absolute addresses and branch
// targets. in short words it is a1 and a2 joined into a 16 bit value.
func (f Fields) absoluteImmediate() uint64 {
	if f.Long {
		return uint64(f.Imm)
	}
	return uint64(f.Args[1])<<8 | uint64(f.Args[2])
}

// moveImmediate is the immediate value for MOVE. in short words it is the
// same as the absolute immediate. in long words it is sign extended.
func (f Fields) moveImmediate() int64 {
	if f.Long {
		return int64(int32(f.Imm))
	}
	return int64(f.absoluteImmediate())
}
