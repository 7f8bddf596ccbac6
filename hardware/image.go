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

package hardware

import (
	"encoding/binary"
	"io"

	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware/instructions"
)

// Sentinal error patterns.
const (
	ImageTooShort = "image: program of %d words is shorter than the header"
	InvalidImage  = "image: invalid header: %s"
	ImageFile     = "image: %v"
	PartialWord   = "image: length of %d bytes is not a multiple of %d"
)

// HeaderWords is the number of words at the start of a program image that
// are reserved for the image header. Execution starts at the first word
// after the header.
const HeaderWords = 8

// Bits in the explicit settings word of the image header.
const (
	ExplicitWordSize = 0b001
	ExplicitCallSize = 0b010
	ExplicitReversal = 0b100
)

// ImageHeader is the configuration carried at the start of a program image.
//
//	word 0: word size flag. zero for 32 bit words, one for 64 bit words
//	word 1: call stack size
//	word 2: reversal buffer size
//	word 3: explicit settings
//	word 4-7: reserved
//
// A setting in words 0 to 2 only applies if the corresponding bit in the
// explicit settings word is set. Otherwise the preference value is used.
type ImageHeader struct {
	WordSize      int
	CallStackSize int
	ReversalDepth int
	Explicit      uint32
}

// ParseImageHeader reads the header from the start of a program image.
func ParseImageHeader(words []uint32) (ImageHeader, error) {
	if len(words) < HeaderWords {
		return ImageHeader{}, curated.Errorf(ImageTooShort, len(words))
	}

	hdr := ImageHeader{
		CallStackSize: int(words[1]),
		ReversalDepth: int(words[2]),
		Explicit:      words[3] & 0b111,
	}

	switch words[0] {
	case 0:
		hdr.WordSize = instructions.ShortWord
	case 1:
		hdr.WordSize = instructions.LongWord
	default:
		return ImageHeader{}, curated.Errorf(InvalidImage, "word size flag must be zero or one")
	}

	if hdr.Explicit&ExplicitCallSize == ExplicitCallSize && hdr.CallStackSize <= 0 {
		return ImageHeader{}, curated.Errorf(InvalidImage, "call stack size must be positive")
	}
	if hdr.Explicit&ExplicitReversal == ExplicitReversal && hdr.ReversalDepth <= 0 {
		return ImageHeader{}, curated.Errorf(InvalidImage, "reversal buffer size must be positive")
	}

	return hdr, nil
}

// Words returns the header as the first words of a program image.
func (hdr ImageHeader) Words() []uint32 {
	w := make([]uint32, HeaderWords)
	if hdr.WordSize == instructions.LongWord {
		w[0] = 1
	}
	w[1] = uint32(hdr.CallStackSize)
	w[2] = uint32(hdr.ReversalDepth)
	w[3] = hdr.Explicit & 0b111
	return w
}

// ReadProgram reads a program image from a binary file. Words are 32 bits and
// big-endian. A 64 bit program is stored as pairs of 32 bit words, most
// significant half first.
func ReadProgram(r io.Reader) ([]uint32, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, curated.Errorf(ImageFile, err)
	}
	if len(b)%4 != 0 {
		return nil, curated.Errorf(PartialWord, len(b), 4)
	}

	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// ReadData reads a data image from a binary file. Words are big-endian and
// are the width of the word size.
func ReadData(r io.Reader, wordSize int) ([]uint64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, curated.Errorf(ImageFile, err)
	}

	n := wordSize / 8
	if len(b)%n != 0 {
		return nil, curated.Errorf(PartialWord, len(b), n)
	}

	words := make([]uint64, len(b)/n)
	for i := range words {
		if n == 8 {
			words[i] = binary.BigEndian.Uint64(b[i*n:])
		} else {
			words[i] = uint64(binary.BigEndian.Uint32(b[i*n:]))
		}
	}
	return words, nil
}
