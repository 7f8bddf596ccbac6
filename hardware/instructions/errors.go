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
	"fmt"

	"github.com/pipesim/pipesim/hardware/term"
)

// ErrorType is the payload of an EXECUTION_ERR instruction.
type ErrorType uint8

// List of valid ErrorTypes.
const (
	NotImplemented ErrorType = 1
	InvalidFlags   ErrorType = 2
	InvalidArgs    ErrorType = 3
	DivideByZero   ErrorType = 4
)

func (e ErrorType) String() string {
	switch e {
	case NotImplemented:
		return "not implemented"
	case InvalidFlags:
		return "invalid flags"
	case InvalidArgs:
		return "invalid arguments"
	case DivideByZero:
		return "divide by zero"
	}
	return fmt.Sprintf("unknown error (%d)", uint8(e))
}

// errorWord creates the word for an EXECUTION_ERR instruction. The error type
// is in a0 and the header bits of the offending instruction are in a1.
func errorWord(size int, e ErrorType, offending uint8) term.Term {
	return Encode(size, ExecutionErr, 0, [3]uint8{uint8(e), offending & 0b111111, 0}, 0)
}

// ErrorPayload returns the error type and the header bits of the offending
// instruction. The boolean is false if the instruction is not an
// EXECUTION_ERR instruction.
func (ins *Instruction) ErrorPayload() (ErrorType, uint8, bool) {
	if ins.Header != ExecutionErr {
		return 0, 0, false
	}
	return ErrorType(ins.fields.Args[0]), ins.fields.Args[1], true
}

// ErrorDetail returns a description of the payload of an EXECUTION_ERR
// instruction.
func (ins *Instruction) ErrorDetail() string {
	e, bits, ok := ins.ErrorPayload()
	if !ok {
		return ""
	}
	h, known := HeaderFromBits(bits)
	if known {
		return fmt.Sprintf("%s (%s)", e, h.Mnemonic())
	}
	return fmt.Sprintf("%s (header %06b)", e, bits)
}
