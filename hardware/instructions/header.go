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
	"strings"
)

// Typecode is the upper three bits of a Header.
type Typecode uint8

// List of valid Typecodes. Typecodes 0b110 and 0b111 are unassigned.
const (
	Internal Typecode = 0b000
	Integer  Typecode = 0b001
	Float    Typecode = 0b010
	Logic    Typecode = 0b011
	Memory   Typecode = 0b100
	Control  Typecode = 0b101
)

func (tc Typecode) String() string {
	switch tc {
	case Internal:
		return "internal"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Logic:
		return "logic"
	case Memory:
		return "memory"
	case Control:
		return "control"
	}
	return "unassigned"
}

// Header identifies the operation of an instruction. It is the leading six
// bits of an instruction word: a three bit typecode followed by a three bit
// opcode.
type Header uint8

// List of valid Headers.
const (
	Noop         Header = Header(Internal)<<3 | 0b000
	Stall        Header = Header(Internal)<<3 | 0b001
	QuashBranch  Header = Header(Internal)<<3 | 0b010
	QuashUndo    Header = Header(Internal)<<3 | 0b011
	LoadPC       Header = Header(Internal)<<3 | 0b100
	ExecutionErr Header = Header(Internal)<<3 | 0b101

	IntAdd  Header = Header(Integer)<<3 | 0b000
	IntSub  Header = Header(Integer)<<3 | 0b001
	IntMul  Header = Header(Integer)<<3 | 0b010
	IntDiv  Header = Header(Integer)<<3 | 0b011
	IntMod  Header = Header(Integer)<<3 | 0b100
	Compare Header = Header(Integer)<<3 | 0b101

	FloatAdd Header = Header(Float)<<3 | 0b000
	FloatSub Header = Header(Float)<<3 | 0b001
	FloatMul Header = Header(Float)<<3 | 0b010
	FloatDiv Header = Header(Float)<<3 | 0b011

	And        Header = Header(Logic)<<3 | 0b000
	Or         Header = Header(Logic)<<3 | 0b001
	Xor        Header = Header(Logic)<<3 | 0b010
	Not        Header = Header(Logic)<<3 | 0b011
	ShiftLeft  Header = Header(Logic)<<3 | 0b100
	ShiftRight Header = Header(Logic)<<3 | 0b101

	Load  Header = Header(Memory)<<3 | 0b000
	Store Header = Header(Memory)<<3 | 0b001
	Move  Header = Header(Memory)<<3 | 0b010

	Branch            Header = Header(Control)<<3 | 0b000
	BranchIfZero      Header = Header(Control)<<3 | 0b001
	BranchIfNegative  Header = Header(Control)<<3 | 0b010
	BranchIfPredicate Header = Header(Control)<<3 | 0b011
	JumpSubroutine    Header = Header(Control)<<3 | 0b100
	Return            Header = Header(Control)<<3 | 0b101
	Undo              Header = Header(Control)<<3 | 0b110
	Halt              Header = Header(Control)<<3 | 0b111
)

// Format describes the operands of an instruction and how they are encoded
// in the argument fields.
type Format int

// List of valid Formats.
const (
	// no operands
	None Format = iota

	// dst = a0, src0 = a1, src1 = a2 or immediate
	Binary

	// dst = a0, src0 = a1
	Unary

	// src0 = a1, src1 = a2 or immediate. destination is CC
	Comparison

	// dst = a0. address is G[a1] plus an offset or an absolute immediate
	LoadFormat

	// value = a0. address as LoadFormat
	StoreFormat

	// dst = a0, in the internal bank if F1 is set. src = G[a1] or immediate
	MoveFormat

	// target = G[a0] or absolute immediate
	Target

	// quantity = a0, skip = a1
	Quantity
)

// Definition of a single Header.
type Definition struct {
	Header   Header
	Mnemonic string
	Format   Format

	// the F0 flag (immediate operand) is allowed
	Immediate bool

	// instruction is implemented
	Implemented bool
}

func (defn Definition) String() string {
	return fmt.Sprintf("%06b %s", uint8(defn.Header), defn.Mnemonic)
}

// the complete instruction set. the order of the table is the order of the
// header bits.
var definitions = []Definition{
	{Header: Noop, Mnemonic: ".NOOP", Format: None, Implemented: true},
	{Header: Stall, Mnemonic: ".STALL", Format: None, Implemented: true},
	{Header: QuashBranch, Mnemonic: ".QUASH_BRANCH", Format: None, Implemented: true},
	{Header: QuashUndo, Mnemonic: ".QUASH_UNDO", Format: None, Implemented: true},
	{Header: LoadPC, Mnemonic: ".LOAD_PC", Format: None, Implemented: true},
	{Header: ExecutionErr, Mnemonic: ".ERR", Format: None, Implemented: true},

	{Header: IntAdd, Mnemonic: "ADD", Format: Binary, Immediate: true, Implemented: true},
	{Header: IntSub, Mnemonic: "SUB", Format: Binary, Immediate: true, Implemented: true},
	{Header: IntMul, Mnemonic: "MUL", Format: Binary, Immediate: true, Implemented: true},
	{Header: IntDiv, Mnemonic: "DIV", Format: Binary, Immediate: true, Implemented: true},
	{Header: IntMod, Mnemonic: "MOD", Format: Binary, Immediate: true, Implemented: true},
	{Header: Compare, Mnemonic: "CMP", Format: Comparison, Immediate: true, Implemented: true},

	{Header: FloatAdd, Mnemonic: "FADD", Format: Binary},
	{Header: FloatSub, Mnemonic: "FSUB", Format: Binary},
	{Header: FloatMul, Mnemonic: "FMUL", Format: Binary},
	{Header: FloatDiv, Mnemonic: "FDIV", Format: Binary},

	{Header: And, Mnemonic: "AND", Format: Binary, Immediate: true, Implemented: true},
	{Header: Or, Mnemonic: "OR", Format: Binary, Immediate: true, Implemented: true},
	{Header: Xor, Mnemonic: "XOR", Format: Binary, Immediate: true, Implemented: true},
	{Header: Not, Mnemonic: "NOT", Format: Unary, Implemented: true},
	{Header: ShiftLeft, Mnemonic: "SHL", Format: Binary, Immediate: true, Implemented: true},
	{Header: ShiftRight, Mnemonic: "SHR", Format: Binary, Immediate: true, Implemented: true},

	{Header: Load, Mnemonic: "LOAD", Format: LoadFormat, Immediate: true, Implemented: true},
	{Header: Store, Mnemonic: "STORE", Format: StoreFormat, Immediate: true, Implemented: true},
	{Header: Move, Mnemonic: "MOVE", Format: MoveFormat, Immediate: true, Implemented: true},

	{Header: Branch, Mnemonic: "BR", Format: Target, Immediate: true, Implemented: true},
	{Header: BranchIfZero, Mnemonic: "BRZ", Format: Target, Immediate: true, Implemented: true},
	{Header: BranchIfNegative, Mnemonic: "BRN", Format: Target, Immediate: true, Implemented: true},
	{Header: BranchIfPredicate, Mnemonic: "BRP", Format: Target, Immediate: true, Implemented: true},
	{Header: JumpSubroutine, Mnemonic: "JSR", Format: Target, Immediate: true, Implemented: true},
	{Header: Return, Mnemonic: "RET", Format: None, Implemented: true},
	{Header: Undo, Mnemonic: "UNDO", Format: Quantity, Implemented: true},
	{Header: Halt, Mnemonic: "HALT", Format: None, Implemented: true},
}

// lookup tables built from the definitions table.
var (
	byHeader   map[Header]Definition
	byMnemonic map[string]Header
)

func init() {
	byHeader = make(map[Header]Definition, len(definitions))
	byMnemonic = make(map[string]Header, len(definitions))
	for _, d := range definitions {
		byHeader[d.Header] = d
		byMnemonic[d.Mnemonic] = d.Header
	}
}

// HeaderFromBits returns the Header for the six bit pattern. The boolean is
// false if the pattern is not a known header.
func HeaderFromBits(bits uint8) (Header, bool) {
	h := Header(bits)
	_, ok := byHeader[h]
	return h, ok
}

// HeaderFromMnemonic returns the Header for the mnemonic. Case insensitive.
func HeaderFromMnemonic(mnemonic string) (Header, bool) {
	h, ok := byMnemonic[strings.ToUpper(strings.TrimSpace(mnemonic))]
	return h, ok
}

// AllHeaders returns every known Header in bit pattern order.
func AllHeaders() []Header {
	h := make([]Header, len(definitions))
	for i, d := range definitions {
		h[i] = d.Header
	}
	return h
}

// Bits returns the six bit pattern of the Header.
func (h Header) Bits() uint8 {
	return uint8(h) & 0b111111
}

// Typecode returns the upper three bits of the Header.
func (h Header) Typecode() Typecode {
	return Typecode(h.Bits() >> 3)
}

// Opcode returns the lower three bits of the Header.
func (h Header) Opcode() uint8 {
	return h.Bits() & 0b111
}

// Definition returns the definition of the Header.
func (h Header) Definition() (Definition, bool) {
	d, ok := byHeader[h]
	return d, ok
}

// Mnemonic returns the mnemonic for the Header. Internal headers have
// mnemonics that begin with a dot.
func (h Header) Mnemonic() string {
	if d, ok := byHeader[h]; ok {
		return d.Mnemonic
	}
	return fmt.Sprintf("?%06b", h.Bits())
}

// IsInternal returns true if the Header is one that is created by the
// pipeline rather than by a program.
func (h Header) IsInternal() bool {
	return h.Typecode() == Internal
}

// IsBubble returns true if the Header carries no work. Bubbles are never
// reported as retired.
func (h Header) IsBubble() bool {
	switch h {
	case Noop, Stall, QuashBranch, QuashUndo:
		return true
	}
	return false
}

func (h Header) String() string {
	return h.Mnemonic()
}
