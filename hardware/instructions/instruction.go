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

	"github.com/pipesim/pipesim/hardware/memory"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/hardware/term"
)

// IDGenerator supplies instruction IDs. Normally an instance.Instance.
type IDGenerator interface {
	NextInstructionID() uint64
}

// Stage of the pipeline an instruction is executing in.
type Stage int

// List of valid Stages, in pipeline order.
const (
	Fetch Stage = iota
	Decode
	Execute
	Access
	Writeback
)

// NumStages is the number of stages in the pipeline.
const NumStages = 5

func (s Stage) String() string {
	switch s {
	case Fetch:
		return "fetch"
	case Decode:
		return "decode"
	case Execute:
		return "execute"
	case Access:
		return "access"
	case Writeback:
		return "writeback"
	}
	return "unknown stage"
}

// State of an instruction in the stage it is currently held by.
type State int

// List of valid States.
const (
	NotStarted State = iota
	AwaitingMemory
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case AwaitingMemory:
		return "awaiting memory"
	case Finished:
		return "finished"
	}
	return "unknown state"
}

// MaxOperands is the maximum number of source or destination operands.
const MaxOperands = 3

// Operand is a register operand of an instruction.
type Operand struct {
	Bank  registers.Bank
	Index int

	// for sources the value is read during decode. for destinations the value
	// is the one that will be committed during writeback
	Value uint64

	Valid bool
}

func (op Operand) String() string {
	if !op.Valid {
		return "-"
	}
	switch op.Bank {
	case registers.General:
		return fmt.Sprintf("G%d", op.Index)
	case registers.Internal:
		return registers.InternalName(op.Index)
	}
	return fmt.Sprintf("%s%d", op.Bank, op.Index)
}

// Operands are the decoded operands and intermediate results of an
// instruction.
type Operands struct {
	Sources      [MaxOperands]Operand
	Destinations [MaxOperands]Operand

	Immediate    int64
	HasImmediate bool

	// effective address of a LOAD or STORE
	Effective uint64

	// result of the operation before it is masked for the destination
	Result uint64

	// branch outcome and destination
	Taken  bool
	Target uint64

	// UNDO arguments
	Quantity int
	Skip     int
}

// Instruction is a single instruction word and its decoded operands.
type Instruction struct {
	ID uint64

	// the instruction word is never changed except when the instruction is
	// converted into an EXECUTION_ERR instruction
	Word   term.Term
	Header Header

	// address of the instruction in instruction memory. for LOAD_PC it is the
	// address being fetched
	Address uint64

	Operands

	fields  Fields
	state   State
	request *memory.Request

	// the instruction was loaded from instruction memory
	fetched bool
}

// New creates an instruction from a word fetched from instruction memory.
//
// An unknown header yields an EXECUTION_ERR instruction with the
// NotImplemented error type. Internal headers are kept and rejected when the
// instruction reaches decode. New never fails.
func New(ids IDGenerator, word term.Term) *Instruction {
	word = normalise(word)

	ins := &Instruction{
		ID:      ids.NextInstructionID(),
		Word:    word,
		fields:  DecodeFields(word),
		fetched: true,
	}

	h, ok := HeaderFromBits(ins.fields.Bits)
	if !ok {
		ins.convert(NotImplemented, ins.fields.Bits)
		return ins
	}
	ins.Header = h

	return ins
}

// NewInternal creates an internal instruction for the pipeline.
func NewInternal(ids IDGenerator, header Header, size int) *Instruction {
	word := Encode(size, header, 0, [3]uint8{}, 0)
	return &Instruction{
		ID:     ids.NextInstructionID(),
		Word:   word,
		Header: header,
		fields: DecodeFields(word),
	}
}

// convert the instruction into an EXECUTION_ERR instruction. the ID and
// address are kept.
func (ins *Instruction) convert(e ErrorType, offending uint8) {
	ins.Word = errorWord(ins.Word.Len(), e, offending)
	ins.fields = DecodeFields(ins.Word)
	ins.Header = ExecutionErr
	ins.Operands = Operands{}
	ins.state = Finished
	ins.request = nil
}

// fail converts the instruction into an EXECUTION_ERR instruction and
// releases any registers it has reserved.
func (ins *Instruction) fail(ctx Context, e ErrorType) {
	ctx.Pending().ReleaseAll(ins.ID)
	ins.convert(e, ins.Header.Bits())
}

// Fields returns the raw fields of the instruction word.
func (ins *Instruction) Fields() Fields {
	return ins.fields
}

// Size returns the width of the instruction word.
func (ins *Instruction) Size() int {
	return ins.Word.Len()
}

// Enter prepares the instruction for execution in a new stage.
func (ins *Instruction) Enter() {
	ins.state = NotStarted
	ins.request = nil
}

// State returns the execution state of the instruction in the current stage.
func (ins *Instruction) State() State {
	return ins.state
}

// IsFinished returns true if the instruction has finished in the current
// stage.
func (ins *Instruction) IsFinished() bool {
	return ins.state == Finished
}

// Request returns the memory request the instruction is waiting on. Returns
// nil if there is no such request.
func (ins *Instruction) Request() *memory.Request {
	return ins.request
}

// Source returns the nth source operand.
func (ins *Instruction) Source(n int) (Operand, bool) {
	if n < 0 || n >= MaxOperands {
		return Operand{}, false
	}
	return ins.Sources[n], ins.Sources[n].Valid
}

// Destination returns the nth destination operand.
func (ins *Instruction) Destination(n int) (Operand, bool) {
	if n < 0 || n >= MaxOperands {
		return Operand{}, false
	}
	return ins.Destinations[n], ins.Destinations[n].Valid
}

// SourceValue returns the raw value of the nth source operand.
func (ins *Instruction) SourceValue(n int) uint64 {
	op, _ := ins.Source(n)
	return op.Value
}

// operandText formats the operand value in the radix. decimal values are
// signed.
func (ins *Instruction) operandText(op Operand, ok bool, radix int) string {
	if !ok {
		return ""
	}
	return term.FromUint(op.Value, ins.Size()).Format(radix)
}

// SourceText returns the value of the nth source operand formatted in the
// radix. Decimal values are signed. Returns the empty string if there is no
// such source.
func (ins *Instruction) SourceText(n int, radix int) string {
	op, ok := ins.Source(n)
	return ins.operandText(op, ok, radix)
}

// DestinationText returns the value of the nth destination operand formatted
// in the radix.
func (ins *Instruction) DestinationText(n int, radix int) string {
	op, ok := ins.Destination(n)
	return ins.operandText(op, ok, radix)
}

// Fetched returns the instruction word loaded by a finished LOAD_PC
// instruction. The boolean is false if there is no word.
func (ins *Instruction) Fetched() (term.Term, bool) {
	if ins.Header != LoadPC || ins.state != Finished || ins.request == nil {
		return term.Term{}, false
	}

	r := ins.request.Result
	switch len(r) {
	case 1:
		return term.FromUint(r[0]&0xffffffff, ShortWord), true
	case 2:
		return term.FromUint(r[0]<<32|r[1]&0xffffffff, LongWord), true
	}
	return term.Term{}, false
}

// String returns the disassembly of the instruction.
func (ins *Instruction) String() string {
	s := strings.Builder{}
	s.WriteString(ins.Header.Mnemonic())

	f := ins.fields
	imm := func() string {
		if f.Flags&F0 == F0 {
			return fmt.Sprintf("#%d", f.signedImmediate())
		}
		return fmt.Sprintf("G%d", f.Args[2])
	}
	abs := func(reg uint8) string {
		if f.Flags&F0 == F0 {
			return fmt.Sprintf("@%#x", f.absoluteImmediate())
		}
		return fmt.Sprintf("G%d", reg)
	}
	addr := func() string {
		if f.Flags&F0 == F0 {
			return fmt.Sprintf("@%#x", f.absoluteImmediate())
		}
		return fmt.Sprintf("G%d%+d", f.Args[1], f.signedImmediate())
	}

	defn, _ := ins.Header.Definition()
	switch defn.Format {
	case Binary:
		s.WriteString(fmt.Sprintf(" G%d, G%d, %s", f.Args[0], f.Args[1], imm()))
	case Unary:
		s.WriteString(fmt.Sprintf(" G%d, G%d", f.Args[0], f.Args[1]))
	case Comparison:
		s.WriteString(fmt.Sprintf(" G%d, %s", f.Args[1], imm()))
	case LoadFormat:
		s.WriteString(fmt.Sprintf(" G%d, %s", f.Args[0], addr()))
	case StoreFormat:
		s.WriteString(fmt.Sprintf(" G%d, %s", f.Args[0], addr()))
	case MoveFormat:
		dst := fmt.Sprintf("G%d", f.Args[0])
		if f.Flags&F1 == F1 {
			dst = registers.InternalName(int(f.Args[0]))
		}
		src := fmt.Sprintf("G%d", f.Args[1])
		if f.Flags&F0 == F0 {
			src = fmt.Sprintf("#%d", f.moveImmediate())
		}
		s.WriteString(fmt.Sprintf(" %s, %s", dst, src))
	case Target:
		s.WriteString(" ")
		s.WriteString(abs(f.Args[0]))
		if ins.Header == BranchIfPredicate {
			s.WriteString(fmt.Sprintf(", PR%d", f.Args[1]))
		}
	case Quantity:
		s.WriteString(fmt.Sprintf(" %d, %d", f.Args[0], f.Args[1]))
	default:
		if ins.Header == ExecutionErr {
			s.WriteString(" ")
			s.WriteString(ins.ErrorDetail())
		}
	}

	return s.String()
}
