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
	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware/memory"
	"github.com/pipesim/pipesim/hardware/registers"
)

// Sentinal error patterns.
const (
	UnknownHeader = "instructions: no handler for header %06b"
	WrongStage    = "instructions: %s cannot execute in the %s stage"
)

// Context is the view of the machine given to an instruction while it
// executes.
type Context interface {
	// the stage that is executing the instruction
	Stage() Stage

	// the machine word size. either ShortWord or LongWord
	WordSize() int

	Registers() *registers.Set
	Pending() *registers.Pending

	// issue a memory request to the entry module for the memory type
	Issue(typ memory.Type, req *memory.Request) error

	// change the flow of control. the program counter is set to the target
	// and younger instructions are quashed
	Redirect(target uint64)
}

// Execute the instruction in the stage given by the context. Execute is
// called at least once per cycle while the instruction is held by a stage
// and does nothing once the instruction has finished in that stage. Any
// memory request is issued only once.
//
// Machine errors that can be represented by the instruction set convert the
// instruction into an EXECUTION_ERR instruction. The returned error is for
// conditions that are fatal to the simulation.
func (ins *Instruction) Execute(ctx Context) error {
	if ins.state == Finished {
		return nil
	}

	// only NOOP of the internal instructions may be loaded from memory
	if ins.fetched && ins.Header.IsInternal() && ins.Header != Noop && ctx.Stage() == Decode {
		ins.fail(ctx, NotImplemented)
		return nil
	}

	switch ins.Header {
	case Noop, Stall, QuashBranch, QuashUndo, ExecutionErr:
		ins.state = Finished
		return nil
	case LoadPC:
		return ins.executeLoadPC(ctx)
	case IntAdd, IntSub, IntMul, IntDiv, IntMod:
		return ins.executeArithmetic(ctx)
	case Compare:
		return ins.executeCompare(ctx)
	case FloatAdd, FloatSub, FloatMul, FloatDiv:
		return ins.executeFloat(ctx)
	case And, Or, Xor, Not, ShiftLeft, ShiftRight:
		return ins.executeLogic(ctx)
	case Load:
		return ins.executeLoad(ctx)
	case Store:
		return ins.executeStore(ctx)
	case Move:
		return ins.executeMove(ctx)
	case Branch, BranchIfZero, BranchIfNegative, BranchIfPredicate:
		return ins.executeBranch(ctx)
	case JumpSubroutine:
		return ins.executeJumpSubroutine(ctx)
	case Return:
		return ins.executeReturn(ctx)
	case Undo:
		return ins.executeMarker(ctx)
	case Halt:
		return ins.executeMarker(ctx)
	}

	return curated.Errorf(UnknownHeader, ins.Header.Bits())
}

func wordMask(size int) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << size) - 1
}

// signed interprets the value as a two's complement number of size bits.
func signed(v uint64, size int) int64 {
	if size >= 64 {
		return int64(v)
	}
	v &= wordMask(size)
	if v&(uint64(1)<<(size-1)) != 0 {
		v |= ^wordMask(size)
	}
	return int64(v)
}

// the second operand of a binary operation.
func (ins *Instruction) operand1() uint64 {
	if ins.HasImmediate {
		return uint64(ins.Immediate)
	}
	return ins.Sources[1].Value
}

// common handling for stages in which an instruction has nothing to do.
// decode and writeback are the same for every user instruction.
func (ins *Instruction) common(ctx Context) error {
	switch ctx.Stage() {
	case Fetch:
		return curated.Errorf(WrongStage, ins.Header.Mnemonic(), ctx.Stage())
	case Decode:
		return ins.decode(ctx)
	case Writeback:
		return ins.writeback(ctx)
	}
	ins.state = Finished
	return nil
}

// writeback commits the destination registers in destination order and
// releases the reservations.
func (ins *Instruction) writeback(ctx Context) error {
	for _, op := range ins.Destinations {
		if !op.Valid {
			continue
		}
		if err := ctx.Registers().Commit(op.Bank, op.Index, op.Value); err != nil {
			return err
		}
		ctx.Pending().Release(op.Bank, op.Index, ins.ID)
	}
	ins.state = Finished
	return nil
}

// LOAD_PC fetches the instruction at the program counter. a long word is
// fetched as two short words.
func (ins *Instruction) executeLoadPC(ctx Context) error {
	if ctx.Stage() != Fetch {
		return curated.Errorf(WrongStage, ins.Header.Mnemonic(), ctx.Stage())
	}

	switch ins.state {
	case NotStarted:
		ins.Address = ctx.Registers().PC()
		words := 1
		if ctx.WordSize() == LongWord {
			words = 2
		}
		req := memory.NewLoad(ins.ID, ins.Address, words)
		if err := ctx.Issue(memory.Instruction, req); err != nil {
			return err
		}
		ins.request = req
		ins.state = AwaitingMemory
		fallthrough
	case AwaitingMemory:
		if ins.request.IsFinished() {
			ins.state = Finished
		}
	}

	return nil
}

func (ins *Instruction) executeArithmetic(ctx Context) error {
	if ctx.Stage() != Execute {
		return ins.common(ctx)
	}

	size := ctx.WordSize()
	a := ins.Sources[0].Value
	b := ins.operand1()

	switch ins.Header {
	case IntAdd:
		ins.Result = a + b
	case IntSub:
		ins.Result = a - b
	case IntMul:
		ins.Result = a * b
	case IntDiv, IntMod:
		sb := signed(b, size)
		if sb == 0 {
			ins.fail(ctx, DivideByZero)
			return nil
		}
		sa := signed(a, size)
		if ins.Header == IntDiv {
			ins.Result = uint64(sa / sb)
		} else {
			ins.Result = uint64(sa % sb)
		}
	}

	ins.Destinations[0].Value = ins.Result & wordMask(size)
	ins.state = Finished
	return nil
}

func (ins *Instruction) executeLogic(ctx Context) error {
	if ctx.Stage() != Execute {
		return ins.common(ctx)
	}

	size := ctx.WordSize()
	a := ins.Sources[0].Value
	b := ins.operand1()

	switch ins.Header {
	case And:
		ins.Result = a & b
	case Or:
		ins.Result = a | b
	case Xor:
		ins.Result = a ^ b
	case Not:
		ins.Result = ^a
	case ShiftLeft:
		if b >= uint64(size) {
			ins.Result = 0
		} else {
			ins.Result = a << b
		}
	case ShiftRight:
		if b >= uint64(size) {
			ins.Result = 0
		} else {
			ins.Result = (a & wordMask(size)) >> b
		}
	}

	ins.Destinations[0].Value = ins.Result & wordMask(size)
	ins.state = Finished
	return nil
}

// COMPARE sets exactly one of the N, Z and P bits of the condition code.
// the comparison is signed.
func (ins *Instruction) executeCompare(ctx Context) error {
	if ctx.Stage() != Execute {
		return ins.common(ctx)
	}

	size := ctx.WordSize()
	a := signed(ins.Sources[0].Value, size)
	b := signed(ins.operand1(), size)

	switch {
	case a < b:
		ins.Result = registers.CCNegative
	case a == b:
		ins.Result = registers.CCZero
	default:
		ins.Result = registers.CCPositive
	}

	ins.Destinations[0].Value = ins.Result
	ins.state = Finished
	return nil
}

// floating point instructions are reserved but not implemented. the decode
// stage converts them to EXECUTION_ERR.
func (ins *Instruction) executeFloat(ctx Context) error {
	return ins.common(ctx)
}

// the effective address of a LOAD or STORE. the base register is the last
// valid source.
func (ins *Instruction) effectiveAddress(base Operand) {
	if base.Valid {
		ins.Effective = uint64(int64(base.Value) + ins.Immediate)
	}
}

func (ins *Instruction) executeLoad(ctx Context) error {
	switch ctx.Stage() {
	case Execute:
		ins.effectiveAddress(ins.Sources[0])
		ins.state = Finished
		return nil

	case Access:
		switch ins.state {
		case NotStarted:
			req := memory.NewLoad(ins.ID, ins.Effective, 1)
			if err := ctx.Issue(memory.Data, req); err != nil {
				return err
			}
			ins.request = req
			ins.state = AwaitingMemory
			fallthrough
		case AwaitingMemory:
			if ins.request.IsFinished() {
				ins.Result = ins.request.Result[0]
				ins.Destinations[0].Value = ins.Result & wordMask(ctx.WordSize())
				ins.state = Finished
			}
		}
		return nil
	}

	return ins.common(ctx)
}

func (ins *Instruction) executeStore(ctx Context) error {
	switch ctx.Stage() {
	case Execute:
		ins.effectiveAddress(ins.Sources[1])
		ins.state = Finished
		return nil

	case Access:
		switch ins.state {
		case NotStarted:
			req := memory.NewStore(ins.ID, ins.Effective, ins.Sources[0].Value)
			if err := ctx.Issue(memory.Data, req); err != nil {
				return err
			}
			ins.request = req
			ins.state = AwaitingMemory
			fallthrough
		case AwaitingMemory:
			if ins.request.IsFinished() {
				ins.state = Finished
			}
		}
		return nil
	}

	return ins.common(ctx)
}

func (ins *Instruction) executeMove(ctx Context) error {
	if ctx.Stage() != Execute {
		return ins.common(ctx)
	}

	if ins.HasImmediate {
		ins.Result = uint64(ins.Immediate)
	} else {
		ins.Result = ins.Sources[0].Value
	}
	ins.Destinations[0].Value = ins.Result
	ins.state = Finished
	return nil
}

// the target of a control instruction. returns false if the target cannot
// hold an instruction.
func (ins *Instruction) target(ctx Context) bool {
	if ins.Sources[0].Valid {
		ins.Target = ins.Sources[0].Value
	}

	// long words must be aligned to two short words
	if ctx.WordSize() == LongWord && ins.Target&1 == 1 {
		ins.fail(ctx, InvalidArgs)
		return false
	}
	return true
}

// step is the number of short words occupied by an instruction.
func step(ctx Context) uint64 {
	if ctx.WordSize() == LongWord {
		return 2
	}
	return 1
}

func (ins *Instruction) executeBranch(ctx Context) error {
	if ctx.Stage() != Execute {
		return ins.common(ctx)
	}

	if !ins.target(ctx) {
		return nil
	}

	var cond [3]uint64
	if c := ins.Sources[1]; c.Valid {
		switch c.Index {
		case registers.CC:
			cond[checkCC] = c.Value
		case registers.PR0:
			cond[checkPR0] = c.Value
		case registers.PR1:
			cond[checkPR1] = c.Value
		}
	}

	ins.Taken = ins.ConditionMet(cond[checkCC], cond[checkPR0], cond[checkPR1])
	if ins.Taken {
		ctx.Redirect(ins.Target)
	}

	ins.state = Finished
	return nil
}

// JSR pushes the address of the following instruction onto the call stack.
// call stack overflow is fatal.
func (ins *Instruction) executeJumpSubroutine(ctx Context) error {
	if ctx.Stage() != Execute {
		return ins.common(ctx)
	}

	if !ins.target(ctx) {
		return nil
	}

	if err := ctx.Registers().Call.Push(ins.Address + step(ctx)); err != nil {
		return err
	}

	ins.Taken = true
	ctx.Redirect(ins.Target)
	ins.state = Finished
	return nil
}

// RET pops the return address from the call stack. call stack underflow is
// fatal.
func (ins *Instruction) executeReturn(ctx Context) error {
	if ctx.Stage() != Execute {
		return ins.common(ctx)
	}

	target, err := ctx.Registers().Call.Pop()
	if err != nil {
		return err
	}

	ins.Target = target
	ins.Taken = true
	ctx.Redirect(ins.Target)
	ins.state = Finished
	return nil
}

// UNDO and HALT do their work when they reach writeback and are handled by
// the pipeline. in every other stage they are ordinary instructions with no
// destination.
func (ins *Instruction) executeMarker(ctx Context) error {
	return ins.common(ctx)
}
