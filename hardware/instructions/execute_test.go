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

package instructions_test

import (
	"testing"

	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware/instructions"
	"github.com/pipesim/pipesim/hardware/memory"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/test"
)

// machine implements the instructions.Context interface with a single ram
// module for each memory type.
type machine struct {
	t *testing.T

	ids     *ids
	stage   instructions.Stage
	size    int
	regs    *registers.Set
	pending *registers.Pending
	mem     *memory.Hierarchy
	ramd    int

	redirected bool
	target     uint64
}

func newMachine(t *testing.T, size int) *machine {
	t.Helper()

	regs, err := registers.NewSet(8, size, 4, 8, 16)
	test.DemandSuccess(t, err)

	mem := memory.NewHierarchy(8, nil)
	_, err = mem.Add(memory.Config{
		Name: "RAMI", Kind: memory.RAM, Type: memory.Instruction, WordLength: 32,
		LineSize: 4, AccessDelay: 1,
	})
	test.DemandSuccess(t, err)
	ramd, err := mem.Add(memory.Config{
		Name: "RAMD", Kind: memory.RAM, Type: memory.Data, WordLength: size,
		LineSize: 1, AccessDelay: 2,
	})
	test.DemandSuccess(t, err)

	return &machine{
		t:       t,
		ids:     &ids{},
		size:    size,
		regs:    regs,
		pending: registers.NewPending(),
		mem:     mem,
		ramd:    ramd,
	}
}

func (m *machine) Stage() instructions.Stage {
	return m.stage
}

func (m *machine) WordSize() int {
	return m.size
}

func (m *machine) Registers() *registers.Set {
	return m.regs
}

func (m *machine) Pending() *registers.Pending {
	return m.pending
}

func (m *machine) Issue(typ memory.Type, req *memory.Request) error {
	idx, err := m.mem.Entry(typ)
	if err != nil {
		return err
	}
	return m.mem.Issue(idx, req)
}

func (m *machine) Redirect(target uint64) {
	m.redirected = true
	m.target = target
}

func (m *machine) set(index int, value uint64) {
	m.t.Helper()
	test.DemandSuccess(m.t, m.regs.General.Store(index, value))
}

func (m *machine) get(index int) uint64 {
	m.t.Helper()
	v, err := m.regs.General.Load(index)
	test.DemandSuccess(m.t, err)
	return v
}

// step executes the instruction in the stage until it finishes, ticking
// memory while the instruction waits. returns false if the instruction did
// not finish.
func (m *machine) step(ins *instructions.Instruction, stage instructions.Stage) bool {
	m.t.Helper()

	m.stage = stage
	ins.Enter()
	for i := 0; i < 20; i++ {
		test.DemandSuccess(m.t, ins.Execute(m))
		if ins.IsFinished() {
			return true
		}
		test.DemandSuccess(m.t, m.mem.Tick())
	}
	return false
}

// run the instruction through every stage after fetch.
func (m *machine) run(ins *instructions.Instruction) {
	m.t.Helper()
	for _, s := range []instructions.Stage{instructions.Decode, instructions.Execute, instructions.Access, instructions.Writeback} {
		if !m.step(ins, s) {
			m.t.Fatalf("%s did not finish in the %s stage", ins, s)
		}
	}
}

func (m *machine) encode(h instructions.Header, flags instructions.Flags, args [3]uint8, imm uint32) *instructions.Instruction {
	return instructions.New(m.ids, instructions.Encode(m.size, h, flags, args, imm))
}

func TestAdd(t *testing.T) {
	m := newMachine(t, 32)
	m.set(0, 5)
	m.set(1, 7)
	cc, _ := m.regs.Read(registers.Internal, registers.CC)

	ins := m.encode(instructions.IntAdd, 0, [3]uint8{2, 0, 1}, 0)
	m.run(ins)

	test.ExpectEquality(t, m.get(2), uint64(12))
	after, _ := m.regs.Read(registers.Internal, registers.CC)
	test.ExpectEquality(t, after, cc)
	test.ExpectEquality(t, m.pending.Len(), 0)
	test.ExpectEquality(t, m.regs.History(), 1)
}

func TestArithmetic(t *testing.T) {
	m := newMachine(t, 32)
	m.set(0, 5)
	m.set(1, 7)

	m.run(m.encode(instructions.IntSub, 0, [3]uint8{3, 0, 1}, 0))
	test.ExpectEquality(t, m.get(3), uint64(0xfffffffe))

	m.run(m.encode(instructions.IntMul, instructions.F0, [3]uint8{3, 1, 3}, 0))
	test.ExpectEquality(t, m.get(3), uint64(21))

	m.run(m.encode(instructions.IntDiv, instructions.F0, [3]uint8{3, 1, 2}, 0))
	test.ExpectEquality(t, m.get(3), uint64(3))

	m.run(m.encode(instructions.IntMod, instructions.F0, [3]uint8{3, 1, 2}, 0))
	test.ExpectEquality(t, m.get(3), uint64(1))

	// division is signed. -7 / 2 truncates towards zero
	m.set(4, 0xfffffff9)
	m.run(m.encode(instructions.IntDiv, instructions.F0, [3]uint8{3, 4, 2}, 0))
	test.ExpectEquality(t, m.get(3), uint64(0xfffffffd))
	m.run(m.encode(instructions.IntMod, instructions.F0, [3]uint8{3, 4, 2}, 0))
	test.ExpectEquality(t, m.get(3), uint64(0xffffffff))

	// overflow wraps
	m.set(4, 0xffffffff)
	m.run(m.encode(instructions.IntAdd, instructions.F0, [3]uint8{3, 4, 1}, 0))
	test.ExpectEquality(t, m.get(3), uint64(0))
}

func TestDivideByZero(t *testing.T) {
	m := newMachine(t, 32)
	m.set(0, 5)
	m.set(3, 99)

	ins := m.encode(instructions.IntDiv, 0, [3]uint8{3, 0, 1}, 0)
	id := ins.ID
	m.run(ins)

	test.ExpectEquality(t, ins.Header, instructions.ExecutionErr)
	test.ExpectEquality(t, ins.ID, id)
	e, bits, ok := ins.ErrorPayload()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, e, instructions.DivideByZero)
	test.ExpectEquality(t, bits, instructions.IntDiv.Bits())

	// the destination is unchanged and no longer reserved
	test.ExpectEquality(t, m.get(3), uint64(99))
	test.ExpectEquality(t, m.pending.Len(), 0)
}

func TestLogic(t *testing.T) {
	m := newMachine(t, 32)
	m.set(0, 0b1100)
	m.set(1, 0b1010)

	m.run(m.encode(instructions.And, 0, [3]uint8{2, 0, 1}, 0))
	test.ExpectEquality(t, m.get(2), uint64(0b1000))
	m.run(m.encode(instructions.Or, 0, [3]uint8{2, 0, 1}, 0))
	test.ExpectEquality(t, m.get(2), uint64(0b1110))
	m.run(m.encode(instructions.Xor, 0, [3]uint8{2, 0, 1}, 0))
	test.ExpectEquality(t, m.get(2), uint64(0b0110))
	m.run(m.encode(instructions.Not, 0, [3]uint8{2, 0, 0}, 0))
	test.ExpectEquality(t, m.get(2), uint64(0xfffffff3))
	m.run(m.encode(instructions.ShiftLeft, instructions.F0, [3]uint8{2, 0, 2}, 0))
	test.ExpectEquality(t, m.get(2), uint64(0b110000))
	m.run(m.encode(instructions.ShiftRight, instructions.F0, [3]uint8{2, 0, 2}, 0))
	test.ExpectEquality(t, m.get(2), uint64(0b11))

	// shifting by the word size or more gives zero
	m.run(m.encode(instructions.ShiftLeft, instructions.F0, [3]uint8{2, 0, 32}, 0))
	test.ExpectEquality(t, m.get(2), uint64(0))
	m.run(m.encode(instructions.ShiftRight, instructions.F0, [3]uint8{2, 0, 40}, 0))
	test.ExpectEquality(t, m.get(2), uint64(0))
}

func TestCompare(t *testing.T) {
	m := newMachine(t, 32)
	m.set(0, 5)
	m.set(1, 7)
	m.set(2, 0xffffffff)

	cc := func() uint64 {
		v, _ := m.regs.Read(registers.Internal, registers.CC)
		return v
	}

	m.run(m.encode(instructions.Compare, 0, [3]uint8{0, 0, 1}, 0))
	test.ExpectEquality(t, cc(), uint64(registers.CCNegative))
	m.run(m.encode(instructions.Compare, 0, [3]uint8{0, 1, 0}, 0))
	test.ExpectEquality(t, cc(), uint64(registers.CCPositive))
	m.run(m.encode(instructions.Compare, instructions.F0, [3]uint8{0, 0, 5}, 0))
	test.ExpectEquality(t, cc(), uint64(registers.CCZero))

	// comparison is signed
	m.run(m.encode(instructions.Compare, 0, [3]uint8{0, 2, 0}, 0))
	test.ExpectEquality(t, cc(), uint64(registers.CCNegative))
}

func TestMove(t *testing.T) {
	m := newMachine(t, 32)
	m.set(1, 42)

	m.run(m.encode(instructions.Move, 0, [3]uint8{0, 1, 0}, 0))
	test.ExpectEquality(t, m.get(0), uint64(42))

	// short word immediate is a1:a2 zero extended
	m.run(m.encode(instructions.Move, instructions.F0, [3]uint8{0, 0xff, 0xfe}, 0))
	test.ExpectEquality(t, m.get(0), uint64(0xfffe))

	m.run(m.encode(instructions.Move, instructions.F0|instructions.F1, [3]uint8{registers.PR1, 0, 1}, 0))
	pr1, _ := m.regs.Read(registers.Internal, registers.PR1)
	test.ExpectEquality(t, pr1, uint64(1))

	// the program counter is not a valid destination
	ins := m.encode(instructions.Move, instructions.F0|instructions.F1, [3]uint8{registers.PC, 0, 1}, 0)
	m.run(ins)
	e, _, _ := ins.ErrorPayload()
	test.ExpectEquality(t, e, instructions.InvalidArgs)

	// long word immediate is sign extended
	l := newMachine(t, 64)
	l.run(l.encode(instructions.Move, instructions.F0, [3]uint8{0, 0, 0}, 0xffffffff))
	test.ExpectEquality(t, l.get(0), uint64(0xffffffffffffffff))
}

func TestInvalidInstructions(t *testing.T) {
	m := newMachine(t, 32)

	check := func(ins *instructions.Instruction, expected instructions.ErrorType) {
		t.Helper()
		m.run(ins)
		e, _, ok := ins.ErrorPayload()
		test.ExpectSuccess(t, ok, ins)
		test.ExpectEquality(t, e, expected)
	}

	// floating point is not implemented
	check(m.encode(instructions.FloatAdd, 0, [3]uint8{0, 1, 2}, 0), instructions.NotImplemented)

	// internal instructions other than NOOP cannot be loaded from memory
	check(m.encode(instructions.LoadPC, 0, [3]uint8{}, 0), instructions.NotImplemented)
	check(m.encode(instructions.Stall, 0, [3]uint8{}, 0), instructions.NotImplemented)
	check(m.encode(instructions.QuashUndo, 0, [3]uint8{}, 0), instructions.NotImplemented)

	// NOT has no immediate form
	check(m.encode(instructions.Not, instructions.F0, [3]uint8{0, 1, 2}, 0), instructions.InvalidFlags)

	// F1 is only valid for MOVE
	check(m.encode(instructions.IntAdd, instructions.F1, [3]uint8{0, 1, 2}, 0), instructions.InvalidFlags)

	// general register out of range
	check(m.encode(instructions.IntAdd, 0, [3]uint8{0, 1, 8}, 0), instructions.InvalidArgs)

	// there are only two predicate registers
	check(m.encode(instructions.BranchIfPredicate, 0, [3]uint8{0, 2, 0}, 0), instructions.InvalidArgs)

	test.ExpectEquality(t, m.pending.Len(), 0)
	test.ExpectEquality(t, m.regs.History(), 0)
}

func TestHazard(t *testing.T) {
	m := newMachine(t, 32)
	m.set(0, 1)

	first := m.encode(instructions.IntAdd, instructions.F0, [3]uint8{1, 0, 1}, 0)
	second := m.encode(instructions.IntAdd, instructions.F0, [3]uint8{2, 1, 1}, 0)

	test.DemandSuccess(t, m.step(first, instructions.Decode))
	reserved, ok := m.pending.Pending(registers.General, 1)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, reserved, first.ID)

	// the second instruction reads G1 and cannot decode
	m.stage = instructions.Decode
	second.Enter()
	test.DemandSuccess(t, second.Execute(m))
	test.ExpectEquality(t, second.State(), instructions.NotStarted)

	test.DemandSuccess(t, m.step(first, instructions.Execute))
	test.DemandSuccess(t, m.step(first, instructions.Access))
	test.DemandSuccess(t, m.step(first, instructions.Writeback))
	test.ExpectEquality(t, m.get(1), uint64(2))

	// the value committed by writeback is visible to decode
	m.run(second)
	test.ExpectEquality(t, m.get(2), uint64(3))
}

func TestWriteAfterWrite(t *testing.T) {
	m := newMachine(t, 32)

	first := m.encode(instructions.Move, instructions.F0, [3]uint8{1, 0, 1}, 0)
	second := m.encode(instructions.Move, instructions.F0, [3]uint8{1, 0, 2}, 0)

	test.DemandSuccess(t, m.step(first, instructions.Decode))

	// the destination is reserved by another instruction
	m.stage = instructions.Decode
	second.Enter()
	test.DemandSuccess(t, second.Execute(m))
	test.ExpectFailure(t, second.IsFinished())

	// a quashed instruction releases its reservations
	m.pending.ReleaseAll(first.ID)
	test.DemandSuccess(t, second.Execute(m))
	test.ExpectSuccess(t, second.IsFinished())
}

func TestLoadStore(t *testing.T) {
	m := newMachine(t, 32)
	m.set(0, 0xabcd)
	m.set(6, 0x0f)

	store := m.encode(instructions.Store, instructions.F0, [3]uint8{0, 0, 0x10}, 0)
	m.run(store)
	v, ok := m.mem.Peek(m.ramd, 0x10)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, v, uint64(0xabcd))
	test.ExpectEquality(t, store.Effective, uint64(0x10))

	// base plus offset
	load := m.encode(instructions.Load, 0, [3]uint8{5, 6, 1}, 0)
	m.run(load)
	test.ExpectEquality(t, load.Effective, uint64(0x10))
	test.ExpectEquality(t, m.get(5), uint64(0xabcd))

	// negative offset
	m.set(6, 0x11)
	load = m.encode(instructions.Load, 0, [3]uint8{4, 6, 0xff}, 0)
	m.run(load)
	test.ExpectEquality(t, m.get(4), uint64(0xabcd))
}

func TestAccessTiming(t *testing.T) {
	m := newMachine(t, 32)

	load := m.encode(instructions.Load, instructions.F0, [3]uint8{1, 0, 0x20}, 0)
	test.DemandSuccess(t, m.step(load, instructions.Decode))
	test.DemandSuccess(t, m.step(load, instructions.Execute))

	m.stage = instructions.Access
	load.Enter()
	test.DemandSuccess(t, load.Execute(m))
	test.ExpectEquality(t, load.State(), instructions.AwaitingMemory)
	test.ExpectSuccess(t, load.Request() != nil)

	// the request is issued once
	req := load.Request()
	test.DemandSuccess(t, load.Execute(m))
	test.ExpectEquality(t, load.Request(), req)

	// ram access delay of two
	ticks := 0
	for !load.IsFinished() {
		test.DemandSuccess(t, m.mem.Tick())
		ticks++
		test.DemandSuccess(t, load.Execute(m))
	}
	test.ExpectEquality(t, ticks, 3)
}

func TestBranch(t *testing.T) {
	m := newMachine(t, 32)

	// unconditional to an absolute address
	br := m.encode(instructions.Branch, instructions.F0, [3]uint8{0, 0x01, 0x00}, 0)
	m.run(br)
	test.ExpectSuccess(t, m.redirected)
	test.ExpectEquality(t, m.target, uint64(0x100))
	test.ExpectSuccess(t, br.Taken)

	// conditional not taken
	m.redirected = false
	brz := m.encode(instructions.BranchIfZero, instructions.F0, [3]uint8{0, 0x01, 0x00}, 0)
	m.run(brz)
	test.ExpectFailure(t, m.redirected)
	test.ExpectFailure(t, brz.Taken)

	// conditional taken to a register target
	test.DemandSuccess(t, m.regs.Commit(registers.Internal, registers.CC, registers.CCZero))
	m.set(3, 0x40)
	brz = m.encode(instructions.BranchIfZero, 0, [3]uint8{3, 0, 0}, 0)
	m.run(brz)
	test.ExpectSuccess(t, m.redirected)
	test.ExpectEquality(t, m.target, uint64(0x40))

	// predicate
	m.redirected = false
	test.DemandSuccess(t, m.regs.Commit(registers.Internal, registers.PR1, 1))
	brp := m.encode(instructions.BranchIfPredicate, 0, [3]uint8{3, 1, 0}, 0)
	m.run(brp)
	test.ExpectSuccess(t, m.redirected)

	m.redirected = false
	brp = m.encode(instructions.BranchIfPredicate, 0, [3]uint8{3, 0, 0}, 0)
	m.run(brp)
	test.ExpectFailure(t, m.redirected)
}

func TestLongWordTarget(t *testing.T) {
	m := newMachine(t, 64)

	br := m.encode(instructions.Branch, instructions.F0, [3]uint8{}, 0x41)
	m.run(br)
	test.ExpectFailure(t, m.redirected)
	e, _, _ := br.ErrorPayload()
	test.ExpectEquality(t, e, instructions.InvalidArgs)

	br = m.encode(instructions.Branch, instructions.F0, [3]uint8{}, 0x40)
	m.run(br)
	test.ExpectSuccess(t, m.redirected)
	test.ExpectEquality(t, m.target, uint64(0x40))
}

func TestSubroutine(t *testing.T) {
	m := newMachine(t, 32)

	jsr := m.encode(instructions.JumpSubroutine, instructions.F0, [3]uint8{0, 0, 0x30}, 0)
	jsr.Address = 0x08
	m.run(jsr)
	test.ExpectEquality(t, m.target, uint64(0x30))
	top, err := m.regs.Call.Peek()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, top, uint64(0x09))

	m.redirected = false
	ret := m.encode(instructions.Return, 0, [3]uint8{}, 0)
	m.run(ret)
	test.ExpectSuccess(t, m.redirected)
	test.ExpectEquality(t, m.target, uint64(0x09))

	// returning with an empty call stack is fatal
	ret = m.encode(instructions.Return, 0, [3]uint8{}, 0)
	test.DemandSuccess(t, m.step(ret, instructions.Decode))
	m.stage = instructions.Execute
	ret.Enter()
	err = ret.Execute(m)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, registers.StackUnderflow))

	// long word instructions occupy two addresses
	l := newMachine(t, 64)
	jsr = l.encode(instructions.JumpSubroutine, instructions.F0, [3]uint8{}, 0x30)
	jsr.Address = 0x08
	l.run(jsr)
	top, _ = l.regs.Call.Peek()
	test.ExpectEquality(t, top, uint64(0x0a))
}

func TestLoadPC(t *testing.T) {
	m := newMachine(t, 32)
	idx, err := m.mem.Entry(memory.Instruction)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, m.mem.Module(idx).Poke(4, 0x12345678))
	m.regs.SetPC(4)

	ins := instructions.NewInternal(m.ids, instructions.LoadPC, 32)
	test.ExpectSuccess(t, m.step(ins, instructions.Fetch))
	test.ExpectEquality(t, ins.Address, uint64(4))

	w, ok := ins.Fetched()
	test.ExpectSuccess(t, ok)
	v, _ := w.Uint64()
	test.ExpectEquality(t, v, uint64(0x12345678))

	// long words are fetched as two short words, most significant first
	l := newMachine(t, 64)
	idx, _ = l.mem.Entry(memory.Instruction)
	test.DemandSuccess(t, l.mem.Module(idx).Poke(6, 0xaabbccdd))
	test.DemandSuccess(t, l.mem.Module(idx).Poke(7, 0x11223344))
	l.regs.SetPC(6)

	ins = instructions.NewInternal(l.ids, instructions.LoadPC, 64)
	test.ExpectSuccess(t, l.step(ins, instructions.Fetch))
	w, ok = ins.Fetched()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, w.Len(), 64)
	v, _ = w.Uint64()
	test.ExpectEquality(t, v, uint64(0xaabbccdd11223344))

	// LOAD_PC only executes in the fetch stage
	l.stage = instructions.Decode
	ins.Enter()
	test.ExpectFailure(t, ins.Execute(l))
}

func TestWrongStage(t *testing.T) {
	m := newMachine(t, 32)
	ins := m.encode(instructions.IntAdd, 0, [3]uint8{0, 1, 2}, 0)
	m.stage = instructions.Fetch
	err := ins.Execute(m)
	test.ExpectSuccess(t, curated.Is(err, instructions.WrongStage))
}
