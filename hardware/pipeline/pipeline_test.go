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

package pipeline_test

import (
	"strings"
	"testing"

	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware/instructions"
	"github.com/pipesim/pipesim/hardware/memory"
	"github.com/pipesim/pipesim/hardware/pipeline"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/hardware/term"
	"github.com/pipesim/pipesim/logger"
	"github.com/pipesim/pipesim/test"
)

type ids struct {
	instruction uint64
	request     uint64
}

func (i *ids) NextInstructionID() uint64 {
	i.instruction++
	return i.instruction
}

func (i *ids) NextRequestID() uint64 {
	i.request++
	return i.request
}

type harness struct {
	t *testing.T

	ids  *ids
	size int
	regs *registers.Set
	mem  *memory.Hierarchy
	rami int
	ramd int
	p    *pipeline.Pipeline

	// next free address in instruction memory
	origin uint64
}

func newHarness(t *testing.T, size int, dataDelay int) *harness {
	t.Helper()

	h := &harness{t: t, ids: &ids{}, size: size}

	var err error
	h.regs, err = registers.NewSet(8, size, 4, 8, 10)
	test.DemandSuccess(t, err)

	h.mem = memory.NewHierarchy(10, h.ids)
	h.rami, err = h.mem.Add(memory.Config{
		Name: "RAMI", Kind: memory.RAM, Type: memory.Instruction, WordLength: 32,
		LineSize: 4,
	})
	test.DemandSuccess(t, err)
	h.ramd, err = h.mem.Add(memory.Config{
		Name: "RAMD", Kind: memory.RAM, Type: memory.Data, WordLength: size,
		LineSize: 1, AccessDelay: dataDelay,
	})
	test.DemandSuccess(t, err)

	h.p, err = pipeline.NewPipeline(h.ids, size, h.regs, h.mem)
	test.DemandSuccess(t, err)

	return h
}

// add an instruction to instruction memory. long words are split into two
// short words, most significant first.
func (h *harness) add(header instructions.Header, flags instructions.Flags, args [3]uint8, imm uint32) {
	h.t.Helper()
	w := instructions.Encode(h.size, header, flags, args, imm)
	h.word(w)
}

func (h *harness) word(w term.Term) {
	h.t.Helper()
	v, err := w.Uint64()
	test.DemandSuccess(h.t, err)
	m := h.mem.Module(h.rami)
	if w.Len() == instructions.LongWord {
		test.DemandSuccess(h.t, m.Poke(h.origin, v>>32))
		test.DemandSuccess(h.t, m.Poke(h.origin+1, v&0xffffffff))
		h.origin += 2
		return
	}
	test.DemandSuccess(h.t, m.Poke(h.origin, v))
	h.origin++
}

func (h *harness) cycle() pipeline.Result {
	h.t.Helper()
	test.DemandSuccess(h.t, h.p.PreExecute())
	test.DemandSuccess(h.t, h.mem.Tick())
	res, err := h.p.Execute()
	test.DemandSuccess(h.t, err)
	return res
}

// run until halt or until an error instruction retires. returns the
// retired instructions and the result of the last cycle.
func (h *harness) run() ([]*instructions.Instruction, pipeline.Result) {
	h.t.Helper()

	var retired []*instructions.Instruction
	for i := 0; i < 200; i++ {
		res := h.cycle()
		if res.Retired != nil {
			retired = append(retired, res.Retired)
			if res.AboutToHalt || res.Retired.Header == instructions.ExecutionErr {
				return retired, res
			}
		}
	}
	h.t.Fatalf("program did not halt")
	return nil, pipeline.Result{}
}

func (h *harness) get(bank registers.Bank, index int) uint64 {
	h.t.Helper()
	v, err := h.regs.Read(bank, index)
	test.DemandSuccess(h.t, err)
	return v
}

func headers(retired []*instructions.Instruction) string {
	s := make([]string, len(retired))
	for i, ins := range retired {
		s[i] = ins.Header.Mnemonic()
	}
	return strings.Join(s, " ")
}

func TestInitialStages(t *testing.T) {
	h := newHarness(t, 32, 0)
	test.ExpectEquality(t, h.p.Stage(instructions.Fetch).Header, instructions.LoadPC)
	for s := instructions.Decode; s <= instructions.Writeback; s++ {
		test.ExpectEquality(t, h.p.Stage(s).Header, instructions.Noop)
	}
	test.ExpectEquality(t, h.p.String(), ".LOAD_PC | .NOOP | .NOOP | .NOOP | .NOOP")

	_, err := pipeline.NewPipeline(h.ids, 16, h.regs, h.mem)
	test.ExpectSuccess(t, curated.Is(err, pipeline.WordSize))
}

func TestAdd(t *testing.T) {
	h := newHarness(t, 32, 0)
	test.DemandSuccess(t, h.regs.General.Store(0, 5))
	test.DemandSuccess(t, h.regs.General.Store(1, 7))

	h.add(instructions.IntAdd, 0, [3]uint8{2, 0, 1}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	retired, res := h.run()
	test.ExpectEquality(t, headers(retired), "ADD HALT")
	test.ExpectSuccess(t, res.AboutToHalt)
	test.ExpectEquality(t, res.Cycle, 6)
	test.ExpectEquality(t, retired[0].Address, uint64(0))
	test.ExpectEquality(t, retired[1].Address, uint64(1))

	test.ExpectEquality(t, h.get(registers.General, 2), uint64(12))
	test.ExpectEquality(t, h.get(registers.Internal, registers.CC), uint64(0))

	// exactly one register write
	test.ExpectEquality(t, h.regs.History(), 1)
	test.ExpectEquality(t, h.p.Pending().Len(), 0)

	// no more cycles once halted
	test.ExpectSuccess(t, h.p.Halted())
	test.ExpectSuccess(t, curated.Is(h.p.PreExecute(), pipeline.Halted))
	_, err := h.p.Execute()
	test.ExpectSuccess(t, curated.Is(err, pipeline.Halted))

	stats := h.p.Stats()
	test.ExpectEquality(t, stats.Cycles, 6)
	test.ExpectEquality(t, stats.Retired, 2)
}

func TestBlocking(t *testing.T) {
	const delay = 3

	h := newHarness(t, 32, delay)
	test.DemandSuccess(t, h.mem.Module(h.ramd).Poke(0x10, 41))

	h.add(instructions.Load, instructions.F0, [3]uint8{1, 0, 0x10}, 0)
	h.add(instructions.IntAdd, instructions.F0, [3]uint8{2, 1, 1}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	var load *instructions.Instruction
	var retired []*instructions.Instruction
	held := 0

	for i := 0; i < 100 && !h.p.Halted(); i++ {
		res := h.cycle()
		if res.Retired != nil {
			retired = append(retired, res.Retired)
		}

		// a stage holding an unfinished instruction never advances. the
		// instruction after the load waits in decode for the loaded value
		access := h.p.Stage(instructions.Access)
		if access.Header == instructions.Load {
			if load == nil {
				load = access
			}
			test.ExpectEquality(t, access.ID, load.ID)
			held++
			if held == 2 {
				test.ExpectEquality(t, load.State(), instructions.AwaitingMemory)
			}
			test.ExpectEquality(t, h.p.Stage(instructions.Decode).Header, instructions.IntAdd)
		}
	}

	// the load enters access and then waits for the access delay plus the
	// cycle in which the request is issued
	test.ExpectEquality(t, held, delay+1)

	test.ExpectEquality(t, headers(retired), "LOAD ADD HALT")
	test.ExpectEquality(t, h.get(registers.General, 1), uint64(41))
	test.ExpectEquality(t, h.get(registers.General, 2), uint64(42))
	test.ExpectSuccess(t, h.p.Stats().Stalls > 0)
}

func TestBranchQuash(t *testing.T) {
	h := newHarness(t, 32, 0)

	h.add(instructions.Branch, instructions.F0, [3]uint8{0, 0, 4}, 0)
	h.add(instructions.Move, instructions.F0, [3]uint8{1, 0, 1}, 0)
	h.add(instructions.Move, instructions.F0, [3]uint8{2, 0, 2}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)
	h.add(instructions.Move, instructions.F0, [3]uint8{3, 0, 3}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	retired, _ := h.run()
	test.ExpectEquality(t, headers(retired), "BR MOVE HALT")
	test.ExpectEquality(t, retired[1].Address, uint64(4))
	test.ExpectEquality(t, retired[2].Address, uint64(5))

	test.ExpectEquality(t, h.get(registers.General, 1), uint64(0))
	test.ExpectEquality(t, h.get(registers.General, 2), uint64(0))
	test.ExpectEquality(t, h.get(registers.General, 3), uint64(3))
	test.ExpectEquality(t, h.p.Stats().Quashed, 1)
}

func TestConditionalBranch(t *testing.T) {
	h := newHarness(t, 32, 0)
	test.DemandSuccess(t, h.regs.General.Store(0, 3))

	// count G0 down to zero, adding two to G1 each time
	h.add(instructions.IntAdd, instructions.F0, [3]uint8{1, 1, 2}, 0)
	h.add(instructions.IntSub, instructions.F0, [3]uint8{0, 0, 1}, 0)
	h.add(instructions.Compare, instructions.F0, [3]uint8{0, 0, 0}, 0)
	h.add(instructions.BranchIfZero, instructions.F0, [3]uint8{0, 0, 5}, 0)
	h.add(instructions.Branch, instructions.F0, [3]uint8{0, 0, 0}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	_, res := h.run()
	test.ExpectSuccess(t, res.AboutToHalt)
	test.ExpectEquality(t, h.get(registers.General, 0), uint64(0))
	test.ExpectEquality(t, h.get(registers.General, 1), uint64(6))
	test.ExpectEquality(t, h.get(registers.Internal, registers.CC), uint64(registers.CCZero))
}

func TestSubroutine(t *testing.T) {
	h := newHarness(t, 32, 0)

	h.add(instructions.JumpSubroutine, instructions.F0, [3]uint8{0, 0, 3}, 0)
	h.add(instructions.Move, instructions.F0, [3]uint8{2, 0, 9}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)
	h.add(instructions.Move, instructions.F0, [3]uint8{1, 0, 7}, 0)
	h.add(instructions.Return, 0, [3]uint8{}, 0)

	retired, _ := h.run()
	test.ExpectEquality(t, headers(retired), "JSR MOVE RET MOVE HALT")
	test.ExpectEquality(t, h.get(registers.General, 1), uint64(7))
	test.ExpectEquality(t, h.get(registers.General, 2), uint64(9))
	test.ExpectEquality(t, h.regs.Call.Depth(), 0)
}

func TestFetchedInternal(t *testing.T) {
	h := newHarness(t, 32, 0)

	h.add(instructions.Noop, 0, [3]uint8{}, 0)
	h.add(instructions.LoadPC, 0, [3]uint8{}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	retired, res := h.run()
	test.ExpectFailure(t, res.AboutToHalt)
	test.ExpectEquality(t, headers(retired), ".ERR")

	e, bits, ok := res.Retired.ErrorPayload()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, e, instructions.NotImplemented)
	test.ExpectEquality(t, bits, instructions.LoadPC.Bits())
	test.ExpectEquality(t, res.Retired.ErrorDetail(), "not implemented (.LOAD_PC)")
}

func TestErrorRetirement(t *testing.T) {
	logger.Clear()
	h := newHarness(t, 32, 0)

	h.add(instructions.Move, instructions.F0, [3]uint8{1, 0, 1}, 0)
	h.word(term.FromUint(uint64(0b110000)<<26, 32))
	h.add(instructions.Move, instructions.F0, [3]uint8{2, 0, 2}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	retired, res := h.run()
	test.ExpectFailure(t, res.AboutToHalt)
	test.ExpectEquality(t, headers(retired), "MOVE .ERR")

	ins := res.Retired
	test.ExpectEquality(t, ins.Address, uint64(1))
	e, bits, ok := ins.ErrorPayload()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, e, instructions.NotImplemented)
	test.ExpectEquality(t, bits, uint8(0b110000))

	// the payload is in the log
	entries := logger.Entries()
	test.DemandSuccess(t, len(entries) > 0)
	last := entries[len(entries)-1]
	test.ExpectEquality(t, last.Tag, "writeback")
	test.ExpectSuccess(t, strings.Contains(last.Detail, "not implemented"))

	test.ExpectEquality(t, h.get(registers.General, 1), uint64(1))
}

func TestDivideByZeroRetirement(t *testing.T) {
	h := newHarness(t, 32, 0)
	test.DemandSuccess(t, h.regs.General.Store(0, 10))

	h.add(instructions.IntDiv, 0, [3]uint8{2, 0, 1}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	_, res := h.run()
	e, _, ok := res.Retired.ErrorPayload()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, e, instructions.DivideByZero)
	test.ExpectEquality(t, h.p.Pending().Len(), 0)
}

func TestUndo(t *testing.T) {
	h := newHarness(t, 32, 0)

	h.add(instructions.Move, instructions.F0, [3]uint8{1, 0, 1}, 0)
	h.add(instructions.Move, instructions.F0, [3]uint8{1, 0, 2}, 0)
	h.add(instructions.Move, instructions.F0, [3]uint8{2, 0, 5}, 0)
	h.add(instructions.Undo, 0, [3]uint8{2, 1, 0}, 0)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	retired, res := h.run()
	test.ExpectSuccess(t, res.AboutToHalt)
	test.ExpectEquality(t, headers(retired), "MOVE MOVE MOVE UNDO HALT")

	// the two writes to G1 are undone. the skipped write to G2 remains
	test.ExpectEquality(t, h.get(registers.General, 1), uint64(0))
	test.ExpectEquality(t, h.get(registers.General, 2), uint64(5))
	test.ExpectEquality(t, h.regs.History(), 1)

	// execution continued from the instruction after the UNDO
	test.ExpectEquality(t, retired[4].Address, uint64(4))
	test.ExpectEquality(t, h.p.Stats().Undos, 1)
}

func TestUndoUnderflow(t *testing.T) {
	h := newHarness(t, 32, 0)

	h.add(instructions.Move, instructions.F0, [3]uint8{1, 0, 1}, 0)
	h.add(instructions.Undo, 0, [3]uint8{2, 0, 0}, 0)

	var err error
	for i := 0; i < 20 && err == nil; i++ {
		test.DemandSuccess(t, h.p.PreExecute())
		test.DemandSuccess(t, h.mem.Tick())
		_, err = h.p.Execute()
	}
	test.ExpectSuccess(t, curated.Is(err, registers.StackUnderflow))
	test.ExpectEquality(t, h.get(registers.General, 1), uint64(1))
}

func TestLongWords(t *testing.T) {
	h := newHarness(t, 64, 0)

	h.add(instructions.Move, instructions.F0, [3]uint8{1, 0, 0}, 0xffffffff)
	h.add(instructions.IntAdd, instructions.F0, [3]uint8{2, 1, 0}, 0x10)
	h.add(instructions.Halt, 0, [3]uint8{}, 0)

	retired, res := h.run()
	test.ExpectSuccess(t, res.AboutToHalt)
	test.ExpectEquality(t, headers(retired), "MOVE ADD HALT")

	// a long word occupies two short words of instruction memory
	test.ExpectEquality(t, retired[0].Address, uint64(0))
	test.ExpectEquality(t, retired[1].Address, uint64(2))
	test.ExpectEquality(t, retired[2].Address, uint64(4))

	test.ExpectEquality(t, h.get(registers.General, 1), uint64(0xffffffffffffffff))
	test.ExpectEquality(t, h.get(registers.General, 2), uint64(0x0f))
}

func TestLongWordFetchLines(t *testing.T) {
	regs, err := registers.NewSet(8, 64, 4, 8, 10)
	test.DemandSuccess(t, err)

	mem := memory.NewHierarchy(10, nil)
	_, err = mem.Add(memory.Config{
		Name: "RAMI", Kind: memory.RAM, Type: memory.Instruction, WordLength: 32,
		LineSize: 1,
	})
	test.DemandSuccess(t, err)
	_, err = mem.Add(memory.Config{
		Name: "RAMD", Kind: memory.RAM, Type: memory.Data, WordLength: 64,
		LineSize: 1,
	})
	test.DemandSuccess(t, err)

	// single word lines are fine for short instructions
	_, err = pipeline.NewPipeline(&ids{}, 32, regs, mem)
	test.ExpectSuccess(t, err)

	// but not for long instructions
	_, err = pipeline.NewPipeline(&ids{}, 64, regs, mem)
	test.ExpectSuccess(t, curated.Is(err, pipeline.FetchLineSize))
}

func TestFetchWiring(t *testing.T) {
	h := newHarness(t, 32, 0)
	h.p.Stage(instructions.Fetch).Header = instructions.Noop

	err := h.p.PreExecute()
	test.ExpectSuccess(t, curated.Is(err, pipeline.FetchWiring))
	_, err = h.p.Execute()
	test.ExpectSuccess(t, curated.Is(err, pipeline.FetchWiring))
}

func TestFlush(t *testing.T) {
	h := newHarness(t, 32, 0)
	h.add(instructions.Move, instructions.F0, [3]uint8{1, 0, 1}, 0)
	h.cycle()
	h.cycle()
	test.ExpectEquality(t, h.p.Pending().Len(), 1)

	h.p.Flush()
	test.ExpectEquality(t, h.p.Pending().Len(), 0)
	test.ExpectEquality(t, h.p.String(), ".LOAD_PC | .NOOP | .NOOP | .NOOP | .NOOP")

	dump := h.p.Dump(16)
	test.ExpectEquality(t, len(strings.Split(dump, "\n")), instructions.NumStages)
	test.ExpectSuccess(t, strings.HasPrefix(dump, "fetch"))
}
