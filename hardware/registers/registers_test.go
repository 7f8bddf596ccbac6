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

package registers_test

import (
	"testing"

	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/test"
)

func TestMasking(t *testing.T) {
	f, err := registers.NewFile("test", registers.Addressed, 4, 8)
	test.DemandSuccess(t, err)

	test.ExpectSuccess(t, f.Store(0, 0x1ff))
	v, err := f.Load(0)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, uint64(0xff))

	// per cell width
	test.ExpectSuccess(t, f.SetWidth(1, 3))
	test.ExpectSuccess(t, f.Store(1, 0xff))
	v, _ = f.Load(1)
	test.ExpectEquality(t, v, uint64(0x07))

	// narrowing an existing value masks it
	test.ExpectSuccess(t, f.Store(2, 0xab))
	test.ExpectSuccess(t, f.SetWidth(2, 4))
	v, _ = f.Load(2)
	test.ExpectEquality(t, v, uint64(0x0b))

	test.ExpectEquality(t, f.Term(2).String(), "1011")

	// full width cells
	g, err := registers.NewFile("wide", registers.Addressed, 1, 64)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, g.Store(0, 0xffffffffffffffff))
	v, _ = g.Load(0)
	test.ExpectEquality(t, v, uint64(0xffffffffffffffff))
}

func TestOutOfRange(t *testing.T) {
	f, err := registers.NewFile("test", registers.Addressed, 4, 8)
	test.DemandSuccess(t, err)

	err = f.Store(4, 0)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, registers.OutOfRange))

	_, err = f.Load(-1)
	test.ExpectSuccess(t, curated.Is(err, registers.OutOfRange))

	// addressed files cannot be used as stacks
	err = f.Push(1)
	test.ExpectSuccess(t, curated.Is(err, registers.WrongMode))

	_, err = registers.NewFile("test", registers.Addressed, 4, 65)
	test.ExpectFailure(t, err)
}

func TestStack(t *testing.T) {
	f, err := registers.NewFile("call", registers.Stack, 3, 16)
	test.DemandSuccess(t, err)

	_, err = f.Pop()
	test.ExpectSuccess(t, curated.Is(err, registers.StackUnderflow))

	test.ExpectSuccess(t, f.Push(1))
	test.ExpectSuccess(t, f.Push(2))
	test.ExpectSuccess(t, f.Push(0x12345))
	test.ExpectEquality(t, f.Depth(), 3)

	err = f.Push(4)
	test.ExpectSuccess(t, curated.Is(err, registers.StackOverflow))
	test.ExpectEquality(t, f.Depth(), 3)

	v, err := f.Peek()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, uint64(0x2345))

	v, _ = f.Pop()
	test.ExpectEquality(t, v, uint64(0x2345))
	v, _ = f.Pop()
	test.ExpectEquality(t, v, uint64(2))
	v, _ = f.Pop()
	test.ExpectEquality(t, v, uint64(1))

	_, err = f.Pop()
	test.ExpectSuccess(t, curated.Is(err, registers.StackUnderflow))

	// stacks cannot be addressed
	err = f.Store(0, 1)
	test.ExpectSuccess(t, curated.Is(err, registers.WrongMode))
}

func TestCircular(t *testing.T) {
	f, err := registers.NewFile("ring", registers.Circular, 3, 8)
	test.DemandSuccess(t, err)

	for i := uint64(1); i <= 5; i++ {
		test.ExpectSuccess(t, f.Push(i))
	}
	test.ExpectEquality(t, f.Depth(), 3)

	// the oldest two entries were overwritten
	v, _ := f.Pop()
	test.ExpectEquality(t, v, uint64(5))
	v, _ = f.Pop()
	test.ExpectEquality(t, v, uint64(4))
	v, _ = f.Pop()
	test.ExpectEquality(t, v, uint64(3))

	_, err = f.Pop()
	test.ExpectSuccess(t, curated.Is(err, registers.StackUnderflow))
}

func newSet(t *testing.T, reversalDepth int) *registers.Set {
	t.Helper()
	s, err := registers.NewSet(16, 32, 4, reversalDepth, 16)
	test.DemandSuccess(t, err)
	return s
}

func TestInternalWidths(t *testing.T) {
	s := newSet(t, 8)
	test.ExpectSuccess(t, s.Commit(registers.Internal, registers.CC, 0xff))
	v, _ := s.Read(registers.Internal, registers.CC)
	test.ExpectEquality(t, v, uint64(0b111))

	test.ExpectSuccess(t, s.Commit(registers.Internal, registers.PR1, 2))
	v, _ = s.Read(registers.Internal, registers.PR1)
	test.ExpectEquality(t, v, uint64(0))

	s.SetPC(0x12345)
	test.ExpectEquality(t, s.PC(), uint64(0x2345))

	err := s.Commit(registers.Call, 0, 1)
	test.ExpectSuccess(t, curated.Is(err, registers.NotCommitable))
}

func TestUndoRoundTrip(t *testing.T) {
	s := newSet(t, 8)

	for i := 0; i < 4; i++ {
		test.DemandSuccess(t, s.Commit(registers.General, i, uint64(i+100)))
	}
	before := s.General.Cells()

	// a sequence of writes, including repeated writes to the same cell
	test.DemandSuccess(t, s.Commit(registers.General, 0, 1))
	test.DemandSuccess(t, s.Commit(registers.General, 1, 2))
	test.DemandSuccess(t, s.Commit(registers.General, 0, 3))
	test.DemandSuccess(t, s.Commit(registers.Internal, registers.CC, registers.CCZero))
	test.ExpectEquality(t, s.History(), 8)

	test.ExpectSuccess(t, s.Undo(4, 0))
	after := s.General.Cells()
	for i := range before {
		test.ExpectEquality(t, after[i], before[i], i)
	}
	v, _ := s.Read(registers.Internal, registers.CC)
	test.ExpectEquality(t, v, uint64(0))
	test.ExpectEquality(t, s.History(), 4)
}

func TestUndoSkip(t *testing.T) {
	s := newSet(t, 8)

	test.DemandSuccess(t, s.Commit(registers.General, 0, 10))
	test.DemandSuccess(t, s.Commit(registers.General, 1, 20))
	test.DemandSuccess(t, s.Commit(registers.General, 2, 30))

	// undo the write to G1 but leave the more recent write to G2
	test.ExpectSuccess(t, s.Undo(1, 1))

	v, _ := s.Read(registers.General, 0)
	test.ExpectEquality(t, v, uint64(10))
	v, _ = s.Read(registers.General, 1)
	test.ExpectEquality(t, v, uint64(0))
	v, _ = s.Read(registers.General, 2)
	test.ExpectEquality(t, v, uint64(30))

	// the skipped snapshot is still available
	test.ExpectEquality(t, s.History(), 2)
	test.ExpectSuccess(t, s.Undo(1, 0))
	v, _ = s.Read(registers.General, 2)
	test.ExpectEquality(t, v, uint64(0))
}

func TestUndoUnderflow(t *testing.T) {
	s := newSet(t, 2)

	test.DemandSuccess(t, s.Commit(registers.General, 0, 1))
	test.DemandSuccess(t, s.Commit(registers.General, 0, 2))
	test.DemandSuccess(t, s.Commit(registers.General, 0, 3))

	// only the two most recent snapshots survive
	test.ExpectEquality(t, s.History(), 2)

	err := s.Undo(3, 0)
	test.ExpectSuccess(t, curated.Is(err, registers.StackUnderflow))
	v, _ := s.Read(registers.General, 0)
	test.ExpectEquality(t, v, uint64(3))

	test.ExpectSuccess(t, s.Undo(2, 0))
	v, _ = s.Read(registers.General, 0)
	test.ExpectEquality(t, v, uint64(1))
}

func TestPending(t *testing.T) {
	p := registers.NewPending()

	p.Reserve(registers.General, 3, 10)
	p.Reserve(registers.Internal, registers.CC, 10)
	p.Reserve(registers.General, 4, 11)

	id, ok := p.Pending(registers.General, 3)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, id, uint64(10))

	// release by a different instruction has no effect
	p.Release(registers.General, 3, 11)
	_, ok = p.Pending(registers.General, 3)
	test.ExpectSuccess(t, ok)

	p.ReleaseAll(10)
	_, ok = p.Pending(registers.General, 3)
	test.ExpectFailure(t, ok)
	_, ok = p.Pending(registers.Internal, registers.CC)
	test.ExpectFailure(t, ok)
	test.ExpectEquality(t, p.Len(), 1)
}

func TestBankFromString(t *testing.T) {
	b, ok := registers.BankFromString("GEN")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, b, registers.General)

	b, ok = registers.BankFromString("r")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, b, registers.Reversal)

	_, ok = registers.BankFromString("x")
	test.ExpectFailure(t, ok)
}
