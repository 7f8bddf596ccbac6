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

package registers

import (
	"fmt"
	"strings"

	"github.com/pipesim/pipesim/curated"
)

// Bank identifies one of the register files in a Set.
type Bank int

// List of valid Bank values.
const (
	General Bank = iota
	Internal
	Call
	Reversal
)

// NumBanks is the number of banks in a Set.
const NumBanks = 4

func (b Bank) String() string {
	switch b {
	case General:
		return "general"
	case Internal:
		return "internal"
	case Call:
		return "call"
	case Reversal:
		return "reversal"
	}
	return "unknown bank"
}

// BankFromString returns the Bank for the name. Any prefix of the name is
// accepted. Case insensitive.
func BankFromString(s string) (Bank, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return General, false
	}
	for b := General; b <= Reversal; b++ {
		if strings.HasPrefix(b.String(), s) {
			return b, true
		}
	}
	return General, false
}

// Layout of the internal bank.
const (
	PC = iota
	CC
	PR0
	PR1
	numInternal
)

// Bits in the condition code register. Only COMPARE writes to CC.
const (
	CCPositive = 0b001
	CCZero     = 0b010
	CCNegative = 0b100
)

// InternalName returns the name of the internal register at index.
func InternalName(index int) string {
	switch index {
	case PC:
		return "PC"
	case CC:
		return "CC"
	case PR0:
		return "PR0"
	case PR1:
		return "PR1"
	}
	return fmt.Sprintf("I%d", index)
}

// Sentinal error patterns for the Set type.
const (
	NotCommitable = "registers: %s bank cannot be written by an instruction"
)

// Set groups the four register banks of the machine. Writes made through
// Commit() are recorded on the reversal bank and can be undone with Undo().
type Set struct {
	General  *File
	Internal *File
	Call     *File
	Reversal *File
}

// NewSet is the preferred method of initialisation for the Set type.
//
// The reversal bank is a circular file with two cells per snapshot, so the
// oldest snapshot is always overwritten as a whole.
func NewSet(generalCount int, wordSize int, callDepth int, reversalDepth int, addressBits int) (*Set, error) {
	var err error
	s := &Set{}

	s.General, err = NewFile("general", Addressed, generalCount, wordSize)
	if err != nil {
		return nil, err
	}

	s.Internal, err = NewFile("internal", Addressed, numInternal, addressBits)
	if err != nil {
		return nil, err
	}
	_ = s.Internal.SetWidth(CC, 3)
	_ = s.Internal.SetWidth(PR0, 1)
	_ = s.Internal.SetWidth(PR1, 1)
	s.Internal.SetNames(InternalName(PC), InternalName(CC), InternalName(PR0), InternalName(PR1))

	s.Call, err = NewFile("call", Stack, callDepth, addressBits)
	if err != nil {
		return nil, err
	}

	s.Reversal, err = NewFile("reversal", Circular, reversalDepth*2, 64)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// File returns the register file for the bank.
func (s *Set) File(bank Bank) *File {
	switch bank {
	case General:
		return s.General
	case Internal:
		return s.Internal
	case Call:
		return s.Call
	case Reversal:
		return s.Reversal
	}
	return nil
}

// Read the value of a cell in the general or internal bank.
func (s *Set) Read(bank Bank, index int) (uint64, error) {
	f := s.File(bank)
	if f == nil {
		return 0, curated.Errorf("registers: no such bank (%d)", bank)
	}
	return f.Load(index)
}

// PC returns the current value of the program counter.
func (s *Set) PC() uint64 {
	v, _ := s.Internal.Load(PC)
	return v
}

// SetPC writes the program counter directly. Changes to the program counter
// are not recorded on the reversal bank.
func (s *Set) SetPC(value uint64) {
	_ = s.Internal.Store(PC, value)
}

// Commit a value to a cell in the general or internal bank. The previous
// value of the cell is recorded on the reversal bank before the store.
func (s *Set) Commit(bank Bank, index int, value uint64) error {
	if bank != General && bank != Internal {
		return curated.Errorf(NotCommitable, bank)
	}

	f := s.File(bank)
	old, err := f.Load(index)
	if err != nil {
		return err
	}

	if err := s.Reversal.Push(old); err != nil {
		return err
	}
	if err := s.Reversal.Push(location(bank, index)); err != nil {
		return err
	}

	return f.Store(index, value)
}

func location(bank Bank, index int) uint64 {
	return uint64(bank)<<16 | uint64(index&0xffff)
}

func fromLocation(loc uint64) (Bank, int) {
	return Bank(loc >> 16), int(loc & 0xffff)
}

// History returns the number of snapshots held by the reversal bank.
func (s *Set) History() int {
	return s.Reversal.Depth() / 2
}

type snapshot struct {
	loc   uint64
	value uint64
}

func (s *Set) popSnapshot() (snapshot, error) {
	loc, err := s.Reversal.Pop()
	if err != nil {
		return snapshot{}, err
	}
	v, err := s.Reversal.Pop()
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{loc: loc, value: v}, nil
}

// Undo restores the previous values of the k most recent register writes,
// most recent first. The skip most recent writes are left in place: they are
// set aside before the undo and returned to the reversal bank afterwards.
//
// Asking for more snapshots than the reversal bank holds is a
// StackUnderflow error and nothing is changed.
func (s *Set) Undo(k int, skip int) error {
	if k < 0 || skip < 0 {
		return curated.Errorf("registers: negative undo quantity")
	}
	if k+skip > s.History() {
		return curated.Errorf(StackUnderflow, s.Reversal.Label())
	}

	aside := make([]snapshot, 0, skip)
	for i := 0; i < skip; i++ {
		sn, err := s.popSnapshot()
		if err != nil {
			return err
		}
		aside = append(aside, sn)
	}

	for i := 0; i < k; i++ {
		sn, err := s.popSnapshot()
		if err != nil {
			return err
		}
		bank, index := fromLocation(sn.loc)
		f := s.File(bank)
		if f == nil {
			return curated.Errorf("registers: corrupt reversal snapshot (%#x)", sn.loc)
		}
		if err := f.Store(index, sn.value); err != nil {
			return err
		}
	}

	for i := len(aside) - 1; i >= 0; i-- {
		if err := s.Reversal.Push(aside[i].value); err != nil {
			return err
		}
		if err := s.Reversal.Push(aside[i].loc); err != nil {
			return err
		}
	}

	return nil
}

// Reset all banks to zero.
func (s *Set) Reset() {
	s.General.Reset()
	s.Internal.Reset()
	s.Call.Reset()
	s.Reversal.Reset()
}
