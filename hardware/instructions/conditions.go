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

import "github.com/pipesim/pipesim/hardware/registers"

// index into the condition check arrays.
const (
	checkCC = iota
	checkPR0
	checkPR1
)

// ConditionChecks returns the positive and negative bit masks that decide
// whether a control instruction transfers control. The masks are tested
// against the CC, PR0 and PR1 registers in that order. Control transfers if,
// for every register R:
//
//	R & pos == pos && R & neg == 0
//
// Non-control instructions and unconditional control instructions return
// masks that are always satisfied.
func (ins *Instruction) ConditionChecks() (pos [3]uint64, neg [3]uint64) {
	switch ins.Header {
	case BranchIfZero:
		pos[checkCC] = registers.CCZero
	case BranchIfNegative:
		pos[checkCC] = registers.CCNegative
	case BranchIfPredicate:
		if ins.fields.Args[1] == 0 {
			pos[checkPR0] = 1
		} else {
			pos[checkPR1] = 1
		}
	}
	return pos, neg
}

// ConditionMet tests the condition checks of the instruction against the
// values of CC, PR0 and PR1.
func (ins *Instruction) ConditionMet(cc uint64, pr0 uint64, pr1 uint64) bool {
	pos, neg := ins.ConditionChecks()
	for i, r := range [3]uint64{cc, pr0, pr1} {
		if r&pos[i] != pos[i] || r&neg[i] != 0 {
			return false
		}
	}
	return true
}

// condition register read during decode for conditional branches. returns
// false if the instruction has no condition register.
func conditionRegister(h Header, predicate uint8) (int, bool) {
	switch h {
	case BranchIfZero, BranchIfNegative:
		return registers.CC, true
	case BranchIfPredicate:
		return registers.PR0 + int(predicate), true
	}
	return 0, false
}
