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

package pipeline

import "fmt"

// Statistics collected by the pipeline.
type Statistics struct {
	// number of calls to Execute()
	Cycles int

	// instructions retired from writeback, not counting bubbles
	Retired int

	// STALL bubbles inserted because a stage could not advance
	Stalls int

	// pipeline flushes caused by a taken branch or an UNDO
	Quashed int

	// number of UNDO instructions retired
	Undos int
}

// CPI returns the cycles per retired instruction.
func (s Statistics) CPI() float64 {
	if s.Retired == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Retired)
}

func (s Statistics) String() string {
	return fmt.Sprintf("cycles: %d, retired: %d, stalls: %d, quashed: %d, undos: %d, cpi: %.2f",
		s.Cycles, s.Retired, s.Stalls, s.Quashed, s.Undos, s.CPI())
}
