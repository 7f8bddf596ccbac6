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

package govern

// State indicates the machine's state.
type State int

// List of possible machine states.
//
// Initialising is the state before a program has been loaded. Stepping is
// the state after a single step outside of a run. Halted, Errored and Ending
// are terminal: the machine must be reset or given a new program before it
// will run again.
const (
	Initialising State = iota
	Paused
	Stepping
	Running
	Halted
	Errored
	Ending
)

func (s State) String() string {
	switch s {
	case Initialising:
		return "Initialising"
	case Paused:
		return "Paused"
	case Stepping:
		return "Stepping"
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case Errored:
		return "Errored"
	case Ending:
		return "Ending"
	}

	return ""
}

// Terminal returns true if the state is one from which the machine cannot
// continue without being reset.
func (s State) Terminal() bool {
	return s == Halted || s == Errored || s == Ending
}
