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

package terminal

// Sentinal error patterns.
const (
	UserInterrupt = "user interrupt"
	UserAbort     = "user abort"
)

// Style is used to indicate the type of output being printed.
type Style int

// List of valid Style values.
const (
	// output of the command that the user entered, if the terminal does not
	// echo input itself
	StyleEcho Style = iota

	// the result of a command
	StyleFeedback

	// help text
	StyleHelp

	// the state of the machine after a step
	StyleMachine

	// log entries
	StyleLog

	// errors. printed even if the terminal has been silenced
	StyleError
)

// Input defines the operations required by an interface that allows input.
type Input interface {
	// TermRead returns one line of input, without the line terminator. The
	// prompt is printed before reading if the terminal is interactive.
	TermRead(prompt string) (string, error)

	// IsInteractive should return true for implementations that require user
	// interaction. Instances that don't expect user intervention should return
	// false.
	IsInteractive() bool
}

// Output defines the operations required by an interface that allows output.
type Output interface {
	TermPrintLine(Style, string)
}

// Terminal defines the operations required by the console's command line
// interface.
type Terminal interface {
	Input
	Output

	// Initialise the terminal. not all terminal implementations will need to
	// do anything.
	Initialise() error

	// Restore the terminal to it's original state, if possible. for example,
	// we could use this to make sure the terminal is returned to canonical
	// mode. not all terminal implementations will need to do anything.
	CleanUp()

	// Silence all input and output except error messages. In other words,
	// TermPrintLine() should display error messages even if silenced is true.
	Silence(silenced bool)
}
