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

//go:build !windows

package colorterm

import (
	"io"
	"unicode"

	"github.com/pipesim/pipesim/console/terminal"
	"github.com/pipesim/pipesim/console/terminal/colorterm/easyterm"
	"github.com/pipesim/pipesim/curated"
)

// TermRead implements the terminal.Input interface.
func (ct *ColorTerminal) TermRead(prompt string) (string, error) {
	if ct.silenced {
		return "", nil
	}

	ct.RawMode()
	defer ct.CanonicalMode()

	var input []rune
	cursor := 0
	history := len(ct.commandHistory)

	// the latest input is kept when we scroll through the history so that
	// we can resume where we left off
	var buffInput []rune

	// the method for cursor placement is as follows:
	//	1. store current cursor position
	//	2. clear the current line
	//	3. output the prompt and the input buffer
	//	4. restore the cursor position
	//
	// for this to work we need to place the cursor in it's initial position
	ct.Print("\r%s", cursorMove(len(prompt)))

	for {
		ct.TermPrint(cursorStore)
		ct.Print("%s\r%s%s%s%s", clearLine, penStyles["bold"], prompt, normalPen, string(input))
		ct.TermPrint(cursorRestore)

		r, _, err := ct.reader.ReadRune()
		if err != nil {
			return "", err
		}

		switch r {
		case easyterm.KeyInterrupt:
			ct.TermPrint("\r\n")
			return "", curated.Errorf(terminal.UserInterrupt)

		case easyterm.KeyEndOfFile:
			if len(input) == 0 {
				ct.TermPrint("\r\n")
				return "", io.EOF
			}

		case easyterm.KeySuspend:
			ct.CanonicalMode()
			easyterm.SuspendProcess()
			ct.RawMode()

		case easyterm.KeyCarriageReturn:
			s := string(input)

			// add to history if the input is not the same as the last entry
			if len(s) > 0 {
				if len(ct.commandHistory) == 0 || ct.commandHistory[len(ct.commandHistory)-1] != s {
					ct.commandHistory = append(ct.commandHistory, s)
				}
			}

			ct.TermPrint("\r\n")
			return s, nil

		case easyterm.KeyEsc:
			r, _, err := ct.reader.ReadRune()
			if err != nil {
				return "", err
			}
			if r != easyterm.EscCursor {
				break
			}

			r, _, err = ct.reader.ReadRune()
			if err != nil {
				return "", err
			}

			switch r {
			case easyterm.CursorUp:
				if history > 0 {
					if history == len(ct.commandHistory) {
						buffInput = append(buffInput[:0], input...)
					}
					history--
					input = []rune(ct.commandHistory[history])
					ct.TermPrint(cursorMove(len(input) - cursor))
					cursor = len(input)
				}
			case easyterm.CursorDown:
				if history < len(ct.commandHistory) {
					history++
					if history == len(ct.commandHistory) {
						input = append([]rune{}, buffInput...)
					} else {
						input = []rune(ct.commandHistory[history])
					}
					ct.TermPrint(cursorMove(len(input) - cursor))
					cursor = len(input)
				}
			case easyterm.CursorForward:
				if cursor < len(input) {
					ct.TermPrint(cursorForwardOne)
					cursor++
				}
			case easyterm.CursorBackward:
				if cursor > 0 {
					ct.TermPrint(cursorBackwardOne)
					cursor--
				}
			case easyterm.EscHome:
				ct.TermPrint(cursorMove(-cursor))
				cursor = 0
			case easyterm.EscEnd:
				ct.TermPrint(cursorMove(len(input) - cursor))
				cursor = len(input)
			case easyterm.EscDelete:
				// the delete sequence is terminated by a tilde
				_, _, _ = ct.reader.ReadRune()
				if cursor < len(input) {
					input = append(input[:cursor], input[cursor+1:]...)
					history = len(ct.commandHistory)
				}
			}

		case easyterm.KeyBackspace, easyterm.KeyDelete:
			if cursor > 0 {
				input = append(input[:cursor-1], input[cursor:]...)
				ct.TermPrint(cursorBackwardOne)
				cursor--
				history = len(ct.commandHistory)
			}

		default:
			if unicode.IsPrint(r) {
				input = append(input, 0)
				copy(input[cursor+1:], input[cursor:])
				input[cursor] = r
				ct.TermPrint(cursorForwardOne)
				cursor++
				history = len(ct.commandHistory)
			}
		}
	}
}
