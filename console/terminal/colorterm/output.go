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
	"strings"

	"github.com/pipesim/pipesim/console/terminal"
)

// TermPrintLine implements the terminal.Output interface.
func (ct *ColorTerminal) TermPrintLine(style terminal.Style, s string) {
	if ct.silenced && style != terminal.StyleError {
		return
	}

	// input is echoed as it is typed
	if style == terminal.StyleEcho {
		return
	}

	switch style {
	case terminal.StyleHelp:
		ct.EasyTerm.TermPrint(dimPens["white"])
	case terminal.StyleFeedback:
		ct.EasyTerm.TermPrint(dimPens["white"])
	case terminal.StyleMachine:
		ct.EasyTerm.TermPrint(pens["yellow"])
	case terminal.StyleLog:
		ct.EasyTerm.TermPrint(dimPens["cyan"])
	case terminal.StyleError:
		ct.EasyTerm.TermPrint(pens["red"])
		ct.EasyTerm.TermPrint("* ")
	}

	// the terminal is in raw mode while reading so newlines in the output
	// need a carriage return
	ct.EasyTerm.TermPrint(strings.ReplaceAll(s, "\n", "\r\n"))
	ct.EasyTerm.TermPrint(normalPen)
	ct.EasyTerm.TermPrint("\r\n")
}
