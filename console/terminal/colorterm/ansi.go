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

package colorterm

import "fmt"

// ansi colours.
const (
	black = iota
	red
	green
	yellow
	blue
	magenta
	cyan
	white
)

// ansi targets.
const (
	pen       = 3
	brightPen = 9
)

// ansi attributes.
const (
	bold = 1
	dim  = 2
)

const (
	normalPen         = "\033[0m"
	clearLine         = "\033[2K"
	cursorStore       = "\0337"
	cursorRestore     = "\0338"
	cursorForwardOne  = "\033[1C"
	cursorBackwardOne = "\033[1D"
)

var pens = map[string]string{}
var dimPens = map[string]string{}
var penStyles = map[string]string{}

func init() {
	for name, col := range map[string]int{
		"red": red, "green": green, "yellow": yellow, "blue": blue,
		"magenta": magenta, "cyan": cyan, "white": white,
	} {
		pens[name] = fmt.Sprintf("\033[%d%dm", brightPen, col)
		dimPens[name] = fmt.Sprintf("\033[%d%dm", pen, col)
	}
	penStyles["bold"] = fmt.Sprintf("\033[%dm", bold)
	penStyles["dim"] = fmt.Sprintf("\033[%dm", dim)
}

// cursorMove returns the sequence that moves the cursor n columns. negative
// values move the cursor backwards.
func cursorMove(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf("\033[%dC", n)
	case n < 0:
		return fmt.Sprintf("\033[%dD", -n)
	}
	return ""
}
