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

// Package console implements a line based command interpreter for a
// hardware.Machine. Input is read from and output written to a
// terminal.Terminal.
//
// Commands are case insensitive and can be abbreviated to any unique prefix.
// Numeric arguments can be given in decimal, or in hexadecimal with a 0x or $
// prefix, or in binary with a 0b prefix. A # character begins a comment.
//
// The HELP command lists every command.
package console
