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

// Package term implements the Term type, an immutable bit vector of any
// width. Bit zero of a Term is the most significant bit.
//
// The bitwise operations (Not, And, Or, Xor) are defined over Terms of
// different widths by zero extending the narrower Term. Terms are converted
// to and from unsigned integers of up to 64 bits without loss.
//
// Instruction words are Terms and the instructions package slices them to
// extract the header, flags and argument fields.
package term
