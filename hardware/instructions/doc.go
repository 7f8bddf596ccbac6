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

// Package instructions defines the instruction set of the simulated machine
// and the semantics of each instruction.
//
// An instruction word is a 32 or 64 bit term.Term. The leading six bits are
// the Header, made of a three bit Typecode and a three bit opcode. The
// remainder of the word holds two flag bits, three eight bit arguments and,
// in long words, a 32 bit immediate value. See Encode() for the layout.
//
// The Instruction type wraps a word with the decoded operands and results.
// Instructions are created with New() from words fetched by the pipeline.
// Words that cannot be executed are never rejected: they become
// EXECUTION_ERR instructions that carry the reason as their payload.
//
// The Execute() function dispatches on the Header and does whatever is
// required for the stage given by the Context. It is safe to call Execute()
// more than once in a cycle, or once per cycle for many cycles, until the
// instruction reports that it has finished.
package instructions
