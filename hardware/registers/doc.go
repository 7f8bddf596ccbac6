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

// Package registers implements the register files of the simulated machine.
//
// A File is a bank of fixed width cells with one of three addressing modes:
// addressed (random access), stack and circular stack. Every store is masked
// to the width of the cell. Out of range indexes, stack overflow and stack
// underflow are returned as errors and are fatal to the simulation.
//
// The Set type groups the general, internal, call and reversal banks. Writes
// to the general and internal banks are made with Set.Commit(), which keeps
// a history of the previous values on the reversal bank. Set.Undo() replays
// that history in reverse.
//
// The Pending type tracks which cells are the destinations of instructions
// still in the pipeline.
package registers
