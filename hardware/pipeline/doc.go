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

// Package pipeline implements the five stage pipeline of the processor.
//
// The stages are held in an ordered array: Fetch, Decode, Execute, Access
// and Writeback. Each stage holds exactly one instruction. Fetch always holds
// a LOAD_PC instruction and the other stages start with NOOP.
//
// A cycle is driven in two phases around the memory tick:
//
//	PreExecute()
//	memory.Hierarchy.Tick()
//	Execute()
//
// PreExecute() runs the instructions held by Fetch and Access so that any
// memory request they issue is registered before the memory devices are
// ticked. Execute() then runs every stage, from Writeback back to Fetch, and
// moves instructions downstream.
//
// A stage is blocked while its instruction has not finished. A stage
// advances when it is not blocked and the stage after it advances. Writeback
// always advances when it is not blocked. A stage that advances hands its
// instruction to the next stage and takes the instruction of the previous
// stage. If the previous stage cannot advance a STALL bubble is taken
// instead.
package pipeline
