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

// Package hardware is the base package for the processor simulation. It and
// its sub-packages contain everything required for a headless simulation.
//
// The Machine type is the root of the simulation and contains references to
// the register banks, the memory hierarchy and the pipeline. A program image
// is loaded with LoadProgram() and an optional data image with LoadData().
// From there the machine can either be run continuously with Run() (with an
// optional callback to check for continuation) or stepped cycle by cycle with
// Step().
//
// Every cycle is driven in the same order:
//
//	pipeline pre-execute
//	memory hierarchy tick
//	pipeline execute
//
// The manual memory operations (ManualLoad(), ManualStore() and
// ManualStoreRegister()) issue timed requests directly to a named memory
// device and tick the hierarchy until the requests complete. They are intended
// for inspection and for preparing memory before a run.
package hardware
