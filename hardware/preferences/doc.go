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

// Package preferences holds the configuration of the simulated machine: word
// size, register file sizes, address space and memory topology.
//
// Scalar values are prefs types bound to the pipesim preferences file. The
// memory topology is kept in a separate TOML file, named by the Topology
// preference, in which each device is a [[device]] table:
//
//	[[device]]
//	name = "L1D"
//	kind = "cache"
//	type = "data"
//	policy = "writeback"
//	lines = 16
//	lineSize = 4
//	accessDelay = 1
//	next = "RAMD"
//
// An empty Topology preference selects DefaultTopology().
package preferences
