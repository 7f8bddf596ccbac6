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

// Package memory implements the memory hierarchy of the simulated machine.
//
// A Hierarchy owns an ordered list of Modules. Each Module is one level of
// cache or RAM: direct-mapped lines with valid and dirty bits, a write
// policy and an optional link to the next slower level. The slowest level
// of a chain is normally RAM, in which every line is always valid.
//
// Work arrives at a Module as a Request. Requests are queued on arrival and
// only the head of the queue makes progress. Each tick of the hierarchy has
// two phases:
//
//  1. every module prepares its head request, fastest module first. preparing
//     a request issues any requests the module needs from the next level
//     (a line fetch or a flush of a dirty line, for example)
//
//  2. every module advances its head request, slowest module first. a head
//     request can only advance once all the requests it issued downstream
//     have finished. once its own access delay has counted down, the
//     logical operation is applied and the request is finished
//
// Slowest first ordering in the second phase means that a module sees the
// completion of a downstream request in the same tick that it happens.
//
// Requests must be started with Request.Start() before their timer is
// queried. Hierarchy.Issue() does this automatically.
package memory
