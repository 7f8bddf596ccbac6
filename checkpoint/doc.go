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

// Package checkpoint saves and restores the state of a hardware.Machine.
//
// A checkpoint records the contents of every register bank, including the
// position of the call stack and the reversal buffer, and every line of every
// memory device along with the device's write policy. The pipeline is not
// recorded. Restoring a checkpoint drops any in-flight memory requests and
// flushes the pipeline, so execution resumes from the restored program
// counter.
//
// Checkpoints are encoded as canonical CBOR and are tagged with the session
// label of the machine that created them.
package checkpoint
