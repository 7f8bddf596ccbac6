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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface and are created with the
// Errorf() function.
//
// The pattern given to Errorf() is what identifies the error. Sentinal
// patterns should be declared as const strings in the package that raises
// them. For example, the registers package declares:
//
//	const StackOverflow = "registers: %s: stack overflow (capacity %d)"
//
// and callers can test for it with:
//
//	if curated.Is(err, registers.StackOverflow) {
//		...
//	}
//
// The Has() function is similar to Is() but searches the whole chain of
// wrapped errors:
//
//	e := curated.Errorf(registers.StackOverflow, "call", 16)
//	f := curated.Errorf("pipeline: %v", e)
//
//	curated.Has(f, registers.StackOverflow) // true
//	curated.Is(f, registers.StackOverflow)  // false
//
// Error chains are normalised when printed. Chains are thought of as parts
// separated by the sub-string ": " and adjacent duplicate parts are removed.
// This relieves callers of having to decide whether to wrap an error that
// already carries their own prefix.
//
// Representable machine errors (an undecodable instruction for example) are
// never curated errors. They are instructions in their own right and flow
// through the pipeline. Curated errors are reserved for conditions that must
// stop the simulation.
package curated
