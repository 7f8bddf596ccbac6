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

// Package test bundles functions useful for testing purposes, in conjunction
// with the standard go test harness.
//
// The Expect*() functions report a failure and allow the test to continue.
// The Demand*() functions fail the test immediately. Use a Demand*()
// function when later checks depend on the value being correct.
//
// The success/failure functions accept bool and error values. The nil type
// is considered a success, because of how errors usually work in Go (nil to
// indicate no error).
//
// The Writer type implements the io.Writer interface and should be used to
// capture output. The Writer.Compare() function can then be used to test
// for equality.
package test
