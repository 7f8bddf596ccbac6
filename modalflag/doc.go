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

// Package modalflag wraps the flag package from the standard library and
// adds the concept of program modes. A mode is a special command line
// argument that puts the program into a different mode of operation, each
// with its own set of flags and arguments.
//
// A Modes instance is created with the arguments to parse. Flags and
// sub-modes for the top level are added before calling Parse():
//
//	md := modalflag.NewModes(os.Stdout, os.Args[1:])
//	md.AddSubMode("run", "run a program until it halts")
//	md.AddSubMode("console", "interactive command line")
//	switch p, err := md.Parse(); p {
//	case modalflag.ParseHelp:
//		return
//	case modalflag.ParseError:
//		return err
//	}
//
// The first sub-mode added is the default. If the first argument after the
// flags is not a sub-mode, the default sub-mode is selected and the argument
// is left in place. Sub-mode comparisons are case insensitive and Mode()
// returns the mode in upper case.
//
// Flags for the selected mode are added after a call to NewMode(), followed
// by a second call to Parse():
//
//	switch md.Mode() {
//	case "RUN":
//		md.NewMode()
//		cycles := md.AddInt("cycles", 0, "maximum number of cycles")
//		if p, _ := md.Parse(); p != modalflag.ParseContinue {
//			return
//		}
//		run(*cycles, md.RemainingArgs())
//	}
//
// The help flag is handled automatically. The help message lists the flags
// for the current mode, then any sub-modes with their descriptions, then any
// additional help text given with AdditionalHelp().
package modalflag
