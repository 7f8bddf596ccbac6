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

// Package prefs facilitates the storage of preference values.
//
// Preference values are the Bool, Int, Float and String types. Each is safe
// to read from more than one goroutine and each supports pre and post hooks
// that run whenever the value is set.
//
// A Disk binds preference values to dotted keys and loads/saves them as a
// TOML file. Values can also be overridden from the command line with the
// command line stack. The format of a prefs string is:
//
//	key::value; key::value
//
// A group pushed with PushCommandLineStack() is consulted by Disk.Load().
// Any values left unused can be retrieved with PopCommandLineStack().
package prefs
