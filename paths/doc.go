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

// Package paths prepares paths to pipesim resources, such as the preferences
// file and saved checkpoints.
//
// If a directory named ".pipesim" exists in the current working directory
// then that is used as the base path. Otherwise the user's config directory
// is used, as reported by os.UserConfigDir(). On a modern Linux system:
//
//	/home/user/.config/pipesim/checkpoints/fib.cbor
package paths
