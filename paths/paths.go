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

package paths

import (
	"os"
	"path/filepath"
)

// the base path for all resources. note that this value is not used directly
// except in the basePath() function.
const baseResourcePath = ".pipesim"

// ResourcePath returns the path to the resource in the named sub-directory of
// the base path. The sub-directory is created if it does not exist. Either
// argument can be empty.
func ResourcePath(subPth string, file string) (string, error) {
	pth := filepath.Join(basePath(), subPth)

	if _, err := os.Stat(pth); err != nil {
		if err := os.MkdirAll(pth, 0700); err != nil {
			return "", err
		}
	}

	return filepath.Join(pth, file), nil
}

// basePath returns baseResourcePath if it can be found in the current
// directory. otherwise it is placed in the user's config directory.
func basePath() string {
	if _, err := os.Stat(baseResourcePath); err == nil {
		return baseResourcePath
	}

	home, err := os.UserConfigDir()
	if err != nil {
		return baseResourcePath
	}
	return filepath.Join(home, baseResourcePath[1:])
}
