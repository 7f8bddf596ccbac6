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

package prefs

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultPrefsFile is the name of the preferences file in the resource
// directory.
const DefaultPrefsFile = "preferences.toml"

// Disk binds a set of named preference values to a TOML file. Keys are dotted
// paths and are stored as nested tables. For example, the key
// "machine.wordSize" is stored as:
//
//	[machine]
//	wordSize = 32
type Disk struct {
	path    string
	entries map[string]pref
}

// NewDisk is the preferred method of initialisation for the Disk type. The
// file need not exist.
func NewDisk(path string) (*Disk, error) {
	if path == "" {
		return nil, fmt.Errorf("prefs: disk requires a path")
	}
	return &Disk{
		path:    path,
		entries: make(map[string]pref),
	}, nil
}

// Path returns the file the Disk is bound to.
func (dsk *Disk) Path() string {
	return dsk.path
}

// Add a preference value to the disk under key.
func (dsk *Disk) Add(key string, p pref) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return fmt.Errorf("prefs: illegal key (%q)", key)
	}
	if _, ok := dsk.entries[key]; ok {
		return fmt.Errorf("prefs: key already added (%s)", key)
	}
	dsk.entries[key] = p
	return nil
}

func (dsk *Disk) keys() []string {
	keys := make([]string, 0, len(dsk.entries))
	for k := range dsk.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (dsk *Disk) String() string {
	s := strings.Builder{}
	for _, k := range dsk.keys() {
		s.WriteString(fmt.Sprintf("%s :: %s\n", k, dsk.entries[k]))
	}
	return s.String()
}

// flatten a decoded TOML document into dotted keys.
func flatten(prefix string, m map[string]interface{}, out map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = fmt.Sprintf("%s.%s", prefix, k)
		}
		if sub, ok := v.(map[string]interface{}); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

// Load values from the TOML file. A missing file is not an error. Values
// waiting on the command line stack override values from the file. Keys in
// the file that have not been added to the Disk are ignored.
func (dsk *Disk) Load() error {
	doc := make(map[string]interface{})

	_, err := toml.DecodeFile(dsk.path, &doc)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("prefs: %s: %w", dsk.path, err)
	}

	values := make(map[string]interface{})
	flatten("", doc, values)

	for _, k := range dsk.keys() {
		if v, ok := values[k]; ok {
			if err := dsk.entries[k].Set(v); err != nil {
				return fmt.Errorf("prefs: %s: %w", k, err)
			}
		}
		if ok, v := GetCommandLinePref(k); ok {
			if err := dsk.entries[k].Set(v); err != nil {
				return fmt.Errorf("prefs: %s: %w", k, err)
			}
		}
	}

	return nil
}

// Save current values to the TOML file, overwriting it.
func (dsk *Disk) Save() error {
	doc := make(map[string]interface{})

	for _, k := range dsk.keys() {
		parts := strings.Split(k, ".")
		m := doc
		for _, p := range parts[:len(parts)-1] {
			sub, ok := m[p].(map[string]interface{})
			if !ok {
				sub = make(map[string]interface{})
				m[p] = sub
			}
			m = sub
		}
		m[parts[len(parts)-1]] = dsk.entries[k].Get()
	}

	f, err := os.Create(dsk.path)
	if err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("prefs: %s: %w", dsk.path, err)
	}

	return nil
}
