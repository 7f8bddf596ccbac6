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

package preferences

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pipesim/pipesim/curated"
)

// Sentinal errors for topology validation.
const (
	InvalidTopology = "topology: %v"
)

// Device is the configuration of a single memory device. String fields are
// interpreted by the memory package.
type Device struct {
	Name string `toml:"name"`

	// "cache" or "ram"
	Kind string `toml:"kind"`

	// "instruction" or "data"
	Type string `toml:"type"`

	// zero means the natural word length for the device type
	WordLength int `toml:"wordLength"`

	// write policy. ignored by ram devices
	Policy string `toml:"policy"`

	// zero means the largest number of lines the address space allows
	Lines    int `toml:"lines"`
	LineSize int `toml:"lineSize"`

	AccessDelay int `toml:"accessDelay"`

	// name of the next slower device. empty for the bottom level
	Next string `toml:"next"`
}

// Topology is the list of memory devices in the machine. Each type of memory
// forms a chain from the fastest device to the slowest.
type Topology struct {
	Devices []Device `toml:"device"`
}

// DefaultTopology returns a two level instruction hierarchy and a three level
// data hierarchy:
//
//	L1I -> RAMI
//	L1D -> L2D -> RAMD
func DefaultTopology() Topology {
	return Topology{
		Devices: []Device{
			{Name: "L1I", Kind: "cache", Type: "instruction", Policy: "writethrough-noallocate", Lines: 16, LineSize: 4, AccessDelay: 0, Next: "RAMI"},
			{Name: "RAMI", Kind: "ram", Type: "instruction", LineSize: 4, AccessDelay: 10},
			{Name: "L1D", Kind: "cache", Type: "data", Policy: "writeback", Lines: 16, LineSize: 4, AccessDelay: 0, Next: "L2D"},
			{Name: "L2D", Kind: "cache", Type: "data", Policy: "writeback", Lines: 64, LineSize: 4, AccessDelay: 3, Next: "RAMD"},
			{Name: "RAMD", Kind: "ram", Type: "data", LineSize: 4, AccessDelay: 10},
		},
	}
}

// LoadTopology reads a topology from a TOML file.
func LoadTopology(pth string) (Topology, error) {
	var top Topology
	_, err := toml.DecodeFile(pth, &top)
	if err != nil {
		return Topology{}, curated.Errorf(InvalidTopology, err)
	}
	return top, top.Validate()
}

// ParseTopology reads a topology from a TOML string.
func ParseTopology(s string) (Topology, error) {
	var top Topology
	err := toml.Unmarshal([]byte(s), &top)
	if err != nil {
		return Topology{}, curated.Errorf(InvalidTopology, err)
	}
	return top, top.Validate()
}

// Validate checks that device names are unique and that every Next field
// names a device in the topology. Other checks are made when the hierarchy
// is built.
func (top Topology) Validate() error {
	if len(top.Devices) == 0 {
		return curated.Errorf(InvalidTopology, "no devices")
	}

	names := make(map[string]bool)
	for _, d := range top.Devices {
		if strings.TrimSpace(d.Name) == "" {
			return curated.Errorf(InvalidTopology, "device with no name")
		}
		if names[strings.ToUpper(d.Name)] {
			return curated.Errorf(InvalidTopology, "duplicate device name "+d.Name)
		}
		names[strings.ToUpper(d.Name)] = true
	}

	for _, d := range top.Devices {
		if d.Next != "" && !names[strings.ToUpper(d.Next)] {
			return curated.Errorf(InvalidTopology, "device "+d.Name+" links to unknown device "+d.Next)
		}
	}

	return nil
}
