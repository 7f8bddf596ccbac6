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

package memory

import (
	"github.com/pipesim/pipesim/hardware/preferences"
	"github.com/pipesim/pipesim/logger"
)

// instruction memory is always made of 32 bit words. a 64 bit instruction
// occupies two adjacent words.
const instructionWordLength = 32

// NewHierarchyFromTopology creates a hierarchy from the topology. Devices
// are added in the order they appear and then linked.
//
// A word length of zero selects the natural word length for the device type.
// A word length that does not match the natural length is a configuration
// mistake: a warning is logged and, for instruction memory, the natural
// length is used. Instruction devices with lines too short for a 64 bit
// instruction are widened in the same way.
func NewHierarchyFromTopology(top preferences.Topology, wordSize int, addressBits int, ids IDGenerator) (*Hierarchy, error) {
	if err := top.Validate(); err != nil {
		return nil, err
	}

	h := NewHierarchy(addressBits, ids)

	for _, d := range top.Devices {
		cfg := Config{
			Name:        d.Name,
			WordLength:  d.WordLength,
			Lines:       d.Lines,
			LineSize:    d.LineSize,
			AccessDelay: d.AccessDelay,
		}

		var err error
		cfg.Kind, err = ParseKind(d.Kind)
		if err != nil {
			return nil, err
		}
		cfg.Type, err = ParseType(d.Type)
		if err != nil {
			return nil, err
		}
		cfg.Policy, err = ParsePolicy(d.Policy)
		if err != nil {
			return nil, err
		}

		natural := wordSize
		if cfg.Type == Instruction {
			natural = instructionWordLength
		}
		if cfg.WordLength == 0 {
			cfg.WordLength = natural
		} else if cfg.WordLength != natural {
			logger.Logf(d.Name, "word length of %d does not match the machine (%d)", cfg.WordLength, natural)
			if cfg.Type == Instruction {
				cfg.WordLength = natural
			}
		}

		if cfg.LineSize == 0 {
			cfg.LineSize = 1
		}

		// a long instruction word must fit in a single line
		if cfg.Type == Instruction && cfg.LineSize < wordSize/instructionWordLength {
			logger.Logf(d.Name, "line size of %d cannot hold a %d bit instruction. using %d",
				cfg.LineSize, wordSize, wordSize/instructionWordLength)
			cfg.LineSize = wordSize / instructionWordLength
		}

		if _, err := h.Add(cfg); err != nil {
			return nil, err
		}
	}

	for _, d := range top.Devices {
		if d.Next == "" {
			continue
		}
		from, _, _ := h.Device(d.Name)
		to, _, _ := h.Device(d.Next)
		if err := h.Link(from, to); err != nil {
			return nil, err
		}
	}

	// a cache at the bottom of a chain is allowed but every miss will be
	// treated as zero data
	for _, m := range h.modules {
		if m.Kind == Cache && m.next < 0 {
			logger.Logf(m.Name, "cache has no next level")
		}
	}

	return h, nil
}
