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
	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/paths"
	"github.com/pipesim/pipesim/prefs"
)

// default values for the machine.
const (
	DefaultWordSize         = 32
	DefaultGeneralRegisters = 16
	DefaultCallStackSize    = 16
	DefaultReversalDepth    = 32
	DefaultAddressSpaceBits = 16
)

// Preferences defines and collates the preference values for the machine.
type Preferences struct {
	dsk *prefs.Disk

	// size of an instruction word and of a data word. either 32 or 64
	WordSize prefs.Int

	// number of cells in the general register bank
	GeneralRegisters prefs.Int

	// capacity of the call stack used by JSR and RET
	CallStackSize prefs.Int

	// the number of register writes that can be undone
	ReversalDepth prefs.Int

	// width of a memory address
	AddressSpaceBits prefs.Int

	// path to the topology file. empty string means the default topology
	Topology prefs.String
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. The pth argument is the preferences file to bind to. An
// empty pth selects the file in the pipesim resource directory.
func NewPreferences(pth string) (*Preferences, error) {
	p := &Preferences{}

	p.WordSize.SetHookPre(func(v prefs.Value) error {
		if ws := v.(int); ws != 32 && ws != 64 {
			return curated.Errorf("preferences: word size must be 32 or 64 (not %d)", ws)
		}
		return nil
	})
	p.GeneralRegisters.SetHookPre(rangeCheck("general registers", 1, 256))
	p.CallStackSize.SetHookPre(rangeCheck("call stack size", 1, 65536))
	p.ReversalDepth.SetHookPre(rangeCheck("reversal depth", 1, 65536))
	p.AddressSpaceBits.SetHookPre(rangeCheck("address space bits", 4, 20))

	err := p.SetDefaults()
	if err != nil {
		return nil, err
	}

	if pth == "" {
		pth, err = paths.ResourcePath("", prefs.DefaultPrefsFile)
		if err != nil {
			return nil, err
		}
	}

	p.dsk, err = prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("machine.wordSize", &p.WordSize)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("machine.generalRegisters", &p.GeneralRegisters)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("machine.callStackSize", &p.CallStackSize)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("machine.reversalDepth", &p.ReversalDepth)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("machine.addressSpaceBits", &p.AddressSpaceBits)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("memory.topology", &p.Topology)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Load()
	if err != nil {
		return nil, err
	}

	return p, nil
}

func rangeCheck(name string, min int, max int) func(prefs.Value) error {
	return func(v prefs.Value) error {
		if n := v.(int); n < min || n > max {
			return curated.Errorf("preferences: %s must be between %d and %d (not %d)", name, min, max, n)
		}
		return nil
	}
}

// SetDefaults reverts all preferences to the default values.
func (p *Preferences) SetDefaults() error {
	if err := p.WordSize.Set(DefaultWordSize); err != nil {
		return err
	}
	if err := p.GeneralRegisters.Set(DefaultGeneralRegisters); err != nil {
		return err
	}
	if err := p.CallStackSize.Set(DefaultCallStackSize); err != nil {
		return err
	}
	if err := p.ReversalDepth.Set(DefaultReversalDepth); err != nil {
		return err
	}
	if err := p.AddressSpaceBits.Set(DefaultAddressSpaceBits); err != nil {
		return err
	}
	return p.Topology.Set("")
}

// Load current machine preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save current machine preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}

// LoadTopology returns the memory topology named by the Topology preference.
func (p *Preferences) LoadTopology() (Topology, error) {
	pth := p.Topology.String()
	if pth == "" {
		return DefaultTopology(), nil
	}
	return LoadTopology(pth)
}
