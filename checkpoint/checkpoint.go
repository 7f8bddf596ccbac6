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

package checkpoint

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware"
	"github.com/pipesim/pipesim/hardware/memory"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/logger"
)

// Sentinal error patterns.
const (
	Encoding         = "checkpoint: %v"
	WordSizeMismatch = "checkpoint: word size of checkpoint (%d) does not match machine (%d)"
	UnknownBank      = "checkpoint: unknown register bank (%s)"
	UnknownDevice    = "checkpoint: unknown memory device (%s)"
	MissingDevice    = "checkpoint: machine device %s is not in the checkpoint"
)

// Version of the checkpoint format.
const Version = 1

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("checkpoint: cbor encoder: %v", err))
	}
}

// Bank is the saved state of a register file.
type Bank struct {
	Name  string   `cbor:"name"`
	Cells []uint64 `cbor:"cells"`
	Top   int      `cbor:"top"`
	Depth int      `cbor:"depth"`
}

// Line is the saved state of one line of a memory device.
type Line struct {
	Valid bool     `cbor:"valid"`
	Dirty bool     `cbor:"dirty"`
	Base  uint64   `cbor:"base"`
	Words []uint64 `cbor:"words"`
}

// Device is the saved state of a memory device.
type Device struct {
	Name   string `cbor:"name"`
	Policy int    `cbor:"policy"`
	Lines  []Line `cbor:"lines"`
}

// Checkpoint is the saved state of a machine.
type Checkpoint struct {
	Version  int       `cbor:"version"`
	Session  uuid.UUID `cbor:"session"`
	Created  int64     `cbor:"created"`
	WordSize int       `cbor:"wordsize"`
	Cycles   int       `cbor:"cycles"`
	Banks    []Bank    `cbor:"banks"`
	Devices  []Device  `cbor:"devices"`
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("session %s: %d-bit, cycle %d, %d banks, %d devices",
		c.Session, c.WordSize, c.Cycles, len(c.Banks), len(c.Devices))
}

// Take returns a checkpoint of the machine's current state.
func Take(m *hardware.Machine) Checkpoint {
	c := Checkpoint{
		Version:  Version,
		Session:  m.Instance.Label,
		Created:  time.Now().Unix(),
		WordSize: m.WordSize(),
		Cycles:   m.Pipeline.Stats().Cycles,
	}

	for b := registers.General; b <= registers.Reversal; b++ {
		f := m.Regs.File(b)
		top, depth := f.StackPosition()
		c.Banks = append(c.Banks, Bank{
			Name:  b.String(),
			Cells: f.Cells(),
			Top:   top,
			Depth: depth,
		})
	}

	for _, mod := range m.Mem.Modules() {
		d := Device{
			Name:   mod.Name,
			Policy: int(mod.Policy()),
		}
		for _, l := range mod.Lines() {
			d.Lines = append(d.Lines, Line{
				Valid: l.Valid,
				Dirty: l.Dirty,
				Base:  l.Base,
				Words: l.Words,
			})
		}
		c.Devices = append(c.Devices, d)
	}

	return c
}

// Apply the checkpoint to the machine. The machine must have the same word
// size, register file sizes and memory devices as the machine the checkpoint
// was taken from. The whole checkpoint is checked before anything is changed
// so a failed Apply leaves the machine as it was.
func Apply(c Checkpoint, m *hardware.Machine) error {
	if c.WordSize != m.WordSize() {
		return curated.Errorf(WordSizeMismatch, c.WordSize, m.WordSize())
	}

	for _, b := range c.Banks {
		bank, ok := registers.BankFromString(b.Name)
		if !ok {
			return curated.Errorf(UnknownBank, b.Name)
		}
		if err := m.Regs.File(bank).CheckRestore(b.Cells, b.Top, b.Depth); err != nil {
			return curated.Errorf(Encoding, err)
		}
	}

	lines := make(map[string][]memory.Line)
	for _, d := range c.Devices {
		_, mod, ok := m.Mem.Device(d.Name)
		if !ok {
			return curated.Errorf(UnknownDevice, d.Name)
		}

		l := make([]memory.Line, len(d.Lines))
		for i, sl := range d.Lines {
			l[i] = memory.Line{
				Valid: sl.Valid,
				Dirty: sl.Dirty,
				Base:  sl.Base,
				Words: sl.Words,
			}
		}
		if err := mod.CheckRestore(l, memory.Policy(d.Policy)); err != nil {
			return curated.Errorf(Encoding, err)
		}
		lines[mod.Name] = l
	}
	for _, mod := range m.Mem.Modules() {
		if _, ok := lines[mod.Name]; !ok {
			return curated.Errorf(MissingDevice, mod.Name)
		}
	}

	for _, b := range c.Banks {
		bank, _ := registers.BankFromString(b.Name)
		if err := m.Regs.File(bank).Restore(b.Cells, b.Top, b.Depth); err != nil {
			return curated.Errorf(Encoding, err)
		}
	}

	for _, d := range c.Devices {
		_, mod, _ := m.Mem.Device(d.Name)
		if err := mod.RestoreLines(lines[mod.Name]); err != nil {
			return curated.Errorf(Encoding, err)
		}
		if mod.Kind != memory.RAM {
			if err := mod.RestorePolicy(memory.Policy(d.Policy)); err != nil {
				return curated.Errorf(Encoding, err)
			}
		}
	}

	m.Restored()

	if c.Session != m.Instance.Label {
		logger.Logf("checkpoint", "restored checkpoint from session %s", c.Session)
	}

	return nil
}

// Save a checkpoint of the machine to the writer.
func Save(w io.Writer, m *hardware.Machine) error {
	c := Take(m)
	if err := encMode.NewEncoder(w).Encode(c); err != nil {
		return curated.Errorf(Encoding, err)
	}
	logger.Logf("checkpoint", "saved: %s", c)
	return nil
}

// Read a checkpoint from the reader without applying it.
func Read(r io.Reader) (Checkpoint, error) {
	var c Checkpoint
	if err := cbor.NewDecoder(r).Decode(&c); err != nil {
		return Checkpoint{}, curated.Errorf(Encoding, err)
	}
	if c.Version != Version {
		return Checkpoint{}, curated.Errorf(Encoding, fmt.Sprintf("unsupported version (%d)", c.Version))
	}
	return c, nil
}

// Restore reads a checkpoint from the reader and applies it to the machine.
func Restore(r io.Reader, m *hardware.Machine) error {
	c, err := Read(r)
	if err != nil {
		return err
	}
	return Apply(c, m)
}
