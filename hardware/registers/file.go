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

package registers

import (
	"fmt"
	"strings"

	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware/term"
)

// Sentinal error patterns. All of these are fatal to the simulation.
const (
	OutOfRange     = "registers: %s: index %d out of range (%d cells)"
	StackOverflow  = "registers: %s: stack overflow (capacity %d)"
	StackUnderflow = "registers: %s: stack underflow"
	WrongMode      = "registers: %s: operation %s not supported in %s mode"
	InvalidWidth   = "registers: %s: invalid cell width (%d)"
)

// Mode is the addressing discipline of a File.
type Mode int

// List of valid Modes.
const (
	// random access by index.
	Addressed Mode = iota

	// push and pop with overflow and underflow as fatal conditions.
	Stack

	// push and pop that wraps modulo capacity. pushing onto a full file
	// overwrites the oldest entry.
	Circular
)

func (m Mode) String() string {
	switch m {
	case Addressed:
		return "addressed"
	case Stack:
		return "stack"
	case Circular:
		return "circular"
	}
	return "unknown mode"
}

// cell is a single storage location with its own width.
type cell struct {
	value uint64
	width int
}

func (c cell) mask() uint64 {
	if c.width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << c.width) - 1
}

// File is a bank of fixed width storage cells.
type File struct {
	label string
	mode  Mode
	cells []cell

	// stack and circular modes only. top is the index of the next free cell
	// and depth is the number of entries currently held
	top   int
	depth int

	// optional names for cells, used by Dump()
	names []string
}

// NewFile is the preferred method of initialisation for the File type. Every
// cell is initialised to zero with the specified width.
func NewFile(label string, mode Mode, count int, width int) (*File, error) {
	if width <= 0 || width > 64 {
		return nil, curated.Errorf(InvalidWidth, label, width)
	}
	if count <= 0 {
		return nil, curated.Errorf("registers: %s: file must have at least one cell", label)
	}

	f := &File{
		label: label,
		mode:  mode,
		cells: make([]cell, count),
	}
	for i := range f.cells {
		f.cells[i].width = width
	}
	return f, nil
}

// SetNames gives names to the first cells of the file. The names are used
// by Dump() in place of the cell index.
func (f *File) SetNames(names ...string) {
	f.names = names
}

// Label returns the name of the register file.
func (f *File) Label() string {
	return f.label
}

// Mode returns the addressing mode of the register file.
func (f *File) Mode() Mode {
	return f.mode
}

// Len returns the number of cells in the register file.
func (f *File) Len() int {
	return len(f.cells)
}

// Depth returns the number of entries held by a stack or circular file. For
// addressed files it is the number of cells.
func (f *File) Depth() int {
	if f.mode == Addressed {
		return len(f.cells)
	}
	return f.depth
}

// SetWidth changes the width of a single cell. The current value is masked
// to the new width.
func (f *File) SetWidth(index int, width int) error {
	if index < 0 || index >= len(f.cells) {
		return curated.Errorf(OutOfRange, f.label, index, len(f.cells))
	}
	if width <= 0 || width > 64 {
		return curated.Errorf(InvalidWidth, f.label, width)
	}
	f.cells[index].width = width
	f.cells[index].value &= f.cells[index].mask()
	return nil
}

// Width returns the width of the cell at index.
func (f *File) Width(index int) int {
	if index < 0 || index >= len(f.cells) {
		return 0
	}
	return f.cells[index].width
}

// Store value at index. Only valid for addressed files. The value is masked
// to the width of the cell.
func (f *File) Store(index int, value uint64) error {
	if f.mode != Addressed {
		return curated.Errorf(WrongMode, f.label, "store", f.mode)
	}
	if index < 0 || index >= len(f.cells) {
		return curated.Errorf(OutOfRange, f.label, index, len(f.cells))
	}
	f.cells[index].value = value & f.cells[index].mask()
	return nil
}

// Load value from index. Only valid for addressed files.
func (f *File) Load(index int) (uint64, error) {
	if f.mode != Addressed {
		return 0, curated.Errorf(WrongMode, f.label, "load", f.mode)
	}
	if index < 0 || index >= len(f.cells) {
		return 0, curated.Errorf(OutOfRange, f.label, index, len(f.cells))
	}
	return f.cells[index].value, nil
}

// Push value onto a stack or circular file.
func (f *File) Push(value uint64) error {
	switch f.mode {
	case Stack:
		if f.depth >= len(f.cells) {
			return curated.Errorf(StackOverflow, f.label, len(f.cells))
		}
		f.depth++
	case Circular:
		if f.depth < len(f.cells) {
			f.depth++
		}
	default:
		return curated.Errorf(WrongMode, f.label, "push", f.mode)
	}

	f.cells[f.top].value = value & f.cells[f.top].mask()
	f.top = (f.top + 1) % len(f.cells)
	return nil
}

// Pop the most recently pushed value from a stack or circular file.
func (f *File) Pop() (uint64, error) {
	if f.mode == Addressed {
		return 0, curated.Errorf(WrongMode, f.label, "pop", f.mode)
	}
	if f.depth == 0 {
		return 0, curated.Errorf(StackUnderflow, f.label)
	}
	f.depth--
	f.top = (f.top - 1 + len(f.cells)) % len(f.cells)
	return f.cells[f.top].value, nil
}

// Peek returns the most recently pushed value without removing it.
func (f *File) Peek() (uint64, error) {
	if f.mode == Addressed {
		return 0, curated.Errorf(WrongMode, f.label, "peek", f.mode)
	}
	if f.depth == 0 {
		return 0, curated.Errorf(StackUnderflow, f.label)
	}
	return f.cells[(f.top-1+len(f.cells))%len(f.cells)].value, nil
}

// Reset zeroes every cell and empties stacks.
func (f *File) Reset() {
	for i := range f.cells {
		f.cells[i].value = 0
	}
	f.top = 0
	f.depth = 0
}

// Term returns the cell at index as a Term of the cell's width. The raw cell
// is returned regardless of mode, for display purposes.
func (f *File) Term(index int) term.Term {
	if index < 0 || index >= len(f.cells) {
		return term.FromUint(0, 1)
	}
	return term.FromUint(f.cells[index].value, f.cells[index].width)
}

// Cells returns a copy of the raw cell values, for display and checkpoints.
func (f *File) Cells() []uint64 {
	c := make([]uint64, len(f.cells))
	for i := range f.cells {
		c[i] = f.cells[i].value
	}
	return c
}

// StackPosition returns the top and depth fields of stack and circular
// files.
func (f *File) StackPosition() (top int, depth int) {
	return f.top, f.depth
}

// CheckRestore returns an error if Restore would fail for the arguments. The
// file is not changed.
func (f *File) CheckRestore(cells []uint64, top int, depth int) error {
	if len(cells) != len(f.cells) {
		return curated.Errorf("registers: %s: restore of %d cells into %d", f.label, len(cells), len(f.cells))
	}
	if top < 0 || top >= len(f.cells) || depth < 0 || depth > len(f.cells) {
		return curated.Errorf("registers: %s: invalid stack position in restore", f.label)
	}
	return nil
}

// Restore replaces the contents of the register file. Used when restoring a
// checkpoint. Values are masked to cell widths.
func (f *File) Restore(cells []uint64, top int, depth int) error {
	if err := f.CheckRestore(cells, top, depth); err != nil {
		return err
	}
	for i := range cells {
		f.cells[i].value = cells[i] & f.cells[i].mask()
	}
	f.top = top
	f.depth = depth
	return nil
}

func (f *File) String() string {
	return f.Dump(term.Hexadecimal)
}

// Dump returns the register file as a string, with each cell formatted in
// the specified radix.
func (f *File) Dump(radix int) string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s (%s", f.label, f.mode))
	if f.mode != Addressed {
		s.WriteString(fmt.Sprintf(", depth %d", f.depth))
	}
	s.WriteString(")\n")

	for i := range f.cells {
		marker := ""
		if f.mode != Addressed && f.depth > 0 && i == (f.top-1+len(f.cells))%len(f.cells) {
			marker = " <"
		}
		label := fmt.Sprintf("%d", i)
		if i < len(f.names) {
			label = f.names[i]
		}
		s.WriteString(fmt.Sprintf("%3s: %s%s\n", label, f.Term(i).Format(radix), marker))
	}
	return strings.TrimSuffix(s.String(), "\n")
}
