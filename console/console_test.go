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

package console_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pipesim/pipesim/console"
	"github.com/pipesim/pipesim/console/terminal/plainterm"
	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/govern"
	"github.com/pipesim/pipesim/hardware"
	"github.com/pipesim/pipesim/hardware/instructions"
	"github.com/pipesim/pipesim/hardware/preferences"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/test"
)

func newMachine(t *testing.T) *hardware.Machine {
	t.Helper()
	prefs, err := preferences.NewPreferences(filepath.Join(t.TempDir(), "preferences.toml"))
	test.DemandSuccess(t, err)
	m, err := hardware.NewMachine(prefs)
	test.DemandSuccess(t, err)

	img := hardware.ImageHeader{}.Words()
	for _, i := range []struct {
		h    instructions.Header
		f    instructions.Flags
		args [3]uint8
	}{
		{instructions.Move, instructions.F0, [3]uint8{0, 0, 5}},
		{instructions.Move, instructions.F0, [3]uint8{1, 0, 7}},
		{instructions.IntAdd, 0, [3]uint8{2, 0, 1}},
		{instructions.Halt, 0, [3]uint8{}},
		{instructions.Halt, 0, [3]uint8{}},
	} {
		w, err := instructions.Encode(32, i.h, i.f, i.args, 0).Uint32()
		test.DemandSuccess(t, err)
		img = append(img, w)
	}
	test.DemandSuccess(t, m.LoadProgram(img))

	return m
}

func newConsole(m *hardware.Machine, script string, w *test.Writer) *console.Console {
	return console.NewConsole(m, plainterm.NewPlainTerminal(strings.NewReader(script), w))
}

func TestScript(t *testing.T) {
	m := newMachine(t)
	w := &test.Writer{}

	c := newConsole(m, "step\nrun # to the end\nregs general 10\nstats\nquit\nstep\n", w)
	test.DemandSuccess(t, c.Start())

	out := w.String()
	test.ExpectSuccess(t, strings.Contains(out, "> step\n"))
	test.ExpectSuccess(t, strings.Contains(out, "halted at 0xb"))
	test.ExpectSuccess(t, strings.Contains(out, "  2: 12"))
	test.ExpectSuccess(t, strings.Contains(out, "cycles: "))

	// nothing after QUIT is run
	test.ExpectEquality(t, strings.Count(out, "> step"), 1)
	test.ExpectEquality(t, m.State(), govern.Ending)
}

func TestEndOfInput(t *testing.T) {
	m := newMachine(t)
	w := &test.Writer{}

	// the final line has no terminator
	c := newConsole(m, "step 2\npipeline", w)
	test.DemandSuccess(t, c.Start())
	test.ExpectEquality(t, m.Pipeline.Stats().Cycles, 2)
	test.ExpectSuccess(t, strings.Contains(w.String(), "fetch"))
}

func TestErrors(t *testing.T) {
	m := newMachine(t)
	w := &test.Writer{}
	c := newConsole(m, "", w)

	err := c.Command("bogus")
	test.ExpectSuccess(t, curated.Is(err, console.UnknownCommand))

	// ambiguous prefix
	err = c.Command("re")
	test.ExpectSuccess(t, curated.Is(err, console.UnknownCommand))

	err = c.Command("step 1 2")
	test.ExpectSuccess(t, curated.Is(err, console.ArgumentCount))

	err = c.Command("load L1D")
	test.ExpectSuccess(t, curated.Is(err, console.ArgumentCount))

	err = c.Command("load L1D zz")
	test.ExpectSuccess(t, curated.Is(err, console.InvalidNumber))

	err = c.Command("radix 7")
	test.ExpectSuccess(t, curated.Is(err, console.InvalidRadix))

	err = c.Command("memviz nothing " + filepath.Join(t.TempDir(), "x.dot"))
	test.ExpectSuccess(t, curated.Is(err, console.InvalidTarget))

	test.ExpectFailure(t, c.Command("regs bogus"))
	test.ExpectFailure(t, c.Command("device L9"))

	// blank lines and comments are ignored
	test.ExpectSuccess(t, c.Command(""))
	test.ExpectSuccess(t, c.Command("  # nothing to see"))

	// errors are printed by the input loop
	w.Clear()
	c = newConsole(m, "bogus\n", w)
	test.DemandSuccess(t, c.Start())
	test.ExpectSuccess(t, strings.Contains(w.String(), "* console: unknown command (bogus)"))
}

func TestMemoryCommands(t *testing.T) {
	m := newMachine(t)
	w := &test.Writer{}
	c := newConsole(m, "", w)

	test.DemandSuccess(t, c.Command("store L1D 0x20 99"))
	test.DemandSuccess(t, c.Command("load L1D $20"))
	test.ExpectSuccess(t, strings.Contains(w.String(), "L1D[0x20] = 0x63"))

	test.DemandSuccess(t, c.Command("radix 10"))
	test.DemandSuccess(t, c.Command("load L1D 32"))
	test.ExpectSuccess(t, strings.Contains(w.String(), "L1D[0x20] = 99"))

	test.DemandSuccess(t, c.Command("policy L1D wtna"))
	test.ExpectSuccess(t, strings.Contains(w.String(), "L1D is writethrough-noallocate"))

	_, l2d, _ := m.Mem.Device("L2D")
	v, _ := l2d.Peek(0x20)
	test.ExpectEquality(t, v, uint64(99))

	// whole line store of a register
	test.DemandSuccess(t, m.Regs.General.Store(0, 7))
	test.DemandSuccess(t, c.Command("radix 16"))
	test.DemandSuccess(t, c.Command("store RAMD 0x40 G0 line"))
	w.Clear()
	test.DemandSuccess(t, c.Command("load RAMD 0x41 LINE"))
	test.ExpectSuccess(t, strings.Contains(w.String(), "= 0x7 0x7 0x7 0x7"))

	w.Clear()
	test.DemandSuccess(t, c.Command("device RAMD 2"))
	test.ExpectSuccess(t, strings.Contains(w.String(), "RAMD"))
}

func TestUndoCommand(t *testing.T) {
	m := newMachine(t)
	w := &test.Writer{}
	c := newConsole(m, "", w)

	test.DemandSuccess(t, m.Regs.Commit(registers.General, 3, 10))
	test.DemandSuccess(t, m.Regs.Commit(registers.General, 3, 20))

	test.DemandSuccess(t, c.Command("undo 1"))
	test.ExpectSuccess(t, strings.Contains(w.String(), "undone 1 (1 remaining)"))
	v, _ := m.Regs.Read(registers.General, 3)
	test.ExpectEquality(t, v, uint64(10))

	test.ExpectFailure(t, c.Command("undo 4"))
}

func TestFiles(t *testing.T) {
	m := newMachine(t)
	w := &test.Writer{}
	c := newConsole(m, "", w)
	dir := t.TempDir()

	test.DemandSuccess(t, c.Command("run"))
	v, _ := m.Regs.Read(registers.General, 2)
	test.DemandEquality(t, v, uint64(12))

	save := filepath.Join(dir, "state.cbor")
	test.DemandSuccess(t, c.Command("save "+save))

	test.DemandSuccess(t, c.Command("reset"))
	v, _ = m.Regs.Read(registers.General, 2)
	test.ExpectEquality(t, v, uint64(0))

	test.DemandSuccess(t, c.Command("restore "+save))
	v, _ = m.Regs.Read(registers.General, 2)
	test.ExpectEquality(t, v, uint64(12))

	viz := filepath.Join(dir, "regs.dot")
	test.DemandSuccess(t, c.Command("memviz regs "+viz))
	st, err := os.Stat(viz)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, st.Size() > 0)

	test.ExpectFailure(t, c.Command("restore "+filepath.Join(dir, "missing")))
}

func TestHelp(t *testing.T) {
	m := newMachine(t)
	w := &test.Writer{}
	c := newConsole(m, "", w)

	test.DemandSuccess(t, c.Command("help"))
	test.ExpectSuccess(t, strings.Contains(w.String(), "STORE device address value|Gn [LINE]"))

	w.Clear()
	test.DemandSuccess(t, c.Command("help pipe"))
	test.ExpectSuccess(t, strings.HasPrefix(w.String(), "PIPELINE [radix]"))
}
