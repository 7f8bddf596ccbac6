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

package preferences_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pipesim/pipesim/hardware/preferences"
	"github.com/pipesim/pipesim/prefs"
	"github.com/pipesim/pipesim/test"
)

func TestDefaults(t *testing.T) {
	p, err := preferences.NewPreferences(filepath.Join(t.TempDir(), "prefs.toml"))
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, p.WordSize.Get().(int), 32)
	test.ExpectEquality(t, p.GeneralRegisters.Get().(int), 16)
	test.ExpectEquality(t, p.CallStackSize.Get().(int), 16)
	test.ExpectEquality(t, p.ReversalDepth.Get().(int), 32)
	test.ExpectEquality(t, p.AddressSpaceBits.Get().(int), 16)

	top, err := p.LoadTopology()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(top.Devices), 5)
	test.ExpectSuccess(t, top.Validate())
}

func TestValueChecks(t *testing.T) {
	p, err := preferences.NewPreferences(filepath.Join(t.TempDir(), "prefs.toml"))
	test.DemandSuccess(t, err)

	test.ExpectFailure(t, p.WordSize.Set(48))
	test.ExpectEquality(t, p.WordSize.Get().(int), 32)
	test.ExpectSuccess(t, p.WordSize.Set(64))
	test.ExpectEquality(t, p.WordSize.Get().(int), 64)

	test.ExpectFailure(t, p.GeneralRegisters.Set(0))
	test.ExpectFailure(t, p.GeneralRegisters.Set(257))
	test.ExpectFailure(t, p.AddressSpaceBits.Set(21))
}

func TestSaveAndLoad(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "prefs.toml")

	p, err := preferences.NewPreferences(pth)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, p.WordSize.Set(64))
	test.DemandSuccess(t, p.CallStackSize.Set(8))
	test.DemandSuccess(t, p.Save())

	q, err := preferences.NewPreferences(pth)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, q.WordSize.Get().(int), 64)
	test.ExpectEquality(t, q.CallStackSize.Get().(int), 8)

	// command line overrides disk
	prefs.PushCommandLineStack("machine.callStackSize::4")
	r, err := preferences.NewPreferences(pth)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "")
	test.ExpectEquality(t, r.CallStackSize.Get().(int), 4)
}

const topologyFile = `
[[device]]
name = "L1"
kind = "cache"
type = "data"
policy = "writeback"
lines = 8
lineSize = 2
accessDelay = 1
next = "RAM"

[[device]]
name = "RAM"
kind = "ram"
type = "data"
lineSize = 2
accessDelay = 5
`

func TestLoadTopology(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "topology.toml")
	test.DemandSuccess(t, os.WriteFile(pth, []byte(topologyFile), 0600))

	top, err := preferences.LoadTopology(pth)
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(top.Devices), 2)
	test.ExpectEquality(t, top.Devices[0].Name, "L1")
	test.ExpectEquality(t, top.Devices[0].Lines, 8)
	test.ExpectEquality(t, top.Devices[0].Next, "RAM")
	test.ExpectEquality(t, top.Devices[1].AccessDelay, 5)
	test.ExpectEquality(t, top.Devices[1].Next, "")
}

func TestInvalidTopology(t *testing.T) {
	_, err := preferences.ParseTopology(`
[[device]]
name = "L1"
next = "L2"
`)
	test.ExpectFailure(t, err)

	_, err = preferences.ParseTopology(`
[[device]]
name = "A"
[[device]]
name = "a"
`)
	test.ExpectFailure(t, err)

	_, err = preferences.ParseTopology("")
	test.ExpectFailure(t, err)
}
