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

package hardware

import (
	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/govern"
	"github.com/pipesim/pipesim/hardware/instance"
	"github.com/pipesim/pipesim/hardware/instructions"
	"github.com/pipesim/pipesim/hardware/memory"
	"github.com/pipesim/pipesim/hardware/pipeline"
	"github.com/pipesim/pipesim/hardware/preferences"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/logger"
)

// Sentinal error patterns.
const (
	NotRunnable   = "machine: cannot step a machine that is %s"
	ManualTimeout = "machine: manual %s did not complete in %d ticks"
	UnknownBank   = "machine: unknown register bank (%s)"
)

// ManualTickLimit is the maximum number of ticks a manual memory operation
// is given to complete.
const ManualTickLimit = 100000

// configuration of the machine, from the preferences and the image header.
type config struct {
	wordSize         int
	generalRegisters int
	callStackSize    int
	reversalDepth    int
	addressBits      int
}

// Machine is the complete simulated processor: the register banks, the
// memory hierarchy and the pipeline.
type Machine struct {
	Instance *instance.Instance

	Regs     *registers.Set
	Mem      *memory.Hierarchy
	Pipeline *pipeline.Pipeline

	cfg   config
	state govern.State

	// the most recent program and data images. used by Reset()
	program []uint32
	data    []uint64
}

// NewMachine creates a new machine and everything associated with the
// hardware. The prefs argument can be nil, in which case the default
// preferences file is used.
func NewMachine(prefs *preferences.Preferences) (*Machine, error) {
	var err error

	m := &Machine{}

	m.Instance, err = instance.NewInstance(prefs)
	if err != nil {
		return nil, err
	}

	m.cfg = m.prefsConfig()
	if err := m.build(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Machine) prefsConfig() config {
	p := m.Instance.Prefs
	return config{
		wordSize:         p.WordSize.Get().(int),
		generalRegisters: p.GeneralRegisters.Get().(int),
		callStackSize:    p.CallStackSize.Get().(int),
		reversalDepth:    p.ReversalDepth.Get().(int),
		addressBits:      p.AddressSpaceBits.Get().(int),
	}
}

// build the hardware from the current configuration.
func (m *Machine) build() error {
	top, err := m.Instance.Prefs.LoadTopology()
	if err != nil {
		return err
	}

	regs, err := registers.NewSet(m.cfg.generalRegisters, m.cfg.wordSize, m.cfg.callStackSize,
		m.cfg.reversalDepth, m.cfg.addressBits)
	if err != nil {
		return err
	}

	mem, err := memory.NewHierarchyFromTopology(top, m.cfg.wordSize, m.cfg.addressBits, m.Instance)
	if err != nil {
		return err
	}

	pl, err := pipeline.NewPipeline(m.Instance, m.cfg.wordSize, regs, mem)
	if err != nil {
		return err
	}

	m.Regs = regs
	m.Mem = mem
	m.Pipeline = pl
	m.state = govern.Initialising

	return nil
}

// Restored is called after the machine state has been replaced from a
// checkpoint. The pipeline is flushed, in-flight memory requests are dropped
// and the machine is paused.
func (m *Machine) Restored() {
	m.Mem.Drain()
	m.Pipeline.Flush()
	m.state = govern.Paused
}

// End the machine. No more cycles will be run until the machine is reset or
// given a new program.
func (m *Machine) End() {
	m.state = govern.Ending
}

// WordSize returns the word size of the machine.
func (m *Machine) WordSize() int {
	return m.cfg.wordSize
}

// State returns the current state of the machine.
func (m *Machine) State() govern.State {
	return m.state
}

// LoadProgram rebuilds the machine for the program image and loads the image
// into instruction memory, starting at address zero. The program counter is
// set to the first word after the image header.
func (m *Machine) LoadProgram(words []uint32) error {
	hdr, err := ParseImageHeader(words)
	if err != nil {
		return err
	}

	cfg := m.prefsConfig()
	if hdr.Explicit&ExplicitWordSize == ExplicitWordSize {
		cfg.wordSize = hdr.WordSize
	}
	if hdr.Explicit&ExplicitCallSize == ExplicitCallSize {
		cfg.callStackSize = hdr.CallStackSize
	}
	if hdr.Explicit&ExplicitReversal == ExplicitReversal {
		cfg.reversalDepth = hdr.ReversalDepth
	}

	m.Instance.Normalise()
	m.cfg = cfg
	if err := m.build(); err != nil {
		return err
	}

	img := make([]uint64, len(words))
	for i, w := range words {
		img[i] = uint64(w)
	}
	if err := m.Mem.LoadImage(memory.Instruction, img); err != nil {
		return err
	}

	m.program = words
	m.data = nil

	// the final instruction should be a HALT. a long word instruction starts
	// with its most significant short word
	last := len(words) - 1
	if cfg.wordSize == instructions.LongWord {
		last--
	}
	if last < HeaderWords || uint8(words[last]>>26) != instructions.Halt.Bits() {
		logger.Log("image", "program does not end with HALT")
	}

	m.Regs.SetPC(HeaderWords)
	m.state = govern.Paused

	return nil
}

// LoadData loads the data image into data memory, starting at address zero.
func (m *Machine) LoadData(words []uint64) error {
	if err := m.Mem.LoadImage(memory.Data, words); err != nil {
		return err
	}
	m.data = words
	return nil
}

// Reset the machine to the state immediately after the most recent program
// and data images were loaded.
func (m *Machine) Reset() error {
	if m.program == nil {
		m.Instance.Normalise()
		m.cfg = m.prefsConfig()
		return m.build()
	}

	data := m.data
	if err := m.LoadProgram(m.program); err != nil {
		return err
	}
	if data != nil {
		return m.LoadData(data)
	}
	return nil
}

// Step the machine one cycle. A step outside of Run leaves the machine in
// the Stepping state.
func (m *Machine) Step() (pipeline.Result, error) {
	if m.state.Terminal() {
		return pipeline.Result{}, curated.Errorf(NotRunnable, m.state)
	}

	if err := m.Pipeline.PreExecute(); err != nil {
		m.state = govern.Errored
		return pipeline.Result{}, err
	}

	if err := m.Mem.Tick(); err != nil {
		m.state = govern.Errored
		return pipeline.Result{}, err
	}

	res, err := m.Pipeline.Execute()
	if err != nil {
		m.state = govern.Errored
		return res, err
	}

	switch {
	case res.AboutToHalt:
		m.state = govern.Halted
	case res.Retired != nil && res.Retired.Header == instructions.ExecutionErr:
		m.state = govern.Errored
	case m.state != govern.Running:
		m.state = govern.Stepping
	}

	return res, nil
}

// Run the machine until it halts, an EXECUTION_ERR instruction retires, a
// fatal error occurs or the number of cycles have been run. A cycles value of
// zero or less means no limit.
//
// The continueCheck function is called after every cycle. Running continues
// for as long as it returns govern.Running. It can be nil.
func (m *Machine) Run(cycles int, continueCheck func() (govern.State, error)) (pipeline.Result, error) {
	if continueCheck == nil {
		continueCheck = func() (govern.State, error) { return govern.Running, nil }
	}

	var res pipeline.Result
	var err error

	for i := 0; cycles <= 0 || i < cycles; i++ {
		if !m.state.Terminal() {
			m.state = govern.Running
		}

		res, err = m.Step()
		if err != nil {
			return res, err
		}
		if m.state.Terminal() {
			return res, nil
		}

		state, err := continueCheck()
		if err != nil {
			return res, err
		}
		if state != govern.Running {
			break
		}
	}

	m.state = govern.Paused
	return res, nil
}

// complete ticks the memory hierarchy until every request has finished.
// returns the number of ticks.
func (m *Machine) complete(op string, reqs ...*memory.Request) (int, error) {
	ticks := 0
	for _, r := range reqs {
		for !r.IsFinished() {
			if ticks >= ManualTickLimit {
				return ticks, curated.Errorf(ManualTimeout, op, ManualTickLimit)
			}
			if err := m.Mem.Tick(); err != nil {
				return ticks, err
			}
			ticks++
		}
	}
	return ticks, nil
}

func (m *Machine) device(name string) (int, *memory.Module, error) {
	idx, mod, ok := m.Mem.Device(name)
	if !ok {
		return -1, nil, curated.Errorf(memory.UnknownDevice, name)
	}
	return idx, mod, nil
}

// ManualLoad loads from the named device as though the request was made by
// an instruction. If line is true the whole line containing the address is
// loaded. Returns the loaded words and the number of ticks taken.
func (m *Machine) ManualLoad(device string, address uint64, line bool) ([]uint64, int, error) {
	idx, mod, err := m.device(device)
	if err != nil {
		return nil, 0, err
	}

	req := memory.NewLoad(0, address, 1)
	if line {
		_, base := mod.Map(address)
		req = memory.NewLoad(0, base, mod.LineSize)
		req.Line = true
	}

	if err := m.Mem.Issue(idx, req); err != nil {
		return nil, 0, err
	}

	ticks, err := m.complete("load", req)
	if err != nil {
		return nil, ticks, err
	}

	return req.Result, ticks, nil
}

// ManualStore stores the value to the named device as though the request was
// made by an instruction. If line is true every word of the line containing
// the address is given the value. Returns the number of ticks taken.
func (m *Machine) ManualStore(device string, address uint64, value uint64, line bool) (int, error) {
	idx, mod, err := m.device(device)
	if err != nil {
		return 0, err
	}

	req := memory.NewStore(0, address, value)
	if line {
		_, base := mod.Map(address)
		words := make([]uint64, mod.LineSize)
		for i := range words {
			words[i] = value
		}
		req = memory.NewStore(0, base, words...)
		req.Line = true
	}

	if err := m.Mem.Issue(idx, req); err != nil {
		return 0, err
	}

	return m.complete("store", req)
}

// ManualStoreRegister stores the value of a register to the named device.
// The bank is named as in registers.BankFromString().
func (m *Machine) ManualStoreRegister(device string, address uint64, bank string, index int, line bool) (int, error) {
	b, ok := registers.BankFromString(bank)
	if !ok {
		return 0, curated.Errorf(UnknownBank, bank)
	}
	v, err := m.Regs.Read(b, index)
	if err != nil {
		return 0, err
	}
	return m.ManualStore(device, address, v, line)
}

// SetPolicy changes the write policy of the named device. Any lines flushed
// by the change are written to the next level before SetPolicy returns.
// Returns the number of ticks taken.
func (m *Machine) SetPolicy(device string, policy string) (int, error) {
	p, err := memory.ParsePolicy(policy)
	if err != nil {
		return 0, err
	}

	flushed, err := m.Mem.SetPolicy(device, p)
	if err != nil {
		return 0, err
	}

	logger.Logf(device, "write policy is now %s", p)

	return m.complete("policy change", flushed...)
}

// Undo the most recent k register writes, leaving the skip most recent
// writes in place. Instructions already in the pipeline are not affected.
func (m *Machine) Undo(k int, skip int) error {
	return m.Regs.Undo(k, skip)
}

// DumpRegisters returns the contents of the named register bank with values
// formatted in the radix.
func (m *Machine) DumpRegisters(bank string, radix int) (string, error) {
	b, ok := registers.BankFromString(bank)
	if !ok {
		return "", curated.Errorf(UnknownBank, bank)
	}
	return m.Regs.File(b).Dump(radix), nil
}

// DumpDevice returns the contents of the named memory device with values
// formatted in the radix.
func (m *Machine) DumpDevice(name string, radix int) (string, error) {
	return m.Mem.Dump(name, radix)
}

// DumpPipeline returns the state of every pipeline stage with values
// formatted in the radix.
func (m *Machine) DumpPipeline(radix int) string {
	return m.Pipeline.Dump(radix)
}
