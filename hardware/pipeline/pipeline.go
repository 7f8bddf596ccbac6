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

package pipeline

import (
	"fmt"
	"strings"

	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware/instructions"
	"github.com/pipesim/pipesim/hardware/memory"
	"github.com/pipesim/pipesim/hardware/registers"
	"github.com/pipesim/pipesim/logger"
)

// Sentinal error patterns.
const (
	FetchWiring   = "pipeline: fetch stage holds %s rather than .LOAD_PC"
	FetchLineSize = "pipeline: %s: line size of %d cannot hold a %d bit instruction"
	Halted        = "pipeline: machine has halted"
	WordSize      = "pipeline: unsupported word size (%d)"
)

// Result of a single cycle.
type Result struct {
	// the instruction that left writeback this cycle. nil if no instruction
	// left writeback or if the instruction was a bubble
	Retired *instructions.Instruction

	// writeback holds a HALT instruction. the driver should issue no more
	// cycles
	AboutToHalt bool

	// the cycle number, starting at one
	Cycle int
}

// Pipeline owns the stages and the instructions they hold. The register set
// and the memory hierarchy are shared with the rest of the machine.
type Pipeline struct {
	ids      instructions.IDGenerator
	wordSize int

	regs    *registers.Set
	pending *registers.Pending
	mem     *memory.Hierarchy

	// entry module for each memory type
	entry map[memory.Type]int

	stages [instructions.NumStages]*instructions.Instruction

	halted bool
	stats  Statistics
}

// NewPipeline is the preferred method of initialisation for the Pipeline
// type.
func NewPipeline(ids instructions.IDGenerator, wordSize int, regs *registers.Set, mem *memory.Hierarchy) (*Pipeline, error) {
	if wordSize != instructions.ShortWord && wordSize != instructions.LongWord {
		return nil, curated.Errorf(WordSize, wordSize)
	}

	p := &Pipeline{
		ids:      ids,
		wordSize: wordSize,
		regs:     regs,
		pending:  registers.NewPending(),
		mem:      mem,
		entry:    make(map[memory.Type]int),
	}

	for _, typ := range []memory.Type{memory.Instruction, memory.Data} {
		idx, err := mem.Entry(typ)
		if err != nil {
			return nil, err
		}
		p.entry[typ] = idx
	}

	// LOAD_PC fetches a long word with a single two word request
	if m := mem.Module(p.entry[memory.Instruction]); wordSize == instructions.LongWord && m.LineSize < 2 {
		return nil, curated.Errorf(FetchLineSize, m.Name, m.LineSize, wordSize)
	}

	p.Flush()

	return p, nil
}

func (p *Pipeline) String() string {
	s := strings.Builder{}
	for i, ins := range p.stages {
		if i > 0 {
			s.WriteString(" | ")
		}
		s.WriteString(ins.Header.Mnemonic())
	}
	return s.String()
}

// Flush every stage. Fetch is given a new LOAD_PC instruction, the other
// stages a NOOP. All register reservations are cleared and the halted state
// is forgotten. The program counter is not changed.
func (p *Pipeline) Flush() {
	p.pending.Clear()
	p.stages[instructions.Fetch] = p.internal(instructions.LoadPC)
	for s := instructions.Decode; s <= instructions.Writeback; s++ {
		p.stages[s] = p.internal(instructions.Noop)
	}
	p.halted = false
}

// Reset the pipeline and its statistics.
func (p *Pipeline) Reset() {
	p.Flush()
	p.stats = Statistics{}
}

func (p *Pipeline) internal(h instructions.Header) *instructions.Instruction {
	return instructions.NewInternal(p.ids, h, p.wordSize)
}

// step is the number of short words occupied by an instruction.
func (p *Pipeline) step() uint64 {
	if p.wordSize == instructions.LongWord {
		return 2
	}
	return 1
}

// WordSize returns the word size of the pipeline.
func (p *Pipeline) WordSize() int {
	return p.wordSize
}

// Pending returns the table of pending register reservations.
func (p *Pipeline) Pending() *registers.Pending {
	return p.pending
}

// Stage returns the instruction held by the stage.
func (p *Pipeline) Stage(s instructions.Stage) *instructions.Instruction {
	if s < instructions.Fetch || s > instructions.Writeback {
		return nil
	}
	return p.stages[s]
}

// Halted returns true if a HALT instruction has reached writeback.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Stats returns the statistics for the pipeline.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

func (p *Pipeline) checkFetch() error {
	if ins := p.stages[instructions.Fetch]; ins.Header != instructions.LoadPC {
		return curated.Errorf(FetchWiring, ins.Header.Mnemonic())
	}
	return nil
}

func (p *Pipeline) run(s instructions.Stage) error {
	return p.stages[s].Execute(stageContext{p: p, stage: s})
}

// PreExecute is the first phase of a cycle and must be called before the
// memory hierarchy is ticked. The instructions held by Fetch and Access are
// run so that their memory requests are issued.
//
// If writeback holds a HALT instruction nothing is run.
func (p *Pipeline) PreExecute() error {
	if p.halted {
		return curated.Errorf(Halted)
	}
	if err := p.checkFetch(); err != nil {
		return err
	}
	if p.stages[instructions.Writeback].Header == instructions.Halt {
		return nil
	}

	if err := p.run(instructions.Access); err != nil {
		return err
	}
	return p.run(instructions.Fetch)
}

// Execute is the second phase of a cycle and must be called after the memory
// hierarchy has been ticked.
func (p *Pipeline) Execute() (Result, error) {
	if p.halted {
		return Result{Cycle: p.stats.Cycles}, curated.Errorf(Halted)
	}

	p.stats.Cycles++
	res := Result{Cycle: p.stats.Cycles}

	if err := p.checkFetch(); err != nil {
		return res, err
	}

	wb := p.stages[instructions.Writeback]

	// a HALT in writeback is the last instruction to run
	if wb.Header == instructions.Halt {
		if err := p.run(instructions.Writeback); err != nil {
			return res, err
		}
		p.halted = true
		p.stats.Retired++
		logger.Logf("writeback", "HALT at %#x (cycle %d)", wb.Address, res.Cycle)
		res.Retired = wb
		res.AboutToHalt = true
		return res, nil
	}

	// run every stage, downstream first. a stage that runs later in the loop
	// sees the register writes and redirections made by the stages that ran
	// earlier
	for s := instructions.Writeback; s >= instructions.Fetch; s-- {
		if err := p.run(s); err != nil {
			return res, err
		}

		if s == instructions.Writeback && wb.IsFinished() && wb.Header == instructions.Undo {
			if err := p.undo(wb); err != nil {
				return res, err
			}
			res.Retired = wb
			return res, nil
		}
	}

	res.Retired = p.advance()

	if res.Retired != nil && res.Retired.Header == instructions.ExecutionErr {
		logger.Logf("writeback", "%s at %#x", res.Retired.ErrorDetail(), res.Retired.Address)
	}

	return res, nil
}

// advance moves instructions downstream. returns the instruction retired
// from writeback or nil if the retired instruction was a bubble.
func (p *Pipeline) advance() *instructions.Instruction {
	var advancing [instructions.NumStages]bool

	advancing[instructions.Writeback] = p.stages[instructions.Writeback].IsFinished()
	for s := instructions.Access; s >= instructions.Fetch; s-- {
		advancing[s] = advancing[s+1] && p.stages[s].IsFinished()
	}

	var retired *instructions.Instruction
	if advancing[instructions.Writeback] {
		retired = p.stages[instructions.Writeback]
	}

	for s := instructions.Writeback; s > instructions.Fetch; s-- {
		if !advancing[s] {
			continue
		}

		var ins *instructions.Instruction
		switch {
		case !advancing[s-1]:
			ins = p.internal(instructions.Stall)
			p.stats.Stalls++
		case s-1 == instructions.Fetch:
			ins = p.fetched()
		default:
			ins = p.stages[s-1]
		}

		ins.Enter()
		p.stages[s] = ins
	}

	if advancing[instructions.Fetch] {
		p.stages[instructions.Fetch] = p.internal(instructions.LoadPC)
	}

	if retired == nil || retired.Header.IsBubble() {
		return nil
	}
	p.stats.Retired++
	return retired
}

// fetched creates the instruction loaded by the LOAD_PC instruction in
// fetch and moves the program counter on to the next instruction.
func (p *Pipeline) fetched() *instructions.Instruction {
	ld := p.stages[instructions.Fetch]

	// the LOAD_PC instruction is finished so there is always a word
	w, _ := ld.Fetched()
	ins := instructions.New(p.ids, w)
	ins.Address = ld.Address

	p.regs.SetPC(ld.Address + p.step())

	return ins
}

// redirect the flow of control to the target address. the instructions in
// decode and fetch are quashed. any memory request already issued by fetch
// completes but the result is never used.
func (p *Pipeline) redirect(target uint64) {
	p.regs.SetPC(target)
	p.quash(instructions.Decode, instructions.QuashBranch)
	p.stages[instructions.Fetch] = p.internal(instructions.LoadPC)
	p.stats.Quashed++
}

// quash replaces the instruction in the stage with a bubble. any register
// reservation made by the quashed instruction is released.
func (p *Pipeline) quash(s instructions.Stage, h instructions.Header) {
	p.pending.ReleaseAll(p.stages[s].ID)
	p.stages[s] = p.internal(h)
}

// undo the register writes requested by the UNDO instruction in writeback.
// every instruction upstream of writeback is quashed and execution continues
// from the instruction after the UNDO.
func (p *Pipeline) undo(ins *instructions.Instruction) error {
	if err := p.regs.Undo(ins.Quantity, ins.Skip); err != nil {
		return err
	}

	p.pending.Clear()
	for s := instructions.Decode; s <= instructions.Access; s++ {
		p.quash(s, instructions.QuashUndo)
	}
	p.stages[instructions.Fetch] = p.internal(instructions.LoadPC)
	p.stages[instructions.Writeback] = p.internal(instructions.Noop)
	p.regs.SetPC(ins.Address + p.step())

	p.stats.Quashed++
	p.stats.Undos++
	p.stats.Retired++

	logger.Logf("writeback", "UNDO %d, %d at %#x", ins.Quantity, ins.Skip, ins.Address)

	return nil
}

// Dump returns a description of every stage. Operand values are formatted
// in the radix.
func (p *Pipeline) Dump(radix int) string {
	s := strings.Builder{}
	for i, ins := range p.stages {
		st := instructions.Stage(i)
		s.WriteString(fmt.Sprintf("%-9s #%-5d %#06x %-24s [%s]", st, ins.ID, ins.Address, ins, ins.State()))

		var ops []string
		for n := 0; n < instructions.MaxOperands; n++ {
			if op, ok := ins.Source(n); ok {
				ops = append(ops, fmt.Sprintf("%s=%s", op, ins.SourceText(n, radix)))
			}
		}
		for n := 0; n < instructions.MaxOperands; n++ {
			if op, ok := ins.Destination(n); ok {
				ops = append(ops, fmt.Sprintf("->%s", op))
			}
		}
		if len(ops) > 0 {
			s.WriteString(" ")
			s.WriteString(strings.Join(ops, " "))
		}
		if req := ins.Request(); req != nil {
			s.WriteString(fmt.Sprintf(" {%s}", req))
		}
		s.WriteString("\n")
	}
	return strings.TrimSuffix(s.String(), "\n")
}
