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
	"github.com/pipesim/pipesim/hardware/instructions"
	"github.com/pipesim/pipesim/hardware/memory"
	"github.com/pipesim/pipesim/hardware/registers"
)

// stageContext is the view of the pipeline given to the instruction held by
// a single stage. it implements the instructions.Context interface.
type stageContext struct {
	p     *Pipeline
	stage instructions.Stage
}

func (ctx stageContext) Stage() instructions.Stage {
	return ctx.stage
}

func (ctx stageContext) WordSize() int {
	return ctx.p.wordSize
}

func (ctx stageContext) Registers() *registers.Set {
	return ctx.p.regs
}

func (ctx stageContext) Pending() *registers.Pending {
	return ctx.p.pending
}

func (ctx stageContext) Issue(typ memory.Type, req *memory.Request) error {
	idx, ok := ctx.p.entry[typ]
	if !ok {
		var err error
		idx, err = ctx.p.mem.Entry(typ)
		if err != nil {
			return err
		}
		ctx.p.entry[typ] = idx
	}
	return ctx.p.mem.Issue(idx, req)
}

func (ctx stageContext) Redirect(target uint64) {
	ctx.p.redirect(target)
}
