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

package instructions

import (
	"github.com/pipesim/pipesim/hardware/registers"
)

func general(index uint8) Operand {
	return Operand{Bank: registers.General, Index: int(index), Valid: true}
}

func internal(index int) Operand {
	return Operand{Bank: registers.Internal, Index: index, Valid: true}
}

// operands builds the operand record from the instruction fields. returns
// an error type if the flags or arguments are invalid.
func (ins *Instruction) operands(numGeneral int) (Operands, ErrorType, bool) {
	var ops Operands

	defn, ok := ins.Header.Definition()
	if !ok || !defn.Implemented {
		return ops, NotImplemented, false
	}

	f := ins.fields
	if f.Flags&F0 == F0 && !defn.Immediate {
		return ops, InvalidFlags, false
	}
	if f.Flags&F1 == F1 && defn.Format != MoveFormat {
		return ops, InvalidFlags, false
	}
	immediate := f.Flags&F0 == F0

	switch defn.Format {
	case Binary:
		ops.Destinations[0] = general(f.Args[0])
		ops.Sources[0] = general(f.Args[1])
		if immediate {
			ops.Immediate = f.signedImmediate()
			ops.HasImmediate = true
		} else {
			ops.Sources[1] = general(f.Args[2])
		}

	case Unary:
		ops.Destinations[0] = general(f.Args[0])
		ops.Sources[0] = general(f.Args[1])

	case Comparison:
		ops.Destinations[0] = internal(registers.CC)
		ops.Sources[0] = general(f.Args[1])
		if immediate {
			ops.Immediate = f.signedImmediate()
			ops.HasImmediate = true
		} else {
			ops.Sources[1] = general(f.Args[2])
		}

	case LoadFormat:
		ops.Destinations[0] = general(f.Args[0])
		if immediate {
			ops.Effective = f.absoluteImmediate()
		} else {
			ops.Sources[0] = general(f.Args[1])
			ops.Immediate = f.signedImmediate()
		}

	case StoreFormat:
		ops.Sources[0] = general(f.Args[0])
		if immediate {
			ops.Effective = f.absoluteImmediate()
		} else {
			ops.Sources[1] = general(f.Args[1])
			ops.Immediate = f.signedImmediate()
		}

	case MoveFormat:
		if f.Flags&F1 == F1 {
			// the program counter cannot be the destination of a MOVE
			if f.Args[0] < registers.CC || f.Args[0] > registers.PR1 {
				return ops, InvalidArgs, false
			}
			ops.Destinations[0] = internal(int(f.Args[0]))
		} else {
			ops.Destinations[0] = general(f.Args[0])
		}
		if immediate {
			ops.Immediate = f.moveImmediate()
			ops.HasImmediate = true
		} else {
			ops.Sources[0] = general(f.Args[1])
		}

	case Target:
		if immediate {
			ops.Target = f.absoluteImmediate()
		} else {
			ops.Sources[0] = general(f.Args[0])
		}
		if ins.Header == BranchIfPredicate && f.Args[1] > 1 {
			return ops, InvalidArgs, false
		}
		if idx, ok := conditionRegister(ins.Header, f.Args[1]); ok {
			ops.Sources[1] = internal(idx)
		}

	case Quantity:
		ops.Quantity = int(f.Args[0])
		ops.Skip = int(f.Args[1])
	}

	// general register indexes must be in range
	for _, op := range append(ops.Sources[:], ops.Destinations[:]...) {
		if op.Valid && op.Bank == registers.General && op.Index >= numGeneral {
			return ops, InvalidArgs, false
		}
	}

	return ops, 0, true
}

// decode validates the instruction and reads its source operands. the
// instruction stalls, remaining NotStarted, while any source register is
// pending or while a destination register is reserved by another
// instruction. once decoded the destination registers are reserved.
func (ins *Instruction) decode(ctx Context) error {
	regs := ctx.Registers()
	pending := ctx.Pending()

	ops, e, ok := ins.operands(regs.General.Len())
	if !ok {
		ins.fail(ctx, e)
		return nil
	}

	for _, op := range ops.Sources {
		if !op.Valid {
			continue
		}
		if _, ok := pending.Pending(op.Bank, op.Index); ok {
			return nil
		}
	}
	for _, op := range ops.Destinations {
		if !op.Valid {
			continue
		}
		if id, ok := pending.Pending(op.Bank, op.Index); ok && id != ins.ID {
			return nil
		}
	}

	for i := range ops.Sources {
		if !ops.Sources[i].Valid {
			continue
		}
		v, err := regs.Read(ops.Sources[i].Bank, ops.Sources[i].Index)
		if err != nil {
			return err
		}
		ops.Sources[i].Value = v
	}

	for _, op := range ops.Destinations {
		if op.Valid {
			pending.Reserve(op.Bank, op.Index, ins.ID)
		}
	}

	ins.Operands = ops
	ins.state = Finished

	return nil
}
