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

// key into the pending table.
type cellKey struct {
	bank  Bank
	index int
}

// Pending records which register cells are waiting to be written by an
// instruction still in the pipeline. An instruction reserves its
// destinations when it is decoded and releases them when it retires or is
// quashed.
type Pending struct {
	owners map[cellKey]uint64
}

// NewPending is the preferred method of initialisation for the Pending type.
func NewPending() *Pending {
	return &Pending{
		owners: make(map[cellKey]uint64),
	}
}

// Reserve the cell for the instruction with the ID. Any existing reservation
// is replaced.
func (p *Pending) Reserve(bank Bank, index int, id uint64) {
	p.owners[cellKey{bank: bank, index: index}] = id
}

// Pending returns the ID of the instruction that has reserved the cell. The
// boolean is false if the cell is not reserved.
func (p *Pending) Pending(bank Bank, index int) (uint64, bool) {
	id, ok := p.owners[cellKey{bank: bank, index: index}]
	return id, ok
}

// Release the reservation on the cell if it is held by the instruction with
// the ID.
func (p *Pending) Release(bank Bank, index int, id uint64) {
	k := cellKey{bank: bank, index: index}
	if p.owners[k] == id {
		delete(p.owners, k)
	}
}

// ReleaseAll removes every reservation held by the instruction with the ID.
func (p *Pending) ReleaseAll(id uint64) {
	for k, v := range p.owners {
		if v == id {
			delete(p.owners, k)
		}
	}
}

// Clear every reservation.
func (p *Pending) Clear() {
	p.owners = make(map[cellKey]uint64)
}

// Len returns the number of reserved cells.
func (p *Pending) Len() int {
	return len(p.owners)
}
