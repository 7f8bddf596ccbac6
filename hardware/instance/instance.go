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

// Package instance defines those parts of the simulation that might change
// from session to session but are not the machine itself: the session label,
// the preferences and the generators for instruction and request IDs.
//
// Keeping the ID generators here rather than in package level variables
// means that more than one machine can run in the same process without the
// IDs of one session affecting another.
package instance

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pipesim/pipesim/hardware/preferences"
)

// Instance defines those parts of the simulation that might change between
// different instantiations of the Machine type.
type Instance struct {
	// unique label for the session. used to tag checkpoints
	Label uuid.UUID

	// the preferences of the running instance. the preferences can be shared
	// with other running instances
	Prefs *preferences.Preferences

	instructionID atomic.Uint64
	requestID     atomic.Uint64
}

// NewInstance is the preferred method of initialisation for the Instance
// type.
//
// The prefs argument can be nil, in which case a new preferences instance is
// created with the default preferences file.
func NewInstance(prefs *preferences.Preferences) (*Instance, error) {
	ins := &Instance{
		Label: uuid.New(),
	}

	if prefs == nil {
		var err error
		prefs, err = preferences.NewPreferences("")
		if err != nil {
			return nil, err
		}
	}

	ins.Prefs = prefs

	return ins, nil
}

// NextInstructionID returns the next identifier for an instruction. The first
// identifier is 1. Zero is never returned and can be used to mean "no
// instruction".
func (ins *Instance) NextInstructionID() uint64 {
	return ins.instructionID.Add(1)
}

// NextRequestID returns the next identifier for a memory request. As with
// instructions, zero is never returned.
func (ins *Instance) NextRequestID() uint64 {
	return ins.requestID.Add(1)
}

// Normalise resets the ID generators. Used when the machine is reset so that
// the IDs of two runs of the same program are the same.
func (ins *Instance) Normalise() {
	ins.instructionID.Store(0)
	ins.requestID.Store(0)
}
