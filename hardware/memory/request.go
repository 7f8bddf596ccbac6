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

package memory

import (
	"fmt"

	"github.com/pipesim/pipesim/curated"
)

// Sentinal error patterns for the Request type.
const (
	// TimerNotStarted is the panic value when the timer of a request is
	// queried before Start() has been called
	TimerNotStarted = "memory: request %d: timer not started"
)

// Operation is the kind of memory access.
type Operation int

// List of valid Operations.
const (
	Load Operation = iota
	Store
)

func (op Operation) String() string {
	switch op {
	case Load:
		return "LOAD"
	case Store:
		return "STORE"
	}
	return "unknown operation"
}

// Request is a timed load or store addressed to a single module.
type Request struct {
	// assigned by the hierarchy when the request is issued, if not already set
	ID uint64

	// ID of the instruction that issued the request. zero for requests
	// issued by the driver or by another module
	Caller uint64

	Op      Operation
	Address uint64

	// values to store. for a line store the length of Words must equal the
	// line size of the module
	Words []uint64

	// number of words to load. zero is treated as one. ignored for line
	// requests
	Length int

	// the request covers the entire line containing Address
	Line bool

	// the loaded words. valid once the request has finished
	Result []uint64

	started   bool
	remaining int
	finished  bool

	// work done when the request reaches the head of the queue
	prepared bool
	work     preparation
}

// NewLoad creates a load request for length words starting at address.
func NewLoad(caller uint64, address uint64, length int) *Request {
	return &Request{
		Caller:  caller,
		Op:      Load,
		Address: address,
		Length:  length,
	}
}

// NewStore creates a store request for the words starting at address.
func NewStore(caller uint64, address uint64, words ...uint64) *Request {
	return &Request{
		Caller:  caller,
		Op:      Store,
		Address: address,
		Words:   words,
		Length:  len(words),
	}
}

func (r *Request) String() string {
	s := fmt.Sprintf("#%d %s %#x", r.ID, r.Op, r.Address)
	if r.Line {
		s = fmt.Sprintf("%s LINE", s)
	} else if r.span() > 1 {
		s = fmt.Sprintf("%s (%d words)", s, r.span())
	}
	if r.started && !r.finished {
		s = fmt.Sprintf("%s [%d]", s, r.remaining)
	}
	return s
}

// number of words covered by a non-line request.
func (r *Request) span() int {
	if r.Op == Store {
		return len(r.Words)
	}
	if r.Length <= 0 {
		return 1
	}
	return r.Length
}

// Start the timer of the request.
func (r *Request) Start(delay int) {
	if delay < 0 {
		delay = 0
	}
	r.started = true
	r.remaining = delay
}

// Tick decrements the timer of the request. Panics if the timer has not been
// started.
func (r *Request) Tick() {
	if !r.started {
		panic(curated.Errorf(TimerNotStarted, r.ID))
	}
	if r.remaining > 0 {
		r.remaining--
	}
}

// Remaining returns the number of ticks before the timer reaches zero.
// Panics if the timer has not been started.
func (r *Request) Remaining() int {
	if !r.started {
		panic(curated.Errorf(TimerNotStarted, r.ID))
	}
	return r.remaining
}

// IsFinished returns true once the module has completed the request. Panics
// if the timer has not been started.
func (r *Request) IsFinished() bool {
	if !r.started {
		panic(curated.Errorf(TimerNotStarted, r.ID))
	}
	return r.finished
}
