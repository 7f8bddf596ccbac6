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
	"strings"

	"github.com/pipesim/pipesim/curated"
	"github.com/pipesim/pipesim/hardware/term"
	"github.com/pipesim/pipesim/logger"
)

// Sentinal error patterns for the Module type.
const (
	CrossesLine   = "memory: %s: request %v crosses a line boundary"
	LineMismatch  = "memory: %s: line store of %d words to %d word lines"
	NoWritePolicy = "memory: %s: ram has no write policy"
	UnknownPolicy = "memory: unknown write policy (%v)"
)

// Kind of memory module.
type Kind int

// List of valid Kinds.
const (
	Cache Kind = iota
	RAM
)

func (k Kind) String() string {
	switch k {
	case Cache:
		return "cache"
	case RAM:
		return "ram"
	}
	return "unknown kind"
}

// ParseKind converts a string to a Kind. Case insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cache":
		return Cache, nil
	case "ram", "memory":
		return RAM, nil
	}
	return Cache, curated.Errorf("memory: unknown kind (%s)", s)
}

// Type of the information held by the memory module.
type Type int

// List of valid Types.
const (
	Instruction Type = iota
	Data
)

func (t Type) String() string {
	switch t {
	case Instruction:
		return "instruction"
	case Data:
		return "data"
	}
	return "unknown type"
}

// ParseType converts a string to a Type. Case insensitive.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instruction", "inst", "i":
		return Instruction, nil
	case "data", "d":
		return Data, nil
	}
	return Data, curated.Errorf("memory: unknown type (%s)", s)
}

// Policy is the write policy of a cache.
type Policy int

// List of valid Policies.
const (
	WriteThroughNoAllocate Policy = iota
	WriteBack
	WriteThroughAllocate
)

func (p Policy) String() string {
	switch p {
	case WriteThroughNoAllocate:
		return "writethrough-noallocate"
	case WriteBack:
		return "writeback"
	case WriteThroughAllocate:
		return "writethrough-allocate"
	}
	return "unknown policy"
}

// ParsePolicy converts a string to a Policy. Case insensitive. Both the long
// names and the abbreviations WTNA, WB and WTA are accepted.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "writethrough-noallocate", "wtna", "":
		return WriteThroughNoAllocate, nil
	case "writeback", "wb":
		return WriteBack, nil
	case "writethrough-allocate", "wta":
		return WriteThroughAllocate, nil
	}
	return WriteThroughNoAllocate, curated.Errorf(UnknownPolicy, s)
}

// Valid returns true if the Policy is one of the listed policies.
func (p Policy) Valid() bool {
	return p >= WriteThroughNoAllocate && p <= WriteThroughAllocate
}

// Line is the unit of storage in a module.
type Line struct {
	Valid bool
	Dirty bool

	// address of the first word in the line. always a multiple of the line
	// size
	Base uint64

	Words []uint64
}

// Module is one level of the memory hierarchy.
type Module struct {
	Name        string
	Kind        Kind
	Type        Type
	WordLength  int
	LineSize    int
	AccessDelay int

	policy Policy
	lines  []Line

	offsetBits  int
	addressMask uint64

	// index of the next slower module in the hierarchy. -1 if there is none
	next int

	queue []*Request
	h     *Hierarchy
}

// the work done when the request reaches the head of the queue.
type preparation struct {
	// the policy in effect when the request was prepared
	policy Policy

	index int
	base  uint64
	hit   bool

	// requests issued to the next level
	flush   *Request
	fetch   *Request
	forward *Request

	// true if the line is to be installed when the request completes
	install bool
}

func (m *Module) String() string {
	s := fmt.Sprintf("%s (%s %s, %d lines x %d words, delay %d", m.Name, m.Type, m.Kind, len(m.lines), m.LineSize, m.AccessDelay)
	if m.Kind == Cache {
		s = fmt.Sprintf("%s, %s", s, m.policy)
	}
	return s + ")"
}

// Policy returns the current write policy of the module.
func (m *Module) Policy() Policy {
	return m.policy
}

// Next returns the index of the next slower module. The boolean is false if
// there is no next module.
func (m *Module) Next() (int, bool) {
	return m.next, m.next >= 0
}

// NumLines returns the number of lines in the module.
func (m *Module) NumLines() int {
	return len(m.lines)
}

// Pending returns the number of requests in the queue.
func (m *Module) Pending() int {
	return len(m.queue)
}

// Lines returns a copy of every line in the module.
func (m *Module) Lines() []Line {
	c := make([]Line, len(m.lines))
	for i, l := range m.lines {
		c[i] = l
		c[i].Words = make([]uint64, len(l.Words))
		copy(c[i].Words, l.Words)
	}
	return c
}

// Line returns a copy of the line at the index.
func (m *Module) Line(index int) (Line, bool) {
	if index < 0 || index >= len(m.lines) {
		return Line{}, false
	}
	l := m.lines[index]
	l.Words = make([]uint64, len(m.lines[index].Words))
	copy(l.Words, m.lines[index].Words)
	return l, true
}

// CheckRestore returns an error if the lines and policy cannot be restored
// into the module. The module is not changed.
func (m *Module) CheckRestore(lines []Line, p Policy) error {
	if len(lines) != len(m.lines) {
		return curated.Errorf("memory: %s: restore of %d lines into %d", m.Name, len(lines), len(m.lines))
	}
	for i := range lines {
		if len(lines[i].Words) != m.LineSize {
			return curated.Errorf(LineMismatch, m.Name, len(lines[i].Words), m.LineSize)
		}
	}
	if !p.Valid() {
		return curated.Errorf(UnknownPolicy, int(p))
	}
	return nil
}

// RestoreLines replaces the contents of the module. Used when restoring a
// checkpoint.
func (m *Module) RestoreLines(lines []Line) error {
	if err := m.CheckRestore(lines, m.policy); err != nil {
		return err
	}
	for i := range lines {
		m.lines[i].Valid = lines[i].Valid || m.Kind == RAM
		m.lines[i].Dirty = lines[i].Dirty
		m.lines[i].Base = lines[i].Base
		for j := range lines[i].Words {
			m.lines[i].Words[j] = m.mask(lines[i].Words[j])
		}
	}
	return nil
}

// RestorePolicy sets the write policy without flushing. Used when restoring
// a checkpoint, where the dirty state of every line is restored alongside the
// policy.
func (m *Module) RestorePolicy(p Policy) error {
	if m.Kind == RAM {
		return curated.Errorf(NoWritePolicy, m.Name)
	}
	if !p.Valid() {
		return curated.Errorf(UnknownPolicy, int(p))
	}
	m.policy = p
	return nil
}

func (m *Module) mask(v uint64) uint64 {
	if m.WordLength >= 64 {
		return v
	}
	return v & ((uint64(1) << m.WordLength) - 1)
}

// Map returns the index of the line the address maps to and the base
// address of the line containing the address.
func (m *Module) Map(address uint64) (int, uint64) {
	address &= m.addressMask
	lineAddr := address >> m.offsetBits
	return int(lineAddr % uint64(len(m.lines))), lineAddr << m.offsetBits
}

// lookup returns the line index, the line base and whether the line is
// present. ram always hits.
func (m *Module) lookup(address uint64) (int, uint64, bool) {
	idx, base := m.Map(address)
	if m.Kind == RAM {
		return idx, base, true
	}
	l := &m.lines[idx]
	return idx, base, l.Valid && l.Base == base
}

// Peek returns the value at the address if it is held by the module. Does
// not affect timing or state.
func (m *Module) Peek(address uint64) (uint64, bool) {
	idx, base, hit := m.lookup(address)
	if !hit {
		return 0, false
	}
	return m.lines[idx].Words[(address&m.addressMask)-base], true
}

// Poke writes a value directly into the line holding the address. The line
// must be present. Used to load memory images. Does not affect timing.
func (m *Module) Poke(address uint64, value uint64) error {
	idx, base, hit := m.lookup(address)
	if !hit {
		return curated.Errorf("memory: %s: poke to absent line (%#x)", m.Name, address)
	}
	m.lines[idx].Words[(address&m.addressMask)-base] = m.mask(value)
	return nil
}

// check that the request can be serviced by the module.
func (m *Module) validate(req *Request) error {
	if req.Line {
		if req.Op == Store && len(req.Words) != m.LineSize {
			return curated.Errorf(LineMismatch, m.Name, len(req.Words), m.LineSize)
		}
		return nil
	}
	offset := int((req.Address & m.addressMask) & uint64(m.LineSize-1))
	if req.span() == 0 || offset+req.span() > m.LineSize {
		return curated.Errorf(CrossesLine, m.Name, req)
	}
	return nil
}

// issue a request to the next level. returns nil if there is no next level.
func (m *Module) issueNext(req *Request) (*Request, error) {
	if m.next < 0 {
		return nil, nil
	}
	return req, m.h.Issue(m.next, req)
}

// prepare the head request. called once per request.
func (m *Module) prepare(req *Request) error {
	req.prepared = true

	w := preparation{policy: m.policy}
	w.index, w.base, w.hit = m.lookup(req.Address)

	var err error

	if m.Kind == Cache {
		switch req.Op {
		case Load:
			if !w.hit {
				err = m.fill(&w)
			}
		case Store:
			switch w.policy {
			case WriteThroughNoAllocate:
				err = m.forward(&w, req)
			case WriteBack:
				if !w.hit {
					err = m.fill(&w)
				}
			case WriteThroughAllocate:
				if !w.hit {
					err = m.fill(&w)
				}
				if err == nil {
					err = m.forward(&w, req)
				}
			}
		}
	}

	req.work = w
	return err
}

// fill prepares a line for installation. a dirty victim is flushed to the
// next level before the new line is fetched. the contents of the flush are
// taken now, before the line is replaced.
func (m *Module) fill(w *preparation) error {
	w.install = true
	victim := &m.lines[w.index]

	if victim.Valid && victim.Dirty {
		if m.next < 0 {
			logger.Logf(m.Name, "dirty line %#x evicted with no next level", victim.Base)
		} else {
			words := make([]uint64, len(victim.Words))
			copy(words, victim.Words)
			var err error
			w.flush, err = m.issueNext(NewStore(0, victim.Base, words...))
			if err != nil {
				return err
			}
		}
		victim.Dirty = false
	}

	if m.next < 0 {
		logger.Logf(m.Name, "line %#x absent with no next level. treating as zero", w.base)
		return nil
	}

	var err error
	w.fetch, err = m.issueNext(NewLoad(0, w.base, m.LineSize))
	return err
}

// forward a store to the next level.
func (m *Module) forward(w *preparation, req *Request) error {
	if m.next < 0 {
		logger.Logf(m.Name, "store to %#x with no next level", req.Address)
		return nil
	}

	var fw *Request
	if req.Line {
		fw = NewStore(0, w.base, req.Words...)
	} else {
		fw = NewStore(0, req.Address, req.Words...)
	}

	var err error
	w.forward, err = m.issueNext(fw)
	return err
}

// outstanding returns true if a request issued to the next level on behalf
// of the request has not finished.
func (w preparation) outstanding() bool {
	for _, r := range []*Request{w.flush, w.fetch, w.forward} {
		if r != nil && !r.finished {
			return true
		}
	}
	return false
}

// complete applies the logical operation of the request.
func (m *Module) complete(req *Request) {
	w := req.work
	line := &m.lines[w.index]

	if w.install {
		line.Valid = true
		line.Dirty = false
		line.Base = w.base
		for i := range line.Words {
			line.Words[i] = 0
		}
		if w.fetch != nil {
			copy(line.Words, w.fetch.Result)
		}
	}

	offset := int((req.Address & m.addressMask) - w.base)

	switch req.Op {
	case Load:
		if req.Line {
			req.Result = make([]uint64, len(line.Words))
			copy(req.Result, line.Words)
		} else {
			req.Result = make([]uint64, req.span())
			copy(req.Result, line.Words[offset:])
		}

	case Store:
		if req.Line {
			offset = 0
		}

		if m.Kind == Cache && w.policy == WriteThroughNoAllocate {
			if line.Valid && line.Base == w.base {
				line.Valid = false
				line.Dirty = false
			}
			break
		}

		for i, v := range req.Words {
			line.Words[offset+i] = m.mask(v)
		}
		if m.Kind == Cache && w.policy == WriteBack {
			if m.policy == WriteBack {
				line.Dirty = true
			} else {
				m.writeThrough(line)
			}
		}
	}

	req.finished = true
}

// writeThrough sends the line to the next level. used for a store prepared
// under write-back that completes after the policy has changed.
func (m *Module) writeThrough(line *Line) {
	if m.next < 0 {
		logger.Logf(m.Name, "store to line %#x with no next level", line.Base)
		return
	}
	words := make([]uint64, len(line.Words))
	copy(words, line.Words)
	if _, err := m.issueNext(NewStore(0, line.Base, words...)); err != nil {
		logger.Logf(m.Name, "line %#x not written through: %v", line.Base, err)
		line.Dirty = true
	}
}

// prepareHead is the first phase of a tick.
func (m *Module) prepareHead() error {
	if len(m.queue) == 0 {
		return nil
	}
	if head := m.queue[0]; !head.prepared {
		return m.prepare(head)
	}
	return nil
}

// advanceHead is the second phase of a tick.
func (m *Module) advanceHead() {
	if len(m.queue) == 0 {
		return
	}

	head := m.queue[0]
	if !head.prepared || head.work.outstanding() {
		return
	}

	if head.Remaining() > 0 {
		head.Tick()
		return
	}

	m.complete(head)
	m.queue[0] = nil
	m.queue = m.queue[1:]
}

// setPolicy changes the write policy. leaving write-back flushes every dirty
// line to the next level.
func (m *Module) setPolicy(p Policy) ([]*Request, error) {
	if m.Kind == RAM {
		return nil, curated.Errorf(NoWritePolicy, m.Name)
	}

	var flushed []*Request

	if m.policy == WriteBack && p != WriteBack {
		for i := range m.lines {
			l := &m.lines[i]
			if !l.Valid || !l.Dirty {
				continue
			}
			if m.next < 0 {
				logger.Logf(m.Name, "dirty line %#x with no next level to flush to", l.Base)
			} else {
				words := make([]uint64, len(l.Words))
				copy(words, l.Words)
				r, err := m.issueNext(NewStore(0, l.Base, words...))
				if err != nil {
					return flushed, err
				}
				flushed = append(flushed, r)
			}
			l.Dirty = false
		}
	}

	m.policy = p
	return flushed, nil
}

// Dump returns the module as a string. Words are formatted in the specified
// radix. Only valid lines are shown and, for RAM, only lines with a non-zero
// word.
func (m *Module) Dump(radix int) string {
	s := strings.Builder{}
	s.WriteString(m.String())
	s.WriteString("\n")

	for _, r := range m.queue {
		s.WriteString(fmt.Sprintf("  queued: %v\n", r))
	}

	for i, l := range m.lines {
		if !l.Valid {
			continue
		}
		if m.Kind == RAM {
			zero := true
			for _, w := range l.Words {
				if w != 0 {
					zero = false
					break
				}
			}
			if zero {
				continue
			}
		}

		flags := "V"
		if l.Dirty {
			flags = "VD"
		}
		s.WriteString(fmt.Sprintf("%5d %#06x %-2s:", i, l.Base, flags))
		for _, w := range l.Words {
			s.WriteString(" ")
			s.WriteString(term.FromUint(w, m.WordLength).Format(radix))
		}
		s.WriteString("\n")
	}

	return strings.TrimSuffix(s.String(), "\n")
}
