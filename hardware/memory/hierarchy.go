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
	"sort"
	"strings"

	"github.com/pipesim/pipesim/curated"
)

// Sentinal error patterns for the Hierarchy type.
const (
	CyclicHierarchy = "memory: link from %s to %s would create a cycle"
	SelfLink        = "memory: %s cannot link to itself"
	FasterLevel     = "memory: %s cannot link to faster level %s"
	RAMIsBottom     = "memory: %s is ram and cannot link to %s"
	MismatchedLink  = "memory: %s cannot link to %s: %s"
	UnknownDevice   = "memory: unknown device (%v)"
	NoEntry         = "memory: no %s memory in hierarchy"
	InvalidConfig   = "memory: %s: %s"
)

// IDGenerator supplies request IDs. The hierarchy assigns an ID to every
// request it is asked to issue.
type IDGenerator interface {
	NextRequestID() uint64
}

// Config is the configuration of a single Module.
type Config struct {
	Name        string
	Kind        Kind
	Type        Type
	WordLength  int
	Policy      Policy
	Lines       int
	LineSize    int
	AccessDelay int
}

// Hierarchy owns the memory modules of the machine.
type Hierarchy struct {
	addressBits int
	ids         IDGenerator

	modules []*Module

	// module indexes in the order they are visited by the two tick phases.
	// prepare is fastest first and advance is slowest first
	prepareOrder []int
	advanceOrder []int
}

// NewHierarchy is the preferred method of initialisation for the Hierarchy
// type.
func NewHierarchy(addressBits int, ids IDGenerator) *Hierarchy {
	return &Hierarchy{
		addressBits: addressBits,
		ids:         ids,
	}
}

// AddressBits returns the width of an address.
func (h *Hierarchy) AddressBits() int {
	return h.addressBits
}

// Add a new module to the hierarchy. Returns the index of the new module.
//
// The number of lines is capped by the size of the address space. A Lines
// value of zero means the largest number of lines possible. RAM modules have
// every line valid from the start.
func (h *Hierarchy) Add(cfg Config) (int, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return -1, curated.Errorf(InvalidConfig, "?", "device has no name")
	}
	if _, _, ok := h.Device(cfg.Name); ok {
		return -1, curated.Errorf(InvalidConfig, cfg.Name, "duplicate device name")
	}
	if cfg.LineSize <= 0 || cfg.LineSize&(cfg.LineSize-1) != 0 {
		return -1, curated.Errorf(InvalidConfig, cfg.Name, "line size must be a power of two")
	}
	if cfg.WordLength <= 0 || cfg.WordLength > 64 {
		return -1, curated.Errorf(InvalidConfig, cfg.Name, "word length must be between 1 and 64")
	}
	if cfg.AccessDelay < 0 || cfg.Lines < 0 {
		return -1, curated.Errorf(InvalidConfig, cfg.Name, "negative configuration value")
	}

	space := 1 << h.addressBits
	if cfg.LineSize > space {
		return -1, curated.Errorf(InvalidConfig, cfg.Name, "line size larger than the address space")
	}

	maxLines := space / cfg.LineSize
	n := cfg.Lines
	if n == 0 || n > maxLines {
		n = maxLines
	}

	m := &Module{
		Name:        cfg.Name,
		Kind:        cfg.Kind,
		Type:        cfg.Type,
		WordLength:  cfg.WordLength,
		LineSize:    cfg.LineSize,
		AccessDelay: cfg.AccessDelay,
		policy:      cfg.Policy,
		lines:       make([]Line, n),
		addressMask: uint64(space - 1),
		next:        -1,
		h:           h,
	}
	for (1 << m.offsetBits) < cfg.LineSize {
		m.offsetBits++
	}

	// one backing array for all words in the module
	words := make([]uint64, n*cfg.LineSize)
	for i := range m.lines {
		m.lines[i].Words = words[i*cfg.LineSize : (i+1)*cfg.LineSize : (i+1)*cfg.LineSize]
		if m.Kind == RAM {
			m.lines[i].Valid = true
			m.lines[i].Base = uint64(i * cfg.LineSize)
		}
	}

	h.modules = append(h.modules, m)
	h.order()

	return len(h.modules) - 1, nil
}

// Link module from to module to. The to module becomes the next slower level
// of the from module.
func (h *Hierarchy) Link(from int, to int) error {
	if from < 0 || from >= len(h.modules) {
		return curated.Errorf(UnknownDevice, from)
	}
	if to < 0 || to >= len(h.modules) {
		return curated.Errorf(UnknownDevice, to)
	}

	f := h.modules[from]
	t := h.modules[to]

	if from == to {
		return curated.Errorf(SelfLink, f.Name)
	}
	if f.Kind == RAM {
		return curated.Errorf(RAMIsBottom, f.Name, t.Name)
	}
	if f.Type != t.Type {
		return curated.Errorf(MismatchedLink, f.Name, t.Name, "different memory types")
	}
	if t.LineSize < f.LineSize {
		return curated.Errorf(MismatchedLink, f.Name, t.Name, "next level has smaller lines")
	}
	if t.AccessDelay < f.AccessDelay {
		return curated.Errorf(FasterLevel, f.Name, t.Name)
	}

	// following the chain from the to module must never arrive back at the
	// from module
	for n := to; n >= 0; n = h.modules[n].next {
		if n == from {
			return curated.Errorf(CyclicHierarchy, f.Name, t.Name)
		}
	}

	f.next = to
	h.order()

	return nil
}

// depth is the number of links between the module and the end of its chain.
func (h *Hierarchy) depth(idx int) int {
	d := 0
	for n := h.modules[idx].next; n >= 0; n = h.modules[n].next {
		d++
	}
	return d
}

// order sets the tick order of the modules.
func (h *Hierarchy) order() {
	h.advanceOrder = make([]int, len(h.modules))
	for i := range h.advanceOrder {
		h.advanceOrder[i] = i
	}
	sort.SliceStable(h.advanceOrder, func(i, j int) bool {
		return h.depth(h.advanceOrder[i]) < h.depth(h.advanceOrder[j])
	})

	h.prepareOrder = make([]int, len(h.modules))
	for i := range h.prepareOrder {
		h.prepareOrder[i] = i
	}
	sort.SliceStable(h.prepareOrder, func(i, j int) bool {
		return h.depth(h.prepareOrder[i]) > h.depth(h.prepareOrder[j])
	})
}

// Modules returns the modules in the order they were added.
func (h *Hierarchy) Modules() []*Module {
	return h.modules
}

// Module returns the module at the index. Returns nil if there is no such
// module.
func (h *Hierarchy) Module(idx int) *Module {
	if idx < 0 || idx >= len(h.modules) {
		return nil
	}
	return h.modules[idx]
}

// Device returns the index of the module with the name. Case insensitive.
func (h *Hierarchy) Device(name string) (int, *Module, bool) {
	for i, m := range h.modules {
		if strings.EqualFold(m.Name, name) {
			return i, m, true
		}
	}
	return -1, nil, false
}

// Entry returns the index of the fastest module of the type. The fastest
// module is the first one added that no other module links to.
func (h *Hierarchy) Entry(typ Type) (int, error) {
	linked := make(map[int]bool)
	for _, m := range h.modules {
		if m.next >= 0 {
			linked[m.next] = true
		}
	}
	for i, m := range h.modules {
		if m.Type == typ && !linked[i] {
			return i, nil
		}
	}
	return -1, curated.Errorf(NoEntry, typ)
}

// Bottom returns the index of the slowest module of the type, found by
// following the chain from the entry module.
func (h *Hierarchy) Bottom(typ Type) (int, error) {
	idx, err := h.Entry(typ)
	if err != nil {
		return -1, err
	}
	for h.modules[idx].next >= 0 {
		idx = h.modules[idx].next
	}
	return idx, nil
}

// Issue the request to the module at the index. The request is given an ID
// if it does not already have one, has its timer started with the access
// delay of the module and is added to the queue.
func (h *Hierarchy) Issue(idx int, req *Request) error {
	m := h.Module(idx)
	if m == nil {
		return curated.Errorf(UnknownDevice, idx)
	}

	req.Address &= m.addressMask
	if err := m.validate(req); err != nil {
		return err
	}

	if req.ID == 0 && h.ids != nil {
		req.ID = h.ids.NextRequestID()
	}

	req.Start(m.AccessDelay)
	m.queue = append(m.queue, req)

	return nil
}

// Tick advances every module by one cycle.
func (h *Hierarchy) Tick() error {
	for _, idx := range h.prepareOrder {
		if err := h.modules[idx].prepareHead(); err != nil {
			return err
		}
	}
	for _, idx := range h.advanceOrder {
		h.modules[idx].advanceHead()
	}
	return nil
}

// Idle returns true if no module has a request in its queue.
func (h *Hierarchy) Idle() bool {
	for _, m := range h.modules {
		if len(m.queue) > 0 {
			return false
		}
	}
	return true
}

// LoadImage writes the words directly into the slowest module of the type,
// starting at address zero. Timing is not affected.
func (h *Hierarchy) LoadImage(typ Type, words []uint64) error {
	idx, err := h.Bottom(typ)
	if err != nil {
		return err
	}
	m := h.modules[idx]

	if uint64(len(words)) > m.addressMask+1 {
		return curated.Errorf("memory: %s: image of %d words is larger than the address space", m.Name, len(words))
	}

	for i, w := range words {
		if err := m.Poke(uint64(i), w); err != nil {
			return err
		}
	}
	return nil
}

// Peek returns the value at the address in the module at the index. The
// boolean is false if the module does not hold the address.
func (h *Hierarchy) Peek(idx int, address uint64) (uint64, bool) {
	m := h.Module(idx)
	if m == nil {
		return 0, false
	}
	return m.Peek(address)
}

// Drain removes every queued request from every module without completing
// them.
func (h *Hierarchy) Drain() {
	for _, m := range h.modules {
		for i := range m.queue {
			m.queue[i] = nil
		}
		m.queue = m.queue[:0]
	}
}

// SetPolicy changes the write policy of the named module. Any flushes issued
// as a result are returned.
func (h *Hierarchy) SetPolicy(name string, p Policy) ([]*Request, error) {
	_, m, ok := h.Device(name)
	if !ok {
		return nil, curated.Errorf(UnknownDevice, name)
	}
	return m.setPolicy(p)
}

// Dump returns the named module as a string, with words formatted in the
// specified radix.
func (h *Hierarchy) Dump(name string, radix int) (string, error) {
	_, m, ok := h.Device(name)
	if !ok {
		return "", curated.Errorf(UnknownDevice, name)
	}
	return m.Dump(radix), nil
}

func (h *Hierarchy) String() string {
	s := strings.Builder{}
	for _, m := range h.modules {
		s.WriteString(m.String())
		if m.next >= 0 {
			s.WriteString(" -> ")
			s.WriteString(h.modules[m.next].Name)
		}
		s.WriteString("\n")
	}
	return strings.TrimSuffix(s.String(), "\n")
}
