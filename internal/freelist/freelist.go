// Package freelist maintains, for every (region, bank), the disjoint free
// address intervals remaining to place sections into. Each bank's intervals
// live in their own intrusive doubly-linked list behind a sentinel head
// node, the same prev/next arena shape a build-artifact LRU cache uses for
// its entries, repurposed here for address-space bookkeeping instead of
// eviction order.
package freelist

import (
	"github.com/bankforge/rgblink/internal/memmodel"
	"github.com/bankforge/rgblink/internal/section"
)

// Interval is one free address range within a bank. Prev/Next are internal
// to the list; no reference to an Interval survives a Carve of it.
type Interval struct {
	Address uint16
	Size    uint16

	prev, next *Interval
}

// bankList is a sentinel-headed doubly-linked list of free intervals for
// one (region, bank) pair. The sentinel's own Address/Size are unused.
type bankList struct {
	head Interval
}

// Map is the free-space bookkeeping for an entire memory model: a
// per-(region, bank) list of free intervals.
type Map struct {
	model *memmodel.Model
	banks map[uint32]*bankList
}

// New builds an empty Map; call Init to populate it.
func New(model *memmodel.Model) *Map {
	return &Map{model: model, banks: make(map[uint32]*bankList)}
}

// Init creates one interval spanning the whole bank for every bank of
// every region.
func (m *Map) Init() {
	for r := 0; r < section.NumRegions; r++ {
		region := section.Region(r)
		lo, hi := m.model.BankRange(region)

		for bank := lo; bank <= hi; bank++ {
			bl := &bankList{}
			first := &Interval{
				Address: m.model.StartAddr(region),
				Size:    m.model.MaxSize(region),
			}
			bl.head.next = first
			first.prev = &bl.head
			m.banks[bank] = bl
		}
	}
}

// Teardown releases all intervals. Go's GC makes this a formality, but it
// leaves the Map unusable afterward, matching its lifecycle: created at
// link start, destroyed at link end.
func (m *Map) Teardown() {
	for k := range m.banks {
		delete(m.banks, k)
	}
}

// First returns the first real interval of a bank, or nil if the bank is
// full.
func (m *Map) First(bank uint32) *Interval {
	bl, ok := m.banks[bank]
	if !ok {
		return nil
	}

	return bl.head.next
}

// Next returns the interval following iv in its bank's list, or nil.
func (iv *Interval) Next() *Interval { return iv.next }

// Carve removes the sub-range [addr, addr+size) from iv, which must lie
// fully inside iv. Four cases are handled: whole interval consumed, left
// edge, right edge, or strict interior split.
func (m *Map) Carve(iv *Interval, addr, size uint16) {
	noLeft := iv.Address == addr
	noRight := iv.Address+iv.Size == addr+size

	switch {
	case noLeft && noRight:
		// The interval is entirely consumed: unlink it.
		iv.prev.next = iv.next
		if iv.next != nil {
			iv.next.prev = iv.prev
		}
	case noLeft && !noRight:
		// Touches the left edge only: shrink from the front.
		iv.Address += size
		iv.Size -= size
	case !noLeft && noRight:
		// Touches the right edge only: shrink from the back.
		iv.Size -= size
	default:
		// Strict interior: split into a left remainder (iv, resized) and a
		// new interval spliced in for the right remainder.
		right := &Interval{
			Address: addr + size,
			Size:    iv.Address + iv.Size - (addr + size),
			prev:    iv,
			next:    iv.next,
		}
		if iv.next != nil {
			iv.next.prev = right
		}
		iv.next = right
		iv.Size = addr - iv.Address
	}
}
