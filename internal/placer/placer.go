// Package placer implements the first-fit-decreasing placement engine: the
// most constrained sections are placed first, each into the first bank and
// first free interval that can hold it.
//
// Every piece of mutable state a link needs (the free-space table, the
// placed-section list, the overlay flag) lives on an explicit
// Context, constructed once per link and threaded through every operation,
// rather than as file-scope globals.
package placer

import (
	"context"
	"fmt"

	"github.com/bankforge/rgblink/internal/classify"
	"github.com/bankforge/rgblink/internal/freelist"
	"github.com/bankforge/rgblink/internal/linkerrors"
	"github.com/bankforge/rgblink/internal/memmodel"
	"github.com/bankforge/rgblink/internal/section"
)

// Context owns the free-space bookkeeping and the set of already-placed
// sections for a single link. It is created at link start and discarded at
// link end.
type Context struct {
	model   *memmodel.Model
	free    *freelist.Map
	placed  []*section.Section
	overlay bool
}

// NewContext builds a Context with a freshly initialized free-space map.
func NewContext(model *memmodel.Model, overlay bool) *Context {
	free := freelist.New(model)
	free.Init()

	return &Context{model: model, free: free, overlay: overlay}
}

// Teardown releases the free-space map.
func (c *Context) Teardown() { c.free.Teardown() }

// AssignSections places every section in secs, most-constrained buckets
// first. ctx is consulted only between bucket passes, never inside the
// inner placement loop, so cancellation cannot perturb the placement order,
// which must stay identical across runs of the same input.
func (c *Context) AssignSections(ctx context.Context, secs []*section.Section) error {
	buckets := classify.Classify(secs)

	fixed := buckets[section.BankConstrained|section.OrgConstrained]
	for _, s := range fixed {
		if err := c.placeSection(s); err != nil {
			return err
		}
	}

	remaining := len(secs) - len(fixed)
	if remaining == 0 {
		return nil
	}

	if c.overlay {
		return linkerrors.OverlayContradiction(remaining)
	}

	for constraints := int(section.BankConstrained | section.AlignConstrained); constraints >= 0; constraints-- {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, s := range buckets[constraints] {
			if err := c.placeSection(s); err != nil {
				return err
			}
		}
	}

	return nil
}

// placeSection places one section. Callers must present sections in
// non-increasing size order within each constraint bucket for
// first-fit-decreasing to hold.
func (c *Context) placeSection(s *section.Section) error {
	if s.Size == 0 {
		// Zero-byte sections can't overlap anything; place trivially and
		// never touch the free-space map.
		addr := c.model.StartAddr(s.Region)
		if s.IsAddressFixed {
			addr = s.Org
		}

		bank := bankLo(c.model, s)
		if s.IsBankFixed {
			bank = s.Bank
		}

		s.Assign(bank, addr)

		return nil
	}

	iv, bank, addr, ok := c.getPlacement(s)
	if !ok {
		return c.unplaceableError(s)
	}

	s.Assign(bank, addr)
	c.free.Carve(iv, addr, s.Size)
	c.placed = append(c.placed, s)

	return nil
}

func bankLo(model *memmodel.Model, s *section.Section) uint32 {
	lo, _ := model.BankRange(s.Region)
	return lo
}

// getPlacement runs first-fit-decreasing over the candidate banks and
// returns the interval, bank, and address chosen, or ok=false.
func (c *Context) getPlacement(s *section.Section) (iv *freelist.Interval, bank uint32, addr uint16, ok bool) {
	lo, hi := c.model.BankRange(s.Region)
	bank = lo
	if s.IsBankFixed {
		bank = s.Bank
	}

	for {
		space := c.free.First(bank)
		if space != nil {
			addr = space.Address
		}

		for space != nil {
			if isSuitable(s, space, addr) {
				return space, bank, addr, true
			}

			switch {
			case s.IsAddressFixed:
				// At most one candidate interval per bank when the address
				// is fixed; if we already reached it, give up on this bank.
				if addr < s.Org {
					addr = s.Org
				} else {
					space = nil
				}
			case s.IsAlignFixed:
				addr = ((addr - s.AlignOffset) &^ s.AlignMask) + s.AlignMask + 1 + s.AlignOffset
			default:
				space = space.Next()
				if space != nil {
					addr = space.Address
				}
			}

			for space != nil && addr >= space.Address+space.Size {
				space = space.Next()
			}
		}

		if s.IsBankFixed {
			return nil, 0, 0, false
		}

		bank++
		if bank > hi {
			return nil, 0, 0, false
		}
	}
}

// isSuitable checks both that the candidate location has room and that it
// honors every constraint the section carries.
func isSuitable(s *section.Section, space *freelist.Interval, addr uint16) bool {
	if s.IsAddressFixed && s.Org != addr {
		return false
	}

	if s.IsAlignFixed && ((addr-s.AlignOffset)&s.AlignMask) != 0 {
		return false
	}

	if addr < space.Address {
		return false
	}

	return addr+s.Size <= space.Address+space.Size
}

// unplaceableError builds the differentiated diagnostic: the "where" clause
// describing known constraints, plus the strongest available cause for the
// failure.
func (c *Context) unplaceableError(s *section.Section) error {
	where := whereClause(c.model, s)

	var detail string

	switch {
	case !s.IsBankFixed || !s.IsAddressFixed:
		detail = ""
	case uint32(s.Org)+uint32(s.Size) > uint32(c.model.EndAddr(s.Region))+1:
		detail = fmt.Sprintf("section runs past end of region ($%04X > $%04X)",
			s.Org+s.Size, c.model.EndAddr(s.Region)+1)
	default:
		other := c.overlappingSection(s)
		name := "?"
		if other != nil {
			name = other.Name
		}

		detail = fmt.Sprintf("section overlaps with %q", name)
	}

	return linkerrors.Unplaceable(s.Name, s.Region.String(), where, detail)
}

// whereClause renders the location description used in a placement
// failure: one of six variants depending on which constraints the section
// carries.
func whereClause(model *memmodel.Model, s *section.Section) string {
	if s.IsBankFixed && model.NBBanks(s.Region) != 1 {
		switch {
		case s.IsAddressFixed:
			return fmt.Sprintf("at $%02X:%04X", s.Bank, s.Org)
		case s.IsAlignFixed:
			return fmt.Sprintf("in bank $%02X with align mask %X", s.Bank, ^s.AlignMask)
		default:
			return fmt.Sprintf("in bank $%02X", s.Bank)
		}
	}

	switch {
	case s.IsAddressFixed:
		return fmt.Sprintf("at address $%04X", s.Org)
	case s.IsAlignFixed:
		return fmt.Sprintf("with align mask %X and offset %X", ^s.AlignMask, s.AlignOffset)
	default:
		return "anywhere"
	}
}

// overlappingSection is the out_overlapping_section collaborator: a linear
// scan of already-placed sections sharing the candidate's (region, bank)
// whose interval intersects the would-be placement.
func (c *Context) overlappingSection(s *section.Section) *section.Section {
	for _, other := range c.placed {
		if other.Region != s.Region || other.Bank != s.Bank {
			continue
		}

		if s.Org < other.Org+other.Size && other.Org < s.Org+s.Size {
			return other
		}
	}

	return nil
}
