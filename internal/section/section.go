// Package section defines the shared data model the placement engine
// operates on: regions, sections, symbols, and the final (bank, address)
// assignment a section receives once placed.
package section

import (
	"encoding/json"
	"fmt"
)

// Region identifies a family of banks sharing a start address and size.
type Region int

const (
	ROM0 Region = iota
	ROMX
	WRAM0
	WRAMX
	VRAM
	OAM
	HRAM
	SRAM

	numRegions
)

// NumRegions is the number of region tags, used to size per-region tables.
const NumRegions = int(numRegions)

func (r Region) String() string {
	switch r {
	case ROM0:
		return "ROM0"
	case ROMX:
		return "ROMX"
	case WRAM0:
		return "WRAM0"
	case WRAMX:
		return "WRAMX"
	case VRAM:
		return "VRAM"
	case OAM:
		return "OAM"
	case HRAM:
		return "HRAM"
	case SRAM:
		return "SRAM"
	default:
		return fmt.Sprintf("Region(%d)", int(r))
	}
}

// Valid reports whether r is one of the eight known region tags.
func (r Region) Valid() bool { return r >= ROM0 && r < numRegions }

// ParseRegion looks up a Region by its String() name, for loading region
// tags out of JSON object-file input.
func ParseRegion(name string) (Region, bool) {
	for r := Region(0); int(r) < NumRegions; r++ {
		if r.String() == name {
			return r, true
		}
	}

	return 0, false
}

// MarshalJSON renders a Region as its name rather than its numeric tag.
func (r Region) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON parses a Region from its name.
func (r *Region) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, ok := ParseRegion(name)
	if !ok {
		return fmt.Errorf("section: unknown region %q", name)
	}

	*r = parsed

	return nil
}

// Symbol is a named offset within a section's payload. Report walks these;
// the placer never inspects them. Every symbol but "@" and imported ones
// goes to both the map file and the symbol file.
type Symbol struct {
	Name     string
	Offset   uint16
	Imported bool
}

// Section is a contiguous named chunk of code or data from an object file,
// placed as a unit.
type Section struct {
	Name   string
	Region Region
	Size   uint16

	IsBankFixed bool
	Bank        uint32

	IsAddressFixed bool
	Org            uint16

	IsAlignFixed bool
	AlignMask    uint16
	AlignOffset  uint16

	Payload []byte
	Symbols []Symbol
	placed  bool
}

// Placed reports whether the section has received a final (bank, org).
func (s *Section) Placed() bool { return s.placed }

// Assign records a section's final location. It may only be called once
// per section; placement is append-only.
func (s *Section) Assign(bank uint32, org uint16) {
	s.Bank = bank
	s.Org = org
	s.placed = true
}

// Constraint-mask bits, one per kind of fixed placement a section can carry.
const (
	AlignConstrained uint8 = 1 << 0
	OrgConstrained   uint8 = 1 << 1
	BankConstrained  uint8 = 1 << 2
)

// Constraints computes the bucket a section belongs to. Org and Align are
// mutually exclusive: a fixed address already satisfies any alignment.
func (s *Section) Constraints() uint8 {
	var c uint8
	if s.IsBankFixed {
		c |= BankConstrained
	}
	if s.IsAddressFixed {
		c |= OrgConstrained
	} else if s.IsAlignFixed {
		c |= AlignConstrained
	}
	return c
}
