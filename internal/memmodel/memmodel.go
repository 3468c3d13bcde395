// Package memmodel describes the target's partitioned address spaces: the
// per-region start address, bank size, and global bank-index range every
// other component queries but never mutates.
package memmodel

import (
	"fmt"

	"github.com/bankforge/rgblink/internal/section"
)

// RegionInfo is the static description of one region.
type RegionInfo struct {
	StartAddress uint16
	MaxSize      uint16 // bytes in a single bank
	BankLo       uint32 // first global bank index for this region
	BankHi       uint32 // last global bank index for this region (inclusive)
	Label        string // e.g. "ROM Bank #", the prefix BankLabel appends the bank number to
}

// Model is an immutable description of every region of a target machine.
// Bank indices are globally unique across regions, per spec: "bank 0 of
// WRAMX" and "bank 0 of ROMX" never collide.
type Model struct {
	regions [section.NumRegions]RegionInfo
	byBank  map[uint32]section.Region
}

// NewModel builds a Model from a caller-supplied region table, validating
// that bank ranges across regions never overlap (the flat global index
// space invariant).
func NewModel(regions [section.NumRegions]RegionInfo) (*Model, error) {
	m := &Model{regions: regions, byBank: make(map[uint32]section.Region)}

	for r := 0; r < section.NumRegions; r++ {
		info := regions[r]
		if info.BankHi < info.BankLo {
			return nil, fmt.Errorf("memmodel: region %s has empty bank range [%d,%d]",
				section.Region(r), info.BankLo, info.BankHi)
		}

		for b := info.BankLo; b <= info.BankHi; b++ {
			if prev, ok := m.byBank[b]; ok {
				return nil, fmt.Errorf("memmodel: bank index %d claimed by both %s and %s", b, prev, section.Region(r))
			}

			m.byBank[b] = section.Region(r)
		}
	}

	return m, nil
}

// DefaultModel returns the reference Game Boy memory map: the banked
// address spaces a stock linker ships as its built-in target.
func DefaultModel() *Model {
	m, err := NewModel([section.NumRegions]RegionInfo{
		section.ROM0:  {StartAddress: 0x0000, MaxSize: 0x4000, BankLo: 0, BankHi: 0, Label: "ROM Bank #0 (HOME)"},
		section.ROMX:  {StartAddress: 0x4000, MaxSize: 0x4000, BankLo: 1, BankHi: 512, Label: "ROM Bank #"},
		section.WRAM0: {StartAddress: 0xC000, MaxSize: 0x1000, BankLo: 513, BankHi: 513, Label: "WRAM Bank #0"},
		section.WRAMX: {StartAddress: 0xD000, MaxSize: 0x1000, BankLo: 514, BankHi: 520, Label: "WRAM Bank #"},
		section.VRAM:  {StartAddress: 0x8000, MaxSize: 0x2000, BankLo: 521, BankHi: 522, Label: "VRAM Bank #"},
		section.OAM:   {StartAddress: 0xFE00, MaxSize: 0x00A0, BankLo: 523, BankHi: 523, Label: "OAM"},
		section.HRAM:  {StartAddress: 0xFF80, MaxSize: 0x007F, BankLo: 524, BankHi: 524, Label: "HRAM"},
		section.SRAM:  {StartAddress: 0xA000, MaxSize: 0x2000, BankLo: 525, BankHi: 540, Label: "SRAM Bank #"},
	})
	if err != nil {
		// DefaultModel's ranges are fixed at compile time and verified by
		// memmodel_test.go; a failure here would be a programming error.
		panic(err)
	}

	return m
}

// StartAddr returns a region's start address.
func (m *Model) StartAddr(r section.Region) uint16 { return m.regions[r].StartAddress }

// MaxSize returns the number of bytes available in a single bank of r.
func (m *Model) MaxSize(r section.Region) uint16 { return m.regions[r].MaxSize }

// EndAddr returns the last valid address in a bank of r.
func (m *Model) EndAddr(r section.Region) uint16 {
	return m.regions[r].StartAddress + m.regions[r].MaxSize - 1
}

// BankRange returns the inclusive [lo, hi] global bank indices for r.
func (m *Model) BankRange(r section.Region) (lo, hi uint32) {
	info := m.regions[r]
	return info.BankLo, info.BankHi
}

// NBBanks returns how many banks r has.
func (m *Model) NBBanks(r section.Region) uint32 {
	info := m.regions[r]
	return info.BankHi - info.BankLo + 1
}

// RegionOf maps a global bank index back to its owning region.
func (m *Model) RegionOf(bank uint32) (section.Region, bool) {
	r, ok := m.byBank[bank]
	return r, ok
}

// LocalBank returns the bank number relative to the start of its region
// (e.g. global bank 514 in WRAMX is local bank 0), used for report labels.
func (m *Model) LocalBank(r section.Region, bank uint32) uint32 {
	return bank - m.regions[r].BankLo
}

// BankLabel returns the human-readable label for a (region, bank) pair,
// e.g. "ROM Bank #3", "HRAM".
func (m *Model) BankLabel(r section.Region, bank uint32) string {
	local := m.LocalBank(r, bank)
	switch r {
	case section.ROM0:
		return "ROM Bank #0 (HOME)"
	case section.OAM:
		return "OAM"
	case section.HRAM:
		return "HRAM"
	case section.ROMX, section.WRAMX:
		// Numbering continues from ROM0's and WRAM0's "#0": the first bank of
		// ROMX and of WRAMX is "#1".
		return fmt.Sprintf("%s%d", m.regions[r].Label, local+1)
	default:
		return fmt.Sprintf("%s%d", m.regions[r].Label, local)
	}
}
