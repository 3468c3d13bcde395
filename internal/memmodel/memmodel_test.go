package memmodel

import (
	"testing"

	"github.com/bankforge/rgblink/internal/section"
)

func TestDefaultModelBankRangesDisjoint(t *testing.T) {
	m := DefaultModel()

	seen := make(map[uint32]section.Region)
	for r := 0; r < section.NumRegions; r++ {
		lo, hi := m.BankRange(section.Region(r))
		if hi < lo {
			t.Fatalf("region %s has empty bank range", section.Region(r))
		}
		for b := lo; b <= hi; b++ {
			if prev, ok := seen[b]; ok {
				t.Fatalf("bank %d claimed by both %s and %s", b, prev, section.Region(r))
			}
			seen[b] = section.Region(r)
		}
	}
}

func TestDefaultModelSingleBankRegions(t *testing.T) {
	for _, r := range []section.Region{section.ROM0, section.WRAM0, section.OAM, section.HRAM} {
		m := DefaultModel()
		if got := m.NBBanks(r); got != 1 {
			t.Errorf("%s: expected exactly one bank, got %d", r, got)
		}
	}
}

func TestEndAddr(t *testing.T) {
	m := DefaultModel()
	if got := m.EndAddr(section.ROM0); got != 0x3FFF {
		t.Errorf("ROM0 end addr = %#04x, want 0x3FFF", got)
	}
	if got := m.EndAddr(section.HRAM); got != 0xFFFE {
		t.Errorf("HRAM end addr = %#04x, want 0xFFFE", got)
	}
}

func TestRegionOfRoundTrips(t *testing.T) {
	m := DefaultModel()
	for r := 0; r < section.NumRegions; r++ {
		lo, hi := m.BankRange(section.Region(r))
		for b := lo; b <= hi; b++ {
			got, ok := m.RegionOf(b)
			if !ok || got != section.Region(r) {
				t.Errorf("RegionOf(%d) = %v,%v want %s,true", b, got, ok, section.Region(r))
			}
		}
	}
}

func TestBankLabel(t *testing.T) {
	m := DefaultModel()
	if got := m.BankLabel(section.ROM0, 0); got != "ROM Bank #0 (HOME)" {
		t.Errorf("got %q", got)
	}
	romxLo, _ := m.BankRange(section.ROMX)
	if got := m.BankLabel(section.ROMX, romxLo+2); got != "ROM Bank #3" {
		t.Errorf("got %q, want \"ROM Bank #3\"", got)
	}
	if got := m.BankLabel(section.HRAM, func() uint32 { lo, _ := m.BankRange(section.HRAM); return lo }()); got != "HRAM" {
		t.Errorf("got %q, want HRAM", got)
	}
}

func TestNewModelRejectsOverlappingBanks(t *testing.T) {
	var regions [section.NumRegions]RegionInfo
	regions[section.ROM0] = RegionInfo{StartAddress: 0, MaxSize: 0x4000, BankLo: 0, BankHi: 0}
	regions[section.ROMX] = RegionInfo{StartAddress: 0x4000, MaxSize: 0x4000, BankLo: 0, BankHi: 1}
	for r := section.Region(2); int(r) < section.NumRegions; r++ {
		regions[r] = RegionInfo{StartAddress: 0, MaxSize: 1, BankLo: uint32(r) + 10, BankHi: uint32(r) + 10}
	}

	if _, err := NewModel(regions); err == nil {
		t.Fatal("expected error for overlapping bank 0 between ROM0 and ROMX")
	}
}
