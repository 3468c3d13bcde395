package placer

import (
	"context"
	"strings"
	"testing"

	"github.com/bankforge/rgblink/internal/memmodel"
	"github.com/bankforge/rgblink/internal/section"
)

func rom0Model() *memmodel.Model {
	var regions [section.NumRegions]memmodel.RegionInfo
	regions[section.ROM0] = memmodel.RegionInfo{StartAddress: 0x0000, MaxSize: 0x4000, BankLo: 0, BankHi: 0}
	for r := section.Region(1); int(r) < section.NumRegions; r++ {
		regions[r] = memmodel.RegionInfo{StartAddress: 0, MaxSize: 1, BankLo: uint32(r) + 100, BankHi: uint32(r) + 100}
	}

	m, err := memmodel.NewModel(regions)
	if err != nil {
		panic(err)
	}

	return m
}

// Two unconstrained sections: the larger one is placed first, the smaller
// one follows it.
func TestTrivialPlacementLargerFirst(t *testing.T) {
	model := rom0Model()
	c := NewContext(model, false)

	a := &section.Section{Name: "A", Region: section.ROM0, Size: 0x100}
	b := &section.Section{Name: "B", Region: section.ROM0, Size: 0x200}

	if err := c.AssignSections(context.Background(), []*section.Section{a, b}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.Org != 0x0000 {
		t.Errorf("B (larger) should be placed first at 0x0000, got %#04x", b.Org)
	}
	if a.Org != 0x0200 {
		t.Errorf("A should follow B at 0x0200, got %#04x", a.Org)
	}
}

// A fixed section and a free one: F is pinned at 0x1000, G is free and
// should land left of it.
func TestFixedPlusFreeSectionPlacement(t *testing.T) {
	model := rom0Model()
	c := NewContext(model, false)

	f := &section.Section{Name: "F", Region: section.ROM0, Size: 0x100, IsAddressFixed: true, Org: 0x1000, IsBankFixed: true}
	g := &section.Section{Name: "G", Region: section.ROM0, Size: 0x100}

	if err := c.AssignSections(context.Background(), []*section.Section{f, g}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Org != 0x1000 {
		t.Errorf("F should stay at its fixed org, got %#04x", f.Org)
	}
	if g.Org != 0x0000 {
		t.Errorf("G should be placed at 0x0000 (left of F), got %#04x", g.Org)
	}
}

// An align-constrained section lands at the lowest address satisfying its
// alignment.
func TestAlignmentPicksLowestAlignedAddress(t *testing.T) {
	model := rom0Model()
	c := NewContext(model, false)

	h := &section.Section{Name: "H", Region: section.ROM0, Size: 0x10, IsAlignFixed: true, AlignMask: 0xFF, AlignOffset: 0}

	if err := c.AssignSections(context.Background(), []*section.Section{h}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.Org != 0x0000 {
		t.Errorf("expected first-fit at 0x0000, got %#04x", h.Org)
	}
	if h.Org&0xFF != 0 {
		t.Errorf("org %#04x does not satisfy align mask 0xFF", h.Org)
	}
}

// Requesting an overlay output while a section remains unfixed fails.
func TestOverlayContradictionOnUnfixedSection(t *testing.T) {
	model := rom0Model()
	c := NewContext(model, true)

	u := &section.Section{Name: "U", Region: section.ROM0, Size: 0x10}

	err := c.AssignSections(context.Background(), []*section.Section{u})
	if err == nil {
		t.Fatal("expected overlay contradiction error")
	}
	if !strings.Contains(err.Error(), "OVERLAY") {
		t.Errorf("expected an overlay-category error, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 isn't") {
		t.Errorf("expected singular wording for one section, got %v", err)
	}
}

func TestUnplaceableWhenRegionFull(t *testing.T) {
	model := rom0Model()
	c := NewContext(model, false)

	a := &section.Section{Name: "A", Region: section.ROM0, Size: 0x4000}
	b := &section.Section{Name: "B", Region: section.ROM0, Size: 1}

	err := c.AssignSections(context.Background(), []*section.Section{a, b})
	if err == nil {
		t.Fatal("expected placement failure: B cannot fit after A fills the bank")
	}
	if !strings.Contains(err.Error(), "PLACEMENT") {
		t.Errorf("expected a placement-category error, got %v", err)
	}
}

func TestOverlapDiagnosticNamesTheOtherSection(t *testing.T) {
	model := rom0Model()
	c := NewContext(model, false)

	a := &section.Section{Name: "FIRST", Region: section.ROM0, Size: 0x4000, IsBankFixed: true, Bank: 0, IsAddressFixed: true, Org: 0}
	b := &section.Section{Name: "SECOND", Region: section.ROM0, Size: 1, IsBankFixed: true, Bank: 0, IsAddressFixed: true, Org: 0}

	err := c.AssignSections(context.Background(), []*section.Section{a, b})
	if err == nil {
		t.Fatal("expected an overlap error")
	}
	if !strings.Contains(err.Error(), "overlaps with") {
		t.Errorf("expected overlap wording, got %v", err)
	}
	if !strings.Contains(err.Error(), "FIRST") {
		t.Errorf("expected the overlapping section's name in the message, got %v", err)
	}
}

// Every placed section stays within its region's address bounds.
func TestPlacedSectionsStayWithinRegionBounds(t *testing.T) {
	model := memmodel.DefaultModel()
	c := NewContext(model, false)

	secs := []*section.Section{
		{Name: "a", Region: section.ROMX, Size: 0x1000},
		{Name: "b", Region: section.ROMX, Size: 0x800},
		{Name: "c", Region: section.ROMX, Size: 0x10, IsAlignFixed: true, AlignMask: 0xF},
	}

	if err := c.AssignSections(context.Background(), secs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range secs {
		lo, hi := model.BankRange(s.Region)
		if s.Bank < lo || s.Bank > hi {
			t.Errorf("%s: bank %d out of range [%d,%d]", s.Name, s.Bank, lo, hi)
		}
		if uint32(s.Org)+uint32(s.Size) > uint32(model.EndAddr(s.Region))+1 {
			t.Errorf("%s: runs past end of region", s.Name)
		}
		if s.IsAlignFixed && (s.Org-s.AlignOffset)&s.AlignMask != 0 {
			t.Errorf("%s: org %#04x violates alignment", s.Name, s.Org)
		}
	}
}
