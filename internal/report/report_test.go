package report

import (
	"strings"
	"testing"

	"github.com/bankforge/rgblink/internal/memmodel"
	"github.com/bankforge/rgblink/internal/section"
)

func TestRenderEmptyBankSaysEmpty(t *testing.T) {
	model := memmodel.DefaultModel()

	mapFile, _ := Render(model, nil)

	if !strings.Contains(mapFile, "ROM Bank #0 (HOME):\n  EMPTY\n\n") {
		t.Errorf("expected an EMPTY ROM0 bank, got:\n%s", mapFile)
	}
}

func TestRenderSectionLineAndSlack(t *testing.T) {
	model := memmodel.DefaultModel()

	s := &section.Section{Name: "Main", Region: section.ROM0, Size: 0x10}
	s.Assign(0, 0x0000)

	mapFile, _ := Render(model, []*section.Section{s})

	if !strings.Contains(mapFile, `SECTION: $0000-$000F ($0010 bytes) ["Main"]`) {
		t.Errorf("missing section line, got:\n%s", mapFile)
	}
	if !strings.Contains(mapFile, "SLACK: $3FF0 bytes") {
		t.Errorf("missing slack line, got:\n%s", mapFile)
	}
}

func TestRenderZeroSizeSection(t *testing.T) {
	model := memmodel.DefaultModel()

	s := &section.Section{Name: "Empty", Region: section.ROM0, Size: 0}
	s.Assign(0, 0x0010)

	mapFile, _ := Render(model, []*section.Section{s})

	if !strings.Contains(mapFile, `SECTION: $0010 ($0 bytes) ["Empty"]`) {
		t.Errorf("missing zero-size section line, got:\n%s", mapFile)
	}
}

func TestRenderSymbolsMapAndSymfile(t *testing.T) {
	model := memmodel.DefaultModel()

	s := &section.Section{
		Name: "Main", Region: section.ROM0, Size: 0x10,
		Symbols: []section.Symbol{
			{Name: "@", Offset: 0},
			{Name: "Imported", Offset: 1, Imported: true},
			{Name: "Local", Offset: 2},
			{Name: "Public", Offset: 3},
		},
	}
	s.Assign(0, 0x0000)

	mapFile, symFile := Render(model, []*section.Section{s})

	if strings.Contains(mapFile, "@") {
		t.Errorf("'@' symbol should never be printed, got:\n%s", mapFile)
	}
	if strings.Contains(mapFile, "Imported") {
		t.Errorf("imported symbols should never be printed, got:\n%s", mapFile)
	}
	if !strings.Contains(mapFile, "$0002 = Local") {
		t.Errorf("missing local symbol line, got:\n%s", mapFile)
	}
	if !strings.Contains(mapFile, "$0003 = Public") {
		t.Errorf("missing exported symbol line, got:\n%s", mapFile)
	}

	if strings.Contains(symFile, "Imported") {
		t.Errorf("imported symbols should never reach the symbol file, got:\n%s", symFile)
	}
	if !strings.Contains(symFile, "00:0002 Local") {
		t.Errorf("every non-imported symbol belongs in the symbol file, got:\n%s", symFile)
	}
	if !strings.Contains(symFile, "00:0003 Public") {
		t.Errorf("missing symfile entry for exported symbol, got:\n%s", symFile)
	}
	if !strings.HasPrefix(symFile, "; File generated by rgblink\n\n") {
		t.Errorf("symfile must start with the generator comment, got:\n%s", symFile)
	}
}

func TestRenderROMXBankLabelOffset(t *testing.T) {
	model := memmodel.DefaultModel()

	s := &section.Section{Name: "Bank1", Region: section.ROMX, Size: 1}
	s.Assign(1, 0x4000) // global bank 1 == ROMX local bank 0

	mapFile, _ := Render(model, []*section.Section{s})

	if !strings.Contains(mapFile, "ROM Bank #1:\n") {
		t.Errorf("expected ROMX's first bank labeled #1, got:\n%s", mapFile)
	}
}
