// Package report renders the final placement as the linker's two text
// outputs: a human-readable map file and an optional symbol file.
package report

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bankforge/rgblink/internal/memmodel"
	"github.com/bankforge/rgblink/internal/section"
)

// ToolName appears in the symbol file's leading comment.
const ToolName = "rgblink"

// Render produces the map file and symbol file text for the given final
// placement. Only placed sections and their Assignments are consulted; no
// free-space or classifier state crosses into this package.
func Render(model *memmodel.Model, secs []*section.Section) (mapFile, symFile string) {
	byBank := groupByBank(secs)

	banks := allBanks(model)

	// Each bank's text depends only on that bank's own sections, so
	// rendering fans out across errgroup.Group; slots are joined back in
	// increasing bank-index order below to keep output byte-identical
	// regardless of goroutine completion order.
	mapSlots := make([]string, len(banks))
	symSlots := make([]string, len(banks))

	var g errgroup.Group
	for i, bank := range banks {
		i, bank := i, bank

		g.Go(func() error {
			m, s := renderBank(model, bank, byBank[bank])
			mapSlots[i] = m
			symSlots[i] = s

			return nil
		})
	}

	_ = g.Wait() // renderBank never returns an error; reserved for future I/O-bound stages

	var mb, sb strings.Builder

	sb.WriteString(fmt.Sprintf("; File generated by %s\n\n", ToolName))

	for i := range banks {
		mb.WriteString(mapSlots[i])
		sb.WriteString(symSlots[i])
	}

	return mb.String(), sb.String()
}

func groupByBank(secs []*section.Section) map[uint32][]*section.Section {
	out := make(map[uint32][]*section.Section)

	for _, s := range secs {
		if !s.Placed() {
			continue
		}

		out[s.Bank] = append(out[s.Bank], s)
	}

	return out
}

// allBanks returns every bank index across every region, sorted by
// increasing global bank index, so the rendered output stays identical
// across runs regardless of map iteration order.
func allBanks(model *memmodel.Model) []uint32 {
	var banks []uint32

	for r := section.Region(0); int(r) < section.NumRegions; r++ {
		lo, hi := model.BankRange(r)
		for b := lo; b <= hi; b++ {
			banks = append(banks, b)
		}
	}

	sort.Slice(banks, func(i, j int) bool { return banks[i] < banks[j] })

	return banks
}

func renderBank(model *memmodel.Model, bank uint32, secs []*section.Section) (mapText, symText string) {
	r, ok := model.RegionOf(bank)
	if !ok {
		return "", ""
	}

	var mb, sb strings.Builder

	mb.WriteString(model.BankLabel(r, bank))
	mb.WriteString(":\n")

	used := 0

	for _, s := range secs {
		used += int(s.Size)

		if s.Size > 0 {
			mb.WriteString(fmt.Sprintf("  SECTION: $%04X-$%04X ($%04X bytes) [\"%s\"]\n",
				s.Org, s.Org+s.Size-1, s.Size, s.Name))
		} else {
			mb.WriteString(fmt.Sprintf("  SECTION: $%04X ($0 bytes) [\"%s\"]\n", s.Org, s.Name))
		}

		for _, sym := range s.Symbols {
			if sym.Name == "@" || sym.Imported {
				continue
			}

			mb.WriteString(fmt.Sprintf("           $%04X = %s\n", sym.Offset+s.Org, sym.Name))

			local := model.LocalBank(r, bank)
			sb.WriteString(fmt.Sprintf("%02X:%04X %s\n", local, sym.Offset+s.Org, sym.Name))
		}
	}

	slack := int(model.MaxSize(r)) - used
	if slack == int(model.MaxSize(r)) {
		mb.WriteString("  EMPTY\n\n")
	} else {
		mb.WriteString(fmt.Sprintf("    SLACK: $%04X bytes\n\n", slack))
	}

	return mb.String(), sb.String()
}
