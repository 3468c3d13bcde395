// Package script applies an optional linker script's placement stream to
// the section set before placement: each record fully fixes one section's
// bank and address, overriding whatever the object file asked for.
package script

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/bankforge/rgblink/internal/linkerrors"
	"github.com/bankforge/rgblink/internal/section"
)

// CheckMinVersion validates a script's MINVERSION directive against the
// running engine's version. constraint is a semver constraint expression
// (e.g. ">=2.1.0"); engineVersion is the engine's own semver string.
func CheckMinVersion(constraint, engineVersion string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return linkerrors.New(linkerrors.CategoryScript, "SCRIPT_BAD_CONSTRAINT",
			fmt.Sprintf("Linker script MINVERSION constraint %q is invalid: %v", constraint, err),
			map[string]interface{}{"constraint": constraint})
	}

	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		return linkerrors.New(linkerrors.CategoryScript, "SCRIPT_BAD_CONSTRAINT",
			fmt.Sprintf("engine version %q is not valid semver: %v", engineVersion, err),
			map[string]interface{}{"engineVersion": engineVersion})
	}

	if !c.Check(v) {
		return linkerrors.ScriptVersionTooOld(constraint, engineVersion)
	}

	return nil
}

// Record is one placement directive: place Section at (Bank, Org).
type Record struct {
	Section string
	Bank    uint32
	Org     uint16
}

// Stream is the external collaborator that parses a linker-script file into
// an ordered sequence of Records; object/script parsing is out of scope for
// this module, so callers supply their own.
type Stream interface {
	// Next returns the next record, or ok=false when the stream is
	// exhausted.
	Next() (Record, bool)
}

// SliceStream adapts a pre-parsed []Record into a Stream, handy for tests
// and for callers that already have the whole script in memory.
type SliceStream struct {
	records []Record
	pos     int
}

// NewSliceStream builds a Stream over records.
func NewSliceStream(records []Record) *SliceStream {
	return &SliceStream{records: records}
}

// Next implements Stream.
func (s *SliceStream) Next() (Record, bool) {
	if s.pos >= len(s.records) {
		return Record{}, false
	}

	r := s.records[s.pos]
	s.pos++

	return r, true
}

// Apply consumes every record of stream, validating and then rewriting the
// named section found via lookup. Validation diagnostics accumulate and do
// not stop processing; the script always wins once a record is seen.
func Apply(stream Stream, lookup func(name string) (*section.Section, bool)) []error {
	var diagnostics []error

	for {
		rec, ok := stream.Next()
		if !ok {
			break
		}

		s, found := lookup(rec.Section)
		if !found {
			diagnostics = append(diagnostics, linkerrors.New(linkerrors.CategoryScript, "UNKNOWN_SECTION",
				fmt.Sprintf("Linker script refers to unknown section %q", rec.Section), nil))

			continue
		}

		if s.IsBankFixed && rec.Bank != s.Bank {
			diagnostics = append(diagnostics, linkerrors.ScriptContradiction(s.Name, "bank placement"))
		}

		if s.IsAddressFixed && rec.Org != s.Org {
			diagnostics = append(diagnostics, linkerrors.ScriptContradiction(s.Name, "address placement"))
		}

		if s.IsAlignFixed && (rec.Org-s.AlignOffset)&s.AlignMask != 0 {
			diagnostics = append(diagnostics, linkerrors.ScriptContradiction(s.Name, "alignment"))
		}

		s.IsAddressFixed = true
		s.Org = rec.Org
		s.IsBankFixed = true
		s.Bank = rec.Bank
		s.IsAlignFixed = false
	}

	return diagnostics
}
