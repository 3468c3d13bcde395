// Package charmap implements the longest-match input-byte-sequence to
// output-byte translation table used while converting assembly string
// literals, with fallback to raw UTF-8 copy-through for codepoints the
// table doesn't cover.
package charmap

import (
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bankforge/rgblink/internal/linkerrors"
)

// MaxCharmaps bounds the number of entries a single table may hold.
const MaxCharmaps = 512

// CharmapLength bounds the byte length of a single entry's input sequence.
const CharmapLength = 16

type entry struct {
	input  []byte
	output byte
}

// Charmap is an ordered, strictly-decreasing-by-input-length table. The
// zero value is an empty, usable table.
type Charmap struct {
	entries []entry
}

// New returns an empty Charmap.
func New() *Charmap {
	return &Charmap{}
}

// Add inserts a new (input, output) pair, keeping the table sorted by
// strictly decreasing input length (ties broken by insertion order). It
// returns the new entry count, or an error if the table is full or input
// exceeds CharmapLength.
func (c *Charmap) Add(input []byte, output byte) (int, error) {
	if len(c.entries) >= MaxCharmaps || len(input) == 0 || len(input) > CharmapLength {
		return 0, linkerrors.CharmapTableFull(string(input))
	}

	if len(input) == 1 {
		// A length-1 entry always sorts last; append after every existing
		// entry rather than mirroring the reference's count-1 overwrite,
		// which underflows on an empty table.
		c.entries = append(c.entries, entry{input: input, output: output})

		return len(c.entries), nil
	}

	i := 0
	for i < len(c.entries) && len(c.entries[i].input) >= len(input) {
		i++
	}

	c.entries = append(c.entries, entry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = entry{input: input, output: output}

	return len(c.entries), nil
}

// Convert translates input, matching the longest table entry that is a
// prefix of the remaining bytes at each step and falling back to copying
// one verbatim UTF-8 codepoint when nothing matches. A leading byte-order
// mark is dropped first, rather than emitted as a literal 3-byte run.
func (c *Charmap) Convert(input []byte) []byte {
	input = stripBOM(input)

	out := make([]byte, 0, len(input))

	for len(input) > 0 {
		matched := false

		for _, e := range c.entries {
			if len(e.input) <= len(input) && hasPrefix(input, e.input) {
				out = append(out, e.output)
				input = input[len(e.input):]
				matched = true

				break
			}
		}

		if matched {
			continue
		}

		n := codepointLength(input[0])
		if n > len(input) {
			n = len(input)
		}

		out = append(out, input[:n]...)
		input = input[n:]
	}

	return out
}

func hasPrefix(s, prefix []byte) bool {
	if len(s) < len(prefix) {
		return false
	}

	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}

	return true
}

// codepointLength returns the byte length of the UTF-8 codepoint starting
// with first, as determined purely by its high bits, not by validating it
// as well-formed UTF-8.
func codepointLength(first byte) int {
	switch {
	case first >= 0xFC:
		return 6
	case first >= 0xF8:
		return 5
	case first >= 0xF0:
		return 4
	case first >= 0xE0:
		return 3
	case first >= 0xC0:
		return 2
	default:
		return 1
	}
}

// stripBOM removes a leading UTF-8 byte-order mark, if present, via
// x/text's BOM-aware decoder. Invalid UTF-8 is passed through unchanged so
// malformed input still reaches Convert's byte-oriented fallback path.
func stripBOM(input []byte) []byte {
	if !utf8.Valid(input) {
		return input
	}

	out, _, err := transform.Bytes(xunicode.BOMOverride(xunicode.UTF8.NewDecoder()), input)
	if err != nil {
		return input
	}

	return out
}

// Active resolves the charmap in effect for a section: the section's own
// charmap if it has one, else the supplied global default. Re-looked-up
// per call, never cached.
func Active(sectionCharmap, global *Charmap) *Charmap {
	if sectionCharmap != nil {
		return sectionCharmap
	}

	return global
}
