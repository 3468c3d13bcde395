package charmap

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/bankforge/rgblink/internal/proptest"
	"github.com/bankforge/rgblink/internal/testassert"
)

func genASCII() proptest.Generator[[]byte] {
	return func(r *rand.Rand, size int) []byte {
		if size <= 0 {
			size = 20
		}

		n := r.Intn(size)
		out := make([]byte, n)

		for i := range out {
			out[i] = byte('a' + r.Intn(26))
		}

		return out
	}
}

// Convert on an empty table is byte-for-byte identity, for any ASCII input.
func TestPropertyEmptyTableIsIdentity(t *testing.T) {
	prop := func(s []byte) bool {
		c := New()
		return bytes.Equal(c.Convert(s), s)
	}

	result := proptest.ForAll1(genASCII(), nil, prop, proptest.Options{Trials: 100})
	testassert.False(t, result.Failed, "empty-table identity violated for input %q", result.FailingInput)
}

// After any sequence of valid Adds, the table stays sorted by strictly
// decreasing input length.
func TestPropertyTableStaysSortedAfterRandomInserts(t *testing.T) {
	prop := func(inputs [][]byte) bool {
		c := New()

		for i, in := range inputs {
			if len(in) == 0 || len(in) > CharmapLength {
				continue
			}

			_, _ = c.Add(in, byte(i))
		}

		for i := 1; i < len(c.entries); i++ {
			if len(c.entries[i-1].input) < len(c.entries[i].input) {
				return false
			}
		}

		return true
	}

	gen := proptest.GenSlice(genASCII())
	result := proptest.ForAll1(gen, nil, prop, proptest.Options{Trials: 50})
	testassert.False(t, result.Failed, "sortedness violated for input %#v", result.FailingInput)
}
