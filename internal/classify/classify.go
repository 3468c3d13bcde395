// Package classify buckets unassigned sections by constraint mask so the
// placer can process the most-constrained sections first.
package classify

import "github.com/bankforge/rgblink/internal/section"

// NumBuckets is the dense 0..7 index space for every combination of the
// three constraint bits; buckets 3 and 7 (ORG|ALIGN combinations) are
// always empty since a section cannot be both address-fixed and
// align-fixed.
const NumBuckets = 8

// Buckets holds, for each constraint mask, the sections assigned to it
// sorted by strictly decreasing size (ties broken by insertion order).
type Buckets [NumBuckets][]*section.Section

// Classify inserts every section of secs into its bucket.
func Classify(secs []*section.Section) *Buckets {
	var b Buckets

	for _, s := range secs {
		b.insert(s)
	}

	return &b
}

func (b *Buckets) insert(s *section.Section) {
	mask := s.Constraints()
	bucket := b[mask]

	// Insertion-sort into place: find the first element smaller than s,
	// preserving insertion order among equal sizes.
	i := 0
	for i < len(bucket) && bucket[i].Size >= s.Size {
		i++
	}

	bucket = append(bucket, nil)
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = s
	b[mask] = bucket
}
