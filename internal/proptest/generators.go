package proptest

import "math/rand"

// GenSlice lifts an element generator into a generator of slices of that
// element, sized by the same size hint — used to generate batches of
// charmap table entries from a single-entry generator.
func GenSlice[T any](elem Generator[T]) Generator[[]T] {
	return func(r *rand.Rand, size int) []T {
		if size < 0 {
			size = 0
		}

		n := r.Intn(size + 1)
		out := make([]T, n)

		for i := range out {
			out[i] = elem(r, size)
		}

		return out
	}
}
