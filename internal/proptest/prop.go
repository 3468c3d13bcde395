// Package proptest runs a property against many randomly generated inputs —
// used by the placer and charmap packages to check invariants (bounds,
// non-overlap, longest-match order) that hold for any input, not just the
// handful of cases a table-driven test can enumerate.
package proptest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"runtime"
	"time"
)

// Generator produces a value of type T from a PRNG and a size hint.
type Generator[T any] func(r *rand.Rand, size int) T

// Shrinker produces candidate smaller values that aim to preserve a failure.
type Shrinker[T any] func(v T) []T

// Property1 is a unary property predicate.
type Property1[A any] func(a A) bool

// Options controls a property run.
type Options struct {
	Trials      int   // number of trials; <=0 defaults to 200
	Seed        int64 // random seed; 0 means time.Now().UnixNano()
	Size        int   // size hint passed to the generator; <=0 defaults to 30
	Parallelism int   // number of worker goroutines; <=0 means GOMAXPROCS
}

// Result is the outcome of a property run.
type Result struct {
	PassedTrials int
	Failed       bool
	FailingInput any
	ShrunkInput  any
	Seed         int64
	Duration     time.Duration
}

// maxShrinkRounds bounds the shrink loop so a pathological shrinker can't
// hang a test run.
const maxShrinkRounds = 200

// ForAll1 checks a unary property across opts.Trials randomly generated
// inputs, stopping at the first failure. When shrinkA is non-nil, the
// failing input is then narrowed toward a smaller counterexample before
// being reported.
func ForAll1[A any](genA Generator[A], shrinkA Shrinker[A], prop Property1[A], opts Options) Result {
	start := time.Now()
	if opts.Trials <= 0 {
		opts.Trials = 200
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Size <= 0 {
		opts.Size = 30
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
		if opts.Parallelism <= 0 {
			opts.Parallelism = 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type task struct{ idx int }
	type outcome struct {
		idx int
		a   A
		ok  bool
	}
	tasks := make(chan task)
	outs := make(chan outcome)

	for w := 0; w < opts.Parallelism; w++ {
		go func() {
			for t := range tasks {
				r := rand.New(rand.NewSource(deriveSeed(opts.Seed, t.idx)))
				a := genA(r, opts.Size)
				ok := prop(a)
				select {
				case outs <- outcome{idx: t.idx, a: a, ok: ok}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		for i := 0; i < opts.Trials; i++ {
			select {
			case tasks <- task{idx: i}:
			case <-ctx.Done():
				close(tasks)
				return
			}
		}
		close(tasks)
	}()

	var res Result
	res.Seed = opts.Seed

	for completed := 0; completed < opts.Trials; completed++ {
		o := <-outs
		if o.ok {
			res.PassedTrials++
			continue
		}

		res.Failed = true
		res.FailingInput = o.a
		cancel()

		if shrinkA != nil {
			res.ShrunkInput = shrink(shrinkA, prop, o.a)
		}

		break
	}

	res.Duration = time.Since(start)
	return res
}

// shrink repeatedly replaces best with a smaller candidate that still fails
// prop, stopping once no candidate improves on it or maxShrinkRounds is hit.
func shrink[A any](shrinkA Shrinker[A], prop Property1[A], failing A) A {
	best := failing

	for round := 0; round < maxShrinkRounds; round++ {
		candidates := shrinkA(best)
		if len(candidates) == 0 {
			break
		}

		progressed := false
		for _, c := range candidates {
			if !prop(c) {
				best = c
				progressed = true
				break
			}
		}
		if !progressed {
			break
		}
	}

	return best
}

// deriveSeed deterministically mixes the base seed with a trial index so
// reruns with the same seed generate the same sequence of inputs regardless
// of which worker goroutine happens to pick up which trial.
func deriveSeed(base int64, idx int) int64 {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(base))
	binary.LittleEndian.PutUint64(b[8:16], uint64(idx))
	h := sha256.Sum256(b[:])
	return int64(binary.LittleEndian.Uint64(h[0:8]))
}
