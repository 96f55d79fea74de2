package randx

import "math/rand/v2"

// Source is the random draw seam used by selection logic. Production code
// uses the shared math/rand/v2 generator; tests inject a seeded or scripted
// implementation to enumerate outcomes.
type Source interface {
	// IntN returns a uniform value in [0, n). n must be > 0.
	IntN(n int) int
}

type stdSource struct{}

func (stdSource) IntN(n int) int { return rand.IntN(n) }

// Default returns the process-wide random source.
func Default() Source { return stdSource{} }

// Seeded returns a deterministic source for tests.
func Seeded(seed uint64) Source {
	return seededSource{r: rand.New(rand.NewPCG(seed, seed))}
}

type seededSource struct{ r *rand.Rand }

func (s seededSource) IntN(n int) int { return s.r.IntN(n) }

// Pick returns a uniformly random item from items using src.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}
