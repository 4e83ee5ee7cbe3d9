package random

import "math/rand/v2"

// Source is the randomness used by branching decisions. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

func New() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Pick returns a uniformly chosen element of items. items must not be empty.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}
