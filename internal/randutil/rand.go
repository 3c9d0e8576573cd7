// Package randutil centralises how random sources are seeded so that games
// can be replayed from a single int64 seed.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns a fresh seed derived from the wall clock, for callers that
// want to log the seed before using it.
func Seed() int64 {
	return time.Now().UnixNano()
}

// Derive returns an independent generator for a sub-component (a table, a
// policy) so that components never share one *rand.Rand across goroutines.
func Derive(parent *rand.Rand) *rand.Rand {
	return New(parent.Int64())
}

// splitmix64 finaliser
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
