// Package jitter draws the random factors used by the mocked feeds and
// venues.
package jitter

import (
	"math/rand/v2"
	"sync"
)

// Source is a PCG generator safe for concurrent use.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Source. The same non-zero seed always yields the same
// sequence; zero draws a random seed.
func New(seed uint64) *Source {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Uniform returns a value in [lo, hi). lo == hi returns lo.
func (s *Source) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.Float64()*(hi-lo)
}

// Factor returns 1 + U(-spread, spread).
func (s *Source) Factor(spread float64) float64 {
	return 1 + s.Uniform(-spread, spread)
}
