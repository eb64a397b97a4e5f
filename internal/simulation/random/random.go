package random

import (
	"math/rand/v2"
	"sync"

	"github.com/smallbiznis/churnwatch/internal/config"
)

// Source is a mutex-guarded PRNG shared by the generator and the stepper.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New seeds a reproducible source. A zero seed draws one from the runtime.
func New(seed uint64) *Source {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Between returns a uniform integer in the inclusive range.
func (s *Source) Between(r config.IntRange) int {
	if r.Max <= r.Min {
		return r.Min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.Min + s.rng.IntN(r.Max-r.Min+1)
}

func (s *Source) Bool() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(2) == 1
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}

// Index picks a uniform index in [0, n).
func (s *Source) Index(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
