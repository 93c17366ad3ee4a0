// Package rng provides the seeded pseudo-random source threaded through
// case generation. Identical seeds yield identical draw sequences.
package rng

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// LCG is a 64-bit linear congruential generator with an output mix step.
// It implements rand.Source.
type LCG struct {
	state uint64
}

const (
	lcgMul = 6364136223846793005
	lcgInc = 1442695040888963407
)

// NewLCG returns an LCG seeded from seed.
func NewLCG(seed int64) *LCG {
	l := &LCG{state: uint64(seed) ^ 0x9e3779b97f4a7c15}
	l.Uint64()
	return l
}

// Uint64 advances the generator.
func (l *LCG) Uint64() uint64 {
	l.state = l.state*lcgMul + lcgInc
	x := l.state
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	return x
}

// Rand wraps an LCG with the draws used by case generation.
type Rand struct {
	src *LCG
	r   *rand.Rand
}

// New returns a Rand seeded from seed.
func New(seed int64) *Rand {
	src := NewLCG(seed)
	return &Rand{src: src, r: rand.New(src)}
}

// Float64 returns a uniform draw in [0, 1).
func (r *Rand) Float64() float64 {
	return r.r.Float64()
}

// Uniform returns a uniform draw in [lo, hi).
func (r *Rand) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.r.Float64()
}

// IntN returns a uniform int in [0, n).
func (r *Rand) IntN(n int) int {
	return r.r.IntN(n)
}

// Bool returns true with probability p.
func (r *Rand) Bool(p float64) bool {
	return r.r.Float64() < p
}

// Normal returns a Gaussian draw with mean mu and standard deviation sigma.
func (r *Rand) Normal(mu, sigma float64) float64 {
	if sigma <= 0 {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: r.src}.Rand()
}

// Pick returns a uniformly chosen element of items. items must be non-empty.
func Pick[T any](r *Rand, items []T) T {
	return items[r.IntN(len(items))]
}
