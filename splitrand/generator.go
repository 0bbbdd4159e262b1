package splitrand

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"sync/atomic"
)

// Generator is a splittable pseudo-random generator.
// The zero value is not useful; use New or NewFromEntropy.
type Generator struct {
	seed  uint64
	gamma uint64
}

// State is the exported snapshot of a generator, suitable for logging or
// reproducing a run.
type State struct {
	Seed  uint64 `json:"seed" yaml:"seed"`
	Gamma uint64 `json:"gamma" yaml:"gamma"`
}

// New returns a generator seeded with seed. Equal seeds give equal sequences.
func New(seed int64) *Generator {
	return &Generator{seed: uint64(seed), gamma: goldenGamma}
}

// FromState rebuilds a generator from a snapshot. The gamma is forced odd.
func FromState(s State) *Generator {
	return &Generator{seed: s.Seed, gamma: s.Gamma | 1}
}

var defaultGen atomic.Uint64

func init() {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	defaultGen.Store(mix64(binary.LittleEndian.Uint64(b[:])))
}

// NewFromEntropy returns a generator seeded from system entropy. Generators
// created this way in one process draw from one shared counter, so they are
// also pairwise independent.
func NewFromEntropy() *Generator {
	s := defaultGen.Add(doubleGamma) - doubleGamma
	return &Generator{seed: mix64(s), gamma: mixGamma(s + goldenGamma)}
}

// State returns a snapshot of the generator.
func (g *Generator) State() State {
	return State{Seed: g.seed, Gamma: g.gamma}
}

// Clone returns an independent copy with identical state. The copy repeats
// the receiver's future output; use Split for an independent stream.
func (g *Generator) Clone() *Generator {
	c := *g
	return &c
}

func (g *Generator) nextSeed() uint64 {
	g.seed += g.gamma
	return g.seed
}

// Split divides the generator in two. The receiver is re-keyed in place and
// returned first; the second result is a new generator. Neither repeats the
// output the receiver would have produced without the split, and both carry
// fresh gammas derived from the parent state, unlike the classic scheme in
// which the parent keeps its gamma. Splitting is deterministic.
func (g *Generator) Split() (*Generator, *Generator) {
	s1 := g.nextSeed()
	s2 := g.nextSeed()
	s3 := g.nextSeed()
	s4 := g.nextSeed()
	child := &Generator{seed: mix64(s3), gamma: mixGamma(s4)}
	g.seed, g.gamma = mix64(s1), mixGamma(s2)
	return g, child
}

// At returns the generator for index i of the indexed family keyed by the
// receiver's state. The receiver is not advanced, so concurrent calls are
// safe as long as nothing draws from the receiver. Equal states and indices
// give equal generators.
func (g *Generator) At(i uint64) Generator {
	return Generator{seed: mix64(g.seed + (i+1)*g.gamma), gamma: g.gamma}
}

// Uint64 returns a uniformly distributed 64-bit value.
func (g *Generator) Uint64() uint64 {
	return mix64(g.nextSeed())
}

// Int64 returns a uniformly distributed value over the full int64 range.
func (g *Generator) Int64() int64 {
	return int64(g.Uint64())
}

// Int64n returns a value in [0, bound). It panics if bound <= 0.
func (g *Generator) Int64n(bound int64) int64 {
	if bound <= 0 {
		panic("splitrand: bound must be positive")
	}
	return int64(g.boundedUint64(uint64(bound)))
}

// Int64Range returns a value in [lo, hi). It panics if lo >= hi.
func (g *Generator) Int64Range(lo, hi int64) int64 {
	if lo >= hi {
		panic("splitrand: lo must be less than hi")
	}
	return lo + int64(g.boundedUint64(uint64(hi)-uint64(lo)))
}

// boundedUint64 draws uniformly from [0, n) by rejection of the biased tail.
func (g *Generator) boundedUint64(n uint64) uint64 {
	r := g.Uint64()
	m := n - 1
	if n&m == 0 {
		return r & m
	}
	threshold := -n % n
	for r < threshold {
		r = g.Uint64()
	}
	return r % n
}

// Uint32 returns a uniformly distributed 32-bit value.
func (g *Generator) Uint32() uint32 {
	return mix32(g.nextSeed())
}

// Intn returns a value in [0, bound). It panics if bound <= 0 or bound
// exceeds math.MaxInt32.
func (g *Generator) Intn(bound int) int {
	if bound <= 0 || bound > math.MaxInt32 {
		panic("splitrand: bound out of range")
	}
	n := uint32(bound)
	r := g.Uint32()
	m := n - 1
	if n&m == 0 {
		return int(r & m)
	}
	// reject the tail of the 31-bit range that would bias small results
	u := r >> 1
	for {
		r = u % n
		if uint64(u)-uint64(r)+uint64(m) <= math.MaxInt32 {
			return int(r)
		}
		u = g.Uint32() >> 1
	}
}

// IntRange returns a value in [lo, hi). It panics if lo >= hi.
func (g *Generator) IntRange(lo, hi int) int {
	if lo >= hi {
		panic("splitrand: lo must be less than hi")
	}
	return int(g.Int64Range(int64(lo), int64(hi)))
}

// Float64 returns a value in [0, 1).
func (g *Generator) Float64() float64 {
	return float64(g.Uint64()>>11) * doubleUnit
}

// Float64Range returns a value in [lo, hi). It panics unless lo < hi and
// both are finite.
func (g *Generator) Float64Range(lo, hi float64) float64 {
	if !(lo < hi) || math.IsInf(hi-lo, 0) {
		panic("splitrand: invalid float range")
	}
	r := g.Float64()*(hi-lo) + lo
	if r >= hi {
		r = math.Nextafter(hi, lo)
	}
	return r
}

// Bool returns a uniformly distributed boolean.
func (g *Generator) Bool() bool {
	return g.Uint32()&1 == 1
}
