package dmath

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// RNG provides deterministic random number generation for a single
// analysis stage, derived from a world/master seed so that repeated
// runs over the same inputs are bit-for-bit reproducible.
//
// Derivation: seed_stage = H(masterSeed, stageName, configHash), where
// H is SHA-256 and the first 8 bytes become the uint64 seed. Adapted
// from the teacher's pkg/rng.RNG, generalized with additional stage
// names ("economy", "trademarket", "policyopt", ...) for this domain.
type RNG struct {
	seed      uint64
	stageName string
	source    *rand.Rand
}

// NewRNG derives a stage-specific RNG from a master seed, stage name,
// and configuration hash.
func NewRNG(masterSeed uint64, stageName string, configHash []byte) *RNG {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], masterSeed)
	h.Write(buf[:])
	h.Write([]byte(stageName))
	h.Write(configHash)

	hash := h.Sum(nil)
	derivedSeed := binary.BigEndian.Uint64(hash[:8])

	return &RNG{
		seed:      derivedSeed,
		stageName: stageName,
		source:    rand.New(rand.NewSource(int64(derivedSeed))),
	}
}

func (r *RNG) Uint64() uint64   { return r.source.Uint64() }
func (r *RNG) Seed() uint64     { return r.seed }
func (r *RNG) StageName() string { return r.stageName }

// Intn returns a pseudo-random integer in [0, n). Panics if n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic("dmath: Intn argument must be positive")
	}
	return r.source.Intn(n)
}

// Float64 returns a pseudo-random float64 in [0.0, 1.0).
func (r *RNG) Float64() float64 { return r.source.Float64() }

// IntRange returns a pseudo-random integer in [min, max]. Panics if min > max.
func (r *RNG) IntRange(lo, hi int) int {
	if lo > hi {
		panic("dmath: IntRange min must be <= max")
	}
	if lo == hi {
		return lo
	}
	return lo + r.source.Intn(hi-lo+1)
}

// Float64Range returns a pseudo-random float64 in [min, max). Panics if min >= max.
func (r *RNG) Float64Range(lo, hi float64) float64 {
	if lo >= hi {
		panic("dmath: Float64Range min must be < max")
	}
	return lo + r.source.Float64()*(hi-lo)
}

// Bool returns a pseudo-random boolean.
func (r *RNG) Bool() bool { return r.source.Intn(2) == 1 }

// Shuffle pseudo-randomizes the order of n elements via swap.
func (r *RNG) Shuffle(n int, swap func(i, j int)) { r.source.Shuffle(n, swap) }

// NormFloat64 returns a standard-normal sample (used by PolicyOptimizer's
// CEM candidate sampling).
func (r *RNG) NormFloat64() float64 { return r.source.NormFloat64() }

// SplitMix64 is a standalone deterministic stream generator independent
// of math/rand, used where the original's sampling relies on an explicit
// SplitMix64 step sequence (e.g. RoadResilienceBypass node subsampling).
type SplitMix64 struct {
	state uint64
}

// NewSplitMix64 seeds a SplitMix64 stream.
func NewSplitMix64(seed uint64) *SplitMix64 { return &SplitMix64{state: seed} }

// Next advances and returns the next 64-bit value.
func (s *SplitMix64) Next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}
