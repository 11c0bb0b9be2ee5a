// Package entropy provides the randomness source for stochastic simulation
// events. Components take a Source so runs are reproducible from a seed;
// crypto/rand backs the unseeded fallback.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Source supplies random draws to simulation components.
type Source interface {
	// Float64 returns a random float64 in [0, 1).
	Float64() float64
	// IntN returns a random int in [0, n). Panics if n <= 0.
	IntN(n int) int
}

// seeded is a deterministic Source backed by math/rand.
type seeded struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeeded creates a deterministic Source from a seed.
func NewSeeded(seed int64) Source {
	return &seeded{rng: mathrand.New(mathrand.NewSource(seed))}
}

func (s *seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *seeded) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// FromSeed selects the Source for a configured seed. A negative seed
// means no seed was configured and yields the crypto-backed Source.
func FromSeed(seed int64) Source {
	if seed < 0 {
		return Crypto{}
	}
	return NewSeeded(seed)
}

// Crypto is a non-deterministic Source backed by crypto/rand, used when no
// seed is configured.
type Crypto struct{}

func (Crypto) Float64() float64 {
	return cryptoRandFloat()
}

func (Crypto) IntN(n int) int {
	if n <= 0 {
		panic("entropy: IntN with non-positive n")
	}
	return int(cryptoRandFloat() * float64(n))
}

// IntBetween returns a random int in [lo, hi] inclusive. Degenerate ranges
// collapse to lo.
func IntBetween(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// FloatBetween returns a random float64 in [lo, hi).
func FloatBetween(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + src.Float64()*(hi-lo)
}

// cryptoRandFloat generates a random float64 in [0, 1) using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// Should never happen; 0.5 is a safe neutral default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
