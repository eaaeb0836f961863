// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source is the engine's source of randomness. It is injected rather than
// owned so historical pulls can be replayed deterministically from a logged
// seed, and the statistical test suite can run on a fixed stream.
type Source interface {
	// Uint64 returns a uniformly distributed 64-bit value.
	Uint64() uint64
}

// cryptoSource reads from crypto/rand. Used when no source is injected.
type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable; math/rand/v2 is
		// seeded from the runtime and keeps pulls flowing.
		return rand.Uint64()
	}
	return binary.BigEndian.Uint64(buf[:])
}

// DefaultSource returns the production randomness source.
func DefaultSource() Source { return cryptoSource{} }

// seededSource is a deterministic PCG stream for replay and simulation.
type seededSource struct {
	r *rand.Rand
}

// NewSeededSource returns a Source producing the same stream for the same
// seed.
func NewSeededSource(seed uint64) Source {
	return &seededSource{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededSource) Uint64() uint64 { return s.r.Uint64() }

// uniformN returns a uniform value in [0, n) without modulo bias.
func uniformN(src Source, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	// Rejection sampling: discard values from the tail that would skew the
	// modulo. The loop terminates quickly; the rejection region is < n.
	limit := (^uint64(0) / n) * n
	for {
		v := src.Uint64()
		if v < limit {
			return v % n
		}
	}
}

// drawWeight returns a uniform draw in [0, TotalWeight).
func drawWeight(src Source) Weight {
	return Weight(uniformN(src, uint64(TotalWeight)))
}

// coinFlip resolves the 50/50: an independent uniform draw, strictly below
// the midpoint means featured.
func coinFlip(src Source) bool {
	return uniformN(src, uint64(TotalWeight)) < uint64(TotalWeight)/2
}
