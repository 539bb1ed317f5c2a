// Package noise provides the two deterministic PRNG families spec.md §9
// calls for: a plain white-noise stream for general-purpose reservoir
// acceptance tests, and a blue-noise surrogate (spatially decorrelated,
// preferred for hemisphere sampling) built from Perlin noise. Both are
// seeded purely from (frame, pixel) plus a per-pass counter, so a given
// (frame, pixel, pass) triple always reproduces the same stream.
package noise

import (
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// Seed combines a frame-wide seed, a pixel coordinate and a per-pass
// counter into one deterministic 64-bit value. Mixing is a standard
// splitmix-style avalanche so adjacent pixels/frames don't produce
// correlated low bits.
func Seed(frameSeed uint64, x, y int32, pass uint32) int64 {
	h := frameSeed
	h ^= uint64(uint32(x))*0x9E3779B97F4A7C15 + uint64(pass)
	h ^= uint64(uint32(y))*0xC2B2AE3D27D4EB4F + (h << 6) + (h >> 2)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return int64(h)
}

// WhiteNoise returns a *rand.Rand deterministically seeded from (frame,
// pixel, pass) — the "white-noise" PRNG family spec.md §9 names for
// reservoir accept/reject draws.
func WhiteNoise(frameSeed uint64, x, y int32, pass uint32) *rand.Rand {
	return rand.New(rand.NewSource(Seed(frameSeed, x, y, pass)))
}

// BlueNoise is the spatially decorrelated surrogate stream spec.md §9
// prefers for hemisphere/BRDF-lobe sampling directions. It's backed by a
// 2D Perlin field evaluated at the pixel coordinate (scaled into the
// field's continuous domain) and re-seeded per pass/frame, giving each
// pass its own low-discrepancy-ish offset without needing a real Sobol
// sequence implementation.
type BlueNoise struct {
	field  *perlin.Perlin
	x, y   float64
	stream *rand.Rand
}

// NewBlueNoise constructs a blue-noise sampler for one pixel's draws
// within one pass of one frame.
func NewBlueNoise(frameSeed uint64, x, y int32, pass uint32) *BlueNoise {
	seed := Seed(frameSeed, x, y, pass)
	return &BlueNoise{
		field:  perlin.NewPerlin(2, 2, 3, seed),
		x:      float64(x) * 0.137,
		y:      float64(y) * 0.137,
		stream: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns the next value in [0,1] from the blue-noise surrogate
// stream, advancing an internal phase so repeated calls don't alias onto
// the same field sample.
func (b *BlueNoise) Float64() float64 {
	b.x += 0.618033988749895 // golden-ratio phase advance, low-discrepancy in 1D
	b.y += 0.414213562373095
	v := b.field.Noise2D(b.x, b.y) // in roughly [-1, 1]
	return clamp01((v + 1) / 2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
