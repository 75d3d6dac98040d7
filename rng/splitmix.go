// Package rng provides SplitMix64, a small, fast generator with good
// statistical independence between nearby seeds.  Each render band gets its
// own stream.
package rng

import "math/rand"

const golden = 0x9E3779B97F4A7C15

type SplitMix64 struct {
	state uint64
}

var _ rand.Source64 = (*SplitMix64)(nil)

func NewSplitMix64(seed uint64) *SplitMix64 {
	s := &SplitMix64{}
	s.Seed(int64(seed))
	return s
}

// New is the usual way to get a generator: a *rand.Rand over a SplitMix64
// stream.
func New(seed uint64) *rand.Rand {
	return rand.New(NewSplitMix64(seed))
}

func scramble(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

func (s *SplitMix64) Seed(seed int64) {
	s.state = scramble(uint64(seed) + golden)
}

func (s *SplitMix64) Uint64() uint64 {
	s.state += golden
	return scramble(s.state)
}

func (s *SplitMix64) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

// Unit returns a uniform value in [0, 1) built from the top 53 bits.
func (s *SplitMix64) Unit() float64 {
	return float64(s.Uint64()>>11) * (1.0 / (1 << 53))
}

// BandSeed mixes a coarse clock, a worker index and a frame counter into one
// seed.  Workers in the same frame get unrelated streams.
func BandSeed(tick uint64, worker int, frame uint64) uint64 {
	return (tick << 32) ^ (uint64(worker) * golden) ^ frame
}
