package world

import (
	"hash/fnv"
	"math/rand"
)

// DefaultSeed anchors every subsystem RNG when the config leaves the root
// seed empty, keeping demo runs reproducible out of the box.
const DefaultSeed = "ballpit-default"

// DeterministicSeedValue derives a stable 64-bit seed from a root seed and a
// subsystem label. Distinct labels under the same root produce independent
// streams.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG builds a rand.Rand seeded for the given subsystem.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// RandomFloat draws from rng, falling back to a deterministic default stream
// when rng is nil.
func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.New(rand.NewSource(DeterministicSeedValue(DefaultSeed, "world"))).Float64()
	}
	return rng.Float64()
}

// RandomRange draws a value in [min, max) from rng.
func RandomRange(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + RandomFloat(rng)*(max-min)
}
