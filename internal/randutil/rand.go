// Package randutil builds deterministic rand/v2 generators for tests. Deck
// shuffles in production use poker.CryptoSource; tests seed a PCG here so
// dealt hands are reproducible.
package randutil

import rand "math/rand/v2"

// New returns a *rand.Rand seeded from a single int64. The two 64-bit PCG
// seeds are derived with a murmur-style finalizer so nearby seeds do not
// produce correlated decks.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(scramble(u), scramble(^u)))
}

func scramble(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
