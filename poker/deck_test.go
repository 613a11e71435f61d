package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpoker/agentpoker/internal/randutil"
)

func TestNewDeckCanonical(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 52)

	seen := map[Card]bool{}
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Equal(t, "2h", deck[0].String())
	assert.Equal(t, "Ah", deck[12].String())
	assert.Equal(t, "As", deck[51].String())
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := NewDeck()
	Shuffle(deck, randutil.New(1))

	seen := map[Card]bool{}
	for _, c := range deck {
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffleDeterministicWithSeededSource(t *testing.T) {
	a := NewDeck()
	b := NewDeck()
	Shuffle(a, randutil.New(42))
	Shuffle(b, randutil.New(42))
	assert.Equal(t, a, b)

	c := NewDeck()
	Shuffle(c, randutil.New(43))
	assert.NotEqual(t, a, c)
}

func TestDeal(t *testing.T) {
	deck := NewDeck()
	dealt, rest, err := Deal(deck, 2)
	require.NoError(t, err)
	assert.Len(t, dealt, 2)
	assert.Len(t, rest, 50)
	assert.Equal(t, deck[0], dealt[0])
	assert.Equal(t, deck[2], rest[0])

	// The remainder must keep its order across deals.
	flop, rest2, err := Deal(rest, 3)
	require.NoError(t, err)
	assert.Equal(t, deck[2:5], flop)
	assert.Equal(t, deck[5], rest2[0])
}

func TestDealExhausted(t *testing.T) {
	deck := NewDeck()
	_, _, err := Deal(deck[:3], 4)
	assert.ErrorIs(t, err, ErrDeckExhausted)

	dealt, rest, err := Deal(deck[:3], 3)
	require.NoError(t, err)
	assert.Len(t, dealt, 3)
	assert.Empty(t, rest)
}

func TestShuffleFirstCardFrequency(t *testing.T) {
	// Smoke version of the fairness property: over many shuffles every card
	// should land in the first position with roughly uniform frequency.
	const rounds = 52000
	src := randutil.New(7)
	counts := map[Card]int{}
	deck := NewDeck()
	for i := 0; i < rounds; i++ {
		Shuffle(deck, src)
		counts[deck[0]]++
	}
	require.Len(t, counts, 52)
	for c, n := range counts {
		assert.InDelta(t, rounds/52, n, 400, "card %s first-position count %d", c, n)
	}
}

func TestCryptoSourceRange(t *testing.T) {
	var src CryptoSource
	for n := 1; n <= 52; n++ {
		for i := 0; i < 20; i++ {
			v := src.IntN(n)
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, n)
		}
	}
}
