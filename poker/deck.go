package poker

import (
	crand "crypto/rand"
	"errors"
	"math/big"
)

// ErrDeckExhausted is returned when a deal asks for more cards than remain.
var ErrDeckExhausted = errors.New("deck exhausted")

// Source yields uniform integers in [0,n) for shuffling. Production code uses
// CryptoSource; tests inject a seeded generator.
type Source interface {
	IntN(n int) int
}

// CryptoSource draws from crypto/rand. Int performs unbiased rejection
// sampling internally, so every swap index is uniform.
type CryptoSource struct{}

func (CryptoSource) IntN(n int) int {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto rand failed: " + err.Error())
	}
	return int(v.Int64())
}

var suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// NewDeck returns the 52 cards in canonical order: suits h, d, c, s, ranks
// Two through Ace within each suit.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for r := Two; r <= Ace; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Shuffle performs an in-place Fisher-Yates shuffle, drawing each swap index
// uniformly from [0,i] via src.
func Shuffle(deck []Card, src Source) {
	for i := len(deck) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// Deal splits off the first n cards. The remainder keeps its order; dealing
// never reshuffles.
func Deal(deck []Card, n int) (dealt, rest []Card, err error) {
	if n > len(deck) {
		return nil, deck, ErrDeckExhausted
	}
	return deck[:n:n], deck[n:], nil
}
