package poker

import (
	"fmt"
)

// Rank is a card rank from Two (2) to Ace (14).
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankChars = map[Rank]byte{
	Two: '2', Three: '3', Four: '4', Five: '5', Six: '6', Seven: '7',
	Eight: '8', Nine: '9', Ten: 'T', Jack: 'J', Queen: 'Q', King: 'K', Ace: 'A',
}

var rankNames = map[Rank]string{
	Two: "Two", Three: "Three", Four: "Four", Five: "Five", Six: "Six",
	Seven: "Seven", Eight: "Eight", Nine: "Nine", Ten: "Ten",
	Jack: "Jack", Queen: "Queen", King: "King", Ace: "Ace",
}

// Name returns the spelled-out rank ("Ace", "Ten").
func (r Rank) Name() string {
	return rankNames[r]
}

func (r Rank) String() string {
	if c, ok := rankChars[r]; ok {
		return string(c)
	}
	return "?"
}

// Suit is one of hearts, diamonds, clubs, spades.
type Suit byte

const (
	Hearts   Suit = 'h'
	Diamonds Suit = 'd'
	Clubs    Suit = 'c'
	Spades   Suit = 's'
)

func (s Suit) String() string { return string(byte(s)) }

// Card is a single playing card. The zero value is not a valid card.
type Card struct {
	Rank Rank
	Suit Suit
}

// String renders the card in compact wire form, e.g. "Ah", "Ts", "2c".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// ParseCard parses the compact form produced by String.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	var rank Rank
	found := false
	for r, ch := range rankChars {
		if ch == s[0] {
			rank = r
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid card rank %q", s)
	}
	switch Suit(s[1]) {
	case Hearts, Diamonds, Clubs, Spades:
	default:
		return Card{}, fmt.Errorf("invalid card suit %q", s)
	}
	return Card{Rank: rank, Suit: Suit(s[1])}, nil
}

// MustParseCard is ParseCard that panics on bad input. For tests and literals.
func MustParseCard(s string) Card {
	c, err := ParseCard(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCards parses a space-separated list like "Ah Kd 2c".
func ParseCards(s string) ([]Card, error) {
	var cards []Card
	start := -1
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ' ' {
			if start >= 0 {
				c, err := ParseCard(s[start:i])
				if err != nil {
					return nil, err
				}
				cards = append(cards, c)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return cards, nil
}

// MustParseCards is ParseCards that panics on bad input.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// MarshalJSON encodes the card as its compact string form.
func (c Card) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON decodes the compact string form.
func (c *Card) UnmarshalJSON(data []byte) error {
	if len(data) != 4 || data[0] != '"' || data[3] != '"' {
		return fmt.Errorf("invalid card json %s", data)
	}
	parsed, err := ParseCard(string(data[1:3]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CardStrings renders a slice of cards to their wire forms.
func CardStrings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
