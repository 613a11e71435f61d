package poker

import (
	"fmt"
	"sort"
)

// HandClass categorises a 5-card hand, weakest first.
type HandClass int

const (
	HighCard HandClass = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var classNames = [...]string{
	"High Card", "Pair", "Two Pair", "Three of a Kind", "Straight",
	"Flush", "Full House", "Four of a Kind", "Straight Flush", "Royal Flush",
}

func (c HandClass) String() string {
	if c < HighCard || c > RoyalFlush {
		return "Unknown"
	}
	return classNames[c]
}

// HandValue is the total-order value of a hand: a class plus the ordered
// kicker vector that breaks ties within the class. Two HandValues compare
// equal exactly when the pots split.
type HandValue struct {
	Class   HandClass
	Kickers []Rank
}

// Compare returns <0 if v is weaker than other, >0 if stronger, 0 on a
// genuine tie. Kicker vectors within one class always have equal length.
func (v HandValue) Compare(other HandValue) int {
	if v.Class != other.Class {
		return int(v.Class) - int(other.Class)
	}
	for i := range v.Kickers {
		if i >= len(other.Kickers) {
			return 1
		}
		if v.Kickers[i] != other.Kickers[i] {
			return int(v.Kickers[i]) - int(other.Kickers[i])
		}
	}
	if len(other.Kickers) > len(v.Kickers) {
		return -1
	}
	return 0
}

// Describe renders the value the way hand records name winners, e.g.
// "Ace high", "Pair of Queens", "Full House, Kings over Fours".
func (v HandValue) Describe() string {
	k := func(i int) string { return v.Kickers[i].Name() }
	switch v.Class {
	case HighCard:
		return fmt.Sprintf("%s high", k(0))
	case Pair:
		return fmt.Sprintf("Pair of %ss", k(0))
	case TwoPair:
		return fmt.Sprintf("Two Pair, %ss and %ss", k(0), k(1))
	case ThreeOfAKind:
		return fmt.Sprintf("Three of a Kind, %ss", k(0))
	case Straight:
		return fmt.Sprintf("Straight, %s high", k(0))
	case Flush:
		return fmt.Sprintf("Flush, %s high", k(0))
	case FullHouse:
		return fmt.Sprintf("Full House, %ss over %ss", k(0), k(1))
	case FourOfAKind:
		return fmt.Sprintf("Four of a Kind, %ss", k(0))
	case StraightFlush:
		return fmt.Sprintf("Straight Flush, %s high", k(0))
	case RoyalFlush:
		return "Royal Flush"
	}
	return "Unknown"
}

// Evaluate returns the best value any 5 of the given 5-7 cards can make. It
// enumerates every 5-card subset (at most C(7,5)=21) and keeps the maximum.
func Evaluate(cards []Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandValue{}, fmt.Errorf("evaluate needs 5-7 cards, got %d", len(cards))
	}
	if len(cards) == 5 {
		return classify(cards), nil
	}

	var best HandValue
	first := true
	idx := [5]int{}
	n := len(cards)
	for idx[0] = 0; idx[0] < n-4; idx[0]++ {
		for idx[1] = idx[0] + 1; idx[1] < n-3; idx[1]++ {
			for idx[2] = idx[1] + 1; idx[2] < n-2; idx[2]++ {
				for idx[3] = idx[2] + 1; idx[3] < n-1; idx[3]++ {
					for idx[4] = idx[3] + 1; idx[4] < n; idx[4]++ {
						hand := [5]Card{cards[idx[0]], cards[idx[1]], cards[idx[2]], cards[idx[3]], cards[idx[4]]}
						v := classify(hand[:])
						if first || v.Compare(best) > 0 {
							best = v
							first = false
						}
					}
				}
			}
		}
	}
	return best, nil
}

// classify computes the value of exactly 5 cards.
func classify(hand []Card) HandValue {
	ranks := make([]Rank, 5)
	for i, c := range hand {
		ranks[i] = c.Rank
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	flush := true
	for _, c := range hand[1:] {
		if c.Suit != hand[0].Suit {
			flush = false
			break
		}
	}

	straightHigh, straight := straightHighCard(ranks)

	switch {
	case flush && straight && straightHigh == Ace:
		return HandValue{Class: RoyalFlush, Kickers: []Rank{Ace}}
	case flush && straight:
		return HandValue{Class: StraightFlush, Kickers: []Rank{straightHigh}}
	}

	counts := map[Rank]int{}
	for _, r := range ranks {
		counts[r]++
	}
	// Group ranks by multiplicity, higher counts first, then higher ranks.
	grouped := make([]Rank, 0, 5)
	for _, r := range ranks {
		seen := false
		for _, g := range grouped {
			if g == r {
				seen = true
				break
			}
		}
		if !seen {
			grouped = append(grouped, r)
		}
	}
	sort.SliceStable(grouped, func(i, j int) bool {
		if counts[grouped[i]] != counts[grouped[j]] {
			return counts[grouped[i]] > counts[grouped[j]]
		}
		return grouped[i] > grouped[j]
	})

	switch {
	case counts[grouped[0]] == 4:
		return HandValue{Class: FourOfAKind, Kickers: []Rank{grouped[0], grouped[1]}}
	case counts[grouped[0]] == 3 && counts[grouped[1]] == 2:
		return HandValue{Class: FullHouse, Kickers: []Rank{grouped[0], grouped[1]}}
	case flush:
		return HandValue{Class: Flush, Kickers: ranks}
	case straight:
		return HandValue{Class: Straight, Kickers: []Rank{straightHigh}}
	case counts[grouped[0]] == 3:
		return HandValue{Class: ThreeOfAKind, Kickers: grouped}
	case counts[grouped[0]] == 2 && counts[grouped[1]] == 2:
		return HandValue{Class: TwoPair, Kickers: grouped}
	case counts[grouped[0]] == 2:
		return HandValue{Class: Pair, Kickers: grouped}
	}
	return HandValue{Class: HighCard, Kickers: ranks}
}

// straightHighCard reports whether the descending distinct ranks form a
// straight and its high card. An Ace may play low in A-2-3-4-5, making the
// high card Five; wrap-arounds like Q-K-A-2-3 never count.
func straightHighCard(desc []Rank) (Rank, bool) {
	for i := 1; i < len(desc); i++ {
		if desc[i-1] == desc[i] {
			return 0, false
		}
	}
	if desc[0] == Ace && desc[1] == Five && desc[2] == Four && desc[3] == Three && desc[4] == Two {
		return Five, true
	}
	for i := 1; i < len(desc); i++ {
		if desc[i-1]-desc[i] != 1 {
			return 0, false
		}
	}
	return desc[0], true
}
