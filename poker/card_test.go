package poker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	c, err := ParseCard("Ah")
	require.NoError(t, err)
	assert.Equal(t, Ace, c.Rank)
	assert.Equal(t, Hearts, c.Suit)
	assert.Equal(t, "Ah", c.String())

	c, err = ParseCard("2c")
	require.NoError(t, err)
	assert.Equal(t, Two, c.Rank)
	assert.Equal(t, Clubs, c.Suit)

	c, err = ParseCard("Ts")
	require.NoError(t, err)
	assert.Equal(t, Ten, c.Rank)
	assert.Equal(t, Spades, c.Suit)

	for _, bad := range []string{"", "A", "Ahh", "1h", "Ax", "ah"} {
		_, err := ParseCard(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}

func TestParseCards(t *testing.T) {
	cards, err := ParseCards("Ah Kd 2c")
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, "Kd", cards[1].String())

	_, err = ParseCards("Ah Zz")
	assert.Error(t, err)
}

func TestCardJSON(t *testing.T) {
	cards := MustParseCards("Ah Ts 2c")
	data, err := json.Marshal(cards)
	require.NoError(t, err)
	assert.JSONEq(t, `["Ah","Ts","2c"]`, string(data))

	var back []Card
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cards, back)
}

func TestRankNames(t *testing.T) {
	assert.Equal(t, "Ace", Ace.Name())
	assert.Equal(t, "Two", Two.Name())
	assert.Equal(t, "T", Ten.String())
}
