package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpoker/agentpoker/internal/history"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newAgent(id, name string, chips int) *Agent {
	return &Agent{
		ID:         id,
		Name:       name,
		APIKeyHash: "hash-" + id,
		Chips:      chips,
		CreatedAt:  1_700_000_000_000,
	}
}

func TestAgentRoundTrip(t *testing.T) {
	s := testStore(t)
	a := newAgent("a1", "PokerBot", 1000)
	a.LLMProvider = "anthropic"
	a.LLMModel = "some-model"
	require.NoError(t, s.CreateAgent(a))

	got, err := s.AgentByID("a1")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = s.AgentByKeyHash("hash-a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	_, err = s.AgentByID("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AgentByKeyHash("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAgentNameTaken(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.CreateAgent(newAgent("a1", "PokerBot", 1000)))
	err := s.CreateAgent(newAgent("a2", "PokerBot", 1000))
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestAgentUpdates(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.CreateAgent(newAgent("a1", "PokerBot", 1000)))

	require.NoError(t, s.SetAgentChips("a1", 940))
	tid := "table-1"
	require.NoError(t, s.SetCurrentTable("a1", &tid))
	require.NoError(t, s.RecordHandPlayed("a1", true, 1020))
	require.NoError(t, s.RecordHandPlayed("a1", false, 990))
	require.NoError(t, s.RecordRebuy("a1", 1000))
	// Counters without a chip write, for seats vacated mid-hand.
	require.NoError(t, s.RecordHandOutcome("a1", false))

	got, err := s.AgentByID("a1")
	require.NoError(t, err)
	assert.Equal(t, 1000, got.Chips)
	assert.Equal(t, 3, got.HandsPlayed)
	assert.Equal(t, 1, got.HandsWon)
	assert.Equal(t, 1, got.Rebuys)
	require.NotNil(t, got.CurrentTable)
	assert.Equal(t, "table-1", *got.CurrentTable)

	require.NoError(t, s.SetCurrentTable("a1", nil))
	got, err = s.AgentByID("a1")
	require.NoError(t, err)
	assert.Nil(t, got.CurrentTable)

	// Updates against a missing row say so.
	assert.ErrorIs(t, s.SetAgentChips("ghost", 10), ErrNotFound)
	assert.ErrorIs(t, s.RecordHandPlayed("ghost", false, 10), ErrNotFound)
}

func TestLeaderboardOrdersAndSkipsBanned(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.CreateAgent(newAgent("a1", "Alice", 500)))
	require.NoError(t, s.CreateAgent(newAgent("a2", "Bob", 2000)))
	require.NoError(t, s.CreateAgent(newAgent("a3", "Carol", 2000)))
	require.NoError(t, s.CreateAgent(newAgent("a4", "Mallory", 9000)))
	require.NoError(t, s.SetBanned("a4", true))

	top, err := s.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	// Ties break by name; banned agents never appear.
	assert.Equal(t, "Bob", top[0].Name)
	assert.Equal(t, "Carol", top[1].Name)
	assert.Equal(t, "Alice", top[2].Name)

	top, err = s.Leaderboard(1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestGlobalAgentStats(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.CreateAgent(newAgent("a1", "Alice", 500)))
	require.NoError(t, s.CreateAgent(newAgent("a2", "Bob", 1500)))
	tid := "table-1"
	require.NoError(t, s.SetCurrentTable("a2", &tid))

	st, err := s.GlobalAgentStats()
	require.NoError(t, err)
	assert.Equal(t, AgentStats{TotalAgents: 2, ActiveAgents: 1, ChipsInPlay: 2000}, st)
}

func sampleRecord(handID string, endedAt int64) *history.Record {
	return &history.Record{
		HandID:      handID,
		TableID:     "t1",
		Players:     []history.Player{{ID: "a1", Name: "Alice"}, {ID: "a2", Name: "Bob"}},
		Actions:     []history.Action{{AgentID: "a1", Action: "fold", Timestamp: endedAt}},
		Pot:         40,
		WinnerID:    "a2",
		WinnerName:  "Bob",
		WinningHand: "Last player standing",
		StartedAt:   endedAt - 10_000,
		EndedAt:     endedAt,
	}
}

func TestArchiveHandRoundTrip(t *testing.T) {
	s := testStore(t)
	rec := sampleRecord("h1", 5_000)
	require.NoError(t, s.ArchiveHand(rec))

	// Replaying the same archive is a no-op, not an error.
	require.NoError(t, s.ArchiveHand(rec))

	got, err := s.HandRecords("t1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])

	n, err := s.CountHands()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestArchiveHandPrunesOldRecords(t *testing.T) {
	s := testStore(t)
	for i := 0; i < handRecordsPerTable+10; i++ {
		rec := sampleRecord(fmt.Sprintf("h%03d", i), int64(1000+i))
		require.NoError(t, s.ArchiveHand(rec))
	}

	// Full records are capped per table, newest kept; summaries are not.
	got, err := s.HandRecords("t1", 1000)
	require.NoError(t, err)
	require.Len(t, got, handRecordsPerTable)
	assert.Equal(t, fmt.Sprintf("h%03d", handRecordsPerTable+9), got[0].HandID)
	assert.Equal(t, "h010", got[len(got)-1].HandID)

	n, err := s.CountHands()
	require.NoError(t, err)
	assert.Equal(t, handRecordsPerTable+10, n)
}

func TestHandRecordsLimitAndOrder(t *testing.T) {
	s := testStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.ArchiveHand(sampleRecord(fmt.Sprintf("h%d", i), int64(1000+i))))
	}
	got, err := s.HandRecords("t1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "h4", got[0].HandID)
	assert.Equal(t, "h3", got[1].HandID)

	got, err = s.HandRecords("elsewhere", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTableSnapshots(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveTableSnapshot("t1", []byte(`{"v":1}`), 100))
	require.NoError(t, s.SaveTableSnapshot("t1", []byte(`{"v":2}`), 200))
	require.NoError(t, s.SaveTableSnapshot("t2", []byte(`{"v":3}`), 300))

	blob, err := s.TableSnapshot("t1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(blob))

	snaps, err := s.TableSnapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.JSONEq(t, `{"v":3}`, string(snaps["t2"]))

	require.NoError(t, s.DeleteTableSnapshot("t1"))
	_, err = s.TableSnapshot("t1")
	assert.ErrorIs(t, err, ErrNotFound)
}
