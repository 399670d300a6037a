package services

import (
	"testing"

	"focusFlowAPI/internal/types/leaderboard"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesWithProgress(values ...float64) []*leaderboard.Entry {
	entries := make([]*leaderboard.Entry, len(values))
	for i, v := range values {
		entries[i] = &leaderboard.Entry{UserID: uuid.New(), Username: "u", Progress: v}
	}
	return entries
}

func TestRankEntries_DenseCompetitionRanking(t *testing.T) {
	entries := entriesWithProgress(8, 10, 5, 8)

	rankEntries(entries, false)

	require.Len(t, entries, 4)
	assert.InDelta(t, 10, entries[0].Progress, 1e-9)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 2, entries[2].Rank, "tied progress shares a rank")
	assert.Equal(t, 4, entries[3].Rank, "rank after a tie is 1 + strictly better count")
}

func TestRankEntries_IdempotentOnResort(t *testing.T) {
	entries := entriesWithProgress(3, 7, 7, 1)

	rankEntries(entries, false)
	first := make([]int, len(entries))
	for i, e := range entries {
		first[i] = e.Rank
	}

	rankEntries(entries, false)
	for i, e := range entries {
		assert.Equal(t, first[i], e.Rank)
	}
}

func TestRankEntries_LowerIsBetterWithUnsetLast(t *testing.T) {
	entries := entriesWithProgress(5.2, 0, 4.1, 4.1)

	rankEntries(entries, true)

	assert.InDelta(t, 4.1, entries[0].Progress, 1e-9)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 1, entries[1].Rank)
	assert.InDelta(t, 5.2, entries[2].Progress, 1e-9)
	assert.Equal(t, 3, entries[2].Rank)
	assert.InDelta(t, 0, entries[3].Progress, 1e-9, "no attempt yet sorts last")
	assert.Equal(t, 4, entries[3].Rank)
}

func TestRankEntries_Empty(t *testing.T) {
	entries := []*leaderboard.Entry{}
	rankEntries(entries, false)
	assert.Empty(t, entries)
}
