package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
)

func TestSuccessorSlot(t *testing.T) {
	cases := []struct {
		round, slot         int
		wantRound, wantSlot int
		wantSide            string
	}{
		{1, 1, 2, 1, "A"},
		{1, 2, 2, 1, "B"},
		{1, 3, 2, 2, "A"},
		{1, 4, 2, 2, "B"},
		{2, 1, 3, 1, "A"},
		{2, 2, 3, 1, "B"},
	}
	for _, tc := range cases {
		round, slot, side := successorSlot(tc.round, tc.slot)
		assert.Equal(t, tc.wantRound, round)
		assert.Equal(t, tc.wantSlot, slot)
		assert.Equal(t, tc.wantSide, side)
	}
}

func TestBuildBracketLinksAndOrders(t *testing.T) {
	matches := []*models.Match{
		{ID: 30, TournamentID: 1, Round: 2, Slot: 1, Status: models.MatchScheduled},
		{ID: 10, TournamentID: 1, Round: 1, Slot: 2, Status: models.MatchScheduled, PairAID: intPtr(3), PairBID: intPtr(4)},
		{ID: 20, TournamentID: 1, Round: 1, Slot: 1, Status: models.MatchCompleted, PairAID: intPtr(1), PairBID: intPtr(2), WinnerPairID: intPtr(1)},
	}

	bracket := BuildBracket(1, matches)

	require.Len(t, bracket.Rounds, 2)
	assert.Equal(t, 1, bracket.Rounds[0].Round)
	assert.Equal(t, 2, bracket.Rounds[1].Round)

	round1 := bracket.Rounds[0].Nodes
	require.Len(t, round1, 2)
	assert.Equal(t, 20, round1[0].MatchID) // slot order, not input order
	assert.Equal(t, 10, round1[1].MatchID)

	require.NotNil(t, round1[0].NextMatchID)
	assert.Equal(t, 30, *round1[0].NextMatchID)
	assert.Equal(t, "A", round1[0].NextSlotSide)
	require.NotNil(t, round1[1].NextMatchID)
	assert.Equal(t, 30, *round1[1].NextMatchID)
	assert.Equal(t, "B", round1[1].NextSlotSide)

	final := bracket.Rounds[1].Nodes[0]
	assert.Nil(t, final.NextMatchID)
	assert.Empty(t, final.NextSlotSide)
}

func TestBuildBracketDeterministic(t *testing.T) {
	matches := []*models.Match{
		{ID: 3, TournamentID: 9, Round: 2, Slot: 1},
		{ID: 1, TournamentID: 9, Round: 1, Slot: 1},
		{ID: 2, TournamentID: 9, Round: 1, Slot: 2},
	}
	shuffled := []*models.Match{matches[2], matches[0], matches[1]}

	a := BuildBracket(9, matches)
	b := BuildBracket(9, shuffled)
	assert.Equal(t, a, b)
}
