package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
)

func TestReplaceTeamValidatesRoster(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "roster-open", "2026-07-01T08:00:00Z")
	entries := e.seedPairs(t, tournament.ID, 2)
	user := seedUser(t, e, "gia")

	var playerIDs []int
	for _, entry := range entries {
		playerIDs = append(playerIDs, entry.PlayerIDs()...)
	}
	require.Len(t, playerIDs, tournament.Policy.RosterSize)

	// Wrong size.
	_, err := e.fantasy.ReplaceTeam(ctx, testActorID, tournament.ID, user.ID, playerIDs[:3])
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	// Duplicate player.
	_, err = e.fantasy.ReplaceTeam(ctx, testActorID, tournament.ID, user.ID,
		[]int{playerIDs[0], playerIDs[0], playerIDs[1], playerIDs[2]})
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	// Player outside the entry list.
	stranger := e.seedPlayer(t, "stranger", models.GenderWomen)
	_, err = e.fantasy.ReplaceTeam(ctx, testActorID, tournament.ID, user.ID,
		[]int{playerIDs[0], playerIDs[1], playerIDs[2], stranger.ID})
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))
}

func TestReplaceTeamUpsertsAndAudits(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "upsert-open", "2026-07-01T08:00:00Z")
	entries := e.seedPairs(t, tournament.ID, 2)
	user := seedUser(t, e, "hana")

	var playerIDs []int
	for _, entry := range entries {
		playerIDs = append(playerIDs, entry.PlayerIDs()...)
	}

	team, err := e.fantasy.ReplaceTeam(ctx, testActorID, tournament.ID, user.ID, playerIDs)
	require.NoError(t, err)
	assert.Equal(t, playerIDs, team.PlayerIDs)

	stored, err := e.fantasy.GetTeam(ctx, tournament.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, playerIDs, stored.PlayerIDs)

	// A second replace swaps in place rather than adding a row.
	reordered := []int{playerIDs[3], playerIDs[2], playerIDs[1], playerIDs[0]}
	_, err = e.fantasy.ReplaceTeam(ctx, testActorID, tournament.ID, user.ID, reordered)
	require.NoError(t, err)

	teams, err := e.fantasy.ListTeams(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, reordered, teams[0].PlayerIDs)

	var replaces int
	for _, entry := range e.auditEntries(t) {
		if entry.Action == "fantasy.replace" {
			replaces++
		}
	}
	assert.Equal(t, 2, replaces)
}

func TestReplaceTeamRefusedOnceLineupLocked(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "frozen-open", "2026-06-18T08:00:00Z")
	entries := e.seedPairs(t, tournament.ID, 2)

	var playerIDs []int
	for _, entry := range entries {
		playerIDs = append(playerIDs, entry.PlayerIDs()...)
	}
	user := seedUser(t, e, "ivy")

	e.now = time.Date(2026, 6, 18, 8, 0, 1, 0, time.UTC)

	_, err := e.fantasy.ReplaceTeam(ctx, testActorID, tournament.ID, user.ID, playerIDs)
	require.Error(t, err)
	assert.Equal(t, CodeEntryListLockInvalid, CodeOf(err))

	_, err = e.fantasy.GetTeam(ctx, tournament.ID, user.ID)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}
