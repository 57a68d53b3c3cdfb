package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
)

func TestRecalculateAppliesBasePointsAndBonuses(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	_, pairs, matches := seedLockedBracket(t, e)

	// Semi 1: pair 1 wins in straight sets (sweep bonus).
	_, err := e.matches.UpdateScore(ctx, testActorID, matches[0].ID, []models.SetScore{{A: 21, B: 15}, {A: 21, B: 18}})
	require.NoError(t, err)
	_, err = e.matches.Complete(ctx, testActorID, matches[0].ID)
	require.NoError(t, err)

	// Semi 2: pair 3 wins in three sets (deciding-set bonus).
	_, err = e.matches.UpdateScore(ctx, testActorID, matches[1].ID, []models.SetScore{{A: 21, B: 15}, {A: 17, B: 21}, {A: 15, B: 10}})
	require.NoError(t, err)
	_, err = e.matches.Complete(ctx, testActorID, matches[1].ID)
	require.NoError(t, err)

	tournament := matches[0].TournamentID

	// User 1 owns both players of the sweeping pair, user 2 one player of
	// each winning pair plus two losers.
	sweepers := pairs[0].PlayerIDs()
	deciders := pairs[2].PlayerIDs()
	losers := pairs[1].PlayerIDs()

	// Rosters are sized by policy (4).
	roster1 := []int{sweepers[0], sweepers[1], losers[0], losers[1]}
	roster2 := []int{sweepers[0], deciders[0], losers[0], losers[1]}
	_, err = e.fantasy.ReplaceTeam(ctx, testActorID, tournament, 1, roster1)
	require.Error(t, err, "rosters are frozen once the lineup lock has passed")

	// Seed rosters directly: the lock has already passed in this fixture.
	require.NoError(t, e.store.FantasyTeams().Upsert(ctx, &models.FantasyTeam{TournamentID: tournament, UserID: 1, PlayerIDs: roster1}))
	require.NoError(t, e.store.FantasyTeams().Upsert(ctx, &models.FantasyTeam{TournamentID: tournament, UserID: 2, PlayerIDs: roster2}))

	run, err := e.scoring.Recalculate(ctx, testActorID, tournament)
	require.NoError(t, err)
	require.Len(t, run.Totals, 2)

	// Sweep win: 10*1+3 = 13 per player. Deciding-set win: 10*1+1 = 11.
	assert.Equal(t, models.UserTotal{UserID: 1, TotalPoints: 26}, run.Totals[0])
	assert.Equal(t, models.UserTotal{UserID: 2, TotalPoints: 24}, run.Totals[1])
}

func TestRecalculateIsDeterministic(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	_, pairs, matches := seedLockedBracket(t, e)

	_, err := e.matches.UpdateScore(ctx, testActorID, matches[0].ID, []models.SetScore{{A: 21, B: 15}, {A: 21, B: 18}})
	require.NoError(t, err)
	_, err = e.matches.Complete(ctx, testActorID, matches[0].ID)
	require.NoError(t, err)

	tournament := matches[0].TournamentID
	winners := pairs[0].PlayerIDs()
	losers := pairs[1].PlayerIDs()
	require.NoError(t, e.store.FantasyTeams().Upsert(ctx, &models.FantasyTeam{TournamentID: tournament, UserID: 3, PlayerIDs: []int{winners[0], winners[1], losers[0], losers[1]}}))

	run1, err := e.scoring.Recalculate(ctx, testActorID, tournament)
	require.NoError(t, err)
	run2, err := e.scoring.Recalculate(ctx, testActorID, tournament)
	require.NoError(t, err)

	js1, err := json.Marshal(run1.Totals)
	require.NoError(t, err)
	js2, err := json.Marshal(run2.Totals)
	require.NoError(t, err)
	assert.Equal(t, js1, js2)

	// Runs accumulate, newest first.
	runs, err := e.scoring.ListRuns(ctx, tournament)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, run2.ID, runs[0].ID)

	latest, err := e.scoring.LatestRun(ctx, tournament)
	require.NoError(t, err)
	assert.Equal(t, run2.ID, latest.ID)
}

func TestRecalculateRefreshesSeasonLeagues(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	_, pairs, matches := seedLockedBracket(t, e)
	tournament := matches[0].TournamentID

	league, err := e.leagues.Create(ctx, testActorID, &models.League{
		SeasonID: "2026",
		Name:     "Main League",
		Mode:     models.LeagueOverall,
	})
	require.NoError(t, err)

	require.NoError(t, e.store.Users().Create(ctx, &models.User{Email: "x@example.com", DisplayName: "Xenia", Role: models.RoleUser, PasswordHash: "h"}))

	_, err = e.matches.UpdateScore(ctx, testActorID, matches[0].ID, []models.SetScore{{A: 21, B: 15}, {A: 21, B: 18}})
	require.NoError(t, err)
	_, err = e.matches.Complete(ctx, testActorID, matches[0].ID)
	require.NoError(t, err)

	winners := pairs[0].PlayerIDs()
	losers := pairs[1].PlayerIDs()
	require.NoError(t, e.store.FantasyTeams().Upsert(ctx, &models.FantasyTeam{TournamentID: tournament, UserID: 1, PlayerIDs: []int{winners[0], winners[1], losers[0], losers[1]}}))

	_, err = e.scoring.Recalculate(ctx, testActorID, tournament)
	require.NoError(t, err)

	rows, err := e.leagues.GetLeaderboard(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].UserID)
	assert.Equal(t, 26, rows[0].TotalPoints)
	assert.Equal(t, 1, rows[0].Rank)
}

func TestRecalculateRefreshesFinishedLeaguesToo(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	_, pairs, matches := seedLockedBracket(t, e)
	tournament := matches[0].TournamentID

	// A finished league still reflows when one of its tournaments is
	// recalculated (result corrections arrive after a league wraps up).
	finished := &models.League{
		SeasonID:    "2026",
		Name:        "Wrapped League",
		Mode:        models.LeagueOverall,
		Status:      models.LeagueFinished,
		TieBreakers: []string{defaultTieBreaker},
	}
	require.NoError(t, e.store.Leagues().Create(ctx, finished))
	require.NoError(t, e.store.Users().Create(ctx, &models.User{Email: "y@example.com", DisplayName: "Yara", Role: models.RoleUser, PasswordHash: "h"}))

	_, err := e.matches.UpdateScore(ctx, testActorID, matches[0].ID, []models.SetScore{{A: 21, B: 15}, {A: 21, B: 18}})
	require.NoError(t, err)
	_, err = e.matches.Complete(ctx, testActorID, matches[0].ID)
	require.NoError(t, err)

	winners := pairs[0].PlayerIDs()
	losers := pairs[1].PlayerIDs()
	require.NoError(t, e.store.FantasyTeams().Upsert(ctx, &models.FantasyTeam{TournamentID: tournament, UserID: 1, PlayerIDs: []int{winners[0], winners[1], losers[0], losers[1]}}))

	_, err = e.scoring.Recalculate(ctx, testActorID, tournament)
	require.NoError(t, err)

	rows, err := e.leagues.GetLeaderboard(ctx, finished.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 26, rows[0].TotalPoints)
}

func TestUpdateConfigChangesRunOutput(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	_, pairs, matches := seedLockedBracket(t, e)
	tournament := matches[0].TournamentID

	_, err := e.matches.UpdateScore(ctx, testActorID, matches[0].ID, []models.SetScore{{A: 21, B: 15}, {A: 21, B: 18}})
	require.NoError(t, err)
	_, err = e.matches.Complete(ctx, testActorID, matches[0].ID)
	require.NoError(t, err)

	winners := pairs[0].PlayerIDs()
	losers := pairs[1].PlayerIDs()
	require.NoError(t, e.store.FantasyTeams().Upsert(ctx, &models.FantasyTeam{TournamentID: tournament, UserID: 1, PlayerIDs: []int{winners[0], winners[1], losers[0], losers[1]}}))

	_, err = e.scoring.UpdateConfig(ctx, testActorID, tournament, ScoringConfigPatch{
		BasePointMultiplier: intPtr(2),
		BonusTwoNil:         intPtr(5),
	})
	require.NoError(t, err)

	run, err := e.scoring.Recalculate(ctx, testActorID, tournament)
	require.NoError(t, err)
	require.Len(t, run.Totals, 1)
	// (10*2 + 5) per winning player, two of them on the roster.
	assert.Equal(t, 50, run.Totals[0].TotalPoints)
}

func TestUpdateConfigValidatesValues(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "config-check", "2026-07-01T08:00:00Z")

	_, err := e.scoring.UpdateConfig(ctx, testActorID, tournament.ID, ScoringConfigPatch{BasePointMultiplier: intPtr(0)})
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	_, err = e.scoring.UpdateConfig(ctx, testActorID, tournament.ID, ScoringConfigPatch{BonusTwoNil: intPtr(-1)})
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))
}
