package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
)

func seedRun(t *testing.T, e *testEnv, tournamentID int, totals []models.UserTotal) {
	t.Helper()
	require.NoError(t, e.store.ScoringRuns().Create(context.Background(), &models.ScoringRun{
		TournamentID: tournamentID,
		Status:       models.RunCompleted,
		TriggeredBy:  testActorID,
		StartedAt:    e.now,
		FinishedAt:   e.now,
		Totals:       totals,
	}))
}

func seedUser(t *testing.T, e *testEnv, name string) *models.User {
	t.Helper()
	user := &models.User{Email: name + "@example.com", DisplayName: name, Role: models.RoleUser, PasswordHash: "h"}
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

func TestRecomputeRowsSumsLatestRunsOnly(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	t1 := e.createTournament(t, "leg-one", "2026-07-01T08:00:00Z")
	t2 := e.createTournament(t, "leg-two", "2026-07-08T08:00:00Z")
	u1 := seedUser(t, e, "ada")
	u2 := seedUser(t, e, "bo")

	league, err := e.leagues.Create(ctx, testActorID, &models.League{SeasonID: "2026", Name: "Tour", Mode: models.LeagueOverall})
	require.NoError(t, err)

	// An older run that must be ignored once a newer one exists.
	seedRun(t, e, t1.ID, []models.UserTotal{{UserID: u1.ID, TotalPoints: 99}})
	seedRun(t, e, t1.ID, []models.UserTotal{{UserID: u1.ID, TotalPoints: 20}, {UserID: u2.ID, TotalPoints: 13}})
	seedRun(t, e, t2.ID, []models.UserTotal{{UserID: u1.ID, TotalPoints: 6}, {UserID: u2.ID, TotalPoints: 13}})

	rows, err := e.leagues.RecomputeRows(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, u1.ID, rows[0].UserID)
	assert.Equal(t, 26, rows[0].TotalPoints)
	assert.Equal(t, "ada", rows[0].DisplayName)
	assert.Equal(t, 1, rows[0].Rank)

	assert.Equal(t, u2.ID, rows[1].UserID)
	assert.Equal(t, 26, rows[1].TotalPoints)
	assert.Equal(t, 1, rows[1].Rank, "identical totals share a dense rank")
}

func TestRecomputeRowsDenseRanksAndTieBreak(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "solo-leg", "2026-07-01T08:00:00Z")
	u1 := seedUser(t, e, "carla")
	u2 := seedUser(t, e, "dana")
	u3 := seedUser(t, e, "ed")

	league, err := e.leagues.Create(ctx, testActorID, &models.League{SeasonID: "2026", Name: "Tour", Mode: models.LeagueOverall})
	require.NoError(t, err)

	seedRun(t, e, tournament.ID, []models.UserTotal{
		{UserID: u1.ID, TotalPoints: 40},
		{UserID: u2.ID, TotalPoints: 40},
		{UserID: u3.ID, TotalPoints: 25},
	})

	rows, err := e.leagues.RecomputeRows(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 1, rows[1].Rank)
	assert.Equal(t, 2, rows[2].Rank, "rank is dense, not skipped")

	assert.Equal(t, 40%17, rows[0].TieBreakerScore)
	assert.Equal(t, 25%17, rows[2].TieBreakerScore)

	// Equal totals order deterministically by user id.
	assert.Equal(t, u1.ID, rows[0].UserID)
	assert.Equal(t, u2.ID, rows[1].UserID)
}

func TestRecomputeRowsPersistsLeaderboard(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "persist-leg", "2026-07-01T08:00:00Z")
	u1 := seedUser(t, e, "fay")

	league, err := e.leagues.Create(ctx, testActorID, &models.League{SeasonID: "2026", Name: "Tour", Mode: models.LeagueOverall})
	require.NoError(t, err)
	seedRun(t, e, tournament.ID, []models.UserTotal{{UserID: u1.ID, TotalPoints: 17}})

	e.now = e.now.Add(time.Hour)
	_, err = e.leagues.RecomputeRows(ctx, league.ID)
	require.NoError(t, err)

	rows, err := e.leagues.GetLeaderboard(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 17, rows[0].TotalPoints)
	assert.Equal(t, 0, rows[0].TieBreakerScore)
	assert.Equal(t, e.now.UTC(), rows[0].LastUpdated)
}

func TestLeagueValidation(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	_, err := e.leagues.Create(ctx, testActorID, &models.League{SeasonID: "2026", Mode: models.LeagueOverall})
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	_, err = e.leagues.Create(ctx, testActorID, &models.League{SeasonID: "2026", Name: "X", Mode: "round_robin"})
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	league, err := e.leagues.Create(ctx, testActorID, &models.League{SeasonID: "2026", Name: "X", Mode: models.LeagueHeadToHead})
	require.NoError(t, err)
	assert.Equal(t, models.LeagueActive, league.Status)
	assert.Equal(t, []string{defaultTieBreaker}, league.TieBreakers)

	_, err = e.leagues.GetByID(ctx, league.ID+100)
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}
