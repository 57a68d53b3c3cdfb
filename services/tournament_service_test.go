package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
)

func TestCreateTournamentSeedsDefaultScoringConfig(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "warsaw-open", "2026-07-01T08:00:00Z")

	assert.Equal(t, models.StatusDraft, tournament.Status)

	config, err := e.scoring.GetConfig(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultBasePointMultiplier, config.BasePointMultiplier)
	assert.Equal(t, models.DefaultBonusTwoNil, config.BonusTwoNil)
	assert.Equal(t, models.DefaultBonusTwoOne, config.BonusTwoOne)
}

func TestPolicyValidationNamesOffendingFields(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	_, err := e.tournaments.Create(ctx, testActorID, &models.Tournament{
		SeasonID: "2026",
		Name:     "Broken Policy Open",
		Slug:     "broken-policy",
		Gender:   models.GenderWomen,
		Policy: models.TournamentPolicy{
			RosterSize:   10,
			StarterCount: 6,
			ReserveCount: 5,
			LineupLockAt: "2026-07-01T08:00:00Z",
			Timezone:     "UTC",
		},
	})
	require.Error(t, err)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeBadRequest, domainErr.Code)
	assert.Equal(t, 10, domainErr.Details["rosterSize"])
	assert.Equal(t, 6, domainErr.Details["starterCount"])
	assert.Equal(t, 5, domainErr.Details["reserveCount"])
}

func TestTournamentValidationRejectsBadInputs(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	base := func() *models.Tournament {
		return &models.Tournament{
			SeasonID: "2026",
			Name:     "Check Open",
			Slug:     "check-open",
			Gender:   models.GenderWomen,
			Policy:   womenPolicy("2026-07-01T08:00:00Z", "UTC"),
		}
	}

	bad := base()
	bad.Slug = "Bad Slug!"
	_, err := e.tournaments.Create(ctx, testActorID, bad)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	bad = base()
	bad.Gender = "mixed"
	_, err = e.tournaments.Create(ctx, testActorID, bad)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	bad = base()
	bad.Policy.LineupLockAt = "next friday"
	_, err = e.tournaments.Create(ctx, testActorID, bad)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	bad = base()
	bad.Policy.Timezone = "Mars/OlympusMons"
	_, err = e.tournaments.Create(ctx, testActorID, bad)
	assert.Equal(t, CodeBadRequest, CodeOf(err))
}

func TestStatusTransitionsFollowLifecycle(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "lifecycle-open", "2026-07-01T08:00:00Z")

	// Skipping a step fails.
	_, err := e.tournaments.SetStatus(ctx, testActorID, tournament.ID, models.StatusLive, false)
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	updated, err := e.tournaments.SetStatus(ctx, testActorID, tournament.ID, models.StatusOpen, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, updated.Status)

	// Force bypasses the table and leaves a distinct audit action.
	updated, err = e.tournaments.SetStatus(ctx, testActorID, tournament.ID, models.StatusArchived, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, updated.Status)

	var forced bool
	for _, entry := range e.auditEntries(t) {
		if entry.Action == "tournament.status.force" {
			forced = true
		}
	}
	assert.True(t, forced)
}

func TestPolicyImmutableAfterLock(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "locked-open", "2026-06-18T08:00:00Z")

	e.now = time.Date(2026, 6, 18, 9, 0, 0, 0, time.UTC)

	update := *tournament
	update.Policy.ReserveCount = 1
	update.Policy.RosterSize = 3
	_, err := e.tournaments.Update(ctx, testActorID, &update)
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	// Non-policy fields stay editable.
	update = *tournament
	update.Name = "Renamed Open"
	renamed, err := e.tournaments.Update(ctx, testActorID, &update)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Open", renamed.Name)
	assert.True(t, renamed.EntryListLocked, "lock state survives updates")
}

func TestDeleteOnlyDraftOrArchived(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "delete-open", "2026-07-01T08:00:00Z")

	_, err := e.tournaments.SetStatus(ctx, testActorID, tournament.ID, models.StatusOpen, false)
	require.NoError(t, err)

	err = e.tournaments.Delete(ctx, testActorID, tournament.ID)
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	_, err = e.tournaments.SetStatus(ctx, testActorID, tournament.ID, models.StatusArchived, true)
	require.NoError(t, err)
	require.NoError(t, e.tournaments.Delete(ctx, testActorID, tournament.ID))

	_, err = e.tournaments.GetByID(ctx, tournament.ID)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestListPaginates(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	for _, slug := range []string{"page-a", "page-b", "page-c"} {
		e.createTournament(t, slug, "2026-07-01T08:00:00Z")
	}

	page, err := e.tournaments.List(ctx, "2026", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 1)

	// Defaults kick in for out-of-range values.
	page, err = e.tournaments.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Len(t, page.Items, 3)
}
