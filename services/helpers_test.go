package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

const testActorID = 7

// testEnv wires the full service graph over the in-memory store with a
// controllable clock.
type testEnv struct {
	store *repositories.MemoryStore
	now   time.Time

	audit       AuditService
	locks       LockService
	auth        AuthService
	tournaments TournamentService
	entries     EntryService
	matches     MatchService
	scoring     ScoringService
	leagues     LeagueService
	fantasy     FantasyService
}

func newTestEnv() *testEnv {
	e := &testEnv{
		store: repositories.NewMemoryStore(),
		now:   time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	clock := Clock(func() time.Time { return e.now })

	e.audit = NewAuditService(e.store.Audit(), clock)
	e.locks = NewLockService(e.store.Tournaments(), e.audit, clock, nil)
	e.auth = NewAuthService(e.store.Users(), "test-secret")
	e.tournaments = NewTournamentService(e.store.Tournaments(), e.store.ScoringConfigs(), e.locks, e.audit, nil, clock)
	e.entries = NewEntryService(e.store.Entries(), e.store.Tournaments(), e.store.Players(), e.locks, e.audit)
	e.matches = NewMatchService(e.store.Matches(), e.store.Tournaments(), e.store.Entries(), e.locks, e.audit, clock)
	e.leagues = NewLeagueService(e.store.Leagues(), e.store.Tournaments(), e.store.ScoringRuns(), e.store.Users(), e.audit, clock)
	e.scoring = NewScoringService(
		e.store.ScoringConfigs(), e.store.ScoringRuns(), e.store.Matches(), e.store.Entries(),
		e.store.FantasyTeams(), e.store.Tournaments(), e.store.Leagues(), e.leagues, e.audit, clock,
	)
	e.fantasy = NewFantasyService(e.store.FantasyTeams(), e.store.Tournaments(), e.store.Entries(), e.locks, e.audit)
	return e
}

func (e *testEnv) createTournament(t *testing.T, slug, lockAt string) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		SeasonID: "2026",
		Name:     "Test Open " + slug,
		Slug:     slug,
		Gender:   models.GenderWomen,
		Policy: models.TournamentPolicy{
			RosterSize:   4,
			StarterCount: 2,
			ReserveCount: 2,
			LineupLockAt: lockAt,
			Timezone:     "UTC",
		},
	}
	created, err := e.tournaments.Create(context.Background(), testActorID, tournament)
	require.NoError(t, err)
	return created
}

// seedPairs creates count pairs of women players and installs them as direct
// entries, returning the normalized entry list.
func (e *testEnv) seedPairs(t *testing.T, tournamentID, count int) []*models.EntryListItem {
	t.Helper()
	ctx := context.Background()

	items := make([]*models.EntryListItem, 0, count)
	for i := 0; i < count; i++ {
		p1 := e.seedPlayer(t, fmt.Sprintf("t%d-pair%d-a", tournamentID, i+1), models.GenderWomen)
		p2 := e.seedPlayer(t, fmt.Sprintf("t%d-pair%d-b", tournamentID, i+1), models.GenderWomen)
		items = append(items, &models.EntryListItem{
			TournamentID: tournamentID,
			Player1ID:    p1.ID,
			Player2ID:    p2.ID,
			Ranking:      i + 1,
			EntryStatus:  models.EntryDirect,
		})
	}
	saved, err := e.entries.Replace(ctx, testActorID, tournamentID, items)
	require.NoError(t, err)
	return saved
}

func (e *testEnv) seedPlayer(t *testing.T, name string, gender models.Gender) *models.Player {
	t.Helper()
	player := &models.Player{Name: name, Gender: gender}
	require.NoError(t, e.store.Players().Create(context.Background(), player))
	return player
}

func (e *testEnv) auditEntries(t *testing.T) []*models.AuditLogEntry {
	t.Helper()
	page, err := e.audit.List(context.Background(), repositories.AuditFilter{Page: 1, PageSize: 1000})
	require.NoError(t, err)
	return page.Items
}

func intPtr(v int) *int { return &v }
