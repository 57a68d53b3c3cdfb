package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

const winPointsBase = 10

type ScoringConfigPatch struct {
	BasePointMultiplier *int `json:"base_point_multiplier,omitempty"`
	BonusTwoNil         *int `json:"bonus_two_nil,omitempty"`
	BonusTwoOne         *int `json:"bonus_two_one,omitempty"`
}

type ScoringService interface {
	GetConfig(ctx context.Context, tournamentID int) (*models.ScoringConfig, error)
	UpdateConfig(ctx context.Context, actorID, tournamentID int, patch ScoringConfigPatch) (*models.ScoringConfig, error)
	// Recalculate produces a new immutable scoring run from the current match
	// results and rosters, then refreshes every league leaderboard in the
	// tournament's season.
	Recalculate(ctx context.Context, actorID, tournamentID int) (*models.ScoringRun, error)
	ListRuns(ctx context.Context, tournamentID int) ([]*models.ScoringRun, error)
	LatestRun(ctx context.Context, tournamentID int) (*models.ScoringRun, error)
}

type scoringService struct {
	configRepo     repositories.ScoringConfigRepository
	runRepo        repositories.ScoringRunRepository
	matchRepo      repositories.MatchRepository
	entryRepo      repositories.EntryRepository
	fantasyRepo    repositories.FantasyTeamRepository
	tournamentRepo repositories.TournamentRepository
	leagueRepo     repositories.LeagueRepository
	leagues        LeagueService
	audit          AuditService
	clock          Clock
}

func NewScoringService(
	configRepo repositories.ScoringConfigRepository,
	runRepo repositories.ScoringRunRepository,
	matchRepo repositories.MatchRepository,
	entryRepo repositories.EntryRepository,
	fantasyRepo repositories.FantasyTeamRepository,
	tournamentRepo repositories.TournamentRepository,
	leagueRepo repositories.LeagueRepository,
	leagues LeagueService,
	audit AuditService,
	clock Clock,
) ScoringService {
	return &scoringService{
		configRepo:     configRepo,
		runRepo:        runRepo,
		matchRepo:      matchRepo,
		entryRepo:      entryRepo,
		fantasyRepo:    fantasyRepo,
		tournamentRepo: tournamentRepo,
		leagueRepo:     leagueRepo,
		leagues:        leagues,
		audit:          audit,
		clock:          clock,
	}
}

func (s *scoringService) GetConfig(ctx context.Context, tournamentID int) (*models.ScoringConfig, error) {
	config, err := s.configRepo.GetByTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoringConfigNotFound) {
			return nil, ErrScoringConfigNotFound
		}
		return nil, err
	}
	return config, nil
}

func (s *scoringService) UpdateConfig(ctx context.Context, actorID, tournamentID int, patch ScoringConfigPatch) (*models.ScoringConfig, error) {
	unlock := guard.lockTournament(tournamentID)
	defer unlock()

	config, err := s.GetConfig(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	before := *config

	if patch.BasePointMultiplier != nil {
		config.BasePointMultiplier = *patch.BasePointMultiplier
	}
	if patch.BonusTwoNil != nil {
		config.BonusTwoNil = *patch.BonusTwoNil
	}
	if patch.BonusTwoOne != nil {
		config.BonusTwoOne = *patch.BonusTwoOne
	}
	if config.BasePointMultiplier < 1 {
		return nil, badRequestError("base point multiplier must be at least 1", map[string]interface{}{
			"basePointMultiplier": config.BasePointMultiplier,
		})
	}
	if config.BonusTwoNil < 0 || config.BonusTwoOne < 0 {
		return nil, badRequestError("bonuses cannot be negative", map[string]interface{}{
			"bonusTwoNil": config.BonusTwoNil,
			"bonusTwoOne": config.BonusTwoOne,
		})
	}

	if err := s.configRepo.Update(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to update scoring config for tournament %d: %w", tournamentID, err)
	}
	if err := s.audit.Record(ctx, actorID, "scoring.config.update", "tournament", tournamentID, &before, config); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *scoringService) Recalculate(ctx context.Context, actorID, tournamentID int) (*models.ScoringRun, error) {
	unlock := guard.lockTournament(tournamentID)
	defer unlock()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	config, err := s.GetConfig(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entryRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	teams, err := s.fantasyRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	startedAt := s.clock()
	playerPoints := computePlayerPoints(matches, entries, config)
	totals := aggregateUserTotals(teams, playerPoints)

	run := &models.ScoringRun{
		TournamentID: tournamentID,
		Status:       models.RunCompleted,
		TriggeredBy:  actorID,
		StartedAt:    startedAt.UTC(),
		FinishedAt:   s.clock().UTC(),
		Totals:       totals,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record scoring run for tournament %d: %w", tournamentID, err)
	}
	if err := s.audit.Record(ctx, actorID, "scoring.recalculate", "tournament", tournamentID, nil, run); err != nil {
		return nil, err
	}

	if err := s.refreshSeasonLeaderboards(ctx, tournament.SeasonID); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *scoringService) ListRuns(ctx context.Context, tournamentID int) ([]*models.ScoringRun, error) {
	return s.runRepo.ListByTournament(ctx, tournamentID)
}

func (s *scoringService) LatestRun(ctx context.Context, tournamentID int) (*models.ScoringRun, error) {
	run, err := s.runRepo.LatestByTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoringRunNotFound) {
			return nil, notFoundError("no scoring run recorded for this tournament")
		}
		return nil, err
	}
	return run, nil
}

// refreshSeasonLeaderboards recomputes every league in the season, one
// goroutine per league. Finished leagues are refreshed too: a correction to
// one of their tournaments must still reflow into the standings.
func (s *scoringService) refreshSeasonLeaderboards(ctx context.Context, seasonID string) error {
	leagues, err := s.leagueRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, league := range leagues {
		leagueID := league.ID
		g.Go(func() error {
			if _, err := s.leagues.RecomputeRows(gctx, leagueID); err != nil {
				return fmt.Errorf("failed to refresh leaderboard for league %d: %w", leagueID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// computePlayerPoints walks the decided matches and credits both players of
// each winning pair. The per-win value is winPointsBase scaled by the config
// multiplier, plus the sweep or deciding-set bonus.
func computePlayerPoints(matches []*models.Match, entries []*models.EntryListItem, config *models.ScoringConfig) map[int]int {
	entryByID := make(map[int]*models.EntryListItem, len(entries))
	for _, entry := range entries {
		entryByID[entry.ID] = entry
	}

	points := make(map[int]int)
	for _, m := range matches {
		if m.Status != models.MatchCompleted && m.Status != models.MatchCorrected {
			continue
		}
		if m.WinnerPairID == nil {
			continue
		}
		entry, ok := entryByID[*m.WinnerPairID]
		if !ok {
			continue
		}

		value := winPointsBase * config.BasePointMultiplier
		value += matchBonus(m, config)
		for _, playerID := range entry.PlayerIDs() {
			points[playerID] += value
		}
	}
	return points
}

// matchBonus returns the extra points for how the win was achieved: a sweep
// pays the two-nil bonus, a deciding-set win pays the two-one bonus.
func matchBonus(m *models.Match, config *models.ScoringConfig) int {
	var winnerSets, loserSets int
	winnerIsA := m.PairAID != nil && m.WinnerPairID != nil && *m.PairAID == *m.WinnerPairID
	for _, set := range m.SetScores {
		aWon := set.A > set.B
		if aWon == winnerIsA {
			winnerSets++
		} else {
			loserSets++
		}
	}
	switch {
	case winnerSets > 0 && loserSets == 0:
		return config.BonusTwoNil
	case loserSets == winnerSets-1:
		return config.BonusTwoOne
	}
	return 0
}

// aggregateUserTotals sums roster player points per fantasy team. Every team
// gets a row, zero totals included, ordered by user ID so identical inputs
// always serialize identically.
func aggregateUserTotals(teams []*models.FantasyTeam, playerPoints map[int]int) []models.UserTotal {
	totals := make([]models.UserTotal, 0, len(teams))
	for _, team := range teams {
		total := 0
		for _, playerID := range team.PlayerIDs {
			total += playerPoints[playerID]
		}
		totals = append(totals, models.UserTotal{UserID: team.UserID, TotalPoints: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].UserID < totals[j].UserID })
	return totals
}
