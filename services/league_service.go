package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

// tieBreakModulus drives the default tie-break rule: ties on total points
// are ordered by total modulo this constant, higher first.
const tieBreakModulus = 17

const defaultTieBreaker = "total_mod_17"

type LeagueService interface {
	Create(ctx context.Context, actorID int, league *models.League) (*models.League, error)
	GetByID(ctx context.Context, leagueID int) (*models.League, error)
	List(ctx context.Context, seasonID string) ([]*models.League, error)
	Update(ctx context.Context, actorID int, league *models.League) (*models.League, error)
	Delete(ctx context.Context, actorID, leagueID int) error

	GetLeaderboard(ctx context.Context, leagueID int) ([]*models.LeaderboardRow, error)
	// RecomputeRows rebuilds the persisted leaderboard from the latest scoring
	// run of every tournament in the league's season.
	RecomputeRows(ctx context.Context, leagueID int) ([]*models.LeaderboardRow, error)
}

type leagueService struct {
	leagueRepo     repositories.LeagueRepository
	tournamentRepo repositories.TournamentRepository
	runRepo        repositories.ScoringRunRepository
	userRepo       repositories.UserRepository
	audit          AuditService
	clock          Clock
}

func NewLeagueService(
	leagueRepo repositories.LeagueRepository,
	tournamentRepo repositories.TournamentRepository,
	runRepo repositories.ScoringRunRepository,
	userRepo repositories.UserRepository,
	audit AuditService,
	clock Clock,
) LeagueService {
	return &leagueService{
		leagueRepo:     leagueRepo,
		tournamentRepo: tournamentRepo,
		runRepo:        runRepo,
		userRepo:       userRepo,
		audit:          audit,
		clock:          clock,
	}
}

func (s *leagueService) Create(ctx context.Context, actorID int, league *models.League) (*models.League, error) {
	if err := validateLeague(league); err != nil {
		return nil, err
	}
	if league.Status == "" {
		league.Status = models.LeagueActive
	}
	if len(league.TieBreakers) == 0 {
		league.TieBreakers = []string{defaultTieBreaker}
	}

	if err := s.leagueRepo.Create(ctx, league); err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}
	if err := s.audit.Record(ctx, actorID, "league.create", "league", league.ID, nil, league); err != nil {
		return nil, err
	}
	return league, nil
}

func (s *leagueService) GetByID(ctx context.Context, leagueID int) (*models.League, error) {
	league, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return league, nil
}

func (s *leagueService) List(ctx context.Context, seasonID string) ([]*models.League, error) {
	if seasonID != "" {
		return s.leagueRepo.ListBySeason(ctx, seasonID)
	}
	return s.leagueRepo.List(ctx)
}

func (s *leagueService) Update(ctx context.Context, actorID int, league *models.League) (*models.League, error) {
	if err := validateLeague(league); err != nil {
		return nil, err
	}
	before, err := s.GetByID(ctx, league.ID)
	if err != nil {
		return nil, err
	}
	if err := s.leagueRepo.Update(ctx, league); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to update league %d: %w", league.ID, err)
	}
	if err := s.audit.Record(ctx, actorID, "league.update", "league", league.ID, before, league); err != nil {
		return nil, err
	}
	return league, nil
}

func (s *leagueService) Delete(ctx context.Context, actorID, leagueID int) error {
	league, err := s.GetByID(ctx, leagueID)
	if err != nil {
		return err
	}
	if err := s.leagueRepo.Delete(ctx, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return ErrLeagueNotFound
		}
		return err
	}
	return s.audit.Record(ctx, actorID, "league.delete", "league", leagueID, league, nil)
}

func (s *leagueService) GetLeaderboard(ctx context.Context, leagueID int) ([]*models.LeaderboardRow, error) {
	if _, err := s.GetByID(ctx, leagueID); err != nil {
		return nil, err
	}
	return s.leagueRepo.ListRows(ctx, leagueID)
}

func (s *leagueService) RecomputeRows(ctx context.Context, leagueID int) ([]*models.LeaderboardRow, error) {
	league, err := s.GetByID(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	unlock := guard.lockSeason(league.SeasonID)
	defer unlock()

	tournaments, err := s.tournamentRepo.ListBySeason(ctx, league.SeasonID)
	if err != nil {
		return nil, err
	}

	// Latest run per tournament is authoritative; tournaments without a run
	// contribute nothing.
	totals := make(map[int]int)
	for _, tournament := range tournaments {
		run, err := s.runRepo.LatestByTournament(ctx, tournament.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrScoringRunNotFound) {
				continue
			}
			return nil, err
		}
		for _, t := range run.Totals {
			totals[t.UserID] += t.TotalPoints
		}
	}

	userIDs := make([]int, 0, len(totals))
	for userID := range totals {
		userIDs = append(userIDs, userID)
	}
	users, err := s.userRepo.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[int]string, len(users))
	for _, user := range users {
		nameByID[user.ID] = user.DisplayName
	}

	now := s.clock().UTC()
	rows := make([]*models.LeaderboardRow, 0, len(totals))
	for userID, total := range totals {
		rows = append(rows, &models.LeaderboardRow{
			LeagueID:        leagueID,
			UserID:          userID,
			DisplayName:     nameByID[userID],
			TotalPoints:     total,
			TieBreakerScore: total % tieBreakModulus,
			LastUpdated:     now,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		if rows[i].TieBreakerScore != rows[j].TieBreakerScore {
			return rows[i].TieBreakerScore > rows[j].TieBreakerScore
		}
		return rows[i].UserID < rows[j].UserID
	})

	// Dense ranks: fully tied rows share a rank, the next distinct score
	// takes the following integer.
	for i, row := range rows {
		if i == 0 {
			row.Rank = 1
			continue
		}
		prev := rows[i-1]
		if row.TotalPoints == prev.TotalPoints && row.TieBreakerScore == prev.TieBreakerScore {
			row.Rank = prev.Rank
		} else {
			row.Rank = prev.Rank + 1
		}
	}

	if err := s.leagueRepo.ReplaceRows(ctx, leagueID, rows); err != nil {
		return nil, fmt.Errorf("failed to persist leaderboard for league %d: %w", leagueID, err)
	}
	return rows, nil
}

func validateLeague(league *models.League) error {
	if league.Name == "" {
		return badRequestError("league name is required", nil)
	}
	if league.SeasonID == "" {
		return badRequestError("league season is required", nil)
	}
	switch league.Mode {
	case models.LeagueOverall, models.LeagueHeadToHead:
	default:
		return badRequestError("unknown league mode", map[string]interface{}{
			"mode": string(league.Mode),
		})
	}
	switch league.Status {
	case "", models.LeagueActive, models.LeagueFinished:
	default:
		return badRequestError("unknown league status", map[string]interface{}{
			"status": string(league.Status),
		})
	}
	return nil
}
