package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

type FantasyService interface {
	GetTeam(ctx context.Context, tournamentID, userID int) (*models.FantasyTeam, error)
	ListTeams(ctx context.Context, tournamentID int) ([]*models.FantasyTeam, error)
	// ReplaceTeam swaps a user's whole roster. Rosters are frozen once the
	// lineup lock has been applied.
	ReplaceTeam(ctx context.Context, actorID, tournamentID, userID int, playerIDs []int) (*models.FantasyTeam, error)
}

type fantasyService struct {
	fantasyRepo    repositories.FantasyTeamRepository
	tournamentRepo repositories.TournamentRepository
	entryRepo      repositories.EntryRepository
	locks          LockService
	audit          AuditService
}

func NewFantasyService(
	fantasyRepo repositories.FantasyTeamRepository,
	tournamentRepo repositories.TournamentRepository,
	entryRepo repositories.EntryRepository,
	locks LockService,
	audit AuditService,
) FantasyService {
	return &fantasyService{
		fantasyRepo:    fantasyRepo,
		tournamentRepo: tournamentRepo,
		entryRepo:      entryRepo,
		locks:          locks,
		audit:          audit,
	}
}

func (s *fantasyService) GetTeam(ctx context.Context, tournamentID, userID int) (*models.FantasyTeam, error) {
	team, err := s.fantasyRepo.GetByTournamentAndUser(ctx, tournamentID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrFantasyTeamNotFound) {
			return nil, ErrFantasyTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (s *fantasyService) ListTeams(ctx context.Context, tournamentID int) ([]*models.FantasyTeam, error) {
	return s.fantasyRepo.ListByTournament(ctx, tournamentID)
}

func (s *fantasyService) ReplaceTeam(ctx context.Context, actorID, tournamentID, userID int, playerIDs []int) (*models.FantasyTeam, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(tournamentID)
	defer unlock()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.LineupLocked {
		return nil, newDomainError(CodeEntryListLockInvalid, "the lineup is locked and rosters can no longer change", map[string]interface{}{
			"tournamentId": tournamentID,
			"lockedAt":     tournament.Policy.LineupLockAt,
		})
	}

	if len(playerIDs) != tournament.Policy.RosterSize {
		return nil, badRequestError("roster size does not match the tournament policy", map[string]interface{}{
			"rosterSize": tournament.Policy.RosterSize,
			"players":    len(playerIDs),
		})
	}

	entries, err := s.entryRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	eligible := make(map[int]bool)
	for _, entry := range entries {
		for _, playerID := range entry.PlayerIDs() {
			eligible[playerID] = true
		}
	}
	seen := make(map[int]bool, len(playerIDs))
	for _, playerID := range playerIDs {
		if seen[playerID] {
			return nil, badRequestError("roster lists a player twice", map[string]interface{}{
				"playerId": playerID,
			})
		}
		seen[playerID] = true
		if !eligible[playerID] {
			return nil, badRequestError("roster player is not on the tournament's entry list", map[string]interface{}{
				"playerId": playerID,
			})
		}
	}

	var before *models.FantasyTeam
	if existing, err := s.fantasyRepo.GetByTournamentAndUser(ctx, tournamentID, userID); err == nil {
		before = existing
	} else if !errors.Is(err, repositories.ErrFantasyTeamNotFound) {
		return nil, err
	}

	team := &models.FantasyTeam{
		TournamentID: tournamentID,
		UserID:       userID,
		PlayerIDs:    playerIDs,
	}
	if err := s.fantasyRepo.Upsert(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to save fantasy team for user %d: %w", userID, err)
	}

	var beforeSnapshot interface{}
	if before != nil {
		beforeSnapshot = before
	}
	if err := s.audit.Record(ctx, actorID, "fantasy.replace", "fantasy_team", team.ID, beforeSnapshot, team); err != nil {
		return nil, err
	}
	return team, nil
}
