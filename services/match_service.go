package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

// MatchOutcome is what a completion or correction returns: the decided match
// plus the change log of every downstream match progression touched.
type MatchOutcome struct {
	Match   *models.Match `json:"match"`
	Changes []MatchChange `json:"changes"`
}

type MatchService interface {
	Create(ctx context.Context, actorID int, match *models.Match) (*models.Match, error)
	GetByID(ctx context.Context, matchID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	GetBracket(ctx context.Context, tournamentID int) (*models.Bracket, error)
	UpdateScore(ctx context.Context, actorID, matchID int, setScores []models.SetScore) (*models.Match, error)
	Complete(ctx context.Context, actorID, matchID int) (*MatchOutcome, error)
	// Correct rewrites the result of an already completed match and re-runs
	// progression with the new winner.
	Correct(ctx context.Context, actorID, matchID int, setScores []models.SetScore) (*MatchOutcome, error)
	Delete(ctx context.Context, actorID, matchID int) error
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	entryRepo      repositories.EntryRepository
	locks          LockService
	audit          AuditService
	clock          Clock
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	entryRepo repositories.EntryRepository,
	locks LockService,
	audit AuditService,
	clock Clock,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		entryRepo:      entryRepo,
		locks:          locks,
		audit:          audit,
		clock:          clock,
	}
}

func (s *matchService) Create(ctx context.Context, actorID int, match *models.Match) (*models.Match, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(match.TournamentID)
	defer unlock()

	tournament, err := s.getTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	if !tournament.EntryListLocked {
		return nil, newDomainError(CodeEntryListNotFinal, "matches cannot be created before the entry list is final", map[string]interface{}{
			"tournamentId": tournament.ID,
			"lockAt":       tournament.Policy.LineupLockAt,
		})
	}

	if err := validateMatchSchedule(tournament.Policy, match.Day, match.ScheduledAt, s.clock()); err != nil {
		return nil, err
	}
	if match.Round < 1 || match.Slot < 1 {
		return nil, badRequestError("round and slot are 1-based", map[string]interface{}{
			"round": match.Round,
			"slot":  match.Slot,
		})
	}
	if match.BestOf < 1 || match.BestOf%2 == 0 {
		return nil, badRequestError("best-of must be a positive odd number", map[string]interface{}{
			"bestOf": match.BestOf,
		})
	}
	if err := s.validatePairs(ctx, match); err != nil {
		return nil, err
	}

	match.Status = models.MatchScheduled
	match.SetScores = nil
	match.WinnerPairID = nil
	match.CompletedAt = nil

	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	if err := s.audit.Record(ctx, actorID, "match.create", "match", match.ID, nil, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) GetByID(ctx context.Context, matchID int) (*models.Match, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	return s.getMatch(ctx, matchID)
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByTournament(ctx, tournamentID)
}

func (s *matchService) GetBracket(ctx context.Context, tournamentID int) (*models.Bracket, error) {
	matches, err := s.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return BuildBracket(tournamentID, matches), nil
}

func (s *matchService) UpdateScore(ctx context.Context, actorID, matchID int, setScores []models.SetScore) (*models.Match, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(match.TournamentID)
	defer unlock()

	// Re-read under the guard so concurrent completions cannot interleave.
	match, err = s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted || match.Status == models.MatchCorrected {
		return nil, badRequestError("completed matches take corrections, not score updates", map[string]interface{}{
			"matchId": matchID,
			"status":  string(match.Status),
		})
	}
	if len(setScores) > match.BestOf {
		return nil, badRequestError("more sets recorded than the format allows", map[string]interface{}{
			"matchId": matchID,
			"sets":    len(setScores),
			"bestOf":  match.BestOf,
		})
	}

	before := *match
	match.SetScores = setScores
	match.Status = models.MatchLive

	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update score of match %d: %w", matchID, err)
	}
	if err := s.audit.Record(ctx, actorID, "match.score", "match", matchID, &before, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) Complete(ctx context.Context, actorID, matchID int) (*MatchOutcome, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(match.TournamentID)
	defer unlock()

	match, err = s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted || match.Status == models.MatchCorrected {
		return nil, badRequestError("match is already completed", map[string]interface{}{
			"matchId": matchID,
		})
	}
	if match.HasPlaceholder() {
		return nil, badRequestError("match still has a placeholder pair and cannot be completed", map[string]interface{}{
			"matchId": matchID,
		})
	}

	winner, _, err := decideWinner(match)
	if err != nil {
		return nil, err
	}

	before := *match
	now := s.clock()
	match.WinnerPairID = winner
	match.Status = models.MatchCompleted
	match.CompletedAt = &now

	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to complete match %d: %w", matchID, err)
	}

	tournament, err := s.getTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	all, err := s.matchRepo.ListByTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	changes, err := advanceProgression(ctx, s.matchRepo, tournament.Policy, match, all)
	if err != nil {
		return nil, err
	}

	// One audit entry per progression change, then one for the completion.
	for _, change := range changes {
		if err := s.audit.Record(ctx, actorID, "match.progress", "match", change.MatchID, nil, change); err != nil {
			return nil, err
		}
	}
	if err := s.audit.Record(ctx, actorID, "match.complete", "match", matchID, &before, match); err != nil {
		return nil, err
	}
	return &MatchOutcome{Match: match, Changes: changes}, nil
}

func (s *matchService) Correct(ctx context.Context, actorID, matchID int, setScores []models.SetScore) (*MatchOutcome, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(match.TournamentID)
	defer unlock()

	match, err = s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchCompleted && match.Status != models.MatchCorrected {
		return nil, badRequestError("only completed matches can be corrected", map[string]interface{}{
			"matchId": matchID,
			"status":  string(match.Status),
		})
	}

	before := *match
	match.SetScores = setScores

	winner, _, err := decideWinner(match)
	if err != nil {
		match.SetScores = before.SetScores
		return nil, err
	}
	match.WinnerPairID = winner
	match.Status = models.MatchCorrected

	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to correct match %d: %w", matchID, err)
	}

	tournament, err := s.getTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	all, err := s.matchRepo.ListByTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	changes, err := advanceProgression(ctx, s.matchRepo, tournament.Policy, match, all)
	if err != nil {
		return nil, err
	}

	for _, change := range changes {
		if err := s.audit.Record(ctx, actorID, "match.progress", "match", change.MatchID, nil, change); err != nil {
			return nil, err
		}
	}
	if err := s.audit.Record(ctx, actorID, "match.correct", "match", matchID, &before, match); err != nil {
		return nil, err
	}
	return &MatchOutcome{Match: match, Changes: changes}, nil
}

func (s *matchService) Delete(ctx context.Context, actorID, matchID int) error {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return err
	}
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	unlock := guard.lockTournament(match.TournamentID)
	defer unlock()

	if match.Status == models.MatchCompleted || match.Status == models.MatchCorrected {
		return badRequestError("completed matches cannot be deleted", map[string]interface{}{
			"matchId": matchID,
		})
	}
	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	return s.audit.Record(ctx, actorID, "match.delete", "match", matchID, match, nil)
}

func (s *matchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) getTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

// validatePairs checks that every non-placeholder pair reference is an entry
// list item of the same tournament, and that both sides differ.
func (s *matchService) validatePairs(ctx context.Context, match *models.Match) error {
	if match.PairAID == nil && match.PairBID == nil {
		return nil
	}
	if match.PairAID != nil && match.PairBID != nil && *match.PairAID == *match.PairBID {
		return badRequestError("a pair cannot play itself", map[string]interface{}{
			"pairId": *match.PairAID,
		})
	}

	entries, err := s.entryRepo.ListByTournament(ctx, match.TournamentID)
	if err != nil {
		return err
	}
	known := make(map[int]bool, len(entries))
	for _, entry := range entries {
		known[entry.ID] = true
	}
	for _, pairID := range []*int{match.PairAID, match.PairBID} {
		if pairID != nil && !known[*pairID] {
			return badRequestError("pair is not on the tournament's entry list", map[string]interface{}{
				"pairId":       *pairID,
				"tournamentId": match.TournamentID,
			})
		}
	}
	return nil
}
