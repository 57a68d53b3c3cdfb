package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

// systemActorID marks audit records written by time-driven transitions
// rather than an admin request.
const systemActorID = 0

// LockService applies the time-driven lineup lock. The transition is lazy:
// SyncLocks runs at the start of every operation that depends on lock state,
// and again on a background ticker so idle tournaments still converge.
type LockService interface {
	IsLockTimePassed(tournament *models.Tournament, reference time.Time) bool
	SyncLocks(ctx context.Context) error
}

type lockService struct {
	tournamentRepo repositories.TournamentRepository
	audit          AuditService
	clock          Clock
	logger         *slog.Logger
}

func NewLockService(
	tournamentRepo repositories.TournamentRepository,
	audit AuditService,
	clock Clock,
	logger *slog.Logger,
) LockService {
	return &lockService{
		tournamentRepo: tournamentRepo,
		audit:          audit,
		clock:          clock,
		logger:         logger,
	}
}

// IsLockTimePassed reports whether reference is at or past the policy's lock
// instant. An unparseable lock timestamp means the tournament never locks.
func (s *lockService) IsLockTimePassed(tournament *models.Tournament, reference time.Time) bool {
	lockAt, err := time.Parse(time.RFC3339, tournament.Policy.LineupLockAt)
	if err != nil {
		return false
	}
	return !reference.Before(lockAt)
}

// SyncLocks locks every due tournament. Idempotent: tournaments already fully
// locked, or not yet due, are left untouched.
func (s *lockService) SyncLocks(ctx context.Context) error {
	now := s.clock()

	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tournaments for lock sync: %w", err)
	}

	for _, tournament := range tournaments {
		if tournament.FullyLocked() || !s.IsLockTimePassed(tournament, now) {
			continue
		}

		before := *tournament
		tournament.EntryListLocked = true
		tournament.LineupLocked = true

		if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
			return fmt.Errorf("failed to apply lock to tournament %d: %w", tournament.ID, err)
		}
		if err := s.audit.Record(ctx, systemActorID, "tournament.lock", "tournament", tournament.ID, &before, tournament); err != nil {
			return fmt.Errorf("failed to audit lock of tournament %d: %w", tournament.ID, err)
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "lineup lock applied",
				slog.Int("tournament_id", tournament.ID),
				slog.String("lock_at", tournament.Policy.LineupLockAt))
		}
	}
	return nil
}
