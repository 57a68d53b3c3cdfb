package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

type EntryService interface {
	List(ctx context.Context, tournamentID int) ([]*models.EntryListItem, error)
	// Replace swaps the whole entry list atomically. Gender integrity is
	// checked over the full batch before anything is persisted.
	Replace(ctx context.Context, actorID, tournamentID int, items []*models.EntryListItem) ([]*models.EntryListItem, error)
	Patch(ctx context.Context, actorID, tournamentID, itemID int, patch EntryPatch) ([]*models.EntryListItem, error)
}

type EntryPatch struct {
	Ranking      *int                `json:"ranking,omitempty"`
	EntryStatus  *models.EntryStatus `json:"entry_status,omitempty"`
	ReserveOrder *int                `json:"reserve_order,omitempty"`
}

type entryService struct {
	entryRepo      repositories.EntryRepository
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	locks          LockService
	audit          AuditService
}

func NewEntryService(
	entryRepo repositories.EntryRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	locks LockService,
	audit AuditService,
) EntryService {
	return &entryService{
		entryRepo:      entryRepo,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		locks:          locks,
		audit:          audit,
	}
}

func (s *entryService) List(ctx context.Context, tournamentID int) ([]*models.EntryListItem, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.entryRepo.ListByTournament(ctx, tournamentID)
}

func (s *entryService) Replace(ctx context.Context, actorID, tournamentID int, items []*models.EntryListItem) ([]*models.EntryListItem, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(tournamentID)
	defer unlock()

	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.EntryListLocked {
		return nil, newDomainError(CodeEntryListLockInvalid, "entry list is locked and can no longer be modified", map[string]interface{}{
			"tournamentId": tournamentID,
			"lockedAt":     tournament.Policy.LineupLockAt,
		})
	}

	for _, item := range items {
		if item.TournamentID != 0 && item.TournamentID != tournamentID {
			return nil, badRequestError("entry list item does not belong to the target tournament", map[string]interface{}{
				"tournamentId":     tournamentID,
				"itemTournamentId": item.TournamentID,
			})
		}
		if !item.EntryStatus.Valid() {
			return nil, badRequestError("unknown entry status", map[string]interface{}{
				"entryStatus": string(item.EntryStatus),
			})
		}
	}

	if err := s.assertGenderIntegrity(ctx, tournament, items); err != nil {
		return nil, err
	}

	before, err := s.entryRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	normalizeEntryList(items)

	if err := s.entryRepo.ReplaceForTournament(ctx, tournamentID, items); err != nil {
		return nil, fmt.Errorf("failed to replace entry list for tournament %d: %w", tournamentID, err)
	}
	if err := s.audit.Record(ctx, actorID, "entrylist.replace", "tournament", tournamentID, before, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *entryService) Patch(ctx context.Context, actorID, tournamentID, itemID int, patch EntryPatch) ([]*models.EntryListItem, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(tournamentID)
	defer unlock()

	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.EntryListLocked {
		return nil, newDomainError(CodeEntryListLockInvalid, "entry list is locked and can no longer be modified", map[string]interface{}{
			"tournamentId": tournamentID,
		})
	}

	items, err := s.entryRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	var target *models.EntryListItem
	for _, item := range items {
		if item.ID == itemID {
			target = item
			break
		}
	}
	if target == nil {
		return nil, ErrEntryNotFound
	}

	// Renormalization can reshuffle sibling reserve orders, so the audit
	// snapshot covers the whole list, not just the patched item.
	before := make([]*models.EntryListItem, len(items))
	for i, item := range items {
		clone := *item
		clone.ReserveOrder = intPtrClone(item.ReserveOrder)
		before[i] = &clone
	}

	if patch.Ranking != nil {
		target.Ranking = *patch.Ranking
	}
	if patch.EntryStatus != nil {
		if !patch.EntryStatus.Valid() {
			return nil, badRequestError("unknown entry status", map[string]interface{}{
				"entryStatus": string(*patch.EntryStatus),
			})
		}
		target.EntryStatus = *patch.EntryStatus
	}
	if patch.ReserveOrder != nil {
		target.ReserveOrder = patch.ReserveOrder
	}

	// Membership or status changed, so the whole list gets renormalized.
	normalizeEntryList(items)

	for _, item := range items {
		if err := s.entryRepo.Update(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to persist normalized entry %d: %w", item.ID, err)
		}
	}
	if err := s.audit.Record(ctx, actorID, "entrylist.patch", "entry", itemID, before, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *entryService) getTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

// assertGenderIntegrity verifies every referenced player exists and matches
// the tournament's gender. One violation aborts the whole batch.
func (s *entryService) assertGenderIntegrity(ctx context.Context, tournament *models.Tournament, items []*models.EntryListItem) error {
	ids := make([]int, 0, len(items)*2)
	seen := make(map[int]bool)
	for _, item := range items {
		for _, id := range item.PlayerIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load players for gender check: %w", err)
	}
	byID := make(map[int]*models.Player, len(players))
	for _, player := range players {
		byID[player.ID] = player
	}

	for _, id := range ids {
		player, ok := byID[id]
		if !ok {
			return badRequestError("entry list references an unknown player", map[string]interface{}{
				"playerId": id,
			})
		}
		if player.Gender != tournament.Gender {
			return badRequestError("player gender does not match the tournament gender", map[string]interface{}{
				"playerId":         id,
				"playerGender":     string(player.Gender),
				"tournamentGender": string(tournament.Gender),
			})
		}
	}
	return nil
}

// normalizeEntryList clears reserve order on non-reserve items and reassigns
// a dense 1..N order over reserves, sorted by explicit order (absent last)
// then descending ranking. Idempotent.
func normalizeEntryList(items []*models.EntryListItem) {
	reserves := make([]*models.EntryListItem, 0, len(items))
	for _, item := range items {
		if item.EntryStatus == models.EntryReserve {
			reserves = append(reserves, item)
		} else {
			item.ReserveOrder = nil
		}
	}

	sort.SliceStable(reserves, func(i, j int) bool {
		oi, oj := reserveSortKey(reserves[i]), reserveSortKey(reserves[j])
		if oi != oj {
			return oi < oj
		}
		return reserves[i].Ranking > reserves[j].Ranking
	})

	for i, item := range reserves {
		order := i + 1
		item.ReserveOrder = &order
	}
}

func reserveSortKey(item *models.EntryListItem) int {
	if item.ReserveOrder == nil {
		return int(^uint(0) >> 1) // absent sorts last
	}
	return *item.ReserveOrder
}
