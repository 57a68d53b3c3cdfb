package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
	"github.com/sandpit-systems/beachline/storage"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// statusTransitions is the forward lifecycle. Anything else needs force.
var statusTransitions = map[models.TournamentStatus]models.TournamentStatus{
	models.StatusDraft:       models.StatusOpen,
	models.StatusOpen:        models.StatusEntryLocked,
	models.StatusEntryLocked: models.StatusLive,
	models.StatusLive:        models.StatusCompleted,
	models.StatusCompleted:   models.StatusArchived,
}

type TournamentPage struct {
	Items    []*models.Tournament `json:"items"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Total    int                  `json:"total"`
}

type TournamentService interface {
	Create(ctx context.Context, actorID int, tournament *models.Tournament) (*models.Tournament, error)
	GetByID(ctx context.Context, tournamentID int) (*models.Tournament, error)
	List(ctx context.Context, seasonID string, page, pageSize int) (*TournamentPage, error)
	Update(ctx context.Context, actorID int, tournament *models.Tournament) (*models.Tournament, error)
	// SetStatus walks the lifecycle one step at a time unless force is set.
	SetStatus(ctx context.Context, actorID, tournamentID int, status models.TournamentStatus, force bool) (*models.Tournament, error)
	Delete(ctx context.Context, actorID, tournamentID int) error
	UploadLogo(ctx context.Context, actorID, tournamentID int, contentType string, r io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	configRepo     repositories.ScoringConfigRepository
	locks          LockService
	audit          AuditService
	uploader       storage.FileUploader
	clock          Clock
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	configRepo repositories.ScoringConfigRepository,
	locks LockService,
	audit AuditService,
	uploader storage.FileUploader,
	clock Clock,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		configRepo:     configRepo,
		locks:          locks,
		audit:          audit,
		uploader:       uploader,
		clock:          clock,
	}
}

func (s *tournamentService) Create(ctx context.Context, actorID int, tournament *models.Tournament) (*models.Tournament, error) {
	if err := validateTournament(tournament); err != nil {
		return nil, err
	}
	if tournament.Status == "" {
		tournament.Status = models.StatusDraft
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentSlugConflict) {
			return nil, badRequestError("a tournament with this slug already exists", map[string]interface{}{
				"slug": tournament.Slug,
			})
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	// Every tournament carries a scoring config from birth.
	config := &models.ScoringConfig{
		TournamentID:        tournament.ID,
		BasePointMultiplier: models.DefaultBasePointMultiplier,
		BonusTwoNil:         models.DefaultBonusTwoNil,
		BonusTwoOne:         models.DefaultBonusTwoOne,
	}
	if err := s.configRepo.Create(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to create default scoring config for tournament %d: %w", tournament.ID, err)
	}

	if err := s.audit.Record(ctx, actorID, "tournament.create", "tournament", tournament.ID, nil, tournament); err != nil {
		return nil, err
	}
	s.resolveLogo(tournament)
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	tournament, err := s.get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.resolveLogo(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, seasonID string, page, pageSize int) (*TournamentPage, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var tournaments []*models.Tournament
	var err error
	if seasonID != "" {
		tournaments, err = s.tournamentRepo.ListBySeason(ctx, seasonID)
	} else {
		tournaments, err = s.tournamentRepo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	total := len(tournaments)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	items := tournaments[start:end]
	for _, tournament := range items {
		s.resolveLogo(tournament)
	}
	return &TournamentPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *tournamentService) Update(ctx context.Context, actorID int, tournament *models.Tournament) (*models.Tournament, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(tournament.ID)
	defer unlock()

	current, err := s.get(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}
	if err := validateTournament(tournament); err != nil {
		return nil, err
	}
	if current.FullyLocked() && tournament.Policy != current.Policy {
		return nil, badRequestError("the lineup policy is immutable once the lock has been applied", map[string]interface{}{
			"tournamentId": tournament.ID,
		})
	}
	tournament.Status = current.Status // status moves only through SetStatus
	tournament.EntryListLocked = current.EntryListLocked
	tournament.LineupLocked = current.LineupLocked
	tournament.LogoKey = current.LogoKey

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentSlugConflict) {
			return nil, badRequestError("a tournament with this slug already exists", map[string]interface{}{
				"slug": tournament.Slug,
			})
		}
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", tournament.ID, err)
	}
	if err := s.audit.Record(ctx, actorID, "tournament.update", "tournament", tournament.ID, current, tournament); err != nil {
		return nil, err
	}
	s.resolveLogo(tournament)
	return tournament, nil
}

func (s *tournamentService) SetStatus(ctx context.Context, actorID, tournamentID int, status models.TournamentStatus, force bool) (*models.Tournament, error) {
	if err := s.locks.SyncLocks(ctx); err != nil {
		return nil, err
	}
	unlock := guard.lockTournament(tournamentID)
	defer unlock()

	tournament, err := s.get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !validStatus(status) {
		return nil, badRequestError("unknown tournament status", map[string]interface{}{
			"status": string(status),
		})
	}
	if !force && statusTransitions[tournament.Status] != status {
		return nil, badRequestError("status transition is not allowed", map[string]interface{}{
			"from":    string(tournament.Status),
			"to":      string(status),
			"allowed": string(statusTransitions[tournament.Status]),
		})
	}

	before := *tournament
	tournament.Status = status
	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to set status of tournament %d: %w", tournamentID, err)
	}

	action := "tournament.status"
	if force {
		action = "tournament.status.force"
	}
	if err := s.audit.Record(ctx, actorID, action, "tournament", tournamentID, &before, tournament); err != nil {
		return nil, err
	}
	s.resolveLogo(tournament)
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, actorID, tournamentID int) error {
	unlock := guard.lockTournament(tournamentID)
	defer unlock()

	tournament, err := s.get(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusDraft && tournament.Status != models.StatusArchived {
		return badRequestError("only draft or archived tournaments can be deleted", map[string]interface{}{
			"tournamentId": tournamentID,
			"status":       string(tournament.Status),
		})
	}
	if err := s.tournamentRepo.Delete(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.LogoKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *tournament.LogoKey); err != nil {
			return fmt.Errorf("failed to delete logo of tournament %d: %w", tournamentID, err)
		}
	}
	return s.audit.Record(ctx, actorID, "tournament.delete", "tournament", tournamentID, tournament, nil)
}

func (s *tournamentService) UploadLogo(ctx context.Context, actorID, tournamentID int, contentType string, r io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, badRequestError("logo storage is not configured", nil)
	}
	unlock := guard.lockTournament(tournamentID)
	defer unlock()

	tournament, err := s.get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/logo-%d", tournamentID, s.clock().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo for tournament %d: %w", tournamentID, err)
	}

	before := *tournament
	oldKey := tournament.LogoKey
	tournament.LogoKey = &result.Key
	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to store logo key for tournament %d: %w", tournamentID, err)
	}
	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			return nil, fmt.Errorf("failed to delete previous logo of tournament %d: %w", tournamentID, err)
		}
	}
	if err := s.audit.Record(ctx, actorID, "tournament.logo", "tournament", tournamentID, &before, tournament); err != nil {
		return nil, err
	}
	s.resolveLogo(tournament)
	return tournament, nil
}

func (s *tournamentService) get(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) resolveLogo(tournament *models.Tournament) {
	if tournament.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*tournament.LogoKey)
	if url != "" {
		tournament.LogoURL = &url
	}
}

func validateTournament(t *models.Tournament) error {
	if t.Name == "" {
		return badRequestError("tournament name is required", nil)
	}
	if t.SeasonID == "" {
		return badRequestError("tournament season is required", nil)
	}
	if !slugPattern.MatchString(t.Slug) {
		return badRequestError("slug must be lowercase letters, digits and single hyphens", map[string]interface{}{
			"slug": t.Slug,
		})
	}
	if t.Gender != models.GenderWomen && t.Gender != models.GenderMen {
		return badRequestError("unknown tournament gender", map[string]interface{}{
			"gender": string(t.Gender),
		})
	}
	if !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		return badRequestError("tournament cannot end before it starts", map[string]interface{}{
			"startDate": t.StartDate,
			"endDate":   t.EndDate,
		})
	}
	return validatePolicy(t.Policy)
}

// validatePolicy checks the roster arithmetic and the lock schedule. The
// failure details name every offending field so the admin UI can highlight
// them individually.
func validatePolicy(policy models.TournamentPolicy) error {
	if policy.RosterSize < 1 || policy.StarterCount < 1 || policy.ReserveCount < 0 {
		return badRequestError("roster counts must be positive", map[string]interface{}{
			"rosterSize":   policy.RosterSize,
			"starterCount": policy.StarterCount,
			"reserveCount": policy.ReserveCount,
		})
	}
	if policy.StarterCount+policy.ReserveCount > policy.RosterSize {
		return badRequestError("starters plus reserves cannot exceed the roster size", map[string]interface{}{
			"rosterSize":   policy.RosterSize,
			"starterCount": policy.StarterCount,
			"reserveCount": policy.ReserveCount,
		})
	}
	if _, err := time.Parse(time.RFC3339, policy.LineupLockAt); err != nil {
		return badRequestError("lineup lock must be a valid RFC 3339 instant", map[string]interface{}{
			"lineupLockAt": policy.LineupLockAt,
		})
	}
	if policy.Timezone != "" {
		if _, err := time.LoadLocation(policy.Timezone); err != nil {
			return badRequestError("unknown IANA timezone", map[string]interface{}{
				"timezone": policy.Timezone,
			})
		}
	}
	return nil
}

func validStatus(status models.TournamentStatus) bool {
	switch status {
	case models.StatusDraft, models.StatusOpen, models.StatusEntryLocked,
		models.StatusLive, models.StatusCompleted, models.StatusArchived:
		return true
	}
	return false
}
