package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sandpit-systems/beachline/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentSlugConflict = errors.New("tournament slug is already in use")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	ListBySeason(ctx context.Context, seasonID string) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, season_id, name, slug, location, gender, public, status,
	start_date, end_date,
	roster_size, starter_count, reserve_count, lineup_lock_at, timezone,
	entry_list_locked, lineup_locked, logo_key, created_at, updated_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(season_id, name, slug, location, gender, public, status,
			 start_date, end_date,
			 roster_size, starter_count, reserve_count, lineup_lock_at, timezone,
			 entry_list_locked, lineup_locked, logo_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.SeasonID,
		tournament.Name,
		tournament.Slug,
		tournament.Location,
		tournament.Gender,
		tournament.Public,
		tournament.Status,
		tournament.StartDate,
		tournament.EndDate,
		tournament.Policy.RosterSize,
		tournament.Policy.StarterCount,
		tournament.Policy.ReserveCount,
		tournament.Policy.LineupLockAt,
		tournament.Policy.Timezone,
		tournament.EntryListLocked,
		tournament.LineupLocked,
		tournament.LogoKey,
	).Scan(&tournament.ID, &tournament.CreatedAt, &tournament.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament := &models.Tournament{}
	err := r.scanTournament(r.db.QueryRowContext(ctx, query, id), tournament)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	return r.list(ctx, `SELECT`+tournamentColumns+` FROM tournaments ORDER BY start_date DESC, id DESC`)
}

func (r *postgresTournamentRepository) ListBySeason(ctx context.Context, seasonID string) ([]*models.Tournament, error) {
	return r.list(ctx, `SELECT`+tournamentColumns+` FROM tournaments WHERE season_id = $1 ORDER BY start_date DESC, id DESC`, seasonID)
}

func (r *postgresTournamentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		tournament := &models.Tournament{}
		if scanErr := r.scanTournament(rows, tournament); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, tournament)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, tournament *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET season_id = $1, name = $2, slug = $3, location = $4, gender = $5,
		    public = $6, status = $7, start_date = $8, end_date = $9,
		    roster_size = $10, starter_count = $11, reserve_count = $12,
		    lineup_lock_at = $13, timezone = $14,
		    entry_list_locked = $15, lineup_locked = $16, logo_key = $17,
		    updated_at = now()
		WHERE id = $18
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.SeasonID,
		tournament.Name,
		tournament.Slug,
		tournament.Location,
		tournament.Gender,
		tournament.Public,
		tournament.Status,
		tournament.StartDate,
		tournament.EndDate,
		tournament.Policy.RosterSize,
		tournament.Policy.StarterCount,
		tournament.Policy.ReserveCount,
		tournament.Policy.LineupLockAt,
		tournament.Policy.Timezone,
		tournament.EntryListLocked,
		tournament.LineupLocked,
		tournament.LogoKey,
		tournament.ID,
	).Scan(&tournament.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresTournamentRepository) scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(
		&t.ID,
		&t.SeasonID,
		&t.Name,
		&t.Slug,
		&t.Location,
		&t.Gender,
		&t.Public,
		&t.Status,
		&t.StartDate,
		&t.EndDate,
		&t.Policy.RosterSize,
		&t.Policy.StarterCount,
		&t.Policy.ReserveCount,
		&t.Policy.LineupLockAt,
		&t.Policy.Timezone,
		&t.EntryListLocked,
		&t.LineupLocked,
		&t.LogoKey,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Constraint == "tournaments_slug_key" {
			return ErrTournamentSlugConflict
		}
	}
	return err
}
