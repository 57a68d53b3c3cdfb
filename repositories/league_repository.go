package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sandpit-systems/beachline/models"
)

var ErrLeagueNotFound = errors.New("league not found")

type LeagueRepository interface {
	Create(ctx context.Context, league *models.League) error
	GetByID(ctx context.Context, id int) (*models.League, error)
	List(ctx context.Context) ([]*models.League, error)
	ListBySeason(ctx context.Context, seasonID string) ([]*models.League, error)
	Update(ctx context.Context, league *models.League) error
	Delete(ctx context.Context, id int) error

	// ReplaceRows swaps the persisted leaderboard projection for a league.
	ReplaceRows(ctx context.Context, leagueID int, rows []*models.LeaderboardRow) error
	ListRows(ctx context.Context, leagueID int) ([]*models.LeaderboardRow, error)
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) Create(ctx context.Context, league *models.League) error {
	query := `
		INSERT INTO leagues (season_id, name, mode, status, tie_breakers)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, updated_at`

	return r.db.QueryRowContext(ctx, query,
		league.SeasonID,
		league.Name,
		league.Mode,
		league.Status,
		pq.Array(league.TieBreakers),
	).Scan(&league.ID, &league.UpdatedAt)
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, id int) (*models.League, error) {
	query := `SELECT id, season_id, name, mode, status, tie_breakers, updated_at FROM leagues WHERE id = $1`

	league, err := scanLeague(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to scan league by id %d: %w", id, err)
	}
	return league, nil
}

func (r *postgresLeagueRepository) List(ctx context.Context) ([]*models.League, error) {
	return r.list(ctx, `SELECT id, season_id, name, mode, status, tie_breakers, updated_at FROM leagues ORDER BY id ASC`)
}

func (r *postgresLeagueRepository) ListBySeason(ctx context.Context, seasonID string) ([]*models.League, error) {
	return r.list(ctx, `SELECT id, season_id, name, mode, status, tie_breakers, updated_at FROM leagues WHERE season_id = $1 ORDER BY id ASC`, seasonID)
}

func (r *postgresLeagueRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.League, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues: %w", err)
	}
	defer rows.Close()

	leagues := make([]*models.League, 0)
	for rows.Next() {
		league, scanErr := scanLeague(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan league row: %w", scanErr)
		}
		leagues = append(leagues, league)
	}
	return leagues, rows.Err()
}

func (r *postgresLeagueRepository) Update(ctx context.Context, league *models.League) error {
	query := `
		UPDATE leagues
		SET season_id = $1, name = $2, mode = $3, status = $4, tie_breakers = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		league.SeasonID,
		league.Name,
		league.Mode,
		league.Status,
		pq.Array(league.TieBreakers),
		league.ID,
	).Scan(&league.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrLeagueNotFound
	}
	return err
}

func (r *postgresLeagueRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM leagues WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}

func (r *postgresLeagueRepository) ReplaceRows(ctx context.Context, leagueID int, leaderboard []*models.LeaderboardRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin leaderboard transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM leaderboard_rows WHERE league_id = $1`, leagueID); err != nil {
		return fmt.Errorf("failed to clear leaderboard for league %d: %w", leagueID, err)
	}

	insert := `
		INSERT INTO leaderboard_rows
			(league_id, user_id, display_name, rank, total_points, tie_breaker_score, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, row := range leaderboard {
		if _, err = tx.ExecContext(ctx, insert,
			leagueID,
			row.UserID,
			row.DisplayName,
			row.Rank,
			row.TotalPoints,
			row.TieBreakerScore,
			row.LastUpdated,
		); err != nil {
			return fmt.Errorf("failed to insert leaderboard row for user %d: %w", row.UserID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leaderboard replacement: %w", err)
	}
	return nil
}

func (r *postgresLeagueRepository) ListRows(ctx context.Context, leagueID int) ([]*models.LeaderboardRow, error) {
	query := `
		SELECT league_id, user_id, display_name, rank, total_points, tie_breaker_score, last_updated
		FROM leaderboard_rows
		WHERE league_id = $1
		ORDER BY rank ASC`

	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	leaderboard := make([]*models.LeaderboardRow, 0)
	for rows.Next() {
		row := &models.LeaderboardRow{}
		if scanErr := rows.Scan(
			&row.LeagueID,
			&row.UserID,
			&row.DisplayName,
			&row.Rank,
			&row.TotalPoints,
			&row.TieBreakerScore,
			&row.LastUpdated,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", scanErr)
		}
		leaderboard = append(leaderboard, row)
	}
	return leaderboard, rows.Err()
}

func scanLeague(row rowScanner) (*models.League, error) {
	league := &models.League{}
	var tieBreakers pq.StringArray
	err := row.Scan(
		&league.ID,
		&league.SeasonID,
		&league.Name,
		&league.Mode,
		&league.Status,
		&tieBreakers,
		&league.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	league.TieBreakers = tieBreakers
	return league, nil
}
