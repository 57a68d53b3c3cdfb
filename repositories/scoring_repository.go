package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandpit-systems/beachline/models"
)

var (
	ErrScoringConfigNotFound = errors.New("scoring config not found")
	ErrScoringRunNotFound    = errors.New("scoring run not found")
)

type ScoringConfigRepository interface {
	Create(ctx context.Context, config *models.ScoringConfig) error
	GetByTournament(ctx context.Context, tournamentID int) (*models.ScoringConfig, error)
	Update(ctx context.Context, config *models.ScoringConfig) error
}

type ScoringRunRepository interface {
	Create(ctx context.Context, run *models.ScoringRun) error
	// ListByTournament returns runs newest-first.
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.ScoringRun, error)
	LatestByTournament(ctx context.Context, tournamentID int) (*models.ScoringRun, error)
}

type postgresScoringConfigRepository struct {
	db *sql.DB
}

func NewPostgresScoringConfigRepository(db *sql.DB) ScoringConfigRepository {
	return &postgresScoringConfigRepository{db: db}
}

func (r *postgresScoringConfigRepository) Create(ctx context.Context, config *models.ScoringConfig) error {
	query := `
		INSERT INTO scoring_configs (tournament_id, base_point_multiplier, bonus_two_nil, bonus_two_one)
		VALUES ($1, $2, $3, $4)
		RETURNING updated_at`

	return r.db.QueryRowContext(ctx, query,
		config.TournamentID,
		config.BasePointMultiplier,
		config.BonusTwoNil,
		config.BonusTwoOne,
	).Scan(&config.UpdatedAt)
}

func (r *postgresScoringConfigRepository) GetByTournament(ctx context.Context, tournamentID int) (*models.ScoringConfig, error) {
	query := `
		SELECT tournament_id, base_point_multiplier, bonus_two_nil, bonus_two_one, updated_at
		FROM scoring_configs
		WHERE tournament_id = $1`

	config := &models.ScoringConfig{}
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(
		&config.TournamentID,
		&config.BasePointMultiplier,
		&config.BonusTwoNil,
		&config.BonusTwoOne,
		&config.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoringConfigNotFound
		}
		return nil, fmt.Errorf("failed to scan scoring config for tournament %d: %w", tournamentID, err)
	}
	return config, nil
}

func (r *postgresScoringConfigRepository) Update(ctx context.Context, config *models.ScoringConfig) error {
	query := `
		UPDATE scoring_configs
		SET base_point_multiplier = $1, bonus_two_nil = $2, bonus_two_one = $3, updated_at = now()
		WHERE tournament_id = $4
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		config.BasePointMultiplier,
		config.BonusTwoNil,
		config.BonusTwoOne,
		config.TournamentID,
	).Scan(&config.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrScoringConfigNotFound
	}
	return err
}

type postgresScoringRunRepository struct {
	db *sql.DB
}

func NewPostgresScoringRunRepository(db *sql.DB) ScoringRunRepository {
	return &postgresScoringRunRepository{db: db}
}

func (r *postgresScoringRunRepository) Create(ctx context.Context, run *models.ScoringRun) error {
	totals, err := json.Marshal(run.Totals)
	if err != nil {
		return fmt.Errorf("failed to encode run totals: %w", err)
	}

	query := `
		INSERT INTO scoring_runs (tournament_id, status, triggered_by, started_at, finished_at, totals_by_user)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		run.TournamentID,
		run.Status,
		run.TriggeredBy,
		run.StartedAt,
		run.FinishedAt,
		totals,
	).Scan(&run.ID)
}

func (r *postgresScoringRunRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.ScoringRun, error) {
	query := `
		SELECT id, tournament_id, status, triggered_by, started_at, finished_at, totals_by_user
		FROM scoring_runs
		WHERE tournament_id = $1
		ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scoring runs for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	runs := make([]*models.ScoringRun, 0)
	for rows.Next() {
		run, scanErr := scanScoringRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *postgresScoringRunRepository) LatestByTournament(ctx context.Context, tournamentID int) (*models.ScoringRun, error) {
	query := `
		SELECT id, tournament_id, status, triggered_by, started_at, finished_at, totals_by_user
		FROM scoring_runs
		WHERE tournament_id = $1
		ORDER BY id DESC
		LIMIT 1`

	run, err := scanScoringRun(r.db.QueryRowContext(ctx, query, tournamentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoringRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func scanScoringRun(row rowScanner) (*models.ScoringRun, error) {
	run := &models.ScoringRun{}
	var totals []byte
	err := row.Scan(
		&run.ID,
		&run.TournamentID,
		&run.Status,
		&run.TriggeredBy,
		&run.StartedAt,
		&run.FinishedAt,
		&totals,
	)
	if err != nil {
		return nil, err
	}
	if len(totals) > 0 {
		if err := json.Unmarshal(totals, &run.Totals); err != nil {
			return nil, fmt.Errorf("failed to decode totals for run %d: %w", run.ID, err)
		}
	}
	return run, nil
}
