package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sandpit-systems/beachline/models"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchPairInvalid = errors.New("match pair conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	Update(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, phase, day, round, slot, status, best_of,
	pair_a_id, pair_b_id, set_scores, winner_pair_id,
	scheduled_at, completed_at, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	scores, err := marshalSetScores(match.SetScores)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO matches
			(tournament_id, phase, day, round, slot, status, best_of,
			 pair_a_id, pair_b_id, set_scores, winner_pair_id, scheduled_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Phase,
		match.Day,
		match.Round,
		match.Slot,
		match.Status,
		match.BestOf,
		match.PairAID,
		match.PairBID,
		scores,
		match.WinnerPairID,
		match.ScheduledAt,
		match.CompletedAt,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY round ASC, slot ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	scores, err := marshalSetScores(match.SetScores)
	if err != nil {
		return err
	}

	query := `
		UPDATE matches
		SET phase = $1, day = $2, round = $3, slot = $4, status = $5, best_of = $6,
		    pair_a_id = $7, pair_b_id = $8, set_scores = $9, winner_pair_id = $10,
		    scheduled_at = $11, completed_at = $12
		WHERE id = $13`

	result, err := r.db.ExecContext(ctx, query,
		match.Phase,
		match.Day,
		match.Round,
		match.Slot,
		match.Status,
		match.BestOf,
		match.PairAID,
		match.PairBID,
		scores,
		match.WinnerPairID,
		match.ScheduledAt,
		match.CompletedAt,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var scores []byte
	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Phase,
		&match.Day,
		&match.Round,
		&match.Slot,
		&match.Status,
		&match.BestOf,
		&match.PairAID,
		&match.PairBID,
		&scores,
		&match.WinnerPairID,
		&match.ScheduledAt,
		&match.CompletedAt,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &match.SetScores); err != nil {
			return nil, fmt.Errorf("failed to decode set scores for match %d: %w", match.ID, err)
		}
	}
	return match, nil
}

func marshalSetScores(scores []models.SetScore) ([]byte, error) {
	if scores == nil {
		scores = []models.SetScore{}
	}
	data, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode set scores: %w", err)
	}
	return data, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrTournamentNotFound
		case "matches_pair_a_id_fkey", "matches_pair_b_id_fkey", "matches_winner_pair_id_fkey":
			return ErrMatchPairInvalid
		}
	}
	return err
}
