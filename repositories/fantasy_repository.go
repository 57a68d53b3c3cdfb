package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sandpit-systems/beachline/models"
)

var ErrFantasyTeamNotFound = errors.New("fantasy team not found")

type FantasyTeamRepository interface {
	Upsert(ctx context.Context, team *models.FantasyTeam) error
	GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.FantasyTeam, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.FantasyTeam, error)
}

type postgresFantasyTeamRepository struct {
	db *sql.DB
}

func NewPostgresFantasyTeamRepository(db *sql.DB) FantasyTeamRepository {
	return &postgresFantasyTeamRepository{db: db}
}

func (r *postgresFantasyTeamRepository) Upsert(ctx context.Context, team *models.FantasyTeam) error {
	query := `
		INSERT INTO fantasy_teams (tournament_id, user_id, player_ids)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id, user_id)
		DO UPDATE SET player_ids = EXCLUDED.player_ids, updated_at = now()
		RETURNING id, updated_at`

	return r.db.QueryRowContext(ctx, query,
		team.TournamentID,
		team.UserID,
		pq.Array(team.PlayerIDs),
	).Scan(&team.ID, &team.UpdatedAt)
}

func (r *postgresFantasyTeamRepository) GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.FantasyTeam, error) {
	query := `
		SELECT id, tournament_id, user_id, player_ids, updated_at
		FROM fantasy_teams
		WHERE tournament_id = $1 AND user_id = $2`

	team, err := scanFantasyTeam(r.db.QueryRowContext(ctx, query, tournamentID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFantasyTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresFantasyTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.FantasyTeam, error) {
	query := `
		SELECT id, tournament_id, user_id, player_ids, updated_at
		FROM fantasy_teams
		WHERE tournament_id = $1
		ORDER BY user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fantasy teams for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]*models.FantasyTeam, 0)
	for rows.Next() {
		team, scanErr := scanFantasyTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan fantasy team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func scanFantasyTeam(row rowScanner) (*models.FantasyTeam, error) {
	team := &models.FantasyTeam{}
	var playerIDs pq.Int64Array
	err := row.Scan(
		&team.ID,
		&team.TournamentID,
		&team.UserID,
		&playerIDs,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	team.PlayerIDs = make([]int, len(playerIDs))
	for i, id := range playerIDs {
		team.PlayerIDs[i] = int(id)
	}
	return team, nil
}
