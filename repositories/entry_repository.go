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
	ErrEntryNotFound      = errors.New("entry list item not found")
	ErrEntryPlayerInvalid = errors.New("entry list item references an unknown player")
)

type EntryRepository interface {
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.EntryListItem, error)
	GetByID(ctx context.Context, id int) (*models.EntryListItem, error)
	// ReplaceForTournament atomically swaps the whole entry list. All-or-nothing.
	ReplaceForTournament(ctx context.Context, tournamentID int, items []*models.EntryListItem) error
	Update(ctx context.Context, item *models.EntryListItem) error
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

const entryColumns = `id, tournament_id, player1_id, player2_id, ranking, entry_status, reserve_order, created_at, updated_at`

func (r *postgresEntryRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.EntryListItem, error) {
	query := `SELECT ` + entryColumns + ` FROM entry_list_items WHERE tournament_id = $1 ORDER BY ranking ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry list for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	items := make([]*models.EntryListItem, 0)
	for rows.Next() {
		item := &models.EntryListItem{}
		if scanErr := scanEntryItem(rows, item); scanErr != nil {
			return nil, fmt.Errorf("failed to scan entry list row: %w", scanErr)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresEntryRepository) GetByID(ctx context.Context, id int) (*models.EntryListItem, error) {
	query := `SELECT ` + entryColumns + ` FROM entry_list_items WHERE id = $1`

	item := &models.EntryListItem{}
	err := scanEntryItem(r.db.QueryRowContext(ctx, query, id), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to scan entry list item %d: %w", id, err)
	}
	return item, nil
}

func (r *postgresEntryRepository) ReplaceForTournament(ctx context.Context, tournamentID int, items []*models.EntryListItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin entry list transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entry_list_items WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear entry list for tournament %d: %w", tournamentID, err)
	}

	for _, item := range items {
		item.TournamentID = tournamentID
		if err = r.insertEntryItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry list replacement: %w", err)
	}
	return nil
}

func (r *postgresEntryRepository) Update(ctx context.Context, item *models.EntryListItem) error {
	return r.updateEntryItem(ctx, r.db, item)
}

// insertEntryItem and updateEntryItem run on a SQLExecutor so the same write
// serves both the pool and the replacement transaction.
func (r *postgresEntryRepository) insertEntryItem(ctx context.Context, exec SQLExecutor, item *models.EntryListItem) error {
	query := `
		INSERT INTO entry_list_items
			(tournament_id, player1_id, player2_id, ranking, entry_status, reserve_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		item.TournamentID,
		item.Player1ID,
		item.Player2ID,
		item.Ranking,
		item.EntryStatus,
		item.ReserveOrder,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return r.handleEntryError(err)
}

func (r *postgresEntryRepository) updateEntryItem(ctx context.Context, exec SQLExecutor, item *models.EntryListItem) error {
	query := `
		UPDATE entry_list_items
		SET player1_id = $1, player2_id = $2, ranking = $3, entry_status = $4,
		    reserve_order = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at`

	err := exec.QueryRowContext(ctx, query,
		item.Player1ID,
		item.Player2ID,
		item.Ranking,
		item.EntryStatus,
		item.ReserveOrder,
		item.ID,
	).Scan(&item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrEntryNotFound
	}
	return r.handleEntryError(err)
}

func scanEntryItem(row rowScanner, item *models.EntryListItem) error {
	return row.Scan(
		&item.ID,
		&item.TournamentID,
		&item.Player1ID,
		&item.Player2ID,
		&item.Ranking,
		&item.EntryStatus,
		&item.ReserveOrder,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
}

func (r *postgresEntryRepository) handleEntryError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "entry_list_items_player1_id_fkey", "entry_list_items_player2_id_fkey":
			return ErrEntryPlayerInvalid
		}
	}
	return err
}
