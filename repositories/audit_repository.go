package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandpit-systems/beachline/models"
)

// AuditFilter narrows audit log reads. Nil fields are ignored.
type AuditFilter struct {
	Action      *string
	EntityType  *string
	EntityID    *int
	ActorUserID *int
	From        *time.Time
	To          *time.Time

	Page     int
	PageSize int
}

type AuditRepository interface {
	// Insert appends one record. The log is append-only: no update or delete exists.
	Insert(ctx context.Context, entry *models.AuditLogEntry) error
	// List returns matching entries newest-first plus the unpaginated total.
	List(ctx context.Context, filter AuditFilter) ([]*models.AuditLogEntry, int, error)
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (actor_user_id, action, entity_type, entity_id, before, after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var before, after interface{}
	if entry.Before != nil {
		before = []byte(entry.Before)
	}
	if entry.After != nil {
		after = []byte(entry.After)
	}

	return r.db.QueryRowContext(ctx, query,
		entry.ActorUserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		before,
		after,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *postgresAuditRepository) List(ctx context.Context, filter AuditFilter) ([]*models.AuditLogEntry, int, error) {
	var where strings.Builder
	args := make([]interface{}, 0, 6)

	addCond := func(cond string, value interface{}) {
		args = append(args, value)
		if where.Len() == 0 {
			where.WriteString(" WHERE ")
		} else {
			where.WriteString(" AND ")
		}
		where.WriteString(cond)
		where.WriteString("$")
		where.WriteString(strconv.Itoa(len(args)))
	}

	if filter.Action != nil {
		addCond("action = ", *filter.Action)
	}
	if filter.EntityType != nil {
		addCond("entity_type = ", *filter.EntityType)
	}
	if filter.EntityID != nil {
		addCond("entity_id = ", *filter.EntityID)
	}
	if filter.ActorUserID != nil {
		addCond("actor_user_id = ", *filter.ActorUserID)
	}
	if filter.From != nil {
		addCond("created_at >= ", *filter.From)
	}
	if filter.To != nil {
		addCond("created_at <= ", *filter.To)
	}

	var total int
	countQuery := `SELECT count(*) FROM audit_log` + where.String()
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := `
		SELECT id, actor_user_id, action, entity_type, entity_id, before, after, created_at
		FROM audit_log` + where.String() + `
		ORDER BY id DESC
		LIMIT ` + strconv.Itoa(pageSize) + ` OFFSET ` + strconv.Itoa((page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditLogEntry, 0, pageSize)
	for rows.Next() {
		entry := &models.AuditLogEntry{}
		var before, after []byte
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.ActorUserID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&before,
			&after,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log row: %w", scanErr)
		}
		entry.Before = before
		entry.After = after
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}
