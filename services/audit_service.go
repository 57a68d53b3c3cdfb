package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

// AuditService appends immutable mutation records. Snapshots are deep-cloned
// through a JSON roundtrip at the boundary, so later in-place mutation of the
// live object can never corrupt history.
type AuditService interface {
	Record(ctx context.Context, actorUserID int, action, entityType string, entityID int, before, after interface{}) error
	List(ctx context.Context, filter repositories.AuditFilter) (*AuditPage, error)
}

type AuditPage struct {
	Items    []*models.AuditLogEntry `json:"items"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
	Total    int                     `json:"total"`
}

type auditService struct {
	auditRepo repositories.AuditRepository
	clock     Clock
}

func NewAuditService(auditRepo repositories.AuditRepository, clock Clock) AuditService {
	return &auditService{auditRepo: auditRepo, clock: clock}
}

func (s *auditService) Record(ctx context.Context, actorUserID int, action, entityType string, entityID int, before, after interface{}) error {
	beforeJSON, err := cloneSnapshot(before)
	if err != nil {
		return fmt.Errorf("failed to snapshot 'before' state for %s: %w", action, err)
	}
	afterJSON, err := cloneSnapshot(after)
	if err != nil {
		return fmt.Errorf("failed to snapshot 'after' state for %s: %w", action, err)
	}

	entry := &models.AuditLogEntry{
		ActorUserID: actorUserID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Before:      beforeJSON,
		After:       afterJSON,
		CreatedAt:   s.clock().UTC(),
	}
	return s.auditRepo.Insert(ctx, entry)
}

func (s *auditService) List(ctx context.Context, filter repositories.AuditFilter) (*AuditPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	entries, total, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return &AuditPage{
		Items:    entries,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	}, nil
}

// cloneSnapshot serializes the value at record time. A nil value means the
// snapshot side is absent (creates have no before, deletes no after).
func cloneSnapshot(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
