package models

import (
	"encoding/json"
	"time"
)

// AuditLogEntry is one immutable mutation record. Before/After are deep-cloned
// snapshots taken at record time; either may be absent.
type AuditLogEntry struct {
	ID          int             `json:"id" db:"id"`
	ActorUserID int             `json:"actor_user_id" db:"actor_user_id"`
	Action      string          `json:"action" db:"action"`
	EntityType  string          `json:"entity_type" db:"entity_type"`
	EntityID    int             `json:"entity_id" db:"entity_id"`
	Before      json.RawMessage `json:"before,omitempty" db:"before"`
	After       json.RawMessage `json:"after,omitempty" db:"after"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
