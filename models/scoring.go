package models

import "time"

// ScoringConfig holds the per-tournament point schedule. Exactly one row per
// tournament, created with defaults alongside the tournament.
type ScoringConfig struct {
	TournamentID        int       `json:"tournament_id" db:"tournament_id"`
	BasePointMultiplier int       `json:"base_point_multiplier" db:"base_point_multiplier"`
	BonusTwoNil         int       `json:"bonus_two_nil" db:"bonus_two_nil"`
	BonusTwoOne         int       `json:"bonus_two_one" db:"bonus_two_one"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

const (
	DefaultBasePointMultiplier = 1
	DefaultBonusTwoNil         = 3
	DefaultBonusTwoOne         = 1
)

type RunStatus string

const RunCompleted RunStatus = "completed"

type UserTotal struct {
	UserID      int `json:"user_id"`
	TotalPoints int `json:"total_points"`
}

// ScoringRun is one immutable recalculation of fantasy points for a
// tournament. Runs accumulate; the newest run is authoritative.
type ScoringRun struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Status       RunStatus   `json:"status" db:"status"`
	TriggeredBy  int         `json:"triggered_by" db:"triggered_by"`
	StartedAt    time.Time   `json:"started_at" db:"started_at"`
	FinishedAt   time.Time   `json:"finished_at" db:"finished_at"`
	Totals       []UserTotal `json:"totals_by_user" db:"totals_by_user"`
}

// FantasyTeam is one user's roster for a tournament.
type FantasyTeam struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	PlayerIDs    []int     `json:"player_ids" db:"player_ids"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
