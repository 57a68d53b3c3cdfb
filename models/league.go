package models

import "time"

type LeagueMode string

const (
	LeagueOverall    LeagueMode = "overall"
	LeagueHeadToHead LeagueMode = "head_to_head"
)

type LeagueStatus string

const (
	LeagueActive   LeagueStatus = "active"
	LeagueFinished LeagueStatus = "finished"
)

type League struct {
	ID       int          `json:"id" db:"id"`
	SeasonID string       `json:"season_id" db:"season_id"`
	Name     string       `json:"name" db:"name"`
	Mode     LeagueMode   `json:"mode" db:"mode"`
	Status   LeagueStatus `json:"status" db:"status"`
	// TieBreakers is the ordered list of named tie-break rules. The current
	// comparator applies a single fixed secondary score; the list records
	// intended semantics for future rules.
	TieBreakers []string  `json:"tie_breakers" db:"tie_breakers"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// LeaderboardRow is derived state, recomputable from the scoring runs of all
// tournaments in the league's season.
type LeaderboardRow struct {
	LeagueID        int       `json:"league_id" db:"league_id"`
	UserID          int       `json:"user_id" db:"user_id"`
	DisplayName     string    `json:"display_name" db:"display_name"`
	Rank            int       `json:"rank" db:"rank"`
	TotalPoints     int       `json:"total_points" db:"total_points"`
	TieBreakerScore int       `json:"tie_breaker_score" db:"tie_breaker_score"`
	LastUpdated     time.Time `json:"last_updated" db:"last_updated"`
}
