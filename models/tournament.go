package models

import "time"

// TournamentStatus mirrors the tournament lifecycle enum in the DB.
type TournamentStatus string

const (
	StatusDraft       TournamentStatus = "draft"
	StatusOpen        TournamentStatus = "open"
	StatusEntryLocked TournamentStatus = "entry_locked"
	StatusLive        TournamentStatus = "live"
	StatusCompleted   TournamentStatus = "completed"
	StatusArchived    TournamentStatus = "archived"
)

type Gender string

const (
	GenderWomen Gender = "women"
	GenderMen   Gender = "men"
)

// TournamentPolicy holds roster limits and the lineup lock schedule.
// Immutable once the lock instant has passed.
type TournamentPolicy struct {
	RosterSize   int `json:"roster_size" db:"roster_size"`
	StarterCount int `json:"starter_count" db:"starter_count"`
	ReserveCount int `json:"reserve_count" db:"reserve_count"`
	// LineupLockAt is kept as the raw ISO-8601 string; an unparseable value
	// means the tournament never locks automatically.
	LineupLockAt string `json:"lineup_lock_at" db:"lineup_lock_at"`
	// Timezone is an IANA name. Unresolvable names fall back to UTC.
	Timezone string `json:"timezone" db:"timezone"`
}

type Tournament struct {
	ID       int              `json:"id" db:"id"`
	SeasonID string           `json:"season_id" db:"season_id"`
	Name     string           `json:"name" db:"name"`
	Slug     string           `json:"slug" db:"slug"`
	Location *string          `json:"location,omitempty" db:"location"`
	Gender   Gender           `json:"gender" db:"gender"`
	Public   bool             `json:"public" db:"public"`
	Status   TournamentStatus `json:"status" db:"status"`

	StartDate time.Time        `json:"start_date" db:"start_date"`
	EndDate   time.Time        `json:"end_date" db:"end_date"`
	Policy    TournamentPolicy `json:"policy"`

	EntryListLocked bool `json:"entry_list_locked" db:"entry_list_locked"`
	LineupLocked    bool `json:"lineup_locked" db:"lineup_locked"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullyLocked reports whether both lock flags have been applied.
func (t *Tournament) FullyLocked() bool {
	return t.EntryListLocked && t.LineupLocked
}
