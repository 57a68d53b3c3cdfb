package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
	// MatchCorrected marks a completed match whose result was edited
	// post-hoc through the correction path.
	MatchCorrected MatchStatus = "corrected"
)

// DayBucket fixes which calendar day, relative to the lineup lock date,
// a match must be played on.
type DayBucket string

const (
	DayFriday   DayBucket = "friday"
	DaySaturday DayBucket = "saturday"
	DaySunday   DayBucket = "sunday"
)

// DayOffset returns the calendar-day offset from the lock date, or -1 for
// an unknown bucket.
func (d DayBucket) DayOffset() int {
	switch d {
	case DayFriday:
		return 1
	case DaySaturday:
		return 2
	case DaySunday:
		return 3
	}
	return -1
}

// Next returns the bucket of the following play day. Sunday is terminal.
func (d DayBucket) Next() DayBucket {
	switch d {
	case DayFriday:
		return DaySaturday
	case DaySaturday:
		return DaySunday
	}
	return DaySunday
}

type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Match is one bracket match. PairAID/PairBID are entry-list item IDs;
// nil means the slot is a placeholder still waiting on upstream progression.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Phase        string      `json:"phase" db:"phase"`
	Day          DayBucket   `json:"day" db:"day"`
	Round        int         `json:"round" db:"round"`
	Slot         int         `json:"slot" db:"slot"`
	Status       MatchStatus `json:"status" db:"status"`
	BestOf       int         `json:"best_of" db:"best_of"`

	PairAID *int `json:"pair_a_id" db:"pair_a_id"`
	PairBID *int `json:"pair_b_id" db:"pair_b_id"`

	SetScores    []SetScore `json:"set_scores" db:"set_scores"`
	WinnerPairID *int       `json:"winner_pair_id,omitempty" db:"winner_pair_id"`

	ScheduledAt time.Time  `json:"scheduled_at" db:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// HasPlaceholder reports whether either pair slot is still unresolved.
func (m *Match) HasPlaceholder() bool {
	return m.PairAID == nil || m.PairBID == nil
}
