package models

import "time"

// EntryStatus is the admission status of a pair on a tournament's entry list.
type EntryStatus string

const (
	EntryDirect    EntryStatus = "direct"
	EntryQualified EntryStatus = "qualified"
	EntryWildcard  EntryStatus = "wildcard"
	EntryReserve   EntryStatus = "reserve"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case EntryDirect, EntryQualified, EntryWildcard, EntryReserve:
		return true
	}
	return false
}

// EntryListItem is one admitted pair. The item itself is the pair identity:
// matches reference entry items by ID.
type EntryListItem struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Player1ID    int         `json:"player1_id" db:"player1_id"`
	Player2ID    int         `json:"player2_id" db:"player2_id"`
	Ranking      int         `json:"ranking" db:"ranking"`
	EntryStatus  EntryStatus `json:"entry_status" db:"entry_status"`
	// ReserveOrder is present iff EntryStatus is reserve. Dense 1..N,
	// lowest order = highest priority.
	ReserveOrder *int      `json:"reserve_order,omitempty" db:"reserve_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (e *EntryListItem) PlayerIDs() []int {
	return []int{e.Player1ID, e.Player2ID}
}
