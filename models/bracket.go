package models

// Bracket is a pure projection over a tournament's matches. It is never
// stored; any rebuild is a recomputation from the match set.
type Bracket struct {
	TournamentID int            `json:"tournament_id"`
	Rounds       []BracketRound `json:"rounds"`
}

type BracketRound struct {
	Round int           `json:"round"`
	Nodes []BracketNode `json:"nodes"`
}

// BracketNode is one match node plus the forward link its winner feeds.
type BracketNode struct {
	MatchID      int         `json:"match_id"`
	Round        int         `json:"round"`
	Slot         int         `json:"slot"`
	Status       MatchStatus `json:"status"`
	PairAID      *int        `json:"pair_a_id"`
	PairBID      *int        `json:"pair_b_id"`
	WinnerPairID *int        `json:"winner_pair_id,omitempty"`

	// NextMatchID / NextSlotSide describe where the winner advances to.
	// Nil/empty on the final.
	NextMatchID  *int   `json:"next_match_id,omitempty"`
	NextSlotSide string `json:"next_slot_side,omitempty"` // "A" or "B"
}
