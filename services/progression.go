package services

import (
	"context"
	"fmt"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

// MatchChange is one entry of a progression change log: which match was
// touched and how.
type MatchChange struct {
	MatchID int    `json:"match_id"`
	Field   string `json:"field"`
	PairID  *int   `json:"pair_id,omitempty"`
}

// decideWinner resolves the winning side from the recorded set scores.
// Sets won must reach a strict majority of bestOf; a drawn set is invalid.
func decideWinner(m *models.Match) (winnerPairID *int, setsWon models.SetScore, err error) {
	for _, set := range m.SetScores {
		switch {
		case set.A > set.B:
			setsWon.A++
		case set.B > set.A:
			setsWon.B++
		default:
			return nil, setsWon, badRequestError("a set score cannot be drawn", map[string]interface{}{
				"matchId": m.ID,
				"set":     set,
			})
		}
	}

	needed := m.BestOf/2 + 1
	switch {
	case setsWon.A >= needed:
		return m.PairAID, setsWon, nil
	case setsWon.B >= needed:
		return m.PairBID, setsWon, nil
	}
	return nil, setsWon, badRequestError("set scores do not produce a winner", map[string]interface{}{
		"matchId":  m.ID,
		"setsWonA": setsWon.A,
		"setsWonB": setsWon.B,
		"bestOf":   m.BestOf,
	})
}

// advanceProgression copies a decided winner into the pair slot of the
// successor match, creating the successor when the admin has not inserted it
// yet. It returns the change log of every match it wrote. Overwriting an
// already-seeded successor slot is allowed: corrections re-run progression
// with the new winner.
func advanceProgression(ctx context.Context, matchRepo repositories.MatchRepository, policy models.TournamentPolicy, completed *models.Match, all []*models.Match) ([]MatchChange, error) {
	if completed.Round >= bracketRounds(all) {
		return nil, nil // final round, nowhere to advance
	}
	nextRound, nextSlot, side := successorSlot(completed.Round, completed.Slot)

	var successor *models.Match
	for _, m := range all {
		if m.TournamentID == completed.TournamentID && m.Round == nextRound && m.Slot == nextSlot {
			successor = m
			break
		}
	}
	if successor == nil {
		return createSuccessor(ctx, matchRepo, policy, completed, nextRound, nextSlot, side)
	}

	var changed bool
	if side == "A" {
		if !intPtrEqual(successor.PairAID, completed.WinnerPairID) {
			successor.PairAID = intPtrClone(completed.WinnerPairID)
			changed = true
		}
	} else {
		if !intPtrEqual(successor.PairBID, completed.WinnerPairID) {
			successor.PairBID = intPtrClone(completed.WinnerPairID)
			changed = true
		}
	}
	if !changed {
		return nil, nil
	}

	if err := matchRepo.Update(ctx, successor); err != nil {
		return nil, fmt.Errorf("failed to seed successor match %d: %w", successor.ID, err)
	}
	return []MatchChange{{
		MatchID: successor.ID,
		Field:   "pair_" + side,
		PairID:  intPtrClone(completed.WinnerPairID),
	}}, nil
}

// createSuccessor inserts the next-round match a decided winner advances
// into. Progression may outrun insertion: a day's matches can only be
// inserted from the day before, so a round can resolve while the next
// round's slots do not exist yet.
func createSuccessor(ctx context.Context, matchRepo repositories.MatchRepository, policy models.TournamentPolicy, completed *models.Match, nextRound, nextSlot int, side string) ([]MatchChange, error) {
	nextDay := completed.Day.Next()
	scheduledAt, _, err := requiredMatchDate(policy, nextDay)
	if err != nil {
		return nil, err
	}

	successor := &models.Match{
		TournamentID: completed.TournamentID,
		Phase:        completed.Phase,
		Day:          nextDay,
		Round:        nextRound,
		Slot:         nextSlot,
		Status:       models.MatchScheduled,
		BestOf:       completed.BestOf,
		ScheduledAt:  scheduledAt,
	}
	if side == "A" {
		successor.PairAID = intPtrClone(completed.WinnerPairID)
	} else {
		successor.PairBID = intPtrClone(completed.WinnerPairID)
	}

	if err := matchRepo.Create(ctx, successor); err != nil {
		return nil, fmt.Errorf("failed to create successor match for round %d slot %d: %w", nextRound, nextSlot, err)
	}
	return []MatchChange{{
		MatchID: successor.ID,
		Field:   "pair_" + side,
		PairID:  intPtrClone(completed.WinnerPairID),
	}}, nil
}

// bracketRounds derives the bracket depth from the first round's slot count.
func bracketRounds(all []*models.Match) int {
	maxSlot := 0
	for _, m := range all {
		if m.Round == 1 && m.Slot > maxSlot {
			maxSlot = m.Slot
		}
	}
	rounds := 1
	for size := maxSlot; size > 1; size = (size + 1) / 2 {
		rounds++
	}
	return rounds
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrClone(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
