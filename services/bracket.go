package services

import (
	"sort"

	"github.com/sandpit-systems/beachline/models"
)

// successorSlot returns the coordinates and side a match's winner feeds in
// the next round: slot ceil(s/2), side A when the slot is odd.
func successorSlot(round, slot int) (nextRound, nextSlot int, side string) {
	nextRound = round + 1
	nextSlot = (slot + 1) / 2
	if slot%2 == 1 {
		return nextRound, nextSlot, "A"
	}
	return nextRound, nextSlot, "B"
}

// BuildBracket projects a tournament's match set into a round-structured
// bracket. The projection is pure and deterministic: the same match set
// always yields the same bracket, and nothing is written back.
func BuildBracket(tournamentID int, matches []*models.Match) *models.Bracket {
	byCoord := make(map[[2]int]*models.Match, len(matches))
	for _, m := range matches {
		byCoord[[2]int{m.Round, m.Slot}] = m
	}

	byRound := make(map[int][]models.BracketNode)
	for _, m := range matches {
		node := models.BracketNode{
			MatchID:      m.ID,
			Round:        m.Round,
			Slot:         m.Slot,
			Status:       m.Status,
			PairAID:      m.PairAID,
			PairBID:      m.PairBID,
			WinnerPairID: m.WinnerPairID,
		}
		nextRound, nextSlot, side := successorSlot(m.Round, m.Slot)
		if next, ok := byCoord[[2]int{nextRound, nextSlot}]; ok {
			nextID := next.ID
			node.NextMatchID = &nextID
			node.NextSlotSide = side
		}
		byRound[m.Round] = append(byRound[m.Round], node)
	}

	rounds := make([]int, 0, len(byRound))
	for round := range byRound {
		rounds = append(rounds, round)
	}
	sort.Ints(rounds)

	bracket := &models.Bracket{TournamentID: tournamentID, Rounds: make([]models.BracketRound, 0, len(rounds))}
	for _, round := range rounds {
		nodes := byRound[round]
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Slot < nodes[j].Slot })
		bracket.Rounds = append(bracket.Rounds, models.BracketRound{Round: round, Nodes: nodes})
	}
	return bracket
}
