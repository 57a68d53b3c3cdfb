package services

import "sync"

const guardStripes = 32

// keyedGuard serializes mutating operations per tournament and per season.
// Reads that drive a decision and the write that follows happen under one
// stripe lock. The two key spaces use separate stripe arrays: a scoring run
// holds its tournament stripe while the season-level leaderboard refresh
// takes a season stripe.
type keyedGuard struct {
	tournaments [guardStripes]sync.Mutex
	seasons     [guardStripes]sync.Mutex
}

func (g *keyedGuard) lockTournament(id int) func() {
	m := &g.tournaments[id%guardStripes]
	m.Lock()
	return m.Unlock
}

func (g *keyedGuard) lockSeason(seasonID string) func() {
	h := 0
	for _, c := range seasonID {
		h = h*31 + int(c)
	}
	if h < 0 {
		h = -h
	}
	m := &g.seasons[h%guardStripes]
	m.Lock()
	return m.Unlock
}

var guard keyedGuard
