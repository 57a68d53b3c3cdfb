package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncLocksAppliesBothFlagsOnce(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "hamburg-major", "2026-06-18T08:00:00Z")

	// Before the lock instant nothing happens.
	require.NoError(t, e.locks.SyncLocks(ctx))
	fresh, err := e.tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.False(t, fresh.EntryListLocked)
	assert.False(t, fresh.LineupLocked)

	e.now = time.Date(2026, 6, 18, 8, 0, 0, 0, time.UTC)
	require.NoError(t, e.locks.SyncLocks(ctx))
	fresh, err = e.tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.True(t, fresh.EntryListLocked)
	assert.True(t, fresh.LineupLocked)

	lockAudits := 0
	for _, entry := range e.auditEntries(t) {
		if entry.Action == "tournament.lock" {
			lockAudits++
		}
	}
	assert.Equal(t, 1, lockAudits)

	// A second sync is a no-op: no extra audit record.
	require.NoError(t, e.locks.SyncLocks(ctx))
	lockAudits = 0
	for _, entry := range e.auditEntries(t) {
		if entry.Action == "tournament.lock" {
			lockAudits++
		}
	}
	assert.Equal(t, 1, lockAudits)
}

func TestIsLockTimePassedUnparseableNeverLocks(t *testing.T) {
	e := newTestEnv()
	tournament := e.createTournament(t, "rotterdam-open", "2026-06-18T08:00:00Z")
	tournament.Policy.LineupLockAt = "sometime next week"

	farFuture := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, e.locks.(*lockService).IsLockTimePassed(tournament, farFuture))
}
