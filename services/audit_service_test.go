package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/repositories"
)

func TestAuditSnapshotsSurviveLaterMutation(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	tournament := &models.Tournament{ID: 5, Name: "Original Name", Slug: "original"}
	require.NoError(t, e.audit.Record(ctx, testActorID, "tournament.update", "tournament", 5, nil, tournament))

	// Mutating the live object afterwards must not leak into the stored
	// snapshot.
	tournament.Name = "Mutated Name"

	entries := e.auditEntries(t)
	require.Len(t, entries, 1)

	var snapshot models.Tournament
	require.NoError(t, json.Unmarshal(entries[0].After, &snapshot))
	assert.Equal(t, "Original Name", snapshot.Name)
	assert.Nil(t, entries[0].Before)
}

func TestAuditListNewestFirstWithFilters(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	require.NoError(t, e.audit.Record(ctx, 1, "match.complete", "match", 10, nil, map[string]int{"a": 1}))
	require.NoError(t, e.audit.Record(ctx, 2, "match.complete", "match", 11, nil, map[string]int{"a": 2}))
	require.NoError(t, e.audit.Record(ctx, 1, "league.update", "league", 3, nil, map[string]int{"a": 3}))

	page, err := e.audit.List(ctx, repositories.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "league.update", page.Items[0].Action, "newest first")

	action := "match.complete"
	actor := 1
	page, err = e.audit.List(ctx, repositories.AuditFilter{Action: &action, ActorUserID: &actor})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 10, page.Items[0].EntityID)
}

func TestAuditListPaginates(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, e.audit.Record(ctx, testActorID, "entrylist.patch", "entry", i+1, nil, map[string]int{"i": i}))
	}

	page, err := e.audit.List(ctx, repositories.AuditFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 2)
	// Newest-first: page 2 holds entities 3 and 2.
	assert.Equal(t, 3, page.Items[0].EntityID)
	assert.Equal(t, 2, page.Items[1].EntityID)
}
