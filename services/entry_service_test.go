package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandpit-systems/beachline/models"
)

func TestNormalizeEntryListDenseReserveOrder(t *testing.T) {
	// Items 3 and 4 have no explicit order: they sort after the explicit
	// ones, higher ranking first.
	items := []*models.EntryListItem{
		{ID: 1, EntryStatus: models.EntryDirect, Ranking: 1, ReserveOrder: intPtr(9)},
		{ID: 2, EntryStatus: models.EntryReserve, Ranking: 5, ReserveOrder: intPtr(4)},
		{ID: 3, EntryStatus: models.EntryReserve, Ranking: 8},
		{ID: 4, EntryStatus: models.EntryReserve, Ranking: 3},
		{ID: 5, EntryStatus: models.EntryReserve, Ranking: 2, ReserveOrder: intPtr(1)},
	}

	normalizeEntryList(items)

	assert.Nil(t, items[0].ReserveOrder, "non-reserve order must be cleared")
	assert.Equal(t, 1, *items[4].ReserveOrder) // explicit order 1
	assert.Equal(t, 2, *items[1].ReserveOrder) // explicit order 4
	assert.Equal(t, 3, *items[2].ReserveOrder) // absent, higher ranking first
	assert.Equal(t, 4, *items[3].ReserveOrder)
}

func TestNormalizeEntryListIdempotent(t *testing.T) {
	items := []*models.EntryListItem{
		{ID: 1, EntryStatus: models.EntryReserve, Ranking: 4},
		{ID: 2, EntryStatus: models.EntryReserve, Ranking: 7},
		{ID: 3, EntryStatus: models.EntryQualified, Ranking: 1, ReserveOrder: intPtr(2)},
	}

	normalizeEntryList(items)
	first := make([]*int, len(items))
	for i, item := range items {
		first[i] = intPtrCopyForTest(item.ReserveOrder)
	}

	normalizeEntryList(items)
	for i, item := range items {
		if first[i] == nil {
			assert.Nil(t, item.ReserveOrder)
		} else {
			require.NotNil(t, item.ReserveOrder)
			assert.Equal(t, *first[i], *item.ReserveOrder)
		}
	}
}

func intPtrCopyForTest(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func TestReplaceRejectsGenderMismatchAtomically(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "vienna-open", "2026-07-01T08:00:00Z")

	w1 := e.seedPlayer(t, "anna", models.GenderWomen)
	w2 := e.seedPlayer(t, "marta", models.GenderWomen)
	m1 := e.seedPlayer(t, "jonas", models.GenderMen)
	w3 := e.seedPlayer(t, "lea", models.GenderWomen)

	items := []*models.EntryListItem{
		{Player1ID: w1.ID, Player2ID: w2.ID, Ranking: 1, EntryStatus: models.EntryDirect},
		{Player1ID: m1.ID, Player2ID: w3.ID, Ranking: 2, EntryStatus: models.EntryDirect},
	}
	_, err := e.entries.Replace(ctx, testActorID, tournament.ID, items)
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))

	// Nothing was written: the valid first pair did not land either.
	saved, err := e.entries.List(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestReplaceAfterLockFailsWithLockCode(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "gstaad-elite", "2026-06-18T08:00:00Z")
	e.seedPairs(t, tournament.ID, 2)

	e.now = time.Date(2026, 6, 18, 9, 0, 0, 0, time.UTC)

	_, err := e.entries.Replace(ctx, testActorID, tournament.ID, nil)
	require.Error(t, err)
	assert.Equal(t, CodeEntryListLockInvalid, CodeOf(err))

	_, err = e.entries.Patch(ctx, testActorID, tournament.ID, 1, EntryPatch{Ranking: intPtr(3)})
	require.Error(t, err)
	assert.Equal(t, CodeEntryListLockInvalid, CodeOf(err))
}

func TestPatchRenormalizesWholeList(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "doha-challenge", "2026-07-01T08:00:00Z")
	saved := e.seedPairs(t, tournament.ID, 3)

	// Demote the top pair to reserve; it must slot into the dense order.
	reserve := models.EntryReserve
	items, err := e.entries.Patch(ctx, testActorID, tournament.ID, saved[0].ID, EntryPatch{EntryStatus: &reserve})
	require.NoError(t, err)

	var found *models.EntryListItem
	for _, item := range items {
		if item.ID == saved[0].ID {
			found = item
		} else {
			assert.Nil(t, item.ReserveOrder)
		}
	}
	require.NotNil(t, found)
	require.NotNil(t, found.ReserveOrder)
	assert.Equal(t, 1, *found.ReserveOrder)
}

func TestPatchAuditsReshuffledSiblings(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	tournament := e.createTournament(t, "itapema-open", "2026-07-01T08:00:00Z")
	saved := e.seedPairs(t, tournament.ID, 3)

	reserve := models.EntryReserve
	for _, item := range saved[1:] {
		_, err := e.entries.Patch(ctx, testActorID, tournament.ID, item.ID, EntryPatch{EntryStatus: &reserve})
		require.NoError(t, err)
	}

	// Moving the last reserve to the front bumps its sibling's order; both
	// sides of that shuffle must be visible in the one audit entry.
	_, err := e.entries.Patch(ctx, testActorID, tournament.ID, saved[2].ID, EntryPatch{ReserveOrder: intPtr(1)})
	require.NoError(t, err)

	entries := e.auditEntries(t)
	require.NotEmpty(t, entries)
	latest := entries[0]
	assert.Equal(t, "entrylist.patch", latest.Action)
	assert.Equal(t, saved[2].ID, latest.EntityID)

	var before, after []*models.EntryListItem
	require.NoError(t, json.Unmarshal(latest.Before, &before))
	require.NoError(t, json.Unmarshal(latest.After, &after))

	orderOf := func(items []*models.EntryListItem, id int) *int {
		for _, item := range items {
			if item.ID == id {
				return item.ReserveOrder
			}
		}
		return nil
	}

	require.NotNil(t, orderOf(before, saved[1].ID))
	assert.Equal(t, 1, *orderOf(before, saved[1].ID))
	require.NotNil(t, orderOf(after, saved[1].ID))
	assert.Equal(t, 2, *orderOf(after, saved[1].ID), "sibling displacement is part of the snapshot")
	require.NotNil(t, orderOf(after, saved[2].ID))
	assert.Equal(t, 1, *orderOf(after, saved[2].ID))
}

func TestReplaceWritesAuditRecord(t *testing.T) {
	e := newTestEnv()
	tournament := e.createTournament(t, "espinho-open", "2026-07-01T08:00:00Z")
	e.seedPairs(t, tournament.ID, 2)

	var replaceAudits int
	for _, entry := range e.auditEntries(t) {
		if entry.Action == "entrylist.replace" {
			replaceAudits++
			assert.Equal(t, tournament.ID, entry.EntityID)
			assert.NotNil(t, entry.After)
		}
	}
	assert.Equal(t, 1, replaceAudits)
}
