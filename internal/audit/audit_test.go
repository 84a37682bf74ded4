package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amparo-care/platform/internal/shared/events"
	"github.com/amparo-care/platform/internal/shared/types"
)

func appendChained(t *testing.T, store Store, action, resourceType string) *Entry {
	t.Helper()
	ctx := context.Background()

	prevHash, err := store.LastHash(ctx)
	require.NoError(t, err)

	e := NewEntry(ActorTypeCaregiver, types.NewID(), action, resourceType, nil, nil, prevHash)
	require.NoError(t, store.Append(ctx, e))
	return e
}

func TestEntryHashIsDeterministic(t *testing.T) {
	resourceID := types.NewID()
	e := NewEntry(ActorTypeCaregiver, types.NewID(), "relationship.created", "relationship",
		&resourceID, map[string]any{"relationship_type": "FAMILY", "patient_id": "x"}, "")

	assert.NotEmpty(t, e.Hash)
	assert.True(t, e.VerifyHash())

	// Recomputing after a round trip through the same fields holds.
	assert.Equal(t, e.Hash, e.computeHash())
}

func TestTamperingBreaksHash(t *testing.T) {
	e := NewEntry(ActorTypeAdmin, types.NewID(), "person.deactivated", "person", nil, nil, "")
	require.True(t, e.VerifyHash())

	e.Action = "person.created"
	assert.False(t, e.VerifyHash())
}

func TestChainVerification(t *testing.T) {
	store := NewMemoryStore()

	for range 5 {
		appendChained(t, store, "link.created", "link")
	}

	broken, err := store.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, broken, "untouched chain verifies")
}

func TestChainDetectsBrokenLink(t *testing.T) {
	store := NewMemoryStore()

	appendChained(t, store, "person.created", "person")
	appendChained(t, store, "person.updated", "person")

	// An entry that ignores the chain head.
	rogue := NewEntry(ActorTypeSystem, "", "person.deactivated", "person", nil, nil, "not-the-previous-hash")
	require.NoError(t, store.Append(context.Background(), rogue))

	broken, err := store.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), broken)
}

func TestSubscriberConvertsEvents(t *testing.T) {
	store := NewMemoryStore()
	sub := NewSubscriber(store, nil)

	relID := types.NewID()
	actor := types.NewID()
	event := events.NewEvent("relationship.created", "relationship", map[string]any{
		"relationship_id": relID.String(),
		"patient_id":      types.NewID().String(),
	}).WithActor(actor, "caregiver")

	require.NoError(t, sub.handleEvent(context.Background(), event))

	entries, total, err := store.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	e := entries[0]
	assert.Equal(t, "relationship.created", e.Action)
	assert.Equal(t, "relationship", e.ResourceType)
	require.NotNil(t, e.ResourceID)
	assert.Equal(t, relID, *e.ResourceID)
	assert.Equal(t, ActorTypeCaregiver, e.ActorType)
	assert.Equal(t, actor, e.ActorID)
	assert.True(t, e.VerifyHash())
}

func TestSubscriberSkipsUnstructuredTypes(t *testing.T) {
	store := NewMemoryStore()
	sub := NewSubscriber(store, nil)

	event := events.NewEvent("heartbeat", "system", nil)
	require.NoError(t, sub.handleEvent(context.Background(), event))

	_, total, err := store.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListFilters(t *testing.T) {
	store := NewMemoryStore()

	appendChained(t, store, "person.created", "person")
	appendChained(t, store, "relationship.created", "relationship")
	appendChained(t, store, "relationship.inactivated", "relationship")

	byType, total, err := store.List(context.Background(), ListFilter{ResourceType: "relationship"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, byType, 2)

	byAction, _, err := store.List(context.Background(), ListFilter{Action: "person.created"})
	require.NoError(t, err)
	assert.Len(t, byAction, 1)

	future := time.Now().Add(time.Hour)
	none, _, err := store.List(context.Background(), ListFilter{StartTime: &future})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, total, err := store.List(context.Background(), ListFilter{Offset: -2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)
}
