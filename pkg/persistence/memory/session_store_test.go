package memory

import (
	"context"
	"testing"
	"time"

	"github.com/botfluent/botfluent/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	store := NewSessionStore()

	record := &persistence.SessionRecord{
		ID:           "s-1",
		FlowID:       "f-1",
		Status:       "suspended",
		ActiveNodeID: "n-2",
		Awaiting:     "option",
		Variables:    map[string]any{"name": "Ada"},
		StartedAt:    time.Now().UTC(),
	}

	require.NoError(t, store.SaveSession(context.Background(), record))

	loaded, err := store.SessionByID(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "suspended", loaded.Status)
	assert.Equal(t, "n-2", loaded.ActiveNodeID)
	assert.Equal(t, "Ada", loaded.Variables["name"])
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestSessionByIDMissing(t *testing.T) {
	store := NewSessionStore()

	_, err := store.SessionByID(context.Background(), "missing")

	require.ErrorIs(t, err, persistence.ErrSessionNotFound)
}

func TestExpireIdleDropsOnlyStaleSessions(t *testing.T) {
	store := NewSessionStore()

	stale := &persistence.SessionRecord{ID: "stale", FlowID: "f-1", Status: "suspended"}
	require.NoError(t, store.SaveSession(context.Background(), stale))
	store.sessions["stale"].UpdatedAt = time.Now().UTC().Add(-2 * time.Hour)

	fresh := &persistence.SessionRecord{ID: "fresh", FlowID: "f-1", Status: "suspended"}
	require.NoError(t, store.SaveSession(context.Background(), fresh))

	expired, err := store.ExpireIdle(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	_, err = store.SessionByID(context.Background(), "stale")
	assert.ErrorIs(t, err, persistence.ErrSessionNotFound)

	_, err = store.SessionByID(context.Background(), "fresh")
	assert.NoError(t, err)
}
